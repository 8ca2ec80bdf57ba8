// Package uci contains a driver for using the engine under the UCI protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"

	"github.com/seekerror/logw"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/engine"
	"github.com/kestrel-chess/kestrel/pkg/search"
	"github.com/kestrel-chess/kestrel/pkg/search/searchctl"

	"github.com/seekerror/stdlib/pkg/lang"
)

const ProtocolName = "uci"

// Driver implements a UCI driver for an Engine. It is activated by "uci" over stdin/out.
type Driver struct {
	e *engine.Engine

	out chan<- string

	active atomic.Bool    // the GUI is waiting for a bestmove
	pv     chan search.PV // intermediate search info, forwarded from Engine.Analyze
	done   chan struct{}  // closed when the current search's pv channel drains

	lastPosition string // last "position ..." line, for incremental move application

	quit   chan struct{}
	closed atomic.Bool
}

// NewDriver starts a driver reading commands from in and writing replies to the returned channel.
func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		e:    e,
		out:  out,
		pv:   make(chan search.PV, 400),
		quit: make(chan struct{}),
	}
	go d.process(ctx, in)
	return d, out
}

func (d *Driver) Close() {
	if d.closed.CAS(false, true) {
		close(d.quit)
	}
}

func (d *Driver) Closed() <-chan struct{} {
	return d.quit
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	// id/option/uciok must precede any other output (protocol handshake).

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())

	opts := d.e.Options()
	d.out <- fmt.Sprintf("option name Hash type spin default %v min 0 max 65536", opts.Hash)
	d.out <- fmt.Sprintf("option name Threads type spin default %v min 1 max 512", opts.Threads)
	d.out <- fmt.Sprintf("option name MultiPV type spin default %v min 1 max 256", opts.MultiPV)
	d.out <- "option name Ponder type check default false"
	d.out <- fmt.Sprintf("option name Move Overhead type spin default %v min 0 max 5000", opts.MoveOverhead.Milliseconds())
	d.out <- "option name Soft Time Percent type spin default 2 min 1 max 100"
	d.out <- "option name Hard Time Percent type spin default 50 min 1 max 100"
	d.out <- "option name Max Nodes type spin default 0 min 0 max 2000000000"

	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream broken. Exiting")
				return
			}

			fields := strings.Fields(line)
			if len(fields) == 0 {
				break
			}
			cmd, args := strings.ToLower(fields[0]), fields[1:]

			switch cmd {
			case "isready":
				// Synchronizes GUI and engine; must always be answered, even mid-search.
				d.out <- "readyok"

			case "debug":
				// No-op: the engine's structured logging is configured out-of-band.

			case "setoption":
				d.setOption(args)

			case "register":
				// No-op: the engine is not a licensed product.

			case "ucinewgame":
				d.ensureInactive(ctx)
				d.e.NewGame(ctx)
				d.lastPosition = ""

			case "position":
				if !d.handlePosition(ctx, line, args) {
					return
				}

			case "go":
				if !d.handleGo(ctx, args) {
					return
				}

			case "stop":
				d.haltAndReport(ctx)

			case "ponderhit":
				// No-op: the engine never starts pondering on its own (see "Ponder" option).

			case "perft":
				d.handlePerft(args)

			case "quit":
				return

			default:
				logw.Warningf(ctx, "Unknown command %q: %v", cmd, args)
			}

		case pv := <-d.pv:
			if d.active.Load() {
				d.out <- printPV(pv)
			}

		case <-d.quit:
			d.ensureInactive(ctx)
			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

func (d *Driver) setOption(args []string) {
	// "setoption name <id> [value <x>]" -- name and value may both contain spaces, so re-split
	// on the literal "value" token rather than by position.
	joined := strings.TrimPrefix(strings.Join(args, " "), "name ")

	name, value, hasValue := joined, "", false
	if idx := strings.Index(joined, " value "); idx >= 0 {
		name, value, hasValue = joined[:idx], joined[idx+len(" value "):], true
	}

	switch name {
	case "Hash":
		if n, err := strconv.Atoi(value); hasValue && err == nil {
			d.e.SetHash(uint(n))
		}
	case "Threads":
		if n, err := strconv.Atoi(value); hasValue && err == nil {
			d.e.SetThreads(uint(n))
		}
	case "MultiPV":
		if n, err := strconv.Atoi(value); hasValue && err == nil {
			d.e.SetMultiPV(uint(n))
		}
	case "Ponder":
		if b, err := strconv.ParseBool(value); hasValue && err == nil {
			d.e.SetPonder(b)
		}
	case "Move Overhead":
		if n, err := strconv.Atoi(value); hasValue && err == nil {
			d.e.SetMoveOverhead(time.Duration(n) * time.Millisecond)
		}
	case "Soft Time Percent":
		if n, err := strconv.ParseFloat(value, 64); hasValue && err == nil {
			d.e.SetSoftTimePercent(n / 100)
		}
	case "Hard Time Percent":
		if n, err := strconv.ParseFloat(value, 64); hasValue && err == nil {
			d.e.SetHardTimePercent(n / 100)
		}
	case "Max Nodes":
		if n, err := strconv.ParseUint(value, 10, 64); hasValue && err == nil {
			d.e.SetMaxNodes(n)
		}
	}
}

const fenInitial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// handlePosition implements "position [fen <fenstring> | startpos] moves <move1> ... <movei>".
// When line is a continuation of the previous position string (the common case during a game),
// only the newly appended moves are replayed, avoiding a full Reset.
func (d *Driver) handlePosition(ctx context.Context, line string, args []string) bool {
	d.ensureInactive(ctx)

	if d.lastPosition != "" && strings.HasPrefix(line, d.lastPosition) {
		suffix := strings.TrimSpace(strings.TrimPrefix(line, d.lastPosition))
		for _, arg := range strings.Fields(suffix) {
			if arg == "moves" {
				continue
			}
			if err := d.e.Move(ctx, arg); err != nil {
				logw.Errorf(ctx, "Invalid position move %q: %v: %v", arg, line, err)
				return false
			}
		}
		d.lastPosition = line
		return true
	}

	position := fenInitial
	rest := args
	switch {
	case len(args) >= 1 && args[0] == "startpos":
		rest = args[1:]
	case len(args) >= 7 && args[0] == "fen":
		position = strings.Join(args[1:7], " ")
		rest = args[7:]
	}

	if err := d.e.Reset(ctx, position); err != nil {
		logw.Errorf(ctx, "Invalid position: %v: %v", line, err)
		return false
	}

	move := false
	for _, arg := range rest {
		if arg == "moves" {
			move = true
			continue
		}
		if !move {
			continue
		}
		if err := d.e.Move(ctx, arg); err != nil {
			logw.Errorf(ctx, "Invalid position move %q: %v: %v", arg, line, err)
			return false
		}
	}
	d.lastPosition = line
	return true
}

// handleGo implements "go [searchmoves ...] [wtime x] [btime x] [winc x] [binc x]
// [movestogo x] [depth x] [nodes x] [movetime x] [mate x] [infinite]" (spec §6 "go").
func (d *Driver) handleGo(ctx context.Context, args []string) bool {
	d.ensureInactive(ctx)

	var opt searchctl.Options
	var tc searchctl.TimeControl
	haveTC := false
	infinite := false
	movetime := time.Duration(0)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "searchmoves":
			for i+1 < len(args) {
				m, err := board.ParseMove(args[i+1])
				if err != nil {
					break
				}
				opt.SearchMoves = append(opt.SearchMoves, m)
				i++
			}

		case "wtime", "btime", "winc", "binc", "movestogo", "depth", "nodes", "movetime", "mate":
			cmd := args[i]
			i++
			if i == len(args) {
				logw.Errorf(ctx, "No argument for %v", cmd)
				return false
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				logw.Errorf(ctx, "Invalid argument for %v: %v", cmd, err)
				return false
			}
			switch cmd {
			case "depth":
				opt.DepthLimit = lang.Some(uint(n))
			case "nodes":
				opt.NodeLimit = lang.Some(uint64(n))
			case "wtime":
				tc.White, haveTC = time.Duration(n)*time.Millisecond, true
			case "btime":
				tc.Black, haveTC = time.Duration(n)*time.Millisecond, true
			case "winc":
				tc.WhiteInc, haveTC = time.Duration(n)*time.Millisecond, true
			case "binc":
				tc.BlackInc, haveTC = time.Duration(n)*time.Millisecond, true
			case "movestogo":
				tc.MovesToGo, haveTC = n, true
			case "movetime":
				movetime = time.Duration(n) * time.Millisecond
			case "mate":
				// mate-in-N search: approximate via a depth cap of 2N plies plus margin.
				opt.DepthLimit = lang.Some(uint(2*n + 4))
			}

		case "infinite":
			infinite = true

		case "ponder":
			// Accepted but not acted on: see "Ponder" option handling.

		default:
			logw.Warningf(ctx, "Unrecognized go argument: %v", args[i])
		}
	}

	if movetime > 0 {
		opt.TimeControl = lang.Some(searchctl.TimeControl{White: movetime, Black: movetime})
	} else if haveTC {
		opt.TimeControl = lang.Some(tc)
	}

	out, err := d.e.Analyze(ctx, opt)
	if err != nil {
		logw.Errorf(ctx, "Analyze failed: %v", err)
		return false
	}
	d.active.Store(true)
	d.done = make(chan struct{})

	done := d.done
	go func() {
		defer close(done)
		var last search.PV
		for pv := range out {
			last = pv
			select {
			case d.pv <- pv:
			default:
			}
		}
		if !infinite {
			d.searchCompleted(ctx, last)
		}
	}()

	if movetime > 0 && !haveTC {
		time.AfterFunc(movetime, func() {
			_, _ = d.e.Halt(ctx)
		})
	}
	return true
}

func (d *Driver) handlePerft(args []string) {
	depth := 1
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "depth" {
			if n, err := strconv.Atoi(args[i+1]); err == nil {
				depth = n
			}
		}
	}
	nodes := d.e.Perft(depth)
	d.out <- fmt.Sprintf("info string perft depth %v nodes %v", depth, nodes)
}

// ensureInactive halts any active search and blocks until its forwarding goroutine has drained,
// so the caller never races a stale PV arriving after a new position/search has started.
func (d *Driver) ensureInactive(ctx context.Context) {
	d.active.Store(false)
	_, _ = d.e.Halt(ctx)
	if d.done != nil {
		<-d.done
		d.done = nil
	}
}

// haltAndReport implements "stop": halt the active search and emit its final bestmove, if any.
func (d *Driver) haltAndReport(ctx context.Context) {
	if !d.active.Load() {
		return
	}
	pv, err := d.e.Halt(ctx)
	if err != nil {
		return
	}
	d.searchCompleted(ctx, pv)
}

func (d *Driver) searchCompleted(ctx context.Context, pv search.PV) {
	if !d.active.CAS(true, false) {
		return // stale or duplicate result
	}
	_ = ctx
	if len(pv.Moves) > 0 {
		d.out <- printPV(pv)
		d.out <- fmt.Sprintf("bestmove %v", printMove(pv.Moves[0]))
	} else {
		d.out <- "bestmove 0000"
	}
}

// printPV formats one "info" line (spec §6 "info"): depth, score (cp or mate, in move count not
// plies), nodes, time, nps, and the principal variation.
func printPV(pv search.PV) string {
	parts := []string{"info", fmt.Sprintf("depth %v", pv.Depth)}
	if pv.SelDepth > 0 {
		parts = append(parts, fmt.Sprintf("seldepth %v", pv.SelDepth))
	}
	if pv.Index > 0 {
		parts = append(parts, fmt.Sprintf("multipv %v", pv.Index))
	}
	if pv.Score.IsMateScore() {
		parts = append(parts, fmt.Sprintf("score mate %v", pv.Score.MateIn()))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %v", int32(pv.Score)))
	}
	if pv.Nodes > 0 {
		parts = append(parts, fmt.Sprintf("nodes %v", pv.Nodes))
	}
	ms := pv.Time.Milliseconds()
	if ms > 0 {
		parts = append(parts, fmt.Sprintf("time %v", ms))
	}
	if pv.Nodes > 0 && ms > 0 {
		parts = append(parts, fmt.Sprintf("nps %v", pv.Nodes*1000/uint64(ms)))
	}
	if len(pv.Moves) > 0 {
		var moves []string
		for _, m := range pv.Moves {
			moves = append(moves, printMove(m))
		}
		parts = append(parts, "pv "+strings.Join(moves, " "))
	}
	return strings.Join(parts, " ")
}

// printMove formats a move in UCI coordinate notation, special-casing the null move (spec §6
// "0000"): Move{} has From==To=="a1" and would otherwise stringify as "a1a1".
func printMove(m board.Move) string {
	if m.IsZero() {
		return "0000"
	}
	return fmt.Sprintf("%v%v%v", m.From, m.To, printPromoPiece(m.Promotion))
}

func printPromoPiece(p board.Piece) string {
	switch p {
	case board.Queen:
		return "q"
	case board.Rook:
		return "r"
	case board.Knight:
		return "n"
	case board.Bishop:
		return "b"
	default:
		return ""
	}
}
