// Package engine is the thin façade the UCI adapter drives: it owns the live game.Board,
// transposition table, and search launcher, and translates protocol-level requests (reset to a
// position, play a move, start/stop analysis) into calls against pkg/board, pkg/game, and
// pkg/search/searchctl. Per spec.md PURPOSE & SCOPE, the UCI protocol itself is an external
// collaborator; this package is the named interface it calls into.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/board/fen"
	"github.com/kestrel-chess/kestrel/pkg/game"
	"github.com/kestrel-chess/kestrel/pkg/search"
	"github.com/kestrel-chess/kestrel/pkg/search/searchctl"
)

var version = build.NewVersion(0, 1, 0)

// Options are the recognized UCI options (spec §6 "Recognized options") that persist across
// searches, as opposed to the per-"go" parameters carried by searchctl.Options.
type Options struct {
	// Hash is the transposition table size in MB. Zero disables the table.
	Hash uint
	// Threads is the number of lazy-SMP search workers.
	Threads uint
	// MultiPV is how many principal variations to report per search.
	MultiPV uint
	// Ponder reports whether the GUI has pondering enabled. The engine never starts pondering on
	// its own (spec §6 "Ponder"); the value is stored but does not affect search or time management.
	Ponder bool
	// MoveOverhead is subtracted from both time budgets to leave margin for GUI/OS latency.
	MoveOverhead time.Duration
	// SoftTimePercent/HardTimePercent tune searchctl.TimeControl.Limits (spec §4.7).
	SoftTimePercent float64
	HardTimePercent float64
	// MaxNodes caps every search, independent of any UCI "go nodes" value. Zero means unlimited.
	MaxNodes uint64
}

func (o Options) String() string {
	return fmt.Sprintf("{hash=%vMB, threads=%v, multipv=%v, ponder=%v, overhead=%v}",
		o.Hash, o.Threads, o.MultiPV, o.Ponder, o.MoveOverhead)
}

// Engine encapsulates game-playing logic: the live position, the shared transposition table, and
// the search launcher driving it. Safe for concurrent use; Analyze/Halt/Move/Reset all hold a
// single mutex, matching the teacher's single-writer engine design.
type Engine struct {
	name, author string

	launcher searchctl.Launcher
	factory  search.TranspositionTableFactory
	zt       *board.ZobristTable
	seed     int64

	mu     sync.Mutex
	opts   Options
	b      *game.Board
	tt     search.TranspositionTable
	active searchctl.Handle
}

// Option is an engine construction option.
type Option func(*Engine)

// WithTable overrides the transposition table factory, e.g. to inject search.NoTranspositionTable
// for perft-only use.
func WithTable(factory search.TranspositionTableFactory) Option {
	return func(e *Engine) { e.factory = factory }
}

// WithOptions sets the initial recognized UCI options.
func WithOptions(opts Options) Option {
	return func(e *Engine) { e.opts = opts }
}

// WithZobrist overrides the Zobrist seed (default 1), mainly for reproducible tests.
func WithZobrist(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// New constructs an Engine at the standard starting position.
func New(ctx context.Context, name, author string, opts ...Option) *Engine {
	e := &Engine{
		name:     name,
		author:   author,
		launcher: &searchctl.Iterative{},
		factory:  search.NewTranspositionTable,
		seed:     1,
		opts:     Options{Hash: 16, Threads: 1, MultiPV: 1},
	}
	for _, fn := range opts {
		fn(e)
	}
	e.zt = board.NewZobristTable(e.seed)

	_ = e.Reset(ctx, fen.Initial)

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version (spec §6 "id name").
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the engine author (spec §6 "id author").
func (e *Engine) Author() string {
	return e.author
}

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetHash resizes the transposition table, clearing it (spec §4.5 "Resizing clears the table").
// The new table is allocated immediately and used by the next Analyze; a search already running
// keeps the table it was launched with.
func (e *Engine) SetHash(mb uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Hash = mb
	e.rebuildTable()
}

func (e *Engine) SetThreads(n uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 {
		n = 1
	}
	e.opts.Threads = n
}

func (e *Engine) SetMultiPV(n uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 {
		n = 1
	}
	e.opts.MultiPV = n
}

func (e *Engine) SetPonder(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Ponder = on
}

func (e *Engine) SetMoveOverhead(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.MoveOverhead = d
}

func (e *Engine) SetSoftTimePercent(pct float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.SoftTimePercent = pct
}

func (e *Engine) SetHardTimePercent(pct float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.HardTimePercent = pct
}

func (e *Engine) SetMaxNodes(n uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.MaxNodes = n
}

// rebuildTable allocates a fresh transposition table sized per the current Hash option. Caller
// must hold e.mu.
func (e *Engine) rebuildTable() {
	e.tt = search.NoTranspositionTable{}
	if e.opts.Hash > 0 {
		e.tt = e.factory(context.Background(), uint64(e.opts.Hash)<<20)
	}
}

// Board returns a forked (independent) copy of the live board.
func (e *Engine) Board() *game.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b.Fork()
}

// Position returns the current position in FEN (spec §6, convenience for UCI "position" echo).
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fen.Encode(e.b.Position(), e.b.Turn(), e.b.FullMoves())
}

// Reset replaces the live position with the one parsed from fenStr (spec §4.2 from_fen) and
// allocates a fresh transposition table (spec §4.5 "TT cleared on size change or on
// ucinewgame"). Halts any active search first.
func (e *Engine) Reset(ctx context.Context, fenStr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Reset %v, options=%v", fenStr, e.opts)

	e.haltSearchIfActive(ctx)

	pos, turn, fullmoves, err := fen.Decode(e.zt, fenStr)
	if err != nil {
		return err
	}
	_ = turn // turn lives on Position; game.Board reads it via Position().Turn()

	e.b = game.NewBoard(pos, fullmoves)
	e.rebuildTable()

	logw.Infof(ctx, "New board: %v", e.b)
	return nil
}

// NewGame handles UCI "ucinewgame": halts any active search and clears the transposition table
// (spec §4.5). Per spec §5 "ucinewgame is only honored between searches", the caller is
// responsible for not invoking this while Analyze is in flight with intent to keep it running;
// the halt-first behavior here makes it safe regardless.
func (e *Engine) NewGame(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltSearchIfActive(ctx)
	e.rebuildTable()
}

// Move applies move (UCI coordinate notation) as the next move in the live game (spec §6 "UCI
// move encoding"). Returns IllegalMove-flavored error if move is not legal from the current
// position; the position is left unchanged on error.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	candidate, err := board.ParseMove(move)
	if err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	e.haltSearchIfActive(ctx)

	resolved, ok := e.b.Position().ResolveMove(candidate.From, candidate.To, candidate.Promotion)
	if !ok {
		return fmt.Errorf("illegal move: %v", move)
	}
	if !e.b.PushMove(resolved) {
		return fmt.Errorf("illegal move: %v", move)
	}

	logw.Debugf(ctx, "Move %v: %v", resolved, e.b)
	return nil
}

// Analyze launches a search against the live position (spec §6 "go"). Fails if a search is
// already active; the UCI driver is responsible for serializing "go" commands (spec §5
// "the UCI thread owns the stop flag and command intake").
func (e *Engine) Analyze(ctx context.Context, opt searchctl.Options) (<-chan search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, fmt.Errorf("search already active")
	}

	if opt.MultiPV < 1 {
		opt.MultiPV = int(e.opts.MultiPV)
	}
	if opt.Threads < 1 {
		opt.Threads = int(e.opts.Threads)
	}
	if tc, ok := opt.TimeControl.V(); ok {
		tc.MoveOverhead = e.opts.MoveOverhead
		if tc.SoftPct == 0 {
			tc.SoftPct = e.opts.SoftTimePercent
		}
		if tc.HardPct == 0 {
			tc.HardPct = e.opts.HardTimePercent
		}
		opt.TimeControl = lang.Some(tc)
	}
	if e.opts.MaxNodes > 0 {
		if n, ok := opt.NodeLimit.V(); !ok || n > e.opts.MaxNodes {
			opt.NodeLimit = lang.Some(e.opts.MaxNodes)
		}
	}

	logw.Infof(ctx, "Analyze %v, opt=%v", e.b, opt)

	handle, out := e.launcher.Launch(ctx, e.b.Fork(), e.tt, opt)
	e.active = handle
	return out, nil
}

// Halt stops the active search and returns its principal variation, if any (spec §6 "stop").
func (e *Engine) Halt(ctx context.Context) (search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pv, ok := e.haltSearchIfActive(ctx)
	if !ok {
		return search.PV{}, fmt.Errorf("no active search")
	}
	return pv, nil
}

func (e *Engine) haltSearchIfActive(ctx context.Context) (search.PV, bool) {
	if e.active == nil {
		return search.PV{}, false
	}
	pv := e.active.Halt()
	logw.Debugf(ctx, "Search halted: %v", pv)
	e.active = nil
	return pv, true
}

// Perft runs Position.Perft at depth from the live position without disturbing it (spec §4.3,
// §6 "perft depth N"). Uses a cloned position so the live game.Board's history stack is
// untouched by the deep make/unmake recursion.
func (e *Engine) Perft(depth int) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b.Position().Clone().Perft(depth)
}
