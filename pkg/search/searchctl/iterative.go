package searchctl

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/seekerror/logw"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
	"github.com/kestrel-chess/kestrel/pkg/game"
	"github.com/kestrel-chess/kestrel/pkg/search"
)

// aspirationDelta is the initial half-width of the aspiration window around the previous
// iteration's score (spec §4.6 "Aspiration windows: begin with (prev_score − δ, prev_score + δ)
// for δ=16; on fail-low/fail-high, widen exponentially toward ±∞").
const aspirationDelta = eval.Score(16)

// Iterative is the root driver: iterative deepening with aspiration windows, multi-PV, and
// optional lazy-SMP, built on top of a pool of search.Workers sharing one transposition table
// (spec §4.6, §4.7).
type Iterative struct{}

func (i *Iterative) Launch(ctx context.Context, b *game.Board, tt search.TranspositionTable, opt Options) (Handle, <-chan search.PV) {
	out := make(chan search.PV, 64)
	h := &handle{
		stop: atomic.NewBool(false),
		done: make(chan struct{}),
	}
	if tt != nil {
		tt.NewSearch()
	}
	go i.run(ctx, b, tt, opt, out, h)
	return h, out
}

// handle owns the shared stop flag for every worker of one search and the final PV reported
// once all workers have observed it (spec §5 "a stop command causes all workers to observe the
// flag within one poll quantum ... after which exactly one bestmove line is emitted").
type handle struct {
	stop *atomic.Bool
	done chan struct{}

	mu sync.Mutex
	pv search.PV
}

// Halt requests a cooperative stop and blocks until every worker has unwound (bounded by the
// node-check quantum, spec §4.7), then returns the best completed PV. Idempotent: calling Halt
// again after the search already finished on its own just returns the same result.
func (h *handle) Halt() search.PV {
	h.stop.Store(true)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pv
}

func (i *Iterative) run(ctx context.Context, b *game.Board, tt search.TranspositionTable, opt Options, out chan<- search.PV, h *handle) {
	defer close(out)
	defer close(h.done)

	threads := opt.Threads
	if threads < 1 {
		threads = 1
	}
	multiPV := opt.MultiPV
	if multiPV < 1 {
		multiPV = 1
	}

	limits := search.Limits{Stop: h.stop}
	if nodes, ok := opt.NodeLimit.V(); ok {
		limits.NodeLimit = nodes
	}

	var soft time.Duration
	useSoft := false
	if tc, ok := opt.TimeControl.V(); ok {
		s, hard := tc.Limits(b.Turn())
		soft, useSoft = s, true
		limits.Deadline = time.Now().Add(hard)
	}

	workers := search.NewWorkerPool(threads, b, tt, limits, time.Now().UnixNano())

	results := make([]search.PV, len(workers))
	var wg sync.WaitGroup
	for idx := range workers {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = i.deepen(ctx, workers[idx], opt, multiPV, idx == 0, soft, useSoft, out)
		}(idx)
	}
	wg.Wait()

	if best, ok := search.BestOf(results); ok {
		h.mu.Lock()
		h.pv = best
		h.mu.Unlock()
	}
	logw.Debugf(ctx, "Search halted: nodes=%v", totalNodes(workers))
}

// deepen runs one worker's iterative-deepening loop (spec §4.6), reporting each completed
// depth's PV(s) on out when report is set (the main thread, ID 0); helper lazy-SMP threads
// search silently and contribute only their final result to the pool's BestOf comparison.
func (i *Iterative) deepen(ctx context.Context, w *search.Worker, opt Options, multiPV int, report bool, soft time.Duration, useSoft bool, out chan<- search.PV) search.PV {
	depthLimit := 0
	if d, ok := opt.DepthLimit.V(); ok {
		depthLimit = int(d)
	}

	start := time.Now()
	var last search.PV
	prevScore := eval.Score(0)
	havePrev := false

	for depth := 1; depth < eval.MaxPly; depth++ {
		if w.Limits.Stop != nil && w.Limits.Stop.Load() {
			break
		}

		pvs, ok := i.searchMultiPV(w, depth, prevScore, havePrev, multiPV, opt.SearchMoves)
		if !ok {
			break // stopped mid-iteration: keep the prior completed depth's result
		}

		elapsed := time.Since(start)
		for idx := range pvs {
			pvs[idx].Depth = depth
			pvs[idx].SelDepth = w.SelDepth()
			pvs[idx].Nodes = w.Nodes()
			pvs[idx].Time = elapsed
			if report {
				select {
				case out <- pvs[idx]:
				default:
				}
			}
		}

		last = pvs[0]
		prevScore, havePrev = last.Score, true

		noLegalMove := len(last.Moves) == 0
		if noLegalMove {
			break // checkmate or stalemate at the root: nothing further to deepen
		}
		if depthLimit > 0 && depth >= depthLimit {
			break
		}
		if plies, ok := matePlies(last.Score); ok && depth >= plies {
			break // forced mate found within full-width search: exact, no need to go deeper
		}
		if useSoft && time.Since(start) > soft {
			break
		}
	}
	return last
}

// matePlies converts a mate score to the ply depth at which it was first provable, so the
// iterative loop can stop once a shallower search could not have improved on it.
func matePlies(s eval.Score) (int, bool) {
	if !s.IsMateScore() {
		return 0, false
	}
	n := s.MateIn()
	if n < 0 {
		n = -n
	}
	return 2*n - 1, true
}

// searchMultiPV runs up to multiPV root searches at depth, excluding each previously found best
// move in turn (spec §4.6 "Multi-PV: ... exclude it and re-search for the next PV"). The first
// search uses an aspiration window seeded from prevScore; subsequent exclusion passes use a full
// window, since removing the best move can shift the score far outside that window.
func (i *Iterative) searchMultiPV(w *search.Worker, depth int, prevScore eval.Score, havePrev bool, multiPV int, searchMoves []board.Move) ([]search.PV, bool) {
	var pvs []search.PV
	var exclude []board.Move

	for idx := 0; idx < multiPV; idx++ {
		var (
			bestMove board.Move
			score    eval.Score
			ok       bool
		)
		if idx == 0 && havePrev && depth > 1 {
			bestMove, score, ok = aspiratedSearchRoot(w, depth, prevScore, searchMoves, exclude)
		} else {
			bestMove, score, _, ok = w.SearchRoot(eval.NegInf, eval.Inf, depth, searchMoves, exclude)
		}
		if !ok {
			return nil, false
		}

		if bestMove.IsZero() {
			if idx == 0 {
				return []search.PV{{Index: 1, Score: score}}, true // root is terminal: no move
			}
			break // fewer legal moves remain than the requested MultiPV count
		}

		pvs = append(pvs, search.PV{Index: idx + 1, Moves: w.ExtractPV(bestMove, depth), Score: score})
		exclude = append(exclude, bestMove)
	}
	return pvs, true
}

// aspiratedSearchRoot re-searches with an exponentially widening window on fail-low/fail-high
// until a score lands strictly inside the window (spec §4.6 "Aspiration windows").
func aspiratedSearchRoot(w *search.Worker, depth int, prevScore eval.Score, searchMoves, exclude []board.Move) (board.Move, eval.Score, bool) {
	delta := eval.Score(w.Diversify(int32(aspirationDelta)))
	alpha := prevScore - delta
	beta := prevScore + delta

	for {
		if alpha < eval.NegInf {
			alpha = eval.NegInf
		}
		if beta > eval.Inf {
			beta = eval.Inf
		}

		bestMove, score, bound, ok := w.SearchRoot(alpha, beta, depth, searchMoves, exclude)
		if !ok {
			return board.Move{}, 0, false
		}
		if bound == search.Exact || (alpha == eval.NegInf && beta == eval.Inf) {
			return bestMove, score, true
		}

		delta *= 2
		if bound == search.Upper {
			alpha = prevScore - delta
		} else {
			beta = prevScore + delta
		}
	}
}

func totalNodes(workers []*search.Worker) uint64 {
	var n uint64
	for _, w := range workers {
		n += w.Nodes()
	}
	return n
}
