package search

import "github.com/kestrel-chess/kestrel/pkg/game"

// NewWorkerPool builds n workers sharing tt and limits, for Lazy SMP (spec §4.6 "SMP (optional):
// Lazy SMP. N worker threads run identical iterative deepening on their own Position copy,
// sharing the TT"). Worker 0 owns root directly; every other worker gets its own Board.Fork().
func NewWorkerPool(n int, root *game.Board, tt TranspositionTable, limits Limits, baseSeed int64) []*Worker {
	if n < 1 {
		n = 1
	}

	workers := make([]*Worker, n)
	workers[0] = NewWorker(0, root, tt, limits, baseSeed)
	for i := 1; i < n; i++ {
		workers[i] = NewWorker(i, root.Fork(), tt, limits, baseSeed+int64(i))
	}
	return workers
}

// Diversify perturbs a lazy-SMP helper worker's aspiration delta so it explores a different
// window than the main thread, reducing the odds every worker converges on the same line (spec
// §4.6 "Workers differ in aspiration widths ... to diversify"). Called from searchctl's root
// driver when seeding the initial aspiration window for a given worker.
func (w *Worker) Diversify(delta int32) int32 {
	if w.ID == 0 {
		return delta
	}
	return delta + int32(w.ID*6)
}

// skipMove reports whether a lazy-SMP helper thread should skip trying the move at the given
// move index of a node (root or interior) this pass, thinning its search tree so it covers different lines than the
// main thread (spec §4.6 "move-ordering noise (skipping a few moves at certain plies)"). The
// main thread (ID 0) and the first move (the TT/best-move candidate) are never skipped.
func (w *Worker) skipMove(index int) bool {
	if w.ID == 0 || index == 0 {
		return false
	}
	return w.Rand.Intn(w.ID+4) == 0
}

// BestOf selects the most trustworthy result among a lazy-SMP pool's per-worker best lines: the
// one that reached the greatest completed depth, breaking ties by node count (spec §4.6 "The
// main thread returns the best move from the thread that reached the highest completed depth;
// ties broken by node count").
func BestOf(results []PV) (PV, bool) {
	var best PV
	found := false
	for _, r := range results {
		if len(r.Moves) == 0 {
			continue
		}
		if !found || r.Depth > best.Depth || (r.Depth == best.Depth && r.Nodes > best.Nodes) {
			best = r
			found = true
		}
	}
	return best, found
}
