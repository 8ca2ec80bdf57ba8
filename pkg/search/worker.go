package search

import (
	"math/rand"
	"time"

	"go.uber.org/atomic"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
	"github.com/kestrel-chess/kestrel/pkg/game"
)

// nodeCheckInterval is how often, in nodes, the search polls the shared stop flag and checks
// elapsed time and the node limit (spec §4.7, §5 "ordering guarantees": a stop is observed
// within one poll quantum).
const nodeCheckInterval = 4096

// Limits bounds one Worker's search. The Stop flag is shared by every worker in a lazy-SMP pool
// so a single UCI "stop" halts them all within one poll quantum (spec §4.6 "SMP", §5).
type Limits struct {
	Stop      *atomic.Bool
	Deadline  time.Time // zero means no deadline
	NodeLimit uint64    // zero means unlimited
}

// Worker carries one lazy-SMP search thread's mutable state: its own board, thread-local
// move-ordering tables, and node counter, plus a reference to the transposition table shared by
// every worker in the pool (spec §4.6 "Lazy SMP").
type Worker struct {
	ID     int
	Board  *game.Board
	TT     TranspositionTable
	Limits Limits
	Rand   *rand.Rand // diversifies lazy-SMP helper threads, see smp.go

	killers *killerTable
	history *historyTable

	nodes    uint64
	seldepth int
	stopped  bool
}

// NewWorker constructs a Worker. b is owned exclusively by this worker; callers hand it a
// dedicated Board.Fork() for every worker beyond the first (spec §4.6 "Lazy SMP": workers run
// identical iterative deepening on their own Position copy).
func NewWorker(id int, b *game.Board, tt TranspositionTable, limits Limits, seed int64) *Worker {
	return &Worker{
		ID:      id,
		Board:   b,
		TT:      tt,
		Limits:  limits,
		Rand:    rand.New(rand.NewSource(seed)),
		killers: &killerTable{},
		history: &historyTable{},
	}
}

func (w *Worker) Nodes() uint64 { return w.nodes }
func (w *Worker) SelDepth() int { return w.seldepth }
func (w *Worker) Stopped() bool { return w.stopped }

// Reset clears per-search state so the worker can be reused for a new "go" command without
// reallocating its killer/history tables (which stay warm across moves within one game).
func (w *Worker) Reset(limits Limits) {
	w.Limits = limits
	w.nodes = 0
	w.seldepth = 0
	w.stopped = false
}

// checkStop polls the shared stop flag, node limit, and deadline every nodeCheckInterval nodes;
// cheap in between (spec §4.7 "checks the stop flag every 4096 nodes").
func (w *Worker) checkStop() bool {
	if w.stopped {
		return true
	}
	if w.nodes%nodeCheckInterval != 0 {
		return false
	}
	if w.Limits.Stop != nil && w.Limits.Stop.Load() {
		w.stopped = true
		return true
	}
	if w.Limits.NodeLimit > 0 && w.nodes >= w.Limits.NodeLimit {
		w.stopped = true
		return true
	}
	if !w.Limits.Deadline.IsZero() && !time.Now().Before(w.Limits.Deadline) {
		w.stopped = true
		return true
	}
	return false
}

// sideToMoveEval converts eval.Evaluate's White-relative static score into the side-to-move
// relative convention negamax search uses throughout (alpha, beta, and every returned score are
// "good for whoever is about to move").
func sideToMoveEval(pos *board.Position) eval.Score {
	s := eval.Evaluate(pos)
	if pos.Turn() == board.Black {
		return -s
	}
	return s
}

// hasNonPawnMaterial reports whether c holds any piece besides pawns and king: the null-move
// pruning guard against zugzwang-prone king-and-pawn endgames (spec §4.6 step 5).
func hasNonPawnMaterial(pos *board.Position, c board.Color) bool {
	return pos.Piece(c, board.Knight)|pos.Piece(c, board.Bishop)|pos.Piece(c, board.Rook)|pos.Piece(c, board.Queen) != 0
}

// isRepetitionOrFifty reports a draw by the fifty-move rule or threefold repetition, scanning
// the no-progress window of the position's own history stack -- which, since search makes and
// unmakes moves directly on the game's live Position, spans both the search stack and prior
// game history in one pass (spec §4.2 is_draw, §4.6 step 1).
func isRepetitionOrFifty(pos *board.Position) bool {
	if pos.Halfmove() >= 100 {
		return true
	}

	target := pos.Hash()
	ply := pos.Ply()
	window := pos.Halfmove()
	if window > ply {
		window = ply
	}

	// HistoryAt(ply-i) holds the hash i-1 plies before the current position; i=1 is the current
	// position itself, already counted below. The same side to move recurs every 2 plies, so
	// only i = 3, 5, 7, ... can match (see game.Board.repetitionCount, DESIGN.md).
	count := 1
	for i := 3; i <= window; i += 2 {
		if _, hash, ok := pos.HistoryAt(ply - i); ok && hash == target {
			count++
			if count >= 3 {
				return true
			}
		}
	}
	return false
}
