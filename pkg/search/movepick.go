package search

import (
	"container/heap"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// Priority represents a move's ordering priority: higher is searched first.
type Priority int32

const (
	priorityTT            Priority = 1_000_000
	priorityCapture       Priority = 100_000
	priorityPromo         Priority = 90_000
	priorityKiller1       Priority = 80_000
	priorityKiller2       Priority = 79_000
	priorityLosingCapture Priority = -2_000_000
)

// MoveList is a move priority queue backed by a fixed-size binary heap: Next always returns
// the highest-priority remaining move (spec §4.6 "move ordering").
type MoveList struct {
	h moveHeap
}

// NewMoveList builds a move list scored by fn, typically orderer.Priority.
func NewMoveList(moves []board.Move, fn func(board.Move) Priority) *MoveList {
	h := make(moveHeap, len(moves))
	for i, m := range moves {
		h[i] = elm{m: m, val: fn(m)}
	}
	heap.Init(&h)
	return &MoveList{h: h}
}

// Next pops and returns the highest-priority remaining move.
func (ml *MoveList) Next() (board.Move, bool) {
	if ml.h.Len() == 0 {
		return board.Move{}, false
	}
	return heap.Pop(&ml.h).(elm).m, true
}

func (ml *MoveList) Len() int {
	return ml.h.Len()
}

type elm struct {
	m   board.Move
	val Priority
}

type moveHeap []elm

func (h moveHeap) Len() int            { return len(h) }
func (h moveHeap) Less(i, j int) bool  { return h[i].val > h[j].val }
func (h moveHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *moveHeap) Push(x interface{}) { *h = append(*h, x.(elm)) }
func (h *moveHeap) Pop() interface{} {
	n := len(*h)
	ret := (*h)[n-1]
	*h = (*h)[:n-1]
	return ret
}

// orderer scores candidate moves for one search node: the transposition table's remembered best
// move first, then winning captures (SEE ≥ 0) by MVV-LVA, then promotions, then the ply's killer
// moves, then quiet moves by history heuristic score, and finally losing captures (SEE < 0) last
// of all (spec §4.6 step 7).
type orderer struct {
	pos     *board.Position
	ttMove  board.Move
	killers *killerTable
	history *historyTable
	turn    board.Color
	ply     int
}

func (o orderer) Priority(m board.Move) Priority {
	if !o.ttMove.IsZero() && m.Equals(o.ttMove) {
		return priorityTT
	}
	if m.IsCapture() {
		gain := eval.NominalValue(m.Capture) - eval.NominalValue(m.Piece)/64
		if seeCapture(o.pos, m) {
			return priorityCapture + Priority(gain)
		}
		return priorityLosingCapture + Priority(gain)
	}
	if m.IsPromotion() {
		return priorityPromo + Priority(eval.NominalValue(m.Promotion))
	}
	if o.killers != nil {
		if o.killers.moves[clampPly(o.ply)][0].Equals(m) {
			return priorityKiller1
		}
		if o.killers.moves[clampPly(o.ply)][1].Equals(m) {
			return priorityKiller2
		}
	}
	if o.history != nil {
		// Capped below the killer band so a large history value never outranks a killer.
		if s := Priority(o.history.Score(o.turn, m)); s < priorityKiller2 {
			return s
		}
		return priorityKiller2 - 1
	}
	return 0
}

func clampPly(ply int) int {
	if ply < 0 {
		return 0
	}
	if ply >= eval.MaxPly {
		return eval.MaxPly - 1
	}
	return ply
}
