package search

import "github.com/kestrel-chess/kestrel/pkg/board"

// historyTable scores quiet moves by how often they have produced a beta cutoff in the past,
// indexed by moving piece and destination square (spec §4.6 "history heuristic"). Not safe for
// concurrent use; each lazy-SMP worker owns its own table.
type historyTable struct {
	score [board.NumColors][board.NumPieces][64]int32
}

// Add rewards m, proportional to the square of the remaining depth: cutoffs found deep in the
// tree are stronger evidence than shallow ones. Once a value passes 1<<20, halves the color's
// whole table so old data does not dominate newer data.
func (h *historyTable) Add(c board.Color, m board.Move, depth int) {
	bonus := int32(depth * depth)
	v := &h.score[c][m.Piece][m.To]
	*v += bonus
	if *v > 1<<20 {
		h.decay(c)
	}
}

func (h *historyTable) decay(c board.Color) {
	for p := range h.score[c] {
		for sq := range h.score[c][p] {
			h.score[c][p][sq] /= 2
		}
	}
}

// Score returns the current history value for m, used as a move-ordering tiebreaker among
// quiet moves that are neither the TT move nor a killer.
func (h *historyTable) Score(c board.Color, m board.Move) int32 {
	return h.score[c][m.Piece][m.To]
}

// Penalize lowers m's history value when it was tried but failed to produce a cutoff at a node
// where some other move did: without this, a quiet move that is merely searched often (rather
// than one that actually cuts off) would creep upward alongside the moves that do (spec §4.6
// step 9 "decrease history for previously tried moves at this node").
func (h *historyTable) Penalize(c board.Color, m board.Move, depth int) {
	bonus := int32(depth * depth)
	v := &h.score[c][m.Piece][m.To]
	*v -= bonus
	if *v < -(1 << 20) {
		*v = -(1 << 20)
	}
}
