package search

import (
	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// killerTable remembers, per ply, the two most recent quiet moves that caused a beta cutoff.
// Tried early at the same ply in sibling nodes, since a move that refuted one line often
// refutes a similar one (spec §4.6 "killer move ordering"). Not safe for concurrent use; each
// lazy-SMP worker owns its own table.
type killerTable struct {
	moves [eval.MaxPly][2]board.Move
}

// Add records m as the newest killer at ply, demoting the previous newest to second place.
// Ignored if m is already the newest killer at this ply; the second killer re-added is promoted.
func (k *killerTable) Add(ply int, m board.Move) {
	if ply < 0 || ply >= len(k.moves) {
		return
	}
	if k.moves[ply][0].Equals(m) {
		return
	}
	k.moves[ply][1] = k.moves[ply][0]
	k.moves[ply][0] = m
}

// IsKiller reports whether m is one of the two recorded killers at ply.
func (k *killerTable) IsKiller(ply int, m board.Move) bool {
	if ply < 0 || ply >= len(k.moves) {
		return false
	}
	return k.moves[ply][0].Equals(m) || k.moves[ply][1].Equals(m)
}
