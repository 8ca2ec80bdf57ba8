package search

import (
	"time"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// PV is one principal-variation result, produced once per completed (or interrupted) iterative
// deepening depth and reported up through searchctl to the UCI driver (spec §4.6, §6 "info" /
// "bestmove").
type PV struct {
	Index    int // 1-based MultiPV rank
	Depth    int
	SelDepth int
	Moves    []board.Move
	Score    eval.Score
	Nodes    uint64
	Time     time.Duration
}
