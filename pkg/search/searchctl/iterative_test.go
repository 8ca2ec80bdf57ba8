package searchctl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/board/fen"
	"github.com/kestrel-chess/kestrel/pkg/game"
	"github.com/kestrel-chess/kestrel/pkg/search"
	"github.com/kestrel-chess/kestrel/pkg/search/searchctl"
)

func newTestBoard(t *testing.T, f string) *game.Board {
	t.Helper()
	zt := board.NewZobristTable(1)
	pos, _, fullmoves, err := fen.Decode(zt, f)
	require.NoError(t, err)
	return game.NewBoard(pos, fullmoves)
}

// TestIterative_DepthLimitReturnsLegalMove drives a shallow depth-limited search to completion
// and checks it reports a legal root move with non-decreasing reported depths (spec
// §4.6 "iterative deepening"; spec §6 "go depth D").
func TestIterative_DepthLimitReturnsLegalMove(t *testing.T) {
	b := newTestBoard(t, fen.Initial)
	tt := search.NewTranspositionTable(context.Background(), 1<<20)

	var it searchctl.Iterative
	opt := searchctl.Options{DepthLimit: lang.Some(uint(3))}

	_, out := it.Launch(context.Background(), b, tt, opt)

	var last search.PV
	var depths []int
	for pv := range out {
		depths = append(depths, pv.Depth)
		last = pv
	}

	require.NotEmpty(t, last.Moves)
	legal := b.Position().LegalMoves()
	found := false
	for _, m := range legal {
		if m.Equals(last.Moves[0]) {
			found = true
			break
		}
	}
	assert.True(t, found, "reported bestmove %v not in legal move list", last.Moves[0])
	assert.Equal(t, 3, last.Depth)

	for i := 1; i < len(depths); i++ {
		assert.GreaterOrEqual(t, depths[i], depths[i-1])
	}
}

// TestIterative_MateAtRootReportsImmediately checks that a position with no legal moves
// terminates the search on the first iteration with an empty move list, rather than looping to
// depth 3 (spec §4.6 deepen: "noLegalMove: nothing further to deepen").
func TestIterative_MateAtRootReportsImmediately(t *testing.T) {
	// Fool's mate position: white has just been checkmated.
	b := newTestBoard(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	require.Empty(t, b.Position().LegalMoves())

	tt := search.NewTranspositionTable(context.Background(), 1<<16)
	var it searchctl.Iterative
	opt := searchctl.Options{DepthLimit: lang.Some(uint(5))}

	h, out := it.Launch(context.Background(), b, tt, opt)

	var last search.PV
	for pv := range out {
		last = pv
	}
	assert.Empty(t, last.Moves)

	final := h.Halt()
	assert.Empty(t, final.Moves)
}

// TestIterative_MultiPVReportsDistinctMoves checks that requesting MultiPV>1 at the start
// position yields that many distinct root moves, each legal (spec §4.6 "Multi-PV").
func TestIterative_MultiPVReportsDistinctMoves(t *testing.T) {
	b := newTestBoard(t, fen.Initial)
	tt := search.NewTranspositionTable(context.Background(), 1<<20)

	var it searchctl.Iterative
	opt := searchctl.Options{DepthLimit: lang.Some(uint(2)), MultiPV: 3}

	_, out := it.Launch(context.Background(), b, tt, opt)

	lastByIndex := map[int]search.PV{}
	for pv := range out {
		lastByIndex[pv.Index] = pv
	}

	require.Len(t, lastByIndex, 3)
	seen := map[string]bool{}
	for idx := 1; idx <= 3; idx++ {
		pv, ok := lastByIndex[idx]
		require.True(t, ok, "missing multipv index %v", idx)
		require.NotEmpty(t, pv.Moves)
		key := pv.Moves[0].String()
		assert.False(t, seen[key], "duplicate root move %v across multipv indices", key)
		seen[key] = true
	}
}

// TestIterative_HaltIsIdempotent checks that calling Halt twice on a search that has already
// run to its depth limit returns the same PV both times.
func TestIterative_HaltIsIdempotent(t *testing.T) {
	b := newTestBoard(t, fen.Initial)
	tt := search.NewTranspositionTable(context.Background(), 1<<20)

	var it searchctl.Iterative
	opt := searchctl.Options{DepthLimit: lang.Some(uint(1))}

	h, out := it.Launch(context.Background(), b, tt, opt)

	// Drain the channel so the search is allowed to run to its natural (depth-limited) end.
	for range out {
	}

	first := h.Halt()
	second := h.Halt()
	assert.Equal(t, first, second)
}
