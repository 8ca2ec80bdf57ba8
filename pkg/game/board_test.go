package game_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/board/fen"
	"github.com/kestrel-chess/kestrel/pkg/game"
)

func newBoard(t *testing.T, f string) *game.Board {
	t.Helper()
	zt := board.NewZobristTable(1)
	pos, turn, fullmoves, err := fen.Decode(zt, f)
	require.NoError(t, err)
	_ = turn
	return game.NewBoard(pos, fullmoves)
}

func push(t *testing.T, b *game.Board, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := board.ParseMove(s)
		require.NoError(t, err, s)
		resolved, ok := b.Position().ResolveMove(m.From, m.To, m.Promotion)
		require.True(t, ok, s)
		require.True(t, b.PushMove(resolved), s)
	}
}

// TestThreefoldRepetition shuffles knights back and forth until the same position (with the
// same side to move) has recurred three times (spec §4.2 is_draw "threefold repetition").
func TestThreefoldRepetition(t *testing.T) {
	b := newBoard(t, fen.Initial)
	push(t, b,
		"g1f3", "g8f6", "f3g1", "f6g8",
		"g1f3", "g8f6", "f3g1", "f6g8",
		"g1f3", "g8f6", "f3g1", "f6g8",
	)

	assert.True(t, b.IsDrawByRule())
	assert.Equal(t, board.Repetition3, b.Result().Reason)
}

// TestFiftyMoveRule drives the halfmove clock past the no-progress limit with only king shuffles
// (spec §4.2 is_draw "fifty-move rule").
func TestFiftyMoveRule(t *testing.T) {
	b := newBoard(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 99 60")
	push(t, b, "e1d1")

	assert.True(t, b.IsDrawByRule())
	assert.Equal(t, board.NoProgress, b.Result().Reason)
}

// TestInsufficientMaterial checks that capturing down to a bare king vs. king-and-bishop ending
// is adjudicated a draw immediately on the capture that reaches it.
func TestInsufficientMaterial(t *testing.T) {
	b := newBoard(t, "4k3/8/8/8/8/2b5/8/3BK3 w - - 0 1")
	push(t, b, "d1c2")

	assert.False(t, b.IsDrawByRule()) // bishop still on board, not yet captured

	b2 := newBoard(t, "4k3/8/8/8/8/8/3b4/3BK3 w - - 0 1")
	push(t, b2, "e1d2")

	assert.True(t, b2.IsDrawByRule())
	assert.Equal(t, board.InsufficientMaterial, b2.Result().Reason)
}

// TestAdjudicateNoLegalMoves distinguishes checkmate from stalemate once the caller has
// determined no legal move exists (spec §4.2 is_checkmate/is_stalemate).
func TestAdjudicateNoLegalMoves(t *testing.T) {
	// Fool's mate: white to move is checkmated.
	mate := newBoard(t, fen.Initial)
	push(t, mate, "f2f3", "e7e5", "g2g4", "d8h4")
	require.Empty(t, mate.Position().LegalMoves())

	result := mate.AdjudicateNoLegalMoves()
	assert.Equal(t, board.Checkmate, result.Reason)
	assert.Equal(t, board.BlackWins, result.Outcome)

	// Classic king-in-the-corner stalemate.
	stale := newBoard(t, "7k/8/6Q1/8/8/8/8/1K6 b - - 0 1")
	require.Empty(t, stale.Position().LegalMoves())

	result = stale.AdjudicateNoLegalMoves()
	assert.Equal(t, board.Stalemate, result.Reason)
	assert.Equal(t, board.Draw, result.Outcome)
}

// TestForkIsIndependent checks that mutating a forked Board leaves the original untouched, the
// property lazy-SMP workers rely on when cloning the root for their own search stack.
func TestForkIsIndependent(t *testing.T) {
	b := newBoard(t, fen.Initial)
	fork := b.Fork()

	push(t, fork, "e2e4")

	assert.Equal(t, fen.Initial, fen.Encode(b.Position(), b.Turn(), b.FullMoves()))
	assert.NotEqual(t, fen.Initial, fen.Encode(fork.Position(), fork.Turn(), fork.FullMoves()))
}
