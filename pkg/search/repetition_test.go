package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/board/fen"
	"github.com/kestrel-chess/kestrel/pkg/eval"
	"github.com/kestrel-chess/kestrel/pkg/game"
)

// shuffledPosition plays a knight out and back n times from the start position, landing back on
// the start position with the same side to move after every full shuffle.
func shuffledPosition(t *testing.T, shuffles int) *board.Position {
	t.Helper()
	zt := board.NewZobristTable(1)
	pos, _, _, err := fen.Decode(zt, fen.Initial)
	require.NoError(t, err)

	for i := 0; i < shuffles; i++ {
		for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
			m, err := board.ParseMove(s)
			require.NoError(t, err, s)
			resolved, ok := pos.ResolveMove(m.From, m.To, m.Promotion)
			require.True(t, ok, s)
			require.True(t, pos.Make(resolved), s)
		}
	}
	return pos
}

// TestIsRepetitionOrFifty_DetectsThreefold checks the same-side-to-move parity fix: the start
// position recurring a third time (after two knight out-and-back shuffles already happened)
// must be detected, not missed by scanning the opposite-parity history slots.
func TestIsRepetitionOrFifty_DetectsThreefold(t *testing.T) {
	pos := shuffledPosition(t, 3)
	assert.True(t, isRepetitionOrFifty(pos))
}

// TestIsRepetitionOrFifty_NotYetThreefold checks that two occurrences (the initial position plus
// one shuffle back to it) is not yet reported as a draw.
func TestIsRepetitionOrFifty_NotYetThreefold(t *testing.T) {
	pos := shuffledPosition(t, 1)
	assert.False(t, isRepetitionOrFifty(pos))
}

// TestNegamax_ReturnsDrawAtRepeatingNode drives a threefold-repeating line directly into negamax
// and checks it returns eval.Draw at the repeating node (spec §4.6 step 1, spec §8 scenario 5).
func TestNegamax_ReturnsDrawAtRepeatingNode(t *testing.T) {
	pos := shuffledPosition(t, 3)

	w := NewWorker(0, game.NewBoard(pos, 1), NoTranspositionTable{}, Limits{}, 1)
	score := w.negamax(pos, eval.NegInf, eval.Inf, 2, 1)
	assert.Equal(t, eval.Draw, score)
}
