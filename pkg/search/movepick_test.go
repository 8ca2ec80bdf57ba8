package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/board/fen"
)

func decodeFEN(t *testing.T, s string) *board.Position {
	t.Helper()
	zt := board.NewZobristTable(1)
	pos, _, _, err := fen.Decode(zt, s)
	require.NoError(t, err)
	return pos
}

func captureMove(t *testing.T, pos *board.Position, from, to board.Square) board.Move {
	t.Helper()
	m, ok := pos.ResolveMove(from, to, board.NoPiece)
	require.True(t, ok)
	require.True(t, m.IsCapture())
	return m
}

// TestOrderer_WinningCaptureOutranksKillers checks a free, undefended pawn capture sorts in the
// winning-capture band, above both killer slots (spec §4.6 step 7).
func TestOrderer_WinningCaptureOutranksKillers(t *testing.T) {
	pos := decodeFEN(t, "4k3/8/8/3p4/8/8/3Q4/4K3 w - - 0 1")
	m := captureMove(t, pos, board.D2, board.D5)

	o := orderer{pos: pos}
	assert.Greater(t, int32(o.Priority(m)), int32(priorityKiller1))
}

// TestOrderer_LosingCaptureRanksBelowKillersAndHistory checks a queen capturing a king-defended
// pawn (losing the queen for a pawn) sorts in the losing-capture band, below killers and a
// quiet move with a meaningfully positive history score (spec §4.6 step 7: "losing captures"
// sort beneath "history score").
func TestOrderer_LosingCaptureRanksBelowKillersAndHistory(t *testing.T) {
	pos := decodeFEN(t, "4k3/3p4/8/8/8/8/3Q4/4K3 w - - 0 1")
	m := captureMove(t, pos, board.D2, board.D7)
	require.False(t, seeCapture(pos, m))

	h := &historyTable{}
	quiet, ok := pos.ResolveMove(board.E1, board.E2, board.NoPiece)
	require.True(t, ok)
	h.Add(board.White, quiet, 4)

	o := orderer{pos: pos, killers: &killerTable{}, history: h, turn: board.White, ply: 0}
	assert.Less(t, int32(o.Priority(m)), int32(priorityKiller2))
	assert.Less(t, int32(o.Priority(m)), int32(o.Priority(quiet)))
}
