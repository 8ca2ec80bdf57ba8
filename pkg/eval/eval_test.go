package eval_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/board/fen"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// mirrorFEN produces the color-flipped FEN: every piece swaps color and the board flips
// vertically, turn and castling rights swap side, and any en passant square mirrors rank.
// Used only to test eval.Evaluate's symmetry property; not part of the engine itself.
func mirrorFEN(t *testing.T, s string) string {
	t.Helper()
	fields := strings.Fields(s)
	require.Len(t, fields, 6)

	ranks := strings.Split(fields[0], "/")
	require.Len(t, ranks, 8)
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	for i, r := range ranks {
		ranks[i] = swapCase(r)
	}
	boardFEN := strings.Join(ranks, "/")

	turn := "b"
	if fields[1] == "b" {
		turn = "w"
	}

	castling := fields[2]
	if castling != "-" {
		castling = swapCase(castling)
	}

	ep := fields[3]
	if ep != "-" {
		f := ep[0]
		r, err := strconv.Atoi(string(ep[1]))
		require.NoError(t, err)
		ep = string(f) + strconv.Itoa(9-r)
	}

	return strings.Join([]string{boardFEN, turn, castling, ep, fields[4], fields[5]}, " ")
}

func swapCase(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r - 'A' + 'a')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func mustDecode(t *testing.T, zt *board.ZobristTable, s string) *board.Position {
	t.Helper()
	pos, _, _, err := fen.Decode(zt, s)
	require.NoError(t, err)
	return pos
}

func TestEvaluate_SymmetricUnderMirror(t *testing.T) {
	zt := board.NewZobristTable(1)

	cases := []string{
		fen.Initial,
		"r1bqkb1r/pppp1ppp/2n2n2/4p3/4P3/2N2N2/PPPP1PPP/R1BQKB1R w KQkq - 4 4",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/8/8/3k4/8/3P4/3K4/8 w - - 0 1",
		"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
	}
	for _, s := range cases {
		pos := mustDecode(t, zt, s)
		mirror := mustDecode(t, zt, mirrorFEN(t, s))

		require.Equal(t, eval.Evaluate(pos), -eval.Evaluate(mirror), "fen=%q", s)
	}
}

func TestEvaluate_MaterialAdvantageDominates(t *testing.T) {
	zt := board.NewZobristTable(1)

	// White is up a rook with otherwise symmetric material.
	pos := mustDecode(t, zt, "4k3/8/8/8/8/8/8/R3K3 w Q - 0 1")
	require.Greater(t, eval.Evaluate(pos), eval.Score(0))
}

func TestEvaluate_StartPositionIsTemperedByTurn(t *testing.T) {
	zt := board.NewZobristTable(1)

	white := mustDecode(t, zt, fen.Initial)
	black := mustDecode(t, zt, mirrorFEN(t, fen.Initial))

	// The start position is material- and placement-symmetric, so the only difference is
	// whose move it is: the side to move gets the tempo bonus.
	require.Equal(t, eval.Tempo, eval.Evaluate(white))
	require.Equal(t, -eval.Tempo, eval.Evaluate(black))
}

func TestScore_MateDistance(t *testing.T) {
	s := eval.Mate - 3
	require.True(t, s.IsMateScore())
	require.Equal(t, 2, s.MateIn())

	s2 := -eval.Mate + 5
	require.True(t, s2.IsMateScore())
	require.Equal(t, -3, s2.MateIn())
}
