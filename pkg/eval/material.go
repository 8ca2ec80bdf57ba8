package eval

import "github.com/kestrel-chess/kestrel/pkg/board"

// Nominal material values in centipawns, indexed by board.Piece. Pawns gain value as the board
// empties (fewer defenders shelter passers), so the endgame table bumps the pawn alone; the
// other pieces keep the same anchor in both phases and let the piece-square tables carry the
// rest of the phase-dependent shape.
var (
	materialMG = [board.NumPieces]Score{
		board.Pawn:   100,
		board.Knight: 320,
		board.Bishop: 330,
		board.Rook:   500,
		board.Queen:  900,
	}
	materialEG = [board.NumPieces]Score{
		board.Pawn:   120,
		board.Knight: 320,
		board.Bishop: 330,
		board.Rook:   500,
		board.Queen:  900,
	}
)

// NominalValue returns the middlegame centipawn value of a piece kind, used by move ordering
// (MVV-LVA) rather than position evaluation proper.
func NominalValue(p board.Piece) Score {
	return materialMG[p]
}

// phaseWeight is the contribution of one instance of a piece to the game phase counter, used to
// interpolate between the middlegame and endgame tables. Scaled so a full board (minus kings and
// pawns) sums to totalPhase.
var phaseWeight = [board.NumPieces]int{
	board.Pawn:   0,
	board.Knight: 1,
	board.Bishop: 1,
	board.Rook:   2,
	board.Queen:  4,
}

const totalPhase = 2*(2*phaseWeightKnight+2*phaseWeightBishop+2*phaseWeightRook+phaseWeightQueen)

const (
	phaseWeightKnight = 1
	phaseWeightBishop = 1
	phaseWeightRook   = 2
	phaseWeightQueen  = 4
)

// bishopPairBonus rewards holding both bishops, mainly valuable in open endgames.
const bishopPairBonusMG Score = 20
const bishopPairBonusEG Score = 35

// gamePhase returns a value in [0, totalPhase], where totalPhase is the opening/middlegame and
// 0 is a bare-bones endgame. Computed from remaining non-pawn, non-king material on the board.
func gamePhase(pos *board.Position) int {
	phase := 0
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for p := board.Knight; p <= board.Queen; p++ {
			phase += pos.Piece(c, p).PopCount() * phaseWeight[p]
		}
	}
	if phase > totalPhase {
		phase = totalPhase
	}
	return phase
}

// taper blends a middlegame and endgame term by the game phase: phase == totalPhase is pure
// middlegame, phase == 0 is pure endgame.
func taper(mg, eg Score, phase int) Score {
	return Score((int(mg)*phase + int(eg)*(totalPhase-phase)) / totalPhase)
}
