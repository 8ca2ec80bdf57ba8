package eval

import "github.com/kestrel-chess/kestrel/pkg/board"

// Tempo is the bonus given to the side to move, reflecting the practical value of the extra
// ply (spec §4.4).
const Tempo Score = 10

// mobilityBonusMG/EG are applied per reachable square for knights, bishops, rooks, and queens.
const mobilityBonusMG Score = 2
const mobilityBonusEG Score = 3

// kingShieldPenaltyMG is charged per missing pawn in the three files in front of a castled (or
// still-central) king, only once the opponent holds enough material to mount an attack.
const kingShieldPenaltyMG Score = 9

// kingAttackerWeightDivisor scales a ring attacker's nominal value down to a safety-term range:
// a queen bearing on the king ring should weigh far more than a knight, but nowhere near its
// full material value (spec §4.4 "attacker count weighted by attacker piece type").
const kingAttackerWeightDivisor = 4

// Evaluate returns the static score of pos from White's perspective: positive favors White
// regardless of the side to move. Deterministic and symmetric under mirroring: evaluating the
// color-swapped, vertically flipped position negates the result (spec §4.4, §8).
func Evaluate(pos *board.Position) Score {
	phase := gamePhase(pos)

	var mg, eg Score
	for c := board.ZeroColor; c < board.NumColors; c++ {
		unit := Score(c.Unit())

		var cmg, ceg Score
		for p := board.ZeroPiece; p < board.NumPieces; p++ {
			bb := pos.Piece(c, p)
			count := bb.PopCount()
			if count == 0 {
				continue
			}
			cmg += Score(count) * materialMG[p]
			ceg += Score(count) * materialEG[p]

			for b := bb; b != 0; {
				var sq board.Square
				sq, b = b.PopLSB()
				cmg += pieceSquareMG(c, p, sq)
				ceg += pieceSquareEG(c, p, sq)
			}
		}

		if pos.Piece(c, board.Bishop).PopCount() >= 2 {
			cmg += bishopPairBonusMG
			ceg += bishopPairBonusEG
		}

		pmg, peg := pawnStructure(pos, c)
		cmg += pmg
		ceg += peg

		mmg, meg := mobility(pos, c)
		cmg += mmg
		ceg += meg

		if kmg := kingSafety(pos, c); hasAttackingMaterial(pos, c.Opponent()) {
			cmg += kmg
		}

		mg += unit * cmg
		eg += unit * ceg
	}

	score := taper(mg, eg, phase)
	if pos.Turn() == board.White {
		score += Tempo
	} else {
		score -= Tempo
	}
	return Crop(score)
}

// mobility counts reachable squares (not occupied by one's own pieces) for knights, bishops,
// rooks, and queens: a cheap proxy for piece activity.
func mobility(pos *board.Position, c board.Color) (mg, eg Score) {
	own := pos.Occupancy(c)
	all := pos.All()

	var squares int
	for p := board.Knight; p <= board.Queen; p++ {
		for bb := pos.Piece(c, p); bb != 0; {
			var sq board.Square
			sq, bb = bb.PopLSB()
			squares += (board.Attackboard(all, sq, p) &^ own).PopCount()
		}
	}
	return Score(squares) * mobilityBonusMG, Score(squares) * mobilityBonusEG
}

// hasAttackingMaterial reports whether c holds enough force to make a king-safety evaluation on
// the opponent meaningful: a queen, or two or more minor pieces (spec §4.4).
func hasAttackingMaterial(pos *board.Position, c board.Color) bool {
	if pos.Piece(c, board.Queen) != 0 {
		return true
	}
	minors := pos.Piece(c, board.Knight).PopCount() + pos.Piece(c, board.Bishop).PopCount()
	return minors >= 2
}

// kingSafety scores the shelter around c's king: a pawn-shield count minus an attacker count
// weighted by attacker piece type (spec §4.4). Only meaningful in the middlegame; callers gate
// it on the opponent holding attacking material.
func kingSafety(pos *board.Position, c board.Color) Score {
	kingSq := pos.Piece(c, board.King).LastPopSquare()
	if !kingSq.IsValid() {
		return 0
	}
	f := kingSq.File()

	shieldFiles := adjacentFiles(f)
	var shield board.Bitboard
	if c == board.White {
		shield = aheadMask(c, kingSq.Rank(), shieldFiles) & (board.BitRank(board.Rank2) | board.BitRank(board.Rank3))
	} else {
		shield = aheadMask(c, kingSq.Rank(), shieldFiles) & (board.BitRank(board.Rank7) | board.BitRank(board.Rank6))
	}

	present := (pos.Piece(c, board.Pawn) & shield).PopCount()
	missing := shieldFiles.PopCount()/8 - present // shieldFiles spans whole files of 8 squares
	if missing < 0 {
		missing = 0
	}
	return -Score(missing)*kingShieldPenaltyMG - kingAttackers(pos, c, kingSq)
}

// kingAttackers sums the nominal value (scaled down by kingAttackerWeightDivisor) of every enemy
// piece attacking a square in c's king ring: the king's own square plus every square a king on
// kingSq could step to.
func kingAttackers(pos *board.Position, c board.Color, kingSq board.Square) Score {
	enemy := c.Opponent()
	enemyOcc := pos.Occupancy(enemy)
	occ := pos.All()

	var weight Score
	for ring := board.KingAttackboard(kingSq) | board.BitMask(kingSq); ring != 0; {
		var sq board.Square
		sq, ring = ring.PopLSB()

		for attackers := pos.AttackersTo(sq, occ) & enemyOcc; attackers != 0; {
			var asq board.Square
			asq, attackers = attackers.PopLSB()
			if _, p, ok := pos.PieceAt(asq); ok {
				weight += NominalValue(p) / kingAttackerWeightDivisor
			}
		}
	}
	return weight
}
