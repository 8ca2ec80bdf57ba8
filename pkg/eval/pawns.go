package eval

import "github.com/kestrel-chess/kestrel/pkg/board"

const (
	isolatedPenaltyMG Score = 10
	isolatedPenaltyEG Score = 18
	doubledPenaltyMG  Score = 8
	doubledPenaltyEG  Score = 20
	backwardPenaltyMG Score = 6
	backwardPenaltyEG Score = 10
)

// passedBonusMG/EG are indexed by the pawn's rank from its own side's perspective (index 1 is
// its start, index 6 is one step from promoting); indices 0 and 7 are the unreachable back and
// promotion ranks and left at zero.
var passedBonusMG = [8]Score{0, 5, 10, 15, 30, 55, 85, 0}
var passedBonusEG = [8]Score{0, 10, 20, 35, 60, 100, 150, 0}

// adjacentFiles returns the bitboard of the file f plus its immediate neighbors.
func adjacentFiles(f board.File) board.Bitboard {
	mask := board.BitFile(f)
	if f > board.FileA {
		mask |= board.BitFile(f - 1)
	}
	if f < board.FileH {
		mask |= board.BitFile(f + 1)
	}
	return mask
}

// aheadMask returns the squares strictly ahead of rank r (in c's direction of travel), on the
// given files.
func aheadMask(c board.Color, r board.Rank, files board.Bitboard) board.Bitboard {
	var mask board.Bitboard
	if c == board.White {
		for rr := int(r) + 1; rr < int(board.NumRanks); rr++ {
			mask |= board.BitRank(board.Rank(rr))
		}
	} else {
		for rr := int(r) - 1; rr >= 0; rr-- {
			mask |= board.BitRank(board.Rank(rr))
		}
	}
	return mask & files
}

// behindMask returns the squares strictly behind rank r (opposite c's direction of travel), on
// the given files.
func behindMask(c board.Color, r board.Rank, files board.Bitboard) board.Bitboard {
	return aheadMask(c.Opponent(), r, files)
}

// ownRank converts an absolute Rank into the pawn's own-side rank index (0-based from its own
// back rank, so its starting rank is 1), so passedBonus tables read the same regardless of color.
func ownRank(c board.Color, r board.Rank) int {
	if c == board.White {
		return int(r)
	}
	return 7 - int(r)
}

// pawnStructure scores one color's pawns: isolated, doubled, backward penalties and a passed
// pawn bonus scaled by how close to promotion the pawn is. Symmetric under board mirroring
// because it only consults file/rank relationships, never absolute square identity.
func pawnStructure(pos *board.Position, c board.Color) (mg, eg Score) {
	own := pos.Piece(c, board.Pawn)
	opp := pos.Piece(c.Opponent(), board.Pawn)

	for bb := own; bb != 0; {
		var sq board.Square
		sq, bb = bb.PopLSB()
		f, r := sq.File(), sq.Rank()

		if (own & board.BitFile(f)).PopCount() > 1 {
			mg -= doubledPenaltyMG
			eg -= doubledPenaltyEG
		}

		neighborFiles := adjacentFiles(f) &^ board.BitFile(f)
		if own&neighborFiles == 0 {
			mg -= isolatedPenaltyMG
			eg -= isolatedPenaltyEG
		} else if own&behindMask(c, r, neighborFiles) == 0 {
			// No friendly pawn shelters it from an adjacent file: backward if it also cannot
			// safely advance, i.e. the square ahead is covered by an enemy pawn.
			var ahead board.Square
			if c == board.White {
				ahead = board.NewSquare(f, r+1)
			} else {
				ahead = board.NewSquare(f, r-1)
			}
			if board.PawnAttackboard(c, ahead)&opp != 0 {
				mg -= backwardPenaltyMG
				eg -= backwardPenaltyEG
			}
		}

		if opp&aheadMask(c, r, adjacentFiles(f)) == 0 {
			idx := ownRank(c, r)
			mg += passedBonusMG[idx]
			eg += passedBonusEG[idx]
		}
	}
	return mg, eg
}
