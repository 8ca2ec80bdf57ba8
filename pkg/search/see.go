package search

import (
	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// kingValue stands in for a king captured in the hypothetical swap-off sequence SEE plays out;
// never actually reachable in a legal game but needed so the gain array has a value to subtract
// when a king is the final, deciding attacker.
const kingValue = eval.Score(20000)

// staticExchange estimates the net material result of playing m, assuming both sides recapture
// on the destination square in increasing order of attacker value until one side stops (spec
// §4.6 "SEE"), via the classic gain-array swap-off algorithm: grounded on FrankyGo's
// internal/search/see.go, adapted to this repo's Position.AttackersTo.
func staticExchange(pos *board.Position, m board.Move) eval.Score {
	if m.Type == board.EnPassant {
		return pieceValue(board.Pawn)
	}

	to := m.To
	occ := pos.All() &^ board.BitMask(m.From)

	var gain [32]eval.Score
	depth := 0
	gain[0] = pieceValue(m.Capture)
	if m.IsPromotion() {
		gain[0] += pieceValue(m.Promotion) - pieceValue(board.Pawn)
	}

	attacker := m.Piece
	if m.IsPromotion() {
		attacker = m.Promotion
	}
	side := pos.Turn().Opponent()

	for {
		depth++
		gain[depth] = pieceValue(attacker) - gain[depth-1]
		if eval.Max(-gain[depth-1], gain[depth]) < 0 {
			break
		}

		attackers := pos.AttackersTo(to, occ) & occ
		fromSq, piece, ok := leastValuableAttacker(pos, attackers, side)
		if !ok {
			break
		}

		occ &^= board.BitMask(fromSq)
		attacker = piece
		side = side.Opponent()
	}

	for depth--; depth > 0; depth-- {
		gain[depth-1] = -eval.Max(-gain[depth-1], gain[depth])
	}
	return gain[0]
}

// pieceValue returns the nominal value SEE uses for a piece, standing in a king value for the
// otherwise-zero King entry NominalValue does not cover.
func pieceValue(p board.Piece) eval.Score {
	if p == board.King {
		return kingValue
	}
	return eval.NominalValue(p)
}

// leastValuableAttacker returns c's cheapest piece among attackers, if any.
func leastValuableAttacker(pos *board.Position, attackers board.Bitboard, c board.Color) (board.Square, board.Piece, bool) {
	for p := board.Pawn; p <= board.King; p++ {
		if bb := attackers & pos.Piece(c, p); bb != 0 {
			sq, _ := bb.PopLSB()
			return sq, p, true
		}
	}
	return 0, 0, false
}

// seeCapture reports whether m (assumed a capture or promotion) is not a losing exchange:
// quiescence search and move ordering use this to prune/deprioritize captures that lose
// material even after optimal recapture (spec §4.6 "SEE-based capture pruning").
func seeCapture(pos *board.Position, m board.Move) bool {
	return staticExchange(pos, m) >= 0
}
