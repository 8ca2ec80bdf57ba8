package search

import (
	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// quiescence extends the search along capture and promotion chains until the position is quiet
// (spec §4.6 "Quiescence"): stand pat on the static evaluation, then try captures and queen
// promotions filtered by SEE ≥ 0, so a position is never judged mid-exchange. When in check, all
// pseudo-legal moves are considered (there may be no capture that escapes check) and stand-pat is
// skipped, since a side in check has no safe "do nothing" option. Unbounded by a depth counter;
// naturally bounded by the finite length of any capture chain.
func (w *Worker) quiescence(pos *board.Position, alpha, beta eval.Score, ply int) eval.Score {
	w.nodes++
	if ply > w.seldepth {
		w.seldepth = ply
	}
	if w.checkStop() {
		return eval.Invalid
	}
	if ply >= eval.MaxPly {
		return sideToMoveEval(pos)
	}

	turn := pos.Turn()
	inCheck := pos.IsChecked(turn)

	best := eval.NegInf
	if !inCheck {
		standPat := sideToMoveEval(pos)
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
		best = standPat
	}

	list := NewMoveList(pos.PseudoLegalMoves(), quiescenceOrderer{}.Priority)

	legalMoves := 0
	for {
		m, ok := list.Next()
		if !ok {
			break
		}
		if !inCheck {
			if !m.IsCapture() && !(m.IsPromotion() && m.Promotion == board.Queen) {
				continue
			}
			if m.IsCapture() && !seeCapture(pos, m) {
				continue
			}
		}
		if !pos.Make(m) {
			continue
		}
		legalMoves++

		score := w.negate(w.quiescence(pos, -beta, -alpha, ply+1))
		pos.Unmake()

		if w.stopped {
			return eval.Invalid
		}
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	if inCheck && legalMoves == 0 {
		return -eval.Mate
	}
	return best
}

// quiescenceOrderer ranks capture candidates by MVV-LVA and queen promotions above that; any
// other move (only generated when in check, to find a legal escape) sorts last.
type quiescenceOrderer struct{}

func (quiescenceOrderer) Priority(m board.Move) Priority {
	switch {
	case m.IsCapture():
		return priorityCapture + Priority(eval.NominalValue(m.Capture)-eval.NominalValue(m.Piece)/64)
	case m.IsPromotion():
		return priorityPromo + Priority(eval.NominalValue(m.Promotion))
	default:
		return 0
	}
}
