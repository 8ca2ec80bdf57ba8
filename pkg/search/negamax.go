package search

import (
	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// reverseFutilityMarginPerPly scales the shallow-depth static-eval cutoff of step 6: the
// deeper the remaining search, the less we trust a raw static evaluation to stand in for it.
const reverseFutilityMarginPerPly = eval.Score(120)

// nullMoveMinDepth is the shallowest depth at which null-move pruning is attempted (spec §4.6
// step 5).
const nullMoveMinDepth = 3

// negamax implements the node logic of spec §4.6: draw/mate/stop checks, TT probe, null-move and
// reverse-futility pruning, move ordering, PVS with late-move reductions and pruning, and a TT
// store on the way back out. pos is mutated in place via Make/Unmake and restored before return.
func (w *Worker) negamax(pos *board.Position, alpha, beta eval.Score, depth, ply int) eval.Score {
	w.nodes++
	if ply > w.seldepth {
		w.seldepth = ply
	}
	if w.checkStop() {
		return eval.Invalid
	}

	if ply > 0 && (isRepetitionOrFifty(pos) || pos.HasInsufficientMaterial()) {
		return eval.Draw
	}
	if ply >= eval.MaxPly {
		return sideToMoveEval(pos)
	}
	if depth <= 0 {
		return w.quiescence(pos, alpha, beta, ply)
	}

	turn := pos.Turn()
	inCheck := pos.IsChecked(turn)
	alphaOrig := alpha
	hash := pos.Hash()

	var ttMove board.Move
	if entry, ok := w.TT.Probe(hash); ok {
		ttMove = entry.Move
		if entry.Depth >= depth {
			switch {
			case entry.Bound == Exact:
				return entry.Score
			case entry.Bound == Lower && entry.Score >= beta:
				return entry.Score
			case entry.Bound == Upper && entry.Score <= alpha:
				return entry.Score
			}
		}
	}

	staticEval := sideToMoveEval(pos)

	if !inCheck && depth >= nullMoveMinDepth && staticEval >= beta && hasNonPawnMaterial(pos, turn) {
		r := 2 + depth/6
		reduced := depth - 1 - r
		if reduced < 0 {
			reduced = 0
		}

		s := pos.MakeNull()
		score := w.negate(w.negamax(pos, -beta, -beta+1, reduced, ply+1))
		pos.UnmakeNull(s)

		if w.stopped {
			return eval.Invalid
		}
		if score >= beta {
			return beta
		}
	}

	if !inCheck && depth <= 3 && !beta.IsMateScore() {
		margin := reverseFutilityMarginPerPly * eval.Score(depth)
		if staticEval-margin >= beta {
			return staticEval
		}
	}

	order := orderer{pos: pos, ttMove: ttMove, killers: w.killers, history: w.history, turn: turn, ply: ply}
	list := NewMoveList(pos.PseudoLegalMoves(), order.Priority)

	var (
		best        = eval.NegInf
		bestMove    board.Move
		legalMoves  int
		quietsTried []board.Move
	)

	for i := 0; ; i++ {
		m, ok := list.Next()
		if !ok {
			break
		}
		if i > 0 && w.skipMove(i) {
			continue // lazy-SMP move-ordering noise, see smp.go
		}
		if !pos.Make(m) {
			continue
		}
		legalMoves++
		givesCheck := pos.IsChecked(pos.Turn())

		if !inCheck && m.IsQuiet() && !givesCheck && depth <= 6 && legalMoves > lateMoveCount(depth) &&
			!alpha.IsMateScore() && !beta.IsMateScore() {
			pos.Unmake()
			legalMoves--
			continue
		}

		childDepth := depth - 1
		if givesCheck {
			childDepth++
		}

		var score eval.Score
		switch {
		case legalMoves == 1:
			score = w.negate(w.negamax(pos, -beta, -alpha, childDepth, ply+1))
		default:
			reduction := 0
			if m.IsQuiet() && !inCheck && !givesCheck {
				reduction = lmrReduction(depth, legalMoves)
			}
			score = w.negate(w.negamax(pos, -alpha-1, -alpha, childDepth-reduction, ply+1))
			if score > alpha && reduction > 0 {
				score = w.negate(w.negamax(pos, -alpha-1, -alpha, childDepth, ply+1))
			}
			if score > alpha && score < beta {
				score = w.negate(w.negamax(pos, -beta, -alpha, childDepth, ply+1))
			}
		}
		pos.Unmake()

		if w.stopped {
			return eval.Invalid
		}

		if m.IsQuiet() {
			quietsTried = append(quietsTried, m)
		}

		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			if m.IsQuiet() {
				w.killers.Add(ply, m)
				w.history.Add(turn, m, depth)
				for _, q := range quietsTried[:len(quietsTried)-1] {
					w.history.Penalize(turn, q, depth)
				}
			}
			break
		}
	}

	if legalMoves == 0 {
		if inCheck {
			// Distance from this node's own perspective; Worker.negate's BackOff call widens it
			// by one ply per real tree level as the value propagates back to the root, so the
			// stored magnitude is always "mate distance from this position", not from the root.
			return -eval.Mate
		}
		return eval.Draw
	}

	bound := Exact
	switch {
	case best <= alphaOrig:
		bound = Upper
	case best >= beta:
		bound = Lower
	}
	w.TT.Store(hash, Entry{Bound: bound, Depth: depth, Score: best, Move: bestMove})

	return best
}

// negate flips a child result to the parent's perspective and widens any mate score by one ply
// of distance, per eval.Score.BackOff's documented convention. Invalid (a cancelled subtree)
// passes through unchanged so cancellation propagates to the root without corrupting a score.
func (w *Worker) negate(s eval.Score) eval.Score {
	if s.IsInvalid() {
		return s
	}
	return (-s).BackOff()
}

// lateMoveCount bounds how many quiet moves are tried at a shallow node before late-move pruning
// kicks in: shallower nodes get a stricter budget (spec §4.6 step 8 "late-move pruning").
func lateMoveCount(depth int) int {
	return 4 + depth*depth
}

// lmrReduction computes the late-move reduction R(d, i) for the i-th move searched at depth d
// (spec §4.6 step 8 "late-move reductions"): conservative for early moves, deeper for moves
// tried late at high depth.
func lmrReduction(depth, moveIndex int) int {
	if depth < 3 || moveIndex < 4 {
		return 0
	}
	r := 1
	if moveIndex >= 8 {
		r++
	}
	if depth >= 7 {
		r++
	}
	return r
}
