package search

import (
	"github.com/kestrel-chess/kestrel/pkg/board"
	"github.com/kestrel-chess/kestrel/pkg/eval"
)

// SearchRoot runs one fixed-depth negamax pass at the root position, restricted to searchMoves
// if non-empty (spec §6 "go searchmoves") and skipping any move in exclude (spec §4.6 "Multi-PV:
// ... exclude it and re-search for the next PV"). Returns the best move and score found, the
// bound relative to the (alpha, beta) window passed in (used by the caller to widen an
// aspiration window on fail-low/fail-high), and whether the pass completed without the stop flag
// tripping mid-search.
func (w *Worker) SearchRoot(alpha, beta eval.Score, depth int, searchMoves, exclude []board.Move) (board.Move, eval.Score, Bound, bool) {
	pos := w.Board.Position()
	turn := pos.Turn()
	hash := pos.Hash()
	alphaOrig := alpha

	var ttMove board.Move
	if entry, ok := w.TT.Probe(hash); ok {
		ttMove = entry.Move
	}

	moves := pos.PseudoLegalMoves()
	if len(searchMoves) > 0 {
		moves = restrictMoves(moves, searchMoves)
	}
	moves = removeMoves(moves, exclude)

	order := orderer{pos: pos, ttMove: ttMove, killers: w.killers, history: w.history, turn: turn, ply: 0}
	list := NewMoveList(moves, order.Priority)

	var bestMove board.Move
	best := eval.NegInf
	legalMoves := 0

	for {
		m, ok := list.Next()
		if !ok {
			break
		}
		if legalMoves > 0 && w.skipMove(legalMoves) {
			continue
		}
		if !pos.Make(m) {
			continue
		}
		legalMoves++

		var score eval.Score
		if legalMoves == 1 {
			score = w.negate(w.negamax(pos, -beta, -alpha, depth-1, 1))
		} else {
			score = w.negate(w.negamax(pos, -alpha-1, -alpha, depth-1, 1))
			if score > alpha && score < beta {
				score = w.negate(w.negamax(pos, -beta, -alpha, depth-1, 1))
			}
		}
		pos.Unmake()

		if w.stopped {
			return board.Move{}, eval.Invalid, Exact, false
		}

		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
	}

	if legalMoves == 0 {
		if pos.IsChecked(turn) {
			return board.Move{}, -eval.Mate, Exact, true
		}
		return board.Move{}, eval.Draw, Exact, true
	}

	bound := Exact
	switch {
	case best <= alphaOrig:
		bound = Upper
	case best >= beta:
		bound = Lower
	default:
		w.TT.Store(hash, Entry{Bound: Exact, Depth: depth, Score: best, Move: bestMove})
	}

	return bestMove, best, bound, true
}

func restrictMoves(moves, allowed []board.Move) []board.Move {
	out := make([]board.Move, 0, len(allowed))
	for _, m := range moves {
		for _, a := range allowed {
			if m.Equals(a) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func removeMoves(moves, exclude []board.Move) []board.Move {
	if len(exclude) == 0 {
		return moves
	}
	out := make([]board.Move, 0, len(moves))
	for _, m := range moves {
		skip := false
		for _, e := range exclude {
			if m.Equals(e) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, m)
		}
	}
	return out
}

// ExtractPV walks the transposition table forward from first, resolving each stored move
// against the live position, to recover a principal variation to report in an "info" line (spec
// §6 "pv"). Stops at maxLen, a missing/stale TT entry, or a repeated position (to avoid looping
// forever on a drawn line the TT remembers as a cycle).
func (w *Worker) ExtractPV(first board.Move, maxLen int) []board.Move {
	pos := w.Board.Position()

	made := 0
	defer func() {
		for ; made > 0; made-- {
			pos.Unmake()
		}
	}()

	if !pos.Make(first) {
		return nil
	}
	made++
	pv := []board.Move{first}

	seen := map[board.ZobristHash]struct{}{pos.Hash(): {}}
	for len(pv) < maxLen {
		entry, ok := w.TT.Probe(pos.Hash())
		if !ok || entry.Move.IsZero() {
			break
		}
		next, ok := pos.ResolveMove(entry.Move.From, entry.Move.To, entry.Move.Promotion)
		if !ok {
			break
		}
		if !pos.Make(next) {
			break
		}
		made++
		if _, dup := seen[pos.Hash()]; dup {
			break
		}
		seen[pos.Hash()] = struct{}{}
		pv = append(pv, next)
	}
	return pv
}
