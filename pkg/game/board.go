// Package game layers game-level metadata -- fullmove number and draw adjudication -- on top
// of a bare board.Position. This mirrors the split the teacher engine draws between its
// board.Position (pure piece placement and move application) and its board.Board (position
// plus history and result bookkeeping): see DESIGN.md.
package game

import (
	"fmt"

	"github.com/kestrel-chess/kestrel/pkg/board"
)

const (
	repetition3Limit   = 3
	repetition5Limit   = 5
	noprogressPlyLimit = 100
)

// Board represents a chess game: a single mutable board.Position (make/unmake per spec §4.2)
// plus enough bookkeeping to adjudicate draws (threefold/fivefold repetition over the search
// stack and the game history, the fifty-move rule, insufficient material) and to report the
// fullmove number. Not thread-safe; Fork to hand an independent copy to another goroutine
// (e.g. an SMP search worker).
type Board struct {
	pos       *board.Position
	fullmoves int
	result    board.Result
}

// NewBoard constructs a Board from a position already at the given fullmove number.
func NewBoard(pos *board.Position, fullmoves int) *Board {
	return &Board{pos: pos, fullmoves: fullmoves}
}

// Fork branches off an independent Board with a deep-cloned Position, safe to mutate (via
// PushMove/PopMove) on another goroutine without affecting the original.
func (b *Board) Fork() *Board {
	return &Board{pos: b.pos.Clone(), fullmoves: b.fullmoves, result: b.result}
}

func (b *Board) Position() *board.Position { return b.pos }

func (b *Board) Turn() board.Color { return b.pos.Turn() }

func (b *Board) FullMoves() int { return b.fullmoves }

func (b *Board) Result() board.Result { return b.result }

func (b *Board) Hash() board.ZobristHash { return b.pos.Hash() }

// Ply returns the number of half-moves played so far.
func (b *Board) Ply() int { return b.pos.Ply() }

// PushMove attempts to make a pseudo-legal move. Returns true iff legal.
func (b *Board) PushMove(m board.Move) bool {
	if b.result.Reason == board.Checkmate || b.result.Reason == board.Stalemate {
		return false // no legal moves exist
	}

	turn := b.pos.Turn()
	if !b.pos.Make(m) {
		return false
	}

	if turn == board.Black {
		b.fullmoves++
	}
	b.result = b.checkDraw(m)
	return true
}

// PopMove undoes the most recent move. Returns false if there is no move to undo.
func (b *Board) PopMove() (board.Move, bool) {
	ply := b.pos.Ply()
	if ply == 0 {
		return board.Move{}, false
	}
	m, _, _ := b.pos.HistoryAt(ply - 1)

	turn := b.pos.Turn()
	b.pos.Unmake()
	if turn == board.White {
		b.fullmoves--
	}
	b.result = board.Result{Outcome: board.Undecided}
	return m, true
}

func (b *Board) checkDraw(m board.Move) board.Result {
	if count := b.repetitionCount(); count >= repetition3Limit {
		if count >= repetition5Limit {
			return board.Result{Outcome: board.Draw, Reason: board.Repetition5}
		}
		return board.Result{Outcome: board.Draw, Reason: board.Repetition3}
	}

	if b.pos.Halfmove() >= noprogressPlyLimit {
		return board.Result{Outcome: board.Draw, Reason: board.NoProgress}
	}

	if m.IsCapture() || (m.IsPromotion() && (m.Promotion == board.Bishop || m.Promotion == board.Knight)) {
		if b.pos.HasInsufficientMaterial() {
			return board.Result{Outcome: board.Draw, Reason: board.InsufficientMaterial}
		}
	}
	return board.Result{Outcome: board.Undecided}
}

// repetitionCount counts occurrences of the current position's hash among positions with the
// same side to move, scanning back over the no-progress window (spec §4.2 is_draw:
// "threefold repetition over the search stack plus game history").
func (b *Board) repetitionCount() int {
	target := b.pos.Hash()
	ply := b.pos.Ply()

	window := b.pos.Halfmove()
	if window > ply {
		window = ply
	}

	// HistoryAt(ply-i) holds the hash right after move (ply-i+1), i.e. i-1 plies before the
	// current position; i=1 is the current position itself (already counted below). The same
	// side to move recurs every 2 plies, so only i = 3, 5, 7, ... can match.
	count := 1
	for i := 3; i <= window; i += 2 {
		_, hash, ok := b.pos.HistoryAt(ply - i)
		if !ok {
			break
		}
		if hash == target {
			count++
		}
	}
	return count
}

// AdjudicateNoLegalMoves adjudicates the position assuming no legal move exists for the side
// to move: the result is either Checkmate or Stalemate, depending on whether it is in check.
func (b *Board) AdjudicateNoLegalMoves() board.Result {
	result := board.Result{Outcome: board.Draw, Reason: board.Stalemate}
	if b.pos.IsChecked(b.Turn()) {
		result = board.Result{Outcome: board.Loss(b.Turn()), Reason: board.Checkmate}
	}
	b.result = result
	return result
}

// IsDrawByRule reports a draw independent of legal-move availability: repetition, fifty-move
// rule, or insufficient material (spec §4.2 is_draw).
func (b *Board) IsDrawByRule() bool {
	return b.result.Outcome == board.Draw && b.result.Reason != board.Stalemate
}

// LastMove returns the most recently played move, if any.
func (b *Board) LastMove() (board.Move, bool) {
	ply := b.pos.Ply()
	if ply == 0 {
		return board.Move{}, false
	}
	m, _, _ := b.pos.HistoryAt(ply - 1)
	return m, true
}

func (b *Board) String() string {
	return fmt.Sprintf("board{pos=%v fullmoves=%v result=%v}", b.pos, b.fullmoves, b.result)
}
