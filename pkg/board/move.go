package board

import "fmt"

// MoveType distinguishes the kinds of moves a Move can represent. The no-progress (halfmove
// clock) counter is reset by any move that is not Normal or a castle: i.e, any pawn move
// or capture.
type MoveType uint8

const (
	Normal MoveType = iota
	Push            // pawn single-step
	Jump            // pawn double-push
	EnPassant
	KingSideCastle
	QueenSideCastle
	Capture
	Promotion
	CapturePromotion
)

func (t MoveType) IsCapture() bool {
	return t == Capture || t == CapturePromotion || t == EnPassant
}

func (t MoveType) IsPromotion() bool {
	return t == Promotion || t == CapturePromotion
}

// Move represents a (not necessarily legal) move along with contextual metadata needed to
// make/unmake it without re-deriving it from the position. Packed logically as
// {from:6, to:6, promotion:3, flags:3} per spec §3; represented here as a small struct rather
// than a single packed integer for readability -- callers needing a compact wire form use
// Pack/Unpack.
type Move struct {
	From, To  Square
	Piece     Piece // moving piece
	Promotion Piece // desired piece for promotion, if any
	Capture   Piece // captured piece, if any
	Type      MoveType
}

// ParseMove parses a move in pure algebraic coordinate notation, such as "a2a4" or "a7a8q".
// The parsed move carries no contextual information (type, captured piece); use
// Position.ResolveMove to recover it against a specific position.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)

	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: %q", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from square: %q: %w", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to square: %q: %w", str, err)
	}

	m := Move{From: from, To: to}
	if len(runes) == 5 {
		promo, ok := ParsePiece(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion: %q", str)
		}
		m.Promotion = promo
	}
	return m, nil
}

// Equals compares moves by from/to/promotion only, matching UCI move identity (the type and
// captured piece are position-derived, not part of the wire encoding).
func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) IsZero() bool {
	return m.From == m.To
}

func (m Move) IsCapture() bool {
	return m.Type.IsCapture()
}

func (m Move) IsPromotion() bool {
	return m.Type.IsPromotion()
}

// IsQuiet returns true iff the move is neither a capture nor a promotion: the class of moves
// eligible for killer/history ordering and late-move reductions (spec §4.6 step 7-8).
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI move encoding: <from><to>[promo], e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m.Promotion.IsValid() {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}

// Pack encodes the move into a 16-bit wire form {from:6, to:6, promotion:3, unused:1}, used by
// the transposition table entry layout (spec §3 TTEntry).
func (m Move) Pack() uint16 {
	return uint16(m.From) | uint16(m.To)<<6 | uint16(m.Promotion)<<12
}

// UnpackMove decodes a 16-bit packed move. The result carries no Type/Capture metadata; it is
// resolved against a live position via Position.ResolveMove before use.
func UnpackMove(v uint16) Move {
	return Move{
		From:      Square(v & 0x3f),
		To:        Square((v >> 6) & 0x3f),
		Promotion: Piece((v >> 12) & 0x7),
	}
}
