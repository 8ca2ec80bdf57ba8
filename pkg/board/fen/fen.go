// Package fen parses and formats Forsyth-Edwards Notation, the standard six-field textual
// encoding of a chess position (spec §4.2, §6).
package fen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kestrel-chess/kestrel/pkg/board"
)

// Initial is the FEN of the standard starting position.
const Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Decode parses the six FEN fields into a Position plus the turn, halfmove clock, and
// fullmove number, which live outside Position proper. Returns an error (InvalidFen, per
// spec §7) on malformed input, non-standard characters, or invariant violation.
func Decode(zt *board.ZobristTable, s string) (pos *board.Position, turn board.Color, fullmoves int, err error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 6 {
		return nil, 0, 0, fmt.Errorf("invalid fen: expected 6 fields, got %v: %q", len(fields), s)
	}

	placements, err := decodeBoard(fields[0])
	if err != nil {
		return nil, 0, 0, err
	}

	turn, err = decodeTurn(fields[1])
	if err != nil {
		return nil, 0, 0, err
	}

	castling, err := decodeCastling(fields[2])
	if err != nil {
		return nil, 0, 0, err
	}

	ep, hasEP, err := decodeEnPassant(fields[3])
	if err != nil {
		return nil, 0, 0, err
	}

	halfmove, err := strconv.Atoi(fields[4])
	if err != nil || halfmove < 0 {
		return nil, 0, 0, fmt.Errorf("invalid fen: bad halfmove clock: %q", fields[4])
	}

	fullmoves, err = strconv.Atoi(fields[5])
	if err != nil || fullmoves < 1 {
		return nil, 0, 0, fmt.Errorf("invalid fen: bad fullmove number: %q", fields[5])
	}

	pos, err = board.NewPosition(zt, placements, turn, castling, ep, hasEP, halfmove)
	if err != nil {
		return nil, 0, 0, err
	}
	return pos, turn, fullmoves, nil
}

func decodeBoard(s string) ([]board.Placement, error) {
	ranks := strings.Split(s, "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid fen: expected 8 ranks, got %v: %q", len(ranks), s)
	}

	var placements []board.Placement
	for i, rankStr := range ranks {
		r := board.Rank(7 - i)
		f := board.ZeroFile

		for _, r0 := range rankStr {
			switch {
			case r0 >= '1' && r0 <= '8':
				f += board.File(r0 - '0')
			default:
				piece, ok := board.ParsePiece(r0)
				if !ok {
					return nil, fmt.Errorf("invalid fen: bad piece char %q", r0)
				}
				if !f.IsValid() {
					return nil, fmt.Errorf("invalid fen: rank overflow: %q", rankStr)
				}
				color := board.Black
				if r0 >= 'A' && r0 <= 'Z' {
					color = board.White
				}
				placements = append(placements, board.Placement{
					Square: board.NewSquare(f, r),
					Color:  color,
					Piece:  piece,
				})
				f++
			}
		}
		if int(f) != 8 {
			return nil, fmt.Errorf("invalid fen: rank %v does not sum to 8 files: %q", i, rankStr)
		}
	}
	return placements, nil
}

func decodeTurn(s string) (board.Color, error) {
	switch s {
	case "w":
		return board.White, nil
	case "b":
		return board.Black, nil
	default:
		return 0, fmt.Errorf("invalid fen: bad turn: %q", s)
	}
}

func decodeCastling(s string) (board.Castling, error) {
	if s == "-" {
		return 0, nil
	}

	var c board.Castling
	for _, r := range s {
		switch r {
		case 'K':
			c |= board.WhiteKingSideCastle
		case 'Q':
			c |= board.WhiteQueenSideCastle
		case 'k':
			c |= board.BlackKingSideCastle
		case 'q':
			c |= board.BlackQueenSideCastle
		default:
			return 0, fmt.Errorf("invalid fen: bad castling char %q", r)
		}
	}
	return c, nil
}

func decodeEnPassant(s string) (board.Square, bool, error) {
	if s == "-" {
		return 0, false, nil
	}
	sq, err := board.ParseSquareStr(s)
	if err != nil {
		return 0, false, fmt.Errorf("invalid fen: bad en passant square: %w", err)
	}
	return sq, true, nil
}

// Encode produces the canonical FEN for the given position, turn, and fullmove number.
// Round-trips Decode ∘ Encode for every legal position reachable via Make (spec §4.2).
func Encode(pos *board.Position, turn board.Color, fullmoves int) string {
	var sb strings.Builder

	for r := 7; r >= 0; r-- {
		empty := 0
		for f := board.ZeroFile; f < board.NumFiles; f++ {
			sq := board.NewSquare(f, board.Rank(r))
			c, k, ok := pos.PieceAt(sq)
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			ch := k.String()
			if c == board.White {
				ch = strings.ToUpper(ch)
			}
			sb.WriteString(ch)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if r != 0 {
			sb.WriteRune('/')
		}
	}

	sb.WriteRune(' ')
	sb.WriteString(turn.String())

	sb.WriteRune(' ')
	sb.WriteString(pos.Castling().String())

	sb.WriteRune(' ')
	if ep, ok := pos.EnPassant(); ok {
		sb.WriteString(ep.String())
	} else {
		sb.WriteRune('-')
	}

	sb.WriteString(fmt.Sprintf(" %v %v", pos.Halfmove(), fullmoves))
	return sb.String()
}
