package board

// PseudoLegalMoves generates all pseudo-legal moves for the side to move: every move is legal
// except that it may leave the mover's own king in check (spec §4.3). Promotions are expanded
// to four entries each (Queen, Rook, Bishop, Knight).
func (p *Position) PseudoLegalMoves() []Move {
	moves := make([]Move, 0, 48)

	turn := p.turn
	own, opp := p.occ[turn], p.occ[turn.Opponent()]
	all := p.all

	moves = genPawnMoves(p, turn, moves)

	for k := Knight; k <= King; k++ {
		if k == King {
			continue // king handled after castling generation, below
		}
		pieces := p.pieces[turn][k]
		for pieces != 0 {
			var from Square
			from, pieces = pieces.PopLSB()

			targets := Attackboard(all, from, k) &^ own
			for targets != 0 {
				var to Square
				to, targets = targets.PopLSB()
				moves = append(moves, makeMove(p, from, to, k))
			}
		}
	}

	kingSq := p.pieces[turn][King].LastPopSquare()
	targets := KingAttackboard(kingSq) &^ own
	for targets != 0 {
		var to Square
		to, targets = targets.PopLSB()
		moves = append(moves, makeMove(p, kingSq, to, King))
	}
	moves = genCastling(p, turn, kingSq, all, opp, moves)

	return moves
}

func makeMove(p *Position, from, to Square, piece Piece) Move {
	m := Move{From: from, To: to, Piece: piece, Type: Normal}
	if _, cap, ok := p.PieceAt(to); ok {
		m.Type = Capture
		m.Capture = cap
	}
	return m
}

func genPawnMoves(p *Position, turn Color, moves []Move) []Move {
	pawns := p.pieces[turn][Pawn]
	all := p.all
	opp := p.occ[turn.Opponent()]
	promoRank := PawnPromotionRank(turn)

	single := PawnMoveboard(all, turn, pawns)
	for bb := single; bb != 0; {
		var to Square
		to, bb = bb.PopLSB()
		from := pawnBack(turn, to, 1)
		moves = appendPawnAdvance(moves, from, to, promoRank)
	}

	// Double push: both the intermediate and destination squares must be empty.
	startPawns := pawns & PawnStartRank(turn)
	step1 := PawnMoveboard(all, turn, startPawns)
	dbl := PawnMoveboard(all, turn, step1)
	for bb := dbl; bb != 0; {
		var to Square
		to, bb = bb.PopLSB()
		from := pawnBack(turn, to, 2)
		moves = append(moves, Move{From: from, To: to, Piece: Pawn, Type: Jump})
	}

	captures := PawnCaptureboard(turn, pawns) & opp
	for bb := captures; bb != 0; {
		var to Square
		to, bb = bb.PopLSB()
		from := pawnCaptureSources(turn, to) & pawns
		for src := from; src != 0; {
			var f Square
			f, src = src.PopLSB()
			_, cap, _ := p.PieceAt(to)
			if promoRank.IsSet(to) {
				for _, promo := range []Piece{Queen, Rook, Bishop, Knight} {
					moves = append(moves, Move{From: f, To: to, Piece: Pawn, Type: CapturePromotion, Capture: cap, Promotion: promo})
				}
			} else {
				moves = append(moves, Move{From: f, To: to, Piece: Pawn, Type: Capture, Capture: cap})
			}
		}
	}

	if ep, ok := p.EnPassant(); ok {
		sources := pawnCaptureSources(turn, ep) & pawns
		for src := sources; src != 0; {
			var f Square
			f, src = src.PopLSB()
			moves = append(moves, Move{From: f, To: ep, Piece: Pawn, Type: EnPassant})
		}
	}

	return moves
}

func appendPawnAdvance(moves []Move, from, to Square, promoRank Bitboard) []Move {
	if promoRank.IsSet(to) {
		for _, promo := range []Piece{Queen, Rook, Bishop, Knight} {
			moves = append(moves, Move{From: from, To: to, Piece: Pawn, Type: Promotion, Promotion: promo})
		}
		return moves
	}
	return append(moves, Move{From: from, To: to, Piece: Pawn, Type: Push})
}

func pawnBack(c Color, sq Square, steps int) Square {
	if c == White {
		return Square(int(sq) - 8*steps)
	}
	return Square(int(sq) + 8*steps)
}

func pawnCaptureSources(c Color, to Square) Bitboard {
	// The squares that could have captured onto `to`: pawns of color c one step behind,
	// diagonally adjacent.
	return PawnAttackboard(c.Opponent(), to)
}

// genCastling appends castling moves, requiring: the right is held, the squares between king
// and rook are empty, and the king's current, transit, and destination squares are not
// attacked (spec §4.3).
func genCastling(p *Position, turn Color, kingSq Square, all, opp Bitboard, moves []Move) []Move {
	rank := Rank1
	if turn == Black {
		rank = Rank8
	}
	if kingSq != NewSquare(FileE, rank) {
		return moves
	}
	if p.IsAttacked(turn, kingSq) {
		return moves // cannot castle out of check
	}

	if p.castling.IsAllowed(KingSide(turn)) {
		f1, g1 := NewSquare(FileF, rank), NewSquare(FileG, rank)
		if !all.IsSet(f1) && !all.IsSet(g1) && !p.IsAttacked(turn, f1) && !p.IsAttacked(turn, g1) {
			moves = append(moves, Move{From: kingSq, To: g1, Piece: King, Type: KingSideCastle})
		}
	}
	if p.castling.IsAllowed(QueenSide(turn)) {
		d1, c1, b1 := NewSquare(FileD, rank), NewSquare(FileC, rank), NewSquare(FileB, rank)
		if !all.IsSet(d1) && !all.IsSet(c1) && !all.IsSet(b1) && !p.IsAttacked(turn, d1) && !p.IsAttacked(turn, c1) {
			moves = append(moves, Move{From: kingSq, To: c1, Piece: King, Type: QueenSideCastle})
		}
	}
	return moves
}

// LegalMoves filters PseudoLegalMoves down to those that do not leave the mover's own king
// attacked, by making and unmaking each candidate (spec §4.3). This is the reference oracle
// against which any faster pin-aware generator must agree (spec §8 "Generator agreement").
func (p *Position) LegalMoves() []Move {
	candidates := p.PseudoLegalMoves()
	legal := make([]Move, 0, len(candidates))
	for _, m := range candidates {
		if p.Make(m) {
			p.Unmake()
			legal = append(legal, m)
		}
	}
	return legal
}

// Perft counts leaf nodes at the given depth: the move generator's principal correctness
// oracle (spec §4.3, §8).
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var nodes uint64
	for _, m := range p.PseudoLegalMoves() {
		if !p.Make(m) {
			continue
		}
		nodes += p.Perft(depth - 1)
		p.Unmake()
	}
	return nodes
}
