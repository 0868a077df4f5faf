package board

// Undo carries the state MakeMove cannot recompute when reversing a move.
type Undo struct {
	Captured       Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard
}

// NullUndo is the Undo of a null move.
type NullUndo struct {
	EnPassant     Square
	HalfMoveClock int
	Hash          uint64
}

func castleRookSquares(kingTo Square) (Square, Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// MakeMove plays a legal move and returns what UnmakeMove needs to take it back.
// The key of the position being left is pushed onto the history.
func (p *Position) MakeMove(m Move) Undo {
	u := Undo{
		Captured:       NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		Checkers:       p.Checkers,
	}
	p.history = append(p.history, p.Hash)

	us, them := p.SideToMove, p.SideToMove.Other()
	from, to := m.From(), m.To()
	pc := p.Board[from]
	h := p.Hash ^ zobristBlack ^ zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare
	p.HalfMoveClock++

	if m.IsEnPassant() {
		capSq := Square(int(to) - 8)
		if us == Black {
			capSq = Square(int(to) + 8)
		}
		u.Captured = p.Board[capSq]
		h ^= zobristPiece[u.Captured][capSq]
		p.remove(capSq)
	} else if victim := p.Board[to]; victim != NoPiece {
		u.Captured = victim
		h ^= zobristPiece[victim][to]
		p.remove(to)
	}
	if u.Captured != NoPiece {
		p.HalfMoveClock = 0
	}

	p.relocate(from, to)
	h ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]

	switch {
	case m.IsPromotion():
		promo := MakePiece(us, m.Promotion())
		p.remove(to)
		p.put(promo, to)
		h ^= zobristPiece[pc][to] ^ zobristPiece[promo][to]
	case m.IsCastle():
		rf, rt := castleRookSquares(to)
		rook := p.Board[rf]
		p.relocate(rf, rt)
		h ^= zobristPiece[rook][rf] ^ zobristPiece[rook][rt]
	}

	if pc.Type() == Pawn {
		p.HalfMoveClock = 0
		if m.IsDoublePush() {
			ep := Square((int(from) + int(to)) / 2)
			if PawnAttacks(ep, us)&p.Pieces[them][Pawn] != 0 {
				p.EnPassant = ep
				h ^= zobristEnPassant[ep.File()]
			}
		}
	}

	p.CastlingRights &= castleKeep[from] & castleKeep[to]
	h ^= zobristCastling[p.CastlingRights]
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
	p.Hash = h
	p.Checkers = p.computeCheckers()
	return u
}

// UnmakeMove reverses MakeMove(m); u must be the value that call returned.
func (p *Position) UnmakeMove(m Move, u Undo) {
	us := p.SideToMove.Other()
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}
	from, to := m.From(), m.To()

	switch {
	case m.IsPromotion():
		p.remove(to)
		p.put(MakePiece(us, Pawn), to)
	case m.IsCastle():
		rf, rt := castleRookSquares(to)
		p.relocate(rt, rf)
	}
	p.relocate(to, from)

	if u.Captured != NoPiece {
		capSq := to
		if m.IsEnPassant() {
			capSq = Square(int(to) - 8)
			if us == Black {
				capSq = Square(int(to) + 8)
			}
		}
		p.put(u.Captured, capSq)
	}

	p.CastlingRights = u.CastlingRights
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.Hash = u.Hash
	p.Checkers = u.Checkers
	p.history = p.history[:len(p.history)-1]
}

// MakeNullMove passes the turn. The side to move must not be in check.
// The halfmove clock restarts, so repetition scans stop at a null move.
func (p *Position) MakeNullMove() NullUndo {
	u := NullUndo{EnPassant: p.EnPassant, HalfMoveClock: p.HalfMoveClock, Hash: p.Hash}
	p.history = append(p.history, p.Hash)
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.Hash ^= zobristBlack
	p.HalfMoveClock = 0
	p.SideToMove = p.SideToMove.Other()
	p.Checkers = 0
	return u
}

func (p *Position) UnmakeNullMove(u NullUndo) {
	p.SideToMove = p.SideToMove.Other()
	p.EnPassant = u.EnPassant
	p.HalfMoveClock = u.HalfMoveClock
	p.Hash = u.Hash
	p.Checkers = 0
	p.history = p.history[:len(p.history)-1]
}
