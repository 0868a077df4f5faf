package board

// GenMode selects which legal moves GenerateMoves produces.
type GenMode uint8

const (
	// All generates every legal move.
	All GenMode = iota
	// CapturesAndPromotions generates captures (en passant included) and all
	// promotions, the move set of quiescence search.
	CapturesAndPromotions
)

type castleMove struct {
	right            CastlingRights
	kingFrom, kingTo Square
	rookFrom, rookTo Square
	empty            Bitboard // must be vacant
	safe             Bitboard // must not be attacked, king square included
}

var castleMoves = [2][2]castleMove{
	White: {
		{WhiteKingSide, E1, G1, H1, F1, SquareBB(F1) | SquareBB(G1), SquareBB(E1) | SquareBB(F1) | SquareBB(G1)},
		{WhiteQueenSide, E1, C1, A1, D1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), SquareBB(E1) | SquareBB(D1) | SquareBB(C1)},
	},
	Black: {
		{BlackKingSide, E8, G8, H8, F8, SquareBB(F8) | SquareBB(G8), SquareBB(E8) | SquareBB(F8) | SquareBB(G8)},
		{BlackQueenSide, E8, C8, A8, D8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), SquareBB(E8) | SquareBB(D8) | SquareBB(C8)},
	},
}

// GenerateLegalMoves returns every legal move of the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := &MoveList{}
	p.GenerateMoves(All, ml)
	return ml
}

// GenerateCaptures returns the legal captures and promotions.
func (p *Position) GenerateCaptures() *MoveList {
	ml := &MoveList{}
	p.GenerateMoves(CapturesAndPromotions, ml)
	return ml
}

// GenerateMoves appends the legal moves selected by mode to ml.
//
// Pieces other than the king are restricted to the check-evasion mask
// (capture the single checker or interpose) and, when pinned, to the line
// through their king. King destinations are tested with the king lifted off
// the board so it cannot hide behind itself.
func (p *Position) GenerateMoves(mode GenMode, ml *MoveList) {
	us, them := p.SideToMove, p.SideToMove.Other()
	own, enemy := p.Occupied[us], p.Occupied[them]
	occ := p.AllOccupied
	k := p.KingSquare[us]

	kingTargets := ^own
	if mode == CapturesAndPromotions {
		kingTargets = enemy
	}
	liftedOcc := occ &^ SquareBB(k)
	for dst := KingAttacks(k) & kingTargets; dst != 0; {
		to := dst.Pop()
		if !p.attackedBy(to, them, liftedOcc) {
			p.addMove(ml, k, to, King)
		}
	}

	if p.Checkers.Several() {
		return
	}

	evasion := Universe
	if p.Checkers != 0 {
		c := p.Checkers.First()
		evasion = SquareBB(c) | Between(c, k)
	}
	pins := p.pinned()

	targets := ^own & evasion
	if mode == CapturesAndPromotions {
		targets = enemy & evasion
	}

	for pt := Knight; pt <= Queen; pt++ {
		for from := p.Pieces[us][pt]; from != 0; {
			sq := from.Pop()
			var att Bitboard
			switch pt {
			case Knight:
				if pins.Has(sq) {
					continue
				}
				att = KnightAttacks(sq)
			case Bishop:
				att = BishopAttacks(sq, occ)
			case Rook:
				att = RookAttacks(sq, occ)
			case Queen:
				att = QueenAttacks(sq, occ)
			}
			att &= targets
			if pins.Has(sq) {
				att &= Line(sq, k)
			}
			for att != 0 {
				p.addMove(ml, sq, att.Pop(), pt)
			}
		}
	}

	p.genPawnMoves(mode, ml, evasion, pins)

	if mode == All && p.Checkers == 0 {
		p.genCastling(ml)
	}
}

func (p *Position) addMove(ml *MoveList, from, to Square, pt PieceType) {
	var flags MoveFlag
	if p.Board[to] != NoPiece {
		flags = FlagCapture
	}
	ml.Add(NewMove(from, to, pt, flags))
}

func (p *Position) genPawnMoves(mode GenMode, ml *MoveList, evasion, pins Bitboard) {
	us, them := p.SideToMove, p.SideToMove.Other()
	pawns := p.Pieces[us][Pawn]
	empty := ^p.AllOccupied
	enemy := p.Occupied[them]
	k := p.KingSquare[us]

	promoRank, thirdRank := Rank8, Rank3
	forward := 8
	if us == Black {
		promoRank, thirdRank = Rank1, Rank6
		forward = -8
	}

	// emit walks a destination set whose origins all sit delta squares back.
	emit := func(dst Bitboard, delta int, flags MoveFlag) {
		for dst != 0 {
			to := dst.Pop()
			from := Square(int(to) - delta)
			if pins.Has(from) && !Line(from, k).Has(to) {
				continue
			}
			if promoRank.Has(to) {
				for _, promo := range [4]PieceType{Queen, Knight, Rook, Bishop} {
					ml.Add(NewPromotion(from, to, promo, flags))
				}
				continue
			}
			ml.Add(NewMove(from, to, Pawn, flags))
		}
	}

	single := pawns.Up(us) & empty
	if mode == All {
		double := (single & thirdRank).Up(us) & empty & evasion
		emit(single&evasion, forward, 0)
		emit(double, 2*forward, FlagDoublePush)
	} else {
		emit(single&evasion&promoRank, forward, 0)
	}

	left, right := forward-1, forward+1
	emit(pawns.UpLeft(us)&enemy&evasion, left, FlagCapture)
	emit(pawns.UpRight(us)&enemy&evasion, right, FlagCapture)

	if p.EnPassant != NoSquare {
		p.genEnPassant(ml, pawns)
	}
}

// genEnPassant checks each en-passant capture against the occupancy after
// both pawns have moved, which catches the rank pin where the capturing and
// captured pawn together shield the king.
func (p *Position) genEnPassant(ml *MoveList, pawns Bitboard) {
	us, them := p.SideToMove, p.SideToMove.Other()
	ep := p.EnPassant
	captured := Square(int(ep) - 8)
	if us == Black {
		captured = Square(int(ep) + 8)
	}
	k := p.KingSquare[us]
	foe := &p.Pieces[them]
	for from := PawnAttacks(ep, them) & pawns; from != 0; {
		sq := from.Pop()
		occ := p.AllOccupied&^SquareBB(sq)&^SquareBB(captured) | SquareBB(ep)
		if RookAttacks(k, occ)&(foe[Rook]|foe[Queen]) != 0 ||
			BishopAttacks(k, occ)&(foe[Bishop]|foe[Queen]) != 0 {
			continue
		}
		if p.Checkers&^SquareBB(captured)&(foe[Knight]|foe[Pawn]) != 0 {
			continue
		}
		ml.Add(NewMove(sq, ep, Pawn, FlagCapture|FlagEnPassant))
	}
}

func (p *Position) genCastling(ml *MoveList) {
	us, them := p.SideToMove, p.SideToMove.Other()
	for _, cm := range castleMoves[us] {
		if p.CastlingRights&cm.right == 0 || p.AllOccupied&cm.empty != 0 {
			continue
		}
		if p.Board[cm.rookFrom] != MakePiece(us, Rook) {
			continue
		}
		ok := true
		for sqs := cm.safe; sqs != 0; {
			if p.attackedBy(sqs.Pop(), them, p.AllOccupied) {
				ok = false
				break
			}
		}
		if ok {
			ml.Add(NewMove(cm.kingFrom, cm.kingTo, King, FlagCastle))
		}
	}
}

// HasLegalMoves reports whether the side to move can move at all.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateMoves(All, &ml)
	return ml.Len() > 0
}

func (p *Position) IsCheckmate() bool { return p.Checkers != 0 && !p.HasLegalMoves() }
func (p *Position) IsStalemate() bool { return p.Checkers == 0 && !p.HasLegalMoves() }
