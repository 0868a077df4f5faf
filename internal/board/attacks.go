package board

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	betweenBB [64][64]Bitboard
	lineBB    [64][64]Bitboard
)

func init() {
	initLeapers()
	initLines()
	initMagics()
	initZobrist()
}

var (
	knightSteps = [8]direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8]direction{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

func stepTargets(sq Square, steps []direction) Bitboard {
	var bb Bitboard
	for _, d := range steps {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			bb |= SquareBB(NewSquare(f, r))
		}
	}
	return bb
}

func initLeapers() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = stepTargets(sq, knightSteps[:])
		kingAttacks[sq] = stepTargets(sq, kingSteps[:])
		b := SquareBB(sq)
		pawnAttacks[White][sq] = b.UpLeft(White) | b.UpRight(White)
		pawnAttacks[Black][sq] = b.UpLeft(Black) | b.UpRight(Black)
	}
}

// ray returns every square from sq (exclusive) to the board edge along d.
func ray(sq Square, d direction) Bitboard {
	var bb Bitboard
	for f, r := sq.File()+d.df, sq.Rank()+d.dr; f >= 0 && f < 8 && r >= 0 && r < 8; f, r = f+d.df, r+d.dr {
		bb |= SquareBB(NewSquare(f, r))
	}
	return bb
}

// initLines fills between and line tables for every pair of squares sharing a
// rank, file or diagonal. Unaligned pairs stay empty.
func initLines() {
	for a := A1; a <= H8; a++ {
		for _, d := range kingSteps {
			back := direction{-d.df, -d.dr}
			fwd := ray(a, d)
			full := fwd | ray(a, back) | SquareBB(a)
			for bb := fwd; bb != 0; {
				b := bb.Pop()
				lineBB[a][b] = full
				betweenBB[a][b] = fwd & ray(b, back)
			}
		}
	}
}

func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }
func KingAttacks(sq Square) Bitboard   { return kingAttacks[sq] }

// PawnAttacks is the set of squares a pawn of color c on sq attacks.
func PawnAttacks(sq Square, c Color) Bitboard { return pawnAttacks[c][sq] }

// Between returns the squares strictly between a and b, empty when unaligned.
func Between(a, b Square) Bitboard { return betweenBB[a][b] }

// Line returns the whole board line through a and b, empty when unaligned.
func Line(a, b Square) Bitboard { return lineBB[a][b] }

// AttackersTo returns attackers of either color on sq under the occupancy occ.
func (p *Position) AttackersTo(sq Square, occ Bitboard) Bitboard {
	diag := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop] | p.Pieces[White][Queen] | p.Pieces[Black][Queen]
	orth := p.Pieces[White][Rook] | p.Pieces[Black][Rook] | p.Pieces[White][Queen] | p.Pieces[Black][Queen]
	return pawnAttacks[Black][sq]&p.Pieces[White][Pawn] |
		pawnAttacks[White][sq]&p.Pieces[Black][Pawn] |
		knightAttacks[sq]&(p.Pieces[White][Knight]|p.Pieces[Black][Knight]) |
		kingAttacks[sq]&(p.Pieces[White][King]|p.Pieces[Black][King]) |
		BishopAttacks(sq, occ)&diag |
		RookAttacks(sq, occ)&orth
}

// attackedBy reports whether color c attacks sq under the occupancy occ.
func (p *Position) attackedBy(sq Square, c Color, occ Bitboard) bool {
	pc := &p.Pieces[c]
	return pawnAttacks[c.Other()][sq]&pc[Pawn] != 0 ||
		knightAttacks[sq]&pc[Knight] != 0 ||
		kingAttacks[sq]&pc[King] != 0 ||
		BishopAttacks(sq, occ)&(pc[Bishop]|pc[Queen]) != 0 ||
		RookAttacks(sq, occ)&(pc[Rook]|pc[Queen]) != 0
}

// IsSquareAttacked reports whether color c attacks sq in the current position.
func (p *Position) IsSquareAttacked(sq Square, c Color) bool {
	return p.attackedBy(sq, c, p.AllOccupied)
}

func (p *Position) computeCheckers() Bitboard {
	us := p.SideToMove
	k := p.KingSquare[us]
	if k == NoSquare {
		return 0
	}
	them := &p.Pieces[us.Other()]
	occ := p.AllOccupied
	return pawnAttacks[us][k]&them[Pawn] |
		knightAttacks[k]&them[Knight] |
		BishopAttacks(k, occ)&(them[Bishop]|them[Queen]) |
		RookAttacks(k, occ)&(them[Rook]|them[Queen])
}
