package engine

import "github.com/hailam/chessengine/internal/board"

// seeValues prices pieces for exchange evaluation. The king is priced so that
// capturing into a defended square is never worth it.
var seeValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, 20000, 0}

// SEE returns the static exchange evaluation of m from the mover's point of
// view: the material balance after both sides keep recapturing on the
// destination with their least valuable attacker, each side free to stop.
func SEE(pos *board.Position, m board.Move) int {
	if m.IsCastle() {
		return 0
	}
	from, to := m.From(), m.To()

	var gain [40]int
	occ := pos.AllOccupied &^ board.SquareBB(from)
	switch {
	case m.IsEnPassant():
		gain[0] = PawnValue
		capSq := board.Square(int(to) - 8)
		if pos.SideToMove == board.Black {
			capSq = board.Square(int(to) + 8)
		}
		occ &^= board.SquareBB(capSq)
	case pos.Board[to] != board.NoPiece:
		gain[0] = seeValues[pos.Board[to].Type()]
	}

	attacker := seeValues[m.Piece()]
	if m.IsPromotion() {
		gain[0] += seeValues[m.Promotion()] - PawnValue
		attacker = seeValues[m.Promotion()]
	}

	side := pos.SideToMove.Other()
	d := 0
	for d < len(gain)-1 {
		d++
		gain[d] = attacker - gain[d-1]
		if max(-gain[d-1], gain[d]) < 0 {
			break
		}
		sq, pt := leastValuableAttacker(pos, to, side, occ)
		if sq == board.NoSquare {
			break
		}
		occ &^= board.SquareBB(sq)
		attacker = seeValues[pt]
		side = side.Other()
	}
	for d--; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

// leastValuableAttacker finds c's cheapest piece attacking sq through occ.
// Sliders are recomputed against occ, so removing a capturer uncovers the
// x-ray attacker behind it.
func leastValuableAttacker(pos *board.Position, sq board.Square, c board.Color, occ board.Bitboard) (board.Square, board.PieceType) {
	own := &pos.Pieces[c]
	if bb := board.PawnAttacks(sq, c.Other()) & own[board.Pawn] & occ; bb != 0 {
		return bb.First(), board.Pawn
	}
	if bb := board.KnightAttacks(sq) & own[board.Knight] & occ; bb != 0 {
		return bb.First(), board.Knight
	}
	diag := board.BishopAttacks(sq, occ)
	if bb := diag & own[board.Bishop] & occ; bb != 0 {
		return bb.First(), board.Bishop
	}
	straight := board.RookAttacks(sq, occ)
	if bb := straight & own[board.Rook] & occ; bb != 0 {
		return bb.First(), board.Rook
	}
	if bb := (diag | straight) & own[board.Queen] & occ; bb != 0 {
		return bb.First(), board.Queen
	}
	if bb := board.KingAttacks(sq) & own[board.King] & occ; bb != 0 {
		return bb.First(), board.King
	}
	return board.NoSquare, board.NoPieceType
}

// SEEGE reports whether SEE(pos, m) >= threshold.
func SEEGE(pos *board.Position, m board.Move, threshold int) bool {
	return SEE(pos, m) >= threshold
}
