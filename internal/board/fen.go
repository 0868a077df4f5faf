package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN wraps every FEN parse and validation failure.
var ErrInvalidFEN = errors.New("invalid FEN")

func fenError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFEN, fmt.Sprintf(format, args...))
}

// ParseFEN builds a position from Forsyth-Edwards notation. The clocks are
// optional. Castling rights whose king or rook is not on its home square are
// dropped, and an en-passant square no pawn can capture onto is ignored.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fenError("want at least 4 fields, got %d", len(fields))
	}
	p := newEmptyPosition()

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fenError("want 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank, file := 7-i, 0
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc, ok := pieceFromLetter(ch)
			if !ok {
				return nil, fenError("bad piece %q", ch)
			}
			if file > 7 {
				return nil, fenError("rank %d overflows", rank+1)
			}
			p.put(pc, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return nil, fenError("rank %d has %d squares", rank+1, file)
		}
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, fenError("bad side to move %q", fields[1])
	}

	if fields[2] != "-" {
		for _, ch := range fields[2] {
			i := strings.IndexRune("KQkq", ch)
			if i < 0 {
				return nil, fenError("bad castling flag %q", ch)
			}
			p.CastlingRights |= 1 << i
		}
	}
	for _, side := range castleMoves {
		for _, cm := range side {
			c := White
			if cm.kingFrom == E8 {
				c = Black
			}
			if p.Board[cm.kingFrom] != MakePiece(c, King) || p.Board[cm.rookFrom] != MakePiece(c, Rook) {
				p.CastlingRights &^= cm.right
			}
		}
	}

	if fields[3] != "-" {
		ep, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fenError("%v", err)
		}
		if ep.RelativeRank(p.SideToMove) != 5 {
			return nil, fenError("en-passant square %s on wrong rank", ep)
		}
		if PawnAttacks(ep, p.SideToMove.Other())&p.Pieces[p.SideToMove][Pawn] != 0 {
			p.EnPassant = ep
		}
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fenError("bad halfmove clock %q", fields[4])
		}
		p.HalfMoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fenError("bad fullmove number %q", fields[5])
		}
		p.FullMoveNumber = n
	}

	if err := p.Validate(); err != nil {
		return nil, fenError("%v", err)
	}
	p.Hash = p.ComputeHash()
	p.Checkers = p.computeCheckers()
	return p, nil
}

// ToFEN renders the position in Forsyth-Edwards notation.
func (p *Position) ToFEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		gap := 0
		for file := 0; file < 8; file++ {
			pc := p.Board[NewSquare(file, rank)]
			if pc == NoPiece {
				gap++
				continue
			}
			if gap > 0 {
				sb.WriteByte(byte('0' + gap))
				gap = 0
			}
			sb.WriteString(pc.String())
		}
		if gap > 0 {
			sb.WriteByte(byte('0' + gap))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if p.SideToMove == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, p.CastlingRights, p.EnPassant, p.HalfMoveClock, p.FullMoveNumber)
	return sb.String()
}
