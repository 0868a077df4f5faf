package board

import (
	"errors"
	"fmt"
	"strings"
)

// Move packs a move into 32 bits:
//
//	bits  0-5  from square
//	bits  6-11 to square
//	bits 12-14 moving piece type
//	bits 15-17 promotion piece type
//	bits 18-22 flags
//
// The zero value is NoMove.
type Move uint32

// MoveFlag marks the special properties of a move.
type MoveFlag uint32

const (
	FlagCapture MoveFlag = 1 << (18 + iota)
	FlagEnPassant
	FlagCastle
	FlagDoublePush
	FlagPromotion
)

const NoMove Move = 0

// ErrIllegalMove is returned when a coordinate move is not legal in the position.
var ErrIllegalMove = errors.New("illegal move")

func NewMove(from, to Square, pt PieceType, flags MoveFlag) Move {
	return Move(from) | Move(to)<<6 | Move(pt)<<12 | Move(flags)
}

func NewPromotion(from, to Square, promo PieceType, flags MoveFlag) Move {
	return Move(from) | Move(to)<<6 | Move(Pawn)<<12 | Move(promo)<<15 | Move(flags|FlagPromotion)
}

func (m Move) From() Square         { return Square(m & 0x3F) }
func (m Move) To() Square           { return Square(m >> 6 & 0x3F) }
func (m Move) Piece() PieceType     { return PieceType(m >> 12 & 7) }
func (m Move) Promotion() PieceType { return PieceType(m >> 15 & 7) }

func (m Move) Has(f MoveFlag) bool { return MoveFlag(m)&f != 0 }

func (m Move) IsCapture() bool    { return m.Has(FlagCapture) }
func (m Move) IsPromotion() bool  { return m.Has(FlagPromotion) }
func (m Move) IsCastle() bool     { return m.Has(FlagCastle) }
func (m Move) IsEnPassant() bool  { return m.Has(FlagEnPassant) }
func (m Move) IsDoublePush() bool { return m.Has(FlagDoublePush) }

// IsQuiet reports a move that neither captures nor promotes.
func (m Move) IsQuiet() bool { return !m.Has(FlagCapture | FlagPromotion) }

// String renders the move in UCI coordinate form, "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Letter())
	}
	return s
}

// ParseMove resolves a coordinate move such as "e2e4" or "a7a8q" against the
// legal moves of pos, so the returned move carries its full flags.
func ParseMove(s string, pos *Position) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}
	legal := pos.GenerateLegalMoves()
	for _, m := range legal.Slice() {
		if m.String() == s {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s in %s", ErrIllegalMove, s, pos.ToFEN())
}

// MaxMoves bounds the number of legal moves in any chess position.
const MaxMoves = 256

// MoveList is a fixed-capacity move buffer, kept on the stack during search.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

func (ml *MoveList) Len() int       { return ml.count }
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }
func (ml *MoveList) Swap(i, j int)  { ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i] }
func (ml *MoveList) Reset()         { ml.count = 0 }
func (ml *MoveList) Slice() []Move  { return ml.moves[:ml.count] }

func (ml *MoveList) Contains(m Move) bool {
	for _, mv := range ml.moves[:ml.count] {
		if mv == m {
			return true
		}
	}
	return false
}
