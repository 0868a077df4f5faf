package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares, one bit per square with a1 as bit 0 and h8 as bit 63.
type Bitboard uint64

const (
	FileA Bitboard = 0x0101010101010101 << iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

const (
	Rank1 Bitboard = 0xFF << (8 * iota)
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

const (
	Empty    Bitboard = 0
	Universe Bitboard = ^Empty

	NotFileA Bitboard = ^FileA
	NotFileH Bitboard = ^FileH
)

// FileMask is indexed by file number, 0 for the a-file.
var FileMask = [8]Bitboard{FileA, FileB, FileC, FileD, FileE, FileF, FileG, FileH}

// RankMask is indexed by rank number, 0 for the first rank.
var RankMask = [8]Bitboard{Rank1, Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8}

// SquareBB returns the singleton set for sq.
func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

func (b Bitboard) Has(sq Square) bool {
	return b&(1<<sq) != 0
}

func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}

// Several reports whether more than one square is set.
func (b Bitboard) Several() bool {
	return b&(b-1) != 0
}

// First returns the lowest set square, or NoSquare for the empty set.
func (b Bitboard) First() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// Pop removes the lowest set square and returns it. The set must not be empty.
func (b *Bitboard) Pop() Square {
	sq := Square(bits.TrailingZeros64(uint64(*b)))
	*b &= *b - 1
	return sq
}

// Up shifts the set one rank toward c's promotion rank.
func (b Bitboard) Up(c Color) Bitboard {
	if c == White {
		return b << 8
	}
	return b >> 8
}

// UpLeft and UpRight are the pawn capture shifts from c's point of view,
// where left means toward the a-file.
func (b Bitboard) UpLeft(c Color) Bitboard {
	if c == White {
		return (b & NotFileA) << 7
	}
	return (b & NotFileA) >> 9
}

func (b Bitboard) UpRight(c Color) Bitboard {
	if c == White {
		return (b & NotFileH) << 9
	}
	return (b & NotFileH) >> 7
}

func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		for file := 0; file < 8; file++ {
			if b.Has(NewSquare(file, rank)) {
				sb.WriteString(" x")
			} else {
				sb.WriteString(" .")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
