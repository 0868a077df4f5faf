package board

type Color uint8

const (
	White Color = iota
	Black
	NoColor
)

// Other returns the opponent of c.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}

type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

const pieceLetters = "pnbrqk"

// Letter is the lowercase FEN letter of the piece type.
func (pt PieceType) Letter() byte {
	if pt >= NoPieceType {
		return '?'
	}
	return pieceLetters[pt]
}

// Piece is a colored piece type, encoded as type + 6*color.
type Piece uint8

const NoPiece Piece = 12

func MakePiece(c Color, pt PieceType) Piece {
	return Piece(pt) + 6*Piece(c)
}

func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

func (p Piece) String() string {
	if p >= NoPiece {
		return "."
	}
	return string("PNBRQKpnbrqk"[p])
}

// pieceFromLetter maps a FEN letter to its piece; false for anything else.
func pieceFromLetter(ch byte) (Piece, bool) {
	for i := 0; i < 12; i++ {
		if "PNBRQKpnbrqk"[i] == ch {
			return Piece(i), true
		}
	}
	return NoPiece, false
}
