package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a 4-bit set of the remaining castling options.
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

// castleKeep[sq] is and-ed into the rights whenever a move touches sq,
// so king and rook moves or rook captures clear the matching rights.
var castleKeep = func() [64]CastlingRights {
	var t [64]CastlingRights
	for i := range t {
		t[i] = AllCastling
	}
	t[E1] &^= WhiteKingSide | WhiteQueenSide
	t[H1] &^= WhiteKingSide
	t[A1] &^= WhiteQueenSide
	t[E8] &^= BlackKingSide | BlackQueenSide
	t[H8] &^= BlackKingSide
	t[A8] &^= BlackQueenSide
	return t
}()

// Position is the full game state. Piece sets, the mailbox and the hash are
// kept consistent by MakeMove/UnmakeMove.
type Position struct {
	Pieces      [2][6]Bitboard
	Occupied    [2]Bitboard
	AllOccupied Bitboard
	Board       [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // set only when a pawn of the side to move can capture there
	HalfMoveClock  int
	FullMoveNumber int

	Hash       uint64
	KingSquare [2]Square
	Checkers   Bitboard

	// history holds the keys of all earlier positions of the line, oldest first.
	history []uint64
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

func newEmptyPosition() *Position {
	p := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
		KingSquare:     [2]Square{NoSquare, NoSquare},
		history:        make([]uint64, 0, 256),
	}
	for sq := range p.Board {
		p.Board[sq] = NoPiece
	}
	return p
}

// Copy returns an independent deep copy, key history included.
func (p *Position) Copy() *Position {
	c := *p
	c.history = append(make([]uint64, 0, cap(p.history)), p.history...)
	return &c
}

func (p *Position) PieceAt(sq Square) Piece { return p.Board[sq] }

func (p *Position) InCheck() bool { return p.Checkers != 0 }

// GamePly counts half moves since the start of the game.
func (p *Position) GamePly() int {
	ply := 2 * (p.FullMoveNumber - 1)
	if p.SideToMove == Black {
		ply++
	}
	return ply
}

func (p *Position) put(pc Piece, sq Square) {
	c, pt := pc.Color(), pc.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Board[sq] = pc
	if pt == King {
		p.KingSquare[c] = sq
	}
}

func (p *Position) remove(sq Square) {
	pc := p.Board[sq]
	c := pc.Color()
	bb := SquareBB(sq)
	p.Pieces[c][pc.Type()] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.Board[sq] = NoPiece
}

func (p *Position) relocate(from, to Square) {
	pc := p.Board[from]
	c := pc.Color()
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pc.Type()] ^= bb
	p.Occupied[c] ^= bb
	p.AllOccupied ^= bb
	p.Board[to] = pc
	p.Board[from] = NoPiece
	if pc.Type() == King {
		p.KingSquare[c] = to
	}
}

// Validate checks the structural invariants a legal position satisfies.
func (p *Position) Validate() error {
	for _, c := range [2]Color{White, Black} {
		if n := p.Pieces[c][King].Count(); n != 1 {
			return fmt.Errorf("%s has %d kings", c, n)
		}
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawn on a back rank")
	}
	if p.Occupied[White]&p.Occupied[Black] != 0 {
		return fmt.Errorf("squares occupied by both colors")
	}
	them := p.SideToMove.Other()
	if p.IsSquareAttacked(p.KingSquare[them], p.SideToMove) {
		return fmt.Errorf("%s king can be captured", them)
	}
	return nil
}

// pinned returns the pieces of the side to move that shield their king from
// an enemy slider.
func (p *Position) pinned() Bitboard {
	us := p.SideToMove
	them := &p.Pieces[us.Other()]
	k := p.KingSquare[us]
	snipers := RookAttacks(k, 0)&(them[Rook]|them[Queen]) |
		BishopAttacks(k, 0)&(them[Bishop]|them[Queen])
	var pins Bitboard
	for snipers != 0 {
		s := snipers.Pop()
		blockers := Between(s, k) & p.AllOccupied
		if blockers != 0 && !blockers.Several() && blockers&p.Occupied[us] != 0 {
			pins |= blockers
		}
	}
	return pins
}

// HasNonPawnMaterial reports whether the side to move owns a piece other than
// pawns and king.
func (p *Position) HasNonPawnMaterial() bool {
	pc := &p.Pieces[p.SideToMove]
	return pc[Knight]|pc[Bishop]|pc[Rook]|pc[Queen] != 0
}

// Mirror returns the position with colors swapped and the board flipped
// vertically. Evaluation of the result is the negation of the original.
func (p *Position) Mirror() *Position {
	m := newEmptyPosition()
	for sq := A1; sq <= H8; sq++ {
		if pc := p.Board[sq]; pc != NoPiece {
			m.put(MakePiece(pc.Color().Other(), pc.Type()), sq.Flip())
		}
	}
	m.SideToMove = p.SideToMove.Other()
	m.CastlingRights = (p.CastlingRights&3)<<2 | (p.CastlingRights>>2)&3
	if p.EnPassant != NoSquare {
		m.EnPassant = p.EnPassant.Flip()
	}
	m.HalfMoveClock = p.HalfMoveClock
	m.FullMoveNumber = p.FullMoveNumber
	m.Hash = m.ComputeHash()
	m.Checkers = m.computeCheckers()
	return m
}

// String draws the board from White's side followed by the FEN and key.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, " %d ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteByte(' ')
			sb.WriteString(p.Board[NewSquare(file, rank)].String())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n    a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\nKey: %016X\n", p.ToFEN(), p.Hash)
	if p.Checkers != 0 {
		var sqs []string
		for bb := p.Checkers; bb != 0; {
			sqs = append(sqs, bb.Pop().String())
		}
		fmt.Fprintf(&sb, "Checkers: %s\n", strings.Join(sqs, " "))
	}
	return sb.String()
}
