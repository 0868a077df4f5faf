package board

import (
	"fmt"
	"strings"
)

const sanLetters = "PNBRQK"

// SAN renders a legal move of pos in standard algebraic notation.
func SAN(pos *Position, m Move) string {
	if m == NoMove {
		return "--"
	}
	var sb strings.Builder
	from, to, pt := m.From(), m.To(), m.Piece()

	switch {
	case m.IsCastle() && to > from:
		sb.WriteString("O-O")
	case m.IsCastle():
		sb.WriteString("O-O-O")
	case pt == Pawn:
		if m.IsCapture() {
			sb.WriteByte(byte('a' + from.File()))
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(sanLetters[m.Promotion()])
		}
	default:
		sb.WriteByte(sanLetters[pt])
		sb.WriteString(disambiguate(pos, m))
		if m.IsCapture() {
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
	}

	next := pos.Copy()
	next.MakeMove(m)
	if next.InCheck() {
		if next.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	return sb.String()
}

// disambiguate returns the origin file, rank or square needed when another
// piece of the same type can reach the same destination.
func disambiguate(pos *Position, m Move) string {
	from := m.From()
	var rivals []Square
	for _, o := range pos.GenerateLegalMoves().Slice() {
		if o.To() == m.To() && o.Piece() == m.Piece() && o.From() != from {
			rivals = append(rivals, o.From())
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	fileClash, rankClash := false, false
	for _, sq := range rivals {
		fileClash = fileClash || sq.File() == from.File()
		rankClash = rankClash || sq.Rank() == from.Rank()
	}
	switch {
	case !fileClash:
		return string(rune('a' + from.File()))
	case !rankClash:
		return string(rune('1' + from.Rank()))
	}
	return from.String()
}

// MovesToSAN renders a line of moves starting at pos. pos is not modified.
func MovesToSAN(pos *Position, line []Move) []string {
	out := make([]string, 0, len(line))
	p := pos.Copy()
	for _, m := range line {
		out = append(out, SAN(p, m))
		p.MakeMove(m)
	}
	return out
}

// ParseSAN resolves a SAN token by rendering every legal move and comparing,
// ignoring check marks.
func ParseSAN(s string, pos *Position) (Move, error) {
	want := strings.TrimRight(strings.TrimSpace(s), "+#!?")
	want = strings.ReplaceAll(want, "0-0", "O-O")
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if strings.TrimRight(SAN(pos, m), "+#") == want {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, s)
}
