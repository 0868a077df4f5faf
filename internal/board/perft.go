package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var ml MoveList
	p.GenerateMoves(All, &ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for _, m := range ml.Slice() {
		u := p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove(m, u)
	}
	return nodes
}

// DivideEntry is the subtree size below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide splits Perft(depth) by root move, in generation order.
func (p *Position) Divide(depth int) []DivideEntry {
	var ml MoveList
	p.GenerateMoves(All, &ml)
	out := make([]DivideEntry, 0, ml.Len())
	for _, m := range ml.Slice() {
		u := p.MakeMove(m)
		out = append(out, DivideEntry{Move: m, Nodes: p.Perft(depth - 1)})
		p.UnmakeMove(m, u)
	}
	return out
}
