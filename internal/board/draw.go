package board

// IsRepetition reports a repetition draw for a node ply half moves below the
// search root. Keys are compared only within the current halfmove-clock
// window, every second ply, since a capture, pawn move or castle can never be
// undone. A single earlier occurrence is enough when it lies inside the search
// (strictly after the root); otherwise two are needed, i.e. a threefold.
func (p *Position) IsRepetition(ply int) bool {
	n := len(p.history)
	limit := min(p.HalfMoveClock, n)
	seen := 0
	for i := 4; i <= limit; i += 2 {
		if p.history[n-i] != p.Hash {
			continue
		}
		if i < ply {
			return true
		}
		seen++
		if seen >= 2 {
			return true
		}
	}
	return false
}

// IsFiftyMoveDraw reports whether a hundred half moves passed without a
// capture or pawn move. A checkmate delivered on the hundredth ply still
// counts as mate; callers check that first.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock >= 100
}

// IsInsufficientMaterial covers bare kings and a single minor piece against a
// bare king.
func (p *Position) IsInsufficientMaterial() bool {
	w, b := &p.Pieces[White], &p.Pieces[Black]
	if w[Pawn]|b[Pawn]|w[Rook]|b[Rook]|w[Queen]|b[Queen] != 0 {
		return false
	}
	minors := w[Knight] | w[Bishop] | b[Knight] | b[Bishop]
	return !minors.Several()
}

// IsDraw applies the rule-based draws to a game position (not a search node).
func (p *Position) IsDraw() bool {
	if p.IsFiftyMoveDraw() && !p.IsCheckmate() {
		return true
	}
	return p.IsInsufficientMaterial() || p.IsRepetition(0) || p.IsStalemate()
}
