package board

import "testing"

func TestCheckmate(t *testing.T) {
	// Back rank: the rook on a8 mates, g7 and h7 take the flight squares.
	pos := mustFEN(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if !pos.InCheck() {
		t.Fatal("black should be in check")
	}
	if n := pos.GenerateLegalMoves().Len(); n != 0 {
		t.Fatalf("%d legal moves in a mated position", n)
	}
	if !pos.IsCheckmate() || pos.IsStalemate() {
		t.Error("expected checkmate")
	}
}

func TestNotCheckmate(t *testing.T) {
	// The king takes the unprotected rook.
	pos := mustFEN(t, "6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if pos.IsCheckmate() {
		t.Error("king can capture the checking rook")
	}
}

func TestStalemate(t *testing.T) {
	pos := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if !pos.IsStalemate() || pos.IsCheckmate() {
		t.Error("expected stalemate")
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	pos := mustFEN(t, "4k3/8/5N2/8/8/8/8/4R1K1 b - - 0 1")
	if pos.Checkers.Count() != 2 {
		t.Fatalf("checkers = %d, want 2", pos.Checkers.Count())
	}
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.Piece() != King {
			t.Errorf("non-king move %v in double check", m)
		}
	}
}
