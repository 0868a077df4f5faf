package board

import "testing"

const (
	kiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	pos3FEN     = "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"
	pos4FEN     = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"
	pos5FEN     = "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8"
)

func mustFEN(t testing.TB, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		want  uint64
		long  bool
	}{
		{"startpos/1", StartFEN, 1, 20, false},
		{"startpos/2", StartFEN, 2, 400, false},
		{"startpos/3", StartFEN, 3, 8902, false},
		{"startpos/4", StartFEN, 4, 197281, false},
		{"startpos/5", StartFEN, 5, 4865609, true},
		{"kiwipete/1", kiwipeteFEN, 1, 48, false},
		{"kiwipete/2", kiwipeteFEN, 2, 2039, false},
		{"kiwipete/3", kiwipeteFEN, 3, 97862, false},
		{"kiwipete/4", kiwipeteFEN, 4, 4085603, true},
		{"pos3/1", pos3FEN, 1, 14, false},
		{"pos3/2", pos3FEN, 2, 191, false},
		{"pos3/3", pos3FEN, 3, 2812, false},
		{"pos3/4", pos3FEN, 4, 43238, false},
		{"pos3/5", pos3FEN, 5, 674624, true},
		{"pos4/1", pos4FEN, 1, 6, false},
		{"pos4/2", pos4FEN, 2, 264, false},
		{"pos4/3", pos4FEN, 3, 9467, false},
		{"pos4/4", pos4FEN, 4, 422333, true},
		{"pos5/1", pos5FEN, 1, 44, false},
		{"pos5/2", pos5FEN, 2, 1486, false},
		{"pos5/3", pos5FEN, 3, 62379, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.long && testing.Short() {
				t.Skip("deep perft skipped in short mode")
			}
			pos := mustFEN(t, tc.fen)
			if got := pos.Perft(tc.depth); got != tc.want {
				t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.want)
			}
		})
	}
}

// The black pawn on e4 may not take en passant: both pawns leave the fourth
// rank and the rook on h4 would hit the king on a4.
func TestPerftEnPassantPin(t *testing.T) {
	pos := mustFEN(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if pos.EnPassant != D3 {
		t.Fatalf("en-passant square = %s, want d3", pos.EnPassant)
	}
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.IsEnPassant() {
			t.Errorf("en passant %v generated through a rank pin", m)
		}
	}
	if got := pos.Perft(1); got != 6 {
		t.Errorf("perft(1) = %d, want 6", got)
	}
	if got := pos.Perft(2); got != 94 {
		t.Errorf("perft(2) = %d, want 94", got)
	}
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := mustFEN(t, kiwipeteFEN)
	var sum uint64
	for _, e := range pos.Divide(3) {
		sum += e.Nodes
	}
	if sum != 97862 {
		t.Errorf("divide total = %d, want 97862", sum)
	}
}

func TestCapturesModeIsSubsetOfAll(t *testing.T) {
	for _, fen := range []string{StartFEN, kiwipeteFEN, pos3FEN, pos4FEN, pos5FEN} {
		pos := mustFEN(t, fen)
		all := pos.GenerateLegalMoves()
		want := 0
		for _, m := range all.Slice() {
			if m.IsCapture() || m.IsPromotion() {
				want++
			}
		}
		caps := pos.GenerateCaptures()
		if caps.Len() != want {
			t.Errorf("%s: %d captures/promotions, want %d", fen, caps.Len(), want)
		}
		for _, m := range caps.Slice() {
			if !all.Contains(m) {
				t.Errorf("%s: capture %v missing from full list", fen, m)
			}
		}
	}
}
