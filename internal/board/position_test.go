package board

import (
	"errors"
	"slices"
	"testing"
)

func samePosition(a, b *Position) bool {
	return a.Pieces == b.Pieces && a.Occupied == b.Occupied && a.AllOccupied == b.AllOccupied &&
		a.Board == b.Board && a.SideToMove == b.SideToMove && a.CastlingRights == b.CastlingRights &&
		a.EnPassant == b.EnPassant && a.HalfMoveClock == b.HalfMoveClock &&
		a.FullMoveNumber == b.FullMoveNumber && a.Hash == b.Hash && a.KingSquare == b.KingSquare &&
		a.Checkers == b.Checkers && slices.Equal(a.history, b.history)
}

// walk makes and unmakes every move to the given depth, checking that unmake
// restores the exact state and that the incremental key matches a recompute.
func walk(t *testing.T, p *Position, depth int) {
	if depth == 0 {
		return
	}
	for _, m := range p.GenerateLegalMoves().Slice() {
		before := p.Copy()
		u := p.MakeMove(m)
		if p.Hash != p.ComputeHash() {
			t.Fatalf("%s after %v: incremental key %016x, recomputed %016x", before.ToFEN(), m, p.Hash, p.ComputeHash())
		}
		if p.Checkers != p.computeCheckers() {
			t.Fatalf("%s after %v: stale checkers", before.ToFEN(), m)
		}
		walk(t, p, depth-1)
		p.UnmakeMove(m, u)
		if !samePosition(p, before) {
			t.Fatalf("%s: unmake of %v did not restore the position, got %s", before.ToFEN(), m, p.ToFEN())
		}
	}
}

func TestMakeUnmakeRestoresState(t *testing.T) {
	for _, fen := range []string{StartFEN, kiwipeteFEN, pos3FEN, pos4FEN, pos5FEN} {
		t.Run(fen, func(t *testing.T) {
			walk(t, mustFEN(t, fen), 3)
		})
	}
}

func TestNullMoveRoundTrip(t *testing.T) {
	pos := mustFEN(t, "rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")
	before := pos.Copy()
	u := pos.MakeNullMove()
	if pos.SideToMove != White || pos.EnPassant != NoSquare {
		t.Fatalf("null move left side %s ep %s", pos.SideToMove, pos.EnPassant)
	}
	if pos.Hash != pos.ComputeHash() {
		t.Fatalf("null move key mismatch")
	}
	pos.UnmakeNullMove(u)
	if !samePosition(pos, before) {
		t.Fatalf("unmake null did not restore position")
	}
}

func TestFENRoundTrip(t *testing.T) {
	for _, fen := range []string{StartFEN, kiwipeteFEN, pos3FEN, pos4FEN, pos5FEN,
		"rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3"} {
		if got := mustFEN(t, fen).ToFEN(); got != fen {
			t.Errorf("ToFEN(ParseFEN(%q)) = %q", fen, got)
		}
	}
}

func TestEnPassantSquareOnlyWhenCapturable(t *testing.T) {
	pos := NewPosition()
	m, err := ParseMove("e2e4", pos)
	if err != nil {
		t.Fatal(err)
	}
	pos.MakeMove(m)
	if pos.EnPassant != NoSquare {
		t.Errorf("ep square %s set with no pawn able to capture", pos.EnPassant)
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	if pos.ToFEN() != want {
		t.Errorf("FEN = %q, want %q", pos.ToFEN(), want)
	}

	// The stray ep field is ignored so both spellings hash alike.
	a := mustFEN(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if a.Hash != pos.Hash {
		t.Errorf("keys differ for identical positions")
	}
}

func TestParseFENRejects(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbq1bnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1",
		"4k3/8/8/8/8/8/8/4K2q b - - 0 1",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) err = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestCastlingRightsSanitized(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4K2R w KQkq - 0 1")
	if pos.CastlingRights != WhiteKingSide {
		t.Errorf("rights = %s, want K", pos.CastlingRights)
	}
}

func TestParseMoveRejectsIllegal(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"e2e5", "e1g1", "a1a2", "zz", "e7e5"} {
		if _, err := ParseMove(s, pos); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("ParseMove(%q) err = %v, want ErrIllegalMove", s, err)
		}
	}
	m, err := ParseMove("g1f3", pos)
	if err != nil || m.Piece() != Knight {
		t.Errorf("ParseMove(g1f3) = %v, %v", m, err)
	}
}

func play(t *testing.T, p *Position, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := ParseMove(s, p)
		if err != nil {
			t.Fatal(err)
		}
		p.MakeMove(m)
	}
}

func TestThreefoldRepetition(t *testing.T) {
	pos := NewPosition()
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	play(t, pos, shuffle...)
	if pos.IsRepetition(0) {
		t.Fatal("a single earlier occurrence before the root is not a draw")
	}
	if !pos.IsRepetition(5) {
		t.Fatal("an occurrence inside the search tree is a draw")
	}

	play(t, pos, shuffle...)
	if !pos.IsRepetition(0) {
		t.Fatal("third occurrence not detected")
	}
}

func TestRepetitionStopsAtIrreversibleMove(t *testing.T) {
	pos := NewPosition()
	play(t, pos, "g1f3", "g8f6", "f3g1", "f6g8", "e2e4", "e7e5",
		"g1f3", "g8f6", "f3g1", "f6g8")
	if pos.IsRepetition(0) {
		t.Fatal("positions before a pawn move counted as repetitions")
	}
}

func TestFiftyMoveRule(t *testing.T) {
	pos := mustFEN(t, "8/8/8/4k3/8/8/8/R3K3 w - - 99 60")
	if pos.IsFiftyMoveDraw() {
		t.Fatal("99 half moves is not yet a draw")
	}
	play(t, pos, "a1a2")
	if !pos.IsFiftyMoveDraw() || !pos.IsDraw() {
		t.Fatal("100 half moves should be a draw")
	}
	play(t, pos, "e5e4", "a2a4")
	if pos.HalfMoveClock != 102 {
		t.Fatalf("clock = %d", pos.HalfMoveClock)
	}
}

func TestInsufficientMaterial(t *testing.T) {
	tests := []struct {
		fen  string
		want bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/3NK3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/3BK3 b - - 0 1", true},
		{"8/8/8/2b1k3/8/8/8/3BK3 w - - 0 1", false},
		{"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1", false},
		{"8/8/8/4k3/8/8/8/3RK3 w - - 0 1", false},
	}
	for _, tc := range tests {
		if got := mustFEN(t, tc.fen).IsInsufficientMaterial(); got != tc.want {
			t.Errorf("%s: insufficient = %v, want %v", tc.fen, got, tc.want)
		}
	}
}

func TestMirror(t *testing.T) {
	pos := mustFEN(t, kiwipeteFEN)
	m := pos.Mirror()
	if m.Hash != m.ComputeHash() {
		t.Fatal("mirror key mismatch")
	}
	if got := m.Mirror().ToFEN(); got != pos.ToFEN() {
		t.Errorf("double mirror = %q, want %q", got, pos.ToFEN())
	}
	if m.Perft(2) != pos.Perft(2) {
		t.Error("mirrored position has a different move tree")
	}
}
