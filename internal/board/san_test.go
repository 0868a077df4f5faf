package board

import "testing"

func TestSAN(t *testing.T) {
	tests := []struct {
		fen, move, want string
	}{
		{StartFEN, "e2e4", "e4"},
		{StartFEN, "g1f3", "Nf3"},
		{kiwipeteFEN, "e1g1", "O-O"},
		{kiwipeteFEN, "e1c1", "O-O-O"},
		{kiwipeteFEN, "e5f7", "Nxf7"},
		{kiwipeteFEN, "d5e6", "dxe6"},
		{"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", "Ra8#"},
		{"8/8/8/4k3/8/8/8/N1N1K3 w - - 0 1", "a1b3", "Nab3"},
		{"8/P6k/8/8/8/8/8/K7 w - - 0 1", "a7a8n", "a8=N"},
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", "a1a8", "Ra8+"},
	}
	for _, tc := range tests {
		pos := mustFEN(t, tc.fen)
		m, err := ParseMove(tc.move, pos)
		if err != nil {
			t.Fatalf("%s: %v", tc.move, err)
		}
		if got := SAN(pos, m); got != tc.want {
			t.Errorf("SAN(%s) = %q, want %q", tc.move, got, tc.want)
		}
		back, err := ParseSAN(tc.want, pos)
		if err != nil || back != m {
			t.Errorf("ParseSAN(%q) = %v, %v; want %v", tc.want, back, err, m)
		}
	}
}

func TestMovesToSANLeavesPositionUntouched(t *testing.T) {
	pos := NewPosition()
	fen := pos.ToFEN()
	var line []Move
	p := pos.Copy()
	for _, s := range []string{"e2e4", "e7e5", "g1f3", "b8c6"} {
		m, err := ParseMove(s, p)
		if err != nil {
			t.Fatal(err)
		}
		line = append(line, m)
		p.MakeMove(m)
	}
	got := MovesToSAN(pos, line)
	want := []string{"e4", "e5", "Nf3", "Nc6"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("san[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if pos.ToFEN() != fen {
		t.Error("MovesToSAN changed its input")
	}
}
