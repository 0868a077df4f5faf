package board

import (
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

func oraclePerft(b *dragontoothmg.Board, depth int) uint64 {
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var n uint64
	for _, m := range moves {
		undo := b.Apply(m)
		n += oraclePerft(b, depth-1)
		undo()
	}
	return n
}

// TestPerftMatchesOracle compares subtree sizes under every root move with an
// independent generator.
func TestPerftMatchesOracle(t *testing.T) {
	fens := []string{StartFEN, kiwipeteFEN, pos3FEN, pos4FEN, pos5FEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		"8/P1k5/K7/8/8/8/8/8 w - - 0 1",
	}
	const depth = 3
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		ref := dragontoothmg.ParseFen(fen)

		want := make(map[[2]uint8]uint64)
		for _, m := range ref.GenerateLegalMoves() {
			undo := ref.Apply(m)
			want[[2]uint8{m.From(), m.To()}] += oraclePerft(&ref, depth-1)
			undo()
		}
		got := make(map[[2]uint8]uint64)
		for _, e := range pos.Divide(depth) {
			got[[2]uint8{uint8(e.Move.From()), uint8(e.Move.To())}] += e.Nodes
		}

		if len(got) != len(want) {
			t.Errorf("%s: %d distinct root moves, oracle has %d", fen, len(got), len(want))
		}
		for k, n := range want {
			if got[k] != n {
				t.Errorf("%s: %s%s subtree = %d, oracle %d", fen, Square(k[0]), Square(k[1]), got[k], n)
			}
		}
	}
}
