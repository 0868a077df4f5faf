package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hailam/chessengine/internal/board"
)

var symmetryFENs = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"4k3/8/8/8/8/8/8/4K2Q b - - 0 1",
}

func TestEvaluateColorSymmetry(t *testing.T) {
	for _, fen := range symmetryFENs {
		pos := mustPos(t, fen)
		mirrored := pos.Mirror()
		assert.Equal(t, EvaluateWhite(pos), -EvaluateWhite(mirrored), fen)
		assert.Equal(t, Evaluate(pos), Evaluate(mirrored), fen)
	}
}

func TestEvaluateStartIsTempo(t *testing.T) {
	assert.Equal(t, 0, EvaluateWhite(board.NewPosition()))
	assert.Equal(t, tempoBonus, Evaluate(board.NewPosition()))
}

func TestEvaluateMaterial(t *testing.T) {
	queenUp := mustPos(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	assert.Greater(t, Evaluate(queenUp), QueenValue/2)

	queenDown := mustPos(t, "4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	assert.Less(t, Evaluate(queenDown), -QueenValue/2)
}
