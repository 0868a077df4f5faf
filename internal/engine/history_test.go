package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hailam/chessengine/internal/board"
)

func TestHistoryGravityBound(t *testing.T) {
	h := NewHistoryTable()
	m := board.NewMove(board.G1, board.F3, board.Knight, 0)

	for i := 0; i < 1000; i++ {
		h.Update(board.White, m, historyBonus(12))
		assert.LessOrEqual(t, h.Get(board.White, m), HistoryMax)
	}
	assert.Greater(t, h.Get(board.White, m), HistoryMax/2)

	for i := 0; i < 1000; i++ {
		h.Update(board.White, m, -HistoryMax*4)
		assert.GreaterOrEqual(t, h.Get(board.White, m), -HistoryMax)
	}
	assert.Equal(t, -HistoryMax, h.Get(board.White, m))
	assert.Equal(t, 0, h.Get(board.Black, m), "sides are tracked separately")

	h.Clear()
	assert.Equal(t, 0, h.Get(board.White, m))
}

func TestHistoryBonus(t *testing.T) {
	assert.Equal(t, 1, historyBonus(1))
	assert.Equal(t, 49, historyBonus(7))
	assert.Equal(t, HistoryMax, historyBonus(200))
}
