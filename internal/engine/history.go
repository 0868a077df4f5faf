package engine

import "github.com/hailam/chessengine/internal/board"

// HistoryMax bounds every history score in both directions.
const HistoryMax = 16384

// HistoryTable scores quiet moves by side, origin and destination. Scores
// drift toward zero as they grow, so old cutoffs fade.
type HistoryTable struct {
	table [2][64][64]int32
}

// NewHistoryTable returns an empty table.
func NewHistoryTable() *HistoryTable {
	return &HistoryTable{}
}

func (h *HistoryTable) Get(c board.Color, m board.Move) int {
	return int(h.table[c][m.From()][m.To()])
}

// Update applies bonus with gravity: h += b - h*|b|/HistoryMax. The result
// stays within [-HistoryMax, HistoryMax].
func (h *HistoryTable) Update(c board.Color, m board.Move, bonus int) {
	bonus = clamp(bonus, -HistoryMax, HistoryMax)
	e := &h.table[c][m.From()][m.To()]
	v := int(*e)
	v += bonus - v*abs(bonus)/HistoryMax
	*e = int32(v)
}

// Clear resets the table for a new game.
func (h *HistoryTable) Clear() {
	clear(h.table[:])
}

// historyBonus is the reward for a quiet cutoff at depth.
func historyBonus(depth int) int {
	return min(depth*depth, HistoryMax)
}
