package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessengine/internal/board"
)

// Adjacent keys land in the same bucket.
const (
	keyA uint64 = 1 << 60
	keyB        = keyA + 1
	keyC        = keyA + 2
)

var testMove = board.NewMove(board.E2, board.E4, board.Pawn, board.FlagDoublePush)

func TestTTStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1)
	_, ok := tt.Probe(keyA)
	assert.False(t, ok)

	tt.Store(keyA, 5, 42, 17, BoundExact, testMove)
	e, ok := tt.Probe(keyA)
	require.True(t, ok)
	assert.Equal(t, keyA, e.Key)
	assert.Equal(t, int16(42), e.Score)
	assert.Equal(t, int16(17), e.Eval)
	assert.Equal(t, int8(5), e.Depth)
	assert.Equal(t, BoundExact, e.Bound)
	assert.Equal(t, testMove, e.Move)

	_, ok = tt.Probe(keyB)
	assert.False(t, ok, "a different key in the same bucket is a miss")
}

func TestTTKeepsDeeperEntry(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(keyA, 8, 100, 0, BoundLower, testMove)
	tt.Store(keyB, 2, -5, 0, BoundUpper, board.NoMove)

	a, ok := tt.Probe(keyA)
	require.True(t, ok)
	assert.Equal(t, int8(8), a.Depth)
	b, ok := tt.Probe(keyB)
	require.True(t, ok, "shallow entry goes to the always-replace slot")
	assert.Equal(t, int8(2), b.Depth)

	tt.Store(keyC, 1, 0, 0, BoundUpper, board.NoMove)
	_, ok = tt.Probe(keyB)
	assert.False(t, ok, "always-replace slot was overwritten")
	_, ok = tt.Probe(keyA)
	assert.True(t, ok)
}

func TestTTReplacesOlderGeneration(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(keyA, 8, 100, 0, BoundLower, testMove)
	tt.NewSearch()
	tt.Store(keyB, 1, 3, 0, BoundExact, board.NoMove)
	tt.Store(keyC, 0, 4, 0, BoundExact, board.NoMove)

	_, ok := tt.Probe(keyA)
	assert.False(t, ok, "stale deep entry must give way")
	_, ok = tt.Probe(keyB)
	assert.True(t, ok)
	_, ok = tt.Probe(keyC)
	assert.True(t, ok)
}

func TestTTKeepsMoveWhenStoringWithout(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(keyA, 3, 10, 0, BoundLower, testMove)
	tt.Store(keyA, 4, 12, 0, BoundUpper, board.NoMove)

	e, ok := tt.Probe(keyA)
	require.True(t, ok)
	assert.Equal(t, int8(4), e.Depth)
	assert.Equal(t, testMove, e.Move)
}

func TestTTClearAndHashFull(t *testing.T) {
	tt := NewTranspositionTable(1)
	assert.Equal(t, 0, tt.HashFull())
	// One key per bucket across the sampled prefix fills half its slots.
	step := ^uint64(0)/uint64(tt.Buckets()) + 1
	for i := uint64(0); i < hashFullSample; i++ {
		tt.Store(i*step, 1, 0, 0, BoundExact, board.NoMove)
	}
	assert.Equal(t, 500, tt.HashFull())

	tt.Clear()
	assert.Equal(t, 0, tt.HashFull())
	_, ok := tt.Probe(keyA)
	assert.False(t, ok)
}

func TestTTResize(t *testing.T) {
	tt := NewTranspositionTable(1)
	small := tt.Buckets()
	tt.Store(keyA, 1, 0, 0, BoundExact, board.NoMove)

	tt.Resize(4)
	assert.Greater(t, tt.Buckets(), 3*small)
	_, ok := tt.Probe(keyA)
	assert.False(t, ok)
}

func TestTTStats(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(keyA, 1, 0, 0, BoundExact, board.NoMove)
	tt.Probe(keyA)
	tt.Probe(keyB)
	probes, hits := tt.Stats()
	assert.Equal(t, uint64(2), probes)
	assert.Equal(t, uint64(1), hits)
}

func TestMateScoreTTRoundTrip(t *testing.T) {
	for _, score := range []int{0, 250, -250, MateScore - 5, -MateScore + 6} {
		assert.Equal(t, score, ScoreFromTT(ScoreToTT(score, 7), 7))
	}
	// A mate two plies below the storing node, probed deeper in the tree.
	stored := ScoreToTT(MateScore-5, 3)
	assert.Equal(t, MateScore-2, stored)
	assert.Equal(t, MateScore-9, ScoreFromTT(stored, 7))
}
