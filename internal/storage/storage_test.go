package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessengine/internal/board"
	"github.com/hailam/chessengine/internal/engine"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory(discard())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func TestOptionsRoundTrip(t *testing.T) {
	s := openTest(t)

	_, ok, err := s.LoadOptions()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveOptions(EngineOptions{HashMB: 64, MoveOverheadMS: 30}))
	opts, ok, err := s.LoadOptions()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 64, opts.HashMB)
	assert.Equal(t, 30, opts.MoveOverheadMS)
	assert.False(t, opts.UpdatedAt.IsZero())
}

func TestRecordsRoundTrip(t *testing.T) {
	s := openTest(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		rec := &AnalysisRecord{
			FEN:       board.StartFEN,
			BestMove:  "e2e4",
			Score:     10 * i,
			Depth:     i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.SaveRecord(rec))
		require.NotEqual(t, uuid.Nil, rec.ID)
		ids = append(ids, rec.ID)
	}

	got, err := s.GetRecord(ids[1])
	require.NoError(t, err)
	assert.Equal(t, 10, got.Score)
	assert.True(t, got.CreatedAt.Equal(base.Add(time.Minute)))

	all, err := s.ListRecords(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID, "newest first")
	assert.Equal(t, ids[0], all[2].ID)

	two, err := s.ListRecords(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestGetRecordNotFound(t *testing.T) {
	s := openTest(t)
	_, err := s.GetRecord(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecorderStoresSearch(t *testing.T) {
	s := openTest(t)
	rec := &Recorder{Store: s, Log: discard()}
	eng := engine.New(engine.Options{HashMB: 1, Observer: rec, Logger: discard()})

	res := eng.Search(context.Background(), board.NewPosition(), engine.Limits{Depth: 2})

	got, err := s.GetRecord(res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Move.String(), got.BestMove)
	assert.Equal(t, board.StartFEN, got.FEN)
	require.Len(t, got.PV, len(res.PV))
	assert.NotContains(t, got.PV[0], " ")
}

func TestOpenOnDisk(t *testing.T) {
	dir, err := DatabaseDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "db", filepath.Base(dir))

	s, err := Open(dir, discard())
	require.NoError(t, err)
	require.NoError(t, s.SaveOptions(EngineOptions{HashMB: 8}))
	require.NoError(t, s.Close())

	s, err = Open(dir, discard())
	require.NoError(t, err)
	defer s.Close()
	opts, ok, err := s.LoadOptions()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 8, opts.HashMB)
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	dataDir, err := GetDataDir()
	require.NoError(t, err)
	require.NotEmpty(t, dataDir)
	_, err = os.Stat(dataDir)
	assert.NoError(t, err)
}
