package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestPerft(t *testing.T) {
	out, err := execute(t, "", "perft", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes: 8902\n")

	out, err = execute(t, "", "perft", "--divide", "--fen", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "e1g1: 1\n")
	assert.Contains(t, out, "Nodes: 48\n")

	_, err = execute(t, "", "perft", "x")
	assert.Error(t, err)
	_, err = execute(t, "", "perft", "--fen", "bad", "1")
	assert.Error(t, err)
}

func TestBench(t *testing.T) {
	out, err := execute(t, "", "bench", "--depth", "2")
	require.NoError(t, err)
	assert.Equal(t, len(benchPositions), strings.Count(out, "Position "))
	assert.Contains(t, out, "Nodes searched  : ")
}

func TestAnalyzeStoresRecord(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "analyze", "--data-dir", dir, "--depth", "3",
		"--fen", "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1")
	require.NoError(t, err)
	assert.Contains(t, out, "depth  1 ")
	assert.Contains(t, out, "bestmove d1d8 (Rd8#) score Mate in 1")

	idx := strings.LastIndex(out, " id ")
	require.Positive(t, idx)
	id := strings.TrimSpace(out[idx+len(" id "):])

	list, err := execute(t, "", "records", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, list, id)
	assert.Contains(t, list, "d1d8")

	one, err := execute(t, "", "records", "--data-dir", dir, id)
	require.NoError(t, err)
	assert.Contains(t, one, "pv       Rd8#")

	_, err = execute(t, "", "records", "--data-dir", dir, "not-a-uuid")
	assert.Error(t, err)
}

func TestUCIRestoresOptions(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "setoption name Hash value 2\nsetoption name Move Overhead value 40\nquit\n", "uci", "--data-dir", dir)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "uci\nquit\n", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "option name Hash type spin default 2 ")
	assert.Contains(t, out, "option name Move Overhead type spin default 40 ")

	// an explicit flag wins over the saved value
	out, err = execute(t, "uci\nquit\n", "--data-dir", dir, "--hash", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "option name Hash type spin default 8 ")
}

func TestUCIWithMetrics(t *testing.T) {
	out, err := execute(t, "isready\nquit\n", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, "readyok\n", out)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("engine:\n  hash_mb: 4\n"), 0o644))
	out, err := execute(t, "uci\nquit\n", "--config", good)
	require.NoError(t, err)
	assert.Contains(t, out, "option name Hash type spin default 4 ")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("engine:\n  hash: 4\n"), 0o644))
	_, err = execute(t, "uci\nquit\n", "--config", bad)
	assert.Error(t, err)

	_, err = execute(t, "", "--log-level", "loud")
	assert.Error(t, err)
}
