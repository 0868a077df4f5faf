package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessengine/internal/engine"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultHashMB, cfg.Engine.HashMB)
	assert.Equal(t, engine.DefaultParams(), cfg.Search)
	assert.False(t, cfg.Storage.Enabled)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
engine:
  hash_mb: 128
search:
  null_move: false
  rfp_margin: 150
log:
  level: debug
  format: json
metrics:
  addr: ":9100"
`))
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Engine.HashMB)
	assert.Equal(t, DefaultOverhead, cfg.Engine.MoveOverheadMS)
	assert.False(t, cfg.Search.NullMove)
	assert.Equal(t, 150, cfg.Search.RFPMargin)
	assert.True(t, cfg.Search.LMR, "unset switches keep their defaults")
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":       "engine:\n  hash: 1\n",
		"hash too small":    "engine:\n  hash_mb: 0\n",
		"negative overhead": "engine:\n  move_overhead_ms: -1\n",
		"bad level":         "log:\n  level: loud\n",
		"bad format":        "log:\n  format: xml\n",
		"bad params":        "search:\n  node_check_interval: 0\n",
		"not yaml":          "engine: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  enabled: true\n  dir: /tmp/x\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "/tmp/x", cfg.Storage.Dir)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
