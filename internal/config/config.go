// Package config loads the engine's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hailam/chessengine/internal/engine"
)

// ErrInvalidConfig wraps every load and validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Limits of the UCI spin options.
const (
	MinHashMB        = 1
	MaxHashMB        = 65536
	MaxMoveOverhead  = 5000
	DefaultHashMB    = 16
	DefaultOverhead  = 10
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Search  engine.Params `yaml:"search"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
}

type EngineConfig struct {
	HashMB         int `yaml:"hash_mb"`
	MoveOverheadMS int `yaml:"move_overhead_ms"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig enables option persistence and analysis records. An empty
// Dir uses the platform data directory.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Default returns the complete default configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{HashMB: DefaultHashMB, MoveOverheadMS: DefaultOverhead},
		Search: engine.DefaultParams(),
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Engine.HashMB < MinHashMB || c.Engine.HashMB > MaxHashMB {
		return fmt.Errorf("%w: engine.hash_mb %d outside [%d, %d]", ErrInvalidConfig, c.Engine.HashMB, MinHashMB, MaxHashMB)
	}
	if c.Engine.MoveOverheadMS < 0 || c.Engine.MoveOverheadMS > MaxMoveOverhead {
		return fmt.Errorf("%w: engine.move_overhead_ms %d outside [0, %d]", ErrInvalidConfig, c.Engine.MoveOverheadMS, MaxMoveOverhead)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("%w: search: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return lvl, fmt.Errorf("%w: log.level %q", ErrInvalidConfig, l.Level)
	}
	return lvl, nil
}

// NewLogger builds the root logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	lvl, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
