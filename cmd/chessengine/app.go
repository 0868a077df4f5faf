package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hailam/chessengine/internal/config"
	"github.com/hailam/chessengine/internal/engine"
	"github.com/hailam/chessengine/internal/metrics"
	"github.com/hailam/chessengine/internal/storage"
)

// rootFlags are the persistent flags. Set flags override the config file.
type rootFlags struct {
	configPath  string
	hashMB      int
	metricsAddr string
	dataDir     string
	logLevel    string
}

func (f *rootFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file")
	pf.IntVar(&f.hashMB, "hash", config.DefaultHashMB, "transposition table size in MB")
	pf.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.StringVar(&f.dataDir, "data-dir", "", "store options and analysis records under this directory")
	pf.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
}

func (f *rootFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	fl := cmd.Flags()
	if fl.Changed("hash") {
		cfg.Engine.HashMB = f.hashMB
	}
	if fl.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if fl.Changed("data-dir") {
		cfg.Storage.Enabled = true
		cfg.Storage.Dir = f.dataDir
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

// app holds what every command shares.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	store   *storage.Storage
	metrics *metrics.Metrics

	hashFromFlag bool
}

// newApp loads the config and opens storage when it is enabled or required.
func newApp(cmd *cobra.Command, f *rootFlags, needStore bool) (*app, error) {
	cfg, err := f.load(cmd)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, hashFromFlag: cmd.Flags().Changed("hash")}

	if cfg.Storage.Enabled || needStore {
		dir, err := storage.DatabaseDir(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		if a.store, err = storage.Open(dir, log); err != nil {
			return nil, err
		}
	}
	if cfg.Metrics.Addr != "" {
		a.metrics = metrics.New()
	}
	return a, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// engineOptions returns the engine settings, with options saved by an
// earlier session taking precedence over the config file.
func (a *app) engineOptions() (hashMB int, overhead time.Duration, err error) {
	hashMB = a.cfg.Engine.HashMB
	overhead = time.Duration(a.cfg.Engine.MoveOverheadMS) * time.Millisecond
	if a.store == nil {
		return hashMB, overhead, nil
	}
	saved, ok, err := a.store.LoadOptions()
	if err != nil {
		return 0, 0, fmt.Errorf("load options: %w", err)
	}
	if !ok {
		return hashMB, overhead, nil
	}
	if !a.hashFromFlag && saved.HashMB >= config.MinHashMB && saved.HashMB <= config.MaxHashMB {
		hashMB = saved.HashMB
	}
	if saved.MoveOverheadMS >= 0 && saved.MoveOverheadMS <= config.MaxMoveOverhead {
		overhead = time.Duration(saved.MoveOverheadMS) * time.Millisecond
	}
	a.log.Debug("options restored", slog.Int("hash_mb", hashMB), slog.Duration("move_overhead", overhead))
	return hashMB, overhead, nil
}

func (a *app) newEngine(hashMB int, overhead time.Duration) *engine.Engine {
	var observers engine.Observers
	if a.store != nil {
		observers = append(observers, &storage.Recorder{Store: a.store, Log: a.log})
	}
	if a.metrics != nil {
		observers = append(observers, a.metrics)
	}
	params := a.cfg.Search
	return engine.New(engine.Options{
		HashMB:       hashMB,
		MoveOverhead: overhead,
		Params:       &params,
		Logger:       a.log.With(slog.String("component", "engine")),
		Observer:     observers,
	})
}

// withApp runs fn with an app and closes it afterwards.
func withApp(cmd *cobra.Command, f *rootFlags, needStore bool, fn func(*app) error) error {
	a, err := newApp(cmd, f, needStore)
	if err != nil {
		return err
	}
	return errors.Join(fn(a), a.close())
}
