// Package metrics exports search statistics in the Prometheus text format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hailam/chessengine/internal/board"
	"github.com/hailam/chessengine/internal/engine"
)

const namespace = "chessengine"

const shutdownTimeout = 5 * time.Second

// Metrics collects one sample per finished search. It implements
// engine.Observer.
type Metrics struct {
	registry *prometheus.Registry

	searches  prometheus.Counter
	nodes     prometheus.Counter
	ttProbes  prometheus.Counter
	ttHits    prometheus.Counter
	noMove    prometheus.Counter
	depth     prometheus.Histogram
	duration  prometheus.Histogram
	nps       prometheus.Gauge
	lastScore prometheus.Gauge
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "total",
			Help:      "Number of finished searches.",
		}),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "nodes_total",
			Help:      "Nodes visited over all searches.",
		}),
		ttProbes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tt",
			Name:      "probes_total",
			Help:      "Transposition table probes.",
		}),
		ttHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tt",
			Name:      "hits_total",
			Help:      "Transposition table probes that found the key.",
		}),
		noMove: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "terminal_total",
			Help:      "Searches started on a position without legal moves.",
		}),
		depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "depth",
			Help:      "Deepest completed iteration per search.",
			Buckets:   prometheus.LinearBuckets(1, 2, 16),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall time per search.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
		nps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "nodes_per_second",
			Help:      "Speed of the last search.",
		}),
		lastScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "last_score_cp",
			Help:      "Score of the last search in centipawns from the side to move.",
		}),
	}
	m.registry.MustRegister(
		m.searches, m.nodes, m.ttProbes, m.ttHits, m.noMove,
		m.depth, m.duration, m.nps, m.lastScore,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry so callers can add their own collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSearch records a finished search.
func (m *Metrics) ObserveSearch(res engine.Result) {
	m.searches.Inc()
	m.nodes.Add(float64(res.Nodes))
	m.ttProbes.Add(float64(res.TTProbes))
	m.ttHits.Add(float64(res.TTHits))
	if res.Move == board.NoMove {
		m.noMove.Inc()
		return
	}
	m.depth.Observe(float64(res.Depth))
	m.duration.Observe(res.Time.Seconds())
	if res.Time > 0 {
		m.nps.Set(float64(res.Nodes) / res.Time.Seconds())
	}
	m.lastScore.Set(float64(res.Score))
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	return m.serve(ctx, ln, log)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown", slog.Any("error", err))
		}
	})
	defer stop()

	log.Info("metrics listening", slog.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics serve: %w", err)
	}
	return nil
}
