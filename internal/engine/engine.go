package engine

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hailam/chessengine/internal/board"
)

var tracer = otel.Tracer("chessengine.engine")

// Limits specifies constraints on the search. Zero fields are unlimited.
type Limits struct {
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	MoveTime  time.Duration    // fixed time per move (overrides the clock)
	Time      [2]time.Duration // remaining time per color
	Inc       [2]time.Duration // increment per color
	MovesToGo int              // moves until next time control (0 = sudden death)
	Infinite  bool             // search until stopped
}

// Info describes one completed iteration.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	NPS      uint64
	HashFull int // Permille of hash table used
	PV       []board.Move
}

// Result is the outcome of a search.
type Result struct {
	ID       uuid.UUID
	FEN      string
	Move     board.Move // NoMove only when the position has no legal move
	Ponder   board.Move
	Score    int
	Depth    int
	SelDepth int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	TTProbes uint64
	TTHits   uint64
}

// Observer is told about every finished search.
type Observer interface {
	ObserveSearch(Result)
}

// Observers fans a result out to several observers in order.
type Observers []Observer

func (o Observers) ObserveSearch(res Result) {
	for _, obs := range o {
		obs.ObserveSearch(res)
	}
}

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	HashMB       int
	MoveOverhead time.Duration
	Params       *Params
	Logger       *slog.Logger
	Observer     Observer

	// DisableTT searches without reading or writing the transposition table.
	DisableTT bool
}

// Engine owns the tables that persist between searches of one game and runs
// one search at a time.
type Engine struct {
	mu       sync.Mutex
	tt       *TranspositionTable
	hist     *HistoryTable
	params   Params
	lmr      *lmrTable
	log      *slog.Logger
	observer Observer
	useTT    bool
	overhead time.Duration
	stop     atomic.Bool

	// OnInfo, when set, receives every completed iteration.
	OnInfo func(Info)
}

const defaultHashMB = 16

// New creates an engine with fresh tables.
func New(opts Options) *Engine {
	return NewWithTables(opts, NewTranspositionTable(cmp.Or(opts.HashMB, defaultHashMB)), NewHistoryTable())
}

// NewWithTables creates an engine around existing tables.
func NewWithTables(opts Options, tt *TranspositionTable, hist *HistoryTable) *Engine {
	params := DefaultParams()
	if opts.Params != nil {
		params = *opts.Params
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		tt:       tt,
		hist:     hist,
		params:   params,
		lmr:      params.reductions(),
		log:      log,
		observer: opts.Observer,
		useTT:    !opts.DisableTT,
		overhead: opts.MoveOverhead,
	}
}

// Stop asks a running search to return as soon as possible.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// NewGame forgets everything learned in the previous game.
func (e *Engine) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	e.hist.Clear()
}

// Resize reallocates the transposition table.
func (e *Engine) Resize(mb int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Resize(mb)
}

// ClearHash empties the transposition table but keeps history.
func (e *Engine) ClearHash() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
}

func (e *Engine) SetMoveOverhead(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overhead = d
}

func (e *Engine) TT() *TranspositionTable { return e.tt }

func (e *Engine) History() *HistoryTable { return e.hist }

func (e *Engine) Params() Params { return e.params }

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// Search runs iterative deepening on a copy of pos until a limit is reached,
// Stop is called or ctx is done. The result always carries a legal move when
// one exists.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits Limits) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stop.Store(false)
	unregister := context.AfterFunc(ctx, e.Stop)
	defer unregister()
	if ctx.Err() != nil {
		e.stop.Store(true)
	}

	res := Result{ID: uuid.New(), FEN: pos.ToFEN()}
	_, span := tracer.Start(ctx, "engine.Search",
		trace.WithAttributes(
			attribute.String("search.id", res.ID.String()),
			attribute.String("search.fen", res.FEN),
			attribute.Int("search.depth_limit", limits.Depth),
		),
	)
	defer span.End()
	log := e.log.With(slog.String("search", res.ID.String()))

	e.tt.NewSearch()
	tm := &TimeManager{Overhead: e.overhead}
	tm.Init(limits, pos.SideToMove, pos.GamePly())

	s := &searcher{
		pos:       pos.Copy(),
		tt:        e.tt,
		hist:      e.hist,
		params:    &e.params,
		lmr:       e.lmr,
		tm:        tm,
		stop:      &e.stop,
		useTT:     e.useTT,
		nodeLimit: limits.Nodes,
	}
	s.nextPoll = uint64(e.params.NodeCheckInterval)

	var root movePicker
	s.pos.GenerateMoves(board.All, &root.moves)
	if root.moves.Len() == 0 {
		if pos.InCheck() {
			res.Score = -MateScore
		}
		e.finish(span, log, &res, tm, s)
		return res
	}
	ttMove := board.NoMove
	if e.useTT {
		if entry, ok := e.tt.Probe(pos.Hash); ok {
			ttMove = entry.Move
		}
	}
	root.score(s.pos, ttMove, nil, e.hist)
	res.Move = root.Next()
	res.PV = []board.Move{res.Move}

	maxDepth := MaxPly - 1
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, maxDepth)
	}

	prevScore, stability := 0, 0
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && tm.SoftExpired() {
			break
		}
		s.armed = depth > 1
		s.rootBest = board.NoMove
		s.seldepth = 0

		score := s.aspiration(depth, prevScore)
		if s.halted {
			if s.rootBest != board.NoMove {
				if s.rootBest != res.Move {
					res.PV = []board.Move{s.rootBest}
				}
				res.Move, res.Score = s.rootBest, s.rootScore
			}
			break
		}

		pv := s.pv.line()
		if len(pv) == 0 {
			pv = []board.Move{cmp.Or(s.rootBest, res.Move)}
		}
		if pv[0] == res.Move {
			stability++
		} else {
			stability = 0
		}
		res.Move, res.Score, res.PV = pv[0], score, pv
		res.Depth, res.SelDepth = depth, s.seldepth
		prevScore = score
		e.report(log, tm, s, res)

		if root.moves.Len() == 1 && tm.Limited() {
			break
		}
		if !limits.Infinite && abs(score) >= MateBound && MateScore-abs(score) <= depth {
			break
		}
		tm.AdjustForStability(stability)
	}

	if len(res.PV) > 1 {
		res.Ponder = res.PV[1]
	}
	e.finish(span, log, &res, tm, s)
	return res
}

func (e *Engine) report(log *slog.Logger, tm *TimeManager, s *searcher, res Result) {
	elapsed := tm.Elapsed()
	info := Info{
		Depth:    res.Depth,
		SelDepth: res.SelDepth,
		Score:    res.Score,
		Nodes:    s.nodes,
		Time:     elapsed,
		NPS:      nps(s.nodes, elapsed),
		HashFull: e.tt.HashFull(),
		PV:       res.PV,
	}
	log.Debug("iteration",
		slog.Int("depth", info.Depth),
		slog.String("score", ScoreToString(info.Score)),
		slog.Uint64("nodes", info.Nodes),
		slog.String("pv", fmt.Sprint(info.PV)),
	)
	if e.OnInfo != nil {
		e.OnInfo(info)
	}
}

func (e *Engine) finish(span trace.Span, log *slog.Logger, res *Result, tm *TimeManager, s *searcher) {
	res.Nodes = s.nodes
	res.Time = tm.Elapsed()
	res.TTProbes, res.TTHits = e.tt.Stats()
	span.SetAttributes(
		attribute.Int("search.depth", res.Depth),
		attribute.Int64("search.nodes", int64(res.Nodes)),
		attribute.Int("search.score", res.Score),
		attribute.String("search.move", res.Move.String()),
	)
	log.Info("search finished",
		slog.String("move", res.Move.String()),
		slog.Int("depth", res.Depth),
		slog.String("score", ScoreToString(res.Score)),
		slog.Uint64("nodes", res.Nodes),
		slog.Duration("time", res.Time),
	)
	if e.observer != nil {
		e.observer.ObserveSearch(*res)
	}
}

func nps(nodes uint64, elapsed time.Duration) uint64 {
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(nodes) / elapsed.Seconds())
}

// MateIn converts a mate score into full moves to mate: positive when the
// side to move mates, negative or zero when it is mated.
func MateIn(score int) (int, bool) {
	switch {
	case score >= MateBound:
		return (MateScore - score + 1) / 2, true
	case score <= -MateBound:
		return -(MateScore + score) / 2, true
	}
	return 0, false
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if m, ok := MateIn(score); ok {
		if m > 0 {
			return fmt.Sprintf("Mate in %d", m)
		}
		return fmt.Sprintf("Mated in %d", -m)
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return fmt.Sprintf("%s%d.%02d", sign, score/100, score%100)
}
