package engine

import (
	"time"

	"github.com/hailam/chessengine/internal/board"
)

const (
	minThinkTime     = 10 * time.Millisecond
	hardFactor       = 5
	maxFractionPct   = 80
	defaultMovesToGo = 40
)

// TimeManager handles time allocation for searches. The soft deadline is
// checked between iterations; the hard deadline aborts the search.
type TimeManager struct {
	// Overhead is subtracted from every budget to cover I/O latency.
	Overhead time.Duration

	startTime time.Time
	baseSoft  time.Duration
	soft      time.Duration
	hard      time.Duration
	limited   bool
}

// Init initializes the time manager for a new search.
// ply is the current game ply (half-move number).
func (tm *TimeManager) Init(limits Limits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.limited = false
	tm.soft, tm.hard, tm.baseSoft = 0, 0, 0

	switch {
	case limits.MoveTime > 0:
		budget := max(limits.MoveTime-tm.Overhead, time.Millisecond)
		tm.set(budget, budget)
	case limits.Infinite || limits.Time[us] <= 0:
		// depth, node or manual stop only
	default:
		remaining := max(limits.Time[us]-tm.Overhead, time.Millisecond)
		mtg := limits.MovesToGo
		if mtg <= 0 {
			// Sudden death: expect fewer moves as the game goes on
			mtg = clamp(defaultMovesToGo-ply/4, 10, defaultMovesToGo)
		}
		soft := remaining/time.Duration(mtg) + limits.Inc[us]*3/4
		hard := min(soft*hardFactor, remaining*maxFractionPct/100)
		hard = max(hard, min(minThinkTime, remaining))
		soft = clamp(soft, min(minThinkTime, hard), hard)
		tm.set(soft, hard)
	}
}

func (tm *TimeManager) set(soft, hard time.Duration) {
	tm.limited = true
	tm.baseSoft = soft
	tm.soft = soft
	tm.hard = hard
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// Limited reports whether the search runs against a clock at all.
func (tm *TimeManager) Limited() bool { return tm.limited }

func (tm *TimeManager) Soft() time.Duration { return tm.soft }
func (tm *TimeManager) Hard() time.Duration { return tm.hard }

// HardExpired reports whether the search must stop now.
func (tm *TimeManager) HardExpired() bool {
	return tm.limited && tm.Elapsed() >= tm.hard
}

// SoftExpired reports whether a new iteration should not be started.
func (tm *TimeManager) SoftExpired() bool {
	return tm.limited && tm.Elapsed() >= tm.soft
}

// AdjustForStability scales the soft deadline by how many consecutive
// iterations kept the same best move. It never exceeds the hard deadline.
func (tm *TimeManager) AdjustForStability(stability int) {
	if !tm.limited || tm.baseSoft == tm.hard {
		return
	}
	pct := 120
	switch {
	case stability >= 6:
		pct = 50
	case stability >= 4:
		pct = 70
	case stability >= 2:
		pct = 90
	}
	tm.soft = min(tm.baseSoft*time.Duration(pct)/100, tm.hard)
}
