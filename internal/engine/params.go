package engine

import (
	"errors"
	"fmt"
	"math"
)

// Params holds every search switch and tuning constant. The zero value
// disables all pruning; DefaultParams is what the engine plays with.
type Params struct {
	Aspiration         bool `yaml:"aspiration"`
	AspirationMinDepth int  `yaml:"aspiration_min_depth"`
	AspirationDelta    int  `yaml:"aspiration_delta"`
	AspirationMaxDelta int  `yaml:"aspiration_max_delta"`

	// Reverse futility pruning: at depth < RFPDepth return eval when
	// eval - RFPMargin*(depth-improving) >= beta.
	RFP       bool `yaml:"rfp"`
	RFPDepth  int  `yaml:"rfp_depth"`
	RFPMargin int  `yaml:"rfp_margin"`

	// Null move pruning with reduction NullMoveBase + depth/NullMoveDivisor.
	NullMove         bool `yaml:"null_move"`
	NullMoveMinDepth int  `yaml:"null_move_min_depth"`
	NullMoveBase     int  `yaml:"null_move_base"`
	NullMoveDivisor  int  `yaml:"null_move_divisor"`

	// Late move pruning skips quiets once moveCount >= LMPBase*depth/(2-improving).
	LMP      bool `yaml:"lmp"`
	LMPDepth int  `yaml:"lmp_depth"`
	LMPBase  int  `yaml:"lmp_base"`

	// Late move reductions: LMRBase + ln(depth)*ln(moveCount)/LMRDivisor.
	LMR         bool    `yaml:"lmr"`
	LMRMinDepth int     `yaml:"lmr_min_depth"`
	LMRMinMoves int     `yaml:"lmr_min_moves"`
	LMRBase     float64 `yaml:"lmr_base"`
	LMRDivisor  float64 `yaml:"lmr_divisor"`

	CheckExtension bool `yaml:"check_extension"`
	MaxExtensions  int  `yaml:"max_extensions"`

	// QuiescenceSEE skips losing captures in quiescence.
	QuiescenceSEE bool `yaml:"quiescence_see"`

	NodeCheckInterval int `yaml:"node_check_interval"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Aspiration:         true,
		AspirationMinDepth: 4,
		AspirationDelta:    25,
		AspirationMaxDelta: 800,

		RFP:       true,
		RFPDepth:  5,
		RFPMargin: 200,

		NullMove:         true,
		NullMoveMinDepth: 3,
		NullMoveBase:     3,
		NullMoveDivisor:  3,

		LMP:      true,
		LMPDepth: 5,
		LMPBase:  8,

		LMR:         true,
		LMRMinDepth: 3,
		LMRMinMoves: 3,
		LMRBase:     0.75,
		LMRDivisor:  2.25,

		CheckExtension: true,
		MaxExtensions:  16,

		QuiescenceSEE: true,

		NodeCheckInterval: 2048,
	}
}

// Unpruned returns params with every pruning, reduction and extension
// switched off, leaving a plain alpha-beta search.
func Unpruned() Params {
	p := DefaultParams()
	p.Aspiration = false
	p.RFP = false
	p.NullMove = false
	p.LMP = false
	p.LMR = false
	p.CheckExtension = false
	p.QuiescenceSEE = false
	return p
}

var errParams = errors.New("invalid search params")

// Validate checks the constants the search divides by or loops on.
func (p Params) Validate() error {
	switch {
	case p.AspirationDelta <= 0 || p.AspirationMaxDelta < p.AspirationDelta:
		return fmt.Errorf("%w: aspiration delta %d, max %d", errParams, p.AspirationDelta, p.AspirationMaxDelta)
	case p.NullMoveDivisor <= 0:
		return fmt.Errorf("%w: null_move_divisor %d", errParams, p.NullMoveDivisor)
	case p.LMRDivisor <= 0:
		return fmt.Errorf("%w: lmr_divisor %g", errParams, p.LMRDivisor)
	case p.MaxExtensions < 0 || p.MaxExtensions > MaxPly/2:
		return fmt.Errorf("%w: max_extensions %d", errParams, p.MaxExtensions)
	case p.NodeCheckInterval <= 0:
		return fmt.Errorf("%w: node_check_interval %d", errParams, p.NodeCheckInterval)
	}
	return nil
}

// lmrTable precomputes reductions indexed by depth and move number.
type lmrTable [64][64]int

func (p Params) reductions() *lmrTable {
	var t lmrTable
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			t[d][m] = int(p.LMRBase + math.Log(float64(d))*math.Log(float64(m))/p.LMRDivisor)
		}
	}
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (p Params) reverseFutility(n node, eval int, improving bool) bool {
	return p.RFP && n.depth < p.RFPDepth &&
		eval-p.RFPMargin*(n.depth-boolInt(improving)) >= n.beta &&
		abs(n.beta) < MateBound
}

func (p Params) nullMoveAllowed(n node, eval int) bool {
	return p.NullMove && n.depth >= p.NullMoveMinDepth && !n.afterNull &&
		eval >= n.beta && n.beta > -MateBound
}

func (p Params) nullMoveReduction(depth int) int {
	return p.NullMoveBase + depth/p.NullMoveDivisor
}

func (p Params) lateMovePrune(n node, moveCount int, improving bool) bool {
	return p.LMP && n.depth <= p.LMPDepth &&
		moveCount >= p.LMPBase*n.depth/(2-boolInt(improving))
}

func (p Params) canReduce(n node, moveCount int) bool {
	return p.LMR && n.depth >= p.LMRMinDepth && moveCount > p.LMRMinMoves
}

func (p Params) extend(n node, givesCheck bool) int {
	if p.CheckExtension && givesCheck && n.extensions < p.MaxExtensions {
		return 1
	}
	return 0
}
