package engine

import (
	"slices"
	"sync/atomic"

	"github.com/hailam/chessengine/internal/board"
)

// Search constants
const (
	Infinity  = 32000
	MateScore = 31000
	MaxPly    = 128

	// MateBound is the smallest magnitude a mate score can have.
	MateBound = MateScore - MaxPly

	noEval = -2 * Infinity
)

const maxQuiets = 64

// node is the per-call search context passed down the tree.
type node struct {
	depth, alpha, beta, ply int
	pv                      bool
	inCheck                 bool
	afterNull               bool
	extensions              int // extensions spent on the path from the root
}

func (n node) child(depth, alpha, beta int, pv bool, ext int) node {
	return node{
		depth:      depth,
		alpha:      alpha,
		beta:       beta,
		ply:        n.ply + 1,
		pv:         pv,
		extensions: n.extensions + ext,
	}
}

type stackEntry struct {
	staticEval int
	killers    [2]board.Move
	quiets     [maxQuiets]board.Move
	quietCount int
}

// pvTable is the triangular principal variation table.
type pvTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

func (pv *pvTable) clear(ply int) { pv.length[ply] = ply }

// update makes m followed by the child's line the PV at ply.
func (pv *pvTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	next := ply + 1
	end := max(pv.length[next], next)
	copy(pv.moves[ply][next:end], pv.moves[next][next:end])
	pv.length[ply] = end
}

func (pv *pvTable) line() []board.Move {
	return slices.Clone(pv.moves[0][:pv.length[0]])
}

// searcher owns the state of one Search call. The tables it points to belong
// to the Engine and outlive it.
type searcher struct {
	pos    *board.Position
	tt     *TranspositionTable
	hist   *HistoryTable
	params *Params
	lmr    *lmrTable
	tm     *TimeManager
	stop   *atomic.Bool
	useTT  bool

	nodes     uint64
	nodeLimit uint64
	nextPoll  uint64
	seldepth  int
	armed     bool // clock and node limits apply
	halted    bool

	// Best root move of the running iteration, set once a root move has been
	// searched completely and raised alpha.
	rootBest  board.Move
	rootScore int

	stack [MaxPly + 2]stackEntry
	pv    pvTable
}

// poll counts a node and, every NodeCheckInterval nodes, looks at the stop
// flag and the limits.
func (s *searcher) poll() {
	s.nodes++
	if s.nodes < s.nextPoll {
		return
	}
	s.nextPoll = s.nodes + uint64(s.params.NodeCheckInterval)
	switch {
	case s.stop.Load():
		s.halted = true
	case s.armed && s.nodeLimit > 0 && s.nodes >= s.nodeLimit:
		s.halted = true
	case s.armed && s.tm.HardExpired():
		s.halted = true
	}
}

func ttCutoff(e TTEntry, depth, score, alpha, beta int) bool {
	if int(e.Depth) < depth {
		return false
	}
	switch e.Bound {
	case BoundExact:
		return true
	case BoundLower:
		return score >= beta
	case BoundUpper:
		return score <= alpha
	}
	return false
}

func boundFor(best, alpha, beta int) Bound {
	switch {
	case best >= beta:
		return BoundLower
	case best > alpha:
		return BoundExact
	}
	return BoundUpper
}

// aspiration runs one iteration, starting from a narrow window around the
// previous score once deep enough.
func (s *searcher) aspiration(depth, prev int) int {
	p := s.params
	delta := p.AspirationDelta
	alpha, beta := -Infinity, Infinity
	if p.Aspiration && depth >= p.AspirationMinDepth {
		alpha, beta = max(prev-delta, -Infinity), min(prev+delta, Infinity)
	}
	for {
		score := s.negamax(node{depth: depth, alpha: alpha, beta: beta, pv: true})
		if s.halted {
			return score
		}
		switch {
		case score <= alpha && alpha > -Infinity:
			alpha = max(alpha-delta, -Infinity)
		case score >= beta && beta < Infinity:
			beta = min(beta+delta, Infinity)
		default:
			return score
		}
		delta *= 2
		if delta > p.AspirationMaxDelta {
			alpha, beta = -Infinity, Infinity
		}
	}
}

// negamax is a fail-soft principal variation search.
func (s *searcher) negamax(n node) int {
	pos := s.pos
	s.pv.clear(n.ply)
	s.poll()
	if s.halted {
		return 0
	}
	root := n.ply == 0
	n.inCheck = pos.InCheck()
	s.seldepth = max(s.seldepth, n.ply)

	if !root {
		if pos.IsFiftyMoveDraw() {
			if n.inCheck && !pos.HasLegalMoves() {
				return -MateScore + n.ply
			}
			return 0
		}
		if pos.IsRepetition(n.ply) || pos.IsInsufficientMaterial() {
			return 0
		}
		if n.ply >= MaxPly-1 {
			return Evaluate(pos)
		}
		// Mate distance pruning
		n.alpha = max(n.alpha, -MateScore+n.ply)
		n.beta = min(n.beta, MateScore-n.ply-1)
		if n.alpha >= n.beta {
			return n.alpha
		}
	}

	if n.depth <= 0 {
		return s.quiescence(n.alpha, n.beta, n.ply)
	}
	if n.ply+2 < len(s.stack) {
		s.stack[n.ply+2].killers = [2]board.Move{}
	}

	ttMove := board.NoMove
	if s.useTT {
		if e, ok := s.tt.Probe(pos.Hash); ok {
			ttMove = e.Move
			score := ScoreFromTT(int(e.Score), n.ply)
			if !n.pv && ttCutoff(e, n.depth, score, n.alpha, n.beta) {
				return score
			}
		}
	}

	se := &s.stack[n.ply]
	se.quietCount = 0
	eval := noEval
	if !n.inCheck {
		eval = Evaluate(pos)
	}
	se.staticEval = eval
	improving := false
	if eval != noEval && n.ply >= 2 {
		prev := s.stack[n.ply-2].staticEval
		improving = prev != noEval && eval > prev
	}

	if !n.pv && !n.inCheck {
		if s.params.reverseFutility(n, eval, improving) {
			return eval
		}
		if s.params.nullMoveAllowed(n, eval) && pos.HasNonPawnMaterial() {
			r := s.params.nullMoveReduction(n.depth)
			u := pos.MakeNullMove()
			c := n.child(n.depth-1-r, -n.beta, -n.beta+1, false, 0)
			c.afterNull = true
			score := -s.negamax(c)
			pos.UnmakeNullMove(u)
			if s.halted {
				return 0
			}
			if score >= n.beta {
				if score >= MateBound {
					score = n.beta
				}
				return score
			}
		}
	}

	var mp movePicker
	pos.GenerateMoves(board.All, &mp.moves)
	if mp.moves.Len() == 0 {
		if n.inCheck {
			return -MateScore + n.ply
		}
		return 0
	}
	mp.score(pos, ttMove, &se.killers, s.hist)

	alpha := n.alpha
	best, bestMove := -Infinity, board.NoMove
	moveCount := 0
	for m := mp.Next(); m != board.NoMove; m = mp.Next() {
		quiet := m.IsQuiet()
		if !root && !n.pv && !n.inCheck && quiet && best > -MateBound &&
			s.params.lateMovePrune(n, moveCount, improving) {
			continue
		}
		moveCount++

		u := pos.MakeMove(m)
		givesCheck := pos.InCheck()
		ext := s.params.extend(n, givesCheck)
		newDepth := n.depth - 1 + ext

		var score int
		if moveCount == 1 {
			score = -s.negamax(n.child(newDepth, -n.beta, -alpha, n.pv, ext))
		} else {
			r := 0
			if !n.pv && !n.inCheck && !givesCheck && quiet && s.params.canReduce(n, moveCount) {
				r = s.lmr[min(n.depth, 63)][min(moveCount, 63)] + boolInt(!improving)
				r = clamp(r, 0, max(newDepth-1, 0))
			}
			score = -s.negamax(n.child(newDepth-r, -alpha-1, -alpha, false, ext))
			if r > 0 && score > alpha {
				score = -s.negamax(n.child(newDepth, -alpha-1, -alpha, false, ext))
			}
			if n.pv && score > alpha && score < n.beta {
				score = -s.negamax(n.child(newDepth, -n.beta, -alpha, true, ext))
			}
		}
		pos.UnmakeMove(m, u)
		if s.halted {
			return 0
		}

		if score > best {
			best = score
			if score > alpha {
				alpha = score
				bestMove = m
				s.pv.update(n.ply, m)
				if root {
					s.rootBest, s.rootScore = m, score
				}
				if score >= n.beta {
					if quiet {
						s.updateQuietStats(n, m)
					}
					break
				}
			}
		}
		if quiet && se.quietCount < maxQuiets {
			se.quiets[se.quietCount] = m
			se.quietCount++
		}
	}

	if s.useTT {
		s.tt.Store(pos.Hash, n.depth, ScoreToTT(best, n.ply), max(eval, -Infinity), boundFor(best, n.alpha, n.beta), bestMove)
	}
	return best
}

// updateQuietStats rewards the quiet move that caused a cutoff and penalizes
// the quiets tried before it.
func (s *searcher) updateQuietStats(n node, m board.Move) {
	us := s.pos.SideToMove
	se := &s.stack[n.ply]
	bonus := historyBonus(n.depth)
	s.hist.Update(us, m, bonus)
	for _, q := range se.quiets[:se.quietCount] {
		s.hist.Update(us, q, -bonus)
	}
	updateKillers(&se.killers, m)
}
