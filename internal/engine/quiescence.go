package engine

import "github.com/hailam/chessengine/internal/board"

// quiescence resolves captures and promotions until the position is quiet.
// In check every evasion is searched, so mate is still detected.
func (s *searcher) quiescence(alpha, beta, ply int) int {
	pos := s.pos
	s.pv.clear(ply)
	s.poll()
	if s.halted {
		return 0
	}
	s.seldepth = max(s.seldepth, ply)
	if ply >= MaxPly-1 {
		return Evaluate(pos)
	}
	inCheck := pos.InCheck()

	ttMove := board.NoMove
	if s.useTT {
		if e, ok := s.tt.Probe(pos.Hash); ok {
			ttMove = e.Move
			score := ScoreFromTT(int(e.Score), ply)
			if ttCutoff(e, 0, score, alpha, beta) {
				return score
			}
		}
	}

	origAlpha := alpha
	best, eval := -Infinity, noEval
	if !inCheck {
		eval = Evaluate(pos)
		if eval >= beta {
			return eval
		}
		best = eval
		alpha = max(alpha, eval)
	}

	var mp movePicker
	mode := board.CapturesAndPromotions
	if inCheck {
		mode = board.All
	}
	pos.GenerateMoves(mode, &mp.moves)
	if inCheck && mp.moves.Len() == 0 {
		return -MateScore + ply
	}
	mp.score(pos, ttMove, nil, s.hist)

	bestMove := board.NoMove
	for m := mp.Next(); m != board.NoMove; m = mp.Next() {
		if !inCheck && s.params.QuiescenceSEE && !SEEGE(pos, m, 0) {
			continue
		}
		u := pos.MakeMove(m)
		score := -s.quiescence(-beta, -alpha, ply+1)
		pos.UnmakeMove(m, u)
		if s.halted {
			return 0
		}
		if score > best {
			best = score
			if score > alpha {
				alpha = score
				bestMove = m
				s.pv.update(ply, m)
				if score >= beta {
					break
				}
			}
		}
	}

	if s.useTT {
		s.tt.Store(pos.Hash, 0, ScoreToTT(best, ply), max(eval, -Infinity), boundFor(best, origAlpha, beta), bestMove)
	}
	return best
}
