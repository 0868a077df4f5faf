package engine

import (
	"github.com/hailam/chessengine/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore  = 10000000 // TT move gets highest priority
	CaptureBase  = 5000000  // Captures and promotions, offset by SEE
	KillerScore1 = 900000   // First killer move
	KillerScore2 = 800000   // Second killer move
)

// seeOrderLimit keeps SEE-scaled capture scores inside their tier.
const seeOrderLimit = 3000

// mvvLva breaks SEE ties: most valuable victim first, then least valuable
// attacker. Indexed by victim then attacker.
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11},
	/* N */ {25, 24, 24, 23, 22, 21},
	/* B */ {35, 34, 34, 33, 32, 31},
	/* R */ {45, 44, 44, 43, 42, 41},
	/* Q */ {55, 54, 54, 53, 52, 51},
	/* K */ {0, 0, 0, 0, 0, 0},
}

// movePicker hands out the moves of one node best first. Scores are assigned
// once; each Next call selects the best remaining move and swaps it forward.
type movePicker struct {
	moves  board.MoveList
	scores [board.MaxMoves]int
	next   int
}

// score fills the ordering scores of mp.moves. killers may be nil in
// quiescence.
func (mp *movePicker) score(pos *board.Position, ttMove board.Move, killers *[2]board.Move, hist *HistoryTable) {
	us := pos.SideToMove
	for i := 0; i < mp.moves.Len(); i++ {
		m := mp.moves.Get(i)
		switch {
		case m == ttMove:
			mp.scores[i] = TTMoveScore
		case !m.IsQuiet():
			mp.scores[i] = CaptureBase + clamp(SEE(pos, m), -seeOrderLimit, seeOrderLimit)*64 + captureTieBreak(pos, m)
		case killers != nil && m == killers[0]:
			mp.scores[i] = KillerScore1
		case killers != nil && m == killers[1]:
			mp.scores[i] = KillerScore2
		default:
			mp.scores[i] = hist.Get(us, m)
		}
	}
	mp.next = 0
}

func captureTieBreak(pos *board.Position, m board.Move) int {
	victim := board.Pawn
	if !m.IsEnPassant() {
		pc := pos.Board[m.To()]
		if pc == board.NoPiece {
			return 0
		}
		victim = pc.Type()
	}
	return mvvLva[victim][m.Piece()]
}

// Next returns the best move not yet handed out, or NoMove when exhausted.
func (mp *movePicker) Next() board.Move {
	n := mp.moves.Len()
	if mp.next >= n {
		return board.NoMove
	}
	best := mp.next
	for i := mp.next + 1; i < n; i++ {
		if mp.scores[i] > mp.scores[best] {
			best = i
		}
	}
	if best != mp.next {
		mp.moves.Swap(best, mp.next)
		mp.scores[best], mp.scores[mp.next] = mp.scores[mp.next], mp.scores[best]
	}
	m := mp.moves.Get(mp.next)
	mp.next++
	return m
}

// updateKillers records a quiet cutoff move as the first killer of a ply.
func updateKillers(killers *[2]board.Move, m board.Move) {
	if killers[0] != m {
		killers[1] = killers[0]
		killers[0] = m
	}
}
