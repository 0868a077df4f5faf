package engine

import (
	"math/bits"
	"unsafe"

	"github.com/hailam/chessengine/internal/board"
)

// Bound tells how a stored score relates to the true value of the position.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundUpper       // failed low, true score <= stored
	BoundLower       // failed high, true score >= stored
	BoundExact
)

func (b Bound) String() string {
	switch b {
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	case BoundExact:
		return "exact"
	}
	return "none"
}

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key        uint64     // Full 64-bit Zobrist hash for verification
	Move       board.Move // Best move found, NoMove if none
	Score      int16      // Node-relative score, see ScoreToTT
	Eval       int16      // Static evaluation
	Depth      int8       // Remaining depth the score was searched to
	Bound      Bound
	Generation uint8
}

// ttBucket holds a depth-preferred slot and an always-replace slot.
type ttBucket [2]TTEntry

const hashFullSample = 1000

// TranspositionTable is a hash table for storing search results across
// iterations and searches of one game. It is not safe for concurrent use.
type TranspositionTable struct {
	buckets    []ttBucket
	generation uint8

	probes uint64
	hits   uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table to sizeMB megabytes, dropping its contents.
func (tt *TranspositionTable) Resize(sizeMB int) {
	n := uint64(max(sizeMB, 1)) << 20 / uint64(unsafe.Sizeof(ttBucket{}))
	tt.buckets = make([]ttBucket, max(n, 1))
	tt.generation = 0
	tt.probes, tt.hits = 0, 0
}

// bucket maps hash onto the table with the high half of a 128-bit product,
// which spreads keys evenly over any bucket count.
func (tt *TranspositionTable) bucket(hash uint64) *ttBucket {
	hi, _ := bits.Mul64(hash, uint64(len(tt.buckets)))
	return &tt.buckets[hi]
}

// Probe looks up a position in the transposition table. Only an entry whose
// full key matches is returned.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	b := tt.bucket(hash)
	for i := range b {
		if e := b[i]; e.Key == hash && e.Bound != BoundNone {
			tt.hits++
			return e, true
		}
	}
	return TTEntry{}, false
}

// Store saves a search result. Slot 0 keeps the deepest entry of the current
// generation; anything it refuses goes to slot 1.
func (tt *TranspositionTable) Store(hash uint64, depth, score, eval int, bound Bound, move board.Move) {
	b := tt.bucket(hash)
	slot := &b[0]
	old := *slot
	replace := old.Bound == BoundNone ||
		old.Generation != tt.generation ||
		depth >= int(old.Depth) ||
		(old.Key == hash && bound == BoundExact && old.Bound != BoundExact)
	if !replace {
		slot = &b[1]
		old = *slot
	}
	if move == board.NoMove && old.Key == hash {
		move = old.Move
	}
	*slot = TTEntry{
		Key:        hash,
		Move:       move,
		Score:      int16(clamp(score, -Infinity, Infinity)),
		Eval:       int16(clamp(eval, -Infinity, Infinity)),
		Depth:      int8(clamp(depth, -1, MaxPly-1)),
		Bound:      bound,
		Generation: tt.generation,
	}
}

// NewSearch increments the generation for a new search.
func (tt *TranspositionTable) NewSearch() {
	tt.generation++
	tt.probes, tt.hits = 0, 0
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	clear(tt.buckets)
	tt.generation = 0
	tt.probes, tt.hits = 0, 0
}

// HashFull returns the permille of sampled slots written this generation.
func (tt *TranspositionTable) HashFull() int {
	n := min(len(tt.buckets), hashFullSample)
	used := 0
	for i := 0; i < n; i++ {
		for _, e := range tt.buckets[i] {
			if e.Bound != BoundNone && e.Generation == tt.generation {
				used++
			}
		}
	}
	return used * 1000 / (2 * n)
}

// Stats returns the probes and hits counted since the last NewSearch.
func (tt *TranspositionTable) Stats() (probes, hits uint64) {
	return tt.probes, tt.hits
}

// Buckets returns the number of buckets.
func (tt *TranspositionTable) Buckets() int {
	return len(tt.buckets)
}

// ScoreToTT converts a root-relative mate score into distance from the
// storing node.
func ScoreToTT(score, ply int) int {
	switch {
	case score >= MateBound:
		return score + ply
	case score <= -MateBound:
		return score - ply
	}
	return score
}

// ScoreFromTT undoes ScoreToTT at the probing node.
func ScoreFromTT(score, ply int) int {
	switch {
	case score >= MateBound:
		return score - ply
	case score <= -MateBound:
		return score + ply
	}
	return score
}
