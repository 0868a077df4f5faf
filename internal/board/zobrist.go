package board

// prng is xorshift64*, used for the Zobrist keys and the magic search.
type prng struct{ s uint64 }

func newPRNG(seed uint64) *prng { return &prng{s: seed} }

func (p *prng) next() uint64 {
	p.s ^= p.s >> 12
	p.s ^= p.s << 25
	p.s ^= p.s >> 27
	return p.s * 0x2545F4914F6CDD1D
}

// sparse returns a value with roughly an eighth of its bits set, the usual
// shape of a working magic multiplier.
func (p *prng) sparse() uint64 {
	return p.next() & p.next() & p.next()
}

const zobristSeed = 0x98F107A2BEEF1234

var (
	zobristPiece     [12][64]uint64
	zobristCastling  [16]uint64
	zobristEnPassant [8]uint64
	zobristBlack     uint64
)

func initZobrist() {
	rng := newPRNG(zobristSeed)
	for pc := range zobristPiece {
		for sq := range zobristPiece[pc] {
			zobristPiece[pc][sq] = rng.next()
		}
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	for f := range zobristEnPassant {
		zobristEnPassant[f] = rng.next()
	}
	zobristBlack = rng.next()
}

// ComputeHash derives the key from scratch. Make and unmake keep Hash equal to it.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for sq := A1; sq <= H8; sq++ {
		if pc := p.Board[sq]; pc != NoPiece {
			h ^= zobristPiece[pc][sq]
		}
	}
	h ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
	}
	if p.SideToMove == Black {
		h ^= zobristBlack
	}
	return h
}
