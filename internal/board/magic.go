package board

import "math/bits"

// Magic is the per-square lookup record for one slider type.
// The attack set for occupancy occ lives at table[Offset + ((occ&Mask)*Magic)>>Shift].
type Magic struct {
	Mask   Bitboard
	Magic  uint64
	Shift  uint8
	Offset uint32
}

func (m *Magic) index(occ Bitboard) uint32 {
	return m.Offset + uint32((uint64(occ&m.Mask)*m.Magic)>>m.Shift)
}

var (
	rookMagics   [64]Magic
	bishopMagics [64]Magic

	rookTable   [102400]Bitboard
	bishopTable [5248]Bitboard
)

type direction struct{ df, dr int }

var (
	rookDirections   = [4]direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = [4]direction{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
)

// slideAttacks walks each ray from sq until it leaves the board or hits a blocker.
// Blockers are included in the result.
func slideAttacks(sq Square, occ Bitboard, dirs [4]direction) Bitboard {
	var att Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for f >= 0 && f < 8 && r >= 0 && r < 8 {
			s := NewSquare(f, r)
			att |= SquareBB(s)
			if occ.Has(s) {
				break
			}
			f, r = f+d.df, r+d.dr
		}
	}
	return att
}

// relevantMask drops the last square of every ray: whatever sits there never
// changes the attack set.
func relevantMask(sq Square, dirs [4]direction) Bitboard {
	var mask Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for {
			nf, nr := f+d.df, r+d.dr
			if nf < 0 || nf > 7 || nr < 0 || nr > 7 || f < 0 || f > 7 || r < 0 || r > 7 {
				break
			}
			mask |= SquareBB(NewSquare(f, r))
			f, r = nf, nr
		}
	}
	return mask
}

// magicSeed fixes the search so every process builds identical tables.
const magicSeed = 0x2C1F4F3E8D0B7A95

func initMagics() {
	rng := newPRNG(magicSeed)
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		offset = fillMagic(&rookMagics[sq], rookTable[:], offset, sq, rookDirections, rng)
	}
	offset = 0
	for sq := A1; sq <= H8; sq++ {
		offset = fillMagic(&bishopMagics[sq], bishopTable[:], offset, sq, bishopDirections, rng)
	}
}

// fillMagic searches a multiplier for sq that maps every occupancy subset of
// the relevant mask into its slot without a destructive collision, writes the
// attack sets into table at offset, and returns the next free offset.
func fillMagic(m *Magic, table []Bitboard, offset uint32, sq Square, dirs [4]direction, rng *prng) uint32 {
	mask := relevantMask(sq, dirs)
	n := mask.Count()
	size := 1 << n

	occs := make([]Bitboard, 0, size)
	refs := make([]Bitboard, 0, size)
	var sub Bitboard
	for {
		occs = append(occs, sub)
		refs = append(refs, slideAttacks(sq, sub, dirs))
		sub = (sub - mask) & mask
		if sub == 0 {
			break
		}
	}

	slot := table[offset : offset+uint32(size)]
	epoch := make([]int, size)
	for attempt := 1; ; attempt++ {
		magic := rng.sparse()
		if bits.OnesCount64((uint64(mask)*magic)>>56) < 6 {
			continue
		}
		shift := uint8(64 - n)
		ok := true
		for i, occ := range occs {
			idx := (uint64(occ) * magic) >> shift
			if epoch[idx] != attempt {
				epoch[idx] = attempt
				slot[idx] = refs[i]
			} else if slot[idx] != refs[i] {
				ok = false
				break
			}
		}
		if ok {
			*m = Magic{Mask: mask, Magic: magic, Shift: shift, Offset: offset}
			return offset + uint32(size)
		}
	}
}

// BishopAttacks returns the bishop attack set from sq given the board occupancy.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return bishopTable[bishopMagics[sq].index(occ)]
}

// RookAttacks returns the rook attack set from sq given the board occupancy.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return rookTable[rookMagics[sq].index(occ)]
}

func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ) | RookAttacks(sq, occ)
}
