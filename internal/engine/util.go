package engine

import "golang.org/x/exp/constraints"

func clamp[T constraints.Integer](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
