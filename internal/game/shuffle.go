package game

import "math/rand/v2"

// Shuffle returns a permuted copy of s (Fisher-Yates, last index down to 1).
// A nil r uses the process-wide source.
func Shuffle[T any](r *rand.Rand, s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	for i := len(out) - 1; i > 0; i-- {
		j := intN(r, i+1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func intN(r *rand.Rand, n int) int {
	if r != nil {
		return r.IntN(n)
	}
	return rand.IntN(n)
}
