package ingest

import "math/rand"

// Sample draws n elements uniformly without replacement using the modern
// Fisher-Yates shuffle, stopping after the first n swaps. The input is not
// modified. A nil rng uses the shared package source.
func Sample[T any](in []T, n int, rng *rand.Rand) []T {
	if n < 0 {
		n = 0
	}
	if n > len(in) {
		n = len(in)
	}
	out := append([]T(nil), in...)
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := 0; i < n; i++ {
		j := i + intn(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}
	return out[:n]
}
