package randutil

import (
	"crypto/sha256"
	"encoding/binary"
	rand "math/rand/v2"
)

// FromString returns a *rand.Rand seeded deterministically from an arbitrary
// string. The helper centralises how we derive the two 64-bit seeds required
// by rand/v2 so that all call sites get reproducible sequences.
func FromString(seed string) *rand.Rand {
	sum := sha256.Sum256([]byte(seed))
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}

// Perm returns a deterministic permutation of [1, n] for the given seed.
func Perm(seed string, n int) []int {
	r := FromString(seed)
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	r.Shuffle(n, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
