package simulator

import (
	"math/rand"
	"time"
)

// RandomSource supplies every random draw the simulator makes.
// *rand.Rand satisfies it; tests inject scripted sequences.
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// NewRandomSource returns a source seeded with seed, or with the current
// time when seed is zero.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// uniformInt draws an integer in [lo, hi] inclusive.
func uniformInt(rng RandomSource, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
