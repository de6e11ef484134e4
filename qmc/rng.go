package qmc

import (
	"fmt"
	"math/rand"
)

// Known generator names accepted by RunParameters.RandomName. The engine
// currently ships a single algorithm; the name is validated so that a typo
// in a config file fails loudly instead of silently falling back.
const (
	RandomDefault  = ""
	RandomLagged   = "lagged_fibonacci" // historical alias, same engine
	RandomMersenne = "mt19937"          // historical alias, same engine
)

// DefaultSeed derives the worker-distinct default seed from a worker rank.
// Two workers must never share a seed or their chains are correlated.
func DefaultSeed(rank int) int64 {
	return 34788 + 928374*int64(rank)
}

// RandomSource is the per-worker random number generator. It is a private,
// sequential resource: every draw is ordered, and a fixed seed reproduces
// the exact draw sequence. NOT safe for concurrent use; each worker owns one.
type RandomSource struct {
	seed int64
	rng  *rand.Rand
}

// NewRandomSource creates a RandomSource for the named algorithm.
// An unknown name is a configuration error.
func NewRandomSource(name string, seed int64) (*RandomSource, error) {
	switch name {
	case RandomDefault, RandomLagged, RandomMersenne:
	default:
		return nil, &ConfigurationError{Field: "random_name", Msg: fmt.Sprintf("unknown generator %q", name)}
	}
	return &RandomSource{seed: seed, rng: rand.New(rand.NewSource(seed))}, nil
}

// Seed returns the seed this source was created with.
func (r *RandomSource) Seed() int64 { return r.seed }

// Uniform draws a uniform real in [0, 1).
func (r *RandomSource) Uniform() float64 { return r.rng.Float64() }

// Time draws a uniform imaginary time in [0, beta).
func (r *RandomSource) Time(beta float64) float64 { return r.rng.Float64() * beta }

// Pick draws a uniform integer in [0, n). n must be positive.
func (r *RandomSource) Pick(n int) int { return r.rng.Intn(n) }
