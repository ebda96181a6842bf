// Package random provides uniform and weighted sampling primitives shared
// by the gsom lattice and its callers.
//
// Two seeding modes are supported: repeatable (fixed seed, for
// reproducible training runs and tests) and randomized (seeded once from
// the OS entropy). Go has no thread-local storage, so each mode keeps a
// sync.Pool of generators instead of a per-thread global: a goroutine
// borrows a generator for the duration of one call and returns it
// immediately after, which gives the same "every goroutine draws from its
// own stream, cross-goroutine ordering is not guaranteed" property the
// reference implementation gets from thread-local RNGs.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"sync"

	xrand "golang.org/x/exp/rand"
)

// Random produces uniform and weighted random values. Implementations
// must be safe for concurrent use by multiple goroutines.
type Random interface {
	// UniformInt returns i such that min <= i <= max. If min == max, it
	// returns min without consulting the generator. Panics if min > max.
	UniformInt(min, max int) int
	// UniformReal returns r such that min <= r < max. If the bounds are
	// less than 1e-12 apart, it returns min without
	// consulting the generator. Panics if min >= max.
	UniformReal(min, max float64) float64
	// Coin flips a fair coin.
	Coin() bool
	// IsHit performs a Bernoulli trial with probability p, clamped to [0, 1].
	IsHit(p float64) bool
	// Weighted picks an index into weights using an exponential-race
	// sampler: for each index k it draws U_k ~ Uniform(0,1) independently
	// and returns the index minimizing -ln(U_k)/weights[k]. Ties resolve
	// to the first-seen minimum.
	Weighted(weights []float64) int
	// Rng lends a raw generator to the caller for a single call's worth of
	// draws. The returned generator must not be retained past the call.
	Rng() *xrand.Rand
}

// pooledRandom implements Random on top of a sync.Pool of *xrand.Rand,
// one pool per seeding mode.
type pooledRandom struct {
	pool *sync.Pool
}

// NewRepeatable returns a Random seeded deterministically (seed 0), so
// that two runs drawing the same sequence of operations from a
// single-worker pool produce identical output.
func NewRepeatable() Random {
	return &pooledRandom{pool: newPool(func() *xrand.Rand {
		return xrand.New(xrand.NewSource(0))
	})}
}

// NewRandomized returns a Random seeded from OS entropy once per
// generator; output is not reproducible across runs.
func NewRandomized() Random {
	return &pooledRandom{pool: newPool(func() *xrand.Rand {
		return xrand.New(xrand.NewSource(entropySeed()))
	})}
}

func newPool(newRng func() *xrand.Rand) *sync.Pool {
	return &sync.Pool{New: func() any { return newRng() }}
}

func entropySeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("random: cannot read OS entropy: " + err.Error())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (r *pooledRandom) borrow() *xrand.Rand {
	return r.pool.Get().(*xrand.Rand)
}

func (r *pooledRandom) release(rng *xrand.Rand) {
	r.pool.Put(rng)
}

func (r *pooledRandom) UniformInt(min, max int) int {
	if min == max {
		return min
	}
	if min > max {
		panic("random: UniformInt requires min <= max")
	}

	rng := r.borrow()
	defer r.release(rng)

	return min + rng.Intn(max-min+1)
}

func (r *pooledRandom) UniformReal(min, max float64) float64 {
	if math.Abs(min-max) < 1e-12 {
		return min
	}
	if min >= max {
		panic("random: UniformReal requires min < max")
	}

	rng := r.borrow()
	defer r.release(rng)

	return min + rng.Float64()*(max-min)
}

func (r *pooledRandom) Coin() bool {
	rng := r.borrow()
	defer r.release(rng)

	return rng.Intn(2) == 0
}

func (r *pooledRandom) IsHit(p float64) bool {
	p = clamp01(p)

	rng := r.borrow()
	defer r.release(rng)

	return rng.Float64() < p
}

func (r *pooledRandom) Weighted(weights []float64) int {
	rng := r.borrow()
	defer r.release(rng)

	best := -1
	bestScore := math.Inf(1)
	for i, w := range weights {
		u := rng.Float64()
		score := -math.Log(u) / w
		if score < bestScore {
			bestScore = score
			best = i
		}
	}

	return best
}

func (r *pooledRandom) Rng() *xrand.Rand {
	return r.borrow()
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// ArgMax returns the index of the largest value in values, breaking ties
// uniformly at random via reservoir sampling. Returns -1 for an empty
// input. Ported from the original `random_argmax` helper.
func ArgMax(values []float64, random Random) int {
	best := -1
	bestVal := math.Inf(-1)
	ties := 0

	for i, v := range values {
		switch {
		case v > bestVal:
			bestVal = v
			best = i
			ties = 0
		case v == bestVal:
			ties++
			if random.UniformInt(0, ties) == 0 {
				best = i
			}
		}
	}

	return best
}
