// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sampler

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mathext/prng"
)

var globalRNG = newRNG()

func newRNG() *rng {
	// We don't use a cryptographically secure source of randomness here, as
	// there's no need to ensure a truly random sampling.
	source := prng.NewMT19937()
	source.Seed(uint64(time.Now().UnixNano()))
	return &rng{rng: source}
}

type Source interface {
	// Uint64 returns a random number in [0, MaxUint64] and advances the
	// generator's state.
	Uint64() uint64
}

type rng struct {
	lock sync.Mutex
	rng  Source
}

// Uint64Inclusive returns a pseudo-random number in [0,n].
func (r *rng) Uint64Inclusive(n uint64) uint64 {
	r.lock.Lock()
	defer r.lock.Unlock()

	switch {
	// n+1 is a power of two, so we can just mask
	//
	// Note: this works for MaxUint64 because overflow is explicitly part of
	// the compiler specification: https://go.dev/ref/spec#Integer_overflow
	case n&(n+1) == 0:
		return r.rng.Uint64() & n

	// n is greater than MaxUint64/2 so we need to iterate until we get a
	// number in the requested range.
	case n > math.MaxInt64:
		v := r.rng.Uint64()
		for v > n {
			v = r.rng.Uint64()
		}
		return v

	// Generate a number in the range [0, k*(n+1)) where k is the largest
	// integer such that k*(n+1) <= MaxUint64/2 and then shrink it by modulo.
	// Rejecting values outside of the range removes the modulo bias.
	default:
		bound := math.MaxUint64/(n+1)*(n+1) - 1
		v := r.rng.Uint64()
		for v > bound {
			v = r.rng.Uint64()
		}
		return v % (n + 1)
	}
}
