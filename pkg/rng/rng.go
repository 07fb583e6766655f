// Package rng provides the small seeded random source shared by the games.
package rng

import "time"

// Source yields floats uniformly distributed in [0, 1).
type Source func() float64

// Mulberry32 returns a deterministic Source for seed.
func Mulberry32(seed uint32) Source {
	state := seed
	return func() float64 {
		state += 0x6D2B79F5
		t := state
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296.0
	}
}

// New returns a Mulberry32 source, seeded from the clock when seed is zero.
func New(seed uint32) Source {
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}
	return Mulberry32(seed)
}

// Intn returns an int in [0, n). It returns 0 when n <= 0.
func (s Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(s() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Shuffle permutes xs in place (Fisher-Yates).
func Shuffle[T any](s Source, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// Shuffled returns a shuffled copy of xs, leaving xs untouched.
func Shuffled[T any](s Source, xs []T) []T {
	out := append([]T(nil), xs...)
	Shuffle(s, out)
	return out
}
