// Package rng provides the engine's injectable random source.
package rng

import (
	"math/rand"
	"sync"
)

// Source is the minimal generator the engine draws from. *rand.Rand
// satisfies it; tests substitute scripted sources.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// RNG wraps a Source with position tracking. Position increments with
// every draw so logs can pinpoint a roll. Safe for concurrent use; worlds
// in different groups share one RNG.
type RNG struct {
	mu   sync.Mutex
	seed int64
	src  Source
	pos  int64
}

// New creates a deterministic RNG from a seed.
func New(seed int64) *RNG {
	return &RNG{seed: seed, src: rand.New(rand.NewSource(seed))}
}

// FromSource wraps an arbitrary source.
func FromSource(src Source) *RNG {
	return &RNG{src: src}
}

// Seed returns the seed the RNG was created with, 0 for wrapped sources.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Float64 returns a float in [0, 1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos++
	return r.src.Float64()
}

// Intn returns an int in [0, n). n <= 0 returns 0 without drawing.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos++
	return r.src.Intn(n)
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	return r.Intn(sides) + 1
}

// Between returns an integer in [lo, hi] inclusive.
func (r *RNG) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Uniform returns a float in [lo, hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Chance reports whether a draw falls under p. p <= 0 never fires and
// p >= 1 always fires; neither consumes a draw.
func (r *RNG) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}

// WeightedSelect returns an index chosen by weighted random selection.
// Non-positive weights are never chosen. Returns -1 if no weight is positive.
func (r *RNG) WeightedSelect(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := r.Float64() * total
	cumulative := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if roll < cumulative {
			return i
		}
	}
	return last
}

// Pick returns a uniformly random index into a slice of length n, -1 if empty.
func (r *RNG) Pick(n int) int {
	if n <= 0 {
		return -1
	}
	return r.Intn(n)
}

// Shuffle permutes n elements with Fisher-Yates through swap.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, r.Intn(i+1))
	}
}

// Sample draws k distinct integers from [1, n] in draw order.
func (r *RNG) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i + 1
	}
	out := make([]int, 0, k)
	for i := 0; i < k; i++ {
		j := i + r.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
		out = append(out, pool[i])
	}
	return out
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}
