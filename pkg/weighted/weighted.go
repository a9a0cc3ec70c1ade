// Package weighted provides explicit weighted-choice tables and the random source
// used by every reply picker.
package weighted

import (
	"math/rand/v2"
	"sync"
)

// Source is the randomness a picker needs
type Source interface {
	Float64() float64
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// Default returns a source backed by the runtime's shared generator
func Default() Source {
	return globalSource{}
}

// lockedSource serializes access to a seeded generator
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a deterministic source, safe for concurrent use
func NewSeeded(seed uint64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Choice is one row of a weighted table
type Choice[T any] struct {
	Weight float64
	Value  T
}

// Table is an immutable weighted-choice table drawn with a single cumulative draw
type Table[T any] struct {
	choices []Choice[T]
	total   float64
}

// NewTable builds a table; rows with non-positive weight are dropped
func NewTable[T any](choices ...Choice[T]) *Table[T] {
	t := &Table[T]{}
	for _, c := range choices {
		if c.Weight <= 0 {
			continue
		}
		t.choices = append(t.choices, c)
		t.total += c.Weight
	}
	return t
}

// Len returns the number of rows
func (t *Table[T]) Len() int {
	return len(t.choices)
}

// Probability returns the normalized weight of row i
func (t *Table[T]) Probability(i int) float64 {
	if i < 0 || i >= len(t.choices) || t.total == 0 {
		return 0
	}
	return t.choices[i].Weight / t.total
}

// Pick draws one value. ok is false only for an empty table.
func (t *Table[T]) Pick(src Source) (value T, ok bool) {
	if len(t.choices) == 0 {
		return value, false
	}
	r := src.Float64() * t.total
	cumulative := 0.0
	for _, c := range t.choices {
		cumulative += c.Weight
		if r < cumulative {
			return c.Value, true
		}
	}
	// float rounding can leave r == total
	return t.choices[len(t.choices)-1].Value, true
}

// One picks uniformly from items. ok is false for an empty slice.
func One[T any](src Source, items []T) (value T, ok bool) {
	if len(items) == 0 {
		return value, false
	}
	return items[src.IntN(len(items))], true
}

// Chance reports true with probability p
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return src.Float64() < p
}
