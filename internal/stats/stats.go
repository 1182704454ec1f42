// Package stats maintains per-level and per-category entry counts.
package stats

import (
	"maps"

	"sessionlog/internal/model"
)

// Counts is the aggregate over a set of entries. Keys with a zero count are
// never present.
type Counts struct {
	Total      int
	ByLevel    map[model.Level]int
	ByCategory map[string]int
}

// NewCounts returns empty counts.
func NewCounts() Counts {
	return Counts{
		ByLevel:    make(map[model.Level]int),
		ByCategory: make(map[string]int),
	}
}

// Clone returns a deep copy of c.
func (c Counts) Clone() Counts {
	return Counts{
		Total:      c.Total,
		ByLevel:    maps.Clone(c.ByLevel),
		ByCategory: maps.Clone(c.ByCategory),
	}
}

// Equal reports whether c and o hold identical counts.
func (c Counts) Equal(o Counts) bool {
	return c.Total == o.Total &&
		maps.Equal(c.ByLevel, o.ByLevel) &&
		maps.Equal(c.ByCategory, o.ByCategory)
}

func (c *Counts) add(e model.Entry) {
	c.Total++
	c.ByLevel[e.Level]++
	c.ByCategory[e.Category]++
}

func (c *Counts) remove(e model.Entry) {
	if c.Total == 0 {
		return
	}
	c.Total--
	decrement(c.ByLevel, e.Level)
	decrement(c.ByCategory, e.Category)
}

func decrement[K comparable](m map[K]int, key K) {
	if n, ok := m[key]; ok {
		if n <= 1 {
			delete(m, key)
			return
		}
		m[key] = n - 1
	}
}

// Recompute rebuilds counts from scratch by scanning entries.
func Recompute(entries []model.Entry) Counts {
	c := NewCounts()
	for _, e := range entries {
		c.add(e)
	}
	return c
}

// Aggregator keeps counts in step with a store, one entry at a time.
type Aggregator struct {
	counts Counts
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{counts: NewCounts()}
}

// Update records an appended entry.
func (a *Aggregator) Update(e model.Entry) {
	a.counts.add(e)
}

// Evict forgets an entry removed from the head of the store.
func (a *Aggregator) Evict(e model.Entry) {
	a.counts.remove(e)
}

// Reset zeroes all counts.
func (a *Aggregator) Reset() {
	a.counts = NewCounts()
}

// Replace overwrites the running counts, used after a failed verification.
func (a *Aggregator) Replace(c Counts) {
	a.counts = c.Clone()
}

// Counts returns a copy of the running counts.
func (a *Aggregator) Counts() Counts {
	return a.counts.Clone()
}
