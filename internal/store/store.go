// Package store holds the bounded, insertion-ordered entry buffer of the
// current session.
package store

import "sessionlog/internal/model"

// DefaultMaxEntries is the capacity used when none is configured.
const DefaultMaxEntries = 1000

// Store is a fixed-capacity ring of entries. Appending to a full store evicts
// the oldest entry.
type Store struct {
	data   []model.Entry
	start  int
	length int
}

// New returns a store holding at most maxEntries entries. A capacity of zero
// or less keeps nothing.
func New(maxEntries int) *Store {
	if maxEntries <= 0 {
		return &Store{}
	}
	return &Store{data: make([]model.Entry, maxEntries)}
}

// Append inserts entry at the tail. When the store was full it returns the
// evicted head entry and true.
func (s *Store) Append(entry model.Entry) (model.Entry, bool) {
	if len(s.data) == 0 {
		return entry, true
	}
	idx := (s.start + s.length) % len(s.data)
	if s.length < len(s.data) {
		s.data[idx] = entry
		s.length++
		return model.Entry{}, false
	}
	evicted := s.data[idx]
	s.data[idx] = entry
	s.start = (s.start + 1) % len(s.data)
	return evicted, true
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return s.length
}

// Cap returns the configured capacity.
func (s *Store) Cap() int {
	return len(s.data)
}

// At returns the i-th oldest entry.
func (s *Store) At(i int) model.Entry {
	if i < 0 || i >= s.length {
		panic("store: index out of range")
	}
	return s.data[(s.start+i)%len(s.data)]
}

// Entries returns a chronological copy of the stored entries.
func (s *Store) Entries() []model.Entry {
	if s.length == 0 {
		return nil
	}
	result := make([]model.Entry, s.length)
	for i := 0; i < s.length; i++ {
		result[i] = s.data[(s.start+i)%len(s.data)]
	}
	return result
}

// Reset drops every entry.
func (s *Store) Reset() {
	clear(s.data)
	s.start = 0
	s.length = 0
}
