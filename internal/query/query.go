// Package query filters session entries for retrieval.
package query

import (
	"sort"

	"sessionlog/internal/model"
)

type options struct {
	level       string
	hasLevel    bool
	category    string
	hasCategory bool
	count       int
	hasCount    bool
}

// Option narrows a Filter call.
type Option func(*options)

// Level keeps entries of the given level, matched case-insensitively.
func Level(level string) Option {
	return func(o *options) {
		o.level = level
		o.hasLevel = true
	}
}

// Category keeps entries whose category equals category exactly.
func Category(category string) Option {
	return func(o *options) {
		o.category = category
		o.hasCategory = true
	}
}

// Count keeps at most n of the most recent matches.
func Count(n int) Option {
	return func(o *options) {
		o.count = n
		o.hasCount = true
	}
}

// Filter returns the entries matching opts, most recent first. Returned
// entries are copies; their Data is shared with the input.
func Filter(entries []model.Entry, opts ...Option) ([]model.Entry, error) {
	if len(entries) == 0 {
		return []model.Entry{}, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var level model.Level
	if o.hasLevel {
		parsed, err := model.ParseLevel(o.level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if o.hasCategory && o.category == "" {
		return nil, model.InvalidArgument("category filter is empty")
	}
	if o.hasCount && o.count < 0 {
		return nil, model.InvalidArgument("count must be non-negative, got %d", o.count)
	}

	result := make([]model.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if o.hasLevel && e.Level != level {
			continue
		}
		if o.hasCategory && e.Category != o.category {
			continue
		}
		result = append(result, e)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	if o.hasCount && len(result) > o.count {
		result = result[:o.count]
	}
	return result, nil
}
