package models

import "slices"

// Track keeps the current instance of a repeatable sub-aggregate and the
// instances it replaced. Only Current is active, so at most one instance is
// active at any time.
type Track[T comparable] struct {
	Current T   `json:"current"`
	History []T `json:"history,omitempty"`
}

// Replace makes next the current instance and archives the previous one.
func (t *Track[T]) Replace(next T) {
	var zero T
	if t.Current != zero {
		t.History = append(t.History, t.Current)
	}
	t.Current = next
}

// IsActive reports whether v is the current instance.
func (t Track[T]) IsActive(v T) bool {
	var zero T
	return v != zero && t.Current == v
}

// HasCurrent reports whether an active instance exists.
func (t Track[T]) HasCurrent() bool {
	var zero T
	return t.Current != zero
}

// All lists every instance, oldest first, current last.
func (t Track[T]) All() []T {
	out := slices.Clone(t.History)
	if t.HasCurrent() {
		out = append(out, t.Current)
	}
	return out
}

func (t Track[T]) clone() Track[T] {
	return Track[T]{Current: t.Current, History: slices.Clone(t.History)}
}
