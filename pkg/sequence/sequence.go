// Package sequence provides the persistent, append/prepend-only lists that
// back every kind of pipeline declaration, and the per-run cursor that applies
// each declared slice exactly once.
package sequence

import "reflect"

// Sequence is an immutable ordered list. Extend and Prepend return new
// snapshots; the receiver is never modified, so a snapshot can be shared by
// any number of branches and readers.
//
// The zero value is an empty sequence ready to use.
type Sequence[T any] struct {
	items []T
}

// Of builds a sequence holding items in order. Empty items are skipped.
func Of[T any](items ...T) Sequence[T] {
	var s Sequence[T]
	for _, item := range items {
		s = s.Extend(item)
	}
	return s
}

// Extend returns a snapshot with item appended.
// An empty item (nil interface, map, slice, func, pointer or channel) yields
// the receiver unchanged.
func (s Sequence[T]) Extend(item T) Sequence[T] {
	if isEmpty(item) {
		return s
	}
	items := make([]T, len(s.items), len(s.items)+1)
	copy(items, s.items)
	return Sequence[T]{items: append(items, item)}
}

// Prepend returns a snapshot with item placed in front of every existing item.
func (s Sequence[T]) Prepend(item T) Sequence[T] {
	if isEmpty(item) {
		return s
	}
	items := make([]T, 0, len(s.items)+1)
	items = append(items, item)
	return Sequence[T]{items: append(items, s.items...)}
}

// Offset is the current length of the sequence.
func (s Sequence[T]) Offset() int {
	return len(s.items)
}

// Empty reports whether nothing was ever declared.
func (s Sequence[T]) Empty() bool {
	return len(s.items) == 0
}

// At returns the item at index i, or the zero value when out of range.
func (s Sequence[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(s.items) {
		return zero, false
	}
	return s.items[i], true
}

// Slice returns a copy of the items in the half-open range [from, to),
// clamped to the sequence bounds.
func (s Sequence[T]) Slice(from, to int) []T {
	if from < 0 {
		from = 0
	}
	if to > len(s.items) {
		to = len(s.items)
	}
	if from >= to {
		return nil
	}
	out := make([]T, to-from)
	copy(out, s.items[from:to])
	return out
}

// Items returns a copy of every item.
func (s Sequence[T]) Items() []T {
	return s.Slice(0, len(s.items))
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Pointer, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
