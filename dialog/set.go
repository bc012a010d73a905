package dialog

import (
	"cmp"
	"slices"
)

// Set is an unordered collection of comparable values.
type Set[T comparable] map[T]struct{}

// NewSet builds a set holding the given items.
func NewSet[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add inserts item. Adding to a nil set panics, as with any nil map.
func (s Set[T]) Add(item T) {
	s[item] = struct{}{}
}

// Has reports whether item is in the set.
func (s Set[T]) Has(item T) bool {
	_, ok := s[item]
	return ok
}

// Remove deletes item if present.
func (s Set[T]) Remove(item T) {
	delete(s, item)
}

// Len returns the number of items.
func (s Set[T]) Len() int {
	return len(s)
}

// Union adds every item of other to s.
func (s Set[T]) Union(other Set[T]) {
	for item := range other {
		s[item] = struct{}{}
	}
}

// Clone returns a copy of the set. A nil set clones to an empty one.
func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for item := range s {
		out[item] = struct{}{}
	}
	return out
}

// Sorted returns the items of a set of ordered values in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	out := make([]T, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	slices.Sort(out)
	return out
}
