// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package set

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
)

// The minimum capacity of a set
const minSetSize = 16

// Set is a set of elements.
type Set[T comparable] map[T]struct{}

// Of returns a Set initialized with [elts]
func Of[T comparable](elts ...T) Set[T] {
	s := make(Set[T], len(elts))
	s.Add(elts...)
	return s
}

func (s *Set[T]) resize(size int) {
	if *s == nil {
		if minSetSize > size {
			size = minSetSize
		}
		*s = make(map[T]struct{}, size)
	}
}

// Add all the elements to this set. If the element is already in the set, nothing
// happens.
func (s *Set[T]) Add(elts ...T) {
	s.resize(2 * len(elts))
	for _, elt := range elts {
		(*s)[elt] = struct{}{}
	}
}

// Union adds all the elements from the provided set to this set.
func (s *Set[T]) Union(other Set[T]) {
	s.resize(2 * other.Len())
	for elt := range other {
		(*s)[elt] = struct{}{}
	}
}

// Difference removes all the elements in [other] from [s].
func (s *Set[T]) Difference(other Set[T]) {
	for elt := range other {
		delete(*s, elt)
	}
}

// Contains returns true iff the set contains this element.
func (s Set[T]) Contains(elt T) bool {
	_, contains := s[elt]
	return contains
}

// Len returns the number of elements in this set.
func (s Set[T]) Len() int {
	return len(s)
}

// Remove all the given elements from this set. If an element isn't in the set,
// it's ignored.
func (s Set[T]) Remove(elts ...T) {
	for _, elt := range elts {
		delete(s, elt)
	}
}

// Clear empties this set
func (s Set[T]) Clear() {
	maps.Clear(s)
}

// List converts this set into a list
func (s Set[T]) List() []T {
	return maps.Keys(s)
}

// Equals returns true if the sets contain the same elements
func (s Set[T]) Equals(other Set[T]) bool {
	return maps.Equal(s, other)
}

// Pop removes and returns an arbitrary element from the set.
//
// Returns false if the set was empty.
func (s Set[T]) Pop() (T, bool) {
	for elt := range s {
		delete(s, elt)
		return elt, true
	}
	return *new(T), false
}

func (s Set[T]) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for elt := range s {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(fmt.Sprintf("%v", elt))
	}
	sb.WriteString("}")
	return sb.String()
}
