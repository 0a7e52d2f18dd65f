// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bag

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/frostlabs/snowgo/utils"
	"github.com/frostlabs/snowgo/utils/set"
)

const minBagSize = 16

// Bag is a multiset.
type Bag[T comparable] struct {
	counts map[T]int
	size   int

	mode     T
	modeFreq int

	threshold    int
	metThreshold set.Set[T]
}

// Of returns a Bag initialized with [elts]
func Of[T comparable](elts ...T) Bag[T] {
	var b Bag[T]
	b.Add(elts...)
	return b
}

func (b *Bag[T]) init() {
	if b.counts == nil {
		b.counts = make(map[T]int, minBagSize)
	}
}

// SetThreshold sets the number of times an element must be added to be
// contained in the threshold set.
func (b *Bag[T]) SetThreshold(threshold int) {
	if b.threshold == threshold {
		return
	}

	b.threshold = threshold
	b.metThreshold.Clear()
	for elt, count := range b.counts {
		if count >= threshold {
			b.metThreshold.Add(elt)
		}
	}
}

// Add increases the number of times each element has been seen by one.
func (b *Bag[T]) Add(elts ...T) {
	for _, elt := range elts {
		b.AddCount(elt, 1)
	}
}

// AddCount increases the number of times the element has been seen by [count].
// If [count] <= 0 this is a no-op.
func (b *Bag[T]) AddCount(elt T, count int) {
	if count <= 0 {
		return
	}

	b.init()

	totalCount := b.counts[elt] + count
	b.counts[elt] = totalCount
	b.size += count

	if totalCount > b.modeFreq {
		b.mode = elt
		b.modeFreq = totalCount
	}
	if totalCount >= b.threshold {
		b.metThreshold.Add(elt)
	}
}

// Count returns the number of times the element has been seen.
func (b *Bag[T]) Count(elt T) int {
	return b.counts[elt]
}

// Remove sets the count of the provided element to zero.
func (b *Bag[T]) Remove(elt T) {
	count := b.counts[elt]
	delete(b.counts, elt)
	b.size -= count

	if b.mode == elt {
		b.mode = utils.Zero[T]()
		b.modeFreq = 0
		for elt, count := range b.counts {
			if count > b.modeFreq {
				b.mode = elt
				b.modeFreq = count
			}
		}
	}
	b.metThreshold.Remove(elt)
}

// Len returns the number of times all elements have been seen.
func (b *Bag[T]) Len() int {
	return b.size
}

// List returns a list of unique elements that have been seen.
func (b *Bag[T]) List() []T {
	return maps.Keys(b.counts)
}

// Equals returns true if the bags contain the same elements
func (b *Bag[T]) Equals(other Bag[T]) bool {
	return b.size == other.size && maps.Equal(b.counts, other.counts)
}

// Mode returns the most common element in the bag and the count of that
// element. If there's a tie, any of the tied elements may be returned.
func (b *Bag[T]) Mode() (T, int) {
	return b.mode, b.modeFreq
}

// Threshold returns the elements that have been seen at least threshold times.
func (b *Bag[T]) Threshold() set.Set[T] {
	return b.metThreshold
}

// Filter returns the bag of elements for which [filterFunc] returns true.
func (b *Bag[T]) Filter(filterFunc func(T) bool) Bag[T] {
	newBag := Bag[T]{}
	for elt, count := range b.counts {
		if filterFunc(elt) {
			newBag.AddCount(elt, count)
		}
	}
	return newBag
}

// Split returns the bags of elements for which [splitFunc] returns false and
// true respectively.
func (b *Bag[T]) Split(splitFunc func(T) bool) [2]Bag[T] {
	splitVotes := [2]Bag[T]{}
	for elt, count := range b.counts {
		if splitFunc(elt) {
			splitVotes[1].AddCount(elt, count)
		} else {
			splitVotes[0].AddCount(elt, count)
		}
	}
	return splitVotes
}

func (b *Bag[T]) PrefixedString(prefix string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Bag[%T]: (Size = %d)", utils.Zero[T](), b.Len()))
	for elt, count := range b.counts {
		sb.WriteString(fmt.Sprintf("\n%s    %v: %d", prefix, elt, count))
	}
	return sb.String()
}

func (b *Bag[T]) String() string {
	return b.PrefixedString("")
}
