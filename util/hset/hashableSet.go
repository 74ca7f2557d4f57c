// Package hset implements a set of hashable elements, JVM style
package hset

import (
	"iter"
	"slices"

	"github.com/benbjohnson/immutable"
)

// HSet is a shallow wrapper around a map keyed by the elements' hashes.
// Elements are distinguished by the hasher only.
type HSet[A any] struct {
	hasher     immutable.Hasher[A]
	underlying map[uint32][]A
}

func Empty[A any](hasher immutable.Hasher[A]) HSet[A] {
	return HSet[A]{
		hasher:     hasher,
		underlying: make(map[uint32][]A),
	}
}

func New[A any](hasher immutable.Hasher[A], elems ...A) HSet[A] {
	n := Empty(hasher)
	n.Add(elems...)
	return n
}

func (s HSet[A]) Add(elems ...A) {
	for _, elem := range elems {
		if s.Contains(elem) {
			continue
		}
		h := s.hasher.Hash(elem)
		s.underlying[h] = append(s.underlying[h], elem)
	}
}

func (s HSet[A]) Remove(elems ...A) {
	for _, elem := range elems {
		h := s.hasher.Hash(elem)
		s.underlying[h] = slices.DeleteFunc(s.underlying[h], func(other A) bool {
			return s.hasher.Equal(elem, other)
		})
		if len(s.underlying[h]) == 0 {
			delete(s.underlying, h)
		}
	}
}

func (s HSet[A]) Contains(elem A) bool {
	return slices.ContainsFunc(s.underlying[s.hasher.Hash(elem)], func(other A) bool {
		return s.hasher.Equal(elem, other)
	})
}

func (s HSet[A]) Len() int {
	n := 0
	for _, bucket := range s.underlying {
		n += len(bucket)
	}
	return n
}

// All iterates in no particular order
func (s HSet[A]) All() iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, bucket := range s.underlying {
			for _, elem := range bucket {
				if !yield(elem) {
					return
				}
			}
		}
	}
}
