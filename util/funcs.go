package util

import (
	"github.com/hashicorp/go-set/v3"
)

// SortedSlice returns the elements of s ordered by compare
func SortedSlice[V comparable](s *set.Set[V], compare func(a, b V) int) []V {
	return set.TreeSetFrom(s.Slice(), compare).Slice()
}
