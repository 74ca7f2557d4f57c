package util

import (
	"slices"

	"github.com/xtgo/set"
)

// SortedSet sorts and deduplicates elems in place
func SortedSet(elems []string) []string {
	return set.Strings(elems)
}

// UnionSorted returns the union of sorted, duplicate-free string sets.
// The inputs are not modified.
func UnionSorted(sets ...[]string) []string {
	var res []string
	for _, s := range sets {
		res = set.StringsDo(set.Union, slices.Clone(res), s...)
	}
	return res
}
