package util

import (
	"cmp"
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
)

func TestMangledIdentFrom(t *testing.T) {
	tests := map[string]string{
		"show/1":                  "show_1",
		"f(List[Integer],String)": "f_List_Integer_String",
		"m.show(Integer)":         "m_show_Integer",
		"1st":                     "st",
		"(Any)":                   "Any",
		"()":                      "_",
	}
	for key, want := range tests {
		assert.Equal(t, want, MangledIdentFrom(key), key)
	}
}

func TestStack(t *testing.T) {
	s := Stack[int]{}
	_, ok := s.Pop()
	assert.False(t, ok)
	s.Push(1)
	s.Push(2)
	assert.Equal(t, 2, s.Len())
	v, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())
}

func TestSortedSets(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedSet([]string{"c", "a", "b", "a"}))
	assert.Equal(t, []string{"a", "b", "c", "d"}, UnionSorted([]string{"a", "c"}, []string{"b", "c", "d"}))
	assert.Equal(t, []string{"T", "U"}, SortedSlice(set.From([]string{"U", "T"}), cmp.Compare[string]))
}
