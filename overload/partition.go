package overload

import (
	"slices"
)

// Partition groups a scope's declarations by name and then by arity, keeping only the
// arity groups where at least two declarations compete. Members of each group are sorted
// by Compare. It never consults an oracle.
func Partition(byName map[string][]*TaggedFunction) map[string]map[int][]*TaggedFunction {
	res := make(map[string]map[int][]*TaggedFunction)
	for name, fs := range byName {
		byArity := make(map[int][]*TaggedFunction)
		for _, f := range fs {
			byArity[f.Arity()] = append(byArity[f.Arity()], f)
		}
		for arity, group := range byArity {
			if len(group) <= 1 {
				delete(byArity, arity)
				continue
			}
			group = slices.Clone(group)
			SortFunctions(group)
			byArity[arity] = group
		}
		if len(byArity) > 0 {
			res[name] = byArity
		}
	}
	return res
}

// PartitionKey names one (name, arity) group
type PartitionKey struct {
	Name  string
	Arity int
}

// Keys returns the groups of a Partition result sorted by name then arity
func Keys(parts map[string]map[int][]*TaggedFunction) []PartitionKey {
	var res []PartitionKey
	for name, byArity := range parts {
		for arity := range byArity {
			res = append(res, PartitionKey{Name: name, Arity: arity})
		}
	}
	slices.SortFunc(res, func(a, b PartitionKey) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		return a.Arity - b.Arity
	})
	return res
}
