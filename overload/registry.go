package overload

import (
	"cmp"
	"fmt"
	"slices"
)

// ScopeKind is where a group of competing declarations is visible
type ScopeKind int

const (
	// ModuleScope holds the top-level functions of one module
	ModuleScope ScopeKind = iota
	// APIScope holds the exported symbols of several APIs seen together
	APIScope
	// OwnerScope holds the dotted methods of one trait or object
	OwnerScope
)

func (k ScopeKind) String() string {
	switch k {
	case APIScope:
		return "apis"
	case OwnerScope:
		return "owner"
	default:
		return "module"
	}
}

type Scope struct {
	Kind ScopeKind
	Name string
}

func (s Scope) String() string { return fmt.Sprintf("%v:%s", s.Kind, s.Name) }

func compareScopes(a, b Scope) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

// Registry records, per scope, the tagged functions visible under each name
type Registry struct {
	scopes map[Scope]map[string][]*TaggedFunction
}

func NewRegistry() *Registry {
	return &Registry{scopes: make(map[Scope]map[string][]*TaggedFunction)}
}

// Add tags decl with api and makes it visible in scope
func (r *Registry) Add(scope Scope, api string, decl *Declaration) *TaggedFunction {
	byName, ok := r.scopes[scope]
	if !ok {
		byName = make(map[string][]*TaggedFunction)
		r.scopes[scope] = byName
	}
	f := Tag(api, decl)
	byName[decl.Name] = append(byName[decl.Name], f)
	return f
}

// Visible returns the name -> declarations relation of scope
func (r *Registry) Visible(scope Scope) map[string][]*TaggedFunction {
	return r.scopes[scope]
}

// Scopes returns every scope with at least one declaration, in a stable order
func (r *Registry) Scopes() []Scope {
	res := make([]Scope, 0, len(r.scopes))
	for s := range r.scopes {
		res = append(res, s)
	}
	slices.SortFunc(res, compareScopes)
	return res
}

func (r *Registry) Len() int {
	n := 0
	for _, byName := range r.scopes {
		for _, fs := range byName {
			n += len(fs)
		}
	}
	return n
}
