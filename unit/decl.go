package unit

import (
	"fmt"

	"github.com/cottand/ovld/overload"
	"github.com/cottand/ovld/types"
	"github.com/pkg/errors"
)

// DeclSuffix marks declaration files inside a unit directory
const DeclSuffix = ".decl.yaml"

// declFile is the on-disk form of one module's declarations:
//
//	module: geo
//	exports: public
//	traits:
//	  - name: Shape
//	    methods:
//	      - {name: scale, params: [Shape, Integer], return: Shape}
//	functions:
//	  - name: show
//	    static: [{name: T, bound: Number}]
//	    params: ["List[T]"]
//	    return: String
//	    exported: true
type declFile struct {
	Module string `yaml:"module"`
	// Exports names the API view that exported functions are also visible from
	Exports   string      `yaml:"exports"`
	Traits    []traitDecl `yaml:"traits"`
	Functions []funcDecl  `yaml:"functions"`
}

type traitDecl struct {
	Name    string     `yaml:"name"`
	Parents []string   `yaml:"parents"`
	Object  bool       `yaml:"object"`
	Methods []funcDecl `yaml:"methods"`
}

type staticDecl struct {
	Name  string `yaml:"name"`
	Bound string `yaml:"bound"`
}

type funcDecl struct {
	Name     string       `yaml:"name"`
	Static   []staticDecl `yaml:"static"`
	Params   []string     `yaml:"params"`
	Return   string       `yaml:"return"`
	Throws   []string     `yaml:"throws"`
	Exported bool         `yaml:"exported"`
	Varargs  bool         `yaml:"varargs"`
	// Self is the receiver position of a method, 0 when omitted
	Self *int `yaml:"self"`
	// Abstract methods have no body
	Abstract bool `yaml:"abstract"`
}

// declaration converts d into an overload.Declaration. Static parameter names are in
// scope for the bounds, parameters, return type and exceptions.
func (d funcDecl) declaration() (*overload.Declaration, error) {
	if d.Name == "" {
		return nil, errors.New("declaration without a name")
	}
	vars := make(map[string]*types.Var, len(d.Static))
	statics := make([]*types.Var, 0, len(d.Static))
	for _, s := range d.Static {
		if _, dup := vars[s.Name]; dup {
			return nil, fmt.Errorf("%s: static parameter %s declared twice", d.Name, s.Name)
		}
		v := &types.Var{Name: s.Name}
		vars[s.Name] = v
		statics = append(statics, v)
	}
	for i, s := range d.Static {
		if s.Bound == "" {
			continue
		}
		bound, err := types.Parse(s.Bound, vars)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: bound of %s", d.Name, s.Name)
		}
		statics[i].Bound = bound
	}

	params := make([]types.Type, len(d.Params))
	for i, src := range d.Params {
		t, err := types.Parse(src, vars)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: parameter %d", d.Name, i)
		}
		params[i] = t
	}
	var ret types.Type = types.Top{}
	if d.Return != "" {
		t, err := types.Parse(d.Return, vars)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: return type", d.Name)
		}
		ret = t
	}

	decl := overload.NewFunction(d.Name, ret, params...)
	decl.StaticParams = statics
	decl.Varargs = d.Varargs
	for _, src := range d.Throws {
		t, err := types.Parse(src, vars)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: exception", d.Name)
		}
		decl.Throws = append(decl.Throws, t)
	}
	return decl, nil
}

func (d funcDecl) method(owner traitDecl) (*overload.Declaration, error) {
	decl, err := d.declaration()
	if err != nil {
		return nil, errors.Wrapf(err, "method of %s", owner.Name)
	}
	self := 0
	if d.Self != nil {
		self = *d.Self
	}
	if self < 0 || self >= len(decl.Params) {
		return nil, fmt.Errorf("method %s.%s: receiver position %d out of range", owner.Name, d.Name, self)
	}
	kind := overload.TraitMember
	if owner.Object {
		kind = overload.ObjectMember
	}
	decl.Owner = owner.Name
	decl.OwnerKind = kind
	decl.SelfIndex = self
	decl.Params[self].Name = "self"
	decl.HasBody = !d.Abstract
	return decl, nil
}
