package overload

import (
	"github.com/cottand/ovld/types"
)

// OwnerKind says where a declaration lives
type OwnerKind int

const (
	TopLevel OwnerKind = iota
	TraitMember
	ObjectMember
)

func (k OwnerKind) String() string {
	switch k {
	case TraitMember:
		return "trait"
	case ObjectMember:
		return "object"
	default:
		return "top-level"
	}
}

// NoSelf is the SelfIndex of declarations without a receiver
const NoSelf = -1

type Param struct {
	Name string
	Type types.Type
}

// Declaration is a function or method declaration as produced by the parser and
// checked by the type checker. Methods carry their receiver in Params at SelfIndex.
type Declaration struct {
	Name         string
	Params       []Param
	Return       types.Type
	Throws       []types.Type
	StaticParams []*types.Var

	Owner     string
	OwnerKind OwnerKind
	// SelfIndex is the position of the receiver in Params, or NoSelf
	SelfIndex int

	HasBody bool
	Varargs bool
}

// NewFunction is a top-level function declaration with a body
func NewFunction(name string, ret types.Type, params ...types.Type) *Declaration {
	d := &Declaration{
		Name:      name,
		Return:    ret,
		SelfIndex: NoSelf,
		HasBody:   true,
	}
	for i, p := range params {
		d.Params = append(d.Params, Param{Name: paramName(i), Type: p})
	}
	return d
}

// NewMethod is a method of owner with the receiver at selfIndex
func NewMethod(owner string, kind OwnerKind, name string, selfIndex int, ret types.Type, params ...types.Type) *Declaration {
	d := NewFunction(name, ret, params...)
	d.Owner = owner
	d.OwnerKind = kind
	d.SelfIndex = selfIndex
	if selfIndex >= 0 && selfIndex < len(d.Params) {
		d.Params[selfIndex].Name = "self"
	}
	return d
}

func (d *Declaration) HasSelf() bool { return d.SelfIndex >= 0 }

func (d *Declaration) IsGeneric() bool { return len(d.StaticParams) > 0 }

func paramName(i int) string {
	return string(rune('a'+i%26)) + suffix(i/26)
}

func suffix(n int) string {
	if n == 0 {
		return ""
	}
	return string(rune('0' + n%10))
}
