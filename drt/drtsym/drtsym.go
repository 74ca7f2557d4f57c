// Package drtsym exports the symbols of drt to the yaegi interpreter, so that generated
// dispatch code can be evaluated without being compiled
package drtsym

import (
	"go/constant"
	"go/token"
	"reflect"

	"github.com/cottand/ovld/drt"
)

// Symbols is meant for interp.Interpreter.Use
var Symbols = map[string]map[string]reflect.Value{}

func init() {
	Symbols["github.com/cottand/ovld/drt/drt"] = map[string]reflect.Value{
		// function, constant and variable definitions
		"Any":           reflect.ValueOf(&drt.Any).Elem(),
		"AnyName":       reflect.ValueOf(constant.MakeFromLiteral(`"Any"`, token.STRING, 0)),
		"ArrowOf":       reflect.ValueOf(drt.ArrowOf),
		"Bind":          reflect.ValueOf(drt.Bind),
		"Contravariant": reflect.ValueOf(drt.Contravariant),
		"Covariant":     reflect.ValueOf(drt.Covariant),
		"Declare":       reflect.ValueOf(drt.Declare),
		"Default":       reflect.ValueOf(&drt.Default).Elem(),
		"DescriptorOf":  reflect.ValueOf(drt.DescriptorOf),
		"Fail":          reflect.ValueOf(drt.Fail),
		"Invariant":     reflect.ValueOf(drt.Invariant),
		"Match":         reflect.ValueOf(drt.Match),
		"Named":         reflect.ValueOf(drt.Named),
		"New":           reflect.ValueOf(drt.New),
		"P":             reflect.ValueOf(drt.P),
		"SubtypeOf":     reflect.ValueOf(drt.SubtypeOf),
		"TupleOf":       reflect.ValueOf(drt.TupleOf),
		"V":             reflect.ValueOf(drt.V),

		// type definitions
		"Descriptor":      reflect.ValueOf((*drt.Descriptor)(nil)),
		"DispatchFailure": reflect.ValueOf((*drt.DispatchFailure)(nil)),
		"Func":            reflect.ValueOf((*drt.Func)(nil)),
		"Pattern":         reflect.ValueOf((*drt.Pattern)(nil)),
		"Runtime":         reflect.ValueOf((*drt.Runtime)(nil)),
		"Tuple":           reflect.ValueOf((*drt.Tuple)(nil)),
		"Typed":           reflect.ValueOf((*drt.Typed)(nil)),
		"Value":           reflect.ValueOf((*drt.Value)(nil)),

		// interface wrapper definitions
		"_Typed": reflect.ValueOf((*_github_com_cottand_ovld_drt_Typed)(nil)),
	}
}

// _github_com_cottand_ovld_drt_Typed is an interface wrapper for Typed type
type _github_com_cottand_ovld_drt_Typed struct {
	IValue      interface{}
	WDescriptor func() *drt.Descriptor
}

func (W _github_com_cottand_ovld_drt_Typed) Descriptor() *drt.Descriptor {
	return W.WDescriptor()
}
