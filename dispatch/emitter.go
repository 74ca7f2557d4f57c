package dispatch

import "github.com/cottand/ovld/overload"

// Label is a forward jump target within one dispatch routine
type Label int

// Emitter is the code generation capability a backend provides. It models a stack machine:
// loads push values, tests and calls pop them.
//
// Labels are only ever jumped to forwards, and label scopes nest: the label created last
// is always marked first.
type Emitter interface {
	// BeginRoutine starts the dispatch routine name of scope taking arity arguments.
	// slots is the number of descriptor slots the routine uses.
	BeginRoutine(name string, scope overload.Scope, arity int, slots int)
	EndRoutine()

	NewLabel() Label
	MarkLabel(l Label)

	LoadArgument(i int)
	// InstanceOf pops a value and jumps to onFail unless it matches node. On success, the
	// runtime descriptor of every node under node is cached in that node's slot.
	InstanceOf(node *TypeStructure, onFail Label)
	Cast(repr string)
	// LoadGenericDescriptor pushes the descriptor cached in slot
	LoadGenericDescriptor(slot uint16)
	// RuntimeSubtypeCheck pops b, then a, and jumps to onFail unless a <: b
	RuntimeSubtypeCheck(onFail Label)
	// Call pops the arguments of target followed by staticArgs descriptors, and pushes the result
	Call(target overload.CallTarget, signature string, staticArgs int)
	Return()
	// RaiseDispatchFailure aborts: no candidate of the routine applied to the arguments
	RaiseDispatchFailure(routine string)
}
