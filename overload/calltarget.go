package overload

import "fmt"

// CallKind is how a chosen member is invoked
type CallKind int

const (
	// StaticFunction calls a top-level function of Owner (a module or API)
	StaticFunction CallKind = iota
	// InterfaceMethod calls through the dispatch table of the trait Owner
	InterfaceMethod
	// VirtualMethod calls a method of the object class Owner
	VirtualMethod
)

func (k CallKind) String() string {
	switch k {
	case InterfaceMethod:
		return "interface"
	case VirtualMethod:
		return "virtual"
	default:
		return "static"
	}
}

// CallTarget identifies the code to invoke once dispatch picked a member
type CallTarget struct {
	Kind  CallKind
	Name  string
	Owner string
	// Member is the Key of the chosen member, which tells same-named overloads apart
	Member string
	// Self is the argument position of the receiver, or NoSelf
	Self int
}

func (t CallTarget) String() string {
	if t.Owner == "" {
		return fmt.Sprintf("%v %s", t.Kind, t.Name)
	}
	return fmt.Sprintf("%v %s.%s", t.Kind, t.Owner, t.Name)
}

func callKindFor(kind OwnerKind) CallKind {
	switch kind {
	case TraitMember:
		return InterfaceMethod
	case ObjectMember:
		return VirtualMethod
	default:
		return StaticFunction
	}
}
