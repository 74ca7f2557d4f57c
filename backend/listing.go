package backend

import (
	"fmt"
	"strings"

	"github.com/cottand/ovld/dispatch"
	"github.com/cottand/ovld/overload"
)

var _ dispatch.Emitter = (*Listing)(nil)

// Listing renders dispatch routines as a textual instruction listing, one instruction
// per line, with labels flush left
type Listing struct {
	lines  []string
	labels int
}

func NewListing() *Listing {
	return &Listing{}
}

func (l *Listing) emit(format string, args ...any) {
	l.lines = append(l.lines, "  "+fmt.Sprintf(format, args...))
}

func (l *Listing) BeginRoutine(name string, _ overload.Scope, arity int, slots int) {
	l.lines = append(l.lines, fmt.Sprintf("routine %s arity=%d slots=%d", name, arity, slots))
}

func (l *Listing) EndRoutine() {
	l.lines = append(l.lines, "end")
}

func (l *Listing) NewLabel() dispatch.Label {
	label := dispatch.Label(l.labels)
	l.labels++
	return label
}

func (l *Listing) MarkLabel(label dispatch.Label) {
	l.lines = append(l.lines, fmt.Sprintf("L%d:", label))
}

func (l *Listing) LoadArgument(i int) { l.emit("load a%d", i) }

func (l *Listing) InstanceOf(node *dispatch.TypeStructure, onFail dispatch.Label) {
	l.emit("instanceof %v else L%d", node, onFail)
}

func (l *Listing) Cast(repr string) { l.emit("cast %s", repr) }

func (l *Listing) LoadGenericDescriptor(slot uint16) { l.emit("descriptor @%d", slot) }

func (l *Listing) RuntimeSubtypeCheck(onFail dispatch.Label) {
	l.emit("subtype else L%d", onFail)
}

func (l *Listing) Call(target overload.CallTarget, signature string, staticArgs int) {
	if staticArgs > 0 {
		l.emit("call %v %s %s +%d", target, target.Member, signature, staticArgs)
		return
	}
	l.emit("call %v %s %s", target, target.Member, signature)
}

func (l *Listing) Return() { l.emit("return") }

func (l *Listing) RaiseDispatchFailure(routine string) { l.emit("fail %s", routine) }

func (l *Listing) Lines() []string { return l.lines }

func (l *Listing) String() string {
	return strings.Join(l.lines, "\n")
}
