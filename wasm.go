//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/ovld/playground"
)

func main() {
	js.Global().Set("PlanDeclarations", js.FuncOf(playground.PlanDeclarations))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
