//go:build js && wasm

package playground

import (
	"context"
	"fmt"
	"syscall/js"
)

// PlanDeclarations compiles the declaration file passed as the only argument
//
// output: { error: string } | { plan: string, goOutput: string }
func PlanDeclarations(_ js.Value, args []js.Value) (ret any) {
	errorObj := func(err string) any {
		return js.ValueOf(map[string]any{
			"error": err,
		})
	}
	defer func() {
		if r := recover(); r != nil {
			ret = errorObj("compiler panicked: " + fmt.Sprint(r))
		}
	}()
	if len(args) != 1 {
		return errorObj(fmt.Sprintf("expected 1 argument, got %d", len(args)))
	}

	res, err := Run(context.Background(), args[0].String(), "main")
	if err != nil {
		return errorObj(Describe(err))
	}
	return js.ValueOf(map[string]any{
		"plan":     res.Plan,
		"goOutput": res.GoOutput,
	})
}
