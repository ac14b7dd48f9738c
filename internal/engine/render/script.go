package render

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// ScriptRenderer runs a user-supplied JavaScript expression against the
// render context in a fresh, isolated goja runtime per call — grounded on
// the teacher's per-invocation VM isolation for sandboxed script
// execution. Used by Formatter tasks and the scripted tool executor that
// need more than text/template interpolation (arbitrary transforms over
// an OutputContainer).
type ScriptRenderer struct {
	mu sync.Mutex
}

// NewScriptRenderer creates a ScriptRenderer.
func NewScriptRenderer() *ScriptRenderer {
	return &ScriptRenderer{}
}

// ScriptResult is what a rendered script produced: its return value plus
// any console.log output, surfaced as Message events by callers.
type ScriptResult struct {
	Value any
	Logs  []string
}

// Run evaluates script with the flattened render context exposed as the
// `ctx` global, and input exposed as `input`.
func (s *ScriptRenderer) Run(script string, ctx *Context, input any) (ScriptResult, error) {
	vm := goja.New()

	var logs []string
	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		logs = append(logs, fmt.Sprint(parts))
		return goja.Undefined()
	})
	_ = vm.Set("console", console)
	_ = vm.Set("ctx", ctx.Resolve())
	_ = vm.Set("input", input)

	val, err := vm.RunString(script)
	if err != nil {
		return ScriptResult{Logs: logs}, enginerr.Wrap(enginerr.RuntimeError, "script execution failed", err)
	}

	return ScriptResult{Value: val.Export(), Logs: logs}, nil
}
