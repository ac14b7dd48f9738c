package tool

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// FunctionHandler is the body of one native Go tool.
type FunctionHandler func(ctx *ectx.ExecutionContext, rawInput string) (output.Container, error)

// FunctionExecutor adapts a single Go func into an Executor, for tools
// implemented natively rather than via the scripted (goja) path —
// exactly the concrete-type-behind-a-capability-interface shape spec §9
// calls for ("avoid deep inheritance... each tool executor is a concrete
// type behind {execute, can_handle, name}").
type FunctionExecutor struct {
	ToolType Type
	ToolName string
	Handler  FunctionHandler
}

// NewFunctionExecutor builds a FunctionExecutor for one tool type.
func NewFunctionExecutor(t Type, name string, handler FunctionHandler) *FunctionExecutor {
	return &FunctionExecutor{ToolType: t, ToolName: name, Handler: handler}
}

// CanHandle implements Executor.
func (f *FunctionExecutor) CanHandle(t Type) bool { return t == f.ToolType }

// Name implements Executor.
func (f *FunctionExecutor) Name() string { return f.ToolName }

// Execute implements Executor.
func (f *FunctionExecutor) Execute(ctx *ectx.ExecutionContext, t Type, rawInput string) (output.Container, error) {
	return f.Handler(ctx, rawInput)
}
