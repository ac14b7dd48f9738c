// Package workflow implements the task graph → executables layer (spec
// §4.F): ExecuteSQL, Agent, LoopSequential, Conditional, sub-Workflow,
// Formatter, Visualize, and OmniQuery/SemanticQuery tasks. Workflow runs
// each task directly: it does not wrap tasks in Export, Cache or
// StepTrigger, and only Visualize uses Export internally.
package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// Task is one named step of a Workflow. Execute receives an
// ExecutionContext already scoped to this task (render context carries
// every prior sibling's result under its own name, per Workflow.Execute).
type Task interface {
	Name() string
	Execute(ctx *ectx.ExecutionContext) (output.Container, error)
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx *ectx.ExecutionContext) (output.Container, error)
}

// Name returns the task's name.
func (f TaskFunc) Name() string { return f.TaskName }

// Execute calls the underlying function.
func (f TaskFunc) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	return f.Fn(ctx)
}
