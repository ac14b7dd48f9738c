package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// Workflow runs an ordered sequence of Tasks, threading each completed
// task's result into the render context (under its own name) so later
// tasks can reference earlier ones, and accumulating results into a
// Map container keyed by task name in declaration order (spec scenario
// S1). A task's own error stops the workflow immediately and is
// returned wrapped as a RuntimeError naming the task — unlike LoopSequential's per-iteration policy, a
// top-level task failing is not recoverable without an explicit
// Conditional/Fallback around it.
type Workflow struct {
	name  string
	Tasks []Task
}

// NewWorkflow builds a Workflow from an ordered task list.
func NewWorkflow(name string, tasks []Task) *Workflow {
	return &Workflow{name: name, Tasks: tasks}
}

// Name implements Task, so a Workflow can be nested as a sub-workflow
// task inside another Workflow.
func (w *Workflow) Name() string { return w.name }

// Execute implements Task, so a Workflow can be nested as a sub-workflow
// task inside another Workflow (spec §4.F "Workflow" task type).
func (w *Workflow) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	if len(w.Tasks) == 0 {
		return output.Map{}, nil
	}

	result := output.Map{}
	for _, task := range w.Tasks {
		taskCtx := ctx.Child("task:" + task.Name())
		container, err := task.Execute(taskCtx)
		if err != nil {
			return result, enginerr.Wrap(enginerr.RuntimeError, "task \""+task.Name()+"\" failed", err)
		}
		result = result.With(task.Name(), container)
		ctx = ctx.WithRenderValue(map[string]any{task.Name(): containerRenderValue(container)})
	}
	return result, nil
}

// containerRenderValue reduces a Container to a plain Go value suitable
// for template/expression rendering: Single/Metadata unwrap to their
// Output's rendered string, Map/List pass through structurally so
// downstream project_ref-style expressions can still navigate them.
func containerRenderValue(c output.Container) any {
	switch v := c.(type) {
	case output.Single:
		return output.String(v.Output)
	case output.Metadata:
		return output.String(v.Output)
	case output.Consistency:
		return containerRenderValue(v.Value)
	case output.Map:
		m := make(map[string]any, len(v.Entries))
		for _, e := range v.Entries {
			m[e.Key] = containerRenderValue(e.Value)
		}
		return m
	case output.List:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = containerRenderValue(item)
		}
		return items
	default:
		return nil
	}
}
