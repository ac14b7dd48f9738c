package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
)

// ConditionalConfig configures one Conditional task. Else may be nil, in
// which case a false branch yields a bare Bool(false) output instead of
// running a task.
type ConditionalConfig struct {
	TaskName string
	IfExpr   string
	Then     Task
	Else     Task
}

// Conditional evaluates IfExpr via the gval-backed expression renderer
// and runs Then or Else accordingly (spec §4.F Conditional).
type Conditional struct {
	cfg  ConditionalConfig
	eval *render.ExprEvaluator
}

// NewConditional builds a Conditional task.
func NewConditional(cfg ConditionalConfig, eval *render.ExprEvaluator) *Conditional {
	return &Conditional{cfg: cfg, eval: eval}
}

// Name returns the task's configured name.
func (t *Conditional) Name() string { return t.cfg.TaskName }

// Execute evaluates the predicate and delegates to the matching branch.
func (t *Conditional) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	matched, err := t.eval.EvalBool(t.cfg.IfExpr, ctx.Render)
	if err != nil {
		return nil, err
	}

	if matched {
		return t.cfg.Then.Execute(ctx.Child("conditional-then"))
	}
	if t.cfg.Else == nil {
		return output.Single{Output: output.Bool{Value: false}}, nil
	}
	return t.cfg.Else.Execute(ctx.Child("conditional-else"))
}
