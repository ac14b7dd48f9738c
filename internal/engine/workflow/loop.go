package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/executable"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
)

// DefaultLoopVarName is the render-context key each iteration's item is
// bound under when a task does not configure its own (spec §4.F "a
// special LOOP_VAR_NAME key").
const DefaultLoopVarName = "item"

// LoopSequentialConfig configures one LoopSequential task.
// Concurrency <= 1 runs iterations one at a time (the default); ItemsExpr
// is evaluated once, up front, against the render context in force when
// the task starts (spec §4.F "values are rendered once up front").
type LoopSequentialConfig struct {
	TaskName    string
	ItemsExpr   string
	LoopVarName string
	Concurrency int
	Body        Task
}

// LoopSequential is Map(values) → Concurrency(Chain(task-chain-mapper,
// task-executable)) per spec §4.F's table: items are rendered once, then
// Body runs once per item bounded by Concurrency, each iteration seeing
// its item both under LoopVarName and under Body's own task name in the
// render context, with an iteration index attached for checkpoint
// lookup. A failing iteration does not stop its siblings: its failure is
// recorded as an output.Err at that position in the result List instead
// of short-circuiting the loop.
type LoopSequential struct {
	cfg  LoopSequentialConfig
	eval *render.ExprEvaluator
}

// NewLoopSequential builds a LoopSequential task.
func NewLoopSequential(cfg LoopSequentialConfig, eval *render.ExprEvaluator) *LoopSequential {
	return &LoopSequential{cfg: cfg, eval: eval}
}

// Name returns the task's configured name.
func (t *LoopSequential) Name() string { return t.cfg.TaskName }

// Execute evaluates ItemsExpr once, then dispatches Body once per item.
func (t *LoopSequential) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	raw, err := t.eval.Eval(t.cfg.ItemsExpr, ctx.Render)
	if err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, enginerr.New(enginerr.ValidationError, "loop items expression did not evaluate to a list")
	}

	loopVar := t.cfg.LoopVarName
	if loopVar == "" {
		loopVar = DefaultLoopVarName
	}

	type indexedItem struct {
		index int
		value any
	}
	indexed := make([]indexedItem, len(items))
	for i, v := range items {
		indexed[i] = indexedItem{index: i, value: v}
	}

	inner := executable.Func[indexedItem, output.Container](func(itemCtx *ectx.ExecutionContext, it indexedItem) (output.Container, error) {
		iterCtx := itemCtx.WithRenderValue(map[string]any{
			loopVar:                 it.value,
			t.cfg.Body.Name():       it.value,
			"loop_iteration_index": it.index,
		})
		return t.cfg.Body.Execute(iterCtx)
	})

	limit := t.cfg.Concurrency
	if limit < 1 {
		limit = 1
	}
	conc := executable.NewConcurrency[indexedItem, output.Container](inner, limit)
	results, err := conc.Execute(ctx, indexed)
	if err != nil {
		return nil, err
	}

	containers := make([]output.Container, len(results))
	for i, r := range results {
		if r.Err != nil {
			containers[i] = output.Single{Output: output.Err{Message: r.Err.Error()}}
			continue
		}
		containers[i] = r.Value
	}
	return output.List{Items: containers}, nil
}
