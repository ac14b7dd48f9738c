package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
	"github.com/r3e-network/oxy-engine/internal/engine/executable"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// VisualizeConfig configures one Visualize task: it wraps an inner task
// (typically an ExecuteSQL or Formatter task) and surfaces its result as
// a named artifact instead of a plain event stream.
type VisualizeConfig struct {
	TaskName     string
	ArtifactName string
	Inner        Task
}

// Visualize runs Inner and brackets its output with
// ArtifactStarted/ArtifactValue/ArtifactDone events via the Export
// wrapper (spec §4.F Visualize).
type Visualize struct {
	cfg VisualizeConfig
}

// NewVisualize builds a Visualize task.
func NewVisualize(cfg VisualizeConfig) *Visualize {
	return &Visualize{cfg: cfg}
}

// Name returns the task's configured name.
func (t *Visualize) Name() string { return t.cfg.TaskName }

// Execute runs Inner through an artifactExporter.
func (t *Visualize) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	inner := executable.Func[struct{}, output.Container](func(ctx *ectx.ExecutionContext, _ struct{}) (output.Container, error) {
		return t.cfg.Inner.Execute(ctx)
	})
	exp := executable.NewExport[struct{}, output.Container](inner, artifactExporter{name: t.cfg.ArtifactName})
	return exp.Execute(ctx, struct{}{})
}

// artifactExporter implements executable.Exporter, always exporting:
// it emits ArtifactStarted before waiting on the inner task, then
// forwards every buffered event plus an ArtifactValue/ArtifactDone pair
// once the inner task completes.
type artifactExporter struct {
	name string
}

func (artifactExporter) ShouldExport(ctx *ectx.ExecutionContext, _ struct{}) bool { return true }

func (e artifactExporter) Export(ctx *ectx.ExecutionContext, bw *event.BufWriter, _ struct{}, wait func() (output.Container, error)) (output.Container, error) {
	_ = ctx.Emit(event.ArtifactStarted{Name: e.name})

	result, err := wait()
	for _, evt := range bw.Collect() {
		_ = ctx.Writer.Send(ctx.GoContext(), evt)
	}
	if err != nil {
		return nil, err
	}

	var value output.Output = output.Text{}
	if single, ok := result.(output.Single); ok {
		value = single.Output
	}
	_ = ctx.Emit(event.ArtifactValue{Name: e.name, Value: value})
	_ = ctx.Emit(event.ArtifactDone{Name: e.name})
	return result, nil
}
