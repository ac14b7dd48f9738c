package workflow

import (
	"fmt"

	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
)

// FormatterConfig configures one Formatter task. Exactly one of Template
// or Script should be set: Template renders text/template against the
// render context; Script runs a goja transform for cases a plain
// template cannot express (arbitrary JSON reshaping, conditionals over
// nested values).
type FormatterConfig struct {
	TaskName string
	Template string
	Script   string
}

// Formatter reshapes upstream task results into a final Text output
// (spec §4.F Formatter).
type Formatter struct {
	cfg       FormatterConfig
	templates *render.TemplateRegistry
	scripts   *render.ScriptRenderer
}

// NewFormatter builds a Formatter task.
func NewFormatter(cfg FormatterConfig, templates *render.TemplateRegistry, scripts *render.ScriptRenderer) *Formatter {
	return &Formatter{cfg: cfg, templates: templates, scripts: scripts}
}

// Name returns the task's configured name.
func (t *Formatter) Name() string { return t.cfg.TaskName }

// Execute runs the configured template or script against the render
// context.
func (t *Formatter) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	if t.cfg.Script != "" {
		result, err := t.scripts.Run(t.cfg.Script, ctx.Render, nil)
		if err != nil {
			return nil, err
		}
		for _, line := range result.Logs {
			_ = ctx.Emit(makeMessage(line))
		}
		return output.Single{Output: output.Text{Text: fmt.Sprint(result.Value)}}, nil
	}

	text, err := t.templates.RenderString(t.cfg.Template, ctx.Render, nil)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.RuntimeError, "rendering formatter template", err)
	}
	return output.Single{Output: output.Text{Text: text}}, nil
}
