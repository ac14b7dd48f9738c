package tool

import (
	"encoding/json"

	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
)

// ScriptConfig pairs one tool Type with its script — each configured
// scripted tool is a distinct Type whose body happens to be
// implemented by a shared goja runtime rather than native Go.
type ScriptConfig struct {
	Type   Type
	Script string
}

// ScriptExecutor runs one or more ScriptConfigs through a shared
// render.ScriptRenderer (spec §4.H Go addition, grounded on
// render.ScriptRenderer/system/tee/script_engine.go's per-call VM
// isolation). The raw tool-call arguments (JSON) are parsed and exposed
// to the script as `input`.
type ScriptExecutor struct {
	scripts   map[Type]string
	renderer  *render.ScriptRenderer
	renderCtx *render.Context
}

// NewScriptExecutor builds a ScriptExecutor serving the given configs.
func NewScriptExecutor(renderer *render.ScriptRenderer, renderCtx *render.Context, configs []ScriptConfig) *ScriptExecutor {
	scripts := make(map[Type]string, len(configs))
	for _, c := range configs {
		scripts[c.Type] = c.Script
	}
	return &ScriptExecutor{scripts: scripts, renderer: renderer, renderCtx: renderCtx}
}

// CanHandle implements Executor.
func (e *ScriptExecutor) CanHandle(t Type) bool {
	_, ok := e.scripts[t]
	return ok
}

// Name implements Executor.
func (e *ScriptExecutor) Name() string { return "script" }

// Execute implements Executor: parses rawInput as JSON, runs the
// registered script, and emits its console.log lines as Message events
// before returning the script's return value as Text.
func (e *ScriptExecutor) Execute(ctx *ectx.ExecutionContext, t Type, rawInput string) (output.Container, error) {
	script, ok := e.scripts[t]
	if !ok {
		return nil, enginerr.New(enginerr.ArgumentError, "script executor cannot handle tool type").WithDetail("tool_type", string(t))
	}

	var input any
	if rawInput != "" {
		if err := json.Unmarshal([]byte(rawInput), &input); err != nil {
			return nil, enginerr.Wrap(enginerr.SerializerError, "failed to parse tool arguments as JSON", err)
		}
	}

	result, err := e.renderer.Run(script, e.renderCtx, input)
	if err != nil {
		return nil, err
	}

	toolCtx := ctx.Child("tool:" + string(t))
	for _, line := range result.Logs {
		_ = toolCtx.Emit(event.Message{Message: line})
	}

	return output.Single{Output: output.Text{Text: toString(result.Value)}}, nil
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
