package workflow

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// AgentRunner is implemented by package agent and injected here rather
// than imported directly, so workflow (built first) does not depend on
// agent (built after it) — the Agent task type only needs "run this
// named agent with this rendered prompt", not the agent core's
// internals.
type AgentRunner interface {
	RunAgent(ctx *ectx.ExecutionContext, agentRef string, promptTemplate string) (output.Container, error)
}

// AgentConfig configures one Agent task.
type AgentConfig struct {
	TaskName       string
	AgentRef       string
	PromptTemplate string
}

// Agent delegates to an injected AgentRunner (spec §4.F Agent task;
// §4.G is the agent core itself).
type Agent struct {
	cfg    AgentConfig
	runner AgentRunner
}

// NewAgent builds an Agent task.
func NewAgent(cfg AgentConfig, runner AgentRunner) *Agent {
	return &Agent{cfg: cfg, runner: runner}
}

// Name returns the task's configured name.
func (t *Agent) Name() string { return t.cfg.TaskName }

// Execute runs the configured agent against the rendered prompt.
func (t *Agent) Execute(ctx *ectx.ExecutionContext) (output.Container, error) {
	return t.runner.RunAgent(ctx, t.cfg.AgentRef, t.cfg.PromptTemplate)
}
