// Package tool implements the tool registry (spec §4.H): a process-wide
// mapping from ToolType discriminant to ToolExecutor, populated additively
// at init and looked up in O(1) per call. Grounded on the teacher's
// RequestRouter.RegisterHandler (system/events/router.go), which keys a
// mutex-guarded map[ServiceType]ServiceHandler the same shape.
package tool

import (
	"sync"

	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/pkg/logger"
)

// Type discriminates a tool (spec's ToolType).
type Type string

// Executor is the capability interface every concrete tool implements
// (spec §4.H: execute, can_handle, name).
type Executor interface {
	// CanHandle reports whether this executor serves the given Type.
	CanHandle(t Type) bool
	// Name returns the executor's registration name, used in logging.
	Name() string
	// Execute runs the tool against the raw (typically JSON) arguments a
	// model supplied and returns an OutputContainer.
	Execute(ctx *ectx.ExecutionContext, t Type, rawInput string) (output.Container, error)
}

// Registry is the process-wide Type -> Executor mapping.
type Registry struct {
	mu        sync.RWMutex
	executors map[Type]Executor
	log       *logger.Logger
}

// NewRegistry builds an empty Registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewDefault("tool-registry")
	}
	return &Registry{executors: make(map[Type]Executor), log: log}
}

// Register adds an executor for one or more tool types it reports
// CanHandle for. Registration is additive: a later Register for a Type
// already present replaces the prior executor (mirrors RegisterHandler's
// overwrite-on-reregister semantics).
func (r *Registry) Register(types []Type, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		if !executor.CanHandle(t) {
			continue
		}
		r.executors[t] = executor
		r.log.WithField("tool_type", string(t)).WithField("executor", executor.Name()).Info("tool registered")
	}
}

// Lookup returns the executor registered for t, if any.
func (r *Registry) Lookup(t Type) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[t]
	return e, ok
}

// Dispatch implements agent.ToolDispatcher: it resolves call.Name as a
// Type, looks up its executor, and runs it against call.Arguments.
func (r *Registry) Dispatch(ctx *ectx.ExecutionContext, call contract.ToolCall) (output.Output, error) {
	t := Type(call.Name)
	executor, ok := r.Lookup(t)
	if !ok {
		return nil, enginerr.New(enginerr.ArgumentError, "no tool registered for type").WithDetail("tool_type", string(t))
	}

	container, err := executor.Execute(ctx, t, call.Arguments)
	if err != nil {
		return nil, enginerr.Wrap(enginerr.RuntimeError, "tool execution failed", err).WithDetail("tool_type", string(t))
	}

	return containerToOutput(container), nil
}

// containerToOutput reduces a tool's OutputContainer result to a single
// Output value for feeding back into the agent's message history as one
// tool-role ChatMessage. Single/Metadata/Consistency unwrap directly; Map
// and List (no single scalar result) fall back to their evaluation-target
// text via TryIntoEvaluationTarget.
func containerToOutput(c output.Container) output.Output {
	switch v := c.(type) {
	case output.Single:
		return v.Output
	case output.Metadata:
		return v.Output
	case output.Consistency:
		return containerToOutput(v.Value)
	default:
		if target, err := output.TryIntoEvaluationTarget(c); err == nil {
			return output.Text{Text: target.Text}
		}
		return output.Text{}
	}
}
