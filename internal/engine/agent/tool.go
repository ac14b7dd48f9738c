// Package agent implements the tool-loop agent core, the routing-
// fallback agent, and consistency sampling (spec §4.G).
package agent

import (
	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
)

// ToolDispatcher is implemented by package tool and injected here rather
// than imported directly, the same layering workflow uses for
// AgentRunner: agent (built before tool) only needs "run this tool
// call", not the registry's internals.
type ToolDispatcher interface {
	Dispatch(ctx *ectx.ExecutionContext, call contract.ToolCall) (output.Output, error)
}
