package agent

import (
	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/executable"
	"github.com/r3e-network/oxy-engine/internal/engine/output"
	"github.com/r3e-network/oxy-engine/internal/engine/resilience"
)

// RouterConfig configures the routing-fallback agent. ResponseIsUseful
// decides whether the primary agent's result is acceptable; a REDESIGN
// FLAG in spec §9 made this a pluggable predicate rather than coupling
// it to any one provider's tool-call shape, implemented here exactly as
// a field so callers can supply anything from "non-empty text" to a
// judge-model call.
//
// Breaker, if non-nil, gates the primary agent: once it has tripped open
// from repeated primary failures, RoutingFallback skips calling the
// primary altogether and goes straight to the fallback agent, rather than
// retrying a provider already known to be down.
type RouterConfig struct {
	ResponseIsUseful func(output.Container) bool
	Breaker          *resilience.Breaker
}

// RoutingFallback is the routing-fallback agent (spec §4.G): it runs a
// primary agent, and only on an unacceptable (or errored) result falls
// back to a secondary agent, using the generic Fallback wrapper from
// package executable rather than a bespoke retry loop.
type RoutingFallback struct {
	fb *executable.Fallback[[]contract.ChatMessage, output.Container]
}

// NewRoutingFallback builds a RoutingFallback agent from a primary and a
// fallback Executable (typically two *Core values, or a Core wrapped in
// other executable composition).
func NewRoutingFallback(
	primary executable.Executable[[]contract.ChatMessage, output.Container],
	fallback executable.Executable[[]contract.ChatMessage, output.Container],
	cfg RouterConfig,
) *RoutingFallback {
	primaryStep := executable.Func[[]contract.ChatMessage, output.Container](
		func(ctx *ectx.ExecutionContext, messages []contract.ChatMessage) (output.Container, error) {
			return primary.Execute(ctx, messages)
		},
	)
	var guardedPrimary executable.Executable[[]contract.ChatMessage, output.Container] = primaryStep
	if cfg.Breaker != nil {
		breaker := cfg.Breaker
		guardedPrimary = executable.Func[[]contract.ChatMessage, output.Container](
			func(ctx *ectx.ExecutionContext, messages []contract.ChatMessage) (output.Container, error) {
				return resilience.Guard(breaker, func() (output.Container, error) {
					return primary.Execute(ctx, messages)
				})
			},
		)
	}

	fb := executable.NewFallback[[]contract.ChatMessage, output.Container](
		guardedPrimary,
		cfg.ResponseIsUseful,
		func(ctx *ectx.ExecutionContext, messages []contract.ChatMessage) (output.Container, error) {
			return fallback.Execute(ctx, messages)
		},
		nil,
	)
	return &RoutingFallback{fb: fb}
}

// Execute implements executable.Executable.
func (r *RoutingFallback) Execute(ctx *ectx.ExecutionContext, messages []contract.ChatMessage) (output.Container, error) {
	return r.fb.Execute(ctx, messages)
}
