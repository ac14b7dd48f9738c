// Package executable defines the Executable composition layer (spec §4.D):
// a generic unit of work taking an ExecutionContext plus a typed input and
// producing a typed result or error, plus a family of wrappers (Map, Chain,
// Concurrency, Cache, Fallback, Export, State) that compose around an inner
// Executable without it needing to know it is wrapped.
package executable

import "github.com/r3e-network/oxy-engine/internal/engine/ectx"

// Executable is the base unit of composition. Every task, agent, and
// workflow step in the engine is ultimately an Executable.
type Executable[I, R any] interface {
	Execute(ctx *ectx.ExecutionContext, input I) (R, error)
}

// Func adapts a plain function to the Executable interface.
type Func[I, R any] func(ctx *ectx.ExecutionContext, input I) (R, error)

// Execute calls the underlying function.
func (f Func[I, R]) Execute(ctx *ectx.ExecutionContext, input I) (R, error) {
	return f(ctx, input)
}
