package executable

import "github.com/r3e-network/oxy-engine/internal/engine/ectx"

// Mapper adapts an outer input P into the inner Executable's input T,
// optionally deriving a new ExecutionContext (e.g. to overlay render
// values) along the way. Returning a nil context leaves the parent
// context unchanged.
type Mapper[P, T any] interface {
	Map(ctx *ectx.ExecutionContext, input P) (T, *ectx.ExecutionContext, error)
}

// MapperFunc adapts a plain function to the Mapper interface.
type MapperFunc[P, T any] func(ctx *ectx.ExecutionContext, input P) (T, *ectx.ExecutionContext, error)

// Map calls the underlying function.
func (f MapperFunc[P, T]) Map(ctx *ectx.ExecutionContext, input P) (T, *ectx.ExecutionContext, error) {
	return f(ctx, input)
}

// Map is an Executable that reshapes its input via a Mapper before
// delegating to an inner Executable of a different input type (spec
// §4.D Map).
type Map[P, T, R any] struct {
	inner  Executable[T, R]
	mapper Mapper[P, T]
}

// NewMap composes a Map wrapper around inner.
func NewMap[P, T, R any](inner Executable[T, R], mapper Mapper[P, T]) *Map[P, T, R] {
	return &Map[P, T, R]{inner: inner, mapper: mapper}
}

// Execute maps input, then runs the inner Executable.
func (m *Map[P, T, R]) Execute(ctx *ectx.ExecutionContext, input P) (R, error) {
	var zero R
	t, nextCtx, err := m.mapper.Map(ctx, input)
	if err != nil {
		return zero, err
	}
	if nextCtx != nil {
		ctx = nextCtx
	}
	return m.inner.Execute(ctx, t)
}
