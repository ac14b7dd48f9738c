package executable

import "github.com/r3e-network/oxy-engine/internal/engine/ectx"

// Wrap is the composition protocol shared by wrappers that preserve the
// inner Executable's input/result shape (Cache, Fallback, Export). Go's
// generics cannot express this uniformly across shape-changing wrappers
// like Map or Chain (their inner input/result types differ from the
// outer ones), so those are composed directly rather than through Wrap —
// see DESIGN.md.
type Wrap[I, R any] interface {
	Wrap(inner Executable[I, R]) Executable[I, R]
}

// Builder fluently composes Wrap-protocol wrappers around a base
// Executable, innermost call first, matching the order tasks are built in
// spec §4.F ("every task is wrapped with Export, then Cache, then a
// StepTrigger").
type Builder[I, R any] struct {
	base Executable[I, R]
}

// NewBuilder starts a Builder from a base Executable.
func NewBuilder[I, R any](base Executable[I, R]) *Builder[I, R] {
	return &Builder[I, R]{base: base}
}

// With applies one wrapper, replacing the builder's current base with the
// wrapped result.
func (b *Builder[I, R]) With(w Wrap[I, R]) *Builder[I, R] {
	b.base = w.Wrap(b.base)
	return b
}

// Build returns the fully composed Executable.
func (b *Builder[I, R]) Build() Executable[I, R] {
	return b.base
}
