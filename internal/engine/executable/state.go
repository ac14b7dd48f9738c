package executable

import "github.com/r3e-network/oxy-engine/internal/engine/ectx"

// StateInput pairs a curried state value with the caller-supplied input,
// the shape an inner Executable wrapped by State actually receives.
type StateInput[S, I any] struct {
	State S
	Input I
}

// State curries a cloned copy of an initial state value into every call,
// so the inner Executable can carry mutable bookkeeping (loop counters,
// running totals, visited sets) across its own internal steps without
// the caller needing to know about it, and without one call's state
// leaking into the next (spec §4.D State).
type State[S, I, R any] struct {
	inner   Executable[StateInput[S, I], R]
	initial S
	clone   func(S) S
}

// NewState composes a State wrapper around inner. clone is optional; when
// nil, the initial value is reused directly (safe for value types with no
// shared mutable substructure, e.g. plain structs of scalars).
func NewState[S, I, R any](inner Executable[StateInput[S, I], R], initial S, clone func(S) S) *State[S, I, R] {
	return &State[S, I, R]{inner: inner, initial: initial, clone: clone}
}

// Execute curries a fresh state value alongside input and delegates to
// inner.
func (s *State[S, I, R]) Execute(ctx *ectx.ExecutionContext, input I) (R, error) {
	st := s.initial
	if s.clone != nil {
		st = s.clone(s.initial)
	}
	return s.inner.Execute(ctx, StateInput[S, I]{State: st, Input: input})
}
