// Package fsm implements the FSM runner (spec §4.E) driving agent
// tool-loops: a Machine advances a typed State through Steps chosen by
// Triggers, with a dedicated error-recovery path, grounded on the
// teacher's retry/backoff loop shape in infrastructure/resilience and
// infrastructure/fallback, generalized from "retry the same call" into
// "pick the next Step from the current State".
package fsm

import "github.com/r3e-network/oxy-engine/internal/engine/ectx"

// Step is one transition in the machine: given the current state, it
// produces a new state or an error. Name identifies it in StepStarted/
// StepFinished events.
type Step[S any] interface {
	Name() string
	Execute(ctx *ectx.ExecutionContext, state S) (S, error)
}

// StepFunc adapts a plain function to the Step interface.
type StepFunc[S any] struct {
	StepName string
	Fn       func(ctx *ectx.ExecutionContext, state S) (S, error)
}

// Name returns the step's name.
func (f StepFunc[S]) Name() string { return f.StepName }

// Execute calls the underlying function.
func (f StepFunc[S]) Execute(ctx *ectx.ExecutionContext, state S) (S, error) {
	return f.Fn(ctx, state)
}
