package fsm

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// StepTrigger adapts a Step into an Executable[S, S] that emits
// StepStarted/StepFinished around it, so a single step can be composed
// with the Cache/Fallback/Export wrappers in package executable just
// like any other Executable, outside of a full Machine run (e.g. running
// one workflow task standalone, or unit-testing a step in isolation).
type StepTrigger[S any] struct {
	step Step[S]
}

// NewStepTrigger wraps step as a standalone Executable.
func NewStepTrigger[S any](step Step[S]) *StepTrigger[S] {
	return &StepTrigger[S]{step: step}
}

// Execute runs the step in a child scope, emitting StepStarted before and
// StepFinished after.
func (t *StepTrigger[S]) Execute(ctx *ectx.ExecutionContext, state S) (S, error) {
	stepCtx := ctx.Child("fsm-step")
	_ = stepCtx.Emit(event.StepStarted{Step: t.step.Name()})

	newState, err := t.step.Execute(stepCtx, state)

	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}
	_ = stepCtx.Emit(event.StepFinished{Step: t.step.Name(), Error: errMessage})

	return newState, err
}
