package fsm

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// Machine runs a typed FSM: start → FirstTrigger → loop(execute step,
// NextTrigger, on error ErrorHandler) → end. Every executed step is
// wrapped so it emits a StepStarted event before running and a
// StepFinished event (carrying the error message, if any) after —
// independent of whether the step ultimately succeeds, fails-and-aborts,
// or fails-and-recovers.
type Machine[S any] struct {
	FirstTrigger Trigger[S]
	NextTrigger  Trigger[S]
	ErrorHandler ErrorHandler[S]
}

// NewMachine builds a Machine. A nil errorHandler defaults to
// AbortOnError.
func NewMachine[S any](firstTrigger, nextTrigger Trigger[S], errorHandler ErrorHandler[S]) *Machine[S] {
	if errorHandler == nil {
		errorHandler = AbortOnError[S]()
	}
	return &Machine[S]{FirstTrigger: firstTrigger, NextTrigger: nextTrigger, ErrorHandler: errorHandler}
}

// Run drives the machine from initial state to its end state (the first
// point at which a Trigger reports ok == false), returning the final
// state and, if the machine aborted, the error that caused it.
func (m *Machine[S]) Run(ctx *ectx.ExecutionContext, initial S) (S, error) {
	state := initial

	step, ok, err := m.FirstTrigger.Next(ctx, state)
	if err != nil {
		return state, err
	}

	for ok {
		next, stepErr := m.runStep(ctx, step, state)
		if stepErr != nil {
			repaired, recovery, handlerErr := m.ErrorHandler.HandleError(ctx, state, stepErr)
			if handlerErr != nil {
				return state, handlerErr
			}
			if recovery == RecoveryAbort {
				return repaired, stepErr
			}
			state = repaired
		} else {
			state = next
		}

		step, ok, err = m.NextTrigger.Next(ctx, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

// runStep executes one step wrapped with StepStarted/StepFinished
// events, in a child scope of ctx (spec §4.E StepTrigger).
func (m *Machine[S]) runStep(ctx *ectx.ExecutionContext, step Step[S], state S) (S, error) {
	stepCtx := ctx.Child("fsm-step")
	_ = stepCtx.Emit(event.StepStarted{Step: step.Name()})

	newState, err := step.Execute(stepCtx, state)

	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}
	_ = stepCtx.Emit(event.StepFinished{Step: step.Name(), Error: errMessage})

	return newState, err
}
