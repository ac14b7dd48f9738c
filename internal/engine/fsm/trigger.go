package fsm

import "github.com/r3e-network/oxy-engine/internal/engine/ectx"

// Trigger decides the next Step to run given the current state, or
// reports that the machine has reached its end state (ok == false).
// Machine uses one Trigger to pick the very first step and a second one
// (which may be the same value) to pick every subsequent step, matching
// the start → first_trigger → loop(next_trigger) → end shape of spec
// §4.E — agents typically use a different first_trigger (always "call
// the model") from next_trigger (stop once the model returns no tool
// calls).
type Trigger[S any] interface {
	Next(ctx *ectx.ExecutionContext, state S) (Step[S], bool, error)
}

// TriggerFunc adapts a plain function to the Trigger interface.
type TriggerFunc[S any] func(ctx *ectx.ExecutionContext, state S) (Step[S], bool, error)

// Next calls the underlying function.
func (f TriggerFunc[S]) Next(ctx *ectx.ExecutionContext, state S) (Step[S], bool, error) {
	return f(ctx, state)
}

// Recovery tells the Machine how to proceed after ErrorHandler has
// produced a (possibly repaired) state for a failed step.
type Recovery int

const (
	// RecoveryAbort stops the machine, surfacing the original error.
	RecoveryAbort Recovery = iota
	// RecoveryContinue resumes the loop from the repaired state via
	// NextTrigger, treating the error as handled.
	RecoveryContinue
)

// ErrorHandler is the machine's handle_error state: given the state as of
// the failed step and the error it returned, it decides whether to abort
// or continue, optionally repairing the state first (e.g. appending an
// error-recovery message to a tool-loop's conversation history).
type ErrorHandler[S any] interface {
	HandleError(ctx *ectx.ExecutionContext, state S, err error) (S, Recovery, error)
}

// ErrorHandlerFunc adapts a plain function to the ErrorHandler interface.
type ErrorHandlerFunc[S any] func(ctx *ectx.ExecutionContext, state S, err error) (S, Recovery, error)

// HandleError calls the underlying function.
func (f ErrorHandlerFunc[S]) HandleError(ctx *ectx.ExecutionContext, state S, err error) (S, Recovery, error) {
	return f(ctx, state, err)
}

// AbortOnError is the default ErrorHandler: it never recovers, it always
// aborts with the original error and the state unchanged.
func AbortOnError[S any]() ErrorHandler[S] {
	return ErrorHandlerFunc[S](func(ctx *ectx.ExecutionContext, state S, err error) (S, Recovery, error) {
		return state, RecoveryAbort, nil
	})
}
