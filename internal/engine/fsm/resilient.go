package fsm

import (
	"time"

	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/resilience"
)

// RetryingErrorHandler builds an ErrorHandler backed by exponential
// backoff: a failed step is paced and retried until cfg's attempts are
// exhausted, at which point the machine aborts with the original error.
// If breaker is non-nil, every failure is also recorded against it first,
// so a dependency that keeps failing across many machine runs stops being
// retried immediately once the breaker trips open. repair optionally
// patches the state before the retried step runs (e.g. appending an
// error-recovery message to a tool-loop's conversation history).
func RetryingErrorHandler[S any](cfg resilience.RetryConfig, breaker *resilience.Breaker, repair func(state S, err error) S) ErrorHandler[S] {
	bo := resilience.NewBackoff(cfg)
	return ErrorHandlerFunc[S](func(ctx *ectx.ExecutionContext, state S, err error) (S, Recovery, error) {
		if breaker != nil {
			// Guard always reports err to the breaker as a failure; bErr
			// diverges from err only when the breaker itself refused the
			// call (open/half-open-saturated), which aborts immediately
			// rather than spending a retry attempt on a known-bad
			// dependency.
			if _, bErr := resilience.Guard(breaker, func() (any, error) { return nil, err }); bErr != nil && bErr != err {
				return state, RecoveryAbort, bErr
			}
		}
		delay, ok := bo.Next()
		if !ok {
			return state, RecoveryAbort, err
		}
		time.Sleep(delay)
		if repair != nil {
			state = repair(state, err)
		}
		return state, RecoveryContinue, nil
	})
}
