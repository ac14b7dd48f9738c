package executable

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// Fallback runs an inner Executable into a private buffer, and either
// keeps its result (forwarding only the events EventPredicate accepts) or
// discards the attempt entirely and runs FallbackFn instead, on whichever
// input produced the rejected attempt (spec §4.D Fallback; backs the
// routing-fallback agent of §4.G). Grounded on the teacher's
// infrastructure/fallback/fallback.go retry-on-rejection shape, adapted
// from a retry loop into a single alternate-path choice plus buffered
// event filtering.
type Fallback[I, R any] struct {
	inner          Executable[I, R]
	condition      func(R) bool
	fallbackFn     func(ctx *ectx.ExecutionContext, input I) (R, error)
	eventPredicate func(event.Event) bool
}

// NewFallback composes a Fallback wrapper around inner. condition decides
// whether the inner result is acceptable; fallbackFn runs instead when it
// is not (or when inner errors); eventPredicate selects which of the
// inner attempt's events survive when its result is accepted (nil keeps
// every event).
func NewFallback[I, R any](
	inner Executable[I, R],
	condition func(R) bool,
	fallbackFn func(ctx *ectx.ExecutionContext, input I) (R, error),
	eventPredicate func(event.Event) bool,
) *Fallback[I, R] {
	if eventPredicate == nil {
		eventPredicate = func(event.Event) bool { return true }
	}
	return &Fallback[I, R]{inner: inner, condition: condition, fallbackFn: fallbackFn, eventPredicate: eventPredicate}
}

// Wrap implements the Wrap[I, R] protocol so Fallback can be composed via
// Builder.
func (f *Fallback[I, R]) Wrap(inner Executable[I, R]) Executable[I, R] {
	f.inner = inner
	return f
}

// Execute runs inner into a private buffer; if its result passes
// condition, the buffered events matching eventPredicate are forwarded to
// ctx.Writer and the result is returned. Otherwise the buffered events are
// discarded and fallbackFn runs directly against ctx.Writer.
func (f *Fallback[I, R]) Execute(ctx *ectx.ExecutionContext, input I) (R, error) {
	bw := event.NewBufWriter()
	sender, err := bw.CreateWriter(event.DefaultBufferSize)
	if err != nil {
		var zero R
		return zero, err
	}

	attemptCtx := ctx.Child("fallback-attempt").WithWriter(sender)

	type outcome struct {
		result R
		err    error
	}
	attemptDone := make(chan outcome, 1)
	go func() {
		defer sender.Close()
		result, innerErr := f.inner.Execute(attemptCtx, input)
		attemptDone <- outcome{result: result, err: innerErr}
	}()

	// Collect must run concurrently with the inner attempt, not after it:
	// sender's buffer is bounded, so draining it only once the attempt has
	// already returned would deadlock as soon as the attempt emits more
	// events than the buffer holds (e.g. an agent attempt streaming
	// Updated{chunk} events). Whether to keep or discard what it collected
	// is decided afterward, once the attempt's result is known.
	collected := make(chan []event.Event, 1)
	go func() {
		collected <- bw.Collect()
	}()

	o := <-attemptDone
	events := <-collected

	if o.err == nil && f.condition(o.result) {
		for _, e := range events {
			if !f.eventPredicate(e) {
				continue
			}
			if err := ctx.Writer.Send(ctx.GoContext(), e); err != nil {
				return o.result, err
			}
		}
		return o.result, nil
	}

	return f.fallbackFn(ctx, input)
}
