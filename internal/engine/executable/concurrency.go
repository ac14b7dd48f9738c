package executable

import (
	"sync"

	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// ItemResult is one item's outcome from a Concurrency wrapper: either a
// Value or an Err, never both, preserving the item's position in the
// input slice regardless of completion order.
type ItemResult[R any] struct {
	Value R
	Err   error
}

// Concurrency runs an inner Executable over a slice of inputs with at
// most Limit in flight at once, returning one ItemResult per input in
// input order. One item's failure does not cancel its siblings (spec
// §4.D Concurrency, §5). Each sibling gets its own OrderedWriter
// partition, created in input order before any goroutine starts, so the
// drained event stream always reflects declaration order even though the
// goroutines themselves finish in any order (spec §8 invariant 2).
type Concurrency[I, R any] struct {
	inner Executable[I, R]
	limit int
}

// NewConcurrency composes a Concurrency wrapper around inner with the
// given in-flight limit (treated as unbounded if <= 0).
func NewConcurrency[I, R any](inner Executable[I, R], limit int) *Concurrency[I, R] {
	return &Concurrency[I, R]{inner: inner, limit: limit}
}

// Execute runs inner once per item in items, bounded by the configured
// concurrency limit, draining every sibling's buffered events to
// ctx.Writer in input order concurrently with the workers themselves.
func (c *Concurrency[I, R]) Execute(ctx *ectx.ExecutionContext, items []I) ([]ItemResult[R], error) {
	results := make([]ItemResult[R], len(items))
	if len(items) == 0 {
		return results, nil
	}

	ow := event.NewOrderedWriter()
	senders := make([]*event.Sender, len(items))
	for i := range items {
		sender, err := ow.CreateWriter(event.DefaultBufferSize)
		if err != nil {
			return results, err
		}
		senders[i] = sender
	}

	limit := c.limit
	if limit <= 0 {
		limit = len(items)
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item I) {
			defer wg.Done()
			defer func() { <-sem }()
			defer senders[i].Close()

			itemCtx := ctx.Child("concurrency-item").WithWriter(senders[i])
			value, err := c.inner.Execute(itemCtx, item)
			results[i] = ItemResult[R]{Value: value, Err: err}
		}(i, item)
	}

	// WriteSender must drain alongside the workers, not after wg.Wait():
	// each sibling's Sender has a bounded buffer (event.DefaultBufferSize),
	// so a sibling emitting more events than that buffer would block on
	// Send forever waiting for a drain that only started once every
	// sibling had already returned.
	drainDone := make(chan error, 1)
	go func() {
		drainDone <- ow.WriteSender(ctx.GoContext(), ctx.Writer)
	}()

	wg.Wait()
	if err := <-drainDone; err != nil {
		return results, err
	}
	return results, nil
}
