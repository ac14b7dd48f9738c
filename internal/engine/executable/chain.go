package executable

import "github.com/r3e-network/oxy-engine/internal/engine/ectx"

// ChainInput is the input to a Chain Executable: the items to fold over
// plus the accumulator's initial value.
type ChainInput[I, M any] struct {
	Items   []I
	Initial M
}

// Combine folds one item's inner result into the running accumulator.
// Returning a non-nil ExecutionContext overlays render values visible to
// the next iteration (e.g. the running memo itself, for LOOP_VAR_NAME-
// style access).
type Combine[I, V, M any] func(ctx *ectx.ExecutionContext, memo M, item I, result V) (M, *ectx.ExecutionContext, error)

// Chain runs an inner Executable once per item, left to right, threading
// an accumulator through a Combine step (spec §4.D Chain; backs
// workflow LoopSequential). A Combine or inner error stops the fold
// immediately and returns the accumulator as of the last successful step.
type Chain[I, V, M any] struct {
	inner   Executable[I, V]
	combine Combine[I, V, M]
}

// NewChain composes a Chain wrapper around inner.
func NewChain[I, V, M any](inner Executable[I, V], combine Combine[I, V, M]) *Chain[I, V, M] {
	return &Chain[I, V, M]{inner: inner, combine: combine}
}

// Execute folds inner.Execute over input.Items starting from input.Initial.
func (c *Chain[I, V, M]) Execute(ctx *ectx.ExecutionContext, input ChainInput[I, M]) (M, error) {
	memo := input.Initial
	for _, item := range input.Items {
		iterCtx := ctx.Child("loop-iteration")
		result, err := c.inner.Execute(iterCtx, item)
		if err != nil {
			return memo, err
		}
		next, nextCtx, err := c.combine(iterCtx, memo, item, result)
		if err != nil {
			return memo, err
		}
		memo = next
		if nextCtx != nil {
			ctx = nextCtx
		}
	}
	return memo, nil
}
