package executable

import (
	"github.com/r3e-network/oxy-engine/internal/engine/ectx"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// Exporter decides, per call, whether to run inner directly or to take
// over its event stream — e.g. to write an ArtifactStarted/ArtifactValue/
// ArtifactDone triple around the inner result instead of letting its raw
// events pass through untouched (spec §4.D Export; backs artifact
// export in the §4.F Visualize task).
type Exporter[I, R any] interface {
	ShouldExport(ctx *ectx.ExecutionContext, input I) bool
	// Export owns the private buffer bw that inner is writing to; it
	// must call wait to obtain inner's result (blocking until the inner
	// goroutine completes) and is responsible for draining bw itself
	// (e.g. via bw.WriteToHandler or bw.Filter) before returning.
	Export(ctx *ectx.ExecutionContext, bw *event.BufWriter, input I, wait func() (R, error)) (R, error)
}

// Export wraps an inner Executable so an Exporter can intercept its event
// stream when ShouldExport says so, and passes events straight through
// otherwise.
type Export[I, R any] struct {
	inner    Executable[I, R]
	exporter Exporter[I, R]
}

// NewExport composes an Export wrapper around inner.
func NewExport[I, R any](inner Executable[I, R], exporter Exporter[I, R]) *Export[I, R] {
	return &Export[I, R]{inner: inner, exporter: exporter}
}

// NewExportWrap creates an Export with no inner set, for use with
// Builder.With.
func NewExportWrap[I, R any](exporter Exporter[I, R]) *Export[I, R] {
	return &Export[I, R]{exporter: exporter}
}

// Wrap implements the Wrap[I, R] protocol so Export can be composed via
// Builder.
func (e *Export[I, R]) Wrap(inner Executable[I, R]) Executable[I, R] {
	e.inner = inner
	return e
}

// Execute runs inner directly when the exporter opts out, or hands the
// exporter control of inner's buffered event stream otherwise.
func (e *Export[I, R]) Execute(ctx *ectx.ExecutionContext, input I) (R, error) {
	if !e.exporter.ShouldExport(ctx, input) {
		return e.inner.Execute(ctx, input)
	}

	bw := event.NewBufWriter()
	sender, err := bw.CreateWriter(event.DefaultBufferSize)
	if err != nil {
		var zero R
		return zero, err
	}

	innerCtx := ctx.Child("export").WithWriter(sender)

	type outcome struct {
		value R
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer sender.Close()
		value, err := e.inner.Execute(innerCtx, input)
		done <- outcome{value: value, err: err}
	}()

	wait := func() (R, error) {
		o := <-done
		return o.value, o.err
	}
	return e.exporter.Export(ctx, bw, input, wait)
}
