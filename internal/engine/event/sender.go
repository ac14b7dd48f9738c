package event

import (
	"context"
	"sync"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// DefaultBufferSize is the default bounded-channel capacity for a Sender,
// per spec §4.A.
const DefaultBufferSize = 100

// EventHandler is the terminal consumer of a stream of events — the only
// contract persistence, formatting, and UI-streaming sinks need to
// implement (spec §6).
type EventHandler interface {
	HandleEvent(Event) error
}

// EventHandlerFunc adapts a function to an EventHandler.
type EventHandlerFunc func(Event) error

func (f EventHandlerFunc) HandleEvent(e Event) error { return f(e) }

// Sender is a bounded channel endpoint producers send events on. Within a
// single Sender, events arrive in send order (FIFO); a bounded channel is
// the engine's sole backpressure mechanism — producers block when the
// reader lags. Send never silently drops a message: it either succeeds,
// blocks, or fails because the caller's context was cancelled (the
// receiver having gone away).
type Sender struct {
	ch        chan Event
	closeOnce sync.Once
}

// NewSender creates a Sender with the given buffer capacity (DefaultBufferSize
// if non-positive).
func NewSender(bufSize int) *Sender {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Sender{ch: make(chan Event, bufSize)}
}

// Send delivers an event, blocking under backpressure until the reader
// drains or ctx is cancelled.
func (s *Sender) Send(ctx context.Context, e Event) error {
	select {
	case s.ch <- e:
		return nil
	case <-ctx.Done():
		return enginerr.Cancellation("event send cancelled: receiver gone")
	}
}

// Close signals that no further events will be sent. Safe to call more
// than once; only the first call takes effect.
func (s *Sender) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Events exposes the underlying receive channel for draining.
func (s *Sender) Events() <-chan Event {
	return s.ch
}
