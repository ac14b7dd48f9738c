package event

import (
	"context"
	"sync"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// BufWriter owns exactly one receiver, created by a single CreateWriter
// call. It drains that receiver to either another Sender (ForwardTo), a
// terminal handler (WriteToHandler), a predicate-filtered split (Filter),
// or a plain slice (Collect) — the last is what the Fallback and Export
// wrappers use to buffer an attempt's events (spec §4.A, §4.D).
type BufWriter struct {
	mu      sync.Mutex
	sender  *Sender
	created bool
}

// NewBufWriter creates an empty BufWriter.
func NewBufWriter() *BufWriter {
	return &BufWriter{}
}

// CreateWriter allocates the single Sender this BufWriter will drain. A
// second call returns an error.
func (b *BufWriter) CreateWriter(bufSize int) (*Sender, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.created {
		return nil, enginerr.New(enginerr.RuntimeError, "BufWriter.CreateWriter called more than once")
	}
	b.created = true
	b.sender = NewSender(bufSize)
	return b.sender, nil
}

// ForwardTo drains every event to sink, in FIFO order, until the Sender
// feeding this BufWriter is closed.
func (b *BufWriter) ForwardTo(ctx context.Context, sink *Sender) error {
	for e := range b.sender.Events() {
		if err := sink.Send(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// WriteToHandler drains every event directly to a terminal handler.
func (b *BufWriter) WriteToHandler(handler EventHandler) error {
	for e := range b.sender.Events() {
		if err := handler.HandleEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// Filter forwards events matching predicate to sink (in order) and
// collects the rest, returning the discarded events once the feeding
// Sender is closed.
func (b *BufWriter) Filter(ctx context.Context, predicate func(Event) bool, sink *Sender) ([]Event, error) {
	var discarded []Event
	for e := range b.sender.Events() {
		if predicate(e) {
			if err := sink.Send(ctx, e); err != nil {
				return discarded, err
			}
		} else {
			discarded = append(discarded, e)
		}
	}
	return discarded, nil
}

// Collect drains every event into a slice without forwarding it anywhere,
// used by tests, by Fallback on every attempt (it then filters or drops
// the collected events itself), and by the Visualize task's exporter.
func (b *BufWriter) Collect() []Event {
	var events []Event
	for e := range b.sender.Events() {
		events = append(events, e)
	}
	return events
}
