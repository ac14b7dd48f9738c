package event

import (
	"context"
	"sync"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
)

// OrderedWriter holds an ordered list of receivers, one per
// CreateWriter call. It is the mechanism by which the Concurrency wrapper
// preserves deterministic downstream event order across parallel
// sibling scopes: WriteSender/WriteToHandler drain partitions strictly
// in the order they were created, regardless of the real-time order in
// which the underlying goroutines finished (spec §4.A, §8 invariant 2).
type OrderedWriter struct {
	mu         sync.Mutex
	partitions []*BufWriter
}

// NewOrderedWriter creates an empty OrderedWriter.
func NewOrderedWriter() *OrderedWriter {
	return &OrderedWriter{}
}

// CreateWriter allocates the next partition (in creation order) and
// returns the Sender a sibling task should emit events on.
func (o *OrderedWriter) CreateWriter(bufSize int) (*Sender, error) {
	bw := NewBufWriter()
	sender, err := bw.CreateWriter(bufSize)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.partitions = append(o.partitions, bw)
	o.mu.Unlock()

	return sender, nil
}

func (o *OrderedWriter) snapshot() []*BufWriter {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*BufWriter(nil), o.partitions...)
}

// WritePartition drains a single partition by index.
func (o *OrderedWriter) WritePartition(ctx context.Context, i int, sink *Sender) error {
	partitions := o.snapshot()
	if i < 0 || i >= len(partitions) {
		return enginerr.New(enginerr.ArgumentError, "partition index out of range")
	}
	return partitions[i].ForwardTo(ctx, sink)
}

// WriteSender drains every partition, in creation order, to completion
// before moving to the next — sibling-creation order, not completion
// order.
func (o *OrderedWriter) WriteSender(ctx context.Context, sink *Sender) error {
	for _, bw := range o.snapshot() {
		if err := bw.ForwardTo(ctx, sink); err != nil {
			return err
		}
	}
	return nil
}

// WriteToHandler drains every partition, in creation order, directly to a
// terminal handler.
func (o *OrderedWriter) WriteToHandler(handler EventHandler) error {
	for _, bw := range o.snapshot() {
		if err := bw.WriteToHandler(handler); err != nil {
			return err
		}
	}
	return nil
}

// Len reports how many partitions have been created so far.
func (o *OrderedWriter) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.partitions)
}
