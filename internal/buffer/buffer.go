// Package buffer implements the bounded, multi-producer/multi-consumer
// handoff described in spec.md §4.2: a fixed-capacity FIFO channel
// carrying record.Item, with blocking put, bounded-wait take, and an
// eventually-consistent size observation.
package buffer

import (
	"context"
	"time"

	"github.com/hepdata/collider-ingest/internal/record"
)

// Buffer is a bounded MPMC handoff. The zero value is not usable; use
// New. A Go channel is the idiomatic fit for the FIFO-with-backpressure
// contract spec.md §4.2 requires: capacity is fixed at construction,
// put blocks while full, and no implicit drop/resize/spill policy
// exists anywhere in this type.
type Buffer struct {
	ch chan record.Item
}

// New returns a Buffer with the given positive capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("buffer: capacity must be positive")
	}
	return &Buffer{ch: make(chan record.Item, capacity)}
}

// TryPut attempts to enqueue item, waiting up to timeout. It reports
// whether the item was accepted before the timeout or ctx cancellation
// elapsed. This is the Reader's bounded "offer" (spec.md §4.3): a
// refused offer is not an error, it is a backpressure signal the
// caller can count and then fall back to an unconditional Put.
func (b *Buffer) TryPut(ctx context.Context, item record.Item, timeout time.Duration) (accepted bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case b.ch <- item:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Put enqueues item, blocking until capacity frees, ctx is cancelled,
// or (notably, for sentinel enqueue during drain) forever if ctx is
// context.Background(). It reports whether the item was enqueued
// (false only on cancellation).
func (b *Buffer) Put(ctx context.Context, item record.Item) (enqueued bool) {
	select {
	case b.ch <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

// TakeResult is the outcome of a bounded Take.
type TakeResult int

const (
	TakeItem TakeResult = iota
	TakeTimedOut
	TakeCancelled
)

// Take waits up to timeout for an item, per spec.md §4.2 and the
// Consumer's take semantics in §4.4.
func (b *Buffer) Take(ctx context.Context, timeout time.Duration) (record.Item, TakeResult) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case item := <-b.ch:
		return item, TakeItem
	case <-timer.C:
		return record.Item{}, TakeTimedOut
	case <-ctx.Done():
		return record.Item{}, TakeCancelled
	}
}

// Size is an observational, eventually-consistent count of items
// currently buffered. It exists only for metrics (spec.md §4.2) and
// must never be used to make correctness decisions.
func (b *Buffer) Size() int {
	return len(b.ch)
}

// Capacity returns the fixed capacity given to New.
func (b *Buffer) Capacity() int {
	return cap(b.ch)
}
