// Package consumer implements the Filter/Batcher (Consumer) role from
// spec.md §4.4, modeled closely on the pack's tick-ingestion reference
// batchWriter: accumulate survivors into a batch, flush on reaching
// batch size or on exit, commit via the Sink.
package consumer

import (
	"context"
	"time"

	"github.com/hepdata/collider-ingest/internal/buffer"
	"github.com/hepdata/collider-ingest/internal/record"
	"github.com/hepdata/collider-ingest/internal/sink"
	"github.com/hepdata/collider-ingest/internal/telemetry"
)

// Counters is the subset of pipeline-wide counters a Consumer updates.
type Counters interface {
	AddConsumed(n uint64)
	AddRetained(n uint64)
	AddRejectedInsert(n uint64)
}

// Config holds the tunables a Consumer needs beyond its collaborators.
type Config struct {
	Threshold    float64
	BatchSize    int
	TakeTimeout  time.Duration
}

// Consumer takes Items from a Buffer, applies the retention predicate
// (energy > Threshold), accumulates survivors, and flushes full or
// residual batches through a Sink.
type Consumer struct {
	id       int
	buf      *buffer.Buffer
	sink     sink.Sink
	counters Counters
	metrics  *telemetry.Metrics
	log      telemetry.Logger
	cfg      Config

	batch []record.Record
}

// New constructs a Consumer. id is used only for logging.
func New(id int, buf *buffer.Buffer, snk sink.Sink, counters Counters, metrics *telemetry.Metrics, log telemetry.Logger, cfg Config) *Consumer {
	return &Consumer{
		id:       id,
		buf:      buf,
		sink:     snk,
		counters: counters,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
		batch:    make([]record.Record, 0, cfg.BatchSize),
	}
}

// Run takes from the Buffer until it observes the End item or ctx is
// cancelled, per spec.md §4.4's take semantics. In every exit path the
// residual batch is flushed exactly once before Run returns, satisfying
// P7 (spec.md §8).
func (c *Consumer) Run(ctx context.Context) {
	for {
		item, result := c.buf.Take(ctx, c.cfg.TakeTimeout)
		switch result {
		case buffer.TakeItem:
			if item.IsEnd() {
				c.flush()
				return
			}
			c.consume(item.Record())

		case buffer.TakeTimedOut:
			if ctx.Err() != nil {
				c.flush()
				return
			}
			// Buffer was empty and we are not yet terminating; loop
			// and take again. This is the Consumer's only use of the
			// bounded wait: responsiveness to cancellation when idle.
			continue

		case buffer.TakeCancelled:
			c.flush()
			return
		}
	}
}

func (c *Consumer) consume(r record.Record) {
	c.counters.AddConsumed(1)
	if c.metrics != nil {
		c.metrics.Consumed.Inc()
		c.metrics.BufferOccupied.Set(float64(c.buf.Size()))
	}
	if r.Energy() <= c.cfg.Threshold {
		return
	}
	c.counters.AddRetained(1)
	if c.metrics != nil {
		c.metrics.Retained.Inc()
	}
	c.batch = append(c.batch, r)
	if len(c.batch) >= c.cfg.BatchSize {
		c.flush()
	}
}

func (c *Consumer) flush() {
	if len(c.batch) == 0 {
		return
	}
	n := len(c.batch)
	// Flushing must not honor cancellation: a residual flush is
	// required even after the pipeline has been told to stop (spec.md
	// §4.4, §5), so commits always run against a background context.
	err := c.sink.InsertBatch(context.Background(), c.batch)
	if err != nil {
		c.counters.AddRejectedInsert(uint64(n))
		if c.metrics != nil {
			c.metrics.RejectedInsert.Add(float64(n))
		}
		c.log.Errorw("consumer: batch commit failed", "consumer", c.id, "batch_size", n, "error", err)
	} else {
		c.log.Debugw("consumer: batch committed", "consumer", c.id, "batch_size", n)
	}
	c.batch = c.batch[:0]
}
