package pipeline

import "sync/atomic"

// Counters are the run-scoped, atomic counters spec.md §3 requires.
// They are owned by the Coordinator and passed to Readers/Consumers by
// reference — never process-wide statics, per spec.md §9's redesign
// note on "global counters via process-wide statics".
type Counters struct {
	produced       atomic.Uint64
	consumed       atomic.Uint64
	retained       atomic.Uint64
	rejectedParse  atomic.Uint64
	rejectedInsert atomic.Uint64
	offerRefused   atomic.Uint64
}

func (c *Counters) AddProduced(n uint64)       { c.produced.Add(n) }
func (c *Counters) AddConsumed(n uint64)       { c.consumed.Add(n) }
func (c *Counters) AddRetained(n uint64)       { c.retained.Add(n) }
func (c *Counters) AddRejectedParse(n uint64)  { c.rejectedParse.Add(n) }
func (c *Counters) AddRejectedInsert(n uint64) { c.rejectedInsert.Add(n) }
func (c *Counters) AddOfferRefused(n uint64)   { c.offerRefused.Add(n) }

func (c *Counters) Produced() uint64       { return c.produced.Load() }
func (c *Counters) Consumed() uint64       { return c.consumed.Load() }
func (c *Counters) Retained() uint64       { return c.retained.Load() }
func (c *Counters) RejectedParse() uint64  { return c.rejectedParse.Load() }
func (c *Counters) RejectedInsert() uint64 { return c.rejectedInsert.Load() }
func (c *Counters) OfferRefused() uint64   { return c.offerRefused.Load() }
