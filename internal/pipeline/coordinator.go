// Package pipeline implements the Pipeline Coordinator from spec.md
// §4.5: it constructs the Buffer, Readers and Consumers, sequences
// start/drain/abort, and owns the run-scoped counters. The shutdown
// sequencing is modeled on the teacher CLI's consume command (signal
// handling, context cancellation, a done channel awaited under a
// second select) and on the pack's tick-ingestion pipeline reference
// (wg.Wait raced against a grace-period timer).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hepdata/collider-ingest/internal/buffer"
	"github.com/hepdata/collider-ingest/internal/consumer"
	"github.com/hepdata/collider-ingest/internal/parse"
	"github.com/hepdata/collider-ingest/internal/reader"
	"github.com/hepdata/collider-ingest/internal/record"
	"github.com/hepdata/collider-ingest/internal/sink"
	"github.com/hepdata/collider-ingest/internal/telemetry"
)

// State is one of the lifecycle states spec.md §4.5 names.
type State int

const (
	Idle State = iota
	Starting
	Running
	Draining
	Aborting
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Aborting:
		return "Aborting"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Config collects every construction parameter spec.md §4.5 and §6 name.
type Config struct {
	ProducerCount   int
	ConsumerCount   int
	BufferCapacity  int
	BatchSize       int
	EnergyThreshold float64
	OfferTimeout    time.Duration
	TakeTimeout     time.Duration
	AbortGrace      time.Duration
}

// DefaultConfig matches spec.md §6's configuration table.
func DefaultConfig() Config {
	return Config{
		ProducerCount:   4,
		ConsumerCount:   4,
		BufferCapacity:  20000,
		BatchSize:       1000,
		EnergyThreshold: 50.0,
		OfferTimeout:    time.Second,
		TakeTimeout:     time.Second,
		AbortGrace:      10 * time.Second,
	}
}

// Validate rejects non-positive required parameters as a
// ConfigurationError (spec.md §7.5): no worker is launched on failure.
func (c Config) Validate() error {
	if c.ProducerCount <= 0 {
		return fmt.Errorf("%w: producerCount must be positive, got %d", ErrConfiguration, c.ProducerCount)
	}
	if c.ConsumerCount <= 0 {
		return fmt.Errorf("%w: consumerCount must be positive, got %d", ErrConfiguration, c.ConsumerCount)
	}
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("%w: bufferCapacity must be positive, got %d", ErrConfiguration, c.BufferCapacity)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batchSize must be positive, got %d", ErrConfiguration, c.BatchSize)
	}
	return nil
}

// ErrConfiguration wraps every ConfigurationError the Coordinator can
// raise before launching any worker.
var ErrConfiguration = errors.New("pipeline: configuration error")

// Coordinator sequences one ingestion run: Idle -> Starting -> Running
// -> Draining -> Terminated on the happy path, or -> Aborting ->
// Terminated on cancellation or an unrecoverable error. It is the sole
// writer of sentinel enqueue and is not reused across runs.
type Coordinator struct {
	cfg      Config
	inputs   []reader.Source
	parser   parse.Parser
	snk      sink.Sink
	log      telemetry.Logger
	metrics  *telemetry.Metrics

	buf      *buffer.Buffer
	counters Counters

	state   State
	stateMu sync.Mutex
}

// New validates cfg and constructs a Coordinator. It does not launch
// any worker; call Run for that.
func New(cfg Config, inputs []reader.Source, parser parse.Parser, snk sink.Sink, log telemetry.Logger, metrics *telemetry.Metrics) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one input source is required", ErrConfiguration)
	}
	if log == nil {
		log = telemetry.Nop()
	}
	return &Coordinator{
		cfg:     cfg,
		inputs:  inputs,
		parser:  parser,
		snk:     snk,
		log:     log,
		metrics: metrics,
		buf:     buffer.New(cfg.BufferCapacity),
		state:   Idle,
	}, nil
}

func (co *Coordinator) setState(s State) {
	co.stateMu.Lock()
	co.state = s
	co.stateMu.Unlock()
	co.log.Infow("pipeline: state transition", "state", s.String())
}

// State returns the Coordinator's current lifecycle state.
func (co *Coordinator) State() State {
	co.stateMu.Lock()
	defer co.stateMu.Unlock()
	return co.state
}

// Counters exposes the run's live counters for external metrics
// mirroring (e.g. a caller-owned /metrics HTTP handler).
func (co *Coordinator) Counters() *Counters { return &co.counters }

// Run executes one complete ingestion run: start, drain on normal
// completion, or abort if ctx is cancelled. It returns the terminal
// Report and reaches State() == Terminated before returning, per
// spec.md §4.5's lifecycle.
func (co *Coordinator) Run(ctx context.Context) (Report, error) {
	co.setState(Starting)
	start := time.Now()

	consumers := make([]*consumer.Consumer, co.cfg.ConsumerCount)
	var consumerWG sync.WaitGroup
	for i := 0; i < co.cfg.ConsumerCount; i++ {
		c := consumer.New(i, co.buf, co.snk, &co.counters, co.metrics, co.log, consumer.Config{
			Threshold:   co.cfg.EnergyThreshold,
			BatchSize:   co.cfg.BatchSize,
			TakeTimeout: co.cfg.TakeTimeout,
		})
		consumers[i] = c
		consumerWG.Add(1)
		go func(c *consumer.Consumer) {
			defer consumerWG.Done()
			c.Run(ctx)
		}(c)
	}

	readers := co.launchReaders()
	var readerWG sync.WaitGroup
	// At most ProducerCount Readers run at once; the others wait for a slot.
	slots := make(chan struct{}, co.cfg.ProducerCount)
	for _, r := range readers {
		readerWG.Add(1)
		go func(r *reader.Reader) {
			defer readerWG.Done()
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-slots }()
			r.Run(ctx)
		}(r)
	}

	co.setState(Running)

	readersDone := make(chan struct{})
	go func() {
		readerWG.Wait()
		close(readersDone)
	}()

	select {
	case <-readersDone:
		return co.drain(&consumerWG, start)
	case <-ctx.Done():
		// readers check ctx.Err() between scans, but bufio.Scanner.Scan
		// itself has no cancellation hook: a Reader blocked on a stalled
		// stdin/pipe source would otherwise never close readersDone, and
		// this select would never proceed to abort(). Bound the wait by
		// AbortGrace, the same grace abort() itself gives the consumer
		// join, and abandon any still-blocked Readers past that point.
		select {
		case <-readersDone:
		case <-time.After(co.cfg.AbortGrace):
			co.log.Warnw("pipeline: abort grace period elapsed before all readers stopped, abandoning them")
		}
		return co.abort(&consumerWG, start)
	}
}

func (co *Coordinator) launchReaders() []*reader.Reader {
	readers := make([]*reader.Reader, 0, len(co.inputs))
	for _, src := range co.inputs {
		readers = append(readers, reader.New(src, co.parser, co.buf, &co.counters, co.metrics, co.log, co.cfg.OfferTimeout))
	}
	if co.cfg.ProducerCount > len(co.inputs) {
		co.log.Infow("pipeline: producerCount exceeds input count, excess capacity unused",
			"producerCount", co.cfg.ProducerCount, "inputs", len(co.inputs))
	}
	return readers
}

// drain is the normal-completion shutdown path (spec.md §4.5): every
// Reader has finished, so no further Record can enter the Buffer; the
// Coordinator enqueues exactly ConsumerCount End items with unbounded
// blocking puts, then waits for every Consumer to exit.
func (co *Coordinator) drain(consumerWG *sync.WaitGroup, start time.Time) (Report, error) {
	co.setState(Draining)

	for i := 0; i < co.cfg.ConsumerCount; i++ {
		co.buf.Put(context.Background(), record.End())
	}

	consumerWG.Wait()
	co.setState(Terminated)
	return co.report(start), nil
}

// abort is the error/cancellation shutdown path (spec.md §4.5):
// workers have already observed ctx.Done(); the Coordinator still
// injects End items so cooperating Consumers perform a residual
// flush, then waits up to AbortGrace before giving up.
func (co *Coordinator) abort(consumerWG *sync.WaitGroup, start time.Time) (Report, error) {
	co.setState(Aborting)

	for i := 0; i < co.cfg.ConsumerCount; i++ {
		// Best-effort: consumers already select on ctx.Done() inside
		// Take, so this Put racing a full buffer does not deadlock the
		// abort path — it is bounded by AbortGrace below regardless.
		go co.buf.Put(context.Background(), record.End())
	}

	done := make(chan struct{})
	go func() {
		consumerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(co.cfg.AbortGrace):
		co.log.Warnw("pipeline: abort grace period elapsed, some consumers may not have flushed")
	}

	co.setState(Terminated)
	return co.report(start), errors.New("pipeline: run aborted by cancellation")
}

func (co *Coordinator) report(start time.Time) Report {
	return Report{
		StartedAt:      start,
		Elapsed:        time.Since(start),
		Produced:       co.counters.Produced(),
		Consumed:       co.counters.Consumed(),
		Retained:       co.counters.Retained(),
		RejectedParse:  co.counters.RejectedParse(),
		RejectedInsert: co.counters.RejectedInsert(),
	}
}
