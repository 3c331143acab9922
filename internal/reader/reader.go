// Package reader implements the Source Reader (Producer) role from
// spec.md §4.3: it turns one line-oriented input into a sequence of
// Records placed onto the shared Buffer, using the same bufio.Scanner
// idiom the teacher CLI used to stream stdin into Kafka records.
package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hepdata/collider-ingest/internal/buffer"
	"github.com/hepdata/collider-ingest/internal/parse"
	"github.com/hepdata/collider-ingest/internal/record"
	"github.com/hepdata/collider-ingest/internal/telemetry"
)

// Counters is the subset of pipeline-wide counters a Reader updates.
// It is satisfied by pipeline.Counters; defined here as a narrow
// interface so this package never imports the pipeline package.
type Counters interface {
	AddProduced(n uint64)
	AddRejectedParse(n uint64)
	AddOfferRefused(n uint64)
}

// Source names one input: Name is used only for logging, and Open
// yields the stream to read. Closing the returned ReadCloser is the
// Reader's responsibility.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

const defaultMaxLineBytes = 1024 * 1024

// Reader reads one Source to completion, parsing each line and
// offering the resulting Record onto buf. A read error on the
// underlying stream is fatal to this Reader only (spec.md §7.2); other
// Readers and all Consumers continue.
type Reader struct {
	src          Source
	parser       parse.Parser
	buf          *buffer.Buffer
	counters     Counters
	metrics      *telemetry.Metrics
	log          telemetry.Logger
	offerTimeout time.Duration
	maxLineBytes int
}

// New constructs a Reader bound to a single input source. metrics may
// be nil, in which case Prometheus observation is skipped.
func New(src Source, parser parse.Parser, buf *buffer.Buffer, counters Counters, metrics *telemetry.Metrics, log telemetry.Logger, offerTimeout time.Duration) *Reader {
	return &Reader{
		src:          src,
		parser:       parser,
		buf:          buf,
		counters:     counters,
		metrics:      metrics,
		log:          log,
		offerTimeout: offerTimeout,
		maxLineBytes: defaultMaxLineBytes,
	}
}

// Run reads the source to completion or until ctx is cancelled. It
// never returns an error: a stream-level failure is logged at Errorw
// and simply ends this Reader's run, per spec.md §7's ReaderIOError
// classification (fatal to this Reader only).
func (r *Reader) Run(ctx context.Context) {
	stream, err := r.src.Open()
	if err != nil {
		r.log.Errorw("reader: unable to open source", "source", r.src.Name, "error", err)
		return
	}
	defer stream.Close()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), r.maxLineBytes)

	first := true
	for scanner.Scan() {
		if ctx.Err() != nil {
			r.log.Infow("reader: cancelled, stopping", "source", r.src.Name)
			return
		}

		line := scanner.Text()
		if first {
			first = false
			if line == parse.Header {
				continue
			}
		}
		if len(trimSpace(line)) == 0 {
			continue
		}

		rec, perr := r.parser.Parse(line)
		if perr != nil {
			r.counters.AddRejectedParse(1)
			if r.metrics != nil {
				r.metrics.RejectedParse.Inc()
			}
			r.log.Warnw("reader: malformed line", "source", r.src.Name, "error", perr)
			continue
		}

		r.offer(ctx, rec)
	}

	if err := scanner.Err(); err != nil {
		r.log.Errorw("reader: stream read error", "source", r.src.Name, "error", err)
		return
	}
}

// offer implements spec.md §4.3's two-step rate control: a short
// bounded offer first (so refusals are visible in metrics as
// backpressure), then an unconditional blocking put to guarantee
// progress.
func (r *Reader) offer(ctx context.Context, rec record.Record) {
	item := record.Data(rec)
	if r.buf.TryPut(ctx, item, r.offerTimeout) {
		r.counters.AddProduced(1)
		if r.metrics != nil {
			r.metrics.Produced.Inc()
		}
		return
	}
	r.counters.AddOfferRefused(1)
	if r.metrics != nil {
		r.metrics.OfferRefused.Inc()
	}

	if r.buf.Put(ctx, item) {
		r.counters.AddProduced(1)
		if r.metrics != nil {
			r.metrics.Produced.Inc()
		}
	}
	// ctx cancellation during the blocking put means this record is
	// dropped without being counted as produced; the Coordinator's
	// abort path accepts this as part of cooperative cancellation.
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// OpenFile is a convenience Source.Open for a path on disk, or "-" for
// stdin, matching spec.md §4's file-discovery-is-the-caller's-concern
// stance while still making the common case trivial to wire up.
func OpenFile(path string, stdin io.Reader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		if path == "-" {
			return io.NopCloser(stdin), nil
		}
		f, err := openOSFile(path)
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", path, err)
		}
		return f, nil
	}
}
