package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hepdata/collider-ingest/internal/parse"
	"github.com/hepdata/collider-ingest/internal/reader"
	"github.com/hepdata/collider-ingest/internal/record"
)

type fakeSink struct {
	mu      sync.Mutex
	records []record.Record
}

func (f *fakeSink) InsertBatch(_ context.Context, records []record.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeSink) Close() {}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// countingBatchSink records the length of each individual InsertBatch
// call, so a test can assert the exact commit split (not just the total
// record count fakeSink tracks).
type countingBatchSink struct {
	mu    sync.Mutex
	sizes []int
}

func (c *countingBatchSink) InsertBatch(_ context.Context, records []record.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizes = append(c.sizes, len(records))
	return nil
}

func (c *countingBatchSink) Close() {}

func (c *countingBatchSink) batchLens() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.sizes))
	copy(out, c.sizes)
	return out
}

func sourceFromString(name, body string) reader.Source {
	return reader.Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ProducerCount = 1
	cfg.ConsumerCount = 1
	cfg.BufferCapacity = 16
	cfg.BatchSize = 10
	cfg.EnergyThreshold = 50
	cfg.OfferTimeout = 20 * time.Millisecond
	cfg.TakeTimeout = 20 * time.Millisecond
	cfg.AbortGrace = time.Second
	return cfg
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	cfg := testConfig()
	cfg.ProducerCount = 0
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)

	cfg = testConfig()
	cfg.ConsumerCount = -1
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)

	cfg = testConfig()
	cfg.BufferCapacity = 0
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)

	cfg = testConfig()
	cfg.BatchSize = 0
	require.ErrorIs(t, cfg.Validate(), ErrConfiguration)
}

func TestRunProcessesAllRecordsAndRetainsAboveThreshold(t *testing.T) {
	body := "550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,10,ELECTRON,true\n" +
		"660e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,MUON,false\n"
	src := sourceFromString("s1", body)
	snk := &fakeSink{}

	co, err := New(testConfig(), []reader.Source{src}, parse.New(), snk, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := co.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), report.Produced)
	require.Equal(t, uint64(2), report.Consumed)
	require.Equal(t, uint64(1), report.Retained)
	require.Equal(t, 1, snk.count())
	require.Equal(t, Terminated, co.State())
}

func TestRunSkipsHeaderAcrossMultipleSources(t *testing.T) {
	body1 := parse.Header + "\n" +
		"550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,ELECTRON,true\n"
	body2 := parse.Header + "\n" +
		"660e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,MUON,true\n"
	snk := &fakeSink{}
	cfg := testConfig()
	cfg.ProducerCount = 2
	cfg.ConsumerCount = 2

	co, err := New(cfg, []reader.Source{
		sourceFromString("s1", body1),
		sourceFromString("s2", body2),
	}, parse.New(), snk, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := co.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), report.Produced)
	require.Equal(t, 2, snk.count())
}

func TestRunFlushesExactBatchBoundary(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, "550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,ELECTRON,true")
	}
	body := strings.Join(lines, "\n")
	snk := &fakeSink{}
	cfg := testConfig()
	cfg.BatchSize = 10

	co, err := New(cfg, []reader.Source{sourceFromString("s1", body)}, parse.New(), snk, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := co.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(10), report.Retained)
	require.Equal(t, 10, snk.count())
}

func TestRunFlushesExactBatchPlusOneAsTwoCommits(t *testing.T) {
	var lines []string
	for i := 0; i < 11; i++ {
		lines = append(lines, "550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,ELECTRON,true")
	}
	body := strings.Join(lines, "\n")
	snk := &countingBatchSink{}
	cfg := testConfig()
	cfg.BatchSize = 10

	co, err := New(cfg, []reader.Source{sourceFromString("s1", body)}, parse.New(), snk, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := co.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(11), report.Retained)

	batchLens := snk.batchLens()
	require.Equal(t, []int{10, 1}, batchLens)
}

func TestRunTreatsMalformedLinesAsRejected(t *testing.T) {
	body := "not,valid\n" +
		"550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,ELECTRON,true\n"
	snk := &fakeSink{}

	co, err := New(testConfig(), []reader.Source{sourceFromString("s1", body)}, parse.New(), snk, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := co.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), report.Produced)
	require.Equal(t, uint64(1), report.RejectedParse)
}

func TestRunIdempotentDuplicateIDsStillCountAsConsumed(t *testing.T) {
	body := "550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,ELECTRON,true\n" +
		"550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,ELECTRON,true\n"
	snk := &fakeSink{}

	co, err := New(testConfig(), []reader.Source{sourceFromString("s1", body)}, parse.New(), snk, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := co.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), report.Consumed)
	require.Equal(t, uint64(2), report.Retained)
	require.Equal(t, 2, snk.count())
	// Idempotence on duplicate ids is the Sink's contract (ON CONFLICT DO
	// NOTHING), not the core pipeline's; the core simply forwards both.
}

func TestRunAbortsOnCancellation(t *testing.T) {
	var lines []string
	for i := 0; i < 10000; i++ {
		lines = append(lines, "550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,99,ELECTRON,true")
	}
	body := strings.Join(lines, "\n")
	snk := &fakeSink{}
	cfg := testConfig()
	cfg.BufferCapacity = 4
	cfg.AbortGrace = 2 * time.Second

	co, err := New(cfg, []reader.Source{sourceFromString("s1", body)}, parse.New(), snk, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = co.Run(ctx)
	require.Error(t, err)
	require.Equal(t, Terminated, co.State())
}

func TestNewRejectsEmptyInputs(t *testing.T) {
	_, err := New(testConfig(), nil, parse.New(), &fakeSink{}, nil, nil)
	require.Error(t, err)
}
