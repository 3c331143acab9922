package reader

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hepdata/collider-ingest/internal/buffer"
	"github.com/hepdata/collider-ingest/internal/parse"
	"github.com/hepdata/collider-ingest/internal/telemetry"
)

type fakeCounters struct {
	produced, rejectedParse, offerRefused uint64
}

func (c *fakeCounters) AddProduced(n uint64)      { c.produced += n }
func (c *fakeCounters) AddRejectedParse(n uint64) { c.rejectedParse += n }
func (c *fakeCounters) AddOfferRefused(n uint64)  { c.offerRefused += n }

func stringSource(body string) Source {
	return Source{
		Name: "test",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func TestReaderSkipsHeaderLine(t *testing.T) {
	buf := buffer.New(8)
	counters := &fakeCounters{}
	body := parse.Header + "\n" +
		"550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,65.3,ELECTRON,true\n"
	r := New(stringSource(body), parse.New(), buf, counters, nil, telemetry.Nop(), time.Second)

	r.Run(context.Background())

	require.Equal(t, uint64(1), counters.produced)
	require.Equal(t, 1, buf.Size())
}

func TestReaderToleratesMalformedLines(t *testing.T) {
	buf := buffer.New(8)
	counters := &fakeCounters{}
	body := "not,a,valid,line\n" +
		"550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,65.3,ELECTRON,true\n"
	r := New(stringSource(body), parse.New(), buf, counters, nil, telemetry.Nop(), time.Second)

	r.Run(context.Background())

	require.Equal(t, uint64(1), counters.produced)
	require.Equal(t, uint64(1), counters.rejectedParse)
}

func TestReaderSkipsBlankLines(t *testing.T) {
	buf := buffer.New(8)
	counters := &fakeCounters{}
	body := "\n   \n550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,65.3,ELECTRON,true\n"
	r := New(stringSource(body), parse.New(), buf, counters, nil, telemetry.Nop(), time.Second)

	r.Run(context.Background())

	require.Equal(t, uint64(1), counters.produced)
	require.Equal(t, uint64(0), counters.rejectedParse)
}

func TestReaderStopsOnCancellation(t *testing.T) {
	buf := buffer.New(1)
	counters := &fakeCounters{}
	lines := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		lines = append(lines, "550e8400-e29b-41d4-a716-446655440000,2024-01-01T00:00:00Z,65.3,ELECTRON,true")
	}
	body := strings.Join(lines, "\n")
	r := New(stringSource(body), parse.New(), buf, counters, nil, telemetry.Nop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after cancellation")
	}
}

func TestOpenFileStdinSentinel(t *testing.T) {
	stdin := strings.NewReader("hello")
	open := OpenFile("-", stdin)
	rc, err := open()
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
}
