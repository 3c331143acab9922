package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleReport() Report {
	return Report{
		StartedAt:      time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		Elapsed:        2 * time.Second,
		Produced:       100,
		Consumed:       100,
		Retained:       40,
		RejectedParse:  5,
		RejectedInsert: 1,
	}
}

func TestFormatCounters(t *testing.T) {
	r := sampleReport()
	out, err := r.Format(`p=%p c=%c r=%r e=%e i=%i`)
	require.NoError(t, err)
	require.Equal(t, "p=100 c=100 r=40 e=5 i=1", out)
}

func TestFormatEscapes(t *testing.T) {
	r := sampleReport()
	out, err := r.Format(`a\tb\nc\x41`)
	require.NoError(t, err)
	require.Equal(t, "a\tb\nc\x41", out)
}

func TestFormatPercentLiteral(t *testing.T) {
	r := sampleReport()
	out, err := r.Format(`100%%`)
	require.NoError(t, err)
	require.Equal(t, "100%", out)
}

func TestFormatUnknownDirective(t *testing.T) {
	r := sampleReport()
	_, err := r.Format(`%z`)
	require.Error(t, err)
}

func TestFormatStrftime(t *testing.T) {
	r := sampleReport()
	out, err := r.Format(`%T{strftime[%Y-%m-%d]}`)
	require.NoError(t, err)
	require.Equal(t, "2024-03-15", out)
}

func TestFormatStrftimeThenTrailingText(t *testing.T) {
	r := sampleReport()
	out, err := r.Format(`start=%T{strftime[%Y]} done`)
	require.NoError(t, err)
	require.Equal(t, "start=2024 done", out)
}

func TestThroughputPerSec(t *testing.T) {
	r := sampleReport()
	require.InDelta(t, 50.0, r.ThroughputPerSec(), 0.001)
}

func TestThroughputZeroElapsed(t *testing.T) {
	r := Report{Produced: 10}
	require.Equal(t, float64(0), r.ThroughputPerSec())
}

func TestDefaultFormatRenders(t *testing.T) {
	r := sampleReport()
	out, err := r.Format(DefaultFormat)
	require.NoError(t, err)
	require.Contains(t, out, "produced=100")
}
