package record

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNilID(t *testing.T) {
	_, err := New(uuid.Nil, time.Now(), 10, Electron, true)
	require.Error(t, err)
}

func TestNewRejectsZeroTimestamp(t *testing.T) {
	_, err := New(uuid.New(), time.Time{}, 10, Electron, true)
	require.Error(t, err)
}

func TestNewRejectsNegativeEnergy(t *testing.T) {
	_, err := New(uuid.New(), time.Now(), -1, Electron, true)
	require.Error(t, err)
}

func TestNewAcceptsZeroEnergy(t *testing.T) {
	r, err := New(uuid.New(), time.Now(), 0, Electron, false)
	require.NoError(t, err)
	require.Equal(t, float64(0), r.Energy())
}

func TestEqual(t *testing.T) {
	id := uuid.New()
	ts := time.Now()
	a, err := New(id, ts, 42.5, Muon, true)
	require.NoError(t, err)
	b, err := New(id, ts, 42.5, Muon, true)
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	c, err := New(uuid.New(), ts, 42.5, Muon, true)
	require.NoError(t, err)
	require.False(t, a.Equal(c))
}

func TestParseKindCaseInsensitive(t *testing.T) {
	for _, s := range []string{"electron", "ELECTRON", "Electron"} {
		k, ok := ParseKind(s)
		require.True(t, ok)
		require.Equal(t, Electron, k)
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	_, ok := ParseKind("neutrino")
	require.False(t, ok)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "MUON", Muon.String())
	require.Equal(t, "PROTON", Proton.String())
}
