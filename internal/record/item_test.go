package record

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestItemDataIsNotEnd(t *testing.T) {
	r, err := New(uuid.New(), time.Now(), 1, Electron, true)
	require.NoError(t, err)
	item := Data(r)
	require.False(t, item.IsEnd())
	require.True(t, item.Record().Equal(r))
}

func TestItemEndIsEnd(t *testing.T) {
	item := End()
	require.True(t, item.IsEnd())
}
