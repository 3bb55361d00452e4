package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.ErrorIs(t, c.AcquireMemory(20), ErrMemoryLimitExceeded)
	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())

	st := c.Stats()
	assert.Equal(t, int64(2), st.MemoryRejected)
	assert.Equal(t, int64(100), st.MemoryLimit)
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(1<<40))
	c.ReleaseMemory(1 << 39)
	assert.Equal(t, int64(1<<39), c.MemoryUsage())
	assert.Zero(t, c.MemoryLimit())
}

func TestController_Background(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})

	require.NoError(t, c.AcquireBackground(t.Context()))
	require.NoError(t, c.AcquireBackground(t.Context()))
	assert.False(t, c.TryAcquireBackground())

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireBackground(ctx))

	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Larger than the burst; must be split rather than rejected.
	require.NoError(t, c.AcquireIO(t.Context(), 1<<20+10))
	assert.Equal(t, int64(1<<20+10), c.Stats().IOBytes)
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireMemory(1))
	assert.True(t, c.TryAcquireMemory(1))
	c.ReleaseMemory(1)
	assert.Zero(t, c.MemoryUsage())
	require.NoError(t, c.AcquireBackground(t.Context()))
	c.ReleaseBackground()
	require.NoError(t, c.AcquireIO(t.Context(), 10))
	assert.True(t, c.TryAcquireIO(10))
	assert.Equal(t, Stats{}, c.Stats())
}

func TestRateLimited(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(t.Context(), &buf, c)
	_, err := w.Write([]byte("spill"))
	require.NoError(t, err)

	r := NewRateLimitedReader(t.Context(), strings.NewReader("spill"), c)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "spill", string(got))
	assert.Equal(t, "spill", buf.String())
	assert.Equal(t, int64(10), c.Stats().IOBytes)
}
