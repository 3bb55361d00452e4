package tensor

import (
	"runtime"
	"sync"
	"testing"

	"github.com/hupe1980/tabula/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ReferenceCounting(t *testing.T) {
	p := NewPool(1 << 20)
	defer p.Close()

	b, err := Get[float32](p, 16)
	require.NoError(t, err)
	assert.Equal(t, int32(1), b.RefCount())
	assert.Len(t, b.Data(), 16)
	assert.True(t, b.IsValid())

	n, err := b.AddRef()
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)

	assert.Equal(t, int32(1), b.Release())
	assert.Zero(t, p.CacheSize(), "still referenced")

	assert.Zero(t, b.Release())
	assert.Equal(t, int64(64), p.CacheSize())
	assert.Nil(t, b.Data())

	_, err = b.AddRef()
	assert.ErrorIs(t, err, ErrReleased)
	assert.Zero(t, b.Release(), "over-release is a no-op")
	assert.Equal(t, int64(64), p.CacheSize())
}

func TestPool_ReuseAssignsNewIndexAndZeroes(t *testing.T) {
	p := NewPool(1 << 20)
	defer p.Close()

	a, err := Get[int64](p, 8)
	require.NoError(t, err)
	a.Data()[3] = 42
	first := a.AllocationIndex()
	h := a.Handle()
	a.Release()

	_, err = h.Resolve()
	assert.ErrorIs(t, err, ErrStaleHandle, "released block")

	b, err := Get[int64](p, 8)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Greater(t, b.AllocationIndex(), first)
	assert.Zero(t, b.Data()[3])

	_, err = h.Resolve()
	var stale *StaleHandleError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, first, stale.Expected)
	assert.Equal(t, b.AllocationIndex(), stale.Actual)

	got, err := b.Handle().Resolve()
	require.NoError(t, err)
	assert.Same(t, b, got)

	st := p.Stats()
	assert.Equal(t, int64(2), st.Gets)
	assert.Equal(t, int64(1), st.Hits)
}

func TestPool_DistinctClasses(t *testing.T) {
	p := NewPool(1 << 20)
	defer p.Close()

	f, _ := Get[float32](p, 4)
	f.Release()

	i, err := Get[int32](p, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, i.Len())

	g, err := Get[float32](p, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, g.Len())
	assert.Equal(t, int64(16), p.CacheSize(), "float32x4 still cached")
}

func TestPool_CacheBound(t *testing.T) {
	const maxCache = 100
	p := NewPool(maxCache)
	defer p.Close()

	var blocks []*Block[uint8]
	for range 10 {
		b, err := Get[uint8](p, 30)
		require.NoError(t, err)
		blocks = append(blocks, b)
	}
	assert.Equal(t, int64(300), p.AllocationSize())

	for _, b := range blocks {
		b.Release()
		assert.LessOrEqual(t, p.CacheSize(), p.MaxCacheSize())
	}
	assert.Equal(t, int64(90), p.CacheSize())
	assert.Equal(t, int64(90), p.AllocationSize(), "evicted blocks are no longer owned")

	discarded := 0
	for _, b := range blocks {
		if !b.IsValid() {
			discarded++
		}
	}
	assert.Equal(t, 7, discarded)
	assert.Equal(t, int64(7), p.Stats().Evictions)
}

func TestPool_Hooks(t *testing.T) {
	var hits, misses int
	var evicted []int64
	p := NewPool(40,
		WithGetHook(func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		}),
		WithEvictionHook(func(bytes int64) { evicted = append(evicted, bytes) }),
	)
	defer p.Close()

	a, err := Get[uint8](p, 30)
	require.NoError(t, err)
	b, err := Get[uint8](p, 20)
	require.NoError(t, err)
	a.Release()
	b.Release()
	assert.Equal(t, []int64{30}, evicted)

	c, err := Get[uint8](p, 20)
	require.NoError(t, err)
	defer c.Release()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
}

func TestPool_OversizedBlockDiscarded(t *testing.T) {
	p := NewPool(10)
	defer p.Close()

	b, err := Get[float64](p, 2)
	require.NoError(t, err)
	h := b.Handle()
	b.Release()

	assert.False(t, b.IsValid())
	assert.Zero(t, p.CacheSize())

	_, err = h.Resolve()
	var stale *StaleHandleError
	require.ErrorAs(t, err, &stale)
	assert.False(t, stale.Valid)
}

func TestPool_Add(t *testing.T) {
	p := NewPool(1 << 10)
	other := NewPool(1 << 10)
	defer p.Close()
	defer other.Close()

	b, err := Get[float32](p, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Add(b), ErrBlockInUse)
	assert.ErrorIs(t, other.Add(b), ErrForeignBlock)

	b.Release()
	assert.Equal(t, int64(8), p.CacheSize())
}

func TestPool_AddReleasedBlockTwice(t *testing.T) {
	p := NewPool(1 << 10)
	defer p.Close()

	b, err := Get[float32](p, 16)
	require.NoError(t, err)
	b.Release()
	require.NoError(t, p.Add(b))
	require.NoError(t, p.Add(b))
	assert.Equal(t, int64(64), p.CacheSize())

	x, err := Get[float32](p, 16)
	require.NoError(t, err)
	y, err := Get[float32](p, 16)
	require.NoError(t, err)
	assert.NotSame(t, x, y)
	assert.Equal(t, int32(1), x.RefCount())
	assert.Equal(t, int32(1), y.RefCount())

	x.Release()
	y.Release()
	assert.Equal(t, int64(128), p.CacheSize())
}

func TestPool_NilPool(t *testing.T) {
	_, err := Get[float32](nil, 4)
	assert.ErrorIs(t, err, ErrNilPool)

	_, err = NewVector[float32](nil, 1, 2)
	assert.ErrorIs(t, err, ErrNilPool)

	empty, err := New[float32](nil, 0)
	require.NoError(t, err, "empty tensors hold no block")
	assert.Zero(t, empty.Size())
}

func TestPool_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})
	p := NewPool(1<<10, WithResourceController(rc))
	defer p.Close()

	a, err := Get[float32](p, 16)
	require.NoError(t, err)
	assert.Equal(t, int64(64), rc.MemoryUsage())

	_, err = Get[float32](p, 1)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	a.Release()
	b, err := Get[float32](p, 16)
	require.NoError(t, err, "cached block needs no new memory")
	b.Release()

	require.NoError(t, p.Close())
	assert.Zero(t, rc.MemoryUsage())
}

func TestPool_Close(t *testing.T) {
	p := NewPool(1 << 10)
	live, _ := Get[uint8](p, 4)
	cached, _ := Get[uint8](p, 4)
	cached.Release()

	require.NoError(t, p.Close())
	assert.False(t, cached.IsValid())
	assert.Zero(t, p.CacheSize())

	live.Release()
	assert.False(t, live.IsValid())
	assert.Zero(t, p.AllocationSize())

	_, err := Get[uint8](p, 4)
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_CloseRacesRelease(t *testing.T) {
	for range 50 {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
		p := NewPool(1<<10, WithResourceController(rc))

		blocks := make([]*Block[float32], 32)
		for i := range blocks {
			b, err := Get[float32](p, 4)
			require.NoError(t, err)
			blocks[i] = b
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, b := range blocks {
				b.Release()
			}
		}()
		go func() {
			defer wg.Done()
			_ = p.Close()
		}()
		wg.Wait()

		assert.Zero(t, p.CacheSize())
		assert.Zero(t, p.AllocationSize())
		assert.Zero(t, rc.MemoryUsage())
	}
}

func TestPool_ReleaseAfterPoolCollected(t *testing.T) {
	b := func() *Block[float32] {
		p := NewPool(1 << 10)
		b, err := Get[float32](p, 4)
		require.NoError(t, err)
		return b
	}()
	runtime.GC()
	runtime.GC()

	b.Release()
	assert.False(t, b.IsValid())
}

func TestPool_ConcurrentGetRelease(t *testing.T) {
	p := NewPool(4 << 10)
	defer p.Close()

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				b, err := Get[float32](p, 8+(g+i)%4)
				if !assert.NoError(t, err) {
					return
				}
				for j := range b.Data() {
					assert.Zero(t, b.Data()[j])
					b.Data()[j] = 1
				}
				if _, err := b.AddRef(); err == nil {
					b.Release()
				}
				b.Release()
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, p.CacheSize(), p.MaxCacheSize())
}

func BenchmarkPool_GetRelease(b *testing.B) {
	p := NewPool(1 << 20)
	defer p.Close()
	b.ReportAllocs()
	for b.Loop() {
		blk, _ := Get[float32](p, 256)
		blk.Release()
	}
}
