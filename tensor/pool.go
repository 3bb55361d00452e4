package tensor

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/hupe1980/tabula/internal/cache"
	"github.com/hupe1980/tabula/internal/mem"
	"github.com/hupe1980/tabula/resource"
)

type classKey struct {
	elem ElementType
	n    int
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Gets           int64
	Hits           int64
	Misses         int64
	Discards       int64
	Evictions      int64
	AllocationSize int64
	CacheSize      int64
	MaxCacheSize   int64
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithLogger sets the logger for eviction and discard events.
func WithLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) { p.logger = l }
}

// WithResourceController charges every new allocation against rc's memory
// budget. Allocation fails with resource.ErrMemoryLimitExceeded when the
// budget is exhausted.
func WithResourceController(rc *resource.Controller) PoolOption {
	return func(p *Pool) { p.rc = rc }
}

// WithGetHook registers fn to run after every Get with whether the block came
// from the cache.
func WithGetHook(fn func(hit bool)) PoolOption {
	return func(p *Pool) { p.onGet = fn }
}

// WithEvictionHook registers fn to run when the cache evicts a block. It runs
// under the cache lock and must not call back into the pool.
func WithEvictionHook(fn func(bytes int64)) PoolOption {
	return func(p *Pool) { p.onEvict = fn }
}

// Pool hands out blocks and caches released ones for reuse.
type Pool struct {
	self      weak.Pointer[Pool]
	cache     *cache.ClassLRU[classKey, Recyclable]
	nextIndex atomic.Uint64
	allocated atomic.Int64
	mu        sync.RWMutex // Add holds it shared, Close exclusively
	closed    atomic.Bool
	rc        *resource.Controller
	logger    *slog.Logger
	onGet     func(hit bool)
	onEvict   func(bytes int64)

	gets     atomic.Int64
	hits     atomic.Int64
	discards atomic.Int64
}

// NewPool creates a pool that caches at most maxCacheSize bytes of released
// blocks.
func NewPool(maxCacheSize int64, opts ...PoolOption) *Pool {
	p := &Pool{}
	for _, opt := range opts {
		opt(p)
	}
	p.self = weak.Make(p)
	p.cache = cache.NewClassLRU[classKey, Recyclable](max(maxCacheSize, 0), p.evicted)
	return p
}

// Get returns a block of size elements with a reference count of one. Cached
// blocks are zeroed before reuse. A nil pool fails with ErrNilPool.
func Get[T Element](p *Pool, size int) (*Block[T], error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if p == nil {
		return nil, ErrNilPool
	}
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	p.gets.Add(1)

	key := classKey{elem: ElementTypeOf[T](), n: size}
	if r, ok := p.cache.Take(key); ok {
		b := r.(*Block[T])
		b.cached.Store(false)
		clear(b.data)
		b.index.Store(p.nextIndex.Add(1))
		b.refs.Store(1)
		p.hits.Add(1)
		if p.onGet != nil {
			p.onGet(true)
		}
		return b, nil
	}

	bytes := byteSize[T](size)
	if err := p.rc.AcquireMemory(bytes); err != nil {
		return nil, err
	}
	b := &Block[T]{data: mem.Alloc[T](size), pool: p.self}
	b.index.Store(p.nextIndex.Add(1))
	b.refs.Store(1)
	b.valid.Store(true)
	p.allocated.Add(bytes)
	if p.onGet != nil {
		p.onGet(false)
	}
	return b, nil
}

// Add returns a released block to the pool. Blocks reach here on their own
// when their last reference is released; calling Add directly is only needed
// for blocks whose release was intercepted. A block that does not fit the
// cache is discarded. Adding a block that was already handed back does
// nothing.
func (p *Pool) Add(b Recyclable) error {
	if b.owner() != p {
		return ErrForeignBlock
	}
	if b.refCount() > 0 {
		return ErrBlockInUse
	}
	if !b.isValid() || !b.markCached() {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() || !p.cache.Put(b.class(), b, b.size()) {
		p.discard(b)
	}
	return nil
}

// evicted runs under the cache lock.
func (p *Pool) evicted(b Recyclable) {
	p.discard(b)
	if p.logger != nil {
		p.logger.Debug("tensor block evicted", "bytes", b.size(), "max_cache_size", p.cache.Capacity())
	}
	if p.onEvict != nil {
		p.onEvict(b.size())
	}
}

func (p *Pool) discard(b Recyclable) {
	b.invalidate()
	n := b.size()
	p.allocated.Add(-n)
	p.rc.ReleaseMemory(n)
	p.discards.Add(1)
}

// MaxCacheSize returns the cache bound in bytes.
func (p *Pool) MaxCacheSize() int64 { return p.cache.Capacity() }

// CacheSize returns the bytes held by cached blocks.
func (p *Pool) CacheSize() int64 { return p.cache.Size() }

// AllocationSize returns the bytes of every block the pool currently owns,
// in use or cached.
func (p *Pool) AllocationSize() int64 { return p.allocated.Load() }

// Stats returns a counter snapshot.
func (p *Pool) Stats() PoolStats {
	_, misses, evictions := p.cache.Stats()
	return PoolStats{
		Gets:           p.gets.Load(),
		Hits:           p.hits.Load(),
		Misses:         misses,
		Discards:       p.discards.Load(),
		Evictions:      evictions,
		AllocationSize: p.allocated.Load(),
		CacheSize:      p.cache.Size(),
		MaxCacheSize:   p.cache.Capacity(),
	}
}

// Close discards every cached block. Blocks still in use are discarded when
// released, and later Gets fail with ErrPoolClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed.Swap(true) {
		p.mu.Unlock()
		return nil
	}
	drained := p.cache.Drain()
	p.mu.Unlock()

	for _, b := range drained {
		p.discard(b)
	}
	if p.logger != nil {
		p.logger.Debug("tensor pool closed", "allocation_size", p.allocated.Load())
	}
	return nil
}
