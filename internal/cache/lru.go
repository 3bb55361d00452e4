package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

type entry[K comparable, V any] struct {
	class     K
	value     V
	size      int64
	global    *list.Element
	classElem *list.Element
}

// ClassLRU caches values by class within a byte capacity. It is safe for
// concurrent use.
type ClassLRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int64
	size     int64
	order    *list.List // front is most recent
	classes  map[K]*list.List
	onEvict  func(V)

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewClassLRU creates a cache holding at most capacity bytes. onEvict, when
// set, is called for every value dropped to make room. It runs with the
// cache lock held and must not call back into the cache.
func NewClassLRU[K comparable, V any](capacity int64, onEvict func(V)) *ClassLRU[K, V] {
	return &ClassLRU[K, V]{
		capacity: capacity,
		order:    list.New(),
		classes:  make(map[K]*list.List),
		onEvict:  onEvict,
	}
}

// Take removes and returns the most recently cached value of class.
func (c *ClassLRU[K, V]) Take(class K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.classes[class]
	if !ok || l.Len() == 0 {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	e := l.Front().Value.(*entry[K, V])
	c.remove(e)
	return e.value, true
}

// Put caches v under class. It reports false, caching nothing, when size
// alone exceeds the capacity. Older values are evicted until the cache fits.
func (c *ClassLRU[K, V]) Put(class K, v V, size int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.capacity {
		return false
	}
	for c.size+size > c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		e := back.Value.(*entry[K, V])
		c.remove(e)
		c.evictions.Add(1)
		if c.onEvict != nil {
			c.onEvict(e.value)
		}
	}

	e := &entry[K, V]{class: class, value: v, size: size}
	l, ok := c.classes[class]
	if !ok {
		l = list.New()
		c.classes[class] = l
	}
	e.global = c.order.PushFront(e)
	e.classElem = l.PushFront(e)
	c.size += size
	return true
}

func (c *ClassLRU[K, V]) remove(e *entry[K, V]) {
	c.order.Remove(e.global)
	l := c.classes[e.class]
	l.Remove(e.classElem)
	if l.Len() == 0 {
		delete(c.classes, e.class)
	}
	c.size -= e.size
}

// Drain removes every value and returns them, least recent first.
func (c *ClassLRU[K, V]) Drain() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]V, 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		out = append(out, el.Value.(*entry[K, V]).value)
	}
	c.order.Init()
	c.classes = make(map[K]*list.List)
	c.size = 0
	return out
}

// Size returns the cached bytes.
func (c *ClassLRU[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached values.
func (c *ClassLRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the byte capacity.
func (c *ClassLRU[K, V]) Capacity() int64 { return c.capacity }

// Stats returns hit, miss and eviction counters.
func (c *ClassLRU[K, V]) Stats() (hits, misses, evictions int64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}
