package tensor

import (
	"sync/atomic"
	"weak"
)

// Block is a reference-counted slice of T owned by a Pool.
type Block[T Element] struct {
	data  []T
	pool  weak.Pointer[Pool]
	index atomic.Uint64
	refs   atomic.Int32
	valid  atomic.Bool
	cached atomic.Bool
}

// Data returns the block's elements, or nil once the block was released.
func (b *Block[T]) Data() []T {
	if b.refs.Load() <= 0 || !b.valid.Load() {
		return nil
	}
	return b.data
}

// Len returns the number of elements.
func (b *Block[T]) Len() int { return len(b.data) }

// AllocationIndex returns the index assigned when the block was last handed out.
func (b *Block[T]) AllocationIndex() uint64 { return b.index.Load() }

// IsValid reports whether the block is still owned by its pool.
func (b *Block[T]) IsValid() bool { return b.valid.Load() }

// RefCount returns the current reference count.
func (b *Block[T]) RefCount() int32 { return b.refs.Load() }

// AddRef increments the reference count and returns the new value. It fails
// with ErrReleased once the count reached zero.
func (b *Block[T]) AddRef() (int32, error) {
	for {
		n := b.refs.Load()
		if n <= 0 {
			return 0, ErrReleased
		}
		if b.refs.CompareAndSwap(n, n+1) {
			return n + 1, nil
		}
	}
}

// Release decrements the reference count and returns the new value. The
// release that reaches zero hands the block back to its pool. Releasing a
// block that is already at zero does nothing.
func (b *Block[T]) Release() int32 {
	for {
		n := b.refs.Load()
		if n <= 0 {
			return 0
		}
		if b.refs.CompareAndSwap(n, n-1) {
			if n == 1 {
				b.recycle()
			}
			return n - 1
		}
	}
}

func (b *Block[T]) recycle() {
	if p := b.pool.Value(); p != nil {
		_ = p.Add(b)
		return
	}
	b.valid.Store(false)
}

// CopyFrom copies src into the block. It copies at most Len elements and
// returns the number copied.
func (b *Block[T]) CopyFrom(src []T) int {
	return copy(b.Data(), src)
}

// Handle returns a handle bound to the block's current allocation.
func (b *Block[T]) Handle() Handle[T] {
	return Handle[T]{Index: b.index.Load(), block: b}
}

func (b *Block[T]) class() classKey {
	return classKey{elem: ElementTypeOf[T](), n: len(b.data)}
}

func (b *Block[T]) size() int64      { return byteSize[T](len(b.data)) }
func (b *Block[T]) owner() *Pool     { return b.pool.Value() }
func (b *Block[T]) refCount() int32  { return b.refs.Load() }
func (b *Block[T]) invalidate()      { b.valid.Store(false) }
func (b *Block[T]) isValid() bool    { return b.valid.Load() }
func (b *Block[T]) markCached() bool { return b.cached.CompareAndSwap(false, true) }

// Handle refers to one allocation of a block.
type Handle[T Element] struct {
	Index uint64
	block *Block[T]
}

// Resolve returns the block if it still holds the allocation the handle was
// taken from. Otherwise it returns a *StaleHandleError.
func (h Handle[T]) Resolve() (*Block[T], error) {
	b := h.block
	if b == nil {
		return nil, &StaleHandleError{Expected: h.Index}
	}
	cur := b.index.Load()
	valid := b.valid.Load()
	if !valid || cur != h.Index || b.refs.Load() <= 0 {
		return nil, &StaleHandleError{Expected: h.Index, Actual: cur, Valid: valid}
	}
	return b, nil
}

// Recyclable is implemented by every Block instantiation.
type Recyclable interface {
	class() classKey
	size() int64
	owner() *Pool
	refCount() int32
	invalidate()
	isValid() bool
	// markCached reports whether the caller is the one handing the block
	// back. It stays set until the block is taken out of the cache.
	markCached() bool
}
