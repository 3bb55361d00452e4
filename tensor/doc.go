// Package tensor provides a pool of reference-counted numeric memory blocks
// and the tensor, index-list and weighted-index-list values built on them.
//
// # Blocks
//
// A [Block] is a fixed-length slice of one element type. It starts with a
// reference count of one; [Block.AddRef] and [Block.Release] adjust it. When
// the count reaches zero the block returns to its [Pool], which either caches
// it for reuse or discards it when caching would exceed the pool's maximum
// cache size.
//
// Every time a block is handed out it receives a fresh allocation index.
// A [Handle] remembers the index it was taken at, so code holding on to a
// handle after the block was recycled gets [ErrStaleHandle] instead of
// silently reading someone else's data:
//
//	pool := tensor.NewPool(64 << 20)
//	b, _ := tensor.Get[float32](pool, 1024)
//	h := b.Handle()
//	b.Release()
//	_, err := h.Resolve() // ErrStaleHandle
//
// The pool keeps only a weak reference from blocks back to itself. A block
// released after its pool was collected or closed is discarded.
//
// # Values
//
// [Tensor] is a shaped view over a pooled block (vector, matrix, 3D and 4D).
// [IndexList] is a set of indices backed by a roaring bitmap.
// [WeightedIndexList] pairs indices with float32 weights. All three write
// themselves with WriteTo and are read back with the matching Read or
// Unmarshal function.
package tensor
