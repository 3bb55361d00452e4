package tensor

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleHandle is returned when a handle refers to a block that was
	// recycled or discarded since the handle was taken.
	ErrStaleHandle = errors.New("tensor: stale handle")
	// ErrReleased is returned by AddRef on a block whose count reached zero.
	ErrReleased = errors.New("tensor: block already released")
	// ErrBlockInUse is returned when adding a block that is still referenced.
	ErrBlockInUse = errors.New("tensor: block still referenced")
	// ErrForeignBlock is returned when adding a block to a pool it was not
	// allocated from.
	ErrForeignBlock = errors.New("tensor: block belongs to another pool")
	// ErrNilPool is returned by Get when no pool is given.
	ErrNilPool = errors.New("tensor: nil pool")
	// ErrPoolClosed is returned by Get after Close.
	ErrPoolClosed = errors.New("tensor: pool closed")
	// ErrInvalidSize is returned for negative sizes and malformed shapes.
	ErrInvalidSize = errors.New("tensor: invalid size")
	// ErrCorrupt is returned when a serialised value cannot be decoded.
	ErrCorrupt = errors.New("tensor: corrupt encoding")
)

// StaleHandleError describes a failed handle resolution.
type StaleHandleError struct {
	Expected uint64 // allocation index stored in the handle
	Actual   uint64 // current allocation index of the block
	Valid    bool   // whether the block is still owned by a pool
}

func (e *StaleHandleError) Error() string {
	if !e.Valid {
		return fmt.Sprintf("tensor: stale handle: block %d was discarded", e.Expected)
	}
	return fmt.Sprintf("tensor: stale handle: allocation %d, block is now at %d", e.Expected, e.Actual)
}

func (e *StaleHandleError) Unwrap() error { return ErrStaleHandle }
