package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of every allocation (one cache line,
// AVX-512 register width).
const Alignment = 64

// Numeric is the set of element types that can live in an aligned block.
type Numeric interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// SizeOf returns the size in bytes of one element of T.
func SizeOf[T Numeric]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// AllocAligned allocates a byte slice of the given size starting at a
// 64-byte aligned address. It returns nil for non-positive sizes.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // alignment needs the raw address
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)
	return buf[offset : offset+uintptr(size)]
}

// Alloc allocates n elements of T starting at a 64-byte aligned address.
// The memory is zeroed.
func Alloc[T Numeric](n int) []T {
	if n <= 0 {
		return nil
	}
	raw := AllocAligned(n * SizeOf[T]())
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n) //nolint:gosec // 64-byte alignment satisfies every T
}

// Bytes returns the size in bytes of n elements of T.
func Bytes[T Numeric](n int) int64 {
	return int64(n) * int64(SizeOf[T]())
}
