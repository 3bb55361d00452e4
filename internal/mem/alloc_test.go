package mem

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func aligned[T any](s []T) bool {
	return uintptr(unsafe.Pointer(&s[0]))%Alignment == 0
}

func TestAllocAligned(t *testing.T) {
	for _, size := range []int{1, 10, 63, 64, 65, 1024} {
		buf := AllocAligned(size)
		assert.Len(t, buf, size)
		assert.True(t, aligned(buf), "size %d", size)
	}
	assert.Nil(t, AllocAligned(0))
	assert.Nil(t, AllocAligned(-1))
}

func TestAlloc(t *testing.T) {
	for _, n := range []int{1, 16, 17, 1000} {
		f32 := Alloc[float32](n)
		assert.Len(t, f32, n)
		assert.True(t, aligned(f32))

		i64 := Alloc[int64](n)
		assert.Len(t, i64, n)
		assert.True(t, aligned(i64))
		for _, v := range i64 {
			assert.Zero(t, v)
		}
	}
	assert.Nil(t, Alloc[float64](0))
}

func TestSizes(t *testing.T) {
	assert.Equal(t, 4, SizeOf[float32]())
	assert.Equal(t, 8, SizeOf[float64]())
	assert.Equal(t, 1, SizeOf[uint8]())
	assert.Equal(t, int64(400), Bytes[int32](100))
}

func BenchmarkAlloc(b *testing.B) {
	for _, n := range []int{16, 256, 4096} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = Alloc[float32](n)
			}
		})
	}
}
