package tensor

import (
	"fmt"

	"github.com/hupe1980/tabula/internal/mem"
)

// Element is the set of types a block can hold.
type Element interface {
	float32 | float64 | int32 | int64 | uint8
}

// ElementType tags an element type. The values are persisted.
type ElementType uint8

const (
	Float32 ElementType = iota + 1
	Float64
	Int32
	Int64
	Uint8
)

// ElementTypeOf returns the tag for T.
func ElementTypeOf[T Element]() ElementType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	default:
		panic("unreachable")
	}
}

// Size returns the element width in bytes.
func (t ElementType) Size() int {
	switch t {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8:
		return 1
	default:
		return 0
	}
}

func (t ElementType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return fmt.Sprintf("ElementType(%d)", uint8(t))
	}
}

func byteSize[T Element](n int) int64 {
	return mem.Bytes[T](n)
}
