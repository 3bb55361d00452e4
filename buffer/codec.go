package buffer

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortBuffer is returned by codecs when the input ends inside a value.
var ErrShortBuffer = errors.New("buffer: short input")

// Codec is the type-specific writer and reader of a buffer.
type Codec[T any] interface {
	// Append encodes v onto dst.
	Append(dst []byte, v T) ([]byte, error)
	// Decode reads one value from the start of src and returns it with the
	// number of bytes consumed.
	Decode(src []byte) (T, int, error)
}

// FuncCodec adapts a pair of functions to Codec.
type FuncCodec[T any] struct {
	AppendFunc func(dst []byte, v T) ([]byte, error)
	DecodeFunc func(src []byte) (T, int, error)
}

func (c FuncCodec[T]) Append(dst []byte, v T) ([]byte, error) { return c.AppendFunc(dst, v) }
func (c FuncCodec[T]) Decode(src []byte) (T, int, error)      { return c.DecodeFunc(src) }

// Int32Codec encodes int32 as 4 little-endian bytes.
type Int32Codec struct{}

func (Int32Codec) Append(dst []byte, v int32) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(dst, uint32(v)), nil
}

func (Int32Codec) Decode(src []byte) (int32, int, error) {
	if len(src) < 4 {
		return 0, 0, ErrShortBuffer
	}
	return int32(binary.LittleEndian.Uint32(src)), 4, nil
}

// Int64Codec encodes int64 as 8 little-endian bytes.
type Int64Codec struct{}

func (Int64Codec) Append(dst []byte, v int64) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(dst, uint64(v)), nil
}

func (Int64Codec) Decode(src []byte) (int64, int, error) {
	if len(src) < 8 {
		return 0, 0, ErrShortBuffer
	}
	return int64(binary.LittleEndian.Uint64(src)), 8, nil
}

// Float32Codec encodes float32 by its IEEE-754 bits.
type Float32Codec struct{}

func (Float32Codec) Append(dst []byte, v float32) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(v)), nil
}

func (Float32Codec) Decode(src []byte) (float32, int, error) {
	if len(src) < 4 {
		return 0, 0, ErrShortBuffer
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(src)), 4, nil
}

// Float64Codec encodes float64 by its IEEE-754 bits.
type Float64Codec struct{}

func (Float64Codec) Append(dst []byte, v float64) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v)), nil
}

func (Float64Codec) Decode(src []byte) (float64, int, error) {
	if len(src) < 8 {
		return 0, 0, ErrShortBuffer
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(src)), 8, nil
}

// StringCodec encodes a string as a uvarint length and its bytes.
type StringCodec struct{}

func (StringCodec) Append(dst []byte, v string) ([]byte, error) {
	dst = binary.AppendUvarint(dst, uint64(len(v)))
	return append(dst, v...), nil
}

func (StringCodec) Decode(src []byte) (string, int, error) {
	n, k := binary.Uvarint(src)
	if k <= 0 || uint64(len(src)-k) < n {
		return "", 0, ErrShortBuffer
	}
	return string(src[k : k+int(n)]), k + int(n), nil
}
