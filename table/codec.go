package table

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/tensor"
)

var (
	errValueType  = errors.New("unsupported value type")
	errValueRange = errors.New("value out of range")
	errShort      = errors.New("short value")
)

const (
	// ticksPerSecond is the resolution of encoded dates (100 ns ticks).
	ticksPerSecond = 10_000_000
	// unixEpochTicks is 1970-01-01 UTC in ticks since 0001-01-01 UTC.
	unixEpochTicks = 621_355_968_000_000_000
)

// MinDate is the zero date, 0001-01-01 00:00:00 UTC.
var MinDate = time.Time{}

// DefaultValue returns the value AddRow synthesizes for a missing cell.
func DefaultValue(ct ColumnType) any {
	switch ct {
	case Unknown:
		return nil
	case Boolean:
		return false
	case Byte:
		return int8(0)
	case Short:
		return int16(0)
	case Int:
		return int32(0)
	case Long:
		return int64(0)
	case Float:
		return float32(0)
	case Double:
		return float64(0)
	case Decimal:
		return decimal.Decimal{}
	case String:
		return ""
	case Date:
		return MinDate
	case IndexList:
		return tensor.NewIndexList()
	case WeightedIndexList:
		return tensor.NewWeightedIndexList()
	case Vector, Matrix, Tensor3D, Tensor4D:
		t, err := tensor.New[float32](nil, make([]uint32, ct.Rank())...)
		if err != nil {
			panic(err)
		}
		return t
	case BinaryData:
		return []byte{}
	default:
		panic(fmt.Sprintf("table: unhandled column type %d", ct))
	}
}

// appendWriter adapts a byte slice to io.Writer.
type appendWriter struct{ buf []byte }

func (w *appendWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func appendWriterTo(dst []byte, v io.WriterTo) ([]byte, error) {
	w := &appendWriter{buf: dst}
	if _, err := v.WriteTo(w); err != nil {
		return dst, err
	}
	return w.buf, nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), x <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	}
	return 0, false
}

func intInRange(v any, lo, hi int64) (int64, error) {
	n, ok := toInt64(v)
	if !ok {
		return 0, errValueType
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d", errValueRange, n)
	}
	return n, nil
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

// dateTicks converts t to 100 ns ticks since 0001-01-01 UTC.
func dateTicks(t time.Time) int64 {
	return t.Unix()*ticksPerSecond + int64(t.Nanosecond()/100) + unixEpochTicks
}

func dateFromTicks(ticks int64) time.Time {
	rel := ticks - unixEpochTicks
	sec, rem := rel/ticksPerSecond, rel%ticksPerSecond
	if rem < 0 {
		sec--
		rem += ticksPerSecond
	}
	return time.Unix(sec, rem*100).UTC()
}

// appendValue encodes v for a column of type ct. A nil v encodes the
// column's default.
func appendValue(dst []byte, ct ColumnType, v any) ([]byte, error) {
	if v == nil {
		v = DefaultValue(ct)
	}
	le := binary.LittleEndian

	switch ct {
	case Unknown:
		return dst, nil
	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return dst, errValueType
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case Byte:
		n, err := intInRange(v, math.MinInt8, math.MaxInt8)
		if err != nil {
			return dst, err
		}
		return append(dst, byte(int8(n))), nil
	case Short:
		n, err := intInRange(v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return dst, err
		}
		return le.AppendUint16(dst, uint16(int16(n))), nil
	case Int:
		n, err := intInRange(v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return dst, err
		}
		return le.AppendUint32(dst, uint32(int32(n))), nil
	case Long:
		n, err := intInRange(v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return dst, err
		}
		return le.AppendUint64(dst, uint64(n)), nil
	case Float:
		f, ok := toFloat64(v)
		if !ok {
			return dst, errValueType
		}
		return le.AppendUint32(dst, math.Float32bits(float32(f))), nil
	case Double:
		f, ok := toFloat64(v)
		if !ok {
			return dst, errValueType
		}
		return le.AppendUint64(dst, math.Float64bits(f)), nil
	case Decimal:
		return appendDecimal(dst, v)
	case String:
		s, ok := v.(string)
		if !ok {
			return dst, errValueType
		}
		dst = binary.AppendUvarint(dst, uint64(len(s)))
		return append(dst, s...), nil
	case Date:
		t, ok := v.(time.Time)
		if !ok {
			return dst, errValueType
		}
		return le.AppendUint64(dst, uint64(dateTicks(t))), nil
	case IndexList:
		if idx, ok := v.([]uint32); ok {
			v = tensor.NewIndexList(idx...)
		}
		return appendSelfEncoding(dst, v)
	case WeightedIndexList:
		if items, ok := v.([]tensor.WeightedIndex); ok {
			v = tensor.NewWeightedIndexList(items...)
		}
		return appendSelfEncoding(dst, v)
	case Vector, Matrix, Tensor3D, Tensor4D:
		if r, ok := v.(interface{ Rank() int }); ok && r.Rank() != ct.Rank() {
			return dst, fmt.Errorf("%w: rank %d, want %d", errValueType, r.Rank(), ct.Rank())
		}
		return appendSelfEncoding(dst, v)
	case BinaryData:
		b, ok := v.([]byte)
		if !ok {
			return dst, errValueType
		}
		dst = binary.AppendUvarint(dst, uint64(len(b)))
		return append(dst, b...), nil
	default:
		panic(fmt.Sprintf("table: unhandled column type %d", ct))
	}
}

func appendSelfEncoding(dst []byte, v any) ([]byte, error) {
	w, ok := v.(io.WriterTo)
	if !ok {
		return dst, errValueType
	}
	return appendWriterTo(dst, w)
}

func appendDecimal(dst []byte, v any) ([]byte, error) {
	var d decimal.Decimal
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case *decimal.Decimal:
		d = *x
	default:
		n, ok := toInt64(v)
		if !ok {
			return dst, errValueType
		}
		d = decimal.NewFromInt(n)
	}
	coef := d.Coefficient()
	if !coef.IsInt64() {
		return dst, fmt.Errorf("%w: coefficient of %s", errValueRange, d)
	}
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, uint32(d.Exponent()))
	dst = le.AppendUint32(dst, 0)
	return le.AppendUint64(dst, uint64(coef.Int64())), nil
}

// decodeValue reads one value of type ct from the start of src. Tensor values
// are allocated from pool.
func decodeValue(ct ColumnType, src []byte, pool *tensor.Pool) (any, int, error) {
	if w := ct.FixedWidth(); w > 0 && len(src) < w {
		return nil, 0, errShort
	}
	le := binary.LittleEndian

	switch ct {
	case Unknown:
		return nil, 0, nil
	case Boolean:
		return src[0] != 0, 1, nil
	case Byte:
		return int8(src[0]), 1, nil
	case Short:
		return int16(le.Uint16(src)), 2, nil
	case Int:
		return int32(le.Uint32(src)), 4, nil
	case Long:
		return int64(le.Uint64(src)), 8, nil
	case Float:
		return math.Float32frombits(le.Uint32(src)), 4, nil
	case Double:
		return math.Float64frombits(le.Uint64(src)), 8, nil
	case Decimal:
		exp := int32(le.Uint32(src))
		coef := int64(le.Uint64(src[8:]))
		return decimal.New(coef, exp), 16, nil
	case String:
		b, n, err := readBytes(src)
		if err != nil {
			return nil, 0, err
		}
		return string(b), n, nil
	case Date:
		return dateFromTicks(int64(le.Uint64(src))), 8, nil
	case IndexList:
		return decodeWith(tensor.UnmarshalIndexList(src))
	case WeightedIndexList:
		return decodeWith(tensor.UnmarshalWeightedIndexList(src))
	case Vector, Matrix, Tensor3D, Tensor4D:
		t, n, err := tensor.UnmarshalTensor[float32](pool, src)
		if err != nil {
			return nil, 0, err
		}
		if t.Rank() != ct.Rank() {
			t.Release()
			return nil, 0, fmt.Errorf("%w: rank %d in %s column", ErrCorruptTable, t.Rank(), ct)
		}
		return t, n, nil
	case BinaryData:
		b, n, err := readBytes(src)
		if err != nil {
			return nil, 0, err
		}
		return bytes.Clone(b), n, nil
	default:
		panic(fmt.Sprintf("table: unhandled column type %d", ct))
	}
}

// releaseValue drops the pool reference a decoded tensor cell holds.
func releaseValue(v any) {
	if r, ok := v.(interface{ Release() int32 }); ok {
		r.Release()
	}
}

// isFormatError reports whether a decodeValue error means malformed bytes.
// Pool and memory budget failures are not corruption.
func isFormatError(err error) bool {
	return errors.Is(err, errShort) ||
		errors.Is(err, tensor.ErrCorrupt) ||
		errors.Is(err, tensor.ErrInvalidSize) ||
		errors.Is(err, ErrCorruptTable)
}

// decodeError wraps a decodeValue failure at where.
func decodeError(err error, where string) error {
	if !isFormatError(err) {
		return fmt.Errorf("table: %s: %w", where, err)
	}
	if errors.Is(err, ErrCorruptTable) {
		return fmt.Errorf("%s: %w", where, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrCorruptTable, where, err)
}

func decodeWith[V any](v V, n int, err error) (any, int, error) {
	if err != nil {
		return nil, 0, err
	}
	return v, n, nil
}

func readBytes(src []byte) ([]byte, int, error) {
	size, n := binary.Uvarint(src)
	if n <= 0 || size > uint64(len(src)-n) {
		return nil, 0, errShort
	}
	end := n + int(size)
	return src[n:end], end, nil
}

// ValueCodec returns the segment codec for values of type ct.
func ValueCodec(ct ColumnType, pool *tensor.Pool) buffer.Codec[any] {
	return buffer.FuncCodec[any]{
		AppendFunc: func(dst []byte, v any) ([]byte, error) {
			out, err := appendValue(dst, ct, v)
			if err != nil {
				return dst, &EncodingError{Type: ct, Value: v, cause: err}
			}
			return out, nil
		},
		DecodeFunc: func(src []byte) (any, int, error) {
			return decodeValue(ct, src, pool)
		},
	}
}
