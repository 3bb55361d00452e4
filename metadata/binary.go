package metadata

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unique"
)

var (
	// ErrCorrupt is returned when a binary document cannot be decoded.
	ErrCorrupt = errors.New("metadata: corrupt binary document")
	// ErrUnknownKind is returned when encoding or decoding an unknown kind.
	ErrUnknownKind = errors.New("metadata: unknown kind")
)

// maxBlobSize bounds a framed document read from a stream.
const maxBlobSize = 64 << 20

// MarshalBinary implements encoding.BinaryMarshaler. Keys are written in
// sorted order.
func (d Document) MarshalBinary() ([]byte, error) {
	return d.AppendBinary(make([]byte, 0, 4+len(d)*16))
}

// AppendBinary appends the binary form of d to buf.
func (d Document) AppendBinary(buf []byte) ([]byte, error) {
	buf = binary.AppendUvarint(buf, uint64(len(d)))
	for _, k := range d.Keys() {
		buf = binary.AppendUvarint(buf, uint64(len(k)))
		buf = append(buf, k...)

		var err error
		if buf, err = appendValue(buf, d[k]); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Decoded entries are
// merged into *d.
func (d *Document) UnmarshalBinary(data []byte) error {
	count, n := binary.Uvarint(data)
	if n <= 0 || count > uint64(len(data)) {
		return fmt.Errorf("%w: entry count", ErrCorrupt)
	}
	data = data[n:]

	if *d == nil {
		*d = make(Document, count)
	}
	for range count {
		kLen, n := binary.Uvarint(data)
		if n <= 0 || uint64(len(data)-n) < kLen {
			return fmt.Errorf("%w: key", ErrCorrupt)
		}
		key := string(data[n : n+int(kLen)])
		data = data[n+int(kLen):]

		v, rest, err := parseValue(data)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		(*d)[key] = v
		data = rest
	}
	if len(data) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data))
	}
	return nil
}

// WriteTo writes the document as a uvarint length followed by its binary form.
func (d Document) WriteTo(w io.Writer) (int64, error) {
	body, err := d.MarshalBinary()
	if err != nil {
		return 0, err
	}
	buf := binary.AppendUvarint(make([]byte, 0, len(body)+binary.MaxVarintLen64), uint64(len(body)))
	buf = append(buf, body...)
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom reads a document written by WriteTo and merges it into *d. Only
// the framed bytes are consumed when r is an io.ByteReader; otherwise r is
// wrapped in a bufio.Reader and may be read past the frame.
func (d *Document) ReadFrom(r io.Reader) (int64, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	counted := &countingByteReader{r: br}
	size, err := binary.ReadUvarint(counted)
	if err != nil {
		return counted.n, err
	}
	if size > maxBlobSize {
		return counted.n, fmt.Errorf("%w: blob of %d bytes", ErrCorrupt, size)
	}
	body := make([]byte, size)
	n, err := io.ReadFull(br, body)
	total := counted.n + int64(n)
	if err != nil {
		return total, err
	}
	return total, d.UnmarshalBinary(body)
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

type countingByteReader struct {
	r io.ByteReader
	n int64
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// ParseFramed decodes a document written by WriteTo from the start of data
// and returns the number of bytes consumed.
func ParseFramed(data []byte) (Document, int, error) {
	size, n := binary.Uvarint(data)
	if n <= 0 || uint64(len(data)-n) < size {
		return nil, 0, fmt.Errorf("%w: frame", ErrCorrupt)
	}
	d := Document{}
	if err := d.UnmarshalBinary(data[n : n+int(size)]); err != nil {
		return nil, 0, err
	}
	return d, n + int(size), nil
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	buf = append(buf, byte(v.Kind))

	switch v.Kind {
	case KindNull:
	case KindInt:
		buf = binary.AppendVarint(buf, v.I64)
	case KindFloat:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.F64))
	case KindString:
		s := v.s.Value()
		buf = binary.AppendUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	case KindBool:
		if v.B {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindArray:
		buf = binary.AppendUvarint(buf, uint64(len(v.A)))
		for _, item := range v.A {
			var err error
			if buf, err = appendValue(buf, item); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, v.Kind)
	}
	return buf, nil
}

func parseValue(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Value{}, nil, fmt.Errorf("%w: missing kind", ErrCorrupt)
	}
	v := Value{Kind: Kind(data[0])}
	data = data[1:]

	switch v.Kind {
	case KindNull:
	case KindInt:
		i, n := binary.Varint(data)
		if n <= 0 {
			return v, nil, fmt.Errorf("%w: int", ErrCorrupt)
		}
		v.I64 = i
		data = data[n:]
	case KindFloat:
		if len(data) < 8 {
			return v, nil, fmt.Errorf("%w: float", ErrCorrupt)
		}
		v.F64 = math.Float64frombits(binary.LittleEndian.Uint64(data))
		data = data[8:]
	case KindString:
		sLen, n := binary.Uvarint(data)
		if n <= 0 || uint64(len(data)-n) < sLen {
			return v, nil, fmt.Errorf("%w: string", ErrCorrupt)
		}
		v.s = unique.Make(string(data[n : n+int(sLen)]))
		data = data[n+int(sLen):]
	case KindBool:
		if len(data) == 0 {
			return v, nil, fmt.Errorf("%w: bool", ErrCorrupt)
		}
		v.B = data[0] != 0
		data = data[1:]
	case KindArray:
		aLen, n := binary.Uvarint(data)
		if n <= 0 || aLen > uint64(len(data)-n) {
			return v, nil, fmt.Errorf("%w: array", ErrCorrupt)
		}
		data = data[n:]
		v.A = make([]Value, aLen)
		for i := range v.A {
			item, rest, err := parseValue(data)
			if err != nil {
				return v, nil, err
			}
			v.A[i] = item
			data = rest
		}
	default:
		return v, nil, fmt.Errorf("%w: %d", ErrUnknownKind, v.Kind)
	}
	return v, data, nil
}
