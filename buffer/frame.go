package buffer

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/tabula/internal/compress"
	"github.com/hupe1980/tabula/internal/hash"
)

const (
	frameMagic = 0xB1
	// maxFramePayload bounds a single frame read from a stream.
	maxFramePayload = 1 << 30
)

// ErrCorruptFrame is returned when a frame fails validation.
var ErrCorruptFrame = errors.New("buffer: corrupt frame")

// appendFrame encodes items as one frame onto dst.
func appendFrame[T any](dst []byte, items []T, c Codec[T], comp compress.Type) ([]byte, error) {
	var raw []byte
	for _, v := range items {
		var err error
		if raw, err = c.Append(raw, v); err != nil {
			return nil, err
		}
	}
	payload, used, err := compress.Compress(raw, comp)
	if err != nil {
		return nil, err
	}

	dst = append(dst, frameMagic)
	dst = binary.AppendUvarint(dst, uint64(len(items)))
	dst = append(dst, byte(used))
	dst = binary.AppendUvarint(dst, uint64(len(raw)))
	dst = binary.AppendUvarint(dst, uint64(len(payload)))
	dst = binary.LittleEndian.AppendUint32(dst, hash.CRC32C(payload))
	return append(dst, payload...), nil
}

type frame struct {
	count uint64
	raw   []byte
	size  int64 // encoded size including the header
}

// countingReader counts bytes consumed through a bufio.Reader.
type countingReader struct {
	br *bufio.Reader
	n  int64
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.br.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingReader) uvarint() (uint64, error) {
	v, err := binary.ReadUvarint(c)
	if err != nil {
		return 0, corrupt(err)
	}
	return v, nil
}

func corrupt(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: %v", ErrCorruptFrame, err)
}

// readFrame reads one frame. It returns io.EOF when br is exhausted at a
// frame boundary.
func readFrame(br *bufio.Reader) (frame, error) {
	cr := &countingReader{br: br}
	magic, err := cr.ReadByte()
	if err != nil {
		return frame{}, err
	}
	if magic != frameMagic {
		return frame{}, fmt.Errorf("%w: magic 0x%02x", ErrCorruptFrame, magic)
	}
	count, err := cr.uvarint()
	if err != nil {
		return frame{}, err
	}
	codec, err := cr.ReadByte()
	if err != nil {
		return frame{}, corrupt(err)
	}
	rawLen, err := cr.uvarint()
	if err != nil {
		return frame{}, err
	}
	payloadLen, err := cr.uvarint()
	if err != nil {
		return frame{}, err
	}
	if payloadLen > maxFramePayload || rawLen > maxFramePayload {
		return frame{}, fmt.Errorf("%w: frame of %d bytes", ErrCorruptFrame, payloadLen)
	}

	tail := make([]byte, 4+payloadLen)
	if _, err := io.ReadFull(br, tail); err != nil {
		return frame{}, corrupt(err)
	}
	payload := tail[4:]
	if !hash.Verify(payload, binary.LittleEndian.Uint32(tail)) {
		return frame{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptFrame)
	}
	ct := compress.Type(codec)
	if !ct.Valid() {
		return frame{}, fmt.Errorf("%w: codec %d", ErrCorruptFrame, codec)
	}
	raw, err := compress.Decompress(payload, ct, int(rawLen))
	if err != nil {
		return frame{}, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
	}
	return frame{count: count, raw: raw, size: cr.n + int64(len(tail))}, nil
}

func decodeFrame[T any](f frame, c Codec[T], fn func(T) error) error {
	src := f.raw
	for i := uint64(0); i < f.count; i++ {
		v, n, err := c.Decode(src)
		if err != nil {
			return fmt.Errorf("%w: item %d: %v", ErrCorruptFrame, i, err)
		}
		src = src[n:]
		if err := fn(v); err != nil {
			return err
		}
	}
	if len(src) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorruptFrame, len(src))
	}
	return nil
}

// ReadFrames decodes a frame stream written by Hybrid.WriteTo and calls fn
// for every item in order.
func ReadFrames[T any](r io.Reader, c Codec[T], fn func(T) error) error {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	for {
		f, err := readFrame(br)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := decodeFrame(f, c, fn); err != nil {
			return err
		}
	}
}
