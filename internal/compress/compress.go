package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a block codec. The numeric values are persisted.
type Type uint8

const (
	None Type = 0
	LZ4  Type = 1
	ZSTD Type = 2
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compress.Type(%d)", uint8(t))
	}
}

// Valid reports whether t is a known codec.
func (t Type) Valid() bool { return t <= ZSTD }

var (
	// ErrUnknownType is returned for codec tags this package does not know.
	ErrUnknownType = errors.New("compress: unknown type")
	// ErrSizeMismatch is returned when a block decodes to an unexpected length.
	ErrSizeMismatch = errors.New("compress: decompressed size mismatch")
)

// minRatio is the largest compressed/raw ratio still worth storing compressed.
const minRatio = 0.9

var (
	encoders sync.Pool
	decoders sync.Pool
)

func getEncoder() *zstd.Encoder {
	if v := encoders.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getDecoder() *zstd.Decoder {
	if v := decoders.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Compress encodes src with t. It returns the payload and the codec that was
// used, which is None when compression did not pay off.
func Compress(src []byte, t Type) ([]byte, Type, error) {
	if t == None || len(src) == 0 {
		return src, None, nil
	}

	var out []byte
	switch t {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(src)))
		n, err := lz4.CompressBlock(src, buf, nil)
		if err != nil {
			return nil, None, fmt.Errorf("compress: lz4: %w", err)
		}
		out = buf[:n]
	case ZSTD:
		enc := getEncoder()
		out = enc.EncodeAll(src, nil)
		encoders.Put(enc)
	default:
		return nil, None, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(src))*minRatio {
		return src, None, nil
	}
	return out, t, nil
}

// Decompress decodes a payload produced by Compress with codec t into a
// buffer of rawLen bytes.
func Decompress(src []byte, t Type, rawLen int) ([]byte, error) {
	switch t {
	case None:
		if len(src) != rawLen {
			return nil, ErrSizeMismatch
		}
		return src, nil
	case LZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(src, out)
		if err != nil {
			return nil, fmt.Errorf("compress: lz4: %w", err)
		}
		if n != rawLen {
			return nil, ErrSizeMismatch
		}
		return out, nil
	case ZSTD:
		dec := getDecoder()
		defer decoders.Put(dec)
		out, err := dec.DecodeAll(src, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		if len(out) != rawLen {
			return nil, ErrSizeMismatch
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
}
