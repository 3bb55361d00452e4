package tensor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// IndexList is a sorted set of indices.
type IndexList struct {
	bm *roaring.Bitmap
}

// NewIndexList creates a list holding indices.
func NewIndexList(indices ...uint32) *IndexList {
	return &IndexList{bm: roaring.BitmapOf(indices...)}
}

// IndexListFromBitmap wraps bm without copying.
func IndexListFromBitmap(bm *roaring.Bitmap) *IndexList {
	return &IndexList{bm: bm}
}

// Bitmap returns the underlying bitmap.
func (l *IndexList) Bitmap() *roaring.Bitmap { return l.bm }

// Len returns the number of indices.
func (l *IndexList) Len() int { return int(l.bm.GetCardinality()) }

// Contains reports whether i is in the list.
func (l *IndexList) Contains(i uint32) bool { return l.bm.Contains(i) }

// Indices returns the indices in ascending order.
func (l *IndexList) Indices() []uint32 { return l.bm.ToArray() }

// Equal reports whether both lists hold the same indices.
func (l *IndexList) Equal(o *IndexList) bool { return l.bm.Equals(o.bm) }

func (l *IndexList) String() string {
	parts := make([]string, 0, l.Len())
	for _, i := range l.Indices() {
		parts = append(parts, fmt.Sprint(i))
	}
	return "IndexList(" + strings.Join(parts, "|") + ")"
}

// WriteTo writes a uvarint length followed by the portable roaring encoding.
func (l *IndexList) WriteTo(w io.Writer) (int64, error) {
	l.bm.RunOptimize()
	body, err := l.bm.ToBytes()
	if err != nil {
		return 0, err
	}
	buf := binary.AppendUvarint(make([]byte, 0, len(body)+binary.MaxVarintLen32), uint64(len(body)))
	n, err := w.Write(append(buf, body...))
	return int64(n), err
}

// UnmarshalIndexList decodes a list from the start of data and returns the
// number of bytes consumed.
func UnmarshalIndexList(data []byte) (*IndexList, int, error) {
	size, n := binary.Uvarint(data)
	if n <= 0 || uint64(len(data)-n) < size {
		return nil, 0, fmt.Errorf("%w: index list", ErrCorrupt)
	}
	bm := roaring.New()
	if _, err := bm.ReadFrom(bytes.NewReader(data[n : n+int(size)])); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &IndexList{bm: bm}, n + int(size), nil
}

// WeightedIndex is an index with a weight.
type WeightedIndex struct {
	Index  uint32
	Weight float32
}

// WeightedIndexList is an ordered list of weighted indices.
type WeightedIndexList struct {
	Items []WeightedIndex
}

// NewWeightedIndexList creates a list from items.
func NewWeightedIndexList(items ...WeightedIndex) *WeightedIndexList {
	return &WeightedIndexList{Items: slices.Clone(items)}
}

// Len returns the number of entries.
func (l *WeightedIndexList) Len() int { return len(l.Items) }

// Equal reports whether both lists hold the same entries in order.
func (l *WeightedIndexList) Equal(o *WeightedIndexList) bool {
	return slices.Equal(l.Items, o.Items)
}

// WriteTo writes a uvarint count followed by (uint32 index, float32 weight)
// pairs in little endian.
func (l *WeightedIndexList) WriteTo(w io.Writer) (int64, error) {
	buf := binary.AppendUvarint(make([]byte, 0, binary.MaxVarintLen32+8*len(l.Items)), uint64(len(l.Items)))
	for _, it := range l.Items {
		buf = binary.LittleEndian.AppendUint32(buf, it.Index)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(it.Weight))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// UnmarshalWeightedIndexList decodes a list from the start of data and
// returns the number of bytes consumed.
func UnmarshalWeightedIndexList(data []byte) (*WeightedIndexList, int, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 || count > uint64(len(data)-n)/8 {
		return nil, 0, fmt.Errorf("%w: weighted index list", ErrCorrupt)
	}
	l := &WeightedIndexList{Items: make([]WeightedIndex, count)}
	off := n
	for i := range l.Items {
		l.Items[i] = WeightedIndex{
			Index:  binary.LittleEndian.Uint32(data[off:]),
			Weight: math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
		}
		off += 8
	}
	return l, off, nil
}
