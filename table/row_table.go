package table

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/tabula/metadata"
	"github.com/hupe1980/tabula/tensor"
)

// peekRows is how many rows Head and Tail return at most.
const peekRows = 10

// RowTable is an immutable row-oriented table.
type RowTable struct {
	src    *source
	hdr    *header
	index  []byte
	pool   *tensor.Pool
	logger *slog.Logger
	opts   options
	closed atomic.Bool
}

func newRowTable(src *source, o options) (*RowTable, error) {
	hdr, err := parseHeader(src.data)
	if err != nil {
		return nil, err
	}
	if hdr.orientation != RowOriented {
		return nil, fmt.Errorf("%w: %s, want %s", ErrInvalidOrientation, hdr.orientation, RowOriented)
	}
	end := uint64(hdr.indexOffset) + 4*uint64(hdr.rowCount)
	if end > uint64(len(src.data)) {
		return nil, corruptf("row index of %d rows", hdr.rowCount)
	}
	return &RowTable{
		src:    src,
		hdr:    hdr,
		index:  src.data[hdr.indexOffset:end],
		pool:   o.tensorPool(),
		logger: o.logger,
		opts:   o,
	}, nil
}

func (t *RowTable) RowCount() uint32          { return t.hdr.rowCount }
func (t *RowTable) ColumnCount() uint32       { return uint32(len(t.hdr.columns)) }
func (t *RowTable) ColumnTypes() []ColumnType { return columnTypes(t.hdr.columns) }
func (t *RowTable) Orientation() Orientation  { return RowOriented }

func (t *RowTable) ColumnMetadata(indices ...uint32) ([]metadata.Document, error) {
	return columnMetadata(t.hdr.columns, indices)
}

// Bytes returns the encoded table.
func (t *RowTable) Bytes() []byte { return t.src.data }

// rowBounds returns the byte range of row i.
func (t *RowTable) rowBounds(i uint32) (int, int, error) {
	data := t.src.data
	start := uint64(binary.LittleEndian.Uint32(t.index[4*i:]))
	end := uint64(len(data))
	if i+1 < t.hdr.rowCount {
		end = uint64(binary.LittleEndian.Uint32(t.index[4*(i+1):]))
	}
	minStart := uint64(t.hdr.indexOffset + len(t.index))
	if start < minStart || start > end || end > uint64(len(data)) {
		return 0, 0, corruptf("row %d at [%d, %d)", i, start, end)
	}
	return int(start), int(end), nil
}

// Row decodes row i.
func (t *RowTable) Row(i uint32) (Row, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	if i >= t.hdr.rowCount {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, t.hdr.rowCount)
	}
	start, end, err := t.rowBounds(i)
	if err != nil {
		return nil, err
	}
	src := t.src.data[start:end]
	row := make(Row, len(t.hdr.columns))
	for c, col := range t.hdr.columns {
		v, n, err := decodeValue(col.Type, src, t.pool)
		if err != nil {
			row.Release()
			return nil, decodeError(err, fmt.Sprintf("row %d column %d", i, c))
		}
		row[c] = v
		src = src[n:]
	}
	return row, nil
}

// Rows decodes the given rows in the order given.
func (t *RowTable) Rows(indices ...uint32) ([]Row, error) {
	out := make([]Row, 0, len(indices))
	for _, i := range indices {
		r, err := t.Row(i)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// RowsBitmap decodes the rows whose indices are set in bm, ascending.
func (t *RowTable) RowsBitmap(bm *roaring.Bitmap) ([]Row, error) {
	return t.Rows(bm.ToArray()...)
}

// Head returns up to the first ten rows.
func (t *RowTable) Head() ([]Row, error) {
	n := min(t.hdr.rowCount, peekRows)
	return t.Rows(sequence(0, n)...)
}

// Tail returns up to the last ten rows.
func (t *RowTable) Tail() ([]Row, error) {
	n := min(t.hdr.rowCount, peekRows)
	return t.Rows(sequence(t.hdr.rowCount-n, t.hdr.rowCount)...)
}

func sequence(from, to uint32) []uint32 {
	out := make([]uint32, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func (t *RowTable) ForEachRow(ctx context.Context, fn func(row Row, i uint32) error) error {
	for i := range t.hdr.rowCount {
		if err := t.visit(ctx, i, fn); err != nil {
			return err
		}
	}
	return nil
}

// ForEachRowIn calls fn for each of the given rows in the order given.
func (t *RowTable) ForEachRowIn(ctx context.Context, indices []uint32, fn func(row Row, i uint32) error) error {
	for _, i := range indices {
		if err := t.visit(ctx, i, fn); err != nil {
			return err
		}
	}
	return nil
}

func (t *RowTable) visit(ctx context.Context, i uint32, fn func(Row, uint32) error) error {
	if i%256 == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	r, err := t.Row(i)
	if err != nil {
		return err
	}
	return fn(r, i)
}

// AsColumnOriented converts the table in one pass over its rows. Each column
// accumulates in its own spill buffer before the segments are written.
func (t *RowTable) AsColumnOriented(ctx context.Context, opts ...Option) (*ColumnTable, error) {
	o := t.opts
	o.file = ""
	for _, opt := range opts {
		opt(&o)
	}
	started := time.Now()
	ct, err := buildColumnTable(ctx, t, o)
	if err != nil {
		return nil, err
	}
	logConversion(o, RowOriented, ColumnOriented, ct, started)
	return ct, nil
}

// Close releases the table's storage. Rows decoded earlier stay valid.
func (t *RowTable) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.src.close()
}
