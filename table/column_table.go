package table

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/metadata"
	"github.com/hupe1980/tabula/tensor"
)

var errStopIteration = errors.New("stop iteration")

// ColumnTable is an immutable column-oriented table. Each column is a
// segment of buffer frames.
type ColumnTable struct {
	src      *source
	hdr      *header
	segments []*Segment
	pool     *tensor.Pool
	logger   *slog.Logger
	opts     options
	closed   atomic.Bool
}

func newColumnTable(src *source, o options) (*ColumnTable, error) {
	hdr, err := parseHeader(src.data)
	if err != nil {
		return nil, err
	}
	if hdr.orientation != ColumnOriented {
		return nil, fmt.Errorf("%w: %s, want %s", ErrInvalidOrientation, hdr.orientation, ColumnOriented)
	}
	n := len(hdr.columns)
	end := uint64(hdr.indexOffset) + 8*uint64(n+1)
	if end > uint64(len(src.data)) {
		return nil, corruptf("column index of %d columns", n)
	}

	t := &ColumnTable{
		src:      src,
		hdr:      hdr,
		segments: make([]*Segment, n),
		pool:     o.tensorPool(),
		logger:   o.logger,
		opts:     o,
	}
	index := src.data[hdr.indexOffset:end]
	prev := end
	for i := range n + 1 {
		off := binary.LittleEndian.Uint64(index[8*i:])
		if off < prev || off > uint64(len(src.data)) {
			return nil, corruptf("column %d at offset %d", i, off)
		}
		if i > 0 {
			c := hdr.columns[i-1]
			t.segments[i-1] = &Segment{
				typ:  c.Type,
				md:   c.Metadata,
				rows: hdr.rowCount,
				data: src.data[prev:off],
				pool: t.pool,
			}
		}
		prev = off
	}
	return t, nil
}

func (t *ColumnTable) RowCount() uint32          { return t.hdr.rowCount }
func (t *ColumnTable) ColumnCount() uint32       { return uint32(len(t.hdr.columns)) }
func (t *ColumnTable) ColumnTypes() []ColumnType { return columnTypes(t.hdr.columns) }
func (t *ColumnTable) Orientation() Orientation  { return ColumnOriented }

func (t *ColumnTable) ColumnMetadata(indices ...uint32) ([]metadata.Document, error) {
	return columnMetadata(t.hdr.columns, indices)
}

// Bytes returns the encoded table.
func (t *ColumnTable) Bytes() []byte { return t.src.data }

// Column returns segment i.
func (t *ColumnTable) Column(i uint32) (*Segment, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	if int(i) >= len(t.segments) {
		return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, i, len(t.segments))
	}
	return t.segments[i], nil
}

// Columns returns the given segments, or all when no index is given.
func (t *ColumnTable) Columns(indices ...uint32) ([]*Segment, error) {
	if len(indices) == 0 {
		indices = sequence(0, t.ColumnCount())
	}
	out := make([]*Segment, len(indices))
	for i, idx := range indices {
		s, err := t.Column(idx)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// decodeAll decodes every segment concurrently. Background slots come from
// the resource controller when one is configured.
func (t *ColumnTable) decodeAll(ctx context.Context) ([][]any, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	cols := make([][]any, len(t.segments))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range t.segments {
		g.Go(func() error {
			if err := t.opts.rc.AcquireBackground(ctx); err != nil {
				return err
			}
			defer t.opts.rc.ReleaseBackground()

			vals, err := s.decode(ctx)
			if err != nil {
				return fmt.Errorf("column %d: %w", i, err)
			}
			cols[i] = vals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, vals := range cols {
			Row(vals).Release()
		}
		return nil, err
	}
	return cols, nil
}

func (t *ColumnTable) ForEachRow(ctx context.Context, fn func(row Row, i uint32) error) error {
	cols, err := t.decodeAll(ctx)
	if err != nil {
		return err
	}
	// Rows not handed to fn are released on early exit.
	releaseFrom := func(i uint32) {
		for _, vals := range cols {
			Row(vals[i:]).Release()
		}
	}
	for i := range t.hdr.rowCount {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				releaseFrom(i)
				return err
			}
		}
		row := make(Row, len(cols))
		for c := range cols {
			row[c] = cols[c][i]
		}
		if err := fn(row, i); err != nil {
			releaseFrom(i + 1)
			return err
		}
	}
	return nil
}

// AsRowOriented converts the table by decoding all segments concurrently and
// writing one row at a time through a Builder.
func (t *ColumnTable) AsRowOriented(ctx context.Context, opts ...Option) (*RowTable, error) {
	o := t.opts
	o.file = ""
	for _, opt := range opts {
		opt(&o)
	}
	started := time.Now()

	b, err := NewBuilder(t.hdr.rowCount, func(bo *options) { *bo = o })
	if err != nil {
		return nil, err
	}
	defer b.Close()
	for _, c := range t.hdr.columns {
		if _, err := b.AddColumnWithMetadata(c.Type, c.Metadata); err != nil {
			return nil, err
		}
	}
	if err := t.ForEachRow(ctx, func(row Row, _ uint32) error {
		defer row.Release()
		return b.AddRow(row...)
	}); err != nil {
		return nil, err
	}
	rt, err := b.Build()
	if err != nil {
		return nil, err
	}
	logConversion(o, ColumnOriented, RowOriented, rt, started)
	return rt, nil
}

// Close releases the table's storage.
func (t *ColumnTable) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.src.close()
}

// Segment is one column of a ColumnTable.
type Segment struct {
	typ  ColumnType
	md   metadata.Document
	rows uint32
	data []byte
	pool *tensor.Pool

	once   sync.Once
	cached []any
	err    error
}

// Type returns the column type.
func (s *Segment) Type() ColumnType { return s.typ }

// Metadata returns a copy of the column metadata.
func (s *Segment) Metadata() metadata.Document { return s.md.Clone() }

// Name returns the column name.
func (s *Segment) Name() string { return s.md.GetString(metadata.KeyName, "") }

// Len returns the number of values.
func (s *Segment) Len() uint32 { return s.rows }

// Size returns the encoded size in bytes.
func (s *Segment) Size() int { return len(s.data) }

// At returns value i. The first call decodes and caches the whole segment.
func (s *Segment) At(i uint32) (any, error) {
	if i >= s.rows {
		return nil, fmt.Errorf("%w: value %d of %d", ErrOutOfRange, i, s.rows)
	}
	s.once.Do(func() { s.cached, s.err = s.decode(context.Background()) })
	if s.err != nil {
		return nil, s.err
	}
	return s.cached[i], nil
}

// Values returns an iterator over the segment's values. A decode error is
// yielded once with a nil value and ends the iteration.
func (s *Segment) Values(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		var stopped bool
		err := s.iterate(ctx, func(v any) error {
			if !yield(v, nil) {
				stopped = true
				return errStopIteration
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// WriteTo writes the segment's frames.
func (s *Segment) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.data)
	return int64(n), err
}

func (s *Segment) decode(ctx context.Context) ([]any, error) {
	out := make([]any, 0, s.rows)
	err := s.iterate(ctx, func(v any) error {
		out = append(out, v)
		return nil
	})
	if err == nil && uint32(len(out)) != s.rows {
		err = corruptf("segment %q holds %d values, want %d", s.Name(), len(out), s.rows)
	}
	if err != nil {
		Row(out).Release()
		return nil, err
	}
	return out, nil
}

func (s *Segment) iterate(ctx context.Context, fn func(any) error) error {
	// The frame reader reports every decode failure as a corrupt frame, so
	// failures that are not about the bytes are caught here first.
	var decodeErr error
	codec := buffer.FuncCodec[any]{
		DecodeFunc: func(src []byte) (any, int, error) {
			v, n, err := decodeValue(s.typ, src, s.pool)
			if err != nil && !isFormatError(err) {
				decodeErr = err
			}
			return v, n, err
		},
	}

	var n uint32
	err := buffer.ReadFrames(bytes.NewReader(s.data), codec, func(v any) error {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		n++
		return fn(v)
	})
	if decodeErr != nil {
		return decodeError(decodeErr, fmt.Sprintf("column %q", s.Name()))
	}
	if errors.Is(err, buffer.ErrCorruptFrame) {
		return fmt.Errorf("%w: column %q: %w", ErrCorruptTable, s.Name(), err)
	}
	return err
}
