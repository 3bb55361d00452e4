package table

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/internal/tempstream"
)

// buildColumnTable accumulates every column of t into its own spill buffer
// and writes the buffers as segments of a column-oriented table.
func buildColumnTable(ctx context.Context, t Table, o options) (ct *ColumnTable, err error) {
	started := time.Now()
	streams := o.streams
	if streams == nil {
		streams = tempstream.NewMemory(tempstream.WithLogger(o.logger))
		defer streams.Close()
	}

	types := t.ColumnTypes()
	bufs := make([]*buffer.Hybrid[[]byte], len(types))
	for i := range types {
		bufs[i] = buffer.New(streams, uint32(i), encodedCodec{},
			buffer.WithThreshold(o.threshold),
			buffer.WithCompression(o.compression),
			buffer.WithLogger(o.logger),
			buffer.WithResourceController(o.rc),
		)
	}

	// Cells are encoded as they arrive so tensor cells can go back to the
	// pool before the next row is decoded.
	if err := t.ForEachRow(ctx, func(row Row, i uint32) error {
		defer row.Release()
		for c, v := range row {
			enc, err := appendValue(nil, types[c], v)
			if err != nil {
				return &EncodingError{Column: uint32(c), Type: types[c], Value: v, cause: err}
			}
			if err := bufs[c].AddContext(ctx, enc); err != nil {
				return fmt.Errorf("row %d column %d: %w", i, c, err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	mds, err := t.ColumnMetadata()
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(types))
	for i, typ := range types {
		cols[i] = Column{Type: typ, Metadata: mds[i]}
	}

	var s *sink
	if o.file != "" {
		if s, err = newFileSink(o.fsys, o.file); err != nil {
			return nil, fmt.Errorf("table: create %s: %w", o.file, err)
		}
	} else {
		s = newMemorySink(0)
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	hdr, err := appendHeader(nil, ColumnOriented, cols, t.RowCount())
	if err != nil {
		return nil, err
	}
	patchAt := int64(len(hdr))
	hdr = append(hdr, make([]byte, 8*(len(cols)+1))...)
	if _, err := s.Write(hdr); err != nil {
		return nil, err
	}

	index := make([]byte, 0, 8*(len(cols)+1))
	for i, b := range bufs {
		index = binary.LittleEndian.AppendUint64(index, uint64(s.offset()))
		if _, err := b.WriteTo(s); err != nil {
			return nil, fmt.Errorf("table: write column %d: %w", i, err)
		}
	}
	index = binary.LittleEndian.AppendUint64(index, uint64(s.offset()))
	if err := s.patch(patchAt, index); err != nil {
		return nil, err
	}

	size := s.offset()
	src, err := s.finish()
	if err != nil {
		return nil, err
	}
	if ct, err = newColumnTable(src, o); err != nil {
		_ = src.close()
		return nil, err
	}
	if o.onBuild != nil {
		o.onBuild(BuildInfo{Orientation: ColumnOriented, Rows: t.RowCount(), Columns: len(cols), Bytes: size, Duration: time.Since(started)})
	}
	return ct, nil
}

// encodedCodec carries cells that are already in their value encoding. The
// frames it writes decode with ValueCodec.
type encodedCodec struct{}

func (encodedCodec) Append(dst []byte, v []byte) ([]byte, error) { return append(dst, v...), nil }

func (encodedCodec) Decode([]byte) ([]byte, int, error) {
	return nil, 0, errors.New("table: encoded cells are read with ValueCodec")
}

func logConversion(o options, from, to Orientation, t Table, started time.Time) {
	if o.logger == nil {
		return
	}
	o.logger.Debug("table converted",
		"from", from.String(),
		"to", to.String(),
		"rows", t.RowCount(),
		"columns", t.ColumnCount(),
		"duration", time.Since(started),
	)
}
