package table

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hupe1980/tabula/internal/conv"
	"github.com/hupe1980/tabula/metadata"
)

type builderState uint8

const (
	stateEmpty builderState = iota
	stateHeaderWritten
	stateAcceptingRows
	stateFinalized
	stateFailed
	stateClosed
)

func (s builderState) String() string {
	switch s {
	case stateEmpty:
		return "Empty"
	case stateHeaderWritten:
		return "HeaderWritten"
	case stateAcceptingRows:
		return "AcceptingRows"
	case stateFinalized:
		return "Finalized"
	case stateFailed:
		return "Failed"
	case stateClosed:
		return "Closed"
	default:
		panic(fmt.Sprintf("table: unhandled builder state %d", s))
	}
}

// Builder writes a row-oriented table with a declared row count.
//
// Columns are declared first. The first AddRow freezes the schema and writes
// the header followed by a placeholder row offset index; Build patches the
// index and hands the bytes to a RowTable. A Builder is not safe for
// concurrent use.
type Builder struct {
	rowCount uint32
	columns  []Column
	opts     options
	sink     *sink
	state    builderState
	patchAt  int64
	offsets  []uint32
	scratch  []byte
	started  time.Time
}

// NewBuilder creates a builder for a table of exactly rowCount rows.
func NewBuilder(rowCount uint32, opts ...Option) (*Builder, error) {
	o := newOptions(opts)

	var (
		s   *sink
		err error
	)
	if o.file != "" {
		if s, err = newFileSink(o.fsys, o.file); err != nil {
			return nil, fmt.Errorf("table: create %s: %w", o.file, err)
		}
	} else {
		s = newMemorySink(0)
	}
	return &Builder{
		rowCount: rowCount,
		opts:     o,
		sink:     s,
		offsets:  make([]uint32, 0, rowCount),
		started:  time.Now(),
	}, nil
}

// RowCount returns the declared number of rows.
func (b *Builder) RowCount() uint32 { return b.rowCount }

// RowsWritten returns the number of rows added so far.
func (b *Builder) RowsWritten() uint32 { return uint32(len(b.offsets)) }

// ColumnCount returns the number of declared columns.
func (b *Builder) ColumnCount() uint32 { return uint32(len(b.columns)) }

func (b *Builder) protocolError(op string, cause error) error {
	return &ProtocolError{Op: op, State: b.state.String(), cause: cause}
}

// AddColumn declares a column and returns its metadata document. Entries set
// on the document before the first row are written to the header.
func (b *Builder) AddColumn(ct ColumnType, name string) (metadata.Document, error) {
	md := metadata.Document{}
	if name != "" {
		md.SetString(metadata.KeyName, name)
	}
	return b.AddColumnWithMetadata(ct, md)
}

// AddColumnWithMetadata declares a column with a copy of md. A missing Name
// defaults to "Column N"; Index is always set to the column's position.
func (b *Builder) AddColumnWithMetadata(ct ColumnType, md metadata.Document) (metadata.Document, error) {
	if b.state != stateEmpty {
		return nil, b.protocolError("AddColumn", ErrSchemaFrozen)
	}
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownColumnType, ct)
	}
	doc := md.Clone()
	if doc == nil {
		doc = metadata.Document{}
	}
	idx := len(b.columns)
	if doc.GetString(metadata.KeyName, "") == "" {
		doc.SetString(metadata.KeyName, fmt.Sprintf("Column %d", idx))
	}
	doc.SetInt(metadata.KeyIndex, int64(idx))
	b.columns = append(b.columns, Column{Type: ct, Metadata: doc})
	return doc, nil
}

// AddColumnsFrom declares every column of t with its type and metadata.
func (b *Builder) AddColumnsFrom(t Table) error {
	types := t.ColumnTypes()
	mds, err := t.ColumnMetadata()
	if err != nil {
		return err
	}
	for i, ct := range types {
		if _, err := b.AddColumnWithMetadata(ct, mds[i]); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.state = stateFailed
	if b.opts.logger != nil {
		b.opts.logger.Error("table build failed", "error", err)
	}
	return err
}

func (b *Builder) writeHeader() error {
	hdr, err := appendHeader(nil, RowOriented, b.columns, b.rowCount)
	if err != nil {
		return b.fail(fmt.Errorf("table: header: %w", err))
	}
	b.patchAt = int64(len(hdr))
	hdr = append(hdr, make([]byte, 4*int(b.rowCount))...)
	if _, err := b.sink.Write(hdr); err != nil {
		return b.fail(fmt.Errorf("table: write header: %w", err))
	}
	b.state = stateHeaderWritten
	return nil
}

// AddRow appends one row. Missing trailing values take the column default;
// a nil value does too.
func (b *Builder) AddRow(values ...any) error {
	switch b.state {
	case stateEmpty, stateHeaderWritten, stateAcceptingRows:
	default:
		return b.protocolError("AddRow", ErrBuilderState)
	}
	if len(b.offsets) >= int(b.rowCount) {
		return b.protocolError("AddRow", fmt.Errorf("%w: %d", ErrTooManyRows, b.rowCount))
	}
	if len(values) > len(b.columns) {
		return b.protocolError("AddRow", fmt.Errorf("%w: %d values for %d columns", ErrTooManyValues, len(values), len(b.columns)))
	}
	if b.state == stateEmpty {
		if err := b.writeHeader(); err != nil {
			return err
		}
	}

	row := b.scratch[:0]
	for i, c := range b.columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		var err error
		if row, err = appendValue(row, c.Type, v); err != nil {
			return b.fail(&EncodingError{Column: uint32(i), Type: c.Type, Value: v, cause: err})
		}
	}
	b.scratch = row

	off, err := conv.Int64ToUint32(b.sink.offset())
	if err != nil {
		return b.fail(fmt.Errorf("%w: row %d", ErrTableTooLarge, len(b.offsets)))
	}
	if _, err := b.sink.Write(row); err != nil {
		return b.fail(fmt.Errorf("table: write row %d: %w", len(b.offsets), err))
	}
	b.offsets = append(b.offsets, off)
	b.state = stateAcceptingRows
	return nil
}

// Build finalizes the table. The Builder must not be used afterwards except
// for Close.
func (b *Builder) Build() (*RowTable, error) {
	switch b.state {
	case stateEmpty:
		if err := b.writeHeader(); err != nil {
			return nil, err
		}
	case stateHeaderWritten, stateAcceptingRows:
	default:
		return nil, b.protocolError("Build", ErrBuilderState)
	}
	if len(b.offsets) != int(b.rowCount) {
		return nil, b.fail(b.protocolError("Build",
			fmt.Errorf("%w: %d rows written, %d declared", ErrRowCountMismatch, len(b.offsets), b.rowCount)))
	}

	index := make([]byte, 0, 4*len(b.offsets))
	for _, off := range b.offsets {
		index = binary.LittleEndian.AppendUint32(index, off)
	}
	if err := b.sink.patch(b.patchAt, index); err != nil {
		return nil, b.fail(fmt.Errorf("table: patch row index: %w", err))
	}
	size := b.sink.offset()
	src, err := b.sink.finish()
	if err != nil {
		return nil, b.fail(fmt.Errorf("table: finish: %w", err))
	}
	b.state = stateFinalized

	t, err := newRowTable(src, b.opts)
	if err != nil {
		_ = src.close()
		return nil, err
	}

	info := BuildInfo{
		Orientation: RowOriented,
		Rows:        b.rowCount,
		Columns:     len(b.columns),
		Bytes:       size,
		Duration:    time.Since(b.started),
	}
	if b.opts.logger != nil {
		b.opts.logger.Debug("table built", "rows", info.Rows, "columns", info.Columns, "bytes", info.Bytes, "file", b.opts.file)
	}
	if b.opts.onBuild != nil {
		b.opts.onBuild(info)
	}
	return t, nil
}

// Close releases the builder's storage. A file that was never built is
// removed. It is safe to call more than once and after Build.
func (b *Builder) Close() error {
	if b.state == stateClosed {
		return nil
	}
	err := b.sink.close()
	if b.state != stateFinalized {
		b.state = stateClosed
	}
	return err
}
