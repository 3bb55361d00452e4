package table

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/tabula/metadata"
)

// FormatVersion is the table format version this package writes.
const FormatVersion int32 = 1

// Column describes one column of a table header.
type Column struct {
	Type     ColumnType
	Metadata metadata.Document
}

// Name returns the column's Name metadata entry.
func (c Column) Name() string { return c.Metadata.GetString(metadata.KeyName, "") }

// header is the decoded fixed part of a table.
type header struct {
	orientation Orientation
	columns     []Column
	rowCount    uint32
	// indexOffset is where the row or column offset index starts.
	indexOffset int
}

// appendHeader writes everything up to and including the row count.
func appendHeader(dst []byte, o Orientation, columns []Column, rowCount uint32) ([]byte, error) {
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, uint32(FormatVersion))
	dst = le.AppendUint32(dst, uint32(o))
	dst = le.AppendUint32(dst, uint32(len(columns)))
	for _, c := range columns {
		dst = append(dst, byte(c.Type))
		blob, err := c.Metadata.MarshalBinary()
		if err != nil {
			return nil, err
		}
		dst = binary.AppendUvarint(dst, uint64(len(blob)))
		dst = append(dst, blob...)
	}
	return le.AppendUint32(dst, rowCount), nil
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptTable, fmt.Sprintf(format, args...))
}

// parseHeader decodes the header at the start of data.
func parseHeader(data []byte) (*header, error) {
	le := binary.LittleEndian
	if len(data) < 12 {
		return nil, corruptf("header of %d bytes", len(data))
	}
	if v := int32(le.Uint32(data)); v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	o := Orientation(int32(le.Uint32(data[4:])))
	if o != RowOriented && o != ColumnOriented {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrientation, o)
	}
	count := le.Uint32(data[8:])
	off := 12

	// Every column needs at least a tag and an empty blob.
	if uint64(count)*2 > uint64(len(data)-off) {
		return nil, corruptf("%d columns in %d bytes", count, len(data))
	}
	h := &header{orientation: o, columns: make([]Column, count)}
	for i := range h.columns {
		if off >= len(data) {
			return nil, corruptf("column %d header", i)
		}
		ct := ColumnType(data[off])
		if !ct.Valid() {
			return nil, fmt.Errorf("%w: tag %d in column %d", ErrUnknownColumnType, data[off], i)
		}
		off++
		md, n, err := metadata.ParseFramed(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: column %d metadata: %w", ErrCorruptTable, i, err)
		}
		off += n
		h.columns[i] = Column{Type: ct, Metadata: md}
	}
	if len(data)-off < 4 {
		return nil, corruptf("row count")
	}
	h.rowCount = le.Uint32(data[off:])
	h.indexOffset = off + 4
	return h, nil
}

// columnTypes returns the type of every column.
func columnTypes(cols []Column) []ColumnType {
	out := make([]ColumnType, len(cols))
	for i, c := range cols {
		out[i] = c.Type
	}
	return out
}

// columnMetadata returns clones of the requested columns' metadata, or of
// all columns when indices is empty.
func columnMetadata(cols []Column, indices []uint32) ([]metadata.Document, error) {
	if len(indices) == 0 {
		out := make([]metadata.Document, len(cols))
		for i, c := range cols {
			out[i] = c.Metadata.Clone()
		}
		return out, nil
	}
	out := make([]metadata.Document, len(indices))
	for i, idx := range indices {
		if int(idx) >= len(cols) {
			return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, idx, len(cols))
		}
		out[i] = cols[idx].Metadata.Clone()
	}
	return out, nil
}
