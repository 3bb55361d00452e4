package table

import (
	"context"
	"reflect"

	"github.com/hupe1980/tabula/metadata"
)

// Table is the read interface shared by both orientations.
type Table interface {
	RowCount() uint32
	ColumnCount() uint32
	ColumnTypes() []ColumnType
	Orientation() Orientation
	// ColumnMetadata returns copies of the requested columns' metadata, or of
	// every column when no index is given.
	ColumnMetadata(indices ...uint32) ([]metadata.Document, error)
	// ForEachRow calls fn for every row in order. Tensor cells come from the
	// table's pool and belong to fn; Row.Release hands them back.
	ForEachRow(ctx context.Context, fn func(row Row, i uint32) error) error
	// Bytes returns the encoded table. The slice is only valid until Close.
	Bytes() []byte
	Close() error
}

// Row holds one decoded value per column.
type Row []any

// Len returns the number of values.
func (r Row) Len() int { return len(r) }

// At returns the i-th value.
func (r Row) At(i int) any { return r[i] }

// Types returns the dynamic type of every value; nil cells yield nil.
func (r Row) Types() []reflect.Type {
	out := make([]reflect.Type, len(r))
	for i, v := range r {
		out[i] = reflect.TypeOf(v)
	}
	return out
}

// Release returns the row's tensor cells to their pool. The row must not be
// used afterwards.
func (r Row) Release() {
	for _, v := range r {
		releaseValue(v)
	}
}

var (
	_ Table = (*RowTable)(nil)
	_ Table = (*ColumnTable)(nil)
)
