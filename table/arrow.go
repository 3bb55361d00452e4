package table

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/shopspring/decimal"

	"github.com/hupe1980/tabula/metadata"
	"github.com/hupe1980/tabula/tensor"
)

// arrowTypeKey is the field metadata key holding the original column type.
const arrowTypeKey = "tabula.type"

var (
	weightedIndexType = arrow.StructOf(
		arrow.Field{Name: "index", Type: arrow.PrimitiveTypes.Uint32},
		arrow.Field{Name: "weight", Type: arrow.PrimitiveTypes.Float32},
	)
	tensorType = arrow.StructOf(
		arrow.Field{Name: "shape", Type: arrow.ListOf(arrow.PrimitiveTypes.Uint32)},
		arrow.Field{Name: "data", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32)},
	)
)

// arrowType maps a column type onto its Arrow representation. Decimals are
// exported as their exact string form and dates as UTC microseconds.
func arrowType(ct ColumnType) arrow.DataType {
	switch ct {
	case Boolean:
		return arrow.FixedWidthTypes.Boolean
	case Byte:
		return arrow.PrimitiveTypes.Int8
	case Short:
		return arrow.PrimitiveTypes.Int16
	case Int:
		return arrow.PrimitiveTypes.Int32
	case Long:
		return arrow.PrimitiveTypes.Int64
	case Float:
		return arrow.PrimitiveTypes.Float32
	case Double:
		return arrow.PrimitiveTypes.Float64
	case Decimal, String:
		return arrow.BinaryTypes.String
	case Date:
		return arrow.FixedWidthTypes.Timestamp_us
	case IndexList:
		return arrow.ListOf(arrow.PrimitiveTypes.Uint32)
	case WeightedIndexList:
		return arrow.ListOf(weightedIndexType)
	case Vector, Matrix, Tensor3D, Tensor4D:
		return tensorType
	case BinaryData:
		return arrow.BinaryTypes.Binary
	default:
		return arrow.Null
	}
}

func arrowMetadata(ct ColumnType, md metadata.Document) arrow.Metadata {
	keys := md.Keys()
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = fmt.Sprint(md[k].Any())
	}
	return arrow.NewMetadata(append(keys, arrowTypeKey), append(values, ct.String()))
}

// ArrowSchema returns the Arrow schema of t. Column metadata becomes field
// metadata.
func ArrowSchema(t Table) (*arrow.Schema, error) {
	mds, err := t.ColumnMetadata()
	if err != nil {
		return nil, err
	}
	types := t.ColumnTypes()
	fields := make([]arrow.Field, len(types))
	for i, ct := range types {
		fields[i] = arrow.Field{
			Name:     mds[i].GetString(metadata.KeyName, fmt.Sprintf("Column %d", i)),
			Type:     arrowType(ct),
			Nullable: ct == Unknown,
			Metadata: arrowMetadata(ct, mds[i]),
		}
	}
	return arrow.NewSchema(fields, nil), nil
}

// ArrowRecord copies t into a single Arrow record allocated from alloc. The
// caller must Release the record.
func ArrowRecord(ctx context.Context, t Table, alloc memory.Allocator) (arrow.Record, error) {
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}
	schema, err := ArrowSchema(t)
	if err != nil {
		return nil, err
	}
	rb := array.NewRecordBuilder(alloc, schema)
	defer rb.Release()
	rb.Reserve(int(t.RowCount()))

	types := t.ColumnTypes()
	if err := t.ForEachRow(ctx, func(row Row, i uint32) error {
		defer row.Release()
		for c, v := range row {
			if err := appendArrow(rb.Field(c), types[c], v); err != nil {
				return fmt.Errorf("table: arrow row %d column %d: %w", i, c, err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return rb.NewRecord(), nil
}

func appendArrow(b array.Builder, ct ColumnType, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch ct {
	case Boolean:
		b.(*array.BooleanBuilder).Append(v.(bool))
	case Byte:
		b.(*array.Int8Builder).Append(v.(int8))
	case Short:
		b.(*array.Int16Builder).Append(v.(int16))
	case Int:
		b.(*array.Int32Builder).Append(v.(int32))
	case Long:
		b.(*array.Int64Builder).Append(v.(int64))
	case Float:
		b.(*array.Float32Builder).Append(v.(float32))
	case Double:
		b.(*array.Float64Builder).Append(v.(float64))
	case Decimal:
		b.(*array.StringBuilder).Append(v.(decimal.Decimal).String())
	case String:
		b.(*array.StringBuilder).Append(v.(string))
	case Date:
		b.(*array.TimestampBuilder).Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
	case IndexList:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		lb.ValueBuilder().(*array.Uint32Builder).AppendValues(v.(*tensor.IndexList).Indices(), nil)
	case WeightedIndexList:
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		sb := lb.ValueBuilder().(*array.StructBuilder)
		idx := sb.FieldBuilder(0).(*array.Uint32Builder)
		weight := sb.FieldBuilder(1).(*array.Float32Builder)
		for _, it := range v.(*tensor.WeightedIndexList).Items {
			sb.Append(true)
			idx.Append(it.Index)
			weight.Append(it.Weight)
		}
	case Vector, Matrix, Tensor3D, Tensor4D:
		t := v.(*tensor.Tensor[float32])
		sb := b.(*array.StructBuilder)
		sb.Append(true)
		shape := sb.FieldBuilder(0).(*array.ListBuilder)
		shape.Append(true)
		shape.ValueBuilder().(*array.Uint32Builder).AppendValues(t.Shape(), nil)
		data := sb.FieldBuilder(1).(*array.ListBuilder)
		data.Append(true)
		data.ValueBuilder().(*array.Float32Builder).AppendValues(t.Data(), nil)
	case BinaryData:
		b.(*array.BinaryBuilder).Append(v.([]byte))
	default:
		return fmt.Errorf("%w: %s", errValueType, ct)
	}
	return nil
}

// WriteArrow writes t to w as an Arrow IPC stream holding one record.
func WriteArrow(ctx context.Context, w io.Writer, t Table) error {
	alloc := memory.NewGoAllocator()
	rec, err := ArrowRecord(ctx, t, alloc)
	if err != nil {
		return err
	}
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(alloc))
	if err := iw.Write(rec); err != nil {
		_ = iw.Close()
		return fmt.Errorf("table: write arrow: %w", err)
	}
	return iw.Close()
}

// ArrowRecord exports the table as a single Arrow record.
func (t *ColumnTable) ArrowRecord(alloc memory.Allocator) (arrow.Record, error) {
	return ArrowRecord(context.Background(), t, alloc)
}

// WriteArrow writes the table to w as an Arrow IPC stream.
func (t *ColumnTable) WriteArrow(w io.Writer) error {
	return WriteArrow(context.Background(), w, t)
}
