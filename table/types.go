package table

import (
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/tabula/tensor"
)

// ColumnType is the type tag stored in the table header for each column.
type ColumnType uint8

const (
	Unknown ColumnType = iota
	Boolean
	Byte
	Short
	Int
	Long
	Float
	Double
	Decimal
	String
	Date
	IndexList
	WeightedIndexList
	Vector
	Matrix
	Tensor3D
	Tensor4D
	BinaryData

	numColumnTypes
)

// columnDescriptor holds the static facts about one column type.
type columnDescriptor struct {
	name    string
	width   int // fixed encoded width, 0 when variable
	numeric bool
	rank    int // tensor rank, 0 for non-tensor types
	goType  reflect.Type
}

var descriptors = [numColumnTypes]columnDescriptor{
	Unknown:           {name: "Unknown"},
	Boolean:           {name: "Boolean", width: 1, goType: reflect.TypeFor[bool]()},
	Byte:              {name: "Byte", width: 1, numeric: true, goType: reflect.TypeFor[int8]()},
	Short:             {name: "Short", width: 2, numeric: true, goType: reflect.TypeFor[int16]()},
	Int:               {name: "Int", width: 4, numeric: true, goType: reflect.TypeFor[int32]()},
	Long:              {name: "Long", width: 8, numeric: true, goType: reflect.TypeFor[int64]()},
	Float:             {name: "Float", width: 4, numeric: true, goType: reflect.TypeFor[float32]()},
	Double:            {name: "Double", width: 8, numeric: true, goType: reflect.TypeFor[float64]()},
	Decimal:           {name: "Decimal", width: 16, numeric: true, goType: reflect.TypeFor[decimal.Decimal]()},
	String:            {name: "String", goType: reflect.TypeFor[string]()},
	Date:              {name: "Date", width: 8, goType: reflect.TypeFor[time.Time]()},
	IndexList:         {name: "IndexList", goType: reflect.TypeFor[*tensor.IndexList]()},
	WeightedIndexList: {name: "WeightedIndexList", goType: reflect.TypeFor[*tensor.WeightedIndexList]()},
	Vector:            {name: "Vector", rank: 1, goType: reflect.TypeFor[*tensor.Tensor[float32]]()},
	Matrix:            {name: "Matrix", rank: 2, goType: reflect.TypeFor[*tensor.Tensor[float32]]()},
	Tensor3D:          {name: "Tensor3D", rank: 3, goType: reflect.TypeFor[*tensor.Tensor[float32]]()},
	Tensor4D:          {name: "Tensor4D", rank: 4, goType: reflect.TypeFor[*tensor.Tensor[float32]]()},
	BinaryData:        {name: "BinaryData", goType: reflect.TypeFor[[]byte]()},
}

// AllColumnTypes returns every valid column type in tag order.
func AllColumnTypes() []ColumnType {
	out := make([]ColumnType, numColumnTypes)
	for i := range out {
		out[i] = ColumnType(i)
	}
	return out
}

// Valid reports whether t is a known tag.
func (t ColumnType) Valid() bool { return t < numColumnTypes }

func (t ColumnType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
	return descriptors[t].name
}

// IsNumeric reports whether values of t have a natural float64 reading.
func (t ColumnType) IsNumeric() bool { return t.Valid() && descriptors[t].numeric }

// IsTensor reports whether t holds a float32 tensor.
func (t ColumnType) IsTensor() bool { return t.Valid() && descriptors[t].rank > 0 }

// Rank returns the tensor rank of t, or 0.
func (t ColumnType) Rank() int {
	if !t.Valid() {
		return 0
	}
	return descriptors[t].rank
}

// FixedWidth returns the encoded width of fixed-size types and 0 otherwise.
func (t ColumnType) FixedWidth() int {
	if !t.Valid() {
		return 0
	}
	return descriptors[t].width
}

// GoType returns the Go type values of t decode to. Unknown has none.
func (t ColumnType) GoType() reflect.Type {
	if !t.Valid() {
		return nil
	}
	return descriptors[t].goType
}

// ParseColumnType returns the type with the given name.
func ParseColumnType(name string) (ColumnType, error) {
	for i, d := range descriptors {
		if d.name == name {
			return ColumnType(i), nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownColumnType, name)
}

// Orientation is the layout of a table's backing bytes.
type Orientation int32

const (
	OrientationUnknown Orientation = iota
	RowOriented
	ColumnOriented
)

func (o Orientation) String() string {
	switch o {
	case OrientationUnknown:
		return "Unknown"
	case RowOriented:
		return "RowOriented"
	case ColumnOriented:
		return "ColumnOriented"
	default:
		return fmt.Sprintf("Orientation(%d)", int32(o))
	}
}
