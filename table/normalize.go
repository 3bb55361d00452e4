package table

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/tabula/metadata"
)

// ErrNotNumeric is returned when normalizing a non-numeric column.
var ErrNotNumeric = errors.New("table: column is not numeric")

// NormalizationType selects how Normalize rescales a column.
type NormalizationType uint8

const (
	// Standard subtracts the mean and divides by the standard deviation.
	Standard NormalizationType = iota
	// Euclidean divides by the column's L2 norm.
	Euclidean
	// Manhattan divides by the column's L1 norm.
	Manhattan
	// FeatureScale maps [min, max] onto [0, 1].
	FeatureScale
)

func (n NormalizationType) String() string {
	switch n {
	case Standard:
		return "Standard"
	case Euclidean:
		return "Euclidean"
	case Manhattan:
		return "Manhattan"
	case FeatureScale:
		return "FeatureScale"
	default:
		return fmt.Sprintf("NormalizationType(%d)", n)
	}
}

// transform is x' = (x - subtract) / divide. A zero divide maps every value
// to zero.
type transform struct {
	subtract float64
	divide   float64
}

func newTransform(kind NormalizationType, md metadata.Document) (transform, error) {
	switch kind {
	case Standard:
		return transform{
			subtract: md.GetFloat(metadata.KeyMean, 0),
			divide:   md.GetFloat(metadata.KeyStdDev, 0),
		}, nil
	case Euclidean:
		return transform{divide: md.GetFloat(metadata.KeyL2Norm, 0)}, nil
	case Manhattan:
		return transform{divide: md.GetFloat(metadata.KeyL1Norm, 0)}, nil
	case FeatureScale:
		lo, hi := md.GetFloat(metadata.KeyMin, 0), md.GetFloat(metadata.KeyMax, 0)
		return transform{subtract: lo, divide: hi - lo}, nil
	default:
		return transform{}, fmt.Errorf("table: unknown normalization %d", kind)
	}
}

func (tr transform) apply(x float64) float64 {
	if tr.divide == 0 {
		return 0
	}
	return (x - tr.subtract) / tr.divide
}

// fromFloat64 converts f back to the Go type of a numeric column. Integer
// columns round to nearest and saturate at the type's bounds.
func fromFloat64(ct ColumnType, f float64) any {
	clamp := func(lo, hi float64) float64 { return math.Max(lo, math.Min(hi, math.Round(f))) }
	switch ct {
	case Byte:
		return int8(clamp(math.MinInt8, math.MaxInt8))
	case Short:
		return int16(clamp(math.MinInt16, math.MaxInt16))
	case Int:
		return int32(clamp(math.MinInt32, math.MaxInt32))
	case Long:
		return int64(clamp(math.MinInt64, math.MaxInt64))
	case Float:
		return float32(f)
	case Double:
		return f
	case Decimal:
		return decimal.NewFromFloat(f)
	default:
		panic(fmt.Sprintf("table: %s is not numeric", ct))
	}
}

// Normalize returns a new row-oriented table in which the given columns are
// rescaled by kind. Statistics come from Analyze. The rescaled values keep
// their column type, and the column metadata records the transform so it can
// be inverted. Without columns every numeric column is normalized.
func Normalize(ctx context.Context, t Table, kind NormalizationType, columns []uint32, opts ...Option) (*RowTable, error) {
	types := t.ColumnTypes()
	if len(columns) == 0 {
		for i, ct := range types {
			if ct.IsNumeric() {
				columns = append(columns, uint32(i))
			}
		}
	}

	for _, c := range columns {
		if int(c) >= len(types) {
			return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, c, len(types))
		}
		if !types[c].IsNumeric() {
			return nil, fmt.Errorf("%w: column %d is %s", ErrNotNumeric, c, types[c])
		}
	}

	stats, err := Analyze(ctx, t)
	if err != nil {
		return nil, err
	}
	mds, err := t.ColumnMetadata()
	if err != nil {
		return nil, err
	}

	transforms := make([]*transform, len(types))
	for _, c := range columns {
		tr, err := newTransform(kind, stats[c])
		if err != nil {
			return nil, err
		}
		transforms[c] = &tr
		mds[c].SetString(metadata.KeyNormalization, kind.String())
		mds[c].SetFloat(metadata.KeyNormalizeSubtract, tr.subtract)
		mds[c].SetFloat(metadata.KeyNormalizeDivide, tr.divide)
	}

	b, err := NewBuilder(t.RowCount(), opts...)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	for i, ct := range types {
		if _, err := b.AddColumnWithMetadata(ct, mds[i]); err != nil {
			return nil, err
		}
	}

	if err := t.ForEachRow(ctx, func(row Row, _ uint32) error {
		defer row.Release()
		out := slices.Clone(row)
		for c, tr := range transforms {
			if tr == nil {
				continue
			}
			f, ok := numericValue(out[c])
			if !ok {
				return &EncodingError{Column: uint32(c), Type: types[c], Value: out[c], cause: errValueType}
			}
			out[c] = fromFloat64(types[c], tr.apply(f))
		}
		return b.AddRow(out...)
	}); err != nil {
		return nil, err
	}
	return b.Build()
}
