package table

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tabula/metadata"
	"github.com/hupe1980/tabula/tensor"
)

// buildStats builds a table with an Int column 1..4, a Double column of
// 2.0 and a String column.
func buildStats(t *testing.T) *RowTable {
	t.Helper()
	b, err := NewBuilder(4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, err = b.AddColumn(Int, "n")
	require.NoError(t, err)
	_, err = b.AddColumn(Double, "const")
	require.NoError(t, err)
	_, err = b.AddColumn(String, "s")
	require.NoError(t, err)

	for i, s := range []string{"x", "héllo", "x", "ab"} {
		require.NoError(t, b.AddRow(i+1, 2.0, s))
	}
	rt, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestAnalyze(t *testing.T) {
	rt := buildStats(t)
	mds, err := Analyze(t.Context(), rt)
	require.NoError(t, err)
	require.Len(t, mds, 3)

	n := mds[0]
	assert.True(t, n.GetBool(metadata.KeyIsNumeric, false))
	assert.Equal(t, 1.0, n.GetFloat(metadata.KeyMin, 0))
	assert.Equal(t, 4.0, n.GetFloat(metadata.KeyMax, 0))
	assert.Equal(t, 2.5, n.GetFloat(metadata.KeyMean, 0))
	assert.InDelta(t, math.Sqrt(1.25), n.GetFloat(metadata.KeyStdDev, 0), 1e-12)
	assert.Equal(t, 10.0, n.GetFloat(metadata.KeyL1Norm, 0))
	assert.InDelta(t, math.Sqrt(30), n.GetFloat(metadata.KeyL2Norm, 0), 1e-12)
	assert.Equal(t, int64(4), n.GetInt(metadata.KeyDistinct, 0))
	assert.Equal(t, "n", n.GetString(metadata.KeyName, ""))

	assert.Equal(t, int64(1), mds[1].GetInt(metadata.KeyDistinct, 0))
	assert.Equal(t, 0.0, mds[1].GetFloat(metadata.KeyStdDev, -1))

	s := mds[2]
	assert.False(t, s.GetBool(metadata.KeyIsNumeric, true))
	assert.Equal(t, int64(5), s.GetInt(metadata.KeyMaxLength, 0))
	assert.Equal(t, int64(3), s.GetInt(metadata.KeyDistinct, 0))
	assert.False(t, s.Has(metadata.KeyMean))

	orig, err := rt.ColumnMetadata(0)
	require.NoError(t, err)
	assert.False(t, orig[0].Has(metadata.KeyMean))
}

func TestAnalyze_Dates(t *testing.T) {
	b, err := NewBuilder(2)
	require.NoError(t, err)
	defer b.Close()
	_, err = b.AddColumn(Date, "d")
	require.NoError(t, err)

	early := time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, b.AddRow(late))
	require.NoError(t, b.AddRow(early))
	rt, err := b.Build()
	require.NoError(t, err)
	defer rt.Close()

	mds, err := Analyze(t.Context(), rt)
	require.NoError(t, err)
	assert.Equal(t, early.Format(time.RFC3339Nano), mds[0].GetString(metadata.KeyMin, ""))
	assert.Equal(t, late.Format(time.RFC3339Nano), mds[0].GetString(metadata.KeyMax, ""))
}

func TestNormalize(t *testing.T) {
	rt := buildStats(t)

	tests := []struct {
		kind NormalizationType
		want []float64
	}{
		{FeatureScale, []float64{0, 1.0 / 3, 2.0 / 3, 1}},
		{Manhattan, []float64{0.1, 0.2, 0.3, 0.4}},
		{Euclidean, []float64{1 / math.Sqrt(30), 2 / math.Sqrt(30), 3 / math.Sqrt(30), 4 / math.Sqrt(30)}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			b, err := NewBuilder(4)
			require.NoError(t, err)
			defer b.Close()
			_, err = b.AddColumn(Double, "v")
			require.NoError(t, err)
			for i := range 4 {
				require.NoError(t, b.AddRow(float64(i+1)))
			}
			src, err := b.Build()
			require.NoError(t, err)
			defer src.Close()

			out, err := Normalize(t.Context(), src, tt.kind, nil)
			require.NoError(t, err)
			defer out.Close()

			for i, w := range tt.want {
				row, err := out.Row(uint32(i))
				require.NoError(t, err)
				assert.InDelta(t, w, row[0], 1e-12)
			}
			mds, err := out.ColumnMetadata(0)
			require.NoError(t, err)
			assert.Equal(t, tt.kind.String(), mds[0].GetString(metadata.KeyNormalization, ""))
		})
	}

	t.Run("ConstantColumn", func(t *testing.T) {
		out, err := Normalize(t.Context(), rt, Standard, []uint32{1})
		require.NoError(t, err)
		defer out.Close()
		row, err := out.Row(0)
		require.NoError(t, err)
		assert.Equal(t, Row{int32(1), 0.0, "x"}, row)
	})

	t.Run("IntegerColumnRounds", func(t *testing.T) {
		out, err := Normalize(t.Context(), rt, FeatureScale, []uint32{0})
		require.NoError(t, err)
		defer out.Close()
		var got []any
		require.NoError(t, out.ForEachRow(t.Context(), func(row Row, _ uint32) error {
			got = append(got, row[0])
			return nil
		}))
		assert.Equal(t, []any{int32(0), int32(0), int32(1), int32(1)}, got)
	})

	t.Run("NotNumeric", func(t *testing.T) {
		_, err := Normalize(t.Context(), rt, Standard, []uint32{2})
		assert.ErrorIs(t, err, ErrNotNumeric)
		_, err = Normalize(t.Context(), rt, Standard, []uint32{9})
		assert.ErrorIs(t, err, ErrOutOfRange)
	})
}

func TestFromFloat64_Saturates(t *testing.T) {
	assert.Equal(t, int8(127), fromFloat64(Byte, 1e9))
	assert.Equal(t, int16(-32768), fromFloat64(Short, -1e9))
	assert.True(t, decimal.NewFromFloat(0.25).Equal(fromFloat64(Decimal, 0.25).(decimal.Decimal)))
}

func TestWriteArrow(t *testing.T) {
	b, err := NewBuilder(2)
	require.NoError(t, err)
	defer b.Close()

	md, err := b.AddColumn(Long, "id")
	require.NoError(t, err)
	md.SetString("Unit", "count")
	_, err = b.AddColumn(String, "name")
	require.NoError(t, err)
	_, err = b.AddColumn(Vector, "embedding")
	require.NoError(t, err)
	_, err = b.AddColumn(IndexList, "tags")
	require.NoError(t, err)

	pool := tensor.NewPool(0)
	for i := range 2 {
		v, err := tensor.NewVector(pool, float32(i), float32(i)+0.5)
		require.NoError(t, err)
		require.NoError(t, b.AddRow(int64(i), "row", v, []uint32{uint32(i), 9}))
	}
	rt, err := b.Build()
	require.NoError(t, err)
	defer rt.Close()

	ct, err := rt.AsColumnOriented(t.Context())
	require.NoError(t, err)
	defer ct.Close()

	var buf bytes.Buffer
	require.NoError(t, ct.WriteArrow(&buf))

	r, err := ipc.NewReader(&buf, ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer r.Release()

	schema := r.Schema()
	require.Equal(t, 4, schema.NumFields())
	assert.Equal(t, "id", schema.Field(0).Name)
	assert.Equal(t, arrow.INT64, schema.Field(0).Type.ID())
	unit, ok := schema.Field(0).Metadata.GetValue("Unit")
	require.True(t, ok)
	assert.Equal(t, "count", unit)
	typ, ok := schema.Field(2).Metadata.GetValue(arrowTypeKey)
	require.True(t, ok)
	assert.Equal(t, "Vector", typ)

	require.True(t, r.Next())
	rec := r.Record()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, int64(1), rec.Column(0).(*array.Int64).Value(1))
	assert.Equal(t, "row", rec.Column(1).(*array.String).Value(0))

	tags := rec.Column(3).(*array.List)
	start, end := tags.ValueOffsets(1)
	values := tags.ListValues().(*array.Uint32)
	assert.Equal(t, []uint32{1, 9}, values.Uint32Values()[start:end])

	emb := rec.Column(2).(*array.Struct).Field(1).(*array.List)
	start, end = emb.ValueOffsets(1)
	assert.Equal(t, []float32{1, 1.5}, emb.ListValues().(*array.Float32).Float32Values()[start:end])
	assert.False(t, r.Next())
}
