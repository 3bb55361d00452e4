package table

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tabula/tensor"
)

func TestColumnType(t *testing.T) {
	for _, ct := range AllColumnTypes() {
		parsed, err := ParseColumnType(ct.String())
		require.NoError(t, err)
		assert.Equal(t, ct, parsed)
		if ct != Unknown {
			assert.Equal(t, ct.GoType(), reflect.TypeOf(DefaultValue(ct)), ct.String())
		}
	}

	assert.True(t, Decimal.IsNumeric())
	assert.False(t, Date.IsNumeric())
	assert.True(t, Tensor3D.IsTensor())
	assert.Equal(t, 4, Tensor4D.Rank())
	assert.Equal(t, 16, Decimal.FixedWidth())
	assert.Equal(t, 0, String.FixedWidth())
	assert.False(t, ColumnType(99).Valid())
	assert.Equal(t, "Orientation(5)", Orientation(5).String())

	_, err := ParseColumnType("Bogus")
	assert.ErrorIs(t, err, ErrUnknownColumnType)
}

func TestDateTicks(t *testing.T) {
	tests := []time.Time{
		MinDate,
		time.Unix(0, 0).UTC(),
		time.Date(1969, 12, 31, 23, 59, 59, 900, time.UTC),
		time.Date(2025, 3, 14, 15, 9, 26, 535897900, time.UTC),
	}
	for _, want := range tests {
		got := dateFromTicks(dateTicks(want))
		assert.True(t, want.Equal(got), "%v != %v", want, got)
	}
	assert.Equal(t, int64(0), dateTicks(MinDate))
	assert.Equal(t, int64(unixEpochTicks), dateTicks(time.Unix(0, 0)))
}

func TestAppendValue_Coercions(t *testing.T) {
	tests := []struct {
		name string
		ct   ColumnType
		in   any
		want any
	}{
		{"int into byte", Byte, 7, int8(7)},
		{"uint into long", Long, uint32(9), int64(9)},
		{"int into double", Double, 3, 3.0},
		{"int into float", Float, int64(2), float32(2)},
		{"slice into index list", IndexList, []uint32{3, 1}, tensor.NewIndexList(1, 3)},
		{"items into weighted list", WeightedIndexList,
			[]tensor.WeightedIndex{{Index: 1, Weight: 2}},
			tensor.NewWeightedIndexList(tensor.WeightedIndex{Index: 1, Weight: 2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := appendValue(nil, tt.ct, tt.in)
			require.NoError(t, err)
			got, n, err := decodeValue(tt.ct, enc, nil)
			require.NoError(t, err)
			assert.Equal(t, len(enc), n)
			assertCellEqual(t, tt.ct, tt.want, got)
		})
	}

	rejects := []struct {
		ct ColumnType
		in any
	}{
		{Short, 1 << 20},
		{Boolean, 1},
		{String, 5},
		{Int, "5"},
		{Vector, DefaultValue(Matrix)},
		{BinaryData, "bytes"},
	}
	for _, r := range rejects {
		_, err := appendValue(nil, r.ct, r.in)
		assert.Error(t, err, "%s <- %T", r.ct, r.in)
	}
}
