package testutil

import (
	"reflect"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tabula/table"
	"github.com/hupe1980/tabula/tensor"
)

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Uint64()
	rng.Reset()
	assert.Equal(t, a, rng.Uint64())
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestString(t *testing.T) {
	rng := NewRNG(1)
	for range 100 {
		s := rng.String(10)
		assert.True(t, utf8.ValidString(s))
		assert.LessOrEqual(t, utf8.RuneCountInString(s), 10)
	}
}

func TestRowMatchesColumnTypes(t *testing.T) {
	rng := NewRNG(4711)
	pool := tensor.NewPool(0)
	defer pool.Close()

	types := table.AllColumnTypes()
	for range 20 {
		row, err := rng.Row(pool, types)
		require.NoError(t, err)
		require.Len(t, row, len(types))
		for i, ct := range types {
			if ct == table.Unknown {
				assert.Nil(t, row[i])
				continue
			}
			assert.Equal(t, ct.GoType(), reflect.TypeOf(row[i]), ct.String())
		}
	}
}
