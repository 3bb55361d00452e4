package compress

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress_Compressible(t *testing.T) {
	src := bytes.Repeat([]byte("column value "), 512)

	for _, typ := range []Type{LZ4, ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			out, used, err := Compress(src, typ)
			require.NoError(t, err)
			assert.Equal(t, typ, used)
			assert.Less(t, len(out), len(src))

			got, err := Decompress(out, used, len(src))
			require.NoError(t, err)
			assert.Equal(t, src, got)
		})
	}
}

func TestCompress_IncompressibleStoredRaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	src := make([]byte, 4096)
	for i := range src {
		src[i] = byte(rng.UintN(256))
	}

	for _, typ := range []Type{LZ4, ZSTD} {
		out, used, err := Compress(src, typ)
		require.NoError(t, err)
		assert.Equal(t, None, used)
		assert.Equal(t, src, out)
	}
}

func TestDecompress_Errors(t *testing.T) {
	_, err := Decompress([]byte{1, 2}, None, 3)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = Decompress([]byte{1}, Type(9), 1)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, _, err = Compress([]byte{1}, Type(9))
	assert.ErrorIs(t, err, ErrUnknownType)

	assert.False(t, Type(3).Valid())
	assert.Equal(t, "compress.Type(7)", Type(7).String())
}
