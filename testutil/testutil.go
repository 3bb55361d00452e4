package testutil

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hupe1980/tabula/table"
	"github.com/hupe1980/tabula/tensor"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float32 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with uniform random values in [0, 1).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 äöü€"

// String returns a random string of up to maxLen runes.
func (r *RNG) String(maxLen int) string {
	runes := []rune(alphabet)
	n := r.Intn(maxLen + 1)
	out := make([]rune, n)
	for i := range out {
		out[i] = runes[r.Intn(len(runes))]
	}
	return string(out)
}

// Bytes returns up to maxLen random bytes.
func (r *RNG) Bytes(maxLen int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, r.rand.Intn(maxLen+1))
	r.rand.Read(out)
	return out
}

// ColumnTypes returns n random valid column types.
func (r *RNG) ColumnTypes(n int) []table.ColumnType {
	all := table.AllColumnTypes()
	out := make([]table.ColumnType, n)
	for i := range out {
		out[i] = all[r.Intn(len(all))]
	}
	return out
}

// Value returns a random cell for a column of type ct. Tensor cells are
// allocated from pool with every dimension in [0, 4).
func (r *RNG) Value(pool *tensor.Pool, ct table.ColumnType) (any, error) {
	switch ct {
	case table.Unknown:
		return nil, nil
	case table.Boolean:
		return r.Intn(2) == 1, nil
	case table.Byte:
		return int8(r.Uint64()), nil
	case table.Short:
		return int16(r.Uint64()), nil
	case table.Int:
		return int32(r.Uint64()), nil
	case table.Long:
		return int64(r.Uint64()), nil
	case table.Float:
		return r.Float32()*2000 - 1000, nil
	case table.Double:
		return float64(r.Float32())*1e6 - 5e5, nil
	case table.Decimal:
		return decimal.New(int64(r.Uint64()>>1)-(1<<62), -int32(r.Intn(10))), nil
	case table.String:
		return r.String(24), nil
	case table.Date:
		sec := int64(r.Uint64() % (300 * 365 * 24 * 3600))
		return time.Unix(sec-100*365*24*3600, int64(r.Intn(10_000_000))*100).UTC(), nil
	case table.IndexList:
		idx := make([]uint32, r.Intn(16))
		for i := range idx {
			idx[i] = uint32(r.Uint64())
		}
		return tensor.NewIndexList(idx...), nil
	case table.WeightedIndexList:
		items := make([]tensor.WeightedIndex, r.Intn(8))
		for i := range items {
			items[i] = tensor.WeightedIndex{Index: uint32(r.Uint64()), Weight: r.Float32()}
		}
		return tensor.NewWeightedIndexList(items...), nil
	case table.BinaryData:
		return r.Bytes(64), nil
	}

	shape := make([]uint32, ct.Rank())
	for i := range shape {
		shape[i] = uint32(r.Intn(4))
	}
	t, err := tensor.New[float32](pool, shape...)
	if err != nil {
		return nil, err
	}
	r.FillUniform(t.Data())
	return t, nil
}

// Row returns one random cell per column type.
func (r *RNG) Row(pool *tensor.Pool, types []table.ColumnType) ([]any, error) {
	row := make([]any, len(types))
	for i, ct := range types {
		v, err := r.Value(pool, ct)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}
