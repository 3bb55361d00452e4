package table

import (
	"context"
	"math"
	"time"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/shopspring/decimal"

	"github.com/hupe1980/tabula/internal/hash"
	"github.com/hupe1980/tabula/metadata"
)

// MaxDistinct caps the distinct count Analyze tracks per column.
const MaxDistinct = 1 << 16

// columnStats accumulates one column during Analyze.
type columnStats struct {
	typ      ColumnType
	count    int
	nulls    int
	sum      float64
	sumSq    float64
	l1       float64
	min, max float64
	minDate  time.Time
	maxDate  time.Time
	maxLen   int
	distinct *roaring.Bitmap
	scratch  []byte
}

func newColumnStats(ct ColumnType) *columnStats {
	return &columnStats{
		typ:      ct,
		min:      math.Inf(1),
		max:      math.Inf(-1),
		distinct: roaring.New(),
	}
}

// numericValue returns the float64 reading of a numeric cell.
func numericValue(v any) (float64, bool) {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64(), true
	}
	return toFloat64(v)
}

func (s *columnStats) add(v any) {
	s.count++
	if v == nil {
		s.nulls++
		return
	}

	if s.distinct.GetCardinality() < MaxDistinct {
		if enc, err := appendValue(s.scratch[:0], s.typ, v); err == nil {
			s.distinct.Add(hash.CRC32C(enc))
			s.scratch = enc
		}
	}

	switch x := v.(type) {
	case string:
		s.maxLen = max(s.maxLen, utf8.RuneCountInString(x))
		return
	case []byte:
		s.maxLen = max(s.maxLen, len(x))
		return
	case time.Time:
		if s.minDate.IsZero() || x.Before(s.minDate) {
			s.minDate = x
		}
		if x.After(s.maxDate) {
			s.maxDate = x
		}
		return
	}

	if !s.typ.IsNumeric() {
		return
	}
	f, ok := numericValue(v)
	if !ok {
		return
	}
	s.sum += f
	s.sumSq += f * f
	s.l1 += math.Abs(f)
	s.min = min(s.min, f)
	s.max = max(s.max, f)
}

func (s *columnStats) writeTo(md metadata.Document) {
	md.SetBool(metadata.KeyIsNumeric, s.typ.IsNumeric())
	md.SetInt(metadata.KeyNullCount, int64(s.nulls))
	md.SetInt(metadata.KeyDistinct, int64(s.distinct.GetCardinality()))

	switch {
	case s.typ.IsNumeric():
		n := float64(s.count - s.nulls)
		if n == 0 {
			return
		}
		mean := s.sum / n
		variance := max(s.sumSq/n-mean*mean, 0)
		md.SetFloat(metadata.KeyMin, s.min)
		md.SetFloat(metadata.KeyMax, s.max)
		md.SetFloat(metadata.KeyMean, mean)
		md.SetFloat(metadata.KeyStdDev, math.Sqrt(variance))
		md.SetFloat(metadata.KeyL1Norm, s.l1)
		md.SetFloat(metadata.KeyL2Norm, math.Sqrt(s.sumSq))
	case s.typ == String || s.typ == BinaryData:
		md.SetInt(metadata.KeyMaxLength, int64(s.maxLen))
	case s.typ == Date && s.count > s.nulls:
		md.SetString(metadata.KeyMin, s.minDate.Format(time.RFC3339Nano))
		md.SetString(metadata.KeyMax, s.maxDate.Format(time.RFC3339Nano))
	}
}

// Analyze computes per-column statistics in one pass over t. It returns a
// copy of every column's metadata with the statistics added.
func Analyze(ctx context.Context, t Table) ([]metadata.Document, error) {
	mds, err := t.ColumnMetadata()
	if err != nil {
		return nil, err
	}
	stats := make([]*columnStats, len(mds))
	for i, ct := range t.ColumnTypes() {
		stats[i] = newColumnStats(ct)
	}

	if err := t.ForEachRow(ctx, func(row Row, _ uint32) error {
		defer row.Release()
		for c, v := range row {
			stats[c].add(v)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for i, s := range stats {
		s.writeTo(mds[i])
	}
	return mds, nil
}
