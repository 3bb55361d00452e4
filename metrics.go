package tabula

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/tabula/table"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    flushBytes     prometheus.Counter
//	    buildHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordFlush(items int, bytes int64) {
//	    p.flushBytes.Add(float64(bytes))
//	}
type MetricsCollector interface {
	// RecordFlush is called after a buffer spills its resident tier.
	RecordFlush(items int, bytes int64)

	// RecordBuild is called after every successful table build, including
	// the build at the end of a conversion.
	RecordBuild(orientation table.Orientation, rows uint32, bytes int64, duration time.Duration)

	// RecordConversion is called after each conversion between orientations.
	// err is nil if successful.
	RecordConversion(to table.Orientation, duration time.Duration, err error)

	// RecordPoolGet is called for every tensor block handed out by the pool.
	// hit reports whether the block came from the cache.
	RecordPoolGet(hit bool)

	// RecordEviction is called when the pool cache evicts a block.
	RecordEviction(bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFlush(int, int64)                                      {}
func (NoopMetricsCollector) RecordBuild(table.Orientation, uint32, int64, time.Duration) {}
func (NoopMetricsCollector) RecordConversion(table.Orientation, time.Duration, error)    {}
func (NoopMetricsCollector) RecordPoolGet(bool)                                          {}
func (NoopMetricsCollector) RecordEviction(int64)                                        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FlushCount           atomic.Int64
	FlushItems           atomic.Int64
	FlushBytes           atomic.Int64
	BuildCount           atomic.Int64
	BuildRows            atomic.Int64
	BuildBytes           atomic.Int64
	BuildTotalNanos      atomic.Int64
	ConversionCount      atomic.Int64
	ConversionErrors     atomic.Int64
	ConversionTotalNanos atomic.Int64
	PoolGets             atomic.Int64
	PoolHits             atomic.Int64
	Evictions            atomic.Int64
	EvictedBytes         atomic.Int64
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(items int, bytes int64) {
	b.FlushCount.Add(1)
	b.FlushItems.Add(int64(items))
	b.FlushBytes.Add(bytes)
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(_ table.Orientation, rows uint32, bytes int64, duration time.Duration) {
	b.BuildCount.Add(1)
	b.BuildRows.Add(int64(rows))
	b.BuildBytes.Add(bytes)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
}

// RecordConversion implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConversion(_ table.Orientation, duration time.Duration, err error) {
	b.ConversionCount.Add(1)
	b.ConversionTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ConversionErrors.Add(1)
	}
}

// RecordPoolGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPoolGet(hit bool) {
	b.PoolGets.Add(1)
	if hit {
		b.PoolHits.Add(1)
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(bytes int64) {
	b.Evictions.Add(1)
	b.EvictedBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FlushCount:         b.FlushCount.Load(),
		FlushItems:         b.FlushItems.Load(),
		FlushBytes:         b.FlushBytes.Load(),
		BuildCount:         b.BuildCount.Load(),
		BuildRows:          b.BuildRows.Load(),
		BuildBytes:         b.BuildBytes.Load(),
		BuildAvgNanos:      avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		ConversionCount:    b.ConversionCount.Load(),
		ConversionErrors:   b.ConversionErrors.Load(),
		ConversionAvgNanos: avg(b.ConversionTotalNanos.Load(), b.ConversionCount.Load()),
		PoolGets:           b.PoolGets.Load(),
		PoolHits:           b.PoolHits.Load(),
		Evictions:          b.Evictions.Load(),
		EvictedBytes:       b.EvictedBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FlushCount         int64
	FlushItems         int64
	FlushBytes         int64
	BuildCount         int64
	BuildRows          int64
	BuildBytes         int64
	BuildAvgNanos      int64
	ConversionCount    int64
	ConversionErrors   int64
	ConversionAvgNanos int64
	PoolGets           int64
	PoolHits           int64
	Evictions          int64
	EvictedBytes       int64
}
