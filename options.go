package tabula

import (
	"log/slog"

	"github.com/hupe1980/tabula/buffer"
)

type options struct {
	tempDir              string
	maxCacheSize         int64
	memoryLimit          int64
	ioLimit              int64
	maxBackgroundWorkers int64
	spillThreshold       int
	compression          buffer.Compression
	metricsCollector     MetricsCollector
	logger               *Logger
}

// Option configures a Context.
type Option func(*options)

// WithTempDir spills buffers to files under dir instead of memory. The files
// are removed when the Context is closed.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithMaxCacheSize bounds the bytes of released tensor blocks the pool keeps
// for reuse. Zero disables caching.
func WithMaxCacheSize(bytes int64) Option {
	return func(o *options) {
		o.maxCacheSize = bytes
	}
}

// WithMemoryLimit bounds the bytes of tensor blocks allocated at once.
// Allocations past the limit fail with ErrMemoryLimit. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles spill writes and reads to bytesPerSec. Zero means
// unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithMaxBackgroundWorkers bounds how many column segments are decoded
// concurrently during conversion.
//
// Example:
//
//	tc, _ := tabula.New(tabula.WithMaxBackgroundWorkers(runtime.GOMAXPROCS(0)))
func WithMaxBackgroundWorkers(n int) Option {
	return func(o *options) {
		o.maxBackgroundWorkers = int64(n)
	}
}

// WithSpillThreshold sets how many items a buffer keeps resident before
// spilling. Values below one are ignored.
func WithSpillThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.spillThreshold = n
		}
	}
}

// WithCompression sets the compression of spilled frames and column
// segments.
func WithCompression(c buffer.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &tabula.BasicMetricsCollector{}
//	tc, _ := tabula.New(tabula.WithMetricsCollector(metrics))
//	// ... use tc ...
//	stats := metrics.GetStats()
//	fmt.Printf("Flushes: %d, Evictions: %d\n", stats.FlushCount, stats.Evictions)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := tabula.NewJSONLogger(slog.LevelInfo)
//	tc, _ := tabula.New(tabula.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		spillThreshold:   buffer.DefaultThreshold,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
