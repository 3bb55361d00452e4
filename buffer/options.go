package buffer

import (
	"log/slog"

	"github.com/hupe1980/tabula/internal/compress"
	"github.com/hupe1980/tabula/resource"
)

// DefaultThreshold is the resident tier size when none is configured.
const DefaultThreshold = 32768

// Compression selects the codec used for spilled frames.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// FlushInfo describes one spill to the backing stream.
type FlushInfo struct {
	Index uint32
	Items int
	Bytes int64
}

type options struct {
	threshold   int
	compression Compression
	logger      *slog.Logger
	rc          *resource.Controller
	onFlush     func(FlushInfo)
}

// Option configures a Hybrid buffer.
type Option func(*options)

// WithThreshold sets how many items stay resident before a flush. Values
// below one are ignored.
func WithThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// WithCompression sets the codec for spilled frames.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithLogger sets the logger for flush events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithResourceController throttles spill writes through rc's IO budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithFlushHook registers fn to run after every successful flush.
func WithFlushHook(fn func(FlushInfo)) Option {
	return func(o *options) { o.onFlush = fn }
}
