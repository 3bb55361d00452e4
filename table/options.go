package table

import (
	"log/slog"
	"time"

	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/internal/fs"
	"github.com/hupe1980/tabula/internal/tempstream"
	"github.com/hupe1980/tabula/resource"
	"github.com/hupe1980/tabula/tensor"
)

// BuildInfo describes a finished build.
type BuildInfo struct {
	Orientation Orientation
	Rows        uint32
	Columns     int
	Bytes       int64
	Duration    time.Duration
}

type options struct {
	file        string
	fsys        fs.FileSystem
	logger      *slog.Logger
	pool        *tensor.Pool
	rc          *resource.Controller
	streams     tempstream.Provider
	threshold   int
	compression buffer.Compression
	onBuild     func(BuildInfo)
}

func newOptions(opts []Option) options {
	o := options{threshold: buffer.DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fsys == nil {
		o.fsys = fs.Default
	}
	return o
}

// tensorPool returns the configured pool or a fresh one that caches nothing.
func (o *options) tensorPool() *tensor.Pool {
	if o.pool == nil {
		o.pool = tensor.NewPool(0)
	}
	return o.pool
}

// Option configures builders, opened tables and conversions.
type Option func(*options)

// WithFile backs the table being built by the file at path instead of
// memory. The finished table maps the file read-only.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithFileSystem sets the file system WithFile writes through.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) { o.fsys = fsys }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTensorPool sets the pool tensor cells are decoded into.
func WithTensorPool(p *tensor.Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithResourceController bounds background decoding and spill IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithStreams sets the temp stream provider column conversion spills to.
// Without it a conversion uses a private in-memory provider.
func WithStreams(p tempstream.Provider) Option {
	return func(o *options) { o.streams = p }
}

// WithSpillThreshold sets how many values per column stay resident during
// column conversion.
func WithSpillThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// WithCompression sets the frame compression of column segments.
func WithCompression(c buffer.Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithBuildHook registers fn to run after every successful build or
// conversion.
func WithBuildHook(fn func(BuildInfo)) Option {
	return func(o *options) { o.onBuild = fn }
}
