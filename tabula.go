package tabula

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hupe1980/tabula/blobstore"
	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/internal/tempstream"
	"github.com/hupe1980/tabula/resource"
	"github.com/hupe1980/tabula/table"
	"github.com/hupe1980/tabula/tensor"
)

// Context owns the shared machinery tables and buffers run on: a temp stream
// provider, a tensor pool, a resource controller, a logger and a metrics
// collector.
//
// A Context is safe for concurrent use. Close releases every temp stream and
// the pool's cached blocks.
type Context struct {
	opts    options
	rc      *resource.Controller
	pool    *tensor.Pool
	streams tempstream.Provider
	logger  *Logger
	metrics MetricsCollector

	nextIndex   atomic.Uint32
	conversions atomic.Uint64
	closed      atomic.Bool
}

// New creates a Context.
func New(optFns ...Option) (*Context, error) {
	o := applyOptions(optFns)
	c := &Context{
		opts:    o,
		logger:  o.logger,
		metrics: o.metricsCollector,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:     o.memoryLimit,
			MaxBackgroundWorkers: o.maxBackgroundWorkers,
			IOLimitBytesPerSec:   o.ioLimit,
		}),
	}

	c.pool = tensor.NewPool(o.maxCacheSize,
		tensor.WithLogger(o.logger.Logger),
		tensor.WithResourceController(c.rc),
		tensor.WithGetHook(c.metrics.RecordPoolGet),
		tensor.WithEvictionHook(func(bytes int64) {
			c.logger.LogEviction(context.Background(), bytes)
			c.metrics.RecordEviction(bytes)
		}),
	)

	if o.tempDir != "" {
		streams, err := tempstream.NewDisk(filepath.Join(o.tempDir, "buffers"), tempstream.WithLogger(o.logger.Logger))
		if err != nil {
			_ = c.pool.Close()
			return nil, err
		}
		c.streams = streams
	} else {
		c.streams = tempstream.NewMemory(tempstream.WithLogger(o.logger.Logger))
	}
	return c, nil
}

// TensorPool returns the pool tensor cells are decoded into.
func (c *Context) TensorPool() *tensor.Pool { return c.pool }

// Streams returns the provider buffers created by NewBuffer spill to.
func (c *Context) Streams() tempstream.Provider { return c.streams }

// ResourceController returns the shared resource controller.
func (c *Context) ResourceController() *resource.Controller { return c.rc }

// Logger returns the configured logger.
func (c *Context) Logger() *Logger { return c.logger }

// Metrics returns the configured metrics collector.
func (c *Context) Metrics() MetricsCollector { return c.metrics }

func (c *Context) onFlush(fi buffer.FlushInfo) {
	c.logger.LogFlush(context.Background(), fi)
	c.metrics.RecordFlush(fi.Items, fi.Bytes)
}

func (c *Context) onBuild(bi table.BuildInfo) {
	c.logger.LogBuild(context.Background(), bi)
	c.metrics.RecordBuild(bi.Orientation, bi.Rows, bi.Bytes, bi.Duration)
}

// tableOptions returns the options every table operation starts from. Caller
// options come last and win.
func (c *Context) tableOptions(opts []table.Option) []table.Option {
	base := []table.Option{
		table.WithLogger(c.logger.Logger),
		table.WithTensorPool(c.pool),
		table.WithResourceController(c.rc),
		table.WithSpillThreshold(c.opts.spillThreshold),
		table.WithCompression(c.opts.compression),
		table.WithBuildHook(c.onBuild),
	}
	return append(base, opts...)
}

// NewBuffer creates a spill buffer on the Context's streams. Every buffer
// gets its own stream index.
func NewBuffer[T any](c *Context, codec buffer.Codec[T], opts ...buffer.Option) (*buffer.Hybrid[T], error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	base := []buffer.Option{
		buffer.WithThreshold(c.opts.spillThreshold),
		buffer.WithCompression(c.opts.compression),
		buffer.WithLogger(c.logger.Logger),
		buffer.WithResourceController(c.rc),
		buffer.WithFlushHook(c.onFlush),
	}
	index := c.nextIndex.Add(1) - 1
	return buffer.New(c.streams, index, codec, append(base, opts...)...), nil
}

// NewBuilder creates a row table builder for exactly rowCount rows.
func (c *Context) NewBuilder(rowCount uint32, opts ...table.Option) (*table.Builder, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return table.NewBuilder(rowCount, c.tableOptions(opts)...)
}

// Open decodes a table from data without copying it.
func (c *Context) Open(data []byte, opts ...table.Option) (table.Table, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return table.Open(data, c.tableOptions(opts)...)
}

// OpenFile memory-maps the table at path.
func (c *Context) OpenFile(path string, opts ...table.Option) (table.Table, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return table.OpenFile(path, c.tableOptions(opts)...)
}

// Load opens the table stored under name in store.
func (c *Context) Load(ctx context.Context, store blobstore.BlobStore, name string, opts ...table.Option) (table.Table, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return table.Load(ctx, store, name, c.tableOptions(opts)...)
}

// Save writes t to store under name.
func (c *Context) Save(ctx context.Context, store blobstore.BlobStore, name string, t table.Table) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return table.Save(ctx, store, name, t)
}

// conversionStreams returns a provider private to one conversion. With a temp
// dir it spills to its own subdirectory; otherwise nil lets the conversion
// use memory.
func (c *Context) conversionStreams() (tempstream.Provider, error) {
	if c.opts.tempDir == "" {
		return nil, nil
	}
	dir := filepath.Join(c.opts.tempDir, fmt.Sprintf("convert-%d", c.conversions.Add(1)))
	return tempstream.NewDisk(dir, tempstream.WithLogger(c.logger.Logger))
}

// ToColumnOriented converts a row table. Spilled column data lives under the
// temp dir, when one is configured, until the conversion returns.
func (c *Context) ToColumnOriented(ctx context.Context, rt *table.RowTable, opts ...table.Option) (ct *table.ColumnTable, err error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	started := time.Now()
	defer func() { c.recordConversion(ctx, table.RowOriented, table.ColumnOriented, rt.RowCount(), started, err) }()

	streams, err := c.conversionStreams()
	if err != nil {
		return nil, err
	}
	if streams != nil {
		defer func() { err = errors.Join(err, streams.Close()) }()
		opts = append([]table.Option{table.WithStreams(streams)}, opts...)
	}
	return rt.AsColumnOriented(ctx, c.tableOptions(opts)...)
}

// ToRowOriented converts a column table.
func (c *Context) ToRowOriented(ctx context.Context, ct *table.ColumnTable, opts ...table.Option) (rt *table.RowTable, err error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	started := time.Now()
	defer func() { c.recordConversion(ctx, table.ColumnOriented, table.RowOriented, ct.RowCount(), started, err) }()
	return ct.AsRowOriented(ctx, c.tableOptions(opts)...)
}

func (c *Context) recordConversion(ctx context.Context, from, to table.Orientation, rows uint32, started time.Time, err error) {
	d := time.Since(started)
	c.logger.LogConversion(ctx, from, to, rows, d, err)
	c.metrics.RecordConversion(to, d, err)
}

// Close removes every temp stream and drains the tensor pool. It is safe to
// call more than once.
func (c *Context) Close() error {
	if c == nil || c.closed.Swap(true) {
		return nil
	}
	return errors.Join(c.streams.Close(), c.pool.Close())
}
