package buffer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"github.com/hupe1980/tabula/internal/tempstream"
	"github.com/hupe1980/tabula/resource"
)

var errStop = errors.New("stop")

// Hybrid is an append-only sequence of T with a bounded resident tier and a
// spilled tier in a temp stream.
type Hybrid[T any] struct {
	index   uint32
	streams tempstream.Provider
	codec   Codec[T]
	opts    options

	mu       sync.Mutex
	resident []T
	flushed  uint64
	spilled  bool

	// The buffer's frames occupy extents of stream, in insertion order.
	// Frames are appended at the stream's end, so buffers sharing an index
	// interleave without overwriting each other. Writers hold the stream
	// lock and mu; readers need either.
	stream  *tempstream.Stream
	extents []extent
}

// extent is the byte range [off, end) of a run of adjacent frames.
type extent struct {
	off, end int64
}

// New creates a buffer that spills into the stream streams returns for index.
func New[T any](streams tempstream.Provider, index uint32, c Codec[T], opts ...Option) *Hybrid[T] {
	o := options{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	return &Hybrid[T]{
		index:    index,
		streams:  streams,
		codec:    c,
		opts:     o,
		resident: make([]T, 0, min(o.threshold, 1024)),
	}
}

// Index returns the buffer's stream index.
func (b *Hybrid[T]) Index() uint32 { return b.index }

// Size returns the number of items added.
func (b *Hybrid[T]) Size() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushed + uint64(len(b.resident))
}

// Spilled reports whether the buffer ever flushed to its stream.
func (b *Hybrid[T]) Spilled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spilled
}

// Add appends v.
func (b *Hybrid[T]) Add(v T) error {
	return b.AddContext(context.Background(), v)
}

// AddContext appends v. ctx bounds the wait for IO budget when the append
// triggers a flush.
func (b *Hybrid[T]) AddContext(ctx context.Context, v T) error {
	b.mu.Lock()
	b.resident = append(b.resident, v)
	full := len(b.resident) >= b.opts.threshold
	b.mu.Unlock()

	if !full {
		return nil
	}
	return b.flush(ctx)
}

// acquireStream returns the backing stream locked. Lock order is stream,
// then b.mu.
func (b *Hybrid[T]) acquireStream() (*tempstream.Stream, error) {
	s, err := b.streams.Get(b.index)
	if err != nil {
		return nil, err
	}
	s.Lock()
	b.mu.Lock()
	b.stream = s
	b.mu.Unlock()
	return s, nil
}

func (b *Hybrid[T]) flush(ctx context.Context) error {
	s, err := b.acquireStream()
	if err != nil {
		return fmt.Errorf("buffer %d: %w", b.index, err)
	}
	defer s.Unlock()

	// Another Add may have flushed while we waited for the stream.
	b.mu.Lock()
	if len(b.resident) < b.opts.threshold {
		b.mu.Unlock()
		return nil
	}
	batch := b.resident
	b.resident = make([]T, 0, cap(batch))
	b.flushed += uint64(len(batch))
	b.mu.Unlock()

	off, n, err := b.writeFrame(ctx, s, batch)
	if err != nil {
		b.mu.Lock()
		b.resident = append(batch, b.resident...)
		b.flushed -= uint64(len(batch))
		b.mu.Unlock()
		return fmt.Errorf("buffer %d: flush: %w", b.index, err)
	}

	b.mu.Lock()
	b.spilled = true
	if last := len(b.extents) - 1; last >= 0 && b.extents[last].end == off {
		b.extents[last].end += n
	} else {
		b.extents = append(b.extents, extent{off: off, end: off + n})
	}
	b.mu.Unlock()

	if b.opts.logger != nil {
		b.opts.logger.DebugContext(ctx, "buffer flushed", "index", b.index, "items", len(batch), "bytes", n)
	}
	if b.opts.onFlush != nil {
		b.opts.onFlush(FlushInfo{Index: b.index, Items: len(batch), Bytes: n})
	}
	return nil
}

// writeFrame appends one frame at the end of s and returns its offset.
func (b *Hybrid[T]) writeFrame(ctx context.Context, s *tempstream.Stream, items []T) (int64, int64, error) {
	buf, err := appendFrame(nil, items, b.codec, b.opts.compression)
	if err != nil {
		return 0, 0, err
	}
	off, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, 0, err
	}
	w := resource.NewRateLimitedWriter(ctx, s, b.opts.rc)
	n, err := w.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	return off, int64(n), err
}

// snapshot returns the flushed extents and a copy of the resident tier as
// one consistent view.
func (b *Hybrid[T]) snapshot() (extents []extent, resident []T) {
	b.mu.Lock()
	s := b.stream
	if s == nil {
		defer b.mu.Unlock()
		return nil, slices.Clone(b.resident)
	}
	b.mu.Unlock()

	// Wait out an in-flight flush so its batch is counted exactly once.
	s.Lock()
	defer s.Unlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.extents), slices.Clone(b.resident)
}

// Iterate calls fn for every item in insertion order. It stops at the first
// error from fn or when ctx is done. Items added during iteration are not
// visited.
func (b *Hybrid[T]) Iterate(ctx context.Context, fn func(T) error) error {
	extents, resident := b.snapshot()

	for _, e := range extents {
		for off := e.off; off < e.end; {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := b.readFrameAt(off, e.end)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", b.index, err)
			}
			if err := decodeFrame(f, b.codec, fn); err != nil {
				return err
			}
			off += f.size
		}
	}

	for i, v := range resident {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func (b *Hybrid[T]) backing() *tempstream.Stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stream
}

// readFrameAt holds the stream lock only while reading, so fn may add to the
// buffer during iteration.
func (b *Hybrid[T]) readFrameAt(off, end int64) (frame, error) {
	s := b.backing()
	s.Lock()
	defer s.Unlock()
	if _, err := s.Seek(off, io.SeekStart); err != nil {
		return frame{}, err
	}
	br := bufio.NewReaderSize(io.LimitReader(s, end-off), int(min(end-off, 64<<10)))
	f, err := readFrame(br)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return f, err
}

// All returns an iterator over the items. Iteration stops at the first
// decode error, which is yielded with a zero item.
func (b *Hybrid[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		err := b.Iterate(ctx, func(v T) error {
			if !yield(v, nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			var zero T
			yield(zero, err)
		}
	}
}

// WriteTo writes the flushed frames verbatim followed by the resident items
// as one more frame.
func (b *Hybrid[T]) WriteTo(w io.Writer) (int64, error) {
	extents, resident := b.snapshot()

	var total int64
	for _, e := range extents {
		n, err := b.copyRange(w, e.off, e.end)
		total += n
		if err != nil {
			return total, err
		}
	}
	if len(resident) > 0 {
		buf, err := appendFrame(nil, resident, b.codec, b.opts.compression)
		if err != nil {
			return total, err
		}
		n, err := w.Write(buf)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (b *Hybrid[T]) copyRange(w io.Writer, start, end int64) (int64, error) {
	s := b.backing()
	s.Lock()
	defer s.Unlock()
	if _, err := s.Seek(start, io.SeekStart); err != nil {
		return 0, err
	}
	return io.CopyN(w, s, end-start)
}
