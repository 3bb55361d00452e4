package tempstream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/hupe1980/tabula/internal/fs"
	"github.com/hupe1980/tabula/internal/membuf"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("tempstream: provider closed")

// backing is what a Stream reads and writes.
type backing interface {
	io.ReadWriteSeeker
}

// Stream is a seekable backing stream with an exclusive lock.
type Stream struct {
	mu    sync.Mutex
	index uint32
	rw    backing
	file  fs.File // nil for memory streams
}

// Lock acquires exclusive access to the stream.
func (s *Stream) Lock() { s.mu.Lock() }

// Unlock releases exclusive access.
func (s *Stream) Unlock() { s.mu.Unlock() }

// Index returns the buffer index the stream belongs to.
func (s *Stream) Index() uint32 { return s.index }

func (s *Stream) Read(p []byte) (int, error)  { return s.rw.Read(p) }
func (s *Stream) Write(p []byte) (int, error) { return s.rw.Write(p) }

func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	return s.rw.Seek(offset, whence)
}

// Len returns the stream length. The caller must hold the lock.
func (s *Stream) Len() (int64, error) {
	cur, err := s.rw.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.rw.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, err = s.rw.Seek(cur, io.SeekStart)
	return end, err
}

// Provider maps buffer indices to streams.
type Provider interface {
	Get(index uint32) (*Stream, error)
	Close() error
}

// Option configures a provider.
type Option func(*options)

type options struct {
	logger *slog.Logger
	fs     fs.FileSystem
}

// WithLogger sets the logger used for stream lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFileSystem sets the file system disk streams are created on.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

type provider struct {
	mu      sync.Mutex
	streams map[uint32]*Stream
	closed  bool
	create  func(index uint32) (*Stream, error)
	logger  *slog.Logger
	fs      fs.FileSystem
}

func newProvider(opts []Option) *provider {
	o := options{fs: fs.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return &provider{
		streams: make(map[uint32]*Stream),
		logger:  o.logger,
		fs:      o.fs,
	}
}

// NewMemory returns a provider whose streams live in memory.
func NewMemory(opts ...Option) Provider {
	p := newProvider(opts)
	p.create = func(index uint32) (*Stream, error) {
		return &Stream{index: index, rw: membuf.New(0)}, nil
	}
	return p
}

// NewDisk returns a provider that creates one temp file per index in dir.
// The files are removed on Close.
func NewDisk(dir string, opts ...Option) (Provider, error) {
	p := newProvider(opts)
	if err := p.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tempstream: %w", err)
	}
	p.create = func(index uint32) (*Stream, error) {
		f, err := p.fs.CreateTemp(dir, fmt.Sprintf("stream-%d-*", index))
		if err != nil {
			return nil, err
		}
		return &Stream{index: index, rw: f, file: f}, nil
	}
	return p, nil
}

// Get returns the stream for index, creating it on first use.
func (p *provider) Get(index uint32) (*Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if s, ok := p.streams[index]; ok {
		return s, nil
	}
	s, err := p.create(index)
	if err != nil {
		return nil, fmt.Errorf("tempstream: create stream %d: %w", index, err)
	}
	p.streams[index] = s
	if p.logger != nil {
		p.logger.Debug("temp stream created", "index", index)
	}
	return s, nil
}

// Close closes every stream and removes disk files.
func (p *provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for idx, s := range p.streams {
		if s.file == nil {
			continue
		}
		name := s.file.Name()
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream %d: %w", idx, err))
		}
		if err := p.fs.Remove(name); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove stream %d: %w", idx, err))
		}
	}
	if p.logger != nil {
		p.logger.Debug("temp streams released", "count", len(p.streams))
	}
	p.streams = nil
	return errors.Join(errs...)
}
