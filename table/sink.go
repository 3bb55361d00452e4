package table

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/hupe1980/tabula/internal/fs"
	"github.com/hupe1980/tabula/internal/membuf"
	"github.com/hupe1980/tabula/internal/mmap"
)

// sink is the write side of a table under construction: an in-memory buffer
// or a file that is memory-mapped once finished.
type sink struct {
	mem  *membuf.Buffer
	file fs.File
	fsys fs.FileSystem
	path string
	w    *bufio.Writer
	pos  int64
	done bool
}

func newMemorySink(capacity int) *sink {
	return &sink{mem: membuf.New(capacity)}
}

func newFileSink(fsys fs.FileSystem, path string) (*sink, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &sink{file: f, fsys: fsys, path: path, w: bufio.NewWriterSize(f, 64<<10)}, nil
}

func (s *sink) Write(p []byte) (int, error) {
	var (
		n   int
		err error
	)
	if s.w != nil {
		n, err = s.w.Write(p)
	} else {
		n, err = s.mem.Write(p)
	}
	s.pos += int64(n)
	return n, err
}

// offset returns the number of bytes written so far.
func (s *sink) offset() int64 { return s.pos }

// patch overwrites len(p) bytes at off. Writes after a patch continue at the
// end.
func (s *sink) patch(off int64, p []byte) error {
	var ws io.WriteSeeker = s.mem
	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			return err
		}
		ws = s.file
	}
	if _, err := ws.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if _, err := ws.Write(p); err != nil {
		return err
	}
	_, err := ws.Seek(s.pos, io.SeekStart)
	return err
}

// finish hands the written bytes over. Memory sinks are passed zero-copy;
// file sinks are synced, closed and mapped read-only.
func (s *sink) finish() (*source, error) {
	if s.mem != nil {
		s.done = true
		return &source{data: s.mem.Bytes()}, nil
	}
	if err := s.w.Flush(); err != nil {
		return nil, err
	}
	if err := s.file.Sync(); err != nil {
		return nil, err
	}
	f := s.file
	s.file = nil
	if err := f.Close(); err != nil {
		return nil, err
	}
	s.done = true
	return openMapped(s.path)
}

// close releases the sink. A file that was never finished is removed.
func (s *sink) close() error {
	if s.mem != nil {
		if !s.done {
			s.mem.Reset()
		}
		return nil
	}
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	if !s.done && s.path != "" {
		if rerr := s.fsys.Remove(s.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			err = errors.Join(err, rerr)
		}
		s.path = ""
	}
	return err
}

// source is the read side: table bytes plus whatever keeps them alive.
type source struct {
	data   []byte
	closer io.Closer
}

func openMapped(path string) (*source, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AccessRandom)
	return &source{data: m.Bytes(), closer: m}, nil
}

func (s *source) close() error {
	s.data = nil
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
