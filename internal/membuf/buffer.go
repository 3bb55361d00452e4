package membuf

import (
	"errors"
	"io"
)

// ErrNegativePosition is returned when a seek would move before the start.
var ErrNegativePosition = errors.New("membuf: negative position")

// Buffer is an in-memory io.ReadWriteSeeker. Writes past the end grow the
// buffer; writes before the end overwrite in place, which is how builders
// backpatch headers.
type Buffer struct {
	buf []byte
	pos int64
}

// New returns an empty Buffer with the given initial capacity.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, 0, capacity)}
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	end := int(b.pos) + len(p)
	if end > cap(b.buf) {
		newCap := 2 * cap(b.buf)
		if newCap < end {
			newCap = end
		}
		grown := make([]byte, len(b.buf), newCap)
		copy(grown, b.buf)
		b.buf = grown
	}
	if end > len(b.buf) {
		b.buf = b.buf[:end]
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += int64(n)
	return n, nil
}

// Seek implements io.Seeker. Seeking past the end is allowed; the gap is
// zero-filled by the next write.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = b.pos + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("membuf: invalid whence")
	}
	if pos < 0 {
		return 0, ErrNegativePosition
	}
	b.pos = pos
	return pos, nil
}

// Read implements io.Reader.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.pos:])
	b.pos += int64(n)
	return n, nil
}

// ReadAt implements io.ReaderAt. It does not move the cursor.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrNegativePosition
	}
	if off >= int64(len(b.buf)) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Bytes returns the written bytes without copying.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the number of written bytes.
func (b *Buffer) Len() int { return len(b.buf) }

// Reset empties the buffer and rewinds the cursor, keeping the capacity.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.pos = 0
}

// Sync is a no-op.
func (b *Buffer) Sync() error { return nil }
