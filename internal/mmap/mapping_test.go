package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestMapping_OpenReadClose(t *testing.T) {
	content := []byte("row-oriented table")
	m, err := Open(writeFile(t, content))
	require.NoError(t, err)

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())
	require.NoError(t, m.Advise(AccessRandom))

	s, err := m.Slice(4, 8)
	require.NoError(t, err)
	assert.Equal(t, "oriented", string(s))

	_, err = m.Slice(10, 9)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = m.Slice(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	p := make([]byte, 8)
	n, err := m.ReadAt(p, 13)
	assert.Equal(t, 5, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "table", string(p[:n]))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	_, err = m.ReadAt(p, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Slice(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMapping_Empty(t *testing.T) {
	m, err := Open(writeFile(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Zero(t, m.Size())
	require.NoError(t, m.Advise(AccessSequential))
	s, err := m.Slice(0, 0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestMapping_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}
