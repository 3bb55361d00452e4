package tempstream

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/tabula/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_SameStreamPerIndex(t *testing.T) {
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	for name, p := range map[string]Provider{"memory": NewMemory(), "disk": disk} {
		t.Run(name, func(t *testing.T) {
			defer p.Close()

			a, err := p.Get(3)
			require.NoError(t, err)
			b, err := p.Get(3)
			require.NoError(t, err)
			c, err := p.Get(4)
			require.NoError(t, err)

			assert.Same(t, a, b)
			assert.NotSame(t, a, c)
			assert.Equal(t, uint32(3), a.Index())

			a.Lock()
			_, err = a.Write([]byte("frame"))
			require.NoError(t, err)
			n, err := a.Len()
			require.NoError(t, err)
			assert.Equal(t, int64(5), n)
			_, err = a.Seek(0, io.SeekStart)
			require.NoError(t, err)
			got, err := io.ReadAll(a)
			require.NoError(t, err)
			a.Unlock()
			assert.Equal(t, "frame", string(got))
		})
	}
}

func TestProvider_CloseRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	p, err := NewDisk(dir)
	require.NoError(t, err)

	for i := range uint32(3) {
		_, err := p.Get(i)
		require.NoError(t, err)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = p.Get(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestProvider_CreateFailure(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("stream-7-", fs.Fault{FailAfterBytes: -1, FailOnOpen: true})

	p, err := NewDisk(filepath.Join(t.TempDir(), "spill"), WithFileSystem(ffs))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Get(1)
	require.NoError(t, err)
	_, err = p.Get(7)
	assert.ErrorIs(t, err, fs.ErrInjected)
}
