package table

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/tabula/internal/fs"
	"github.com/hupe1980/tabula/metadata"
)

// buildSample builds the three row id/label table used across tests.
func buildSample(t *testing.T, opts ...Option) *RowTable {
	t.Helper()
	b, err := NewBuilder(3, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, err = b.AddColumn(Int, "id")
	require.NoError(t, err)
	_, err = b.AddColumn(String, "label")
	require.NoError(t, err)

	require.NoError(t, b.AddRow(1, "a"))
	require.NoError(t, b.AddRow(2, "b"))
	require.NoError(t, b.AddRow(3, "c"))

	rt, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestBuilder_RoundTrip(t *testing.T) {
	rt := buildSample(t)

	assert.Equal(t, uint32(3), rt.RowCount())
	assert.Equal(t, uint32(2), rt.ColumnCount())
	assert.Equal(t, []ColumnType{Int, String}, rt.ColumnTypes())
	assert.Equal(t, RowOriented, rt.Orientation())

	row, err := rt.Row(1)
	require.NoError(t, err)
	assert.Equal(t, Row{int32(2), "b"}, row)

	mds, err := rt.ColumnMetadata()
	require.NoError(t, err)
	assert.Equal(t, "id", mds[0].GetString(metadata.KeyName, ""))
	assert.Equal(t, int64(1), mds[1].GetInt(metadata.KeyIndex, -1))

	_, err = rt.Row(3)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBuilder_DefaultsMissingValues(t *testing.T) {
	b, err := NewBuilder(1)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.AddColumn(Int, "n")
	require.NoError(t, err)
	_, err = b.AddColumn(String, "")
	require.NoError(t, err)
	_, err = b.AddColumn(Date, "when")
	require.NoError(t, err)

	require.NoError(t, b.AddRow(1))
	rt, err := b.Build()
	require.NoError(t, err)
	defer rt.Close()

	row, err := rt.Row(0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), row[0])
	assert.Equal(t, "", row[1])
	assert.True(t, MinDate.Equal(row[2].(time.Time)))

	mds, err := rt.ColumnMetadata(1)
	require.NoError(t, err)
	assert.Equal(t, "Column 1", mds[0].GetString(metadata.KeyName, ""))
}

func TestBuilder_TooManyRowsKeepsBuilderUsable(t *testing.T) {
	b, err := NewBuilder(1)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.AddColumn(Long, "v")
	require.NoError(t, err)
	require.NoError(t, b.AddRow(int64(7)))

	err = b.AddRow(int64(8))
	require.ErrorIs(t, err, ErrTooManyRows)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "AddRow", pe.Op)

	rt, err := b.Build()
	require.NoError(t, err)
	defer rt.Close()
	row, err := rt.Row(0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), row[0])
}

func TestBuilder_RowCountMismatch(t *testing.T) {
	b, err := NewBuilder(2)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.AddColumn(Boolean, "flag")
	require.NoError(t, err)
	require.NoError(t, b.AddRow(true))

	_, err = b.Build()
	require.ErrorIs(t, err, ErrRowCountMismatch)

	err = b.AddRow(false)
	assert.ErrorIs(t, err, ErrBuilderState)
}

func TestBuilder_TooManyValues(t *testing.T) {
	b, err := NewBuilder(1)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.AddColumn(Int, "a")
	require.NoError(t, err)
	assert.ErrorIs(t, b.AddRow(1, 2), ErrTooManyValues)
	assert.NoError(t, b.AddRow(1))
}

func TestBuilder_EncodingErrorFails(t *testing.T) {
	b, err := NewBuilder(2)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.AddColumn(Byte, "small")
	require.NoError(t, err)

	err = b.AddRow(1000)
	var ee *EncodingError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, uint32(0), ee.Column)
	assert.Equal(t, Byte, ee.Type)

	assert.ErrorIs(t, b.AddRow(1), ErrBuilderState)
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderState)
}

func TestBuilder_SchemaFrozen(t *testing.T) {
	b, err := NewBuilder(1)
	require.NoError(t, err)
	defer b.Close()

	md, err := b.AddColumn(Double, "x")
	require.NoError(t, err)
	md.SetString("Unit", "m")
	require.NoError(t, b.AddRow(1.5))

	_, err = b.AddColumn(Int, "late")
	assert.ErrorIs(t, err, ErrSchemaFrozen)

	rt, err := b.Build()
	require.NoError(t, err)
	defer rt.Close()
	mds, err := rt.ColumnMetadata(0)
	require.NoError(t, err)
	assert.Equal(t, "m", mds[0].GetString("Unit", ""))
}

func TestBuilder_UnknownColumnType(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.AddColumn(ColumnType(200), "bad")
	assert.ErrorIs(t, err, ErrUnknownColumnType)
}

func TestBuilder_EmptyTable(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)
	defer b.Close()
	_, err = b.AddColumn(String, "s")
	require.NoError(t, err)

	rt, err := b.Build()
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, uint32(0), rt.RowCount())
	head, err := rt.Head()
	require.NoError(t, err)
	assert.Empty(t, head)
}

func TestBuilder_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.tab")

	var info BuildInfo
	rt := buildSample(t, WithFile(path), WithBuildHook(func(bi BuildInfo) { info = bi }))
	assert.Equal(t, uint32(3), info.Rows)
	assert.Equal(t, int64(len(rt.Bytes())), info.Bytes)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, rt.Bytes(), reopened.Bytes())
}

func TestBuilder_FileWriteFailureRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.tab")

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("broken", fs.Fault{FailAfterBytes: -1, FailOnSync: true})

	b, err := NewBuilder(1, WithFile(path), WithFileSystem(faulty))
	require.NoError(t, err)
	_, err = b.AddColumn(Int, "n")
	require.NoError(t, err)
	require.NoError(t, b.AddRow(1))

	_, err = b.Build()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrInjected))

	require.NoError(t, b.Close())
	_, err = faulty.Stat(path)
	assert.Error(t, err)
}

func TestBuilder_CloseIsIdempotent(t *testing.T) {
	b, err := NewBuilder(0)
	require.NoError(t, err)
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderState)
}
