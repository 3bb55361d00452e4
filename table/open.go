package table

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/tabula/blobstore"
)

// Open decodes a table from data without copying it. data must stay
// unmodified while the table is in use.
func Open(data []byte, opts ...Option) (Table, error) {
	return openSource(&source{data: data}, newOptions(opts))
}

// OpenFile memory-maps the table at path.
func OpenFile(path string, opts ...Option) (Table, error) {
	src, err := openMapped(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	t, err := openSource(src, newOptions(opts))
	if err != nil {
		_ = src.close()
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	return t, nil
}

func openSource(src *source, o options) (Table, error) {
	if len(src.data) < 8 {
		return nil, corruptf("%d bytes", len(src.data))
	}
	if v := int32(binary.LittleEndian.Uint32(src.data)); v != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, v)
	}
	switch orient := Orientation(int32(binary.LittleEndian.Uint32(src.data[4:]))); orient {
	case RowOriented:
		return newRowTable(src, o)
	case ColumnOriented:
		return newColumnTable(src, o)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrientation, orient)
	}
}

// Load opens the table stored under name. Mappable blobs are used without a
// copy and stay open until the table is closed.
func Load(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (Table, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("table: load %s: %w", name, err)
	}
	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		_ = blob.Close()
		return nil, fmt.Errorf("table: load %s: %w", name, err)
	}

	src := &source{data: data}
	if _, ok := blob.(blobstore.Mappable); ok {
		src.closer = blob
	} else if err := blob.Close(); err != nil {
		return nil, fmt.Errorf("table: load %s: %w", name, err)
	}

	t, err := openSource(src, newOptions(opts))
	if err != nil {
		_ = src.close()
		return nil, fmt.Errorf("table: load %s: %w", name, err)
	}
	return t, nil
}

// Save writes the encoded table to store under name.
func Save(ctx context.Context, store blobstore.BlobStore, name string, t Table) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("table: save %s: %w", name, err)
	}
	if _, err := io.Copy(w, bytes.NewReader(t.Bytes())); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
		}
		return fmt.Errorf("table: save %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("table: save %s: %w", name, err)
	}
	return nil
}
