// Package tabula provides immutable binary tables with spill-to-disk
// buffers and pooled tensor storage.
//
// Tables are written row by row and can be converted to a column-oriented
// layout, where every column is one contiguous segment. Conversion
// accumulates each column in a hybrid buffer that keeps recent values in
// memory and spills the rest to a temp stream, so tables larger than memory
// can be converted.
//
// # Quick Start
//
//	tc, _ := tabula.New(tabula.WithTempDir(os.TempDir()))
//	defer tc.Close()
//
//	b, _ := tc.NewBuilder(2)
//	_, _ = b.AddColumn(table.Int, "id")
//	_, _ = b.AddColumn(table.String, "label")
//	_ = b.AddRow(1, "a")
//	_ = b.AddRow(2, "b")
//	rows, _ := b.Build()
//
//	cols, _ := tc.ToColumnOriented(ctx, rows)
//	seg, _ := cols.Column(1)
//	for v, err := range seg.Values(ctx) { ... }
//
// # Persistence
//
// Tables are single byte ranges. Save and Load move them through any
// [blobstore.BlobStore]: local files (memory-mapped), memory, S3 or MinIO.
//
//	store := blobstore.NewLocalStore("./data")
//	_ = tc.Save(ctx, store, "events.tab", rows)
//	t, _ := tc.Load(ctx, store, "events.tab")
//
// # Key Features
//
//   - Row and column orientation with lossless conversion
//   - Spill buffers with LZ4/ZSTD compressed, checksummed frames
//   - Ref-counted tensor blocks with stale-handle detection and a bounded cache
//   - Decimal, date, index list and tensor column types
//   - Arrow IPC export and per-column statistics
package tabula
