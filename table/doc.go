// Package table implements an immutable binary table format in two
// orientations and converts between them.
//
// A table is written row by row through a [Builder] with a declared row
// count. Columns are declared first; the first AddRow freezes the schema.
// Missing trailing values are filled with the column's [DefaultValue]:
//
//	b, _ := table.NewBuilder(3)
//	_, _ = b.AddColumn(table.Int, "id")
//	_, _ = b.AddColumn(table.String, "label")
//	_ = b.AddRow(1, "a")
//	_ = b.AddRow(2, "b")
//	_ = b.AddRow(3)
//	rows, _ := b.Build()
//	cols, _ := rows.AsColumnOriented(ctx)
//
// # Layout
//
// Every table starts with the same header:
//
//	[version i32][orientation i32][column count u32]
//	per column: [type u8][metadata length uvarint][metadata]
//	[row count u32]
//
// A row-oriented table continues with one u32 offset per row followed by the
// encoded rows. A column-oriented table continues with column count + 1 u64
// offsets followed by one segment per column, each a sequence of frames
// written by package buffer.
//
// All integers are little endian.
package table
