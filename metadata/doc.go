// Package metadata provides the typed key/value documents attached to every
// table column and to tables themselves.
//
// Values are a small closed set of kinds:
//
//   - String: metadata.String("price")
//   - Int: metadata.Int(42)
//   - Float: metadata.Float(3.14)
//   - Bool: metadata.Bool(true)
//   - Array: metadata.Array(...)
//
// A column document always carries its name and position:
//
//	md := metadata.Document{}
//	md.SetString(metadata.KeyName, "price")
//	md.SetInt(metadata.KeyIndex, 2)
//	name := md.GetString(metadata.KeyName, "")
//
// # Encoding
//
// The binary form is deterministic: keys are written in sorted order, so two
// equal documents always produce identical bytes. This is the metadata blob
// stored per column in the table header. WriteTo and ReadFrom frame it with a
// length prefix for streaming use.
//
// Documents also render as JSON (see [Document.JSON]) for inspection.
package metadata
