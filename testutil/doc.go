// Package testutil provides testing utilities for tabula.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random source and generators for
// random cells and rows of every column type.
//
// # Random Rows
//
//	rng := testutil.NewRNG(seed)
//	types := rng.ColumnTypes(8)
//	row, _ := rng.Row(pool, types)
package testutil
