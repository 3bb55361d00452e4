// Package tempstream hands out one reusable backing stream per logical buffer
// index. Hybrid buffers spill into these streams once their resident tier is
// full, and table conversions use the column index as the stream index.
//
// A stream is created on first use and lives until the provider is closed.
// Callers serialise access to it with Lock and Unlock.
package tempstream
