// Package membuf provides a growable in-memory buffer that behaves like a
// seekable file. Memory-backed temp streams and table builds write through it.
package membuf
