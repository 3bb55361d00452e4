// Package hash provides the CRC32-Castagnoli checksum used by buffer frames.
//
//	sum := hash.CRC32C(payload)
//	if !hash.Verify(payload, sum) { ... }
//
// Go's crc32 package uses SSE4.2 or the ARM CRC extension when available.
package hash
