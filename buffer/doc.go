// Package buffer implements an append-only typed sequence that keeps recent
// items in memory and spills older ones to a temp stream.
//
// A [Hybrid] buffer holds up to a threshold of items in its resident tier.
// When an Add fills the tier, the whole tier is encoded as one frame and
// appended to the backing stream obtained from a tempstream provider, and the
// resident tier starts over. Enumeration yields the flushed frames first and
// the resident items last, in insertion order:
//
//	buf := buffer.New(streams, 0, buffer.Int32Codec{}, buffer.WithThreshold(1000))
//	for i := range 100_000 {
//	    if err := buf.Add(int32(i)); err != nil { ... }
//	}
//	err := buf.Iterate(ctx, func(v int32) error { ... })
//
// # Frames
//
// A frame is
//
//	[magic 0xB1][count uvarint][codec u8][raw length uvarint]
//	[payload length uvarint][crc32c u32][payload]
//
// where the payload is the items encoded back to back by the buffer's
// [Codec], optionally compressed with LZ4 or ZSTD. WriteTo emits the same
// frames, so a buffer persists as one contiguous byte range that
// [ReadFrames] decodes.
//
// # Concurrency
//
// Add, Size, Iterate and WriteTo may be called from multiple goroutines.
// Buffers may share a provider index; each appends its frames at the end
// of the stream and reads back only the extents it wrote.
package buffer
