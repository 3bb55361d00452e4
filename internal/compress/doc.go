// Package compress implements the block codecs used for spilled buffer frames:
// LZ4 for hot data and ZSTD when ratio matters more than speed.
//
// A block that does not shrink below 90% of its input is stored raw, and the
// caller records the codec that was actually used next to the payload.
package compress
