// Package mem allocates 64-byte aligned backing arrays for tensor blocks.
//
// Aligned starts keep pooled vectors and matrices friendly to SIMD loads and
// avoid false sharing between blocks handed to different goroutines.
package mem
