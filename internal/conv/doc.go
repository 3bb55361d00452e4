// Package conv converts between integer widths with overflow checks.
//
// Table headers store counts and offsets as fixed-width integers, so every
// conversion from a Go int or an untrusted on-disk value goes through here.
// Conversions that are provably in range use plain casts instead.
package conv
