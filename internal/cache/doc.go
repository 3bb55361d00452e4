// Package cache provides a size-bounded LRU of interchangeable values grouped
// by class.
//
// The tensor pool keeps released blocks here keyed by (element type, length).
// Any cached value of a class can satisfy a request for that class, so a
// lookup removes the most recently cached value instead of returning a shared
// one. Eviction is global across classes and always drops the least recently
// cached value first.
package cache
