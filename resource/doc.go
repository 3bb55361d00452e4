// Package resource governs the memory, worker and IO budgets shared by the
// tensor pool, the spilling buffers and the table conversions.
//
//	┌────────────────────┬────────────────────┬──────────────────────┐
//	│ Memory             │ Background workers │ IO                   │
//	│ (fail-fast)        │ (semaphore)        │ (token bucket)       │
//	├────────────────────┼────────────────────┼──────────────────────┤
//	│ tensor allocations │ segment decoding   │ buffer spills        │
//	└────────────────────┴────────────────────┴──────────────────────┘
//
// Memory accounting is non-blocking: AcquireMemory returns
// ErrMemoryLimitExceeded at once and the caller decides what to do. A pool
// that hits the limit fails the allocation instead of waiting for releases.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:     256 << 20,
//	    MaxBackgroundWorkers: 4,
//	    IOLimitBytesPerSec:   64 << 20,
//	})
//
// Every method is safe on a nil *Controller and then does nothing, so
// components take an optional controller without nil checks.
package resource
