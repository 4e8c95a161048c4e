package runtime

import (
	"sync/atomic"
	"time"
)

// Clock is the process-wide, user-visible counter set: computed/skipped
// job tallies plus elapsed kernel time, grounded on
// Atul-Ranjan12-google-dag-optimization/src-sol2's BenchmarkResult timing
// fields in main.go.
type Clock struct {
	started time.Time

	computed    atomic.Int64
	notComputed atomic.Int64
	kernelNanos atomic.Int64
}

// NewClock returns a Clock with its start time set to now.
func NewClock() *Clock {
	return &Clock{started: time.Now()}
}

// Start resets the elapsed-time origin.
func (c *Clock) Start() { c.started = time.Now() }

// Elapsed returns the time since Start/NewClock.
func (c *Clock) Elapsed() time.Duration { return time.Since(c.started) }

// IncrComputed records one job that actually dispatched a kernel.
func (c *Clock) IncrComputed() { c.computed.Add(1) }

// IncrNotComputed records one job skipped because every output was
// already fixed or forwarded: a semantic skip, not an error.
func (c *Clock) IncrNotComputed() { c.notComputed.Add(1) }

// AddKernelTime accumulates time spent inside compute().
func (c *Clock) AddKernelTime(d time.Duration) { c.kernelNanos.Add(int64(d)) }

// Computed returns the running count of dispatched kernels.
func (c *Clock) Computed() int64 { return c.computed.Load() }

// NotComputed returns the running count of skipped jobs.
func (c *Clock) NotComputed() int64 { return c.notComputed.Load() }

// KernelTime returns accumulated time spent inside compute().
func (c *Clock) KernelTime() time.Duration { return time.Duration(c.kernelNanos.Load()) }
