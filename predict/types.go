// Package predict implements the pre/post-dispatch prediction phase of
// a job's lifecycle: constant-folding (fixingValues), storage forwarding
// (pre/postForward), and the per-job statistics and self-job-count
// bookkeeping run after kernel dispatch (postCompute/postStore/postWork).
package predict

import "github.com/tilefuse/maprt/task"

// CellStats is the per-block min/max/mean/std summary attached to
// STATS-pattern outputs.
type CellStats struct {
	Active bool
	Min, Max, Mean, Std float64
}

// ValFix is a constant-folded value carrier: a value, whether it is
// compile-time fixed at this coordinate, and the stats window that goes
// with it.
type ValFix struct {
	Value float64
	Fixed bool
	Stats CellStats
}

// Block is predict's view of one block argument: task.BlockArg's shape
// plus the value/fixed/stats/forward state fixingValues and forwarding
// read and write.
type Block struct {
	Key     task.BlockKey
	Hold    task.HoldType
	Value   float64
	Fixed   bool
	Stats   CellStats
	Forward bool
}
