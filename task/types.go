// Package task implements the Task factory and the base Task: the
// per-cluster execution model that builds dependency structures, computes
// accumulated spatial reach, and enumerates the jobs the scheduler runs.
package task

import (
	"fmt"

	"github.com/tilefuse/maprt/node"
)

// Coord is an integer block-coordinate vector, one component per
// dimension.
type Coord []int

func (c Coord) key() string { return fmt.Sprint([]int(c)) }

// HoldType says how a block argument is passed to a kernel: a null
// pointer, a constant-folded scalar only, or a full device buffer.
type HoldType int

const (
	HOLD_0 HoldType = iota // null / out-of-range
	HOLD_1                 // scalar, constant-folded
	HOLD_N                 // full block
)

// BlockKey names one concrete block: a node, a coordinate, and a loop
// iteration (0 for non-loop tasks).
type BlockKey struct {
	Node node.ID
	Coord Coord
	Iter  int
}

func (k BlockKey) string() string {
	return fmt.Sprintf("%d@%s#%d", k.Node, k.Coord.key(), k.Iter)
}

// BlockArg is a block-key argument as bound for kernel dispatch: its
// HoldType and its remaining-consumer count.
type BlockArg struct {
	Key    BlockKey
	Hold   HoldType
	Depend int
}

// Job is one instantiation of a Task at a given coordinate and iteration.
type Job struct {
	Task  *Task
	Coord Coord
	Iter  int
}
