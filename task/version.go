package task

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tilefuse/maprt/cluster"
)

// Version is a compiled kernel for one (device, group size, detail)
// combination, the named boundary to the Skeleton code generator.
// Everything past Source is opaque to Task; it only needs enough to bind
// arguments and enqueue.
type Version struct {
	DeviceType string
	GroupSize  [2]int
	Detail     string
	Source     string
	SharedMem  int
	ExtraArgs  []int
	ID         uuid.UUID
}

// NewVersion builds a Version for one (device, group size, detail)
// combination, stamping it with a fresh ID so a scheduler can tell two
// compiled variants of the same cluster apart even when their Source,
// GroupSize, and Detail happen to collide.
func NewVersion(deviceType string, groupSize [2]int, detail, source string, sharedMem int, extraArgs []int) *Version {
	return &Version{
		DeviceType: deviceType,
		GroupSize:  groupSize,
		Detail:     detail,
		Source:     source,
		SharedMem:  sharedMem,
		ExtraArgs:  extraArgs,
		ID:         uuid.New(),
	}
}

// Skeleton chooses a kernel body for a cluster's pattern and emits a
// Version. Selection among Local/Focal/Zonal/Radial/Loop/Stats/Identity
// skeletons is outside this package's scope; Skeleton is the seam a code
// generator plugs into.
type Skeleton interface {
	Emit(c *cluster.Cluster) (*Version, error)
}

// Arg is one abstract kernel argument, the value-level result of BindArgs.
// It carries no device handle; marshalling it onto a real device API is
// out of scope.
type Arg struct {
	Key   BlockKey
	Hold  HoldType
	Value float64
	Fixed bool
}

// BindArgs builds the abstract argument list for one job's kernel
// dispatch, following Task::computeVersion's clSetKernelArg sequence:
// each input block contributes HOLD_0's (ptr-or-null, scalar, fixed-flag)
// triple, HOLD_1's scalar-only, or HOLD_N's (ptr, scalar, fixed-flag)
// triple; each output contributes HOLD_1's (ptr, offset) or HOLD_N's
// ptr-only. Trailing block-size/coord/num-blocks/group-size/extra
// arguments are the caller's responsibility to append (they are runtime
// scheduler state, not Task state).
func BindArgs(inputs []BlockArg, outputs []BlockArg) ([]Arg, error) {
	args := make([]Arg, 0, len(inputs)+len(outputs))
	for _, in := range inputs {
		switch in.Hold {
		case HOLD_0, HOLD_1, HOLD_N:
			args = append(args, Arg{Key: in.Key, Hold: in.Hold})
		default:
			return nil, fmt.Errorf("task: input block %s has invalid HoldType %d", in.Key.string(), in.Hold)
		}
	}
	for _, out := range outputs {
		switch out.Hold {
		case HOLD_1, HOLD_N:
			args = append(args, Arg{Key: out.Key, Hold: out.Hold})
		default:
			return nil, fmt.Errorf("task: output block %s has invalid HoldType %d", out.Key.string(), out.Hold)
		}
	}
	return args, nil
}
