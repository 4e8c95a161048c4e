package predict

import (
	"time"

	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/runtime"
	"github.com/tilefuse/maprt/task"
)

// FixingValues builds the constant-folded value map for one job,
// seeding it from the input blocks actually carried in and then
// recording every Constant node as fixed. Folding arbitrary node kinds
// would need a per-kind computeFixed dispatch the node package does not
// implement; restricting folding to Constant nodes is still enough to
// drive PreForward's and PostCompute's fixed-value bookkeeping, since
// Constant is the one kind whose value is always statically known.
func FixingValues(rt *runtime.Runtime, t *task.Task, in []Block) map[node.ID]ValFix {
	valHash := make(map[node.ID]ValFix)
	for _, blk := range in {
		valHash[blk.Key.Node] = ValFix{Value: blk.Value, Fixed: blk.Fixed, Stats: blk.Stats}
	}

	all := append(append([]node.ID(nil), t.Cluster.NodeList...), t.Cluster.OutList...)
	for _, nid := range all {
		if c, ok := rt.Node(nid).(*node.Constant); ok {
			valHash[nid] = ValFix{Value: c.Value.F, Fixed: true, Stats: CellStats{Active: true}}
			continue
		}
		if _, ok := valHash[nid]; !ok {
			valHash[nid] = ValFix{Stats: CellStats{}}
		}
	}
	return valHash
}

// PreForward registers pass-through input blocks in the worker's
// thread-local forward table, propagates the registration through any
// unary value-preserving body node whose sole predecessor is already
// registered, then marks at most one output block per forwarded node as
// the forward target.
func PreForward(rt *runtime.Runtime, t *task.Task, rank int, in []Block, out []Block) []Block {
	forward := t.ForwardList[rank]
	for k := range forward {
		delete(forward, k)
	}

	bodyOut := append(append([]node.ID(nil), t.Cluster.NodeList...), t.Cluster.OutList...)

	for _, blk := range in {
		if blk.Hold != task.HOLD_N || blk.Fixed {
			continue
		}
		n := rt.Node(blk.Key.Node)
		if hasConsumerOutside(n, bodyOut) {
			continue
		}
		forward[blk.Key.Node] = blk.Key
	}

	for _, nid := range bodyOut {
		n := rt.Node(nid)
		if !canForward(n) {
			continue
		}
		prev := n.Prev()[0]
		if src, ok := forward[prev]; ok {
			forward[nid] = src
		}
	}

	// taken tracks the forward *source*, not the destination: at most
	// one output per cluster may claim a given source block, so later
	// outputs mapped to an already-claimed source fall back to an
	// ordinary copy.
	taken := make(map[node.ID]bool)
	result := make([]Block, len(out))
	copy(result, out)
	for i := range result {
		src, ok := forward[result[i].Key.Node]
		if !ok || taken[src.Node] {
			continue
		}
		result[i].Forward = true
		taken[src.Node] = true
	}
	return result
}

// PostForward hands each forwarded output block's storage entry to its
// mapped input block (a zero-copy alias), then clears the worker's
// thread-local forward table for reuse by the next job.
func PostForward(t *task.Task, rank int, out []Block) []Block {
	forward := t.ForwardList[rank]
	result := make([]Block, len(out))
	copy(result, out)
	for i := range result {
		if !result[i].Forward {
			continue
		}
		if src, ok := forward[result[i].Key.Node]; ok {
			result[i].Key = src
		}
		result[i].Forward = false
	}
	for k := range forward {
		delete(forward, k)
	}
	return result
}

// PostCompute copies a fixed D0 output's folded value back into the
// node's scalar slot; a real Node arena slot for "current scalar value"
// is out of this package's scope, so the copy is represented as the
// returned map the caller is expected to apply. It also records this
// job's dispatch outcome on rt.Clock, once per job: a job whose every
// output block is fixed or forwarded never ran a kernel (it counts as
// not-computed), any other job did (computed), and kernelTime is the
// caller-measured wall time the actual dispatch took, added to the
// running kernel-time total regardless of how many of the job's blocks
// were folded.
func PostCompute(rt *runtime.Runtime, out []Block, kernelTime time.Duration) map[node.ID]float64 {
	values := make(map[node.ID]float64)
	skipped := true
	for _, blk := range out {
		if !blk.Fixed && !blk.Forward {
			skipped = false
		}
		if blk.Fixed && rt.Node(blk.Key.Node).Meta().NumDim == node.D0 {
			values[blk.Key.Node] = blk.Value
		}
	}
	if skipped {
		rt.Clock.IncrNotComputed()
	} else {
		rt.Clock.IncrComputed()
	}
	rt.Clock.AddKernelTime(kernelTime)
	return values
}

// PostStore is the hook a zonal reduction's gathered min/max/mean/std
// siblings would be attached to the STATS output block through. Summary's
// four per-statistic child ids (Runtime.Summary's
// minID/maxID/meanID/stdID) are accessor-only: they are never inserted
// into the node arena as independently schedulable nodes, so no job ever
// produces a block for one and there is nothing here to gather. It stays
// a named pass-through rather than being dropped outright, so a future
// rework that makes the four children real output nodes has a boundary
// to plug into.
func PostStore(rt *runtime.Runtime, out []Block) []Block {
	result := make([]Block, len(out))
	copy(result, out)
	return result
}

// PostWork decrements the task's outstanding self-job count for the
// job's iteration, marking rank as "last" if it reaches zero.
func PostWork(t *task.Task, iter, rank int) {
	if t.DecrementSelfJobsCount(iter) == 0 {
		t.MarkLast(rank)
	}
}

func hasConsumerOutside(n node.Node, body []node.ID) bool {
	for _, succ := range n.Next() {
		if !containsNodeID(body, succ) {
			return true
		}
	}
	return false
}

func canForward(n node.Node) bool {
	a, ok := n.(*node.Arith)
	if !ok || len(a.Prev()) != 1 {
		return false
	}
	switch a.Kind() {
	case node.KindNeg, node.KindCos, node.KindSin:
		return true
	default:
		return false
	}
}

func containsNodeID(list []node.ID, n node.ID) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}
