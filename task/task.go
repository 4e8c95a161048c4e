package task

import (
	"sync"

	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/reach"
	"github.com/tilefuse/maprt/runtime"
)

// Kind is the closed set of Task subkinds, dispatched on by cluster
// pattern in Factory. Unlike node.Kind this is not exhaustively matched
// everywhere a Task is used — the job engine's SelfJobs and *Depends
// family apply the same generic contract to every Kind.
type Kind int

const (
	KindGeneric Kind = iota
	KindLoop
	KindRadial
	KindScalar
	KindTail
)

// Task wraps a cluster and is the execution unit the job engine drives:
// dependency counting, accumulated reach, job enumeration, and the
// thread-local forward map all live here, one mutex per task guarding the
// state multiple worker goroutines touch concurrently.
type Task struct {
	Kind    Kind
	Cluster *cluster.Cluster

	Prev, Next, Back, Forw []*Task

	Versions []*Version

	AccuInReach  map[node.ID]reach.Mask
	AccuOutReach map[node.ID]reach.Mask

	NextOfOut map[node.ID][]*Task
	IsInputOf map[node.ID]pattern.Pattern

	// PrevJobsCount is construction step 2's aggregate: per prev-task, 1
	// if its output is D0 else its full block count. It is a coarse,
	// coordinate-independent bound computed once at construction; the
	// job engine's per-coordinate dep_hash entries are seeded from
	// job.PrevDependencies instead, not from this field.
	PrevJobsCount int

	// ForwardList is the thread-local forward map, one entry per worker
	// slot, cleared at the end of each job.
	ForwardList []map[node.ID]BlockKey

	mu            sync.Mutex
	depHash       map[string]int
	selfJobsCount map[int]int
	last          int // sentinel worker rank; -1 means unmarked
}

const noLast = -1

func newTask(kind Kind, c *cluster.Cluster) *Task {
	return &Task{
		Kind:          kind,
		Cluster:       c,
		AccuInReach:   make(map[node.ID]reach.Mask),
		AccuOutReach:  make(map[node.ID]reach.Mask),
		NextOfOut:     make(map[node.ID][]*Task),
		IsInputOf:     make(map[node.ID]pattern.Pattern),
		depHash:       make(map[string]int),
		selfJobsCount: make(map[int]int),
		last:          noLast,
	}
}

// Factory dispatches a Task subkind from the cluster's pattern: LOOP,
// SPREAD (unimplemented), RADIAL, D0, TAIL, else the generic Task. D0 is
// checked before TAIL so a scalar loop-carried accumulator that is also
// TAIL-patterned dispatches to KindScalar, not KindTail.
func Factory(rt *runtime.Runtime, c *cluster.Cluster) *Task {
	switch {
	case c.Pattern.Is(pattern.LOOP):
		return newTask(KindLoop, c)
	case c.Pattern.Is(pattern.SPREAD):
		runtime.Invariant("task: SPREAD cluster %d has no Task implementation", c.ID())
		return nil
	case c.Pattern.Is(pattern.RADIAL):
		return newTask(KindRadial, c)
	case representativeNumDim(rt, c) == node.D0:
		return newTask(KindScalar, c)
	case c.Pattern.Is(pattern.TAIL):
		return newTask(KindTail, c)
	default:
		return newTask(KindGeneric, c)
	}
}

// representativeNumDim picks the dimensionality of a cluster's first
// output node, falling back to its first body node, matching the
// teacher's convention of treating a cluster's shape as its output's
// shape.
func representativeNumDim(rt *runtime.Runtime, c *cluster.Cluster) node.NumDim {
	if len(c.OutList) > 0 {
		return rt.Node(c.OutList[0]).Meta().NumDim
	}
	if len(c.NodeList) > 0 {
		return rt.Node(c.NodeList[0]).Meta().NumDim
	}
	return node.D0
}

// NumBlock returns the per-dimension block count of t's representative
// node: ceil(DataSize[i] / BlockSize[i]).
func (t *Task) NumBlock(rt *runtime.Runtime) []int {
	n := representativeNode(rt, t.Cluster)
	if n == nil {
		return nil
	}
	meta := n.Meta()
	out := make([]int, len(meta.DataSize))
	for i, size := range meta.DataSize {
		b := 1
		if i < len(meta.BlockSize) && meta.BlockSize[i] != 0 {
			b = meta.BlockSize[i]
		}
		out[i] = (size + b - 1) / b
	}
	return out
}

func representativeNode(rt *runtime.Runtime, c *cluster.Cluster) node.Node {
	if len(c.OutList) > 0 {
		return rt.Node(c.OutList[0])
	}
	if len(c.NodeList) > 0 {
		return rt.Node(c.NodeList[0])
	}
	return nil
}

func numBlockProduct(blocks []int) int {
	p := 1
	for _, b := range blocks {
		p *= b
	}
	return p
}
