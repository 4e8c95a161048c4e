package task

import (
	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/reach"
	"github.com/tilefuse/maprt/runtime"
)

// BuildAll instantiates one Task per cluster, in the order given (expected
// to be the Fusioner's topologically-sorted output), and carries out the
// seven construction steps on each: linking task edges, the two
// construction-time job-count aggregates, next_of_out, is_input_of,
// accumulated reach, and the thread-local forward table.
func BuildAll(rt *runtime.Runtime, clusters []*cluster.Cluster) []*Task {
	byCluster := make(map[cluster.ID]*Task, len(clusters))
	tasks := make([]*Task, 0, len(clusters))

	for _, c := range clusters {
		t := Factory(rt, c)
		byCluster[c.ID()] = t
		tasks = append(tasks, t)
	}

	for _, t := range tasks {
		linkEdges(t, byCluster) // step 1
	}
	for _, t := range tasks {
		computePrevJobsCount(rt, t)  // step 2
		computeSelfJobsCount(rt, t)  // step 3
		computeNextOfOut(t)          // step 4
		computeIsInputOf(rt, t)      // step 5
		computeAccumulatedReach(rt, t) // step 6
		allocateForwardList(rt, t)   // step 7
	}
	return tasks
}

func linkEdges(t *Task, byCluster map[cluster.ID]*Task) {
	for _, e := range t.Cluster.Prev {
		if p := byCluster[e.Other]; p != nil {
			t.Prev = append(t.Prev, p)
		}
	}
	for _, e := range t.Cluster.Next {
		if n := byCluster[e.Other]; n != nil {
			t.Next = append(t.Next, n)
		}
	}
	for _, e := range t.Cluster.Back {
		if b := byCluster[e.Other]; b != nil {
			t.Back = append(t.Back, b)
		}
	}
	for _, e := range t.Cluster.Forw {
		if f := byCluster[e.Other]; f != nil {
			t.Forw = append(t.Forw, f)
		}
	}
}

// commonOutput returns the first node that is both an output of prev and
// an input of t, the shared block-producing node on that edge.
func commonOutput(prev, t *Task) (node.ID, bool) {
	for _, out := range prev.Cluster.OutList {
		for _, in := range t.Cluster.InList {
			if out == in {
				return out, true
			}
		}
	}
	return 0, false
}

// computePrevJobsCount is construction step 2: the number of predecessor
// jobs this task's first iteration must wait on — 1 per D0 prev-producer,
// the prev's full block count otherwise.
func computePrevJobsCount(rt *runtime.Runtime, t *Task) {
	total := 0
	for _, p := range t.Prev {
		n, ok := commonOutput(p, t)
		if !ok {
			continue
		}
		if rt.Node(n).Meta().NumDim == node.D0 {
			total++
		} else {
			total += numBlockProduct(p.NumBlock(rt))
		}
	}
	t.PrevJobsCount = total
}

// computeSelfJobsCount is construction step 3.
func computeSelfJobsCount(rt *runtime.Runtime, t *Task) {
	t.selfJobsCount[0] = numBlockProduct(t.NumBlock(rt))
}

// computeNextOfOut is construction step 4: for every output node, which
// next/back tasks consume it.
func computeNextOfOut(t *Task) {
	for _, out := range t.Cluster.OutList {
		var consumers []*Task
		for _, n := range t.Next {
			if containsNodeID(n.Cluster.InList, out) {
				consumers = append(consumers, n)
			}
		}
		for _, b := range t.Back {
			if containsNodeID(b.Cluster.InList, out) {
				consumers = append(consumers, b)
			}
		}
		t.NextOfOut[out] = consumers
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

// computeIsInputOf is construction step 5: for every input node, the
// union of patterns of the body nodes that consume it.
func computeIsInputOf(rt *runtime.Runtime, t *Task) {
	for _, in := range t.Cluster.InList {
		var p pattern.Pattern
		for _, body := range t.Cluster.NodeList {
			if containsNodeID(rt.Node(body).Prev(), in) {
				p |= rt.Node(body).Pattern()
			}
		}
		t.IsInputOf[in] = p
	}
}

// computeAccumulatedReach is construction step 6: the backward
// (accu-in-reach) and forward (accu-out-reach) walks over a cluster's own
// body nodes, restricted to successors/predecessors that remain inside
// the cluster.
func computeAccumulatedReach(rt *runtime.Runtime, t *Task) {
	all := append(append([]node.ID(nil), t.Cluster.InList...), t.Cluster.NodeList...)
	all = append(all, t.Cluster.OutList...)

	// backward: last-to-first
	for i := len(all) - 1; i >= 0; i-- {
		n := all[i]
		own := rt.Node(n).InputReach()
		acc := own
		for _, succ := range rt.Node(n).Next() {
			if !containsNodeID(all, succ) {
				continue
			}
			succReach, ok := t.AccuInReach[succ]
			if !ok {
				continue
			}
			acc = reach.Flat(acc, reach.Pipe(rt.Node(succ).InputReach(), succReach))
		}
		t.AccuInReach[n] = acc
	}

	// forward: first-to-last
	for i := 0; i < len(all); i++ {
		n := all[i]
		own := rt.Node(n).OutputReach()
		acc := own
		for _, pred := range rt.Node(n).Prev() {
			if !containsNodeID(all, pred) {
				continue
			}
			predReach, ok := t.AccuOutReach[pred]
			if !ok {
				continue
			}
			acc = reach.Flat(acc, reach.Pipe(rt.Node(pred).OutputReach(), predReach))
		}
		t.AccuOutReach[n] = acc
	}
}

// allocateForwardList is construction step 7.
func allocateForwardList(rt *runtime.Runtime, t *Task) {
	n := rt.Config.NumWorkers
	if n <= 0 {
		n = 1
	}
	t.ForwardList = make([]map[node.ID]BlockKey, n)
	for i := range t.ForwardList {
		t.ForwardList[i] = make(map[node.ID]BlockKey)
	}
}
