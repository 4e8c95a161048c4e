// Package job implements the scheduler-facing job enumeration and
// dependency-notification protocol: askJobs, nextJobs, notify/notifyAll,
// and the dependency-count formulas, all as free functions over
// *task.Task so that task never needs to import this package.
package job

import (
	"fmt"

	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/reach"
	"github.com/tilefuse/maprt/runtime"
	"github.com/tilefuse/maprt/task"
)

// InitialJobs enumerates one job per block coordinate in [0, numblock()),
// iter=0.
func InitialJobs(rt *runtime.Runtime, t *task.Task) []task.Job {
	blocks := t.NumBlock(rt)
	var jobs []task.Job
	enumerateCoords(blocks, func(coord task.Coord) {
		jobs = append(jobs, task.Job{Task: t, Coord: coord, Iter: 0})
	})
	return jobs
}

// AskJobs is the per-worker completion hook, called after postWork has
// already decremented self_jobs_count and marked "last" if this job
// brought it to zero: run SelfJobs for intra-cluster follow-ups, then
// fan NextJobs out to every next/back task.
func AskJobs(rt *runtime.Runtime, done task.Job, rank int) []task.Job {
	t := done.Task
	out := SelfJobs(rt, done)
	end := t.IsLast(rank)
	for _, next := range t.Next {
		out = append(out, NextJobs(rt, next, done, end)...)
	}
	for _, back := range t.Back {
		out = append(out, NextJobs(rt, back, done, end)...)
	}
	if end {
		t.ResetLast()
	}
	return out
}

// SelfJobs enqueues intra-cluster follow-up jobs. The generic contract
// is a no-op; RADIAL/SPREAD override it, but SPREAD has no Task
// implementation and RADIAL's intra-cluster job shape is left to its own
// subclass contract, out of scope here.
func SelfJobs(rt *runtime.Runtime, done task.Job) []task.Job {
	return nil
}

// NextJobs fans a completed job's output out to the next task: for every
// node that is both an output of done.Task and an input of next, it
// issues per-coordinate notifies, or, for a D0 output, a single batched
// NotifyAll issued only once the producer's last worker finishes.
func NextJobs(rt *runtime.Runtime, next *task.Task, done task.Job, end bool) []task.Job {
	var ready []task.Job
	for _, out := range done.Task.Cluster.OutList {
		if !containsNodeID(next.Cluster.InList, out) {
			continue
		}
		if rt.Node(out).Meta().NumDim == node.D0 {
			if end {
				ready = append(ready, NotifyAll(rt, next, done.Iter)...)
			}
			continue
		}
		mask, ok := done.Task.AccuInReach[out]
		if !ok {
			continue
		}
		blocks := next.NumBlock(rt)
		for _, offset := range reach.BlockSpace(reach.Invert(mask)) {
			target := addOffset(done.Coord, offset)
			if !inRange(target, blocks) {
				continue
			}
			if j, ok := notifyOne(rt, next, target, done.Iter); ok {
				ready = append(ready, j)
			}
		}
	}
	return ready
}

// NotifyAll issues a batched notify to every coordinate of next's block
// space at once, for the D0-producer-notifies-only-at-end case.
func NotifyAll(rt *runtime.Runtime, next *task.Task, iter int) []task.Job {
	var ready []task.Job
	enumerateCoords(next.NumBlock(rt), func(coord task.Coord) {
		if j, ok := notifyOne(rt, next, coord, iter); ok {
			ready = append(ready, j)
		}
	})
	return ready
}

func notifyOne(rt *runtime.Runtime, t *task.Task, coord task.Coord, iter int) (task.Job, bool) {
	initial := PrevDependencies(rt, t, coord)
	if t.Notify(depKey(coord, iter), initial) {
		return task.Job{Task: t, Coord: coord, Iter: iter}, true
	}
	return task.Job{}, false
}

func depKey(coord task.Coord, iter int) string {
	return fmt.Sprintf("%v#%d", []int(coord), iter)
}

// PrevInterDepends counts in-range offsets of n's accumulated input
// reach inside t's own cluster at coord, weighted 0 when n is exactly
// FREE or carries INPUT (external/constant sources impose no
// intra-program dependency).
func PrevInterDepends(rt *runtime.Runtime, t *task.Task, n node.ID, coord task.Coord) int {
	p := rt.Node(n).Pattern()
	if p == pattern.FREE || p.Is(pattern.INPUT) {
		return 0
	}
	mask, ok := t.AccuInReach[n]
	if !ok {
		return 0
	}
	blocks := t.NumBlock(rt)
	count := 0
	for _, off := range reach.BlockSpace(mask) {
		if inRange(addOffset(coord, off), blocks) {
			count++
		}
	}
	return count
}

// NextInterDepends equals PrevInterDepends for every generic (non-
// Radial) task.
func NextInterDepends(rt *runtime.Runtime, t *task.Task, n node.ID, coord task.Coord) int {
	return PrevInterDepends(rt, t, n, coord)
}

// PrevIntraDepends and NextIntraDepends are zero for Local/Focal/Zonal
// tasks; only Radial/Spread contribute intra-cluster self-dependencies,
// out of the generic contract.
func PrevIntraDepends(t *task.Task, n node.ID, coord task.Coord) int { return 0 }
func NextIntraDepends(t *task.Task, n node.ID, coord task.Coord) int { return 0 }

// PrevDependencies sums prevInterDepends over every input node plus
// prevIntraDepends over every output node.
func PrevDependencies(rt *runtime.Runtime, t *task.Task, coord task.Coord) int {
	total := 0
	for _, in := range t.Cluster.InList {
		total += PrevInterDepends(rt, t, in, coord)
	}
	for _, out := range t.Cluster.OutList {
		total += PrevIntraDepends(t, out, coord)
	}
	return total
}

// NextDependencies sums, over every task that consumes n as an output,
// that task's nextInterDepends contribution, plus this task's own
// nextIntraDepends.
func NextDependencies(rt *runtime.Runtime, t *task.Task, n node.ID, coord task.Coord) int {
	total := 0
	for _, consumer := range t.NextOfOut[n] {
		total += NextInterDepends(rt, consumer, n, coord)
	}
	return total + NextIntraDepends(t, n, coord)
}

// NextInputDepends sums, over every program task that consumes n as an
// input, that task's own in-range accumulated input reach for n.
func NextInputDepends(rt *runtime.Runtime, allTasks []*task.Task, n node.ID, coord task.Coord) int {
	total := 0
	for _, t := range allTasks {
		if containsNodeID(t.Cluster.InList, n) {
			total += PrevInterDepends(rt, t, n, coord)
		}
	}
	return total
}

func containsNodeID(list []node.ID, n node.ID) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

func addOffset(coord task.Coord, offset []int) task.Coord {
	out := make(task.Coord, len(coord))
	for i := range coord {
		d := 0
		if i < len(offset) {
			d = offset[i]
		}
		out[i] = coord[i] + d
	}
	return out
}

func inRange(coord task.Coord, blocks []int) bool {
	for i, c := range coord {
		if i >= len(blocks) {
			continue
		}
		if c < 0 || c >= blocks[i] {
			return false
		}
	}
	return true
}

func enumerateCoords(blocks []int, fn func(task.Coord)) {
	if len(blocks) == 0 {
		fn(nil)
		return
	}
	coord := make(task.Coord, len(blocks))
	var rec func(dim int)
	rec = func(dim int) {
		if dim == len(blocks) {
			fn(append(task.Coord(nil), coord...))
			return
		}
		for i := 0; i < blocks[dim]; i++ {
			coord[dim] = i
			rec(dim + 1)
		}
	}
	rec(0)
}
