package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/predict"
	"github.com/tilefuse/maprt/reach"
	"github.com/tilefuse/maprt/runtime"
	"github.com/tilefuse/maprt/task"
)

func blockMeta() node.MetaData {
	return node.MetaData{NumDim: node.D2, BlockSize: node.BlockSize{4, 4}, DataSize: node.DataSize{8, 8}}
}

// twoClusterPipe builds a producer cluster {r, n} with output n, and a
// separate consumer cluster {c} reading n, bypassing the Fusioner so the
// two stay in distinct tasks regardless of fusion legality.
func twoClusterPipe(t *testing.T) (*runtime.Runtime, *task.Task, *task.Task) {
	rt := runtime.New(nil)
	r := rt.Read(blockMeta(), "r.tif")
	n := rt.Neg(blockMeta(), r.ID())
	c := rt.Neg(blockMeta(), n.ID())

	g := rt.Clusters
	prod := g.NewCluster(n.Pattern())
	g.AddToBody(prod, r.ID())
	g.AddToBody(prod, n.ID())
	g.AddToOutputs(prod, n.ID())

	cons := g.NewCluster(c.Pattern())
	g.AddToInputs(cons, n.ID())
	g.AddToBody(cons, c.ID())
	g.AddToOutputs(cons, c.ID())

	g.AddPrevEdge(prod, cons, n.Pattern(), c.Pattern())

	tasks := task.BuildAll(rt, []*cluster.Cluster{prod, cons})
	require.Len(t, tasks, 2)

	var prodTask, consTask *task.Task
	for _, tk := range tasks {
		if tk.Cluster.ID() == prod.ID() {
			prodTask = tk
		} else {
			consTask = tk
		}
	}
	require.NotNil(t, prodTask)
	require.NotNil(t, consTask)
	return rt, prodTask, consTask
}

// backClusterPipe builds a producer cluster {r, n} with output n, and a
// second cluster {c} reading n, linked only through Cluster.Back — the
// side channel a loop's feed-out cluster uses to reach its feed-in
// twin's cluster, instead of the ordinary Prev/Next edge AddPrevEdge
// installs.
func backClusterPipe(t *testing.T) (*runtime.Runtime, *task.Task, *task.Task) {
	rt := runtime.New(nil)
	r := rt.Read(blockMeta(), "r.tif")
	n := rt.Neg(blockMeta(), r.ID())
	c := rt.Neg(blockMeta(), n.ID())

	g := rt.Clusters
	prod := g.NewCluster(n.Pattern())
	g.AddToBody(prod, r.ID())
	g.AddToBody(prod, n.ID())
	g.AddToOutputs(prod, n.ID())

	cons := g.NewCluster(c.Pattern())
	g.AddToInputs(cons, n.ID())
	g.AddToBody(cons, c.ID())
	g.AddToOutputs(cons, c.ID())

	prod.Back = append(prod.Back, cluster.Edge{Other: cons.ID(), Pattern: cons.Pattern})

	tasks := task.BuildAll(rt, []*cluster.Cluster{prod, cons})
	require.Len(t, tasks, 2)

	var prodTask, consTask *task.Task
	for _, tk := range tasks {
		if tk.Cluster.ID() == prod.ID() {
			prodTask = tk
		} else {
			consTask = tk
		}
	}
	require.NotNil(t, prodTask)
	require.NotNil(t, consTask)
	return rt, prodTask, consTask
}

// TestAskJobsFansOutAcrossBackEdgeLikeNextEdge proves that once
// Cluster.Back is populated, BuildAll's construction step 1 copies it
// into Task.Back (the part read by TestBuildAllLinksClusterBackForwIntoTaskEdges
// in the task package) and AskJobs's back-task loop drives NextJobs for
// it exactly like an ordinary Next edge would.
func TestAskJobsFansOutAcrossBackEdgeLikeNextEdge(t *testing.T) {
	rt, prodTask, consTask := backClusterPipe(t)
	require.Len(t, prodTask.Back, 1)
	assert.Equal(t, consTask, prodTask.Back[0])

	prodJobs := InitialJobs(rt, prodTask)
	require.Len(t, prodJobs, 4) // NumBlock (2,2)

	readyTotal := 0
	for rank, j := range prodJobs {
		predict.PostWork(j.Task, j.Iter, rank)
		ready := AskJobs(rt, j, rank)
		for _, rj := range ready {
			assert.Equal(t, consTask, rj.Task)
			readyTotal++
		}
	}
	assert.Equal(t, 4, readyTotal)
}

// TestNextJobsReachesAdjacentBlockNotScaledCells exercises BlockSpace
// through a non-identity (window) reach end to end: a producer block at
// block coordinate (1,1), reached by a radius-1 window, must ready the
// consumer's 9 blocks (0,0)..(2,2), itself and its 8 neighbors, not blocks blocksize
// cells away. Every other fixture in this file drives Neg, an
// identity-reach node, so a scaled-offset bug here would stay invisible
// without this test.
func TestNextJobsReachesAdjacentBlockNotScaledCells(t *testing.T) {
	meta := node.MetaData{NumDim: node.D2, BlockSize: node.BlockSize{4, 4}, DataSize: node.DataSize{12, 12}}
	rt := runtime.New(nil)
	r := rt.Read(meta, "r.tif")
	conv := rt.Convolution(meta, r.ID(), 1, nil)

	g := rt.Clusters
	prod := g.NewCluster(r.Pattern())
	g.AddToBody(prod, r.ID())
	g.AddToOutputs(prod, r.ID())

	cons := g.NewCluster(conv.Pattern())
	g.AddToInputs(cons, r.ID())
	g.AddToBody(cons, conv.ID())
	g.AddToOutputs(cons, conv.ID())

	g.AddPrevEdge(prod, cons, r.Pattern(), conv.Pattern())

	tasks := task.BuildAll(rt, []*cluster.Cluster{prod, cons})
	require.Len(t, tasks, 2)

	var prodTask, consTask *task.Task
	for _, tk := range tasks {
		if tk.Cluster.ID() == prod.ID() {
			prodTask = tk
		} else {
			consTask = tk
		}
	}
	require.NotNil(t, prodTask)
	require.NotNil(t, consTask)

	// Pin the producer's accumulated reach to a plain radius-1 window so
	// this test is only about BlockSpace's offset units, not about
	// construction's own (separately tested) reach composition.
	prodTask.AccuInReach[r.ID()] = reach.Window(2, 1)

	done := task.Job{Task: prodTask, Coord: task.Coord{1, 1}, Iter: 0}
	ready := NextJobs(rt, consTask, done, false)

	var got []task.Coord
	for _, j := range ready {
		assert.Equal(t, consTask, j.Task)
		got = append(got, j.Coord)
	}
	want := []task.Coord{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 1}, {1, 2},
		{2, 0}, {2, 1}, {2, 2},
	}
	assert.ElementsMatch(t, want, got)
}

// TestPrevDependenciesIsCoordInvariant checks that an identity-reach
// consumer's accuInputReach-derived dependency count is the same at every
// coordinate (wider reaches count only in-range offsets, so border
// coordinates may differ).
func TestPrevDependenciesIsCoordInvariant(t *testing.T) {
	rt, _, consTask := twoClusterPipe(t)

	got00 := PrevDependencies(rt, consTask, task.Coord{0, 0})
	got11 := PrevDependencies(rt, consTask, task.Coord{1, 1})
	assert.Equal(t, got00, got11)
}

// TestElementwisePipeNotifiesExactlyOneConsumerJobPerProducerJob drives
// every initial producer job through AskJobs and checks that each one
// notifies exactly its same-coordinate consumer job ready (an identity
// reach means no cross-block fan-out), and that every consumer job
// becomes ready exactly once overall (invariant 7's operational form).
func TestElementwisePipeNotifiesExactlyOneConsumerJobPerProducerJob(t *testing.T) {
	rt, prodTask, consTask := twoClusterPipe(t)

	prodJobs := InitialJobs(rt, prodTask)
	require.Len(t, prodJobs, 4) // NumBlock (2,2)

	readyTotal := 0
	for rank, j := range prodJobs {
		predict.PostWork(j.Task, j.Iter, rank)
		ready := AskJobs(rt, j, rank)
		for _, rj := range ready {
			assert.Equal(t, consTask, rj.Task)
			readyTotal++
		}
	}
	assert.Equal(t, 4, readyTotal)

	consJobs := InitialJobs(rt, consTask)
	assert.Equal(t, len(consJobs), readyTotal)
}

// TestConstructionPrevJobsCountIsDistinctFromPerCoordDependencies checks
// that construction step 2's coarse aggregate (full predecessor block
// count) is not conflated with the job engine's finer per-coordinate
// prevDependencies formula that actually seeds dep_hash.
func TestConstructionPrevJobsCountIsDistinctFromPerCoordDependencies(t *testing.T) {
	rt, _, consTask := twoClusterPipe(t)
	perCoord := PrevDependencies(rt, consTask, task.Coord{0, 0})
	assert.Equal(t, 1, perCoord)
	assert.Equal(t, 4, consTask.PrevJobsCount)
}
