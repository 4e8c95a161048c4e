package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/fusion"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/runtime"
)

func scalarMeta() node.MetaData {
	return node.MetaData{NumDim: node.D0}
}

func blockMeta2D() node.MetaData {
	return node.MetaData{NumDim: node.D2, BlockSize: node.BlockSize{4, 4}, DataSize: node.DataSize{8, 8}}
}

// TestFactoryDispatchesOnRepresentativeDimensionality checks the D0
// branch of Factory: a cluster whose only output is a scalar node gets
// KindScalar, not the generic fallback.
func TestFactoryDispatchesOnRepresentativeDimensionality(t *testing.T) {
	rt := runtime.New(nil)
	c := rt.Constant(scalarMeta(), node.VariantType{F: 1.0})

	clusters := fusion.Run(rt, []node.ID{c.ID()})
	require.Len(t, clusters, 1)

	tk := Factory(rt, clusters[0])
	require.NotNil(t, tk)
	assert.Equal(t, KindScalar, tk.Kind)
}

// TestFactoryChecksD0BeforeTail covers a cluster that carries pattern.TAIL
// but whose representative output is a scalar: Factory must dispatch it
// to KindScalar, not KindTail, since D0 is checked first.
func TestFactoryChecksD0BeforeTail(t *testing.T) {
	rt := runtime.New(nil)
	c := rt.Constant(scalarMeta(), node.VariantType{F: 1.0})

	g := rt.Clusters
	cl := g.NewCluster(pattern.TAIL)
	g.AddToOutputs(cl, c.ID())

	tk := Factory(rt, cl)
	require.NotNil(t, tk)
	assert.Equal(t, KindScalar, tk.Kind)
}

// S5-shaped scenario: a D0 producer task feeding a block-shaped consumer
// task contributes exactly 1 to the consumer's PrevJobsCount, never its
// own NumBlock() product. Built directly against the cluster graph
// rather than through the Fusioner, since a D0 node would otherwise be
// forwarded into the consumer's own cluster as FREE before construction
// ever sees two separate tasks.
func TestD0ProducerContributesSingleDependency(t *testing.T) {
	rt := runtime.New(nil)
	prod := rt.Constant(scalarMeta(), node.VariantType{F: 5.0})
	cons := rt.Read(blockMeta2D(), "x.tif")

	g := rt.Clusters
	prodCluster := g.NewCluster(prod.Pattern())
	g.AddToOutputs(prodCluster, prod.ID())
	consCluster := g.NewCluster(cons.Pattern())
	g.AddToInputs(consCluster, prod.ID())
	g.AddToBody(consCluster, cons.ID())
	g.AddPrevEdge(prodCluster, consCluster, prod.Pattern(), cons.Pattern())

	tasks := BuildAll(rt, []*cluster.Cluster{prodCluster, consCluster})
	require.Len(t, tasks, 2)

	var consumer *Task
	for _, tk := range tasks {
		if tk.Cluster.ID() == consCluster.ID() {
			consumer = tk
		}
	}
	require.NotNil(t, consumer)
	assert.Equal(t, 1, consumer.PrevJobsCount)
}

// TestNumBlockComputesCeilDivision exercises construction step 3's input:
// NumBlock must ceiling-divide DataSize by BlockSize per dimension.
func TestNumBlockComputesCeilDivision(t *testing.T) {
	rt := runtime.New(nil)
	r := rt.Read(node.MetaData{NumDim: node.D2, BlockSize: node.BlockSize{4, 4}, DataSize: node.DataSize{9, 8}}, "r.tif")
	n := rt.Neg(r.Meta(), r.ID())
	w := rt.Write(r.Meta(), "out.tif", n.ID())

	clusters := fusion.Run(rt, []node.ID{r.ID(), n.ID(), w.ID()})
	require.Len(t, clusters, 1)

	tk := Factory(rt, clusters[0])
	blocks := tk.NumBlock(rt)
	require.Len(t, blocks, 2)
	assert.Equal(t, 3, blocks[0]) // ceil(9/4)
	assert.Equal(t, 2, blocks[1]) // ceil(8/4)
}

// TestBuildAllLinksClusterEdgesIntoTaskEdges checks construction step 1:
// a task's Prev/Next must mirror its cluster's Prev/Next edges one-to-one.
func TestBuildAllLinksClusterEdgesIntoTaskEdges(t *testing.T) {
	rt := runtime.New(nil)
	r := rt.Read(blockMeta2D(), "r.tif")
	neg := rt.Neg(blockMeta2D(), r.ID())
	conv := rt.Convolution(blockMeta2D(), neg.ID(), 1, nil)
	w := rt.Write(blockMeta2D(), "out.tif", conv.ID())

	order := []node.ID{r.ID(), neg.ID(), conv.ID(), w.ID()}
	clusters := fusion.Run(rt, order)
	tasks := BuildAll(rt, clusters)

	for _, tk := range tasks {
		assert.Equal(t, len(tk.Cluster.Prev), len(tk.Prev))
		assert.Equal(t, len(tk.Cluster.Next), len(tk.Next))
	}
}

// TestBuildAllLinksClusterBackForwIntoTaskEdges checks construction step
// 1's Back/Forw half: the loop feed-out/feed-in side channel, set
// directly on Cluster.Back/Forw since nothing in fusion ever populates
// it for this two-task, non-loop scenario. Built directly against the
// cluster graph, same as TestD0ProducerContributesSingleDependency.
func TestBuildAllLinksClusterBackForwIntoTaskEdges(t *testing.T) {
	rt := runtime.New(nil)
	out := rt.Read(blockMeta2D(), "r.tif")
	in := rt.Read(blockMeta2D(), "s.tif")

	g := rt.Clusters
	outCluster := g.NewCluster(out.Pattern())
	g.AddToBody(outCluster, out.ID())
	g.AddToOutputs(outCluster, out.ID())

	inCluster := g.NewCluster(in.Pattern())
	g.AddToBody(inCluster, in.ID())
	g.AddToOutputs(inCluster, in.ID())

	outCluster.Back = append(outCluster.Back, cluster.Edge{Other: inCluster.ID(), Pattern: inCluster.Pattern})
	inCluster.Forw = append(inCluster.Forw, cluster.Edge{Other: outCluster.ID(), Pattern: outCluster.Pattern})

	tasks := BuildAll(rt, []*cluster.Cluster{outCluster, inCluster})
	require.Len(t, tasks, 2)

	var outTask, inTask *Task
	for _, tk := range tasks {
		if tk.Cluster.ID() == outCluster.ID() {
			outTask = tk
		} else {
			inTask = tk
		}
	}
	require.NotNil(t, outTask)
	require.NotNil(t, inTask)

	require.Len(t, outTask.Back, 1)
	assert.Equal(t, inTask, outTask.Back[0])
	require.Len(t, inTask.Forw, 1)
	assert.Equal(t, outTask, inTask.Forw[0])
}

// TestAllocateForwardListSizedToNumWorkers checks construction step 7.
func TestAllocateForwardListSizedToNumWorkers(t *testing.T) {
	rt := runtime.New(nil)
	rt.Config.NumWorkers = 4
	r := rt.Read(blockMeta2D(), "r.tif")
	n := rt.Neg(blockMeta2D(), r.ID())
	w := rt.Write(blockMeta2D(), "out.tif", n.ID())

	clusters := fusion.Run(rt, []node.ID{r.ID(), n.ID(), w.ID()})
	tasks := BuildAll(rt, clusters)

	for _, tk := range tasks {
		assert.Len(t, tk.ForwardList, 4)
	}
}
