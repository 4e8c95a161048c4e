package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
)

func TestAddPrevEdgeRejectsSelfEdge(t *testing.T) {
	g := New()
	c := g.NewCluster(pattern.LOCAL)
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic on self-edge")
	}()
	g.AddPrevEdge(c, c, pattern.LOCAL, pattern.LOCAL)
}

func TestAddPrevEdgeIsSymmetric(t *testing.T) {
	g := New()
	top := g.NewCluster(pattern.LOCAL)
	bot := g.NewCluster(pattern.FOCAL)
	g.AddPrevEdge(top, bot, pattern.LOCAL, pattern.FOCAL)

	require.Len(t, bot.Prev, 1)
	require.Len(t, top.Next, 1)
	assert.Equal(t, top.ID(), bot.Prev[0].Other)
	assert.Equal(t, bot.ID(), top.Next[0].Other)
}

func TestIsPrevTransitiveClosure(t *testing.T) {
	g := New()
	a := g.NewCluster(pattern.LOCAL)
	b := g.NewCluster(pattern.LOCAL)
	c := g.NewCluster(pattern.LOCAL)
	g.AddPrevEdge(a, b, pattern.LOCAL, pattern.LOCAL)
	g.AddPrevEdge(b, c, pattern.LOCAL, pattern.LOCAL)

	assert.True(t, g.IsPrev(a.ID(), c.ID()))
	assert.False(t, g.IsPrev(c.ID(), a.ID()))
	assert.False(t, g.IsPrev(a.ID(), a.ID()))
}

func TestClustersOfTracksMembership(t *testing.T) {
	g := New()
	c := g.NewCluster(pattern.LOCAL)
	g.AddToBody(c, node.ID(1))
	assert.Equal(t, []ID{c.ID()}, g.ClustersOf(node.ID(1)))

	g.RemoveFromBody(c, node.ID(1))
	assert.Empty(t, g.ClustersOf(node.ID(1)))
}

func TestEmptyReflectsAllThreeLists(t *testing.T) {
	g := New()
	c := g.NewCluster(pattern.LOCAL)
	assert.True(t, c.Empty())
	g.AddToOutputs(c, node.ID(1))
	assert.False(t, c.Empty())
}

func TestRenumberAssignsSequentialIDsInGivenOrder(t *testing.T) {
	g := New()
	a := g.NewCluster(pattern.LOCAL)
	b := g.NewCluster(pattern.FOCAL)
	g.Renumber([]ID{b.ID(), a.ID()})

	got := g.Clusters()
	require.Len(t, got, 2)
	assert.Equal(t, ID(1), got[0].ID())
	assert.Equal(t, ID(2), got[1].ID())
}
