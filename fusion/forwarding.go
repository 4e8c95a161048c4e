package fusion

import (
	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/runtime"
)

// forwarding is Phase 3: replicate every node matching pred into every
// successor cluster that does not already contain it, drop the node from
// its original cluster once every successor lies outside it, prune edges
// no longer justified by a surviving connection, and delete clusters left
// empty. pred is kept general even though this phase only ever calls it
// with pattern == FREE.
func forwarding(rt *runtime.Runtime, g *cluster.Graph, pred func(node.Node) bool) {
	for _, src := range g.Clusters() {
		for _, nid := range append([]node.ID(nil), src.NodeList...) {
			n := rt.Node(nid)
			if !pred(n) {
				continue
			}
			replicateIntoSuccessors(g, src, n, nid)
			if allSuccessorsOutside(g, src, n) && len(n.Next()) > 0 {
				g.RemoveFromBody(src, nid)
			}
		}
	}
	recomputeForwardedEdges(rt, g)
	for _, c := range g.Clusters() {
		if c.Empty() {
			dropCluster(g, c)
		}
	}
}

func replicateIntoSuccessors(g *cluster.Graph, src *cluster.Cluster, n node.Node, nid node.ID) {
	targets := make(map[cluster.ID]bool)
	for _, succ := range n.Next() {
		for _, cid := range g.ClustersOf(succ) {
			if cid != src.ID() {
				targets[cid] = true
			}
		}
	}
	for cid := range targets {
		target := g.Get(cid)
		if target == nil || target.HasNode(nid) {
			continue
		}
		g.AddToBody(target, nid)
		target.Pattern |= n.Pattern()
	}
}

func allSuccessorsOutside(g *cluster.Graph, src *cluster.Cluster, n node.Node) bool {
	for _, succ := range n.Next() {
		for _, cid := range g.ClustersOf(succ) {
			if cid == src.ID() {
				return false
			}
		}
	}
	return true
}

// recomputeForwardedEdges drops a src->target cluster edge once no
// remaining non-FREE node of src still feeds a node of target.
func recomputeForwardedEdges(rt *runtime.Runtime, g *cluster.Graph) {
	for _, src := range g.Clusters() {
		for _, e := range append([]cluster.Edge(nil), src.Next...) {
			target := g.Get(e.Other)
			if target == nil {
				continue
			}
			if !edgeStillJustified(rt, src, target) {
				g.RemovePrevEdge(src, target)
			}
		}
	}
}

func edgeStillJustified(rt *runtime.Runtime, src, target *cluster.Cluster) bool {
	for _, nid := range src.NodeList {
		n := rt.Node(nid)
		if n.Pattern() == pattern.FREE {
			continue
		}
		for _, succ := range n.Next() {
			if target.HasNode(succ) {
				return true
			}
		}
	}
	return false
}

func dropCluster(g *cluster.Graph, c *cluster.Cluster) {
	for _, e := range append([]cluster.Edge(nil), c.Prev...) {
		if top := g.Get(e.Other); top != nil {
			g.RemovePrevEdge(top, c)
		}
	}
	for _, e := range append([]cluster.Edge(nil), c.Next...) {
		if bot := g.Get(e.Other); bot != nil {
			g.RemovePrevEdge(c, bot)
		}
	}
	g.Delete(c.ID())
}
