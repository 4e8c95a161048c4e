// Package fusion implements the Fusioner: the graph-rewriting pass that
// partitions a DAG's nodes into fused clusters under the pattern algebra,
// ported phase-for-phase from the original visitor's fuse() driver.
package fusion

import (
	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/runtime"
)

// Run partitions nodes (given in creation order) into clusters inside
// rt.Clusters and returns the final, topologically-sorted cluster list
// with ids reassigned after the sort. rt.Config.CodeFusion gates phases
// 1-2 only; forwarding, linking, and sorting always run.
func Run(rt *runtime.Runtime, nodeOrder []node.ID) []*cluster.Cluster {
	g := rt.Clusters

	rt.Logger.Info("fusion: phase 1 gentle fusion", "nodes", len(nodeOrder), "code_fusion", rt.Config.CodeFusion)
	for _, nid := range nodeOrder {
		c := process(rt, g, nid)
		if rt.Config.CodeFusion {
			pipeGently(rt, g, c)
		}
	}
	if rt.Config.CodeFusion {
		flatGently(rt, g, nodeOrder)

		rt.Logger.Info("fusion: phase 2 bottom-up pipe fusion")
		processBU(rt, g, nodeOrder)
	}

	rt.Logger.Info("fusion: phase 3 free-node forwarding")
	forwarding(rt, g, func(n node.Node) bool { return n.Pattern() == pattern.FREE })

	rt.Logger.Info("fusion: phase 4 linking")
	linking(rt, g, nodeOrder)

	rt.Logger.Info("fusion: phase 5 sorting")
	sorting(g)

	clusters := g.Clusters()
	rt.Logger.Info("fusion: done", "clusters", len(clusters))
	return clusters
}

// process is Phase 1 step 1: a singleton cluster for nid, prev-edged to
// every predecessor's current cluster.
func process(rt *runtime.Runtime, g *cluster.Graph, nid node.ID) *cluster.Cluster {
	n := rt.Node(nid)
	c := g.NewCluster(n.Pattern())
	g.AddToBody(c, nid)
	for _, p := range n.Prev() {
		owners := g.ClustersOf(p)
		if len(owners) == 0 {
			continue
		}
		top := g.Get(owners[0])
		g.AddPrevEdge(top, c, c.Pattern, top.Pattern)
	}
	return c
}

// pipeGently is Phase 1 step 2: repeatedly absorb an eligible prev cluster
// upward into c, restarting the scan after every fusion.
func pipeGently(rt *runtime.Runtime, g *cluster.Graph, c *cluster.Cluster) {
	for {
		top, botToTop, topToBot := findGentleCandidate(rt, g, c)
		if top == nil {
			return
		}
		if !pattern.CanPipeFuse(botToTop, topToBot) {
			return
		}
		mergeInto(g, c, top)
	}
}

func findGentleCandidate(rt *runtime.Runtime, g *cluster.Graph, c *cluster.Cluster) (top *cluster.Cluster, botToTop, topToBot pattern.Pattern) {
	for _, e := range c.Prev {
		cand := g.Get(e.Other)
		if cand == nil {
			continue
		}
		if !pattern.LocalOrFree(cand.Pattern) || !pattern.LocalOrFree(c.Pattern) {
			continue
		}
		if dimGuardBlocks(rt, c, cand) {
			continue
		}
		if len(cand.Next) != 1 {
			continue
		}
		return cand, nextPatternTo(cand, c.ID()), e.Pattern
	}
	return nil, 0, 0
}

// flatGently is Phase 1 step 3: a second pass over all nodes, flat-fusing
// any two distinct FREE/LOCAL sibling clusters sharing a node as input.
// Candidate membership is re-read every iteration (a worklist) rather than
// cached, so a stale list length can never cause a skipped or out-of-range
// fusion.
func flatGently(rt *runtime.Runtime, g *cluster.Graph, nodeOrder []node.ID) {
	for _, nid := range nodeOrder {
		n := rt.Node(nid)
		for {
			a, b := findFlatSiblingPair(rt, g, n)
			if a == nil {
				break
			}
			mergeInto(g, a, b)
		}
	}
}

func findFlatSiblingPair(rt *runtime.Runtime, g *cluster.Graph, n node.Node) (*cluster.Cluster, *cluster.Cluster) {
	ids := siblingClustersOf(g, n)
	for i := 0; i < len(ids); i++ {
		a := g.Get(ids[i])
		if a == nil {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := g.Get(ids[j])
			if b == nil || b.ID() == a.ID() {
				continue
			}
			if !pattern.LocalOrFree(a.Pattern) || !pattern.LocalOrFree(b.Pattern) {
				continue
			}
			if !pattern.CanFlatFuse(a.Pattern, b.Pattern) {
				continue
			}
			return a, b
		}
	}
	return nil, nil
}

func siblingClustersOf(g *cluster.Graph, n node.Node) []cluster.ID {
	seen := make(map[cluster.ID]bool)
	for _, succ := range n.Next() {
		for _, cid := range g.ClustersOf(succ) {
			seen[cid] = true
		}
	}
	out := make([]cluster.ID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// dimGuardBlocks is the absorption guard: a multi-dimensional consumer
// may not absorb a D0 producer unless that producer is FREE.
func dimGuardBlocks(rt *runtime.Runtime, self, prev *cluster.Cluster) bool {
	selfMultiDim := !clusterIsD0(rt, self)
	prevIsD0 := clusterIsD0(rt, prev)
	return selfMultiDim && prevIsD0 && prev.Pattern != pattern.FREE
}

func clusterIsD0(rt *runtime.Runtime, c *cluster.Cluster) bool {
	for _, nid := range c.NodeList {
		if rt.Node(nid).Meta().NumDim != node.D0 {
			return false
		}
	}
	for _, nid := range c.InList {
		if rt.Node(nid).Meta().NumDim != node.D0 {
			return false
		}
	}
	return true
}
