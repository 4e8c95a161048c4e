package fusion

import (
	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/runtime"
)

// processBU is Phase 2: walk the node list in reverse, recursively
// pipe-fusing each cluster's predecessors upward, memoized by cluster id
// so no cluster is revisited once resolved.
func processBU(rt *runtime.Runtime, g *cluster.Graph, nodeOrder []node.ID) {
	visited := make(map[cluster.ID]bool)
	for i := len(nodeOrder) - 1; i >= 0; i-- {
		for _, cid := range g.ClustersOf(nodeOrder[i]) {
			if c := g.Get(cid); c != nil {
				bottomUp(rt, g, visited, c)
			}
		}
	}
}

func bottomUp(rt *runtime.Runtime, g *cluster.Graph, visited map[cluster.ID]bool, self *cluster.Cluster) {
	if visited[self.ID()] {
		return
	}
	visited[self.ID()] = true

	for {
		top := findBottomUpCandidate(rt, g, visited, self)
		if top == nil {
			break
		}
		mergeInto(g, self, top)
	}

	for _, e := range append([]cluster.Edge(nil), self.Prev...) {
		if top := g.Get(e.Other); top != nil {
			bottomUp(rt, g, visited, top)
		}
	}
}

func findBottomUpCandidate(rt *runtime.Runtime, g *cluster.Graph, visited map[cluster.ID]bool, self *cluster.Cluster) *cluster.Cluster {
	for _, e := range self.Prev {
		top := g.Get(e.Other)
		if top == nil {
			continue
		}
		if dimGuardBlocks(rt, self, top) {
			continue
		}
		if wouldCycle(g, top, self) {
			continue
		}
		botToTop := nextPatternTo(top, self.ID())
		topToBot := e.Pattern
		if !pattern.CanPipeFuse(botToTop, topToBot) {
			continue
		}
		delete(visited, top.ID())
		return top
	}
	return nil
}

// wouldCycle rejects fusing top into bot when top has a successor other
// than bot that transitively reaches bot — absorbing top would otherwise
// create a cycle through that successor.
func wouldCycle(g *cluster.Graph, top, bot *cluster.Cluster) bool {
	for _, e := range top.Next {
		if e.Other == bot.ID() {
			continue
		}
		if g.IsPrev(e.Other, bot.ID()) {
			return true
		}
	}
	return false
}
