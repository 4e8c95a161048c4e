package fusion

import (
	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/runtime"
)

// linking is Phase 4: mark cross-cluster node edges as outputs/inputs,
// promote RADIAL/SPREAD body nodes to outputs of their own cluster (their
// intra-cluster self-dependency needs a block-key slot same as any
// cross-cluster output), move D0-FREE body nodes into in_list so they
// are passed as scalar kernel arguments instead of full blocks, and link
// feed-out/feed-in twin clusters via Back/Forw.
func linking(rt *runtime.Runtime, g *cluster.Graph, nodeOrder []node.ID) {
	for _, nid := range nodeOrder {
		n := rt.Node(nid)
		owners := g.ClustersOf(nid)

		for _, succ := range n.Next() {
			succOwners := g.ClustersOf(succ)
			for _, oid := range owners {
				for _, sid := range succOwners {
					if oid == sid {
						continue
					}
					if srcC, dstC := g.Get(oid), g.Get(sid); srcC != nil && dstC != nil {
						g.AddToOutputs(srcC, nid)
						g.AddToInputs(dstC, nid)
					}
				}
			}
		}

		if n.Pattern().Is(pattern.RADIAL) || n.Pattern().Is(pattern.SPREAD) {
			for _, oid := range owners {
				if c := g.Get(oid); c != nil {
					g.AddToOutputs(c, nid)
				}
			}
		}
	}

	for _, c := range g.Clusters() {
		for _, nid := range append([]node.ID(nil), c.NodeList...) {
			n := rt.Node(nid)
			if n.Meta().NumDim == node.D0 && n.Pattern() == pattern.FREE {
				g.MoveBodyToInputs(c, nid)
			}
		}
	}

	linkFeedbackTwins(rt, g, nodeOrder)
}

// linkFeedbackTwins links every feed-out node's owning cluster(s) to its
// feed-in twin's owning cluster(s) via Back/Forw. Twin is a side channel
// outside the ordinary Prev/Next graph, so nothing above this loop ever
// connects the two halves.
func linkFeedbackTwins(rt *runtime.Runtime, g *cluster.Graph, nodeOrder []node.ID) {
	for _, nid := range nodeOrder {
		fb, ok := rt.Node(nid).(*node.Feedback)
		if !ok || fb.InOrOut || fb.Twin == 0 {
			continue // only feed-out (InOrOut == false) drives the link, once per pair
		}
		for _, outOid := range g.ClustersOf(nid) {
			for _, inOid := range g.ClustersOf(fb.Twin) {
				feedOutC, feedInC := g.Get(outOid), g.Get(inOid)
				if feedOutC != nil && feedInC != nil {
					g.AddFeedbackEdge(feedOutC, feedInC)
				}
			}
		}
	}
}
