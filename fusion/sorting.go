package fusion

import (
	"sort"

	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
)

// sorting is Phase 5: sort each cluster's three node lists by node id,
// topologically sort the cluster list with a last-node-id tiebreak, and
// renumber cluster ids to match that order.
func sorting(g *cluster.Graph) {
	for _, c := range g.Clusters() {
		sortNodeIDs(c.NodeList)
		sortNodeIDs(c.InList)
		sortNodeIDs(c.OutList)
	}

	clusters := g.Clusters()
	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if g.IsPrev(a.ID(), b.ID()) {
			return true
		}
		if g.IsPrev(b.ID(), a.ID()) {
			return false
		}
		return a.LastNodeID() < b.LastNodeID()
	})

	ids := make([]cluster.ID, len(clusters))
	for i, c := range clusters {
		ids[i] = c.ID()
	}
	g.Renumber(ids)
}

func sortNodeIDs(ids []node.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
