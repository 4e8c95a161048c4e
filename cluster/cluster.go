// Package cluster implements the cluster graph the Fusioner builds and
// rewrites: groups of nodes destined for a single fused kernel, linked by
// pattern-annotated prev/next edges.
package cluster

import (
	"fmt"

	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/pattern"
)

// ID is a cluster identity, assigned by a Graph in creation order. Final
// ids are reassigned after topological sort.
type ID int

// Edge is a pattern-annotated reference to another cluster: Pattern
// describes how the edge's owner sees Other (the "how bot sees top" /
// "how top sees bot" framing).
type Edge struct {
	Other   ID
	Pattern pattern.Pattern
}

// Cluster is a connected subgraph of nodes lowered to a single fused
// kernel: a pattern (union of member patterns), three node lists, and
// edges to neighboring clusters.
type Cluster struct {
	id      ID
	Pattern pattern.Pattern

	NodeList []node.ID // body
	InList   []node.ID // inputs from outside
	OutList  []node.ID // outputs consumed outside

	Prev []Edge
	Next []Edge

	// Back/Forw carry feedback-loop edges: a loop's feed-out cluster
	// points Forw at its feed-in twin's cluster, and vice versa via Back.
	Back []Edge
	Forw []Edge
}

// ID returns the cluster's current identity.
func (c *Cluster) ID() ID { return c.id }

// HasNode reports whether n belongs to this cluster's body, input, or
// output list.
func (c *Cluster) HasNode(n node.ID) bool {
	return containsNode(c.NodeList, n) || containsNode(c.InList, n) || containsNode(c.OutList, n)
}

// Empty reports whether every node list is empty — the signal Phase 3
// (free-node forwarding) uses to drop a cluster that lost all its nodes.
func (c *Cluster) Empty() bool {
	return len(c.NodeList) == 0 && len(c.InList) == 0 && len(c.OutList) == 0
}

func containsNode(list []node.ID, n node.ID) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

func removeNode(list []node.ID, n node.ID) []node.ID {
	out := list[:0:0]
	for _, x := range list {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}

func containsEdge(edges []Edge, other ID) (int, bool) {
	for i, e := range edges {
		if e.Other == other {
			return i, true
		}
	}
	return -1, false
}

// addEdge inserts or merges an edge to other, unioning its pattern
// annotation with any existing edge to the same cluster.
func addEdge(edges []Edge, other ID, pat pattern.Pattern) []Edge {
	if i, ok := containsEdge(edges, other); ok {
		edges[i].Pattern = pattern.Add(edges[i].Pattern, pat)
		return edges
	}
	return append(edges, Edge{Other: other, Pattern: pat})
}

func removeEdge(edges []Edge, other ID) []Edge {
	out := edges[:0:0]
	for _, e := range edges {
		if e.Other != other {
			out = append(out, e)
		}
	}
	return out
}

// Graph is the arena that owns every Cluster, the Runtime-level
// exclusive owner. Edges between clusters are ids, not pointers, so
// deleting a cluster is clearing a map slot.
type Graph struct {
	clusters map[ID]*Cluster
	order    []ID // creation order, walked by phases that must be deterministic
	nextID   ID

	// ownerOf indexes which clusters currently contain a given node, the
	// "clusters-of" index free-node replication must keep current.
	ownerOf map[node.ID]map[ID]bool
}

// New returns an empty cluster graph.
func New() *Graph {
	return &Graph{
		clusters: make(map[ID]*Cluster),
		ownerOf:  make(map[node.ID]map[ID]bool),
	}
}

// NewCluster allocates a singleton-or-empty cluster with the given
// pattern and returns it.
func (g *Graph) NewCluster(pat pattern.Pattern) *Cluster {
	g.nextID++
	c := &Cluster{id: g.nextID, Pattern: pat}
	g.clusters[c.id] = c
	g.order = append(g.order, c.id)
	return c
}

// Get returns the cluster for id, or nil if it has been deleted.
func (g *Graph) Get(id ID) *Cluster {
	return g.clusters[id]
}

// Clusters returns every live cluster in creation order.
func (g *Graph) Clusters() []*Cluster {
	out := make([]*Cluster, 0, len(g.order))
	for _, id := range g.order {
		if c, ok := g.clusters[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Delete removes a cluster from the arena and drops it from the ownership
// index of every node it still lists. The caller must have already
// relinked or dropped every edge referencing it.
func (g *Graph) Delete(id ID) {
	if c, ok := g.clusters[id]; ok {
		for _, list := range [][]node.ID{c.NodeList, c.InList, c.OutList} {
			for _, n := range list {
				g.forgetOwner(id, n)
			}
		}
	}
	delete(g.clusters, id)
}

// Reorder replaces the graph's creation-order walk with ids, used by
// Phase 5 sorting to install the topologically-sorted cluster order (and,
// together with Renumber, the final assigned ids).
func (g *Graph) Reorder(ids []ID) {
	g.order = append([]ID(nil), ids...)
}

// Renumber reassigns cluster ids to 1..len(ids) following the order
// given: cluster ids are assigned after sort, not at creation.
func (g *Graph) Renumber(ids []ID) {
	next := make(map[ID]*Cluster, len(ids))
	newOrder := make([]ID, len(ids))
	remap := make(map[ID]ID, len(ids))
	for i, old := range ids {
		c, ok := g.clusters[old]
		if !ok {
			panic(fmt.Sprintf("cluster: renumber references unknown cluster %d", old))
		}
		c.id = ID(i + 1)
		remap[old] = c.id
		next[c.id] = c
		newOrder[i] = c.id
	}
	for n, set := range g.ownerOf {
		moved := make(map[ID]bool, len(set))
		for old := range set {
			if id, ok := remap[old]; ok {
				moved[id] = true
			}
		}
		g.ownerOf[n] = moved
	}
	g.clusters = next
	g.order = newOrder
	g.nextID = ID(len(ids))
}

// AddToBody appends n to c's node_list and records the ownership index.
func (g *Graph) AddToBody(c *Cluster, n node.ID) {
	if containsNode(c.NodeList, n) {
		return
	}
	c.NodeList = append(c.NodeList, n)
	g.recordOwner(c.id, n)
}

// AddToInputs appends n to c's in_list and records the ownership index.
func (g *Graph) AddToInputs(c *Cluster, n node.ID) {
	if containsNode(c.InList, n) {
		return
	}
	c.InList = append(c.InList, n)
	g.recordOwner(c.id, n)
}

// AddToOutputs appends n to c's out_list if not already present.
func (g *Graph) AddToOutputs(c *Cluster, n node.ID) {
	if containsNode(c.OutList, n) {
		return
	}
	c.OutList = append(c.OutList, n)
	g.recordOwner(c.id, n)
}

// MoveBodyToInputs moves n from c's node_list to c's in_list, used by
// Phase 4's D0-FREE reuse-as-scalar-argument promotion.
func (g *Graph) MoveBodyToInputs(c *Cluster, n node.ID) {
	c.NodeList = removeNode(c.NodeList, n)
	g.AddToInputs(c, n)
}

func (g *Graph) recordOwner(c ID, n node.ID) {
	set, ok := g.ownerOf[n]
	if !ok {
		set = make(map[ID]bool)
		g.ownerOf[n] = set
	}
	set[c] = true
}

func (g *Graph) forgetOwner(c ID, n node.ID) {
	if set, ok := g.ownerOf[n]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(g.ownerOf, n)
		}
	}
}

// ClustersOf returns every cluster id that currently contains n, in any
// of its three node lists.
func (g *Graph) ClustersOf(n node.ID) []ID {
	out := make([]ID, 0, len(g.ownerOf[n]))
	for id := range g.ownerOf[n] {
		out = append(out, id)
	}
	return out
}

// RemoveFromBody removes n from c's node_list and updates the ownership
// index accordingly.
func (g *Graph) RemoveFromBody(c *Cluster, n node.ID) {
	c.NodeList = removeNode(c.NodeList, n)
	g.forgetOwner(c.id, n)
}

// AddPrevEdge links top as a predecessor of bot: bot.Prev gets an edge
// annotated with how bot sees top (topToBot), top.Next gets an edge
// annotated with how top sees bot (botToTop).
func (g *Graph) AddPrevEdge(top, bot *Cluster, botToTop, topToBot pattern.Pattern) {
	if top.id == bot.id {
		panic(fmt.Sprintf("cluster: self-edge on cluster %d", top.id))
	}
	bot.Prev = addEdge(bot.Prev, top.id, topToBot)
	top.Next = addEdge(top.Next, bot.id, botToTop)
}

// AddFeedbackEdge links a loop's feed-out cluster to its feed-in twin's
// cluster: feedOut.Forw gets an edge to feedIn, feedIn.Back gets an edge
// to feedOut. A no-op if both twins ended up in the same cluster.
func (g *Graph) AddFeedbackEdge(feedOut, feedIn *Cluster) {
	if feedOut.id == feedIn.id {
		return
	}
	feedOut.Forw = addEdge(feedOut.Forw, feedIn.id, feedIn.Pattern)
	feedIn.Back = addEdge(feedIn.Back, feedOut.id, feedOut.Pattern)
}

// RemovePrevEdge unlinks top and bot's prev/next edge pair entirely.
func (g *Graph) RemovePrevEdge(top, bot *Cluster) {
	bot.Prev = removeEdge(bot.Prev, top.id)
	top.Next = removeEdge(top.Next, bot.id)
}

// IsPrev reports whether from is a (possibly transitive) predecessor of
// to, walking the Next edges forward: the acyclicity check used by the
// Fusioner's cycle guards.
func (g *Graph) IsPrev(from, to ID) bool {
	if from == to {
		return false
	}
	visited := map[ID]bool{from: true}
	stack := []ID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := g.clusters[cur]
		if c == nil {
			continue
		}
		for _, e := range c.Next {
			if e.Other == to {
				return true
			}
			if !visited[e.Other] {
				visited[e.Other] = true
				stack = append(stack, e.Other)
			}
		}
	}
	return false
}

// LastNodeID returns the maximum node id in c's node_list, used as the
// topological-sort tiebreak. Returns 0 for an empty body.
func (c *Cluster) LastNodeID() node.ID {
	var max node.ID
	for _, n := range c.NodeList {
		if n > max {
			max = n
		}
	}
	return max
}
