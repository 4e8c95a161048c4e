// Package runtime is the explicit context threaded through the Fusioner,
// the Task factory, and the Job engine: it owns every Node and Cluster,
// interns nodes by structural identity (CSE), and carries the logger,
// clock counters, and configuration explicitly rather than hiding them
// behind a process-wide singleton.
package runtime

import (
	"fmt"
	"log/slog"

	"github.com/tilefuse/maprt/cluster"
	"github.com/tilefuse/maprt/node"
)

// cseKey is the generic CSE lookup key: a node's Kind plus its
// subkind-specific, comparable Key value. Every *Key struct defined in
// package node is itself comparable (only int/string/float64 fields), so
// it can be boxed into an interface{} and used as a map key directly.
type cseKey struct {
	kind node.Kind
	key  interface{}
}

// Runtime is the arena that exclusively owns every Node and Cluster.
// Edges elsewhere in the module are ids into this arena, never pointers.
type Runtime struct {
	nodes      map[node.ID]node.Node
	nextNodeID node.ID
	cse        map[cseKey]node.ID

	Clusters *cluster.Graph
	Logger   *slog.Logger
	Clock    *Clock
	Config   Config
}

// New returns a Runtime with an empty arena, default configuration, and a
// slog.Logger writing to the given handler (nil selects slog.Default()).
func New(logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		nodes:    make(map[node.ID]node.Node),
		cse:      make(map[cseKey]node.ID),
		Clusters: cluster.New(),
		Logger:   logger,
		Clock:    NewClock(),
		Config:   DefaultConfig(),
	}
}

// Node returns the node for id, panicking via Invariant if it is unknown
// — looking up a dangling id is always a structural bug, not an expected
// failure mode.
func (rt *Runtime) Node(id node.ID) node.Node {
	n, ok := rt.nodes[id]
	if !ok {
		Invariant("runtime: unknown node id %d", id)
	}
	return n
}

// TryNode is the non-panicking form of Node, used by callers (e.g. CSE
// lookups) for which a miss is an expected outcome.
func (rt *Runtime) TryNode(id node.ID) (node.Node, bool) {
	n, ok := rt.nodes[id]
	return n, ok
}

// Nodes returns every node currently live in the arena, in creation
// order.
func (rt *Runtime) Nodes() []node.Node {
	out := make([]node.Node, 0, len(rt.nodes))
	for id := node.ID(1); id <= rt.nextNodeID; id++ {
		if n, ok := rt.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// allocID reserves the next node identity.
func (rt *Runtime) allocID() node.ID {
	rt.nextNodeID++
	return rt.nextNodeID
}

// intern is the generic CSE entry point every Factory method below funnels
// through: if a node with this (kind, key) already exists, return it;
// otherwise allocate an id, build the node, register it, and link its
// predecessors' successor lists symmetrically.
func (rt *Runtime) intern(kind node.Kind, key interface{}, prev []node.ID, build func(id node.ID) node.Node) node.Node {
	k := cseKey{kind: kind, key: key}
	if existing, ok := rt.cse[k]; ok {
		return rt.nodes[existing]
	}
	id := rt.allocID()
	n := build(id)
	rt.nodes[id] = n
	rt.cse[k] = id
	for _, p := range prev {
		rt.Node(p).AddNext(id)
	}
	return n
}

// Invariant reports a structural/assertion-level failure: it wraps
// fmt.Errorf for a readable message and panics, since Go has no
// compile-time assert and these conditions are never meant to be
// recovered from at the Fusioner/Task-construction boundary.
func Invariant(format string, args ...interface{}) {
	panic(fmt.Errorf("invariant violation: %w", fmt.Errorf(format, args...)))
}
