package runtime

import "github.com/tilefuse/maprt/node"

// Constant interns a Constant node: two calls with the same dimensionality
// and value return the identical handle.
func (rt *Runtime) Constant(meta node.MetaData, val node.VariantType) *node.Constant {
	key := node.ConstantKey{NumDim: meta.NumDim, Value: val}
	n := rt.intern(node.KindConstant, key, nil, func(id node.ID) node.Node {
		return node.NewConstant(id, meta, val)
	})
	return n.(*node.Constant)
}

// Index interns an Index node along the given dimension.
func (rt *Runtime) Index(meta node.MetaData, dim node.NumDim) *node.Index {
	key := node.IndexKey{Dim: dim}
	n := rt.intern(node.KindIndex, key, nil, func(id node.ID) node.Node {
		return node.NewIndex(id, meta, dim)
	})
	return n.(*node.Index)
}

// Read interns a leaf read of an external raster handle.
func (rt *Runtime) Read(meta node.MetaData, handle string) *node.Read {
	key := node.ReadKey{Handle: handle}
	n := rt.intern(node.KindRead, key, nil, func(id node.ID) node.Node {
		return node.NewRead(id, meta, handle)
	})
	return n.(*node.Read)
}

// Write never participates in CSE: two writes to the same handle from
// different inputs are different nodes, so it is allocated directly.
func (rt *Runtime) Write(meta node.MetaData, handle string, in node.ID) *node.Write {
	id := rt.allocID()
	n := node.NewWrite(id, meta, handle, in)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

func (rt *Runtime) arith(kind node.Kind, meta node.MetaData, prev []node.ID, build func(id node.ID) *node.Arith) *node.Arith {
	id := rt.allocID()
	n := build(id)
	rt.nodes[id] = n
	for _, p := range prev {
		rt.Node(p).AddNext(id)
	}
	return n
}

func (rt *Runtime) Add(meta node.MetaData, a, b node.ID) *node.Arith {
	return rt.arith(node.KindAdd, meta, []node.ID{a, b}, func(id node.ID) *node.Arith { return node.NewAdd(id, meta, a, b) })
}
func (rt *Runtime) Sub(meta node.MetaData, a, b node.ID) *node.Arith {
	return rt.arith(node.KindSub, meta, []node.ID{a, b}, func(id node.ID) *node.Arith { return node.NewSub(id, meta, a, b) })
}
func (rt *Runtime) Mul(meta node.MetaData, a, b node.ID) *node.Arith {
	return rt.arith(node.KindMul, meta, []node.ID{a, b}, func(id node.ID) *node.Arith { return node.NewMul(id, meta, a, b) })
}
func (rt *Runtime) Div(meta node.MetaData, a, b node.ID) *node.Arith {
	return rt.arith(node.KindDiv, meta, []node.ID{a, b}, func(id node.ID) *node.Arith { return node.NewDiv(id, meta, a, b) })
}
func (rt *Runtime) Neg(meta node.MetaData, a node.ID) *node.Arith {
	return rt.arith(node.KindNeg, meta, []node.ID{a}, func(id node.ID) *node.Arith { return node.NewNeg(id, meta, a) })
}
func (rt *Runtime) Cos(meta node.MetaData, a node.ID) *node.Arith {
	return rt.arith(node.KindCos, meta, []node.ID{a}, func(id node.ID) *node.Arith { return node.NewCos(id, meta, a) })
}
func (rt *Runtime) Sin(meta node.MetaData, a node.ID) *node.Arith {
	return rt.arith(node.KindSin, meta, []node.ID{a}, func(id node.ID) *node.Arith { return node.NewSin(id, meta, a) })
}

// Neighbor allocates a fixed single-cell-offset read of in.
func (rt *Runtime) Neighbor(meta node.MetaData, in node.ID, offset []int) *node.Neighbor {
	id := rt.allocID()
	n := node.NewNeighbor(id, meta, in, offset)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

// Convolution allocates an N×N kernel read of in.
func (rt *Runtime) Convolution(meta node.MetaData, in node.ID, radius int, weights []float64) *node.Convolution {
	id := rt.allocID()
	n := node.NewConvolution(id, meta, in, radius, weights)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

// FocalFunc allocates a named-function window reducer over in.
func (rt *Runtime) FocalFunc(meta node.MetaData, in node.ID, radius int, fn string) *node.FocalFunc {
	id := rt.allocID()
	n := node.NewFocalFunc(id, meta, in, radius, fn)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

// FocalPercent allocates a percentile window reducer over in.
func (rt *Runtime) FocalPercent(meta node.MetaData, in node.ID, radius int, percentile float64) *node.FocalPercent {
	id := rt.allocID()
	n := node.NewFocalPercent(id, meta, in, radius, percentile)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

// FocalFlow allocates a flow-routing reducer over in.
func (rt *Runtime) FocalFlow(meta node.MetaData, in node.ID, radius int) *node.FocalFlow {
	id := rt.allocID()
	n := node.NewFocalFlow(id, meta, in, radius)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

// Summary allocates a ZONAL/STATS reduction over in, together with ids
// for its min/max/mean/std children; no nodes are built for those ids.
func (rt *Runtime) Summary(meta node.MetaData, in node.ID) *node.Summary {
	id := rt.allocID()
	minID := rt.allocID()
	maxID := rt.allocID()
	meanID := rt.allocID()
	stdID := rt.allocID()
	n := node.NewSummary(id, meta, in, minID, maxID, meanID, stdID)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

// LoopHead allocates the loop-entry gadget node wrapping in.
func (rt *Runtime) LoopHead(meta node.MetaData, in node.ID) *node.LoopHead {
	id := rt.allocID()
	n := node.NewLoopHead(id, meta, in)
	rt.nodes[id] = n
	rt.Node(in).AddNext(id)
	return n
}

// LoopCond allocates the loop-continuation predicate node, registered
// against every tail it governs.
func (rt *Runtime) LoopCond(meta node.MetaData, cond node.ID, tails []node.ID) *node.LoopCond {
	id := rt.allocID()
	n := node.NewLoopCond(id, meta, cond, tails)
	rt.nodes[id] = n
	rt.Node(cond).AddNext(id)
	return n
}

// LoopTail allocates a loop-carried variable's tail node. carried is the
// value flowing around the loop body; switchNode is the node selecting
// whether to continue. Per LoopTail's positional predecessor contract,
// switchNode must resolve through SwitchNode()==prev_list[1].
func (rt *Runtime) LoopTail(meta node.MetaData, carried, switchNode, loop node.ID) *node.LoopTail {
	id := rt.allocID()
	n := node.NewLoopTail(id, meta, carried, switchNode, loop)
	rt.nodes[id] = n
	rt.Node(carried).AddNext(id)
	rt.Node(switchNode).AddNext(id)
	return n
}

// Feedback allocates one half of a feed-in/feed-out twin pair carrying
// prev's value across the loop boundary. Most callers want FeedbackPair,
// which allocates and links both halves together; this lower-level form
// exists for building one side in isolation (e.g. in tests).
func (rt *Runtime) Feedback(meta node.MetaData, prev node.ID, loop node.ID, inOrOut bool) *node.Feedback {
	id := rt.allocID()
	n := node.NewFeedback(id, meta, prev, loop, inOrOut)
	rt.nodes[id] = n
	rt.Node(prev).AddNext(id)
	return n
}

// FeedbackPair allocates a loop's feed-in/feed-out twin pair and links
// them via node.LinkTwin immediately: feedIn carries prevIn's value into
// the loop from outside, feedOut carries prevOut's value (the loop
// body's updated carried value, typically a LoopTail) back out.
func (rt *Runtime) FeedbackPair(meta node.MetaData, prevIn, prevOut, loop node.ID) (feedIn, feedOut *node.Feedback) {
	feedIn = rt.Feedback(meta, prevIn, loop, true)
	feedOut = rt.Feedback(meta, prevOut, loop, false)
	node.LinkTwin(feedIn, feedOut)
	return feedIn, feedOut
}
