package node

import (
	"fmt"

	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/reach"
)

// VariantType is a deliberately minimal dynamically-typed scalar value
// carrier (used by Constant and by the prediction package's constant
// folding). Concrete values are stored as float64 or int64; the DataType
// tag says how to reinterpret them.
type VariantType struct {
	F float64
	I int64
}

// --- Constant --------------------------------------------------------------

// ConstantKey is the CSE structural identity of a Constant node: two
// constants with the same dimensionality and value are the same node.
type ConstantKey struct {
	NumDim NumDim
	Value  VariantType
}

type Constant struct {
	Base
	Value VariantType
}

func NewConstant(id ID, meta MetaData, val VariantType) *Constant {
	c := &Constant{Value: val}
	c.Base = newBase(id, KindConstant, meta, nil)
	return c
}

func (c *Constant) Pattern() pattern.Pattern  { return pattern.FREE }
func (c *Constant) InputReach() reach.Mask    { return reach.Identity(int(c.Meta().NumDim)) }
func (c *Constant) OutputReach() reach.Mask   { return reach.Identity(int(c.Meta().NumDim)) }
func (c *Constant) ClassSignature() byte      { return 'C' }
func (c *Constant) Signature() string {
	return fmt.Sprintf("Constant(%v)", c.Value)
}
func (c *Constant) Accept(v Visitor) { v.VisitConstant(c) }

// --- Index -------------------------------------------------------------

// IndexKey is the CSE structural identity of an Index node.
type IndexKey struct {
	Dim NumDim
}

type Index struct {
	Base
	Dim NumDim // which dimension this index raster counts along
}

func NewIndex(id ID, meta MetaData, dim NumDim) *Index {
	n := &Index{Dim: dim}
	n.Base = newBase(id, KindIndex, meta, nil)
	return n
}

func (n *Index) Pattern() pattern.Pattern { return pattern.FREE }
func (n *Index) InputReach() reach.Mask   { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Index) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Index) ClassSignature() byte     { return 'I' }
func (n *Index) Signature() string        { return fmt.Sprintf("Index(%d)", n.Dim) }
func (n *Index) Accept(v Visitor)         { v.VisitIndex(n) }

// --- Read / Write ------------------------------------------------------

// ReadKey is the CSE structural identity of a Read node: same handle
// (metadata is not part of the key).
type ReadKey struct {
	Handle string
}

type Read struct {
	Base
	Handle string // opaque reference to the external raster; I/O is out of scope
}

func NewRead(id ID, meta MetaData, handle string) *Read {
	n := &Read{Handle: handle}
	n.Base = newBase(id, KindRead, meta, nil)
	return n
}

func (n *Read) Pattern() pattern.Pattern { return pattern.INPUT }
func (n *Read) InputReach() reach.Mask   { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Read) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Read) ClassSignature() byte     { return 'R' }
func (n *Read) Signature() string        { return fmt.Sprintf("Read(%s)", n.Handle) }
func (n *Read) Accept(v Visitor)         { v.VisitRead(n) }

type Write struct {
	Base
	Handle string
}

func NewWrite(id ID, meta MetaData, handle string, in ID) *Write {
	n := &Write{Handle: handle}
	n.Base = newBase(id, KindWrite, meta, []ID{in})
	return n
}

func (n *Write) Pattern() pattern.Pattern { return pattern.LOCAL }
func (n *Write) InputReach() reach.Mask   { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Write) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Write) ClassSignature() byte     { return 'W' }
func (n *Write) Signature() string        { return fmt.Sprintf("Write(%s,%d)", n.Handle, n.prev[0]) }
func (n *Write) Accept(v Visitor)         { v.VisitWrite(n) }

// --- Arithmetic (LOCAL, elementwise) ------------------------------------

// Arith is the shared shape of every elementwise LOCAL node: unary
// (Neg/Cos/Sin) or binary (Add/Sub/Mul/Div), always cell-local.
type Arith struct {
	Base
}

func newArith(id ID, kind Kind, meta MetaData, prev []ID) *Arith {
	a := &Arith{}
	a.Base = newBase(id, kind, meta, prev)
	return a
}

func NewAdd(id ID, meta MetaData, a, b ID) *Arith { return newArith(id, KindAdd, meta, []ID{a, b}) }
func NewSub(id ID, meta MetaData, a, b ID) *Arith { return newArith(id, KindSub, meta, []ID{a, b}) }
func NewMul(id ID, meta MetaData, a, b ID) *Arith { return newArith(id, KindMul, meta, []ID{a, b}) }
func NewDiv(id ID, meta MetaData, a, b ID) *Arith { return newArith(id, KindDiv, meta, []ID{a, b}) }
func NewNeg(id ID, meta MetaData, a ID) *Arith    { return newArith(id, KindNeg, meta, []ID{a}) }
func NewCos(id ID, meta MetaData, a ID) *Arith    { return newArith(id, KindCos, meta, []ID{a}) }
func NewSin(id ID, meta MetaData, a ID) *Arith    { return newArith(id, KindSin, meta, []ID{a}) }

func (a *Arith) Pattern() pattern.Pattern { return pattern.LOCAL }
func (a *Arith) InputReach() reach.Mask   { return reach.Identity(int(a.Meta().NumDim)) }
func (a *Arith) OutputReach() reach.Mask  { return reach.Identity(int(a.Meta().NumDim)) }
func (a *Arith) ClassSignature() byte     { return 'A' }
func (a *Arith) Signature() string        { return fmt.Sprintf("%s(%v)", arithName(a.Kind()), a.prev) }

// CanForward reports whether this unary, value-preserving node is a
// forwarding candidate: its output can alias its input's storage instead
// of copying.
func (a *Arith) CanForward() bool {
	switch a.Kind() {
	case KindNeg, KindCos, KindSin:
		return len(a.prev) == 1
	default:
		return false
	}
}

func (a *Arith) Accept(v Visitor) { v.VisitArith(a) }

func arithName(k Kind) string {
	switch k {
	case KindAdd:
		return "Add"
	case KindSub:
		return "Sub"
	case KindMul:
		return "Mul"
	case KindDiv:
		return "Div"
	case KindNeg:
		return "Neg"
	case KindCos:
		return "Cos"
	case KindSin:
		return "Sin"
	default:
		return "Arith"
	}
}

// --- Neighbor (FOCAL, single fixed offset) ------------------------------

type Neighbor struct {
	Base
	Offset []int // fixed cell offset, one per dimension
}

func NewNeighbor(id ID, meta MetaData, in ID, offset []int) *Neighbor {
	n := &Neighbor{Offset: append([]int(nil), offset...)}
	n.Base = newBase(id, KindNeighbor, meta, []ID{in})
	return n
}

func (n *Neighbor) Pattern() pattern.Pattern { return pattern.FOCAL }
func (n *Neighbor) InputReach() reach.Mask {
	m := reach.Identity(len(n.Offset))
	m.Add(n.Offset)
	return m
}
func (n *Neighbor) OutputReach() reach.Mask { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Neighbor) ClassSignature() byte    { return 'N' }
func (n *Neighbor) Signature() string       { return fmt.Sprintf("Neighbor(%d,%v)", n.prev[0], n.Offset) }
func (n *Neighbor) Accept(v Visitor)        { v.VisitNeighbor(n) }

// --- Convolution (FOCAL, NxN kernel window) -----------------------------

type Convolution struct {
	Base
	Radius int // window extends Radius cells in every direction
	Weights []float64
}

func NewConvolution(id ID, meta MetaData, in ID, radius int, weights []float64) *Convolution {
	n := &Convolution{Radius: radius, Weights: append([]float64(nil), weights...)}
	n.Base = newBase(id, KindConvolution, meta, []ID{in})
	return n
}

func (n *Convolution) Pattern() pattern.Pattern { return pattern.FOCAL }
func (n *Convolution) InputReach() reach.Mask   { return reach.Window(int(n.Meta().NumDim), n.Radius) }
func (n *Convolution) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Convolution) ClassSignature() byte     { return 'V' }
func (n *Convolution) Signature() string {
	return fmt.Sprintf("Convolution(%d,r=%d)", n.prev[0], n.Radius)
}
func (n *Convolution) Accept(v Visitor) { v.VisitConvolution(n) }

// --- FocalFunc / FocalPercent (FOCAL, parametrized window reducers) -----

type FocalFunc struct {
	Base
	Radius int
	Func   string // e.g. "min", "max", "range" — the reducer identity
}

func NewFocalFunc(id ID, meta MetaData, in ID, radius int, fn string) *FocalFunc {
	n := &FocalFunc{Radius: radius, Func: fn}
	n.Base = newBase(id, KindFocalFunc, meta, []ID{in})
	return n
}

func (n *FocalFunc) Pattern() pattern.Pattern { return pattern.FOCAL }
func (n *FocalFunc) InputReach() reach.Mask   { return reach.Window(int(n.Meta().NumDim), n.Radius) }
func (n *FocalFunc) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *FocalFunc) ClassSignature() byte     { return 'F' }
func (n *FocalFunc) Signature() string {
	return fmt.Sprintf("FocalFunc(%s,%d,r=%d)", n.Func, n.prev[0], n.Radius)
}
func (n *FocalFunc) Accept(v Visitor) { v.VisitFocalFunc(n) }

type FocalPercent struct {
	Base
	Radius     int
	Percentile float64
}

func NewFocalPercent(id ID, meta MetaData, in ID, radius int, pct float64) *FocalPercent {
	n := &FocalPercent{Radius: radius, Percentile: pct}
	n.Base = newBase(id, KindFocalPercent, meta, []ID{in})
	return n
}

func (n *FocalPercent) Pattern() pattern.Pattern { return pattern.FOCAL }
func (n *FocalPercent) InputReach() reach.Mask   { return reach.Window(int(n.Meta().NumDim), n.Radius) }
func (n *FocalPercent) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *FocalPercent) ClassSignature() byte     { return 'P' }
func (n *FocalPercent) Signature() string {
	return fmt.Sprintf("FocalPercent(%.2f,%d,r=%d)", n.Percentile, n.prev[0], n.Radius)
}
func (n *FocalPercent) Accept(v Visitor) { v.VisitFocalPercent(n) }

// --- FocalFlow (RADIAL, flow-direction / propagation) -------------------

// FocalFlow models flow-routing style operators (e.g. flow accumulation)
// whose output at a cell depends on upstream cells reached transitively,
// hence the RADIAL (intra-cluster, self-notifying) pattern rather than a
// fixed-size FOCAL window.
type FocalFlow struct {
	Base
	Radius int // the single propagation step's neighborhood
}

func NewFocalFlow(id ID, meta MetaData, in ID, radius int) *FocalFlow {
	n := &FocalFlow{Radius: radius}
	n.Base = newBase(id, KindFocalFlow, meta, []ID{in})
	return n
}

func (n *FocalFlow) Pattern() pattern.Pattern { return pattern.RADIAL }
func (n *FocalFlow) InputReach() reach.Mask   { return reach.Window(int(n.Meta().NumDim), n.Radius) }
func (n *FocalFlow) OutputReach() reach.Mask  { return reach.Window(int(n.Meta().NumDim), n.Radius) }
func (n *FocalFlow) ClassSignature() byte     { return 'L' }
func (n *FocalFlow) Signature() string        { return fmt.Sprintf("FocalFlow(%d,r=%d)", n.prev[0], n.Radius) }
func (n *FocalFlow) Accept(v Visitor)         { v.VisitFocalFlow(n) }

// --- Summary (ZONAL reduction with per-statistic children) --------------

// Summary is a zonal reduction exposing the ids of four child statistics
// through the accessors Min, Max, Mean, Std; no nodes exist for them.
type Summary struct {
	Base
	minID, maxID, meanID, stdID ID
}

func NewSummary(id ID, meta MetaData, in ID, minID, maxID, meanID, stdID ID) *Summary {
	n := &Summary{minID: minID, maxID: maxID, meanID: meanID, stdID: stdID}
	n.Base = newBase(id, KindSummary, meta, []ID{in})
	return n
}

func (n *Summary) Min() ID  { return n.minID }
func (n *Summary) Max() ID  { return n.maxID }
func (n *Summary) Mean() ID { return n.meanID }
func (n *Summary) Std() ID  { return n.stdID }

func (n *Summary) Pattern() pattern.Pattern { return pattern.Add(pattern.ZONAL, pattern.STATS) }
func (n *Summary) InputReach() reach.Mask   { return reach.Whole(int(n.Meta().NumDim)) }
func (n *Summary) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Summary) ClassSignature() byte     { return 'S' }
func (n *Summary) Signature() string        { return fmt.Sprintf("Summary(%d)", n.prev[0]) }
func (n *Summary) Accept(v Visitor)         { v.VisitSummary(n) }

// --- Loop gadget: LoopHead / LoopTail / LoopCond / Feedback --------------

type LoopHead struct {
	Base
}

func NewLoopHead(id ID, meta MetaData, in ID) *LoopHead {
	n := &LoopHead{}
	n.Base = newBase(id, KindLoopHead, meta, []ID{in})
	return n
}

func (n *LoopHead) Pattern() pattern.Pattern { return pattern.Add(pattern.LOOP, pattern.HEAD) }
func (n *LoopHead) InputReach() reach.Mask   { return reach.Identity(int(n.Meta().NumDim)) }
func (n *LoopHead) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *LoopHead) ClassSignature() byte     { return 'H' }
func (n *LoopHead) Signature() string        { return fmt.Sprintf("LoopHead(%d)", n.prev[0]) }
func (n *LoopHead) Accept(v Visitor)         { v.VisitLoopHead(n) }

type LoopCond struct {
	Base
	TailIDs []ID // loop tails registered against this condition node
}

func NewLoopCond(id ID, meta MetaData, cond ID, tails []ID) *LoopCond {
	n := &LoopCond{TailIDs: append([]ID(nil), tails...)}
	n.Base = newBase(id, KindLoopCond, meta, []ID{cond})
	return n
}

func (n *LoopCond) Pattern() pattern.Pattern { return pattern.LOOP }
func (n *LoopCond) InputReach() reach.Mask   { return reach.Identity(int(n.Meta().NumDim)) }
func (n *LoopCond) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *LoopCond) ClassSignature() byte     { return 'D' }
func (n *LoopCond) Signature() string        { return fmt.Sprintf("LoopCond(%d)", n.prev[0]) }
func (n *LoopCond) Accept(v Visitor)         { v.VisitLoopCond(n) }

// LoopTail sits at the back edge of a loop gadget. Its positional
// predecessor contract (preserved from
// original_source/runtime/dag/LoopTail.cpp) is load-bearing: prev_list[0]
// is the loop-carried value being updated, prev_list[1] is the switch node
// that actually feeds it, and SwitchNode() must return the latter —
// callers that rely on positional semantics elsewhere are a bug, not a
// convention.
type LoopTail struct {
	Base
	Loop ID
}

// NewLoopTail builds a tail whose SwitchNode() is switchNode, matching the
// two-predecessor layout [carried, switchNode].
func NewLoopTail(id ID, meta MetaData, carried, switchNode ID, loop ID) *LoopTail {
	n := &LoopTail{Loop: loop}
	n.Base = newBase(id, KindLoopTail, meta, []ID{carried, switchNode})
	return n
}

// SwitchNode returns prev_list[1], the switch node — not index 0. This
// accessor exists precisely so nothing else in the codebase reaches into
// prev_list positionally. Base.Prev() still returns the full
// [carried, switchNode] list, satisfying the Node interface.
func (n *LoopTail) SwitchNode() ID { return n.Base.prev[1] }

func (n *LoopTail) Pattern() pattern.Pattern { return pattern.Add(pattern.LOOP, pattern.TAIL) }
func (n *LoopTail) InputReach() reach.Mask   { return reach.Identity(int(n.Meta().NumDim)) }
func (n *LoopTail) OutputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *LoopTail) ClassSignature() byte     { return 'T' }
func (n *LoopTail) Signature() string        { return fmt.Sprintf("LoopTail(%v)", n.Base.prev) }
func (n *LoopTail) Accept(v Visitor)         { v.VisitLoopTail(n) }

// Feedback is one half of a twin pair (feed-in / feed-out) carrying a
// loop-local value across iterations. Twin is an arena id resolved by the
// owning Runtime, not a live pointer, per the arena+index ownership model.
type Feedback struct {
	Base
	InOrOut bool // true: feed-in, false: feed-out
	Twin    ID   // the paired Feedback node; 0 until linked
	Loop    ID
}

func NewFeedback(id ID, meta MetaData, prev ID, loop ID, inOrOut bool) *Feedback {
	n := &Feedback{InOrOut: inOrOut, Loop: loop}
	n.Base = newBase(id, KindFeedback, meta, []ID{prev})
	return n
}

// LinkTwin records the symmetric feed-in <-> feed-out pairing.
func LinkTwin(a, b *Feedback) {
	a.Twin, b.Twin = b.ID(), a.ID()
}

func (n *Feedback) Pattern() pattern.Pattern {
	if n.InOrOut {
		return pattern.Add(pattern.LOOP, pattern.HEAD)
	}
	return pattern.Add(pattern.LOOP, pattern.TAIL)
}
func (n *Feedback) InputReach() reach.Mask  { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Feedback) OutputReach() reach.Mask { return reach.Identity(int(n.Meta().NumDim)) }
func (n *Feedback) ClassSignature() byte    { return 'B' }
func (n *Feedback) Signature() string       { return fmt.Sprintf("Feedback(%v,in=%v)", n.prev, n.InOrOut) }
func (n *Feedback) Accept(v Visitor)        { v.VisitFeedback(n) }
