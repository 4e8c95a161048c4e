// Package node defines the DAG node contract: identity, metadata,
// predecessor/successor relations, pattern, and spatial reach, plus the
// closed set of node subkinds and the CSE factory that interns them.
package node

import (
	"fmt"

	"github.com/tilefuse/maprt/pattern"
	"github.com/tilefuse/maprt/reach"
)

// ID is a monotonic node identity, assigned by a Runtime arena in creation
// order. Zero is never a valid ID.
type ID int

// NumDim is the dimensionality of a node's data.
type NumDim int

const (
	D0 NumDim = iota
	D1
	D2
	D3
)

// DataType is the scalar element type carried by a node's blocks.
type DataType int

const (
	F32 DataType = iota
	F64
	I32
	I64
	U8
)

// MemOrder describes the in-block memory layout (row-major vs column-major,
// blocked vs linear); the concrete encoding is opaque to this package and
// only matters to the skeleton/codegen collaborator.
type MemOrder int

const (
	RowMajor MemOrder = iota
	ColMajor
)

// BlockSize is the tile shape, one entry per dimension.
type BlockSize []int

// DataSize is the full raster shape, one entry per dimension.
type DataSize []int

// MetaData is the intrinsic, dimension/type/layout attributes a node
// carries independent of its position in the graph.
type MetaData struct {
	NumDim    NumDim
	DataSize  DataSize
	DataType  DataType
	MemOrder  MemOrder
	BlockSize BlockSize
}

// Kind is the closed tag identifying a node's subkind. The set is
// enumerated exhaustively; visitor dispatch switches on it.
type Kind int

const (
	KindConstant Kind = iota
	KindIndex
	KindRead
	KindWrite
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindNeg
	KindCos
	KindSin
	KindNeighbor
	KindConvolution
	KindFocalFunc
	KindFocalPercent
	KindFocalFlow
	KindSummary
	KindLoopHead
	KindLoopTail
	KindLoopCond
	KindFeedback
)

// Node is the shared contract every subkind satisfies. Concrete subkinds
// embed Base and add their own fields; Node is the interface callers and
// the visitor operate against.
type Node interface {
	ID() ID
	Kind() Kind
	Meta() MetaData
	Prev() []ID
	Next() []ID
	Pattern() pattern.Pattern
	InputReach() reach.Mask
	OutputReach() reach.Mask
	ClassSignature() byte
	Signature() string
	Accept(v Visitor)

	// AddNext records id as a successor. Called only by the owning
	// Runtime when linking a new node's predecessor edges.
	AddNext(id ID)
}

// Base implements the common Node plumbing; every subkind embeds it.
type Base struct {
	id   ID
	kind Kind
	meta MetaData
	prev []ID // ordered: position is a contract for some subkinds (e.g. LoopTail)
	next []ID // unordered
}

func newBase(id ID, kind Kind, meta MetaData, prev []ID) Base {
	return Base{id: id, kind: kind, meta: meta, prev: append([]ID(nil), prev...)}
}

func (b *Base) ID() ID         { return b.id }
func (b *Base) Kind() Kind     { return b.kind }
func (b *Base) Meta() MetaData { return b.meta }
func (b *Base) Prev() []ID     { return b.prev }
func (b *Base) Next() []ID     { return b.next }

// AddNext records id as a successor.
func (b *Base) AddNext(id ID) {
	b.next = append(b.next, id)
}

// ClassSignature returns a one-character kind tag used by Signature and by
// diagnostics; each concrete subkind overrides it.
func (b *Base) ClassSignature() byte { return '?' }

// String renders a node reference for logging, e.g. "#12:Add".
func String(n Node) string {
	return fmt.Sprintf("#%d:%c", n.ID(), n.ClassSignature())
}
