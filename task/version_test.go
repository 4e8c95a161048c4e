package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/runtime"
)

// TestNewVersionAssignsUniqueID checks that two Versions built from the
// same (device, group size, detail, source) still get distinct IDs, the
// property a scheduler relies on to tell compiled variants apart.
func TestNewVersionAssignsUniqueID(t *testing.T) {
	a := NewVersion("cuda", [2]int{16, 16}, "f64", "kernel body", 0, nil)
	b := NewVersion("cuda", [2]int{16, 16}, "f64", "kernel body", 0, nil)
	require.NotEqual(t, a.ID, b.ID)
}

// TestTaskVersionsAccumulatesCompiledVariants exercises Task.Versions as
// a real call path: a task factory-built from a live cluster gets a
// Version appended per (device, group size) combination a scheduler
// would compile it for.
func TestTaskVersionsAccumulatesCompiledVariants(t *testing.T) {
	rt := runtime.New(nil)
	r := rt.Read(blockMeta2D(), "x.tif")

	g := rt.Clusters
	c := g.NewCluster(r.Pattern())
	g.AddToBody(c, r.ID())
	g.AddToOutputs(c, r.ID())

	tk := Factory(rt, c)
	require.NotNil(t, tk)
	require.Empty(t, tk.Versions)

	tk.Versions = append(tk.Versions,
		NewVersion("cpu", [2]int{1, 1}, "f32", "cpu kernel", 0, nil),
		NewVersion("cuda", [2]int{16, 16}, "f32", "cuda kernel", 4096, []int{2}),
	)
	assert.Len(t, tk.Versions, 2)
	assert.NotEqual(t, tk.Versions[0].ID, tk.Versions[1].ID)
}

// TestBindArgsOrdersInputsThenOutputs checks that BindArgs preserves
// input-then-output ordering and carries each block's Key/Hold through
// unchanged, the shape Task::computeVersion's clSetKernelArg sequence
// depends on.
func TestBindArgsOrdersInputsThenOutputs(t *testing.T) {
	in := []BlockArg{
		{Key: BlockKey{Node: node.ID(1), Coord: Coord{0, 0}}, Hold: HOLD_N},
		{Key: BlockKey{Node: node.ID(2), Coord: Coord{0, 0}}, Hold: HOLD_1},
		{Key: BlockKey{Node: node.ID(3), Coord: Coord{0, 0}}, Hold: HOLD_0},
	}
	out := []BlockArg{
		{Key: BlockKey{Node: node.ID(4), Coord: Coord{0, 0}}, Hold: HOLD_N},
	}

	args, err := BindArgs(in, out)
	require.NoError(t, err)
	require.Len(t, args, 4)
	for i, want := range in {
		assert.Equal(t, want.Key, args[i].Key)
		assert.Equal(t, want.Hold, args[i].Hold)
	}
	assert.Equal(t, out[0].Key, args[3].Key)
	assert.Equal(t, out[0].Hold, args[3].Hold)
}

// TestBindArgsRejectsHold0Output checks that BindArgs rejects an output
// block carrying HOLD_0: an output is always produced, so it can never
// be the null/out-of-range case an input may legitimately be.
func TestBindArgsRejectsHold0Output(t *testing.T) {
	out := []BlockArg{{Key: BlockKey{Node: node.ID(1)}, Hold: HOLD_0}}
	_, err := BindArgs(nil, out)
	require.Error(t, err)
}
