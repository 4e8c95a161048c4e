package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tilefuse/maprt/node"
	"github.com/tilefuse/maprt/runtime"
)

// NodeJSON is one entry of a DAG description file: kind plus whichever
// fields that kind needs. Dims/BlockSize/DataSize are only required on
// leaf nodes (Read, Constant); every other kind inherits its shape from
// its first predecessor, the way a map-algebra expression's cell shape is
// implied by its operands rather than restated at every node.
type NodeJSON struct {
	ID        int       `json:"id"`
	Kind      string    `json:"kind"`
	Prev      []int     `json:"prev,omitempty"`
	Handle    string    `json:"handle,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Offset    []int     `json:"offset,omitempty"`
	Radius    int       `json:"radius,omitempty"`
	Weights   []float64 `json:"weights,omitempty"`
	Func      string    `json:"func,omitempty"`
	Dims      int       `json:"dims,omitempty"`
	BlockSize []int     `json:"block_size,omitempty"`
	DataSize  []int     `json:"data_size,omitempty"`
}

// DAGJSON is the top-level file shape read by `maprtplan plan`, the same
// encoding/json + os.ReadFile shape as
// Atul-Ranjan12-google-dag-optimization/src-sol2's ProblemJSON.
type DAGJSON struct {
	Nodes []NodeJSON `json:"nodes"`
}

var requiredPrev = map[string]int{
	"write":         1,
	"add":           2,
	"sub":           2,
	"mul":           2,
	"div":           2,
	"neg":           1,
	"cos":           1,
	"sin":           1,
	"neighbor":      1,
	"convolution":   1,
	"focal_func":    1,
	"focal_percent": 1,
}

func ReadDAG(filename string) (*DAGJSON, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading dag file: %w", err)
	}
	var dag DAGJSON
	if err := json.Unmarshal(data, &dag); err != nil {
		return nil, fmt.Errorf("parsing dag JSON: %w", err)
	}
	return &dag, nil
}

// BuildGraph replays a DAGJSON's node list into rt in file order (which
// must already be a topological order: every id is defined before it is
// used as a prev), returning the node.ID each JSON id was assigned to and
// the full build order for the Fusioner.
func BuildGraph(rt *runtime.Runtime, dag *DAGJSON) ([]node.ID, map[int]node.ID, error) {
	ids := make(map[int]node.ID, len(dag.Nodes))
	order := make([]node.ID, 0, len(dag.Nodes))

	resolve := func(owner, jid int) (node.ID, error) {
		id, ok := ids[jid]
		if !ok {
			return 0, fmt.Errorf("node %d references undefined prev %d", owner, jid)
		}
		return id, nil
	}

	metaOf := func(n NodeJSON) node.MetaData {
		return node.MetaData{
			NumDim:    node.NumDim(n.Dims),
			DataSize:  node.DataSize(n.DataSize),
			BlockSize: node.BlockSize(n.BlockSize),
		}
	}

	// inheritedMeta copies the shape of a node's first predecessor, for
	// kinds whose JSON entry omits dims/block_size/data_size.
	inheritedMeta := func(prev []node.ID) node.MetaData {
		if len(prev) == 0 {
			return node.MetaData{}
		}
		return rt.Node(prev[0]).Meta()
	}

	for _, n := range dag.Nodes {
		prev := make([]node.ID, len(n.Prev))
		for i, p := range n.Prev {
			pid, err := resolve(n.ID, p)
			if err != nil {
				return nil, nil, err
			}
			prev[i] = pid
		}

		if want := requiredPrev[n.Kind]; len(prev) < want {
			return nil, nil, fmt.Errorf("node %d: kind %q needs %d prev, got %d", n.ID, n.Kind, want, len(prev))
		}

		meta := metaOf(n)
		if len(n.DataSize) == 0 {
			meta = inheritedMeta(prev)
		}

		var out node.Node
		switch n.Kind {
		case "constant":
			out = rt.Constant(meta, node.VariantType{F: n.Value})
		case "read":
			out = rt.Read(meta, n.Handle)
		case "write":
			out = rt.Write(meta, n.Handle, prev[0])
		case "add":
			out = rt.Add(meta, prev[0], prev[1])
		case "sub":
			out = rt.Sub(meta, prev[0], prev[1])
		case "mul":
			out = rt.Mul(meta, prev[0], prev[1])
		case "div":
			out = rt.Div(meta, prev[0], prev[1])
		case "neg":
			out = rt.Neg(meta, prev[0])
		case "cos":
			out = rt.Cos(meta, prev[0])
		case "sin":
			out = rt.Sin(meta, prev[0])
		case "neighbor":
			out = rt.Neighbor(meta, prev[0], n.Offset)
		case "convolution":
			out = rt.Convolution(meta, prev[0], n.Radius, n.Weights)
		case "focal_func":
			out = rt.FocalFunc(meta, prev[0], n.Radius, n.Func)
		case "focal_percent":
			out = rt.FocalPercent(meta, prev[0], n.Radius, n.Value)
		default:
			return nil, nil, fmt.Errorf("node %d: unknown kind %q", n.ID, n.Kind)
		}

		ids[n.ID] = out.ID()
		order = append(order, out.ID())
	}
	return order, ids, nil
}
