package analysis

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kernelstub/bindiff/pkg/disasm"
)

// blockStarts splits an instruction stream into basic blocks, cutting after
// each return-family instruction. Only return boundaries are considered;
// branch targets are out of scope for this pipeline.
func blockStarts(f *disasm.FunctionIR) []int {
	starts := []int{0}

	for i, insn := range f.Insns {
		if disasm.IsReturn(insn.Mnemonic) {
			starts = append(starts, i+1)
		}
	}

	return starts
}

// blockChainGraph builds the chain graph of a function's basic blocks: one
// node per block, one edge from each block to its successor.
func blockChainGraph(f *disasm.FunctionIR) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()

	starts := blockStarts(f)
	var prev *simple.Node
	for i := range starts {
		node := simple.Node(i)
		g.AddNode(node)
		if prev != nil {
			g.SetEdge(g.NewEdge(*prev, node))
		}
		prev = &node
	}

	return g
}

// BlockGraphIsomorphic reports whether the two functions' block chain graphs
// are isomorphic: it pairs the nodes of both graphs in topological order and
// checks that every pair has matching successor structure.
func BlockGraphIsomorphic(a, b *disasm.FunctionIR) bool {
	ga := blockChainGraph(a)
	gb := blockChainGraph(b)

	orderA, err := topo.Sort(ga)
	if err != nil {
		return false
	}
	orderB, err := topo.Sort(gb)
	if err != nil {
		return false
	}

	if len(orderA) != len(orderB) {
		return false
	}

	for i := range orderA {
		succA := graph.NodesOf(ga.From(orderA[i].ID()))
		succB := graph.NodesOf(gb.From(orderB[i].ID()))
		if len(succA) != len(succB) {
			return false
		}
	}

	return true
}
