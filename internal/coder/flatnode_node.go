package coder

import (
	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/flatnode"
)

// flatnodeNode adapts a flatnode.Graph/node-index pair to Node, the form
// Generate/Parse run against at runtime for an imported, compiled grammar.
type flatnodeNode struct {
	g   *flatnode.Graph
	idx int
}

// FromFlatNode wraps the node at idx in g as a coder.Node.
func FromFlatNode(g *flatnode.Graph, idx int) Node {
	return flatnodeNode{g: g, idx: idx}
}

func (n flatnodeNode) node() *flatnode.Node { return &n.g.Nodes[n.idx] }

func (n flatnodeNode) Kind() Kind {
	switch n.node().Kind {
	case flatnode.Dict:
		return Dict
	case flatnode.Concat:
		return Concat
	case flatnode.Disjunct:
		return Disjunct
	}
	panic("coder: unhandled flatnode kind")
}

func (n flatnodeNode) Count() *bignat.Nat { return n.node().Count }
func (n flatnodeNode) Len() int           { return n.node().Length }

func (n flatnodeNode) DictIndex(i uint32) []byte {
	return n.g.Dicts[n.node().Dict].At(int(i))
}

func (n flatnodeNode) DictFind(s []byte) (int, bool) {
	return n.g.Dicts[n.node().Dict].Search(s)
}

func (n flatnodeNode) Children() []Node {
	refs := n.node().Refs
	out := make([]Node, len(refs))
	for i, c := range refs {
		out[i] = flatnodeNode{g: n.g, idx: c.Idx}
	}
	return out
}

func (n flatnodeNode) ChildOffset(i int) int {
	return n.node().Refs[i].Pos
}
