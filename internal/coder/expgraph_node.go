package coder

import (
	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/expgraph"
)

// expgraphNode adapts an expgraph.Graph/expgraph.Ref pair to Node, letting
// Generate/Parse run directly against a freshly expanded grammar without a
// round trip through the binary format and flatnode. The CLIs do not use
// it (gram runs on the imported flatnode graph); the tests do.
type expgraphNode struct {
	g *expgraph.Graph
	r expgraph.Ref
}

// FromExpGraph wraps r as a coder.Node.
func FromExpGraph(g *expgraph.Graph, r expgraph.Ref) Node {
	return expgraphNode{g: g, r: r}
}

func (n expgraphNode) Kind() Kind {
	switch n.g.Kind(n.r) {
	case expgraph.Dict:
		return Dict
	case expgraph.Concat:
		return Concat
	case expgraph.Disjunct:
		return Disjunct
	}
	panic("coder: unhandled expgraph kind")
}

func (n expgraphNode) Count() *bignat.Nat { return n.g.Count(n.r) }
func (n expgraphNode) Len() int           { return n.g.Len(n.r) }

func (n expgraphNode) DictIndex(i uint32) []byte {
	return n.g.Dict(n.r).At(int(i))
}

func (n expgraphNode) DictFind(s []byte) (int, bool) {
	return n.g.Dict(n.r).Search(s)
}

func (n expgraphNode) Children() []Node {
	children := n.g.Children(n.r)
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = expgraphNode{g: n.g, r: c}
	}
	return out
}

// ChildOffset walks the CONCAT's children up to i, summing their lengths —
// expgraph nodes don't cache per-child offsets the way a flattened export
// does, so this recomputes it from each child's own fixed length.
func (n expgraphNode) ChildOffset(i int) int {
	children := n.g.Children(n.r)
	off := 0
	for _, c := range children[:i] {
		off += n.g.Len(c)
	}
	return off
}
