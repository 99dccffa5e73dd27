package flatnode

import "testing"

func TestRootIsLastNode(t *testing.T) {
	g := &Graph{Nodes: []Node{{Kind: Dict}, {Kind: Concat}, {Kind: Disjunct}}}
	if g.Root() != 2 {
		t.Fatalf("Root() = %d, want 2", g.Root())
	}
}
