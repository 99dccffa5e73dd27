// Package flatnode is the serialized twin of expgraph.Graph: a flat
// slice of nodes addressed by index rather than by reference-counted
// handle, with DICT payloads stored in a shared stringpool.Pool per
// dictionary instead of duplicated per node. It is what the Importer
// reconstructs from a binary export, and what the Coder runs a parsed
// grammar's Generate/Parse against at runtime.
//
// Grounded on original_source/src/interpreter.h (FlatNode/FlatGraph).
package flatnode

import (
	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/stringpool"
)

// Kind identifies a flat node's variant, mirroring FlatNode::NodeType.
type Kind int

const (
	Dict Kind = iota
	Concat
	Disjunct
)

// Child is one entry in a CONCAT or DISJUNCT node's child list: idx
// indexes into Graph.Nodes, and for a CONCAT child, pos is that child's
// byte offset within the parent's generated output (always 0 for a
// DISJUNCT child, since only one DISJUNCT branch is ever realized).
type Child struct {
	Pos int
	Idx int
}

// Node is one entry in a flattened, index-addressed ExpGraph.
type Node struct {
	Kind   Kind
	Count  *bignat.Nat
	Dict   int // index into Graph.Dicts, valid for Kind == Dict
	Refs   []Child
	Length int // -1 if this node's members don't share one length (DISJUNCT only)
}

// Graph is a flattened grammar: Nodes in topological order (every node's
// children appear before it), with Dicts holding the DICT nodes' literal
// pools out of line so identical-width dictionaries don't duplicate their
// backing buffer layout logic.
type Graph struct {
	Nodes []Node
	Dicts []*stringpool.Pool
}

// Root returns the index of the last node, the convention the Importer
// and original FlatGraph share: the root is always emitted/appended last.
func (g *Graph) Root() int { return len(g.Nodes) - 1 }
