// Package graph implements the grammar DAG described in spec.md §3/§4.1:
// a pool of reference-counted nodes (UNDEF, NONE, EMPTY, DICT, CONCAT,
// DISJUNCT, DEDUP, LENLIMIT) with an optimizer that folds redundant
// structure to a fixed point.
//
// Node kinds are a tagged union dispatched on Kind, per spec.md Design
// Notes ("model as tagged sum types; avoid deep inheritance"), rather than
// an interface with one implementation per kind.
package graph

import "github.com/sipa/gramtropy/internal/rclist"

// Kind identifies a GraphNode's variant, mirroring GraphNode::NodeType in
// original_source/src/graph.h.
type Kind int

const (
	Undef Kind = iota
	None       // the empty language {}
	Empty      // the language {""}
	Dict       // an ordered set of literal strings
	Concat     // ordered concatenation of children
	Disjunct   // unordered union of children
	Dedup      // single child, language taken as a set
	LenLimit   // single child, restricted to [Min, Max] length
)

func (k Kind) String() string {
	switch k {
	case Undef:
		return "UNDEF"
	case None:
		return "NONE"
	case Empty:
		return "EMPTY"
	case Dict:
		return "DICT"
	case Concat:
		return "CONCAT"
	case Disjunct:
		return "DISJUNCT"
	case Dedup:
		return "DEDUP"
	case LenLimit:
		return "LENLIMIT"
	default:
		return "?"
	}
}

// node is the pool-resident value backing every Ref. It is unexported:
// callers only ever see Ref handles and go through Graph's methods.
type node struct {
	kind Kind
	dict []string     // DICT
	refs []rclist.ID  // CONCAT, DISJUNCT, DEDUP (len 1), LENLIMIT (len 1)
	min  int          // LENLIMIT
	max  int           // LENLIMIT
}

func children(n *node) []rclist.ID {
	return n.refs
}

// Ref is a stable, reference-counted handle to a node in a Graph. The zero
// Ref is invalid; every live Ref must originate from a Graph constructor
// or Graph.Retain.
type Ref struct {
	id rclist.ID
}

// Valid reports whether r refers to an allocated node.
func (r Ref) Valid() bool { return r.id != 0 }
