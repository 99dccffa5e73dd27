// Package coder implements the bijection between a phrase's index and its
// text: Generate(node, i) produces the i'th phrase in a node's language in
// canonical order, and Parse(node, phrase) recovers i. Both directions
// work identically over a freshly expanded expgraph.Graph node and an
// imported flatnode.Graph node, via the Node interface adapters in this
// package — the original has a single copy of this algorithm, in
// interpreter.cpp, run solely over FlatGraph, but the logic has no dependency on which
// backing representation a node lives in, so one implementation serves
// both.
//
// Grounded on original_source/src/interpreter.h/.cpp (Generate/Parse).
package coder

import "github.com/sipa/gramtropy/internal/bignat"

// Kind identifies a node's variant for dispatch, independent of which
// concrete graph representation backs it.
type Kind int

const (
	Dict Kind = iota
	Concat
	Disjunct
)

// Node is the minimal interface Generate/Parse need from a graph node,
// implemented by both expgraph and flatnode adapters.
type Node interface {
	Kind() Kind
	Count() *bignat.Nat
	// Len returns the node's fixed phrase length, or -1 if its members
	// don't all share one (only possible for a DISJUNCT).
	Len() int
	// DictIndex returns the i'th entry of a DICT node's sorted pool.
	DictIndex(i uint32) []byte
	// DictFind returns s's sorted index in a DICT node's pool, or false.
	DictFind(s []byte) (int, bool)
	// Children returns a CONCAT/DISJUNCT node's children in emission
	// order.
	Children() []Node
	// ChildOffset returns the i'th child's byte offset within a CONCAT
	// node's generated output; meaningless for DISJUNCT/DICT.
	ChildOffset(i int) int
}

// Generate returns the i'th phrase (0-indexed, canonical order) of n's
// language. i must be < n.Count(); Generate panics otherwise.
func Generate(n Node, i *bignat.Nat) []byte {
	if !i.Less(n.Count()) {
		panic("coder: Generate index out of range")
	}
	switch n.Kind() {
	case Dict:
		return n.DictIndex(i.GetUint32())
	case Disjunct:
		rem := i
		for _, c := range n.Children() {
			if rem.Less(c.Count()) {
				return Generate(c, rem)
			}
			rem = rem.Sub(c.Count())
		}
		panic("coder: Generate index out of range for DISJUNCT")
	case Concat:
		children := n.Children()
		out := make([]byte, n.Len())
		rem := i
		for idx, c := range children {
			q, r := rem.DivMod(c.Count())
			sub := Generate(c, r)
			off := n.ChildOffset(idx)
			copy(out[off:off+len(sub)], sub)
			rem = q
		}
		return out
	}
	panic("coder: unhandled node kind")
}

// Parse is Generate's inverse: it returns the index i such that
// Generate(n, i) == phrase, or ok == false if phrase is not in n's
// language.
func Parse(n Node, phrase []byte) (i *bignat.Nat, ok bool) {
	if l := n.Len(); l >= 0 && len(phrase) != l {
		return nil, false
	}
	switch n.Kind() {
	case Dict:
		idx, found := n.DictFind(phrase)
		if !found {
			return nil, false
		}
		return bignat.FromUint64(uint64(idx)), true
	case Disjunct:
		sum := bignat.Zero()
		for _, c := range n.Children() {
			if r, found := Parse(c, phrase); found {
				return sum.Add(r), true
			}
			sum = sum.Add(c.Count())
		}
		return nil, false
	case Concat:
		children := n.Children()
		mult := bignat.FromUint64(1)
		out := bignat.Zero()
		for idx, c := range children {
			off := n.ChildOffset(idx)
			clen := c.Len()
			if off < 0 || off+clen > len(phrase) {
				return nil, false
			}
			r, found := Parse(c, phrase[off:off+clen])
			if !found {
				return nil, false
			}
			out = out.Add(mult.Mul(r))
			mult = mult.Mul(c.Count())
		}
		return out, true
	}
	panic("coder: unhandled node kind")
}
