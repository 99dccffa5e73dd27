// Package expgraph implements the length-stratified expansion DAG
// (ExpGraph) the Expander produces: every node's finite combination count
// and, for fixed-length nodes, its length are known statically. Grounded
// on original_source/src/expgraph.{h,cpp}.
package expgraph

import (
	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/rclist"
	"github.com/sipa/gramtropy/internal/stringpool"
)

// Kind identifies an ExpGraph node's variant, mirroring
// ExpGraph::Node::NodeType.
type Kind int

const (
	Dict Kind = iota
	Concat
	Disjunct
)

func (k Kind) String() string {
	switch k {
	case Dict:
		return "DICT"
	case Concat:
		return "CONCAT"
	case Disjunct:
		return "DISJUNCT"
	default:
		return "?"
	}
}

type node struct {
	kind   Kind
	dict   *stringpool.Pool
	refs   []rclist.ID
	count  *bignat.Nat
	length int // -1 if this node's members don't all share one length (DISJUNCT only)
}

func children(n *node) []rclist.ID { return n.refs }

// Ref is a reference-counted handle to an ExpGraph node.
type Ref struct{ id rclist.ID }

// Valid reports whether r refers to an allocated node.
func (r Ref) Valid() bool { return r.id != 0 }

// Graph owns a pool of ExpGraph nodes.
type Graph struct {
	pool *rclist.Pool[node]
}

// New returns an empty Graph.
func New() *Graph { return &Graph{pool: rclist.New(children)} }

func (g *Graph) get(r Ref) *node { return g.pool.Get(r.id) }

// Retain returns a second owning handle to r's node.
func (g *Graph) Retain(r Ref) Ref { g.pool.Ref(r.id); return r }

// Release drops a handle, cascading destruction if it was the last one.
func (g *Graph) Release(r Ref) { g.pool.Unref(r.id) }

// Unique reports whether r is the only outstanding handle to its node.
func (g *Graph) Unique(r Ref) bool { return g.pool.Unique(r.id) }

// Kind returns r's node kind.
func (g *Graph) Kind(r Ref) Kind { return g.get(r).kind }

// Count returns the number of distinct phrases r's language contains.
func (g *Graph) Count(r Ref) *bignat.Nat { return g.get(r).count }

// Len returns the common length of every phrase in r's language, or -1 if
// r is a DISJUNCT whose branches have different lengths.
func (g *Graph) Len(r Ref) int { return g.get(r).length }

// Dict returns the literal pool of a DICT node.
func (g *Graph) Dict(r Ref) *stringpool.Pool { return g.get(r).dict }

// Children returns the child references of a CONCAT/DISJUNCT node.
func (g *Graph) Children(r Ref) []Ref {
	ids := g.get(r).refs
	out := make([]Ref, len(ids))
	for i, id := range ids {
		out[i] = Ref{id: id}
	}
	return out
}

func toIDs(refs []Ref) []rclist.ID {
	ids := make([]rclist.ID, len(refs))
	for i, r := range refs {
		ids[i] = r.id
	}
	return ids
}

// NewDict creates a DICT node from a non-empty, possibly unsorted and
// duplicate-bearing set of equal-length entries, mirroring
// ExpGraph::NewDict. entries must be non-empty: the Expander only ever
// calls this with at least one matching phrase.
func (g *Graph) NewDict(entries []string) Ref {
	if len(entries) == 0 {
		panic("expgraph: NewDict called with no entries")
	}
	pool, _ := stringpool.BuildDedup(entries)
	n := node{
		kind:   Dict,
		dict:   pool,
		count:  bignat.FromUint64(uint64(pool.Len())),
		length: pool.Width(),
	}
	return Ref{id: g.pool.Alloc(n)}
}

// NewConcat creates the ordered concatenation of refs, taking ownership of
// each, with a count equal to the product of their counts and a length
// equal to the sum of their lengths. A single-element list collapses to
// that element, mirroring ExpGraph::NewConcat.
func (g *Graph) NewConcat(refs []Ref) Ref {
	if len(refs) == 0 {
		panic("expgraph: NewConcat called with no refs")
	}
	if len(refs) == 1 {
		return refs[0]
	}
	count := bignat.FromUint64(1)
	length := 0
	for _, r := range refs {
		count = count.Mul(g.Count(r))
		length += g.Len(r)
	}
	n := node{kind: Concat, refs: toIDs(refs), count: count, length: length}
	r := Ref{id: g.pool.Alloc(n)}
	g.optimizeOne(r)
	return r
}

// NewDisjunct creates the union of refs, taking ownership of each, with a
// count equal to the sum of their counts and a length equal to their
// common length (or -1 if they differ). A single-element list collapses
// to that element, mirroring ExpGraph::NewDisjunct.
func (g *Graph) NewDisjunct(refs []Ref) Ref {
	if len(refs) == 0 {
		panic("expgraph: NewDisjunct called with no refs")
	}
	if len(refs) == 1 {
		return refs[0]
	}
	count := bignat.Zero()
	length := g.Len(refs[0])
	for _, r := range refs {
		count = count.Add(g.Count(r))
		if g.Len(r) != length {
			length = -1
		}
	}
	n := node{kind: Disjunct, refs: toIDs(refs), count: count, length: length}
	r := Ref{id: g.pool.Alloc(n)}
	g.optimizeOne(r)
	return r
}

// Inline expands r into the explicit list of phrases it denotes, used by
// the optimizer's small-DISJUNCT-to-DICT fold and by DEDUP. Mirrors
// InlineDict/Inline in original_source/src/expgraph.cpp.
func (g *Graph) Inline(r Ref) []string {
	return g.inlineFrom(r, 0)
}

func (g *Graph) inlineFrom(r Ref, offset int) []string {
	n := g.get(r)
	switch n.kind {
	case Dict:
		all := n.dict.All()
		out := make([]string, len(all))
		for i, b := range all {
			out[i] = string(b)
		}
		return out
	case Disjunct:
		var res []string
		for _, id := range n.refs {
			sub := g.Inline(Ref{id: id})
			if len(sub) < len(res) {
				res, sub = sub, res
			}
			res = append(res, sub...)
		}
		return res
	case Concat:
		if offset+1 == len(n.refs) {
			return g.inlineFrom(Ref{id: n.refs[offset]}, 0)
		}
		s1 := g.Inline(Ref{id: n.refs[offset]})
		s2 := g.inlineFrom(r, offset+1)
		res := make([]string, 0, len(s1)*len(s2))
		for _, a := range s1 {
			for _, b := range s2 {
				res = append(res, a+b)
			}
		}
		return res
	}
	return nil
}

// optimizeOne applies a single optimization rule to r, returning whether
// anything changed. A fixed-length DISJUNCT whose count fits in 6 bits is
// replaced by its explicit inlined dictionary (small disjunctions are
// cheaper to index as a DICT than to walk); a mixed-length one is kept,
// since a DICT holds equal-length entries only. Otherwise it falls through to the same
// uniquely-owned-same-kind-child flattening CONCAT gets, exactly
// mirroring the switch fallthrough in the original Optimize(const Ref&).
func (g *Graph) optimizeOne(r Ref) bool {
	n := g.get(r)
	switch n.kind {
	case Dict:
		return false
	case Disjunct:
		if n.length >= 0 && n.count.BitLen() <= 6 {
			strs := g.Inline(r)
			pool, _ := stringpool.BuildDedup(strs)
			for _, id := range n.refs {
				g.Release(Ref{id: id})
			}
			n.kind = Dict
			n.dict = pool
			n.refs = nil
			n.count = bignat.FromUint64(uint64(pool.Len()))
			n.length = pool.Width()
			return true
		}
		fallthrough
	case Concat:
		return g.collectSameKind(r)
	}
	return false
}

// collectSameKind flattens r's uniquely-owned same-kind children into r
// directly, e.g. a CONCAT-of-CONCAT collapses one level. Mirrors
// Collectable/Collect in original_source/src/expgraph.cpp.
func (g *Graph) collectSameKind(r Ref) bool {
	n := g.get(r)
	kind := n.kind
	collectable := false
	for _, id := range n.refs {
		if g.get(Ref{id: id}).kind == kind && g.pool.Unique(id) {
			collectable = true
			break
		}
	}
	if !collectable {
		return false
	}
	var result []rclist.ID
	var collect func(ids []rclist.ID)
	collect = func(ids []rclist.ID) {
		for _, id := range ids {
			c := g.get(Ref{id: id})
			if c.kind == kind && g.pool.Unique(id) {
				sub := c.refs
				collect(sub)
				g.pool.Retire(id)
			} else {
				result = append(result, id)
			}
		}
	}
	collect(n.refs)
	n.refs = result
	return true
}

// NodeCount returns the number of live nodes in the graph, used by the
// Expander to enforce its node budget.
func (g *Graph) NodeCount() int { return g.pool.Len() }

// Optimize runs the DISJUNCT-inlining and same-kind-flattening folds over
// every live node to a fixed point, matching Optimize(ExpGraph&).
func (g *Graph) Optimize() {
	for {
		changed := false
		g.pool.Each(func(id rclist.ID) {
			if g.optimizeOne(Ref{id: id}) {
				changed = true
			}
		})
		if !changed {
			return
		}
	}
}
