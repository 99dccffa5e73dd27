package graph

import "github.com/sipa/gramtropy/internal/rclist"

// Graph owns a pool of grammar DAG nodes. The zero value is not usable;
// construct with New.
type Graph struct {
	pool *rclist.Pool[node]
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{pool: rclist.New(children)}
}

func (g *Graph) alloc(n node) Ref {
	return Ref{id: g.pool.Alloc(n)}
}

func (g *Graph) get(r Ref) *node {
	return g.pool.Get(r.id)
}

// Retain returns a second owning handle to the same node, incrementing its
// reference count — needed whenever a Ref is stored in more than one place
// (e.g. a symbol table entry that is also woven into an expression tree).
func (g *Graph) Retain(r Ref) Ref {
	g.pool.Ref(r.id)
	return r
}

// Release drops a handle obtained from Retain (or from a constructor whose
// result was never consumed by another Graph method), cascading destruction
// if it was the last reference.
func (g *Graph) Release(r Ref) {
	g.pool.Unref(r.id)
}

// Kind returns r's node kind.
func (g *Graph) Kind(r Ref) Kind { return g.get(r).kind }

// Unique reports whether r is the only outstanding handle to its node,
// i.e. whether the optimizer may rewrite it in place.
func (g *Graph) Unique(r Ref) bool { return g.pool.Unique(r.id) }

// Dict returns the literal set of a DICT node.
func (g *Graph) Dict(r Ref) []string { return g.get(r).dict }

// Children returns the child references of a CONCAT/DISJUNCT/DEDUP/LENLIMIT
// node.
func (g *Graph) Children(r Ref) []Ref {
	ids := g.get(r).refs
	out := make([]Ref, len(ids))
	for i, id := range ids {
		out[i] = Ref{id: id}
	}
	return out
}

// LenLimit returns the [min, max] bound of a LENLIMIT node.
func (g *Graph) LenLimit(r Ref) (min, max int) {
	n := g.get(r)
	return n.min, n.max
}

// NewNone creates a NONE node (the empty language).
func (g *Graph) NewNone() Ref { return g.alloc(node{kind: None}) }

// NewEmpty creates an EMPTY node (the language {""}).
func (g *Graph) NewEmpty() Ref { return g.alloc(node{kind: Empty}) }

// NewUndefined creates a placeholder for a forward reference, to be bound
// later with Define.
func (g *Graph) NewUndefined() Ref { return g.alloc(node{kind: Undef}) }

// NewDict creates a DICT node from an ordered list of literal strings,
// then runs the optimizer's DICT folds (empty -> NONE, {""} -> EMPTY).
func (g *Graph) NewDict(entries []string) Ref {
	r := g.alloc(node{kind: Dict, dict: entries})
	g.optimizeDict(r)
	return r
}

// NewString creates a single-entry DICT, i.e. a literal.
func (g *Graph) NewString(s string) Ref {
	return g.NewDict([]string{s})
}

// NewConcat creates the ordered concatenation of refs, taking ownership of
// every element (the caller must Retain beforehand if it needs to keep
// using any of them independently). A single-element list collapses to
// that element; an empty list is EMPTY.
func (g *Graph) NewConcat(refs []Ref) Ref {
	switch len(refs) {
	case 0:
		return g.alloc(node{kind: Empty})
	case 1:
		return refs[0]
	}
	r := g.alloc(node{kind: Concat, refs: toIDs(refs)})
	g.optimizeConcat(r)
	return r
}

// NewConcat2 is the common two-argument form.
func (g *Graph) NewConcat2(a, b Ref) Ref { return g.NewConcat([]Ref{a, b}) }

// NewDisjunct creates the union of refs, taking ownership of every
// element. A single-element list collapses to that element; an empty list
// is NONE.
func (g *Graph) NewDisjunct(refs []Ref) Ref {
	switch len(refs) {
	case 0:
		return g.alloc(node{kind: None})
	case 1:
		return refs[0]
	}
	r := g.alloc(node{kind: Disjunct, refs: toIDs(refs)})
	g.optimizeDisjunct(r)
	return r
}

// NewDisjunct2 is the common two-argument form.
func (g *Graph) NewDisjunct2(a, b Ref) Ref { return g.NewDisjunct([]Ref{a, b}) }

// NewDedup wraps ref so its language is treated as a set. A DEDUP child is
// returned unchanged; so is a DICT child without repeated entries, and a
// uniquely owned DICT child has its repeated entries dropped in place
// (first occurrence kept). NewDedup takes ownership of ref either way.
func (g *Graph) NewDedup(ref Ref) Ref {
	switch g.Kind(ref) {
	case Dedup:
		return ref
	case Dict:
		entries := g.Dict(ref)
		seen := make(map[string]bool, len(entries))
		var uniq []string
		for _, s := range entries {
			if !seen[s] {
				seen[s] = true
				uniq = append(uniq, s)
			}
		}
		if len(uniq) == len(entries) {
			return ref
		}
		if g.Unique(ref) {
			g.get(ref).dict = uniq
			return ref
		}
	}
	return g.alloc(node{kind: Dedup, refs: []rclist.ID{ref.id}})
}

// NewLenLimit restricts ref's language to strings of length in [min, max],
// taking ownership of ref. max of -1 means no upper bound (min_length's
// atom form); min of 0 combined with a max below the child's own maximum
// is max_length's form.
func (g *Graph) NewLenLimit(min, max int, ref Ref) Ref {
	return g.alloc(node{kind: LenLimit, refs: []rclist.ID{ref.id}, min: min, max: max})
}

func toIDs(refs []Ref) []rclist.ID {
	ids := make([]rclist.ID, len(refs))
	for i, r := range refs {
		ids[i] = r.id
	}
	return ids
}

// Define binds an UNDEF node to definition, taking ownership of
// definition. If definition is uniquely owned, Define absorbs its payload
// directly into undef (matching original_source/src/graph.cpp's
// optimization of avoiding an extra DISJUNCT wrapper); otherwise undef
// becomes a single-child DISJUNCT pointing at definition, since the
// UNDEF's identity must remain stable for other holders of the same
// handle (recursive self-references captured before the definition was
// known).
func (g *Graph) Define(undef, definition Ref) {
	if g.Kind(undef) != Undef {
		panic("graph: Define called on a non-UNDEF node")
	}
	n := g.get(undef)
	if g.Unique(definition) {
		d := g.get(definition)
		n.kind = d.kind
		n.refs = d.refs
		n.dict = d.dict
		n.min, n.max = d.min, d.max
		// definition's single reference is being absorbed into undef's
		// slot without net refcount change: undef now owns what
		// definition owned, and definition itself is retired without
		// touching its (now-transplanted) children.
		g.pool.Retire(definition.id)
	} else {
		n.kind = Disjunct
		n.refs = []rclist.ID{definition.id}
		n.dict = nil
	}
}

// IsDefined reports whether ref is anything other than UNDEF.
func (g *Graph) IsDefined(ref Ref) bool {
	return g.Kind(ref) != Undef
}

// FullyDefined reports whether every live node in the graph is defined,
// i.e. no UNDEF node remains unbound.
func (g *Graph) FullyDefined() bool {
	full := true
	g.pool.Each(func(id rclist.ID) {
		if g.pool.Get(id).kind == Undef {
			full = false
		}
	})
	return full
}
