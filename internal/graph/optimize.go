package graph

import "github.com/sipa/gramtropy/internal/rclist"

// optimizeDict folds a freshly built DICT node: an empty set is the empty
// language (NONE), and a set containing only the empty string is the
// language {""} (EMPTY), matching OptimizeDict in
// original_source/src/graph.cpp.
func (g *Graph) optimizeDict(r Ref) {
	n := g.get(r)
	switch {
	case len(n.dict) == 0:
		n.kind = None
		n.dict = nil
	case len(n.dict) == 1 && n.dict[0] == "":
		n.kind = Empty
		n.dict = nil
	}
}

// collapseDisjunct walks r's children, absorbing the ones that can be
// merged directly into the accumulator instead of kept as separate
// handles: NONE children vanish, uniquely-owned DISJUNCT and DICT children
// are flattened/merged in, and a singleton CONCAT child is replaced by its
// own child. It is the Go shape of CollapseDisjunct in
// original_source/src/graph.cpp.
func (g *Graph) collapseDisjunct(r Ref) (dict []string, refs []Ref, changed bool) {
	n := g.get(r)
	for _, id := range n.refs {
		child := Ref{id: id}
		switch g.Kind(child) {
		case None:
			changed = true
			g.Release(child)
		case Disjunct:
			if g.Unique(child) {
				changed = true
				subdict, subrefs, _ := g.collapseDisjunct(child)
				dict = append(dict, subdict...)
				refs = append(refs, subrefs...)
				g.pool.Retire(child.id)
			} else {
				refs = append(refs, child)
			}
		case Dict:
			if g.Unique(child) {
				// Moving a lone DICT child into the combined DICT is not a
				// change; merging a second one into it is.
				if len(dict) > 0 {
					changed = true
				}
				dict = append(dict, g.Dict(child)...)
				g.pool.Retire(child.id)
			} else {
				refs = append(refs, child)
			}
		case Concat:
			if kids := g.get(child).refs; len(kids) == 1 {
				changed = true
				grand := Ref{id: kids[0]}
				g.Retain(grand)
				refs = append(refs, grand)
				g.Release(child)
			} else {
				refs = append(refs, child)
			}
		default:
			refs = append(refs, child)
		}
	}
	return
}

// crossProduct concatenates every pair (a[i]+b[j]); it is only ever called
// with one of the two slices a singleton, so callers don't pay for an
// actual cross product in the common "literal prefix/suffix glued onto a
// DICT" case.
func crossProduct(a, b []string) []string {
	out := make([]string, 0, len(a)*len(b))
	for _, s1 := range a {
		for _, s2 := range b {
			out = append(out, s1+s2)
		}
	}
	return out
}

// collapseConcat is collapseDisjunct's CONCAT counterpart: EMPTY children
// vanish, uniquely-owned CONCAT children flatten, a singleton DISJUNCT
// child is replaced by its own child, and two adjacent uniquely-owned DICT
// children merge into one (by cross product) whenever at least one side
// has exactly one entry, so a literal glued onto a dictionary doesn't cost
// an extra CONCAT node. Mirrors CollapseConcat in
// original_source/src/graph.cpp.
func (g *Graph) collapseConcat(r Ref) (refs []Ref, changed bool) {
	n := g.get(r)
	for _, id := range n.refs {
		child := Ref{id: id}
		switch g.Kind(child) {
		case Empty:
			changed = true
			g.Release(child)
		case Concat:
			if g.Unique(child) {
				changed = true
				sub, _ := g.collapseConcat(child)
				refs = append(refs, sub...)
				g.pool.Retire(child.id)
			} else {
				refs = append(refs, child)
			}
		case Disjunct:
			if kids := g.get(child).refs; len(kids) == 1 {
				changed = true
				grand := Ref{id: kids[0]}
				g.Retain(grand)
				refs = append(refs, grand)
				g.Release(child)
			} else {
				refs = append(refs, child)
			}
		case Dict:
			if len(refs) > 0 {
				last := refs[len(refs)-1]
				if g.Kind(last) == Dict && g.Unique(last) && g.Unique(child) &&
					(len(g.Dict(last)) == 1 || len(g.Dict(child)) == 1) {
					changed = true
					g.get(last).dict = crossProduct(g.Dict(last), g.Dict(child))
					g.pool.Retire(child.id)
					continue
				}
			}
			refs = append(refs, child)
		default:
			refs = append(refs, child)
		}
	}
	return
}

// releaseAll drops every id in ids, used when a node short-circuits to
// NONE/EMPTY and no longer needs any of its former children.
func (g *Graph) releaseAll(ids []rclist.ID) {
	for _, id := range ids {
		g.Release(Ref{id: id})
	}
}

// absorb transplants src's payload into dst's slot and retires src, the
// same in-place-absorption optimization Define uses: dst keeps its own
// identity (other handles to dst stay valid) while taking on whatever src
// uniquely owned.
func (g *Graph) absorb(dst, src Ref) {
	d := g.get(dst)
	s := g.get(src)
	d.kind = s.kind
	d.refs = s.refs
	d.dict = s.dict
	d.min, d.max = s.min, s.max
	g.pool.Retire(src.id)
}

// optimizeDisjunct re-derives r's kind and payload after construction (or
// after a child changed underneath it): a NONE child is dropped outright
// via collapseDisjunct, and the DICT literals gathered along the way
// become a single DICT child ordered before the remaining DISJUNCT
// children. Mirrors OptimizeDisjunct in original_source/src/graph.cpp.
func (g *Graph) optimizeDisjunct(r Ref) bool {
	dict, refs, changed := g.collapseDisjunct(r)
	if len(dict) > 0 {
		refs = append([]Ref{g.NewDict(dict)}, refs...)
	}
	// collapseDisjunct and NewDict may have grown the pool, which can move
	// its backing storage, so the node pointer is fetched fresh here rather
	// than held across those calls.
	n := g.get(r)
	switch len(refs) {
	case 0:
		n.kind = None
		n.refs = nil
		return true
	case 1:
		if g.Unique(refs[0]) {
			g.absorb(r, refs[0])
			return true
		}
		n.kind = Disjunct
		n.refs = toIDs(refs)
		return changed
	default:
		n.kind = Disjunct
		n.refs = toIDs(refs)
		return changed
	}
}

// optimizeConcat re-derives r's kind and payload after construction: any
// NONE child makes the whole CONCAT NONE (and drops every sibling), the
// EMPTY/CONCAT/DISJUNCT/DICT folds of collapseConcat are applied, and a
// CONCAT left with a single uniquely-owned child absorbs it instead of
// keeping a pass-through wrapper. Mirrors OptimizeConcat in
// original_source/src/graph.cpp.
func (g *Graph) optimizeConcat(r Ref) bool {
	n := g.get(r)
	for _, id := range n.refs {
		if g.Kind(Ref{id: id}) == None {
			g.releaseAll(n.refs)
			n.refs = nil
			n.kind = None
			return true
		}
	}
	refs, changed := g.collapseConcat(r)
	switch len(refs) {
	case 0:
		n.kind = Empty
		n.refs = nil
		return true
	case 1:
		if g.Unique(refs[0]) {
			g.absorb(r, refs[0])
			return true
		}
		n.kind = Concat
		n.refs = toIDs(refs)
		return changed
	default:
		n.kind = Concat
		n.refs = toIDs(refs)
		return changed
	}
}

// Optimize runs the DICT/CONCAT/DISJUNCT folds over every live node to a
// fixed point: a pass that changes nothing ends the loop. Constructors
// already fold their own node on creation, so Optimize only has further
// work to do after a Define rewrote an UNDEF node's children out from
// under an already-built parent (spec.md §4.1: "Optimize(graph) runs
// fixed-point rewrite until stable").
func (g *Graph) Optimize() {
	for {
		changed := false
		g.pool.Each(func(id rclist.ID) {
			r := Ref{id: id}
			switch g.Kind(r) {
			case Dict:
				g.optimizeDict(r)
			case Concat:
				if g.optimizeConcat(r) {
					changed = true
				}
			case Disjunct:
				if g.optimizeDisjunct(r) {
					changed = true
				}
			}
		})
		if !changed {
			return
		}
	}
}
