// Package expand implements the Expander: a demand-driven, cooperative
// scheduler that turns a Graph root and a target length into an ExpGraph
// whose every node has a statically known, finite combination count.
//
// Grounded on original_source/src/expander.{h,cpp}. The original threads
// thunks through an intrusive rclist and keys its caches on raw Graph
// node pointers wrapped in a ComparablePointer so std::map can compare by
// value; Go's structural equality on comparable structs makes both
// unnecessary — graph.Ref is already a plain comparable handle, so Key
// and the thunk pool are plain maps and a plain slice arena.
package expand

import (
	"fmt"
	"math"

	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/expgraph"
	"github.com/sipa/gramtropy/internal/graph"
)

// Key identifies a unit of expansion work: "expand node's language, cut
// down to phrases of length len, considering only children at index
// offset or later (for bisecting a long CONCAT without building new Graph
// nodes)". cutoff is reserved for future length-range expansion and is
// always 0 for a single fixed-length Expand call.
type Key struct {
	Len    int
	Offset int
	Cutoff int
	Ref    graph.Ref
}

type thunkKind int

const (
	thunkNone thunkKind = iota
	thunkConcat
	thunkDisjunct
	thunkDedup
	thunkLenLimit
)

type thunkID int

// thunk is either a primary thunk (has a Key, came from AddDep) or an
// anonymous composition thunk representing one CONCAT split (key is the
// zero Key and it is never looked up in thunkmap).
type thunk struct {
	needExpansion bool
	done          bool
	todo          bool
	key           Key
	kind          thunkKind
	result        expgraph.Ref
	deps          []thunkID
	forward       map[thunkID]bool
}

// deque is a double-ended queue of thunkIDs supporting O(1) push/pop at
// both ends via the classic two-stack construction.
type deque struct {
	front []thunkID
	back  []thunkID
}

func (d *deque) empty() bool { return len(d.front) == 0 && len(d.back) == 0 }

func (d *deque) pushBack(id thunkID)  { d.back = append(d.back, id) }
func (d *deque) pushFront(id thunkID) { d.front = append(d.front, id) }

func (d *deque) popFront() thunkID {
	if n := len(d.front); n > 0 {
		id := d.front[n-1]
		d.front = d.front[:n-1]
		return id
	}
	id := d.back[0]
	d.back = d.back[1:]
	return id
}

// Expander turns Graph nodes into ExpGraph nodes at a fixed length.
type Expander struct {
	g  *graph.Graph
	eg *expgraph.Graph

	maxNodes  int
	maxThunks int

	thunks   []*thunk
	thunkmap map[Key]thunkID
	todo     deque

	empty expgraph.Ref
}

// New returns an Expander reading from g and allocating into eg, bounding
// the expansion to at most maxNodes ExpGraph nodes and maxThunks thunks.
func New(g *graph.Graph, eg *expgraph.Graph, maxNodes, maxThunks int) *Expander {
	return &Expander{g: g, eg: eg, maxNodes: maxNodes, maxThunks: maxThunks, thunkmap: map[Key]thunkID{}}
}

func (e *Expander) get(id thunkID) *thunk { return e.thunks[id] }

func (e *Expander) newThunk() thunkID {
	id := thunkID(len(e.thunks))
	e.thunks = append(e.thunks, &thunk{forward: map[thunkID]bool{}})
	return id
}

func (e *Expander) newKeyedThunk(key Key) thunkID {
	id := e.newThunk()
	t := e.get(id)
	t.needExpansion = true
	t.key = key
	return id
}

// AddTodo enqueues ref for processing unless it is already queued.
// priority pushes it to the front, for work that should be handled before
// anything already queued (keeps a single CONCAT split's two halves
// moving together rather than starving behind unrelated breadth).
func (e *Expander) AddTodo(id thunkID, priority bool) {
	t := e.get(id)
	if t.todo {
		return
	}
	t.todo = true
	if priority {
		e.todo.pushFront(id)
	} else {
		e.todo.pushBack(id)
	}
}

// AddDep records that parent depends on key's expansion, creating key's
// thunk on first reference (hasParent is false only for the Expand entry
// point's dummy root dependency).
func (e *Expander) AddDep(key Key, parent thunkID, hasParent bool) {
	id, ok := e.thunkmap[key]
	if !ok {
		id = e.newKeyedThunk(key)
		e.thunkmap[key] = id
	}
	t := e.get(id)
	if !t.done {
		e.AddTodo(id, false)
		if hasParent {
			t.forward[parent] = true
		}
	}
	if hasParent {
		e.get(parent).deps = append(e.get(parent).deps, id)
	}
}

// ProcessThunk advances ref one step: performing its initial structural
// unfold if needed, then attempting to finalize it from its (possibly
// still-pending) dependencies. Mirrors Expander::ProcessThunk.
func (e *Expander) ProcessThunk(id thunkID) {
	t := e.get(id)
	if t.done {
		return
	}

	if t.needExpansion {
		t.needExpansion = false
		e.expand(id)
		t = e.get(id)
	}

	if !t.done {
		switch t.kind {
		case thunkDisjunct:
			e.finalizeDisjunct(id)
		case thunkConcat:
			e.finalizeConcat(id)
		case thunkDedup:
			e.finalizeDedup(id)
		case thunkLenLimit:
			e.finalizeLenLimit(id)
		}
	}

	t = e.get(id)
	if t.done {
		for fwd := range t.forward {
			e.AddTodo(fwd, true)
		}
		t.forward = map[thunkID]bool{}
		for _, dep := range t.deps {
			delete(e.get(dep).forward, id)
		}
		t.deps = nil
	}
}

// expand performs a thunk's initial structural unfold: resolving what
// kind of Graph node it targets and either finishing immediately (NONE,
// EMPTY, DICT) or registering dependencies on its children.
func (e *Expander) expand(id thunkID) {
	t := e.get(id)
	key := t.key
	switch e.g.Kind(key.Ref) {
	case graph.None:
		t.done = true
	case graph.Empty:
		t.done = true
		if key.Len == 0 {
			if !e.empty.Valid() {
				e.empty = e.eg.NewDict([]string{""})
			}
			t.result = e.empty
		}
	case graph.Dict:
		var matches []string
		for _, s := range e.g.Dict(key.Ref) {
			if len(s) == key.Len {
				matches = append(matches, s)
			}
		}
		t.done = true
		if len(matches) > 0 {
			t.result = e.eg.NewDict(matches)
		}
	case graph.Disjunct:
		children := e.g.Children(key.Ref)
		if len(children) == 0 {
			t.done = true
			return
		}
		t.kind = thunkDisjunct
		for _, c := range children {
			e.AddDep(Key{Len: key.Len, Ref: c}, id, true)
		}
	case graph.Concat:
		e.expandConcat(id)
	case graph.Dedup:
		t.kind = thunkDedup
		children := e.g.Children(key.Ref)
		e.AddDep(Key{Len: key.Len, Ref: children[0]}, id, true)
	case graph.LenLimit:
		min, max := e.g.LenLimit(key.Ref)
		if key.Len < min || (max >= 0 && key.Len > max) {
			t.done = true
			return
		}
		t.kind = thunkLenLimit
		children := e.g.Children(key.Ref)
		e.AddDep(Key{Len: key.Len, Ref: children[0]}, id, true)
	default:
		panic(fmt.Sprintf("expand: unhandled graph node kind %v", e.g.Kind(key.Ref)))
	}
}

// expandConcat bisects a CONCAT node's children at key.Offset: for every
// split point s of the requested length, it spawns an anonymous
// composition thunk depending on "first child at length s" and "the rest
// of the children (as a real second child, or a virtual offset-shifted
// node) at length key.Len - s". Split points whose side is already known
// to be empty are skipped.
func (e *Expander) expandConcat(id thunkID) {
	t := e.get(id)
	key := t.key
	t.kind = thunkDisjunct

	children := e.g.Children(key.Ref)
	for s := 0; s <= key.Len; s++ {
		key1 := Key{Len: s, Ref: children[key.Offset]}
		var key2 Key
		if len(children) == 2+key.Offset {
			key2 = Key{Len: key.Len - s, Ref: children[key.Offset+1]}
		} else {
			key2 = Key{Len: key.Len - s, Ref: key.Ref, Offset: key.Offset + 1}
		}
		if e.knownEmpty(key1) || e.knownEmpty(key2) {
			continue
		}
		sub := e.newThunk()
		subT := e.get(sub)
		subT.kind = thunkConcat
		t.deps = append(t.deps, sub)
		subT.forward[id] = true
		if key1.Len <= key2.Len {
			e.AddDep(key1, sub, true)
			e.AddDep(key2, sub, true)
		} else {
			e.AddDep(key2, sub, true)
			e.AddDep(key1, sub, true)
			subT.deps[0], subT.deps[1] = subT.deps[1], subT.deps[0]
		}
		e.AddTodo(sub, true)
		t = e.get(id)
	}
	if len(t.deps) == 0 {
		t.done = true
	}
}

// knownEmpty reports whether key's thunk already exists, is done, and
// carries no result — i.e. that branch is provably empty at this length,
// so expandConcat can skip spawning a composition thunk for it.
func (e *Expander) knownEmpty(key Key) bool {
	id, ok := e.thunkmap[key]
	if !ok {
		return false
	}
	t := e.get(id)
	return t.done && !t.result.Valid()
}

func (e *Expander) finalizeDisjunct(id thunkID) {
	t := e.get(id)
	var refs []expgraph.Ref
	for _, dep := range t.deps {
		d := e.get(dep)
		if !d.done {
			return
		}
		if d.result.Valid() {
			refs = append(refs, d.result)
		}
	}
	t.done = true
	if len(refs) > 0 {
		t.result = e.eg.NewDisjunct(refs)
	}
}

func (e *Expander) finalizeConcat(id thunkID) {
	t := e.get(id)
	var refs []expgraph.Ref
	waiting := false
	none := false
	for _, dep := range t.deps {
		d := e.get(dep)
		if !d.done {
			waiting = true
			continue
		}
		if !d.result.Valid() {
			none = true
			break
		}
		if e.eg.Len(d.result) != 0 {
			refs = append(refs, d.result)
		}
	}
	if waiting && !none {
		return
	}
	t.done = true
	if none {
		return
	}
	if len(refs) > 0 {
		t.result = e.eg.NewConcat(refs)
	} else if len(t.deps) > 0 {
		// Every part matched only the empty string: so does the whole.
		t.result = e.get(t.deps[0]).result
	}
}

func (e *Expander) finalizeDedup(id thunkID) {
	t := e.get(id)
	dep := e.get(t.deps[0])
	if !dep.done {
		return
	}
	t.done = true
	if !dep.result.Valid() {
		return
	}
	inl := e.eg.Inline(dep.result)
	sub := e.eg.NewDict(inl)
	if e.eg.Count(sub).Cmp(e.eg.Count(dep.result)) == 0 {
		// No duplicates: the expanded dictionary form is equivalent and
		// cheaper to index, so it replaces the dependency's own result too.
		dep.result = sub
	}
	t.result = sub
}

func (e *Expander) finalizeLenLimit(id thunkID) {
	t := e.get(id)
	dep := e.get(t.deps[0])
	if !dep.done {
		return
	}
	t.done = true
	t.result = dep.result
}

// Expand expands ref's language to exactly the phrases of length len,
// returning the resulting ExpGraph node. It returns an error ("infinite
// recursion", "maximum node count exceeded", "maximum thunk count
// exceeded") if the bounds in New are exceeded before the root thunk
// finishes. A done root with no result means the language is empty at
// this length, which is not itself an error.
func (e *Expander) Expand(ref graph.Ref, length int) (expgraph.Ref, error) {
	key := Key{Len: length, Ref: ref}
	e.AddDep(key, 0, false)
	root := e.thunkmap[key]

	for !e.get(root).done {
		if e.todo.empty() {
			return expgraph.Ref{}, fmt.Errorf("infinite recursion")
		}
		if e.eg.NodeCount() > e.maxNodes {
			return expgraph.Ref{}, fmt.Errorf("maximum node count exceeded")
		}
		if len(e.thunks) > e.maxThunks {
			return expgraph.Ref{}, fmt.Errorf("maximum thunk count exceeded")
		}
		now := e.todo.popFront()
		e.get(now).todo = false
		e.ProcessThunk(now)
	}

	return e.get(root).result, nil
}

// ExpandForBits is the range expander: it requests per-length expansions
// over [minLen, maxLen], accumulating counts into a growing window of
// lengths, until the window's total count reaches 2^minBits * (1+overshoot)
// (a goal of minBits + log2(1+overshoot) bits). It then trims the window's low end down to the
// smallest contiguous suffix whose count still covers 2^minBits, and
// returns the DISJUNCT of that surviving length range. It fails if no
// window in [minLen, maxLen] ever reaches the entropy target.
//
// Grounded on ExpandForBits in original_source/src/gramc.cpp.
func ExpandForBits(g *graph.Graph, eg *expgraph.Graph, main graph.Ref, minBits, overshoot float64, minLen, maxLen, maxNodes, maxThunks int) (expgraph.Ref, error) {
	exp := New(g, eg, maxNodes, maxThunks)
	goalBits := minBits + math.Log1p(overshoot)/math.Log(2.0)

	var refs []expgraph.Ref
	total := bignat.Zero()

	for length := minLen; length <= maxLen; length++ {
		r, err := exp.Expand(main, length)
		if err != nil {
			return expgraph.Ref{}, err
		}
		if !r.Valid() {
			continue
		}
		total = total.Add(eg.Count(r))
		refs = append(refs, r)

		if total.Log2() >= goalBits {
			start := 0
			for start < len(refs) {
				next := total.Sub(eg.Count(refs[start]))
				if next.Log2() >= minBits {
					total = next
					start++
				} else {
					for _, dropped := range refs[:start] {
						eg.Release(dropped)
					}
					refs = refs[start:]
					return eg.NewDisjunct(refs), nil
				}
			}
		}
	}

	return expgraph.Ref{}, fmt.Errorf("no solution with enough entropy in range")
}
