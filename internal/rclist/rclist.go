// Package rclist is a pool-allocated arena of reference-counted values with
// stable handles and re-entrant-safe cascading destruction.
//
// It is the Go re-architecture (per spec.md Design Notes) of the intrusive
// doubly-linked reference-counted list in
// original_source/src/rclist.h: instead of raw-pointer nodes threaded
// through a sentinel, values live in a slice and handles are indices, which
// is the idiomatic Go shape for a pool with stable references ("handles are
// indices or reference-counted pool iterators").
//
// Go's garbage collector reclaims memory on its own, so rclist's reference
// count is not a memory-management mechanism here — it is the "uniquely
// owned" signal the Graph and ExpGraph optimizers use to decide whether a
// node may be mutated or merged in place (spec.md §4.1: "the reference
// count from outside the graph; it prevents mutation of nodes shared by
// other handles"). Dropping the last reference still runs the value's
// registered destructor synchronously and cascades into its children,
// exactly as the original does, via a pending queue rather than recursion,
// so a long chain of drops (e.g. a deeply nested CONCAT) cannot overflow
// the stack and cannot reenter the arena while it is already draining.
package rclist

// ID is a stable handle into a Pool. The zero ID never refers to a live
// value; pools reserve index 0 as a sentinel the way the original
// reserves the list's sentinel node.
type ID uint32

const nilID ID = 0

type entry[T any] struct {
	value T
	refs  uint32
	alive bool
}

// Pool is an arena of reference-counted T values. Children extracts the
// handles a value holds onto, so dropping a value's last reference can
// unref its children in turn; when set, it is called for every destroyed
// value (it may be nil for leaf value types).
type Pool[T any] struct {
	entries  []entry[T]
	free     []ID
	pending  []ID
	draining bool
	children func(*T) []ID
}

// New creates an empty pool. children may be nil for leaf value types that
// never hold handles into the same pool.
func New[T any](children func(*T) []ID) *Pool[T] {
	p := &Pool[T]{children: children}
	// index 0 is reserved so the zero ID is never a valid handle.
	p.entries = append(p.entries, entry[T]{})
	return p
}

// Alloc inserts v with an initial reference count of 1 and returns its
// handle.
func (p *Pool[T]) Alloc(v T) ID {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		p.entries[id] = entry[T]{value: v, refs: 1, alive: true}
		return id
	}
	id := ID(len(p.entries))
	p.entries = append(p.entries, entry[T]{value: v, refs: 1, alive: true})
	return id
}

// Ref increments id's reference count. It is a no-op on the nil ID.
func (p *Pool[T]) Ref(id ID) {
	if id == nilID {
		return
	}
	p.entries[id].refs++
}

// Unref decrements id's reference count, destroying it (and cascading into
// its children) once the count reaches zero. It is a no-op on the nil ID.
func (p *Pool[T]) Unref(id ID) {
	if id == nilID {
		return
	}
	e := &p.entries[id]
	e.refs--
	if e.refs > 0 {
		return
	}
	p.pending = append(p.pending, id)
	p.drain()
}

// drain frees every entry in the pending queue, including any entries
// queued by Unref calls made while draining (from a value's own children).
// The draining flag makes re-entry safe: a nested Unref call that reaches
// zero only enqueues, it never recurses into a second drain loop.
func (p *Pool[T]) drain() {
	if p.draining {
		return
	}
	p.draining = true
	defer func() { p.draining = false }()
	for len(p.pending) > 0 {
		id := p.pending[len(p.pending)-1]
		p.pending = p.pending[:len(p.pending)-1]
		e := &p.entries[id]
		if !e.alive {
			continue
		}
		e.alive = false
		var kids []ID
		if p.children != nil {
			kids = p.children(&e.value)
		}
		var zero T
		e.value = zero
		p.free = append(p.free, id)
		for _, k := range kids {
			p.Unref(k)
		}
	}
}

// Retire marks id dead and returns its slot to the free list without
// invoking the children callback — for callers that have already taken
// ownership of whatever id's value held (e.g. an in-place "absorb"
// optimization that transplants one value's payload into another value's
// slot and discards the donor). id must have exactly one outstanding
// reference; Retire panics otherwise, since retiring a shared value out
// from under another holder would leave that holder's handle dangling.
func (p *Pool[T]) Retire(id ID) {
	if id == nilID {
		return
	}
	e := &p.entries[id]
	if e.refs != 1 {
		panic("rclist: Retire called on a non-uniquely-owned id")
	}
	e.alive = false
	e.refs = 0
	var zero T
	e.value = zero
	p.free = append(p.free, id)
}

// Get returns a pointer to id's value. The pointer is only good until the
// next Alloc: an Alloc that appends may move the pool's backing storage,
// so callers fetch the pointer again after any call that can allocate.
func (p *Pool[T]) Get(id ID) *T {
	return &p.entries[id].value
}

// Unique reports whether id has exactly one outstanding reference, the
// "uniquely owned" test the optimizer uses before mutating a node in
// place.
func (p *Pool[T]) Unique(id ID) bool {
	return p.entries[id].refs == 1
}

// RefCount returns id's current reference count, mostly useful for tests.
func (p *Pool[T]) RefCount(id ID) uint32 {
	return p.entries[id].refs
}

// Len returns the number of live entries in the pool.
func (p *Pool[T]) Len() int {
	n := 0
	for _, e := range p.entries {
		if e.alive {
			n++
		}
	}
	return n
}

// Each calls fn for every live entry's handle, in increasing ID order
// (which is not allocation order once freed slots are reused). It is
// used by the Graph/ExpGraph optimizers' fixed-point passes, which need to
// revisit every still-live node each round.
func (p *Pool[T]) Each(fn func(ID)) {
	for id := 1; id < len(p.entries); id++ {
		if p.entries[ID(id)].alive {
			fn(ID(id))
		}
	}
}
