package rclist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type leaf struct{ n int }

func noChildren(*leaf) []ID { return nil }

func TestAllocAndGet(t *testing.T) {
	p := New[leaf](noChildren)
	id := p.Alloc(leaf{n: 7})
	require.NotEqual(t, nilID, id)
	require.Equal(t, 7, p.Get(id).n)
	require.Equal(t, uint32(1), p.RefCount(id))
	require.True(t, p.Unique(id))
}

func TestRefUnrefDestroys(t *testing.T) {
	p := New[leaf](noChildren)
	id := p.Alloc(leaf{n: 1})
	p.Ref(id)
	require.Equal(t, uint32(2), p.RefCount(id))
	require.False(t, p.Unique(id))

	p.Unref(id)
	require.Equal(t, uint32(1), p.RefCount(id))
	require.Equal(t, 1, p.Len())

	p.Unref(id)
	require.Equal(t, 0, p.Len())
}

func TestUnrefCascadesToChildren(t *testing.T) {
	type branch struct{ kids []ID }
	children := func(b *branch) []ID { return b.kids }
	p := New[branch](children)

	child := p.Alloc(branch{})
	parent := p.Alloc(branch{kids: []ID{child}})

	require.Equal(t, 2, p.Len())
	p.Unref(parent)
	require.Equal(t, 0, p.Len())
}

func TestUnrefOfSharedChildSurvivesSiblingDrop(t *testing.T) {
	type branch struct{ kids []ID }
	children := func(b *branch) []ID { return b.kids }
	p := New[branch](children)

	child := p.Alloc(branch{})
	p.Ref(child)
	parentA := p.Alloc(branch{kids: []ID{child}})
	_ = p.Alloc(branch{kids: []ID{child}})

	p.Unref(parentA)
	require.Equal(t, uint32(1), p.RefCount(child))
	require.True(t, p.Get(child) != nil)
}

func TestRetirePanicsOnSharedID(t *testing.T) {
	p := New[leaf](noChildren)
	id := p.Alloc(leaf{n: 1})
	p.Ref(id)
	require.Panics(t, func() { p.Retire(id) })
}

func TestRetireFreesUniqueSlotWithoutTouchingChildren(t *testing.T) {
	type branch struct{ kids []ID }
	children := func(b *branch) []ID { return b.kids }
	p := New[branch](children)

	child := p.Alloc(branch{})
	donor := p.Alloc(branch{kids: []ID{child}})

	p.Retire(donor)
	require.Equal(t, uint32(1), p.RefCount(child), "Retire must not unref the donor's children")
}

func TestAllocReusesFreedSlots(t *testing.T) {
	p := New[leaf](noChildren)
	a := p.Alloc(leaf{n: 1})
	p.Unref(a)
	b := p.Alloc(leaf{n: 2})
	require.Equal(t, a, b, "freed slots should be reused by the next Alloc")
}

func TestEachVisitsOnlyLiveEntriesInAllocationOrder(t *testing.T) {
	p := New[leaf](noChildren)
	a := p.Alloc(leaf{n: 1})
	b := p.Alloc(leaf{n: 2})
	c := p.Alloc(leaf{n: 3})
	p.Unref(b)

	var seen []ID
	p.Each(func(id ID) { seen = append(seen, id) })
	require.Equal(t, []ID{a, c}, seen)
}
