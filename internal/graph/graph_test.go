package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDictFolding(t *testing.T) {
	g := New()

	empty := g.NewDict(nil)
	require.Equal(t, None, g.Kind(empty))

	oneEmptyString := g.NewDict([]string{""})
	require.Equal(t, Empty, g.Kind(oneEmptyString))

	lit := g.NewDict([]string{"a", "b"})
	require.Equal(t, Dict, g.Kind(lit))
	require.Equal(t, []string{"a", "b"}, g.Dict(lit))
}

func TestNewConcatCollapsesSingleton(t *testing.T) {
	g := New()
	a := g.NewString("a")
	require.Equal(t, a, g.NewConcat([]Ref{a}))
	require.Equal(t, Empty, g.Kind(g.NewConcat(nil)))
}

func TestNewDisjunctCollapsesSingleton(t *testing.T) {
	g := New()
	a := g.NewString("a")
	require.Equal(t, a, g.NewDisjunct([]Ref{a}))
	require.Equal(t, None, g.Kind(g.NewDisjunct(nil)))
}

func TestNewDedupIsIdempotentOnDictAndDedup(t *testing.T) {
	g := New()
	d := g.NewDict([]string{"a", "b"})
	require.Equal(t, d, g.NewDedup(d))

	// A disjunct of two literals would fold into a single DICT, so an EMPTY
	// branch keeps this one a DISJUNCT.
	other := g.NewDisjunct2(g.NewString("x"), g.NewEmpty())
	wrapped := g.NewDedup(g.Retain(other))
	require.Equal(t, Dedup, g.Kind(wrapped))
	require.Equal(t, wrapped, g.NewDedup(g.Retain(wrapped)))
}

func TestRetainIncreasesRefCountAndReleaseDecreases(t *testing.T) {
	g := New()
	r := g.NewString("a")
	require.True(t, g.Unique(r))

	g.Retain(r)
	require.False(t, g.Unique(r))

	g.Release(r)
	require.True(t, g.Unique(r))
}

func TestDefineAbsorbsUniqueDefinition(t *testing.T) {
	g := New()
	undef := g.NewUndefined()
	require.False(t, g.IsDefined(undef))

	def := g.NewString("hello")
	g.Define(undef, def)

	require.True(t, g.IsDefined(undef))
	require.Equal(t, Dict, g.Kind(undef))
	require.Equal(t, []string{"hello"}, g.Dict(undef))
}

func TestDefineWrapsSharedDefinitionInDisjunct(t *testing.T) {
	g := New()
	undef := g.NewUndefined()
	def := g.NewString("hello")
	g.Retain(def) // definition now has two owners, so it is not unique

	g.Define(undef, def)

	require.True(t, g.IsDefined(undef))
	require.Equal(t, Disjunct, g.Kind(undef))
	require.Equal(t, []Ref{def}, g.Children(undef))
}

func TestFullyDefinedDetectsUnboundUndef(t *testing.T) {
	g := New()
	require.True(t, g.FullyDefined())

	undef := g.NewUndefined()
	require.False(t, g.FullyDefined())

	g.Define(undef, g.NewString("x"))
	require.True(t, g.FullyDefined())
}

func TestNewLenLimitStoresBounds(t *testing.T) {
	g := New()
	child := g.NewString("a")
	r := g.NewLenLimit(1, 5, child)
	min, max := g.LenLimit(r)
	require.Equal(t, 1, min)
	require.Equal(t, 5, max)
}
