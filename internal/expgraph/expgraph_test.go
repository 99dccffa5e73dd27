package expgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipa/gramtropy/internal/bignat"
)

func TestNewDictCountsAndDedups(t *testing.T) {
	g := New()
	r := g.NewDict([]string{"ab", "ab", "cd"})
	require.Equal(t, Dict, g.Kind(r))
	require.Equal(t, 2, g.Dict(r).Len())
	require.True(t, g.Count(r).Cmp(bignat.FromUint64(2)) == 0)
	require.Equal(t, 2, g.Len(r))
}

func TestNewDictPanicsOnEmpty(t *testing.T) {
	g := New()
	require.Panics(t, func() { g.NewDict(nil) })
}

func TestNewConcatMultipliesCountsAndSumsLengths(t *testing.T) {
	g := New()
	a := g.NewDict([]string{"aa", "bb"}) // count 2, len 2
	b := g.NewDict([]string{"x", "y", "z"}) // count 3, len 1
	c := g.NewConcat([]Ref{a, b})
	require.Equal(t, Concat, g.Kind(c))
	require.True(t, g.Count(c).Cmp(bignat.FromUint64(6)) == 0)
	require.Equal(t, 3, g.Len(c))
}

func TestNewConcatCollapsesSingleton(t *testing.T) {
	g := New()
	a := g.NewDict([]string{"a"})
	require.Equal(t, a, g.NewConcat([]Ref{a}))
}

func TestNewDisjunctSumsCountsAndTracksCommonLength(t *testing.T) {
	g := New()
	a := g.NewDict([]string{"aa", "bb"}) // len 2
	b := g.NewDict([]string{"cc"})       // len 2
	d := g.NewDisjunct([]Ref{a, b})
	require.True(t, g.Count(d).Cmp(bignat.FromUint64(3)) == 0)
	require.Equal(t, 2, g.Len(d))
}

func TestNewDisjunctMixedLengthIsMinusOne(t *testing.T) {
	g := New()
	a := g.NewDict([]string{"a"})
	b := g.NewDict([]string{"bb"})
	d := g.NewDisjunct([]Ref{a, b})
	require.Equal(t, -1, g.Len(d))
}

func TestSmallDisjunctOptimizesToDict(t *testing.T) {
	g := New()
	// Count fits in 6 bits (<= 63), so the disjunct inlines to a DICT.
	a := g.NewDict([]string{"a"})
	b := g.NewDict([]string{"b"})
	d := g.NewDisjunct([]Ref{a, b})
	require.Equal(t, Dict, g.Kind(d))
	all := g.Dict(d).All()
	strs := make([]string, len(all))
	for i, b := range all {
		strs[i] = string(b)
	}
	require.ElementsMatch(t, []string{"a", "b"}, strs)
}

func TestInlineConcatProducesCrossProduct(t *testing.T) {
	g := New()
	a := g.NewDict([]string{"x", "y"})
	b := g.NewDict([]string{"1", "2"})
	c := g.NewConcat([]Ref{a, b})
	got := g.Inline(c)
	require.ElementsMatch(t, []string{"x1", "x2", "y1", "y2"}, got)
}

func TestRetainReleaseAndNodeCount(t *testing.T) {
	g := New()
	a := g.NewDict([]string{"a"})
	before := g.NodeCount()
	g.Retain(a)
	require.False(t, g.Unique(a))
	g.Release(a)
	require.True(t, g.Unique(a))
	g.Release(a)
	require.Equal(t, before-1, g.NodeCount())
}
