package expand

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/expgraph"
	"github.com/sipa/gramtropy/internal/graph"
	"github.com/sipa/gramtropy/internal/parser"
)

func mustParse(t *testing.T, src string) (*graph.Graph, graph.Ref) {
	t.Helper()
	g := graph.New()
	main, err := parser.Parse(g, []byte(src))
	require.NoError(t, err)
	return g, main
}

func TestExpandDictAtMatchingLength(t *testing.T) {
	g, main := mustParse(t, `main = "a" | "b" | "c";`)
	eg := expgraph.New()
	e := New(g, eg, 1000, 1000)

	r, err := e.Expand(main, 1)
	require.NoError(t, err)
	require.True(t, r.Valid())
	require.Equal(t, 0, eg.Count(r).Cmp(bignat.FromUint64(3)))
}

func TestExpandAtNonMatchingLengthIsEmptyWithoutError(t *testing.T) {
	g, main := mustParse(t, `main = "a" | "b" | "c";`)
	eg := expgraph.New()
	e := New(g, eg, 1000, 1000)

	r, err := e.Expand(main, 2)
	require.NoError(t, err)
	require.False(t, r.Valid())
}

func TestExpandConcatOfRegexDigits(t *testing.T) {
	g, main := mustParse(t, `d = /[0-9]/; main = d d d d;`)
	eg := expgraph.New()
	e := New(g, eg, 100000, 100000)

	r, err := e.Expand(main, 4)
	require.NoError(t, err)
	require.True(t, r.Valid())
	require.Equal(t, 0, eg.Count(r).Cmp(bignat.FromUint64(10000)))
	require.Equal(t, 4, eg.Len(r))
}

func TestExpandStarProducesEveryLength(t *testing.T) {
	g, main := mustParse(t, `main = "a"*;`)
	eg := expgraph.New()

	for length := 0; length <= 3; length++ {
		e := New(g, eg, 10000, 10000)
		r, err := e.Expand(main, length)
		require.NoError(t, err)
		require.True(t, r.Valid(), "length %d should be reachable", length)
		require.Equal(t, 0, eg.Count(r).Cmp(bignat.FromUint64(1)))
	}
}

func TestExpandForBitsPicksMinimalSufficientWindow(t *testing.T) {
	g, main := mustParse(t, `main = "a" | "b" | "c";`)
	eg := expgraph.New()

	r, err := ExpandForBits(g, eg, main, 1, 0, 1, 1, 10000, 10000)
	require.NoError(t, err)
	require.Equal(t, 0, eg.Count(r).Cmp(bignat.FromUint64(3)))
}

func TestExpandForBitsFailsWhenRangeCannotReachTarget(t *testing.T) {
	g, main := mustParse(t, `main = "a" | "b";`)
	eg := expgraph.New()

	_, err := ExpandForBits(g, eg, main, 64, 0, 1, 1, 10000, 10000)
	require.Error(t, err)
}

func TestExpandForBitsAccumulatesAcrossLengths(t *testing.T) {
	g, main := mustParse(t, `main = "a"*;`)
	eg := expgraph.New()

	// Each length 0..N contributes exactly 1 phrase, so reaching 8 bits of
	// entropy (256 combinations) needs the window to span enough lengths.
	r, err := ExpandForBits(g, eg, main, 8, 0, 0, 1000, 100000, 100000)
	require.NoError(t, err)
	require.True(t, eg.Count(r).GreaterEq(bignat.FromUint64(256)))
}
