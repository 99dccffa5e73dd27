package coder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/expgraph"
)

func TestGenerateParseRoundTripDict(t *testing.T) {
	eg := expgraph.New()
	r := eg.NewDict([]string{"cherry", "apples", "banana"})
	n := FromExpGraph(eg, r)

	count := n.Count()
	one := bignat.FromUint64(1)
	for i := bignat.Zero(); i.Less(count); i = i.Add(one) {
		phrase := Generate(n, i)
		got, ok := Parse(n, phrase)
		require.True(t, ok)
		require.Equal(t, 0, got.Cmp(i))
	}
}

func TestGenerateParseRoundTripConcat(t *testing.T) {
	eg := expgraph.New()
	letters := eg.NewDict([]string{"a", "b", "c"})
	digits := eg.NewDict([]string{"0", "1"})
	r := eg.NewConcat([]expgraph.Ref{letters, digits})
	n := FromExpGraph(eg, r)

	count := n.Count()
	one := bignat.FromUint64(1)
	seen := map[string]bool{}
	for i := bignat.Zero(); i.Less(count); i = i.Add(one) {
		phrase := Generate(n, i)
		require.False(t, seen[string(phrase)], "each index must map to a distinct phrase")
		seen[string(phrase)] = true

		got, ok := Parse(n, phrase)
		require.True(t, ok)
		require.Equal(t, 0, got.Cmp(i))
	}
	require.Len(t, seen, 6)
}

func TestGenerateParseRoundTripDisjunctOfDifferentLengths(t *testing.T) {
	eg := expgraph.New()
	short := eg.NewDict([]string{"a", "b", "c", "d"})
	long := eg.NewDict([]string{"xxxxxxxx"})
	r := eg.NewDisjunct([]expgraph.Ref{short, long})
	n := FromExpGraph(eg, r)

	count := n.Count()
	one := bignat.FromUint64(1)
	for i := bignat.Zero(); i.Less(count); i = i.Add(one) {
		phrase := Generate(n, i)
		got, ok := Parse(n, phrase)
		require.True(t, ok)
		require.Equal(t, 0, got.Cmp(i))
	}
}

func TestParseRejectsUnknownPhrase(t *testing.T) {
	eg := expgraph.New()
	r := eg.NewDict([]string{"aa", "bb"})
	n := FromExpGraph(eg, r)

	_, ok := Parse(n, []byte("zz"))
	require.False(t, ok)

	_, ok = Parse(n, []byte("a"))
	require.False(t, ok, "wrong length must be rejected")
}

func TestGeneratePanicsOnOutOfRangeIndex(t *testing.T) {
	eg := expgraph.New()
	r := eg.NewDict([]string{"aa", "bb"})
	n := FromExpGraph(eg, r)

	require.Panics(t, func() { Generate(n, bignat.FromUint64(2)) })
}
