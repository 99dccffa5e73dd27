package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipa/gramtropy/internal/graph"
	"github.com/sipa/gramtropy/internal/parser"
)

func TestLearnCollapsesChainsAndDropsNonBranchingStates(t *testing.T) {
	// "" and the intermediate single-edge states are absorbed into the one
	// branching state's chained literals, mirroring dictgen.py's behavior of
	// dropping any state with a single outgoing transition from its own
	// symbol and folding it into whichever branching predecessor reaches it.
	states, names, err := learn(strings.NewReader("ab\nac\n"), 2)
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, []string{"a"}, names[0])

	var buf bytes.Buffer
	writeGrammar(&buf, states, names)
	require.Equal(t, "s0 = \"b\" | \"c\"; # a\nmain = s0 (\" \" s0)+;\n", buf.String())
}

func TestLearnChainsThroughMultipleSingleEdgeHops(t *testing.T) {
	states, names, err := learn(strings.NewReader("cat\ncot\n"), 3)
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, []string{"c"}, names[0])

	var buf bytes.Buffer
	writeGrammar(&buf, states, names)
	require.Equal(t, "s0 = \"at\" | \"ot\"; # c\nmain = s0 (\" \" s0)+;\n", buf.String())
}

func TestCollapseChainsSkipsNonBranchingStates(t *testing.T) {
	in := map[int][]edge{
		0: {{lit: "a", next: 1}},
		1: {{lit: "x", next: 2}, {lit: "y", terminal: true}},
		2: {{lit: "z", terminal: true}},
	}
	out := collapseChains(in)
	require.Len(t, out, 1)
	require.ElementsMatch(t, []edge{{lit: "xz", terminal: true}, {lit: "y", terminal: true}}, out[1])
}

func TestMergeEquivalentDeduplicatesIdenticalSignatures(t *testing.T) {
	states := map[int][]edge{
		1: {{lit: "x", terminal: true}},
		2: {{lit: "x", terminal: true}},
	}
	names := map[int][]string{1: {"foo"}, 2: {"bar"}}

	merged, mergedNames, dups := mergeEquivalent(states, names)
	require.Equal(t, 1, dups)
	require.Len(t, merged, 1)
	for id, ns := range mergedNames {
		require.Equal(t, []string{"bar", "foo"}, ns)
		require.Equal(t, []edge{{lit: "x", terminal: true}}, merged[id])
	}
}

func TestLearnedGrammarParsesAsValidGrammarProgram(t *testing.T) {
	states, names, err := learn(strings.NewReader("cat\ncot\ncap\n"), 3)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeGrammar(&buf, states, names)

	g := graph.New()
	_, err = parser.Parse(g, buf.Bytes())
	require.NoError(t, err)
}
