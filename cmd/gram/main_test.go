package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipa/gramtropy/internal/coder"
	"github.com/sipa/gramtropy/internal/expgraph"
	"github.com/sipa/gramtropy/internal/ioformat"
)

func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	f()
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func testNode(t *testing.T) coder.Node {
	t.Helper()
	eg := expgraph.New()
	root := eg.NewDict([]string{"apple", "mango", "kiwis"})

	var buf bytes.Buffer
	require.NoError(t, ioformat.Export(&buf, eg, root))
	flat, err := ioformat.Import(&buf)
	require.NoError(t, err)
	return coder.FromFlatNode(flat, flat.Root())
}

func TestGeneratePhrasesPrintsOneLinePerPhrase(t *testing.T) {
	node := testNode(t)
	out := captureStdout(t, func() {
		require.NoError(t, generatePhrases(node, 5))
	})
	lines := bytes.Split(bytes.TrimRight([]byte(out), "\n"), []byte("\n"))
	require.Len(t, lines, 5)
	for _, l := range lines {
		require.Contains(t, []string{"apple", "mango", "kiwis"}, string(l))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	node := testNode(t)

	encOut := captureStdout(t, func() {
		require.NoError(t, encodeOne(node, "1"))
	})
	phrase := string(bytes.TrimRight([]byte(encOut), "\n"))
	require.Contains(t, []string{"apple", "mango", "kiwis"}, phrase)

	decOut := captureStdout(t, func() {
		require.NoError(t, decodeOne(node, phrase))
	})
	require.Equal(t, "1\n", decOut)
}

func TestDecodeUnknownPhrasePrintsNegativeOne(t *testing.T) {
	node := testNode(t)
	out := captureStdout(t, func() {
		require.NoError(t, decodeOne(node, "notaphrase"))
	})
	require.Equal(t, "-1\n", out)
}

func TestEncodeOutOfRangeIndexErrors(t *testing.T) {
	node := testNode(t)
	err := encodeOne(node, "FF")
	require.Error(t, err)
}

func TestEnumerateAllPhrasesListsEveryCombination(t *testing.T) {
	node := testNode(t)
	out := captureStdout(t, func() {
		require.NoError(t, enumerateAllPhrases(node))
	})
	lines := bytes.Split(bytes.TrimRight([]byte(out), "\n"), []byte("\n"))
	require.ElementsMatch(t, []string{"apple", "mango", "kiwis"}, toStrings(lines))
}

func toStrings(lines [][]byte) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(l)
	}
	return out
}
