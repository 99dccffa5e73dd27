package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipa/gramtropy/internal/ioformat"
)

func resetFlags() {
	bits, minlen, maxlen, maxnodes, maxthunks, overshoot = 64, 0, 1024, 1000000, 250000, 0.2
}

func TestRunCompileRejectsOutOfRangeFlags(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gram")
	out := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(in, []byte(`main = "a";`), 0o644))

	bits = 0
	require.Error(t, runCompile(nil, []string{in, out}))
	resetFlags()

	maxlen = -1
	require.Error(t, runCompile(nil, []string{in, out}))
	resetFlags()

	overshoot = -0.1
	require.Error(t, runCompile(nil, []string{in, out}))
	resetFlags()
}

func TestRunCompileRefusesSameInputOutput(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	path := filepath.Join(dir, "same.gram")
	require.NoError(t, os.WriteFile(path, []byte(`main = "a";`), 0o644))
	require.Error(t, runCompile(nil, []string{path, path}))
}

func TestRunCompileProducesImportableGraph(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gram")
	out := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(in, []byte(`main = "a" | "b" | "c";`), 0o644))

	bits = 1
	minlen, maxlen = 1, 1
	require.NoError(t, runCompile(nil, []string{in, out}))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	flat, err := ioformat.Import(f)
	require.NoError(t, err)
	require.NotEmpty(t, flat.Nodes)
}

func TestRunCompileRejectsBadGrammarSyntax(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.gram")
	out := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(in, []byte(`main = ;`), 0o644))
	require.Error(t, runCompile(nil, []string{in, out}))
}
