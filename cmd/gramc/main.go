// Package main provides the gramc compiler CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipa/gramtropy/internal/expand"
	"github.com/sipa/gramtropy/internal/expgraph"
	"github.com/sipa/gramtropy/internal/graph"
	"github.com/sipa/gramtropy/internal/ioformat"
	"github.com/sipa/gramtropy/internal/parser"
)

var (
	bits      float64
	minlen    int
	maxlen    int
	maxnodes  int
	maxthunks int
	overshoot float64
)

var rootCmd = &cobra.Command{
	Use:   "gramc [options] infile outfile",
	Short: "Compile a grammar into an entropy-targeted binary passphrase graph",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompile,
}

func init() {
	rootCmd.Flags().Float64VarP(&bits, "bits", "b", 64, "use a range with at least this many bits of entropy")
	rootCmd.Flags().IntVarP(&minlen, "minlen", "l", 0, "generate phrases of at least this many characters")
	rootCmd.Flags().IntVarP(&maxlen, "maxlen", "u", 1024, "generate phrases of at most this many characters")
	rootCmd.Flags().IntVarP(&maxnodes, "maxnodes", "N", 1000000, "maximum ExpGraph nodes")
	rootCmd.Flags().IntVarP(&maxthunks, "maxthunks", "T", 250000, "maximum live thunks")
	rootCmd.Flags().Float64VarP(&overshoot, "overshoot", "O", 0.2, "upper-to-lower count ratio slack")
}

func runCompile(cmd *cobra.Command, args []string) error {
	infile, outfile := args[0], args[1]

	if bits <= 0 || bits > 65536 {
		return fmt.Errorf("bits out of range (0.0-65536.0)")
	}
	if minlen < 0 || minlen > 65536 {
		return fmt.Errorf("minimum length out of range (0-65536)")
	}
	if maxlen < minlen || maxlen > 65536 {
		return fmt.Errorf("maximum length out of range (minlen-65536)")
	}
	if maxnodes < 10 || maxnodes > 1000000000 {
		return fmt.Errorf("maximum nodes out of range (10-1000000000)")
	}
	if maxthunks < 10 || maxthunks > 1000000000 {
		return fmt.Errorf("maximum thunks out of range (10-1000000000)")
	}
	if overshoot < 0 || overshoot > 1 {
		return fmt.Errorf("overshoot out of range (0.0-1.0)")
	}
	if infile == outfile {
		return fmt.Errorf("refusing to overwrite input file")
	}

	data, err := os.ReadFile(infile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", infile, err)
	}

	g := graph.New()
	mainRef, err := parser.Parse(g, data)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	eg := expgraph.New()
	emain, err := expand.ExpandForBits(g, eg, mainRef, bits, overshoot, minlen, maxlen, maxnodes, maxthunks)
	if err != nil {
		return fmt.Errorf("expansion error: %w", err)
	}
	eg.Optimize()

	fmt.Printf("Result: %s combinations (%g bits)\n", eg.Count(emain).Hex(), eg.Count(emain).Log2())

	out, err := os.Create(outfile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outfile, err)
	}
	defer out.Close()
	if err := ioformat.Export(out, eg, emain); err != nil {
		return fmt.Errorf("writing %s: %w", outfile, err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
