// Package main provides the gram runtime CLI: it loads a compiled grammar
// and generates, encodes, decodes, enumerates, or inspects its phrases.
package main

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/coder"
	"github.com/sipa/gramtropy/internal/entropy"
	"github.com/sipa/gramtropy/internal/flatnode"
	"github.com/sipa/gramtropy/internal/ioformat"
)

var (
	generateN    int
	encodeHex    string
	decodeStr    string
	encodeLines  bool
	decodeLines  bool
	showInfo     bool
	enumerateAll bool
)

var rootCmd = &cobra.Command{
	Use:   "gram [options] file",
	Short: "Generate, encode, decode, or inspect phrases from a compiled grammar",
	Args:  cobra.ExactArgs(1),
	RunE:  runGram,
}

func init() {
	rootCmd.Flags().IntVarP(&generateN, "generate", "g", 1, "generate N phrases")
	rootCmd.Flags().StringVarP(&encodeHex, "encode", "e", "", "encode hex index to phrase")
	rootCmd.Flags().StringVarP(&decodeStr, "decode", "d", "", "decode phrase to hex index")
	rootCmd.Flags().BoolVarP(&encodeLines, "encode-lines", "E", false, "line-streaming encode: read hex indices from stdin")
	rootCmd.Flags().BoolVarP(&decodeLines, "decode-lines", "D", false, "line-streaming decode: read phrases from stdin")
	rootCmd.Flags().BoolVarP(&showInfo, "info", "i", false, "show combination count, bits, and node count")
	rootCmd.Flags().BoolVarP(&enumerateAll, "all", "a", false, "enumerate every phrase in canonical order")
}

func runGram(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	g, err := ioformat.Import(f)
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}
	root := g.Root()
	node := coder.FromFlatNode(g, root)

	switch {
	case showInfo:
		return printInfo(g, node)
	case enumerateAll:
		return enumerateAllPhrases(node)
	case cmd.Flags().Changed("encode"):
		return encodeOne(node, encodeHex)
	case cmd.Flags().Changed("decode"):
		return decodeOne(node, decodeStr)
	case encodeLines:
		return streamEncode(node)
	case decodeLines:
		return streamDecode(node)
	default:
		return generatePhrases(node, generateN)
	}
}

func printInfo(g *flatnode.Graph, node coder.Node) error {
	fmt.Printf("%s combinations (%g bits), %d nodes\n", node.Count().Hex(), node.Count().Log2(), len(g.Nodes))
	return nil
}

func enumerateAllPhrases(node coder.Node) error {
	count := node.Count()
	one := bignat.FromUint64(1)
	for i := bignat.Zero(); i.Less(count); i = i.Add(one) {
		fmt.Println(string(coder.Generate(node, i)))
	}
	return nil
}

func generatePhrases(node coder.Node, n int) error {
	count := node.Count()
	for i := 0; i < n; i++ {
		idx, err := entropy.Sample(rand.Reader, count)
		if err != nil {
			return err
		}
		fmt.Println(string(coder.Generate(node, idx)))
	}
	return nil
}

func encodeOne(node coder.Node, hex string) error {
	idx, ok := bignat.FromHex(hex)
	if !ok || !idx.Less(node.Count()) {
		return fmt.Errorf("index out of range")
	}
	fmt.Println(string(coder.Generate(node, idx)))
	return nil
}

func decodeOne(node coder.Node, phrase string) error {
	idx, ok := coder.Parse(node, []byte(phrase))
	if !ok {
		fmt.Println("-1")
		return nil
	}
	fmt.Println(idx.Hex())
	return nil
}

func streamEncode(node coder.Node) error {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		idx, ok := bignat.FromHex(sc.Text())
		if !ok || !idx.Less(node.Count()) {
			fmt.Println("-1")
			continue
		}
		fmt.Println(string(coder.Generate(node, idx)))
	}
	return sc.Err()
}

func streamDecode(node coder.Node) error {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		idx, ok := coder.Parse(node, []byte(sc.Text()))
		if !ok {
			fmt.Println("-1")
			continue
		}
		fmt.Println(idx.Hex())
	}
	return sc.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
