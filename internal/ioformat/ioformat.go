// Package ioformat implements the compact binary Exporter/Importer: the
// wire format an expgraph.Graph node is serialized to, and the format a
// flatnode.Graph is reconstructed from.
//
// Grounded on original_source/src/export.cpp for the writer and, for
// readnum's byte-accumulation loop only, original_source/gramtropy/import.cpp
// (see DESIGN.md and SPEC_FULL.md's REDESIGN FLAG RESOLUTION for why that
// file's own tag-decoding switch is not reused: it pairs with a different,
// internally inconsistent exporter).
package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/sipa/gramtropy/internal/bignat"
	"github.com/sipa/gramtropy/internal/expgraph"
	"github.com/sipa/gramtropy/internal/flatnode"
	"github.com/sipa/gramtropy/internal/stringpool"
)

// writeNum writes n as a base-128 varint, most-significant group first,
// with the continuation bit 0x80 set on every byte but the last. Mirrors
// writenum in original_source/src/export.cpp.
func writeNum(w *bufio.Writer, n uint64) error {
	exts := 0
	for nc := n; nc>>7 != 0; nc >>= 7 {
		exts++
	}
	for ; exts > 0; exts-- {
		if err := w.WriteByte(byte(0x80 | ((n >> uint(7*exts)) & 0x7F))); err != nil {
			return err
		}
	}
	return w.WriteByte(byte(n & 0x7F))
}

// readNum is writeNum's inverse, taken from original_source/gramtropy/import.cpp.
func readNum(r *bufio.Reader) (uint64, error) {
	var ret uint64
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		ret = (ret << 7) | uint64(c&0x7F)
		if c&0x80 == 0 {
			return ret, nil
		}
	}
}

// nodeCost tracks the expected varint-count of a successful and a failed
// Parse descent through a node, used only to choose a cheap-first write
// order for CONCAT/DISJUNCT children. Mirrors NodeData in
// original_source/src/export.cpp.
type nodeCost struct {
	success float64
	fail    float64
}

// topoOrder returns root's transitive closure in an order where every
// child precedes its parents, deduplicated by node identity — the
// traversal export.cpp gets for free from its ExpGraph::nodes vector being
// append-only; Go's arena recycles retired slots, so this package computes
// it explicitly instead of trusting allocation order.
func topoOrder(eg *expgraph.Graph, root expgraph.Ref) []expgraph.Ref {
	seen := map[expgraph.Ref]bool{}
	var order []expgraph.Ref
	var visit func(expgraph.Ref)
	visit = func(r expgraph.Ref) {
		if seen[r] {
			return
		}
		seen[r] = true
		for _, c := range eg.Children(r) {
			visit(c)
		}
		order = append(order, r)
	}
	visit(root)
	return order
}

// Export writes root's transitive closure to w in the locked tag format:
// 4k-3 for a DICT of k entries, 4k-6 for a CONCAT of k children, 4k-5 for a
// DISJUNCT of k children, and a final 0 terminator.
func Export(w io.Writer, eg *expgraph.Graph, root expgraph.Ref) error {
	bw := bufio.NewWriter(w)
	order := topoOrder(eg, root)
	indexOf := make(map[expgraph.Ref]int, len(order))
	for i, r := range order {
		indexOf[r] = i
	}
	costs := make([]nodeCost, len(order))

	for cnt, r := range order {
		switch eg.Kind(r) {
		case expgraph.Dict:
			if err := exportDict(bw, eg, r); err != nil {
				return err
			}
			n := float64(eg.Dict(r).Len())
			cost := math.Log2(n)
			costs[cnt] = nodeCost{success: cost + 1.0, fail: cost + 2.0}

		case expgraph.Concat:
			cost, err := exportConcat(bw, eg, r, cnt, indexOf, costs)
			if err != nil {
				return err
			}
			costs[cnt] = cost

		case expgraph.Disjunct:
			cost, err := exportDisjunct(bw, eg, r, cnt, indexOf, costs)
			if err != nil {
				return err
			}
			costs[cnt] = cost
		}
	}

	if err := writeNum(bw, 0); err != nil {
		return err
	}
	return bw.Flush()
}

func exportDict(bw *bufio.Writer, eg *expgraph.Graph, r expgraph.Ref) error {
	dict := eg.Dict(r)
	n := dict.Len()
	if err := writeNum(bw, uint64(4*n-3)); err != nil {
		return err
	}
	if err := writeNum(bw, uint64(dict.Width())); err != nil {
		return err
	}
	var prev []byte
	for i := 0; i < n; i++ {
		s := dict.At(i)
		offset := 0
		if prev != nil {
			for offset < len(s) && s[offset] == prev[offset] {
				offset++
			}
			if err := writeNum(bw, uint64(offset)); err != nil {
				return err
			}
		}
		if _, err := bw.Write(s[offset:]); err != nil {
			return err
		}
		prev = s
	}
	return nil
}

// exportConcat writes a CONCAT's children cheapest-failure-first (by fail
// cost ascending), each preceded by its byte offset within the parent's
// output and a backreference to its already-written index.
func exportConcat(bw *bufio.Writer, eg *expgraph.Graph, r expgraph.Ref, cnt int, indexOf map[expgraph.Ref]int, costs []nodeCost) (nodeCost, error) {
	children := eg.Children(r)
	type sub struct {
		fail float64
		idx  int
		pos  int
	}
	subs := make([]sub, len(children))
	pos := 0
	for i, c := range children {
		idx := indexOf[c]
		subs[i] = sub{fail: costs[idx].fail, idx: idx, pos: pos}
		pos += eg.Len(c)
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].fail < subs[j].fail })

	if err := writeNum(bw, uint64(4*len(children)-6)); err != nil {
		return nodeCost{}, err
	}
	success, fail, fact := 0.0, 0.0, 1.0
	for _, s := range subs {
		fail += (success + costs[s.idx].fail) * fact
		success += costs[s.idx].success
		fact *= 0.1
		if err := writeNum(bw, uint64(s.pos)); err != nil {
			return nodeCost{}, err
		}
		if err := writeNum(bw, uint64(cnt-s.idx-1)); err != nil {
			return nodeCost{}, err
		}
	}
	return nodeCost{success: 1.0 + success, fail: 1.0 + fail}, nil
}

// exportDisjunct writes a DISJUNCT's children ordered by fail cost per unit
// of selection probability (cheapest-to-reach-by-accident first), unless
// the node has no single fixed length — a multi-length disjunct is already
// fast to narrow down by length alone, so reordering buys nothing.
func exportDisjunct(bw *bufio.Writer, eg *expgraph.Graph, r expgraph.Ref, cnt int, indexOf map[expgraph.Ref]int, costs []nodeCost) (nodeCost, error) {
	children := eg.Children(r)
	type sub struct {
		key    float64
		idx    int
		weight float64
	}
	subs := make([]sub, len(children))
	totalLog := eg.Count(r).Log2()
	for i, c := range children {
		idx := indexOf[c]
		weight := math.Exp2(eg.Count(c).Log2() - totalLog)
		approxCount := math.Exp2(eg.Count(c).Log2())
		subs[i] = sub{key: costs[idx].fail / approxCount, idx: idx, weight: weight}
	}
	if eg.Len(r) != -1 {
		sort.SliceStable(subs, func(i, j int) bool { return subs[i].key < subs[j].key })
	}

	if err := writeNum(bw, uint64(4*len(children)-5)); err != nil {
		return nodeCost{}, err
	}
	success, fail := 0.0, 0.0
	for _, s := range subs {
		success += (fail + costs[s.idx].success) * s.weight
		fail += costs[s.idx].fail
		if err := writeNum(bw, uint64(cnt-s.idx-1)); err != nil {
			return nodeCost{}, err
		}
	}
	return nodeCost{success: 1.0 + success, fail: 1.0 + fail}, nil
}

// Import reads an Export stream back into a flatnode.Graph, whose last
// node (Root()) is the exported root.
func Import(r io.Reader) (*flatnode.Graph, error) {
	br := bufio.NewReader(r)
	g := &flatnode.Graph{}
	for {
		t, err := readNum(br)
		if err != nil {
			return nil, fmt.Errorf("ioformat: reading node tag: %w", err)
		}
		if t == 0 {
			break
		}
		var node flatnode.Node
		switch t & 3 {
		case 1:
			node, err = importDict(br, g, t)
		case 2:
			node, err = importConcat(br, g, t)
		case 3:
			node, err = importDisjunct(br, g, t)
		default:
			err = fmt.Errorf("ioformat: invalid node tag %d", t)
		}
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, node)
	}
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("ioformat: empty grammar export")
	}
	return g, nil
}

func importDict(br *bufio.Reader, g *flatnode.Graph, t uint64) (flatnode.Node, error) {
	n := int((t + 3) / 4)
	width64, err := readNum(br)
	if err != nil {
		return flatnode.Node{}, fmt.Errorf("ioformat: reading dict width: %w", err)
	}
	width := int(width64)
	entries := make([]string, n)
	var prev []byte
	for i := 0; i < n; i++ {
		offset := 0
		if i > 0 {
			off, err := readNum(br)
			if err != nil {
				return flatnode.Node{}, fmt.Errorf("ioformat: reading dict prefix length: %w", err)
			}
			offset = int(off)
		}
		buf := make([]byte, width)
		if offset > 0 {
			copy(buf, prev[:offset])
		}
		if _, err := io.ReadFull(br, buf[offset:]); err != nil {
			return flatnode.Node{}, fmt.Errorf("ioformat: reading dict entry: %w", err)
		}
		entries[i] = string(buf)
		prev = buf
	}
	dictIdx := len(g.Dicts)
	g.Dicts = append(g.Dicts, stringpool.FromSortedSet(entries))
	return flatnode.Node{
		Kind:   flatnode.Dict,
		Count:  bignat.FromUint64(uint64(n)),
		Length: width,
		Dict:   dictIdx,
	}, nil
}

func importConcat(br *bufio.Reader, g *flatnode.Graph, t uint64) (flatnode.Node, error) {
	num := int((t + 6) / 4)
	cnt := len(g.Nodes)
	refs := make([]flatnode.Child, num)
	count := bignat.FromUint64(1)
	length := 0
	for i := 0; i < num; i++ {
		pos, err := readNum(br)
		if err != nil {
			return flatnode.Node{}, fmt.Errorf("ioformat: reading concat offset: %w", err)
		}
		back, err := readNum(br)
		if err != nil {
			return flatnode.Node{}, fmt.Errorf("ioformat: reading concat backreference: %w", err)
		}
		idx := cnt - int(back) - 1
		if idx < 0 || idx >= cnt {
			return flatnode.Node{}, fmt.Errorf("ioformat: concat backreference out of range")
		}
		refs[i] = flatnode.Child{Pos: int(pos), Idx: idx}
		count = count.Mul(g.Nodes[idx].Count)
		length += g.Nodes[idx].Length
	}
	return flatnode.Node{Kind: flatnode.Concat, Refs: refs, Count: count, Length: length}, nil
}

func importDisjunct(br *bufio.Reader, g *flatnode.Graph, t uint64) (flatnode.Node, error) {
	num := int((t + 5) / 4)
	cnt := len(g.Nodes)
	refs := make([]flatnode.Child, num)
	count := bignat.Zero()
	length := 0
	for i := 0; i < num; i++ {
		back, err := readNum(br)
		if err != nil {
			return flatnode.Node{}, fmt.Errorf("ioformat: reading disjunct backreference: %w", err)
		}
		idx := cnt - int(back) - 1
		if idx < 0 || idx >= cnt {
			return flatnode.Node{}, fmt.Errorf("ioformat: disjunct backreference out of range")
		}
		refs[i] = flatnode.Child{Idx: idx}
		count = count.Add(g.Nodes[idx].Count)
		if i == 0 {
			length = g.Nodes[idx].Length
		} else if length != g.Nodes[idx].Length {
			length = -1
		}
	}
	return flatnode.Node{Kind: flatnode.Disjunct, Refs: refs, Count: count, Length: length}, nil
}
