// Package stringpool implements the append-only, fixed-width string arrays
// used by DICT nodes throughout the graph/expgraph/coder pipeline: a single
// contiguous byte buffer holding N equal-length strings in sorted order,
// searchable by binary search and indexable by position.
//
// It is the Go counterpart of original_source/gramtropy/strings.h (Strings),
// generalized to also support construction from an unsorted, possibly
// duplicate-bearing set of entries.
package stringpool

import (
	"bytes"
	"sort"
)

// Pool is an immutable, sorted collection of equal-length byte strings
// packed into one contiguous buffer.
type Pool struct {
	width int
	n     int
	buf   []byte
}

// Empty reports whether the pool holds no entries.
func (p *Pool) Empty() bool {
	return p.count() == 0
}

func (p *Pool) count() int {
	if p == nil {
		return 0
	}
	return p.n
}

// Len returns the number of strings in the pool.
func (p *Pool) Len() int {
	return p.count()
}

// Width returns the common length of every string in the pool, or 0 for an
// empty pool.
func (p *Pool) Width() int {
	if p == nil {
		return 0
	}
	return p.width
}

// At returns the string at sorted position i.
func (p *Pool) At(i int) []byte {
	return p.buf[i*p.width : (i+1)*p.width]
}

// All returns every entry in sorted order, each as an independent slice.
func (p *Pool) All() [][]byte {
	n := p.count()
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = p.At(i)
	}
	return out
}

// Search performs a binary search for s (which must have length Width()),
// returning its sorted index and whether it was found — the Go analogue of
// Strings::find in the original.
func (p *Pool) Search(s []byte) (int, bool) {
	if p == nil || len(s) != p.width {
		return 0, false
	}
	n := p.count()
	i := sort.Search(n, func(i int) bool {
		return bytes.Compare(p.At(i), s) >= 0
	})
	if i < n && bytes.Equal(p.At(i), s) {
		return i, true
	}
	return 0, false
}

// FromSortedSet builds a Pool from entries that are already deduplicated
// and sorted (the common case: callers have already passed through a
// Go map[string]struct{} or similar to dedup, then sorted the keys).
// All entries must share the same length; FromSortedSet panics otherwise,
// since a length mismatch between DICT entries is a caller bug, not a
// grammar bug (those are rejected earlier, at expansion time).
func FromSortedSet(entries []string) *Pool {
	if len(entries) == 0 {
		return &Pool{}
	}
	width := len(entries[0])
	buf := make([]byte, 0, width*len(entries))
	for _, e := range entries {
		if len(e) != width {
			panic("stringpool: mismatched entry width")
		}
		buf = append(buf, e...)
	}
	return &Pool{width: width, n: len(entries), buf: buf}
}

// BuildDedup sorts and deduplicates entries, returning the resulting Pool
// together with whether any duplicates were dropped (callers outside a
// DEDUP context must treat that as an error per spec.md §4.1).
func BuildDedup(entries []string) (pool *Pool, hadDuplicates bool) {
	if len(entries) == 0 {
		return &Pool{}, false
	}
	sorted := append([]string(nil), entries...)
	sort.Strings(sorted)
	deduped := sorted[:1]
	for _, s := range sorted[1:] {
		if s != deduped[len(deduped)-1] {
			deduped = append(deduped, s)
		}
	}
	return FromSortedSet(deduped), len(deduped) != len(sorted)
}
