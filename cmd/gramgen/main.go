// Package main provides the gramgen grammar-producer CLI: it learns a
// suffix-history automaton from a word corpus and emits a grammar program
// whose main symbol generates pronounceable nonsense words from it.
//
// Grounded on original_source/util/dictgen.py, ported into Go's map/slice
// idiom rather than Python's dynamically-typed dicts: state identity is an
// int from the start (sortable substrings are assigned ids up front),
// where the original reuses the substring itself as a dict key for the
// very first round and only moves to int keys on the first remap.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	contextLen int
	outfile    string
)

var rootCmd = &cobra.Command{
	Use:   "gramgen [infile]",
	Short: "Learn a grammar from a word corpus",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGen,
}

func init() {
	rootCmd.Flags().IntVarP(&contextLen, "context", "k", 6, "history length in bytes")
	rootCmd.Flags().StringVarP(&outfile, "output", "o", "", "output path (default stdout)")
}

func runGen(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if outfile != "" {
		f, err := os.Create(outfile)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outfile, err)
		}
		defer f.Close()
		out = f
	}

	states, names, err := learn(in, contextLen)
	if err != nil {
		return err
	}
	writeGrammar(out, states, names)
	return nil
}

// edge is one outgoing transition: consuming lit, either moving to state
// next or (if terminal) ending the word.
type edge struct {
	lit      string
	next     int
	terminal bool
}

// rawEdge is edge before state identity has been interned to an int; next
// refers to another state by its context substring.
type rawEdge struct {
	lit      string
	next     string
	terminal bool
}

// context returns pref's trailing window of at most k bytes, or ("", true)
// if pref ends in a line terminator — the terminal sentinel, distinct from
// the empty-context start state "" (which context("") itself produces).
func context(pref string, k int) (state string, terminal bool) {
	if len(pref) > 0 && pref[len(pref)-1] == '\n' {
		return "", true
	}
	start := len(pref) - k
	if start < 0 {
		start = 0
	}
	return pref[start:], false
}

// learn reads corpus lines from r and returns the minimized automaton: a
// map from state id to its deduplicated, chain-collapsed outgoing edges,
// and a map from state id to the sorted list of original context strings
// it absorbed, for the comment trailing each emitted production.
func learn(r io.Reader, k int) (map[int][]edge, map[int][]string, error) {
	raw := map[string]map[rawEdge]bool{}
	addEdge := func(state string, e rawEdge) {
		if raw[state] == nil {
			raw[state] = map[rawEdge]bool{}
		}
		raw[state][e] = true
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n") + "\n"
		for p := 0; p < len(line); p++ {
			prv, _ := context(line[:p], k)
			nxt := line[p : p+1]
			st, terminal := context(line[:p+1], k)
			addEdge(prv, rawEdge{lit: nxt, next: st, terminal: terminal})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("gramgen: reading corpus: %w", err)
	}

	var rawStates []string
	for st := range raw {
		rawStates = append(rawStates, st)
	}
	sort.Strings(rawStates)
	id := make(map[string]int, len(rawStates))
	for i, st := range rawStates {
		id[st] = i
	}

	states := make(map[int][]edge, len(rawStates))
	names := make(map[int][]string, len(rawStates))
	for st, edges := range raw {
		i := id[st]
		names[i] = []string{st}
		for e := range edges {
			if e.terminal {
				states[i] = append(states[i], edge{lit: e.lit, terminal: true})
			} else {
				states[i] = append(states[i], edge{lit: e.lit, next: id[e.next]})
			}
		}
		sort.Slice(states[i], func(a, b int) bool { return states[i][a].lit < states[i][b].lit })
	}

	for {
		collapsed := collapseChains(states)
		next, nextNames, dups := mergeEquivalent(collapsed, names)
		states, names = next, nextNames
		if dups == 0 {
			return states, names, nil
		}
	}
}

// collapseChains keeps only branching states (more than one outgoing
// edge) and, for each of their edges, follows any chain of deterministic
// single-edge states forward, concatenating each hop's literal into one
// longer string.
func collapseChains(states map[int][]edge) map[int][]edge {
	out := make(map[int][]edge, len(states))
	for prv, edges := range states {
		if len(edges) <= 1 {
			continue
		}
		var nlst []edge
		for _, e := range edges {
			lit := strings.TrimSuffix(e.lit, "\n")
			next, terminal := e.next, e.terminal
			for !terminal {
				succ, ok := states[next]
				if !ok || len(succ) != 1 {
					break
				}
				only := succ[0]
				lit += strings.TrimSuffix(only.lit, "\n")
				next, terminal = only.next, only.terminal
			}
			nlst = append(nlst, edge{lit: lit, next: next, terminal: terminal})
		}
		out[prv] = nlst
	}
	return out
}

// edgeSignature canonicalizes a branching state's (already chain-collapsed
// and lit-sorted) edge list into a string two states can compare for
// structural equality.
func edgeSignature(edges []edge) string {
	var sb strings.Builder
	for _, e := range edges {
		sb.WriteString(e.lit)
		sb.WriteByte(0)
		if e.terminal {
			sb.WriteByte('T')
		} else {
			fmt.Fprintf(&sb, "%d", e.next)
		}
		sb.WriteByte(1)
	}
	return sb.String()
}

// lessStringSlice orders two string slices the way Python orders lists:
// element-wise, with a shorter prefix of an otherwise-equal longer slice
// sorting first.
func lessStringSlice(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// mergeEquivalent groups states with identical post-collapse transition
// signatures, assigns each group a new canonical id ordered by its sorted
// member-name list (the same tie-break the original relies on to keep the
// corpus's empty-context start state at id 0), and renumbers every edge to
// point at the new ids. dups is the number of states folded into another.
func mergeEquivalent(states map[int][]edge, names map[int][]string) (map[int][]edge, map[int][]string, int) {
	groups := map[string][]int{}
	for prv, edges := range states {
		sig := edgeSignature(edges)
		groups[sig] = append(groups[sig], prv)
	}

	type group struct {
		sig     string
		members []int
		names   []string
	}
	var grpList []group
	dups := 0
	for sig, members := range groups {
		sort.Ints(members)
		dups += len(members) - 1
		var nm []string
		for _, m := range members {
			nm = append(nm, names[m]...)
		}
		sort.Strings(nm)
		grpList = append(grpList, group{sig: sig, members: members, names: nm})
	}
	sort.Slice(grpList, func(i, j int) bool { return lessStringSlice(grpList[i].names, grpList[j].names) })

	remap := map[int]int{}
	for num, g := range grpList {
		for _, m := range g.members {
			remap[m] = num
		}
	}

	nextStates := make(map[int][]edge, len(grpList))
	nextNames := make(map[int][]string, len(grpList))
	for num, g := range grpList {
		nextNames[num] = g.names
		edges := states[g.members[0]]
		nlst := make([]edge, len(edges))
		for i, e := range edges {
			if e.terminal {
				nlst[i] = edge{lit: e.lit, terminal: true}
			} else {
				nlst[i] = edge{lit: e.lit, next: remap[e.next]}
			}
		}
		nextStates[num] = nlst
	}
	return nextStates, nextNames, dups
}

// writeGrammar prints one production per state, sorted by id, followed by
// the main symbol that chains space-separated words from state 0.
func writeGrammar(w io.Writer, states map[int][]edge, names map[int][]string) {
	var ids []int
	for id := range states {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		edges := states[id]
		alts := make([]string, len(edges))
		for i, e := range edges {
			alt := fmt.Sprintf("%q", e.lit)
			if !e.terminal {
				alt += fmt.Sprintf(" s%d", e.next)
			}
			alts[i] = alt
		}
		comment := make([]string, len(names[id]))
		for i, n := range names[id] {
			if n == "" {
				n = "<init>"
			}
			comment[i] = n
		}
		fmt.Fprintf(w, "s%d = %s; # %s\n", id, strings.Join(alts, " | "), strings.Join(comment, ","))
	}
	fmt.Fprintln(w, "main = s0 (\" \" s0)+;")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
