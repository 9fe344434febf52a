// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package repair implements the hyperedge-aware RePair engine: iterated most-frequent-digram selection and replacement over a
// hypergraph, producing a straight-line hyperedge-replacement grammar
// (SLHR).
package repair

import (
	"sort"
	"strconv"
	"strings"

	"github.com/adlerenno/cgraph/internal/hgraph"
)

// Component is one edge of a rule's right-hand side, expressed relative to
// the rule's own external node columns: ClassOf[i] names which of the
// rule's Rank columns supplies RHS-edge position i — its index function.
type Component struct {
	Label   uint64
	Rank    int
	ClassOf []int
}

// Rule is one grammar production, NT -> RHS.
type Rule struct {
	RHS  []Component
	Rank int
}

// Grammar is the output of Run: a sequence of rules plus the replaced
// start-symbol edge set.
type Grammar struct {
	Rules      []Rule
	Start      []hgraph.HEdge
	FirstNT    uint64 // = Params.Terminals, the first nonterminal label
	NodeCount  uint64
}

// Params configures the engine.
type Params struct {
	Terminals uint64 // T: exclusive upper bound of terminal label space
	MaxRank   int
	Monograms bool
}

// workEdge is a mutable alive/dead edge during the iterated replacement.
type workEdge struct {
	id    int
	alive bool
	e     hgraph.HEdge
}

// Run compresses sorted into a grammar. sorted should already be ordered
// by hgraph.Cmp to maximize digram locality.
func Run(sorted []hgraph.HEdge, nodeCount uint64, p Params) *Grammar {
	edges := make([]*workEdge, len(sorted))
	for i, e := range sorted {
		edges[i] = &workEdge{id: i, alive: true, e: e}
	}
	nextID := len(sorted)

	var rules []Rule
	nextNT := p.Terminals

	for {
		if best, occ := selectPairDigram(edges, p.MaxRank, p.Monograms); best != nil {
			edges = applyPairDigram(edges, &nextID, best, occ, nextNT)
			rules = append(rules, Rule{RHS: best.rhs(), Rank: best.rank})
			nextNT++
			continue
		}

		if p.Monograms {
			if group := selectMonogram(edges, p.Terminals); group != nil {
				edges = applyMonogram(edges, &nextID, group, nextNT)
				rules = append(rules, Rule{
					RHS:  []Component{{Label: group.label, Rank: group.rank, ClassOf: identity(group.rank)}},
					Rank: group.rank,
				})
				nextNT++
				continue
			}
		}

		break
	}

	var start []hgraph.HEdge
	for _, w := range edges {
		if w.alive {
			start = append(start, w.e)
		}
	}

	return &Grammar{Rules: rules, Start: start, FirstNT: p.Terminals, NodeCount: nodeCount}
}

// --- pair digrams ---------------------------------------------------------

type digramEntry struct {
	labelA, labelB uint64
	rankA, rankB   int
	classA, classB []int
	rank           int
	key            string
	occurrences    [][2]*workEdge
}

func (d *digramEntry) rhs() []Component {
	return []Component{
		{Label: d.labelA, Rank: d.rankA, ClassOf: d.classA},
		{Label: d.labelB, Rank: d.rankB, ClassOf: d.classB},
	}
}

// selectPairDigram enumerates every digram occurrence, buckets them by
// structural shape, and returns the bucket chosen by the tie-break rule
// (highest combined rank, then smallest canonical key) among buckets
// with multiplicity >= 2 and a valid resulting rank. Returns nil if none
// qualifies.
func selectPairDigram(edges []*workEdge, maxRank int, monograms bool) (*digramEntry, [][2]*workEdge) {
	adjacency := buildAdjacency(edges)

	seenPairs := make(map[[2]int]bool)
	buckets := make(map[string]*digramEntry)

	for _, a := range edges {
		if !a.alive {
			continue
		}
		for _, node := range dedupNodes(a.e.Nodes) {
			for _, b := range adjacency[node] {
				if a.id == b.id {
					continue
				}
				lo, hi := a.id, b.id
				if lo > hi {
					lo, hi = hi, lo
				}
				pk := [2]int{lo, hi}
				if seenPairs[pk] {
					continue
				}
				seenPairs[pk] = true

				entry := canonicalDigram(a, b)
				if existing, ok := buckets[entry.key]; ok {
					existing.occurrences = append(existing.occurrences, entry.occurrences[0])
				} else {
					buckets[entry.key] = entry
				}
			}
		}
	}

	var candidates []*digramEntry
	for _, d := range buckets {
		if len(d.occurrences) < 2 {
			continue
		}
		if d.rank > maxRank {
			continue
		}
		if d.rank == 1 && !monograms {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if len(ci.occurrences) != len(cj.occurrences) {
			return len(ci.occurrences) > len(cj.occurrences)
		}
		if ci.rank != cj.rank {
			return ci.rank > cj.rank
		}
		return ci.key < cj.key
	})

	best := candidates[0]
	return best, best.occurrences
}

// canonicalDigram computes the structural shape of the pair (a, b): which
// positions (across both edges) denote the same node, normalized to class
// ids in first-appearance order, and a canonical ordering of a vs b so
// that every occurrence of the same shape produces an identical key.
func canonicalDigram(a, b *workEdge) *digramEntry {
	fwd := buildEntry(a, b)
	if a.e.Label < b.e.Label || (a.e.Label == b.e.Label && a.e.Rank <= b.e.Rank) {
		return fwd
	}

	rev := buildEntry(b, a)
	if a.e.Label == b.e.Label && a.e.Rank == b.e.Rank {
		// symmetric labels/ranks: break the tie by the lexicographically
		// smaller canonical key, independent of occurrence-specific ids.
		if rev.key < fwd.key {
			return rev
		}
		return fwd
	}
	return rev
}

func buildEntry(a, b *workEdge) *digramEntry {
	classOf := classify(a.e.Nodes, b.e.Nodes)
	classA := classOf[:len(a.e.Nodes)]
	classB := classOf[len(a.e.Nodes):]

	rankSet := make(map[int]bool)
	for _, c := range classOf {
		rankSet[c] = true
	}

	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(a.e.Label, 10))
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatUint(b.e.Label, 10))
	sb.WriteByte('|')
	for _, c := range classA {
		sb.WriteByte('a')
		sb.WriteString(strconv.Itoa(c))
	}
	sb.WriteByte('|')
	for _, c := range classB {
		sb.WriteByte('b')
		sb.WriteString(strconv.Itoa(c))
	}

	return &digramEntry{
		labelA: a.e.Label, labelB: b.e.Label,
		rankA: a.e.Rank, rankB: b.e.Rank,
		classA: classA, classB: classB,
		rank:        len(rankSet),
		key:         sb.String(),
		occurrences: [][2]*workEdge{{a, b}},
	}
}

// classify assigns a class id to every position of the concatenation
// na ++ nb, by first-appearance order of equal values.
func classify(na, nb []uint64) []int {
	all := make([]uint64, 0, len(na)+len(nb))
	all = append(all, na...)
	all = append(all, nb...)

	classOf := make([]int, len(all))
	seen := make(map[uint64]int)
	next := 0
	for i, v := range all {
		if c, ok := seen[v]; ok {
			classOf[i] = c
		} else {
			seen[v] = next
			classOf[i] = next
			next++
		}
	}
	return classOf
}

// applyPairDigram replaces every non-overlapping occurrence of d with a new
// nonterminal edge and returns the updated alive-edge list (dead
// occurrences are kept, tombstoned, so existing *workEdge pointers held
// elsewhere stay valid). An occurrence whose edge was already consumed by
// an earlier occurrence is skipped.
func applyPairDigram(edges []*workEdge, nextID *int, d *digramEntry, occ [][2]*workEdge, ntLabel uint64) []*workEdge {
	for _, pair := range occ {
		a, b := pair[0], pair[1]
		if !a.alive || !b.alive {
			continue
		}
		nodeOf := make([]uint64, d.rank)
		filled := make([]bool, d.rank)
		for i, c := range d.classA {
			if !filled[c] {
				nodeOf[c] = a.e.Nodes[i]
				filled[c] = true
			}
		}
		for i, c := range d.classB {
			if !filled[c] {
				nodeOf[c] = b.e.Nodes[i]
				filled[c] = true
			}
		}

		a.alive = false
		b.alive = false

		w := &workEdge{
			id:    *nextID,
			alive: true,
			e:     hgraph.HEdge{Rank: d.rank, Label: ntLabel, Nodes: nodeOf},
		}
		*nextID++
		edges = append(edges, w)
	}
	return edges
}

// --- monograms -------------------------------------------------------------

type monogramGroup struct {
	label uint64
	rank  int
	edges []*workEdge
}

// selectMonogram returns the largest group of alive edges sharing a
// terminal label and rank, or nil. Nonterminal-labeled edges are never
// grouped, so a monogram rule is never wrapped in another one.
func selectMonogram(edges []*workEdge, terminals uint64) *monogramGroup {
	groups := make(map[[2]uint64]*monogramGroup)
	for _, w := range edges {
		if !w.alive || w.e.Label >= terminals {
			continue
		}
		key := [2]uint64{w.e.Label, uint64(w.e.Rank)}
		g, ok := groups[key]
		if !ok {
			g = &monogramGroup{label: w.e.Label, rank: w.e.Rank}
			groups[key] = g
		}
		g.edges = append(g.edges, w)
	}

	var candidates []*monogramGroup
	for _, g := range groups {
		if len(g.edges) >= 2 {
			candidates = append(candidates, g)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].edges) != len(candidates[j].edges) {
			return len(candidates[i].edges) > len(candidates[j].edges)
		}
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank > candidates[j].rank
		}
		return candidates[i].label < candidates[j].label
	})
	return candidates[0]
}

// applyMonogram rewrites every edge in the group under a fresh nonterminal
// with the identity index function, preserving each instance's own node
// sequence.
func applyMonogram(edges []*workEdge, nextID *int, g *monogramGroup, ntLabel uint64) []*workEdge {
	for _, old := range g.edges {
		nodes := append([]uint64(nil), old.e.Nodes...)
		old.alive = false

		w := &workEdge{
			id:    *nextID,
			alive: true,
			e:     hgraph.HEdge{Rank: g.rank, Label: ntLabel, Nodes: nodes},
		}
		*nextID++
		edges = append(edges, w)
	}
	return edges
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func dedupNodes(nodes []uint64) []uint64 {
	seen := make(map[uint64]bool, len(nodes))
	out := nodes[:0:0]
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func buildAdjacency(edges []*workEdge) map[uint64][]*workEdge {
	adj := make(map[uint64][]*workEdge)
	for _, w := range edges {
		if !w.alive {
			continue
		}
		for _, n := range dedupNodes(w.e.Nodes) {
			adj[n] = append(adj[n], w)
		}
	}
	return adj
}
