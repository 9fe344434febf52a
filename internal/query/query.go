// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package query implements the neighborhood iterator: a
// unified pull iterator over Exact, Contains and Decompress queries against
// a compressed grammar, descending through nonterminals via an explicit
// frame stack rather than native recursion, so the iterator can be paused between calls and cancelled
// mid-descent.
package query

import (
	"errors"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/adlerenno/cgraph/internal/grammar"
	"github.com/adlerenno/cgraph/internal/hgraph"
)

// Mode selects the query semantics.
type Mode int

const (
	Exact Mode = iota
	Contains
	Decompress
)

// PatternNode is one position of a query pattern: either a concrete node id
// or a wildcard (matches any node at that position).
type PatternNode struct {
	Wild  bool
	Value uint64
}

// Pattern is a query pattern.
type Pattern struct {
	Rank      int
	Label     uint64
	LabelWild bool
	Nodes     []PatternNode
}

// ErrFinished is returned by Next after Finish has been called.
var ErrFinished = errors.New("query: iterator already finished")

// frame is one level of the descent stack: the label currently
// being expanded, its substituted external node vector, and the next
// RHS component to process if it is a nonterminal.
type frame struct {
	label  uint64
	ext    []uint64
	rhsIdx int
}

// Iterator is a pull iterator over compressed hyperedges. It is not safe
// for concurrent use.
type Iterator struct {
	g      *grammar.Grammar
	mode   Mode
	pat    Pattern       // original pattern, positions intact: used by emits' Exact comparison
	seed   []PatternNode // pat.Nodes with repeated concrete values collapsed: used only for incidence filtering/seeding
	ntFast bool          // consult g.NTTable to prune descent by label, when present

	candidates []uint64
	candPos    int
	stack      []frame

	done     bool
	finished bool
}

// Options are the iterator's non-semantic knobs: settings that change
// engine internals (or the on-disk file, for the writer) without changing
// query results.
type Options struct {
	// NoTable disables the optional nt_table label-reach fast path, even
	// when the grammar carries one.
	NoTable bool
}

// New constructs an iterator. pat is kept intact (positions and length
// untouched) for Exact's position-by-position comparison in emits; a
// separate deduplicated view, built by dedupNodes, seeds incidence
// filtering and candidate seeding, where collapsing repeats is safe
// because the matrix filter for a node value is idempotent regardless of
// how many pattern positions name it (spec's "Wildcard deduplication"
// note scopes the collapse to seeding only, never to the compared
// position list).
func New(g *grammar.Grammar, mode Mode, pat Pattern, opts Options) *Iterator {
	it := &Iterator{
		g:      g,
		mode:   mode,
		pat:    pat,
		seed:   dedupNodes(pat.Nodes),
		ntFast: !opts.NoTable && g.NTTable != nil,
	}
	it.seedCandidates()
	return it
}

// dedupNodes returns pat.Nodes with repeated non-wildcard values collapsed
// to their first occurrence, using a roaring bitmap as the seen-set: the
// pattern's node ids share the same dense 64-bit id space as edge/node ids
// elsewhere in the engine, so the same compressed-set type serves both.
func dedupNodes(nodes []PatternNode) []PatternNode {
	seen := roaring64.New()
	out := make([]PatternNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Wild {
			out = append(out, n)
			continue
		}
		if seen.Contains(n.Value) {
			continue
		}
		seen.Add(n.Value)
		out = append(out, n)
	}
	return out
}

// allStartIDs returns every start-symbol edge id as a roaring bitmap,
// used when a query has no concrete node to seed a row from.
func (it *Iterator) allStartIDs() *roaring64.Bitmap {
	bm := roaring64.New()
	n := uint64(it.g.StartLen())
	bm.AddRange(0, n)
	return bm
}

// seedCandidates computes the candidate start-symbol edge id set (spec
// §4.9 step 2) as a roaring bitmap: the smallest set row_iter can produce
// for Exact/Contains, or the full id range for Decompress.
func (it *Iterator) seedCandidates() {
	var bm *roaring64.Bitmap

	switch {
	case it.mode == Decompress:
		bm = it.allStartIDs()
	default:
		seeded := false
		for _, n := range it.seed {
			if !n.Wild {
				bm = roaring64.New()
				bm.AddMany(it.g.RowIter(n.Value))
				seeded = true
				break
			}
		}
		if !seeded {
			// No concrete node anywhere in the pattern (e.g. all-wildcard
			// Exact by rank): spec's row_iter(pattern.nodes[0]) has
			// nothing concrete to seed from, so fall back to a full scan
			// like Decompress.
			bm = it.allStartIDs()
		}
	}

	it.candidates = bm.ToArray()
}

// Next returns the next matching edge. ok is false with a nil error on
// clean exhaustion; a non-nil error indicates a structural error or reuse
// after Finish, both of which also release the iterator.
func (it *Iterator) Next() (hgraph.HEdge, bool, error) {
	if it.finished {
		return hgraph.HEdge{}, false, ErrFinished
	}
	if it.done {
		return hgraph.HEdge{}, false, nil
	}

	for {
		if leaf, ok := it.drainStack(); ok {
			if it.emits(leaf) {
				return leaf, true, nil
			}
			continue
		}

		if !it.seedNext() {
			it.done = true
			it.Finish()
			return hgraph.HEdge{}, false, nil
		}
	}
}

// drainStack pops and expands the top frame until a terminal-labeled leaf
// is produced, or the stack empties. ok is false when the stack is empty
// (a new candidate must be seeded).
func (it *Iterator) drainStack() (hgraph.HEdge, bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.label < it.g.Terminals {
			leaf := hgraph.HEdge{Label: top.label, Rank: len(top.ext), Nodes: top.ext}
			it.stack = it.stack[:len(it.stack)-1]
			return leaf, true
		}

		rule := it.g.Rules[top.label-it.g.Terminals]
		if top.rhsIdx >= len(rule.RHS) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		comp := rule.RHS[top.rhsIdx]
		top.rhsIdx++

		if it.prunedByLabel(comp.Label) {
			continue
		}

		sub := make([]uint64, comp.Rank)
		for j, cls := range comp.ClassOf {
			sub[j] = top.ext[cls]
		}
		it.stack = append(it.stack, frame{label: comp.Label, ext: sub})
	}
	return hgraph.HEdge{}, false
}

// seedNext advances to the next surviving candidate edge id and pushes its
// root descent frame. Returns false when candidates are exhausted.
func (it *Iterator) seedNext() bool {
	for it.candPos < len(it.candidates) {
		e := it.candidates[it.candPos]
		it.candPos++

		if it.mode != Decompress && !it.matchesIncidence(int(e)) {
			continue
		}

		label := it.g.StartLabel(int(e))
		cols := it.g.StartColumns(int(e))
		idx := it.g.StartIndexFunction(int(e))
		ext := make([]uint64, len(idx))
		for i, c := range idx {
			ext[i] = cols[c]
		}
		it.stack = append(it.stack, frame{label: label, ext: ext})
		return true
	}
	return false
}

// prunedByLabel applies the optional nt_table fast path: when the query is Exact with a concrete label and
// the grammar carries a label-reach table, a nonterminal whose reachable
// terminal-label set excludes the pattern's label can never expand into a
// match, so its whole subtree is skipped rather than descended into and
// filtered at the leaf.
func (it *Iterator) prunedByLabel(label uint64) bool {
	if !it.ntFast || it.mode != Exact || it.pat.LabelWild || label < it.g.Terminals {
		return false
	}
	for _, t := range it.g.NTReach(label) {
		if t == it.pat.Label {
			return false
		}
	}
	return true
}

// matchesIncidence skips e unless it is incident to every non-wildcard
// pattern node.
func (it *Iterator) matchesIncidence(e int) bool {
	for _, n := range it.seed {
		if n.Wild {
			continue
		}
		if !it.g.MatrixIncident(n.Value, e) {
			return false
		}
	}
	return true
}

// emits decides whether a fully expanded leaf edge is a match: Exact
// compares position-by-position; Contains and Decompress emit
// unconditionally once expanded.
func (it *Iterator) emits(leaf hgraph.HEdge) bool {
	if it.mode != Exact {
		return true
	}
	if !it.pat.LabelWild && leaf.Label != it.pat.Label {
		return false
	}
	if leaf.Rank != it.pat.Rank || len(leaf.Nodes) != len(it.pat.Nodes) {
		return false
	}
	for i, n := range it.pat.Nodes {
		if n.Wild {
			continue
		}
		if leaf.Nodes[i] != n.Value {
			return false
		}
	}
	return true
}

// Finish releases the iterator's descent stack. Safe to call multiple
// times and after exhaustion.
func (it *Iterator) Finish() {
	it.stack = nil
	it.finished = true
}

// All adapts Next into a Go 1.23 range-over-func iterator for convenient
// for-range use; it still calls Finish on exhaustion or early break.
func (it *Iterator) All() func(yield func(hgraph.HEdge) bool) {
	return func(yield func(hgraph.HEdge) bool) {
		defer it.Finish()
		for {
			e, ok, err := it.Next()
			if err != nil || !ok {
				return
			}
			if !yield(e) {
				return
			}
		}
	}
}
