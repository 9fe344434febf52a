// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package grammar implements the on-disk grammar/start-symbol writer and
// reader: the straight-line hyperedge-replacement
// grammar produced by internal/repair, serialized as a k2-tree incidence
// matrix, Elias-Fano label and index-function tables, and a grammar header
// of rule bodies.
package grammar

import (
	"errors"
	"slices"

	"github.com/adlerenno/cgraph/internal/eliasfano"
	"github.com/adlerenno/cgraph/internal/hgraph"
	"github.com/adlerenno/cgraph/internal/k2tree"
	"github.com/adlerenno/cgraph/internal/repair"
)

// Magic is the 8-byte file header.
var Magic = [8]byte{'C', 'G', 'R', 'A', 'P', 'H', '1', 0}

// ErrBadMagic is returned by Decode when the file header does not match Magic.
var ErrBadMagic = errors.New("grammar: bad magic")

// ErrTruncated is returned by Decode on any structural length/field
// inconsistency.
var ErrTruncated = errors.New("grammar: truncated or malformed region")

// Grammar is the fully decoded compressed representation: rule set plus
// start-symbol incidence matrix, labels and index functions.
type Grammar struct {
	Terminals uint64 // T: first nonterminal label
	MaxRank   int
	NodeCount uint64

	Rules []repair.Rule

	Matrix  *k2tree.Tree        // NodeCount x len(start edges)
	Labels  *eliasfano.Sequence // one label per start edge, ascending
	IFIndex []uint32            // one IF-table id per start edge
	IFTable *ifTable

	NTTable *k2tree.Tree // optional: NT label -> reachable terminal labels; nil if omitted
}

// BuildParams configures region emission choices that do not affect query
// results.
type BuildParams struct {
	Terminals uint64
	MaxRank   int
	NTTable   bool // emit the optional label-reach pruning table
	Factor    uint // bitvec superblock factor for the matrix
	RRR       bool // use the block-compressed RRR bit-sequence flavor for the k2-tree's levels instead of the plain rank/select vector
}

// Build assembles a Grammar from a repair.Grammar. The start-symbol edges
// are re-numbered by ascending label so that the label column can be
// stored as a single Elias-Fano sequence (which requires non-decreasing
// input) instead of a label array plus a separate permutation; edges_all
// ordering is otherwise unconstrained, so this is a legitimate writer-side
// choice.
func Build(rg *repair.Grammar, p BuildParams) *Grammar {
	start := append([]hgraph.HEdge(nil), rg.Start...)
	slices.SortFunc(start, func(a, b hgraph.HEdge) int {
		if a.Label < b.Label {
			return -1
		}
		if a.Label > b.Label {
			return 1
		}
		return 0
	})

	g := &Grammar{
		Terminals: p.Terminals,
		MaxRank:   p.MaxRank,
		NodeCount: rg.NodeCount,
		Rules:     rg.Rules,
	}

	mb := k2tree.NewBuilder(rg.NodeCount, uint64(len(start))).WithFactor(p.Factor).WithRRR(p.RRR)
	efb := eliasfano.NewBuilder(nextNTLabel(p.Terminals, len(rg.Rules)) + 1)
	ifb := newIFBuilder()
	g.IFIndex = make([]uint32, len(start))

	for e, edge := range start {
		cols := dedupSortedNodes(edge.Nodes)
		for _, n := range cols {
			mb.Set(n, uint64(e))
		}
		efb.Add(edge.Label)

		idx := make([]int, len(edge.Nodes))
		for i, n := range edge.Nodes {
			idx[i] = indexOf(cols, n)
		}
		g.IFIndex[e] = ifb.intern(idx)
	}

	g.Matrix = mb.Build()
	g.Labels = efb.Build()
	g.IFTable = ifb.build()

	if p.NTTable {
		g.NTTable = buildNTTable(rg.Rules, p.Terminals)
	}

	return g
}

func nextNTLabel(terminals uint64, ruleCount int) uint64 {
	return terminals + uint64(ruleCount)
}

// StartLen returns the number of start-symbol edges (matrix columns).
func (g *Grammar) StartLen() int { return int(g.Matrix.Cols()) }

// StartLabel returns the label of start-symbol edge e.
func (g *Grammar) StartLabel(e int) uint64 { return g.Labels.Get(e) }

// StartColumns returns the ascending, duplicate-free node list incident to
// start-symbol edge e.
func (g *Grammar) StartColumns(e int) []uint64 { return g.Matrix.Column(uint64(e)) }

// StartIndexFunction returns the index function for start-symbol edge e:
// idx[i] names the column (into StartColumns(e)) supplying the edge's i-th
// original node.
func (g *Grammar) StartIndexFunction(e int) []int {
	return g.IFTable.get(g.IFIndex[e])
}

// MatrixIncident reports whether node v appears in start-symbol edge e.
func (g *Grammar) MatrixIncident(v uint64, e int) bool { return g.Matrix.Get(v, uint64(e)) }

// RowIter returns the start-symbol edge ids incident to node v, ascending.
func (g *Grammar) RowIter(v uint64) []uint64 { return g.Matrix.RowIter(v) }

func indexOf(sorted []uint64, v uint64) int {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func dedupSortedNodes(nodes []uint64) []uint64 {
	out := append([]uint64(nil), nodes...)
	slices.Sort(out)
	w := 0
	for i, v := range out {
		if i == 0 || out[w-1] != v {
			out[w] = v
			w++
		}
	}
	return out[:w]
}
