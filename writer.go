// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package cgraph

import (
	"fmt"
	"io"

	"github.com/adlerenno/cgraph/internal/cgerr"
	"github.com/adlerenno/cgraph/internal/grammar"
	"github.com/adlerenno/cgraph/internal/hgraph"
	"github.com/adlerenno/cgraph/internal/repair"
)

// CParams configures compression. The zero value is
// valid: MaxRank defaults to DefaultMaxRank, every other field defaults to
// off.
type CParams struct {
	// MaxRank bounds the rank of any nonterminal RePair introduces. Zero
	// means DefaultMaxRank. Values above LimitMaxRank are rejected by
	// Compress.
	MaxRank int

	// Monograms enables unary-pattern promotion.
	Monograms bool

	// Factor is the bitvec superblock factor for the start-symbol matrix;
	// zero means bitvec.DefaultFactor. Changing it does not change query
	// results. With the plain bit-sequence flavor the factor is not stored,
	// so the serialized bytes are the same for every factor; with RRR each
	// matrix level stores its factor (see internal/k2tree.Builder.WithFactor).
	Factor uint

	// NTTable emits the optional nonterminal label-reach pruning table.
	NTTable bool

	// RRR selects the block-compressed rank/select bit-sequence variant
	// for the matrix instead of the plain one.
	RRR bool
}

func (p CParams) maxRank() int {
	if p.MaxRank == 0 {
		return DefaultMaxRank
	}
	return p.MaxRank
}

type writerState int

const (
	stateBuilding writerState = iota
	stateCompressed
)

// Writer is the build-time handle: add_edge accumulates
// a deduplicated in-memory hypergraph, compress runs RePair and discards
// the raw edges in favor of the grammar, write serializes the result.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	params CParams
	state  writerState

	g  *hgraph.Graph
	rg *repair.Grammar
	gm *grammar.Grammar
}

// NewWriter returns an empty Writer with the given compression parameters.
func NewWriter(params CParams) *Writer {
	return &Writer{params: params, state: stateBuilding, g: hgraph.New()}
}

// AddEdge inserts e into the graph being built. It fails with a
// cgerr.StateViolation error if the Writer has already been compressed,
// or a cgerr.CapacityExceeded error if e.Rank is out of range.
func (w *Writer) AddEdge(e HEdge) error {
	if w.state != stateBuilding {
		return cgerr.New(cgerr.StateViolation, "add_edge after compress")
	}
	if e.Rank < 1 || e.Rank > LimitMaxRank {
		return cgerr.Newf(cgerr.CapacityExceeded, "rank %d exceeds LimitMaxRank (%d)", e.Rank, LimitMaxRank)
	}
	if e.Rank != len(e.Nodes) {
		return cgerr.Newf(cgerr.MalformedInput, "rank %d does not match %d node(s)", e.Rank, len(e.Nodes))
	}
	w.g.AddEdge(toInternal(e))
	return nil
}

// Len returns the number of distinct edges added so far.
func (w *Writer) Len() int { return w.g.Len() }

// Compress runs the RePair engine over the accumulated graph
// and discards the raw edge list in favor of the resulting grammar. It
// fails with a cgerr.StateViolation error on an empty graph or if already compressed.
func (w *Writer) Compress() error {
	if w.state == stateCompressed {
		return cgerr.New(cgerr.StateViolation, "compress after compress")
	}
	if w.g.Len() == 0 {
		return cgerr.New(cgerr.StateViolation, "compress on empty graph")
	}

	maxRank := w.params.maxRank()
	if maxRank > LimitMaxRank {
		return cgerr.Newf(cgerr.CapacityExceeded, "MaxRank %d exceeds LimitMaxRank (%d)", maxRank, LimitMaxRank)
	}

	sorted := w.g.Sorted()
	rg := repair.Run(sorted, w.g.NodeCount(), repair.Params{
		Terminals: w.g.LabelCount(),
		MaxRank:   maxRank,
		Monograms: w.params.Monograms,
	})

	w.gm = grammar.Build(rg, grammar.BuildParams{
		Terminals: w.g.LabelCount(),
		MaxRank:   maxRank,
		NTTable:   w.params.NTTable,
		Factor:    w.params.Factor,
		RRR:       w.params.RRR,
	})
	w.rg = rg
	w.g = nil // edges discarded
	w.state = stateCompressed
	return nil
}

// RuleCount returns the number of grammar rules produced by Compress. It
// is zero for a single-edge or rule-free input.
func (w *Writer) RuleCount() int {
	if w.rg == nil {
		return 0
	}
	return len(w.rg.Rules)
}

// WriteTo serializes the compressed grammar to out. It
// fails with a cgerr.StateViolation error if called before Compress (spec
// §4.10 "write fails if not yet compressed"). When trace is non-nil, a
// line per region is written to it as the file is assembled (spec's
// original_source-recovered "-v" verbose build tracing, see SPEC_FULL.md).
func (w *Writer) WriteTo(out io.Writer, trace io.Writer) (int64, error) {
	if w.state != stateCompressed {
		return 0, cgerr.New(cgerr.StateViolation, "write before compress")
	}

	if trace != nil {
		fmt.Fprintf(trace, "writing magic + %d rule(s)\n", len(w.gm.Rules))
		fmt.Fprintf(trace, "writing start symbol: %d edge(s) over %d node(s)\n", w.gm.StartLen(), w.gm.NodeCount)
	}

	data := w.gm.Encode()
	if trace != nil {
		fmt.Fprintf(trace, "wrote %d byte(s)\n", len(data))
	}

	n, err := out.Write(data)
	return int64(n), err
}
