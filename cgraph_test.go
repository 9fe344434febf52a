// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package cgraph

import (
	"bytes"
	"slices"
	"testing"

	"github.com/adlerenno/cgraph/internal/testutil"
)

func mustCompress(t *testing.T, w *Writer) []byte {
	t.Helper()
	if err := w.Compress(); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf, nil); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func mustOpen(t *testing.T, data []byte) *Reader {
	t.Helper()
	r, err := OpenBytes(data, ReaderOptions{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	return r
}

func sortEdges(edges []HEdge) {
	slices.SortFunc(edges, func(a, b HEdge) int {
		if a.Label != b.Label {
			if a.Label < b.Label {
				return -1
			}
			return 1
		}
		for i := 0; i < min(len(a.Nodes), len(b.Nodes)); i++ {
			if a.Nodes[i] != b.Nodes[i] {
				if a.Nodes[i] < b.Nodes[i] {
					return -1
				}
				return 1
			}
		}
		return len(a.Nodes) - len(b.Nodes)
	})
}

// Scenario 1: a triangle as three rank-2 edges.
func TestTriangleScenario(t *testing.T) {
	w := NewWriter(CParams{})
	edges := []HEdge{
		{Rank: 2, Label: 0, Nodes: []uint64{0, 1}},
		{Rank: 2, Label: 1, Nodes: []uint64{1, 2}},
		{Rank: 2, Label: 2, Nodes: []uint64{2, 0}},
	}
	for _, e := range edges {
		if err := w.AddEdge(e); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	data := mustCompress(t, w)

	r := mustOpen(t, data)
	if got := r.NodeCount(); got != 3 {
		t.Fatalf("NodeCount = %d, want 3", got)
	}
	if got := r.EdgeLabelCount(); got != 3 {
		t.Fatalf("EdgeLabelCount = %d, want 3", got)
	}

	got, err := r.EdgesAll().Collect()
	if err != nil {
		t.Fatalf("EdgesAll: %v", err)
	}
	sortEdges(got)
	want := slices.Clone(edges)
	sortEdges(want)
	if !slices.EqualFunc(got, want, HEdge.Equal) {
		t.Fatalf("EdgesAll = %+v, want %+v", got, want)
	}

	// Query (2, ?, 1, ?) exact: edges with 1 in slot 0.
	pat := AnyLabelPattern(2, Node(1), Wildcard)
	it := r.Edges(pat, true, false)
	matches, err := it.Collect()
	if err != nil {
		t.Fatalf("Edges: %v", err)
	}
	if len(matches) != 1 || !matches[0].Equal(HEdge{Rank: 2, Label: 1, Nodes: []uint64{1, 2}}) {
		t.Fatalf("Edges((2,?,1,?), exact) = %+v, want [{2 1 [1 2]}]", matches)
	}
}

// Scenario 2: five inserts of the same rank-3 hyperedge. Edges form a set,
// so the writer keeps one copy, and decompression returns that one edge.
func TestRankThreeReplacementScenario(t *testing.T) {
	w := NewWriter(CParams{})
	edge := HEdge{Rank: 3, Label: 7, Nodes: []uint64{4, 5, 6}}
	for i := 0; i < 5; i++ {
		if err := w.AddEdge(edge); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	if w.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (set semantics)", w.Len())
	}

	data := mustCompress(t, w)
	r := mustOpen(t, data)

	got, err := r.EdgesAll().Collect()
	if err != nil {
		t.Fatalf("EdgesAll: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(edge) {
		t.Fatalf("EdgesAll = %+v, want one copy of %+v (dedup'd at insert)", got, edge)
	}
}

// Scenario 3: wildcard Contains query.
func TestWildcardContainsScenario(t *testing.T) {
	w := NewWriter(CParams{})
	edges := []HEdge{
		{Rank: 2, Label: 0, Nodes: []uint64{0, 1}},
		{Rank: 2, Label: 1, Nodes: []uint64{1, 2}},
		{Rank: 3, Label: 2, Nodes: []uint64{5, 0, 1, 2}},
	}
	edges[2] = HEdge{Rank: 3, Label: 2, Nodes: []uint64{0, 1, 2}}
	for _, e := range edges {
		if err := w.AddEdge(e); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	data := mustCompress(t, w)
	r := mustOpen(t, data)

	pat := AnyLabelPattern(0, Node(1))
	got, err := r.Edges(pat, false, false).Collect()
	if err != nil {
		t.Fatalf("Edges: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Edges((0,?,1), contains) = %d edges, want 3", len(got))
	}
}

// Scenario 4: exist queries.
func TestExistQueryScenario(t *testing.T) {
	w := NewWriter(CParams{})
	for _, e := range []HEdge{
		{Rank: 2, Label: 0, Nodes: []uint64{0, 1}},
		{Rank: 2, Label: 1, Nodes: []uint64{1, 2}},
		{Rank: 3, Label: 2, Nodes: []uint64{0, 1, 2}},
	} {
		if err := w.AddEdge(e); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	data := mustCompress(t, w)
	r := mustOpen(t, data)

	ok, err := r.EdgeExists(AnyLabelPattern(2, Node(0), Node(2)), true)
	if err != nil {
		t.Fatalf("EdgeExists: %v", err)
	}
	if ok {
		t.Fatalf("EdgeExists(rank=2, [0,2], exact) = true, want false")
	}

	ok, err = r.EdgeExists(AnyLabelPattern(3, Node(0), Node(1), Node(2)), true)
	if err != nil {
		t.Fatalf("EdgeExists: %v", err)
	}
	if !ok {
		t.Fatalf("EdgeExists(rank=3, [0,1,2], exact) = false, want true")
	}
}

// Scenario 5: compress/decompress round trip over a random
// hypergraph, compared as sets after sorting both sides.
func TestDecompressRoundTrip(t *testing.T) {
	prng := testutil.New(42)
	g := testutil.Graph(prng, testutil.RandGraph{
		Nodes: 30, Labels: 8, Edges: 120, MinRank: 1, MaxRank: 4, DupFraction: 0.2,
	})

	w := NewWriter(CParams{Monograms: true, NTTable: true})
	for _, e := range g.Edges() {
		if err := w.AddEdge(fromInternal(e)); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	data := mustCompress(t, w)
	r := mustOpen(t, data)

	got, err := r.EdgesAll().Collect()
	if err != nil {
		t.Fatalf("EdgesAll: %v", err)
	}

	want := make([]HEdge, len(g.Edges()))
	for i, e := range g.Edges() {
		want[i] = fromInternal(e)
	}
	sortEdges(got)
	sortEdges(want)
	if !slices.EqualFunc(got, want, HEdge.Equal) {
		t.Fatalf("round trip mismatch: got %d edges, want %d", len(got), len(want))
	}
}

// Scenario 6: an edge above LimitMaxRank is rejected by
// AddEdge, and compression is never attempted.
func TestMaxRankRejection(t *testing.T) {
	w := NewWriter(CParams{})
	nodes := make([]uint64, LimitMaxRank+1)
	err := w.AddEdge(HEdge{Rank: LimitMaxRank + 1, Label: 0, Nodes: nodes})
	if err == nil {
		t.Fatal("AddEdge with rank > LimitMaxRank succeeded, want error")
	}
	if w.Len() != 0 {
		t.Fatalf("Len = %d after rejected AddEdge, want 0", w.Len())
	}
}

// Boundary case: empty input fails Compress.
func TestCompressEmptyGraphFails(t *testing.T) {
	w := NewWriter(CParams{})
	if err := w.Compress(); err == nil {
		t.Fatal("Compress on empty graph succeeded, want error")
	}
}

// Boundary case: self-loop hyperedges round-trip identically.
func TestSelfLoopRoundTrip(t *testing.T) {
	w := NewWriter(CParams{})
	edge := HEdge{Rank: 3, Label: 9, Nodes: []uint64{4, 4, 5}}
	if err := w.AddEdge(edge); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	data := mustCompress(t, w)
	r := mustOpen(t, data)

	got, err := r.EdgesAll().Collect()
	if err != nil {
		t.Fatalf("EdgesAll: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(edge) {
		t.Fatalf("EdgesAll = %+v, want [%+v]", got, edge)
	}
}

// Exact query with a pattern that repeats a concrete node value at two
// positions must still match a self-loop edge: the dedup used to seed
// incidence filtering must never shrink the position list emits compares
// against.
func TestExactQueryRepeatedNodeMatchesSelfLoop(t *testing.T) {
	w := NewWriter(CParams{})
	selfLoop := HEdge{Rank: 2, Label: 0, Nodes: []uint64{5, 5}}
	other := HEdge{Rank: 2, Label: 1, Nodes: []uint64{5, 6}}
	for _, e := range []HEdge{selfLoop, other} {
		if err := w.AddEdge(e); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	data := mustCompress(t, w)
	r := mustOpen(t, data)

	pat := AnyLabelPattern(2, Node(5), Node(5))
	matches, err := r.Edges(pat, true, false).Collect()
	if err != nil {
		t.Fatalf("Edges: %v", err)
	}
	if len(matches) != 1 || !matches[0].Equal(selfLoop) {
		t.Fatalf("Edges((2,?,5,5), exact) = %+v, want [%+v]", matches, selfLoop)
	}

	ok, err := r.EdgeExists(AnyLabelPattern(2, Node(5), Node(6)), true)
	if err != nil {
		t.Fatalf("EdgeExists: %v", err)
	}
	if !ok {
		t.Fatalf("EdgeExists(2, [5,6], exact) = false, want true")
	}
}

// Determinism: two runs with identical input and flags produce
// byte-identical output.
func TestDeterminism(t *testing.T) {
	prng := testutil.New(7)
	g := testutil.Graph(prng, testutil.RandGraph{
		Nodes: 20, Labels: 5, Edges: 60, MinRank: 1, MaxRank: 3, DupFraction: 0.3,
	})

	build := func() []byte {
		w := NewWriter(CParams{Monograms: true})
		for _, e := range g.Edges() {
			_ = w.AddEdge(fromInternal(e))
		}
		return mustCompress(t, w)
	}

	a := build()
	b := build()
	if !bytes.Equal(a, b) {
		t.Fatal("two compressions of the same input produced different bytes")
	}
}

// Monotonicity under parameter change: --no-table (NTTable) and --factor
// change the serialized bytes but never the query results.
func TestParameterChangeLeavesQueryResultsUnchanged(t *testing.T) {
	prng := testutil.New(11)
	g := testutil.Graph(prng, testutil.RandGraph{
		Nodes: 25, Labels: 6, Edges: 80, MinRank: 1, MaxRank: 4, DupFraction: 0.2,
	})

	build := func(p CParams) []byte {
		w := NewWriter(p)
		for _, e := range g.Edges() {
			if err := w.AddEdge(fromInternal(e)); err != nil {
				t.Fatalf("AddEdge: %v", err)
			}
		}
		return mustCompress(t, w)
	}

	plain := build(CParams{})
	withTable := build(CParams{NTTable: true})
	withFactor := build(CParams{Factor: 256})

	if bytes.Equal(plain, withTable) {
		t.Fatal("NTTable: true produced identical bytes to NTTable: false, want different bytes")
	}
	if bytes.Equal(plain, withFactor) {
		t.Fatal("Factor: 256 produced identical bytes to the default factor, want different bytes")
	}

	rPlain := mustOpen(t, plain)
	rTable := mustOpen(t, withTable)
	rFactor := mustOpen(t, withFactor)

	all := func(r *Reader) []HEdge {
		got, err := r.EdgesAll().Collect()
		if err != nil {
			t.Fatalf("EdgesAll: %v", err)
		}
		sortEdges(got)
		return got
	}

	wantAll := all(rPlain)
	for name, r := range map[string]*Reader{"NTTable": rTable, "Factor": rFactor} {
		if got := all(r); !slices.EqualFunc(got, wantAll, HEdge.Equal) {
			t.Fatalf("%s: EdgesAll = %+v, want %+v", name, got, wantAll)
		}
	}

	pat := AnyLabelPattern(0, Node(g.Edges()[0].Nodes[0]))
	query := func(r *Reader) []HEdge {
		got, err := r.Edges(pat, false, false).Collect()
		if err != nil {
			t.Fatalf("Edges: %v", err)
		}
		sortEdges(got)
		return got
	}

	wantQuery := query(rPlain)
	for name, r := range map[string]*Reader{"NTTable": rTable, "Factor": rFactor} {
		if got := query(r); !slices.EqualFunc(got, wantQuery, HEdge.Equal) {
			t.Fatalf("%s: Edges(contains) = %+v, want %+v", name, got, wantQuery)
		}
	}
}

// State-violation lifecycle errors.
func TestLifecycleErrors(t *testing.T) {
	w := NewWriter(CParams{})
	if _, err := w.WriteTo(&bytes.Buffer{}, nil); err == nil {
		t.Fatal("WriteTo before compress succeeded, want error")
	}
}
