// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package repair

import (
	"testing"

	"github.com/adlerenno/cgraph/internal/hgraph"
)

func TestRunReplacesRepeatedDigram(t *testing.T) {
	edges := []hgraph.HEdge{
		{Rank: 2, Label: 10, Nodes: []uint64{1, 2}},
		{Rank: 2, Label: 11, Nodes: []uint64{2, 3}},
		{Rank: 2, Label: 10, Nodes: []uint64{4, 5}},
		{Rank: 2, Label: 11, Nodes: []uint64{5, 6}},
	}

	g := Run(edges, 7, Params{Terminals: 12, MaxRank: 16})

	if len(g.Rules) != 1 {
		t.Fatalf("len(Rules) = %d, want 1", len(g.Rules))
	}
	if g.Rules[0].Rank != 3 {
		t.Fatalf("rule rank = %d, want 3", g.Rules[0].Rank)
	}
	if len(g.Start) != 2 {
		t.Fatalf("len(Start) = %d, want 2", len(g.Start))
	}
	for _, e := range g.Start {
		if e.Label != g.FirstNT {
			t.Fatalf("start edge label = %d, want %d", e.Label, g.FirstNT)
		}
		if len(e.Nodes) != 3 {
			t.Fatalf("start edge nodes = %v, want 3 entries", e.Nodes)
		}
	}
	want1 := g.Start[0].Nodes
	want2 := g.Start[1].Nodes
	if !(want1[0] == 1 && want1[1] == 2 && want1[2] == 3) &&
		!(want2[0] == 1 && want2[1] == 2 && want2[2] == 3) {
		t.Fatalf("neither start edge reconstructs [1 2 3]: %v / %v", want1, want2)
	}
}

func TestRunRejectsOverRankDigram(t *testing.T) {
	edges := []hgraph.HEdge{
		{Rank: 3, Label: 10, Nodes: []uint64{1, 2, 3}},
		{Rank: 3, Label: 11, Nodes: []uint64{3, 4, 5}},
		{Rank: 3, Label: 10, Nodes: []uint64{6, 7, 8}},
		{Rank: 3, Label: 11, Nodes: []uint64{8, 9, 10}},
	}

	g := Run(edges, 11, Params{Terminals: 12, MaxRank: 3})
	if len(g.Rules) != 0 {
		t.Fatalf("len(Rules) = %d, want 0 (rank 5 digram exceeds MaxRank 3)", len(g.Rules))
	}
	if len(g.Start) != len(edges) {
		t.Fatalf("len(Start) = %d, want %d (no replacement should occur)", len(g.Start), len(edges))
	}
}

func TestRunMonogramPromotion(t *testing.T) {
	edges := []hgraph.HEdge{
		{Rank: 1, Label: 1, Nodes: []uint64{1}},
		{Rank: 1, Label: 1, Nodes: []uint64{2}},
		{Rank: 1, Label: 1, Nodes: []uint64{3}},
	}

	g := Run(edges, 4, Params{Terminals: 2, MaxRank: 16, Monograms: true})
	if len(g.Rules) != 1 {
		t.Fatalf("len(Rules) = %d, want 1", len(g.Rules))
	}
	if g.Rules[0].Rank != 1 || len(g.Rules[0].RHS) != 1 || g.Rules[0].RHS[0].Label != 1 {
		t.Fatalf("unexpected monogram rule: %+v", g.Rules[0])
	}
	if len(g.Start) != 3 {
		t.Fatalf("len(Start) = %d, want 3", len(g.Start))
	}
	for _, e := range g.Start {
		if e.Label != g.FirstNT {
			t.Fatalf("start edge label = %d, want %d", e.Label, g.FirstNT)
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	edges := []hgraph.HEdge{
		{Rank: 2, Label: 10, Nodes: []uint64{1, 2}},
		{Rank: 2, Label: 11, Nodes: []uint64{2, 3}},
		{Rank: 2, Label: 10, Nodes: []uint64{4, 5}},
		{Rank: 2, Label: 11, Nodes: []uint64{5, 6}},
		{Rank: 1, Label: 1, Nodes: []uint64{9}},
		{Rank: 1, Label: 1, Nodes: []uint64{10}},
	}

	g1 := Run(edges, 11, Params{Terminals: 12, MaxRank: 16, Monograms: true})
	g2 := Run(edges, 11, Params{Terminals: 12, MaxRank: 16, Monograms: true})

	if len(g1.Rules) != len(g2.Rules) {
		t.Fatalf("rule count differs across runs: %d vs %d", len(g1.Rules), len(g2.Rules))
	}
	for i := range g1.Rules {
		if g1.Rules[i].Rank != g2.Rules[i].Rank {
			t.Fatalf("rule %d rank differs: %d vs %d", i, g1.Rules[i].Rank, g2.Rules[i].Rank)
		}
	}
}
