// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package testutil generates deterministic random hypergraphs for tests,
// the way bart's internal/tests/random generates deterministic random
// prefixes: a rand/v2.PCG-seeded generator so a failing test can be
// reproduced from its seed alone.
package testutil

import (
	"math/rand/v2"

	"github.com/adlerenno/cgraph/internal/hgraph"
)

// RandGraph describes the shape of a randomly generated hypergraph.
type RandGraph struct {
	Nodes       int // node id space [0, Nodes)
	Labels      int // terminal label space [0, Labels)
	Edges       int // number of edges to attempt to insert
	MinRank     int
	MaxRank     int
	DupFraction float64 // fraction of edges that intentionally repeat an earlier one
}

// New returns a deterministic PRNG seeded from seed, the same construction
// bart's random-prefix generator uses (rand.NewPCG wrapped in rand.New).
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Graph builds a random hgraph.Graph per cfg using prng.
func Graph(prng *rand.Rand, cfg RandGraph) *hgraph.Graph {
	g := hgraph.New()
	var prior []hgraph.HEdge

	for i := 0; i < cfg.Edges; i++ {
		if len(prior) > 0 && prng.Float64() < cfg.DupFraction {
			g.AddEdge(prior[prng.IntN(len(prior))])
			continue
		}
		e := RandEdge(prng, cfg)
		g.AddEdge(e)
		prior = append(prior, e)
	}
	return g
}

// RandEdge returns a single random hyperedge within cfg's shape.
func RandEdge(prng *rand.Rand, cfg RandGraph) hgraph.HEdge {
	rank := cfg.MinRank
	if cfg.MaxRank > cfg.MinRank {
		rank += prng.IntN(cfg.MaxRank - cfg.MinRank + 1)
	}
	nodes := make([]uint64, rank)
	for j := range nodes {
		nodes[j] = uint64(prng.IntN(cfg.Nodes))
	}
	return hgraph.HEdge{
		Rank:  rank,
		Label: uint64(prng.IntN(cfg.Labels)),
		Nodes: nodes,
	}
}
