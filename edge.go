// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package cgraph

import "github.com/adlerenno/cgraph/internal/hgraph"

// LimitMaxRank is the hard ceiling on a hyperedge's rank.
const LimitMaxRank = 16348

// DefaultMaxRank is the MaxRank a Writer uses when CParams.MaxRank is left
// at zero.
const DefaultMaxRank = 64

// HEdge is a labeled, ordered hyperedge: a rank, a label, and the ordered
// node sequence occupying its positions.
type HEdge struct {
	Rank  int
	Label uint64
	Nodes []uint64
}

// Equal reports whether e and o have the same rank, label and node
// sequence.
func (e HEdge) Equal(o HEdge) bool {
	return toInternal(e).Equal(toInternal(o))
}

func toInternal(e HEdge) hgraph.HEdge {
	return hgraph.HEdge{Rank: e.Rank, Label: e.Label, Nodes: e.Nodes}
}

func fromInternal(e hgraph.HEdge) HEdge {
	return HEdge{Rank: e.Rank, Label: e.Label, Nodes: e.Nodes}
}
