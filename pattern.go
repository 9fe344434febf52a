// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package cgraph

import "github.com/adlerenno/cgraph/internal/query"

// PatternNode is one positional constraint of a query pattern: either a
// concrete node id, or a wildcard matching any node at that position.
type PatternNode struct {
	Wild  bool
	Value uint64
}

// Node returns a concrete (non-wildcard) pattern position.
func Node(v uint64) PatternNode { return PatternNode{Value: v} }

// Wildcard matches any node at its position.
var Wildcard = PatternNode{Wild: true}

// Pattern is a query pattern: (rank, label, positional node constraints).
type Pattern struct {
	Rank      int
	Label     uint64
	LabelWild bool
	Nodes     []PatternNode
}

// LabelPattern returns a Pattern with a concrete label.
func LabelPattern(rank int, label uint64, nodes ...PatternNode) Pattern {
	return Pattern{Rank: rank, Label: label, Nodes: nodes}
}

// AnyLabelPattern returns a Pattern whose label is a wildcard.
func AnyLabelPattern(rank int, nodes ...PatternNode) Pattern {
	return Pattern{Rank: rank, LabelWild: true, Nodes: nodes}
}

func toInternalPattern(p Pattern) query.Pattern {
	nodes := make([]query.PatternNode, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = query.PatternNode{Wild: n.Wild, Value: n.Value}
	}
	return query.Pattern{Rank: p.Rank, Label: p.Label, LabelWild: p.LabelWild, Nodes: nodes}
}
