// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package grammar

import (
	"github.com/adlerenno/cgraph/internal/k2tree"
	"github.com/adlerenno/cgraph/internal/repair"
)

// buildNTTable computes, for every nonterminal, the set of terminal labels
// reachable by fully expanding its rule. Rules reference only
// lower-indexed nonterminals (a
// nonterminal can only be introduced from edges already present, including
// earlier nonterminals), so a single forward pass suffices.
func buildNTTable(rules []repair.Rule, terminals uint64) *k2tree.Tree {
	reach := make([]map[uint64]bool, len(rules))

	b := k2tree.NewBuilder(uint64(len(rules)), terminals)
	for k, rule := range rules {
		r := make(map[uint64]bool)
		for _, c := range rule.RHS {
			if c.Label < terminals {
				r[c.Label] = true
			} else {
				for t := range reach[c.Label-terminals] {
					r[t] = true
				}
			}
		}
		reach[k] = r
		for t := range r {
			b.Set(uint64(k), t)
		}
	}
	return b.Build()
}

// NTReach returns the terminal labels reachable from nonterminal label nt
// (nt >= Terminals), using the optional nt_table when present.
func (g *Grammar) NTReach(nt uint64) []uint64 {
	if g.NTTable == nil || nt < g.Terminals {
		return nil
	}
	return g.NTTable.RowIter(nt - g.Terminals)
}
