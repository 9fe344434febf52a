// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/adlerenno/cgraph"
)

func runQuery(args []string) error {
	fs := flag.NewFlagSet("cgraph query", flag.ExitOnError)
	decompressOut := fs.String("decompress", "", "write every decompressed edge to this file")
	var hyperedges []string
	fs.Func("hyperedges", "pattern r,label,n0,n1,... (? = wildcard)", func(s string) error {
		hyperedges = append(hyperedges, s)
		return nil
	})
	existQuery := fs.Bool("exist-query", false, "report only whether each pattern matches")
	exactQuery := fs.Bool("exact-query", false, "use Exact instead of Contains semantics")
	sortResult := fs.Bool("sort-result", false, "sort each pattern's results before printing")
	queryFile := fs.String("query-file", "", "read newline-separated patterns from this file")
	nodeCount := fs.Bool("node-count", false, "print the node count")
	edgeLabels := fs.Bool("edge-labels", false, "print the edge label count")
	noTable := fs.Bool("no-table", false, "disable the nt_table label-reach fast path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) != 1 {
		usage()
		return fmt.Errorf("query mode takes exactly <input>, got %d argument(s)", len(rest))
	}

	r, err := cgraph.Open(rest[0], cgraph.ReaderOptions{NoTable: *noTable})
	if err != nil {
		return err
	}
	defer r.Close()

	if *nodeCount {
		fmt.Println(r.NodeCount())
	}
	if *edgeLabels {
		fmt.Println(r.EdgeLabelCount())
	}

	if *queryFile != "" {
		lines, err := readPatternFile(*queryFile)
		if err != nil {
			return err
		}
		hyperedges = append(hyperedges, lines...)
	}

	if *decompressOut != "" {
		if err := decompressToFile(r, *decompressOut); err != nil {
			return err
		}
	}

	for _, raw := range hyperedges {
		if err := runPatternQuery(r, raw, *exactQuery, *existQuery, *sortResult); err != nil {
			return err
		}
	}
	return nil
}

func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}

func decompressToFile(r *cgraph.Reader, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	defer w.Flush()

	it := r.EdgesAll()
	for {
		e, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Fprintln(w, formatEdge(e))
	}
}

func formatEdge(e cgraph.HEdge) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d %d", e.Rank, e.Label)
	for _, n := range e.Nodes {
		fmt.Fprintf(&sb, " %d", n)
	}
	return sb.String()
}

// runPatternQuery parses and runs one "r,label,n0,n1,..." pattern (spec
// §6.3), printing matches or, with existQuery, a single boolean line.
func runPatternQuery(r *cgraph.Reader, raw string, exact, existQuery, sortResult bool) error {
	pat, err := parsePattern(raw, existQuery)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", raw, err)
	}

	if existQuery {
		ok, err := r.EdgeExists(pat, exact)
		if err != nil {
			return err
		}
		fmt.Println(ok)
		return nil
	}

	it := r.Edges(pat, exact, false)
	var matches []cgraph.HEdge
	for {
		e, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		matches = append(matches, e)
	}

	if sortResult {
		sortHEdges(matches)
	}
	for _, e := range matches {
		fmt.Println(formatEdge(e))
	}
	return nil
}

func sortHEdges(edges []cgraph.HEdge) {
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && hedgeLess(edges[j], edges[j-1]); j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}
}

func hedgeLess(a, b cgraph.HEdge) bool {
	if a.Label != b.Label {
		return a.Label < b.Label
	}
	for i := 0; i < len(a.Nodes) && i < len(b.Nodes); i++ {
		if a.Nodes[i] != b.Nodes[i] {
			return a.Nodes[i] < b.Nodes[i]
		}
	}
	return len(a.Nodes) < len(b.Nodes)
}

// parsePattern parses "r,label,n0,n1,...": first the rank,
// then the label or "?", then positional endpoints, each "?" or an
// integer. The endpoint count must equal rank, except under set
// semantics (spec §6.3 "--exist-query"), where any endpoint count is
// accepted and only presence/absence of each node is tested.
func parsePattern(raw string, setSemantics bool) (cgraph.Pattern, error) {
	tokens := strings.Split(raw, ",")
	if len(tokens) < 2 {
		return cgraph.Pattern{}, fmt.Errorf("need at least rank and label")
	}

	rank, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
	if err != nil {
		return cgraph.Pattern{}, fmt.Errorf("rank: %w", err)
	}

	labelTok := strings.TrimSpace(tokens[1])
	nodeToks := tokens[2:]
	if !setSemantics && len(nodeToks) != rank {
		return cgraph.Pattern{}, fmt.Errorf("rank %d does not match %d endpoint token(s)", rank, len(nodeToks))
	}

	nodes := make([]cgraph.PatternNode, len(nodeToks))
	for i, tok := range nodeToks {
		tok = strings.TrimSpace(tok)
		if tok == "?" {
			nodes[i] = cgraph.Wildcard
			continue
		}
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return cgraph.Pattern{}, fmt.Errorf("node %q: %w", tok, err)
		}
		nodes[i] = cgraph.Node(v)
	}

	if labelTok == "?" {
		return cgraph.AnyLabelPattern(rank, nodes...), nil
	}
	label, err := strconv.ParseUint(labelTok, 10, 64)
	if err != nil {
		return cgraph.Pattern{}, fmt.Errorf("label: %w", err)
	}
	return cgraph.LabelPattern(rank, label, nodes...), nil
}
