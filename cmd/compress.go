// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/adlerenno/cgraph"
)

// inputFormat selects which of the two supported line formats to parse.
type inputFormat string

const (
	// formatLabelFirst: the first token is the label, the rest are
	// endpoints in order.
	formatLabelFirst inputFormat = "label-first"
	// formatRankAsLabel: every token is an endpoint; the label is set
	// equal to the line's rank (its token count). This collapses the
	// label space for distinct edges sharing a rank; preserved as-is
	// rather than silently fixed, see DESIGN.md.
	formatRankAsLabel inputFormat = "rank-as-label"
)

func runCompress(args []string) error {
	fs := flag.NewFlagSet("cgraph compress", flag.ExitOnError)
	format := fs.String("format", string(formatLabelFirst), "input line format: label-first or rank-as-label")
	overwrite := fs.Bool("overwrite", false, "overwrite an existing output file")
	maxRank := fs.Int("max-rank", cgraph.DefaultMaxRank, "maximum nonterminal rank RePair may introduce")
	monograms := fs.Bool("monograms", false, "enable monogram (unary digram) promotion")
	factor := fs.Uint("factor", 0, "bitvec superblock factor (0 = default)")
	noTable := fs.Bool("no-table", false, "omit the optional nonterminal label-reach pruning table")
	rrr := fs.Bool("rrr", false, "use the RRR block-compressed bit-sequence variant")
	verbose := fs.Bool("v", false, "print per-region build progress")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) != 2 {
		usage()
		return fmt.Errorf("compress mode takes exactly <input> <output>, got %d argument(s)", len(rest))
	}
	inPath, outPath := rest[0], rest[1]

	if !*overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("%s already exists (use --overwrite)", outPath)
		}
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	w := cgraph.NewWriter(cgraph.CParams{
		MaxRank:   *maxRank,
		Monograms: *monograms,
		Factor:    *factor,
		NTTable:   !*noTable,
		RRR:       *rrr,
	})

	n, err := readEdges(in, inputFormat(*format), w)
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("read %d line(s)", n)
	}

	if err := w.Compress(); err != nil {
		return err
	}
	if *verbose {
		log.Printf("compressed: %d rule(s)", w.RuleCount())
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var trace io.Writer
	if *verbose {
		trace = os.Stderr
	}
	_, err = w.WriteTo(out, trace)
	return err
}

// readEdges parses input line by line and feeds each parsed
// hyperedge to w. A line with more than cgraph.LimitMaxRank tokens is
// rejected.
func readEdges(f *os.File, format inputFormat, w *cgraph.Writer) (int, error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	n := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line, format)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := w.AddEdge(e); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		n++
	}
	return n, scanner.Err()
}

func parseLine(line string, format inputFormat) (cgraph.HEdge, error) {
	tokens := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(tokens) > cgraph.LimitMaxRank {
		return cgraph.HEdge{}, fmt.Errorf("line has %d tokens, exceeds LimitMaxRank", len(tokens))
	}

	vals := make([]uint64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return cgraph.HEdge{}, fmt.Errorf("token %q: %w", tok, err)
		}
		vals[i] = v
	}

	switch format {
	case formatRankAsLabel:
		return cgraph.HEdge{Rank: len(vals), Label: uint64(len(vals)), Nodes: vals}, nil
	default:
		if len(vals) < 1 {
			return cgraph.HEdge{}, fmt.Errorf("empty line")
		}
		label, nodes := vals[0], vals[1:]
		return cgraph.HEdge{Rank: len(nodes), Label: label, Nodes: nodes}, nil
	}
}
