// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Command cgraph is the adapter layer for the cgraph library: it turns a hyperedge text file into a compressed
// file, or runs queries against one, but contains none of the compression
// or query algorithms itself.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch {
	case looksLikeQuery(os.Args[1:]):
		err = runQuery(os.Args[1:])
	default:
		err = runCompress(os.Args[1:])
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "cgraph:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  cgraph <input> <output> [--format label-first|rank-as-label] [--overwrite]
         [--max-rank N] [--monograms] [--factor N] [--no-table] [--rrr] [-v]
  cgraph <input> [--decompress <out>] [--hyperedges r,label,n0,n1,...]
         [--exist-query] [--exact-query] [--sort-result]
         [--query-file <path>] [--node-count] [--edge-labels]`)
}

// queryOnlyFlags names every flag that only exists in query mode (spec
// §6.3): their presence unambiguously selects query mode, since compress
// mode's positional-argument count can't be told apart from query mode's
// by counting dashes alone (a pattern argument like "2,1,1,2" has no
// leading dash either).
var queryOnlyFlags = []string{
	"-decompress", "-hyperedges", "-exist-query", "-exact-query",
	"-sort-result", "-query-file", "-node-count", "-edge-labels",
}

func looksLikeQuery(args []string) bool {
	// A bare single argument with no flags at all is a no-op query
	// (open, query nothing, close) rather than an incomplete compress
	// invocation missing its output path.
	if len(args) == 1 && len(args[0]) > 0 && args[0][0] != '-' {
		return true
	}

	for _, a := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(a, "-"), "=")
		for _, q := range queryOnlyFlags {
			if name == strings.TrimLeft(q, "-") {
				return true
			}
		}
	}
	return false
}
