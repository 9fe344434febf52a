// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package cgraph

import (
	"os"

	"github.com/adlerenno/cgraph/internal/cgerr"
	"github.com/adlerenno/cgraph/internal/grammar"
	"github.com/adlerenno/cgraph/internal/query"
)

// ReaderOptions configures query-time behavior that does not affect
// results.
type ReaderOptions struct {
	// NoTable disables the optional nt_table label-reach fast path (spec
	// §6.3 "--no-table") even if the opened file carries one.
	NoTable bool
}

// Reader is the read-only handle over a compressed file:
// open once, issue any number of sequentially-used queries, close once.
//
// A Reader is not safe for concurrent use; its iterators share a single
// decoded grammar view.
type Reader struct {
	gm   *grammar.Grammar
	opts ReaderOptions
}

// Open reads and decodes the compressed file at path. It fails with a
// cgerr.StructuralFile error on a magic mismatch or any malformed-length
// region.
func Open(path string, opts ReaderOptions) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cgerr.Newf(cgerr.StructuralFile, "open %s: %v", path, err)
	}
	return OpenBytes(data, opts)
}

// OpenBytes decodes a compressed file already held in memory.
func OpenBytes(data []byte, opts ReaderOptions) (*Reader, error) {
	gm, err := grammar.Decode(data)
	if err != nil {
		return nil, cgerr.Newf(cgerr.StructuralFile, "%v", err)
	}
	return &Reader{gm: gm, opts: opts}, nil
}

// Close releases the reader. Go's garbage collector reclaims the decoded
// grammar once the Reader is unreachable; Close exists for symmetry with
// the writer handle and to satisfy callers that always pair open/close.
func (r *Reader) Close() error { return nil }

// NodeCount returns 1 + the maximum node id observed at build time.
func (r *Reader) NodeCount() uint64 { return r.gm.NodeCount }

// EdgeLabelCount returns 1 + the maximum terminal label observed at build
// time.
func (r *Reader) EdgeLabelCount() uint64 { return r.gm.Terminals }

// RuleCount returns the number of grammar rules in the compressed file.
func (r *Reader) RuleCount() int { return len(r.gm.Rules) }

func (r *Reader) queryOpts() query.Options {
	return query.Options{NoTable: r.opts.NoTable}
}

// EdgesAll returns an iterator over every edge, in ascending start-symbol
// edge-id order.
func (r *Reader) EdgesAll() *Iterator {
	return &Iterator{it: query.New(r.gm, query.Decompress, query.Pattern{}, r.queryOpts())}
}

// Edges returns an iterator over edges matching pattern.
//
// exact selects Exact semantics (position-by-position match) when true,
// Contains semantics (incident to every non-wildcard node, any order)
// when false. noOrder is accepted for API parity with the reference
// reader but is not consulted beyond that same Exact/Contains choice: a
// caller passing exact=false, noOrder=true gets exactly the same
// Contains iterator as exact=false, noOrder=false. This ambiguity is
// deliberately not given extra meaning here.
func (r *Reader) Edges(pattern Pattern, exact bool, noOrder bool) *Iterator {
	mode := query.Contains
	if exact {
		mode = query.Exact
	}
	_ = noOrder
	return &Iterator{it: query.New(r.gm, mode, toInternalPattern(pattern), r.queryOpts())}
}

// EdgeExists reports whether any edge matches pattern. It shares the same
// neighborhood iterator machinery as Edges and always releases it exactly
// once, resolving the finish-on-hit/finish-on-miss ambiguity in favor of
// calling Finish on both branches.
func (r *Reader) EdgeExists(pattern Pattern, exact bool) (bool, error) {
	mode := query.Contains
	if exact {
		mode = query.Exact
	}
	it := query.New(r.gm, mode, toInternalPattern(pattern), r.queryOpts())
	_, ok, err := it.Next()
	it.Finish()
	if err != nil {
		return false, err
	}
	return ok, nil
}
