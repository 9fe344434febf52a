// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package cgraph compresses directed, labeled hypergraphs into a compact,
// self-indexed on-disk representation and answers incidence and pattern
// queries over that representation without decompressing it.
//
// The technique is a hyperedge-aware variant of RePair grammar compression
// combined with succinct bit-sequence indexes (rank/select bit vectors,
// Elias-Fano monotone sequences, and a k²-tree adjacency matrix). The hard
// core lives in internal/hgraph, internal/repair, internal/grammar and
// internal/query; this package is the façade: a Writer handle for
// building and compressing a graph, and a Reader handle for opening a
// compressed file and issuing queries against it.
//
//   - Writer: NewWriter -> AddEdge* -> Compress -> WriteTo
//   - Reader: Open -> EdgesAll / Edges / EdgeExists -> Close
//
// Neither handle is safe for concurrent use. A Reader's iterators share
// its underlying decoded grammar; at most one Iterator from a given
// Reader may be advanced at a time.
package cgraph
