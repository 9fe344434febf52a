// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package cgraph

import (
	"github.com/adlerenno/cgraph/internal/hgraph"
	"github.com/adlerenno/cgraph/internal/query"
)

// Iterator is a streaming, single-pass result set. It must either be exhausted (Next returning ok=false
// with a nil error, which auto-finishes it) or explicitly released with
// Finish. At most one Iterator from a given Reader may be advanced at a
// time.
type Iterator struct {
	it *query.Iterator
}

// Next returns the next matching edge. ok is false with a nil error on
// clean exhaustion; a non-nil error indicates a structural error or reuse after
// Finish, both of which also release the iterator.
func (it *Iterator) Next() (edge HEdge, ok bool, err error) {
	e, ok, err := it.it.Next()
	if !ok {
		return HEdge{}, false, err
	}
	return fromInternal(e), true, nil
}

// Finish releases the iterator's descent stack immediately. Safe to call multiple times and after exhaustion.
func (it *Iterator) Finish() { it.it.Finish() }

// All adapts the iterator into a range-over-func iterator for `for range`
// use; it calls Finish on exhaustion or early break.
func (it *Iterator) All() func(yield func(HEdge) bool) {
	inner := it.it.All()
	return func(yield func(HEdge) bool) {
		inner(func(e hgraph.HEdge) bool {
			return yield(fromInternal(e))
		})
	}
}

// Collect drains the iterator into a slice, releasing it in the process.
// Intended for tests and small result sets; large decompressions should
// use Next or All to stream instead.
func (it *Iterator) Collect() ([]HEdge, error) {
	var out []HEdge
	for {
		e, ok, err := it.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, e)
	}
}
