// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package k2tree

import (
	"reflect"
	"sort"
	"testing"

	"github.com/adlerenno/cgraph/internal/bitio"
)

func buildMatrix(rows, cols uint64, cells [][2]uint64) *Tree {
	b := NewBuilder(rows, cols)
	for _, c := range cells {
		b.Set(c[0], c[1])
	}
	return b.Build()
}

func TestGet(t *testing.T) {
	cells := [][2]uint64{{0, 1}, {1, 2}, {2, 0}, {3, 3}}
	tree := buildMatrix(5, 5, cells)

	set := map[[2]uint64]bool{}
	for _, c := range cells {
		set[c] = true
	}

	for r := uint64(0); r < 5; r++ {
		for c := uint64(0); c < 5; c++ {
			want := set[[2]uint64{r, c}]
			if got := tree.Get(r, c); got != want {
				t.Fatalf("Get(%d,%d) = %v, want %v", r, c, got, want)
			}
		}
	}
}

func TestRowIterAndColumn(t *testing.T) {
	cells := [][2]uint64{
		{0, 1}, {0, 4}, {1, 2}, {2, 0}, {2, 4}, {3, 3}, {4, 4},
	}
	tree := buildMatrix(5, 5, cells)

	rowWant := map[uint64][]uint64{}
	colWant := map[uint64][]uint64{}
	for _, c := range cells {
		rowWant[c[0]] = append(rowWant[c[0]], c[1])
		colWant[c[1]] = append(colWant[c[1]], c[0])
	}
	for k := range rowWant {
		sort.Slice(rowWant[k], func(i, j int) bool { return rowWant[k][i] < rowWant[k][j] })
	}
	for k := range colWant {
		sort.Slice(colWant[k], func(i, j int) bool { return colWant[k][i] < colWant[k][j] })
	}

	for r := uint64(0); r < 5; r++ {
		got := tree.RowIter(r)
		want := rowWant[r]
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("RowIter(%d) = %v, want %v", r, got, want)
		}
	}
	for c := uint64(0); c < 5; c++ {
		got := tree.Column(c)
		want := colWant[c]
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Column(%d) = %v, want %v", c, got, want)
		}
	}
}

func TestEmptyMatrix(t *testing.T) {
	tree := buildMatrix(3, 3, nil)
	for r := uint64(0); r < 3; r++ {
		if tree.RowIter(r) != nil {
			t.Fatalf("RowIter(%d) on empty matrix should be empty", r)
		}
	}
}

func TestSingleCellMatrix(t *testing.T) {
	tree := buildMatrix(1, 1, [][2]uint64{{0, 0}})
	if !tree.Get(0, 0) {
		t.Fatalf("Get(0,0) = false, want true")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	cells := [][2]uint64{{0, 1}, {1, 2}, {2, 0}, {3, 3}, {6, 6}}
	tree := buildMatrix(7, 7, cells)

	w := bitio.NewWriter()
	tree.WriteTo(w)

	r := bitio.NewReader(w.Bytes())
	got, err := ReadFrom(r)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}

	for rr := uint64(0); rr < 7; rr++ {
		for cc := uint64(0); cc < 7; cc++ {
			if a, b := tree.Get(rr, cc), got.Get(rr, cc); a != b {
				t.Fatalf("Get(%d,%d) mismatch after round-trip: %v vs %v", rr, cc, a, b)
			}
		}
	}
}

func TestSerializeRoundTripRRR(t *testing.T) {
	cells := [][2]uint64{{0, 1}, {1, 2}, {2, 0}, {3, 3}, {6, 6}, {5, 1}}
	b := NewBuilder(7, 7).WithRRR(true)
	for _, c := range cells {
		b.Set(c[0], c[1])
	}
	tree := b.Build()

	w := bitio.NewWriter()
	tree.WriteTo(w)

	r := bitio.NewReader(w.Bytes())
	got, err := ReadFrom(r)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}

	for rr := uint64(0); rr < 7; rr++ {
		for cc := uint64(0); cc < 7; cc++ {
			if a, b := tree.Get(rr, cc), got.Get(rr, cc); a != b {
				t.Fatalf("Get(%d,%d) mismatch after RRR round-trip: %v vs %v", rr, cc, a, b)
			}
		}
	}
}
