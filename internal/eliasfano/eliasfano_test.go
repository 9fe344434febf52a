// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package eliasfano

import (
	"testing"

	"github.com/adlerenno/cgraph/internal/bitio"
)

func TestGetRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 1, 4, 9, 9, 100, 1000, 1000, 5000}

	b := NewBuilder(5001)
	for _, v := range values {
		b.Add(v)
	}
	seq := b.Build()

	if seq.Len() != len(values) {
		t.Fatalf("Len() = %d, want %d", seq.Len(), len(values))
	}
	for i, want := range values {
		if got := seq.Get(i); got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestLowerBound(t *testing.T) {
	values := []uint64{0, 5, 5, 10, 20, 20, 30}
	b := NewBuilder(31)
	for _, v := range values {
		b.Add(v)
	}
	seq := b.Build()

	cases := []struct {
		v    uint64
		want int
		ok   bool
	}{
		{0, 0, true},
		{5, 1, true},
		{6, 3, true},
		{30, 6, true},
		{31, 0, false},
	}
	for _, c := range cases {
		got, ok := seq.LowerBound(c.v)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("LowerBound(%d) = %d,%v want %d,%v", c.v, got, ok, c.want, c.ok)
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	values := []uint64{0, 2, 2, 8, 15, 100}
	b := NewBuilder(101)
	for _, v := range values {
		b.Add(v)
	}
	seq := b.Build()

	w := bitio.NewWriter()
	seq.WriteTo(w)

	r := bitio.NewReader(w.Bytes())
	got, err := ReadFrom(r)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if got.Len() != len(values) {
		t.Fatalf("Len() = %d, want %d", got.Len(), len(values))
	}
	for i, want := range values {
		if v := got.Get(i); v != want {
			t.Fatalf("Get(%d) = %d, want %d", i, v, want)
		}
	}
}

func TestEmptySequence(t *testing.T) {
	b := NewBuilder(0)
	seq := b.Build()
	if seq.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", seq.Len())
	}
}
