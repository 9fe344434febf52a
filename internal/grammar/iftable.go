// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package grammar

import (
	"github.com/tidwall/btree"

	"github.com/adlerenno/cgraph/internal/bitio"
	"github.com/adlerenno/cgraph/internal/eliasfano"
)

// ifTable is the interned index-function dictionary: a content-addressed set of idx[] sequences,
// stored as an Elias-Fano offset table over a single concatenated
// Elias-delta payload bitstream. Each entry is self-delimiting (length
// prefixed via delta(m)), so no explicit end offset is needed.
type ifTable struct {
	offsets *eliasfano.Sequence // bit offset of entry i's payload, ascending
	payload []byte
}

// ifEntry is one node of the content-addressed interning tree: key is the
// packed idx[] bytes, id is the table id assigned on first sight.
type ifEntry struct {
	key string
	id  uint32
}

func ifEntryLess(a, b ifEntry) bool { return a.key < b.key }

// ifBuilder deduplicates idx[] sequences by content, assigning ids in
// first-appearance order. The lookup structure is an ordered,
// content-addressed btree rather
// than a bare Go map, so a future writer revision that needs sorted or
// range-bounded lookups over interned index functions does not need a
// different data structure.
type ifBuilder struct {
	seen  *btree.BTreeG[ifEntry]
	order [][]int
}

func newIFBuilder() *ifBuilder {
	return &ifBuilder{seen: btree.NewBTreeG(ifEntryLess)}
}

// intern returns the table id for idx, assigning a new one on first sight.
func (b *ifBuilder) intern(idx []int) uint32 {
	key := packIFKey(idx)
	if entry, ok := b.seen.Get(ifEntry{key: key}); ok {
		return entry.id
	}
	id := uint32(len(b.order))
	b.seen.Set(ifEntry{key: key, id: id})
	b.order = append(b.order, append([]int(nil), idx...))
	return id
}

// build emits every interned sequence, in assigned id order, into one
// Elias-delta bitstream and records each entry's exact bit offset.
func (b *ifBuilder) build() *ifTable {
	w := bitio.NewWriter()
	total := 0
	for _, idx := range b.order {
		total += eliasDeltaBitLen(uint64(len(idx)) + 1)
		for _, v := range idx {
			total += eliasDeltaBitLen(uint64(v) + 1)
		}
	}

	offs := eliasfano.NewBuilder(uint64(total) + 1)
	bitPos := 0
	for _, idx := range b.order {
		offs.Add(uint64(bitPos))
		w.EliasDelta(uint64(len(idx)) + 1)
		bitPos += eliasDeltaBitLen(uint64(len(idx)) + 1)
		for _, v := range idx {
			w.EliasDelta(uint64(v) + 1)
			bitPos += eliasDeltaBitLen(uint64(v) + 1)
		}
	}

	return &ifTable{offsets: offs.Build(), payload: w.Bytes()}
}

// eliasDeltaBitLen returns the bit length of EliasDelta(x), x >= 1.
func eliasDeltaBitLen(x uint64) int {
	n := bitLen(x)
	gammaLen := 2*bitLen(uint64(n)) - 1
	return gammaLen + (n - 1)
}

func bitLen(x uint64) int {
	n := 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

// get decodes the idx[] sequence stored under id.
func (t *ifTable) get(id uint32) []int {
	off := int(t.offsets.Get(int(id)))
	r := bitio.NewReader(t.payload)
	r.SeekBit(off)

	m, _ := r.EliasDelta()
	m--
	out := make([]int, m)
	for i := range out {
		v, _ := r.EliasDelta()
		out[i] = int(v - 1)
	}
	return out
}

// count returns the number of distinct interned sequences.
func (t *ifTable) count() int { return t.offsets.Len() }

func packIFKey(idx []int) string {
	b := make([]byte, 0, len(idx)*2)
	for _, v := range idx {
		b = append(b, byte(v>>8), byte(v))
	}
	return string(b)
}
