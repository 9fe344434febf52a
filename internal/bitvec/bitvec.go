// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package bitvec implements a bit sequence with rank/select support,
// backed by [github.com/bits-and-blooms/bitset] for storage, plus the
// block-compressed RRR alternative in rrr.go. Both satisfy RankSelect.
//
// A BitVector is split into blocks of 64 bits, grouped into superblocks of
// `factor` blocks (64 by default). Each superblock stores the cumulative
// popcount of every bit before it; rank1 sums the superblock counter with a
// linear scan over the remaining blocks, select1 binary-searches the
// superblock counters and then scans.
package bitvec

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/adlerenno/cgraph/internal/bitio"
)

// DefaultFactor is the number of 64-bit blocks per superblock when Factor
// is left at zero.
const DefaultFactor = 64

// RankSelect is the rank/select contract shared by BitVector and the
// block-compressed RRRVector, so callers (the k2-tree levels) can hold
// either flavor behind one interface.
type RankSelect interface {
	Len() uint
	Test(i uint) bool
	Rank1(i uint) uint
	Rank0(i uint) uint
	Select1(j uint) (uint, bool)
}

// flavorPlain and flavorRRR tag which concrete type WriteRankSelect wrote,
// so ReadRankSelect can dispatch the matching decoder.
const (
	flavorPlain = 0
	flavorRRR   = 1
)

// WriteRankSelect serializes rs with a one-bit flavor tag: a plain
// BitVector is written as its raw bit sequence, an RRRVector as its
// block class/offset tables, so the RRR variant's on-disk form is
// genuinely more compact, not merely a different in-memory layout.
func WriteRankSelect(w *bitio.Writer, rs RankSelect) {
	switch v := rs.(type) {
	case *RRRVector:
		w.WriteBit(flavorRRR)
		v.writeTo(w)
	default:
		w.WriteBit(flavorPlain)
		writePlainBits(w, rs)
	}
}

func writePlainBits(w *bitio.Writer, rs RankSelect) {
	n := rs.Len()
	w.VByte(uint64(n))
	for i := uint(0); i < n; i++ {
		if rs.Test(i) {
			w.WriteBit(1)
		} else {
			w.WriteBit(0)
		}
	}
}

// ReadRankSelect deserializes a value written by WriteRankSelect, with the
// same superblock factor the caller intends to query with.
func ReadRankSelect(r *bitio.Reader, factor uint) (RankSelect, error) {
	flavor, err := r.ReadBits(1)
	if err != nil {
		return nil, err
	}
	if flavor == flavorRRR {
		return readRRR(r)
	}

	n, err := r.VByte()
	if err != nil {
		return nil, err
	}
	bv := New(uint(n), factor)
	for i := uint(0); i < uint(n); i++ {
		b, err := r.ReadBits(1)
		if err != nil {
			return nil, err
		}
		if b == 1 {
			bv.Set(i)
		}
	}
	bv.Build()
	return bv, nil
}

// BitVector is a fixed-length bit sequence with precomputed rank/select
// superblocks.
type BitVector struct {
	bits   *bitset.BitSet
	n      uint
	factor uint // blocks per superblock

	// super[i] = rank1 of the first bit of superblock i, i.e. the number
	// of set bits strictly before superblock i begins.
	super []uint32
	built bool
}

// New returns an empty, mutable bit vector of length n. Call Build once all
// bits are set, before using Rank1/Select1.
func New(n uint, factor uint) *BitVector {
	if factor == 0 {
		factor = DefaultFactor
	}
	return &BitVector{
		bits:   bitset.New(n),
		n:      n,
		factor: factor,
	}
}

// Len returns the number of bits in the vector.
func (bv *BitVector) Len() uint { return bv.n }

// Set sets bit i to 1. Must be called before Build.
func (bv *BitVector) Set(i uint) {
	bv.bits.Set(i)
	bv.built = false
}

// Test reports whether bit i is set.
func (bv *BitVector) Test(i uint) bool {
	if i >= bv.n {
		return false
	}
	return bv.bits.Test(i)
}

// superblockBits is the number of bits covered by one superblock.
func (bv *BitVector) superblockBits() uint {
	return bv.factor * 64
}

// Build precomputes the superblock rank counters. Must be called after all
// Set calls and before any Rank1/Select1 call.
func (bv *BitVector) Build() {
	sbBits := bv.superblockBits()
	numSuper := int(bv.n/sbBits) + 1

	bv.super = make([]uint32, numSuper+1)

	var count uint32
	var pos uint
	for i := 0; i < numSuper; i++ {
		bv.super[i] = count
		end := pos + sbBits
		if end > bv.n {
			end = bv.n
		}
		count += uint32(popcountRange(bv.bits, pos, end))
		pos = end
	}
	bv.super[numSuper] = count

	bv.built = true
}

// Rank1 returns the number of set bits in [0, i).
func (bv *BitVector) Rank1(i uint) uint {
	if !bv.built {
		bv.Build()
	}
	if i > bv.n {
		i = bv.n
	}

	sbBits := bv.superblockBits()
	sb := i / sbBits
	base := uint(bv.super[sb])

	return base + popcountRange(bv.bits, sb*sbBits, i)
}

// Rank0 returns the number of clear bits in [0, i).
func (bv *BitVector) Rank0(i uint) uint {
	return i - bv.Rank1(i)
}

// Select1 returns the position of the (j+1)-th set bit (0-indexed j), or
// (0, false) if there are fewer than j+1 set bits.
func (bv *BitVector) Select1(j uint) (uint, bool) {
	if !bv.built {
		bv.Build()
	}

	total := uint(bv.super[len(bv.super)-1])
	if j >= total {
		return 0, false
	}

	// binary search over superblock boundaries for the last superblock
	// whose cumulative count is <= j
	sb := sort.Search(len(bv.super), func(k int) bool {
		return uint(bv.super[k]) > j
	}) - 1
	if sb < 0 {
		sb = 0
	}

	sbBits := bv.superblockBits()
	remaining := j - uint(bv.super[sb])

	start := uint(sb) * sbBits
	end := bv.n
	if e := start + sbBits; e < end {
		end = e
	}

	for i := start; i < end; i++ {
		if bv.bits.Test(i) {
			if remaining == 0 {
				return i, true
			}
			remaining--
		}
	}
	return 0, false
}

// popcountRange counts set bits in [lo, hi).
func popcountRange(b *bitset.BitSet, lo, hi uint) uint {
	if lo >= hi {
		return 0
	}
	var count uint
	i, ok := b.NextSet(lo)
	for ok && i < hi {
		count++
		i, ok = b.NextSet(i + 1)
	}
	return count
}
