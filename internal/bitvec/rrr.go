// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package bitvec

import (
	"sort"

	"github.com/adlerenno/cgraph/internal/bitio"
)

// rrrBlockSize is the RRR block width in bits. 15 keeps the largest binomial
// coefficient (C(15,7) = 6435) comfortably inside 16 bits.
const rrrBlockSize = 15

// RRRVector is the block-compressed alternative to BitVector: each block of rrrBlockSize bits is stored as a (class,
// offset) pair, class = popcount of the block, offset = its rank among all
// bit patterns of that class in the combinatorial number system. A
// superblock rank table is layered on top exactly as in BitVector.
type RRRVector struct {
	n      uint
	factor uint

	classes []uint8  // one per block, class = popcount
	offsets []uint32 // one per block, index within C(blockSize, class)

	// super[i] = rank1 at the start of superblock i (in blocks, not bits)
	super []uint32

	binom [rrrBlockSize + 1][rrrBlockSize + 1]uint32
}

// NewRRR builds an RRRVector from any fully-populated RankSelect sequence
// (typically a BitVector after its Build call).
func NewRRR(src RankSelect, factor uint) *RRRVector {
	if factor == 0 {
		factor = DefaultFactor
	}

	n := src.Len()
	r := &RRRVector{n: n, factor: factor}
	r.initBinom()

	numBlocks := int(n/rrrBlockSize) + 1
	r.classes = make([]uint8, numBlocks)
	r.offsets = make([]uint32, numBlocks)

	for b := 0; b < numBlocks; b++ {
		lo := uint(b) * rrrBlockSize
		hi := lo + rrrBlockSize
		if hi > n {
			hi = n
		}

		var bits []bool
		for i := lo; i < hi; i++ {
			bits = append(bits, src.Test(i))
		}
		// pad to full block width with zeros for a stable combinatorial index
		for len(bits) < rrrBlockSize {
			bits = append(bits, false)
		}

		class, offset := r.encodeBlock(bits)
		r.classes[b] = uint8(class)
		r.offsets[b] = offset
	}

	r.buildSuper()
	return r
}

func (r *RRRVector) initBinom() {
	for i := 0; i <= rrrBlockSize; i++ {
		r.binom[i][0] = 1
		for j := 1; j <= i; j++ {
			r.binom[i][j] = r.binom[i-1][j-1]
			if j <= i-1 {
				r.binom[i][j] += r.binom[i-1][j]
			}
		}
	}
}

// encodeBlock returns (class, offset) for a rrrBlockSize-length bit
// pattern using the combinatorial number system: offset is the rank of
// `bits` among all patterns with the same popcount, in lexicographic
// (MSB-first) order.
func (r *RRRVector) encodeBlock(bits []bool) (class int, offset uint32) {
	for _, b := range bits {
		if b {
			class++
		}
	}

	remaining := class
	for pos := 0; pos < len(bits); pos++ {
		left := len(bits) - pos - 1
		if bits[pos] {
			remaining--
			continue
		}
		if remaining > 0 && remaining <= left {
			offset += r.binom[left][remaining]
		}
	}
	return class, offset
}

// decodeBlock is the inverse of encodeBlock.
func (r *RRRVector) decodeBlock(class int, offset uint32) []bool {
	bits := make([]bool, rrrBlockSize)
	remaining := class
	off := offset

	for pos := 0; pos < rrrBlockSize; pos++ {
		left := rrrBlockSize - pos - 1
		if remaining == 0 {
			continue
		}
		var combosIfZero uint32
		if remaining <= left {
			combosIfZero = r.binom[left][remaining]
		}
		if off < combosIfZero {
			continue
		}
		bits[pos] = true
		off -= combosIfZero
		remaining--
	}
	return bits
}

func (r *RRRVector) buildSuper() {
	sbBlocks := r.factor
	numBlocks := len(r.classes)
	numSuper := numBlocks/int(sbBlocks) + 1

	r.super = make([]uint32, numSuper+1)

	var count uint32
	for sb := 0; sb < numSuper; sb++ {
		r.super[sb] = count
		start := sb * int(sbBlocks)
		end := start + int(sbBlocks)
		if end > numBlocks {
			end = numBlocks
		}
		for b := start; b < end; b++ {
			count += uint32(r.classes[b])
		}
	}
	r.super[numSuper] = count
}

// Test reports whether bit i is set.
func (r *RRRVector) Test(i uint) bool {
	if i >= r.n {
		return false
	}
	block := i / rrrBlockSize
	within := i % rrrBlockSize

	bits := r.decodeBlock(int(r.classes[block]), r.offsets[block])
	return bits[within]
}

// Rank1 returns the number of set bits in [0, i).
func (r *RRRVector) Rank1(i uint) uint {
	if i > r.n {
		i = r.n
	}

	block := i / rrrBlockSize
	within := i % rrrBlockSize

	sb := block / r.factor
	count := uint(r.super[sb])

	for b := sb * r.factor; b < block; b++ {
		count += uint(r.classes[b])
	}

	if within > 0 {
		bits := r.decodeBlock(int(r.classes[block]), r.offsets[block])
		for k := uint(0); k < within; k++ {
			if bits[k] {
				count++
			}
		}
	}
	return count
}

// Rank0 returns the number of clear bits in [0, i).
func (r *RRRVector) Rank0(i uint) uint {
	return i - r.Rank1(i)
}

// Select1 returns the position of the (j+1)-th set bit, or (0, false).
func (r *RRRVector) Select1(j uint) (uint, bool) {
	total := uint(r.super[len(r.super)-1])
	if j >= total {
		return 0, false
	}

	sb := sort.Search(len(r.super), func(k int) bool {
		return uint(r.super[k]) > j
	}) - 1
	if sb < 0 {
		sb = 0
	}

	remaining := j - uint(r.super[sb])
	numBlocks := len(r.classes)

	for b := sb * int(r.factor); b < numBlocks; b++ {
		c := uint(r.classes[b])
		if remaining >= c {
			remaining -= c
			continue
		}
		bits := r.decodeBlock(int(r.classes[b]), r.offsets[b])
		for k, set := range bits {
			if !set {
				continue
			}
			if remaining == 0 {
				return uint(b)*rrrBlockSize + uint(k), true
			}
			remaining--
		}
	}
	return 0, false
}

// Len returns the number of bits in the vector.
func (r *RRRVector) Len() uint { return r.n }

// classBits is the fixed field width for one block's class: rrrBlockSize
// is 15, so a class value never exceeds 15 and always fits in 4 bits.
const classBits = 4

// writeTo serializes n, factor, and the class/offset tables directly
// (no raw bit expansion), which is what makes the RRR flavor smaller on
// disk than the plain flavor for sparse or skewed matrices.
func (r *RRRVector) writeTo(w *bitio.Writer) {
	w.VByte(uint64(r.n))
	w.VByte(uint64(r.factor))
	w.VByte(uint64(len(r.classes)))
	for _, c := range r.classes {
		w.WriteBits(uint64(c), classBits)
	}
	for _, o := range r.offsets {
		w.VByte(uint64(o))
	}
}

// readRRR deserializes a value written by (*RRRVector).writeTo.
func readRRR(r2 *bitio.Reader) (*RRRVector, error) {
	n, err := r2.VByte()
	if err != nil {
		return nil, err
	}
	factor, err := r2.VByte()
	if err != nil {
		return nil, err
	}
	numBlocks, err := r2.VByte()
	if err != nil {
		return nil, err
	}

	rv := &RRRVector{n: uint(n), factor: uint(factor)}
	rv.initBinom()

	rv.classes = make([]uint8, numBlocks)
	for i := range rv.classes {
		c, err := r2.ReadBits(classBits)
		if err != nil {
			return nil, err
		}
		rv.classes[i] = uint8(c)
	}
	rv.offsets = make([]uint32, numBlocks)
	for i := range rv.offsets {
		o, err := r2.VByte()
		if err != nil {
			return nil, err
		}
		rv.offsets[i] = uint32(o)
	}

	rv.buildSuper()
	return rv, nil
}
