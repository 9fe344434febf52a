// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package eliasfano implements an Elias-Fano monotone-nondecreasing integer
// sequence: random access through a select on the high bits, a
// binary-search LowerBound, and space close to the information-theoretic
// lower bound.
//
// Studied [github.com/ledgerwatch/erigon-lib/recsplit/eliasfano32] inside
// out and rewrote the structure from scratch: erigon's EliasFano is tuned
// for an append-then-Build()-once on-disk index consumed by random Get(i)
// lookups, whereas cgraph's start-symbol reader needs cheap
// predecessor-from-a-lower-bound iteration while descending through
// grammar productions. The high/low split and rank
// machinery are the same idea; the access pattern on top is not, so it is
// reimplemented narrowly rather than imported.
package eliasfano

import (
	"github.com/adlerenno/cgraph/internal/bitio"
	"github.com/adlerenno/cgraph/internal/bitvec"
)

// Sequence is a built, read-only Elias-Fano sequence.
type Sequence struct {
	n       int
	u       uint64 // exclusive upper bound: every value is in [0, u)
	lowBits uint
	low     []uint64 // n values, each lowBits wide, one element per slot
	high    *bitvec.BitVector
}

// Builder accumulates a monotone-nondecreasing sequence of values in [0, u)
// before Build is called.
type Builder struct {
	u      uint64
	values []uint64
}

// NewBuilder starts a builder for values known to lie in [0, u).
func NewBuilder(u uint64) *Builder {
	return &Builder{u: u}
}

// Add appends the next value. Values must be added in non-decreasing order.
func (b *Builder) Add(v uint64) {
	b.values = append(b.values, v)
}

// Build finalizes the sequence.
func (b *Builder) Build() *Sequence {
	n := len(b.values)
	s := &Sequence{n: n, u: b.u}

	if n == 0 {
		s.lowBits = 0
		s.high = bitvec.New(1, 0)
		s.high.Build()
		return s
	}

	s.lowBits = lowBitWidth(b.u, uint64(n))
	s.low = make([]uint64, n)

	highLen := int(b.u>>s.lowBits) + n + 1
	s.high = bitvec.New(uint(highLen), 0)

	for i, v := range b.values {
		s.low[i] = v & ((uint64(1) << s.lowBits) - 1)
		highPart := v >> s.lowBits
		// unary code in the high bit vector: highPart zeros then a one,
		// positions offset by i so each item gets its own unary slot
		s.high.Set(uint(highPart) + uint(i))
	}
	s.high.Build()

	return s
}

// lowBitWidth picks ell = ceil(log2(u/n)), clipped to >= 0.
func lowBitWidth(u, n uint64) uint {
	if n == 0 || u <= n {
		return 0
	}
	avg := u / n
	w := uint(0)
	for (uint64(1) << w) < avg {
		w++
	}
	return w
}

// Len returns the number of values in the sequence.
func (s *Sequence) Len() int { return s.n }

// Get returns the i-th value.
func (s *Sequence) Get(i int) uint64 {
	highPart, _ := s.high.Select1(uint(i))
	highPart -= uint(i)
	return (uint64(highPart) << s.lowBits) | s.low[i]
}

// LowerBound returns the index of the first value >= v, and true if one
// exists, by binary search over Get.
func (s *Sequence) LowerBound(v uint64) (int, bool) {
	lo, hi := 0, s.n
	for lo < hi {
		mid := (lo + hi) / 2
		if s.Get(mid) < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == s.n {
		return 0, false
	}
	return lo, true
}

// WriteTo serializes the sequence: VByte(n), VByte(u), VByte(lowBits),
// then the low bits for every item, then the high bit vector length and
// bits.
func (s *Sequence) WriteTo(w *bitio.Writer) {
	w.VByte(uint64(s.n))
	w.VByte(s.u)
	w.VByte(uint64(s.lowBits))

	for _, v := range s.low {
		if s.lowBits > 0 {
			w.WriteBits(v, s.lowBits)
		}
	}

	highLen := s.high.Len()
	w.VByte(uint64(highLen))
	for i := uint(0); i < highLen; i++ {
		if s.high.Test(i) {
			w.WriteBit(1)
		} else {
			w.WriteBit(0)
		}
	}
}

// ReadFrom deserializes a sequence written by WriteTo.
func ReadFrom(r *bitio.Reader) (*Sequence, error) {
	n64, err := r.VByte()
	if err != nil {
		return nil, err
	}
	u, err := r.VByte()
	if err != nil {
		return nil, err
	}
	lowBits64, err := r.VByte()
	if err != nil {
		return nil, err
	}

	n := int(n64)
	s := &Sequence{n: n, u: u, lowBits: uint(lowBits64)}

	s.low = make([]uint64, n)
	for i := range s.low {
		if s.lowBits > 0 {
			v, err := r.ReadBits(s.lowBits)
			if err != nil {
				return nil, err
			}
			s.low[i] = v
		}
	}

	highLen64, err := r.VByte()
	if err != nil {
		return nil, err
	}
	s.high = bitvec.New(uint(highLen64), 0)
	for i := uint(0); i < uint(highLen64); i++ {
		b, err := r.ReadBits(1)
		if err != nil {
			return nil, err
		}
		if b == 1 {
			s.high.Set(i)
		}
	}
	s.high.Build()

	return s, nil
}
