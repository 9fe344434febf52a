// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

package grammar

import (
	"github.com/adlerenno/cgraph/internal/bitio"
	"github.com/adlerenno/cgraph/internal/eliasfano"
	"github.com/adlerenno/cgraph/internal/k2tree"
	"github.com/adlerenno/cgraph/internal/repair"
)

// Encode serializes g into the full file format: magic,
// grammar-region length, grammar region, start-symbol region.
func (g *Grammar) Encode() []byte {
	grm := bitio.NewWriter()
	g.writeGrammarRegion(grm)

	start := bitio.NewWriter()
	g.writeStartRegion(start)

	out := bitio.NewWriter()
	out.WriteBytes(Magic[:])
	out.VByte(uint64(grm.ByteLen()))
	out.WriteBytes(grm.Bytes())
	out.WriteBytes(start.Bytes())
	return out.Bytes()
}

// Decode parses a file produced by Encode.
func Decode(data []byte) (*Grammar, error) {
	r := bitio.NewReader(data)

	magic, err := r.ReadBytes(8)
	if err != nil {
		return nil, ErrTruncated
	}
	for i := range Magic {
		if magic[i] != Magic[i] {
			return nil, ErrBadMagic
		}
	}

	grmLen, err := r.VByte()
	if err != nil {
		return nil, ErrTruncated
	}
	grmBytes, err := r.ReadBytes(int(grmLen))
	if err != nil {
		return nil, ErrTruncated
	}
	startBytes, err := r.ReadBytes(r.RemainingBytes())
	if err != nil {
		return nil, ErrTruncated
	}

	g := &Grammar{}

	grmR := bitio.NewReader(grmBytes)
	if err := g.readGrammarRegion(grmR); err != nil {
		return nil, err
	}

	startR := bitio.NewReader(startBytes)
	if err := g.readStartRegion(startR); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Grammar) writeGrammarRegion(w *bitio.Writer) {
	w.VByte(g.Terminals)
	w.VByte(uint64(g.MaxRank))
	w.VByte(uint64(len(g.Rules)))
	for _, rule := range g.Rules {
		w.EliasDelta(uint64(rule.Rank) + 1)
		w.VByte(uint64(len(rule.RHS)))
		for _, c := range rule.RHS {
			w.EliasDelta(c.Label + 1)
			w.EliasDelta(uint64(c.Rank) + 1)
			for _, p := range c.ClassOf {
				w.EliasDelta(uint64(p) + 1)
			}
		}
	}

	if g.NTTable != nil {
		w.WriteBit(1)
		g.NTTable.WriteTo(w)
	} else {
		w.WriteBit(0)
	}
}

func (g *Grammar) readGrammarRegion(r *bitio.Reader) error {
	terminals, err := r.VByte()
	if err != nil {
		return ErrTruncated
	}
	g.Terminals = terminals

	maxRank, err := r.VByte()
	if err != nil {
		return ErrTruncated
	}
	g.MaxRank = int(maxRank)

	ruleCount, err := r.VByte()
	if err != nil {
		return ErrTruncated
	}
	g.Rules = make([]repair.Rule, ruleCount)
	for i := range g.Rules {
		rank64, err := r.EliasDelta()
		if err != nil {
			return ErrTruncated
		}
		rhsCount, err := r.VByte()
		if err != nil {
			return ErrTruncated
		}
		rhs := make([]repair.Component, rhsCount)
		for j := range rhs {
			label64, err := r.EliasDelta()
			if err != nil {
				return ErrTruncated
			}
			crank64, err := r.EliasDelta()
			if err != nil {
				return ErrTruncated
			}
			classOf := make([]int, int(crank64-1))
			for k := range classOf {
				p, err := r.EliasDelta()
				if err != nil {
					return ErrTruncated
				}
				classOf[k] = int(p - 1)
			}
			rhs[j] = repair.Component{Label: label64 - 1, Rank: int(crank64 - 1), ClassOf: classOf}
		}
		g.Rules[i] = repair.Rule{RHS: rhs, Rank: int(rank64 - 1)}
	}

	hasNT, err := r.ReadBits(1)
	if err != nil {
		return ErrTruncated
	}
	if hasNT == 1 {
		nt, err := k2tree.ReadFrom(r)
		if err != nil {
			return ErrTruncated
		}
		g.NTTable = nt
	}
	return nil
}

func (g *Grammar) writeStartRegion(w *bitio.Writer) {
	g.Matrix.WriteTo(w)
	g.Labels.WriteTo(w)

	width := ifIndexWidth(g.IFTable.count())
	w.VByte(uint64(width))
	w.VByte(uint64(len(g.IFIndex)))
	for _, v := range g.IFIndex {
		if width > 0 {
			w.WriteBits(uint64(v), width)
		}
	}

	g.IFTable.offsets.WriteTo(w)
	w.VByte(uint64(len(g.IFTable.payload)))
	w.WriteBytes(g.IFTable.payload)
}

func (g *Grammar) readStartRegion(r *bitio.Reader) error {
	matrix, err := k2tree.ReadFrom(r)
	if err != nil {
		return ErrTruncated
	}
	g.Matrix = matrix
	g.NodeCount = matrix.Rows()

	labels, err := eliasfano.ReadFrom(r)
	if err != nil {
		return ErrTruncated
	}
	g.Labels = labels

	width64, err := r.VByte()
	if err != nil {
		return ErrTruncated
	}
	count64, err := r.VByte()
	if err != nil {
		return ErrTruncated
	}
	width := uint(width64)
	g.IFIndex = make([]uint32, int(count64))
	for i := range g.IFIndex {
		if width > 0 {
			v, err := r.ReadBits(width)
			if err != nil {
				return ErrTruncated
			}
			g.IFIndex[i] = uint32(v)
		}
	}

	offsets, err := eliasfano.ReadFrom(r)
	if err != nil {
		return ErrTruncated
	}
	plen, err := r.VByte()
	if err != nil {
		return ErrTruncated
	}
	payload, err := r.ReadBytes(int(plen))
	if err != nil {
		return ErrTruncated
	}
	g.IFTable = &ifTable{offsets: offsets, payload: payload}

	return nil
}

// ifIndexWidth returns ceil(log2(count)) bits, 0 if count <= 1.
func ifIndexWidth(count int) uint {
	if count <= 1 {
		return 0
	}
	w := uint(0)
	for (uint64(1) << w) < uint64(count) {
		w++
	}
	return w
}
