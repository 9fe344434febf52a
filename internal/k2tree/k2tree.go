// Copyright (c) 2025 Enno Adler
// SPDX-License-Identifier: MIT

// Package k2tree implements a k2-tree: a recursive, succinct
// representation of a binary matrix, used as the node x edge incidence
// matrix of the compressed start symbol.
//
// The s x s grid (s the least power of two >= max(rows, cols)) is split
// into 4 quadrants at every level; a quadrant's bit is 1 iff it has any
// set cell anywhere below it, and a 0 quadrant is never expanded further
// (pruned). Internal levels are kept as one rank/select bit vector per
// level (Tree.levels); the deepest level - the actual matrix cells - is
// kept as a separate bit vector (Tree.leaves). Keeping one bit vector
// per internal level rather than a single flattened T keeps the rank-based
// child-offset arithmetic a single per-level Rank1 call instead of a
// mixed-destination global scheme, while preserving the same point/
// row-iter/column query contract.
package k2tree

import (
	"github.com/adlerenno/cgraph/internal/bitio"
	"github.com/adlerenno/cgraph/internal/bitvec"
)

// Tree is a built, read-only k2-tree over an rows x cols binary matrix.
type Tree struct {
	rows, cols uint64
	s          uint64
	maxDepth   int // number of halvings from s down to 1

	levels []bitvec.RankSelect // levels[d], d in [0, maxDepth-1)
	leaves bitvec.RankSelect   // the deepest level, maxDepth-1 (size-1 cells)
}

// point is a set cell, used only while building.
type point struct{ r, c uint64 }

// Builder accumulates set cells before Build.
type Builder struct {
	rows, cols uint64
	factor     uint
	useRRR     bool
	points     []point
}

// NewBuilder starts a builder for an rows x cols matrix, using the default
// bitvec superblock factor for every level's rank/select scaffolding.
func NewBuilder(rows, cols uint64) *Builder {
	return &Builder{rows: rows, cols: cols}
}

// WithFactor sets the bitvec superblock factor
// used when building each level's rank/select bit vector. The factor only
// trades rank/select query speed for superblock-table memory in the built
// tree. Plain-flavor vectors do not store it (ReadFrom rebuilds them at
// bitvec.DefaultFactor); RRR-flavor vectors store it in their serialized
// header.
func (b *Builder) WithFactor(factor uint) *Builder {
	b.factor = factor
	return b
}

// WithRRR selects the block-compressed RRR bit-sequence flavor for every
// level and the leaf level, in place of the plain rank/select bit vector.
// The choice is made once at build time and recorded per-vector in the
// serialized file (one flavor bit per level), not inferred at open time.
func (b *Builder) WithRRR(enable bool) *Builder {
	b.useRRR = enable
	return b
}

// Set marks cell (r, c) as 1.
func (b *Builder) Set(r, c uint64) {
	b.points = append(b.points, point{r, c})
}

// Build finalizes the tree.
func (b *Builder) Build() *Tree {
	s, maxDepth := gridSize(b.rows, b.cols)

	t := &Tree{rows: b.rows, cols: b.cols, s: s, maxDepth: maxDepth}

	if maxDepth == 0 {
		lv := bitvec.New(1, b.factor)
		if len(b.points) > 0 {
			lv.Set(0)
		}
		lv.Build()
		t.leaves = b.maybeRRR(lv)
		return t
	}

	levelBools := make([][]bool, maxDepth-1)
	var leafBools []bool

	var expand func(pts []point, r0, c0, size uint64, depth int)
	expand = func(pts []point, r0, c0, size uint64, depth int) {
		half := size / 2
		quads := [4]struct{ r0, c0 uint64 }{
			{r0, c0}, {r0, c0 + half},
			{r0 + half, c0}, {r0 + half, c0 + half},
		}

		for _, q := range quads {
			var subset []point
			for _, p := range pts {
				if p.r >= q.r0 && p.r < q.r0+half && p.c >= q.c0 && p.c < q.c0+half {
					subset = append(subset, p)
				}
			}
			nonempty := len(subset) > 0

			if depth == maxDepth-1 {
				leafBools = append(leafBools, nonempty)
				continue
			}

			levelBools[depth] = append(levelBools[depth], nonempty)
			if nonempty {
				expand(subset, q.r0, q.c0, half, depth+1)
			}
		}
	}
	expand(b.points, 0, 0, s, 0)

	t.levels = make([]bitvec.RankSelect, maxDepth-1)
	for d, bools := range levelBools {
		lv := bitvec.New(uint(len(bools)), b.factor)
		for i, bit := range bools {
			if bit {
				lv.Set(uint(i))
			}
		}
		lv.Build()
		t.levels[d] = b.maybeRRR(lv)
	}

	leaves := bitvec.New(uint(len(leafBools)), b.factor)
	for i, bit := range leafBools {
		if bit {
			leaves.Set(uint(i))
		}
	}
	leaves.Build()
	t.leaves = b.maybeRRR(leaves)

	return t
}

// maybeRRR wraps a just-built plain BitVector into the block-compressed
// RRR flavor when the builder was configured with WithRRR(true).
func (b *Builder) maybeRRR(lv *bitvec.BitVector) bitvec.RankSelect {
	if !b.useRRR {
		return lv
	}
	return bitvec.NewRRR(lv, b.factor)
}

// gridSize returns the least power-of-two grid size s >= max(rows, cols, 1)
// and its log2 (the tree depth).
func gridSize(rows, cols uint64) (s uint64, maxDepth int) {
	need := rows
	if cols > need {
		need = cols
	}
	if need == 0 {
		need = 1
	}

	s = 1
	for s < need {
		s <<= 1
		maxDepth++
	}
	return s, maxDepth
}

// Rows returns the matrix row count.
func (t *Tree) Rows() uint64 { return t.rows }

// Cols returns the matrix column count.
func (t *Tree) Cols() uint64 { return t.cols }

// Get reports whether M[r, c] == 1.
func (t *Tree) Get(r, c uint64) bool {
	if r >= t.rows || c >= t.cols {
		return false
	}
	if t.maxDepth == 0 {
		return t.leaves.Test(0)
	}

	groupStart := uint(0)
	r0, c0, size := uint64(0), uint64(0), t.s

	for depth := 0; depth < t.maxDepth; depth++ {
		half := size / 2
		qi := quadrant(r, c, r0, c0, half)
		pos := groupStart + uint(qi)

		var bit bool
		var bv bitvec.RankSelect
		if depth == t.maxDepth-1 {
			bv = t.leaves
		} else {
			bv = t.levels[depth]
		}
		bit = bv.Test(pos)
		if !bit {
			return false
		}
		if depth == t.maxDepth-1 {
			return true
		}

		groupStart = uint(t.levels[depth].Rank1(pos)) * 4
		r0, c0, size = quadrantOrigin(qi, r0, c0, half)
	}
	return true
}

// quadrant returns which of the 4 children (r, c) falls into, given the
// parent origin (r0, c0) and child half-size.
func quadrant(r, c, r0, c0, half uint64) int {
	qi := 0
	if r >= r0+half {
		qi += 2
	}
	if c >= c0+half {
		qi += 1
	}
	return qi
}

// quadrantOrigin returns the (r0, c0, size) of child qi.
func quadrantOrigin(qi int, r0, c0, half uint64) (uint64, uint64, uint64) {
	switch qi {
	case 0:
		return r0, c0, half
	case 1:
		return r0, c0 + half, half
	case 2:
		return r0 + half, c0, half
	default:
		return r0 + half, c0 + half, half
	}
}

// RowIter returns the columns c with M[r, c] == 1, ascending.
func (t *Tree) RowIter(r uint64) []uint64 {
	if r >= t.rows {
		return nil
	}
	var out []uint64
	if t.maxDepth == 0 {
		if t.leaves.Test(0) {
			out = append(out, 0)
		}
		return out
	}

	t.walkRow(r, 0, 0, t.s, 0, 0, &out)
	return out
}

func (t *Tree) walkRow(r, r0, c0, size uint64, depth int, groupStart uint, out *[]uint64) {
	half := size / 2
	// only the quadrants whose row range contains r are relevant: that is
	// exactly one row-half, i.e. 2 of the 4 quadrants (left then right).
	rowHi := r >= r0+half

	var qis [2]int
	if !rowHi {
		qis = [2]int{0, 1}
	} else {
		qis = [2]int{2, 3}
	}

	for _, qi := range qis {
		pos := groupStart + uint(qi)

		var bv bitvec.RankSelect
		if depth == t.maxDepth-1 {
			bv = t.leaves
		} else {
			bv = t.levels[depth]
		}
		if !bv.Test(pos) {
			continue
		}

		cr0, cc0, csize := quadrantOrigin(qi, r0, c0, half)
		if depth == t.maxDepth-1 {
			if cc0 < t.cols {
				*out = append(*out, cc0)
			}
			continue
		}

		nextGroup := uint(t.levels[depth].Rank1(pos)) * 4
		t.walkRow(r, cr0, cc0, csize, depth+1, nextGroup, out)
	}
}

// Column materializes all rows r with M[r, c] == 1, ascending.
func (t *Tree) Column(c uint64) []uint64 {
	if c >= t.cols {
		return nil
	}
	var out []uint64
	if t.maxDepth == 0 {
		if t.leaves.Test(0) {
			out = append(out, 0)
		}
		return out
	}

	t.walkColumn(c, 0, 0, t.s, 0, 0, &out)
	return out
}

func (t *Tree) walkColumn(c, r0, c0, size uint64, depth int, groupStart uint, out *[]uint64) {
	half := size / 2
	colHi := c >= c0+half

	var qis [2]int
	if !colHi {
		qis = [2]int{0, 2}
	} else {
		qis = [2]int{1, 3}
	}

	for _, qi := range qis {
		pos := groupStart + uint(qi)

		var bv bitvec.RankSelect
		if depth == t.maxDepth-1 {
			bv = t.leaves
		} else {
			bv = t.levels[depth]
		}
		if !bv.Test(pos) {
			continue
		}

		cr0, cc0, csize := quadrantOrigin(qi, r0, c0, half)
		if depth == t.maxDepth-1 {
			if cr0 < t.rows {
				*out = append(*out, cr0)
			}
			continue
		}

		nextGroup := uint(t.levels[depth].Rank1(pos)) * 4
		t.walkColumn(c, cr0, cc0, csize, depth+1, nextGroup, out)
	}
}

// WriteTo serializes the tree: VByte(rows), VByte(cols), VByte(maxDepth),
// then each internal level and finally the leaf level via
// bitvec.WriteRankSelect, which tags each one plain or RRR.
func (t *Tree) WriteTo(w *bitio.Writer) {
	w.VByte(t.rows)
	w.VByte(t.cols)
	w.VByte(uint64(t.maxDepth))

	for _, lv := range t.levels {
		bitvec.WriteRankSelect(w, lv)
	}
	bitvec.WriteRankSelect(w, t.leaves)
}

// ReadFrom deserializes a tree written by WriteTo. Plain-flavor vectors are
// rebuilt with bitvec.DefaultFactor superblocks; RRR-flavor vectors keep
// the factor that was fixed at build time and stored in their serialized
// bytes.
func ReadFrom(r *bitio.Reader) (*Tree, error) {
	rows, err := r.VByte()
	if err != nil {
		return nil, err
	}
	cols, err := r.VByte()
	if err != nil {
		return nil, err
	}
	maxDepth64, err := r.VByte()
	if err != nil {
		return nil, err
	}

	s, _ := gridSize(rows, cols)
	t := &Tree{rows: rows, cols: cols, s: s, maxDepth: int(maxDepth64)}

	if t.maxDepth == 0 {
		lv, err := bitvec.ReadRankSelect(r, 0)
		if err != nil {
			return nil, err
		}
		t.leaves = lv
		return t, nil
	}

	t.levels = make([]bitvec.RankSelect, t.maxDepth-1)
	for d := range t.levels {
		lv, err := bitvec.ReadRankSelect(r, 0)
		if err != nil {
			return nil, err
		}
		t.levels[d] = lv
	}

	leaves, err := bitvec.ReadRankSelect(r, 0)
	if err != nil {
		return nil, err
	}
	t.leaves = leaves

	return t, nil
}
