// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package morph

import (
	"fmt"
	"math"

	"github.com/gogpu/jfa"
)

// Pair is the transformation record of one seed.
type Pair struct {
	Source jfa.SeedPos
	Target jfa.SeedPos
	Color  jfa.SeedColor
}

// Colors returns the seed colors in seed id order.
func Colors(pairs []Pair) []jfa.SeedColor {
	colors := make([]jfa.SeedColor, len(pairs))
	for i, p := range pairs {
		colors[i] = p.Color
	}
	return colors
}

// Sources returns the source positions in seed id order.
func Sources(pairs []Pair) []jfa.SeedPos {
	positions := make([]jfa.SeedPos, len(pairs))
	for i, p := range pairs {
		positions[i] = p.Source
	}
	return positions
}

// Reverse swaps source and target of every pair in place.
func Reverse(pairs []Pair) {
	for i := range pairs {
		pairs[i].Source, pairs[i].Target = pairs[i].Target, pairs[i].Source
	}
}

// Smoothstep eases t in [0, 1] with zero slope at both ends. t is clamped.
func Smoothstep(t float64) float64 {
	t = min(max(t, 0), 1)
	return t * t * (3 - 2*t)
}

// Lerp writes the positions at time t into dst and returns it. dst is
// reused when it has enough capacity. t = 0 yields the sources and t = 1
// the targets.
func Lerp(dst []jfa.SeedPos, pairs []Pair, t float64) []jfa.SeedPos {
	if cap(dst) < len(pairs) {
		dst = make([]jfa.SeedPos, len(pairs))
	}
	dst = dst[:len(pairs)]
	k := float32(Smoothstep(t))
	for i, p := range pairs {
		dst[i] = jfa.SeedPos{
			X: p.Source.X + (p.Target.X-p.Source.X)*k,
			Y: p.Source.Y + (p.Target.Y-p.Source.Y)*k,
		}
	}
	return dst
}

// GridPairs builds the pairs of a side x side grid of cells laid over a
// size x size canvas. Seed i starts at the center of cell i and colors[i]
// is its color. assignment[d] names the seed that moves to cell d; it must
// be a permutation of [0, side*side).
func GridPairs(side int, size float32, colors []jfa.SeedColor, assignment []int) ([]Pair, error) {
	n := side * side
	if side <= 0 || size <= 0 {
		return nil, fmt.Errorf("%w: grid %d over canvas %g", jfa.ErrConfiguration, side, size)
	}
	if len(colors) != n || len(assignment) != n {
		return nil, fmt.Errorf("%w: grid of %d cells with %d colors and %d assignments",
			jfa.ErrConfiguration, n, len(colors), len(assignment))
	}

	cell := size / float32(side)
	center := func(i int) jfa.SeedPos {
		return jfa.SeedPos{
			X: (float32(i%side) + 0.5) * cell,
			Y: (float32(i/side) + 0.5) * cell,
		}
	}

	pairs := make([]Pair, n)
	seen := make([]bool, n)
	for dst, src := range assignment {
		if src < 0 || src >= n || seen[src] {
			return nil, fmt.Errorf("%w: assignment is not a permutation at %d", jfa.ErrConfiguration, dst)
		}
		seen[src] = true
		pairs[src] = Pair{Source: center(src), Target: center(dst), Color: colors[src]}
	}
	return pairs, nil
}

// IdentityAssignment returns the assignment that keeps every seed in its
// cell.
func IdentityAssignment(n int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = i
	}
	return a
}

// GridSide returns the side of the smallest square grid holding n seeds.
func GridSide(n int) int {
	side := int(math.Sqrt(float64(n)))
	for side*side < n {
		side++
	}
	return side
}
