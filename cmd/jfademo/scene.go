// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"math/rand/v2"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/jfa"
	"github.com/gogpu/jfa/morph"
)

// pattern maps a side x side grid to an assignment: assignment[d] is the
// seed that moves to cell d.
type pattern func(side int, colors []colorful.Color, rng *rand.Rand) []int

var patterns = map[string]pattern{
	"flip":      flip,
	"transpose": transpose,
	"rotate":    rotate,
	"shuffle":   shuffle,
	"sort":      sortByHue,
}

// palette returns the procedural source image: hue sweeps left to right,
// lightness top to bottom.
func palette(side int) []colorful.Color {
	colors := make([]colorful.Color, side*side)
	for y := range side {
		for x := range side {
			h := 360 * (float64(x) + 0.5) / float64(side)
			l := 0.3 + 0.55*(float64(y)+0.5)/float64(side)
			colors[y*side+x] = colorful.Hcl(h, 0.55, l).Clamped()
		}
	}
	return colors
}

func seedColors(colors []colorful.Color) []jfa.SeedColor {
	out := make([]jfa.SeedColor, len(colors))
	for i, c := range colors {
		out[i] = jfa.SeedColor{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: 1}
	}
	return out
}

func flip(side int, _ []colorful.Color, _ *rand.Rand) []int {
	a := make([]int, side*side)
	for y := range side {
		for x := range side {
			a[y*side+x] = y*side + (side - 1 - x)
		}
	}
	return a
}

func transpose(side int, _ []colorful.Color, _ *rand.Rand) []int {
	a := make([]int, side*side)
	for y := range side {
		for x := range side {
			a[y*side+x] = x*side + y
		}
	}
	return a
}

func rotate(side int, _ []colorful.Color, _ *rand.Rand) []int {
	a := make([]int, side*side)
	for y := range side {
		for x := range side {
			a[y*side+x] = (side-1-x)*side + y
		}
	}
	return a
}

func shuffle(side int, _ []colorful.Color, rng *rand.Rand) []int {
	return rng.Perm(side * side)
}

// sortByHue lays the seeds out row by row in order of hue, then lightness.
func sortByHue(side int, colors []colorful.Color, _ *rand.Rand) []int {
	a := morph.IdentityAssignment(side * side)
	slices.SortStableFunc(a, func(i, j int) int {
		hi, _, li := colors[i].Hcl()
		hj, _, lj := colors[j].Hcl()
		switch {
		case hi < hj:
			return -1
		case hi > hj:
			return 1
		case li < lj:
			return -1
		case li > lj:
			return 1
		}
		return 0
	})
	return a
}

// buildPairs creates the transformation of the configured grid.
func buildPairs(cfg MorphConfig, size int) ([]morph.Pair, error) {
	colors := palette(cfg.Grid)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xda3e39cb94b95bdb))
	assignment := patterns[cfg.Pattern](cfg.Grid, colors, rng)
	return morph.GridPairs(cfg.Grid, float32(size), seedColors(colors), assignment)
}
