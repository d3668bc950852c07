// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestPatternsArePermutations(t *testing.T) {
	const side = 7
	colors := palette(side)
	for name, p := range patterns {
		t.Run(name, func(t *testing.T) {
			a := p(side, colors, rand.New(rand.NewPCG(1, 2)))
			if len(a) != side*side {
				t.Fatalf("len = %d", len(a))
			}
			sorted := slices.Clone(a)
			slices.Sort(sorted)
			for i, v := range sorted {
				if v != i {
					t.Fatalf("not a permutation: %v", a)
				}
			}
		})
	}
}

func TestPatternCells(t *testing.T) {
	// 3x3 grid, cells numbered row-major.
	tests := []struct {
		name string
		p    pattern
		want []int
	}{
		{"flip", flip, []int{2, 1, 0, 5, 4, 3, 8, 7, 6}},
		{"transpose", transpose, []int{0, 3, 6, 1, 4, 7, 2, 5, 8}},
		{"rotate", rotate, []int{6, 3, 0, 7, 4, 1, 8, 5, 2}},
	}
	for _, tt := range tests {
		if got := tt.p(3, nil, nil); !slices.Equal(got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSortByHue(t *testing.T) {
	colors := palette(5)
	a := sortByHue(5, colors, nil)
	prev := -1.0
	for _, id := range a {
		h, _, _ := colors[id].Hcl()
		if h < prev {
			t.Fatalf("hue decreases: %g after %g", h, prev)
		}
		prev = h
	}
}

func TestBuildPairs(t *testing.T) {
	cfg := Default().Morph
	cfg.Grid = 4
	pairs, err := buildPairs(cfg, 64)
	if err != nil {
		t.Fatalf("buildPairs: %v", err)
	}
	if len(pairs) != 16 {
		t.Fatalf("len = %d", len(pairs))
	}
	// flip: seed 0 at the top-left cell moves to the top-right cell.
	if pairs[0].Source.X != 8 || pairs[0].Target.X != 56 || pairs[0].Target.Y != 8 {
		t.Errorf("pair 0 = %+v", pairs[0])
	}
	for i, p := range pairs {
		if p.Color.A != 1 || p.Color.R < 0 || p.Color.R > 1 {
			t.Errorf("pair %d color %+v", i, p.Color)
		}
	}
}
