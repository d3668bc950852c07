// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"sync/atomic"
	"testing"
)

// =============================================================================
// Dispatch Tests
// =============================================================================

func TestGroupCount(t *testing.T) {
	tests := []struct{ n, size, want int }{
		{0, 8, 0}, {1, 8, 1}, {8, 8, 1}, {9, 8, 2}, {1000, 256, 4}, {5, 0, 0},
	}
	for _, tt := range tests {
		if got := GroupCount(tt.n, tt.size); got != tt.want {
			t.Errorf("GroupCount(%d, %d) = %d, want %d", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestDispatch2D_CoversEveryPixelOnce(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	sizes := [][2]int{{1, 1}, {10, 10}, {17, 3}, {64, 64}, {101, 37}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		hits := make([]atomic.Int32, w*h)
		pool.Dispatch2D(w, h, func(g Group) {
			if g.X1-g.X0 > GroupWidth || g.Y1-g.Y0 > GroupHeight {
				t.Errorf("group %+v larger than workgroup", g)
			}
			for y := g.Y0; y < g.Y1; y++ {
				for x := g.X0; x < g.X1; x++ {
					hits[y*w+x].Add(1)
				}
			}
		})
		for i := range hits {
			if n := hits[i].Load(); n != 1 {
				t.Fatalf("%dx%d: pixel %d visited %d times", w, h, i, n)
			}
		}
	}
}

func TestDispatch1D_CoversEveryItemOnce(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	for _, n := range []int{1, 255, 256, 257, 5000} {
		hits := make([]atomic.Int32, n)
		pool.Dispatch1D(n, func(lo, hi int) {
			if hi-lo > GroupSize1D {
				t.Errorf("block [%d,%d) larger than %d", lo, hi, GroupSize1D)
			}
			for i := lo; i < hi; i++ {
				hits[i].Add(1)
			}
		})
		for i := range hits {
			if c := hits[i].Load(); c != 1 {
				t.Fatalf("n=%d: item %d visited %d times", n, i, c)
			}
		}
	}
}

func TestDispatch_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	called := false
	pool.Dispatch2D(0, 10, func(Group) { called = true })
	pool.Dispatch1D(0, func(int, int) { called = true })
	if called {
		t.Error("empty dispatch invoked the kernel")
	}
}

func BenchmarkDispatch2D_1080p(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	buf := make([]uint32, 1920*1080)
	b.ResetTimer()
	for range b.N {
		pool.Dispatch2D(1920, 1080, func(g Group) {
			for y := g.Y0; y < g.Y1; y++ {
				for x := g.X0; x < g.X1; x++ {
					buf[y*1920+x]++
				}
			}
		})
	}
}
