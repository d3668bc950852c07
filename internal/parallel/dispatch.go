// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

// Workgroup sizes of the compute-style dispatchers.
const (
	// GroupWidth and GroupHeight are the 2D workgroup dimensions.
	GroupWidth  = 8
	GroupHeight = 8

	// GroupSize1D is the 1D workgroup size.
	GroupSize1D = 256
)

// Group is one 2D workgroup: the half-open pixel rectangle [X0,X1)x[Y0,Y1).
type Group struct {
	X0, Y0, X1, Y1 int
}

// GroupCount returns the number of workgroups needed to cover n items with
// groups of the given size.
func GroupCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Dispatch2D runs fn once per GroupWidth x GroupHeight workgroup covering a
// w x h grid and returns when every group has finished. Edge groups are
// clipped to the grid. Groups are batched into work items so that each
// worker receives a few contiguous runs.
func (p *WorkerPool) Dispatch2D(w, h int, fn func(g Group)) {
	gx := GroupCount(w, GroupWidth)
	gy := GroupCount(h, GroupHeight)
	total := gx * gy
	if total == 0 {
		return
	}
	p.dispatchBatches(total, func(i int) {
		tx, ty := i%gx, i/gx
		g := Group{X0: tx * GroupWidth, Y0: ty * GroupHeight}
		g.X1 = min(g.X0+GroupWidth, w)
		g.Y1 = min(g.Y0+GroupHeight, h)
		fn(g)
	})
}

// Dispatch1D runs fn once per GroupSize1D block of [0, n) with the block's
// half-open range and returns when every block has finished.
func (p *WorkerPool) Dispatch1D(n int, fn func(lo, hi int)) {
	total := GroupCount(n, GroupSize1D)
	if total == 0 {
		return
	}
	p.dispatchBatches(total, func(i int) {
		lo := i * GroupSize1D
		fn(lo, min(lo+GroupSize1D, n))
	})
}

// dispatchBatches runs group(i) for every i in [0, total) across the pool
// with a barrier at the end.
func (p *WorkerPool) dispatchBatches(total int, group func(i int)) {
	items := len(p.queues) * 4
	if items > total {
		items = total
	}
	batch := (total + items - 1) / items

	work := make([]func(), 0, items)
	for lo := 0; lo < total; lo += batch {
		hi := min(lo+batch, total)
		work = append(work, func() {
			for i := lo; i < hi; i++ {
				group(i)
			}
		})
	}
	p.ExecuteAll(work)
}
