// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sampling

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/jfa/internal/parallel"
)

// ClipVertex is a triangle vertex in clip space with one uv varying.
type ClipVertex struct {
	X, Y float32
	U, V float32
}

// FullscreenTriangle covers the whole viewport with one triangle. The uv
// varying is (0,0) at the top-left corner of the viewport and (1,1) at
// the bottom-right.
var FullscreenTriangle = [3]ClipVertex{
	{X: -1, Y: -1, U: 0, V: 1},
	{X: 3, Y: -1, U: 2, V: 1},
	{X: -1, Y: 3, U: 0, V: -1},
}

// Fragment is the input of a fragment stage: the integer pixel and the
// interpolated uv varying.
type Fragment struct {
	X, Y int
	U, V float32
}

// DrawTriangle rasterizes one triangle over a w x h viewport and calls fs
// for every pixel whose center it covers. Fragments run concurrently on
// pool; every pixel is shaded at most once.
func DrawTriangle(pool *parallel.WorkerPool, w, h int, tri [3]ClipVertex, fs func(f Fragment)) {
	var wx, wy [3]float64
	for i, v := range tri {
		wx[i] = (float64(v.X) + 1) * 0.5 * float64(w)
		wy[i] = (1 - float64(v.Y)) * 0.5 * float64(h)
	}
	area := edge(wx[0], wy[0], wx[1], wy[1], wx[2], wy[2])
	if area == 0 {
		return
	}

	minX := max(int(math.Floor(min(wx[0], wx[1], wx[2]))), 0)
	minY := max(int(math.Floor(min(wy[0], wy[1], wy[2]))), 0)
	maxX := min(int(math.Ceil(max(wx[0], wx[1], wx[2]))), w)
	maxY := min(int(math.Ceil(max(wy[0], wy[1], wy[2]))), h)
	if minX >= maxX || minY >= maxY {
		return
	}

	pool.Dispatch2D(w, h, func(g parallel.Group) {
		x0, x1 := max(g.X0, minX), min(g.X1, maxX)
		y0, y1 := max(g.Y0, minY), min(g.Y1, maxY)
		for y := y0; y < y1; y++ {
			py := float64(y) + 0.5
			for x := x0; x < x1; x++ {
				px := float64(x) + 0.5
				b0 := edge(wx[1], wy[1], wx[2], wy[2], px, py) / area
				b1 := edge(wx[2], wy[2], wx[0], wy[0], px, py) / area
				b2 := edge(wx[0], wy[0], wx[1], wy[1], px, py) / area
				if b0 < 0 || b1 < 0 || b2 < 0 {
					continue
				}
				fs(Fragment{
					X: x,
					Y: y,
					U: float32(b0*float64(tri[0].U) + b1*float64(tri[1].U) + b2*float64(tri[2].U)),
					V: float32(b0*float64(tri[0].V) + b1*float64(tri[1].V) + b2*float64(tri[2].V)),
				})
			}
		}
	})
}

// edge is the signed doubled area of (a, b, p).
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// PointVertex is a point primitive in framebuffer coordinates. The point
// covers the pixel whose square [x, x+1) x [y, y+1) contains it.
type PointVertex struct {
	X, Y  float64
	Depth uint32
}

// DrawPoints runs vs for every primitive concurrently, then merges the
// covered fragments in primitive order: each fragment is depth tested
// against depth and, if it passes, handed to merge. Points that vs culls,
// non-finite points and points outside the viewport produce no fragment.
func DrawPoints(pool *parallel.WorkerPool, depth *DepthBuffer, compare gputypes.CompareFunction, count int, vs func(i int) (PointVertex, bool), merge func(i, x, y int)) {
	type frag struct {
		x, y  int
		depth uint32
		ok    bool
	}
	frags := make([]frag, count)
	w, h := depth.Size()
	pool.Dispatch1D(count, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			v, ok := vs(i)
			if !ok {
				continue
			}
			fx, fy := math.Floor(v.X), math.Floor(v.Y)
			if math.IsNaN(fx) || math.IsNaN(fy) || fx < 0 || fy < 0 || fx >= float64(w) || fy >= float64(h) {
				continue
			}
			frags[i] = frag{x: int(fx), y: int(fy), depth: v.Depth, ok: true}
		}
	})
	for i, f := range frags {
		if f.ok && depth.Test(compare, f.x, f.y, f.depth) {
			merge(i, f.x, f.y)
		}
	}
}

// DepthBuffer holds one integer depth value per pixel.
type DepthBuffer struct {
	w, h   int
	values []uint32
}

// NewDepthBuffer allocates a w x h depth buffer.
func NewDepthBuffer(w, h int) *DepthBuffer {
	return &DepthBuffer{w: w, h: h, values: make([]uint32, w*h)}
}

// Size returns the buffer dimensions.
func (d *DepthBuffer) Size() (w, h int) { return d.w, d.h }

// Clear sets every depth value to v.
func (d *DepthBuffer) Clear(v uint32) {
	for i := range d.values {
		d.values[i] = v
	}
}

// Test compares depth against the stored value and stores it on success.
func (d *DepthBuffer) Test(compare gputypes.CompareFunction, x, y int, depth uint32) bool {
	i := y*d.w + x
	if !passes(compare, depth, d.values[i]) {
		return false
	}
	d.values[i] = depth
	return true
}

func passes(compare gputypes.CompareFunction, v, stored uint32) bool {
	switch compare {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return v < stored
	case gputypes.CompareFunctionLessEqual:
		return v <= stored
	case gputypes.CompareFunctionGreater:
		return v > stored
	case gputypes.CompareFunctionGreaterEqual:
		return v >= stored
	case gputypes.CompareFunctionEqual:
		return v == stored
	case gputypes.CompareFunctionNotEqual:
		return v != stored
	default:
		return true
	}
}
