// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"github.com/gogpu/jfa/internal/core"
)

// Reference runs the whole pipeline sequentially on the host and returns
// the final owner raster and the RGBA8 output. Executors are tested for
// bit-exact agreement with it.
func Reference(w, h int, store *core.SeedStore) (owners []uint32, pixels []byte) {
	n := uint32(store.Len())
	a := make([]uint32, w*h)
	b := make([]uint32, w*h)
	Clear(a)
	Clear(b)

	if n > 0 {
		for id := range n {
			x, y, ok := SplatCell(store.Position(id), w, h)
			if !ok {
				continue
			}
			if i := y*w + x; id < a[i] {
				a[i] = id
			}
		}
		pos := store.Position
		for _, step := range core.StepSequence(w, h) {
			src := a
			read := func(x, y int) uint32 { return src[y*w+x] }
			for y := range h {
				for x := range w {
					b[y*w+x] = PropagatePixel(x, y, w, h, int(step), n, read, pos)
				}
			}
			a, b = b, a
		}
	}

	colors := store.Colors()
	pixels = make([]byte, w*h*4)
	for i, raw := range a {
		c := ResolvePixel(raw, colors)
		copy(pixels[i*4:], c[:])
	}
	return a, pixels
}

// Clear fills an owner raster with the unset sentinel.
func Clear(raster []uint32) {
	for i := range raster {
		raster[i] = core.Unset
	}
}
