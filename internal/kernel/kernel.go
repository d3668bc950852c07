// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernel

import (
	"math"

	"github.com/gogpu/jfa/internal/core"
)

// Far is the initial best distance of a pixel without an owner.
const Far = math.MaxFloat32

// Offset is one neighbour direction, multiplied by the step size.
type Offset struct {
	DX, DY int
}

// Offsets lists the neighbours of a propagation pass in the order they are
// examined. The order is part of the tie-break rule.
var Offsets = [8]Offset{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// SplatCell returns the raster cell seed position p rounds to with
// floor(p + 0.5). ok is false for non-finite positions and cells outside
// the w x h raster.
func SplatCell(p core.SeedPos, w, h int) (x, y int, ok bool) {
	fx := math.Floor(float64(p.X) + 0.5)
	fy := math.Floor(float64(p.Y) + 0.5)
	if math.IsNaN(fx) || math.IsNaN(fy) || math.IsInf(fx, 0) || math.IsInf(fy, 0) {
		return 0, 0, false
	}
	if fx < 0 || fy < 0 || fx >= float64(w) || fy >= float64(h) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// SqDist returns the squared float32 distance from pixel (x, y) to p.
// The two products are rounded separately before the sum.
func SqDist(x, y int, p core.SeedPos) float32 {
	dx := float32(x) - p.X
	dy := float32(y) - p.Y
	return float32(dx*dx) + float32(dy*dy)
}

// PropagatePixel computes the owner of pixel (x, y) after one step.
// read returns the current owner of a cell; pos returns a seed position.
// Ids at or above n are treated as unset.
func PropagatePixel(x, y, w, h, step int, n uint32, read func(x, y int) uint32, pos func(id uint32) core.SeedPos) uint32 {
	best := read(x, y)
	bestD := float32(Far)
	if best < n {
		bestD = SqDist(x, y, pos(best))
	} else {
		best = core.Unset
	}
	for _, o := range Offsets {
		nx := x + o.DX*step
		ny := y + o.DY*step
		if nx < 0 || ny < 0 || nx >= w || ny >= h {
			continue
		}
		id := read(nx, ny)
		if id >= n {
			continue
		}
		if d := SqDist(x, y, pos(id)); d < bestD {
			best, bestD = id, d
		}
	}
	return best
}

// ResolvePixel returns the RGBA8 color of a cell owned by raw. Unset and
// out-of-range ids resolve to opaque black.
func ResolvePixel(raw uint32, colors []core.SeedColor) [4]byte {
	if raw >= uint32(len(colors)) {
		return [4]byte{0, 0, 0, 255}
	}
	return ColorToRGBA8(colors[raw])
}

// ColorToRGBA8 converts a normalized color with round(clamp(c, 0, 1) * 255).
func ColorToRGBA8(c core.SeedColor) [4]byte {
	return [4]byte{UnormByte(c.R), UnormByte(c.G), UnormByte(c.B), UnormByte(c.A)}
}

// UnormByte converts one normalized channel to 8 bits. NaN maps to 0.
func UnormByte(v float32) byte {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(math.Floor(float64(v)*255 + 0.5))
}

// EncodeID splits an owner id into four unorm channels, low byte first.
func EncodeID(id uint32) [4]byte {
	return [4]byte{byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24)}
}

// DecodeID reassembles an owner id from four channels.
func DecodeID(c [4]byte) uint32 {
	return uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24
}

// ChannelToFloat returns the normalized value of an 8-bit unorm channel.
func ChannelToFloat(b byte) float32 { return float32(b) / 255 }

// FloatToChannel decodes a sampled normalized value with round(v * 255).
func FloatToChannel(v float32) byte { return UnormByte(v) }
