// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sampling

import (
	"math"

	"github.com/gogpu/gputypes"
)

// Sampler reads normalized texel values at normalized coordinates.
type Sampler struct {
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
}

// OwnerSampler returns the sampler used for owner textures: nearest
// filtering with clamp-to-edge addressing. Linear filtering would blend id
// bytes of neighbouring owners.
func OwnerSampler() Sampler {
	return Sampler{
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
	}
}

// Sample returns the texel value at (u, v) as four floats in [0, 1]. The
// textures are single level, so MagFilter selects the filter.
func (s Sampler) Sample(t *Texture, u, v float32) [4]float32 {
	fu := float64(u) * float64(t.width)
	fv := float64(v) * float64(t.height)
	if s.MagFilter != gputypes.FilterModeLinear {
		x := address(int(math.Floor(fu)), t.width, s.AddressModeU)
		y := address(int(math.Floor(fv)), t.height, s.AddressModeV)
		return unorm(t.Texel(x, y))
	}

	fu -= 0.5
	fv -= 0.5
	x0, y0 := math.Floor(fu), math.Floor(fv)
	ax, ay := float32(fu-x0), float32(fv-y0)
	xa := address(int(x0), t.width, s.AddressModeU)
	xb := address(int(x0)+1, t.width, s.AddressModeU)
	ya := address(int(y0), t.height, s.AddressModeV)
	yb := address(int(y0)+1, t.height, s.AddressModeV)
	c00, c10 := unorm(t.Texel(xa, ya)), unorm(t.Texel(xb, ya))
	c01, c11 := unorm(t.Texel(xa, yb)), unorm(t.Texel(xb, yb))
	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*ax
		bottom := c01[i] + (c11[i]-c01[i])*ax
		out[i] = top + (bottom-top)*ay
	}
	return out
}

// address maps a texel coordinate into [0, n).
func address(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		return min(max(i, 0), n-1)
	}
}

func unorm(c [4]byte) [4]float32 {
	return [4]float32{
		float32(c[0]) / 255,
		float32(c[1]) / 255,
		float32(c[2]) / 255,
		float32(c[3]) / 255,
	}
}
