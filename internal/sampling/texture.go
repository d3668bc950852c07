// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sampling

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/jfa/internal/core"
)

// Texture is a 2D RGBA8 unorm texture.
type Texture struct {
	label  string
	width  int
	height int
	format gputypes.TextureFormat
	pix    []byte
	owner  *Backend
	gen    uint64
}

// NewTexture allocates a zeroed texture. Only RGBA8Unorm is supported.
func NewTexture(label string, w, h int, format gputypes.TextureFormat) (*Texture, error) {
	if err := core.ValidateDimensions(w, h); err != nil {
		return nil, err
	}
	if format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("%w: texture %s: format %v", core.ErrCapability, label, format)
	}
	return &Texture{label: label, width: w, height: h, format: format, pix: make([]byte, w*h*4)}, nil
}

// Label implements core.Surface.
func (t *Texture) Label() string { return t.label }

// Size implements core.Surface.
func (t *Texture) Size() (w, h int) { return t.width, t.height }

// Format returns the texel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Pix returns the raw texels, row-major, four bytes per texel.
func (t *Texture) Pix() []byte { return t.pix }

// Texel returns the raw channels of texel (x, y).
func (t *Texture) Texel(x, y int) [4]byte {
	i := (y*t.width + x) * 4
	return [4]byte(t.pix[i : i+4])
}

// Store writes one texel.
func (t *Texture) Store(x, y int, c [4]byte) {
	i := (y*t.width + x) * 4
	copy(t.pix[i:i+4], c[:])
}

// FloatTexture is a 2D float texture with 2 or 4 channels. It is only read
// with texel fetches.
type FloatTexture struct {
	width    int
	height   int
	channels int
	data     []float32
}

// NewFloatTexture wraps data as a w x h texture. data must hold at least
// w*h*channels values.
func NewFloatTexture(w, h, channels int, data []float32) (*FloatTexture, error) {
	if channels != 2 && channels != 4 {
		return nil, fmt.Errorf("%w: %d-channel float texture", core.ErrConfiguration, channels)
	}
	if len(data) < w*h*channels {
		return nil, fmt.Errorf("%w: float texture %dx%dx%d with %d values", core.ErrConfiguration, w, h, channels, len(data))
	}
	return &FloatTexture{width: w, height: h, channels: channels, data: data}, nil
}

// Fetch returns texel (x, y) without filtering. Missing channels are zero.
func (t *FloatTexture) Fetch(x, y int) [4]float32 {
	var v [4]float32
	i := (y*t.width + x) * t.channels
	copy(v[:t.channels], t.data[i:i+t.channels])
	return v
}
