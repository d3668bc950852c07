// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package jfa

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/gogpu/jfa/internal/core"
)

// Frame is one resolved raster. A Frame owns its pixels; later renders do
// not modify it.
type Frame struct {
	// Width and Height are the raster dimensions.
	Width, Height int

	// Pix holds Width*Height RGBA8 pixels, row-major, non-premultiplied.
	// Every alpha is the resolved seed's alpha, or 255 for unowned pixels.
	Pix []byte

	// Strategy is the strategy that produced the frame.
	Strategy Strategy

	// Seq numbers the frames of an engine starting at 1.
	Seq uint64

	owners []uint32
}

// NRGBAAt returns the non-premultiplied pixel at (x, y). Out-of-range
// coordinates return the zero color.
func (f *Frame) NRGBAAt(x, y int) color.NRGBA {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return color.NRGBA{}
	}
	i := (y*f.Width + x) * 4
	return color.NRGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: f.Pix[i+3]}
}

// HasOwners reports whether the frame carries the owner raster
// (WithOwnerReadback).
func (f *Frame) HasOwners() bool { return f.owners != nil }

// Owner returns the seed that owns pixel (x, y). It returns NoOwner for
// unowned pixels, out-of-range coordinates and frames without owner
// readback.
func (f *Frame) Owner(x, y int) OwnerID {
	if f.owners == nil || x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return core.NoOwner
	}
	return core.OwnerFromRaw(f.owners[y*f.Width+x])
}

// Owners returns the raw owner raster with Unset for unowned pixels, or nil
// without owner readback. The slice is shared with the frame.
func (f *Frame) Owners() []uint32 { return f.owners }

// Image returns a copy of the frame as an image.NRGBA.
func (f *Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	copy(img.Pix, f.Pix)
	return img
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	return f.NRGBAAt(x, y)
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.NRGBAModel
}

// SavePNG saves the frame to a PNG file.
func (f *Frame) SavePNG(path string) error {
	file, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(file, f.Image()); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
