// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import "encoding/binary"

// ParamsSize is the serialized size of a parameter block: three u32 fields
// and one u32 of padding.
const ParamsSize = 16

// CommonParams is the parameter block shared by the clear, splat and
// resolve passes.
type CommonParams struct {
	Width  uint32
	Height uint32
	NSeeds uint32
}

// Bytes serializes p as a 16-byte little-endian uniform block.
func (p CommonParams) Bytes() []byte {
	return packParams(p.Width, p.Height, p.NSeeds)
}

// PropagationParams is the parameter block of one propagation pass.
type PropagationParams struct {
	Width  uint32
	Height uint32
	Step   uint32
}

// Bytes serializes p as a 16-byte little-endian uniform block.
func (p PropagationParams) Bytes() []byte {
	return packParams(p.Width, p.Height, p.Step)
}

func packParams(a, b, c uint32) []byte {
	buf := make([]byte, ParamsSize)
	binary.LittleEndian.PutUint32(buf[0:], a)
	binary.LittleEndian.PutUint32(buf[4:], b)
	binary.LittleEndian.PutUint32(buf[8:], c)
	return buf
}

// StepSequence returns the propagation steps for a w x h raster: the
// largest power of two not above max(w, h), halving down to 1. It returns
// nil for an empty raster.
func StepSequence(w, h int) []uint32 {
	m := max(w, h)
	if m <= 0 {
		return nil
	}
	step := uint32(1)
	for step < 1<<31 && uint64(step)*2 <= uint64(m) {
		step *= 2
	}
	steps := make([]uint32, 0, 32)
	for ; step >= 1; step /= 2 {
		steps = append(steps, step)
	}
	return steps
}
