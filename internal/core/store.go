// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SeedStore holds the per-frame seed positions and the static seed colors
// in the shared grid layout. The id of a seed is its index; Cell maps it to
// the grid coordinate used by texture-backed backends. For a flat buffer the
// grid index equals the id.
//
// Colors are fixed at construction. Positions are replaced once per frame
// with SetPositions. A SeedStore is not safe for concurrent mutation; the
// engine only reads it while a frame is in flight.
type SeedStore struct {
	colors    []SeedColor
	positions []SeedPos

	posBytes   []byte
	colorBytes []byte
	posTexels  []float32
	colTexels  []float32
	posDirty   bool
}

// NewSeedStore validates the seed count and packs the colors. Positions
// start at the origin until SetPositions is called.
func NewSeedStore(colors []SeedColor) (*SeedStore, error) {
	if err := ValidateSeedCount(len(colors)); err != nil {
		return nil, err
	}
	if n := len(colors); n > 0 && uint64(n-1) >= uint64(Unset) {
		return nil, fmt.Errorf("%w: id %d", ErrPrecisionOverflow, n-1)
	}

	s := &SeedStore{
		colors:    append([]SeedColor(nil), colors...),
		positions: make([]SeedPos, len(colors)),
		posDirty:  true,
	}
	s.packColors()
	return s, nil
}

// Len returns the number of seeds N.
func (s *SeedStore) Len() int { return len(s.colors) }

// Rows returns the number of rows of the seed grid, ceil(N/1024).
func (s *SeedStore) Rows() int { return GridRows(len(s.colors)) }

// Cell returns the grid column and row of seed id.
func (s *SeedStore) Cell(id uint32) (col, row int) {
	return int(id % SeedGridWidth), int(id / SeedGridWidth)
}

// SetPositions replaces the seed positions for the next frame. The slice
// length must equal N; the store keeps its own copy.
func (s *SeedStore) SetPositions(positions []SeedPos) error {
	if len(positions) != len(s.colors) {
		return fmt.Errorf("%w: %d positions for %d seeds", ErrConfiguration, len(positions), len(s.colors))
	}
	copy(s.positions, positions)
	s.posDirty = true
	return nil
}

// Position returns the position of seed id. The id must be below Len.
func (s *SeedStore) Position(id uint32) SeedPos { return s.positions[id] }

// Color returns the color of seed id. The id must be below Len.
func (s *SeedStore) Color(id uint32) SeedColor { return s.colors[id] }

// Positions returns the position slice. Callers must not modify it.
func (s *SeedStore) Positions() []SeedPos { return s.positions }

// Colors returns the color slice. Callers must not modify it.
func (s *SeedStore) Colors() []SeedColor { return s.colors }

// PositionBytes returns the positions as a flat array of little-endian
// vec2<f32>, 8 bytes per seed. The slice is reused by the next call after
// SetPositions.
func (s *SeedStore) PositionBytes() []byte {
	s.packPositions()
	return s.posBytes
}

// ColorBytes returns the colors as a flat array of little-endian vec4<f32>,
// 16 bytes per seed.
func (s *SeedStore) ColorBytes() []byte { return s.colorBytes }

// PositionTexels returns the positions laid out as a SeedGridWidth x Rows
// two-channel float texture. Cells past N are zero.
func (s *SeedStore) PositionTexels() []float32 {
	s.packPositions()
	return s.posTexels
}

// ColorTexels returns the colors laid out as a SeedGridWidth x Rows
// four-channel float texture. Cells past N are zero.
func (s *SeedStore) ColorTexels() []float32 { return s.colTexels }

func (s *SeedStore) packColors() {
	n := len(s.colors)
	s.colorBytes = make([]byte, n*16)
	s.colTexels = make([]float32, s.Rows()*SeedGridWidth*4)
	for i, c := range s.colors {
		o := i * 16
		putF32(s.colorBytes[o:], c.R)
		putF32(s.colorBytes[o+4:], c.G)
		putF32(s.colorBytes[o+8:], c.B)
		putF32(s.colorBytes[o+12:], c.A)
		t := i * 4
		s.colTexels[t] = c.R
		s.colTexels[t+1] = c.G
		s.colTexels[t+2] = c.B
		s.colTexels[t+3] = c.A
	}
}

func (s *SeedStore) packPositions() {
	if !s.posDirty {
		return
	}
	n := len(s.positions)
	if cap(s.posBytes) < n*8 {
		s.posBytes = make([]byte, n*8)
		s.posTexels = make([]float32, s.Rows()*SeedGridWidth*2)
	}
	s.posBytes = s.posBytes[:n*8]
	for i, p := range s.positions {
		putF32(s.posBytes[i*8:], p.X)
		putF32(s.posBytes[i*8+4:], p.Y)
		s.posTexels[i*2] = p.X
		s.posTexels[i*2+1] = p.Y
	}
	s.posDirty = false
}

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
