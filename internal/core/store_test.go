// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func testColors(n int) []SeedColor {
	colors := make([]SeedColor, n)
	for i := range colors {
		colors[i] = SeedColor{R: float32(i) / float32(n), G: 0.5, B: 0.25, A: 1}
	}
	return colors
}

func TestNewSeedStore(t *testing.T) {
	s, err := NewSeedStore(testColors(1500))
	if err != nil {
		t.Fatalf("NewSeedStore: %v", err)
	}
	if s.Len() != 1500 {
		t.Errorf("Len() = %d, want 1500", s.Len())
	}
	if s.Rows() != 2 {
		t.Errorf("Rows() = %d, want 2", s.Rows())
	}
	if got := len(s.ColorBytes()); got != 1500*16 {
		t.Errorf("len(ColorBytes()) = %d, want %d", got, 1500*16)
	}
	if got := len(s.ColorTexels()); got != 2*SeedGridWidth*4 {
		t.Errorf("len(ColorTexels()) = %d, want %d", got, 2*SeedGridWidth*4)
	}
}

func TestNewSeedStore_Empty(t *testing.T) {
	s, err := NewSeedStore(nil)
	if err != nil {
		t.Fatalf("NewSeedStore(nil): %v", err)
	}
	if s.Len() != 0 || s.Rows() != 0 {
		t.Errorf("Len, Rows = %d, %d, want 0, 0", s.Len(), s.Rows())
	}
	if err := s.SetPositions(nil); err != nil {
		t.Errorf("SetPositions(nil): %v", err)
	}
	if len(s.PositionBytes()) != 0 {
		t.Errorf("PositionBytes not empty")
	}
}

func TestSeedStore_Cell(t *testing.T) {
	s, _ := NewSeedStore(testColors(3000))
	tests := []struct {
		id       uint32
		col, row int
	}{
		{0, 0, 0},
		{1023, 1023, 0},
		{1024, 0, 1},
		{2049, 1, 2},
	}
	for _, tt := range tests {
		col, row := s.Cell(tt.id)
		if col != tt.col || row != tt.row {
			t.Errorf("Cell(%d) = (%d, %d), want (%d, %d)", tt.id, col, row, tt.col, tt.row)
		}
		if idx := row*SeedGridWidth + col; uint32(idx) != tt.id {
			t.Errorf("grid index of %d = %d", tt.id, idx)
		}
	}
}

func TestSeedStore_SetPositions(t *testing.T) {
	s, _ := NewSeedStore(testColors(3))
	pos := []SeedPos{{1.5, 2}, {-4, 8.25}, {100, 0}}
	if err := s.SetPositions(pos); err != nil {
		t.Fatalf("SetPositions: %v", err)
	}
	pos[0] = SeedPos{99, 99}
	if got := s.Position(0); got != (SeedPos{1.5, 2}) {
		t.Errorf("store aliases caller slice: Position(0) = %v", got)
	}

	b := s.PositionBytes()
	if len(b) != 24 {
		t.Fatalf("len(PositionBytes()) = %d, want 24", len(b))
	}
	if x := math.Float32frombits(binary.LittleEndian.Uint32(b[8:])); x != -4 {
		t.Errorf("seed 1 x = %v, want -4", x)
	}
	if y := math.Float32frombits(binary.LittleEndian.Uint32(b[12:])); y != 8.25 {
		t.Errorf("seed 1 y = %v, want 8.25", y)
	}
	tex := s.PositionTexels()
	if tex[4] != 100 || tex[5] != 0 {
		t.Errorf("texel 2 = (%v, %v), want (100, 0)", tex[4], tex[5])
	}

	if err := s.SetPositions(pos[:2]); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SetPositions with short slice = %v, want ErrConfiguration", err)
	}
}

func TestSeedStore_ColorBytes(t *testing.T) {
	s, _ := NewSeedStore([]SeedColor{{0, 0, 0, 1}, {0.25, 0.5, 0.75, 1}})
	b := s.ColorBytes()
	want := []float32{0.25, 0.5, 0.75, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[16+i*4:]))
		if got != w {
			t.Errorf("color 1 channel %d = %v, want %v", i, got, w)
		}
	}
	if c := s.Color(1); c != (SeedColor{0.25, 0.5, 0.75, 1}) {
		t.Errorf("Color(1) = %v", c)
	}
}
