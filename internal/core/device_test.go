// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"errors"
	"testing"
)

func TestDevice_LoseReacquire(t *testing.T) {
	dev := NewDevice(SoftwareCapabilities(), 2, nil)
	defer dev.Close()

	if err := dev.Err(); err != nil {
		t.Fatalf("fresh device Err() = %v", err)
	}
	gen := dev.Generation()

	dev.Lose("test")
	if err := dev.Err(); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("Err() after Lose = %v, want ErrDeviceLost", err)
	}
	if err := dev.Reacquire(); err != nil {
		t.Fatalf("Reacquire: %v", err)
	}
	if err := dev.Err(); err != nil {
		t.Errorf("Err() after Reacquire = %v", err)
	}
	if dev.Generation() != gen+1 {
		t.Errorf("Generation() = %d, want %d", dev.Generation(), gen+1)
	}
}

func TestDevice_Close(t *testing.T) {
	dev := NewDevice(SoftwareCapabilities(), 1, nil)
	dev.Close()
	dev.Close()
	if err := dev.Err(); !errors.Is(err, ErrClosed) {
		t.Errorf("Err() after Close = %v, want ErrClosed", err)
	}
	if err := dev.Reacquire(); !errors.Is(err, ErrClosed) {
		t.Errorf("Reacquire after Close = %v, want ErrClosed", err)
	}
	if dev.Pool().IsRunning() {
		t.Error("pool still running after Close")
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		caps     Capabilities
		w, h, n  int
		storage  bool
		sampling bool
	}{
		{"software", SoftwareCapabilities(), 640, 480, 5000, true, true},
		{"no compute", Capabilities{StorageImages: true, MaxTextureDimension: 4096}, 640, 480, 10, false, true},
		{"no storage images", Capabilities{Compute: true, MaxTextureDimension: 4096}, 640, 480, 10, false, true},
		{"raster too wide", Capabilities{MaxTextureDimension: 2048}, 4096, 16, 10, false, false},
		{"seed grid too narrow", Capabilities{MaxTextureDimension: 512}, 64, 64, 10, false, false},
		{"no seeds on small limit", Capabilities{MaxTextureDimension: 512}, 64, 64, 0, false, true},
		{"unbounded", Capabilities{}, 1 << 15, 1 << 15, 10, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caps.SupportsStorage(); got != tt.storage {
				t.Errorf("SupportsStorage() = %v, want %v", got, tt.storage)
			}
			if got := tt.caps.SupportsSampling(tt.w, tt.h, tt.n); got != tt.sampling {
				t.Errorf("SupportsSampling(%d, %d, %d) = %v, want %v", tt.w, tt.h, tt.n, got, tt.sampling)
			}
		})
	}
}

func TestStrategyString(t *testing.T) {
	for s, want := range map[Strategy]string{
		StrategyAuto:     "auto",
		StrategyStorage:  "storage",
		StrategySampling: "sampling",
		Strategy(99):     "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Strategy(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
