// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sampling

import (
	"errors"
	"testing"

	"github.com/gogpu/jfa/internal/backendtest"
	"github.com/gogpu/jfa/internal/core"
)

func openTest(t *testing.T) core.Backend {
	t.Helper()
	dev := core.NewDevice(core.SoftwareCapabilities(), 4, nil)
	t.Cleanup(dev.Close)
	b, err := Open(dev)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return b
}

func TestConformance(t *testing.T) {
	backendtest.Run(t, openTest)
}

func TestDeviceLoss(t *testing.T) {
	dev := core.NewDevice(core.SoftwareCapabilities(), 2, nil)
	defer dev.Close()
	b := New(dev)
	defer b.Release()
	backendtest.RunDeviceLoss(t, dev, b)
}

func TestAllocate_TextureLimit(t *testing.T) {
	dev := core.NewDevice(core.Capabilities{MaxTextureDimension: 2048}, 1, nil)
	defer dev.Close()
	b := New(dev)
	if _, _, err := b.Allocate(4096, 16); !errors.Is(err, core.ErrCapability) {
		t.Errorf("Allocate(4096, 16) = %v, want ErrCapability", err)
	}
	if _, _, err := b.Allocate(2048, 16); err != nil {
		t.Errorf("Allocate(2048, 16) = %v", err)
	}
}

func TestClear_WritesEncodedSentinel(t *testing.T) {
	b := openTest(t)
	sa, _, err := b.Allocate(3, 2)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	rec, err := b.Begin(backendtest.Store(t, nil, nil))
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer rec.Discard()
	if err := rec.Clear(sa); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, c := range sa.(*Texture).Pix() {
		if c != 255 {
			t.Fatalf("cleared texel channel = %d, want 255", c)
		}
	}
}

func TestSplat_DepthKeepsLowestID(t *testing.T) {
	b := openTest(t)
	sa, _, err := b.Allocate(4, 4)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	colors := make([]core.SeedColor, 4)
	store := backendtest.Store(t, colors, []core.SeedPos{{X: 9, Y: 9}, {X: 2.2, Y: 1}, {X: 1.6, Y: 0.9}, {X: 2, Y: 1.3}})
	rec, err := b.Begin(store)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer rec.Discard()
	if err := rec.Clear(sa); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := rec.Splat(sa, core.CommonParams{Width: 4, Height: 4, NSeeds: 4}); err != nil {
		t.Fatalf("Splat: %v", err)
	}
	tex := sa.(*Texture)
	if got := tex.Texel(2, 1); got != [4]byte{1, 0, 0, 0} {
		t.Errorf("texel (2, 1) = %v, want id 1", got)
	}
	if got := tex.Texel(0, 0); got != [4]byte{255, 255, 255, 255} {
		t.Errorf("texel (0, 0) = %v, want sentinel", got)
	}
}
