// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backendtest provides a conformance suite run against every
// executor. Executors must agree bit for bit with kernel.Reference.
package backendtest

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/gogpu/jfa/internal/core"
	"github.com/gogpu/jfa/internal/kernel"
)

// Frame drives one complete frame through b: clear both rasters, splat,
// one propagation pass per step and resolve.
func Frame(b core.Backend, a, bb core.Surface, w, h int, store *core.SeedStore) (core.Output, error) {
	out := core.Output{Owners: make([]uint32, 0, w*h)}
	rec, err := b.Begin(store)
	if err != nil {
		return out, err
	}
	pp, err := core.NewPingPong(a, bb)
	if err != nil {
		rec.Discard()
		return out, err
	}

	n := uint32(store.Len())
	common := core.CommonParams{Width: uint32(w), Height: uint32(h), NSeeds: n}
	steps := []func() error{
		func() error { return rec.Clear(a) },
		func() error { return rec.Clear(bb) },
	}
	if n > 0 {
		steps = append(steps, func() error { return rec.Splat(pp.Read(), common) })
		for _, s := range core.StepSequence(w, h) {
			p := core.PropagationParams{Width: uint32(w), Height: uint32(h), Step: s}
			steps = append(steps, func() error {
				if err := rec.Propagate(pp.Read(), pp.Write(), p); err != nil {
					return err
				}
				pp.Swap()
				return nil
			})
		}
	}
	steps = append(steps,
		func() error { return rec.Resolve(pp.Read(), common) },
		func() error { return rec.Finish(&out) },
	)
	for _, step := range steps {
		if err := step(); err != nil {
			rec.Discard()
			return out, err
		}
	}
	return out, nil
}

// Store builds a seed store or fails the test.
func Store(t testing.TB, colors []core.SeedColor, positions []core.SeedPos) *core.SeedStore {
	t.Helper()
	s, err := core.NewSeedStore(colors)
	if err != nil {
		t.Fatalf("NewSeedStore: %v", err)
	}
	if err := s.SetPositions(positions); err != nil {
		t.Fatalf("SetPositions: %v", err)
	}
	return s
}

// RandomStore returns n seeds with positions spread over a slightly larger
// area than w x h, so some fall outside the raster.
func RandomStore(t testing.TB, seed uint64, n, w, h int) *core.SeedStore {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	colors := make([]core.SeedColor, n)
	positions := make([]core.SeedPos, n)
	for i := range n {
		colors[i] = core.SeedColor{R: rng.Float32(), G: rng.Float32(), B: rng.Float32(), A: 1}
		positions[i] = core.SeedPos{
			X: rng.Float32()*float32(w+8) - 4,
			Y: rng.Float32()*float32(h+8) - 4,
		}
	}
	return Store(t, colors, positions)
}

// Case is one conformance scenario.
type Case struct {
	Name  string
	W, H  int
	Store func(t testing.TB) *core.SeedStore
}

// Cases returns the conformance scenarios.
func Cases() []Case {
	red := core.SeedColor{R: 1, A: 1}
	blue := core.SeedColor{B: 1, A: 1}
	nan := float32(math.NaN())
	return []Case{
		{"two corners 10x10", 10, 10, func(t testing.TB) *core.SeedStore {
			return Store(t, []core.SeedColor{red, blue}, []core.SeedPos{{X: 0, Y: 0}, {X: 9, Y: 9}})
		}},
		{"single seed", 33, 17, func(t testing.TB) *core.SeedStore {
			return Store(t, []core.SeedColor{{R: 0.3, G: 0.6, B: 0.9, A: 1}}, []core.SeedPos{{X: 20.4, Y: 3.7}})
		}},
		{"no seeds", 9, 4, func(t testing.TB) *core.SeedStore {
			return Store(t, nil, nil)
		}},
		{"1x1", 1, 1, func(t testing.TB) *core.SeedStore {
			return Store(t, []core.SeedColor{red, blue}, []core.SeedPos{{X: 0.2, Y: -0.3}, {X: 0, Y: 0}})
		}},
		{"collisions and non-finite", 16, 16, func(t testing.TB) *core.SeedStore {
			return Store(t,
				[]core.SeedColor{red, blue, red, blue, red},
				[]core.SeedPos{{X: nan, Y: 2}, {X: 5.4, Y: 5.4}, {X: 4.6, Y: 4.6}, {X: 40, Y: 1}, {X: 11, Y: 12}})
		}},
		{"positions just below half", 4, 4, func(t testing.TB) *core.SeedStore {
			below := math.Nextafter32(0.5, 0)
			return Store(t, []core.SeedColor{red, blue}, []core.SeedPos{{X: below, Y: below}, {X: 1, Y: 1}})
		}},
		{"random 200 seeds", 64, 48, func(t testing.TB) *core.SeedStore {
			return RandomStore(t, 7, 200, 64, 48)
		}},
		{"random 1500 seeds", 97, 61, func(t testing.TB) *core.SeedStore {
			return RandomStore(t, 11, 1500, 97, 61)
		}},
	}
}

// Open creates a backend for a test.
type Open func(t *testing.T) core.Backend

// Run checks b against kernel.Reference on every case, then checks frame
// determinism and pass-level error handling.
func Run(t *testing.T, open Open) {
	for _, c := range Cases() {
		t.Run(c.Name, func(t *testing.T) {
			b := open(t)
			defer b.Release()
			store := c.Store(t)

			sa, sb, err := b.Allocate(c.W, c.H)
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			got, err := Frame(b, sa, sb, c.W, c.H, store)
			if err != nil {
				t.Fatalf("Frame: %v", err)
			}
			wantOwners, wantPixels := kernel.Reference(c.W, c.H, store)
			if len(got.Owners) != len(wantOwners) {
				t.Fatalf("owner raster has %d cells, want %d", len(got.Owners), len(wantOwners))
			}
			if i := firstDiff(got.Owners, wantOwners); i >= 0 {
				t.Fatalf("owner raster differs at pixel (%d, %d): got %#x, want %#x",
					i%c.W, i/c.W, got.Owners[i], wantOwners[i])
			}
			if !bytes.Equal(got.Pixels, wantPixels) {
				t.Fatal("color raster differs from reference")
			}

			again, err := Frame(b, sa, sb, c.W, c.H, store)
			if err != nil {
				t.Fatalf("second Frame: %v", err)
			}
			if !slices.Equal(again.Owners, got.Owners) || !bytes.Equal(again.Pixels, got.Pixels) {
				t.Fatal("second frame differs from the first")
			}
		})
	}

	t.Run("aliasing", func(t *testing.T) {
		b := open(t)
		defer b.Release()
		sa, _, err := b.Allocate(8, 8)
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		rec, err := b.Begin(Store(t, []core.SeedColor{{A: 1}}, []core.SeedPos{{X: 1, Y: 1}}))
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		defer rec.Discard()
		err = rec.Propagate(sa, sa, core.PropagationParams{Width: 8, Height: 8, Step: 4})
		if !errors.Is(err, core.ErrBufferAliasing) {
			t.Errorf("Propagate(a, a) = %v, want ErrBufferAliasing", err)
		}
	})

	t.Run("stale surfaces after reallocation", func(t *testing.T) {
		b := open(t)
		defer b.Release()
		oldA, oldB, err := b.Allocate(8, 8)
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if _, _, err := b.Allocate(4, 4); err != nil {
			t.Fatalf("second Allocate: %v", err)
		}
		store := Store(t, []core.SeedColor{{A: 1}}, []core.SeedPos{{X: 1, Y: 1}})
		if _, err := Frame(b, oldA, oldB, 8, 8, store); err == nil {
			t.Error("frame on released surfaces succeeded")
		}
	})
}

// RunDeviceLoss checks that a loss during a frame aborts it with
// ErrDeviceLost and that the backend recovers after Reacquire and a new
// Allocate.
func RunDeviceLoss(t *testing.T, dev *core.Device, b core.Backend) {
	t.Helper()
	store := RandomStore(t, 5, 50, 32, 32)
	sa, sb, err := b.Allocate(32, 32)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	rec, err := b.Begin(store)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := rec.Clear(sa); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	dev.Lose("test")
	err = rec.Clear(sb)
	if !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("Clear after loss = %v, want ErrDeviceLost", err)
	}
	rec.Discard()

	if _, err := b.Begin(store); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("Begin on lost device = %v, want ErrDeviceLost", err)
	}
	if err := dev.Reacquire(); err != nil {
		t.Fatalf("Reacquire: %v", err)
	}
	if _, err := Frame(b, sa, sb, 32, 32, store); !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("frame on surfaces of the lost generation = %v, want ErrDeviceLost", err)
	}

	sa, sb, err = b.Allocate(32, 32)
	if err != nil {
		t.Fatalf("Allocate after Reacquire: %v", err)
	}
	got, err := Frame(b, sa, sb, 32, 32, store)
	if err != nil {
		t.Fatalf("Frame after Reacquire: %v", err)
	}
	wantOwners, _ := kernel.Reference(32, 32, store)
	if !slices.Equal(got.Owners, wantOwners) {
		t.Fatal("frame after recovery differs from reference")
	}
}

func firstDiff(a, b []uint32) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
