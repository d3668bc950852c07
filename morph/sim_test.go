// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package morph

import (
	"errors"
	"math"
	"testing"

	"github.com/gogpu/jfa"
)

// identitySim returns a simulation of a side x side grid whose seeds stay
// in their cells.
func identitySim(t *testing.T, side int, size float32) (*Sim, []Pair) {
	t.Helper()
	n := side * side
	pairs, err := GridPairs(side, size, make([]jfa.SeedColor, n), IdentityAssignment(n))
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSim(pairs, size, 2)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s, pairs
}

func finite(positions []jfa.SeedPos) bool {
	for _, p := range positions {
		if math.IsNaN(float64(p.X)) || math.IsNaN(float64(p.Y)) ||
			math.IsInf(float64(p.X), 0) || math.IsInf(float64(p.Y), 0) {
			return false
		}
	}
	return true
}

func TestNewSim_Errors(t *testing.T) {
	if _, err := NewSim(nil, 64, 1); !errors.Is(err, jfa.ErrConfiguration) {
		t.Errorf("NewSim(nil) = %v, want ErrConfiguration", err)
	}
	if _, err := NewSim([]Pair{{}}, 0, 1); !errors.Is(err, jfa.ErrConfiguration) {
		t.Errorf("NewSim(size 0) = %v, want ErrConfiguration", err)
	}
}

func TestSim_SettledArrangementStaysPut(t *testing.T) {
	s, pairs := identitySim(t, 4, 64)
	positions := s.Start()
	for range 50 {
		if err := s.Step(positions); err != nil {
			t.Fatal(err)
		}
	}
	for i, p := range positions {
		if p != pairs[i].Source {
			t.Errorf("seed %d moved from %v to %v", i, pairs[i].Source, p)
		}
	}
	if !s.Settled(positions, 0) {
		t.Error("Settled(0) = false for an unmoved arrangement")
	}
}

func TestSim_ReturnsToTarget(t *testing.T) {
	s, _ := identitySim(t, 4, 64)
	positions := s.Start()
	positions[0] = jfa.SeedPos{X: 12, Y: 8}
	if s.Settled(positions, 2) {
		t.Fatal("displaced arrangement already settled")
	}
	for range 1500 {
		if err := s.Step(positions); err != nil {
			t.Fatal(err)
		}
	}
	if !finite(positions) {
		t.Fatal("non-finite positions")
	}
	if !s.Settled(positions, 2) {
		t.Errorf("seed 0 at %v did not return to %v", positions[0], s.Target(0))
	}
}

func TestSim_VelocityClamp(t *testing.T) {
	pairs := []Pair{
		{Source: jfa.SeedPos{X: 8, Y: 8}, Target: jfa.SeedPos{X: 1000, Y: 1000}},
	}
	s, err := NewSim(pairs, 1024, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.SetPull(0, 5)
	positions := s.Start()
	for range 200 {
		prev := positions[0]
		if err := s.Step(positions); err != nil {
			t.Fatal(err)
		}
		const limit = MaxVelocity + 1e-3
		if dx := positions[0].X - prev.X; dx > limit || dx < -limit {
			t.Fatalf("step moved %g on x", dx)
		}
		if dy := positions[0].Y - prev.Y; dy > limit || dy < -limit {
			t.Fatalf("step moved %g on y", dy)
		}
	}
}

func TestSim_CoincidentSeedsSeparate(t *testing.T) {
	s, _ := identitySim(t, 2, 32)
	positions := s.Start()
	positions[0] = jfa.SeedPos{X: 16, Y: 16}
	positions[1] = jfa.SeedPos{X: 16, Y: 16}
	if err := s.Step(positions); err != nil {
		t.Fatal(err)
	}
	if !finite(positions) {
		t.Fatalf("non-finite positions %v", positions)
	}
	if positions[0] == positions[1] {
		t.Errorf("coincident seeds still coincide at %v", positions[0])
	}
}

func TestSim_Switch(t *testing.T) {
	pairs := []Pair{
		{Source: jfa.SeedPos{X: 1, Y: 2}, Target: jfa.SeedPos{X: 3, Y: 4}},
		{Source: jfa.SeedPos{X: 5, Y: 6}, Target: jfa.SeedPos{X: 7, Y: 8}},
	}
	s, err := NewSim(pairs, 16, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	s.Switch()
	if got := s.Target(1); got != pairs[1].Source {
		t.Errorf("Target(1) after Switch = %v, want %v", got, pairs[1].Source)
	}
	if got := s.Start()[0]; got != pairs[0].Target {
		t.Errorf("Start()[0] after Switch = %v, want %v", got, pairs[0].Target)
	}
}

func TestSim_StepLengthMismatch(t *testing.T) {
	s, _ := identitySim(t, 2, 32)
	if err := s.Step(make([]jfa.SeedPos, 3)); !errors.Is(err, jfa.ErrConfiguration) {
		t.Errorf("Step = %v, want ErrConfiguration", err)
	}
	if s.Settled(make([]jfa.SeedPos, 3), 100) {
		t.Error("Settled accepted a length mismatch")
	}
}

func BenchmarkSim_Step(b *testing.B) {
	const side = 64
	n := side * side
	pairs, err := GridPairs(side, 512, make([]jfa.SeedColor, n), IdentityAssignment(n))
	if err != nil {
		b.Fatal(err)
	}
	Reverse(pairs)
	s, err := NewSim(pairs, 512, 0)
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()
	positions := s.Start()
	b.ResetTimer()
	for range b.N {
		_ = s.Step(positions)
	}
}
