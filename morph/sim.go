// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package morph

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/jfa"
	"github.com/gogpu/jfa/internal/parallel"
)

// Simulation constants.
const (
	// PersonalSpace is the repulsion radius as a fraction of a grid cell.
	PersonalSpace = 0.95

	// MaxVelocity bounds the per-step displacement on each axis.
	MaxVelocity = 6.0

	// Alignment steers a body's velocity towards the weighted mean of its
	// neighbours.
	Alignment = 0.7

	// Damping scales velocities every step.
	Damping = 0.97

	// DefaultPull is the initial destination pull of every body.
	DefaultPull = 0.14

	// StepsPerSecond converts body age into elapsed time.
	StepsPerSecond = 60
)

// body is the simulation state of one seed.
type body struct {
	src, dst jfa.SeedPos
	vel, acc [2]float32
	pull     float32
	age      uint32
	group    uint32
}

// Sim moves seeds from their sources to their targets with a particle
// simulation over a size x size canvas. Neighbour queries use a bucket grid
// with one bucket per seed cell.
//
// A Sim is not safe for concurrent use.
type Sim struct {
	bodies []body
	size   float32
	side   int
	cell   float32

	buckets [][]int32
	pool    *parallel.WorkerPool
}

// NewSim creates a simulation for the pairs on a size x size canvas using a
// worker pool of the given size (GOMAXPROCS when workers <= 0). Close the
// simulation to stop the pool.
func NewSim(pairs []Pair, size float32, workers int) (*Sim, error) {
	if len(pairs) == 0 || size <= 0 {
		return nil, fmt.Errorf("%w: %d pairs over canvas %g", jfa.ErrConfiguration, len(pairs), size)
	}
	side := GridSide(len(pairs))
	s := &Sim{
		bodies:  make([]body, len(pairs)),
		size:    size,
		side:    side,
		cell:    size / float32(side),
		buckets: make([][]int32, side*side),
		pool:    parallel.NewWorkerPool(workers),
	}
	for i, p := range pairs {
		s.bodies[i] = body{src: p.Source, dst: p.Target, pull: DefaultPull}
	}
	return s, nil
}

// Close stops the worker pool.
func (s *Sim) Close() { s.pool.Close() }

// Len returns the number of bodies.
func (s *Sim) Len() int { return len(s.bodies) }

// Start returns the source positions, the state of step 0.
func (s *Sim) Start() []jfa.SeedPos {
	positions := make([]jfa.SeedPos, len(s.bodies))
	for i := range s.bodies {
		positions[i] = s.bodies[i].src
	}
	return positions
}

// Target returns the target of seed id.
func (s *Sim) Target(id int) jfa.SeedPos { return s.bodies[id].dst }

// SetPull sets the destination pull of seed id. Zero selects a small
// constant pull.
func (s *Sim) SetPull(id int, pull float32) { s.bodies[id].pull = pull }

// SetGroup assigns seed id to a group. Neighbours of the same group attract
// each other.
func (s *Sim) SetGroup(id int, group uint32) { s.bodies[id].group = group }

// Switch reverses the transformation: sources and targets swap and every
// body restarts at age zero.
func (s *Sim) Switch() {
	for i := range s.bodies {
		b := &s.bodies[i]
		b.src, b.dst = b.dst, b.src
		b.age = 0
	}
}

// Settled reports whether every position lies within tol of its target.
func (s *Sim) Settled(positions []jfa.SeedPos, tol float32) bool {
	if len(positions) != len(s.bodies) {
		return false
	}
	for i := range s.bodies {
		dx := s.bodies[i].dst.X - positions[i].X
		dy := s.bodies[i].dst.Y - positions[i].Y
		if dx*dx+dy*dy > tol*tol {
			return false
		}
	}
	return true
}

// Step advances the simulation by one frame, updating positions in place.
func (s *Sim) Step(positions []jfa.SeedPos) error {
	if len(positions) != len(s.bodies) {
		return fmt.Errorf("%w: %d positions for %d bodies", jfa.ErrConfiguration, len(positions), len(s.bodies))
	}

	for i := range s.buckets {
		s.buckets[i] = s.buckets[i][:0]
	}
	for i, p := range positions {
		col, row := s.bucket(p)
		k := row*s.side + col
		s.buckets[k] = append(s.buckets[k], int32(i))
	}

	for i := range s.bodies {
		s.bodies[i].wallForce(positions[i], s.size, s.cell)
		s.bodies[i].destinationForce(positions[i], s.size)
	}

	// Each body only writes its own acceleration; velocities are read-only
	// until the integration below.
	s.pool.Dispatch1D(len(s.bodies), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s.neighbourForces(i, positions)
		}
	})

	for i := range s.bodies {
		s.bodies[i].integrate(&positions[i])
	}
	return nil
}

// bucket returns the clamped grid cell under p.
func (s *Sim) bucket(p jfa.SeedPos) (col, row int) {
	clampCell := func(v float32) int {
		c := int(math.Floor(float64(v / s.cell)))
		return min(max(c, 0), s.side-1)
	}
	return clampCell(p.X), clampCell(p.Y)
}

func (s *Sim) neighbourForces(i int, positions []jfa.SeedPos) {
	b := &s.bodies[i]
	pos := positions[i]
	col, row := s.bucket(pos)

	var avgX, avgY, count float32
	for r := row - 1; r <= row+1; r++ {
		for c := col - 1; c <= col+1; c++ {
			if r < 0 || c < 0 || r >= s.side || c >= s.side {
				continue
			}
			for _, j := range s.buckets[r*s.side+c] {
				if int(j) == i {
					continue
				}
				other := positions[j]
				w := b.repel(pos, other, s.cell, uint32(i))
				if b.group == s.bodies[j].group {
					b.acc[0] += (other.X - pos.X) * w * 0.8
					b.acc[1] += (other.Y - pos.Y) * w * 0.8
				}
				avgX += s.bodies[j].vel[0] * w
				avgY += s.bodies[j].vel[1] * w
				count += w
			}
		}
	}
	if count > 0 {
		b.acc[0] += (avgX/count - b.vel[0]) * Alignment
		b.acc[1] += (avgY/count - b.vel[1]) * Alignment
	}
}

// destinationForce pulls the body towards its target, harder as it ages.
func (b *body) destinationForce(pos jfa.SeedPos, size float32) {
	factor := float32(0.1)
	if b.pull != 0 {
		x := float32(b.age) / StepsPerSecond * b.pull
		factor = min(x*x*x, 10)
	}
	dx := b.dst.X - pos.X
	dy := b.dst.Y - pos.Y
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	b.acc[0] += dx * dist * factor / size
	b.acc[1] += dy * dist * factor / size
}

// wallForce pushes the body away from the canvas border.
func (b *body) wallForce(pos jfa.SeedPos, size, cell float32) {
	space := cell * PersonalSpace * 0.5
	push := func(v float32) float32 {
		switch {
		case v < space:
			return (space - v) / space
		case v > size-space:
			return -(v - (size - space)) / space
		}
		return 0
	}
	b.acc[0] += push(pos.X)
	b.acc[1] += push(pos.Y)
}

// repel pushes the body away from a neighbour closer than the personal
// space and returns the neighbour's weight. Coincident bodies get a
// deterministic pseudo-random nudge seeded by id.
func (b *body) repel(pos, other jfa.SeedPos, cell float32, id uint32) float32 {
	dx := other.X - pos.X
	dy := other.Y - pos.Y
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	space := cell * PersonalSpace

	if dist < math.SmallestNonzeroFloat32 {
		r1, r2 := nudge(pos, id)
		b.acc[0] += (r1 - 0.5) * 0.1
		b.acc[1] += (r2 - 0.5) * 0.1
		return 0
	}
	w := (1 / dist) * (space - dist) / space
	if dist < space {
		b.acc[0] -= dx * w
		b.acc[1] -= dy * w
	}
	return max(w, 0)
}

// nudge hashes a position and id into two values in [0, 1].
func nudge(pos jfa.SeedPos, id uint32) (float32, float32) {
	h := math.Float32bits(pos.X) ^ bits.RotateLeft32(math.Float32bits(pos.Y), 16) ^ 0x9E3779B9 ^ id*0x85EBCA6B
	h ^= h >> 15
	h *= 0x85EBCA6B
	h ^= h >> 13

	h2 := h ^ 0xC2B2AE35
	h2 ^= h2 >> 16
	h2 *= 0x27D4EB2D
	h2 ^= h2 >> 15

	return float32(h) / math.MaxUint32, float32(h2) / math.MaxUint32
}

// integrate applies the accumulated acceleration and moves the body.
func (b *body) integrate(pos *jfa.SeedPos) {
	b.vel[0] = (b.vel[0] + b.acc[0]) * Damping
	b.vel[1] = (b.vel[1] + b.acc[1]) * Damping
	b.acc = [2]float32{}
	pos.X += min(max(b.vel[0], -MaxVelocity), MaxVelocity)
	pos.Y += min(max(b.vel[1], -MaxVelocity), MaxVelocity)
	b.age++
}
