// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import "fmt"

// PingPong is the pair of owner rasters read and written alternately by
// the propagation passes. Read and Write never return the same surface.
type PingPong struct {
	bufs [2]Surface
	read int
}

// NewPingPong pairs a and b. It fails if they alias or differ in size.
func NewPingPong(a, b Surface) (*PingPong, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrConfiguration)
	}
	if a == b {
		return nil, fmt.Errorf("%w: %s", ErrBufferAliasing, a.Label())
	}
	aw, ah := a.Size()
	bw, bh := b.Size()
	if aw != bw || ah != bh {
		return nil, fmt.Errorf("%w: surfaces %dx%d and %dx%d differ", ErrConfiguration, aw, ah, bw, bh)
	}
	return &PingPong{bufs: [2]Surface{a, b}}, nil
}

// Read returns the surface the next pass reads.
func (p *PingPong) Read() Surface { return p.bufs[p.read] }

// Write returns the surface the next pass writes.
func (p *PingPong) Write() Surface { return p.bufs[1-p.read] }

// Swap exchanges the roles of the two surfaces.
func (p *PingPong) Swap() { p.read = 1 - p.read }

// Reset makes the first surface the read side again.
func (p *PingPong) Reset() { p.read = 0 }

// CheckDistinct returns ErrBufferAliasing if src and dst are the same
// surface.
func CheckDistinct(src, dst Surface) error {
	if src == dst {
		return fmt.Errorf("%w: %s", ErrBufferAliasing, src.Label())
	}
	return nil
}
