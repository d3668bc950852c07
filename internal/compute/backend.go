// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/jfa/internal/core"
	"github.com/gogpu/jfa/internal/kernel"
	"github.com/gogpu/jfa/internal/parallel"
)

// Name identifies this executor.
const Name = "compute-cpu"

// storageSurface is a u32 owner raster.
type storageSurface struct {
	label  string
	w, h   int
	texels []uint32
	owner  *Backend
	gen    uint64
}

func (s *storageSurface) Label() string    { return s.label }
func (s *storageSurface) Size() (w, h int) { return s.w, s.h }

// Backend executes the direct-storage strategy on the CPU.
type Backend struct {
	dev  *core.Device
	w, h int
	a, b *storageSurface
	out  []byte
}

// New opens the executor on dev. It fails with ErrCapability when dev does
// not support compute dispatch with storage rasters.
func New(dev *core.Device) (*Backend, error) {
	if !dev.Capabilities().SupportsStorage() {
		return nil, fmt.Errorf("%w: %s needs compute and storage images", core.ErrCapability, Name)
	}
	return &Backend{dev: dev}, nil
}

var _ core.BackendFactory = Open

// Open is the core.BackendFactory of this executor.
func Open(dev *core.Device) (core.Backend, error) {
	b, err := New(dev)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Name implements core.Backend.
func (b *Backend) Name() string { return Name }

// Strategy implements core.Backend.
func (b *Backend) Strategy() core.Strategy { return core.StrategyStorage }

// Allocate implements core.Backend.
func (b *Backend) Allocate(w, h int) (core.Surface, core.Surface, error) {
	if err := core.ValidateDimensions(w, h); err != nil {
		return nil, nil, err
	}
	if err := b.dev.Err(); err != nil {
		return nil, nil, err
	}
	b.Release()

	gen := b.dev.Generation()
	b.w, b.h = w, h
	b.a = &storageSurface{label: "owners_a", w: w, h: h, texels: make([]uint32, w*h), owner: b, gen: gen}
	b.b = &storageSurface{label: "owners_b", w: w, h: h, texels: make([]uint32, w*h), owner: b, gen: gen}
	b.out = make([]byte, w*h*4)
	core.Logger().Debug("compute: rasters allocated", "width", w, "height", h)
	return b.a, b.b, nil
}

// Begin implements core.Backend.
func (b *Backend) Begin(store *core.SeedStore) (core.Recorder, error) {
	if b.a == nil {
		return nil, fmt.Errorf("%s: %w: rasters not allocated", Name, core.ErrClosed)
	}
	if err := b.dev.Err(); err != nil {
		return nil, err
	}
	return &recorder{b: b, store: store}, nil
}

// Release implements core.Backend.
func (b *Backend) Release() {
	b.a, b.b, b.out = nil, nil, nil
}

// surface resolves s to a raster of this backend and generation.
func (b *Backend) surface(s core.Surface) (*storageSurface, error) {
	ss, ok := s.(*storageSurface)
	if !ok || ss.owner != b {
		return nil, fmt.Errorf("%w: %s", core.ErrForeignSurface, s.Label())
	}
	if ss.gen != b.dev.Generation() || (ss != b.a && ss != b.b) {
		return nil, fmt.Errorf("%w: stale surface %s", core.ErrDeviceLost, ss.label)
	}
	return ss, nil
}

// recorder runs each pass eagerly; the dispatch barrier orders passes.
type recorder struct {
	b        *Backend
	store    *core.SeedStore
	resolved *storageSurface
	failed   bool
}

func (r *recorder) check() error {
	if r.failed {
		return fmt.Errorf("%s: %w: recorder failed", Name, core.ErrClosed)
	}
	if err := r.b.dev.Err(); err != nil {
		r.failed = true
		return err
	}
	return nil
}

func (r *recorder) target(s core.Surface) (*storageSurface, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	ss, err := r.b.surface(s)
	if err != nil {
		r.failed = true
	}
	return ss, err
}

func (r *recorder) pool() *parallel.WorkerPool { return r.b.dev.Pool() }

// Clear implements core.Recorder.
func (r *recorder) Clear(dst core.Surface) error {
	d, err := r.target(dst)
	if err != nil {
		return err
	}
	w := d.w
	r.pool().Dispatch2D(d.w, d.h, func(g parallel.Group) {
		for y := g.Y0; y < g.Y1; y++ {
			kernel.Clear(d.texels[y*w+g.X0 : y*w+g.X1])
		}
	})
	return nil
}

// Splat implements core.Recorder.
func (r *recorder) Splat(dst core.Surface, p core.CommonParams) error {
	d, err := r.target(dst)
	if err != nil {
		return err
	}
	n := min(int(p.NSeeds), r.store.Len())
	w, h := int(p.Width), int(p.Height)
	positions := r.store.Positions()
	r.pool().Dispatch1D(n, func(lo, hi int) {
		for id := lo; id < hi; id++ {
			x, y, ok := kernel.SplatCell(positions[id], w, h)
			if !ok {
				continue
			}
			atomicMin(&d.texels[y*w+x], uint32(id))
		}
	})
	core.Logger().Debug("compute: splat", "seeds", n, "groups", parallel.GroupCount(n, parallel.GroupSize1D))
	return nil
}

// Propagate implements core.Recorder.
func (r *recorder) Propagate(src, dst core.Surface, p core.PropagationParams) error {
	if err := core.CheckDistinct(src, dst); err != nil {
		r.failed = true
		return err
	}
	s, err := r.target(src)
	if err != nil {
		return err
	}
	d, err := r.target(dst)
	if err != nil {
		return err
	}
	w, h, step := int(p.Width), int(p.Height), int(p.Step)
	n := uint32(r.store.Len())
	positions := r.store.Positions()
	read := func(x, y int) uint32 { return s.texels[y*w+x] }
	pos := func(id uint32) core.SeedPos { return positions[id] }
	r.pool().Dispatch2D(w, h, func(g parallel.Group) {
		for y := g.Y0; y < g.Y1; y++ {
			for x := g.X0; x < g.X1; x++ {
				d.texels[y*w+x] = kernel.PropagatePixel(x, y, w, h, step, n, read, pos)
			}
		}
	})
	core.Logger().Debug("compute: propagate", "step", step)
	return nil
}

// Resolve implements core.Recorder.
func (r *recorder) Resolve(src core.Surface, p core.CommonParams) error {
	s, err := r.target(src)
	if err != nil {
		return err
	}
	w := int(p.Width)
	colors := r.store.Colors()[:min(int(p.NSeeds), r.store.Len())]
	out := r.b.out
	r.pool().Dispatch2D(w, int(p.Height), func(g parallel.Group) {
		for y := g.Y0; y < g.Y1; y++ {
			for x := g.X0; x < g.X1; x++ {
				i := y*w + x
				c := kernel.ResolvePixel(s.texels[i], colors)
				copy(out[i*4:i*4+4], c[:])
			}
		}
	})
	r.resolved = s
	return nil
}

// Finish implements core.Recorder.
func (r *recorder) Finish(out *core.Output) error {
	if err := r.check(); err != nil {
		return err
	}
	if r.resolved == nil {
		r.failed = true
		return fmt.Errorf("%s: %w: finish without resolve", Name, core.ErrConfiguration)
	}
	out.Pixels = append(out.Pixels[:0], r.b.out...)
	if out.Owners != nil {
		out.Owners = append(out.Owners[:0], r.resolved.texels...)
	}
	r.failed = true
	return nil
}

// Discard implements core.Recorder.
func (r *recorder) Discard() {
	r.failed = true
	r.resolved = nil
}

// atomicMin lowers *addr to v if v is smaller.
func atomicMin(addr *uint32, v uint32) {
	for {
		old := atomic.LoadUint32(addr)
		if v >= old || atomic.CompareAndSwapUint32(addr, old, v) {
			return
		}
	}
}
