// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package jfa

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/jfa/internal/compute"
	"github.com/gogpu/jfa/internal/core"
	"github.com/gogpu/jfa/internal/sampling"
)

// Engine orchestrates the per-frame pipeline: it owns the device context,
// the backend of the selected strategy and the ping-pong owner rasters.
//
// An Engine is driven by a single host goroutine. Render calls that overlap
// an in-flight frame are dropped with ErrFrameDropped.
type Engine struct {
	opts options

	inFlight atomic.Bool

	mu       sync.Mutex
	dev      *core.Device
	backend  core.Backend
	width    int
	height   int
	steps    []uint32
	a, b     core.Surface
	store    *core.SeedStore
	seq      uint64
	rebuilds int
	closed   bool
}

// New creates an engine for a w x h raster. The strategy is selected here
// from the device capabilities and the options, and does not change for
// the lifetime of the engine.
func New(w, h int, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := core.ValidateDimensions(w, h); err != nil {
		return nil, err
	}
	switch o.strategy {
	case StrategyAuto, StrategyStorage, StrategySampling:
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrConfiguration, int(o.strategy))
	}

	caps := core.SoftwareCapabilities()
	if o.caps != nil {
		caps = *o.caps
	}
	dev := core.NewDevice(caps, o.workers, o.provider)

	e := &Engine{opts: o, dev: dev, width: w, height: h}
	if err := e.selectBackend(); err != nil {
		dev.Close()
		return nil, err
	}
	Logger().Info("jfa: engine ready",
		"strategy", e.backend.Strategy(), "backend", e.backend.Name(),
		"width", w, "height", h, "steps", len(e.steps))
	return e, nil
}

// accelerator returns the accelerator the engine may use, or nil.
func (o *options) accelerator() Accelerator {
	if o.softwareOnly {
		return nil
	}
	if o.accel != nil {
		return o.accel
	}
	return RegisteredAccelerator()
}

// selectBackend opens and allocates the preferred strategy, then the other
// one when fallback is enabled.
func (e *Engine) selectBackend() error {
	caps := e.dev.Capabilities()
	preferred := e.opts.strategy
	if preferred == StrategyAuto {
		preferred = StrategyStorage
		if !caps.SupportsStorage() {
			preferred = StrategySampling
		}
	}
	candidates := []Strategy{preferred}
	if e.opts.fallback {
		candidates = append(candidates, otherStrategy(preferred))
	}

	var errs []error
	for i, s := range candidates {
		b, err := e.openStrategy(s)
		if err == nil {
			var a, bb core.Surface
			a, bb, err = b.Allocate(e.width, e.height)
			if err == nil {
				e.backend, e.a, e.b = b, a, bb
				e.steps = core.StepSequence(e.width, e.height)
				return nil
			}
			b.Release()
		}
		errs = append(errs, fmt.Errorf("%s: %w", s, err))
		if i+1 < len(candidates) && errors.Is(err, ErrCapability) {
			Logger().Warn("jfa: strategy unavailable, falling back",
				"strategy", s, "fallback", candidates[i+1], "err", err)
			continue
		}
		break
	}
	return errors.Join(errs...)
}

func otherStrategy(s Strategy) Strategy {
	if s == StrategySampling {
		return StrategyStorage
	}
	return StrategySampling
}

// openStrategy opens the executor of strategy s. Direct storage prefers the
// accelerator and falls back to the CPU executor.
func (e *Engine) openStrategy(s Strategy) (core.Backend, error) {
	switch s {
	case StrategyStorage:
		if !e.dev.Capabilities().SupportsStorage() {
			return nil, fmt.Errorf("%w: device lacks compute storage rasters", ErrCapability)
		}
		if a := e.opts.accelerator(); a != nil {
			b, err := a.Open(e.dev)
			if err == nil {
				return b, nil
			}
			Logger().Warn("jfa: accelerator unavailable, using CPU executor",
				"accelerator", a.Name(), "err", err)
		}
		return compute.Open(e.dev)
	case StrategySampling:
		return sampling.Open(e.dev)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d", ErrConfiguration, int(s))
	}
}

// SetColors replaces the seed set. The number of colors fixes N, the
// number of positions every following Render must supply.
func (e *Engine) SetColors(colors []SeedColor) error {
	store, err := core.NewSeedStore(colors)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.backend.Strategy() == StrategySampling &&
		!e.dev.Capabilities().SupportsSampling(e.width, e.height, store.Len()) {
		return fmt.Errorf("%w: %d seeds exceed the texture limit", ErrCapability, store.Len())
	}
	e.store = store
	return nil
}

// Render runs one complete frame for the given seed positions and returns
// the resolved raster. positions must hold one entry per color.
//
// If the device is lost during the frame, the frame is discarded, the
// engine rebuilds its device resources and Render returns an error wrapping
// ErrDeviceLost; the next call proceeds normally.
func (e *Engine) Render(ctx context.Context, positions []SeedPos) (*Frame, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		Logger().Debug("jfa: frame dropped")
		return nil, ErrFrameDropped
	}
	defer e.inFlight.Store(false)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if e.store == nil {
		return nil, ErrNoSeeds
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.a == nil {
		// A previous rebuild failed to allocate.
		if err := e.rebuildLocked(); err != nil {
			return nil, err
		}
	}
	if err := e.store.SetPositions(positions); err != nil {
		return nil, err
	}

	frame, err := e.renderLocked(ctx)
	if err != nil {
		if errors.Is(err, ErrDeviceLost) {
			if rerr := e.rebuildLocked(); rerr != nil {
				return nil, errors.Join(err, rerr)
			}
		}
		return nil, err
	}
	return frame, nil
}

// renderLocked records and executes the passes of one frame.
func (e *Engine) renderLocked(ctx context.Context) (*Frame, error) {
	w, h := e.width, e.height
	rec, err := e.backend.Begin(e.store)
	if err != nil {
		return nil, err
	}
	pp, err := core.NewPingPong(e.a, e.b)
	if err != nil {
		rec.Discard()
		return nil, err
	}

	n := uint32(e.store.Len())
	common := core.CommonParams{Width: uint32(w), Height: uint32(h), NSeeds: n}
	out := core.Output{Pixels: make([]byte, 0, w*h*4)}
	if e.opts.readback {
		out.Owners = make([]uint32, 0, w*h)
	}

	fail := func(err error) (*Frame, error) {
		rec.Discard()
		return nil, err
	}
	if err := rec.Clear(e.a); err != nil {
		return fail(err)
	}
	if err := rec.Clear(e.b); err != nil {
		return fail(err)
	}
	if n > 0 {
		if err := rec.Splat(pp.Read(), common); err != nil {
			return fail(err)
		}
		for _, s := range e.steps {
			if err := ctx.Err(); err != nil {
				return fail(err)
			}
			p := core.PropagationParams{Width: uint32(w), Height: uint32(h), Step: s}
			if err := rec.Propagate(pp.Read(), pp.Write(), p); err != nil {
				return fail(err)
			}
			pp.Swap()
		}
	}
	if err := rec.Resolve(pp.Read(), common); err != nil {
		return fail(err)
	}
	if err := rec.Finish(&out); err != nil {
		return fail(err)
	}

	e.seq++
	Logger().Debug("jfa: frame rendered", "seq", e.seq, "seeds", n, "passes", len(e.steps))
	return &Frame{
		Width:    w,
		Height:   h,
		Pix:      out.Pixels,
		Strategy: e.backend.Strategy(),
		Seq:      e.seq,
		owners:   out.Owners,
	}, nil
}

// Resize recreates the owner and output rasters for a w x h raster.
func (e *Engine) Resize(w, h int) error {
	if err := core.ValidateDimensions(w, h); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if w == e.width && h == e.height {
		return nil
	}
	if e.backend.Strategy() == StrategySampling {
		n := 0
		if e.store != nil {
			n = e.store.Len()
		}
		if !e.dev.Capabilities().SupportsSampling(w, h, n) {
			return fmt.Errorf("%w: %dx%d exceeds the texture limit", ErrCapability, w, h)
		}
	}
	a, b, err := e.backend.Allocate(w, h)
	if err != nil {
		return err
	}
	e.a, e.b = a, b
	e.width, e.height = w, h
	e.steps = core.StepSequence(w, h)
	Logger().Info("jfa: resized", "width", w, "height", h, "steps", len(e.steps))
	return nil
}

// Rebuild releases and re-acquires every device resource. Render calls it
// after a device loss; hosts may call it after recreating their device.
func (e *Engine) Rebuild() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.rebuildLocked()
}

func (e *Engine) rebuildLocked() error {
	e.backend.Release()
	e.a, e.b = nil, nil
	if err := e.dev.Reacquire(); err != nil {
		return err
	}
	if r, ok := e.backend.(core.Reopener); ok {
		if err := r.Reopen(); err != nil {
			if err := e.replaceExecutorLocked(err); err != nil {
				return fmt.Errorf("jfa: rebuild: %w", err)
			}
		}
	}
	a, b, err := e.backend.Allocate(e.width, e.height)
	if err != nil {
		return fmt.Errorf("jfa: rebuild: %w", err)
	}
	e.a, e.b = a, b
	e.rebuilds++
	Logger().Info("jfa: device resources rebuilt", "generation", e.dev.Generation())
	return nil
}

// replaceExecutorLocked swaps a backend whose device could not be reopened
// for the CPU executor of the same strategy.
func (e *Engine) replaceExecutorLocked(cause error) error {
	if e.backend.Strategy() != StrategyStorage {
		return cause
	}
	cpu, err := compute.Open(e.dev)
	if err != nil {
		return errors.Join(cause, err)
	}
	Logger().Warn("jfa: device could not be reopened, using CPU executor",
		"backend", e.backend.Name(), "err", cause)
	e.backend = cpu
	return nil
}

// Close releases every resource. Close is safe to call multiple times.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.backend.Release()
	e.dev.Close()
}

// Size returns the raster dimensions.
func (e *Engine) Size() (w, h int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}

// Strategy returns the strategy selected in New.
func (e *Engine) Strategy() Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend.Strategy()
}

// BackendName returns the name of the executor, e.g. "compute-cpu".
func (e *Engine) BackendName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend.Name()
}

// Seeds returns the number of seeds set by SetColors.
func (e *Engine) Seeds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return 0
	}
	return e.store.Len()
}

// Steps returns a copy of the propagation step sequence.
func (e *Engine) Steps() []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint32(nil), e.steps...)
}

// Rebuilds returns how many times device resources were rebuilt.
func (e *Engine) Rebuilds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuilds
}

// Device returns the device context of the engine.
func (e *Engine) Device() *Device { return e.dev }
