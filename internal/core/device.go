// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/jfa/internal/parallel"
)

// Capabilities describes what a device can do for the two execution
// strategies.
type Capabilities struct {
	// Compute reports support for compute dispatch.
	Compute bool

	// StorageImages reports support for read-write u32 storage rasters.
	// The direct-storage strategy needs both Compute and StorageImages.
	StorageImages bool

	// MaxTextureDimension bounds the raster and seed grid sizes of the
	// sampling strategy. Zero means unbounded.
	MaxTextureDimension uint32
}

// SoftwareCapabilities returns the capabilities of the CPU device, which
// supports both strategies.
func SoftwareCapabilities() Capabilities {
	return Capabilities{Compute: true, StorageImages: true, MaxTextureDimension: 16384}
}

// SupportsStorage reports whether the direct-storage strategy can run.
func (c Capabilities) SupportsStorage() bool { return c.Compute && c.StorageImages }

// SupportsSampling reports whether the sampling strategy can run for a
// w x h raster with n seeds.
func (c Capabilities) SupportsSampling(w, h, n int) bool {
	if c.MaxTextureDimension == 0 {
		return true
	}
	limit := int(c.MaxTextureDimension)
	if w > limit || h > limit {
		return false
	}
	return n == 0 || (GridRows(n) <= limit && SeedGridWidth <= limit)
}

// Device is the explicit device context passed to every stage. It owns the
// worker pool of the CPU executors and, optionally, a host GPU provider.
//
// A Device can be marked lost; every backend checks Err before and after
// recording work. Reacquire clears the loss and bumps the generation so
// stale resources can be detected.
type Device struct {
	caps     Capabilities
	pool     *parallel.WorkerPool
	provider gpucontext.DeviceProvider

	mu         sync.Mutex
	lost       string
	generation uint64
	closed     bool
}

// NewDevice creates a device with the given capabilities and a worker pool
// of the given size (GOMAXPROCS when workers <= 0). provider may be nil.
func NewDevice(caps Capabilities, workers int, provider gpucontext.DeviceProvider) *Device {
	return &Device{
		caps:     caps,
		pool:     parallel.NewWorkerPool(workers),
		provider: provider,
	}
}

// Capabilities returns the device capabilities.
func (d *Device) Capabilities() Capabilities { return d.caps }

// Pool returns the worker pool used by CPU executors.
func (d *Device) Pool() *parallel.WorkerPool { return d.pool }

// Provider returns the host GPU provider, or nil.
func (d *Device) Provider() gpucontext.DeviceProvider { return d.provider }

// Lose marks the device as lost. Subsequent Err calls report ErrDeviceLost
// until Reacquire.
func (d *Device) Lose(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost == "" {
		d.lost = reason
		Logger().Warn("jfa: device lost", "reason", reason)
	}
}

// Err returns nil while the device is usable.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.closed:
		return ErrClosed
	case d.lost != "":
		return fmt.Errorf("%w: %s", ErrDeviceLost, d.lost)
	}
	return nil
}

// Reacquire clears a loss and starts a new resource generation.
func (d *Device) Reacquire() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.lost = ""
	d.generation++
	Logger().Info("jfa: device reacquired", "generation", d.generation)
	return nil
}

// Generation returns the current resource generation.
func (d *Device) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

// Close stops the worker pool. Close is safe to call multiple times.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.pool.Close()
}
