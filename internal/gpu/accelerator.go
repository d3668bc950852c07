// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/jfa/internal/core"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNotReady is returned by Open when no GPU device could be acquired.
var ErrNotReady = errors.New("jfa-gpu: GPU device not initialized")

// Accelerator owns the hal device used by the hardware executor of the
// direct-storage strategy. The device is either created on a Vulkan
// adapter by Init or borrowed from a host through SetDeviceProvider.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

// Name returns the accelerator identifier.
func (a *Accelerator) Name() string { return "jfa-gpu" }

// Init creates a standalone Vulkan device. It fails when no Vulkan adapter
// is available; callers then keep the CPU executors.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gpuReady {
		return nil
	}
	if err := a.initGPU(); err != nil {
		a.closeLocked()
		return fmt.Errorf("jfa-gpu: %w", err)
	}
	return nil
}

// Close releases the device unless it is shared.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeLocked()
}

func (a *Accelerator) closeLocked() {
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetLogger sets the logger of the hardware executor. Called by
// jfa.SetLogger to propagate the logger.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetDeviceProvider switches to a device shared by the host. The provider
// must implement HalDevice() any and HalQueue() any returning hal.Device
// and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shareLocked(device, queue)
	return nil
}

// halFromProvider extracts the HAL device and queue of a host provider.
func halFromProvider(provider any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("jfa-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("jfa-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("jfa-gpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}

func (a *Accelerator) shareLocked(device hal.Device, queue hal.Queue) {
	a.closeLocked()
	a.device = device
	a.queue = queue
	a.adapter = "shared"
	a.externalDevice = true
	a.gpuReady = true
	slogger().Info("jfa-gpu: switched to shared GPU device")
}

// Ready reports whether a device is available.
func (a *Accelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Open returns a direct-storage backend running on the accelerator's
// device. dev provides loss tracking and generations. When dev carries a
// host provider and the accelerator does not share a device yet, the
// host device is borrowed.
func (a *Accelerator) Open(dev *core.Device) (core.Backend, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p := dev.Provider(); p != nil && !a.externalDevice {
		device, queue, err := halFromProvider(p)
		if err != nil {
			slogger().Warn("jfa-gpu: host provider unusable", "err", err)
		} else {
			a.shareLocked(device, queue)
		}
	}
	if !a.gpuReady {
		return nil, fmt.Errorf("%w: %w", core.ErrCapability, ErrNotReady)
	}
	slogger().Info("jfa-gpu: executor opened", "adapter", a.adapter, "shared", a.externalDevice)
	return newExecutor(dev, a, a.device, a.queue), nil
}

// reopen replaces the lost device stale with a new standalone device. If
// another executor already replaced it, the current device is returned.
// A shared device belongs to the host and is never recreated.
func (a *Accelerator) reopen(stale hal.Device) (hal.Device, hal.Queue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gpuReady && a.device != stale {
		return a.device, a.queue, nil
	}
	if a.externalDevice {
		return nil, nil, fmt.Errorf("%w: jfa-gpu: shared device lost", core.ErrCapability)
	}
	a.closeLocked()
	if err := a.initGPU(); err != nil {
		a.closeLocked()
		return nil, nil, fmt.Errorf("%w: jfa-gpu: reopen: %w", core.ErrCapability, err)
	}
	slogger().Info("jfa-gpu: device reopened", "adapter", a.adapter)
	return a.device, a.queue, nil
}

// initGPU creates a standalone Vulkan device for compute-only use.
func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	a.adapter = selected.Info.Name
	a.gpuReady = true
	slogger().Info("jfa-gpu: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return nil
}
