// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package jfa

import (
	"errors"
	"sync"
)

// Accelerator provides a hardware executor of the direct-storage strategy.
//
// Implementations are provided by backend packages. Users opt in via blank
// import:
//
//	import _ "github.com/gogpu/jfa/gpu"
//
// When an accelerator is registered, engines using the direct-storage
// strategy try it first and fall back to the CPU executor when Open fails.
type Accelerator interface {
	// Name returns the accelerator name (e.g., "jfa-gpu").
	Name() string

	// Init initializes device resources. Called once during registration.
	Init() error

	// Close releases device resources.
	Close()

	// Open returns a backend bound to dev. The backend checks dev for loss
	// and generation changes.
	Open(dev *Device) (Backend, error)
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a GPU device with the host application.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers the hardware accelerator.
//
// Only one accelerator can be registered. Subsequent calls replace (and
// close) the previous one. Init is called during registration; if it fails
// the accelerator is not registered and the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("jfa: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	Logger().Info("jfa: accelerator registered", "name", a.Name())
	return nil
}

// RegisteredAccelerator returns the registered accelerator, or nil.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator so it reuses the host's GPU device. It is a no-op when no
// accelerator is registered or it does not support device sharing.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
