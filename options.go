// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package jfa

import "github.com/gogpu/gpucontext"

// Option configures an Engine during creation.
//
// Example:
//
//	// Default: direct storage when available, CPU fallback.
//	e, _ := jfa.New(800, 600)
//
//	// Force the sampling strategy and fail instead of falling back.
//	e, _ := jfa.New(800, 600, jfa.WithStrategy(jfa.StrategySampling), jfa.WithFallback(false))
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	strategy     Strategy
	fallback     bool
	workers      int
	caps         *Capabilities
	provider     gpucontext.DeviceProvider
	readback     bool
	accel        Accelerator
	softwareOnly bool
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		strategy: StrategyAuto,
		fallback: true,
	}
}

// WithStrategy requests a strategy. StrategyAuto (the default) picks direct
// storage when the device supports it and sampling otherwise.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithFallback controls whether New falls back to the other strategy when
// the requested one is not supported. Enabled by default; when disabled New
// fails with ErrCapability.
func WithFallback(enabled bool) Option {
	return func(o *options) {
		o.fallback = enabled
	}
}

// WithWorkers sets the size of the worker pool of the CPU executors.
// Values <= 0 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCapabilities overrides the device capabilities. Useful to exercise
// the sampling strategy or capability errors on the CPU device.
func WithCapabilities(c Capabilities) Option {
	return func(o *options) {
		o.caps = &c
	}
}

// WithDeviceProvider attaches the host's GPU device to the engine's device
// context. The hardware accelerator borrows it when it opens the
// direct-storage executor; a borrowed device is never recreated after a
// device loss, so the engine then continues on the CPU executor.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithOwnerReadback copies the final owner raster into every Frame so
// Frame.Owner reports per-pixel seed ids.
func WithOwnerReadback(enabled bool) Option {
	return func(o *options) {
		o.readback = enabled
	}
}

// WithAccelerator uses a (already initialized) accelerator instead of the
// registered one.
func WithAccelerator(a Accelerator) Option {
	return func(o *options) {
		o.accel = a
	}
}

// WithSoftwareOnly ignores accelerators and always runs the CPU executors.
func WithSoftwareOnly() Option {
	return func(o *options) {
		o.softwareOnly = true
	}
}
