// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu registers the Vulkan executor of the direct-storage strategy.
//
// Import this package to run the clear, splat, propagation and resolve
// passes as WGSL compute shaders through wgpu/hal:
//
//	import _ "github.com/gogpu/jfa/gpu" // enable GPU acceleration
//
// If GPU initialization fails (no Vulkan adapter available), the
// registration is skipped with a warning and engines keep the CPU executor.
package gpu

import (
	"github.com/gogpu/jfa"
	gpuimpl "github.com/gogpu/jfa/internal/gpu"
)

func init() {
	if err := jfa.RegisterAccelerator(&gpuimpl.Accelerator{}); err != nil {
		jfa.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU device
// from an external provider (e.g., gogpu). This avoids creating a separate
// GPU instance.
//
// The provider should be a gpucontext.DeviceProvider that also implements
// gpucontext.HalProvider for direct HAL access.
func SetDeviceProvider(provider any) error {
	return jfa.SetAcceleratorDeviceProvider(provider)
}
