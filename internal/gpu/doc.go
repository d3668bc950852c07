// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu runs the direct-storage strategy on a GPU through the Pure Go
// gogpu/wgpu HAL (zero CGO; Vulkan, Metal and DX12 backends).
//
// Every stage is a WGSL compute shader compiled to SPIR-V with gogpu/naga:
//
//	clear    8x8 workgroups, writes Unset to every owner cell
//	splat    256-wide workgroups, atomicMin of the seed id at its cell
//	jfa      8x8 workgroups, one propagation pass per step
//	resolve  8x8 workgroups, owner color packed as RGBA8
//
// Owner rasters are u32 storage buffers allocated once per size and
// ping-ponged between passes. A frame records every pass into one command
// buffer, submits it and waits on a fence before reading the output back.
//
// # Usage
//
// The package is not used directly. Importing github.com/gogpu/jfa/gpu
// registers an Accelerator with the engine:
//
//	import _ "github.com/gogpu/jfa/gpu"
//
// When no adapter is available the accelerator reports ErrNotReady from
// Open and the engine falls back to the CPU executor.
//
// # Device Loss
//
// A failed submit or fence wait marks the device context lost. The engine
// then releases every buffer, reopens the executor on a new standalone
// device and allocates again. A device borrowed from the host cannot be
// reopened; the engine continues on the CPU executor instead.
package gpu
