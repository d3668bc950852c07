// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package kernel implements the per-cell logic of the jump flood passes.
//
// Every executor calls the same functions for the same cell, so the CPU
// executors, the sampling executor and the sequential [Reference] produce
// bit-identical owner rasters. The WGSL shaders of the hardware executor
// mirror these functions line by line.
package kernel
