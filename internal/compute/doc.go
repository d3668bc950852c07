// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compute is the CPU executor of the direct-storage strategy.
//
// Owner rasters are plain u32 texel arrays. Full-raster passes are 2D
// dispatches of 8x8 workgroups over the device worker pool; the splat is a
// 1D dispatch of 256-seed blocks resolving collisions with an atomic
// minimum. Each pass returns only after every workgroup finished, which is
// the barrier between passes.
package compute
