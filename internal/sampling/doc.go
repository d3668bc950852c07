// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sampling is the executor of the sampling strategy, for devices
// without random-access integer storage.
//
// Owner ids live in RGBA8 unorm textures, one id byte per channel with the
// low byte in red. Passes are draws: a full-screen triangle for clear,
// propagate and resolve, and a point list with a depth test for the splat.
// Fragment stages read owners only through a [Sampler] with nearest
// filtering and clamp-to-edge addressing, and decode each channel with
// round(v*255). Seed positions and colors are float textures read with
// texel fetches at the seed's grid cell.
//
// Draws are rasterized in software on the device worker pool.
package sampling
