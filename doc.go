// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package jfa resolves, for every pixel of a raster, the closest of a set of
// moving seeds and paints the pixel with that seed's color. Ownership is
// computed with the Jump Flood Algorithm as a sequence of bulk data-parallel
// passes.
//
// # Overview
//
// An Engine renders one frame at a time:
//
//	clear -> splat -> propagate (step = 2^k, ..., 2, 1) -> resolve
//
// Clear resets both owner rasters of a ping-pong pair. Splat writes each
// seed id into the pixel under its rounded position. Propagation runs one
// pass per step, each pixel adopting the closest owner among its own and
// eight neighbours at distance step. Resolve maps owners to RGBA8 colors.
// The result reproduces the JFA approximation exactly, including its
// behaviour near ties.
//
// # Quick Start
//
//	e, err := jfa.New(640, 480)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	if err := e.SetColors(colors); err != nil {
//	    log.Fatal(err)
//	}
//	frame, err := e.Render(ctx, positions)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame.SavePNG("frame.png")
//
// # Strategies
//
// Two interchangeable strategies produce identical frames:
//   - StrategyStorage keeps owner ids as raw u32 texels processed by 2D
//     compute dispatch over 8x8 tiles. It runs on a CPU worker pool, or on
//     the GPU when the package github.com/gogpu/jfa/gpu is imported.
//   - StrategySampling encodes owner ids into RGBA8 textures read through a
//     nearest sampler, with full-screen triangle draws and a depth-tested
//     point draw for the splat.
//
// The strategy is chosen once in New from the device capabilities and
// never changes during a run.
//
// # GPU Acceleration
//
//	import _ "github.com/gogpu/jfa/gpu" // enable the Vulkan executor
//
// When no GPU is available the CPU executor is used transparently.
//
// # Logging
//
// The package is silent by default. Call SetLogger to enable structured
// logging through log/slog.
package jfa
