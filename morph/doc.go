// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package morph drives a jfa.Engine through a transformation between two
// seed arrangements.
//
// A transformation is a list of Pairs, one per seed, carrying the source and
// target positions and the seed color. Its colors are handed to the engine
// once with SetColors; each frame the package produces the seed positions:
//
//   - Lerp interpolates every seed along a smoothstep curve in time.
//   - Sim moves seeds with a small particle simulation: attraction to the
//     target growing with age, repulsion from neighbours closer than their
//     personal space, walls at the canvas border and velocity damping.
//
// The package performs no correspondence computation; pairs come from the
// caller (for example from GridPairs and an assignment).
package morph
