// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package core holds the data model shared by the jfa engine and its
// execution backends.
//
// It defines the seed layout ([SeedStore]), the per-pass parameter blocks,
// the explicitly owned device context ([Device]), the owner-id surface
// ping-pong arena ([PingPong]) and the [Backend] / [Recorder] interfaces
// implemented once per execution strategy.
//
// # Frame pipeline
//
// Every frame runs the same fixed pass sequence:
//
//	Clear(A), Clear(B)
//	Splat(A)                      skipped when there are no seeds
//	Propagate(A->B, step) ...     one pass per step, buffers swapped between
//	Resolve(final)
//	Finish                        barrier + readback
//
// The public API lives in the root jfa package, which re-exports the types
// of this package that callers need.
package core
