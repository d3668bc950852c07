// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import "errors"

// Engine and backend errors. Callers test them with errors.Is; the engine
// wraps them with the failing stage or parameter.
var (
	// ErrConfiguration reports invalid dimensions or an invalid seed count.
	ErrConfiguration = errors.New("jfa: invalid configuration")

	// ErrCapability reports that the device lacks a feature required by the
	// selected execution strategy.
	ErrCapability = errors.New("jfa: required device capability unavailable")

	// ErrDeviceLost reports that the device was lost while a frame was in
	// flight. The frame is discarded and device resources must be rebuilt.
	ErrDeviceLost = errors.New("jfa: device lost")

	// ErrPrecisionOverflow reports a seed id that cannot be represented
	// below the unset sentinel.
	ErrPrecisionOverflow = errors.New("jfa: seed id precision overflow")

	// ErrBufferAliasing reports an attempt to read and write the same owner
	// raster within one propagation step.
	ErrBufferAliasing = errors.New("jfa: propagation source and destination alias")

	// ErrFrameDropped reports a frame request made while the previous frame
	// was still in flight.
	ErrFrameDropped = errors.New("jfa: frame dropped, previous frame in flight")

	// ErrClosed reports use of a released engine or backend.
	ErrClosed = errors.New("jfa: closed")

	// ErrNoSeeds reports a render request before seed colors were set.
	ErrNoSeeds = errors.New("jfa: seed colors not set")

	// ErrForeignSurface reports a surface that was not allocated by the
	// backend it is passed to.
	ErrForeignSurface = errors.New("jfa: surface belongs to another backend")
)
