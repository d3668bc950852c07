// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package jfa

import "github.com/gogpu/jfa/internal/core"

// Errors returned by the engine. Test with errors.Is; returned errors wrap
// these sentinels with context.
var (
	// ErrConfiguration reports invalid dimensions, a seed count outside
	// [0, MaxSeeds) or mismatched position and color counts.
	ErrConfiguration = core.ErrConfiguration

	// ErrCapability reports that the requested strategy cannot run on the
	// device.
	ErrCapability = core.ErrCapability

	// ErrDeviceLost reports that the device was lost while a frame was in
	// progress. The frame is discarded and the engine rebuilds its
	// resources; the next Render proceeds normally.
	ErrDeviceLost = core.ErrDeviceLost

	// ErrPrecisionOverflow reports a seed id that cannot be represented
	// below the Unset sentinel.
	ErrPrecisionOverflow = core.ErrPrecisionOverflow

	// ErrBufferAliasing reports a pass reading and writing the same raster.
	ErrBufferAliasing = core.ErrBufferAliasing

	// ErrFrameDropped reports a Render call made while a previous frame
	// was still in flight.
	ErrFrameDropped = core.ErrFrameDropped

	// ErrClosed reports use of a closed engine.
	ErrClosed = core.ErrClosed

	// ErrNoSeeds reports a Render call before SetColors.
	ErrNoSeeds = core.ErrNoSeeds
)
