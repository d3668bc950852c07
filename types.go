// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package jfa

import "github.com/gogpu/jfa/internal/core"

// SeedPos is a seed position in pixel space. Positions outside the raster
// are allowed; such seeds are not splatted.
type SeedPos = core.SeedPos

// SeedColor is a normalized RGBA seed color.
type SeedColor = core.SeedColor

// OwnerID is a seed id or the absence of an owner.
type OwnerID = core.OwnerID

// Strategy selects how owner rasters are stored and processed.
type Strategy = core.Strategy

// Strategies.
const (
	StrategyAuto     = core.StrategyAuto
	StrategyStorage  = core.StrategyStorage
	StrategySampling = core.StrategySampling
)

// Capabilities describes what a device supports.
type Capabilities = core.Capabilities

// Device is the device context shared by the stages of an engine.
type Device = core.Device

// Backend is an executor of one strategy. Accelerators return one from
// Open.
type Backend = core.Backend

// Reopener is implemented by backends whose device handle must be
// recreated after a device loss.
type Reopener = core.Reopener

// Raster constants.
const (
	// Unset marks an owner raster cell without an owner.
	Unset = core.Unset

	// MaxSeeds is the exclusive upper bound of the seed count.
	MaxSeeds = core.MaxSeeds

	// SeedGridWidth is the number of columns of the seed grid.
	SeedGridWidth = core.SeedGridWidth
)

// NoOwner is the OwnerID of a pixel that no seed reached.
var NoOwner = core.NoOwner

// Owner returns the OwnerID of seed id.
func Owner(id uint32) OwnerID { return core.Owner(id) }

// SoftwareCapabilities returns the capabilities of the CPU device, which
// supports both strategies.
func SoftwareCapabilities() Capabilities { return core.SoftwareCapabilities() }

// StepSequence returns the propagation steps for a w x h raster: the
// largest power of two not above max(w, h), halving down to 1.
func StepSequence(w, h int) []uint32 { return core.StepSequence(w, h) }
