// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"fmt"
	"strconv"
)

const (
	// Unset is the raw owner value of a raster cell that no seed has reached.
	Unset uint32 = 0xFFFFFFFF

	// MaxSeeds is the exclusive upper bound of the seed count. Every valid
	// id is strictly below the Unset sentinel.
	MaxSeeds uint32 = 0xFFFFFFFE

	// SeedGridWidth is the number of columns of the seed layout grid.
	SeedGridWidth = 1024
)

// SeedPos is a seed position in pixel space. Fractional and out-of-raster
// values are allowed.
type SeedPos struct {
	X, Y float32
}

// SeedColor is a normalized RGBA seed color.
type SeedColor struct {
	R, G, B, A float32
}

// OwnerID is the host-side view of a raster cell owner: either a seed id or
// nothing. The raw sentinel never leaves the data path.
type OwnerID struct {
	id  uint32
	set bool
}

// NoOwner is the OwnerID of an unreached cell.
var NoOwner = OwnerID{}

// Owner returns the OwnerID for a valid seed id.
func Owner(id uint32) OwnerID { return OwnerID{id: id, set: true} }

// OwnerFromRaw converts a raw raster value into an OwnerID. Unset and any
// value outside the valid id range map to NoOwner.
func OwnerFromRaw(raw uint32) OwnerID {
	if raw >= MaxSeeds {
		return NoOwner
	}
	return OwnerID{id: raw, set: true}
}

// ID returns the seed id and whether the cell is owned.
func (o OwnerID) ID() (uint32, bool) { return o.id, o.set }

// IsSet reports whether the cell has an owner.
func (o OwnerID) IsSet() bool { return o.set }

// Raw returns the raster representation of o.
func (o OwnerID) Raw() uint32 {
	if !o.set {
		return Unset
	}
	return o.id
}

// String implements fmt.Stringer.
func (o OwnerID) String() string {
	if !o.set {
		return "none"
	}
	return strconv.FormatUint(uint64(o.id), 10)
}

// ValidateSeedCount checks that n is in [0, MaxSeeds). A count whose ids
// would reach the sentinel is a configuration error that also matches
// ErrPrecisionOverflow.
func ValidateSeedCount(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative seed count %d", ErrConfiguration, n)
	}
	if uint64(n) >= uint64(MaxSeeds) {
		return fmt.Errorf("%w: %w: %d seeds, limit %d", ErrConfiguration, ErrPrecisionOverflow, n, MaxSeeds)
	}
	return nil
}

// ValidateDimensions checks raster dimensions.
func ValidateDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: raster size %dx%d", ErrConfiguration, w, h)
	}
	return nil
}

// GridRows returns the number of seed grid rows needed for n seeds.
func GridRows(n int) int {
	return (n + SeedGridWidth - 1) / SeedGridWidth
}
