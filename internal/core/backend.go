// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

// Strategy selects how owner rasters are stored and processed.
type Strategy int

const (
	// StrategyAuto picks direct storage when the device supports it and
	// sampling otherwise.
	StrategyAuto Strategy = iota

	// StrategyStorage keeps owner ids as raw u32 texels processed by 2D
	// compute dispatch.
	StrategyStorage

	// StrategySampling encodes owner ids into four 8-bit unorm channels and
	// processes them with full-screen draws and a sampler.
	StrategySampling
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyStorage:
		return "storage"
	case StrategySampling:
		return "sampling"
	default:
		return "unknown"
	}
}

// Surface is an owner raster allocated by a backend. Surfaces are only
// valid with the backend that allocated them.
type Surface interface {
	// Label names the surface for diagnostics.
	Label() string

	// Size returns the raster dimensions.
	Size() (w, h int)
}

// Backend is one executor of one strategy. The engine creates exactly one
// per run.
type Backend interface {
	// Name identifies the executor, e.g. "compute-cpu".
	Name() string

	// Strategy returns the strategy the executor implements.
	Strategy() Strategy

	// Allocate creates the two owner rasters of the ping-pong pair and the
	// output raster for a w x h frame. Previously allocated rasters are
	// released.
	Allocate(w, h int) (a, b Surface, err error)

	// Begin uploads the seed store and starts recording a frame.
	Begin(store *SeedStore) (Recorder, error)

	// Release frees every device resource. The backend can be reused after
	// a new Allocate.
	Release()
}

// Reopener is implemented by backends that own a device handle which
// does not survive a device loss. The engine calls Reopen after Release
// and before Allocate when it rebuilds. An error wrapping ErrCapability
// means the handle cannot be replaced.
type Reopener interface {
	Reopen() error
}

// Recorder records the passes of one frame. Passes execute in call order
// with a full barrier between them; results become visible to the host in
// Finish. Any error leaves the recorder unusable; call Discard.
type Recorder interface {
	// Clear writes Unset to every cell of dst.
	Clear(dst Surface) error

	// Splat writes each in-range seed id into the cell under its rounded
	// position; the lowest id wins a shared cell.
	Splat(dst Surface, p CommonParams) error

	// Propagate runs one jump flood step reading src and writing dst.
	Propagate(src, dst Surface, p PropagationParams) error

	// Resolve writes the color of each cell's owner into the output raster.
	Resolve(src Surface, p CommonParams) error

	// Finish waits for the recorded passes and copies the output raster to
	// out.Pixels. When out.Owners is non-nil the owner raster passed to
	// Resolve is copied into it as well.
	Finish(out *Output) error

	// Discard drops the recorded work.
	Discard()
}

// Output receives the results of a frame.
type Output struct {
	// Pixels is the W x H RGBA8 output raster, row-major.
	Pixels []byte

	// Owners optionally receives the final W x H owner raster.
	Owners []uint32
}

// BackendFactory opens a backend on a device.
type BackendFactory func(dev *Device) (Backend, error)
