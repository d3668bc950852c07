// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sampling

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/jfa/internal/core"
	"github.com/gogpu/jfa/internal/kernel"
)

// Name identifies this executor.
const Name = "sampling-cpu"

// clearOwner is the clear color of owner textures: the encoded sentinel.
var clearOwner = kernel.EncodeID(core.Unset)

// Backend executes the sampling strategy.
type Backend struct {
	dev     *core.Device
	sampler Sampler

	w, h   int
	a, b   *Texture
	output *Texture
	depth  *DepthBuffer
}

// New opens the executor on dev. Any device can sample textures; the size
// limit is checked in Allocate.
func New(dev *core.Device) *Backend {
	return &Backend{dev: dev, sampler: OwnerSampler()}
}

var _ core.BackendFactory = Open

// Open is the core.BackendFactory of this executor.
func Open(dev *core.Device) (core.Backend, error) {
	return New(dev), nil
}

// Name implements core.Backend.
func (b *Backend) Name() string { return Name }

// Strategy implements core.Backend.
func (b *Backend) Strategy() core.Strategy { return core.StrategySampling }

// Allocate implements core.Backend.
func (b *Backend) Allocate(w, h int) (core.Surface, core.Surface, error) {
	if err := core.ValidateDimensions(w, h); err != nil {
		return nil, nil, err
	}
	if err := b.dev.Err(); err != nil {
		return nil, nil, err
	}
	if limit := b.dev.Capabilities().MaxTextureDimension; limit != 0 && (w > int(limit) || h > int(limit)) {
		return nil, nil, fmt.Errorf("%w: %dx%d exceeds texture limit %d", core.ErrCapability, w, h, limit)
	}
	b.Release()

	gen := b.dev.Generation()
	textures := make([]*Texture, 3)
	for i, label := range []string{"owners_a", "owners_b", "output"} {
		t, err := NewTexture(label, w, h, gputypes.TextureFormatRGBA8Unorm)
		if err != nil {
			return nil, nil, err
		}
		t.owner, t.gen = b, gen
		textures[i] = t
	}
	b.w, b.h = w, h
	b.a, b.b, b.output = textures[0], textures[1], textures[2]
	b.depth = NewDepthBuffer(w, h)
	core.Logger().Debug("sampling: textures allocated", "width", w, "height", h)
	return b.a, b.b, nil
}

// Begin implements core.Backend. It uploads the seed store into the
// position and color textures.
func (b *Backend) Begin(store *core.SeedStore) (core.Recorder, error) {
	if b.a == nil {
		return nil, fmt.Errorf("%s: %w: textures not allocated", Name, core.ErrClosed)
	}
	if err := b.dev.Err(); err != nil {
		return nil, err
	}
	r := &recorder{b: b, store: store, n: uint32(store.Len())}
	if rows := store.Rows(); rows > 0 {
		if limit := b.dev.Capabilities().MaxTextureDimension; limit != 0 && rows > int(limit) {
			return nil, fmt.Errorf("%w: seed grid of %d rows exceeds texture limit %d", core.ErrCapability, rows, limit)
		}
		var err error
		if r.positions, err = NewFloatTexture(core.SeedGridWidth, rows, 2, store.PositionTexels()); err != nil {
			return nil, err
		}
		if r.colors, err = NewFloatTexture(core.SeedGridWidth, rows, 4, store.ColorTexels()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Release implements core.Backend.
func (b *Backend) Release() {
	b.a, b.b, b.output, b.depth = nil, nil, nil, nil
}

func (b *Backend) texture(s core.Surface) (*Texture, error) {
	t, ok := s.(*Texture)
	if !ok || t.owner != b {
		return nil, fmt.Errorf("%w: %s", core.ErrForeignSurface, s.Label())
	}
	if t.gen != b.dev.Generation() || (t != b.a && t != b.b) {
		return nil, fmt.Errorf("%w: stale texture %s", core.ErrDeviceLost, t.label)
	}
	return t, nil
}

type recorder struct {
	b         *Backend
	store     *core.SeedStore
	n         uint32
	positions *FloatTexture
	colors    *FloatTexture
	resolved  *Texture
	failed    bool
}

func (r *recorder) check() error {
	if r.failed {
		return fmt.Errorf("%s: %w: recorder failed", Name, core.ErrClosed)
	}
	if err := r.b.dev.Err(); err != nil {
		r.failed = true
		return err
	}
	return nil
}

func (r *recorder) target(s core.Surface) (*Texture, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	t, err := r.b.texture(s)
	if err != nil {
		r.failed = true
	}
	return t, err
}

// seedPos fetches the position texel of seed id.
func (r *recorder) seedPos(id uint32) core.SeedPos {
	col, row := r.store.Cell(id)
	v := r.positions.Fetch(col, row)
	return core.SeedPos{X: v[0], Y: v[1]}
}

// owner samples and decodes the owner at normalized (u, v).
func (r *recorder) owner(t *Texture, u, v float32) uint32 {
	s := r.b.sampler.Sample(t, u, v)
	return kernel.DecodeID([4]byte{
		kernel.FloatToChannel(s[0]),
		kernel.FloatToChannel(s[1]),
		kernel.FloatToChannel(s[2]),
		kernel.FloatToChannel(s[3]),
	})
}

// Clear implements core.Recorder as a render pass with a clear load op and
// no draws.
func (r *recorder) Clear(dst core.Surface) error {
	t, err := r.target(dst)
	if err != nil {
		return err
	}
	renderPass(t, gputypes.LoadOpClear, clearOwner)
	return nil
}

// Splat implements core.Recorder as a point-list draw of NSeeds points with
// depth = id and CompareFunctionLess.
func (r *recorder) Splat(dst core.Surface, p core.CommonParams) error {
	t, err := r.target(dst)
	if err != nil {
		return err
	}
	n := min(int(p.NSeeds), int(r.n))
	r.b.depth.Clear(core.Unset)
	vs := func(i int) (PointVertex, bool) {
		pos := r.seedPos(uint32(i))
		return PointVertex{X: float64(pos.X) + 0.5, Y: float64(pos.Y) + 0.5, Depth: uint32(i)}, true
	}
	merge := func(i, x, y int) {
		t.Store(x, y, kernel.EncodeID(uint32(i)))
	}
	DrawPoints(r.b.dev.Pool(), r.b.depth, gputypes.CompareFunctionLess, n, vs, merge)
	core.Logger().Debug("sampling: splat", "points", n)
	return nil
}

// Propagate implements core.Recorder as a full-screen draw reading src
// through the owner sampler.
func (r *recorder) Propagate(src, dst core.Surface, p core.PropagationParams) error {
	if err := core.CheckDistinct(src, dst); err != nil {
		r.failed = true
		return err
	}
	s, err := r.target(src)
	if err != nil {
		return err
	}
	d, err := r.target(dst)
	if err != nil {
		return err
	}
	w, h, step := int(p.Width), int(p.Height), int(p.Step)
	fw, fh := float32(w), float32(h)
	read := func(x, y int) uint32 {
		return r.owner(s, (float32(x)+0.5)/fw, (float32(y)+0.5)/fh)
	}
	DrawTriangle(r.b.dev.Pool(), w, h, FullscreenTriangle, func(f Fragment) {
		id := kernel.PropagatePixel(f.X, f.Y, w, h, step, r.n, read, r.seedPos)
		d.Store(f.X, f.Y, kernel.EncodeID(id))
	})
	core.Logger().Debug("sampling: propagate", "step", step)
	return nil
}

// Resolve implements core.Recorder as a full-screen draw into the output
// texture.
func (r *recorder) Resolve(src core.Surface, p core.CommonParams) error {
	s, err := r.target(src)
	if err != nil {
		return err
	}
	n := min(p.NSeeds, r.n)
	out := r.b.output
	DrawTriangle(r.b.dev.Pool(), int(p.Width), int(p.Height), FullscreenTriangle, func(f Fragment) {
		id := r.owner(s, f.U, f.V)
		if id >= n {
			out.Store(f.X, f.Y, [4]byte{0, 0, 0, 255})
			return
		}
		col, row := r.store.Cell(id)
		c := r.colors.Fetch(col, row)
		out.Store(f.X, f.Y, kernel.ColorToRGBA8(core.SeedColor{R: c[0], G: c[1], B: c[2], A: c[3]}))
	})
	r.resolved = s
	return nil
}

// Finish implements core.Recorder.
func (r *recorder) Finish(out *core.Output) error {
	if err := r.check(); err != nil {
		return err
	}
	if r.resolved == nil {
		r.failed = true
		return fmt.Errorf("%s: %w: finish without resolve", Name, core.ErrConfiguration)
	}
	out.Pixels = append(out.Pixels[:0], r.b.output.pix...)
	if out.Owners != nil {
		owners := out.Owners[:0]
		w := r.resolved.width
		for i := range r.resolved.width * r.resolved.height {
			owners = append(owners, kernel.DecodeID(r.resolved.Texel(i%w, i/w)))
		}
		out.Owners = owners
	}
	r.failed = true
	return nil
}

// Discard implements core.Recorder.
func (r *recorder) Discard() {
	r.failed = true
	r.resolved = nil
}

// renderPass begins and ends a pass on t with the given load op.
func renderPass(t *Texture, load gputypes.LoadOp, clear [4]byte) {
	if load != gputypes.LoadOpClear {
		return
	}
	for i := 0; i < len(t.pix); i += 4 {
		copy(t.pix[i:i+4], clear[:])
	}
}
