// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/jfa/internal/core"
)

// executorName identifies the hardware executor.
const executorName = "compute-gpu"

// fenceTimeout is the maximum time to wait for one frame on the GPU.
const fenceTimeout = 5 * time.Second

// bufferSurface is an owner raster held in a u32 storage buffer.
type bufferSurface struct {
	label string
	w, h  int
	buf   hal.Buffer
	owner *executor
	gen   uint64
}

func (s *bufferSurface) Label() string    { return s.label }
func (s *bufferSurface) Size() (w, h int) { return s.w, s.h }

// executor runs the direct-storage strategy with WGSL compute shaders.
// Pipelines and rasters are created lazily by Allocate and destroyed by
// Release, so a lost device is rebuilt by Release + Allocate.
type executor struct {
	dev    *core.Device
	accel  *Accelerator
	device hal.Device
	queue  hal.Queue

	pipes *pipelineSet

	w, h         int
	a, b         *bufferSurface
	output       hal.Buffer
	staging      hal.Buffer
	ownerStaging hal.Buffer
}

var (
	_ core.Backend  = (*executor)(nil)
	_ core.Reopener = (*executor)(nil)
)

func newExecutor(dev *core.Device, accel *Accelerator, device hal.Device, queue hal.Queue) *executor {
	return &executor{dev: dev, accel: accel, device: device, queue: queue}
}

// Name implements core.Backend.
func (e *executor) Name() string { return executorName }

// Strategy implements core.Backend.
func (e *executor) Strategy() core.Strategy { return core.StrategyStorage }

// Allocate implements core.Backend.
func (e *executor) Allocate(w, h int) (core.Surface, core.Surface, error) {
	if err := core.ValidateDimensions(w, h); err != nil {
		return nil, nil, err
	}
	if err := e.dev.Err(); err != nil {
		return nil, nil, err
	}
	e.releaseBuffers()

	if e.pipes == nil {
		pipes, err := newPipelineSet(e.device)
		if err != nil {
			return nil, nil, err
		}
		e.pipes = pipes
	}

	size := uint64(w) * uint64(h) * 4
	gen := e.dev.Generation()
	rasterUsage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	readbackUsage := gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst

	bufs := []struct {
		target *hal.Buffer
		label  string
		usage  gputypes.BufferUsage
	}{
		{&e.output, "jfa_output", gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc},
		{&e.staging, "jfa_output_staging", readbackUsage},
		{&e.ownerStaging, "jfa_owner_staging", readbackUsage},
	}
	for _, b := range bufs {
		buf, err := e.createBuffer(b.label, size, b.usage)
		if err != nil {
			e.releaseBuffers()
			return nil, nil, err
		}
		*b.target = buf
	}

	owners := []struct {
		target **bufferSurface
		label  string
	}{
		{&e.a, "jfa_owners_a"},
		{&e.b, "jfa_owners_b"},
	}
	for _, o := range owners {
		buf, err := e.createBuffer(o.label, size, rasterUsage)
		if err != nil {
			e.releaseBuffers()
			return nil, nil, err
		}
		*o.target = &bufferSurface{label: o.label, w: w, h: h, buf: buf, owner: e, gen: gen}
	}
	e.w, e.h = w, h
	slogger().Debug("jfa-gpu: rasters allocated", "width", w, "height", h, "bytes", size)
	return e.a, e.b, nil
}

// Begin implements core.Backend.
func (e *executor) Begin(store *core.SeedStore) (core.Recorder, error) {
	if e.a == nil {
		return nil, fmt.Errorf("%s: %w: rasters not allocated", executorName, core.ErrClosed)
	}
	if err := e.dev.Err(); err != nil {
		return nil, err
	}

	r := &recorder{e: e, res: &frameResources{device: e.device}, n: uint32(store.Len())}
	var err error
	if r.positions, err = r.upload("jfa_positions", store.PositionBytes(), 8); err != nil {
		r.res.cleanup()
		return nil, err
	}
	if r.colors, err = r.upload("jfa_colors", store.ColorBytes(), 16); err != nil {
		r.res.cleanup()
		return nil, err
	}

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "jfa_frame"})
	if err != nil {
		r.res.cleanup()
		return nil, fmt.Errorf("jfa-gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("jfa_frame"); err != nil {
		r.res.cleanup()
		return nil, fmt.Errorf("jfa-gpu: begin encoding: %w", err)
	}
	r.encoder = encoder
	return r, nil
}

// Release implements core.Backend. It destroys the rasters and the
// pipelines.
func (e *executor) Release() {
	e.releaseBuffers()
	if e.pipes != nil {
		e.pipes.destroy()
		e.pipes = nil
	}
}

// Reopen implements core.Reopener. Rasters and pipelines must already be
// released; the next Allocate creates them on the new device.
func (e *executor) Reopen() error {
	device, queue, err := e.accel.reopen(e.device)
	if err != nil {
		return err
	}
	e.device, e.queue = device, queue
	return nil
}

func (e *executor) releaseBuffers() {
	destroyBuf := func(b hal.Buffer) {
		if b != nil {
			e.device.DestroyBuffer(b)
		}
	}
	if e.a != nil {
		destroyBuf(e.a.buf)
	}
	if e.b != nil {
		destroyBuf(e.b.buf)
	}
	destroyBuf(e.output)
	destroyBuf(e.staging)
	destroyBuf(e.ownerStaging)
	e.a, e.b = nil, nil
	e.output, e.staging, e.ownerStaging = nil, nil, nil
}

// createBuffer creates a buffer with a minimum size of 4 bytes.
func (e *executor) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	const minBufSize = 4
	if size < minBufSize {
		size = minBufSize
	}
	buf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("jfa-gpu: create buffer %s: %w", label, err)
	}
	return buf, nil
}

func (e *executor) surface(s core.Surface) (*bufferSurface, error) {
	bs, ok := s.(*bufferSurface)
	if !ok || bs.owner != e {
		return nil, fmt.Errorf("%w: %s", core.ErrForeignSurface, s.Label())
	}
	if bs.gen != e.dev.Generation() || (bs != e.a && bs != e.b) {
		return nil, fmt.Errorf("%w: stale surface %s", core.ErrDeviceLost, bs.label)
	}
	return bs, nil
}

// frameResources tracks per-frame GPU objects for cleanup.
type frameResources struct {
	device     hal.Device
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

// cleanup destroys all tracked per-frame resources.
func (r *frameResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
		r.fence = nil
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
		r.cmdBuf = nil
	}
	for _, g := range r.bindGroups {
		r.device.DestroyBindGroup(g)
	}
	for _, b := range r.buffers {
		r.device.DestroyBuffer(b)
	}
	r.bindGroups, r.buffers = nil, nil
}

// recorder encodes one compute pass per call into a single command buffer
// and submits it in Finish. Passes in one encoder are separated by the
// implicit storage barrier between compute passes.
type recorder struct {
	e         *executor
	res       *frameResources
	encoder   hal.CommandEncoder
	n         uint32
	positions hal.Buffer
	colors    hal.Buffer
	resolved  *bufferSurface
	done      bool
}

func (r *recorder) upload(label string, data []byte, minSize uint64) (hal.Buffer, error) {
	size := max(uint64(len(data)), minSize)
	buf, err := r.e.createBuffer(label, size, gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	r.res.buffers = append(r.res.buffers, buf)
	if len(data) > 0 {
		r.e.queue.WriteBuffer(buf, 0, data)
	}
	return buf, nil
}

func (r *recorder) uniform(label string, data []byte) (hal.Buffer, error) {
	buf, err := r.e.createBuffer(label, uint64(len(data)), gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	r.res.buffers = append(r.res.buffers, buf)
	r.e.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (r *recorder) check() error {
	if r.done {
		return fmt.Errorf("%s: %w: recorder finished", executorName, core.ErrClosed)
	}
	if err := r.e.dev.Err(); err != nil {
		r.Discard()
		return err
	}
	return nil
}

func (r *recorder) target(s core.Surface) (*bufferSurface, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	bs, err := r.e.surface(s)
	if err != nil {
		r.Discard()
	}
	return bs, err
}

// dispatch encodes one compute pass of st with the given parameter block
// and storage buffers bound from binding 1 on.
func (r *recorder) dispatch(st stage, params []byte, storage ...hal.Buffer) error {
	ub, err := r.uniform("jfa_"+st.String()+"_params", params)
	if err != nil {
		r.Discard()
		return err
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(storage)+1)
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: core.ParamsSize},
	})
	for i, b := range storage {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1),
			Resource: gputypes.BufferBinding{Buffer: b.NativeHandle(), Offset: 0, Size: 0},
		})
	}
	bg, err := r.e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "jfa_" + st.String() + "_bg",
		Layout:  r.e.pipes.bgLayouts[st],
		Entries: entries,
	})
	if err != nil {
		r.Discard()
		return fmt.Errorf("jfa-gpu: create bind group for %s: %w", st, err)
	}
	r.res.bindGroups = append(r.res.bindGroups, bg)

	gx, gy := st.workgroups(uint32(r.e.w), uint32(r.e.h), r.n)
	if gx == 0 || gy == 0 {
		return nil
	}
	pass := r.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "jfa_" + st.String()})
	pass.SetPipeline(r.e.pipes.pipelines[st])
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(gx, gy, 1)
	pass.End()

	slogger().Debug("jfa-gpu: encoded pass", "stage", st.String(), "workgroups_x", gx, "workgroups_y", gy)
	return nil
}

// Clear implements core.Recorder.
func (r *recorder) Clear(dst core.Surface) error {
	d, err := r.target(dst)
	if err != nil {
		return err
	}
	p := core.CommonParams{Width: uint32(d.w), Height: uint32(d.h), NSeeds: r.n}
	return r.dispatch(stageClear, p.Bytes(), d.buf)
}

// Splat implements core.Recorder.
func (r *recorder) Splat(dst core.Surface, p core.CommonParams) error {
	d, err := r.target(dst)
	if err != nil {
		return err
	}
	p.NSeeds = min(p.NSeeds, r.n)
	return r.dispatch(stageSplat, p.Bytes(), r.positions, d.buf)
}

// Propagate implements core.Recorder.
func (r *recorder) Propagate(src, dst core.Surface, p core.PropagationParams) error {
	if err := core.CheckDistinct(src, dst); err != nil {
		r.Discard()
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
	return r.dispatch(stagePropagate, p.Bytes(), r.positions, s.buf, d.buf)
}

// Resolve implements core.Recorder.
func (r *recorder) Resolve(src core.Surface, p core.CommonParams) error {
	s, err := r.target(src)
	if err != nil {
		return err
	}
	p.NSeeds = min(p.NSeeds, r.n)
	if err := r.dispatch(stageResolve, p.Bytes(), r.colors, s.buf, r.e.output); err != nil {
		return err
	}
	r.resolved = s
	return nil
}

// Finish implements core.Recorder. Submission and fence failures mark the
// device lost.
func (r *recorder) Finish(out *core.Output) error {
	if err := r.check(); err != nil {
		return err
	}
	defer r.Discard()
	if r.resolved == nil {
		return fmt.Errorf("%s: %w: finish without resolve", executorName, core.ErrConfiguration)
	}

	size := uint64(r.e.w) * uint64(r.e.h) * 4
	r.encoder.CopyBufferToBuffer(r.e.output, r.e.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	if out.Owners != nil {
		r.encoder.CopyBufferToBuffer(r.resolved.buf, r.e.ownerStaging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: size},
		})
	}
	cmdBuf, err := r.encoder.EndEncoding()
	r.encoder = nil
	if err != nil {
		return fmt.Errorf("jfa-gpu: end encoding: %w", err)
	}
	r.res.cmdBuf = cmdBuf

	if err := r.submitAndWait(); err != nil {
		r.e.dev.Lose(err.Error())
		return fmt.Errorf("%w: %v", core.ErrDeviceLost, err)
	}

	pixels := make([]byte, size)
	if err := r.e.queue.ReadBuffer(r.e.staging, 0, pixels); err != nil {
		r.e.dev.Lose(err.Error())
		return fmt.Errorf("%w: readback: %v", core.ErrDeviceLost, err)
	}
	out.Pixels = pixels
	if out.Owners != nil {
		raw := make([]byte, size)
		if err := r.e.queue.ReadBuffer(r.e.ownerStaging, 0, raw); err != nil {
			r.e.dev.Lose(err.Error())
			return fmt.Errorf("%w: owner readback: %v", core.ErrDeviceLost, err)
		}
		out.Owners = unpackOwners(out.Owners[:0], raw)
	}
	return nil
}

// submitAndWait submits the frame and waits for its fence.
func (r *recorder) submitAndWait() error {
	fence, err := r.e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	r.res.fence = fence

	if err := r.e.queue.Submit([]hal.CommandBuffer{r.res.cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := r.e.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("GPU timeout after %v", fenceTimeout)
	}
	return nil
}

// Discard implements core.Recorder.
func (r *recorder) Discard() {
	if r.done {
		return
	}
	r.done = true
	if r.encoder != nil {
		r.encoder.DiscardEncoding()
		r.encoder = nil
	}
	r.res.cleanup()
}

// unpackOwners appends the little-endian u32 words of raw to dst.
func unpackOwners(dst []uint32, raw []byte) []uint32 {
	for i := 0; i+4 <= len(raw); i += 4 {
		dst = append(dst, binary.LittleEndian.Uint32(raw[i:]))
	}
	return dst
}
