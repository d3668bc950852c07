// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/jfa/internal/backendtest"
	"github.com/gogpu/jfa/internal/core"
)

// TestShadersCompile validates every WGSL stage through naga.
func TestShadersCompile(t *testing.T) {
	for st := stage(0); st < stageCount; st++ {
		t.Run(st.String(), func(t *testing.T) {
			src := st.source()
			if src == "" {
				t.Fatal("empty shader source")
			}
			if !strings.Contains(src, "fn main(") {
				t.Fatal("shader has no main entry point")
			}
			spirv, err := naga.Compile(src)
			if err != nil {
				msg := err.Error()
				if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") ||
					strings.Contains(msg, "lowering error") || strings.Contains(msg, "atomic") {
					t.Skipf("Skipping: naga limitation: %v", err)
				}
				t.Fatalf("naga.Compile(%s): %v", st, err)
			}
			if len(spirv) == 0 || len(spirv)%4 != 0 {
				t.Fatalf("SPIR-V size %d is not a positive multiple of 4", len(spirv))
			}
			words, err := compileSPIRV(src)
			if err != nil {
				t.Fatalf("compileSPIRV: %v", err)
			}
			if words[0] != 0x07230203 {
				t.Errorf("SPIR-V magic = %#x, want 0x07230203", words[0])
			}
		})
	}
}

func TestStageLayoutEntries(t *testing.T) {
	tests := []struct {
		stage stage
		types []gputypes.BufferBindingType
	}{
		{stageClear, []gputypes.BufferBindingType{
			gputypes.BufferBindingTypeUniform, gputypes.BufferBindingTypeStorage,
		}},
		{stageSplat, []gputypes.BufferBindingType{
			gputypes.BufferBindingTypeUniform, gputypes.BufferBindingTypeReadOnlyStorage, gputypes.BufferBindingTypeStorage,
		}},
		{stagePropagate, []gputypes.BufferBindingType{
			gputypes.BufferBindingTypeUniform, gputypes.BufferBindingTypeReadOnlyStorage,
			gputypes.BufferBindingTypeReadOnlyStorage, gputypes.BufferBindingTypeStorage,
		}},
		{stageResolve, []gputypes.BufferBindingType{
			gputypes.BufferBindingTypeUniform, gputypes.BufferBindingTypeReadOnlyStorage,
			gputypes.BufferBindingTypeReadOnlyStorage, gputypes.BufferBindingTypeStorage,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			entries := tt.stage.layoutEntries()
			if len(entries) != len(tt.types) {
				t.Fatalf("%d entries, want %d", len(entries), len(tt.types))
			}
			for i, e := range entries {
				if e.Binding != uint32(i) {
					t.Errorf("entry %d has binding %d", i, e.Binding)
				}
				if e.Visibility != gputypes.ShaderStageCompute {
					t.Errorf("entry %d not visible to compute", i)
				}
				if e.Buffer == nil || e.Buffer.Type != tt.types[i] {
					t.Errorf("entry %d buffer binding = %+v, want type %v", i, e.Buffer, tt.types[i])
				}
			}
		})
	}
	if stageCount.layoutEntries() != nil {
		t.Error("unknown stage has layout entries")
	}
}

func TestStageWorkgroups(t *testing.T) {
	tests := []struct {
		stage   stage
		w, h, n uint32
		wantX   uint32
		wantY   uint32
	}{
		{stageClear, 10, 10, 2, 2, 2},
		{stagePropagate, 1920, 1080, 0, 240, 135},
		{stageResolve, 1, 1, 0, 1, 1},
		{stageSplat, 64, 64, 0, 0, 1},
		{stageSplat, 64, 64, 256, 1, 1},
		{stageSplat, 64, 64, 257, 2, 1},
	}
	for _, tt := range tests {
		x, y := tt.stage.workgroups(tt.w, tt.h, tt.n)
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("%s.workgroups(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.stage, tt.w, tt.h, tt.n, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestStageString(t *testing.T) {
	names := []string{"clear", "splat", "jfa", "resolve"}
	for st := stage(0); st < stageCount; st++ {
		if st.String() != names[st] {
			t.Errorf("stage(%d).String() = %q, want %q", int(st), st.String(), names[st])
		}
	}
	if got := stage(42).String(); got != "Unknown(42)" {
		t.Errorf("stage(42).String() = %q", got)
	}
}

func TestUnpackOwners(t *testing.T) {
	raw := []byte{1, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF, 0x04, 0x03, 0x02, 0x01}
	got := unpackOwners(nil, raw)
	want := []uint32{1, core.Unset, 0x01020304}
	if !slices.Equal(got, want) {
		t.Errorf("unpackOwners = %#x, want %#x", got, want)
	}
}

func TestAccelerator_OpenNotReady(t *testing.T) {
	dev := core.NewDevice(core.SoftwareCapabilities(), 1, nil)
	defer dev.Close()
	a := &Accelerator{}
	_, err := a.Open(dev)
	if !errors.Is(err, core.ErrCapability) || !errors.Is(err, ErrNotReady) {
		t.Errorf("Open on uninitialized accelerator = %v, want ErrCapability and ErrNotReady", err)
	}
	if a.Ready() {
		t.Error("Ready() = true before Init")
	}
	if a.Name() != "jfa-gpu" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestAccelerator_SetDeviceProviderRejects(t *testing.T) {
	a := &Accelerator{}
	if err := a.SetDeviceProvider(struct{}{}); err == nil {
		t.Error("SetDeviceProvider accepted a provider without HAL access")
	}
	if err := a.SetDeviceProvider(fakeProvider{}); err == nil {
		t.Error("SetDeviceProvider accepted non-HAL device values")
	}
}

type fakeProvider struct{}

func (fakeProvider) HalDevice() any { return "device" }
func (fakeProvider) HalQueue() any  { return "queue" }

// stubDevice and stubQueue stand in for a host's HAL handles. Calling any
// of their methods panics.
type (
	stubDevice struct{ hal.Device }
	stubQueue  struct{ hal.Queue }
)

// hostProvider is a gpucontext.DeviceProvider with HAL access.
type hostProvider struct {
	device *stubDevice
	queue  *stubQueue
}

func (p *hostProvider) Device() gpucontext.Device             { return p.device }
func (p *hostProvider) Queue() gpucontext.Queue               { return p.queue }
func (p *hostProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *hostProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (p *hostProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "host"}
}
func (p *hostProvider) HalDevice() any { return p.device }
func (p *hostProvider) HalQueue() any  { return p.queue }

func TestAccelerator_BorrowsHostDevice(t *testing.T) {
	host := &hostProvider{device: &stubDevice{}, queue: &stubQueue{}}
	dev := core.NewDevice(core.SoftwareCapabilities(), 1, host)
	defer dev.Close()

	a := &Accelerator{}
	defer a.Close()
	b, err := a.Open(dev)
	if err != nil {
		t.Fatalf("Open with host provider: %v", err)
	}
	if !a.Ready() {
		t.Error("Ready() = false after borrowing the host device")
	}
	ex, ok := b.(*executor)
	if !ok {
		t.Fatalf("Open returned %T", b)
	}
	if ex.device != hal.Device(host.device) || ex.queue != hal.Queue(host.queue) {
		t.Error("executor does not run on the host device")
	}

	// A borrowed device is never recreated after a loss.
	if err := ex.Reopen(); !errors.Is(err, core.ErrCapability) {
		t.Errorf("Reopen on a shared device = %v, want ErrCapability", err)
	}
	if ex.device != hal.Device(host.device) {
		t.Error("failed Reopen replaced the device")
	}
}

func TestAccelerator_ReopenReturnsReplacement(t *testing.T) {
	host := &hostProvider{device: &stubDevice{}, queue: &stubQueue{}}
	a := &Accelerator{}
	defer a.Close()
	if err := a.SetDeviceProvider(host); err != nil {
		t.Fatalf("SetDeviceProvider: %v", err)
	}

	// An executor still holding an older device picks up the current one.
	device, queue, err := a.reopen(&stubDevice{})
	if err != nil {
		t.Fatalf("reopen with a stale device: %v", err)
	}
	if device != hal.Device(host.device) || queue != hal.Queue(host.queue) {
		t.Error("reopen did not return the current device")
	}
}

// TestConformance runs the executor on a real Vulkan device when one is
// available.
func TestConformance(t *testing.T) {
	a := &Accelerator{}
	if err := a.Init(); err != nil {
		t.Skipf("no GPU: %v", err)
	}
	defer a.Close()

	backendtest.Run(t, func(t *testing.T) core.Backend {
		t.Helper()
		dev := core.NewDevice(core.SoftwareCapabilities(), 1, nil)
		t.Cleanup(dev.Close)
		b, err := a.Open(dev)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return b
	})
}
