// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// =============================================================================
// Embedded WGSL Shader Sources
// =============================================================================

//go:embed shaders/clear.wgsl
var shaderClear string

//go:embed shaders/splat.wgsl
var shaderSplat string

//go:embed shaders/jfa.wgsl
var shaderJFA string

//go:embed shaders/resolve.wgsl
var shaderResolve string

// =============================================================================
// Stages
// =============================================================================

const (
	// tileSize is the 2D workgroup edge of clear, jfa and resolve.
	tileSize = 8

	// splatGroupSize is the 1D workgroup size of splat.
	splatGroupSize = 256
)

// stage identifies one compute pipeline.
type stage int

const (
	stageClear stage = iota
	stageSplat
	stagePropagate
	stageResolve
	stageCount
)

// String returns the shader name of the stage.
func (s stage) String() string {
	switch s {
	case stageClear:
		return "clear"
	case stageSplat:
		return "splat"
	case stagePropagate:
		return "jfa"
	case stageResolve:
		return "resolve"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// source returns the WGSL source of the stage.
func (s stage) source() string {
	switch s {
	case stageClear:
		return shaderClear
	case stageSplat:
		return shaderSplat
	case stagePropagate:
		return shaderJFA
	case stageResolve:
		return shaderResolve
	default:
		return ""
	}
}

// workgroups returns the dispatch size of the stage for a w x h raster
// with n seeds.
func (s stage) workgroups(w, h, n uint32) (x, y uint32) {
	if s == stageSplat {
		return (n + splatGroupSize - 1) / splatGroupSize, 1
	}
	return (w + tileSize - 1) / tileSize, (h + tileSize - 1) / tileSize
}

// layoutEntries returns the bind group layout of a stage. Binding 0 is
// always the parameter uniform.
//
//	clear:   1 owners rw
//	splat:   1 positions ro, 2 owners rw (atomic)
//	jfa:     1 positions ro, 2 src ro, 3 dst rw
//	resolve: 1 colors ro, 2 owners ro, 3 output rw
func (s stage) layoutEntries() []gputypes.BindGroupLayoutEntry {
	uniform := gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageCompute,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
	storageRO := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		}
	}
	storageRW := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
		}
	}

	switch s {
	case stageClear:
		return []gputypes.BindGroupLayoutEntry{uniform, storageRW(1)}
	case stageSplat:
		return []gputypes.BindGroupLayoutEntry{uniform, storageRO(1), storageRW(2)}
	case stagePropagate, stageResolve:
		return []gputypes.BindGroupLayoutEntry{uniform, storageRO(1), storageRO(2), storageRW(3)}
	default:
		return nil
	}
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// pipelineSet holds the compiled pipelines of all stages.
type pipelineSet struct {
	device          hal.Device
	modules         [stageCount]hal.ShaderModule
	bgLayouts       [stageCount]hal.BindGroupLayout
	pipelineLayouts [stageCount]hal.PipelineLayout
	pipelines       [stageCount]hal.ComputePipeline
}

// newPipelineSet compiles and creates every stage pipeline on device.
func newPipelineSet(device hal.Device) (*pipelineSet, error) {
	ps := &pipelineSet{device: device}
	for i := stage(0); i < stageCount; i++ {
		name := "jfa_" + i.String()

		spirv, err := compileSPIRV(i.source())
		if err != nil {
			ps.destroy()
			return nil, fmt.Errorf("jfa-gpu: compile %s: %w", i, err)
		}
		module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  name,
			Source: hal.ShaderSource{SPIRV: spirv},
		})
		if err != nil {
			ps.destroy()
			return nil, fmt.Errorf("jfa-gpu: create shader module for %s: %w", i, err)
		}
		ps.modules[i] = module

		entries := i.layoutEntries()
		bgl, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   name + "_bgl",
			Entries: entries,
		})
		if err != nil {
			ps.destroy()
			return nil, fmt.Errorf("jfa-gpu: create bind group layout for %s: %w", i, err)
		}
		ps.bgLayouts[i] = bgl

		pl, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            name + "_pl",
			BindGroupLayouts: []hal.BindGroupLayout{bgl},
		})
		if err != nil {
			ps.destroy()
			return nil, fmt.Errorf("jfa-gpu: create pipeline layout for %s: %w", i, err)
		}
		ps.pipelineLayouts[i] = pl

		pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  name,
			Layout: pl,
			Compute: hal.ComputeState{
				Module:     module,
				EntryPoint: "main",
			},
		})
		if err != nil {
			ps.destroy()
			return nil, fmt.Errorf("jfa-gpu: create compute pipeline for %s: %w", i, err)
		}
		ps.pipelines[i] = pipeline

		slogger().Debug("jfa-gpu: pipeline created",
			"stage", i.String(),
			"bindings", len(entries),
			"spirv_words", len(spirv))
	}
	return ps, nil
}

// destroy releases every created object. It is safe on a partial set.
func (ps *pipelineSet) destroy() {
	for i := stage(0); i < stageCount; i++ {
		if ps.pipelines[i] != nil {
			ps.device.DestroyComputePipeline(ps.pipelines[i])
			ps.pipelines[i] = nil
		}
		if ps.pipelineLayouts[i] != nil {
			ps.device.DestroyPipelineLayout(ps.pipelineLayouts[i])
			ps.pipelineLayouts[i] = nil
		}
		if ps.bgLayouts[i] != nil {
			ps.device.DestroyBindGroupLayout(ps.bgLayouts[i])
			ps.bgLayouts[i] = nil
		}
		if ps.modules[i] != nil {
			ps.device.DestroyShaderModule(ps.modules[i])
			ps.modules[i] = nil
		}
	}
}
