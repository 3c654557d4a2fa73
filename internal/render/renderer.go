// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/vcompare"
	"github.com/gogpu/vcompare/internal/compositor"
	"github.com/gogpu/vcompare/internal/texture"
)

// uniformSize is one column-major mat4x4<f32>.
const uniformSize = 64

// ErrNoView is returned when a target has no view to draw into this tick.
var ErrNoView = errors.New("render: target has no view")

// ViewTarget is a compositor target backed by a wgpu texture view.
type ViewTarget interface {
	compositor.Target
	// View returns the view to draw into for the current tick.
	View() (*wgpu.TextureView, error)
	// Format returns the view's texture format.
	Format() gputypes.TextureFormat
}

// Config configures a Renderer.
type Config struct {
	// Format is the color format of every target the renderer draws into.
	Format gputypes.TextureFormat
	// Sampling selects the video sampler filters.
	Sampling texture.Sampling
	// SPIRV loads the shader as SPIR-V compiled on the host instead of WGSL.
	SPIRV bool
}

// Renderer owns the pipeline and the shared quad geometry. It implements
// compositor.Backend and texture.Rewriter.
type Renderer struct {
	dev    *Device
	format gputypes.TextureFormat

	shader     *wgpu.ShaderModule
	bindLayout *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	pipeline   *wgpu.RenderPipeline
	sampler    *wgpu.Sampler
	vertices   *wgpu.Buffer
	indices    *wgpu.Buffer

	slots []drawSlot
}

// drawSlot holds the per-instance uniform buffer and the bind group built
// for the image it last drew.
type drawSlot struct {
	uniform *wgpu.Buffer
	group   *wgpu.BindGroup
	image   *Image
}

var (
	_ compositor.Backend = (*Renderer)(nil)
	_ texture.Rewriter   = (*Renderer)(nil)
)

// NewRenderer builds the pipeline for targets of cfg.Format.
func NewRenderer(dev *Device, cfg Config) (*Renderer, error) {
	r := &Renderer{dev: dev, format: cfg.Format}
	if err := r.init(cfg); err != nil {
		r.Release()
		return nil, err
	}
	vcompare.ModuleLogger("render").Debug("renderer ready",
		"format", uint32(cfg.Format),
		"spirv", cfg.SPIRV)
	return r, nil
}

func (r *Renderer) init(cfg Config) error {
	d := r.dev.Device
	var err error

	shaderDesc := &wgpu.ShaderModuleDescriptor{Label: "quad", WGSL: quadShaderSource}
	if cfg.SPIRV {
		words, cerr := compileQuadSPIRV()
		if cerr != nil {
			return cerr
		}
		shaderDesc = &wgpu.ShaderModuleDescriptor{Label: "quad", SPIRV: words}
	}
	if r.shader, err = d.CreateShaderModule(shaderDesc); err != nil {
		return fmt.Errorf("create shader: %w", err)
	}

	if r.sampler, err = d.CreateSampler(samplerDescriptor(cfg.Sampling)); err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	r.bindLayout, err = d.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "quad",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    bindingTexture,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    bindingSampler,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    bindingTransform,
				Visibility: gputypes.ShaderStageVertex,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: uniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	r.pipeLayout, err = d.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "quad",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	blend := gputypes.BlendStateReplace()
	r.pipeline, err = d.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "quad",
		Layout: r.pipeLayout,
		Vertex: wgpu.VertexState{
			Module:     r.shader,
			EntryPoint: vertexEntry,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: quadVertexSize,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				},
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: ^uint64(0)},
		Fragment: &wgpu.FragmentState{
			Module:     r.shader,
			EntryPoint: fragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    r.format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}

	if r.vertices, err = r.staticBuffer("quad vertices", wgpu.BufferUsageVertex, vertexBytes()); err != nil {
		return err
	}
	if r.indices, err = r.staticBuffer("quad indices", wgpu.BufferUsageIndex, indexBytes()); err != nil {
		return err
	}
	return nil
}

func (r *Renderer) staticBuffer(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := r.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	if err := r.dev.Queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("write %s buffer: %w", label, err)
	}
	return buf, nil
}

func samplerDescriptor(s texture.Sampling) *wgpu.SamplerDescriptor {
	filter := func(f texture.Filter) gputypes.FilterMode {
		if f == texture.Linear {
			return gputypes.FilterModeLinear
		}
		return gputypes.FilterModeNearest
	}
	address := gputypes.AddressModeRepeat
	if s.ClampToEdge {
		address = gputypes.AddressModeClampToEdge
	}
	return &wgpu.SamplerDescriptor{
		Label:        "video",
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    filter(s.Mag),
		MinFilter:    filter(s.Min),
		MipmapFilter: filter(s.Mipmap),
		LodMaxClamp:  32,
	}
}

// Render draws every instance into target in one pass: clear to black,
// then one indexed draw of the quad per instance, in order.
func (r *Renderer) Render(target compositor.Target, draws []compositor.Draw) error {
	vt, ok := target.(ViewTarget)
	if !ok {
		return fmt.Errorf("render: unsupported target %T", target)
	}
	view, err := vt.View()
	if err != nil {
		return err
	}

	for _, dr := range draws {
		if err := r.prepare(dr); err != nil {
			return err
		}
	}

	encoder, err := r.dev.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	pass, err := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "compose",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	if err != nil {
		return fmt.Errorf("begin render pass: %w", err)
	}

	pass.SetPipeline(r.pipeline)
	pass.SetVertexBuffer(0, r.vertices, 0)
	pass.SetIndexBuffer(r.indices, gputypes.IndexFormatUint16, 0)
	for _, dr := range draws {
		pass.SetBindGroup(0, r.slots[dr.Index].group, nil)
		pass.DrawIndexed(uint32(len(quadIndices)), 1, 0, 0, 0)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("end render pass: %w", err)
	}

	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	if _, err := r.dev.Queue.Submit(cmd); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// prepare writes the instance transform and makes sure the instance's bind
// group references the image it must draw.
func (r *Renderer) prepare(dr compositor.Draw) error {
	if dr.Resource == nil {
		return fmt.Errorf("render: draw %d has no image", dr.Index)
	}
	img, ok := dr.Resource.Image.(*Image)
	if !ok || img.view == nil {
		return errForeignImage
	}
	for len(r.slots) <= dr.Index {
		r.slots = append(r.slots, drawSlot{})
	}
	s := &r.slots[dr.Index]

	if s.uniform == nil {
		buf, err := r.dev.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("transform %d", dr.Index),
			Size:  uniformSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create uniform buffer: %w", err)
		}
		s.uniform = buf
	}
	if err := r.dev.Queue.WriteBuffer(s.uniform, 0, dr.Transform.Mat4().Bytes()); err != nil {
		return fmt.Errorf("write uniform buffer: %w", err)
	}

	if s.group != nil && s.image == img {
		return nil
	}
	group, err := r.dev.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  fmt.Sprintf("video %d", dr.Index),
		Layout: r.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: bindingTexture, TextureView: img.view},
			{Binding: bindingSampler, Sampler: r.sampler},
			{Binding: bindingTransform, Buffer: s.uniform, Size: uniformSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	if s.group != nil {
		s.group.Release()
	}
	s.group, s.image = group, img
	return nil
}

// ClassifyError maps wgpu failures onto the compositor's policy: a lost or
// outdated surface is reconfigured, memory exhaustion and device loss end
// the session, everything else skips the tick.
func (r *Renderer) ClassifyError(err error) compositor.TargetErrorKind {
	return Classify(err)
}

// Classify is ClassifyError without a renderer.
func Classify(err error) compositor.TargetErrorKind {
	switch {
	case err == nil:
		return compositor.TargetErrorOther
	case errors.Is(err, wgpu.ErrSurfaceLost),
		errors.Is(err, wgpu.ErrSurfaceOutdated),
		errors.Is(err, ErrNoView):
		return compositor.TargetErrorTransient
	case errors.Is(err, wgpu.ErrOutOfMemory),
		errors.Is(err, wgpu.ErrDeviceLost):
		return compositor.TargetErrorFatal
	default:
		return compositor.TargetErrorOther
	}
}

// Release frees every GPU object the renderer created. Images handed out
// by Upload are owned by their slots.
func (r *Renderer) Release() {
	for i := range r.slots {
		if r.slots[i].group != nil {
			r.slots[i].group.Release()
		}
		if r.slots[i].uniform != nil {
			r.slots[i].uniform.Release()
		}
	}
	r.slots = nil
	if r.indices != nil {
		r.indices.Release()
	}
	if r.vertices != nil {
		r.vertices.Release()
	}
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	if r.pipeLayout != nil {
		r.pipeLayout.Release()
	}
	if r.bindLayout != nil {
		r.bindLayout.Release()
	}
	if r.sampler != nil {
		r.sampler.Release()
	}
	if r.shader != nil {
		r.shader.Release()
	}
	*r = Renderer{dev: r.dev, format: r.format}
}
