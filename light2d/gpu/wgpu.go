package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/lumen/light2d/gpu/shaders"
)

var ErrNoDevice = errors.New("gpu: no device")

// Logger is the subset of logging the backend needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// EffectSources maps every built-in effect to its fragment program.
func EffectSources() map[Effect]string {
	return map[Effect]string{
		EffectBloomExtract:   shaders.BloomExtractWGSL,
		EffectDownsample:     shaders.DownsampleWGSL,
		EffectUpsample:       shaders.UpsampleWGSL,
		EffectBloomComposite: shaders.BloomCompositeWGSL,
		EffectLightShafts:    shaders.LightShaftsWGSL,
		EffectFog:            shaders.FogWGSL,
		EffectToneMapping:    shaders.ToneMapWGSL,
		EffectColorGrading:   shaders.ColorGradingWGSL,
		EffectBlit:           shaders.BlitWGSL,
	}
}

func textureFormat(f Format) wgpu.TextureFormat {
	switch f {
	case FormatRGBA16F:
		return wgpu.TextureFormatRGBA16Float
	case FormatR8:
		return wgpu.TextureFormatR8Unorm
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

type pipelineKey struct {
	effect Effect
	format wgpu.TextureFormat
}

// WGPUBackend records fullscreen passes into one command encoder per frame.
type WGPUBackend struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	log       Logger
	sampler   *wgpu.Sampler
	modules   map[Effect]*wgpu.ShaderModule
	pipelines map[pipelineKey]*wgpu.RenderPipeline
	encoder   *wgpu.CommandEncoder
	garbage   []*wgpu.BindGroup
}

// NewWGPUBackend compiles the built-in effects on device.
func NewWGPUBackend(device *wgpu.Device, log Logger) (*WGPUBackend, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	if log == nil {
		log = nopLogger{}
	}
	b := &WGPUBackend{
		Device:    device,
		Queue:     device.GetQueue(),
		log:       log,
		modules:   make(map[Effect]*wgpu.ShaderModule),
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
	}

	var err error
	b.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	for effect, src := range EffectSources() {
		if err := b.RegisterEffect(effect, src); err != nil {
			b.Release()
			return nil, err
		}
	}
	return b, nil
}

// RegisterEffect compiles a fragment program for effect, replacing any
// previous one. Pipelines are built lazily per target format.
func (b *WGPUBackend) RegisterEffect(effect Effect, fragment string) error {
	module, err := b.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          effect.String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.WithCommon(fragment)},
	})
	if err != nil {
		return fmt.Errorf("compile %s: %w", effect, err)
	}
	if old := b.modules[effect]; old != nil {
		old.Release()
	}
	for key, p := range b.pipelines {
		if key.effect == effect {
			p.Release()
			delete(b.pipelines, key)
		}
	}
	b.modules[effect] = module
	return nil
}

func (b *WGPUBackend) pipeline(effect Effect, format wgpu.TextureFormat) *wgpu.RenderPipeline {
	key := pipelineKey{effect, format}
	if p := b.pipelines[key]; p != nil {
		return p
	}
	module := b.modules[effect]
	if module == nil {
		b.log.Warnf("effect %s is not registered", effect)
		return nil
	}
	p, err := b.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: effect.String() + " Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		b.log.Warnf("create %s pipeline: %v", effect, err)
		return nil
	}
	b.pipelines[key] = p
	return p
}

type wgpuTarget struct {
	label   string
	w, h    int
	format  Format
	wformat wgpu.TextureFormat
	texture *wgpu.Texture
	view    *wgpu.TextureView
	owned   bool
}

func (t *wgpuTarget) Width() int     { return t.w }
func (t *wgpuTarget) Height() int    { return t.h }
func (t *wgpuTarget) Format() Format { return t.format }
func (t *wgpuTarget) Label() string  { return t.label }

func (t *wgpuTarget) Release() {
	if !t.owned {
		return
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// WrapView exposes a texture view the caller owns, such as the current
// swapchain image, as a Target. Releasing it is a no-op.
func WrapView(label string, view *wgpu.TextureView, width, height int, format wgpu.TextureFormat) Target {
	if view == nil {
		return nil
	}
	return &wgpuTarget{label: label, w: width, h: height, wformat: format, view: view}
}

func (b *WGPUBackend) CreateTarget(label string, width, height int, format Format) Target {
	if width <= 0 || height <= 0 {
		return nil
	}
	wf := textureFormat(format)
	tex, err := b.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wf,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
		SampleCount:   1,
	})
	if err != nil {
		b.log.Warnf("create target %s: %v", label, err)
		return nil
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		b.log.Warnf("create view %s: %v", label, err)
		return nil
	}
	return &wgpuTarget{label: label, w: width, h: height, format: format, wformat: wf, texture: tex, view: view, owned: true}
}

type wgpuBuffer struct {
	buf  *wgpu.Buffer
	size int
}

func (b *wgpuBuffer) Size() int { return b.size }

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

func (b *WGPUBackend) CreateBuffer(label string, size int) Buffer {
	if size <= 0 {
		return nil
	}
	if size%UniformAlign != 0 {
		size += UniformAlign - size%UniformAlign
	}
	buf, err := b.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		b.log.Warnf("create buffer %s: %v", label, err)
		return nil
	}
	return &wgpuBuffer{buf: buf, size: size}
}

func (b *WGPUBackend) WriteBuffer(buf Buffer, data []byte) {
	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.buf == nil || len(data) == 0 {
		return
	}
	if len(data) > wb.size {
		data = data[:wb.size]
	}
	b.Queue.WriteBuffer(wb.buf, 0, data)
}

func (b *WGPUBackend) WriteTarget(t Target, pixels []byte) {
	wt, ok := t.(*wgpuTarget)
	if !ok || wt.texture == nil {
		return
	}
	stride := wt.w * wt.format.BytesPerPixel()
	if len(pixels) < stride*wt.h {
		b.log.Warnf("upload %s: %d bytes, want %d", wt.label, len(pixels), stride*wt.h)
		return
	}
	b.Queue.WriteTexture(wt.texture.AsImageCopy(), pixels, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(stride),
		RowsPerImage: uint32(wt.h),
	}, &wgpu.Extent3D{Width: uint32(wt.w), Height: uint32(wt.h), DepthOrArrayLayers: 1})
}

type wgpuPass struct {
	b        *WGPUBackend
	effect   Effect
	dst      *wgpuTarget
	clear    ClearPolicy
	inputs   []*wgpuTarget
	uniforms *wgpuBuffer
	drawn    bool
}

func (b *WGPUBackend) BeginPass(effect Effect, dst Target, clear ClearPolicy) Pass {
	wt, ok := dst.(*wgpuTarget)
	if !ok || wt.view == nil {
		return nil
	}
	if b.encoder == nil {
		enc, err := b.Device.CreateCommandEncoder(nil)
		if err != nil {
			b.log.Warnf("create command encoder: %v", err)
			return nil
		}
		b.encoder = enc
	}
	return &wgpuPass{b: b, effect: effect, dst: wt, clear: clear, inputs: make([]*wgpuTarget, effect.Inputs())}
}

func (p *wgpuPass) SetInput(slot int, t Target) {
	wt, ok := t.(*wgpuTarget)
	if !ok || slot < 0 || slot >= len(p.inputs) {
		return
	}
	p.inputs[slot] = wt
}

func (p *wgpuPass) SetUniforms(buf Buffer) {
	if wb, ok := buf.(*wgpuBuffer); ok {
		p.uniforms = wb
	}
}

func (p *wgpuPass) Draw() { p.drawn = true }

// End encodes the pass. Passes with a missing input or uniform block are skipped.
func (p *wgpuPass) End() {
	if !p.drawn {
		return
	}
	b := p.b
	pipeline := b.pipeline(p.effect, p.dst.wformat)
	if pipeline == nil {
		return
	}
	if p.uniforms == nil || p.uniforms.buf == nil {
		b.log.Warnf("%s: missing uniforms", p.effect)
		return
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: p.uniforms.buf, Size: wgpu.WholeSize},
		{Binding: 1, Sampler: b.sampler},
	}
	for i, in := range p.inputs {
		if in == nil || in.view == nil {
			b.log.Warnf("%s: missing input %d", p.effect, i)
			return
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(2 + i), TextureView: in.view})
	}
	layout := pipeline.GetBindGroupLayout(0)
	bg, err := b.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	})
	layout.Release()
	if err != nil {
		b.log.Warnf("%s bind group: %v", p.effect, err)
		return
	}
	b.garbage = append(b.garbage, bg)

	load := wgpu.LoadOpLoad
	if p.clear == ClearBlack {
		load = wgpu.LoadOpClear
	}
	pass := b.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: p.effect.String(),
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       p.dst.view,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Draw(3, 1, 0, 0)
	if err := pass.End(); err != nil {
		b.log.Warnf("%s pass end: %v", p.effect, err)
	}
	pass.Release()
}

// Submit finishes the frame's encoder and queues it.
func (b *WGPUBackend) Submit() {
	if b.encoder == nil {
		return
	}
	enc := b.encoder
	b.encoder = nil
	cmd, err := enc.Finish(nil)
	enc.Release()
	if err != nil {
		b.log.Warnf("encoder finish: %v", err)
	} else {
		b.Queue.Submit(cmd)
		cmd.Release()
	}
	for _, bg := range b.garbage {
		bg.Release()
	}
	b.garbage = b.garbage[:0]
}

func (b *WGPUBackend) Release() {
	for _, p := range b.pipelines {
		p.Release()
	}
	for _, m := range b.modules {
		m.Release()
	}
	if b.sampler != nil {
		b.sampler.Release()
	}
	b.pipelines = map[pipelineKey]*wgpu.RenderPipeline{}
	b.modules = map[Effect]*wgpu.ShaderModule{}
	b.sampler = nil
}
