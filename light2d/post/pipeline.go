package post

import (
	"fmt"

	"github.com/gekko3d/lumen/light2d/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Logger is the subset of logging the pipeline needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

type Stage uint8

const (
	StageBloom Stage = iota
	StageLightShafts
	StageFog
	StageToneMapping
	StageColorGrading
	StageBlit
)

func (s Stage) String() string {
	switch s {
	case StageBloom:
		return "bloom"
	case StageLightShafts:
		return "light shafts"
	case StageFog:
		return "fog"
	case StageToneMapping:
		return "tone mapping"
	case StageColorGrading:
		return "color grading"
	case StageBlit:
		return "blit"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Quality caps what the settings may ask for. It is pushed by the quality
// manager and applied on top of the per-frame settings.
type Quality struct {
	Bloom              bool
	LightShafts        bool
	Fog                bool
	ColorGrading       bool
	RenderScale        float32
	MaxBloomIterations int
	MaxShaftSamples    int
}

func FullQuality() Quality {
	return Quality{
		Bloom:              true,
		LightShafts:        true,
		Fog:                true,
		ColorGrading:       true,
		RenderScale:        1,
		MaxBloomIterations: MaxBloomIterations,
		MaxShaftSamples:    MaxShaftSamples,
	}
}

// Inputs are the per-frame buffers and scene data. Only Scene is required.
type Inputs struct {
	Scene    gpu.Target
	Emission gpu.Target
	// Shadow is an occlusion buffer sampled by the light-shaft pass, 1 = fully shadowed.
	Shadow gpu.Target
	// Output receives a final blit when set.
	Output gpu.Target

	Camera     *Camera
	ShaftLight *ShaftLight
	FogLights  []FogLight
}

type Result struct {
	Final  gpu.Target
	Stages []Stage
}

const uniformBlockSize = 256

// Pipeline owns every intermediate target. Targets are created on first use
// and kept until the internal resolution changes or Shutdown is called.
type Pipeline struct {
	backend gpu.Backend
	log     Logger
	quality Quality

	width, height int
	targets       map[string]gpu.Target

	uniforms    []gpu.Buffer
	nextUniform int

	black     gpu.Target
	lut       *LUT
	lutTarget gpu.Target
	lutID     uuid.UUID // ID of the table in lutTarget
}

func NewPipeline(backend gpu.Backend, log Logger) *Pipeline {
	if log == nil {
		log = nopLogger{}
	}
	return &Pipeline{
		backend: backend,
		log:     log,
		quality: FullQuality(),
		targets: make(map[string]gpu.Target),
	}
}

// SetBackend swaps the device. Every resource of the old backend is released.
func (p *Pipeline) SetBackend(b gpu.Backend) {
	p.Shutdown()
	p.backend = b
}

func (p *Pipeline) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	p.log = l
}

func (p *Pipeline) Quality() Quality { return p.quality }

func (p *Pipeline) SetQuality(q Quality) {
	if q.RenderScale <= 0 {
		q.RenderScale = 1
	}
	q.RenderScale = mgl32.Clamp(q.RenderScale, 0.1, 2)
	p.quality = q
}

// SetLUT replaces the color grading table. nil disables the lookup. The
// table is uploaded again only when its ID differs from the uploaded one, so
// give a LUT a new ID after editing Data in place.
func (p *Pipeline) SetLUT(l *LUT) {
	if l != nil && l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	p.lut = l
}

// Size is the internal resolution of the intermediate targets.
func (p *Pipeline) Size() (int, int) { return p.width, p.height }

// Targets is the number of live intermediate targets.
func (p *Pipeline) Targets() int { return len(p.targets) }

func (p *Pipeline) resize(w, h int) {
	if w == p.width && h == p.height {
		return
	}
	if p.width != 0 {
		p.log.Debugf("post: resize %dx%d -> %dx%d", p.width, p.height, w, h)
	}
	p.releaseTargets()
	p.width, p.height = w, h
}

func (p *Pipeline) releaseTargets() {
	for k, t := range p.targets {
		t.Release()
		delete(p.targets, k)
	}
}

// Shutdown releases every resource the pipeline created.
func (p *Pipeline) Shutdown() {
	p.releaseTargets()
	gpu.Release(p.black)
	gpu.Release(p.lutTarget)
	p.black, p.lutTarget = nil, nil
	p.lutID = uuid.Nil
	for _, b := range p.uniforms {
		b.Release()
	}
	p.uniforms = nil
	p.width, p.height = 0, 0
}

func (p *Pipeline) target(label string, w, h int) gpu.Target {
	w, h = max(w, 1), max(h, 1)
	if t := p.targets[label]; t != nil {
		if t.Width() == w && t.Height() == h {
			return t
		}
		t.Release()
		delete(p.targets, label)
	}
	t := p.backend.CreateTarget(label, w, h, gpu.FormatRGBA16F)
	if t == nil {
		return nil
	}
	p.targets[label] = t
	return t
}

func (p *Pipeline) uniform(data []byte) gpu.Buffer {
	if p.nextUniform == len(p.uniforms) {
		b := p.backend.CreateBuffer(fmt.Sprintf("post uniforms %d", p.nextUniform), uniformBlockSize)
		if b == nil {
			return nil
		}
		p.uniforms = append(p.uniforms, b)
	}
	b := p.uniforms[p.nextUniform]
	p.nextUniform++
	p.backend.WriteBuffer(b, data)
	return b
}

func (p *Pipeline) blackTarget() gpu.Target {
	if p.black == nil {
		p.black = p.backend.CreateTarget("black", 1, 1, gpu.FormatRGBA8)
		if p.black != nil {
			p.backend.WriteTarget(p.black, []byte{0, 0, 0, 255})
		}
	}
	return p.black
}

func (p *Pipeline) lutTexture() gpu.Target {
	if p.lut == nil {
		return nil
	}
	if p.lutTarget != nil && p.lutID == p.lut.ID {
		return p.lutTarget
	}
	gpu.Release(p.lutTarget)
	p.lutID = uuid.Nil
	n := p.lut.Size
	p.lutTarget = p.backend.CreateTarget("lut", n*n, n, gpu.FormatRGBA8)
	if p.lutTarget == nil {
		return nil
	}
	p.backend.WriteTarget(p.lutTarget, p.lut.Strip().Pix)
	p.lutID = p.lut.ID
	return p.lutTarget
}

// draw records one fullscreen pass. It reports false when the destination,
// an input or the uniform block is unavailable.
func (p *Pipeline) draw(effect gpu.Effect, dst gpu.Target, inputs []gpu.Target, uniforms []byte) bool {
	if dst == nil {
		return false
	}
	for _, in := range inputs {
		if in == nil {
			return false
		}
	}
	ub := p.uniform(uniforms)
	if ub == nil {
		return false
	}
	pass := p.backend.BeginPass(effect, dst, gpu.ClearBlack)
	if pass == nil {
		return false
	}
	for i, in := range inputs {
		pass.SetInput(i, in)
	}
	pass.SetUniforms(ub)
	pass.Draw()
	pass.End()
	return true
}

// effective applies the quality caps to validated settings.
func (p *Pipeline) effective(settings Settings) Settings {
	s := settings.Validated()
	q := p.quality
	s.EnableBloom = s.EnableBloom && q.Bloom
	s.EnableLightShafts = s.EnableLightShafts && q.LightShafts
	s.EnableFog = s.EnableFog && q.Fog
	s.EnableColorGrading = s.EnableColorGrading && q.ColorGrading
	if q.MaxBloomIterations > 0 {
		s.BloomIterations = max(MinBloomIterations, min(s.BloomIterations, q.MaxBloomIterations))
	}
	if q.MaxShaftSamples > 0 {
		s.LightShaftSamples = max(MinShaftSamples, min(s.LightShaftSamples, q.MaxShaftSamples))
	}
	return s
}

// Execute runs Bloom, LightShafts, Fog, ToneMapping and ColorGrading in that
// order, each enabled stage reading the previous stage's output. A stage whose
// resources are missing is logged and skipped for this frame.
func (p *Pipeline) Execute(settings Settings, in Inputs) Result {
	res := Result{Final: in.Scene}
	if p.backend == nil {
		p.log.Warnf("post: skipping frame: no gpu backend")
		return res
	}
	if in.Scene == nil {
		p.log.Warnf("post: skipping frame: no scene target")
		return res
	}
	s := p.effective(settings)

	scale := p.quality.RenderScale
	if scale <= 0 {
		scale = 1
	}
	p.resize(max(1, int(float32(in.Scene.Width())*scale+0.5)), max(1, int(float32(in.Scene.Height())*scale+0.5)))
	p.nextUniform = 0

	cur := in.Scene
	run := func(stage Stage, out gpu.Target) {
		if out != nil {
			cur = out
			res.Stages = append(res.Stages, stage)
		}
	}

	if s.EnableBloom {
		run(StageBloom, p.bloom(cur, in.Emission, &s))
	}
	if s.EnableLightShafts {
		run(StageLightShafts, p.lightShafts(cur, in, &s))
	}
	if s.EnableFog {
		run(StageFog, p.fog(cur, in, &s))
	}
	if s.ToneMapping != ToneMapNone {
		run(StageToneMapping, p.toneMap(cur, &s))
	}
	if s.EnableColorGrading {
		run(StageColorGrading, p.colorGrade(cur, &s))
	}

	res.Final = cur
	if in.Output != nil {
		if p.draw(gpu.EffectBlit, in.Output, []gpu.Target{cur}, gpu.Float32sToBytes(1)) {
			res.Stages = append(res.Stages, StageBlit)
			res.Final = in.Output
		} else {
			p.log.Warnf("post: skipping blit: output unavailable")
		}
	}
	p.backend.Submit()
	return res
}

func (p *Pipeline) skip(stage Stage, what string) gpu.Target {
	p.log.Warnf("post: skipping %s: %s unavailable", stage, what)
	return nil
}

func (p *Pipeline) bloom(scene, emission gpu.Target, s *Settings) gpu.Target {
	w, h := p.width, p.height
	if emission == nil {
		emission = p.blackTarget()
	}
	extract := p.target("bloom_extract", w, h)
	if !p.draw(gpu.EffectBloomExtract, extract, []gpu.Target{scene, emission},
		gpu.Float32sToBytes(s.BloomThreshold, s.BloomThreshold*s.BloomSoftKnee, s.EmissionWeight)) {
		return p.skip(StageBloom, "bloom_extract")
	}

	n := BloomIterations(s.BloomIterations, w, h)
	mips := make([]gpu.Target, 0, n)
	prev := extract
	for i := range n {
		label := fmt.Sprintf("bloom_mip_%d", i)
		mip := p.target(label, w>>(i+1), h>>(i+1))
		if !p.draw(gpu.EffectDownsample, mip, []gpu.Target{prev},
			gpu.Float32sToBytes(1/float32(prev.Width()), 1/float32(prev.Height()))) {
			return p.skip(StageBloom, label)
		}
		mips = append(mips, mip)
		prev = mip
	}

	bloom := extract
	if n > 0 {
		low := mips[n-1]
		for j := n - 2; j >= -1; j-- {
			high, label := extract, "bloom"
			if j >= 0 {
				high, label = mips[j], fmt.Sprintf("bloom_up_%d", j)
			}
			up := p.target(label, high.Width(), high.Height())
			if !p.draw(gpu.EffectUpsample, up, []gpu.Target{low, high},
				gpu.Float32sToBytes(1/float32(low.Width()), 1/float32(low.Height()), s.BloomRadius)) {
				return p.skip(StageBloom, label)
			}
			low = up
		}
		bloom = low
	}

	out := p.target("bloom_composite", w, h)
	t := s.BloomTint
	if !p.draw(gpu.EffectBloomComposite, out, []gpu.Target{scene, bloom},
		gpu.Float32sToBytes(s.BloomIntensity, 0, 0, 0, t[0], t[1], t[2], t[3])) {
		return p.skip(StageBloom, "bloom_composite")
	}
	return out
}

func (p *Pipeline) lightShafts(scene gpu.Target, in Inputs, s *Settings) gpu.Target {
	if in.ShaftLight == nil || in.Camera == nil {
		p.log.Debugf("post: skipping %s: no light or camera", StageLightShafts)
		return nil
	}
	occ, useOcc := in.Shadow, float32(1)
	if occ == nil {
		occ, useOcc = p.blackTarget(), 0
	}
	uv := in.Camera.WorldToScreenUV(in.ShaftLight.Position)
	tint := in.ShaftLight.Color.Mul(in.ShaftLight.Intensity * s.LightShaftIntensity)
	out := p.target("light_shafts", p.width, p.height)
	if !p.draw(gpu.EffectLightShafts, out, []gpu.Target{scene, occ}, gpu.Float32sToBytes(
		uv.X(), uv.Y(), s.LightShaftDensity, s.LightShaftDecay,
		s.LightShaftWeight, s.LightShaftExposure, float32(s.LightShaftSamples), useOcc,
		tint[0], tint[1], tint[2], 0,
	)) {
		return p.skip(StageLightShafts, "light_shafts")
	}
	return out
}

func (p *Pipeline) fog(scene gpu.Target, in Inputs, s *Settings) gpu.Target {
	if in.Camera == nil {
		p.log.Debugf("post: skipping %s: no camera", StageFog)
		return nil
	}
	lights := in.FogLights
	if !s.EnableFogPenetration {
		lights = nil
	}
	if len(lights) > MaxFogLights {
		lights = lights[:MaxFogLights]
	}
	height := float32(0)
	if s.EnableHeightFog {
		height = 1
	}
	c, h := in.Camera.Position, in.Camera.half()
	vals := []float32{
		float32(s.FogMode), s.FogStart, s.FogEnd, s.FogDensity,
		s.FogColor[0], s.FogColor[1], s.FogColor[2], s.FogColor[3],
		height, s.HeightFogBase, s.HeightFogDensity, float32(len(lights)),
		c.X(), c.Y(), h.X(), h.Y(),
		s.FogPenetrationMax, 0, 0, 0,
	}
	for i := range MaxFogLights {
		if i < len(lights) {
			l := lights[i]
			vals = append(vals, l.Position.X(), l.Position.Y(), l.Radius, l.Strength)
		} else {
			vals = append(vals, 0, 0, 0, 0)
		}
	}
	out := p.target("fog", p.width, p.height)
	if !p.draw(gpu.EffectFog, out, []gpu.Target{scene}, gpu.Float32sToBytes(vals...)) {
		return p.skip(StageFog, "fog")
	}
	return out
}

func (p *Pipeline) toneMap(scene gpu.Target, s *Settings) gpu.Target {
	out := p.target("tone_mapping", p.width, p.height)
	if !p.draw(gpu.EffectToneMapping, out, []gpu.Target{scene}, gpu.Float32sToBytes(float32(s.ToneMapping), s.Gamma)) {
		return p.skip(StageToneMapping, "tone_mapping")
	}
	return out
}

func (p *Pipeline) colorGrade(scene gpu.Target, s *Settings) gpu.Target {
	lut := p.lutTexture()
	intensity, size := s.LUTIntensity, float32(1)
	if lut == nil {
		lut, intensity = p.blackTarget(), 0
	} else {
		size = float32(p.lut.Size)
	}
	out := p.target("color_grading", p.width, p.height)
	if !p.draw(gpu.EffectColorGrading, out, []gpu.Target{scene, lut},
		gpu.Float32sToBytes(s.Exposure, s.Contrast, s.Saturation, intensity, size)) {
		return p.skip(StageColorGrading, "color_grading")
	}
	return out
}
