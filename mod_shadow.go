package lumen

import (
	"github.com/gekko3d/lumen/light2d/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultShadowMapResolution = 1024

type ShadowModule struct {
	Method              shadow.Method
	ShadowMapResolution int
	DisableCache        bool
}

func (m ShadowModule) Install(app *App, cmd *Commands) {
	sys := NewShadowSystem(m.Method)
	sys.Configure(m.Method, m.ShadowMapResolution, !m.DisableCache)
	cmd.AddResources(sys)
	app.useLightingStages()
	app.UseLifecycle(sys, ShadowStage)
}

// ShadowSystem keeps shadow geometry for every ShadowCasterComponent up to
// date. Casters are refreshed before any occlusion query of the frame.
type ShadowSystem struct {
	Renderer *shadow.Renderer

	shadowMapResolution int
	log                 Logger
}

func NewShadowSystem(method shadow.Method) *ShadowSystem {
	return &ShadowSystem{
		Renderer:            shadow.NewRenderer(method),
		shadowMapResolution: DefaultShadowMapResolution,
		log:                 NewNopLogger(),
	}
}

// Configure applies the quality parameters. The field resolution used by the
// SDF method follows the shadow map resolution at 1/16 scale.
func (s *ShadowSystem) Configure(method shadow.Method, shadowMapResolution int, cache bool) {
	if shadowMapResolution > 0 {
		s.shadowMapResolution = shadowMapResolution
	}
	if s.Renderer.Method() != method {
		s.Renderer.SetMethod(method)
	}
	s.Renderer.SetCacheEnabled(cache)
	s.Renderer.SetResolution(sdfResolutionFor(s.shadowMapResolution))
}

func sdfResolutionFor(shadowMapResolution int) int {
	return shadowMapResolution / 16
}

func (s *ShadowSystem) ShadowMapResolution() int { return s.shadowMapResolution }

func (s *ShadowSystem) OnCreate(cmd *Commands) {
	s.log = cmd.Logger()
}

func (s *ShadowSystem) OnUpdate(cmd *Commands, dt float32) {
	r := s.Renderer
	r.BeginFrame()
	if r.Method() == shadow.MethodNone {
		return
	}
	MakeQuery2[TransformComponent, ShadowCasterComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, c *ShadowCasterComponent) bool {
		r.Update(uint64(eid), c.caster(), tr.shadowTransform())
		return true
	})
	if n := r.Prune(); n > 0 {
		s.log.Debugf("shadow: dropped %d caster records", n)
	}
}

func (s *ShadowSystem) OnDestroy(cmd *Commands) {
	s.Renderer.InvalidateAll()
}

// Invalidate forces the caster of eid to regenerate on the next update.
func (s *ShadowSystem) Invalidate(eid EntityId) {
	s.Renderer.Invalidate(uint64(eid))
}

// Occlusion is the shadow factor in [0,1] at point for a light at lightPos.
// softness scales the SDF penumbra; 0 means the default width.
func (s *ShadowSystem) Occlusion(point, lightPos mgl32.Vec2, softness float32) float32 {
	if s.Renderer.Method() == shadow.MethodNone {
		return 0
	}
	return s.Renderer.Occlusion(point, lightPos, softness)
}

func (s *ShadowSystem) Stats() shadow.Stats { return s.Renderer.Stats() }
