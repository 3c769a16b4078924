package lumen

import (
	"github.com/gekko3d/lumen/light2d/core"
	"github.com/gekko3d/lumen/light2d/gpu"
	"github.com/gekko3d/lumen/light2d/post"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultMaxLightsPerFrame = 64
	DefaultMaxLightsPerPixel = 16
	DefaultAreaLightSamples  = 4
)

type LightingModule struct {
	MaxLightsPerFrame int
	MaxLightsPerPixel int
	AreaLightSamples  int
	// Backend receives the packed light buffer every frame. Without one the
	// installed GPUContext is used, if any.
	Backend gpu.Backend
}

func (m LightingModule) Install(app *App, cmd *Commands) {
	sys := NewLightingSystem(m.MaxLightsPerFrame, m.MaxLightsPerPixel)
	if m.AreaLightSamples > 0 {
		sys.AreaLightSamples = m.AreaLightSamples
	}
	sys.backend = m.Backend
	cmd.AddResources(sys)
	app.useLightingStages()
	app.UseLifecycle(sys, LightingStage)
}

// LightingSystem gathers the scene lights each frame, culls them against the
// active camera, sorts them by priority and keeps at most MaxLightsPerFrame.
type LightingSystem struct {
	MaxLightsPerFrame int
	MaxLightsPerPixel int
	AreaLightSamples  int

	backend gpu.Backend
	buffer  gpu.Buffer
	log     Logger

	camera    post.Camera
	hasCamera bool
	view      core.AABB
	collected int

	lights     []core.Light
	areaLights []core.AreaLight
	zones      []core.AmbientZone
}

func NewLightingSystem(maxPerFrame, maxPerPixel int) *LightingSystem {
	s := &LightingSystem{
		MaxLightsPerFrame: DefaultMaxLightsPerFrame,
		MaxLightsPerPixel: DefaultMaxLightsPerPixel,
		AreaLightSamples:  DefaultAreaLightSamples,
		log:               NewNopLogger(),
		view:              core.InfiniteAABB(),
	}
	s.SetLimits(maxPerFrame, maxPerPixel)
	return s
}

// SetLimits changes the light caps. Non-positive values keep the current cap.
func (s *LightingSystem) SetLimits(maxPerFrame, maxPerPixel int) {
	if maxPerFrame > 0 {
		s.MaxLightsPerFrame = maxPerFrame
	}
	if maxPerPixel > 0 {
		s.MaxLightsPerPixel = maxPerPixel
	}
}

func (s *LightingSystem) OnCreate(cmd *Commands) {
	s.log = cmd.Logger()
	if s.backend == nil {
		s.backend = installedBackend(cmd.app)
	}
}

func (s *LightingSystem) OnUpdate(cmd *Commands, dt float32) {
	s.camera, s.hasCamera = activeCamera(cmd)
	camPos := mgl32.Vec2{}
	s.view = core.InfiniteAABB()
	if s.hasCamera {
		camPos = s.camera.Position
		s.view = s.camera.Bounds()
	}

	var all []core.Light
	MakeQuery2[TransformComponent, LightComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, l *LightComponent) bool {
		if !l.Disabled {
			all = append(all, l.light(*tr))
		}
		return true
	})

	s.areaLights = s.areaLights[:0]
	MakeQuery2[TransformComponent, AreaLightComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, a *AreaLightComponent) bool {
		area := a.areaLight(*tr)
		if !area.CastShadows {
			reach := area.Size.Mul(0.5).Add(mgl32.Vec2{area.Radius, area.Radius})
			if s.view.Overlaps(core.AABBFromCenter(area.Position, reach)) {
				s.areaLights = append(s.areaLights, area)
			}
			return true
		}
		samples := a.Samples
		if samples <= 0 {
			samples = s.AreaLightSamples
		}
		for _, l := range core.ConvertToPointLights(area, samples) {
			l.Priority = a.Priority
			all = append(all, l)
		}
		return true
	})

	s.collected = len(all)
	s.lights = core.PrepareLights(all, s.view, camPos, s.MaxLightsPerFrame)

	s.zones = s.zones[:0]
	MakeQuery2[TransformComponent, AmbientZoneComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, z *AmbientZoneComponent) bool {
		s.zones = append(s.zones, z.zone(*tr))
		return true
	})

	s.upload()
}

func (s *LightingSystem) upload() {
	if s.backend == nil {
		return
	}
	data := core.MarshalLights(s.lights)
	if s.buffer == nil || s.buffer.Size() < len(data) {
		gpu.ReleaseBuffer(s.buffer)
		size := 16 + max(s.MaxLightsPerFrame, len(s.lights))*core.LightUniformSize
		s.buffer = s.backend.CreateBuffer("lights", size)
		if s.buffer == nil {
			s.log.Warnf("lighting: skipping light upload: light buffer unavailable")
			return
		}
	}
	s.backend.WriteBuffer(s.buffer, data)
}

func (s *LightingSystem) OnDestroy(cmd *Commands) {
	gpu.ReleaseBuffer(s.buffer)
	s.buffer = nil
}

// Lights are this frame's visible lights, highest priority first.
func (s *LightingSystem) Lights() []core.Light { return s.lights }

// Collected is the number of lights gathered before culling and capping.
func (s *LightingSystem) Collected() int { return s.collected }

// AreaLights are the visible area lights that are evaluated directly.
func (s *LightingSystem) AreaLights() []core.AreaLight { return s.areaLights }

func (s *LightingSystem) Zones() []core.AmbientZone { return s.zones }

// Camera is the active camera of the last update.
func (s *LightingSystem) Camera() (post.Camera, bool) { return s.camera, s.hasCamera }

func (s *LightingSystem) View() core.AABB { return s.view }

// Buffer is the GPU light buffer, nil without a backend.
func (s *LightingSystem) Buffer() gpu.Buffer { return s.buffer }

// LightsAt returns up to MaxLightsPerPixel lights whose bounds cover point,
// in priority order.
func (s *LightingSystem) LightsAt(point mgl32.Vec2) []core.Light {
	var out []core.Light
	for _, l := range s.lights {
		if len(out) == s.MaxLightsPerPixel {
			break
		}
		if l.Type == core.LightTypeDirectional || core.CalculateLightBounds(l).Contains(point) {
			out = append(out, l)
		}
	}
	return out
}

// LightAt is the direct light reaching point on the given layers.
func (s *LightingSystem) LightAt(point mgl32.Vec2, normal *mgl32.Vec3, layer uint32) mgl32.Vec3 {
	sum := core.SumContributions(s.LightsAt(point), point, normal, layer)
	for _, a := range s.areaLights {
		sum = sum.Add(core.CalculateAreaLightColorContribution(a, point, layer))
	}
	return sum
}

// ShadowedLightAt is LightAt with each shadow casting point and spot light
// attenuated by the occlusion shadows reports. shadows may be nil.
func (s *LightingSystem) ShadowedLightAt(point mgl32.Vec2, layer uint32, shadows *ShadowSystem) mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, l := range s.LightsAt(point) {
		c := core.LightContribution(l, point, nil, layer)
		if shadows != nil && l.CastShadows && l.Type != core.LightTypeDirectional {
			c = c.Mul(1 - shadows.Occlusion(point, l.Position, l.ShadowSoftness))
		}
		sum = sum.Add(c)
	}
	for _, a := range s.areaLights {
		sum = sum.Add(core.CalculateAreaLightColorContribution(a, point, layer))
	}
	return sum
}

// AmbientAt blends the ambient zones covering point.
func (s *LightingSystem) AmbientAt(point mgl32.Vec2) mgl32.Vec4 {
	return core.BlendZoneColors(s.zones, point)
}

// activeCamera returns the first active camera, or the first camera when
// none is marked active.
func activeCamera(cmd *Commands) (post.Camera, bool) {
	var (
		cam   post.Camera
		found bool
	)
	MakeQuery2[TransformComponent, CameraComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, c *CameraComponent) bool {
		if !found || c.Active {
			cam, found = c.View(*tr), true
		}
		return !c.Active
	})
	return cam, found
}
