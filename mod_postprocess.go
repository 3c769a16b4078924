package lumen

import (
	"github.com/gekko3d/lumen/light2d/core"
	"github.com/gekko3d/lumen/light2d/gpu"
	"github.com/gekko3d/lumen/light2d/post"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameTargets are the render targets of the current frame. The window
// module fills Output with the swapchain view; the scene renderer owns the rest.
type FrameTargets struct {
	Scene    gpu.Target
	Emission gpu.Target
	Shadow   gpu.Target
	Output   gpu.Target
}

type PostProcessModule struct {
	Backend  gpu.Backend
	Settings *post.Settings
}

func (m PostProcessModule) Install(app *App, cmd *Commands) {
	sys := NewPostProcessSystem(m.Backend)
	if m.Settings != nil {
		sys.defaults = m.Settings.Validated()
	}
	if Resource[FrameTargets](app) == nil {
		cmd.AddResources(&FrameTargets{})
	}
	cmd.AddResources(sys)
	app.UseLifecycle(sys, Render)
}

// PostProcessSystem runs the post-processing pipeline over FrameTargets once
// per frame. Settings come from the first PostProcessComponent in the scene,
// falling back to the module defaults.
type PostProcessSystem struct {
	pipeline   *post.Pipeline
	hasBackend bool
	defaults   post.Settings
	settings   post.Settings
	lutPath    string
	lut        *post.LUT

	lighting *LightingSystem
	shadows  *ShadowSystem
	log      Logger

	camera     *post.Camera
	shaftLight *post.ShaftLight
	fogLights  []post.FogLight
	last       post.Result
}

func NewPostProcessSystem(backend gpu.Backend) *PostProcessSystem {
	d := post.DefaultSettings()
	return &PostProcessSystem{
		pipeline:   post.NewPipeline(backend, nil),
		hasBackend: backend != nil,
		defaults:   d,
		settings:   d,
		log:        NewNopLogger(),
	}
}

func (s *PostProcessSystem) OnCreate(cmd *Commands) {
	s.log = cmd.Logger()
	s.pipeline.SetLogger(s.log)
	if !s.hasBackend {
		if b := installedBackend(cmd.app); b != nil {
			s.SetBackend(b)
		}
	}
	s.lighting = Resource[LightingSystem](cmd.app)
	s.shadows = Resource[ShadowSystem](cmd.app)
}

func (s *PostProcessSystem) OnUpdate(cmd *Commands, dt float32) {
	s.settings = s.defaults
	MakeQuery1[PostProcessComponent](cmd).Map(func(eid EntityId, c *PostProcessComponent) bool {
		s.settings = c.Settings
		return false
	})
	s.syncLUT()
	s.gather(cmd)

	targets := Resource[FrameTargets](cmd.app)
	if targets == nil || targets.Scene == nil {
		s.last = post.Result{}
		return
	}
	s.last = s.pipeline.Execute(s.settings, post.Inputs{
		Scene:      targets.Scene,
		Emission:   targets.Emission,
		Shadow:     targets.Shadow,
		Output:     targets.Output,
		Camera:     s.camera,
		ShaftLight: s.shaftLight,
		FogLights:  s.fogLights,
	})
}

func (s *PostProcessSystem) OnDestroy(cmd *Commands) {
	s.pipeline.Shutdown()
}

// syncLUT reloads the grading table when LUTPath changes. A table that fails
// to load leaves grading without a lookup.
func (s *PostProcessSystem) syncLUT() {
	if s.settings.LUTPath == s.lutPath {
		return
	}
	s.lutPath = s.settings.LUTPath
	s.lut = nil
	if s.lutPath != "" {
		lut, err := post.LoadLUT(s.lutPath)
		if err != nil {
			s.log.Warnf("post: lut disabled: %v", err)
		} else {
			s.lut = lut
		}
	}
	s.pipeline.SetLUT(s.lut)
}

// gather picks the camera, the light the shafts radiate from and the fog
// lights. The shaft light is the highest priority visible point or spot light.
func (s *PostProcessSystem) gather(cmd *Commands) {
	s.camera, s.shaftLight, s.fogLights = nil, nil, s.fogLights[:0]

	var lights []core.Light
	if s.lighting != nil {
		lights = s.lighting.Lights()
		if cam, ok := s.lighting.Camera(); ok {
			s.camera = &cam
		}
	} else if cam, ok := activeCamera(cmd); ok {
		s.camera = &cam
	}

	for _, l := range lights {
		if l.Type == core.LightTypeDirectional {
			continue
		}
		if s.shaftLight == nil {
			s.shaftLight = &post.ShaftLight{
				Position:  l.Position,
				Color:     l.Color.Vec3(),
				Intensity: l.Intensity,
			}
		}
		s.fogLights = append(s.fogLights, post.FogLight{
			Position: l.Position,
			Radius:   l.Radius,
			Strength: l.Intensity,
		})
	}
}

// SetSettings replaces the fallback settings used when no entity carries a
// PostProcessComponent.
func (s *PostProcessSystem) SetSettings(settings post.Settings) {
	s.defaults = settings.Validated()
}

// Settings are the settings of the last frame, before validation.
func (s *PostProcessSystem) Settings() post.Settings { return s.settings }

func (s *PostProcessSystem) SetQuality(q post.Quality) { s.pipeline.SetQuality(q) }

func (s *PostProcessSystem) Quality() post.Quality { return s.pipeline.Quality() }

// SetBackend moves the pipeline to a new device, releasing the old targets.
func (s *PostProcessSystem) SetBackend(b gpu.Backend) {
	s.pipeline.SetBackend(b)
	s.hasBackend = b != nil
}

func (s *PostProcessSystem) Pipeline() *post.Pipeline { return s.pipeline }

// LastResult reports which stages ran in the last frame.
func (s *PostProcessSystem) LastResult() post.Result { return s.last }

// ProcessImage runs the chain on the CPU with this frame's camera, lights,
// LUT and shadows. Quality caps apply as on the GPU path.
func (s *PostProcessSystem) ProcessImage(src *post.HDRImage) *post.HDRImage {
	settings := s.settings.Validated()
	q := s.pipeline.Quality()
	settings.EnableBloom = settings.EnableBloom && q.Bloom
	settings.EnableLightShafts = settings.EnableLightShafts && q.LightShafts
	settings.EnableFog = settings.EnableFog && q.Fog
	settings.EnableColorGrading = settings.EnableColorGrading && q.ColorGrading

	in := post.CPUInputs{
		Camera:    s.camera,
		Light:     s.shaftLight,
		FogLights: s.fogLights,
		LUT:       s.lut,
	}
	if s.shadows != nil && s.camera != nil && s.shaftLight != nil {
		cam, lightPos := *s.camera, s.shaftLight.Position
		in.Occlusion = func(uv mgl32.Vec2) float32 {
			return s.shadows.Occlusion(cam.ScreenUVToWorld(uv), lightPos, 1)
		}
	}
	return post.ProcessImage(src, settings, in)
}
