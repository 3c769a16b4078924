package lumen

import (
	"github.com/gekko3d/lumen/light2d/core"
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultProbeUpdateFrequency = 0.5

// LightProbeModule installs the probe system. With Grid set, probes are laid
// out automatically over it and manual LightProbeComponents are ignored.
type LightProbeModule struct {
	Grid            *core.AABB
	Spacing         float32
	InfluenceRadius float32
	UpdateFrequency float32
	DisableRealtime bool
}

func (m LightProbeModule) Install(app *App, cmd *Commands) {
	sys := NewLightProbeSystem(m.UpdateFrequency, !m.DisableRealtime)
	if m.Grid != nil {
		sys.UseGrid(*m.Grid, m.Spacing, m.InfluenceRadius)
	}
	cmd.AddResources(sys)
	app.useLightingStages()
	app.UseLifecycle(sys, ProbeStage)
}

// LightProbeSystem samples indirect light into probes and interpolates it
// at query points. Realtime probes resample from the lighting system every
// UpdateFrequency seconds.
type LightProbeSystem struct {
	set      *core.ProbeSet
	grid     bool
	manual   []EntityId
	dirty    bool
	lighting *LightingSystem
	shadows  *ShadowSystem
	log      Logger
}

func NewLightProbeSystem(updateFrequency float32, realtime bool) *LightProbeSystem {
	if updateFrequency <= 0 {
		updateFrequency = DefaultProbeUpdateFrequency
	}
	return &LightProbeSystem{
		set: &core.ProbeSet{UpdateFrequency: updateFrequency, RealtimeEnabled: realtime},
		log: NewNopLogger(),
	}
}

// UseGrid replaces the probes with a generated grid over bounds.
func (s *LightProbeSystem) UseGrid(bounds core.AABB, spacing, influenceRadius float32) {
	g := core.GenerateProbeGrid(bounds, spacing, influenceRadius)
	g.UpdateFrequency, g.RealtimeEnabled = s.set.UpdateFrequency, s.set.RealtimeEnabled
	s.set, s.grid = g, true
}

func (s *LightProbeSystem) OnCreate(cmd *Commands) {
	s.log = cmd.Logger()
	s.lighting = Resource[LightingSystem](cmd.app)
	s.shadows = Resource[ShadowSystem](cmd.app)
	if s.lighting == nil {
		s.log.Warnf("probes: no lighting system, realtime probes stay unlit")
	}
}

func (s *LightProbeSystem) OnUpdate(cmd *Commands, dt float32) {
	if !s.grid {
		s.syncManual(cmd)
	}
	if s.lighting == nil {
		return
	}
	if n := s.set.Update(dt, s.sample); n > 0 && !s.grid {
		s.dirty = false
		s.writeBack(cmd)
	}
}

func (s *LightProbeSystem) OnDestroy(cmd *Commands) {}

// syncManual rebuilds the probe list from the components. Sampled values
// live on the components, so nothing is lost between frames.
func (s *LightProbeSystem) syncManual(cmd *Commands) {
	s.set.Probes = s.set.Probes[:0]
	s.manual = s.manual[:0]
	MakeQuery2[TransformComponent, LightProbeComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, p *LightProbeComponent) bool {
		s.set.Probes = append(s.set.Probes, p.probe(*tr))
		s.manual = append(s.manual, eid)
		return true
	})
	if s.dirty {
		s.set.MarkAllDirty()
	}
}

func (s *LightProbeSystem) writeBack(cmd *Commands) {
	i := 0
	MakeQuery2[TransformComponent, LightProbeComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, p *LightProbeComponent) bool {
		if i >= len(s.manual) || s.manual[i] != eid {
			return false
		}
		probe := s.set.Probes[i]
		p.Color, p.Intensity, p.Baked = probe.Color, probe.Intensity, probe.Baked
		i++
		return true
	})
}

// Bake samples every probe now and marks it baked.
func (s *LightProbeSystem) Bake(cmd *Commands) {
	if s.lighting == nil {
		s.log.Warnf("probes: skipping bake: no lighting system")
		return
	}
	if !s.grid {
		s.syncManual(cmd)
	}
	s.set.Bake(s.sample)
	if !s.grid {
		s.dirty = false
		s.writeBack(cmd)
	}
}

// Invalidate makes every probe resample on the next realtime tick.
func (s *LightProbeSystem) Invalidate() {
	s.dirty = !s.grid
	s.set.MarkAllDirty()
}

func (s *LightProbeSystem) sample(pos mgl32.Vec2) (mgl32.Vec3, float32) {
	sum := s.lighting.ShadowedLightAt(pos, core.AllLayers, s.shadows)
	sum = sum.Add(s.lighting.AmbientAt(pos).Vec3())

	peak := max(sum[0], sum[1], sum[2])
	if peak <= 0 {
		return mgl32.Vec3{}, 0
	}
	return sum.Mul(1 / peak), peak
}

// Sample is the interpolated indirect light at point, color times intensity.
// ok is false when no probe covers point.
func (s *LightProbeSystem) Sample(point mgl32.Vec2) (mgl32.Vec3, bool) {
	ps, ok := s.set.InterpolateAt(point)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return ps.Color.Mul(ps.Intensity), true
}

// Probes is the current probe set.
func (s *LightProbeSystem) Probes() *core.ProbeSet { return s.set }
