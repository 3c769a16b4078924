package lumen

import (
	"github.com/gekko3d/lumen/light2d/core"
	"github.com/go-gl/mathgl/mgl32"
)

// LightComponent is the ECS component for point, spot and directional
// lights. Position comes from the transform; spot and directional lights
// point along TransformComponent.Forward.
type LightComponent struct {
	Type        core.LightType
	Color       mgl32.Vec4
	Intensity   float32
	Radius      float32
	InnerAngle  float32 // degrees, spot only
	OuterAngle  float32 // degrees, spot only
	LayerMask   uint32
	Attenuation core.AttenuationType
	CastShadows bool
	Priority    int
	Disabled    bool
}

func (l LightComponent) light(t TransformComponent) core.Light {
	return core.Light{
		Position:    t.Position,
		Direction:   t.Forward(),
		Color:       l.Color,
		Intensity:   max(l.Intensity, 0),
		Radius:      l.Radius,
		InnerAngle:  mgl32.DegToRad(l.InnerAngle),
		OuterAngle:  mgl32.DegToRad(l.OuterAngle),
		Type:        l.Type,
		LayerMask:   l.LayerMask,
		Attenuation: l.Attenuation,
		CastShadows: l.CastShadows,
		Priority:    l.Priority,
	}
}

// AreaLightComponent is a rectangle or disc emitter. Shadow casting area
// lights are split into Samples point lights so they go through the same
// culling and shadow path as ordinary lights.
type AreaLightComponent struct {
	Shape          core.AreaLightShape
	Size           mgl32.Vec2
	Color          mgl32.Vec4
	Intensity      float32
	Radius         float32
	LayerMask      uint32
	Attenuation    core.AttenuationType
	ShadowSoftness float32
	CastShadows    bool
	Samples        int
	Priority       int
}

func (a AreaLightComponent) areaLight(t TransformComponent) core.AreaLight {
	return core.AreaLight{
		Position:       t.Position,
		Size:           a.Size,
		Color:          a.Color,
		Intensity:      max(a.Intensity, 0),
		Radius:         a.Radius,
		Shape:          a.Shape,
		LayerMask:      a.LayerMask,
		Attenuation:    a.Attenuation,
		ShadowSoftness: a.ShadowSoftness,
		CastShadows:    a.CastShadows,
	}
}

// AmbientZoneComponent colors the ambient term inside a region centered on
// the entity.
type AmbientZoneComponent struct {
	Size           mgl32.Vec2
	PrimaryColor   mgl32.Vec4
	SecondaryColor mgl32.Vec4
	Intensity      float32
	EdgeSoftness   float32
	GradientMode   core.GradientMode
	Shape          core.ZoneShape
	Priority       int
	BlendWeight    float32
}

func (z AmbientZoneComponent) zone(t TransformComponent) core.AmbientZone {
	return core.AmbientZone{
		Position:       t.Position,
		Size:           z.Size,
		PrimaryColor:   z.PrimaryColor,
		SecondaryColor: z.SecondaryColor,
		Intensity:      z.Intensity,
		EdgeSoftness:   z.EdgeSoftness,
		GradientMode:   z.GradientMode,
		Shape:          z.Shape,
		Priority:       z.Priority,
		BlendWeight:    z.BlendWeight,
	}
}
