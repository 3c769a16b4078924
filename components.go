package lumen

import (
	"math"

	"github.com/gekko3d/lumen/light2d/core"
	"github.com/gekko3d/lumen/light2d/post"
	"github.com/gekko3d/lumen/light2d/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent places an entity in the 2D world. Rotation is in
// radians, counter-clockwise; a zero Scale counts as (1,1).
type TransformComponent struct {
	Position mgl32.Vec2
	Rotation float32
	Scale    mgl32.Vec2
}

// Forward is the unit +X axis rotated by Rotation.
func (t TransformComponent) Forward() mgl32.Vec2 {
	s, c := math.Sincos(float64(t.Rotation))
	return mgl32.Vec2{float32(c), float32(s)}
}

func (t TransformComponent) shadowTransform() shadow.Transform {
	return shadow.Transform{Position: t.Position, Rotation: t.Rotation, Scale: t.Scale}
}

// CameraComponent is an orthographic camera. ViewportWidth and
// ViewportHeight are the world units visible at Zoom 1.
type CameraComponent struct {
	ViewportWidth  float32
	ViewportHeight float32
	Zoom           float32
	Active         bool
}

// View returns the post-processing camera for the given transform. Camera
// rotation is not applied to the view rectangle.
func (c CameraComponent) View(t TransformComponent) post.Camera {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return post.NewCamera(t.Position, c.ViewportWidth/zoom, c.ViewportHeight/zoom)
}

// ShadowCasterComponent attaches occluder geometry to an entity. A zero
// Caster.Opacity is fully opaque; a negative one casts no shadow.
type ShadowCasterComponent struct {
	Caster shadow.Caster
}

func (c ShadowCasterComponent) caster() shadow.Caster {
	out := c.Caster
	if out.Opacity == 0 {
		out.Opacity = 1
	}
	return out
}

// LightProbeComponent places a manual probe. Baked probes keep their color
// and intensity until invalidated.
type LightProbeComponent struct {
	InfluenceRadius float32
	Color           mgl32.Vec3
	Intensity       float32
	Baked           bool
}

func (p LightProbeComponent) probe(t TransformComponent) core.LightProbe {
	return core.LightProbe{
		Position:        t.Position,
		InfluenceRadius: p.InfluenceRadius,
		Color:           p.Color,
		Intensity:       p.Intensity,
		Baked:           p.Baked,
		NeedsUpdate:     !p.Baked,
	}
}

// PostProcessComponent holds the scene's post-processing settings. The first
// entity carrying one wins.
type PostProcessComponent struct {
	Settings post.Settings
}
