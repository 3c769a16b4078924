package post

import (
	"github.com/gekko3d/lumen/light2d/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is an orthographic 2D view. World +Y is up; screen UV has (0,0)
// at the top-left corner.
type Camera struct {
	Position    mgl32.Vec2
	HalfExtents mgl32.Vec2
}

// NewCamera builds a camera showing width x height world units.
func NewCamera(pos mgl32.Vec2, width, height float32) Camera {
	return Camera{Position: pos, HalfExtents: mgl32.Vec2{width * 0.5, height * 0.5}}
}

func (c Camera) half() mgl32.Vec2 {
	return mgl32.Vec2{max(c.HalfExtents.X(), 1e-6), max(c.HalfExtents.Y(), 1e-6)}
}

func (c Camera) WorldToScreenUV(p mgl32.Vec2) mgl32.Vec2 {
	h := c.half()
	d := p.Sub(c.Position)
	return mgl32.Vec2{0.5 + 0.5*d.X()/h.X(), 0.5 - 0.5*d.Y()/h.Y()}
}

func (c Camera) ScreenUVToWorld(uv mgl32.Vec2) mgl32.Vec2 {
	h := c.half()
	return mgl32.Vec2{
		c.Position.X() + (uv.X()*2-1)*h.X(),
		c.Position.Y() + (1-uv.Y()*2)*h.Y(),
	}
}

// Bounds is the visible world rectangle.
func (c Camera) Bounds() core.AABB {
	return core.AABB{Min: c.Position.Sub(c.HalfExtents), Max: c.Position.Add(c.HalfExtents)}
}

// ShaftLight is the light a light-shaft pass radiates from.
type ShaftLight struct {
	Position  mgl32.Vec2
	Color     mgl32.Vec3
	Intensity float32
}

// ShaftParams controls the radial blur.
type ShaftParams struct {
	Samples  int
	Density  float32
	Decay    float32
	Weight   float32
	Exposure float32
}

func (s *Settings) ShaftParams() ShaftParams {
	return ShaftParams{
		Samples:  s.LightShaftSamples,
		Density:  s.LightShaftDensity,
		Decay:    s.LightShaftDecay,
		Weight:   s.LightShaftWeight,
		Exposure: s.LightShaftExposure,
	}
}

// RadialBlur marches from uv toward lightUV, accumulating scene samples with
// exponential decay. occlusion returns the shadow value in [0,1] at a UV and
// may be nil for an unoccluded march.
func RadialBlur(uv, lightUV mgl32.Vec2, p ShaftParams, scene func(mgl32.Vec2) mgl32.Vec3, occlusion func(mgl32.Vec2) float32) mgl32.Vec3 {
	if p.Samples <= 0 || scene == nil {
		return mgl32.Vec3{}
	}
	delta := uv.Sub(lightUV).Mul(p.Density / float32(p.Samples))
	coord := uv
	decay := float32(1)
	var sum mgl32.Vec3
	for range p.Samples {
		coord = coord.Sub(delta)
		s := scene(coord)
		if occlusion != nil {
			s = s.Mul(1 - mgl32.Clamp(occlusion(coord), 0, 1))
		}
		sum = sum.Add(s.Mul(decay * p.Weight))
		decay *= p.Decay
	}
	return sum.Mul(p.Exposure)
}

// LightShaftSample is the shaft color added at uv for light.
func LightShaftSample(uv mgl32.Vec2, light ShaftLight, cam Camera, p ShaftParams, scene func(mgl32.Vec2) mgl32.Vec3, occlusion func(mgl32.Vec2) float32) mgl32.Vec3 {
	blur := RadialBlur(uv, cam.WorldToScreenUV(light.Position), p, scene, occlusion)
	tint := light.Color.Mul(light.Intensity)
	return mgl32.Vec3{blur[0] * tint[0], blur[1] * tint[1], blur[2] * tint[2]}
}
