package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MinRadius is the floor applied to radii and extents before any division.
const MinRadius = 0.001

// AllLayers is a layer mask that intersects every layer.
const AllLayers uint32 = 0xFFFFFFFF

type LightType uint32

const (
	LightTypePoint LightType = iota
	LightTypeSpot
	LightTypeDirectional
)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "Point"
	case LightTypeSpot:
		return "Spot"
	case LightTypeDirectional:
		return "Directional"
	}
	return "Unknown"
}

// AttenuationType selects the distance falloff curve of a light.
type AttenuationType uint32

const (
	AttenuationLinear AttenuationType = iota
	AttenuationQuadratic
	AttenuationInverseSquare
)

func (t AttenuationType) String() string {
	switch t {
	case AttenuationLinear:
		return "Linear"
	case AttenuationQuadratic:
		return "Quadratic"
	case AttenuationInverseSquare:
		return "InverseSquare"
	}
	return "Unknown"
}

// Light is the per-frame view of a light source. It is rebuilt every frame
// from scene components and never owned by the lighting code.
type Light struct {
	Position    mgl32.Vec2
	Direction   mgl32.Vec2 // spot and directional only
	Color       mgl32.Vec4
	Intensity   float32
	Radius      float32 // influence radius, point and spot only
	InnerAngle  float32 // radians, spot only
	OuterAngle  float32 // radians, spot only
	Type        LightType
	LayerMask   uint32
	Attenuation AttenuationType
	CastShadows bool

	// ShadowSoftness scales the SDF penumbra. 0 means 1.
	ShadowSoftness float32

	// Culling and priority bookkeeping.
	Priority         int
	DistanceToCamera float32
}

// AABB is an axis aligned 2D box.
type AABB struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

// InfiniteAABB covers the whole plane.
func InfiniteAABB() AABB {
	return AABB{
		Min: mgl32.Vec2{-math.MaxFloat32, -math.MaxFloat32},
		Max: mgl32.Vec2{math.MaxFloat32, math.MaxFloat32},
	}
}

// AABBFromCenter builds a box from its center and half extents.
func AABBFromCenter(center, halfExtents mgl32.Vec2) AABB {
	return AABB{Min: center.Sub(halfExtents), Max: center.Add(halfExtents)}
}

func (b AABB) Center() mgl32.Vec2 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() mgl32.Vec2 {
	return b.Max.Sub(b.Min)
}

// Overlaps reports whether the boxes share at least one point. Touching edges count.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y()
}

func (b AABB) Contains(p mgl32.Vec2) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y()
}

// StrictlyContains excludes the boundary.
func (b AABB) StrictlyContains(p mgl32.Vec2) bool {
	return p.X() > b.Min.X() && p.X() < b.Max.X() &&
		p.Y() > b.Min.Y() && p.Y() < b.Max.Y()
}

func floorRadius(r float32) float32 {
	if r < MinRadius || r != r {
		return MinRadius
	}
	return r
}

func clamp01(v float32) float32 {
	if v != v {
		return 0
	}
	return mgl32.Clamp(v, 0, 1)
}

func smoothstep01(t float32) float32 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

// lerp returns a and b exactly at t=0 and t=1.
func lerp(a, b, t float32) float32 {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return a*(1-t) + b*t
}
