package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// inverseSquareFalloff shapes the inverse-square curve over the normalized distance.
const inverseSquareFalloff = 25.0

// LinearAttenuation returns max(0, 1 - d/r).
func LinearAttenuation(distance, radius float32) float32 {
	r := floorRadius(radius)
	d := max(distance, 0)
	if d >= r {
		return 0
	}
	return max(0, 1-d/r)
}

// QuadraticAttenuation returns max(0, 1 - (d/r)^2).
func QuadraticAttenuation(distance, radius float32) float32 {
	r := floorRadius(radius)
	d := max(distance, 0)
	if d >= r {
		return 0
	}
	n := d / r
	return max(0, 1-n*n)
}

// InverseSquareAttenuation is a smoothed inverse-square curve multiplied by a
// linear edge falloff so that it reaches exactly zero at the radius.
func InverseSquareAttenuation(distance, radius float32) float32 {
	r := floorRadius(radius)
	d := max(distance, 0)
	if d >= r {
		return 0
	}
	n := d / r
	att := 1 / (1 + inverseSquareFalloff*n*n)
	return clamp01(att * (1 - n))
}

// Attenuation dispatches to the curve selected by t.
func Attenuation(distance, radius float32, t AttenuationType) float32 {
	switch t {
	case AttenuationQuadratic:
		return QuadraticAttenuation(distance, radius)
	case AttenuationInverseSquare:
		return InverseSquareAttenuation(distance, radius)
	default:
		return LinearAttenuation(distance, radius)
	}
}

// SpotAngleAttenuation returns 1 inside the inner cone, 0 outside the outer
// cone and a smoothstep in between. Cosines decrease as the angle grows, so
// "inside" means cosAngle >= innerCos. A degenerate cone (innerCos <= outerCos)
// yields 0.
func SpotAngleAttenuation(cosAngle, innerCos, outerCos float32) float32 {
	span := innerCos - outerCos
	if span <= 0 {
		return 0
	}
	if cosAngle >= innerCos {
		return 1
	}
	if cosAngle <= outerCos {
		return 0
	}
	t := (cosAngle - outerCos) / span
	return t * t * (3 - 2*t)
}

// SpotAttenuationDegrees evaluates the cone falloff for angles given in degrees.
func SpotAttenuationDegrees(angleDeg, innerDeg, outerDeg float32) float32 {
	return SpotAngleAttenuation(cosDeg(angleDeg), cosDeg(innerDeg), cosDeg(outerDeg))
}

func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(deg) * math.Pi / 180.0))
}

// LayerAffects reports whether two layer masks intersect.
func LayerAffects(lightMask, targetMask uint32) bool {
	return lightMask&targetMask != 0
}

// LayerAffectsIndex checks a single layer index in the range 0..31.
func LayerAffectsIndex(lightMask uint32, layer int) bool {
	if layer < 0 || layer > 31 {
		return false
	}
	return lightMask&(uint32(1)<<uint(layer)) != 0
}

// normalTerm is the Lambert factor for a 2D light reconstructed in 3D with a
// unit height above the surface.
func normalTerm(toLight mgl32.Vec2, normal *mgl32.Vec3) float32 {
	if normal == nil {
		return 1
	}
	dir := mgl32.Vec3{toLight.X(), toLight.Y(), 1.0}.Normalize()
	return max(0, normal.Dot(dir))
}

// PointLightContribution returns the RGB light a point light adds at target.
// normal is optional; without it the Lambert term is omitted.
func PointLightContribution(light Light, target mgl32.Vec2, normal *mgl32.Vec3, targetLayer uint32) mgl32.Vec3 {
	if !LayerAffects(light.LayerMask, targetLayer) {
		return mgl32.Vec3{}
	}
	toLight := light.Position.Sub(target)
	att := Attenuation(toLight.Len(), light.Radius, light.Attenuation)
	if att <= 0 {
		return mgl32.Vec3{}
	}
	scale := light.Intensity * att * normalTerm(toLight, normal)
	return light.Color.Vec3().Mul(scale)
}

// SpotLightContribution is the point contribution further shaped by the cone.
func SpotLightContribution(light Light, target mgl32.Vec2, normal *mgl32.Vec3, targetLayer uint32) mgl32.Vec3 {
	base := PointLightContribution(light, target, normal, targetLayer)
	if base == (mgl32.Vec3{}) {
		return base
	}
	toTarget := target.Sub(light.Position)
	if toTarget.Len() < MinRadius || light.Direction.Len() < MinRadius {
		return base
	}
	cosAngle := toTarget.Normalize().Dot(light.Direction.Normalize())
	innerCos := float32(math.Cos(float64(light.InnerAngle)))
	outerCos := float32(math.Cos(float64(light.OuterAngle)))
	return base.Mul(SpotAngleAttenuation(cosAngle, innerCos, outerCos))
}

// DirectionalLightContribution has no distance term.
func DirectionalLightContribution(light Light, normal *mgl32.Vec3, targetLayer uint32) mgl32.Vec3 {
	if !LayerAffects(light.LayerMask, targetLayer) {
		return mgl32.Vec3{}
	}
	toLight := light.Direction.Mul(-1)
	if toLight.Len() > MinRadius {
		toLight = toLight.Normalize()
	}
	return light.Color.Vec3().Mul(light.Intensity * normalTerm(toLight, normal))
}

// LightContribution evaluates any light type at target.
func LightContribution(light Light, target mgl32.Vec2, normal *mgl32.Vec3, targetLayer uint32) mgl32.Vec3 {
	switch light.Type {
	case LightTypeSpot:
		return SpotLightContribution(light, target, normal, targetLayer)
	case LightTypeDirectional:
		return DirectionalLightContribution(light, normal, targetLayer)
	default:
		return PointLightContribution(light, target, normal, targetLayer)
	}
}

// SumContributions adds up the contribution of every light. Plain summation,
// no per-light normalization.
func SumContributions(lights []Light, target mgl32.Vec2, normal *mgl32.Vec3, targetLayer uint32) mgl32.Vec3 {
	var sum mgl32.Vec3
	for i := range lights {
		sum = sum.Add(LightContribution(lights[i], target, normal, targetLayer))
	}
	return sum
}
