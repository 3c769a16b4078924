package post

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxFogLights caps how many lights may push back the fog per frame.
const MaxFogLights = 8

// LinearFogFactor is 1 (no fog) at start and 0 (full fog) at end.
func LinearFogFactor(distance, start, end float32) float32 {
	if end <= start {
		if distance <= start {
			return 1
		}
		return 0
	}
	return mgl32.Clamp((end-distance)/(end-start), 0, 1)
}

// ExponentialFogFactor never reaches zero for finite distances.
func ExponentialFogFactor(distance, density float32) float32 {
	return mgl32.Clamp(float32(math.Exp(-float64(density)*float64(max(distance, 0)))), 0, 1)
}

func ExponentialSquaredFogFactor(distance, density float32) float32 {
	x := float64(density) * float64(max(distance, 0))
	return mgl32.Clamp(float32(math.Exp(-x*x)), 0, 1)
}

// FogFactor evaluates the distance fog of s.FogMode. 1 means no fog.
func FogFactor(distance float32, s *Settings) float32 {
	switch s.FogMode {
	case FogExponential:
		return ExponentialFogFactor(distance, s.FogDensity)
	case FogExponentialSquared:
		return ExponentialSquaredFogFactor(distance, s.FogDensity)
	default:
		return LinearFogFactor(distance, s.FogStart, s.FogEnd)
	}
}

// HeightFogFactor is the fog strength from height: 1 at or below base,
// decaying exponentially above it.
func HeightFogFactor(height, base, density float32) float32 {
	if height <= base {
		return 1
	}
	return mgl32.Clamp(float32(math.Exp(-float64(density)*float64(height-base))), 0, 1)
}

// CombineFog merges a distance visibility factor with a height fog strength.
// Height fog only thins the distance fog: visibility = 1 - (1-distance)*height.
func CombineFog(distanceFactor, heightFactor float32) float32 {
	return mgl32.Clamp(1-(1-distanceFactor)*heightFactor, 0, 1)
}

// FogLight is a light that pushes back fog around it.
type FogLight struct {
	Position mgl32.Vec2
	Radius   float32
	Strength float32
}

// FogPenetration sums how much the lights near p cut through the fog. Only
// the first MaxFogLights lights count and the total is capped at maxPenetration.
func FogPenetration(p mgl32.Vec2, lights []FogLight, maxPenetration float32) float32 {
	var pen float32
	for i, l := range lights {
		if i == MaxFogLights {
			break
		}
		r := max(l.Radius, 1e-3)
		d := p.Sub(l.Position).Len()
		pen += max(l.Strength, 0) * (1 - smoothstep(0, r, d))
	}
	return mgl32.Clamp(min(pen, maxPenetration), 0, 1)
}

// ApplyFogPenetration raises a visibility factor toward 1 by penetration.
func ApplyFogPenetration(factor, penetration float32) float32 {
	return factor + (1-factor)*mgl32.Clamp(penetration, 0, 1)
}

// ApplyFog blends the scene toward the fog color: factor 1 keeps the scene,
// factor 0 is pure fog.
func ApplyFog(scene, fogColor mgl32.Vec3, factor float32) mgl32.Vec3 {
	switch {
	case factor >= 1:
		return scene
	case factor <= 0:
		return fogColor
	}
	return fogColor.Add(scene.Sub(fogColor).Mul(factor))
}

// FogAt evaluates the full fog model for a world position seen from camera.
func FogAt(world, camera mgl32.Vec2, s *Settings, lights []FogLight) float32 {
	f := FogFactor(world.Sub(camera).Len(), s)
	if s.EnableHeightFog {
		f = CombineFog(f, HeightFogFactor(world.Y(), s.HeightFogBase, s.HeightFogDensity))
	}
	if s.EnableFogPenetration && len(lights) > 0 {
		f = ApplyFogPenetration(f, FogPenetration(world, lights, s.FogPenetrationMax))
	}
	return f
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
