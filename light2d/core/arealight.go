package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxSamplesPerAreaLight caps the synthetic point lights produced per area light.
const MaxSamplesPerAreaLight = 16

type AreaLightShape uint32

const (
	AreaRectangle AreaLightShape = iota
	AreaCircle
)

// AreaLight emits from a rectangle or a disc. Circle lights use Size.X() as diameter.
type AreaLight struct {
	Position       mgl32.Vec2
	Size           mgl32.Vec2
	Color          mgl32.Vec4
	Intensity      float32
	Radius         float32
	Shape          AreaLightShape
	LayerMask      uint32
	Attenuation    AttenuationType
	ShadowSoftness float32
	CastShadows    bool
}

// emitterExtent is the distance from the center inside which the emitter
// surface covers the target fully.
func (l AreaLight) emitterExtent() float32 {
	var e float32
	if l.Shape == AreaCircle {
		e = l.Size.X() * 0.5
	} else {
		e = min(l.Size.X(), l.Size.Y()) * 0.5
	}
	r := floorRadius(l.Radius)
	if e < 0 || e >= r {
		return 0
	}
	return e
}

// CalculateAreaLightContribution returns the scalar contribution at target.
// Points inside the emitter extent get the full intensity; beyond it the
// selected curve falls off to exactly zero at the influence radius.
func CalculateAreaLightContribution(light AreaLight, target mgl32.Vec2) float32 {
	r := floorRadius(light.Radius)
	d := target.Sub(light.Position).Len()
	if d >= r {
		return 0
	}
	inner := light.emitterExtent()
	if d <= inner {
		return max(light.Intensity, 0)
	}
	return max(light.Intensity, 0) * Attenuation(d-inner, r-inner, light.Attenuation)
}

// CalculateAreaLightColorContribution gates the scalar term by layer and tints it.
func CalculateAreaLightColorContribution(light AreaLight, target mgl32.Vec2, targetLayer uint32) mgl32.Vec3 {
	if !LayerAffects(light.LayerMask, targetLayer) {
		return mgl32.Vec3{}
	}
	return light.Color.Vec3().Mul(CalculateAreaLightContribution(light, target))
}

// ConvertToPointLights spreads the area light over at most
// min(sampleCount, MaxSamplesPerAreaLight) point lights whose intensities sum
// to the source intensity.
func ConvertToPointLights(light AreaLight, sampleCount int) []Light {
	n := min(sampleCount, MaxSamplesPerAreaLight)
	if n <= 0 {
		return nil
	}

	var offsets []mgl32.Vec2
	if light.Shape == AreaCircle {
		offsets = discSamples(light.Size.X()*0.5, n)
	} else {
		offsets = rectSamples(light.Size, n)
	}

	each := light.Intensity / float32(n)
	out := make([]Light, 0, n)
	for _, off := range offsets {
		out = append(out, Light{
			Position:    light.Position.Add(off),
			Color:       light.Color,
			Intensity:   each,
			Radius:      light.Radius,
			Type:        LightTypePoint,
			LayerMask:   light.LayerMask,
			Attenuation: light.Attenuation,
			CastShadows: light.CastShadows,

			ShadowSoftness: light.ShadowSoftness,
		})
	}
	return out
}

// rectSamples places n samples on the centers of a near-square grid over size.
func rectSamples(size mgl32.Vec2, n int) []mgl32.Vec2 {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	out := make([]mgl32.Vec2, 0, n)
	for i := 0; i < n; i++ {
		c, r := i%cols, i/cols
		fx := (float32(c)+0.5)/float32(cols) - 0.5
		fy := (float32(r)+0.5)/float32(rows) - 0.5
		out = append(out, mgl32.Vec2{fx * size.X(), fy * size.Y()})
	}
	return out
}

// discSamples uses a sunflower spiral so samples cover the disc evenly.
func discSamples(radius float32, n int) []mgl32.Vec2 {
	if n == 1 {
		return []mgl32.Vec2{{0, 0}}
	}
	golden := math.Pi * (3 - math.Sqrt(5))
	out := make([]mgl32.Vec2, 0, n)
	for i := 0; i < n; i++ {
		r := float64(radius) * math.Sqrt((float64(i)+0.5)/float64(n))
		a := float64(i) * golden
		out = append(out, mgl32.Vec2{float32(r * math.Cos(a)), float32(r * math.Sin(a))})
	}
	return out
}
