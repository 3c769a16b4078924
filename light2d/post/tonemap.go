package post

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const filmicWhitePoint = 11.2

// ToneMap maps a non-negative HDR color into [0,1] per channel. Negative and
// non-finite inputs are treated as 0.
func ToneMap(c mgl32.Vec3, mode ToneMapping) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := range c {
		x := float64(c[i])
		if math.IsNaN(x) || x < 0 {
			x = 0
		}
		var y float64
		switch mode {
		case ToneMapReinhard:
			if math.IsInf(x, 1) {
				y = 1
			} else {
				y = x / (x + 1)
			}
		case ToneMapACES:
			y = aces(x)
		case ToneMapFilmic:
			y = uncharted2(2*x) / uncharted2(filmicWhitePoint)
		default:
			y = x
		}
		if math.IsNaN(y) {
			y = 1
		}
		out[i] = float32(math.Min(math.Max(y, 0), 1))
	}
	return out
}

func aces(x float64) float64 {
	if math.IsInf(x, 1) {
		return 1
	}
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func uncharted2(x float64) float64 {
	const a, b, c, d, e, f = 0.15, 0.50, 0.10, 0.20, 0.02, 0.30
	if math.IsInf(x, 1) {
		return 1 - e/f
	}
	return ((x*(a*x+c*b) + d*e) / (x*(a*x+b) + d*f)) - e/f
}

// ApplyGamma encodes linear color with the given display gamma.
func ApplyGamma(c mgl32.Vec3, gamma float32) mgl32.Vec3 {
	if gamma <= 0 || gamma == 1 {
		return c
	}
	inv := 1 / float64(gamma)
	for i := range c {
		c[i] = float32(math.Pow(math.Max(float64(c[i]), 0), inv))
	}
	return c
}
