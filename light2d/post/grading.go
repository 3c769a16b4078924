package post

import "github.com/go-gl/mathgl/mgl32"

// Rec. 709 luma weights.
var rec709 = mgl32.Vec3{0.2126, 0.7152, 0.0722}

func Luminance(c mgl32.Vec3) float32 {
	return c.Dot(rec709)
}

func ApplyExposure(c mgl32.Vec3, exposure float32) mgl32.Vec3 {
	return c.Mul(exposure)
}

// ApplyContrast pivots around mid grey.
func ApplyContrast(c mgl32.Vec3, contrast float32) mgl32.Vec3 {
	if contrast == 1 {
		return c
	}
	for i := range c {
		c[i] = (c[i]-0.5)*contrast + 0.5
	}
	return c
}

// ApplySaturation blends between the luminance grey and the color.
func ApplySaturation(c mgl32.Vec3, saturation float32) mgl32.Vec3 {
	if saturation == 1 {
		return c
	}
	l := Luminance(c)
	if saturation == 0 {
		return mgl32.Vec3{l, l, l}
	}
	grey := mgl32.Vec3{l, l, l}
	return grey.Add(c.Sub(grey).Mul(saturation))
}

// ColorGrade runs exposure, contrast, saturation and the optional LUT in
// that order. A nil LUT skips the lookup.
func ColorGrade(c mgl32.Vec3, s *Settings, lut *LUT) mgl32.Vec3 {
	c = ApplyExposure(c, s.Exposure)
	c = ApplyContrast(c, s.Contrast)
	c = ApplySaturation(c, s.Saturation)
	for i := range c {
		c[i] = max(c[i], 0)
	}
	if lut != nil {
		c = ApplyLUT(c, lut, s.LUTIntensity)
	}
	return c
}
