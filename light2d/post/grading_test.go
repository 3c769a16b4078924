package post

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func randomColors(n int) []mgl32.Vec3 {
	rng := rand.New(rand.NewSource(3))
	out := make([]mgl32.Vec3, n)
	for i := range out {
		out[i] = mgl32.Vec3{rng.Float32() * 2, rng.Float32(), rng.Float32() * 4}
	}
	return out
}

func TestColorGradingIdentities(t *testing.T) {
	for _, c := range randomColors(100) {
		assert.Equal(t, c, ApplyExposure(c, 1))
		assert.Equal(t, c, ApplyContrast(c, 1))
		assert.Equal(t, c, ApplySaturation(c, 1))

		l := Luminance(c)
		assert.Equal(t, mgl32.Vec3{l, l, l}, ApplySaturation(c, 0))
	}
}

func TestLuminanceRec709(t *testing.T) {
	assert.InDelta(t, 1, Luminance(mgl32.Vec3{1, 1, 1}), 1e-6)
	assert.InDelta(t, 0.7152, Luminance(mgl32.Vec3{0, 1, 0}), 1e-6)
}

func TestApplyContrast(t *testing.T) {
	out := ApplyContrast(mgl32.Vec3{0.75, 0.5, 0.25}, 2)
	assert.InDelta(t, 1, out.X(), 1e-6)
	assert.InDelta(t, 0.5, out.Y(), 1e-6)
	assert.InDelta(t, 0, out.Z(), 1e-6)
}

func TestColorGrade(t *testing.T) {
	s := DefaultSettings()
	c := mgl32.Vec3{0.2, 0.4, 0.6}
	assert.Equal(t, c, ColorGrade(c, &s, nil))

	s.Exposure = 2
	s.Saturation = 0
	out := ColorGrade(c, &s, nil)
	assert.InDelta(t, out.X(), out.Y(), 1e-6)
	assert.InDelta(t, Luminance(c.Mul(2)), out.X(), 1e-5)

	s = DefaultSettings()
	s.Contrast = 10
	for _, v := range ColorGrade(mgl32.Vec3{0, 0, 0}, &s, nil) {
		assert.GreaterOrEqual(t, v, float32(0))
	}
}
