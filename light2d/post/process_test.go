package post

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func passthrough() Settings {
	s := DefaultSettings()
	s.EnableBloom = false
	s.EnableColorGrading = false
	s.ToneMapping = ToneMapNone
	return s
}

func gradient(w, h int) *HDRImage {
	img := NewHDRImage(w, h)
	for y := range h {
		for x := range w {
			img.Set(x, y, mgl32.Vec3{float32(x) / float32(w), float32(y) / float32(h), 0.25})
		}
	}
	return img
}

func TestProcessImagePassthrough(t *testing.T) {
	src := gradient(8, 4)
	out := ProcessImage(src, passthrough(), CPUInputs{})
	assert.Equal(t, src.Pix, out.Pix)
	out.Pix[0] = mgl32.Vec3{9, 9, 9}
	assert.NotEqual(t, out.Pix[0], src.Pix[0])
}

func TestProcessImageToneMapping(t *testing.T) {
	src := gradient(4, 4)
	src.Set(1, 1, mgl32.Vec3{12, 3, 0.5})
	s := passthrough()
	s.ToneMapping = ToneMapACES
	s.Gamma = 1
	out := ProcessImage(src, s, CPUInputs{})
	for i, c := range src.Pix {
		assert.Equal(t, ToneMap(c, ToneMapACES), out.Pix[i])
	}
	for _, c := range out.Pix {
		for i := range 3 {
			assert.LessOrEqual(t, c[i], float32(1))
		}
	}
}

func TestProcessImageBloomSpreads(t *testing.T) {
	src := NewHDRImage(9, 9)
	src.Set(4, 4, mgl32.Vec3{20, 20, 20})
	s := passthrough()
	s.EnableBloom = true
	s.BloomIterations = 2

	out := ProcessImage(src, s, CPUInputs{})
	assert.Greater(t, out.At(5, 4).X(), float32(0))
	assert.Greater(t, out.At(4, 6).Y(), float32(0))
	assert.Greater(t, out.At(4, 4).X(), float32(20))
	assert.Equal(t, mgl32.Vec3{}, src.At(5, 4))
}

func TestProcessImageFogGrowsWithDistance(t *testing.T) {
	src := NewHDRImage(33, 33)
	s := passthrough()
	s.EnableFog = true
	s.FogMode = FogExponential
	s.FogDensity = 0.05
	s.FogColor = mgl32.Vec4{1, 0, 0, 1}
	cam := NewCamera(mgl32.Vec2{}, 66, 66)

	out := ProcessImage(src, s, CPUInputs{Camera: &cam})
	center, corner := out.At(16, 16).X(), out.At(0, 0).X()
	assert.Less(t, center, corner)
	assert.Less(t, center, float32(0.01))
	assert.InDelta(t, 1-ExponentialFogFactor(45.254834, 0.05), corner, 0.05)

	noCamera := ProcessImage(src, s, CPUInputs{})
	assert.Equal(t, src.Pix, noCamera.Pix)
}

func TestProcessImageLightShafts(t *testing.T) {
	src := NewHDRImage(16, 16)
	src.Set(8, 8, mgl32.Vec3{4, 4, 4})
	s := passthrough()
	s.EnableLightShafts = true
	cam := NewCamera(mgl32.Vec2{}, 16, 16)
	light := ShaftLight{Position: mgl32.Vec2{0.5, -0.5}, Color: mgl32.Vec3{1, 1, 1}, Intensity: 1}

	out := ProcessImage(src, s, CPUInputs{Camera: &cam, Light: &light})
	assert.Greater(t, out.At(10, 10).X(), float32(0))

	blocked := ProcessImage(src, s, CPUInputs{Camera: &cam, Light: &light, Occlusion: func(mgl32.Vec2) float32 { return 1 }})
	assert.Less(t, blocked.At(10, 10).X(), out.At(10, 10).X())
}

func TestProcessImageEmpty(t *testing.T) {
	out := ProcessImage(&HDRImage{}, DefaultSettings(), CPUInputs{})
	assert.Zero(t, out.Width)
	assert.Empty(t, out.Pix)
}
