package post

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func white(mgl32.Vec2) mgl32.Vec3 { return mgl32.Vec3{1, 1, 1} }

func TestCameraUV(t *testing.T) {
	cam := NewCamera(mgl32.Vec2{10, 10}, 20, 10)
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, cam.WorldToScreenUV(mgl32.Vec2{10, 10}))
	assert.Equal(t, mgl32.Vec2{0, 0}, cam.WorldToScreenUV(mgl32.Vec2{0, 15}))
	assert.Equal(t, mgl32.Vec2{1, 1}, cam.WorldToScreenUV(mgl32.Vec2{20, 5}))

	p := mgl32.Vec2{13, 8}
	back := cam.ScreenUVToWorld(cam.WorldToScreenUV(p))
	assert.InDelta(t, p.X(), back.X(), 1e-5)
	assert.InDelta(t, p.Y(), back.Y(), 1e-5)

	b := cam.Bounds()
	assert.Equal(t, mgl32.Vec2{0, 5}, b.Min)
	assert.Equal(t, mgl32.Vec2{20, 15}, b.Max)
}

func TestRadialBlurOcclusion(t *testing.T) {
	s := DefaultSettings()
	p := s.ShaftParams()
	uv, light := mgl32.Vec2{0.9, 0.5}, mgl32.Vec2{0.1, 0.5}

	clear := RadialBlur(uv, light, p, white, nil)
	full := RadialBlur(uv, light, p, white, func(mgl32.Vec2) float32 { return 1 })
	none := RadialBlur(uv, light, p, white, func(mgl32.Vec2) float32 { return 0 })
	patchy := RadialBlur(uv, light, p, white, func(c mgl32.Vec2) float32 {
		if c.X() < 0.5 {
			return 1
		}
		return 0
	})

	assert.Greater(t, clear.Len(), float32(0))
	assert.Equal(t, clear, none)
	assert.Zero(t, full.Len())
	assert.Greater(t, patchy.Len(), full.Len())
	assert.Less(t, patchy.Len(), none.Len())
}

func TestRadialBlurDegenerate(t *testing.T) {
	p := ShaftParams{}
	assert.Equal(t, mgl32.Vec3{}, RadialBlur(mgl32.Vec2{}, mgl32.Vec2{1, 1}, p, white, nil))
	p.Samples = 8
	assert.Equal(t, mgl32.Vec3{}, RadialBlur(mgl32.Vec2{}, mgl32.Vec2{1, 1}, p, nil, nil))
}

func TestLightShaftSampleTint(t *testing.T) {
	s := DefaultSettings()
	cam := NewCamera(mgl32.Vec2{}, 10, 10)
	light := ShaftLight{Position: mgl32.Vec2{-4, 0}, Color: mgl32.Vec3{1, 0, 0}, Intensity: 2}
	out := LightShaftSample(mgl32.Vec2{0.9, 0.5}, light, cam, s.ShaftParams(), white, nil)
	assert.Greater(t, out.X(), float32(0))
	assert.Zero(t, out.Y())
	assert.Zero(t, out.Z())
}
