package post

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestLinearFogScenario(t *testing.T) {
	assert.Equal(t, float32(1), LinearFogFactor(10, 10, 100))
	assert.Equal(t, float32(0), LinearFogFactor(100, 10, 100))
	assert.InDelta(t, 0.5, LinearFogFactor(55, 10, 100), 1e-6)
	assert.Equal(t, float32(1), LinearFogFactor(0, 10, 100))
	assert.Equal(t, float32(0), LinearFogFactor(1000, 10, 100))
}

func TestFogModesMonotonic(t *testing.T) {
	s := DefaultSettings()
	s.FogDensity = 0.05
	for _, mode := range []FogMode{FogLinear, FogExponential, FogExponentialSquared} {
		s.FogMode = mode
		prev := float32(2)
		for d := float32(0); d < 200; d += 0.5 {
			f := FogFactor(d, &s)
			assert.GreaterOrEqual(t, f, float32(0), mode.String())
			assert.LessOrEqual(t, f, float32(1), mode.String())
			assert.LessOrEqual(t, f, prev, "%s at %v", mode, d)
			prev = f
		}
	}
	assert.Greater(t, ExponentialFogFactor(100, 0.05), float32(0))
}

func TestHeightFogFactor(t *testing.T) {
	assert.Equal(t, float32(1), HeightFogFactor(5, 5, 0.3))
	assert.Equal(t, float32(1), HeightFogFactor(-10, 5, 0.3))
	prev := float32(1)
	for y := float32(5.5); y < 20; y += 0.5 {
		h := HeightFogFactor(y, 5, 0.3)
		assert.Less(t, h, prev)
		assert.GreaterOrEqual(t, h, float32(0))
		prev = h
	}
}

func TestCombineFog(t *testing.T) {
	assert.InDelta(t, 0.4, CombineFog(0.4, 1), 1e-6)
	assert.Equal(t, float32(1), CombineFog(0.4, 0))
	assert.InDelta(t, 0.7, CombineFog(0.4, 0.5), 1e-6)
	assert.Equal(t, float32(1), CombineFog(1, 0.8))
}

func TestFogPenetration(t *testing.T) {
	light := FogLight{Position: mgl32.Vec2{0, 0}, Radius: 10, Strength: 1}
	assert.InDelta(t, 0.8, FogPenetration(mgl32.Vec2{}, []FogLight{light}, 0.8), 1e-6)
	assert.Zero(t, FogPenetration(mgl32.Vec2{20, 0}, []FogLight{light}, 0.8))

	weak := FogLight{Radius: 10, Strength: 0.05}
	many := make([]FogLight, 20)
	for i := range many {
		many[i] = weak
	}
	// only the first MaxFogLights count
	assert.InDelta(t, 0.05*MaxFogLights, FogPenetration(mgl32.Vec2{}, many, 1), 1e-5)

	assert.InDelta(t, 1, ApplyFogPenetration(0.2, 1), 1e-6)
	assert.Equal(t, float32(0.2), ApplyFogPenetration(0.2, 0))
}

func TestApplyFog(t *testing.T) {
	scene := mgl32.Vec3{1, 0, 0}
	fog := mgl32.Vec3{0, 0, 1}
	assert.Equal(t, scene, ApplyFog(scene, fog, 1))
	assert.Equal(t, fog, ApplyFog(scene, fog, 0))
	mid := ApplyFog(scene, fog, 0.5)
	assert.InDelta(t, 0.5, mid.X(), 1e-6)
	assert.InDelta(t, 0.5, mid.Z(), 1e-6)
}

func TestFogAt(t *testing.T) {
	s := DefaultSettings()
	cam := mgl32.Vec2{}
	assert.Equal(t, float32(1), FogAt(mgl32.Vec2{5, 0}, cam, &s, nil))

	far := mgl32.Vec2{100, 0}
	assert.Equal(t, float32(0), FogAt(far, cam, &s, nil))

	s.EnableFogPenetration = true
	lights := []FogLight{{Position: far, Radius: 5, Strength: 1}}
	assert.InDelta(t, s.FogPenetrationMax, FogAt(far, cam, &s, lights), 1e-6)

	s.EnableHeightFog = true
	s.HeightFogBase = -50
	s.EnableFogPenetration = false
	assert.Greater(t, FogAt(mgl32.Vec2{0, 100}, cam, &s, nil), float32(0))
}
