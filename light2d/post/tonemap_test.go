package post

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

var allToneMaps = []ToneMapping{ToneMapNone, ToneMapReinhard, ToneMapACES, ToneMapFilmic}

func TestToneMapRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inputs := []mgl32.Vec3{{}, {1, 1, 1}, {1e6, 0, 3}, {float32(math.Inf(1)), 1, 0}, {-1, 0.5, float32(math.NaN())}}
	for range 200 {
		inputs = append(inputs, mgl32.Vec3{rng.Float32() * 50, rng.Float32() * 5, rng.Float32()})
	}
	for _, mode := range allToneMaps {
		for _, in := range inputs {
			out := ToneMap(in, mode)
			for i := range 3 {
				assert.GreaterOrEqual(t, out[i], float32(0), "%s %v", mode, in)
				assert.LessOrEqual(t, out[i], float32(1), "%s %v", mode, in)
			}
		}
	}
}

func TestToneMapMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, mode := range allToneMaps[1:] {
		for range 500 {
			c := mgl32.Vec3{rng.Float32() * 20, rng.Float32() * 20, rng.Float32() * 20}
			lo := Luminance(ToneMap(c, mode))
			hi := Luminance(ToneMap(c.Mul(1.5), mode))
			assert.GreaterOrEqual(t, hi, lo, "%s %v", mode, c)
		}
	}
}

func TestToneMapValues(t *testing.T) {
	assert.InDelta(t, 0.5, ToneMap(mgl32.Vec3{1, 1, 1}, ToneMapReinhard).X(), 1e-6)
	assert.Equal(t, mgl32.Vec3{0, 0.5, 1}, ToneMap(mgl32.Vec3{0, 0.5, 3}, ToneMapNone))
	assert.Zero(t, ToneMap(mgl32.Vec3{}, ToneMapFilmic).X())
	assert.Zero(t, ToneMap(mgl32.Vec3{}, ToneMapACES).X())
}

func TestApplyGamma(t *testing.T) {
	c := mgl32.Vec3{0.25, 1, 0}
	assert.Equal(t, c, ApplyGamma(c, 1))
	out := ApplyGamma(c, 2)
	assert.InDelta(t, 0.5, out.X(), 1e-6)
	assert.InDelta(t, 1, out.Y(), 1e-6)
}
