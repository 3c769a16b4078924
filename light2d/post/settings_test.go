package post

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, s, s.Validated())
}

func TestValidateClamps(t *testing.T) {
	s := Settings{
		BloomThreshold:    -1,
		BloomSoftKnee:     3,
		BloomIntensity:    float32(math.NaN()),
		BloomIterations:   40,
		BloomTint:         mgl32.Vec4{-1, 2, 0, 1},
		LightShaftSamples: 2,
		LightShaftDecay:   1.5,
		FogMode:           FogMode(9),
		FogStart:          50,
		FogEnd:            20,
		FogDensity:        -3,
		ToneMapping:       ToneMapping(42),
		Gamma:             100,
		Exposure:          -2,
		LUTIntensity:      4,
	}
	s.Validate()

	assert.Zero(t, s.BloomThreshold)
	assert.Equal(t, float32(1), s.BloomSoftKnee)
	assert.Zero(t, s.BloomIntensity)
	assert.Equal(t, MaxBloomIterations, s.BloomIterations)
	assert.Equal(t, mgl32.Vec4{0, 2, 0, 1}, s.BloomTint)
	assert.Equal(t, MinShaftSamples, s.LightShaftSamples)
	assert.Equal(t, float32(1), s.LightShaftDecay)
	assert.Equal(t, FogLinear, s.FogMode)
	assert.Greater(t, s.FogEnd, s.FogStart)
	assert.InDelta(t, 50.01, s.FogEnd, 1e-4)
	assert.Zero(t, s.FogDensity)
	assert.Equal(t, ToneMapNone, s.ToneMapping)
	assert.Equal(t, float32(MaxGamma), s.Gamma)
	assert.Zero(t, s.Exposure)
	assert.Equal(t, float32(1), s.LUTIntensity)

	s.Gamma = 0
	s.BloomIterations = 0
	s.Validate()
	assert.Equal(t, float32(MinGamma), s.Gamma)
	assert.Equal(t, MinBloomIterations, s.BloomIterations)
}

func TestEnumText(t *testing.T) {
	for m := range fogModeNames {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var back FogMode
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, m, back)
	}
	for m := range toneMappingNames {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var back ToneMapping
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, m, back)
	}
	var tm ToneMapping
	assert.Error(t, tm.UnmarshalText([]byte("hable")))
	_, err := ToneMapping(9).MarshalText()
	assert.Error(t, err)
}

func TestSettingsJSON(t *testing.T) {
	s := DefaultSettings()
	s.FogMode = FogExponentialSquared
	s.LUTPath = "luts/warm.png"
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fogMode":"exponential_squared"`)

	var back Settings
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}
