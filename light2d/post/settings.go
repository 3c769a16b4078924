// Package post implements the post-processing chain: bloom, light shafts,
// fog, tone mapping and color grading. The math is available as plain
// functions; Pipeline drives the same stages on a gpu.Backend.
package post

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type FogMode uint8

const (
	FogLinear FogMode = iota
	FogExponential
	FogExponentialSquared
)

var fogModeNames = map[FogMode]string{
	FogLinear:             "linear",
	FogExponential:        "exponential",
	FogExponentialSquared: "exponential_squared",
}

func (m FogMode) String() string {
	if s, ok := fogModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("FogMode(%d)", uint8(m))
}

func (m FogMode) MarshalText() ([]byte, error) {
	s, ok := fogModeNames[m]
	if !ok {
		return nil, fmt.Errorf("unknown fog mode %d", uint8(m))
	}
	return []byte(s), nil
}

func (m *FogMode) UnmarshalText(text []byte) error {
	for k, v := range fogModeNames {
		if v == string(text) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown fog mode %q", text)
}

type ToneMapping uint8

const (
	ToneMapNone ToneMapping = iota
	ToneMapReinhard
	ToneMapACES
	ToneMapFilmic
)

var toneMappingNames = map[ToneMapping]string{
	ToneMapNone:     "none",
	ToneMapReinhard: "reinhard",
	ToneMapACES:     "aces",
	ToneMapFilmic:   "filmic",
}

func (t ToneMapping) String() string {
	if s, ok := toneMappingNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ToneMapping(%d)", uint8(t))
}

func (t ToneMapping) MarshalText() ([]byte, error) {
	s, ok := toneMappingNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown tone mapping %d", uint8(t))
	}
	return []byte(s), nil
}

func (t *ToneMapping) UnmarshalText(text []byte) error {
	for k, v := range toneMappingNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown tone mapping %q", text)
}

const (
	MinBloomIterations = 1
	MaxBloomIterations = 8
	MinShaftSamples    = 8
	MaxShaftSamples    = 128
	MinGamma           = 0.1
	MaxGamma           = 10
	MinFogSpan         = 0.01
)

// Settings configures every post-processing stage. Validate must run
// before the values are used; Pipeline.Execute does it on a copy.
type Settings struct {
	EnableBloom     bool       `yaml:"enableBloom" json:"enableBloom"`
	BloomThreshold  float32    `yaml:"bloomThreshold" json:"bloomThreshold"`
	BloomSoftKnee   float32    `yaml:"bloomSoftKnee" json:"bloomSoftKnee"`
	BloomIntensity  float32    `yaml:"bloomIntensity" json:"bloomIntensity"`
	BloomIterations int        `yaml:"bloomIterations" json:"bloomIterations"`
	BloomRadius     float32    `yaml:"bloomRadius" json:"bloomRadius"`
	BloomTint       mgl32.Vec4 `yaml:"bloomTint" json:"bloomTint"`
	EmissionWeight  float32    `yaml:"emissionWeight" json:"emissionWeight"`

	EnableLightShafts   bool    `yaml:"enableLightShafts" json:"enableLightShafts"`
	LightShaftSamples   int     `yaml:"lightShaftSamples" json:"lightShaftSamples"`
	LightShaftDensity   float32 `yaml:"lightShaftDensity" json:"lightShaftDensity"`
	LightShaftDecay     float32 `yaml:"lightShaftDecay" json:"lightShaftDecay"`
	LightShaftWeight    float32 `yaml:"lightShaftWeight" json:"lightShaftWeight"`
	LightShaftExposure  float32 `yaml:"lightShaftExposure" json:"lightShaftExposure"`
	LightShaftIntensity float32 `yaml:"lightShaftIntensity" json:"lightShaftIntensity"`

	EnableFog            bool       `yaml:"enableFog" json:"enableFog"`
	FogMode              FogMode    `yaml:"fogMode" json:"fogMode"`
	FogColor             mgl32.Vec4 `yaml:"fogColor" json:"fogColor"`
	FogStart             float32    `yaml:"fogStart" json:"fogStart"`
	FogEnd               float32    `yaml:"fogEnd" json:"fogEnd"`
	FogDensity           float32    `yaml:"fogDensity" json:"fogDensity"`
	EnableHeightFog      bool       `yaml:"enableHeightFog" json:"enableHeightFog"`
	HeightFogBase        float32    `yaml:"heightFogBase" json:"heightFogBase"`
	HeightFogDensity     float32    `yaml:"heightFogDensity" json:"heightFogDensity"`
	EnableFogPenetration bool       `yaml:"enableFogPenetration" json:"enableFogPenetration"`
	FogPenetrationMax    float32    `yaml:"fogPenetrationMax" json:"fogPenetrationMax"`

	ToneMapping ToneMapping `yaml:"toneMapping" json:"toneMapping"`
	Gamma       float32     `yaml:"gamma" json:"gamma"`

	EnableColorGrading bool    `yaml:"enableColorGrading" json:"enableColorGrading"`
	Exposure           float32 `yaml:"exposure" json:"exposure"`
	Contrast           float32 `yaml:"contrast" json:"contrast"`
	Saturation         float32 `yaml:"saturation" json:"saturation"`
	LUTPath            string  `yaml:"lutPath,omitempty" json:"lutPath,omitempty"`
	LUTIntensity       float32 `yaml:"lutIntensity" json:"lutIntensity"`
}

func DefaultSettings() Settings {
	return Settings{
		EnableBloom:     true,
		BloomThreshold:  1.0,
		BloomSoftKnee:   0.5,
		BloomIntensity:  0.8,
		BloomIterations: 5,
		BloomRadius:     1.0,
		BloomTint:       mgl32.Vec4{1, 1, 1, 1},
		EmissionWeight:  1.0,

		LightShaftSamples:   64,
		LightShaftDensity:   0.9,
		LightShaftDecay:     0.95,
		LightShaftWeight:    0.4,
		LightShaftExposure:  0.3,
		LightShaftIntensity: 1.0,

		FogMode:           FogLinear,
		FogColor:          mgl32.Vec4{0.5, 0.55, 0.6, 1},
		FogStart:          10,
		FogEnd:            100,
		FogDensity:        0.02,
		HeightFogDensity:  0.1,
		FogPenetrationMax: 0.8,

		ToneMapping: ToneMapACES,
		Gamma:       2.2,

		EnableColorGrading: true,
		Exposure:           1.0,
		Contrast:           1.0,
		Saturation:         1.0,
		LUTIntensity:       1.0,
	}
}

// Validate clamps every field into its valid range in place. Non-finite
// values are treated as the lower bound.
func (s *Settings) Validate() {
	s.BloomThreshold = nonNegative(s.BloomThreshold)
	s.BloomSoftKnee = unit(s.BloomSoftKnee)
	s.BloomIntensity = nonNegative(s.BloomIntensity)
	s.BloomIterations = max(MinBloomIterations, min(s.BloomIterations, MaxBloomIterations))
	s.BloomRadius = nonNegative(s.BloomRadius)
	s.BloomTint = clampColor(s.BloomTint)
	s.EmissionWeight = nonNegative(s.EmissionWeight)

	s.LightShaftSamples = max(MinShaftSamples, min(s.LightShaftSamples, MaxShaftSamples))
	s.LightShaftDensity = unit(s.LightShaftDensity)
	s.LightShaftDecay = unit(s.LightShaftDecay)
	s.LightShaftWeight = nonNegative(s.LightShaftWeight)
	s.LightShaftExposure = nonNegative(s.LightShaftExposure)
	s.LightShaftIntensity = nonNegative(s.LightShaftIntensity)

	if _, ok := fogModeNames[s.FogMode]; !ok {
		s.FogMode = FogLinear
	}
	s.FogColor = clampColor(s.FogColor)
	s.FogStart = nonNegative(s.FogStart)
	if !finite(s.FogEnd) || s.FogEnd <= s.FogStart {
		s.FogEnd = max(s.FogStart+MinFogSpan, math.Nextafter32(s.FogStart, math.MaxFloat32))
	}
	s.FogDensity = nonNegative(s.FogDensity)
	if !finite(s.HeightFogBase) {
		s.HeightFogBase = 0
	}
	s.HeightFogDensity = nonNegative(s.HeightFogDensity)
	s.FogPenetrationMax = unit(s.FogPenetrationMax)

	if _, ok := toneMappingNames[s.ToneMapping]; !ok {
		s.ToneMapping = ToneMapNone
	}
	if !finite(s.Gamma) {
		s.Gamma = MinGamma
	}
	s.Gamma = mgl32.Clamp(s.Gamma, MinGamma, MaxGamma)

	s.Exposure = nonNegative(s.Exposure)
	s.Contrast = nonNegative(s.Contrast)
	s.Saturation = nonNegative(s.Saturation)
	s.LUTIntensity = unit(s.LUTIntensity)
}

// Validated returns a clamped copy.
func (s Settings) Validated() Settings {
	s.Validate()
	return s
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonNegative(v float32) float32 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

func unit(v float32) float32 {
	if !finite(v) {
		return 0
	}
	return mgl32.Clamp(v, 0, 1)
}

func clampColor(c mgl32.Vec4) mgl32.Vec4 {
	for i := range c {
		c[i] = nonNegative(c[i])
	}
	return c
}
