// Package gpu is the narrow port the lighting and post-processing layers use
// to talk to a graphics device. Every creation call may fail by returning
// nil; callers check and skip the work for that frame.
package gpu

type Format uint8

const (
	FormatRGBA8 Format = iota
	FormatRGBA16F
	FormatR8
)

func (f Format) String() string {
	switch f {
	case FormatRGBA16F:
		return "rgba16f"
	case FormatR8:
		return "r8"
	default:
		return "rgba8"
	}
}

// BytesPerPixel is the CPU-side upload stride for the format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGBA16F:
		return 8
	case FormatR8:
		return 1
	default:
		return 4
	}
}

type ClearPolicy uint8

const (
	ClearNone ClearPolicy = iota
	ClearBlack
)

// Effect names a fullscreen program registered with the backend.
type Effect uint8

const (
	EffectBloomExtract Effect = iota
	EffectDownsample
	EffectUpsample
	EffectBloomComposite
	EffectLightShafts
	EffectFog
	EffectToneMapping
	EffectColorGrading
	EffectBlit
	effectCount
)

var effectNames = [...]string{
	EffectBloomExtract:   "BloomExtract",
	EffectDownsample:     "Downsample",
	EffectUpsample:       "Upsample",
	EffectBloomComposite: "BloomComposite",
	EffectLightShafts:    "LightShafts",
	EffectFog:            "Fog",
	EffectToneMapping:    "ToneMapping",
	EffectColorGrading:   "ColorGrading",
	EffectBlit:           "Blit",
}

func (e Effect) String() string {
	if e < effectCount {
		return effectNames[e]
	}
	return "Unknown"
}

// Inputs is the number of texture inputs the effect samples.
func (e Effect) Inputs() int {
	switch e {
	case EffectBloomExtract, EffectUpsample, EffectBloomComposite, EffectLightShafts, EffectColorGrading:
		return 2
	default:
		return 1
	}
}

// Target is a sampled render target.
type Target interface {
	Width() int
	Height() int
	Format() Format
	Label() string
	Release()
}

// Buffer holds uniform data.
type Buffer interface {
	Size() int
	Release()
}

// Pass records one fullscreen draw of an effect into a target.
type Pass interface {
	SetInput(slot int, t Target)
	SetUniforms(b Buffer)
	Draw()
	End()
}

// Backend creates resources and records passes. Work is queued until Submit.
type Backend interface {
	CreateTarget(label string, width, height int, format Format) Target
	CreateBuffer(label string, size int) Buffer
	WriteBuffer(b Buffer, data []byte)
	WriteTarget(t Target, pixels []byte)
	BeginPass(effect Effect, dst Target, clear ClearPolicy) Pass
	Submit()
}

// Release frees a target if it is not nil.
func Release(t Target) {
	if t != nil {
		t.Release()
	}
}

// ReleaseBuffer releases b when it is not nil.
func ReleaseBuffer(b Buffer) {
	if b != nil {
		b.Release()
	}
}
