package lumen

import (
	"math"
	"testing"

	"github.com/gekko3d/lumen/light2d/post"
	"github.com/gekko3d/lumen/light2d/shadow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed reports n frames at fps, spaced by the minimum sample interval.
func feed(m *QualityManager, fps float32, n int) {
	for range n {
		m.UpdateAutoQuality(fps, MinSampleInterval)
	}
}

func autoManager(level QualityLevel) *QualityManager {
	m := NewQualityManager(nil, nil, nil)
	m.SetQualityLevel(level)
	m.SetAutoAdjust(true)
	return m
}

func TestGetPreset_Ordering(t *testing.T) {
	require.NoError(t, DefaultQualityPresets().CheckOrder())

	levels := []QualityLevel{QualityLow, QualityMedium, QualityHigh, QualityUltra}
	for i, l := range levels {
		p := GetPreset(l)
		assert.Equal(t, l, p.Level)
		assert.Equal(t, p, p.Validated(), "%s preset is already valid", l)
		assert.False(t, p.AutoAdjust)
		if i == 0 {
			continue
		}
		prev := GetPreset(levels[i-1])
		assert.LessOrEqual(t, prev.MaxLightsPerFrame, p.MaxLightsPerFrame)
		assert.LessOrEqual(t, prev.MaxLightsPerPixel, p.MaxLightsPerPixel)
		assert.LessOrEqual(t, prev.ShadowMapResolution, p.ShadowMapResolution)
		assert.LessOrEqual(t, prev.RenderScale, p.RenderScale)
		assert.LessOrEqual(t, prev.EffectCount(), p.EffectCount())
	}

	custom := GetPreset(QualityCustom)
	assert.Equal(t, QualityCustom, custom.Level)
	custom.Level = QualityHigh
	assert.Equal(t, GetPreset(QualityHigh), custom)
	assert.Equal(t, QualityHigh, GetPreset(QualityLevel(42)).Level)
}

func TestQualitySettings_Validate(t *testing.T) {
	q := QualitySettings{
		Level:               QualityLevel(99),
		MaxLightsPerFrame:   0,
		MaxLightsPerPixel:   1000,
		ShadowMethod:        shadow.Method(7),
		ShadowMapResolution: 1,
		RenderScale:         float32(math.NaN()),
		MaxBloomIterations:  100,
		MaxShaftSamples:     0,
		TargetFrameRate:     float32(math.Inf(1)),
		AdjustThreshold:     -3,
	}
	q.Validate()

	assert.Equal(t, QualityCustom, q.Level)
	assert.Equal(t, MinLightsPerFrame, q.MaxLightsPerFrame)
	assert.Equal(t, MaxLightsPerPixel, q.MaxLightsPerPixel)
	assert.Equal(t, shadow.MethodBasic, q.ShadowMethod)
	assert.Equal(t, MinShadowMapResolution, q.ShadowMapResolution)
	assert.Equal(t, float32(MinRenderScale), q.RenderScale)
	assert.Equal(t, post.MaxBloomIterations, q.MaxBloomIterations)
	assert.Equal(t, post.MinShaftSamples, q.MaxShaftSamples)
	assert.Equal(t, float32(MaxTargetFrameRate), q.TargetFrameRate)
	assert.Equal(t, float32(0), q.AdjustThreshold)
}

func TestQualityLevel_Text(t *testing.T) {
	b, err := QualityUltra.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ultra", string(b))

	var l QualityLevel
	require.NoError(t, l.UnmarshalText([]byte("medium")))
	assert.Equal(t, QualityMedium, l)
	assert.Error(t, l.UnmarshalText([]byte("extreme")))
	_, err = QualityLevel(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "QualityLevel(9)", QualityLevel(9).String())
}

func TestQualityManager_PushesSettings(t *testing.T) {
	lighting := NewLightingSystem(0, 0)
	shadows := NewShadowSystem(shadow.MethodBasic)
	pp := NewPostProcessSystem(nil)

	m := NewQualityManager(lighting, shadows, pp)
	assert.Equal(t, QualityHigh, m.Level())
	assert.Equal(t, 64, lighting.MaxLightsPerFrame)
	assert.Equal(t, shadow.MethodSDF, shadows.Renderer.Method())
	assert.Equal(t, 2048, shadows.ShadowMapResolution())
	assert.True(t, pp.Quality().LightShafts)

	m.SetQualityLevel(QualityLow)
	assert.Equal(t, 16, lighting.MaxLightsPerFrame)
	assert.Equal(t, 4, lighting.MaxLightsPerPixel)
	assert.Equal(t, shadow.MethodBasic, shadows.Renderer.Method())
	assert.Equal(t, 512, shadows.ShadowMapResolution())
	q := pp.Quality()
	assert.False(t, q.Bloom)
	assert.False(t, q.LightShafts)
	assert.False(t, q.Fog)
	assert.True(t, q.ColorGrading)
	assert.Equal(t, float32(0.5), q.RenderScale)
	assert.Equal(t, 2, q.MaxBloomIterations)
	assert.Equal(t, 16, q.MaxShaftSamples)
}

func TestQualityManager_NilSystems(t *testing.T) {
	m := NewQualityManager(nil, nil, nil)
	assert.NotPanics(t, func() {
		m.SetQualityLevel(QualityLow)
		m.ApplyCustomSettings(GetPreset(QualityUltra))
		m.SetAutoAdjust(true)
		feed(m, 10, 100)
	})
}

func TestQualityManager_LevelChangesCarryController(t *testing.T) {
	m := NewQualityManager(nil, nil, nil)
	m.SetTargetFrameRate(30, 2)
	m.SetAutoAdjust(true)

	m.SetQualityLevel(QualityUltra)

	s := m.Settings()
	assert.Equal(t, QualityUltra, s.Level)
	assert.Equal(t, 128, s.MaxLightsPerFrame)
	assert.Equal(t, float32(30), s.TargetFrameRate)
	assert.Equal(t, float32(2), s.AdjustThreshold)
	assert.True(t, s.AutoAdjust)

	m.SetTargetFrameRate(1000, -1)
	assert.Equal(t, float32(MaxTargetFrameRate), m.Settings().TargetFrameRate)
	assert.Equal(t, float32(0), m.Settings().AdjustThreshold)
}

func TestQualityManager_Custom(t *testing.T) {
	m := NewQualityManager(nil, nil, nil)

	m.SetQualityLevel(QualityCustom)
	assert.Equal(t, QualityCustom, m.Level())
	assert.Equal(t, 64, m.Settings().MaxLightsPerFrame, "switching to custom keeps the parameters")

	custom := GetPreset(QualityLow)
	custom.MaxLightsPerFrame = 1000
	custom.RenderScale = 0.1
	m.ApplyCustomSettings(custom)

	s := m.Settings()
	assert.Equal(t, QualityCustom, s.Level)
	assert.Equal(t, MaxLightsPerFrame, s.MaxLightsPerFrame)
	assert.Equal(t, float32(MinRenderScale), s.RenderScale)
}

func TestQualityManager_AutoAdjustDown(t *testing.T) {
	m := autoManager(QualityHigh)

	feed(m, 30, FPSSampleCount/2-1)
	assert.Equal(t, QualityHigh, m.Level(), "needs half a window of samples")

	feed(m, 30, 1)
	assert.Equal(t, QualityMedium, m.Level())
	assert.Equal(t, 1, m.AdjustmentCount())

	feed(m, 30, 10)
	assert.Equal(t, QualityMedium, m.Level(), "cooldown holds the level")

	feed(m, 30, 20)
	assert.Equal(t, QualityLow, m.Level())

	feed(m, 30, 100)
	assert.Equal(t, QualityLow, m.Level())
	assert.Equal(t, 2, m.AdjustmentCount())
	assert.InDelta(t, 30, m.AverageFPS(), 1e-4)
	assert.True(t, m.Settings().AutoAdjust)
}

func TestQualityManager_AutoAdjustUp(t *testing.T) {
	m := autoManager(QualityLow)

	feed(m, 120, 300)

	assert.Equal(t, QualityUltra, m.Level())
	assert.Equal(t, 3, m.AdjustmentCount())
}

func TestQualityManager_AutoAdjustHoldsInsideBand(t *testing.T) {
	m := autoManager(QualityMedium)

	feed(m, 57, 100)
	feed(m, 64, 100)

	assert.Equal(t, QualityMedium, m.Level())
	assert.Equal(t, 0, m.AdjustmentCount())
}

func TestQualityManager_AutoAdjustCustom(t *testing.T) {
	m := autoManager(QualityHigh)
	m.ApplyCustomSettings(m.Settings())

	feed(m, 200, 100)
	assert.Equal(t, QualityCustom, m.Level(), "custom never moves up")

	feed(m, 10, 100)
	assert.Equal(t, QualityLow, m.Level())
	assert.Equal(t, 3, m.AdjustmentCount())
}

func TestQualityManager_SamplingRules(t *testing.T) {
	m := NewQualityManager(nil, nil, nil)
	feed(m, 30, 50)
	assert.Equal(t, float32(0), m.AverageFPS(), "no samples while auto adjust is off")

	m.SetAutoAdjust(true)
	for range 10 {
		m.UpdateAutoQuality(30, 0.01)
	}
	assert.InDelta(t, 30, m.AverageFPS(), 1e-4)
	assert.Equal(t, 1, m.sampleCount, "samples are at least MinSampleInterval apart")

	m.UpdateAutoQuality(0, MinSampleInterval)
	m.UpdateAutoQuality(float32(math.NaN()), MinSampleInterval)
	m.UpdateAutoQuality(float32(math.Inf(1)), MinSampleInterval)
	assert.Equal(t, 1, m.sampleCount)
}

func TestQualityManager_Callbacks(t *testing.T) {
	m := NewQualityManager(nil, nil, nil)

	type change struct{ from, to QualityLevel }
	var seen []change
	id := m.AddChangeCallback(func(old, new QualitySettings) {
		seen = append(seen, change{old.Level, new.Level})
	})
	other := 0
	m.AddChangeCallback(func(QualitySettings, QualitySettings) { other++ })

	m.SetQualityLevel(QualityLow)
	m.SetQualityLevel(QualityLow)
	m.SetQualityLevel(QualityUltra)

	assert.Equal(t, []change{{QualityHigh, QualityLow}, {QualityLow, QualityUltra}}, seen)
	assert.Equal(t, 2, other)

	assert.True(t, m.RemoveChangeCallback(id))
	assert.False(t, m.RemoveChangeCallback(id))
	assert.False(t, m.RemoveChangeCallback(uuid.New()))

	m.SetQualityLevel(QualityMedium)
	assert.Len(t, seen, 2)
	assert.Equal(t, 3, other)
}

func TestQualityManager_SetPresets(t *testing.T) {
	m := NewQualityManager(nil, nil, nil)

	presets := DefaultQualityPresets()
	low := presets[QualityLow]
	low.MaxLightsPerFrame = 8
	presets[QualityLow] = low
	require.NoError(t, m.SetPresets(presets))

	m.SetQualityLevel(QualityLow)
	assert.Equal(t, 8, m.Settings().MaxLightsPerFrame)

	bad := DefaultQualityPresets()
	ultra := bad[QualityUltra]
	ultra.ShadowMapResolution = 256
	bad[QualityUltra] = ultra
	assert.ErrorIs(t, m.SetPresets(bad), ErrPresetOrder)

	delete(bad, QualityMedium)
	assert.ErrorContains(t, m.SetPresets(bad), "missing medium")
}

func TestQualityModule_ConfiguresInstalledSystems(t *testing.T) {
	app := NewApp().UseModules(
		ShadowModule{Method: shadow.MethodSDF},
		LightingModule{},
		PostProcessModule{},
		QualityModule{Level: QualityMedium, AutoAdjust: true, TargetFrameRate: 30},
	)
	qm := Resource[QualityManager](app)
	require.NotNil(t, qm)
	s := qm.Settings()
	assert.Equal(t, QualityMedium, s.Level)
	assert.True(t, s.AutoAdjust)
	assert.Equal(t, float32(30), s.TargetFrameRate)
	assert.Equal(t, float32(DefaultAdjustThreshold), s.AdjustThreshold)

	app.Update(frame)

	assert.Equal(t, 32, Resource[LightingSystem](app).MaxLightsPerFrame)
	assert.Equal(t, shadow.MethodBasic, Resource[ShadowSystem](app).Renderer.Method())
	assert.Equal(t, float32(0.75), Resource[PostProcessSystem](app).Quality().RenderScale)
	assert.Equal(t, 1, qm.sampleCount)
}
