package lumen

import (
	"fmt"
	"math"
	"slices"

	"github.com/gekko3d/lumen/light2d/post"
	"github.com/gekko3d/lumen/light2d/shadow"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type QualityLevel uint8

const (
	QualityLow QualityLevel = iota
	QualityMedium
	QualityHigh
	QualityUltra
	QualityCustom
)

var qualityLevelNames = map[QualityLevel]string{
	QualityLow:    "low",
	QualityMedium: "medium",
	QualityHigh:   "high",
	QualityUltra:  "ultra",
	QualityCustom: "custom",
}

func (l QualityLevel) String() string {
	if s, ok := qualityLevelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("QualityLevel(%d)", uint8(l))
}

func (l QualityLevel) MarshalText() ([]byte, error) {
	s, ok := qualityLevelNames[l]
	if !ok {
		return nil, fmt.Errorf("unknown quality level %d", uint8(l))
	}
	return []byte(s), nil
}

func (l *QualityLevel) UnmarshalText(text []byte) error {
	for k, v := range qualityLevelNames {
		if v == string(text) {
			*l = k
			return nil
		}
	}
	return fmt.Errorf("unknown quality level %q", text)
}

const (
	FPSSampleCount        = 60
	MinSampleInterval     = 0.1 // seconds
	QualityAdjustCooldown = 2.0 // seconds

	DefaultTargetFrameRate = 60
	DefaultAdjustThreshold = 5
)

// Valid ranges of QualitySettings.
const (
	MinLightsPerFrame      = 1
	MaxLightsPerFrame      = 256
	MinLightsPerPixel      = 1
	MaxLightsPerPixel      = 64
	MinShadowMapResolution = 128
	MaxShadowMapResolution = 8192
	MinRenderScale         = 0.25
	MaxRenderScale         = 2
	MinTargetFrameRate     = 10
	MaxTargetFrameRate     = 240
	MaxAdjustThreshold     = 60
)

// QualitySettings is the parameter bundle a quality level stands for.
type QualitySettings struct {
	Level QualityLevel `yaml:"level" json:"level"`

	MaxLightsPerFrame int `yaml:"maxLightsPerFrame" json:"maxLightsPerFrame"`
	MaxLightsPerPixel int `yaml:"maxLightsPerPixel" json:"maxLightsPerPixel"`

	ShadowMethod        shadow.Method `yaml:"shadowMethod" json:"shadowMethod"`
	ShadowMapResolution int           `yaml:"shadowMapResolution" json:"shadowMapResolution"`
	ShadowCache         bool          `yaml:"shadowCache" json:"shadowCache"`

	EnableBloom        bool    `yaml:"enableBloom" json:"enableBloom"`
	EnableLightShafts  bool    `yaml:"enableLightShafts" json:"enableLightShafts"`
	EnableFog          bool    `yaml:"enableFog" json:"enableFog"`
	EnableColorGrading bool    `yaml:"enableColorGrading" json:"enableColorGrading"`
	RenderScale        float32 `yaml:"renderScale" json:"renderScale"`
	MaxBloomIterations int     `yaml:"maxBloomIterations" json:"maxBloomIterations"`
	MaxShaftSamples    int     `yaml:"maxShaftSamples" json:"maxShaftSamples"`

	TargetFrameRate float32 `yaml:"targetFrameRate" json:"targetFrameRate"`
	AdjustThreshold float32 `yaml:"adjustThreshold" json:"adjustThreshold"`
	AutoAdjust      bool    `yaml:"autoAdjust" json:"autoAdjust"`
}

// Validate clamps every field into its valid range. Non-finite floats take
// the lower bound; unknown enums fall back to Custom and the basic method.
func (q *QualitySettings) Validate() {
	if _, ok := qualityLevelNames[q.Level]; !ok {
		q.Level = QualityCustom
	}
	q.MaxLightsPerFrame = min(max(q.MaxLightsPerFrame, MinLightsPerFrame), MaxLightsPerFrame)
	q.MaxLightsPerPixel = min(max(q.MaxLightsPerPixel, MinLightsPerPixel), MaxLightsPerPixel)
	if q.ShadowMethod > shadow.MethodSDF {
		q.ShadowMethod = shadow.MethodBasic
	}
	q.ShadowMapResolution = min(max(q.ShadowMapResolution, MinShadowMapResolution), MaxShadowMapResolution)
	q.RenderScale = clampFinite(q.RenderScale, MinRenderScale, MaxRenderScale)
	q.MaxBloomIterations = min(max(q.MaxBloomIterations, post.MinBloomIterations), post.MaxBloomIterations)
	q.MaxShaftSamples = min(max(q.MaxShaftSamples, post.MinShaftSamples), post.MaxShaftSamples)
	q.TargetFrameRate = clampFinite(q.TargetFrameRate, MinTargetFrameRate, MaxTargetFrameRate)
	q.AdjustThreshold = clampFinite(q.AdjustThreshold, 0, MaxAdjustThreshold)
}

func (q QualitySettings) Validated() QualitySettings {
	q.Validate()
	return q
}

// EffectCount is the number of enabled optional post effects.
func (q QualitySettings) EffectCount() int {
	n := 0
	for _, on := range []bool{q.EnableBloom, q.EnableLightShafts, q.EnableFog, q.EnableColorGrading} {
		if on {
			n++
		}
	}
	return n
}

func (q QualitySettings) postQuality() post.Quality {
	return post.Quality{
		Bloom:              q.EnableBloom,
		LightShafts:        q.EnableLightShafts,
		Fog:                q.EnableFog,
		ColorGrading:       q.EnableColorGrading,
		RenderScale:        q.RenderScale,
		MaxBloomIterations: q.MaxBloomIterations,
		MaxShaftSamples:    q.MaxShaftSamples,
	}
}

func clampFinite(v, lo, hi float32) float32 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), -1) {
		return lo
	}
	return mgl32.Clamp(v, lo, hi)
}

// GetPreset returns the fixed bundle of level. Custom has no bundle of its
// own and returns the High values labelled Custom.
func GetPreset(level QualityLevel) QualitySettings {
	q := QualitySettings{
		Level:           level,
		ShadowCache:     true,
		TargetFrameRate: DefaultTargetFrameRate,
		AdjustThreshold: DefaultAdjustThreshold,
	}
	switch level {
	case QualityLow:
		q.MaxLightsPerFrame, q.MaxLightsPerPixel = 16, 4
		q.ShadowMethod, q.ShadowMapResolution = shadow.MethodBasic, 512
		q.EnableColorGrading = true
		q.RenderScale = 0.5
		q.MaxBloomIterations, q.MaxShaftSamples = 2, 16
	case QualityMedium:
		q.MaxLightsPerFrame, q.MaxLightsPerPixel = 32, 8
		q.ShadowMethod, q.ShadowMapResolution = shadow.MethodBasic, 1024
		q.EnableBloom, q.EnableFog, q.EnableColorGrading = true, true, true
		q.RenderScale = 0.75
		q.MaxBloomIterations, q.MaxShaftSamples = 4, 32
	case QualityUltra:
		q.MaxLightsPerFrame, q.MaxLightsPerPixel = 128, 32
		q.ShadowMethod, q.ShadowMapResolution = shadow.MethodSDF, 4096
		q.EnableBloom, q.EnableLightShafts, q.EnableFog, q.EnableColorGrading = true, true, true, true
		q.RenderScale = 1
		q.MaxBloomIterations, q.MaxShaftSamples = 8, 128
	default:
		q.MaxLightsPerFrame, q.MaxLightsPerPixel = 64, 16
		q.ShadowMethod, q.ShadowMapResolution = shadow.MethodSDF, 2048
		q.EnableBloom, q.EnableLightShafts, q.EnableFog, q.EnableColorGrading = true, true, true, true
		q.RenderScale = 1
		q.MaxBloomIterations, q.MaxShaftSamples = 6, 64
		if level != QualityCustom {
			q.Level = QualityHigh
		}
	}
	return q
}

// QualityChangeFunc is called after a level change has been pushed to the
// systems.
type QualityChangeFunc func(old, new QualitySettings)

type qualityCallback struct {
	id uuid.UUID
	fn QualityChangeFunc
}

// QualityManager owns the active QualitySettings and pushes them into the
// lighting, shadow and post-processing systems. Any of them may be nil.
// With AutoAdjust on, UpdateAutoQuality moves one level at a time to keep
// the frame rate within TargetFrameRate ± AdjustThreshold.
type QualityManager struct {
	settings QualitySettings

	lighting *LightingSystem
	shadows  *ShadowSystem
	post     *PostProcessSystem
	log      Logger

	samples     [FPSSampleCount]float32
	sampleCount int
	nextSample  int

	clock       float64
	lastSample  float64
	lastAdjust  float64
	adjustments int

	presets   QualityPresets
	callbacks []qualityCallback
}

// NewQualityManager starts at High and pushes it to the given systems.
func NewQualityManager(lighting *LightingSystem, shadows *ShadowSystem, post *PostProcessSystem) *QualityManager {
	m := &QualityManager{
		settings:   GetPreset(QualityHigh),
		log:        NewNopLogger(),
		lastSample: -MinSampleInterval,
		lastAdjust: -QualityAdjustCooldown,
	}
	m.Bind(lighting, shadows, post)
	return m
}

// Bind sets the systems to configure and pushes the current settings.
// nil arguments keep the current binding.
func (m *QualityManager) Bind(lighting *LightingSystem, shadows *ShadowSystem, post *PostProcessSystem) {
	if lighting != nil {
		m.lighting = lighting
	}
	if shadows != nil {
		m.shadows = shadows
	}
	if post != nil {
		m.post = post
	}
	m.apply()
}

func (m *QualityManager) apply() {
	q := m.settings
	if m.lighting != nil {
		m.lighting.SetLimits(q.MaxLightsPerFrame, q.MaxLightsPerPixel)
	}
	if m.shadows != nil {
		m.shadows.Configure(q.ShadowMethod, q.ShadowMapResolution, q.ShadowCache)
	}
	if m.post != nil {
		m.post.SetQuality(q.postQuality())
	}
}

func (m *QualityManager) Settings() QualitySettings { return m.settings }

func (m *QualityManager) Level() QualityLevel { return m.settings.Level }

// SetQualityLevel switches to the preset of level. The frame rate target,
// threshold and auto-adjust flag carry over. Switching to Custom keeps the
// current parameters and only relabels them.
func (m *QualityManager) SetQualityLevel(level QualityLevel) {
	if level == m.settings.Level {
		return
	}
	next := m.settings
	if level == QualityCustom {
		next.Level = QualityCustom
	} else {
		next = m.carryController(m.preset(level))
	}
	m.change(next.Validated())
}

// ApplyCustomSettings adopts settings after clamping them and sets the level
// to Custom.
func (m *QualityManager) ApplyCustomSettings(settings QualitySettings) {
	settings.Validate()
	settings.Level = QualityCustom
	m.change(settings)
}

// SetPresets replaces the bundles used for the fixed levels, for instance
// with a table from LoadQualityPresets. The current level is not reapplied.
func (m *QualityManager) SetPresets(presets QualityPresets) error {
	if err := presets.CheckOrder(); err != nil {
		return err
	}
	m.presets = presets
	return nil
}

func (m *QualityManager) preset(level QualityLevel) QualitySettings {
	if q, ok := m.presets[level]; ok {
		return q
	}
	return GetPreset(level)
}

func (m *QualityManager) carryController(q QualitySettings) QualitySettings {
	q.TargetFrameRate = m.settings.TargetFrameRate
	q.AdjustThreshold = m.settings.AdjustThreshold
	q.AutoAdjust = m.settings.AutoAdjust
	return q
}

func (m *QualityManager) change(next QualitySettings) {
	old := m.settings
	m.settings = next
	m.apply()
	if old.Level != next.Level {
		m.log.Infof("quality: %s -> %s", old.Level, next.Level)
	}
	for _, cb := range slices.Clone(m.callbacks) {
		cb.fn(old, next)
	}
}

// SetAutoAdjust toggles the frame rate controller without changing level.
func (m *QualityManager) SetAutoAdjust(enabled bool) {
	m.settings.AutoAdjust = enabled
}

// SetTargetFrameRate changes the controller's band. Values are clamped.
func (m *QualityManager) SetTargetFrameRate(target, threshold float32) {
	m.settings.TargetFrameRate = clampFinite(target, MinTargetFrameRate, MaxTargetFrameRate)
	m.settings.AdjustThreshold = clampFinite(threshold, 0, MaxAdjustThreshold)
}

// UpdateAutoQuality is called once per frame with the measured frame rate
// and the frame duration in seconds.
func (m *QualityManager) UpdateAutoQuality(fps, dt float32) {
	if finiteNonNegative(dt) {
		m.clock += float64(dt)
	}
	if !m.settings.AutoAdjust {
		return
	}
	if fps > 0 && finiteNonNegative(fps) && m.clock-m.lastSample >= MinSampleInterval-1e-9 {
		m.samples[m.nextSample] = fps
		m.nextSample = (m.nextSample + 1) % FPSSampleCount
		m.sampleCount = min(m.sampleCount+1, FPSSampleCount)
		m.lastSample = m.clock
	}
	if m.sampleCount < FPSSampleCount/2 {
		return
	}
	if m.clock-m.lastAdjust < QualityAdjustCooldown {
		return
	}

	avg := m.AverageFPS()
	level := m.settings.Level
	target, band := m.settings.TargetFrameRate, m.settings.AdjustThreshold
	switch {
	case avg < target-band && level != QualityLow:
		next := level - 1
		if level == QualityCustom {
			next = QualityHigh
		}
		m.adjust(next, avg)
	case avg > target+band && level != QualityUltra && level != QualityCustom:
		m.adjust(level+1, avg)
	}
}

func (m *QualityManager) adjust(level QualityLevel, avg float32) {
	m.log.Debugf("quality: average %.1f fps, moving to %s", avg, level)
	m.change(m.carryController(m.preset(level)).Validated())
	m.lastAdjust = m.clock
	m.adjustments++
}

func finiteNonNegative(v float32) bool {
	return v >= 0 && !math.IsInf(float64(v), 1)
}

// AverageFPS is the mean of the sample window, 0 before the first sample.
func (m *QualityManager) AverageFPS() float32 {
	if m.sampleCount == 0 {
		return 0
	}
	var sum float64
	for _, s := range m.samples[:m.sampleCount] {
		sum += float64(s)
	}
	return float32(sum / float64(m.sampleCount))
}

// AdjustmentCount is the number of automatic level changes so far.
func (m *QualityManager) AdjustmentCount() int { return m.adjustments }

// AddChangeCallback registers fn and returns a handle for removing it.
func (m *QualityManager) AddChangeCallback(fn QualityChangeFunc) uuid.UUID {
	id := uuid.New()
	m.callbacks = append(m.callbacks, qualityCallback{id: id, fn: fn})
	return id
}

func (m *QualityManager) RemoveChangeCallback(id uuid.UUID) bool {
	i := slices.IndexFunc(m.callbacks, func(cb qualityCallback) bool { return cb.id == id })
	if i < 0 {
		return false
	}
	m.callbacks = slices.Delete(m.callbacks, i, i+1)
	return true
}

// OnCreate binds whichever systems are installed as resources.
func (m *QualityManager) OnCreate(cmd *Commands) {
	m.log = cmd.Logger()
	m.Bind(Resource[LightingSystem](cmd.app), Resource[ShadowSystem](cmd.app), Resource[PostProcessSystem](cmd.app))
}

// OnUpdate feeds the frame's rate into the controller.
func (m *QualityManager) OnUpdate(cmd *Commands, dt float32) {
	var fps float32
	if dt > 0 {
		fps = 1 / dt
	}
	m.UpdateAutoQuality(fps, dt)
}

func (m *QualityManager) OnDestroy(cmd *Commands) {}

// QualityModule installs a QualityManager resource that configures the other
// modules once they are created. The zero Level is Low.
type QualityModule struct {
	Level           QualityLevel
	AutoAdjust      bool
	TargetFrameRate float32
	AdjustThreshold float32
}

func (m QualityModule) Install(app *App, cmd *Commands) {
	qm := NewQualityManager(nil, nil, nil)
	qm.SetQualityLevel(m.Level)
	if m.TargetFrameRate > 0 {
		threshold := m.AdjustThreshold
		if threshold <= 0 {
			threshold = DefaultAdjustThreshold
		}
		qm.SetTargetFrameRate(m.TargetFrameRate, threshold)
	}
	qm.SetAutoAdjust(m.AutoAdjust)
	cmd.AddResources(qm)
	app.UseLifecycle(qm, PostRender)
}
