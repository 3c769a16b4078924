package lumen

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/gekko3d/lumen/light2d/gpu"
	"github.com/gekko3d/lumen/light2d/post"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postFixture struct {
	app     *App
	rec     *gpu.Recorder
	sys     *PostProcessSystem
	targets *FrameTargets
	errOut  *bytes.Buffer
}

func newPostFixture(t *testing.T, modules ...Module) postFixture {
	t.Helper()
	rec := gpu.NewRecorder()
	var out, errOut bytes.Buffer

	app := NewApp()
	app.Commands().AddResources(NewWriterLogger("test", true, &out, &errOut))
	app.UseModules(GPUModule{Name: "recorder", Backend: rec})
	app.UseModules(modules...)

	f := postFixture{
		app:     app,
		rec:     rec,
		sys:     Resource[PostProcessSystem](app),
		targets: Resource[FrameTargets](app),
		errOut:  &errOut,
	}
	require.NotNil(t, f.sys)
	require.NotNil(t, f.targets)
	f.targets.Scene = rec.CreateTarget("scene", 64, 32, gpu.FormatRGBA8)
	return f
}

func TestPostProcessSystem_DefaultChain(t *testing.T) {
	f := newPostFixture(t, PostProcessModule{})

	f.app.Update(frame)

	res := f.sys.LastResult()
	assert.Equal(t, []post.Stage{post.StageBloom, post.StageToneMapping, post.StageColorGrading}, res.Stages)
	require.NotNil(t, res.Final)
	assert.Equal(t, "color_grading", res.Final.Label())
	assert.Equal(t, 1, f.rec.Submits)
	assert.Equal(t, post.DefaultSettings(), f.sys.Settings())

	f.app.Shutdown()
	assert.Equal(t, 1, f.rec.LiveTargets(), "only the scene target outlives the pipeline")
}

func TestPostProcessSystem_ComponentSettingsAndLights(t *testing.T) {
	f := newPostFixture(t, LightingModule{}, PostProcessModule{})
	cmd := f.app.Commands()

	addCamera(cmd, mgl32.Vec2{}, 40, 20)
	cmd.AddEntity(&TransformComponent{Position: mgl32.Vec2{5, 2}}, pointLight(10, 3))
	cmd.AddEntity(&TransformComponent{Position: mgl32.Vec2{-5, 0}}, pointLight(10, 1))

	s := post.DefaultSettings()
	s.EnableBloom = false
	s.EnableLightShafts = true
	s.EnableFog = true
	s.EnableFogPenetration = true
	s.EnableColorGrading = false
	cmd.AddEntity(&PostProcessComponent{Settings: s})

	ignored := post.DefaultSettings()
	ignored.ToneMapping = post.ToneMapNone
	cmd.AddEntity(&PostProcessComponent{Settings: ignored})
	f.app.FlushCommands()

	f.app.Update(frame)

	assert.Equal(t, []post.Stage{post.StageLightShafts, post.StageFog, post.StageToneMapping}, f.sys.LastResult().Stages)
	assert.Equal(t, s, f.sys.Settings())

	var shafts, fog *gpu.RecordedPass
	for i := range f.rec.Passes {
		switch f.rec.Passes[i].Effect {
		case gpu.EffectLightShafts:
			shafts = &f.rec.Passes[i]
		case gpu.EffectFog:
			fog = &f.rec.Passes[i]
		}
	}
	require.NotNil(t, shafts)
	require.NotNil(t, fog)

	// the shaft radiates from the highest priority light
	lightUV := post.NewCamera(mgl32.Vec2{}, 40, 20).WorldToScreenUV(mgl32.Vec2{5, 2})
	assert.InDelta(t, lightUV.X(), shafts.Uniforms[0], 1e-5)
	assert.InDelta(t, lightUV.Y(), shafts.Uniforms[1], 1e-5)
	// both lights penetrate the fog
	assert.Equal(t, float32(2), fog.Uniforms[11])
}

func TestPostProcessSystem_QualityCaps(t *testing.T) {
	f := newPostFixture(t, PostProcessModule{})
	q := post.FullQuality()
	q.Bloom = false
	q.ColorGrading = false
	q.RenderScale = 0.5
	f.sys.SetQuality(q)

	f.app.Update(frame)

	assert.Equal(t, []post.Stage{post.StageToneMapping}, f.sys.LastResult().Stages)
	w, h := f.sys.Pipeline().Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	assert.Equal(t, q, f.sys.Quality())
}

func TestPostProcessSystem_NoSceneSkipsFrame(t *testing.T) {
	f := newPostFixture(t, PostProcessModule{})
	f.targets.Scene = nil

	f.app.Update(frame)

	assert.Empty(t, f.sys.LastResult().Stages)
	assert.Nil(t, f.sys.LastResult().Final)
	assert.Equal(t, 0, f.rec.Submits)
}

func TestPostProcessSystem_MissingLUTDisablesLookup(t *testing.T) {
	s := post.DefaultSettings()
	s.LUTPath = filepath.Join(t.TempDir(), "missing.cube")
	f := newPostFixture(t, PostProcessModule{Settings: &s})

	f.app.Update(frame)
	f.app.Update(frame)

	assert.Equal(t, 1, bytes.Count(f.errOut.Bytes(), []byte("post: lut disabled")), "a failed load is reported once")
	assert.Contains(t, f.sys.LastResult().Stages, post.StageColorGrading)
	for _, p := range f.rec.Passes {
		if p.Effect == gpu.EffectColorGrading {
			assert.Equal(t, []string{"tone_mapping", "black"}, p.Inputs)
			assert.Equal(t, float32(0), p.Uniforms[3])
		}
	}
}

func TestPostProcessSystem_ProcessImage(t *testing.T) {
	f := newPostFixture(t, PostProcessModule{})
	s := post.DefaultSettings()
	s.EnableBloom = false
	s.EnableColorGrading = false
	s.ToneMapping = post.ToneMapNone
	f.sys.SetSettings(s)
	f.app.Update(frame)

	src := post.NewHDRImage(4, 2)
	for i := range src.Pix {
		src.Pix[i] = mgl32.Vec3{float32(i) * 0.1, 0.5, 2}
	}
	got := f.sys.ProcessImage(src)

	require.Equal(t, src.Width, got.Width)
	assert.Equal(t, src.Pix, got.Pix)
	got.Pix[0] = mgl32.Vec3{9, 9, 9}
	assert.NotEqual(t, got.Pix[0], src.Pix[0], "the source is not modified")

	// quality caps apply on the CPU path too
	s.EnableBloom = true
	f.sys.SetSettings(s)
	q := post.FullQuality()
	q.Bloom = false
	f.sys.SetQuality(q)
	f.app.Update(frame)
	assert.Equal(t, src.Pix, f.sys.ProcessImage(src).Pix)
}

func TestPostProcessSystem_ExplicitBackendWins(t *testing.T) {
	own := gpu.NewRecorder()
	f := newPostFixture(t, PostProcessModule{Backend: own})
	f.targets.Scene = own.CreateTarget("scene", 8, 8, gpu.FormatRGBA8)

	f.app.Update(frame)

	assert.Equal(t, 1, own.Submits)
	assert.Equal(t, 0, f.rec.Submits)
}
