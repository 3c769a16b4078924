package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/gekko3d/lumen"
	"github.com/gekko3d/lumen/light2d/core"
	"github.com/gekko3d/lumen/light2d/gpu"
	"github.com/gekko3d/lumen/light2d/post"
	"github.com/gekko3d/lumen/light2d/shadow"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	runtime.LockOSThread()
}

// shadeDivisor is the ratio between window pixels and CPU shaded pixels.
const shadeDivisor = 4

var Shade = lumen.Stage{Name: "Shade"}

type orbit struct {
	Phase  float32
	Radius float32
	Speed  float32 // radians per second
}

// sceneShader lights the floor on the CPU and uploads it as the scene target.
type sceneShader struct {
	image  *post.HDRImage
	target gpu.Target
}

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	quiet := flag.Bool("quiet", false, "Log only warnings and errors")
	width := flag.Int("width", 1280, "Window width")
	height := flag.Int("height", 720, "Window height")
	quality := flag.String("quality", "high", "Quality level: low, medium, high, ultra")
	auto := flag.Bool("auto", false, "Adjust quality to hold the target frame rate")
	settingsPath := flag.String("settings", "", "Post-processing settings YAML")
	presetsPath := flag.String("presets", "", "Quality preset table JSON")
	capturePath := flag.String("capture", "", "Write the last frame as WebP on exit")
	flag.Parse()

	var level lumen.QualityLevel
	if err := level.UnmarshalText([]byte(*quality)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	settings := post.DefaultSettings()
	settings.EnableLightShafts = true
	settings.EnableFog = true
	settings.FogStart, settings.FogEnd = 20, 90
	if *settingsPath != "" {
		loaded, err := lumen.LoadPostProcessSettings(*settingsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "settings: %v\n", err)
		}
		settings = loaded
	}

	app := lumen.NewApp()
	app.UseStage(Shade, lumen.BeforeStage(lumen.Render))
	app.UseModules(
		lumen.LoggingModule{Prefix: "lumen", Debug: *debug, Quiet: *quiet},
		lumen.TimeModule{},
		lumen.WindowModule{Width: *width, Height: *height, Title: "lumen"},
		lumen.InputModule{},
		lumen.PanCameraModule{},
		lumen.LifetimeModule{},
		lumen.ShadowModule{Method: shadow.MethodSDF},
		lumen.LightingModule{},
		lumen.LightProbeModule{
			Grid:            &core.AABB{Min: mgl32.Vec2{-60, -40}, Max: mgl32.Vec2{60, 40}},
			Spacing:         10,
			InfluenceRadius: 15,
		},
		lumen.PostProcessModule{Settings: &settings},
		lumen.QualityModule{Level: level, AutoAdjust: *auto},
	)

	log := app.Logger()
	qm := lumen.Resource[lumen.QualityManager](app)
	if *presetsPath != "" {
		presets, err := lumen.LoadQualityPresets(*presetsPath)
		if err == nil {
			err = qm.SetPresets(presets)
		}
		if err != nil {
			log.Warnf("presets: %v", err)
		}
	}
	qm.AddChangeCallback(func(old, new lumen.QualitySettings) {
		log.Infof("quality %s -> %s (%d lights, %.2f scale)", old.Level, new.Level, new.MaxLightsPerFrame, new.RenderScale)
	})

	populate(app.Commands())
	app.FlushCommands()

	shader := &sceneShader{}
	app.Commands().AddResources(shader)
	app.UseSystem(lumen.System(orbitSystem).InStage(lumen.Update))
	app.UseSystem(lumen.System(hotkeySystem).InStage(lumen.Update))
	app.UseSystem(lumen.System(flashSystem).InStage(lumen.Update))
	app.UseSystem(lumen.System(shadeSystem).InStage(Shade))

	app.Run()

	if *capturePath != "" && shader.image != nil {
		if err := capture(app, shader.image, *capturePath); err != nil {
			log.Errorf("capture: %v", err)
		}
	}
}

func populate(cmd *lumen.Commands) {
	cmd.AddEntity(
		&lumen.TransformComponent{},
		&lumen.CameraComponent{ViewportWidth: 128, ViewportHeight: 72, Zoom: 1, Active: true},
		&lumen.PanCameraComponent{Speed: 40, MinZoom: 0.5, MaxZoom: 4},
	)
	cmd.AddEntity(
		&lumen.TransformComponent{},
		&lumen.AmbientZoneComponent{
			Size:           mgl32.Vec2{200, 200},
			PrimaryColor:   mgl32.Vec4{0.05, 0.05, 0.1, 1},
			SecondaryColor: mgl32.Vec4{0.1, 0.08, 0.05, 1},
			Intensity:      1,
			GradientMode:   core.GradientVertical,
			BlendWeight:    1,
		},
	)

	colors := []mgl32.Vec4{{1, 0.6, 0.3, 1}, {0.3, 0.6, 1, 1}, {0.5, 1, 0.4, 1}}
	for i, c := range colors {
		phase := float32(i) * 2 * math.Pi / float32(len(colors))
		cmd.AddEntity(
			&lumen.TransformComponent{},
			&lumen.LightComponent{
				Type:        core.LightTypePoint,
				Color:       c,
				Intensity:   2,
				Radius:      35,
				LayerMask:   core.AllLayers,
				Attenuation: core.AttenuationQuadratic,
				CastShadows: true,
				Priority:    len(colors) - i,
			},
			&orbit{Radius: 25 + 5*float32(i), Speed: 0.4 + 0.2*float32(i), Phase: phase},
		)
	}
	cmd.AddEntity(
		&lumen.TransformComponent{Position: mgl32.Vec2{-45, 25}, Rotation: -math.Pi / 4},
		&lumen.LightComponent{
			Type:        core.LightTypeSpot,
			Color:       mgl32.Vec4{1, 1, 0.9, 1},
			Intensity:   3,
			Radius:      60,
			InnerAngle:  15,
			OuterAngle:  30,
			LayerMask:   core.AllLayers,
			Attenuation: core.AttenuationLinear,
			CastShadows: true,
		},
	)
	cmd.AddEntity(
		&lumen.TransformComponent{Position: mgl32.Vec2{40, -25}},
		&lumen.AreaLightComponent{
			Shape:       core.AreaRectangle,
			Size:        mgl32.Vec2{12, 3},
			Color:       mgl32.Vec4{1, 0.3, 0.6, 1},
			Intensity:   1.5,
			Radius:      20,
			LayerMask:   core.AllLayers,
			Attenuation: core.AttenuationQuadratic,
		},
	)

	casters := []struct {
		pos    mgl32.Vec2
		caster shadow.Caster
	}{
		{mgl32.Vec2{10, 5}, shadow.Caster{Shape: shadow.ShapeRectangle, Size: mgl32.Vec2{6, 10}, Opacity: 1}},
		{mgl32.Vec2{-15, -10}, shadow.Caster{Shape: shadow.ShapeCircle, Radius: 4, Opacity: 1, Static: true}},
		{mgl32.Vec2{-5, 20}, shadow.Caster{
			Shape:    shadow.ShapePolygon,
			Vertices: []mgl32.Vec2{{-4, -3}, {4, -3}, {0, 4}},
			Opacity:  0.8,
		}},
	}
	for _, c := range casters {
		cmd.AddEntity(&lumen.TransformComponent{Position: c.pos}, &lumen.ShadowCasterComponent{Caster: c.caster})
	}
}

// orbitSystem moves lights on circles around the origin.
func orbitSystem(cmd *lumen.Commands, t *lumen.Time) {
	secs := float32(t.Elapsed.Seconds())
	lumen.MakeQuery2[lumen.TransformComponent, orbit](cmd).Map(func(eid lumen.EntityId, tr *lumen.TransformComponent, o *orbit) bool {
		a := float64(o.Phase + secs*o.Speed)
		tr.Position = mgl32.Vec2{o.Radius * float32(math.Cos(a)), o.Radius * float32(math.Sin(a))}
		return true
	})
}

// hotkeySystem: 1-4 pick a quality level, 5 toggles auto adjust, B, F, G and
// P toggle bloom, fog, grading and light shafts, Escape quits.
func hotkeySystem(cmd *lumen.Commands, input *lumen.Input, qm *lumen.QualityManager, pp *lumen.PostProcessSystem) {
	levels := map[int]lumen.QualityLevel{
		lumen.Key1: lumen.QualityLow,
		lumen.Key2: lumen.QualityMedium,
		lumen.Key3: lumen.QualityHigh,
		lumen.Key4: lumen.QualityUltra,
	}
	for key, level := range levels {
		if input.JustPressed[key] {
			qm.SetQualityLevel(level)
		}
	}
	if input.JustPressed[lumen.Key5] {
		auto := !qm.Settings().AutoAdjust
		qm.SetAutoAdjust(auto)
		cmd.Logger().Infof("auto quality: %v", auto)
	}

	s := pp.Settings()
	toggled := true
	switch {
	case input.JustPressed[lumen.KeyB]:
		s.EnableBloom = !s.EnableBloom
	case input.JustPressed[lumen.KeyF]:
		s.EnableFog = !s.EnableFog
	case input.JustPressed[lumen.KeyG]:
		s.EnableColorGrading = !s.EnableColorGrading
	case input.JustPressed[lumen.KeyP]:
		s.EnableLightShafts = !s.EnableLightShafts
	default:
		toggled = false
	}
	if toggled {
		pp.SetSettings(s)
	}

	if input.JustPressed[lumen.KeyEscape] {
		cmd.Exit()
	}
}

// flashSystem spawns a short-lived light under the cursor on left click.
func flashSystem(cmd *lumen.Commands, input *lumen.Input, win *lumen.Window, lighting *lumen.LightingSystem) {
	if !input.JustPressed[lumen.MouseButtonLeft] {
		return
	}
	cam, ok := lighting.Camera()
	if !ok {
		return
	}
	ww, wh := win.Glfw.GetSize()
	if ww <= 0 || wh <= 0 {
		return
	}
	uv := mgl32.Vec2{float32(input.MouseX) / float32(ww), float32(input.MouseY) / float32(wh)}
	cmd.AddEntity(
		&lumen.TransformComponent{Position: cam.ScreenUVToWorld(uv)},
		&lumen.LightComponent{
			Type:        core.LightTypePoint,
			Color:       mgl32.Vec4{1, 0.9, 0.6, 1},
			Intensity:   4,
			Radius:      20,
			LayerMask:   core.AllLayers,
			Attenuation: core.AttenuationQuadratic,
			Priority:    10,
		},
		&lumen.LifetimeComponent{TimeLeft: 0.6, Duration: 0.6, FadeLight: true},
	)
}

func shadeSystem(
	win *lumen.Window,
	ctx *lumen.GPUContext,
	targets *lumen.FrameTargets,
	lighting *lumen.LightingSystem,
	shadows *lumen.ShadowSystem,
	probes *lumen.LightProbeSystem,
	shader *sceneShader,
) {
	cam, ok := lighting.Camera()
	if !ok {
		return
	}
	ww, wh := win.Size()
	w, h := max(ww/shadeDivisor, 1), max(wh/shadeDivisor, 1)
	if shader.image == nil || shader.image.Width != w || shader.image.Height != h {
		shader.image = post.NewHDRImage(w, h)
		gpu.Release(shader.target)
		shader.target = ctx.Backend.CreateTarget("scene", w, h, gpu.FormatRGBA16F)
	}

	img := shader.image
	for y := range h {
		for x := range w {
			uv := mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
			p := cam.ScreenUVToWorld(uv)
			albedo := floor(p)
			light := lighting.ShadowedLightAt(p, core.AllLayers, shadows).Add(lighting.AmbientAt(p).Vec3())
			if indirect, ok := probes.Sample(p); ok {
				light = light.Add(indirect.Mul(0.25))
			}
			img.Set(x, y, mgl32.Vec3{albedo[0] * light[0], albedo[1] * light[1], albedo[2] * light[2]})
		}
	}

	if shader.target == nil {
		targets.Scene = nil
		return
	}
	ctx.Backend.WriteTarget(shader.target, img.ToRGBA16F())
	targets.Scene = shader.target
}

func floor(p mgl32.Vec2) mgl32.Vec3 {
	cx := int(math.Floor(float64(p.X() / 8)))
	cy := int(math.Floor(float64(p.Y() / 8)))
	if (cx+cy)&1 == 0 {
		return mgl32.Vec3{0.8, 0.8, 0.8}
	}
	return mgl32.Vec3{0.55, 0.55, 0.6}
}

func capture(app *lumen.App, img *post.HDRImage, path string) error {
	pp := lumen.Resource[lumen.PostProcessSystem](app)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := post.CaptureWebP(f, pp.ProcessImage(img).ToRGBA(), 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
