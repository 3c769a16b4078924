package lumen

import (
	"testing"

	"github.com/gekko3d/lumen/light2d/shadow"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wall() *ShadowCasterComponent {
	return &ShadowCasterComponent{
		Caster: shadow.Caster{Shape: shadow.ShapeRectangle, Size: mgl32.Vec2{2, 10}, Opacity: 1},
	}
}

func TestShadowSystem_TracksCasters(t *testing.T) {
	app := NewApp().UseModules(ShadowModule{Method: shadow.MethodBasic})
	sys := Resource[ShadowSystem](app)
	require.NotNil(t, sys)

	cmd := app.Commands()
	eid := cmd.AddEntity(&TransformComponent{Position: mgl32.Vec2{5, 0}}, wall())
	app.FlushCommands()

	app.Update(frame)
	assert.Equal(t, 1, sys.Renderer.Len())
	assert.Equal(t, 1, sys.Stats().Regenerated)
	assert.Equal(t, float32(1), sys.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1))
	assert.Equal(t, float32(0), sys.Occlusion(mgl32.Vec2{-10, 0}, mgl32.Vec2{}, 1))

	// unchanged casters come from the cache
	app.Update(frame)
	assert.Equal(t, 0, sys.Stats().Regenerated)
	assert.Equal(t, 1, sys.Stats().CacheHits)

	sys.Invalidate(eid)
	app.Update(frame)
	assert.Equal(t, 1, sys.Stats().Regenerated)

	cmd.RemoveEntity(eid)
	app.FlushCommands()
	app.Update(frame)
	assert.Equal(t, 0, sys.Renderer.Len())
	assert.Equal(t, float32(0), sys.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1))
}

func TestShadowSystem_MovingCasterRegenerates(t *testing.T) {
	app := NewApp().UseModules(ShadowModule{Method: shadow.MethodBasic})
	sys := Resource[ShadowSystem](app)
	cmd := app.Commands()
	eid := cmd.AddEntity(&TransformComponent{Position: mgl32.Vec2{5, 0}}, wall())
	app.FlushCommands()
	app.Update(frame)

	cmd.AddComponents(eid, &TransformComponent{Position: mgl32.Vec2{-5, 0}})
	app.FlushCommands()
	app.Update(frame)

	assert.Equal(t, 1, sys.Stats().Regenerated)
	assert.Equal(t, float32(0), sys.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1))
	assert.Equal(t, float32(1), sys.Occlusion(mgl32.Vec2{-10, 0}, mgl32.Vec2{}, 1))
}

func TestShadowSystem_ZeroOpacityIsOpaque(t *testing.T) {
	app := NewApp().UseModules(ShadowModule{Method: shadow.MethodBasic})
	sys := Resource[ShadowSystem](app)
	cmd := app.Commands()
	cmd.AddEntity(&TransformComponent{Position: mgl32.Vec2{5, 0}}, &ShadowCasterComponent{
		Caster: shadow.Caster{Shape: shadow.ShapeRectangle, Size: mgl32.Vec2{2, 4}},
	})
	cmd.AddEntity(&TransformComponent{Position: mgl32.Vec2{-5, 0}}, &ShadowCasterComponent{
		Caster: shadow.Caster{Shape: shadow.ShapeRectangle, Size: mgl32.Vec2{2, 4}, Opacity: -1},
	})
	app.FlushCommands()
	app.Update(frame)

	assert.Equal(t, float32(1), sys.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1))
	assert.Equal(t, float32(0), sys.Occlusion(mgl32.Vec2{-10, 0}, mgl32.Vec2{}, 1), "negative opacity casts nothing")
}

func TestShadowSystem_MethodNone(t *testing.T) {
	app := NewApp().UseModules(ShadowModule{Method: shadow.MethodNone})
	sys := Resource[ShadowSystem](app)
	app.Commands().AddEntity(&TransformComponent{Position: mgl32.Vec2{5, 0}}, wall())
	app.FlushCommands()
	app.Update(frame)

	assert.Equal(t, 0, sys.Renderer.Len())
	assert.Equal(t, float32(0), sys.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1))
}

func TestShadowSystem_Configure(t *testing.T) {
	sys := NewShadowSystem(shadow.MethodBasic)
	assert.Equal(t, DefaultShadowMapResolution, sys.ShadowMapResolution())

	sys.Configure(shadow.MethodSDF, 2048, false)
	assert.Equal(t, shadow.MethodSDF, sys.Renderer.Method())
	assert.Equal(t, 2048, sys.ShadowMapResolution())
	assert.Equal(t, 128, sdfResolutionFor(sys.ShadowMapResolution()))

	sys.Configure(shadow.MethodSDF, 0, true)
	assert.Equal(t, 2048, sys.ShadowMapResolution(), "non-positive resolution keeps the current one")
}
