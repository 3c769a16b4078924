package shadow

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioCaster() (Caster, Transform) {
	tr := IdentityTransform()
	tr.Position = mgl32.Vec2{5, 0}
	return Caster{Shape: ShapeRectangle, Size: mgl32.Vec2{2, 4}, Opacity: 1, SDFResolution: 48, SDFPadding: 1}, tr
}

func TestRendererCachesUnchangedCasters(t *testing.T) {
	r := NewRenderer(MethodBasic)
	c, tr := scenarioCaster()

	r.BeginFrame()
	assert.True(t, r.Update(1, c, tr))
	r.BeginFrame()
	assert.False(t, r.Update(1, c, tr))
	assert.Equal(t, 1, r.Stats().CacheHits)

	tr.Position = mgl32.Vec2{6, 0}
	r.BeginFrame()
	assert.True(t, r.Update(1, c, tr))

	rec, ok := r.Record(1)
	require.True(t, ok)
	assert.Len(t, rec.Edges, 4)
	assert.False(t, rec.SDF.IsValid)
	assert.Equal(t, CacheClean, rec.Cache.State())
}

func TestRendererStaticCaster(t *testing.T) {
	r := NewRenderer(MethodBasic)
	c, tr := scenarioCaster()
	c.Static = true

	r.BeginFrame()
	require.True(t, r.Update(1, c, tr))
	tr.Position = mgl32.Vec2{50, 0}
	r.BeginFrame()
	assert.False(t, r.Update(1, c, tr), "static casters keep their cached geometry")

	r.Invalidate(1)
	r.BeginFrame()
	assert.True(t, r.Update(1, c, tr))
}

func TestRendererShapeChangeRegenerates(t *testing.T) {
	r := NewRenderer(MethodBasic)
	c, tr := scenarioCaster()
	r.BeginFrame()
	r.Update(1, c, tr)

	c.Size = mgl32.Vec2{3, 3}
	r.BeginFrame()
	assert.True(t, r.Update(1, c, tr))
}

func TestRendererCacheDisabled(t *testing.T) {
	r := NewRenderer(MethodBasic)
	r.SetCacheEnabled(false)
	c, tr := scenarioCaster()
	r.BeginFrame()
	r.Update(1, c, tr)
	r.BeginFrame()
	assert.True(t, r.Update(1, c, tr))
}

func TestRendererOcclusion(t *testing.T) {
	for _, method := range []Method{MethodBasic, MethodSDF} {
		t.Run(method.String(), func(t *testing.T) {
			r := NewRenderer(method)
			c, tr := scenarioCaster()
			r.BeginFrame()
			r.Update(1, c, tr)

			assert.Equal(t, float32(1), r.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1))
			assert.Less(t, r.Occlusion(mgl32.Vec2{10, 10}, mgl32.Vec2{}, 1), float32(0.5))
			assert.Zero(t, r.Occlusion(mgl32.Vec2{}, mgl32.Vec2{}, 1))
		})
	}

	r := NewRenderer(MethodNone)
	c, tr := scenarioCaster()
	r.Update(1, c, tr)
	assert.Zero(t, r.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1))
}

func TestRendererOpacityScalesOcclusion(t *testing.T) {
	r := NewRenderer(MethodBasic)
	c, tr := scenarioCaster()
	c.Opacity = 0.4
	r.BeginFrame()
	r.Update(1, c, tr)
	assert.InDelta(t, 0.4, r.Occlusion(mgl32.Vec2{10, 0}, mgl32.Vec2{}, 1), 1e-6)
}

func TestRendererSoftnessWidensPenumbra(t *testing.T) {
	r := NewRenderer(MethodSDF)
	c, tr := scenarioCaster()
	r.BeginFrame()
	r.Update(1, c, tr)

	// (10,6) passes just above the caster corner at (4,2)
	p := mgl32.Vec2{10, 6}
	sharp := r.Occlusion(p, mgl32.Vec2{}, 0.5)
	soft := r.Occlusion(p, mgl32.Vec2{}, 4)
	assert.Less(t, sharp, float32(1))
	assert.Greater(t, soft, sharp)
	assert.Equal(t, r.Occlusion(p, mgl32.Vec2{}, 1), r.Occlusion(p, mgl32.Vec2{}, 0), "zero softness is the default")

	basic := NewRenderer(MethodBasic)
	basic.BeginFrame()
	basic.Update(1, c, tr)
	assert.Equal(t, basic.Occlusion(p, mgl32.Vec2{}, 0.5), basic.Occlusion(p, mgl32.Vec2{}, 4))
}

func TestRendererSetMethodInvalidates(t *testing.T) {
	r := NewRenderer(MethodBasic)
	c, tr := scenarioCaster()
	r.BeginFrame()
	r.Update(1, c, tr)

	r.SetMethod(MethodSDF)
	rec, _ := r.Record(1)
	assert.Equal(t, CacheUncached, rec.Cache.State())

	r.BeginFrame()
	assert.True(t, r.Update(1, c, tr))
	assert.True(t, rec.SDF.IsValid)
	assert.Equal(t, 48, rec.SDF.Resolution)
	assert.Equal(t, 1, r.Stats().SDFsGenerated)
}

func TestRendererResolutionOverride(t *testing.T) {
	r := NewRenderer(MethodSDF)
	r.SetResolution(32)
	c, tr := scenarioCaster()
	c.SDFResolution = 0
	r.BeginFrame()
	r.Update(1, c, tr)
	rec, _ := r.Record(1)
	assert.Equal(t, 32, rec.SDF.Resolution)
}

func TestRendererPrune(t *testing.T) {
	r := NewRenderer(MethodBasic)
	c, tr := scenarioCaster()
	r.BeginFrame()
	r.Update(1, c, tr)
	r.Update(2, c, tr)

	r.BeginFrame()
	r.Update(2, c, tr)
	assert.Equal(t, 1, r.Prune())
	assert.Equal(t, 1, r.Len())
	_, ok := r.Record(1)
	assert.False(t, ok)
}
