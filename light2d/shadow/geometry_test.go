package shadow

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVertices(t *testing.T) {
	rect := GenerateRectangleVertices(mgl32.Vec2{2, 4})
	require.Len(t, rect, 4)
	assert.Equal(t, mgl32.Vec2{-1, -2}, rect[0])
	assert.Equal(t, mgl32.Vec2{1, 2}, rect[2])

	circle := GenerateCircleVertices(3, 16)
	require.Len(t, circle, 16)
	for _, v := range circle {
		assert.InDelta(t, 3, v.Len(), 1e-5)
	}
	assert.Len(t, GenerateCircleVertices(1, 1), 3)
}

func TestExtractEdges(t *testing.T) {
	verts := GenerateRectangleVertices(mgl32.Vec2{2, 2})
	edges := ExtractEdges(verts)
	require.Len(t, edges, len(verts))
	for i, e := range edges {
		assert.Equal(t, verts[i], e.Start)
		assert.Equal(t, verts[(i+1)%len(verts)], e.End)
	}
	assert.Nil(t, ExtractEdges([]mgl32.Vec2{{1, 1}}))
}

func TestRayEdgeIntersection(t *testing.T) {
	edge := Edge{Start: mgl32.Vec2{5, -1}, End: mgl32.Vec2{5, 1}}

	hit, dist := RayEdgeIntersection(mgl32.Vec2{0, 0}, mgl32.Vec2{3, 0}, edge)
	assert.True(t, hit)
	assert.InDelta(t, 5, dist, 1e-5)

	hit, _ = RayEdgeIntersection(mgl32.Vec2{0, 0}, mgl32.Vec2{-1, 0}, edge)
	assert.False(t, hit)

	// parallel
	hit, _ = RayEdgeIntersection(mgl32.Vec2{0, 0}, mgl32.Vec2{0, 1}, edge)
	assert.False(t, hit)

	hit, _ = RayEdgeIntersection(mgl32.Vec2{0, 0}, mgl32.Vec2{}, edge)
	assert.False(t, hit)
}

func TestIsPointInShadowScenario(t *testing.T) {
	caster := Caster{Shape: ShapeRectangle, Size: mgl32.Vec2{2, 4}}
	tr := IdentityTransform()
	tr.Position = mgl32.Vec2{5, 0}
	edges := ExtractEdges(WorldVertices(caster, tr))
	light := mgl32.Vec2{0, 0}

	assert.True(t, IsPointInShadow(mgl32.Vec2{10, 0}, light, edges))
	assert.False(t, IsPointInShadow(mgl32.Vec2{10, 10}, light, edges))
	assert.False(t, IsPointInShadow(light, light, edges))
	// in front of the caster
	assert.False(t, IsPointInShadow(mgl32.Vec2{3, 0}, light, edges))
}

func TestIsPointInShadowCollinear(t *testing.T) {
	edges := ExtractEdges(GenerateCircleVertices(1, 24))
	for _, angle := range []float64{0, 0.7, 2.1, 4} {
		dir := mgl32.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
		light := dir.Mul(-5)
		behind := dir.Mul(5)
		assert.True(t, IsPointInShadow(behind, light, edges), "angle %v", angle)
	}
}

func TestPointToSegmentDistance(t *testing.T) {
	a, b := mgl32.Vec2{0, 0}, mgl32.Vec2{10, 0}
	assert.InDelta(t, 3, PointToSegmentDistance(mgl32.Vec2{5, 3}, a, b), 1e-6)
	assert.InDelta(t, 5, PointToSegmentDistance(mgl32.Vec2{-3, 4}, a, b), 1e-6)
	assert.InDelta(t, 5, PointToSegmentDistance(mgl32.Vec2{13, -4}, a, b), 1e-6)
	assert.InDelta(t, 5, PointToSegmentDistance(mgl32.Vec2{3, 4}, a, a), 1e-6)
}

func TestCalculateSignedDistanceSquare(t *testing.T) {
	square := GenerateRectangleVertices(mgl32.Vec2{2, 2})

	tests := []struct {
		point mgl32.Vec2
		want  float32
	}{
		{mgl32.Vec2{0, 0}, -1},
		{mgl32.Vec2{0.5, 0}, -0.5},
		{mgl32.Vec2{3, 0}, 2},
		{mgl32.Vec2{0, -4}, 3},
		{mgl32.Vec2{4, 5}, 5},
	}
	for _, tt := range tests {
		got := CalculateSignedDistance(tt.point, square)
		assert.InDelta(t, tt.want, got, math.Abs(float64(tt.want))*0.01, "point %v", tt.point)
	}
}

func TestPointInPolygon(t *testing.T) {
	tri := []mgl32.Vec2{{0, 0}, {4, 0}, {0, 4}}
	assert.True(t, PointInPolygon(mgl32.Vec2{1, 1}, tri))
	assert.False(t, PointInPolygon(mgl32.Vec2{3, 3}, tri))
	assert.False(t, PointInPolygon(mgl32.Vec2{-1, 1}, tri))
}

func TestTransformMatrix(t *testing.T) {
	tr := Transform{Position: mgl32.Vec2{10, 0}, Rotation: math.Pi / 2, Scale: mgl32.Vec2{2, 2}}
	p := tr.Apply(mgl32.Vec2{1, 0})
	assert.InDelta(t, 10, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)

	// zero scale is treated as unit scale
	p = Transform{Position: mgl32.Vec2{1, 1}}.Apply(mgl32.Vec2{1, 0})
	assert.Equal(t, mgl32.Vec2{2, 1}, p)
}
