// Package shadow builds 2D shadow caster geometry and answers occlusion
// queries, either against polygon edges or against signed distance fields.
package shadow

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-5

type Shape uint32

const (
	ShapeRectangle Shape = iota
	ShapeCircle
	ShapePolygon
)

// DefaultCircleSegments is used when a circle caster leaves Segments at zero.
const DefaultCircleSegments = 24

// Edge is a directed segment of a caster outline.
type Edge struct {
	Start mgl32.Vec2
	End   mgl32.Vec2
}

// Caster describes shadow caster geometry in local space.
type Caster struct {
	Shape    Shape
	Size     mgl32.Vec2   // rectangle
	Radius   float32      // circle
	Segments int          // circle tessellation
	Vertices []mgl32.Vec2 // polygon

	Opacity    float32 // [0,1], 0 or less casts nothing
	SelfShadow bool
	Static     bool

	// SDF generation, used by the SDF shadow method.
	SDFResolution int
	SDFPadding    float32
}

// LocalVertices tessellates the caster outline in local space.
func (c Caster) LocalVertices() []mgl32.Vec2 {
	switch c.Shape {
	case ShapeCircle:
		segs := c.Segments
		if segs <= 0 {
			segs = DefaultCircleSegments
		}
		return GenerateCircleVertices(c.Radius, segs)
	case ShapePolygon:
		out := make([]mgl32.Vec2, len(c.Vertices))
		copy(out, c.Vertices)
		return out
	default:
		return GenerateRectangleVertices(c.Size)
	}
}

// Transform places a caster in the world. Rotation is in radians.
type Transform struct {
	Position mgl32.Vec2
	Rotation float32
	Scale    mgl32.Vec2
}

// IdentityTransform has unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: mgl32.Vec2{1, 1}}
}

func (t Transform) scale() mgl32.Vec2 {
	if t.Scale == (mgl32.Vec2{}) {
		return mgl32.Vec2{1, 1}
	}
	return t.Scale
}

// Matrix returns the local to world homogeneous matrix (translate * rotate * scale).
func (t Transform) Matrix() mgl32.Mat3 {
	s := t.scale()
	return mgl32.Translate2D(t.Position.X(), t.Position.Y()).
		Mul3(mgl32.HomogRotate2D(t.Rotation)).
		Mul3(mgl32.Scale2D(s.X(), s.Y()))
}

// Apply transforms a local point to world space.
func (t Transform) Apply(p mgl32.Vec2) mgl32.Vec2 {
	return t.Matrix().Mul3x1(p.Vec3(1)).Vec2()
}

// WorldVertices returns the caster outline in world space.
func WorldVertices(c Caster, t Transform) []mgl32.Vec2 {
	m := t.Matrix()
	local := c.LocalVertices()
	for i, v := range local {
		local[i] = m.Mul3x1(v.Vec3(1)).Vec2()
	}
	return local
}

// GenerateRectangleVertices returns the four corners of a rectangle centered
// on the origin, counter-clockwise.
func GenerateRectangleVertices(size mgl32.Vec2) []mgl32.Vec2 {
	hw, hh := size.X()*0.5, size.Y()*0.5
	return []mgl32.Vec2{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
}

// GenerateCircleVertices returns segments points on a circle of the given
// radius around the origin. At least three segments are produced.
func GenerateCircleVertices(radius float32, segments int) []mgl32.Vec2 {
	segments = max(segments, 3)
	out := make([]mgl32.Vec2, segments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(segments)
		out[i] = mgl32.Vec2{radius * float32(math.Cos(a)), radius * float32(math.Sin(a))}
	}
	return out
}

// ExtractEdges closes the outline: edge i joins vertex i to vertex i+1 mod n.
func ExtractEdges(vertices []mgl32.Vec2) []Edge {
	n := len(vertices)
	if n < 2 {
		return nil
	}
	edges := make([]Edge, n)
	for i := range vertices {
		edges[i] = Edge{Start: vertices[i], End: vertices[(i+1)%n]}
	}
	return edges
}

// RayEdgeIntersection intersects a ray with a segment. The direction is
// normalized, so t is the distance from origin to the hit.
func RayEdgeIntersection(origin, direction mgl32.Vec2, edge Edge) (bool, float32) {
	if direction.Len() < epsilon {
		return false, 0
	}
	dir := direction.Normalize()
	v1 := origin.Sub(edge.Start)
	v2 := edge.End.Sub(edge.Start)
	v3 := mgl32.Vec2{-dir.Y(), dir.X()}

	den := v2.Dot(v3)
	if abs32(den) < epsilon {
		return false, 0
	}
	t1 := cross(v2, v1) / den
	t2 := v1.Dot(v3) / den
	if t1 >= 0 && t2 >= 0 && t2 <= 1 {
		return true, t1
	}
	return false, 0
}

// IsPointInShadow reports whether any caster edge lies between the light and
// point. A point on the light is never in shadow.
func IsPointInShadow(point, lightPos mgl32.Vec2, edges []Edge) bool {
	toPoint := point.Sub(lightPos)
	dist := toPoint.Len()
	if dist < epsilon {
		return false
	}
	for _, e := range edges {
		if hit, t := RayEdgeIntersection(lightPos, toPoint, e); hit && t > epsilon && t < dist-epsilon {
			return true
		}
	}
	return false
}

// PointToSegmentDistance is the distance from point to the closest point of the segment.
func PointToSegmentDistance(point, segStart, segEnd mgl32.Vec2) float32 {
	seg := segEnd.Sub(segStart)
	lenSq := seg.Dot(seg)
	if lenSq < epsilon*epsilon {
		return point.Sub(segStart).Len()
	}
	t := point.Sub(segStart).Dot(seg) / lenSq
	t = mgl32.Clamp(t, 0, 1)
	return point.Sub(segStart.Add(seg.Mul(t))).Len()
}

// PointInPolygon uses the even-odd rule.
func PointInPolygon(point mgl32.Vec2, vertices []mgl32.Vec2) bool {
	inside := false
	n := len(vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := vertices[i], vertices[j]
		if (a.Y() > point.Y()) != (b.Y() > point.Y()) {
			x := (b.X()-a.X())*(point.Y()-a.Y())/(b.Y()-a.Y()) + a.X()
			if point.X() < x {
				inside = !inside
			}
		}
	}
	return inside
}

// CalculateSignedDistance is the distance to the nearest edge, negative inside
// the polygon.
func CalculateSignedDistance(point mgl32.Vec2, vertices []mgl32.Vec2) float32 {
	if len(vertices) == 0 {
		return math.MaxFloat32
	}
	if len(vertices) == 1 {
		return point.Sub(vertices[0]).Len()
	}
	best := float32(math.MaxFloat32)
	for _, e := range ExtractEdges(vertices) {
		best = min(best, PointToSegmentDistance(point, e.Start, e.End))
	}
	if len(vertices) >= 3 && PointInPolygon(point, vertices) {
		return -best
	}
	return best
}

// Bounds returns the min and max corners of a vertex set.
func Bounds(vertices []mgl32.Vec2) (mgl32.Vec2, mgl32.Vec2) {
	if len(vertices) == 0 {
		return mgl32.Vec2{}, mgl32.Vec2{}
	}
	lo, hi := vertices[0], vertices[0]
	for _, v := range vertices[1:] {
		lo = mgl32.Vec2{min(lo.X(), v.X()), min(lo.Y(), v.Y())}
		hi = mgl32.Vec2{max(hi.X(), v.X()), max(hi.Y(), v.Y())}
	}
	return lo, hi
}

func cross(a, b mgl32.Vec2) float32 {
	return a.X()*b.Y() - a.Y()*b.X()
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
