package core

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type GradientMode uint32

const (
	GradientNone GradientMode = iota
	GradientVertical
	GradientHorizontal
)

type ZoneShape uint32

const (
	ZoneRectangle ZoneShape = iota
	ZoneCircle
)

// AmbientZone is a region that adds a flat or gradient ambient term.
// Circle zones use Size.X() as their diameter.
type AmbientZone struct {
	Position       mgl32.Vec2
	Size           mgl32.Vec2
	PrimaryColor   mgl32.Vec4
	SecondaryColor mgl32.Vec4
	Intensity      float32
	EdgeSoftness   float32 // [0,1]
	GradientMode   GradientMode
	Shape          ZoneShape
	Priority       int // higher wins
	BlendWeight    float32
}

func (z AmbientZone) halfExtents() mgl32.Vec2 {
	if z.Shape == ZoneCircle {
		r := max(z.Size.X()*0.5, 0)
		return mgl32.Vec2{r, r}
	}
	return mgl32.Vec2{max(z.Size.X()*0.5, 0), max(z.Size.Y()*0.5, 0)}
}

// IsPointInZone tests containment, boundary included.
func IsPointInZone(point mgl32.Vec2, zone AmbientZone) bool {
	d := point.Sub(zone.Position)
	if zone.Shape == ZoneCircle {
		return d.Len() <= zone.Size.X()*0.5
	}
	half := zone.halfExtents()
	return abs32(d.X()) <= half.X() && abs32(d.Y()) <= half.Y()
}

// EdgeFactor is 0 outside the zone and rises from the boundary toward 1 over a
// margin of EdgeSoftness times the smallest half extent.
func EdgeFactor(point mgl32.Vec2, zone AmbientZone) float32 {
	if !IsPointInZone(point, zone) {
		return 0
	}
	d := point.Sub(zone.Position)
	var toEdge, extent float32
	if zone.Shape == ZoneCircle {
		extent = zone.Size.X() * 0.5
		toEdge = extent - d.Len()
	} else {
		half := zone.halfExtents()
		extent = min(half.X(), half.Y())
		toEdge = min(half.X()-abs32(d.X()), half.Y()-abs32(d.Y()))
	}
	margin := clamp01(zone.EdgeSoftness) * extent
	if margin < MinRadius {
		return 1
	}
	return smoothstep01(toEdge / margin)
}

// GradientColor returns the zone color at a point given relative to the zone
// center. t=0 is the top (Vertical) or left (Horizontal) edge, t=1 the bottom
// or right edge; +Y points up.
func GradientColor(zone AmbientZone, localPoint mgl32.Vec2) mgl32.Vec4 {
	half := zone.halfExtents()
	var t float32
	switch zone.GradientMode {
	case GradientVertical:
		t = (half.Y() - localPoint.Y()) / floorRadius(2*half.Y())
	case GradientHorizontal:
		t = (localPoint.X() + half.X()) / floorRadius(2*half.X())
	default:
		return zone.PrimaryColor
	}
	t = clamp01(t)
	p, s := zone.PrimaryColor, zone.SecondaryColor
	return mgl32.Vec4{
		lerp(p[0], s[0], t),
		lerp(p[1], s[1], t),
		lerp(p[2], s[2], t),
		lerp(p[3], s[3], t),
	}
}

// ZoneColorAt is the gradient color scaled by intensity, ignoring coverage.
func ZoneColorAt(zone AmbientZone, point mgl32.Vec2) mgl32.Vec4 {
	c := GradientColor(zone, point.Sub(zone.Position))
	return mgl32.Vec4{c[0] * zone.Intensity, c[1] * zone.Intensity, c[2] * zone.Intensity, c[3]}
}

// BlendZoneColors layers every zone covering point in ascending priority, so
// the highest priority zone is applied last. Each layer blends with weight
// BlendWeight*EdgeFactor. The result is finite and clamped to [0,1].
func BlendZoneColors(zones []AmbientZone, point mgl32.Vec2) mgl32.Vec4 {
	covering := make([]AmbientZone, 0, len(zones))
	for _, z := range zones {
		if IsPointInZone(point, z) {
			covering = append(covering, z)
		}
	}
	slices.SortStableFunc(covering, func(a, b AmbientZone) int {
		return a.Priority - b.Priority
	})

	var out mgl32.Vec4
	for _, z := range covering {
		w := clamp01(z.BlendWeight) * EdgeFactor(point, z)
		if w <= 0 {
			continue
		}
		c := ZoneColorAt(z, point)
		for i := 0; i < 4; i++ {
			out[i] = lerp(out[i], c[i], w)
		}
	}
	for i := range out {
		out[i] = clampFinite01(out[i])
	}
	return out
}

// CalculateZoneBounds returns a tight box around the zone. Extents are floored
// so the center always lies strictly inside.
func CalculateZoneBounds(zone AmbientZone) AABB {
	half := zone.halfExtents()
	half = mgl32.Vec2{floorRadius(half.X()), floorRadius(half.Y())}
	return AABBFromCenter(zone.Position, half)
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func clampFinite01(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return 0
	}
	if math.IsInf(float64(v), 1) {
		return 1
	}
	return mgl32.Clamp(v, 0, 1)
}
