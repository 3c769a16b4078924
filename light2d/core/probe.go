package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightProbe stores indirect light sampled at a point.
type LightProbe struct {
	Position        mgl32.Vec2
	InfluenceRadius float32
	Color           mgl32.Vec3 // non-negative
	Intensity       float32    // non-negative
	Baked           bool
	NeedsUpdate     bool
}

// ProbeSample is the interpolated indirect light at a query point.
type ProbeSample struct {
	Color     mgl32.Vec3
	Intensity float32
}

// ProbeSampler measures light at a probe position.
type ProbeSampler func(pos mgl32.Vec2) (mgl32.Vec3, float32)

// ProbeGrid describes probes laid out row-major: index = row*Cols + col.
type ProbeGrid struct {
	Origin  mgl32.Vec2
	Spacing float32
	Cols    int
	Rows    int
}

func (g ProbeGrid) bounds() AABB {
	return AABB{
		Min: g.Origin,
		Max: g.Origin.Add(mgl32.Vec2{float32(g.Cols-1) * g.Spacing, float32(g.Rows-1) * g.Spacing}),
	}
}

// ProbeSet owns the probes of a scene and their realtime update cadence.
type ProbeSet struct {
	Probes          []LightProbe
	Grid            *ProbeGrid // nil for scattered probes
	UpdateFrequency float32    // seconds between realtime resamples
	RealtimeEnabled bool

	elapsed float32
}

// CalculateDistanceWeight is 1 at the probe, 0 at and beyond the influence
// radius, with a smooth non-increasing falloff in between.
func CalculateDistanceWeight(distance, influenceRadius float32) float32 {
	r := floorRadius(influenceRadius)
	d := max(distance, 0)
	if d >= r {
		return 0
	}
	return 1 - smoothstep01(d/r)
}

// BilinearInterpolate blends four corner values. tx, ty are clamped to [0,1].
// Corners are returned exactly and every component stays within the corner
// min and max.
func BilinearInterpolate(topLeft, topRight, bottomLeft, bottomRight mgl32.Vec3, tx, ty float32) mgl32.Vec3 {
	tx, ty = clamp01(tx), clamp01(ty)
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		top := lerp(topLeft[i], topRight[i], tx)
		bottom := lerp(bottomLeft[i], bottomRight[i], tx)
		lo := min(topLeft[i], topRight[i], bottomLeft[i], bottomRight[i])
		hi := max(topLeft[i], topRight[i], bottomLeft[i], bottomRight[i])
		out[i] = mgl32.Clamp(lerp(top, bottom, ty), lo, hi)
	}
	return out
}

// BarycentricInterpolate returns u*v0 + v*v1 + w*v2. Negative weights are
// dropped and the rest renormalized so the result stays inside the triangle's hull.
func BarycentricInterpolate(v0, v1, v2 mgl32.Vec3, bary mgl32.Vec3) mgl32.Vec3 {
	u, v, w := max(bary[0], 0), max(bary[1], 0), max(bary[2], 0)
	sum := u + v + w
	if sum <= 0 {
		return v0
	}
	if sum != 1 {
		u, v, w = u/sum, v/sum, w/sum
	}
	return v0.Mul(u).Add(v1.Mul(v)).Add(v2.Mul(w))
}

// Barycentric returns the coordinates of p in triangle abc and whether p lies
// inside it (boundary included).
func Barycentric(p, a, b, c mgl32.Vec2) (mgl32.Vec3, bool) {
	v0, v1, v2 := b.Sub(a), c.Sub(a), p.Sub(a)
	den := v0.X()*v1.Y() - v1.X()*v0.Y()
	if abs32(den) < 1e-9 {
		return mgl32.Vec3{}, false
	}
	v := (v2.X()*v1.Y() - v1.X()*v2.Y()) / den
	w := (v0.X()*v2.Y() - v2.X()*v0.Y()) / den
	u := 1 - v - w
	const eps = 1e-5
	inside := u >= -eps && v >= -eps && w >= -eps
	return mgl32.Vec3{u, v, w}, inside
}

// GenerateProbeGrid lays probes over bounds every spacing units.
func GenerateProbeGrid(bounds AABB, spacing, influenceRadius float32) *ProbeSet {
	spacing = floorRadius(spacing)
	size := bounds.Size()
	cols := int(math.Floor(float64(size.X()/spacing))) + 1
	rows := int(math.Floor(float64(size.Y()/spacing))) + 1
	cols, rows = max(cols, 2), max(rows, 2)
	grid := &ProbeGrid{Origin: bounds.Min, Spacing: spacing, Cols: cols, Rows: rows}

	set := &ProbeSet{Grid: grid, Probes: make([]LightProbe, 0, cols*rows)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			set.Probes = append(set.Probes, LightProbe{
				Position:        bounds.Min.Add(mgl32.Vec2{float32(c) * spacing, float32(r) * spacing}),
				InfluenceRadius: influenceRadius,
				NeedsUpdate:     true,
			})
		}
	}
	return set
}

// InterpolateAt returns the indirect light at point. ok is false when no probe
// covers the point.
func (s *ProbeSet) InterpolateAt(point mgl32.Vec2) (ProbeSample, bool) {
	if s == nil || len(s.Probes) == 0 {
		return ProbeSample{}, false
	}
	if s.Grid != nil && s.Grid.Cols >= 2 && s.Grid.Rows >= 2 && len(s.Probes) == s.Grid.Cols*s.Grid.Rows &&
		s.Grid.bounds().Contains(point) {
		return s.interpolateGrid(point), true
	}
	return s.interpolateScattered(point)
}

func (s *ProbeSet) interpolateGrid(point mgl32.Vec2) ProbeSample {
	g := s.Grid
	local := point.Sub(g.Origin).Mul(1 / g.Spacing)
	col := min(max(int(math.Floor(float64(local.X()))), 0), g.Cols-2)
	row := min(max(int(math.Floor(float64(local.Y()))), 0), g.Rows-2)
	tx := local.X() - float32(col)
	ty := local.Y() - float32(row)

	p00 := s.Probes[row*g.Cols+col]
	p10 := s.Probes[row*g.Cols+col+1]
	p01 := s.Probes[(row+1)*g.Cols+col]
	p11 := s.Probes[(row+1)*g.Cols+col+1]

	color := BilinearInterpolate(p00.Color, p10.Color, p01.Color, p11.Color, tx, ty)
	in := BilinearInterpolate(
		mgl32.Vec3{p00.Intensity}, mgl32.Vec3{p10.Intensity},
		mgl32.Vec3{p01.Intensity}, mgl32.Vec3{p11.Intensity}, tx, ty)
	return ProbeSample{Color: color, Intensity: in[0]}
}

func (s *ProbeSet) interpolateScattered(point mgl32.Vec2) (ProbeSample, bool) {
	covering := make([]LightProbe, 0, 8)
	for _, p := range s.Probes {
		if p.Position.Sub(point).Len() < floorRadius(p.InfluenceRadius) {
			covering = append(covering, p)
		}
	}

	switch len(covering) {
	case 0:
		return ProbeSample{}, false
	case 1:
		return ProbeSample{Color: covering[0].Color, Intensity: covering[0].Intensity}, true
	case 3:
		bary, inside := Barycentric(point, covering[0].Position, covering[1].Position, covering[2].Position)
		if inside {
			color := BarycentricInterpolate(covering[0].Color, covering[1].Color, covering[2].Color, bary)
			in := BarycentricInterpolate(
				mgl32.Vec3{covering[0].Intensity}, mgl32.Vec3{covering[1].Intensity},
				mgl32.Vec3{covering[2].Intensity}, bary)
			return ProbeSample{Color: color, Intensity: in[0]}, true
		}
	case 4:
		if sample, ok := bilinearQuad(covering, point); ok {
			return sample, true
		}
	}
	return inverseDistance(covering, point), true
}

// bilinearQuad interpolates when four probes form an axis aligned rectangle
// that contains point.
func bilinearQuad(probes []LightProbe, point mgl32.Vec2) (ProbeSample, bool) {
	minX, maxX := probes[0].Position.X(), probes[0].Position.X()
	minY, maxY := probes[0].Position.Y(), probes[0].Position.Y()
	for _, p := range probes[1:] {
		minX, maxX = min(minX, p.Position.X()), max(maxX, p.Position.X())
		minY, maxY = min(minY, p.Position.Y()), max(maxY, p.Position.Y())
	}
	if maxX-minX < MinRadius || maxY-minY < MinRadius {
		return ProbeSample{}, false
	}
	if !(AABB{Min: mgl32.Vec2{minX, minY}, Max: mgl32.Vec2{maxX, maxY}}).Contains(point) {
		return ProbeSample{}, false
	}

	var corners [4]*LightProbe
	for i := range probes {
		p := &probes[i]
		var idx int
		switch {
		case p.Position.X() == minX && p.Position.Y() == minY:
			idx = 0
		case p.Position.X() == maxX && p.Position.Y() == minY:
			idx = 1
		case p.Position.X() == minX && p.Position.Y() == maxY:
			idx = 2
		case p.Position.X() == maxX && p.Position.Y() == maxY:
			idx = 3
		default:
			return ProbeSample{}, false
		}
		if corners[idx] != nil {
			return ProbeSample{}, false
		}
		corners[idx] = p
	}

	tx := (point.X() - minX) / (maxX - minX)
	ty := (point.Y() - minY) / (maxY - minY)
	color := BilinearInterpolate(corners[0].Color, corners[1].Color, corners[2].Color, corners[3].Color, tx, ty)
	in := BilinearInterpolate(
		mgl32.Vec3{corners[0].Intensity}, mgl32.Vec3{corners[1].Intensity},
		mgl32.Vec3{corners[2].Intensity}, mgl32.Vec3{corners[3].Intensity}, tx, ty)
	return ProbeSample{Color: color, Intensity: in[0]}, true
}

// inverseDistance uses normalized 1/d^2 weights. A probe sitting on the query
// point wins outright.
func inverseDistance(probes []LightProbe, point mgl32.Vec2) ProbeSample {
	var color mgl32.Vec3
	var intensity, total float32
	for _, p := range probes {
		d := p.Position.Sub(point).Len()
		if d < MinRadius {
			return ProbeSample{Color: p.Color, Intensity: p.Intensity}
		}
		w := 1 / (d * d)
		color = color.Add(p.Color.Mul(w))
		intensity += p.Intensity * w
		total += w
	}
	return ProbeSample{Color: color.Mul(1 / total), Intensity: intensity / total}
}

// MarkAllDirty flags every probe for resampling on the next update tick.
func (s *ProbeSet) MarkAllDirty() {
	for i := range s.Probes {
		s.Probes[i].NeedsUpdate = true
	}
}

// Bake samples every probe once and marks it baked.
func (s *ProbeSet) Bake(sample ProbeSampler) {
	for i := range s.Probes {
		s.resample(i, sample)
		s.Probes[i].Baked = true
	}
}

// Update accumulates dt and, once more than UpdateFrequency seconds have
// passed, resamples every probe that is dirty or not baked. It returns the
// number of probes resampled.
func (s *ProbeSet) Update(dt float32, sample ProbeSampler) int {
	if !s.RealtimeEnabled || sample == nil {
		return 0
	}
	s.elapsed += max(dt, 0)
	if s.elapsed <= s.UpdateFrequency {
		return 0
	}
	s.elapsed = 0

	n := 0
	for i := range s.Probes {
		p := &s.Probes[i]
		if p.Baked && !p.NeedsUpdate {
			continue
		}
		s.resample(i, sample)
		n++
	}
	return n
}

func (s *ProbeSet) resample(i int, sample ProbeSampler) {
	color, intensity := sample(s.Probes[i].Position)
	s.Probes[i].Color = mgl32.Vec3{max(color[0], 0), max(color[1], 0), max(color[2], 0)}
	s.Probes[i].Intensity = max(intensity, 0)
	s.Probes[i].NeedsUpdate = false
}
