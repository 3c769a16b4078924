package shadow

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultSDFResolution = 64
	MinSDFResolution     = 8
	MaxSDFResolution     = 256

	sdfMaxSteps    = 64
	sdfHitDistance = 1e-3
)

// SDF is a signed distance field sampled on a Resolution x Resolution node
// grid that spans the caster's padded local bounds.
type SDF struct {
	Resolution int
	Data       []float32
	LocalMin   mgl32.Vec2
	LocalMax   mgl32.Vec2

	WorldToLocal mgl32.Mat3
	// distanceScale converts local distances back to world units.
	distanceScale float32

	IsValid bool
}

// GenerateSDF rasterizes the caster's signed distance in local space. The
// returned field is invalid when the caster has fewer than three vertices or
// the transform is degenerate.
func GenerateSDF(c Caster, t Transform) SDF {
	res := c.SDFResolution
	if res <= 0 {
		res = DefaultSDFResolution
	}
	res = max(MinSDFResolution, min(res, MaxSDFResolution))

	verts := c.LocalVertices()
	if len(verts) < 3 {
		return SDF{Resolution: res}
	}

	m := t.Matrix()
	if abs32(m.Det()) < epsilon {
		return SDF{Resolution: res}
	}

	lo, hi := Bounds(verts)
	pad := max(c.SDFPadding, 0)
	lo = lo.Sub(mgl32.Vec2{pad, pad})
	hi = hi.Add(mgl32.Vec2{pad, pad})

	sdf := SDF{
		Resolution:    res,
		Data:          make([]float32, res*res),
		LocalMin:      lo,
		LocalMax:      hi,
		WorldToLocal:  m.Inv(),
		distanceScale: uniformScale(t),
	}

	step := hi.Sub(lo).Mul(1 / float32(res-1))
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			p := mgl32.Vec2{lo.X() + float32(x)*step.X(), lo.Y() + float32(y)*step.Y()}
			sdf.Data[y*res+x] = CalculateSignedDistance(p, verts)
		}
	}
	sdf.IsValid = true
	return sdf
}

// Sample bilinearly reads the field at a local-space point. Points outside
// the grid add their distance to the grid edge, so the result still grows
// away from the caster.
func (s *SDF) Sample(local mgl32.Vec2) float32 {
	if !s.IsValid || len(s.Data) == 0 {
		return math.MaxFloat32
	}
	clamped := mgl32.Vec2{
		mgl32.Clamp(local.X(), s.LocalMin.X(), s.LocalMax.X()),
		mgl32.Clamp(local.Y(), s.LocalMin.Y(), s.LocalMax.Y()),
	}
	outside := local.Sub(clamped).Len()

	size := s.LocalMax.Sub(s.LocalMin)
	n := float32(s.Resolution - 1)
	gx := (clamped.X() - s.LocalMin.X()) / max(size.X(), epsilon) * n
	gy := (clamped.Y() - s.LocalMin.Y()) / max(size.Y(), epsilon) * n

	x0 := min(int(gx), s.Resolution-2)
	y0 := min(int(gy), s.Resolution-2)
	tx := gx - float32(x0)
	ty := gy - float32(y0)

	at := func(x, y int) float32 { return s.Data[y*s.Resolution+x] }
	top := at(x0, y0) + (at(x0+1, y0)-at(x0, y0))*tx
	bottom := at(x0, y0+1) + (at(x0+1, y0+1)-at(x0, y0+1))*tx
	return top + (bottom-top)*ty + outside
}

// SampleWorld maps a world point into the field's local grid and samples it.
// The distance is returned in world units.
func (s *SDF) SampleWorld(world mgl32.Vec2) float32 {
	if !s.IsValid {
		return math.MaxFloat32
	}
	local := s.WorldToLocal.Mul3x1(world.Vec3(1)).Vec2()
	return s.Sample(local) * s.distanceScale
}

// CalculateSDFShadow marches from point toward lightPos through the field and
// returns 1 for full shadow, 0 for none. Larger softness widens the penumbra.
// An invalid field casts no shadow.
func CalculateSDFShadow(point, lightPos mgl32.Vec2, sdf *SDF, softness float32) float32 {
	if sdf == nil || !sdf.IsValid {
		return 0
	}
	toLight := lightPos.Sub(point)
	maxT := toLight.Len()
	if maxT < epsilon {
		return 0
	}
	dir := toLight.Mul(1 / maxT)
	k := 8 / max(softness, 0.01)

	light := float32(1)
	t := float32(sdfHitDistance)
	for range sdfMaxSteps {
		if t >= maxT {
			break
		}
		d := sdf.SampleWorld(point.Add(dir.Mul(t)))
		if d < sdfHitDistance {
			return 1
		}
		light = min(light, k*d/t)
		t += max(d, 0.01)
	}
	return 1 - mgl32.Clamp(light, 0, 1)
}

// uniformScale approximates the local to world distance factor for
// non-uniform scales with the geometric mean.
func uniformScale(t Transform) float32 {
	s := t.scale()
	return float32(math.Sqrt(math.Abs(float64(s.X() * s.Y()))))
}
