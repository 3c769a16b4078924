package shadow

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type Method uint8

const (
	MethodNone Method = iota
	MethodBasic
	MethodSDF
)

var methodNames = map[Method]string{
	MethodNone:  "none",
	MethodBasic: "basic",
	MethodSDF:   "sdf",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

func (m Method) MarshalText() ([]byte, error) {
	s, ok := methodNames[m]
	if !ok {
		return nil, fmt.Errorf("unknown shadow method %d", uint8(m))
	}
	return []byte(s), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	for k, v := range methodNames {
		if v == string(text) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown shadow method %q", text)
}

// Record is the derived shadow state owned by one caster entity.
type Record struct {
	Caster    Caster
	Transform Transform
	Cache     CacheData

	Edges []Edge
	SDF   SDF
}

type Stats struct {
	Casters       int
	Regenerated   int
	CacheHits     int
	SDFsGenerated int
}

// Renderer keeps one Record per caster entity and regenerates edges and
// fields only when the record's cache asks for it.
type Renderer struct {
	method       Method
	cacheEnabled bool
	resolution   int

	frame   uint64
	records map[uint64]*Record
	seen    map[uint64]uint64
	stats   Stats
}

func NewRenderer(method Method) *Renderer {
	return &Renderer{
		method:       method,
		cacheEnabled: true,
		records:      make(map[uint64]*Record),
		seen:         make(map[uint64]uint64),
	}
}

func (r *Renderer) Method() Method { return r.method }

// SetMethod switches between polygon and SDF shadows. Every record is
// invalidated so the next update builds what the new method needs.
func (r *Renderer) SetMethod(m Method) {
	if m == r.method {
		return
	}
	r.method = m
	r.InvalidateAll()
}

func (r *Renderer) SetCacheEnabled(enabled bool) {
	r.cacheEnabled = enabled
	for _, rec := range r.records {
		rec.Cache.Enabled = enabled
	}
}

// SetResolution overrides the SDF resolution of casters that leave it unset.
// Zero restores the caster's own setting.
func (r *Renderer) SetResolution(res int) {
	if res == r.resolution {
		return
	}
	r.resolution = res
	if r.method == MethodSDF {
		r.InvalidateAll()
	}
}

// BeginFrame starts a new frame and resets the per-frame counters.
func (r *Renderer) BeginFrame() {
	r.frame++
	r.stats = Stats{Casters: len(r.records)}
}

func (r *Renderer) Frame() uint64 { return r.frame }

// Update refreshes the record for id. It reports whether geometry was regenerated.
func (r *Renderer) Update(id uint64, c Caster, t Transform) bool {
	rec, ok := r.records[id]
	if !ok {
		rec = &Record{Cache: NewCacheData()}
		rec.Cache.Enabled = r.cacheEnabled
		r.records[id] = rec
		r.stats.Casters = len(r.records)
	}
	r.seen[id] = r.frame
	if !shapeEqual(rec.Caster, c) {
		rec.Cache.MarkDirty()
	}
	rec.Caster = c

	scale := t.scale()
	if c.Static && rec.Cache.Enabled && rec.Cache.State() == CacheClean {
		r.stats.CacheHits++
		return false
	}
	if !rec.Cache.NeedsCacheUpdate(t.Position, t.Rotation, scale) {
		r.stats.CacheHits++
		return false
	}

	rec.Transform = t
	rec.Edges = ExtractEdges(WorldVertices(c, t))
	if r.method == MethodSDF {
		if r.resolution > 0 && c.SDFResolution <= 0 {
			c.SDFResolution = r.resolution
		}
		rec.SDF = GenerateSDF(c, t)
		r.stats.SDFsGenerated++
	} else {
		rec.SDF = SDF{}
	}
	rec.Cache.Store(t.Position, t.Rotation, scale, r.frame)
	r.stats.Regenerated++
	return true
}

func (r *Renderer) Record(id uint64) (*Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

func (r *Renderer) Invalidate(id uint64) {
	if rec, ok := r.records[id]; ok {
		rec.Cache.Invalidate()
	}
}

func (r *Renderer) InvalidateAll() {
	for _, rec := range r.records {
		rec.Cache.Invalidate()
	}
}

func (r *Renderer) Remove(id uint64) {
	delete(r.records, id)
	delete(r.seen, id)
}

// Prune drops records that were not updated during the current frame and
// returns how many were removed.
func (r *Renderer) Prune() int {
	n := 0
	for id := range r.records {
		if r.seen[id] != r.frame {
			r.Remove(id)
			n++
		}
	}
	return n
}

// Occlusion returns how much light from lightPos is blocked at point, in
// [0,1]. Casters are combined by taking the strongest occluder. softness
// widens the SDF penumbra, non-positive values mean 1. The basic method
// always casts hard shadows.
func (r *Renderer) Occlusion(point, lightPos mgl32.Vec2, softness float32) float32 {
	if r.method == MethodNone {
		return 0
	}
	if softness <= 0 {
		softness = 1
	}
	var best float32
	for _, id := range r.ids() {
		rec := r.records[id]
		opacity := rec.Caster.Opacity
		if opacity <= 0 {
			continue
		}
		var occ float32
		switch r.method {
		case MethodSDF:
			if !rec.Caster.SelfShadow && rec.SDF.IsValid && rec.SDF.SampleWorld(point) < 0 {
				continue
			}
			occ = CalculateSDFShadow(point, lightPos, &rec.SDF, softness)
		default:
			if !rec.Caster.SelfShadow && PointInPolygon(point, edgeStarts(rec.Edges)) {
				continue
			}
			if IsPointInShadow(point, lightPos, rec.Edges) {
				occ = 1
			}
		}
		best = max(best, occ*min(opacity, 1))
		if best >= 1 {
			break
		}
	}
	return best
}

func (r *Renderer) Stats() Stats { return r.stats }

func (r *Renderer) Len() int { return len(r.records) }

func (r *Renderer) ids() []uint64 {
	ids := make([]uint64, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func edgeStarts(edges []Edge) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(edges))
	for i, e := range edges {
		out[i] = e.Start
	}
	return out
}

func shapeEqual(a, b Caster) bool {
	return a.Shape == b.Shape && a.Size == b.Size && a.Radius == b.Radius &&
		a.Segments == b.Segments && a.SDFResolution == b.SDFResolution &&
		a.SDFPadding == b.SDFPadding && slices.Equal(a.Vertices, b.Vertices)
}
