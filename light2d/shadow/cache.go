package shadow

import "github.com/go-gl/mathgl/mgl32"

// DefaultCacheTolerance is the transform delta below which a cached result is reused.
const DefaultCacheTolerance = 1e-4

type CacheState uint8

const (
	CacheUncached CacheState = iota
	CacheClean
	CacheDirty
)

func (s CacheState) String() string {
	switch s {
	case CacheClean:
		return "clean"
	case CacheDirty:
		return "dirty"
	default:
		return "uncached"
	}
}

// CacheData tracks whether a caster's derived geometry is still valid for
// its current transform.
type CacheData struct {
	Enabled         bool
	IsCached        bool
	IsDirty         bool
	LastUpdateFrame uint64
	LastPosition    mgl32.Vec2
	LastRotation    float32
	LastScale       mgl32.Vec2
	Tolerance       float32
}

func NewCacheData() CacheData {
	return CacheData{Enabled: true, Tolerance: DefaultCacheTolerance}
}

func (c *CacheData) State() CacheState {
	switch {
	case !c.IsCached:
		return CacheUncached
	case c.IsDirty:
		return CacheDirty
	default:
		return CacheClean
	}
}

func (c *CacheData) tolerance() float32 {
	if c.Tolerance <= 0 {
		return DefaultCacheTolerance
	}
	return c.Tolerance
}

// NeedsCacheUpdate reports whether derived data must be regenerated for the
// given transform.
func (c *CacheData) NeedsCacheUpdate(pos mgl32.Vec2, rot float32, scale mgl32.Vec2) bool {
	if !c.Enabled || !c.IsCached || c.IsDirty {
		return true
	}
	tol := c.tolerance()
	return moved(pos, c.LastPosition, tol) ||
		abs32(rot-c.LastRotation) > tol ||
		moved(scale, c.LastScale, tol)
}

func moved(a, b mgl32.Vec2, tol float32) bool {
	return abs32(a.X()-b.X()) > tol || abs32(a.Y()-b.Y()) > tol
}

// Store snapshots the transform the cached data was generated for.
func (c *CacheData) Store(pos mgl32.Vec2, rot float32, scale mgl32.Vec2, frame uint64) {
	c.IsCached = true
	c.IsDirty = false
	c.LastUpdateFrame = frame
	c.LastPosition = pos
	c.LastRotation = rot
	c.LastScale = scale
}

// MarkDirty keeps the snapshot but forces the next update to regenerate.
func (c *CacheData) MarkDirty() {
	if c.IsCached {
		c.IsDirty = true
	}
}

// Invalidate drops the cache back to the uncached state.
func (c *CacheData) Invalidate() {
	c.IsCached = false
	c.IsDirty = false
	c.LastUpdateFrame = 0
}
