package core

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// CalculateLightBounds returns [position-radius, position+radius] for point and
// spot lights. Directional lights get an infinite box; culling never consults it.
func CalculateLightBounds(light Light) AABB {
	if light.Type == LightTypeDirectional {
		return InfiniteAABB()
	}
	r := floorRadius(light.Radius)
	return AABBFromCenter(light.Position, mgl32.Vec2{r, r})
}

// IsLightInView is a plain AABB overlap test.
func IsLightInView(lightBounds, viewBounds AABB) bool {
	return lightBounds.Overlaps(viewBounds)
}

// CullLights keeps the lights whose bounds overlap view. Directional lights
// always survive.
func CullLights(lights []Light, view AABB) []Light {
	out := make([]Light, 0, len(lights))
	for _, l := range lights {
		if l.Type == LightTypeDirectional || IsLightInView(CalculateLightBounds(l), view) {
			out = append(out, l)
		}
	}
	return out
}

// SortLightsByPriority sorts in place, priority descending, ties by distance to
// the camera ascending. The sort is stable.
func SortLightsByPriority(lights []Light) {
	slices.SortStableFunc(lights, func(a, b Light) int {
		if a.Priority != b.Priority {
			if a.Priority > b.Priority {
				return -1
			}
			return 1
		}
		switch {
		case a.DistanceToCamera < b.DistanceToCamera:
			return -1
		case a.DistanceToCamera > b.DistanceToCamera:
			return 1
		}
		return 0
	})
}

// LimitLightCount truncates to the first maxCount entries.
func LimitLightCount(lights []Light, maxCount int) []Light {
	if maxCount < 0 {
		maxCount = 0
	}
	if len(lights) <= maxCount {
		return lights
	}
	return lights[:maxCount]
}

// PrepareLights runs cull, sort and cap in that order. The input slice is not modified.
func PrepareLights(lights []Light, view AABB, cameraPos mgl32.Vec2, maxCount int) []Light {
	visible := CullLights(lights, view)
	for i := range visible {
		visible[i].DistanceToCamera = visible[i].Position.Sub(cameraPos).Len()
	}
	SortLightsByPriority(visible)
	return LimitLightCount(visible, maxCount)
}
