package post

import "github.com/go-gl/mathgl/mgl32"

// SoftKneeExtract keeps the part of c brighter than threshold, easing in
// over a knee of threshold*softKnee instead of cutting hard.
func SoftKneeExtract(c mgl32.Vec3, threshold, softKnee float32) mgl32.Vec3 {
	brightness := max(c[0], c[1], c[2])
	knee := threshold * softKnee
	soft := mgl32.Clamp(brightness-threshold+knee, 0, 2*knee)
	soft = soft * soft / (4*knee + 1e-5)
	contribution := max(soft, brightness-threshold) / max(brightness, 1e-5)
	return c.Mul(max(contribution, 0))
}

// MipChainLength is how many times a width x height image can be halved
// before its smaller side drops below one pixel.
func MipChainLength(width, height int) int {
	n := 0
	for w, h := width, height; w >= 2 && h >= 2; w, h = w/2, h/2 {
		n++
	}
	return n
}

// BloomIterations is the number of downsample steps actually run.
func BloomIterations(requested, width, height int) int {
	return max(0, min(requested, MipChainLength(width, height)))
}

// BloomComposite adds tinted bloom on top of the scene.
func BloomComposite(scene, bloom mgl32.Vec3, intensity float32, tint mgl32.Vec4) mgl32.Vec3 {
	glow := mgl32.Vec3{bloom[0] * tint[0], bloom[1] * tint[1], bloom[2] * tint[2]}
	return scene.Add(glow.Mul(intensity))
}
