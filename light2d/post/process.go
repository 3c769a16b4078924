package post

import "github.com/go-gl/mathgl/mgl32"

// CPUInputs carries the optional per-frame data for ProcessImage.
type CPUInputs struct {
	Camera    *Camera
	Light     *ShaftLight
	Occlusion func(uv mgl32.Vec2) float32
	FogLights []FogLight
	LUT       *LUT
}

// ProcessImage runs the post-processing chain on the CPU in the same stage
// order as Pipeline. It is used for captures and as a reference for the GPU
// path. The source is not modified.
func ProcessImage(src *HDRImage, settings Settings, in CPUInputs) *HDRImage {
	s := settings.Validated()
	cur := &HDRImage{Width: src.Width, Height: src.Height, Pix: append([]mgl32.Vec3(nil), src.Pix...)}
	if cur.Width == 0 || cur.Height == 0 {
		return cur
	}

	if s.EnableBloom {
		cur = cpuBloom(cur, &s)
	}
	if s.EnableLightShafts && in.Light != nil && in.Camera != nil {
		cur = cpuLightShafts(cur, &s, *in.Light, *in.Camera, in.Occlusion)
	}
	if s.EnableFog && in.Camera != nil {
		fog := mgl32.Vec3{s.FogColor[0], s.FogColor[1], s.FogColor[2]}
		for y := range cur.Height {
			for x := range cur.Width {
				uv := pixelUV(x, y, cur.Width, cur.Height)
				world := in.Camera.ScreenUVToWorld(uv)
				f := FogAt(world, in.Camera.Position, &s, in.FogLights)
				cur.Set(x, y, ApplyFog(cur.At(x, y), fog, f))
			}
		}
	}
	if s.ToneMapping != ToneMapNone {
		for i, c := range cur.Pix {
			cur.Pix[i] = ApplyGamma(ToneMap(c, s.ToneMapping), s.Gamma)
		}
	}
	if s.EnableColorGrading {
		var lut *LUT
		if s.LUTIntensity > 0 {
			lut = in.LUT
		}
		for i, c := range cur.Pix {
			cur.Pix[i] = ColorGrade(c, &s, lut)
		}
	}
	return cur
}

func pixelUV(x, y, w, h int) mgl32.Vec2 {
	return mgl32.Vec2{(float32(x) + 0.5) / float32(w), (float32(y) + 0.5) / float32(h)}
}

func cpuBloom(scene *HDRImage, s *Settings) *HDRImage {
	bright := NewHDRImage(scene.Width, scene.Height)
	for i, c := range scene.Pix {
		bright.Pix[i] = SoftKneeExtract(c, s.BloomThreshold, s.BloomSoftKnee)
	}
	// Each mip level doubles the blur footprint.
	blur := bright
	for i := range BloomIterations(s.BloomIterations, scene.Width, scene.Height) {
		blur = boxBlur(blur, 1<<i)
	}
	out := NewHDRImage(scene.Width, scene.Height)
	for i := range scene.Pix {
		out.Pix[i] = BloomComposite(scene.Pix[i], blur.Pix[i], s.BloomIntensity, s.BloomTint)
	}
	return out
}

func boxBlur(src *HDRImage, radius int) *HDRImage {
	pass := func(in *HDRImage, dx, dy int) *HDRImage {
		out := NewHDRImage(in.Width, in.Height)
		for y := range in.Height {
			for x := range in.Width {
				var sum mgl32.Vec3
				n := 0
				for k := -radius; k <= radius; k++ {
					sx, sy := x+k*dx, y+k*dy
					if sx < 0 || sy < 0 || sx >= in.Width || sy >= in.Height {
						continue
					}
					sum = sum.Add(in.At(sx, sy))
					n++
				}
				out.Set(x, y, sum.Mul(1/float32(n)))
			}
		}
		return out
	}
	return pass(pass(src, 1, 0), 0, 1)
}

func cpuLightShafts(scene *HDRImage, s *Settings, light ShaftLight, cam Camera, occlusion func(mgl32.Vec2) float32) *HDRImage {
	p := s.ShaftParams()
	light.Intensity *= s.LightShaftIntensity
	out := NewHDRImage(scene.Width, scene.Height)
	for y := range scene.Height {
		for x := range scene.Width {
			uv := pixelUV(x, y, scene.Width, scene.Height)
			shaft := LightShaftSample(uv, light, cam, p, scene.Sample, occlusion)
			out.Set(x, y, scene.At(x, y).Add(shaft))
		}
	}
	return out
}
