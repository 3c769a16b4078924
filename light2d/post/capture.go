package post

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/x448/float16"
	"golang.org/x/image/draw"
)

// maxHalf is the largest finite half-precision value.
const maxHalf = 65504

// HDRImage is a CPU-side linear color buffer, row-major from the top-left.
type HDRImage struct {
	Width, Height int
	Pix           []mgl32.Vec3
}

func NewHDRImage(w, h int) *HDRImage {
	return &HDRImage{Width: w, Height: h, Pix: make([]mgl32.Vec3, w*h)}
}

func (m *HDRImage) At(x, y int) mgl32.Vec3 { return m.Pix[y*m.Width+x] }

func (m *HDRImage) Set(x, y int, c mgl32.Vec3) { m.Pix[y*m.Width+x] = c }

// Sample reads the nearest pixel to a UV, clamping to the edges.
func (m *HDRImage) Sample(uv mgl32.Vec2) mgl32.Vec3 {
	if m.Width == 0 || m.Height == 0 {
		return mgl32.Vec3{}
	}
	x := min(max(int(uv.X()*float32(m.Width)), 0), m.Width-1)
	y := min(max(int(uv.Y()*float32(m.Height)), 0), m.Height-1)
	return m.At(x, y)
}

// ToRGBA quantizes the buffer, clamping each channel to [0,1].
func (m *HDRImage) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		for x := range m.Width {
			c := m.At(x, y)
			img.SetRGBA(x, y, color.RGBA{to8(c[0]), to8(c[1]), to8(c[2]), 255})
		}
	}
	return img
}

// ToRGBA16F packs the buffer as little-endian half floats with alpha 1,
// ready for an RGBA16F target. Values above 1 are kept; negative ones become 0.
func (m *HDRImage) ToRGBA16F() []byte {
	out := make([]byte, len(m.Pix)*8)
	one := float16.Fromfloat32(1).Bits()
	for i, c := range m.Pix {
		px := out[i*8 : i*8+8]
		for ch := 0; ch < 3; ch++ {
			v := c[ch]
			if !(v > 0) {
				v = 0
			}
			binary.LittleEndian.PutUint16(px[ch*2:], float16.Fromfloat32(min(v, maxHalf)).Bits())
		}
		binary.LittleEndian.PutUint16(px[6:], one)
	}
	return out
}

// CaptureWebP encodes img losslessly. When maxWidth is positive and smaller
// than the image, it is downscaled first, keeping the aspect ratio.
func CaptureWebP(w io.Writer, img image.Image, maxWidth int) error {
	if img == nil {
		return fmt.Errorf("capture: nil image")
	}
	b := img.Bounds()
	if maxWidth > 0 && b.Dx() > maxWidth {
		h := max(1, b.Dy()*maxWidth/b.Dx())
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("capture: encode webp: %w", err)
	}
	return nil
}
