package post

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var (
	ErrUnsupportedLUTFormat = errors.New("post: unsupported LUT image format")
	ErrInvalidLUTSize       = errors.New("post: LUT image must be a strip of N slices of N x N")
)

const (
	MinLUTSize = 2
	MaxLUTSize = 64
)

// LUT is a 3D color table of Size^3 entries. Data is indexed
// [blue][green][red] with red varying fastest.
type LUT struct {
	ID   uuid.UUID
	Size int
	Data []mgl32.Vec3
}

// IdentityLUT maps every color onto itself.
func IdentityLUT(size int) *LUT {
	size = max(MinLUTSize, min(size, MaxLUTSize))
	l := &LUT{ID: uuid.New(), Size: size, Data: make([]mgl32.Vec3, size*size*size)}
	step := 1 / float32(size-1)
	for b := range size {
		for g := range size {
			for r := range size {
				l.Data[l.index(r, g, b)] = mgl32.Vec3{float32(r) * step, float32(g) * step, float32(b) * step}
			}
		}
	}
	return l
}

func (l *LUT) index(r, g, b int) int {
	return (b*l.Size+g)*l.Size + r
}

// Lookup trilinearly samples the table. Inputs are clamped to [0,1].
func (l *LUT) Lookup(c mgl32.Vec3) mgl32.Vec3 {
	if l == nil || l.Size < MinLUTSize || len(l.Data) < l.Size*l.Size*l.Size {
		return c
	}
	n := float32(l.Size - 1)
	var i0 [3]int
	var f [3]float32
	for k := range 3 {
		x := mgl32.Clamp(c[k], 0, 1) * n
		i0[k] = min(int(x), l.Size-2)
		f[k] = x - float32(i0[k])
	}
	at := func(dr, dg, db int) mgl32.Vec3 {
		return l.Data[l.index(i0[0]+dr, i0[1]+dg, i0[2]+db)]
	}
	mix := func(a, b mgl32.Vec3, t float32) mgl32.Vec3 { return a.Add(b.Sub(a).Mul(t)) }

	c00 := mix(at(0, 0, 0), at(1, 0, 0), f[0])
	c10 := mix(at(0, 1, 0), at(1, 1, 0), f[0])
	c01 := mix(at(0, 0, 1), at(1, 0, 1), f[0])
	c11 := mix(at(0, 1, 1), at(1, 1, 1), f[0])
	return mix(mix(c00, c10, f[1]), mix(c01, c11, f[1]), f[2])
}

// ApplyLUT blends c toward its LUT color. Intensity 0 returns c unchanged and
// intensity 1 returns the LUT color.
func ApplyLUT(c mgl32.Vec3, l *LUT, intensity float32) mgl32.Vec3 {
	if l == nil || intensity <= 0 {
		return c
	}
	graded := l.Lookup(c)
	if intensity >= 1 {
		return graded
	}
	return c.Add(graded.Sub(c).Mul(intensity))
}

// Strip encodes the table as an RGBA8 image Size*Size wide and Size tall:
// slice b occupies columns [b*Size, (b+1)*Size).
func (l *LUT) Strip() *image.RGBA {
	n := l.Size
	img := image.NewRGBA(image.Rect(0, 0, n*n, n))
	for b := range n {
		for g := range n {
			for r := range n {
				c := l.Data[l.index(r, g, b)]
				i := img.PixOffset(b*n+r, g)
				img.Pix[i] = to8(c[0])
				img.Pix[i+1] = to8(c[1])
				img.Pix[i+2] = to8(c[2])
				img.Pix[i+3] = 255
			}
		}
	}
	return img
}

type lutDecoder struct {
	name  string
	match func(magic []byte) bool
	fn    func(io.Reader) (image.Image, error)
}

// TGA has no signature, so it is tried last.
var lutDecoders = []lutDecoder{
	{"png", prefix("\x89PNG\r\n\x1a\n"), png.Decode},
	{"jpeg", prefix("\xff\xd8"), jpeg.Decode},
	{"bmp", prefix("BM"), bmp.Decode},
	{"tiff", func(m []byte) bool { return prefix("II*\x00")(m) || prefix("MM\x00*")(m) }, tiff.Decode},
	{"webp", func(m []byte) bool { return prefix("RIFF")(m) && len(m) >= 12 && string(m[8:12]) == "WEBP" }, webp.Decode},
}

func prefix(p string) func([]byte) bool {
	return func(m []byte) bool { return bytes.HasPrefix(m, []byte(p)) }
}

// DecodeLUT reads a strip image in png, jpeg, bmp, tiff, webp or tga format.
func DecodeLUT(r io.Reader) (*LUT, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(12)

	var (
		src    image.Image
		format = "tga"
		err    error
	)
	decoded := false
	for _, d := range lutDecoders {
		if d.match(magic) {
			format = d.name
			if src, err = d.fn(br); err != nil {
				return nil, fmt.Errorf("decode %s lut: %w", d.name, err)
			}
			decoded = true
			break
		}
	}
	if !decoded {
		if src, err = tga.Decode(br); err != nil {
			return nil, fmt.Errorf("decode lut: %w", ErrUnsupportedLUTFormat)
		}
	}
	lut, err := LUTFromImage(src)
	if err != nil {
		return nil, fmt.Errorf("decode %s lut: %w", format, err)
	}
	return lut, nil
}

// LUTFromImage converts a decoded strip into a table.
func LUTFromImage(src image.Image) (*LUT, error) {
	b := src.Bounds()
	n := b.Dy()
	if n < MinLUTSize || n > MaxLUTSize || b.Dx() != n*n {
		return nil, fmt.Errorf("%dx%d: %w", b.Dx(), b.Dy(), ErrInvalidLUTSize)
	}
	rgba, ok := src.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}

	l := &LUT{ID: uuid.New(), Size: n, Data: make([]mgl32.Vec3, n*n*n)}
	for bi := range n {
		for g := range n {
			for r := range n {
				i := rgba.PixOffset(bi*n+r, g)
				l.Data[l.index(r, g, bi)] = mgl32.Vec3{
					float32(rgba.Pix[i]) / 255,
					float32(rgba.Pix[i+1]) / 255,
					float32(rgba.Pix[i+2]) / 255,
				}
			}
		}
	}
	return l, nil
}

func LoadLUT(path string) (*LUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lut %s: %w", path, err)
	}
	defer f.Close()
	lut, err := DecodeLUT(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lut, nil
}

func to8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
