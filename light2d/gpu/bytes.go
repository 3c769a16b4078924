package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformAlign is the alignment uniform blocks are padded to.
const UniformAlign = 16

func Float32sToBytes(vals ...float32) []byte {
	n := len(vals) * 4
	if n%UniformAlign != 0 {
		n += UniformAlign - n%UniformAlign
	}
	buf := make([]byte, n)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func Vec4ToBytes(v mgl32.Vec4) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v[3]))
	return buf
}

func Vec3ToBytesPadded(v mgl32.Vec3) []byte {
	return Vec4ToBytes(v.Vec4(0))
}

// BytesToFloat32s decodes little-endian floats, ignoring a trailing partial word.
func BytesToFloat32s(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
