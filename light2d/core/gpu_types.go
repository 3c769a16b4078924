package core

import (
	"encoding/binary"
	"math"
)

// LightUniform is the GPU layout of a light: four vec4s. Enums become floats
// only here.
type LightUniform struct {
	PositionRadius  [4]float32 // xy position, z radius, w intensity
	DirectionCone   [4]float32 // xy direction, z cos(inner), w cos(outer)
	Color           [4]float32
	TypeAttenuation [4]float32 // x type, y attenuation, z layer mask bits, w casts shadows
}

// LightUniformSize is the byte size of one LightUniform.
const LightUniformSize = 64

func (l Light) Uniform() LightUniform {
	shadows := float32(0)
	if l.CastShadows {
		shadows = 1
	}
	return LightUniform{
		PositionRadius: [4]float32{l.Position.X(), l.Position.Y(), l.Radius, l.Intensity},
		DirectionCone: [4]float32{
			l.Direction.X(), l.Direction.Y(),
			float32(math.Cos(float64(l.InnerAngle))), float32(math.Cos(float64(l.OuterAngle))),
		},
		Color:           [4]float32(l.Color),
		TypeAttenuation: [4]float32{float32(l.Type), float32(l.Attenuation), math.Float32frombits(l.LayerMask), shadows},
	}
}

// MarshalLights writes a 16 byte header (count) followed by the light records.
func MarshalLights(lights []Light) []byte {
	buf := make([]byte, 16+len(lights)*LightUniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(lights)))
	off := 16
	for _, l := range lights {
		u := l.Uniform()
		for _, v := range [][4]float32{u.PositionRadius, u.DirectionCone, u.Color, u.TypeAttenuation} {
			for _, f := range v {
				binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
				off += 4
			}
		}
	}
	return buf
}
