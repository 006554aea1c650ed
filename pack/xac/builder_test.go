package xac

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/toslib/tos_browser/utils"
)

// modelBuilder assembles little endian model streams for tests.
type modelBuilder struct {
	bytes.Buffer
}

func (b *modelBuilder) u8(v uint8)   { b.WriteByte(v) }
func (b *modelBuilder) u16(v uint16) { binary.Write(&b.Buffer, binary.LittleEndian, v) }
func (b *modelBuilder) u32(v uint32) { binary.Write(&b.Buffer, binary.LittleEndian, v) }
func (b *modelBuilder) f32(v float32) {
	b.u32(math.Float32bits(v))
}
func (b *modelBuilder) str(s string) {
	b.u32(uint32(len(s)))
	b.WriteString(s)
}
func (b *modelBuilder) pad(n int) { b.Write(make([]byte, n)) }

func (b *modelBuilder) f32s(vs ...float32) {
	for _, v := range vs {
		b.f32(v)
	}
}

// quat writes x, y, z, w like the file does.
func (b *modelBuilder) quat(q mgl32.Quat) { b.f32s(q.X(), q.Y(), q.Z(), q.W) }
func (b *modelBuilder) vec3(v mgl32.Vec3) { b.f32s(v[:]...) }
func (b *modelBuilder) vec4(v mgl32.Vec4) { b.f32s(v[:]...) }

func newModel(endian uint8) *modelBuilder {
	b := &modelBuilder{}
	b.WriteString(MAGIC)
	b.u8(1)
	b.u8(0)
	b.u8(endian)
	b.u8(0)
	return b
}

func (b *modelBuilder) chunk(id ChunkID, version uint32, payload []byte) {
	b.u32(uint32(id))
	b.u32(uint32(len(payload)))
	b.u32(version)
	b.Write(payload)
}

type testLayer struct {
	kind AttributeKind
	rows []float32
	raw  []byte
}

type testSubMesh struct {
	verts    uint32
	material uint32
	indices  []uint32
}

// meshPayload builds a version 1 Mesh record.
func meshPayload(node, orgVerts, totalVerts uint32, layers []testLayer, subs []testSubMesh) []byte {
	b := &modelBuilder{}
	totalIndices := 0
	for _, s := range subs {
		totalIndices += len(s.indices)
	}
	b.u32(node)
	b.u32(orgVerts)
	b.u32(totalVerts)
	b.u32(uint32(totalIndices))
	b.u32(uint32(len(subs)))
	b.u32(uint32(len(layers)))
	b.u8(0)
	b.Write([]byte{0, 0, 0})
	for _, l := range layers {
		b.u32(uint32(l.kind))
		b.u32(uint32(l.kind.RowSize()))
		b.u8(0)
		b.u8(0)
		b.Write([]byte{0, 0})
		if l.raw != nil {
			b.Write(l.raw)
		}
		for _, f := range l.rows {
			b.f32(f)
		}
	}
	for _, s := range subs {
		b.u32(uint32(len(s.indices)))
		b.u32(s.verts)
		b.u32(s.material)
		b.u32(0)
		for _, i := range s.indices {
			b.u32(i)
		}
	}
	return b.Bytes()
}

func stdMaterialPayload(name string) []byte {
	b := &modelBuilder{}
	for i := 0; i < 16; i++ {
		b.f32(1)
	}
	b.f32(0)
	b.f32(0)
	b.f32(1)
	b.f32(1)
	b.Write([]byte{0, 0, 0, 0})
	b.str(name)
	return b.Bytes()
}

func decodeTest(t *testing.T, data []byte) *Actor {
	a, err := Decode(data, utils.NewLogger(io.Discard))
	require.NoError(t, err)
	return a
}
