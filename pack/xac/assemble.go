package xac

import (
	"encoding/binary"
	stderrors "errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// AssembledSubMesh is the geometry of one submesh with every attribute
// sliced to its own vertex range. Positions, normals and bitangents are
// already mirrored on X.
type AssembledSubMesh struct {
	TextureName   string
	MaterialIndex uint32
	VertexOffset  uint32
	NumVerts      uint32
	Positions     []mgl32.Vec3
	Normals       []mgl32.Vec3
	Tangents      []mgl32.Vec4
	UVs           []mgl32.Vec2
	Colors32      []uint32
	OrgVertices   []uint32
	Colors128     []mgl32.Vec4
	Bitangents    []mgl32.Vec3
	// as stored, see GlobalIndices
	Indices []uint32
	Bones   []uint32
	// Indices address the whole mesh rather than this submesh alone
	GlobalIndices bool
}

type AssembledMesh struct {
	NodeIndex       uint32
	LOD             uint32
	IsCollisionMesh bool
	SubMeshes       []*AssembledSubMesh
}

// MaterialNames lists one texture name per standard material and one per
// bitmap parameter of every fx material, in stream order.
func MaterialNames(chunks []*Chunk) []string {
	names := make([]string, 0)
	for _, c := range chunks {
		switch m := c.Record.(type) {
		case *StandardMaterial:
			names = append(names, m.Name)
		case *FXMaterial:
			for _, b := range m.Bitmaps {
				names = append(names, b.ValueName)
			}
		}
	}
	return names
}

func textureName(names []string, materialIndex uint32) string {
	if materialIndex == 0 || uint64(materialIndex) >= uint64(len(names)) {
		return ""
	}
	return names[materialIndex]
}

// rows returns the bytes of vertex rows [offset, offset+count) of a layer.
func rows(l *VertexAttributeLayer, subMesh int, offset, count uint32) ([]byte, error) {
	w := uint64(l.TypeID.RowSize())
	start := uint64(offset) * w
	end := start + uint64(count)*w
	if end > uint64(len(l.Data)) {
		return nil, &TruncatedAttributeBufferError{
			Attribute: l.TypeID,
			SubMesh:   subMesh,
			Need:      end,
			Have:      uint64(len(l.Data)),
		}
	}
	return l.Data[start:end], nil
}

func f32At(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}

func vec3Rows(b []byte, mirror bool) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(b)/12)
	for i := range out {
		out[i] = mgl32.Vec3{f32At(b, i*3), f32At(b, i*3+1), f32At(b, i*3+2)}
		if mirror {
			out[i][0] = -out[i][0]
		}
	}
	return out
}

func vec4Rows(b []byte) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, len(b)/16)
	for i := range out {
		out[i] = mgl32.Vec4{f32At(b, i*4), f32At(b, i*4+1), f32At(b, i*4+2), f32At(b, i*4+3)}
	}
	return out
}

func vec2Rows(b []byte) []mgl32.Vec2 {
	out := make([]mgl32.Vec2, len(b)/8)
	for i := range out {
		out[i] = mgl32.Vec2{f32At(b, i*2), f32At(b, i*2+1)}
	}
	return out
}

func u32Rows(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func (sm *AssembledSubMesh) fill(kind AttributeKind, b []byte) {
	switch kind {
	case ATTRIB_POSITIONS:
		sm.Positions = vec3Rows(b, true)
	case ATTRIB_NORMALS:
		sm.Normals = vec3Rows(b, true)
	case ATTRIB_TANGENTS:
		sm.Tangents = vec4Rows(b)
	case ATTRIB_UVCOORDS:
		sm.UVs = vec2Rows(b)
	case ATTRIB_COLORS32:
		sm.Colors32 = u32Rows(b)
	case ATTRIB_ORGVTXNUMBERS:
		sm.OrgVertices = u32Rows(b)
	case ATTRIB_COLORS128:
		sm.Colors128 = vec4Rows(b)
	case ATTRIB_BITANGENTS:
		sm.Bitangents = vec3Rows(b, true)
	}
}

// Assemble splits the per-mesh attribute layers into per-submesh geometry.
// Submeshes consume vertex rows in declaration order. Only the first layer
// of each kind is used and submeshes without any data are still emitted.
func Assemble(mesh *Mesh, names []string) (*AssembledMesh, error) {
	am := &AssembledMesh{
		NodeIndex:       mesh.NodeIndex,
		LOD:             mesh.LOD,
		IsCollisionMesh: mesh.IsCollisionMesh != 0,
		SubMeshes:       make([]*AssembledSubMesh, 0, len(mesh.SubMeshes)),
	}

	var layers [ATTRIB_BITANGENTS + 1]*VertexAttributeLayer
	for kind := range layers {
		layers[kind] = mesh.Layer(AttributeKind(kind))
	}

	global := globalIndices(mesh.SubMeshes)
	offset := uint32(0)
	for iSub := range mesh.SubMeshes {
		sub := &mesh.SubMeshes[iSub]
		sm := &AssembledSubMesh{
			TextureName:   textureName(names, sub.MaterialIndex),
			MaterialIndex: sub.MaterialIndex,
			VertexOffset:  offset,
			NumVerts:      sub.NumVerts,
			Indices:       sub.Indices,
			Bones:         sub.Bones,
			GlobalIndices: global,
		}
		for _, l := range layers {
			if l == nil {
				continue
			}
			b, err := rows(l, iSub, offset, sub.NumVerts)
			if err != nil {
				return nil, err
			}
			sm.fill(l.TypeID, b)
		}
		am.SubMeshes = append(am.SubMeshes, sm)
		offset += sub.NumVerts
	}
	return am, nil
}

// globalIndices tells whether the index lists of a mesh address the whole
// vertex buffer. Exporters write submesh local indices, so one index past its
// own submesh's vertex count decides it for every submesh of the mesh.
func globalIndices(subs []SubMesh) bool {
	for i := range subs {
		for _, idx := range subs[i].Indices {
			if idx >= subs[i].NumVerts {
				return true
			}
		}
	}
	return false
}

// LocalIndices returns the indices relative to this submesh's own vertices.
func (sm *AssembledSubMesh) LocalIndices() ([]uint32, error) {
	base := uint32(0)
	if sm.GlobalIndices {
		base = sm.VertexOffset
	}
	out := make([]uint32, len(sm.Indices))
	for i, idx := range sm.Indices {
		if idx < base || idx-base >= sm.NumVerts {
			return nil, errors.Errorf("[xac] index %d outside of vertex range [%d, %d)",
				idx, base, base+sm.NumVerts)
		}
		out[i] = idx - base
	}
	return out, nil
}

// AssembleMeshes assembles every mesh of the actor. A mesh that fails is left
// out and its error is joined into the returned error.
func (a *Actor) AssembleMeshes() ([]*AssembledMesh, error) {
	names := MaterialNames(a.Chunks)
	var result []*AssembledMesh
	var errs []error
	for i, m := range a.Meshes() {
		am, err := Assemble(m, names)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "mesh %d", i))
			continue
		}
		result = append(result, am)
	}
	return result, stderrors.Join(errs...)
}
