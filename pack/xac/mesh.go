package xac

import "fmt"

type AttributeKind uint32

const (
	ATTRIB_POSITIONS AttributeKind = iota
	ATTRIB_NORMALS
	ATTRIB_TANGENTS
	ATTRIB_UVCOORDS
	ATTRIB_COLORS32
	ATTRIB_ORGVTXNUMBERS
	ATTRIB_COLORS128
	ATTRIB_BITANGENTS
)

var attributeNames = [...]string{
	ATTRIB_POSITIONS:     "positions",
	ATTRIB_NORMALS:       "normals",
	ATTRIB_TANGENTS:      "tangents",
	ATTRIB_UVCOORDS:      "uvcoords",
	ATTRIB_COLORS32:      "colors32",
	ATTRIB_ORGVTXNUMBERS: "orgvtxnumbers",
	ATTRIB_COLORS128:     "colors128",
	ATTRIB_BITANGENTS:    "bitangents",
}

var attributeRowSizes = [...]int{
	ATTRIB_POSITIONS:     12,
	ATTRIB_NORMALS:       12,
	ATTRIB_TANGENTS:      16,
	ATTRIB_UVCOORDS:      8,
	ATTRIB_COLORS32:      4,
	ATTRIB_ORGVTXNUMBERS: 4,
	ATTRIB_COLORS128:     16,
	ATTRIB_BITANGENTS:    12,
}

func (k AttributeKind) String() string {
	if int(k) < len(attributeNames) {
		return attributeNames[k]
	}
	return fmt.Sprintf("attribute(%d)", uint32(k))
}

// RowSize is the fixed width of one vertex row, 0 for unknown kinds.
func (k AttributeKind) RowSize() int {
	if int(k) < len(attributeRowSizes) {
		return attributeRowSizes[k]
	}
	return 0
}

// VertexAttributeLayer is one per-vertex column spanning the whole mesh.
// Data is kept raw until assembly.
type VertexAttributeLayer struct {
	TypeID             AttributeKind
	AttribSizeInBytes  uint32
	EnableDeformations uint8
	IsScale            uint8
	Data               []byte `json:"-"`
}

func decodeVertexAttributeLayer(r *reader, totalVerts uint32) VertexAttributeLayer {
	l := VertexAttributeLayer{
		TypeID:             AttributeKind(r.u32()),
		AttribSizeInBytes:  r.u32(),
		EnableDeformations: r.u8(),
		IsScale:            r.u8(),
	}
	r.skip(2)
	l.Data = r.bytes(uint64(l.AttribSizeInBytes) * uint64(totalVerts))
	return l
}

type SubMesh struct {
	NumIndices    uint32
	NumVerts      uint32
	MaterialIndex uint32
	NumBones      uint32
	Indices       []uint32
	Bones         []uint32
}

func decodeSubMesh(r *reader) SubMesh {
	sm := SubMesh{
		NumIndices:    r.u32(),
		NumVerts:      r.u32(),
		MaterialIndex: r.u32(),
		NumBones:      r.u32(),
	}
	sm.Indices = r.u32s(sm.NumIndices)
	sm.Bones = r.u32s(sm.NumBones)
	return sm
}

type Mesh struct {
	NodeIndex       uint32
	LOD             uint32 // v2
	NumOrgVerts     uint32
	TotalVerts      uint32
	TotalIndices    uint32
	NumSubMeshes    uint32
	NumLayers       uint32
	IsCollisionMesh uint8
	Layers          []VertexAttributeLayer
	SubMeshes       []SubMesh
}

// Layer returns the first layer of the given kind.
func (m *Mesh) Layer(kind AttributeKind) *VertexAttributeLayer {
	for i := range m.Layers {
		if m.Layers[i].TypeID == kind {
			return &m.Layers[i]
		}
	}
	return nil
}

func decodeMesh(r *reader, version uint32) *Mesh {
	m := &Mesh{NodeIndex: r.u32()}
	if version >= 2 {
		m.LOD = r.u32()
	}
	m.NumOrgVerts = r.u32()
	m.TotalVerts = r.u32()
	m.TotalIndices = r.u32()
	m.NumSubMeshes = r.u32()
	m.NumLayers = r.u32()
	m.IsCollisionMesh = r.u8()
	r.skip(3)

	// layer header is 12 bytes, submesh header 16
	if r.fits(uint64(m.NumLayers), 12) {
		m.Layers = make([]VertexAttributeLayer, 0, m.NumLayers)
		for i := uint32(0); i < m.NumLayers && r.err == nil; i++ {
			m.Layers = append(m.Layers, decodeVertexAttributeLayer(r, m.TotalVerts))
		}
	}
	if r.fits(uint64(m.NumSubMeshes), 16) {
		m.SubMeshes = make([]SubMesh, 0, m.NumSubMeshes)
		for i := uint32(0); i < m.NumSubMeshes && r.err == nil; i++ {
			m.SubMeshes = append(m.SubMeshes, decodeSubMesh(r))
		}
	}
	return m
}

type SkinInfluence struct {
	Weight     float32
	NodeNumber uint32
}

type SkinningTableEntry struct {
	StartIndex  uint32
	NumElements uint32
}

// SkinningInfo binds a mesh to bones. From v2 on the table has one entry per
// original vertex of the mesh with the same node index.
type SkinningInfo struct {
	NodeIndex          uint32
	LOD                uint32 // v4
	NumLocalBones      uint32 // v3+
	NumTotalInfluences uint32 // v2+
	IsForCollisionMesh uint8
	Influences         []SkinInfluence
	Table              []SkinningTableEntry
}

func decodeSkinningInfo(r *reader, version uint32, orgVerts func(nodeIndex uint32) uint32) *SkinningInfo {
	var numOrgVerts uint32
	if version >= 2 {
		numOrgVerts = orgVerts(r.peekU32())
	}

	si := &SkinningInfo{NodeIndex: r.u32()}
	switch version {
	case 3:
		si.NumLocalBones = r.u32()
	case 4:
		si.LOD = r.u32()
		si.NumLocalBones = r.u32()
	}
	if version >= 2 {
		si.NumTotalInfluences = r.u32()
	}
	si.IsForCollisionMesh = r.u8()
	r.skip(3)

	if version < 2 {
		return si
	}

	if r.fits(uint64(si.NumTotalInfluences), 8) {
		si.Influences = make([]SkinInfluence, si.NumTotalInfluences)
		for i := range si.Influences {
			si.Influences[i] = SkinInfluence{Weight: r.f32(), NodeNumber: r.u32()}
		}
	}
	if r.fits(uint64(numOrgVerts), 8) {
		si.Table = make([]SkinningTableEntry, numOrgVerts)
		for i := range si.Table {
			si.Table[i] = SkinningTableEntry{StartIndex: r.u32(), NumElements: r.u32()}
		}
	}
	return si
}

// MeshLodLevel carries a whole lower detail model as an opaque blob.
type MeshLodLevel struct {
	LODLevel    uint32
	SizeInBytes uint32
	Data        []byte `json:"-"`
}

func decodeMeshLodLevel(r *reader) *MeshLodLevel {
	l := &MeshLodLevel{
		LODLevel:    r.u32(),
		SizeInBytes: r.u32(),
	}
	l.Data = r.bytes(uint64(l.SizeInBytes))
	return l
}
