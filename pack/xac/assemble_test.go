package xac

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n, width int, base float32) []float32 {
	out := make([]float32, 0, n*width)
	for i := 0; i < n; i++ {
		for j := 0; j < width; j++ {
			out = append(out, base+float32(i*10+j))
		}
	}
	return out
}

func twoSubMeshModel() []byte {
	b := newModel(0)
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("unused"))
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("skin.dds"))
	b.chunk(CHUNK_MESH, 1, meshPayload(0, 8, 8,
		[]testLayer{
			{kind: ATTRIB_POSITIONS, rows: seq(8, 3, 1)},
			{kind: ATTRIB_UVCOORDS, rows: seq(8, 2, 0.5)},
			{kind: ATTRIB_POSITIONS, rows: seq(8, 3, 1000)},
		},
		[]testSubMesh{
			{verts: 5, material: 1, indices: []uint32{0, 1, 2, 2, 3, 4}},
			{verts: 3, material: 0, indices: []uint32{5, 6, 7}},
		}))
	return b.Bytes()
}

func TestAssembleSplitsRows(t *testing.T) {
	a := decodeTest(t, twoSubMeshModel())
	require.Empty(t, a.Diagnostics)

	meshes, err := a.AssembleMeshes()
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	am := meshes[0]
	require.Len(t, am.SubMeshes, 2)

	first, second := am.SubMeshes[0], am.SubMeshes[1]
	assert.Len(t, first.Positions, 5)
	assert.Len(t, first.UVs, 5)
	assert.Len(t, second.Positions, 3)
	assert.Len(t, second.UVs, 3)
	assert.Equal(t, uint32(0), first.VertexOffset)
	assert.Equal(t, uint32(5), second.VertexOffset)

	// first positions layer wins, X negated
	assert.Equal(t, mgl32.Vec3{-1, 2, 3}, first.Positions[0])
	assert.Equal(t, mgl32.Vec3{-51, 52, 53}, second.Positions[0])
	// uv rows untouched
	assert.Equal(t, mgl32.Vec2{0.5, 1.5}, first.UVs[0])
	assert.Equal(t, mgl32.Vec2{70.5, 71.5}, second.UVs[2])

	assert.Equal(t, "skin.dds", first.TextureName)
	assert.Equal(t, "", second.TextureName)
	assert.Nil(t, first.Normals)
}

func TestAssembleKeepsEmptySubMesh(t *testing.T) {
	m := &Mesh{
		TotalVerts: 2,
		Layers: []VertexAttributeLayer{
			{TypeID: ATTRIB_POSITIONS, Data: make([]byte, 24)},
		},
		SubMeshes: []SubMesh{{NumVerts: 0}, {NumVerts: 2}},
	}
	am, err := Assemble(m, nil)
	require.NoError(t, err)
	require.Len(t, am.SubMeshes, 2)
	assert.Empty(t, am.SubMeshes[0].Positions)
	assert.Len(t, am.SubMeshes[1].Positions, 2)
}

func TestAssembleTruncatedBuffer(t *testing.T) {
	m := &Mesh{
		TotalVerts: 4,
		Layers: []VertexAttributeLayer{
			{TypeID: ATTRIB_NORMALS, Data: make([]byte, 4*12)},
		},
		SubMeshes: []SubMesh{{NumVerts: 3}, {NumVerts: 3}},
	}
	_, err := Assemble(m, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncatedAttributeBuffer))

	var te *TruncatedAttributeBufferError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ATTRIB_NORMALS, te.Attribute)
	assert.Equal(t, 1, te.SubMesh)
	assert.Equal(t, uint64(72), te.Need)
	assert.Equal(t, uint64(48), te.Have)
}

// brokenMeshModel has a mesh whose submesh needs more rows than its layer
// holds, followed by a good one.
func brokenMeshModel() []byte {
	b := newModel(0)
	b.chunk(CHUNK_MESH, 1, meshPayload(0, 1, 1,
		[]testLayer{{kind: ATTRIB_POSITIONS, rows: seq(1, 3, 0)}},
		[]testSubMesh{{verts: 2, indices: []uint32{0, 1, 1}}}))
	b.chunk(CHUNK_MESH, 1, meshPayload(1, 3, 3,
		[]testLayer{{kind: ATTRIB_POSITIONS, rows: seq(3, 3, 0)}},
		[]testSubMesh{{verts: 3, indices: []uint32{0, 1, 2}}}))
	return b.Bytes()
}

func TestAssembleMeshesJoinsErrors(t *testing.T) {
	a := decodeTest(t, brokenMeshModel())

	meshes, err := a.AssembleMeshes()
	assert.True(t, errors.Is(err, ErrTruncatedAttributeBuffer))
	require.Len(t, meshes, 1)
	assert.Equal(t, uint32(1), meshes[0].NodeIndex)
}

func TestMaterialNames(t *testing.T) {
	chunks := []*Chunk{
		{Record: &StandardMaterial{Name: "a.dds"}},
		{Record: &Node{Name: "bone"}},
		{Record: &FXMaterial{Bitmaps: []FXBitmapParam{
			{Name: "diffuse", ValueName: "b.dds"},
			{Name: "normal", ValueName: "b_n.dds"},
		}}},
		{Record: &StandardMaterial{Name: "c.dds"}},
	}
	names := MaterialNames(chunks)
	assert.Equal(t, []string{"a.dds", "b.dds", "b_n.dds", "c.dds"}, names)

	assert.Equal(t, "", textureName(names, 0))
	assert.Equal(t, "b.dds", textureName(names, 1))
	assert.Equal(t, "c.dds", textureName(names, 3))
	assert.Equal(t, "", textureName(names, 4))
	assert.Equal(t, "", textureName(nil, 1))
}

func TestLocalIndices(t *testing.T) {
	sm := &AssembledSubMesh{VertexOffset: 5, NumVerts: 3, Indices: []uint32{0, 1, 2}}
	idx, err := sm.LocalIndices()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, idx)

	sm.Indices = []uint32{5, 6, 7}
	_, err = sm.LocalIndices()
	assert.Error(t, err)

	sm.GlobalIndices = true
	idx, err = sm.LocalIndices()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, idx)

	sm.Indices = []uint32{5, 6, 9}
	_, err = sm.LocalIndices()
	assert.Error(t, err)
}

func TestAssembleIndexModeIsPerMesh(t *testing.T) {
	// the middle submesh holds global indices that also fit its own range
	m := &Mesh{
		TotalVerts: 10,
		Layers: []VertexAttributeLayer{
			{TypeID: ATTRIB_POSITIONS, Data: make([]byte, 10*12)},
		},
		SubMeshes: []SubMesh{
			{NumVerts: 2, Indices: []uint32{0, 1, 1}},
			{NumVerts: 5, Indices: []uint32{2, 3, 4}},
			{NumVerts: 3, Indices: []uint32{7, 8, 9}},
		},
	}
	am, err := Assemble(m, nil)
	require.NoError(t, err)
	require.Len(t, am.SubMeshes, 3)

	want := [][]uint32{{0, 1, 1}, {0, 1, 2}, {0, 1, 2}}
	for i, sm := range am.SubMeshes {
		assert.True(t, sm.GlobalIndices)
		idx, err := sm.LocalIndices()
		require.NoError(t, err)
		assert.Equal(t, want[i], idx, "submesh %d", i)
	}
}

func TestAssembleLocalIndicesStayLocal(t *testing.T) {
	m := &Mesh{
		TotalVerts: 6,
		Layers: []VertexAttributeLayer{
			{TypeID: ATTRIB_POSITIONS, Data: make([]byte, 6*12)},
		},
		SubMeshes: []SubMesh{
			{NumVerts: 3, Indices: []uint32{0, 1, 2}},
			{NumVerts: 3, Indices: []uint32{2, 1, 0}},
		},
	}
	am, err := Assemble(m, nil)
	require.NoError(t, err)
	assert.False(t, am.SubMeshes[1].GlobalIndices)
	idx, err := am.SubMeshes[1].LocalIndices()
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 1, 0}, idx)
}

func TestAssembleMirrorsOnlyDirections(t *testing.T) {
	layer := func(kind AttributeKind, write func(b *modelBuilder)) VertexAttributeLayer {
		b := &modelBuilder{}
		write(b)
		return VertexAttributeLayer{TypeID: kind, AttribSizeInBytes: uint32(kind.RowSize()), Data: b.Bytes()}
	}
	m := &Mesh{
		TotalVerts: 1,
		Layers: []VertexAttributeLayer{
			layer(ATTRIB_POSITIONS, func(b *modelBuilder) { b.f32s(1, 2, 3) }),
			layer(ATTRIB_NORMALS, func(b *modelBuilder) { b.f32s(0.5, 0.25, 1) }),
			layer(ATTRIB_TANGENTS, func(b *modelBuilder) { b.f32s(1, 2, 3, -1) }),
			layer(ATTRIB_BITANGENTS, func(b *modelBuilder) { b.f32s(4, 5, 6) }),
			layer(ATTRIB_UVCOORDS, func(b *modelBuilder) { b.f32s(0.25, 0.75) }),
			layer(ATTRIB_COLORS32, func(b *modelBuilder) { b.u32(0x11223344) }),
			layer(ATTRIB_COLORS128, func(b *modelBuilder) { b.f32s(0.1, 0.2, 0.3, 0.4) }),
			layer(ATTRIB_ORGVTXNUMBERS, func(b *modelBuilder) { b.u32(7) }),
		},
		SubMeshes: []SubMesh{{NumVerts: 1}},
	}
	am, err := Assemble(m, nil)
	require.NoError(t, err)
	sm := am.SubMeshes[0]

	assert.Equal(t, []mgl32.Vec3{{-1, 2, 3}}, sm.Positions)
	assert.Equal(t, []mgl32.Vec3{{-0.5, 0.25, 1}}, sm.Normals)
	assert.Equal(t, []mgl32.Vec3{{-4, 5, 6}}, sm.Bitangents)
	assert.Equal(t, []mgl32.Vec4{{1, 2, 3, -1}}, sm.Tangents)
	assert.Equal(t, []mgl32.Vec2{{0.25, 0.75}}, sm.UVs)
	assert.Equal(t, []uint32{0x11223344}, sm.Colors32)
	assert.Equal(t, []mgl32.Vec4{{0.1, 0.2, 0.3, 0.4}}, sm.Colors128)
	assert.Equal(t, []uint32{7}, sm.OrgVertices)
}
