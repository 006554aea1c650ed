package xac

import (
	"bytes"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toslib/tos_browser/utils"
	"github.com/toslib/tos_browser/utils/fbxbuilder"
	"github.com/toslib/tos_browser/utils/gltfutils"
)

func triangleMesh() *AssembledMesh {
	return &AssembledMesh{
		SubMeshes: []*AssembledSubMesh{
			{
				TextureName: "skin.dds",
				NumVerts:    3,
				Positions:   []mgl32.Vec3{{-1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
				Normals:     []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
				UVs:         []mgl32.Vec2{{0, 0}, {1, 0}, {0, 0.25}},
				Indices:     []uint32{0, 1, 2},
			},
			{
				VertexOffset:  3,
				NumVerts:      3,
				Positions:     []mgl32.Vec3{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
				Indices:       []uint32{3, 4, 5},
				GlobalIndices: true,
			},
		},
	}
}

func TestExportObj(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportObj(&buf, triangleMesh(), "model.mtl"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, "mtllib model.mtl", lines[0])
	assert.Equal(t, "o Submesh_0", lines[1])
	assert.Equal(t, "usemtl skin.dds", lines[2])
	assert.Equal(t, "v -1.000000 0.000000 0.000000", lines[3])
	assert.Contains(t, lines, "vn 0.000000 0.000000 1.000000")
	assert.Contains(t, lines, "vt 0.000000 0.750000")
	assert.Contains(t, lines, "f 3/3/3 2/2/2 1/1/1")

	// second submesh has no material, normals or uvs and continues vertex numbering
	assert.Contains(t, lines, "o Submesh_1")
	assert.Equal(t, "f 6 5 4", lines[len(lines)-1])
	assert.Equal(t, 1, strings.Count(buf.String(), "usemtl"))
}

func TestExportMtl(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportMtl(&buf, triangleMesh(), triangleMesh()))
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "newmtl skin.dds"))
	assert.Contains(t, out, "map_Kd skin.dds")
}

func TestExportGLTFDocument(t *testing.T) {
	a := decodeTest(t, twoSubMeshModel())
	doc, err := a.ExportGLTF()
	require.NoError(t, err)

	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Meshes[0].Primitives, 2)
	// one textured material and one default
	assert.Len(t, doc.Materials, 2)
	require.Len(t, doc.Images, 1)
	assert.Equal(t, "skin.dds", doc.Images[0].URI)

	p := doc.Meshes[0].Primitives[0]
	assert.Contains(t, p.Attributes, "POSITION")
	assert.Contains(t, p.Attributes, "TEXCOORD_0")
	assert.NotContains(t, p.Attributes, "NORMAL")
	require.NotNil(t, p.Indices)

	var buf bytes.Buffer
	require.NoError(t, gltfutils.ExportBinary(&buf, doc))
	assert.Equal(t, "glTF", buf.String()[:4])
}

func TestExportFbx(t *testing.T) {
	a := decodeTest(t, twoSubMeshModel())
	f, err := a.ExportFbxDefault()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	assert.NotZero(t, buf.Len())
}

func decodeLogged(t *testing.T, data []byte) (*Actor, *bytes.Buffer) {
	var logs bytes.Buffer
	a, err := Decode(data, utils.NewLogger(&logs))
	require.NoError(t, err)
	a.Name = "broken.xac"
	return a, &logs
}

func TestExportsLogSkippedMeshes(t *testing.T) {
	a, logs := decodeLogged(t, brokenMeshModel())
	doc, err := a.ExportGLTF()
	require.NoError(t, err)
	assert.Len(t, doc.Meshes, 1)
	assert.Contains(t, logs.String(), "broken.xac: 1 meshes skipped")
	assert.Contains(t, logs.String(), "positions buffer of submesh 0")

	a, logs = decodeLogged(t, brokenMeshModel())
	fe, err := a.ExportFbx(fbxbuilder.NewFBXBuilder(a.Name))
	require.NoError(t, err)
	assert.Len(t, fe.SubMeshes, 1)
	assert.Contains(t, logs.String(), "1 meshes skipped")

	a, logs = decodeLogged(t, brokenMeshModel())
	w := httptest.NewRecorder()
	require.NoError(t, a.HttpAction(w, httptest.NewRequest("GET", "/action/broken.xac/mtl", nil), "mtl"))
	assert.Contains(t, logs.String(), "1 meshes skipped")
}

func TestExportWithoutMeshesIsNotAnError(t *testing.T) {
	a, logs := decodeLogged(t, newModel(0).Bytes())
	doc, err := a.ExportGLTF()
	require.NoError(t, err)
	assert.Empty(t, doc.Meshes)
	assert.Empty(t, logs.String())
}

func fbxProperty(t *testing.T, model *fbx.Node, name string) []interface{} {
	props := model.GetNode("Properties70")
	require.NotNil(t, props)
	for _, p := range props.Nodes {
		if p.Properties[0] == name {
			return p.Properties[4:]
		}
	}
	t.Fatalf("no property %q", name)
	return nil
}

func TestExportFbxSkeleton(t *testing.T) {
	s := float32(math.Sqrt2 / 2)
	a := &Actor{Name: "skel.xac", Chunks: []*Chunk{
		{Record: &Node{
			Name:        "root",
			LocalQuat:   mgl32.Quat{W: s, V: mgl32.Vec3{s, 0, 0}},
			LocalPos:    mgl32.Vec3{1, 2, 3},
			LocalScale:  mgl32.Vec3{1, 1, 2},
			ParentIndex: NO_PARENT,
		}},
		{Record: &Node{Name: "arm", LocalQuat: mgl32.QuatIdent(), LocalScale: mgl32.Vec3{1, 1, 1}, ParentIndex: 0}},
		// a node that names itself as parent is treated as a root
		{Record: &Node{Name: "loop", LocalQuat: mgl32.QuatIdent(), ParentIndex: 2}},
	}}

	f := fbxbuilder.NewFBXBuilder(a.Name)
	fe, err := a.ExportFbx(f)
	require.NoError(t, err)
	require.Len(t, fe.Limbs, 3)
	require.Len(t, fe.RootLimbs, 2)
	assert.Equal(t, 0, fe.RootLimbs[0].Node)
	assert.Equal(t, 2, fe.RootLimbs[1].Node)

	root := fe.Limbs[0].FbxModel
	assert.Equal(t, "LimbNode", root.Properties[2])
	assert.Equal(t, []interface{}{-1.0, 2.0, 3.0}, fbxProperty(t, root, "Lcl Translation"))
	assert.Equal(t, []interface{}{1.0, 1.0, 2.0}, fbxProperty(t, root, "Lcl Scaling"))
	rot := fbxProperty(t, root, "Lcl Rotation")
	require.Len(t, rot, 3)
	assert.InDelta(t, 90, rot[0].(float64), 1e-3)
	assert.InDelta(t, 0, rot[1].(float64), 1e-3)
	assert.InDelta(t, 0, rot[2].(float64), 1e-3)

	order, counts := f.ObjectCounts()
	assert.Equal(t, []string{"Model", "NodeAttribute"}, order)
	assert.Equal(t, int32(3), counts["Model"])
	assert.Equal(t, int32(3), counts["NodeAttribute"])
}
