package xac

import (
	"fmt"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/utils"
	"github.com/toslib/tos_browser/utils/fbxbuilder"
)

type FbxExportSubMesh struct {
	FbxGeometryId int64
	FbxGeometry   *fbx.Node
	FbxModelId    int64
	FbxModel      *fbx.Node
	MaterialId    int64

	Mesh    int
	SubMesh int
}

// FbxExportLimb is the skeleton model of one actor node.
type FbxExportLimb struct {
	Node       int
	FbxModelId int64
	FbxModel   *fbx.Node
}

type FbxExporter struct {
	SubMeshes []*FbxExportSubMesh
	Limbs     []*FbxExportLimb
	// limbs without a parent inside the actor
	RootLimbs []*FbxExportLimb
}

func exportFbxLimb(f *fbxbuilder.FBXBuilder, iNode int, n *Node) *FbxExportLimb {
	fl := &FbxExportLimb{Node: iNode, FbxModelId: f.GenerateId()}

	pos := utils.MirrorX(n.LocalPos)
	rot := utils.RadiansToDegreeV3(utils.QuatToEuler(utils.MirrorQuatX(n.LocalQuat).Normalize()))
	scale := n.LocalScale

	fl.FbxModel = bfbx73.Model(fl.FbxModelId, n.Name+"\x00\x01Model", "LimbNode").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
				float64(pos[0]), float64(pos[1]), float64(pos[2])),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
				float64(rot[0]), float64(rot[1]), float64(rot[2])),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A",
				float64(scale[0]), float64(scale[1]), float64(scale[2])),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	attrId := f.GenerateId()
	attr := bfbx73.NodeAttribute(attrId, n.Name+"\x00\x01NodeAttribute", "LimbNode").AddNodes(
		bfbx73.TypeFlags("Skeleton"),
	)

	f.AddObjects(fl.FbxModel, attr)
	f.AddConnections(bfbx73.C("OO", attrId, fl.FbxModelId))
	return fl
}

// exportSkeleton adds one limb per node and links every limb to its parent.
func (fe *FbxExporter) exportSkeleton(f *fbxbuilder.FBXBuilder, nodes []*Node) {
	fe.Limbs = make([]*FbxExportLimb, len(nodes))
	for i, n := range nodes {
		fe.Limbs[i] = exportFbxLimb(f, i, n)
	}
	for i, n := range nodes {
		if n.IsRoot() || int(n.ParentIndex) >= len(nodes) || int(n.ParentIndex) == i {
			fe.RootLimbs = append(fe.RootLimbs, fe.Limbs[i])
			continue
		}
		f.AddConnections(bfbx73.C("OO", fe.Limbs[i].FbxModelId, fe.Limbs[n.ParentIndex].FbxModelId))
	}
}

// exportFbxMaterial returns the id of the material named after a texture,
// creating it on first use.
func exportFbxMaterial(f *fbxbuilder.FBXBuilder, textureName string) int64 {
	key := "material:" + textureName
	if id := f.GetCached(key); id != nil {
		return id.(int64)
	}

	name := textureName
	if name == "" {
		name = "default"
	}
	id := f.GenerateId()
	f.AddObjects(bfbx73.Material(id, name+"\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("lambert"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Emissive", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Ambient", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(1), float64(1), float64(1)),
			bfbx73.P("Opacity", "double", "Number", "", float64(1)),
		),
	))
	f.AddCache(key, id)
	return id
}

func (fe *FbxExporter) exportSubMesh(f *fbxbuilder.FBXBuilder, sm *AssembledSubMesh, fes *FbxExportSubMesh) error {
	indices, err := sm.LocalIndices()
	if err != nil {
		return err
	}

	vertices := make([]float64, 0, len(sm.Positions)*3)
	for _, p := range sm.Positions {
		vertices = append(vertices, float64(p[0]), float64(p[1]), float64(p[2]))
	}

	// last corner of a polygon is stored as -(index)-1
	polygons := make([]int32, 0, len(indices))
	uvindexes := make([]int32, 0, len(indices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := int32(indices[i+2]), int32(indices[i+1]), int32(indices[i])
		polygons = append(polygons, a, b, -c-1)
		uvindexes = append(uvindexes, a, b, c)
	}

	name := fmt.Sprintf("m%d_s%d", fes.Mesh, fes.SubMesh)

	fes.FbxGeometryId = f.GenerateId()
	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)
	geometry := bfbx73.Geometry(fes.FbxGeometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(polygons),
		geometryLayer,
	)

	if len(sm.Normals) != 0 {
		normals := make([]float64, 0, len(sm.Normals)*3)
		for _, n := range sm.Normals {
			normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
		}
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if len(sm.Colors32) != 0 {
		rgba := make([]float64, 0, len(sm.Colors32)*4)
		for _, c := range unpackColors(sm.Colors32) {
			rgba = append(rgba,
				float64(c[0])/255.0, float64(c[1])/255.0, float64(c[2])/255.0, float64(c[3])/255.0)
		}
		geometry.AddNode(
			bfbx73.LayerElementColor(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Colors(rgba),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementColor"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if len(sm.UVs) != 0 {
		uv := make([]float64, 0, len(sm.UVs)*2)
		for _, t := range sm.UVs {
			uv = append(uv, float64(t[0]), float64(1.0-t[1]))
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	geometry.AddNode(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	fes.FbxGeometry = geometry
	fes.FbxModelId = f.GenerateId()
	fes.FbxModel = bfbx73.Model(fes.FbxModelId, name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	fes.MaterialId = exportFbxMaterial(f, sm.TextureName)

	f.AddObjects(fes.FbxModel, geometry)
	f.AddConnections(
		bfbx73.C("OO", fes.FbxGeometryId, fes.FbxModelId),
		bfbx73.C("OO", fes.MaterialId, fes.FbxModelId),
	)

	fe.SubMeshes = append(fe.SubMeshes, fes)
	return nil
}

func (fe *FbxExporter) exportMesh(f *fbxbuilder.FBXBuilder, iMesh int, am *AssembledMesh) error {
	for iSub, sm := range am.SubMeshes {
		if err := fe.exportSubMesh(f, sm, &FbxExportSubMesh{Mesh: iMesh, SubMesh: iSub}); err != nil {
			return errors.Wrapf(err, "[xac] fbx mesh %d submesh %d", iMesh, iSub)
		}
	}
	return nil
}

// ExportFbx adds the skeleton and every assembled mesh of the actor to f.
// Meshes that fail to assemble are logged and left out.
func (a *Actor) ExportFbx(f *fbxbuilder.FBXBuilder) (*FbxExporter, error) {
	fe := &FbxExporter{SubMeshes: make([]*FbxExportSubMesh, 0)}
	defer f.AddCache(a.Name, fe)

	fe.exportSkeleton(f, a.Nodes())

	meshes, err := a.assembleLogged()
	if err != nil {
		return nil, err
	}
	for iMesh, am := range meshes {
		if err := fe.exportMesh(f, iMesh, am); err != nil {
			return nil, err
		}
	}
	return fe, nil
}

// ExportFbxDefault builds a standalone document with the root limbs and
// every submesh model attached to the scene root.
func (a *Actor) ExportFbxDefault() (*fbxbuilder.FBXBuilder, error) {
	f := fbxbuilder.NewFBXBuilder(a.Name)
	fe, err := a.ExportFbx(f)
	if err != nil {
		return nil, err
	}
	for _, l := range fe.RootLimbs {
		f.AddConnections(bfbx73.C("OO", l.FbxModelId, 0))
	}
	for _, sm := range fe.SubMeshes {
		f.AddConnections(bfbx73.C("OO", sm.FbxModelId, 0))
	}
	return f, nil
}
