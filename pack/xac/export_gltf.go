package xac

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/toslib/tos_browser/utils"
	"github.com/toslib/tos_browser/utils/gltfutils"
)

type GLTFSubMeshExported struct {
	Primitive  *gltf.Primitive
	MaterialId *uint32
}

type GLTFMeshExported struct {
	GLTFMeshIndex uint32
	SubMeshes     []*GLTFSubMeshExported
}

func vec3Array(v []mgl32.Vec3) [][3]float32 {
	out := make([][3]float32, len(v))
	for i := range v {
		out[i] = v[i]
	}
	return out
}

func vec4Array(v []mgl32.Vec4) [][4]float32 {
	out := make([][4]float32, len(v))
	for i := range v {
		out[i] = v[i]
	}
	return out
}

func unpackColors(v []uint32) [][4]uint8 {
	out := make([][4]uint8, len(v))
	for i, c := range v {
		out[i] = [4]uint8{uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)}
	}
	return out
}

// exportMaterial returns the material of a texture name, shared by every
// primitive in the document that uses the same texture.
func exportMaterial(gc *gltfutils.GLTFCacher, textureName string) uint32 {
	return gc.GetCachedOr("material:"+textureName, func() interface{} {
		doc := gc.Doc
		m := &gltf.Material{
			Name:        textureName,
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{1, 1, 1, 1},
			},
		}
		if textureName != "" {
			imageIndex := uint32(len(doc.Images))
			doc.Images = append(doc.Images, &gltf.Image{
				Name: textureName,
				URI:  textureName,
			})
			textureIndex := uint32(len(doc.Textures))
			doc.Textures = append(doc.Textures, &gltf.Texture{
				Name:   textureName,
				Source: gltf.Index(imageIndex),
			})
			m.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: textureIndex}
		} else {
			m.Name = "default"
		}
		doc.Materials = append(doc.Materials, m)
		return uint32(len(doc.Materials) - 1)
	}).(uint32)
}

func exportSubMeshGLTF(gc *gltfutils.GLTFCacher, sm *AssembledSubMesh) (*GLTFSubMeshExported, error) {
	doc := gc.Doc
	attributes := make(map[string]uint32)

	if len(sm.Positions) != 0 {
		attributes["POSITION"] = modeler.WritePosition(doc, vec3Array(sm.Positions))
	}
	if len(sm.Normals) != 0 {
		attributes["NORMAL"] = modeler.WriteNormal(doc, vec3Array(sm.Normals))
	}
	if len(sm.Tangents) != 0 {
		attributes["TANGENT"] = modeler.WriteTangent(doc, vec4Array(sm.Tangents))
	}
	if len(sm.UVs) != 0 {
		uvs := make([][2]float32, len(sm.UVs))
		for i, uv := range sm.UVs {
			uvs[i] = uv
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
	}
	if len(sm.Colors32) != 0 {
		attributes["COLOR_0"] = modeler.WriteColor(doc, unpackColors(sm.Colors32))
	} else if len(sm.Colors128) != 0 {
		attributes["COLOR_0"] = modeler.WriteColor(doc, vec4Array(sm.Colors128))
	}

	indices, err := sm.LocalIndices()
	if err != nil {
		return nil, err
	}
	// mirrored positions flip the winding
	reversed := make([]uint32, 0, len(indices))
	for i := 0; i+2 < len(indices); i += 3 {
		reversed = append(reversed, indices[i+2], indices[i+1], indices[i])
	}

	p := &gltf.Primitive{
		Attributes: attributes,
		Material:   gltf.Index(exportMaterial(gc, sm.TextureName)),
	}
	if len(reversed) != 0 {
		p.Indices = gltf.Index(modeler.WriteIndices(doc, reversed))
	}
	return &GLTFSubMeshExported{Primitive: p, MaterialId: p.Material}, nil
}

func (am *AssembledMesh) ExportGLTF(gc *gltfutils.GLTFCacher, name string) (*GLTFMeshExported, error) {
	doc := gc.Doc
	gme := &GLTFMeshExported{SubMeshes: make([]*GLTFSubMeshExported, 0, len(am.SubMeshes))}

	mesh := &gltf.Mesh{Name: name}
	for iSub, sm := range am.SubMeshes {
		gsme, err := exportSubMeshGLTF(gc, sm)
		if err != nil {
			return nil, errors.Wrapf(err, "[xac] gltf submesh %d", iSub)
		}
		mesh.Primitives = append(mesh.Primitives, gsme.Primitive)
		gme.SubMeshes = append(gme.SubMeshes, gsme)
	}

	gme.GLTFMeshIndex = uint32(len(doc.Meshes))
	doc.Meshes = append(doc.Meshes, mesh)
	return gme, nil
}

// exportSkeletonGLTF adds the node hierarchy and returns the gltf node index
// of every model node.
func exportSkeletonGLTF(doc *gltf.Document, nodes []*Node) []uint32 {
	base := uint32(len(doc.Nodes))
	indexes := make([]uint32, len(nodes))
	for i, n := range nodes {
		indexes[i] = base + uint32(i)
		q := utils.MirrorQuatX(n.LocalQuat).Normalize()
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        n.Name,
			Translation: utils.MirrorX(n.LocalPos),
			Rotation:    [4]float32{q.X(), q.Y(), q.Z(), q.W},
			Scale:       n.LocalScale,
		})
	}
	for i, n := range nodes {
		if n.IsRoot() || int(n.ParentIndex) >= len(nodes) || int(n.ParentIndex) == i {
			continue
		}
		parent := doc.Nodes[indexes[n.ParentIndex]]
		parent.Children = append(parent.Children, indexes[i])
	}
	return indexes
}

// ExportGLTF builds one document holding the skeleton and every mesh that
// assembles. Meshes that fail to assemble are logged and left out.
func (a *Actor) ExportGLTF() (*gltf.Document, error) {
	gc := gltfutils.NewCacher()
	doc := gc.Doc

	nodes := a.Nodes()
	exportSkeletonGLTF(doc, nodes)

	meshes, err := a.assembleLogged()
	if err != nil {
		return nil, err
	}

	for iMesh, am := range meshes {
		name := fmt.Sprintf("mesh%d", iMesh)
		if int(am.NodeIndex) < len(nodes) {
			name = nodes[am.NodeIndex].Name
		}
		gme, err := am.ExportGLTF(gc, name)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:     name,
			Mesh:     gltf.Index(gme.GLTFMeshIndex),
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
		})
	}

	return doc, nil
}
