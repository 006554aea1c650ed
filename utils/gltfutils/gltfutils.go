package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// GLTFCacher carries one document under construction together with the
// objects already exported into it, keyed by resource name.
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[string]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   gltf.NewDocument(),
		cache: make(map[string]interface{}),
	}
}

func (gc *GLTFCacher) AddCache(key string, v interface{}) {
	gc.cache[key] = v
}

func (gc *GLTFCacher) GetCached(key string) interface{} {
	return gc.cache[key]
}

func (gc *GLTFCacher) GetCachedOr(key string, create func() interface{}) interface{} {
	if v, ok := gc.cache[key]; ok {
		return v
	}
	v := create()
	gc.cache[key] = v
	return v
}

// rootNodes lists nodes that are nobody's child.
func rootNodes(doc *gltf.Document) []uint32 {
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(isChild) {
				isChild[c] = true
			}
		}
	}
	roots := make([]uint32, 0)
	for i, child := range isChild {
		if !child {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// ExportBinary puts the root nodes into the default scene and writes
// the document as glb.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
		doc.Scene = gltf.Index(0)
	}
	doc.Scenes[0].Nodes = rootNodes(doc)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
