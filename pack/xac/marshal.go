package xac

import (
	"github.com/toslib/tos_browser/utils"
)

// unknown payloads show this many leading bytes
const unknownPreviewSize = 32

type AjaxChunk struct {
	Offset  int64
	Kind    string
	Version uint32
	Size    uint32
	Record  Record `json:",omitempty"`
	Preview string `json:",omitempty"`
}

// AjaxMorphTarget sums up one morph target. MaxDisplacement is the longest
// decoded position delta over all of its meshes.
type AjaxMorphTarget struct {
	Name            string
	LOD             uint32
	NumDeltaMeshes  int
	NumVertices     uint32
	MaxDisplacement float32
}

type AjaxMesh struct {
	NodeIndex  uint32
	NodeName   string
	TotalVerts uint32
	Layers     []string
	SubMeshes  []AjaxSubMesh
}

type AjaxSubMesh struct {
	NumVerts    uint32
	NumIndices  uint32
	TextureName string
}

type Ajax struct {
	Name         string
	Header       Header
	Info         *Info
	Nodes        []string
	Materials    []string
	Meshes       []AjaxMesh
	MorphTargets []AjaxMorphTarget
	Chunks       []AjaxChunk
	Diagnostics  []string
	StreamError  string `json:",omitempty"`
}

func marshalMorphTarget(m *MorphTarget) AjaxMorphTarget {
	am := AjaxMorphTarget{
		Name:           m.Name,
		LOD:            m.LOD,
		NumDeltaMeshes: len(m.Deltas),
	}
	for i := range m.Deltas {
		d := &m.Deltas[i]
		am.NumVertices += uint32(len(d.DeltaPositions))
		for j := range d.DeltaPositions {
			if l := d.Position(j).Len(); l > am.MaxDisplacement {
				am.MaxDisplacement = l
			}
		}
	}
	return am
}

// Marshal builds the browser summary. Meshes are described from their
// records so a mesh that fails to assemble still shows up. Float fields that
// json can not carry come out as strings.
func (a *Actor) Marshal() (interface{}, error) {
	names := MaterialNames(a.Chunks)
	nodes := a.Nodes()

	aj := &Ajax{
		Name:        a.Name,
		Header:      a.Header,
		Info:        a.Info(),
		Nodes:       make([]string, len(nodes)),
		Materials:    names,
		Meshes:       make([]AjaxMesh, 0),
		MorphTargets: make([]AjaxMorphTarget, 0),
		Chunks:       make([]AjaxChunk, len(a.Chunks)),
		Diagnostics:  make([]string, len(a.Diagnostics)),
		StreamError:  a.StreamError,
	}
	for i, n := range nodes {
		aj.Nodes[i] = n.Name
	}
	for i, c := range a.Chunks {
		aj.Chunks[i] = AjaxChunk{
			Offset:  c.Offset,
			Kind:    c.Kind(),
			Version: c.Version,
			Size:    c.SizeInBytes,
		}
		switch r := c.Record.(type) {
		case *MorphTarget:
			aj.MorphTargets = append(aj.MorphTargets, marshalMorphTarget(r))
		case *MorphTargets:
			for _, m := range r.Targets {
				aj.MorphTargets = append(aj.MorphTargets, marshalMorphTarget(m))
			}
		case *Unknown:
			head := r.Data
			if len(head) > unknownPreviewSize {
				head = head[:unknownPreviewSize]
			}
			aj.Chunks[i].Preview = utils.DumpToOneLineString(head)
		case *Mesh, *SkinningInfo, *MeshLodLevel:
			// bulk data, see the dump action
		default:
			aj.Chunks[i].Record = c.Record
		}
	}
	for i, d := range a.Diagnostics {
		aj.Diagnostics[i] = d.String()
	}

	for _, m := range a.Meshes() {
		am := AjaxMesh{
			NodeIndex:  m.NodeIndex,
			TotalVerts: m.TotalVerts,
			Layers:     make([]string, len(m.Layers)),
			SubMeshes:  make([]AjaxSubMesh, len(m.SubMeshes)),
		}
		if int(m.NodeIndex) < len(nodes) {
			am.NodeName = nodes[m.NodeIndex].Name
		}
		for i, l := range m.Layers {
			am.Layers[i] = l.TypeID.String()
		}
		for i, sm := range m.SubMeshes {
			am.SubMeshes[i] = AjaxSubMesh{
				NumVerts:    sm.NumVerts,
				NumIndices:  sm.NumIndices,
				TextureName: textureName(names, sm.MaterialIndex),
			}
		}
		aj.Meshes = append(aj.Meshes, am)
	}

	return utils.JsonSafe(aj), nil
}
