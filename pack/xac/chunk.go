package xac

import (
	"encoding/binary"
	"fmt"
)

type ChunkID uint32

const (
	CHUNK_NODE ChunkID = iota
	CHUNK_MESH
	CHUNK_SKINNINGINFO
	CHUNK_STDMATERIAL
	CHUNK_STDMATERIALLAYER
	CHUNK_FXMATERIAL
	CHUNK_LIMIT
	CHUNK_INFO
	CHUNK_MESHLODLEVELS
	CHUNK_STDPROGMORPHTARGET
	CHUNK_NODEGROUPS
	CHUNK_NODES
	CHUNK_STDPMORPHTARGETS
	CHUNK_MATERIALINFO
	CHUNK_NODEMOTIONSOURCES
	CHUNK_ATTACHMENTNODES
)

var chunkNames = [...]string{
	CHUNK_NODE:               "Node",
	CHUNK_MESH:               "Mesh",
	CHUNK_SKINNINGINFO:       "SkinningInfo",
	CHUNK_STDMATERIAL:        "StdMaterial",
	CHUNK_STDMATERIALLAYER:   "StdMaterialLayer",
	CHUNK_FXMATERIAL:         "FXMaterial",
	CHUNK_LIMIT:              "Limit",
	CHUNK_INFO:               "Info",
	CHUNK_MESHLODLEVELS:      "MeshLodLevels",
	CHUNK_STDPROGMORPHTARGET: "StdProgMorphTarget",
	CHUNK_NODEGROUPS:         "NodeGroups",
	CHUNK_NODES:              "Nodes",
	CHUNK_STDPMORPHTARGETS:   "StdPMorphTargets",
	CHUNK_MATERIALINFO:       "MaterialInfo",
	CHUNK_NODEMOTIONSOURCES:  "NodeMotionSources",
	CHUNK_ATTACHMENTNODES:    "AttachmentNodes",
}

func (id ChunkID) String() string {
	if int(id) < len(chunkNames) {
		return chunkNames[id]
	}
	return fmt.Sprintf("Chunk(%d)", uint32(id))
}

const CHUNK_HEADER_SIZE = 12

type ChunkHeader struct {
	ID          ChunkID
	SizeInBytes uint32
	Version     uint32
}

func (h *ChunkHeader) FromBuf(b []byte) {
	h.ID = ChunkID(binary.LittleEndian.Uint32(b[0:]))
	h.SizeInBytes = binary.LittleEndian.Uint32(b[4:])
	h.Version = binary.LittleEndian.Uint32(b[8:])
}

// Record is one decoded chunk payload. The set of implementations is closed.
type Record interface {
	record()
}

func (*Info) record()              {}
func (*Node) record()              {}
func (*Nodes) record()             {}
func (*NodeGroup) record()         {}
func (*Mesh) record()              {}
func (*SkinningInfo) record()      {}
func (*StandardMaterial) record()  {}
func (*MaterialLayer) record()     {}
func (*FXMaterial) record()        {}
func (*MaterialInfo) record()      {}
func (*Limit) record()             {}
func (*MorphTarget) record()       {}
func (*MorphTargets) record()      {}
func (*MeshLodLevel) record()      {}
func (*NodeMotionSources) record() {}
func (*AttachmentNodes) record()   {}
func (*Unknown) record()           {}

// Unknown keeps the payload of a chunk we could not decode.
type Unknown struct {
	Data []byte `json:"-"`
}

type Chunk struct {
	ChunkHeader
	// payload start in the model stream
	Offset int64
	Record Record
}

func (c *Chunk) Kind() string {
	if _, unknown := c.Record.(*Unknown); unknown {
		return "Unknown"
	}
	return c.ID.String()
}
