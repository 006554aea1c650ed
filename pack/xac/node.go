package xac

import (
	"github.com/go-gl/mathgl/mgl32"
)

const NO_PARENT = 0xffffffff

type Node struct {
	LocalQuat        mgl32.Quat
	ScaleRot         mgl32.Quat
	LocalPos         mgl32.Vec3
	LocalScale       mgl32.Vec3
	Shear            mgl32.Vec3
	SkeletalLODs     uint32
	MotionLODs       uint32 // v4
	ParentIndex      uint32
	NumChildren      uint32     // v4
	Flags            uint8      // v2+
	OBB              mgl32.Mat4 // v3+
	ImportanceFactor float32    // v4
	Name             string
}

func (n *Node) IsRoot() bool { return n.ParentIndex == NO_PARENT }

func decodeNode(r *reader, version uint32) *Node {
	n := &Node{
		LocalQuat:  r.quat(),
		ScaleRot:   r.quat(),
		LocalPos:   r.vec3(),
		LocalScale: r.vec3(),
		Shear:      r.vec3(),
	}
	n.SkeletalLODs = r.u32()
	if version >= 4 {
		n.MotionLODs = r.u32()
	}
	n.ParentIndex = r.u32()
	if version >= 4 {
		n.NumChildren = r.u32()
	}
	if version >= 2 {
		n.Flags = r.u8()
	}
	if version >= 3 {
		n.OBB = r.mat4()
	}
	if version >= 4 {
		n.ImportanceFactor = r.f32()
	}
	if version >= 2 {
		r.skip(3)
	}
	n.Name = r.str()
	return n
}

// Nodes is the whole hierarchy in one chunk, every entry in the v4 layout.
type Nodes struct {
	NumNodes     uint32
	NumRootNodes uint32
	Nodes        []*Node
}

// smallest possible v4 node: 4 quats/vecs, 4 u32, flags, obb, f32, pad, name length
const minNode4Size = 16*2 + 12*3 + 4*4 + 1 + 64 + 4 + 3 + 4

func decodeNodes(r *reader) *Nodes {
	ns := &Nodes{
		NumNodes:     r.u32(),
		NumRootNodes: r.u32(),
	}
	if !r.fits(uint64(ns.NumNodes), minNode4Size) {
		return ns
	}
	ns.Nodes = make([]*Node, 0, ns.NumNodes)
	for i := uint32(0); i < ns.NumNodes && r.err == nil; i++ {
		ns.Nodes = append(ns.Nodes, decodeNode(r, 4))
	}
	return ns
}

type NodeGroup struct {
	NumNodes          uint16
	DisabledOnDefault uint8
	Name              string
	Nodes             []uint16
}

func decodeNodeGroup(r *reader) *NodeGroup {
	g := &NodeGroup{
		NumNodes:          r.u16(),
		DisabledOnDefault: r.u8(),
	}
	g.Name = r.str()
	g.Nodes = r.u16s(uint32(g.NumNodes))
	return g
}

type NodeMotionSources struct {
	NumNodes    uint32
	NodeIndices []uint16
}

func decodeNodeMotionSources(r *reader) *NodeMotionSources {
	m := &NodeMotionSources{NumNodes: r.u32()}
	m.NodeIndices = r.u16s(m.NumNodes)
	return m
}

type AttachmentNodes struct {
	NumNodes          uint32
	AttachmentIndices []uint16
}

func decodeAttachmentNodes(r *reader) *AttachmentNodes {
	a := &AttachmentNodes{NumNodes: r.u32()}
	a.AttachmentIndices = r.u16s(a.NumNodes)
	return a
}

// Limit constrains the transform of one node.
type Limit struct {
	TranslationMin mgl32.Vec3
	TranslationMax mgl32.Vec3
	RotationMin    mgl32.Vec3
	RotationMax    mgl32.Vec3
	ScaleMin       mgl32.Vec3
	ScaleMax       mgl32.Vec3
	LimitFlags     [9]uint8
	NodeNumber     uint32
}

func decodeLimit(r *reader) *Limit {
	l := &Limit{
		TranslationMin: r.vec3(),
		TranslationMax: r.vec3(),
		RotationMin:    r.vec3(),
		RotationMax:    r.vec3(),
		ScaleMin:       r.vec3(),
		ScaleMax:       r.vec3(),
	}
	for i := range l.LimitFlags {
		l.LimitFlags[i] = r.u8()
	}
	l.NodeNumber = r.u32()
	return l
}
