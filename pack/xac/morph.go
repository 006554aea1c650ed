package xac

import "github.com/go-gl/mathgl/mgl32"

// MorphMeshDeltas stores compressed per-vertex offsets for one mesh.
// Positions are u16 triplets scaled into [MinValue, MaxValue], normals and
// tangents are u8 triplets mapped to [-1, 1].
type MorphMeshDeltas struct {
	NodeIndex      uint32
	MinValue       float32
	MaxValue       float32
	NumVertices    uint32
	DeltaPositions [][3]uint16
	DeltaNormals   [][3]uint8
	DeltaTangents  [][3]uint8
	VertexNumbers  []uint32
}

// Position expands the i-th position delta.
func (d *MorphMeshDeltas) Position(i int) mgl32.Vec3 {
	var v mgl32.Vec3
	span := d.MaxValue - d.MinValue
	for j := range v {
		v[j] = d.MinValue + float32(d.DeltaPositions[i][j])/65535*span
	}
	return v
}

func decodeMorphMeshDeltas(r *reader) MorphMeshDeltas {
	d := MorphMeshDeltas{
		NodeIndex:   r.u32(),
		MinValue:    r.f32(),
		MaxValue:    r.f32(),
		NumVertices: r.u32(),
	}
	// 6 + 3 + 3 + 4 bytes per vertex
	if !r.fits(uint64(d.NumVertices), 16) {
		return d
	}
	d.DeltaPositions = make([][3]uint16, d.NumVertices)
	for i := range d.DeltaPositions {
		d.DeltaPositions[i] = [3]uint16{r.u16(), r.u16(), r.u16()}
	}
	d.DeltaNormals = make([][3]uint8, d.NumVertices)
	for i := range d.DeltaNormals {
		d.DeltaNormals[i] = [3]uint8{r.u8(), r.u8(), r.u8()}
	}
	d.DeltaTangents = make([][3]uint8, d.NumVertices)
	for i := range d.DeltaTangents {
		d.DeltaTangents[i] = [3]uint8{r.u8(), r.u8(), r.u8()}
	}
	d.VertexNumbers = r.u32s(d.NumVertices)
	return d
}

type MorphTransform struct {
	NodeIndex     uint32
	Rotation      mgl32.Quat
	ScaleRotation mgl32.Quat
	Position      mgl32.Vec3
	Scale         mgl32.Vec3
}

func decodeMorphTransform(r *reader) MorphTransform {
	return MorphTransform{
		NodeIndex:     r.u32(),
		Rotation:      r.quat(),
		ScaleRotation: r.quat(),
		Position:      r.vec3(),
		Scale:         r.vec3(),
	}
}

type MorphTarget struct {
	RangeMin            float32
	RangeMax            float32
	LOD                 uint32
	NumMeshDeformDeltas uint32
	NumTransformations  uint32
	PhonemeSets         uint32
	Name                string
	Deltas              []MorphMeshDeltas
	Transforms          []MorphTransform
}

func decodeMorphTarget(r *reader) *MorphTarget {
	m := &MorphTarget{
		RangeMin:            r.f32(),
		RangeMax:            r.f32(),
		LOD:                 r.u32(),
		NumMeshDeformDeltas: r.u32(),
		NumTransformations:  r.u32(),
		PhonemeSets:         r.u32(),
	}
	m.Name = r.str()
	if r.fits(uint64(m.NumMeshDeformDeltas), 16) {
		m.Deltas = make([]MorphMeshDeltas, 0, m.NumMeshDeformDeltas)
		for i := uint32(0); i < m.NumMeshDeformDeltas && r.err == nil; i++ {
			m.Deltas = append(m.Deltas, decodeMorphMeshDeltas(r))
		}
	}
	if r.fits(uint64(m.NumTransformations), 4+16+16+12+12) {
		m.Transforms = make([]MorphTransform, m.NumTransformations)
		for i := range m.Transforms {
			m.Transforms[i] = decodeMorphTransform(r)
		}
	}
	return m
}

// MorphTargets groups every morph target of one LOD.
type MorphTargets struct {
	NumMorphTargets uint32
	LOD             uint32
	Targets         []*MorphTarget
}

// fixed part of a morph target including the name length
const minMorphTargetSize = 4 * 7

func decodeMorphTargets(r *reader) *MorphTargets {
	m := &MorphTargets{
		NumMorphTargets: r.u32(),
		LOD:             r.u32(),
	}
	if !r.fits(uint64(m.NumMorphTargets), minMorphTargetSize) {
		return m
	}
	m.Targets = make([]*MorphTarget, 0, m.NumMorphTargets)
	for i := uint32(0); i < m.NumMorphTargets && r.err == nil; i++ {
		m.Targets = append(m.Targets, decodeMorphTarget(r))
	}
	return m
}
