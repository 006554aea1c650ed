package xac

// Info describes the exporter and the actor. Fields absent from the
// decoded version stay zero.
type Info struct {
	RepositioningMask         uint32 // v1, v2
	RepositioningNodeIndex    uint32 // v1, v2
	NumLODs                   uint32 // v4
	TrajectoryNodeIndex       uint32 // v3, v4
	MotionExtractionNodeIndex uint32 // v3, v4
	MotionExtractionMask      uint32 // v3
	ExporterHighVersion       uint8
	ExporterLowVersion        uint8
	RetargetRootOffset        float32 // v2+
	SourceApp                 string
	OriginalFilename          string
	CompilationDate           string
	ActorName                 string
}

func decodeInfo(r *reader, version uint32) *Info {
	i := &Info{}
	switch version {
	case 1, 2:
		i.RepositioningMask = r.u32()
		i.RepositioningNodeIndex = r.u32()
	case 3:
		i.TrajectoryNodeIndex = r.u32()
		i.MotionExtractionNodeIndex = r.u32()
		i.MotionExtractionMask = r.u32()
	case 4:
		i.NumLODs = r.u32()
		i.TrajectoryNodeIndex = r.u32()
		i.MotionExtractionNodeIndex = r.u32()
	}
	i.ExporterHighVersion = r.u8()
	i.ExporterLowVersion = r.u8()
	if version >= 2 {
		i.RetargetRootOffset = r.f32()
	}
	r.skip(2)

	i.SourceApp = r.str()
	i.OriginalFilename = r.str()
	i.CompilationDate = r.str()
	i.ActorName = r.str()
	return i
}
