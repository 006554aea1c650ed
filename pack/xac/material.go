package xac

import "github.com/go-gl/mathgl/mgl32"

type MaterialLayer struct {
	Amount         float32
	UOffset        float32
	VOffset        float32
	UTiling        float32
	VTiling        float32
	RotationRadian float32
	MaterialNumber uint16
	MapType        uint8
	BlendMode      uint8 // v2
	TextureName    string
}

func decodeMaterialLayer(r *reader, version uint32) *MaterialLayer {
	l := &MaterialLayer{
		Amount:         r.f32(),
		UOffset:        r.f32(),
		VOffset:        r.f32(),
		UTiling:        r.f32(),
		VTiling:        r.f32(),
		RotationRadian: r.f32(),
		MaterialNumber: r.u16(),
		MapType:        r.u8(),
	}
	if version >= 2 {
		l.BlendMode = r.u8()
	} else {
		r.skip(1)
	}
	l.TextureName = r.str()
	return l
}

type StandardMaterial struct {
	LOD              uint32 // v3
	Ambient          mgl32.Vec4
	Diffuse          mgl32.Vec4
	Specular         mgl32.Vec4
	Emissive         mgl32.Vec4
	Shine            float32
	ShineStrength    float32
	Opacity          float32
	IOR              float32
	DoubleSided      uint8
	Wireframe        uint8
	TransparencyType uint8
	NumLayers        uint8 // v2+
	Name             string
	Layers           []*MaterialLayer // v2+
}

// layer fixed part: 6 f32, u16, 2 u8, name length
const minLayerSize = 6*4 + 2 + 2 + 4

func decodeStandardMaterial(r *reader, version uint32) *StandardMaterial {
	m := &StandardMaterial{}
	if version >= 3 {
		m.LOD = r.u32()
	}
	m.Ambient = r.color()
	m.Diffuse = r.color()
	m.Specular = r.color()
	m.Emissive = r.color()
	m.Shine = r.f32()
	m.ShineStrength = r.f32()
	m.Opacity = r.f32()
	m.IOR = r.f32()
	m.DoubleSided = r.u8()
	m.Wireframe = r.u8()
	m.TransparencyType = r.u8()
	if version >= 2 {
		m.NumLayers = r.u8()
	} else {
		r.skip(1)
	}
	m.Name = r.str()

	if version >= 2 && r.fits(uint64(m.NumLayers), minLayerSize) {
		m.Layers = make([]*MaterialLayer, 0, m.NumLayers)
		for i := uint8(0); i < m.NumLayers && r.err == nil; i++ {
			m.Layers = append(m.Layers, decodeMaterialLayer(r, 2))
		}
	}
	return m
}

type FXIntParam struct {
	Value int32
	Name  string
}

type FXFloatParam struct {
	Value float32
	Name  string
}

type FXColorParam struct {
	Value mgl32.Vec4
	Name  string
}

type FXBoolParam struct {
	Value uint8
	Name  string
}

type FXVector3Param struct {
	Value mgl32.Vec3
	Name  string
}

// FXBitmapParam names a texture slot and the texture bound to it.
type FXBitmapParam struct {
	Name      string
	ValueName string
}

type FXMaterial struct {
	LOD          uint32 // v3
	NumIntParams uint32
	NumFloats    uint32
	NumColors    uint32
	NumBools     uint32 // v2+
	NumVector3s  uint32 // v2+
	NumBitmaps   uint32
	Name         string
	EffectFile   string
	ShaderTech   string
	Ints         []FXIntParam
	Floats       []FXFloatParam
	Colors       []FXColorParam
	Bools        []FXBoolParam    // v2+
	Vector3s     []FXVector3Param // v2+
	Bitmaps      []FXBitmapParam
}

func decodeFXMaterial(r *reader, version uint32) *FXMaterial {
	m := &FXMaterial{}
	if version >= 3 {
		m.LOD = r.u32()
	}
	m.NumIntParams = r.u32()
	m.NumFloats = r.u32()
	m.NumColors = r.u32()
	if version >= 2 {
		m.NumBools = r.u32()
		m.NumVector3s = r.u32()
	}
	m.NumBitmaps = r.u32()
	m.Name = r.str()
	m.EffectFile = r.str()
	m.ShaderTech = r.str()

	// every param carries at least a value and a 4 byte name length
	if r.fits(uint64(m.NumIntParams), 8) {
		m.Ints = make([]FXIntParam, m.NumIntParams)
		for i := range m.Ints {
			m.Ints[i] = FXIntParam{Value: r.i32(), Name: r.str()}
		}
	}
	if r.fits(uint64(m.NumFloats), 8) {
		m.Floats = make([]FXFloatParam, m.NumFloats)
		for i := range m.Floats {
			m.Floats[i] = FXFloatParam{Value: r.f32(), Name: r.str()}
		}
	}
	if r.fits(uint64(m.NumColors), 20) {
		m.Colors = make([]FXColorParam, m.NumColors)
		for i := range m.Colors {
			m.Colors[i] = FXColorParam{Value: r.color(), Name: r.str()}
		}
	}
	if r.fits(uint64(m.NumBools), 5) {
		m.Bools = make([]FXBoolParam, m.NumBools)
		for i := range m.Bools {
			m.Bools[i] = FXBoolParam{Value: r.u8(), Name: r.str()}
		}
	}
	if r.fits(uint64(m.NumVector3s), 16) {
		m.Vector3s = make([]FXVector3Param, m.NumVector3s)
		for i := range m.Vector3s {
			m.Vector3s[i] = FXVector3Param{Value: r.vec3(), Name: r.str()}
		}
	}
	if r.fits(uint64(m.NumBitmaps), 8) {
		m.Bitmaps = make([]FXBitmapParam, m.NumBitmaps)
		for i := range m.Bitmaps {
			m.Bitmaps[i] = FXBitmapParam{Name: r.str(), ValueName: r.str()}
		}
	}
	return m
}

// MaterialInfo announces how many materials of each kind follow.
type MaterialInfo struct {
	LOD                  uint32 // v2
	NumTotalMaterials    uint32
	NumStandardMaterials uint32
	NumFXMaterials       uint32
}

func decodeMaterialInfo(r *reader, version uint32) *MaterialInfo {
	m := &MaterialInfo{}
	if version >= 2 {
		m.LOD = r.u32()
	}
	m.NumTotalMaterials = r.u32()
	m.NumStandardMaterials = r.u32()
	m.NumFXMaterials = r.u32()
	return m
}
