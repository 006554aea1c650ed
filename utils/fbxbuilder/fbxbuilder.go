package fbxbuilder

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	FBX_VERSION      = 7400
	FBX_CREATOR      = "tos_browser fbx export"
	FBX_VENDOR       = "toslib"
	FBX_APPLICATION  = "tos_browser"
	FBX_CREATION     = "1970-01-01 10:00:00:000"
	FBX_DATETIME_GMT = "01/01/1970 00:00:00.000"
)

var FBX_FILE_ID = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// templates holds the property template of every object type an actor
// export emits. Types without an entry get a bare count.
var templates = map[string]func() *fbx.Node{
	"Model": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxNode").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("InheritType", "enum", "", "", int32(1)),
				bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
				bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
				bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
				bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
			),
		)
	},
	"Geometry": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxMesh").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
				bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
				bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
			),
		)
	},
	"Material": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxSurfaceLambert").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("ShadingModel", "KString", "", "", "Lambert"),
				bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
				bfbx73.P("DiffuseFactor", "Number", "", "A", float64(1)),
			),
		)
	},
	"NodeAttribute": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxSkeleton").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("Size", "double", "Number", "", float64(100)),
				bfbx73.P("LimbLength", "double", "Number", "H", float64(1)),
			),
		)
	},
}

// FBXBuilder collects the objects and connections of one exported actor and
// writes them as a binary 7.4 document.
type FBXBuilder struct {
	name   string
	c      map[string]interface{}
	lastId int64

	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(name string) *FBXBuilder {
	return &FBXBuilder{
		name:        name,
		c:           make(map[string]interface{}),
		lastId:      1000000,
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
}

func (f *FBXBuilder) AddCache(key string, d interface{}) {
	f.c[key] = d
}

func (f *FBXBuilder) GetCached(key string) interface{} {
	return f.c[key]
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }

// ObjectCounts counts the added objects per node name, with the names in
// first use order.
func (f *FBXBuilder) ObjectCounts() ([]string, map[string]int32) {
	var order []string
	counts := make(map[string]int32)
	for _, o := range f.objects.Nodes {
		if _, ok := counts[o.Name]; !ok {
			order = append(order, o.Name)
		}
		counts[o.Name]++
	}
	return order, counts
}

// definitions lists one ObjectType per kind of added object plus the
// global settings, which every document carries.
func (f *FBXBuilder) definitions() *fbx.Node {
	order, counts := f.ObjectCounts()

	total := int32(1)
	types := make([]*fbx.Node, 0, len(order)+1)
	types = append(types, bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)))
	for _, name := range order {
		total += counts[name]
		count := bfbx73.Count(0)
		count.Properties[0] = counts[name]
		ot := bfbx73.ObjectType(name).AddNodes(count)
		if t, ok := templates[name]; ok {
			ot.AddNodes(t())
		}
		types = append(types, ot)
	}

	count := bfbx73.Count(0)
	count.Properties[0] = total
	return bfbx73.Definitions().AddNodes(bfbx73.Version(100), count).AddNodes(types...)
}

func (f *FBXBuilder) document() *fbx.FBX {
	doc := fbx.NewFBX(FBX_VERSION)
	doc.Root.AddNodes(
		bfbx73.FBXHeaderExtension().AddNodes(
			bfbx73.FBXHeaderVersion(1003),
			bfbx73.FBXVersion(FBX_VERSION),
			bfbx73.EncryptionType(0),
			// fixed stamp keeps exports byte-reproducible
			bfbx73.CreationTimeStamp().AddNodes(
				bfbx73.Version(1000),
				bfbx73.Year(1970),
				bfbx73.Month(1),
				bfbx73.Day(1),
				bfbx73.Hour(10),
				bfbx73.Minute(0),
				bfbx73.Second(0),
				bfbx73.Millisecond(0),
			),
			bfbx73.Creator(FBX_CREATOR),
			bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
				bfbx73.Type("UserData"),
				bfbx73.Version(100),
				bfbx73.Properties70().AddNodes(
					bfbx73.P("DocumentUrl", "KString", "Url", "", f.name),
					bfbx73.P("Original|ApplicationVendor", "KString", "", "", FBX_VENDOR),
					bfbx73.P("Original|ApplicationName", "KString", "", "", FBX_APPLICATION),
					bfbx73.P("Original|DateTime_GMT", "DateTime", "", "", FBX_DATETIME_GMT),
					bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(f.name)),
				),
			),
		),
		bfbx73.FileId(FBX_FILE_ID),
		bfbx73.CreationTime(FBX_CREATION),
		bfbx73.Creator(FBX_CREATOR),
		// Y up, right handed, as the assembled geometry after the X mirror
		bfbx73.GlobalSettings().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("UpAxis", "int", "Integer", "", int32(1)),
				bfbx73.P("UpAxisSign", "int", "Integer", "", int32(1)),
				bfbx73.P("FrontAxis", "int", "Integer", "", int32(2)),
				bfbx73.P("FrontAxisSign", "int", "Integer", "", int32(1)),
				bfbx73.P("CoordAxis", "int", "Integer", "", int32(0)),
				bfbx73.P("CoordAxisSign", "int", "Integer", "", int32(1)),
				bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
			),
		),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		f.definitions(),
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(
			bfbx73.Current(""),
		),
	)
	return doc
}

// Write serializes through a temporary file because fbx.Write needs a
// seekable destination.
func (f *FBXBuilder) Write(w io.Writer) error {
	tempFile, err := os.CreateTemp("", "fbxexport.*.fbx")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, f.document()); err != nil {
		return errors.Wrapf(err, "[fbx] Write")
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "[fbx] Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}
