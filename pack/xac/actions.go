package xac

import (
	"bytes"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/utils"
	"github.com/toslib/tos_browser/utils/gltfutils"
	"github.com/toslib/tos_browser/webutils"
)

func (a *Actor) baseName() string {
	name := path.Base(strings.ReplaceAll(a.Name, "\\", "/"))
	return strings.TrimSuffix(name, path.Ext(name))
}

func (a *Actor) HttpAction(w http.ResponseWriter, r *http.Request, action string) error {
	base := a.baseName()

	switch action {
	case "obj":
		iMesh := 0
		if s := r.URL.Query().Get("mesh"); s != "" {
			var err error
			if iMesh, err = strconv.Atoi(s); err != nil {
				return errors.Wrapf(err, "mesh parameter")
			}
		}
		meshes, err := a.assembleLogged()
		if err != nil {
			return err
		}
		if iMesh < 0 || iMesh >= len(meshes) {
			return errors.Errorf("mesh %d out of range, have %d", iMesh, len(meshes))
		}
		var buf bytes.Buffer
		if err := ExportObj(&buf, meshes[iMesh], base+".mtl"); err != nil {
			return errors.Wrapf(err, "Error when exporting mesh as obj")
		}
		webutils.WriteFile(w, &buf, base+"_"+strconv.Itoa(iMesh)+".obj")
	case "mtl":
		meshes, err := a.assembleLogged()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := ExportMtl(&buf, meshes...); err != nil {
			return err
		}
		webutils.WriteFile(w, &buf, base+".mtl")
	case "gltf":
		doc, err := a.ExportGLTF()
		if err != nil {
			return errors.Wrapf(err, "Error when exporting actor as gltf")
		}
		var buf bytes.Buffer
		if err := gltfutils.ExportBinary(&buf, doc); err != nil {
			return errors.Wrapf(err, "Failed to encode gltf")
		}
		webutils.WriteFile(w, &buf, base+".glb")
	case "fbx":
		f, err := a.ExportFbxDefault()
		if err != nil {
			return errors.Wrapf(err, "Error when exporting actor as fbx")
		}
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return errors.Wrapf(err, "Failed to encode fbx")
		}
		webutils.WriteFile(w, &buf, base+".fbx")
	case "dump":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		webutils.WriteResult(w, []byte(utils.SDump(a.Header, a.Diagnostics, a.Chunks)))
	default:
		return errors.Errorf("Unknown action %q", action)
	}
	return nil
}
