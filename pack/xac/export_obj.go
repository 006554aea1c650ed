package xac

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type objWriter struct {
	w   io.Writer
	err error
}

func (ow *objWriter) line(format string, args ...interface{}) {
	if ow.err == nil {
		_, ow.err = fmt.Fprintf(ow.w, format+"\n", args...)
	}
}

// ExportObj writes one mesh as an obj stream, one object per submesh.
// Vertex rows are written as assembled (already mirrored on X) so faces are
// emitted in reverse winding. mtllib may be empty.
func ExportObj(_w io.Writer, am *AssembledMesh, mtllib string) error {
	w := &objWriter{w: _w}

	if mtllib != "" {
		w.line("mtllib %s", mtllib)
	}

	iV := uint32(1)
	iT := uint32(1)
	iN := uint32(1)

	for iSub, sm := range am.SubMeshes {
		w.line("o Submesh_%d", iSub)
		if sm.TextureName != "" {
			w.line("usemtl %s", sm.TextureName)
		}

		for _, p := range sm.Positions {
			w.line("v %f %f %f", p[0], p[1], p[2])
		}
		for _, n := range sm.Normals {
			w.line("vn %f %f %f", n[0], n[1], n[2])
		}
		for _, uv := range sm.UVs {
			w.line("vt %f %f", uv[0], 1.0-uv[1])
		}

		indices, err := sm.LocalIndices()
		if err != nil {
			return errors.Wrapf(err, "submesh %d", iSub)
		}

		haveUV := len(sm.UVs) != 0
		haveNorm := len(sm.Normals) != 0
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i+2], indices[i+1], indices[i]
			if haveNorm {
				if haveUV {
					w.line("f %d/%d/%d %d/%d/%d %d/%d/%d",
						iV+a, iT+a, iN+a,
						iV+b, iT+b, iN+b,
						iV+c, iT+c, iN+c)
				} else {
					w.line("f %d//%d %d//%d %d//%d",
						iV+a, iN+a,
						iV+b, iN+b,
						iV+c, iN+c)
				}
			} else {
				if haveUV {
					w.line("f %d/%d %d/%d %d/%d",
						iV+a, iT+a,
						iV+b, iT+b,
						iV+c, iT+c)
				} else {
					w.line("f %d %d %d", iV+a, iV+b, iV+c)
				}
			}
		}

		iV += uint32(len(sm.Positions))
		iT += uint32(len(sm.UVs))
		iN += uint32(len(sm.Normals))
	}

	return w.err
}

// ExportMtl writes one material per distinct texture used by the meshes.
func ExportMtl(_w io.Writer, meshes ...*AssembledMesh) error {
	w := &objWriter{w: _w}
	seen := make(map[string]struct{})
	for _, am := range meshes {
		for _, sm := range am.SubMeshes {
			if sm.TextureName == "" {
				continue
			}
			if _, ok := seen[sm.TextureName]; ok {
				continue
			}
			seen[sm.TextureName] = struct{}{}

			w.line("newmtl %s", sm.TextureName)
			w.line("Kd 1.0 1.0 1.0")
			w.line("map_Kd %s", sm.TextureName)
			w.line("")
		}
	}
	return w.err
}
