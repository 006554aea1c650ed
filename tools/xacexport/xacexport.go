package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/config"
	"github.com/toslib/tos_browser/drivers/ipf"
	"github.com/toslib/tos_browser/pack/xac"
	"github.com/toslib/tos_browser/utils"
	"github.com/toslib/tos_browser/utils/gltfutils"
)

func loadData(xacPath, archive, name string) ([]byte, string, error) {
	if xacPath != "" {
		data, err := os.ReadFile(xacPath)
		return data, xacPath, err
	}
	af, err := ipf.OpenFile(archive)
	if err != nil {
		return nil, "", err
	}
	defer af.Close()
	data, err := af.ExtractByName(name)
	return data, name, err
}

func export(a *xac.Actor, format, out string) error {
	var buf bytes.Buffer
	switch format {
	case "obj":
		meshes, err := a.AssembleMeshes()
		if err != nil {
			log.Printf("Some meshes were not assembled: %v", err)
		}
		base := strings.TrimSuffix(out, filepath.Ext(out))
		mtl := base + ".mtl"
		for i, m := range meshes {
			buf.Reset()
			if err := xac.ExportObj(&buf, m, filepath.Base(mtl)); err != nil {
				return err
			}
			name := out
			if len(meshes) > 1 {
				name = base + "_" + strconv.Itoa(i) + ".obj"
			}
			if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
				return err
			}
		}
		buf.Reset()
		if err := xac.ExportMtl(&buf, meshes...); err != nil {
			return err
		}
		return os.WriteFile(mtl, buf.Bytes(), 0644)
	case "gltf", "glb":
		doc, err := a.ExportGLTF()
		if err != nil {
			return err
		}
		if err := gltfutils.ExportBinary(&buf, doc); err != nil {
			return err
		}
	case "fbx":
		f, err := a.ExportFbxDefault()
		if err != nil {
			return err
		}
		if err := f.Write(&buf); err != nil {
			return err
		}
	default:
		return errors.Errorf("Unknown format %q", format)
	}
	return os.WriteFile(out, buf.Bytes(), 0644)
}

func main() {
	var xacPath, archive, name, format, out, cfgPath string
	var dump bool
	flag.StringVar(&xacPath, "xac", "", "Model file on disk")
	flag.StringVar(&archive, "ipf", "", "Archive that contains the model")
	flag.StringVar(&name, "name", "", "Model path inside -ipf archive")
	flag.StringVar(&format, "format", "gltf", "obj, gltf or fbx")
	flag.StringVar(&out, "out", "", "Output file (default: model name with format extension)")
	flag.StringVar(&cfgPath, "config", "", "Yaml settings file")
	flag.BoolVar(&dump, "dump", false, "Print decoded chunks instead of exporting")
	flag.Parse()
	log.SetPrefix("[xacexport] ")

	if xacPath == "" && (archive == "" || name == "") {
		flag.PrintDefaults()
		return
	}

	c, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := c.Apply(); err != nil {
		log.Fatal(err)
	}

	data, src, err := loadData(xacPath, archive, name)
	if err != nil {
		log.Fatalf("Failed to load %q: %v", src, err)
	}

	a, err := xac.Decode(data, utils.NewLogger(os.Stderr))
	if a == nil || (err != nil && !dump) {
		log.Fatalf("Failed to decode %q: %v", src, err)
	}
	if err != nil {
		log.Printf("Chunk stream of %q broken off after %d chunks: %v", src, len(a.Chunks), err)
	}
	a.Name = src
	for _, d := range a.Diagnostics {
		log.Printf("warning: %v", d)
	}

	if dump {
		utils.FDump(os.Stdout, a.Header, a.Diagnostics, a.Chunks)
		return
	}

	if out == "" {
		base := filepath.Base(strings.ReplaceAll(src, "\\", "/"))
		ext := "." + format
		if format == "gltf" {
			ext = ".glb"
		}
		out = strings.TrimSuffix(base, filepath.Ext(base)) + ext
	}
	if err := export(a, format, out); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Printf("Written %s", out)
}
