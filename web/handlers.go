package web

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/drivers/ipf"
	"github.com/toslib/tos_browser/pack"
	"github.com/toslib/tos_browser/status"
	"github.com/toslib/tos_browser/vfs"
	"github.com/toslib/tos_browser/webutils"
)

// Marshaler is implemented by loaded resources that have a browser summary.
type Marshaler interface {
	Marshal() (interface{}, error)
}

// HttpActioner is implemented by loaded resources with export actions.
type HttpActioner interface {
	HttpAction(w http.ResponseWriter, r *http.Request, action string) error
}

type AjaxEntry struct {
	Container        string
	Path             string
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Loadable         bool
}

type AjaxArchive struct {
	Name    string
	Footer  ipf.Footer
	Entries []AjaxEntry
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".ipf")
}

// openArchive opens a data directory file as an archive. The returned file
// must be closed by the caller once the archive is no longer used.
func openArchive(file string) (*ipf.Driver, vfs.File, error) {
	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		return nil, nil, err
	}
	if err := f.Open(); err != nil {
		return nil, nil, err
	}
	d, err := ipf.NewDriver(f)
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "[web] Open archive %q", file)
	}
	return d, f, nil
}

func marshalArchive(d *ipf.Driver) *AjaxArchive {
	a := d.Archive()
	aa := &AjaxArchive{
		Name:    d.Name(),
		Footer:  a.Footer(),
		Entries: make([]AjaxEntry, len(a.Entries())),
	}
	for i, e := range a.Entries() {
		aa.Entries[i] = AjaxEntry{
			Container:        e.Container(),
			Path:             e.Path(),
			CRC32:            e.CRC32,
			CompressedSize:   e.CompressedSize,
			UncompressedSize: e.UncompressedSize,
			Loadable:         pack.HaveHandler(e.Path()),
		}
	}
	return aa
}

func marshalInstance(w http.ResponseWriter, inst interface{}) {
	if m, ok := inst.(Marshaler); ok {
		if data, err := m.Marshal(); err != nil {
			webutils.WriteError(w, err)
		} else {
			webutils.WriteJson(w, data)
		}
	} else {
		webutils.WriteJson(w, inst)
	}
}

func HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	if files, err := ServerDirectory.List(); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	if isArchive(file) {
		d, f, err := openArchive(file)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		defer f.Close()
		webutils.WriteJson(w, marshalArchive(d))
		return
	}

	inst, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		log.Printf("[web] Error getting file from pack: %v", err)
		webutils.WriteError(w, err)
		return
	}
	marshalInstance(w, inst)
}

// loadArchiveEntry runs the registered loader over one archive entry.
func loadArchiveEntry(file, param string) (interface{}, error) {
	if !isArchive(file) {
		return nil, errors.Errorf("File %s not contain subdata", file)
	}
	d, f, err := openArchive(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return pack.GetInstanceHandler(d, param)
}

func HandlerAjaxPackFileParam(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]
	inst, err := loadArchiveEntry(file, param)
	if err != nil {
		log.Printf("[web] Error getting %q from %q: %v", param, file, err)
		webutils.WriteError(w, err)
		return
	}
	marshalInstance(w, inst)
}

func HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	reader, err := vfs.OpenFileAndGetReader(f)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()
	webutils.WriteFile(w, reader, file)
}

func HandlerDumpPackParamFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]
	if !isArchive(file) {
		webutils.WriteError(w, errors.Errorf("File %s not contain subdata", file))
		return
	}
	d, f, err := openArchive(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()

	data, err := d.Archive().ExtractByName(param)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(data), filepath.Base(strings.ReplaceAll(param, "\\", "/")))
}

func HandlerActionPackFileParam(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	param := mux.Vars(r)["param"]
	action := mux.Vars(r)["action"]

	inst, err := loadArchiveEntry(file, param)
	if err != nil {
		log.Printf("[web] Error getting %q from %q: %v", param, file, err)
		webutils.WriteError(w, err)
		return
	}
	callAction(w, r, inst, file+"/"+param, action)
}

func callAction(w http.ResponseWriter, r *http.Request, inst interface{}, name, action string) {
	a, ok := inst.(HttpActioner)
	if !ok {
		webutils.WriteError(w, errors.Errorf("%s has no actions", name))
		return
	}
	if err := a.HttpAction(w, r, action); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Handler error on %s action %q", name, action))
	}
}

func HandlerActionPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	action := mux.Vars(r)["action"]

	if isArchive(file) {
		archiveAction(w, r, file, action)
		return
	}

	inst, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	callAction(w, r, inst, file, action)
}

type pather interface {
	Path() string
}

func archiveAction(w http.ResponseWriter, r *http.Request, file, action string) {
	switch action {
	case "table":
		d, f, err := openArchive(file)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		defer f.Close()
		webutils.WriteJsonFile(w, marshalArchive(d), file)
	case "unpack":
		f, err := vfs.DirectoryGetFile(ServerDirectory, file)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		p, ok := f.(pather)
		if !ok {
			webutils.WriteError(w, errors.Errorf("%s is not an os file", file))
			return
		}
		outDir := filepath.Join(ServerConfig.OutDir, strings.TrimSuffix(file, filepath.Ext(file)))
		go unpackWithStatus(p.Path(), outDir, ServerConfig.Workers)
		webutils.WriteJson(w, map[string]string{"started": outDir})
	default:
		webutils.WriteError(w, errors.Errorf("Unknown archive action %q", action))
	}
}

func unpackWithStatus(archivePath, outDir string, workers int) {
	name := filepath.Base(archivePath)
	status.Info("Unpacking %s into %s", name, outDir)
	stats, err := ipf.Unpack(context.Background(), archivePath, outDir, workers,
		func(done, total int, e *ipf.Entry, err error) {
			if err != nil {
				status.Error("%s: %v", e.Path(), err)
				return
			}
			status.Progress(float32(done)/float32(total), "%s %d/%d", name, done, total)
		})
	if err != nil {
		log.Printf("[web] unpack %s: %v", name, err)
		status.Error("Unpacking %s failed: %v", name, err)
		return
	}
	status.Info("Unpacked %s: %d extracted, %d failed", name, stats.Extracted, stats.Failed)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func HandlerWebsocketStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade: %v", err)
		return
	}
	status.NewClient(conn)
}
