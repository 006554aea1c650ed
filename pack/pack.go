package pack

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/utils"
	"github.com/toslib/tos_browser/vfs"
)

type FileLoader func(src utils.ResourceSource, r *io.SectionReader) (interface{}, error)

var gHandlers map[string]FileLoader = make(map[string]FileLoader, 0)

func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

func HaveHandler(name string) bool {
	_, found := gHandlers[strings.ToUpper(filepath.Ext(name))]
	return found
}

func CallHandler(s utils.ResourceSource, r *io.SectionReader) (interface{}, error) {
	ext := strings.ToUpper(filepath.Ext(s.Name()))

	if h, found := gHandlers[ext]; found {
		return h(s, r)
	} else {
		return nil, errors.Errorf("[pack] Cannot find handler for '%s' extension", ext)
	}
}

type PackResSrc struct {
	pf vfs.File
}

func (s *PackResSrc) Name() string {
	return s.pf.Name()
}

func (s *PackResSrc) Size() int64 {
	return s.pf.Size()
}

// GetInstanceHandler opens fileName inside d and runs the loader registered
// for its extension.
func GetInstanceHandler(d vfs.Directory, fileName string) (interface{}, error) {
	f, err := vfs.DirectoryGetFile(d, fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get file '%s'", fileName)
	}

	r, err := vfs.OpenFileAndGetReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get instance of '%s'", fileName)
	}
	defer f.Close()

	inst, err := CallHandler(&PackResSrc{pf: f}, r)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Handler error")
	}

	return inst, nil
}
