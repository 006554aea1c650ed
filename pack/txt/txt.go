package txt

import (
	"io"

	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/pack"
	"github.com/toslib/tos_browser/utils"
)

// Txt is a text asset decoded with the configured name encoding.
type Txt struct {
	Name string
	Text string
}

// plain text assets shipped inside archives
var extensions = []string{".TXT", ".XML", ".LUA", ".CSV", ".JSON", ".FX"}

func Load(src utils.ResourceSource, r io.Reader) (*Txt, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "[txt] Read %s", src.Name())
	}
	return &Txt{Name: src.Name(), Text: utils.DecodeString(data)}, nil
}

func init() {
	for _, ext := range extensions {
		pack.SetHandler(ext, func(src utils.ResourceSource, r *io.SectionReader) (interface{}, error) {
			return Load(src, r)
		})
	}
}
