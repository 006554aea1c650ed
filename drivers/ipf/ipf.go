package ipf

import (
	"bytes"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/utils"
)

var (
	ErrBadMagic         = errors.New("ipf: bad magic")
	ErrDecompressFailed = errors.New("ipf: decompress failed")
	ErrNotFound         = errors.New("ipf: entry not found")
)

// cap for the preallocation hint, the declared size is not trusted
const maxSizeHint = 64 << 20

// Archive reads one ipf container. Like the underlying stream it must not be
// shared between goroutines; open one per worker instead.
type Archive struct {
	s       *utils.Stream
	footer  Footer
	entries []*Entry
	log     *utils.Logger
}

func (a *Archive) parseFooter() error {
	if _, err := a.s.Seek(-RAW_FOOTER_SIZE, io.SeekEnd); err != nil {
		return errors.Wrapf(err, "[ipf] Footer seek")
	}
	b, err := a.s.Bytes(RAW_FOOTER_SIZE)
	if err != nil {
		return errors.Wrapf(err, "[ipf] Footer read")
	}
	a.footer.FromBuf(b)
	if a.footer.Magic != MAGIC {
		return errors.Wrapf(ErrBadMagic, "got %#x", a.footer.Magic)
	}
	return nil
}

func (a *Archive) parseTable() error {
	if _, err := a.s.Seek(int64(a.footer.TableOffset), io.SeekStart); err != nil {
		return errors.Wrapf(err, "[ipf] Table seek")
	}

	a.entries = make([]*Entry, a.footer.FileCount)
	for i := range a.entries {
		b, err := a.s.Bytes(RAW_ENTRY_FIXED_SIZE)
		if err != nil {
			return errors.Wrapf(err, "[ipf] Entry %d read", i)
		}
		e := &Entry{}
		e.FromBuf(b)
		if e.ContainerName, err = a.s.Bytes(int(e.ContainerNameLength)); err != nil {
			return errors.Wrapf(err, "[ipf] Entry %d container name", i)
		}
		if e.PathName, err = a.s.Bytes(int(e.PathNameLength)); err != nil {
			return errors.Wrapf(err, "[ipf] Entry %d path name", i)
		}
		a.entries[i] = e
	}
	return nil
}

// Open validates the footer and decodes the entry table.
func Open(r io.ReadSeeker) (*Archive, error) {
	a := &Archive{s: utils.NewStream(r)}
	if err := a.parseFooter(); err != nil {
		return nil, err
	}
	if err := a.parseTable(); err != nil {
		return nil, err
	}
	return a, nil
}

// SetLogger sets where extraction diagnostics go.
func (a *Archive) SetLogger(l *utils.Logger) { a.log = l }

func (a *Archive) Footer() Footer    { return a.footer }
func (a *Archive) Entries() []*Entry { return a.entries }

// Find matches the full stored path first and the base name second.
func (a *Archive) Find(name string) (*Entry, error) {
	for _, e := range a.entries {
		if e.Path() == name {
			return e, nil
		}
	}
	for _, e := range a.entries {
		if path.Base(strings.ReplaceAll(e.Path(), "\\", "/")) == name {
			return e, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "%q", name)
}

// Extract decrypts and inflates one entry.
func (a *Archive) Extract(e *Entry) ([]byte, error) {
	if e.CompressedSize == 0 {
		return []byte{}, nil
	}

	if _, err := a.s.Seek(int64(e.DataOffset), io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "[ipf] Seek to data of %q", e.Path())
	}
	buf, err := a.s.Bytes(int(e.CompressedSize))
	if err != nil {
		return nil, errors.Wrapf(err, "[ipf] Read data of %q", e.Path())
	}

	decrypt(buf)

	zr := flate.NewReader(bytes.NewReader(buf))
	defer zr.Close()

	hint := int(e.UncompressedSize)
	if hint > maxSizeHint {
		hint = maxSizeHint
	}
	out := bytes.NewBuffer(make([]byte, 0, hint))
	if _, err := io.Copy(out, zr); err != nil {
		return nil, errors.Wrapf(ErrDecompressFailed, "%q: %v", e.Path(), err)
	}

	if out.Len() != int(e.UncompressedSize) {
		a.log.Printf("[ipf] %q inflated to %d bytes, table says %d", e.Path(), out.Len(), e.UncompressedSize)
	}

	return out.Bytes(), nil
}

func (a *Archive) ExtractByName(name string) ([]byte, error) {
	e, err := a.Find(name)
	if err != nil {
		return nil, err
	}
	return a.Extract(e)
}

// ArchiveFile is an Archive that owns its os.File.
type ArchiveFile struct {
	*Archive
	f *os.File
}

func OpenFile(name string) (*ArchiveFile, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	a, err := Open(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "%s", name)
	}
	return &ArchiveFile{Archive: a, f: f}, nil
}

func (af *ArchiveFile) Name() string { return af.f.Name() }

func (af *ArchiveFile) Close() error {
	return af.f.Close()
}
