package ipf

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/vfs"
)

// Driver shows an archive as a read-only vfs directory keyed by entry path.
type Driver struct {
	name string
	a    *Archive
}

func NewDriver(f vfs.File) (*Driver, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	a, err := Open(r)
	if err != nil {
		return nil, err
	}
	return &Driver{name: f.Name(), a: a}, nil
}

func (d *Driver) Archive() *Archive { return d.a }

// interface vfs.Element
func (d *Driver) Init(parent vfs.Directory) {}
func (d *Driver) Name() string              { return d.name }
func (d *Driver) IsDirectory() bool         { return true }

// interface vfs.Directory
func (d *Driver) List() ([]string, error) {
	names := make([]string, len(d.a.entries))
	for i, e := range d.a.entries {
		names[i] = e.Path()
	}
	return names, nil
}

func (d *Driver) GetElement(name string) (vfs.Element, error) {
	e, err := d.a.Find(name)
	if err != nil {
		return nil, err
	}
	return &File{d: d, e: e}, nil
}

type File struct {
	d   *Driver
	e   *Entry
	buf []byte
}

func (f *File) Entry() *Entry { return f.e }

// interface vfs.Element
func (f *File) Init(parent vfs.Directory) {}
func (f *File) Name() string              { return f.e.Path() }
func (f *File) IsDirectory() bool         { return false }

// interface vfs.File
func (f *File) Size() int64 {
	if f.buf != nil {
		return int64(len(f.buf))
	}
	return int64(f.e.UncompressedSize)
}

func (f *File) Open() error {
	if f.buf != nil {
		return nil
	}
	buf, err := f.d.a.Extract(f.e)
	if err != nil {
		return err
	}
	f.buf = buf
	return nil
}

func (f *File) Close() error {
	f.buf = nil
	return nil
}

func (f *File) Reader() (*io.SectionReader, error) {
	if f.buf == nil {
		return nil, errors.Errorf("[ipf] %q is not opened", f.Name())
	}
	return io.NewSectionReader(bytes.NewReader(f.buf), 0, int64(len(f.buf))), nil
}

func (f *File) ReadAt(b []byte, off int64) (n int, err error) {
	if f.buf == nil {
		return 0, errors.Errorf("[ipf] %q is not opened", f.Name())
	}
	return bytes.NewReader(f.buf).ReadAt(b, off)
}
