package vfs

import (
	"io"
)

// Element must carry only metadata (the name) until List/Open/GetElement is called.
type Element interface {
	Init(parent Directory)
	Name() string
	IsDirectory() bool
}

// File is a read-only view of one stored file.
type File interface {
	Element
	Size() int64
	Open() error
	Close() error
	Reader() (*io.SectionReader, error)
	ReadAt(b []byte, off int64) (n int, err error)
}

type Directory interface {
	Element
	List() ([]string, error)
	GetElement(name string) (Element, error)
}
