package xac

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/pack"
	"github.com/toslib/tos_browser/utils"
)

var (
	ErrBadMagic                 = errors.New("xac: bad magic")
	ErrBadHeader                = ErrBadMagic
	ErrUnsupportedEndianness    = errors.New("xac: unsupported endianness")
	ErrTruncatedAttributeBuffer = errors.New("xac: truncated attribute buffer")
)

// TruncatedAttributeBufferError reports an attribute layer too short for the
// vertex range of a submesh.
type TruncatedAttributeBufferError struct {
	Attribute AttributeKind
	SubMesh   int
	Need      uint64
	Have      uint64
}

func (e *TruncatedAttributeBufferError) Error() string {
	return fmt.Sprintf("xac: %v buffer of submesh %d needs %d bytes, has %d",
		e.Attribute, e.SubMesh, e.Need, e.Have)
}

func (e *TruncatedAttributeBufferError) Is(target error) bool {
	return target == ErrTruncatedAttributeBuffer
}

// Actor is a decoded model.
type Actor struct {
	Name        string
	Header      Header
	Chunks      []*Chunk
	Diagnostics []Diagnostic
	// set when the chunk stream broke off, Chunks then holds the chunks before it
	StreamError string

	log *utils.Logger
}

// Decode runs a decoder over an in-memory model. When the chunk stream
// breaks off the actor is still returned with the chunks read up to there.
func Decode(data []byte, l *utils.Logger) (*Actor, error) {
	d := NewDecoder(bytes.NewReader(data), l)
	if err := d.Open(); err != nil {
		return nil, err
	}
	_, err := d.DecodeChunks()
	return &Actor{
		Header:      d.Header(),
		Chunks:      d.Chunks(),
		Diagnostics: d.Diagnostics(),
		log:         l,
	}, err
}

// assembleLogged assembles what it can and logs the meshes left out.
func (a *Actor) assembleLogged() ([]*AssembledMesh, error) {
	meshes, err := a.AssembleMeshes()
	if err != nil {
		if len(meshes) == 0 {
			return nil, err
		}
		a.log.Printf("[xac] %s: %d meshes skipped: %v", a.Name, len(a.Meshes())-len(meshes), err)
	}
	return meshes, nil
}

func (a *Actor) Info() *Info {
	for _, c := range a.Chunks {
		if i, ok := c.Record.(*Info); ok {
			return i
		}
	}
	return nil
}

// Nodes returns the skeleton, from a Nodes chunk when present and otherwise
// from the single Node chunks in stream order.
func (a *Actor) Nodes() []*Node {
	var nodes []*Node
	for _, c := range a.Chunks {
		switch r := c.Record.(type) {
		case *Nodes:
			return r.Nodes
		case *Node:
			nodes = append(nodes, r)
		}
	}
	return nodes
}

func (a *Actor) Meshes() []*Mesh {
	var meshes []*Mesh
	for _, c := range a.Chunks {
		if m, ok := c.Record.(*Mesh); ok {
			meshes = append(meshes, m)
		}
	}
	return meshes
}

func (a *Actor) SkinningInfos() []*SkinningInfo {
	var sis []*SkinningInfo
	for _, c := range a.Chunks {
		if si, ok := c.Record.(*SkinningInfo); ok {
			sis = append(sis, si)
		}
	}
	return sis
}

func (a *Actor) Materials() []*StandardMaterial {
	var mats []*StandardMaterial
	for _, c := range a.Chunks {
		if m, ok := c.Record.(*StandardMaterial); ok {
			mats = append(mats, m)
		}
	}
	return mats
}

func (a *Actor) FXMaterials() []*FXMaterial {
	var mats []*FXMaterial
	for _, c := range a.Chunks {
		if m, ok := c.Record.(*FXMaterial); ok {
			mats = append(mats, m)
		}
	}
	return mats
}

func init() {
	pack.SetHandler(".XAC", func(src utils.ResourceSource, r *io.SectionReader) (interface{}, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrapf(err, "[xac] Read %s", src.Name())
		}
		a, err := Decode(data, utils.NewLogger(log.Writer()))
		if a == nil {
			return nil, errors.Wrapf(err, "[xac] %s", src.Name())
		}
		a.Name = src.Name()
		if err != nil {
			// keep what was read so the browser can still show it
			log.Printf("[xac] %s: %v", src.Name(), err)
			a.StreamError = err.Error()
		}
		return a, nil
	})
}
