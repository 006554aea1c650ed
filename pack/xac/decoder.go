package xac

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/toslib/tos_browser/utils"
)

type State int

const (
	StateUnopened State = iota
	StateHeaderValid
	StateStreaming
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateHeaderValid:
		return "header valid"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Diagnostic is a recoverable problem noticed while decoding a chunk.
type Diagnostic struct {
	Offset  int64
	ChunkID ChunkID
	Version uint32
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%#x %v v%d: %s", d.Offset, d.ChunkID, d.Version, d.Message)
}

const (
	MAGIC       = "XAC "
	HEADER_SIZE = 8
)

type Header struct {
	Magic      [4]byte
	HiVersion  uint8
	LoVersion  uint8
	EndianType uint8
	MulOrder   uint8
}

func (h *Header) FromBuf(b []byte) {
	copy(h.Magic[:], b[0:4])
	h.HiVersion = b[4]
	h.LoVersion = b[5]
	h.EndianType = b[6]
	h.MulOrder = b[7]
}

// highest decodable version per chunk kind, every kind starts at 1
var maxVersions = map[ChunkID]uint32{
	CHUNK_NODE:               4,
	CHUNK_MESH:               2,
	CHUNK_SKINNINGINFO:       4,
	CHUNK_STDMATERIAL:        3,
	CHUNK_STDMATERIALLAYER:   2,
	CHUNK_FXMATERIAL:         3,
	CHUNK_LIMIT:              1,
	CHUNK_INFO:               4,
	CHUNK_MESHLODLEVELS:      1,
	CHUNK_STDPROGMORPHTARGET: 1,
	CHUNK_NODEGROUPS:         1,
	CHUNK_NODES:              1,
	CHUNK_STDPMORPHTARGETS:   1,
	CHUNK_MATERIALINFO:       2,
	CHUNK_NODEMOTIONSOURCES:  1,
	CHUNK_ATTACHMENTNODES:    1,
}

func Supported(h ChunkHeader) bool {
	top, ok := maxVersions[h.ID]
	return ok && h.Version >= 1 && h.Version <= top
}

// Decoder walks the chunk stream of one model. It owns the stream for its
// lifetime and is not safe for concurrent use.
type Decoder struct {
	s           *utils.Stream
	log         *utils.Logger
	state       State
	header      Header
	chunks      []*Chunk
	diagnostics []Diagnostic
	// node index -> num_org_verts of the last mesh seen for that node
	orgVerts map[uint32]uint32
}

func NewDecoder(r io.ReadSeeker, log *utils.Logger) *Decoder {
	return &Decoder{
		s:        utils.NewStream(r),
		log:      log,
		orgVerts: make(map[uint32]uint32),
	}
}

func (d *Decoder) State() State              { return d.state }
func (d *Decoder) Header() Header            { return d.header }
func (d *Decoder) Chunks() []*Chunk          { return d.chunks }
func (d *Decoder) Diagnostics() []Diagnostic { return d.diagnostics }

func (d *Decoder) fail(err error) error {
	d.state = StateError
	return err
}

// Open validates the model header.
func (d *Decoder) Open() error {
	if d.state != StateUnopened {
		return errors.Errorf("[xac] Open in state %v", d.state)
	}
	b, err := d.s.Bytes(HEADER_SIZE)
	if err != nil {
		return d.fail(errors.Wrapf(err, "[xac] Header read"))
	}
	d.header.FromBuf(b)
	if string(d.header.Magic[:]) != MAGIC {
		return d.fail(errors.Wrapf(ErrBadMagic, "got %q", d.header.Magic[:]))
	}
	if d.header.EndianType != 0 {
		return d.fail(errors.Wrapf(ErrUnsupportedEndianness, "endian type %d", d.header.EndianType))
	}
	d.state = StateHeaderValid
	return nil
}

// DecodeChunks reads chunks until end of stream. Unknown or malformed chunks
// only produce diagnostics; the returned error is reserved for io failures.
// On error the chunks decoded so far are returned too.
func (d *Decoder) DecodeChunks() ([]*Chunk, error) {
	if d.state != StateHeaderValid {
		return d.chunks, errors.Errorf("[xac] DecodeChunks in state %v", d.state)
	}
	d.state = StateStreaming

	for {
		eof, err := d.s.EOF()
		if err != nil {
			return d.chunks, d.fail(errors.Wrapf(err, "[xac] Chunk stream end check"))
		}
		if eof {
			break
		}
		c, err := d.nextChunk()
		if err != nil {
			return d.chunks, d.fail(err)
		}
		d.chunks = append(d.chunks, c)
	}

	d.state = StateDone
	return d.chunks, nil
}

func (d *Decoder) nextChunk() (*Chunk, error) {
	start, err := d.s.Tell()
	if err != nil {
		return nil, err
	}
	hb, err := d.s.Bytes(CHUNK_HEADER_SIZE)
	if err != nil {
		return nil, errors.Wrapf(err, "[xac] Chunk header at %#x", start)
	}
	c := &Chunk{Offset: start + CHUNK_HEADER_SIZE}
	c.FromBuf(hb)

	// the payload is read whole so the stream always lands on the frame end,
	// whatever the record decoder does with it
	payload, err := d.s.Bytes(int(c.SizeInBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "[xac] %v v%d payload of %d bytes at %#x",
			c.ID, c.Version, c.SizeInBytes, c.Offset)
	}

	c.Record = d.decodeRecord(c, payload)
	return c, nil
}

func (d *Decoder) diag(c *Chunk, format string, args ...interface{}) {
	dg := Diagnostic{
		Offset:  c.Offset,
		ChunkID: c.ID,
		Version: c.Version,
		Message: fmt.Sprintf(format, args...),
	}
	d.diagnostics = append(d.diagnostics, dg)
	d.log.Printf("[xac] %v", dg)
}

func (d *Decoder) decodeRecord(c *Chunk, payload []byte) Record {
	if !Supported(c.ChunkHeader) {
		d.diag(c, "unsupported chunk, %d bytes skipped", len(payload))
		return &Unknown{Data: payload}
	}

	r := &reader{s: utils.NewStream(bytes.NewReader(payload))}
	rec := d.dispatch(r, c.ChunkHeader)
	if r.err != nil {
		d.diag(c, "record does not fit its %d byte frame: %v", len(payload), r.err)
		return &Unknown{Data: payload}
	}
	if used := r.tell(); used != int64(len(payload)) {
		d.diag(c, "record used %d of %d bytes, resynced to frame end", used, len(payload))
	}

	if m, ok := rec.(*Mesh); ok {
		d.orgVerts[m.NodeIndex] = m.NumOrgVerts
	}
	return rec
}

func (d *Decoder) lookupOrgVerts(nodeIndex uint32) uint32 {
	return d.orgVerts[nodeIndex]
}

func (d *Decoder) dispatch(r *reader, h ChunkHeader) Record {
	switch h.ID {
	case CHUNK_INFO:
		return decodeInfo(r, h.Version)
	case CHUNK_NODE:
		return decodeNode(r, h.Version)
	case CHUNK_NODES:
		return decodeNodes(r)
	case CHUNK_NODEGROUPS:
		return decodeNodeGroup(r)
	case CHUNK_MESH:
		return decodeMesh(r, h.Version)
	case CHUNK_SKINNINGINFO:
		return decodeSkinningInfo(r, h.Version, d.lookupOrgVerts)
	case CHUNK_STDMATERIAL:
		return decodeStandardMaterial(r, h.Version)
	case CHUNK_STDMATERIALLAYER:
		return decodeMaterialLayer(r, h.Version)
	case CHUNK_FXMATERIAL:
		return decodeFXMaterial(r, h.Version)
	case CHUNK_MATERIALINFO:
		return decodeMaterialInfo(r, h.Version)
	case CHUNK_LIMIT:
		return decodeLimit(r)
	case CHUNK_MESHLODLEVELS:
		return decodeMeshLodLevel(r)
	case CHUNK_STDPROGMORPHTARGET:
		return decodeMorphTarget(r)
	case CHUNK_STDPMORPHTARGETS:
		return decodeMorphTargets(r)
	case CHUNK_NODEMOTIONSOURCES:
		return decodeNodeMotionSources(r)
	case CHUNK_ATTACHMENTNODES:
		return decodeAttachmentNodes(r)
	}
	panic(fmt.Sprintf("chunk %v passed Supported without a decoder", h.ID))
}
