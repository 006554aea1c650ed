package xac

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toslib/tos_browser/pack"
	"github.com/toslib/tos_browser/utils"
)

func TestOpenBadMagic(t *testing.T) {
	data := []byte("XAD \x01\x00\x00\x00")
	d := NewDecoder(bytes.NewReader(data), utils.NewLogger(io.Discard))
	err := d.Open()
	assert.True(t, errors.Is(err, ErrBadMagic))
	assert.Equal(t, StateError, d.State())

	_, err = d.DecodeChunks()
	assert.Error(t, err)
}

func TestOpenBigEndian(t *testing.T) {
	_, err := Decode(newModel(1).Bytes(), utils.NewLogger(io.Discard))
	assert.True(t, errors.Is(err, ErrUnsupportedEndianness))
}

func TestDecodeEmptyModel(t *testing.T) {
	a := decodeTest(t, newModel(0).Bytes())
	assert.Empty(t, a.Chunks)
	assert.Empty(t, a.Diagnostics)
	assert.Equal(t, uint8(1), a.Header.HiVersion)
}

func TestDecodeSkipsUnknownChunk(t *testing.T) {
	b := newModel(0)
	b.chunk(ChunkID(99), 1, []byte{1, 2, 3, 4, 5})
	b.chunk(CHUNK_STDMATERIAL, 9, []byte{0, 0})
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("body.dds"))

	a := decodeTest(t, b.Bytes())
	require.Len(t, a.Chunks, 3)
	assert.Equal(t, "Unknown", a.Chunks[0].Kind())
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, a.Chunks[0].Record.(*Unknown).Data)
	assert.Equal(t, "Unknown", a.Chunks[1].Kind())

	m, ok := a.Chunks[2].Record.(*StandardMaterial)
	require.True(t, ok)
	assert.Equal(t, "body.dds", m.Name)
	assert.Len(t, a.Diagnostics, 2)
}

func TestDecodeResyncsToFrameEnd(t *testing.T) {
	payload := append(stdMaterialPayload("a.dds"), 0xde, 0xad, 0xbe, 0xef)

	b := newModel(0)
	b.chunk(CHUNK_STDMATERIAL, 1, payload)
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("b.dds"))

	a := decodeTest(t, b.Bytes())
	require.Len(t, a.Chunks, 2)
	assert.Equal(t, "a.dds", a.Chunks[0].Record.(*StandardMaterial).Name)
	assert.Equal(t, "b.dds", a.Chunks[1].Record.(*StandardMaterial).Name)

	require.Len(t, a.Diagnostics, 1)
	assert.Contains(t, a.Diagnostics[0].Message, "resynced")
	assert.Equal(t, CHUNK_STDMATERIAL, a.Diagnostics[0].ChunkID)
	assert.Equal(t, int64(HEADER_SIZE+CHUNK_HEADER_SIZE), a.Diagnostics[0].Offset)
}

func TestDecodeOverreadBecomesUnknown(t *testing.T) {
	// name length points past the frame
	payload := stdMaterialPayload("x")
	payload = payload[:len(payload)-1]

	b := newModel(0)
	b.chunk(CHUNK_STDMATERIAL, 1, payload)
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("next"))

	a := decodeTest(t, b.Bytes())
	require.Len(t, a.Chunks, 2)
	assert.Equal(t, "Unknown", a.Chunks[0].Kind())
	assert.Equal(t, "next", a.Chunks[1].Record.(*StandardMaterial).Name)
	require.Len(t, a.Diagnostics, 1)
}

func TestDecodeHugeCountDoesNotAllocate(t *testing.T) {
	payload := meshPayload(0, 1, 1, nil, nil)
	// NumLayers
	copy(payload[20:24], []byte{0xff, 0xff, 0xff, 0x7f})

	b := newModel(0)
	b.chunk(CHUNK_MESH, 1, payload)
	a := decodeTest(t, b.Bytes())
	require.Len(t, a.Chunks, 1)
	assert.Equal(t, "Unknown", a.Chunks[0].Kind())
}

func TestDecodeTruncatedStream(t *testing.T) {
	b := newModel(0)
	b.u32(uint32(CHUNK_STDMATERIAL))
	b.u32(100)
	b.u32(1)
	b.Write([]byte{1, 2, 3})

	d := NewDecoder(bytes.NewReader(b.Bytes()), utils.NewLogger(io.Discard))
	require.NoError(t, d.Open())
	_, err := d.DecodeChunks()
	assert.Error(t, err)
	assert.Equal(t, StateError, d.State())
}

func TestDecodeTruncatedChunkHeader(t *testing.T) {
	b := newModel(0)
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("ok"))
	b.Write([]byte{1, 0, 0})

	d := NewDecoder(bytes.NewReader(b.Bytes()), utils.NewLogger(io.Discard))
	require.NoError(t, d.Open())
	chunks, err := d.DecodeChunks()
	assert.Error(t, err)
	assert.Len(t, chunks, 1)
}

func TestDecodeKeepsChunksBeforeBrokenStream(t *testing.T) {
	b := newModel(0)
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("ok"))
	b.u32(uint32(CHUNK_STDMATERIAL))
	b.u32(100)
	b.u32(1)

	a, err := Decode(b.Bytes(), utils.NewLogger(io.Discard))
	assert.Error(t, err)
	require.NotNil(t, a)
	require.Len(t, a.Chunks, 1)
	assert.Equal(t, "ok", a.Chunks[0].Record.(*StandardMaterial).Name)
}

type testSource string

func (s testSource) Name() string { return string(s) }
func (s testSource) Size() int64  { return 0 }

func TestHandlerKeepsPartialActor(t *testing.T) {
	b := newModel(0)
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("ok"))
	b.Write([]byte{1, 0, 0})
	data := b.Bytes()

	inst, err := pack.CallHandler(testSource("broken.xac"),
		io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))))
	require.NoError(t, err)
	a, ok := inst.(*Actor)
	require.True(t, ok)
	assert.Equal(t, "broken.xac", a.Name)
	assert.Len(t, a.Chunks, 1)
	assert.NotEmpty(t, a.StreamError)
}

func TestSkipPastPayloadIsOverread(t *testing.T) {
	r := &reader{s: utils.NewStream(bytes.NewReader([]byte{1, 2}))}
	r.skip(3)
	assert.True(t, errors.Is(r.err, io.ErrUnexpectedEOF))

	r = &reader{s: utils.NewStream(bytes.NewReader([]byte{1, 2}))}
	r.skip(2)
	assert.NoError(t, r.err)
	r.skip(-1)
	assert.NoError(t, r.err)
}

func TestDecodeTrailingPadPastFrame(t *testing.T) {
	// v1 skinning ends with a 3 byte pad, give it only one
	s := &modelBuilder{}
	s.u32(5)
	s.u8(0)
	s.pad(1)

	b := newModel(0)
	b.chunk(CHUNK_SKINNINGINFO, 1, s.Bytes())
	b.chunk(CHUNK_STDMATERIAL, 1, stdMaterialPayload("next"))
	a := decodeTest(t, b.Bytes())

	require.Len(t, a.Chunks, 2)
	assert.Equal(t, "Unknown", a.Chunks[0].Kind())
	assert.Equal(t, "next", a.Chunks[1].Record.(*StandardMaterial).Name)
	require.Len(t, a.Diagnostics, 1)
	assert.Contains(t, a.Diagnostics[0].Message, "does not fit")
}

func TestSkinningTableFollowsMeshOrgVerts(t *testing.T) {
	b := newModel(0)
	b.chunk(CHUNK_MESH, 1, meshPayload(7, 3, 0, nil, nil))

	s := &modelBuilder{}
	s.u32(7) // node
	s.u32(2) // local bones
	s.u32(2) // influences
	s.u8(0)
	s.Write([]byte{0, 0, 0})
	s.f32(0.25)
	s.u32(1)
	s.f32(0.75)
	s.u32(4)
	for i := uint32(0); i < 3; i++ {
		s.u32(i)
		s.u32(1)
	}
	b.chunk(CHUNK_SKINNINGINFO, 3, s.Bytes())

	a := decodeTest(t, b.Bytes())
	assert.Empty(t, a.Diagnostics)
	sis := a.SkinningInfos()
	require.Len(t, sis, 1)
	si := sis[0]
	assert.Equal(t, uint32(7), si.NodeIndex)
	assert.Equal(t, uint32(2), si.NumLocalBones)
	require.Len(t, si.Influences, 2)
	assert.Equal(t, SkinInfluence{Weight: 0.75, NodeNumber: 4}, si.Influences[1])
	require.Len(t, si.Table, 3)
	assert.Equal(t, SkinningTableEntry{StartIndex: 2, NumElements: 1}, si.Table[2])
}

func TestSkinningWithoutMeshHasEmptyTable(t *testing.T) {
	s := &modelBuilder{}
	s.u32(5)
	s.u32(0)
	s.u8(0)
	s.Write([]byte{0, 0, 0})

	b := newModel(0)
	b.chunk(CHUNK_SKINNINGINFO, 2, s.Bytes())
	a := decodeTest(t, b.Bytes())
	require.Len(t, a.SkinningInfos(), 1)
	assert.Empty(t, a.SkinningInfos()[0].Table)
	assert.Empty(t, a.Diagnostics)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(ChunkHeader{ID: CHUNK_NODE, Version: 4}))
	assert.False(t, Supported(ChunkHeader{ID: CHUNK_NODE, Version: 5}))
	assert.False(t, Supported(ChunkHeader{ID: CHUNK_LIMIT, Version: 0}))
	assert.True(t, Supported(ChunkHeader{ID: CHUNK_MESH, Version: 2}))
	assert.False(t, Supported(ChunkHeader{ID: CHUNK_ATTACHMENTNODES + 1, Version: 1}))
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Offset: 0x14, ChunkID: CHUNK_MESH, Version: 2, Message: "boom"}
	s := d.String()
	assert.True(t, strings.HasPrefix(s, "0x14"))
	assert.Contains(t, s, "boom")
}
