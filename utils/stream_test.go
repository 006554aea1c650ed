package utils

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReads(t *testing.T) {
	data := []byte{
		0x01,
		0x02, 0x01,
		0x04, 0x03, 0x02, 0x01,
		0xff, 0xff, 0xff, 0xff,
		0x00, 0x00, 0x80, 0x3f,
		0x03, 0x00, 0x00, 0x00, 'a', 'b', 'c',
	}
	s := NewStream(bytes.NewReader(data))

	u8, err := s.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u16, err := s.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u32, err := s.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), u32)

	i32, err := s.I32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i32)

	f32, err := s.F32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f32)

	str, err := s.SizedString()
	require.NoError(t, err)
	assert.Equal(t, "abc", str)

	eof, err := s.EOF()
	require.NoError(t, err)
	assert.True(t, eof)
}

func TestStreamEOFKeepsPosition(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{1, 2}))

	eof, err := s.EOF()
	require.NoError(t, err)
	assert.False(t, eof)

	pos, err := s.Tell()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}

func TestStreamShortReads(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{1, 2}))
	_, err := s.U32()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	s = NewStream(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x7f}))
	_, err = s.SizedString()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStreamSeekAndSkip(t *testing.T) {
	s := NewStream(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5}))
	require.NoError(t, s.Skip(2))

	b, err := s.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(2), b)

	_, err = s.Seek(-2, io.SeekEnd)
	require.NoError(t, err)
	rem, err := s.Remaining()
	require.NoError(t, err)
	assert.Equal(t, int64(2), rem)
}
