package utils

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Stream is a positioned little-endian reader over a seekable source.
// It is not safe for concurrent use.
type Stream struct {
	r   io.ReadSeeker
	buf [8]byte
}

func NewStream(r io.ReadSeeker) *Stream {
	return &Stream{r: r}
}

func (s *Stream) fill(n int) ([]byte, error) {
	b := s.buf[:n]
	if _, err := io.ReadFull(s.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Stream) U8() (uint8, error) {
	b, err := s.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Stream) U16() (uint16, error) {
	b, err := s.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (s *Stream) U32() (uint32, error) {
	b, err := s.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *Stream) I32() (int32, error) {
	v, err := s.U32()
	return int32(v), err
}

func (s *Stream) F32() (float32, error) {
	v, err := s.U32()
	return math.Float32frombits(v), err
}

// Bytes reads exactly n bytes into a new slice.
func (s *Stream) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("negative read length %d", n)
	}
	if rem, err := s.Remaining(); err != nil {
		return nil, err
	} else if int64(n) > rem {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Skip moves forward n bytes without reading them.
func (s *Stream) Skip(n int64) error {
	_, err := s.r.Seek(n, io.SeekCurrent)
	return err
}

func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	return s.r.Seek(offset, whence)
}

func (s *Stream) Tell() (int64, error) {
	return s.r.Seek(0, io.SeekCurrent)
}

// Remaining reports how many bytes are left before the end of the source.
func (s *Stream) Remaining() (int64, error) {
	pos, err := s.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.r.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return end - pos, nil
}

// EOF checks for end of stream without moving the position.
func (s *Stream) EOF() (bool, error) {
	if _, err := io.ReadFull(s.r, s.buf[:1]); err != nil {
		if err == io.EOF {
			return true, nil
		}
		return false, err
	}
	_, err := s.r.Seek(-1, io.SeekCurrent)
	return false, err
}

// SizedString reads a u32 length prefixed string and decodes it lossily.
func (s *Stream) SizedString() (string, error) {
	l, err := s.U32()
	if err != nil {
		return "", err
	}
	b, err := s.Bytes(int(l))
	if err != nil {
		return "", errors.Wrapf(err, "string of length %d", l)
	}
	return DecodeString(b), nil
}
