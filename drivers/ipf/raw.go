package ipf

import (
	"encoding/binary"

	"github.com/toslib/tos_browser/utils"
)

const (
	RAW_FOOTER_SIZE      = 24
	RAW_ENTRY_FIXED_SIZE = 20

	MAGIC = 0x06054B50
)

type Footer struct {
	FileCount      uint16
	TableOffset    uint32
	Padding        uint16
	FooterOffset   uint32
	Magic          uint32
	VersionToPatch uint32
	NewVersion     uint32
}

func (f *Footer) FromBuf(b []byte) {
	f.FileCount = binary.LittleEndian.Uint16(b[0:])
	f.TableOffset = binary.LittleEndian.Uint32(b[2:])
	f.Padding = binary.LittleEndian.Uint16(b[6:])
	f.FooterOffset = binary.LittleEndian.Uint32(b[8:])
	f.Magic = binary.LittleEndian.Uint32(b[0xc:])
	f.VersionToPatch = binary.LittleEndian.Uint32(b[0x10:])
	f.NewVersion = binary.LittleEndian.Uint32(b[0x14:])
}

// Entry describes one packed file. Names stay raw until asked for.
type Entry struct {
	PathNameLength      uint16
	CRC32               uint32
	CompressedSize      uint32
	UncompressedSize    uint32
	DataOffset          uint32
	ContainerNameLength uint16
	ContainerName       []byte `json:"-"`
	PathName            []byte `json:"-"`
}

func (e *Entry) FromBuf(b []byte) {
	e.PathNameLength = binary.LittleEndian.Uint16(b[0:])
	e.CRC32 = binary.LittleEndian.Uint32(b[2:])
	e.CompressedSize = binary.LittleEndian.Uint32(b[6:])
	e.UncompressedSize = binary.LittleEndian.Uint32(b[0xa:])
	e.DataOffset = binary.LittleEndian.Uint32(b[0xe:])
	e.ContainerNameLength = binary.LittleEndian.Uint16(b[0x12:])
}

// Names are length prefixed, some writers still leave a terminating zero
// inside the counted bytes.
func (e *Entry) Container() string { return utils.BytesToString(e.ContainerName) }
func (e *Entry) Path() string      { return utils.BytesToString(e.PathName) }
