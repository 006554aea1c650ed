package xac

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/toslib/tos_browser/utils"
)

// reader is a sticky-error view over a chunk payload: after the first
// failure every read returns zero values and err keeps the cause.
type reader struct {
	s   *utils.Stream
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.s.U8()
	r.fail(err)
	return v
}

func (r *reader) u16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.s.U16()
	r.fail(err)
	return v
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.s.U32()
	r.fail(err)
	return v
}

func (r *reader) i32() int32 {
	return int32(r.u32())
}

func (r *reader) f32() float32 {
	if r.err != nil {
		return 0
	}
	v, err := r.s.F32()
	r.fail(err)
	return v
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	v, err := r.s.SizedString()
	r.fail(err)
	return v
}

func (r *reader) bytes(n uint64) []byte {
	if !r.fits(n, 1) {
		return nil
	}
	v, err := r.s.Bytes(int(n))
	r.fail(err)
	return v
}

// skip moves by n bytes. Seeking forward past the payload end is an
// over-read like any short read.
func (r *reader) skip(n int64) {
	if r.err != nil {
		return
	}
	if n > 0 && !r.fits(uint64(n), 1) {
		return
	}
	r.fail(r.s.Skip(n))
}

// peekU32 reads a u32 and always steps back over it.
func (r *reader) peekU32() uint32 {
	v := r.u32()
	if r.err == nil {
		r.skip(-4)
	}
	return v
}

// fits checks that count elements of elemSize bytes are still available,
// so a corrupt count can not trigger a huge allocation.
func (r *reader) fits(count uint64, elemSize uint64) bool {
	if r.err != nil {
		return false
	}
	rem, err := r.s.Remaining()
	if err != nil {
		r.fail(err)
		return false
	}
	if elemSize != 0 && count > uint64(rem)/elemSize {
		r.fail(io.ErrUnexpectedEOF)
		return false
	}
	return true
}

func (r *reader) vec3() mgl32.Vec3 {
	return mgl32.Vec3{r.f32(), r.f32(), r.f32()}
}

func (r *reader) color() mgl32.Vec4 {
	return mgl32.Vec4{r.f32(), r.f32(), r.f32(), r.f32()}
}

// quat reads x, y, z, w.
func (r *reader) quat() mgl32.Quat {
	x, y, z, w := r.f32(), r.f32(), r.f32(), r.f32()
	return mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
}

func (r *reader) mat4() (m mgl32.Mat4) {
	for i := range m {
		m[i] = r.f32()
	}
	return m
}

func (r *reader) u16s(n uint32) []uint16 {
	if !r.fits(uint64(n), 2) {
		return nil
	}
	v := make([]uint16, n)
	for i := range v {
		v[i] = r.u16()
	}
	return v
}

func (r *reader) u32s(n uint32) []uint32 {
	if !r.fits(uint64(n), 4) {
		return nil
	}
	v := make([]uint32, n)
	for i := range v {
		v[i] = r.u32()
	}
	return v
}

func (r *reader) tell() int64 {
	pos, err := r.s.Tell()
	if err != nil {
		r.fail(err)
	}
	return pos
}
