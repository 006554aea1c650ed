package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MirrorX converts between the file's handedness and ours.
func MirrorX(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{-v[0], v[1], v[2]}
}

// QuatToEuler returns XYZ euler angles in radians.
func QuatToEuler(q mgl32.Quat) (e mgl32.Vec3) {
	sinr_cosp := float64(2 * (q.W*q.X() + q.Y()*q.Z()))
	cosr_cosp := float64(1 - 2*(q.X()*q.X()+q.Y()*q.Y()))
	e[0] = float32(math.Atan2(sinr_cosp, cosr_cosp))

	sinp := float64(2 * (q.W*q.Y() - q.Z()*q.X()))
	if math.Abs(sinp) >= 1 {
		e[1] = float32(math.Copysign(math.Pi/2, sinp))
	} else {
		e[1] = float32(math.Asin(sinp))
	}

	siny_cosp := float64(2 * (q.W*q.Z() + q.X()*q.Y()))
	cosy_cosp := float64(1 - 2*(q.Y()*q.Y()+q.Z()*q.Z()))
	e[2] = float32(math.Atan2(siny_cosp, cosy_cosp))

	return e
}

func RadiansToDegreeV3(v mgl32.Vec3) mgl32.Vec3 {
	return v.Mul(180.0 / math.Pi)
}

// MirrorQuatX is the rotation MirrorX applies to orientations.
func MirrorQuatX(q mgl32.Quat) mgl32.Quat {
	return mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X(), -q.Y(), -q.Z()}}
}
