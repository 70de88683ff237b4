package lidar

import "math"

// IsValidTransformMatrix checks if a 4x4 matrix is a valid rigid transform:
// the rotation block has determinant ≈ 1 and the last row is [0 0 0 1].
func IsValidTransformMatrix(T [16]float64) bool {
	r00, r01, r02 := T[0], T[1], T[2]
	r10, r11, r12 := T[4], T[5], T[6]
	r20, r21, r22 := T[8], T[9], T[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > PoseTolerance {
		return false
	}

	if T[12] != 0 || T[13] != 0 || T[14] != 0 || math.Abs(T[15]-1.0) > 0.001 {
		return false
	}
	return true
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }

// wrapDegrees folds an angle into [0,360).
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// A tiny negative remainder rounds up to exactly 360.
	if deg >= 360 {
		deg = 0
	}
	return deg
}
