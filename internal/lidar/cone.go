package lidar

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// ConeDirection returns the index-th of total directions spaced evenly by
// bearing around AxisForward, each tilted spreadDeg away from the axis.
// It is pure: equal arguments always give the same unit vector.
func ConeDirection(index, total int, spreadDeg float64) r3.Vec {
	var bearing float64
	if total > 0 {
		bearing = 2 * math.Pi * float64(index) / float64(total)
	}
	polar := degToRad(spreadDeg)
	sinPolar, cosPolar := math.Sincos(polar)
	sinBearing, cosBearing := math.Sincos(bearing)
	return r3.Unit(r3.Vec{
		X: sinPolar * cosBearing,
		Y: sinPolar * sinBearing,
		Z: cosPolar,
	})
}

// RandomConeDirection draws a uniform direction on the unit sphere and
// slerps AxisForward toward it by spreadDeg/90 (clamped to [0,1]), giving
// samples biased toward the cone axis.
func RandomConeDirection(rng *rand.Rand, spreadDeg float64) r3.Vec {
	return slerpUnit(AxisForward, randomUnitVector(rng), clamp01(spreadDeg/90))
}

// randomUnitVector returns a uniformly distributed unit vector using
// normalized Gaussian components.
func randomUnitVector(rng *rand.Rand) r3.Vec {
	for {
		v := r3.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
		if n := r3.Norm(v); n > 1e-9 {
			return r3.Scale(1/n, v)
		}
	}
}

// slerpUnit spherically interpolates between unit vectors a and b.
func slerpUnit(a, b r3.Vec, t float64) r3.Vec {
	cos := math.Max(-1, math.Min(1, r3.Dot(a, b)))
	theta := math.Acos(cos)
	if theta < 1e-9 || t == 0 {
		return a
	}
	axis := r3.Cross(a, b)
	if r3.Norm(axis) < 1e-9 {
		// Antiparallel: any axis perpendicular to a will do.
		axis = r3.Cross(a, AxisRight)
		if r3.Norm(axis) < 1e-9 {
			axis = r3.Cross(a, AxisUp)
		}
	}
	return r3.Unit(r3.Rotate(a, t*theta, axis))
}
