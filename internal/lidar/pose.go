package lidar

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Scanner-local axes. Beams and dot samples are generated around Forward.
var (
	AxisRight   = r3.Vec{X: 1}
	AxisUp      = r3.Vec{Y: 1}
	AxisForward = r3.Vec{Z: 1}
)

// PoseTolerance bounds how far a pose basis may drift from orthonormal.
const PoseTolerance = 0.01

// ErrInvalidPose is returned by ValidatePose for non-rigid bases.
var ErrInvalidPose = errors.New("invalid pose")

// Pose is the scanner's rigid transform (scanner -> world).
type Pose struct {
	Position r3.Vec
	Right    r3.Vec
	Up       r3.Vec
	Forward  r3.Vec
}

// IdentityPose returns a pose at the origin looking down +Z.
func IdentityPose() Pose {
	return Pose{Right: AxisRight, Up: AxisUp, Forward: AxisForward}
}

// NewPose builds a pose from a position and an orientation.
func NewPose(position r3.Vec, rot r3.Rotation) Pose {
	return Pose{
		Position: position,
		Right:    rot.Rotate(AxisRight),
		Up:       rot.Rotate(AxisUp),
		Forward:  rot.Rotate(AxisForward),
	}
}

// PoseFromYawPitch builds a pose that looks along yaw (degrees about world
// up, positive turns toward +X) and pitch (degrees, positive looks up).
func PoseFromYawPitch(position r3.Vec, yawDeg, pitchDeg float64) Pose {
	pitch := r3.NewRotation(-pitchDeg*math.Pi/180, AxisRight)
	yaw := r3.NewRotation(yawDeg*math.Pi/180, AxisUp)
	rotate := func(v r3.Vec) r3.Vec { return yaw.Rotate(pitch.Rotate(v)) }
	return Pose{
		Position: position,
		Right:    rotate(AxisRight),
		Up:       rotate(AxisUp),
		Forward:  rotate(AxisForward),
	}
}

// TransformDirection maps a scanner-local direction into world space.
func (p Pose) TransformDirection(local r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(local.X, p.Right), r3.Scale(local.Y, p.Up)), r3.Scale(local.Z, p.Forward))
}

// TransformPoint maps a scanner-local point into world space.
func (p Pose) TransformPoint(local r3.Vec) r3.Vec {
	return r3.Add(p.Position, p.TransformDirection(local))
}

// InverseTransformDirection maps a world direction into scanner space.
func (p Pose) InverseTransformDirection(world r3.Vec) r3.Vec {
	return r3.Vec{X: r3.Dot(p.Right, world), Y: r3.Dot(p.Up, world), Z: r3.Dot(p.Forward, world)}
}

// InverseTransformPoint maps a world point into scanner space.
func (p Pose) InverseTransformPoint(world r3.Vec) r3.Vec {
	return p.InverseTransformDirection(r3.Sub(world, p.Position))
}

// Matrix returns the 4x4 row-major scanner->world transform.
func (p Pose) Matrix() [16]float64 {
	return [16]float64{
		p.Right.X, p.Up.X, p.Forward.X, p.Position.X,
		p.Right.Y, p.Up.Y, p.Forward.Y, p.Position.Y,
		p.Right.Z, p.Up.Z, p.Forward.Z, p.Position.Z,
		0, 0, 0, 1,
	}
}

// ValidatePose checks that the basis is a proper rigid rotation: unit axes,
// mutually orthogonal, right-handed.
func ValidatePose(p Pose) error {
	axes := []struct {
		name string
		v    r3.Vec
	}{{"right", p.Right}, {"up", p.Up}, {"forward", p.Forward}}
	for _, a := range axes {
		if n := r3.Norm(a.v); math.Abs(n-1) > PoseTolerance {
			return fmt.Errorf("%w: %s axis has length %.4f", ErrInvalidPose, a.name, n)
		}
	}
	if d := math.Abs(r3.Dot(p.Right, p.Up)) + math.Abs(r3.Dot(p.Up, p.Forward)) + math.Abs(r3.Dot(p.Forward, p.Right)); d > PoseTolerance {
		return fmt.Errorf("%w: axes not orthogonal (sum |dot| = %.4f)", ErrInvalidPose, d)
	}
	if !IsValidTransformMatrix(p.Matrix()) {
		return fmt.Errorf("%w: basis is not a proper rotation", ErrInvalidPose)
	}
	return nil
}
