package lidar

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Color is a linear RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float64
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// NRGBA converts c to an 8-bit non-premultiplied color for renderers.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

// LayerMask selects which collision layers a ray cast may hit.
type LayerMask uint32

// AllLayers matches every layer.
const AllLayers LayerMask = ^LayerMask(0)

// Layer returns the mask for a single layer index in [0,31].
func Layer(i int) LayerMask { return LayerMask(1) << uint(i) }

// Intersects reports whether m and o share any layer.
func (m LayerMask) Intersects(o LayerMask) bool { return m&o != 0 }

// Hit is the nearest surface intersection reported by a RayCaster.
type Hit struct {
	Point    r3.Vec
	Normal   r3.Vec
	Distance float64
}

// RayCaster is the host physics query. It returns the nearest hit along
// dir from origin within maxDistance on any layer in mask, or false.
// dir is expected to be unit length.
type RayCaster interface {
	Raycast(origin, dir r3.Vec, maxDistance float64, mask LayerMask) (Hit, bool)
}

// RayCasterFunc adapts a function to RayCaster.
type RayCasterFunc func(origin, dir r3.Vec, maxDistance float64, mask LayerMask) (Hit, bool)

// Raycast calls f.
func (f RayCasterFunc) Raycast(origin, dir r3.Vec, maxDistance float64, mask LayerMask) (Hit, bool) {
	return f(origin, dir, maxDistance, mask)
}

// PoseSource supplies the scanner's world pose, refreshed every frame.
type PoseSource interface {
	Pose() Pose
}

// PoseFunc adapts a function to PoseSource.
type PoseFunc func() Pose

// Pose calls f.
func (f PoseFunc) Pose() Pose { return f() }

// DotSample is one accepted scan hit. Index is the insertion sequence
// number; it increases monotonically for the life of the buffer.
type DotSample struct {
	Position r3.Vec
	Color    Color
	Index    uint64
}

// DotView is the render-facing form of a DotSample.
type DotView struct {
	Position r3.Vec
	Color    Color
	Scale    float64
}

// BeamView is the render-facing form of one ray fan slot.
type BeamView struct {
	Start   r3.Vec
	End     r3.Vec
	Color   Color
	Width   float64
	Enabled bool
}

// Stats are cumulative scanner counters.
type Stats struct {
	Frames       uint64
	Pulses       uint64
	ProbeMisses  uint64
	RaysCast     uint64
	RaysMissed   uint64
	DotsAccepted uint64
	DotsRejected uint64
	DotsEvicted  uint64
	Resident     int
	Capacity     int
	Hue          float64
	State        PulseState
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
