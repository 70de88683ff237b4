package operator

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lidarpaint/internal/lidar"
)

// MaxPitch limits how far a Manual operator can look up or down.
const MaxPitch = 85.0

// Manual is a hand-driven operator for interactive views. Input handlers
// and the frame loop may run on different goroutines.
type Manual struct {
	mu       sync.Mutex
	position r3.Vec
	yaw      float64
	pitch    float64
	trigger  bool
	bounds   *r3.Box
}

// NewManual returns an operator at position looking along +Z.
func NewManual(position r3.Vec) *Manual {
	return &Manual{position: position}
}

// Confine keeps the operator inside b. Moves that would leave it are clamped.
func (m *Manual) Confine(b r3.Box) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bounds = &b
	m.position = clampBox(m.position, b)
}

// Turn adds to yaw and pitch in degrees. Pitch is clamped to ±MaxPitch.
func (m *Manual) Turn(dYaw, dPitch float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.yaw = math.Mod(m.yaw+dYaw, 360)
	m.pitch = math.Max(-MaxPitch, math.Min(MaxPitch, m.pitch+dPitch))
}

// Move walks along the horizontal heading by forward metres and strafes by
// right metres.
func (m *Manual) Move(forward, right float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	heading := lidar.PoseFromYawPitch(r3.Vec{}, m.yaw, 0)
	step := r3.Add(r3.Scale(forward, heading.Forward), r3.Scale(right, heading.Right))
	m.position = r3.Add(m.position, step)
	if m.bounds != nil {
		m.position = clampBox(m.position, *m.bounds)
	}
}

// SetTrigger holds or releases the trigger.
func (m *Manual) SetTrigger(on bool) {
	m.mu.Lock()
	m.trigger = on
	m.mu.Unlock()
}

// ToggleTrigger flips the trigger and returns the new state.
func (m *Manual) ToggleTrigger() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trigger = !m.trigger
	return m.trigger
}

// Scanning reports whether the trigger is held.
func (m *Manual) Scanning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trigger
}

// Angles returns yaw and pitch in degrees.
func (m *Manual) Angles() (yaw, pitch float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.yaw, m.pitch
}

// Pose implements lidar.PoseSource.
func (m *Manual) Pose() lidar.Pose {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lidar.PoseFromYawPitch(m.position, m.yaw, m.pitch)
}

func clampBox(p r3.Vec, b r3.Box) r3.Vec {
	return r3.Vec{
		X: math.Max(b.Min.X, math.Min(b.Max.X, p.X)),
		Y: math.Max(b.Min.Y, math.Min(b.Max.Y, p.Y)),
		Z: math.Max(b.Min.Z, math.Min(b.Max.Z, p.Z)),
	}
}
