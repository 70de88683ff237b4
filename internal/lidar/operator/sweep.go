// Package operator provides scripted and hand-driven scanner holders that
// supply a pose and trigger state each frame.
package operator

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lidarpaint/internal/lidar"
	"github.com/banshee-data/lidarpaint/internal/timeutil"
)

// Sweep is a scripted operator: it stands still, pans the scanner side to
// side with a slow pitch bob, and pulses the trigger on a fixed duty cycle.
// All motion is a function of time since construction on its clock.
type Sweep struct {
	clock timeutil.Clock
	start time.Time

	// Configuration
	Position       r3.Vec        // metres, world space
	BaseYaw        float64       // degrees
	YawAmplitude   float64       // degrees either side of BaseYaw
	YawPeriod      time.Duration // one full left-right-left pan
	BasePitch      float64       // degrees, positive looks up
	PitchAmplitude float64       // degrees
	PitchPeriod    time.Duration
	HoldFor        time.Duration // trigger held
	ReleaseFor     time.Duration // trigger released; zero holds forever
}

// NewSweep returns a sweep standing at head height in the middle of a room,
// panning ±60° every 8s and holding the trigger 4s out of every 5s.
func NewSweep(clock timeutil.Clock) *Sweep {
	return &Sweep{
		clock:          clock,
		start:          clock.Now(),
		Position:       r3.Vec{Y: 1.5},
		YawAmplitude:   60,
		YawPeriod:      8 * time.Second,
		BasePitch:      -10,
		PitchAmplitude: 15,
		PitchPeriod:    5 * time.Second,
		HoldFor:        4 * time.Second,
		ReleaseFor:     time.Second,
	}
}

// Angles returns the current yaw and pitch in degrees.
func (s *Sweep) Angles() (yaw, pitch float64) {
	elapsed := s.clock.Since(s.start)
	return s.BaseYaw + s.YawAmplitude*oscillate(elapsed, s.YawPeriod),
		s.BasePitch + s.PitchAmplitude*oscillate(elapsed, s.PitchPeriod)
}

// Pose implements lidar.PoseSource.
func (s *Sweep) Pose() lidar.Pose {
	yaw, pitch := s.Angles()
	return lidar.PoseFromYawPitch(s.Position, yaw, pitch)
}

// Scanning reports whether the trigger is held now.
func (s *Sweep) Scanning() bool {
	if s.ReleaseFor <= 0 {
		return true
	}
	cycle := s.HoldFor + s.ReleaseFor
	return s.clock.Since(s.start)%cycle < s.HoldFor
}

// oscillate returns sin(2π·elapsed/period), or 0 for a non-positive period.
func oscillate(elapsed, period time.Duration) float64 {
	if period <= 0 {
		return 0
	}
	return math.Sin(2 * math.Pi * elapsed.Seconds() / period.Seconds())
}
