package lidar

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// BeamSlot is one reusable beam of the fan. Base is fixed at construction;
// everything else is rewritten on each pulse and fade tick. A zero LastFire
// means the slot has never fired.
type BeamSlot struct {
	Base     r3.Vec // unit, scanner space
	Dir      r3.Vec // Base rotated by the fan's cumulative rotation
	End      r3.Vec // endpoint in scanner space
	LastFire time.Time
	Enabled  bool
	Color    Color
}

// RayFanConfig sizes and tunes a RayFan.
type RayFanConfig struct {
	Count            int
	SpreadDeg        float64
	RotationPerPulse float64 // degrees
	MaxDistance      float64
	FadeDuration     time.Duration
	AlphaBase        float64 // 0..255
	Curve            FadeCurve
}

// RayFan is the rotating fan of short-lived visual beams.
type RayFan struct {
	slots       []BeamSlot
	rotationDeg float64
	pulses      uint64
	cfg         RayFanConfig
}

// NewRayFan precomputes Count base directions on a cone of SpreadDeg.
// A nil Curve selects LinearFade.
func NewRayFan(cfg RayFanConfig) *RayFan {
	if cfg.Curve == nil {
		cfg.Curve = LinearFade
	}
	f := &RayFan{slots: make([]BeamSlot, cfg.Count), cfg: cfg}
	for i := range f.slots {
		base := ConeDirection(i, cfg.Count, cfg.SpreadDeg)
		f.slots[i] = BeamSlot{Base: base, Dir: base, End: r3.Scale(cfg.MaxDistance, base)}
	}
	return f
}

// Len returns the fixed slot count.
func (f *RayFan) Len() int { return len(f.slots) }

// Slot returns a copy of slot i.
func (f *RayFan) Slot(i int) BeamSlot { return f.slots[i] }

// Rotation returns the cumulative rotation in degrees, in [0,360).
func (f *RayFan) Rotation() float64 { return f.rotationDeg }

// Pulses returns how many pulses have fired.
func (f *RayFan) Pulses() uint64 { return f.pulses }

// Pulse advances the rotation by RotationPerPulse and fires every slot at
// now with a full-length endpoint along its rotated direction.
func (f *RayFan) Pulse(now time.Time) {
	f.rotationDeg = wrapDegrees(f.rotationDeg + f.cfg.RotationPerPulse)
	f.pulses++
	spin := r3.NewRotation(degToRad(f.rotationDeg), AxisForward)
	for i := range f.slots {
		s := &f.slots[i]
		s.Dir = spin.Rotate(s.Base)
		s.End = r3.Scale(f.cfg.MaxDistance, s.Dir)
		s.LastFire = now
		s.Enabled = true
	}
}

// ClipSlot shortens slot i's endpoint to length along its direction. It is
// used once per pulse when beams stop at the first surface they meet.
func (f *RayFan) ClipSlot(i int, length float64) {
	s := &f.slots[i]
	if length < 0 || length > f.cfg.MaxDistance {
		length = f.cfg.MaxDistance
	}
	s.End = r3.Scale(length, s.Dir)
}

// AdvanceFades updates every enabled slot's alpha for now. Slots whose age
// has reached FadeDuration are disabled.
func (f *RayFan) AdvanceFades(now time.Time, base Color) {
	scale := f.cfg.AlphaBase / 255
	for i := range f.slots {
		s := &f.slots[i]
		if !s.Enabled {
			continue
		}
		t := now.Sub(s.LastFire).Seconds() / f.cfg.FadeDuration.Seconds()
		if t >= 1 {
			s.Enabled = false
			continue
		}
		s.Color = base.WithAlpha(f.cfg.Curve(clamp01(t)) * scale)
	}
}

// DisableAll hides every slot. Safe to call every frame.
func (f *RayFan) DisableAll() {
	for i := range f.slots {
		f.slots[i].Enabled = false
	}
}

// EnabledCount returns how many slots are visible.
func (f *RayFan) EnabledCount() int {
	n := 0
	for i := range f.slots {
		if f.slots[i].Enabled {
			n++
		}
	}
	return n
}
