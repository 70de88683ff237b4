package lidar

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HueCycle is the shared color-wheel phase for dots and beams.
type HueCycle struct {
	hue        float64
	speed      float64
	saturation float64
	brightness float64
}

// NewHueCycle returns a cycle starting at hue 0 that advances speed
// revolutions per second.
func NewHueCycle(speed, saturation, brightness float64) *HueCycle {
	return &HueCycle{speed: speed, saturation: saturation, brightness: brightness}
}

// Advance moves the phase by dt seconds, wrapping into [0,1).
func (h *HueCycle) Advance(dt float64) {
	h.hue += dt * h.speed
	h.hue -= math.Floor(h.hue)
}

// Hue returns the current phase in [0,1).
func (h *HueCycle) Hue() float64 { return h.hue }

// Color returns the opaque RGB color for the current phase.
func (h *HueCycle) Color() Color {
	c := colorful.Hsv(h.hue*360, h.saturation, h.brightness).Clamped()
	return Color{R: c.R, G: c.G, B: c.B, A: 1}
}
