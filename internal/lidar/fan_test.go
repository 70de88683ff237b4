package lidar

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func testFanConfig() RayFanConfig {
	return RayFanConfig{
		Count:            8,
		SpreadDeg:        10,
		RotationPerPulse: 15,
		MaxDistance:      50,
		FadeDuration:     100 * time.Millisecond,
		AlphaBase:        30,
	}
}

func TestRayFan_NewIsHidden(t *testing.T) {
	f := NewRayFan(testFanConfig())
	require.Equal(t, 8, f.Len())
	assert.Equal(t, 0, f.EnabledCount())
	for i := 0; i < f.Len(); i++ {
		s := f.Slot(i)
		assert.True(t, s.LastFire.IsZero())
		assert.Equal(t, ConeDirection(i, 8, 10), s.Base)
	}
}

func TestRayFan_RotationAccumulates(t *testing.T) {
	f := NewRayFan(testFanConfig())
	now := time.Unix(0, 0)
	for n := 1; n <= 30; n++ {
		f.Pulse(now)
		want := math.Mod(float64(n)*15, 360)
		assert.InDelta(t, want, f.Rotation(), 1e-9, "after %d pulses", n)
	}
	assert.Equal(t, uint64(30), f.Pulses())
}

func TestRayFan_PulseSpinsAboutForward(t *testing.T) {
	cfg := testFanConfig()
	cfg.RotationPerPulse = 90
	f := NewRayFan(cfg)
	f.Pulse(time.Unix(0, 0))

	s := f.Slot(0)
	sin, cos := math.Sincos(10 * math.Pi / 180)
	assert.True(t, vecNear(s.Dir, r3.Vec{Y: sin, Z: cos}, 1e-9), "dir = %v", s.Dir)
	assert.InDelta(t, 50, r3.Norm(s.End), 1e-9)
	for i := 0; i < f.Len(); i++ {
		assert.InDelta(t, 10, angleDeg(f.Slot(i).Dir, AxisForward), 1e-9)
	}

	// A full turn brings every slot back to its base direction.
	for i := 0; i < 3; i++ {
		f.Pulse(time.Unix(0, 0))
	}
	for i := 0; i < f.Len(); i++ {
		assert.True(t, vecNear(f.Slot(i).Dir, f.Slot(i).Base, 1e-9))
	}
}

func TestRayFan_Fade(t *testing.T) {
	f := NewRayFan(testFanConfig())
	t0 := time.Unix(100, 0)
	base := Color{R: 1, G: 0.5, B: 0.25, A: 1}
	f.Pulse(t0)
	require.Equal(t, 8, f.EnabledCount())

	f.AdvanceFades(t0, base)
	assert.InDelta(t, 30.0/255, f.Slot(0).Color.A, 1e-9)

	f.AdvanceFades(t0.Add(50*time.Millisecond), base)
	for i := 0; i < f.Len(); i++ {
		s := f.Slot(i)
		require.True(t, s.Enabled)
		assert.InDelta(t, 0.5*30/255, s.Color.A, 1e-9)
		assert.Equal(t, base.R, s.Color.R)
	}

	f.AdvanceFades(t0.Add(100*time.Millisecond), base)
	assert.Equal(t, 0, f.EnabledCount())
}

func TestRayFan_FadeCurve(t *testing.T) {
	cfg := testFanConfig()
	cfg.AlphaBase = 255
	cfg.Curve = EaseOutFade
	f := NewRayFan(cfg)
	t0 := time.Unix(0, 0)
	f.Pulse(t0)
	f.AdvanceFades(t0.Add(50*time.Millisecond), Color{A: 1})
	assert.InDelta(t, 0.75, f.Slot(0).Color.A, 1e-9)
}

func TestRayFan_ClipSlot(t *testing.T) {
	f := NewRayFan(testFanConfig())
	f.Pulse(time.Unix(0, 0))

	f.ClipSlot(2, 3.5)
	assert.InDelta(t, 3.5, r3.Norm(f.Slot(2).End), 1e-9)
	assert.InDelta(t, 50, r3.Norm(f.Slot(3).End), 1e-9)

	f.ClipSlot(2, 500)
	assert.InDelta(t, 50, r3.Norm(f.Slot(2).End), 1e-9)

	// The next pulse restores full length.
	f.ClipSlot(4, 1)
	f.Pulse(time.Unix(1, 0))
	assert.InDelta(t, 50, r3.Norm(f.Slot(4).End), 1e-9)
}

func TestRayFan_DisableAllIsIdempotent(t *testing.T) {
	f := NewRayFan(testFanConfig())
	f.Pulse(time.Unix(0, 0))
	f.DisableAll()
	f.DisableAll()
	assert.Equal(t, 0, f.EnabledCount())
	assert.Equal(t, 8, f.Len())
}
