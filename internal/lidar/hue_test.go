package lidar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHueCycle_Advance(t *testing.T) {
	h := NewHueCycle(0.02, 0.8, 1)
	assert.Equal(t, 0.0, h.Hue())

	h.Advance(10)
	assert.InDelta(t, 0.2, h.Hue(), 1e-12)

	// 60s at 0.02 rev/s is 1.2 revolutions.
	h = NewHueCycle(0.02, 0.8, 1)
	h.Advance(60)
	assert.InDelta(t, 0.2, h.Hue(), 1e-9)

	h.Advance(0)
	assert.InDelta(t, 0.2, h.Hue(), 1e-9)
}

func TestHueCycle_StaysInRange(t *testing.T) {
	h := NewHueCycle(0.37, 1, 1)
	for i := 0; i < 10000; i++ {
		h.Advance(1.0 / 60)
		if h.Hue() < 0 || h.Hue() >= 1 {
			t.Fatalf("hue %v out of [0,1) after %d steps", h.Hue(), i)
		}
	}
}

func TestHueCycle_Color(t *testing.T) {
	tests := []struct {
		name    string
		dt      float64
		want    Color
		sat, br float64
	}{
		{"red at zero", 0, Color{R: 1, G: 0, B: 0, A: 1}, 1, 1},
		{"green at a third", 1.0 / 3, Color{R: 0, G: 1, B: 0, A: 1}, 1, 1},
		{"blue at two thirds", 2.0 / 3, Color{R: 0, G: 0, B: 1, A: 1}, 1, 1},
		{"desaturated red", 0, Color{R: 1, G: 0.2, B: 0.2, A: 1}, 0.8, 1},
		{"black", 0.5, Color{A: 1}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHueCycle(1, tt.sat, tt.br)
			h.Advance(tt.dt)
			got := h.Color()
			assert.InDelta(t, tt.want.R, got.R, 1e-9)
			assert.InDelta(t, tt.want.G, got.G, 1e-9)
			assert.InDelta(t, tt.want.B, got.B, 1e-9)
			assert.Equal(t, 1.0, got.A)
		})
	}
}

func TestColor_NRGBA(t *testing.T) {
	c := Color{R: 1, G: 0.5, B: -1, A: 2}.NRGBA()
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(128), c.G)
	assert.Equal(t, uint8(0), c.B)
	assert.Equal(t, uint8(255), c.A)
}
