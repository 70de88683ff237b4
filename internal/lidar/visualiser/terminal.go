// Package visualiser draws scanner output to a terminal.
package visualiser

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lidarpaint/internal/lidar"
	"github.com/banshee-data/lidarpaint/internal/lidar/monitor"
)

const (
	dotRune      = '•'
	beamRune     = '·'
	operatorRune = '@'
)

// TerminalView renders a top-down map of a snapshot: X across the screen,
// Z up the screen, centred on the operator. The bottom row is a status line.
type TerminalView struct {
	screen tcell.Screen

	// Scale is terminal rows per metre. Columns use twice this since cells
	// are roughly twice as tall as they are wide.
	Scale float64
}

// NewTerminalView wraps an initialised screen.
func NewTerminalView(screen tcell.Screen) *TerminalView {
	return &TerminalView{screen: screen, Scale: 2}
}

// Zoom multiplies the scale by f, keeping it within [0.25, 32].
func (v *TerminalView) Zoom(f float64) {
	v.Scale = math.Max(0.25, math.Min(32, v.Scale*f))
}

// Draw clears the screen, paints snap around the operator at pose and shows
// status on the last row.
func (v *TerminalView) Draw(snap monitor.Snapshot, pose lidar.Pose, status string) {
	v.screen.Clear()
	w, h := v.screen.Size()
	if w <= 0 || h <= 1 {
		v.screen.Show()
		return
	}
	mapH := h - 1
	centre := pose.Position

	for _, b := range snap.Beams {
		if !b.Enabled {
			continue
		}
		x0, y0 := v.project(b.Start, centre, w, mapH)
		x1, y1 := v.project(b.End, centre, w, mapH)
		style := tcell.StyleDefault.Foreground(termColor(b.Color, math.Max(b.Color.A, 0.3)))
		line(x0, y0, x1, y1, func(x, y int) {
			v.set(x, y, mapH, w, beamRune, style)
		})
	}

	// Dots go over beams, oldest first so newer paint wins a shared cell.
	for _, d := range snap.Dots {
		x, y := v.project(d.Position, centre, w, mapH)
		v.set(x, y, mapH, w, dotRune, tcell.StyleDefault.Foreground(termColor(d.Color, 1)))
	}

	ox, oy := v.project(centre, centre, w, mapH)
	v.set(ox, oy, mapH, w, operatorRune, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))
	hx, hy := v.project(r3.Add(centre, r3.Scale(1/v.Scale, pose.Forward)), centre, w, mapH)
	if hx != ox || hy != oy {
		v.set(hx, hy, mapH, w, headingRune(pose.Forward), tcell.StyleDefault.Foreground(tcell.ColorWhite))
	}

	statusStyle := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	col := 0
	for _, r := range status {
		if col >= w {
			break
		}
		v.screen.SetContent(col, h-1, r, nil, statusStyle)
		col++
	}
	for ; col < w; col++ {
		v.screen.SetContent(col, h-1, ' ', nil, statusStyle)
	}

	v.screen.Show()
}

// project maps a world point to a cell; the result may be off screen.
func (v *TerminalView) project(p, centre r3.Vec, w, h int) (int, int) {
	x := w/2 + int(math.Round((p.X-centre.X)*v.Scale*2))
	y := h/2 - int(math.Round((p.Z-centre.Z)*v.Scale))
	return x, y
}

func (v *TerminalView) set(x, y, h, w int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	v.screen.SetContent(x, y, r, nil, style)
}

func termColor(c lidar.Color, intensity float64) tcell.Color {
	n := c.WithAlpha(1).NRGBA()
	k := clamp01(intensity)
	return tcell.NewRGBColor(
		int32(float64(n.R)*k),
		int32(float64(n.G)*k),
		int32(float64(n.B)*k),
	)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// headingRune picks an arrow for the horizontal heading of forward.
func headingRune(forward r3.Vec) rune {
	deg := math.Atan2(forward.X, forward.Z) * 180 / math.Pi
	arrows := []rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}
	i := int(math.Round(deg/45)) % 8
	if i < 0 {
		i += 8
	}
	return arrows[i]
}

// line walks cells from (x0,y0) to (x1,y1) inclusive (Bresenham).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
