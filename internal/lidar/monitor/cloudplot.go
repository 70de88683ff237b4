package monitor

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/lidarpaint/internal/lidar"
)

// CloudPlotter draws a top-down (X right, Z up the page) view of a
// snapshot: every dot in its own color and every visible beam as a line.
type CloudPlotter struct {
	Width     vg.Length
	Height    vg.Length
	DotRadius vg.Length
	BeamWidth vg.Length
	Pad       float64 // metres around the data
}

// NewCloudPlotter returns a plotter producing 8x8 inch images.
func NewCloudPlotter() *CloudPlotter {
	return &CloudPlotter{
		Width:     8 * vg.Inch,
		Height:    8 * vg.Inch,
		DotRadius: vg.Points(1.2),
		BeamWidth: vg.Points(0.5),
		Pad:       0.5,
	}
}

// Plot builds the plot for snap.
func (cp *CloudPlotter) Plot(snap Snapshot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Scan %s frame %d (%d dots)", shortID(snap.RunID), snap.Frame, len(snap.Dots))
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Z (m)"
	p.BackgroundColor = color.Black
	p.Title.TextStyle.Color = color.White
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Color = color.White
		ax.Label.TextStyle.Color = color.White
		ax.Tick.Color = color.White
		ax.Tick.Label.Color = color.White
	}

	minX, maxX, minZ, maxZ := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	extend := func(x, z float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minZ, maxZ = math.Min(minZ, z), math.Max(maxZ, z)
	}

	if len(snap.Dots) > 0 {
		pts := make(plotter.XYs, len(snap.Dots))
		for i, d := range snap.Dots {
			pts[i] = plotter.XY{X: d.Position.X, Y: d.Position.Z}
			extend(d.Position.X, d.Position.Z)
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("dot scatter: %w", err)
		}
		dots := snap.Dots
		radius := cp.DotRadius
		sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
			return draw.GlyphStyle{Color: dots[i].Color.WithAlpha(1).NRGBA(), Radius: radius, Shape: draw.CircleGlyph{}}
		}
		p.Add(sc)
	}

	for _, b := range snap.Beams {
		if !b.Enabled {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{
			{X: b.Start.X, Y: b.Start.Z},
			{X: b.End.X, Y: b.End.Z},
		})
		if err != nil {
			return nil, fmt.Errorf("beam line: %w", err)
		}
		line.Color = beamColor(b.Color)
		line.Width = cp.BeamWidth
		p.Add(line)
		extend(b.Start.X, b.Start.Z)
	}

	if math.IsInf(minX, 1) {
		minX, maxX, minZ, maxZ = -1, 1, -1, 1
	}
	// Square axes so the room is not distorted.
	half := math.Max(maxX-minX, maxZ-minZ)/2 + cp.Pad
	cx, cz := (minX+maxX)/2, (minZ+maxZ)/2
	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cz-half, cz+half

	return p, nil
}

// WritePNG renders snap as PNG to w.
func (cp *CloudPlotter) WritePNG(w io.Writer, snap Snapshot) error {
	p, err := cp.Plot(snap)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(cp.Width, cp.Height, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SavePNG renders snap to path, creating parent directories.
func (cp *CloudPlotter) SavePNG(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	p, err := cp.Plot(snap)
	if err != nil {
		return err
	}
	if err := p.Save(cp.Width, cp.Height, path); err != nil {
		opsf("save cloud plot %s: %v", path, err)
		return fmt.Errorf("save cloud plot: %w", err)
	}
	diagf("saved cloud plot %s (%d dots)", path, len(snap.Dots))
	return nil
}

// beamColor lifts faint beam alpha so beams stay visible on a still image.
func beamColor(c lidar.Color) color.NRGBA {
	return c.WithAlpha(math.Max(c.A, 0.35)).NRGBA()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
