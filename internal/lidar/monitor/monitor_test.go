package monitor

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lidarpaint/internal/lidar"
)

type fakeSource struct {
	stats lidar.Stats
	dots  []lidar.DotView
	beams []lidar.BeamView
}

func (f *fakeSource) Stats() lidar.Stats { return f.stats }

func (f *fakeSource) Dots(dst []lidar.DotView) []lidar.DotView {
	return append(dst[:0], f.dots...)
}

func (f *fakeSource) Beams(dst []lidar.BeamView) []lidar.BeamView {
	return append(dst[:0], f.beams...)
}

func paintedSource(n int) *fakeSource {
	src := &fakeSource{stats: lidar.Stats{Frames: 10, Pulses: 3, Resident: n, Capacity: 5000, State: lidar.PulsePulsing}}
	for i := 0; i < n; i++ {
		src.dots = append(src.dots, lidar.DotView{
			Position: r3.Vec{X: float64(i%10) * 0.1, Y: 1, Z: 3 + float64(i/10)*0.1},
			Color:    lidar.Color{R: 1, G: float64(i%3) / 2, B: 0, A: 1},
			Scale:    0.02,
		})
	}
	src.beams = []lidar.BeamView{
		{Start: r3.Vec{Y: 1.5}, End: r3.Vec{Y: 1, Z: 3}, Color: lidar.Color{G: 1, A: 0.2}, Width: 0.01, Enabled: true},
		{Start: r3.Vec{Y: 1.5}, End: r3.Vec{X: 1, Y: 1, Z: 3}, Color: lidar.Color{G: 1, A: 0.2}, Width: 0.01},
	}
	return src
}

// loopbackRequest sets RemoteAddr so tsweb.AllowDebugAccess lets the request through.
func loopbackRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestPublisher(t *testing.T) {
	pub := NewPublisher()
	require.NotEmpty(t, pub.RunID())

	_, ok := pub.Latest()
	assert.False(t, ok)

	src := paintedSource(4)
	now := time.Unix(1700000000, 0)
	first := pub.Publish(src, now)
	assert.Equal(t, uint64(1), first.Frame)
	assert.Equal(t, pub.RunID(), first.RunID)
	assert.Len(t, first.Dots, 4)
	assert.Equal(t, 1, first.EnabledBeams())

	// Later changes to the source do not leak into published snapshots.
	src.dots[0].Position.X = 42
	second := pub.Publish(src, now.Add(time.Second))
	assert.Equal(t, uint64(2), second.Frame)
	assert.Equal(t, 0.0, first.Dots[0].Position.X)

	latest, ok := pub.Latest()
	require.True(t, ok)
	assert.Equal(t, second.Frame, latest.Frame)
	assert.Equal(t, 42.0, latest.Dots[0].Position.X)
}

func TestPublisher_DistinctRunIDs(t *testing.T) {
	assert.NotEqual(t, NewPublisher().RunID(), NewPublisher().RunID())
}

func TestSummarize(t *testing.T) {
	snap := NewPublisher().Publish(paintedSource(7), time.Unix(0, 0))
	sum := Summarize(snap)
	assert.Equal(t, "pulsing", strings.ToLower(sum.State))
	assert.Equal(t, 7, sum.Resident)
	assert.Equal(t, 1, sum.EnabledBeams)
	assert.Equal(t, uint64(3), sum.Pulses)
}

func TestCloudPlotter_SavePNG(t *testing.T) {
	snap := NewPublisher().Publish(paintedSource(50), time.Unix(0, 0))
	path := filepath.Join(t.TempDir(), "plots", "cloud.png")

	require.NoError(t, NewCloudPlotter().SavePNG(path, snap))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	require.NoError(t, err)
}

func TestCloudPlotter_EmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCloudPlotter().WritePNG(&buf, Snapshot{}))
	_, err := png.Decode(&buf)
	require.NoError(t, err)
}

func TestCloudPlotter_SquareAxes(t *testing.T) {
	snap := NewPublisher().Publish(paintedSource(50), time.Unix(0, 0))
	p, err := NewCloudPlotter().Plot(snap)
	require.NoError(t, err)
	assert.InDelta(t, p.X.Max-p.X.Min, p.Y.Max-p.Y.Min, 1e-9)
	assert.LessOrEqual(t, p.Y.Min, 1.5)
}

func TestDebugRoutes_BeforeFirstFrame(t *testing.T) {
	mux := http.NewServeMux()
	AttachDebugRoutes(mux, NewPublisher())

	for _, path := range []string{"/debug/scan", "/debug/scan-cloud", "/debug/scan-plot.png"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, loopbackRequest(http.MethodGet, path))
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestDebugRoutes_Scan(t *testing.T) {
	pub := NewPublisher()
	pub.Publish(paintedSource(12), time.Unix(1700000000, 0))

	mux := http.NewServeMux()
	AttachDebugRoutes(mux, pub)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, loopbackRequest(http.MethodGet, "/debug/scan"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sum ScanSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sum))
	assert.Equal(t, pub.RunID(), sum.RunID)
	assert.Equal(t, uint64(1), sum.Frame)
	assert.Equal(t, 12, sum.Resident)
}

func TestDebugRoutes_ScanCloud(t *testing.T) {
	pub := NewPublisher()
	pub.Publish(paintedSource(1000), time.Unix(0, 0))

	mux := http.NewServeMux()
	AttachDebugRoutes(mux, pub)

	tests := []struct {
		query      string
		wantPoints string
	}{
		{"", "points=1000 stride=1"},
		{"?max_points=250", "points=250 stride=4"},
		{"?max_points=10", "points=1000 stride=1"},
		{"?max_points=bogus", "points=1000 stride=1"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, loopbackRequest(http.MethodGet, "/debug/scan-cloud"+tt.query))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, w.Body.String(), tt.wantPoints)
		})
	}
}

func TestDebugRoutes_ScanPlot(t *testing.T) {
	pub := NewPublisher()
	pub.Publish(paintedSource(20), time.Unix(0, 0))

	mux := http.NewServeMux()
	AttachDebugRoutes(mux, pub)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, loopbackRequest(http.MethodGet, "/debug/scan-plot.png"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err := png.Decode(w.Body)
	require.NoError(t, err)
}

func TestDebugRoutes_RejectsRemote(t *testing.T) {
	pub := NewPublisher()
	pub.Publish(paintedSource(1), time.Unix(0, 0))
	mux := http.NewServeMux()
	AttachDebugRoutes(mux, pub)

	req := httptest.NewRequest(http.MethodGet, "/debug/scan", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.NotEqual(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "run_id")
}

func TestSetLogWriters(t *testing.T) {
	var ops, diag bytes.Buffer
	SetLogWriters(&ops, &diag)
	t.Cleanup(func() { SetLogWriters(nil, nil) })

	NewPublisher().Publish(paintedSource(2), time.Unix(0, 0))
	assert.Contains(t, diag.String(), "[monitor] ")
	assert.Contains(t, diag.String(), "dots=2")
	assert.Empty(t, ops.String())
}
