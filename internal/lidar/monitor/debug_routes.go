package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	colorful "github.com/lucasb-eyer/go-colorful"
	"tailscale.com/tsweb"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ScanSummary is the JSON body of /debug/scan.
type ScanSummary struct {
	RunID        string    `json:"run_id"`
	Frame        uint64    `json:"frame"`
	Time         time.Time `json:"time"`
	State        string    `json:"state"`
	Hue          float64   `json:"hue"`
	Resident     int       `json:"resident"`
	Capacity     int       `json:"capacity"`
	EnabledBeams int       `json:"enabled_beams"`
	Frames       uint64    `json:"frames"`
	Pulses       uint64    `json:"pulses"`
	ProbeMisses  uint64    `json:"probe_misses"`
	RaysCast     uint64    `json:"rays_cast"`
	RaysMissed   uint64    `json:"rays_missed"`
	DotsAccepted uint64    `json:"dots_accepted"`
	DotsRejected uint64    `json:"dots_rejected"`
	DotsEvicted  uint64    `json:"dots_evicted"`
}

// Summarize flattens snap into its JSON summary.
func Summarize(snap Snapshot) ScanSummary {
	st := snap.Stats
	return ScanSummary{
		RunID:        snap.RunID,
		Frame:        snap.Frame,
		Time:         snap.Time,
		State:        st.State.String(),
		Hue:          st.Hue,
		Resident:     st.Resident,
		Capacity:     st.Capacity,
		EnabledBeams: snap.EnabledBeams(),
		Frames:       st.Frames,
		Pulses:       st.Pulses,
		ProbeMisses:  st.ProbeMisses,
		RaysCast:     st.RaysCast,
		RaysMissed:   st.RaysMissed,
		DotsAccepted: st.DotsAccepted,
		DotsRejected: st.DotsRejected,
		DotsEvicted:  st.DotsEvicted,
	}
}

// AttachDebugRoutes registers the scan debug pages on mux under /debug/.
func AttachDebugRoutes(mux *http.ServeMux, pub *Publisher) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("scan", "latest scanner counters (JSON)", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := pub.Latest()
		if !ok {
			writeJSONError(w, http.StatusNotFound, "no frame published yet")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Summarize(snap)); err != nil {
			opsf("encode scan summary: %v", err)
		}
	})

	// Query params:
	//   - max_points (optional; default 8000) to reduce payload size
	debug.HandleFunc("scan-cloud", "top-down scatter of painted dots", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := pub.Latest()
		if !ok {
			writeJSONError(w, http.StatusNotFound, "no frame published yet")
			return
		}
		maxPoints := 8000
		if mp := r.URL.Query().Get("max_points"); mp != "" {
			if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
				maxPoints = v
			}
		}

		var buf bytes.Buffer
		if err := renderCloudChart(&buf, snap, maxPoints); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})

	debug.HandleSilentFunc("scan-plot.png", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := pub.Latest()
		if !ok {
			writeJSONError(w, http.StatusNotFound, "no frame published yet")
			return
		}
		var buf bytes.Buffer
		if err := NewCloudPlotter().WritePNG(&buf, snap); err != nil {
			opsf("render scan plot: %v", err)
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	})
}

// renderCloudChart writes an echarts scatter of the dots in X/Z, colored by
// the hue each dot was painted with.
func renderCloudChart(buf *bytes.Buffer, snap Snapshot, maxPoints int) error {
	stride := 1
	if len(snap.Dots) > maxPoints {
		stride = int(math.Ceil(float64(len(snap.Dots)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(snap.Dots)/stride+1)
	maxAbs := 0.0
	for i := 0; i < len(snap.Dots); i += stride {
		d := snap.Dots[i]
		x, z := d.Position.X, d.Position.Z
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(x), math.Abs(z)))
		h, _, _ := colorful.Color{R: d.Color.R, G: d.Color.G, B: d.Color.B}.Hsv()
		data = append(data, opts.ScatterData{Value: []interface{}{x, z, h}})
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "LiDAR Paint (top-down)", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Painted dots", Subtitle: fmt.Sprintf("run=%s frame=%d points=%d stride=%d", shortID(snap.RunID), snap.Frame, len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Z (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:      opts.Bool(true),
			Min:       0,
			Max:       360,
			Dimension: "2",
			InRange:   &opts.VisualMapInRange{Color: []string{"#ff0000", "#ffff00", "#00ff00", "#00ffff", "#0000ff", "#ff00ff", "#ff0000"}},
		}),
	)
	scatter.AddSeries("dots", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter.Render(buf)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
