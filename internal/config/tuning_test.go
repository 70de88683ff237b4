package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/lidarpaint/internal/lidar"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestEmptyScannerTuningMatchesDefaultConfig(t *testing.T) {
	got := EmptyScannerTuning().ScannerConfig()
	want := lidar.DefaultConfig()

	// Function values cannot be compared; check the curve by sampling.
	if got.FadeCurve(0.25) != want.FadeCurve(0.25) {
		t.Errorf("FadeCurve(0.25) = %v, want %v", got.FadeCurve(0.25), want.FadeCurve(0.25))
	}
	got.FadeCurve, want.FadeCurve = nil, nil
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScannerConfig() mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	sc := cfg.ScannerConfig()
	sc.FadeCurve = nil
	want := lidar.DefaultConfig()
	want.FadeCurve = nil
	if diff := cmp.Diff(want, sc); diff != "" {
		t.Errorf("defaults file diverges from DefaultConfig (-want +got):\n%s", diff)
	}
}

func TestLoadScannerTuning(t *testing.T) {
	path := writeConfig(t, "scanner.json", `{
  "dots_per_pulse": 64,
  "min_dot_distance": 0.05,
  "dedup_mode": "linear",
  "ray_count": 12,
  "clip_beams_to_hits": true,
  "muzzle_offset": 0.05,
  "fade_curve": "ease-out",
  "fade_duration": "250ms",
  "ray_pulse_interval": "50ms",
  "hit_layers": [0, 3]
}`)

	tuning, err := LoadScannerTuning(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	cfg := tuning.ScannerConfig()

	if cfg.DotsPerPulse != 64 {
		t.Errorf("DotsPerPulse = %d, want 64", cfg.DotsPerPulse)
	}
	if cfg.MinDotDistance != 0.05 {
		t.Errorf("MinDotDistance = %v, want 0.05", cfg.MinDotDistance)
	}
	if cfg.DedupMode != lidar.DedupLinear {
		t.Errorf("DedupMode = %s, want linear", cfg.DedupMode)
	}
	if cfg.RayCount != 12 {
		t.Errorf("RayCount = %d, want 12", cfg.RayCount)
	}
	if !cfg.ClipBeamsToHits || cfg.MuzzleOffset != 0.05 {
		t.Errorf("clip/muzzle = %v/%v, want true/0.05", cfg.ClipBeamsToHits, cfg.MuzzleOffset)
	}
	if cfg.FadeDuration != 250*time.Millisecond {
		t.Errorf("FadeDuration = %v, want 250ms", cfg.FadeDuration)
	}
	if cfg.RayPulseInterval != 50*time.Millisecond {
		t.Errorf("RayPulseInterval = %v, want 50ms", cfg.RayPulseInterval)
	}
	if got := cfg.FadeCurve(0.5); got != 0.75 {
		t.Errorf("ease-out(0.5) = %v, want 0.75", got)
	}
	if cfg.HitLayers != lidar.Layer(0)|lidar.Layer(3) {
		t.Errorf("HitLayers = %b, want layers 0 and 3", cfg.HitLayers)
	}

	// Unset fields keep their defaults.
	if cfg.CycleSpeed != 0.02 || cfg.MaxPersistentDots != 3000 {
		t.Errorf("unset fields not defaulted: cycle=%v capacity=%d", cfg.CycleSpeed, cfg.MaxPersistentDots)
	}
}

func TestLoadScannerTuning_Keyframes(t *testing.T) {
	path := writeConfig(t, "keys.json", `{
  "fade_curve": "linear",
  "fade_keyframes": [[0, 1], [0.8, 0.9], [1, 0]]
}`)
	tuning, err := LoadScannerTuning(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	curve := tuning.ScannerConfig().FadeCurve
	if got := curve(0.4); got < 0.95-1e-9 || got > 0.95+1e-9 {
		t.Errorf("curve(0.4) = %v, want 0.95", got)
	}
	if got := curve(0.9); got < 0.45-1e-9 || got > 0.45+1e-9 {
		t.Errorf("curve(0.9) = %v, want 0.45", got)
	}
}

func TestLoadScannerTuningErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "scanner.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"ray_count": "eight"`, "parse config JSON"},
		{"bad duration", "dur.json", `{"fade_duration": "soon"}`, "fade_duration"},
		{"bad dedup", "dedup.json", `{"dedup_mode": "octree"}`, "dedup_mode"},
		{"bad curve", "curve.json", `{"fade_curve": "bounce"}`, "fade_curve"},
		{"rising keyframes", "keys.json", `{"fade_keyframes": [[0, 0], [1, 1]]}`, "fade_keyframes"},
		{"bad layer", "layer.json", `{"hit_layers": [40]}`, "hit_layers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadScannerTuning(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadScannerTuningMissing(t *testing.T) {
	if _, err := LoadScannerTuning("/nonexistent/path/to/scanner.json"); err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadScannerTuningTooLarge(t *testing.T) {
	body := `{"cycle_speed": 0.02` + strings.Repeat(" ", 1024*1024) + `}`
	path := writeConfig(t, "big.json", body)
	_, err := LoadScannerTuning(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("error = %v, want too large", err)
	}
}

func TestScannerConfigRangeErrorsSurfaceInLidar(t *testing.T) {
	tuning := &ScannerTuning{
		MaxPersistentDots: ptrInt(0),
		Saturation:        ptrFloat64(2),
		DedupMode:         ptrString("grid"),
		ClipBeamsToHits:   ptrBool(false),
	}
	if err := tuning.Validate(); err != nil {
		t.Fatalf("Validate() = %v, range checks belong to lidar.Config", err)
	}
	err := tuning.ScannerConfig().Validate()
	if err == nil {
		t.Fatal("expected lidar.Config.Validate to reject zero capacity")
	}
	for _, want := range []string{"max_persistent_dots", "saturation"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestGettersFallBackToLidarDefaults(t *testing.T) {
	empty := EmptyScannerTuning()
	d := lidar.DefaultConfig()

	tests := []struct {
		name      string
		got, want interface{}
	}{
		{"cycle_speed", empty.GetCycleSpeed(), d.CycleSpeed},
		{"ray_alpha_base", empty.GetRayAlphaBase(), d.RayAlphaBase},
		{"dots_per_pulse", empty.GetDotsPerPulse(), d.DotsPerPulse},
		{"max_persistent_dots", empty.GetMaxPersistentDots(), d.MaxPersistentDots},
		{"min_dot_distance", empty.GetMinDotDistance(), d.MinDotDistance},
		{"dedup_mode", empty.GetDedupMode(), d.DedupMode},
		{"ray_count", empty.GetRayCount(), d.RayCount},
		{"rotation_per_pulse", empty.GetRotationPerPulse(), d.RotationPerPulse},
		{"fade_duration", empty.GetFadeDuration(), d.FadeDuration},
		{"ray_pulse_interval", empty.GetRayPulseInterval(), d.RayPulseInterval},
		{"wall_check_distance", empty.GetWallCheckDistance(), d.WallCheckDistance},
		{"hit_layers", empty.GetHitLayers(), d.HitLayers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("default %s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	// Unparseable values fall back to the same defaults.
	bad := &ScannerTuning{DedupMode: ptrString("octree"), FadeDuration: ptrString("soon")}
	if got := bad.GetDedupMode(); got != d.DedupMode {
		t.Errorf("GetDedupMode(octree) = %s, want %s", got, d.DedupMode)
	}
	if got := bad.GetFadeDuration(); got != d.FadeDuration {
		t.Errorf("GetFadeDuration(soon) = %v, want %v", got, d.FadeDuration)
	}
}
