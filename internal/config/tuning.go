package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/lidarpaint/internal/lidar"
)

// DefaultConfigPath is the path to the canonical scanner defaults file.
const DefaultConfigPath = "config/scanner.defaults.json"

// ScannerTuning is the on-disk form of lidar.Config. Every field is
// optional; absent fields fall back to the stock handheld tuning.
type ScannerTuning struct {
	// Color cycle
	CycleSpeed   *float64 `json:"cycle_speed,omitempty"`
	Saturation   *float64 `json:"saturation,omitempty"`
	Brightness   *float64 `json:"brightness,omitempty"`
	RayAlphaBase *float64 `json:"ray_alpha_base,omitempty"`

	// Dots
	DotsPerPulse   *int     `json:"dots_per_pulse,omitempty"`
	DotSpreadAngle *float64 `json:"dot_spread_angle,omitempty"`
	MaxDistance    *float64 `json:"max_distance,omitempty"`
	DotScale       *float64 `json:"dot_scale,omitempty"`

	// Dot buffer
	MaxPersistentDots *int     `json:"max_persistent_dots,omitempty"`
	MinDotDistance    *float64 `json:"min_dot_distance,omitempty"`
	DedupMode         *string  `json:"dedup_mode,omitempty"` // "grid" or "linear"

	// Beams
	RayCount         *int     `json:"ray_count,omitempty"`
	RaySpreadAngle   *float64 `json:"ray_spread_angle,omitempty"`
	RotationPerPulse *float64 `json:"rotation_per_pulse,omitempty"`
	RayWidth         *float64 `json:"ray_width,omitempty"`
	ClipBeamsToHits  *bool    `json:"clip_beams_to_hits,omitempty"`
	MuzzleOffset     *float64 `json:"muzzle_offset,omitempty"`

	// Timing
	FadeCurve         *string      `json:"fade_curve,omitempty"`     // named curve
	FadeKeyframes     [][2]float64 `json:"fade_keyframes,omitempty"` // [time, value] pairs; overrides fade_curve
	FadeDuration      *string      `json:"fade_duration,omitempty"`  // duration string like "100ms"
	RayPulseInterval  *string      `json:"ray_pulse_interval,omitempty"`
	WallCheckDistance *float64     `json:"wall_check_distance,omitempty"`
	HitLayers         []int        `json:"hit_layers,omitempty"` // layer indices; empty means all
}

// stock supplies every default so the tuning file and lidar.DefaultConfig
// cannot disagree.
var stock = lidar.DefaultConfig()

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }
func ptrBool(v bool) *bool          { return &v }

// EmptyScannerTuning returns a tuning with every field unset.
func EmptyScannerTuning() *ScannerTuning {
	return &ScannerTuning{}
}

// LoadScannerTuning loads a ScannerTuning from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadScannerTuning(path string) (*ScannerTuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyScannerTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for tests and command defaults.
func MustLoadDefaultConfig() *ScannerTuning {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,          // from cmd/
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/lidar/world/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadScannerTuning(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks the fields that cannot be checked after conversion:
// duration strings, names and layer indices. Range checks happen in
// lidar.Config.Validate once the tuning is resolved.
func (c *ScannerTuning) Validate() error {
	var errs []error

	for name, v := range map[string]*string{
		"fade_duration":      c.FadeDuration,
		"ray_pulse_interval": c.RayPulseInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		if _, err := time.ParseDuration(*v); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s '%s': %w", name, *v, err))
		}
	}

	if c.DedupMode != nil {
		if _, ok := lidar.ParseDedupMode(*c.DedupMode); !ok {
			errs = append(errs, fmt.Errorf("dedup_mode must be \"grid\" or \"linear\", got %q", *c.DedupMode))
		}
	}

	if len(c.FadeKeyframes) > 0 {
		if _, err := lidar.KeyframeCurve(c.keyframes()...); err != nil {
			errs = append(errs, fmt.Errorf("fade_keyframes: %w", err))
		}
	} else if c.FadeCurve != nil {
		if _, err := lidar.FadeCurveByName(*c.FadeCurve); err != nil {
			errs = append(errs, fmt.Errorf("fade_curve: %w", err))
		}
	}

	for _, l := range c.HitLayers {
		if l < 0 || l > 31 {
			errs = append(errs, fmt.Errorf("hit_layers entries must be in [0,31], got %d", l))
		}
	}

	return errors.Join(errs...)
}

func (c *ScannerTuning) keyframes() []lidar.Keyframe {
	keys := make([]lidar.Keyframe, len(c.FadeKeyframes))
	for i, k := range c.FadeKeyframes {
		keys[i] = lidar.Keyframe{Time: k[0], Value: k[1]}
	}
	return keys
}

// ScannerConfig resolves the tuning into a lidar.Config. Call Validate
// first; unparseable values fall back to their defaults here.
func (c *ScannerTuning) ScannerConfig() lidar.Config {
	return lidar.Config{
		CycleSpeed:   c.GetCycleSpeed(),
		Saturation:   c.GetSaturation(),
		Brightness:   c.GetBrightness(),
		RayAlphaBase: c.GetRayAlphaBase(),

		DotsPerPulse:   c.GetDotsPerPulse(),
		DotSpreadAngle: c.GetDotSpreadAngle(),
		MaxDistance:    c.GetMaxDistance(),
		DotScale:       getFloat(c.DotScale, stock.DotScale),

		MaxPersistentDots: c.GetMaxPersistentDots(),
		MinDotDistance:    c.GetMinDotDistance(),
		DedupMode:         c.GetDedupMode(),

		RayCount:         c.GetRayCount(),
		RaySpreadAngle:   c.GetRaySpreadAngle(),
		RotationPerPulse: c.GetRotationPerPulse(),
		RayWidth:         getFloat(c.RayWidth, stock.RayWidth),
		ClipBeamsToHits:  getBool(c.ClipBeamsToHits, stock.ClipBeamsToHits),
		MuzzleOffset:     getFloat(c.MuzzleOffset, stock.MuzzleOffset),

		FadeCurve:         c.GetFadeCurve(),
		FadeDuration:      c.GetFadeDuration(),
		RayPulseInterval:  c.GetRayPulseInterval(),
		WallCheckDistance: c.GetWallCheckDistance(),

		HitLayers: c.GetHitLayers(),
	}
}

func getFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func getInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func getBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func getDuration(p *string, def time.Duration) time.Duration {
	if p == nil || *p == "" {
		return def
	}
	d, err := time.ParseDuration(*p)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetCycleSpeed returns the cycle_speed value or the default.
func (c *ScannerTuning) GetCycleSpeed() float64 {
	return getFloat(c.CycleSpeed, stock.CycleSpeed)
}

// GetSaturation returns the saturation value or the default.
func (c *ScannerTuning) GetSaturation() float64 {
	return getFloat(c.Saturation, stock.Saturation)
}

// GetBrightness returns the brightness value or the default.
func (c *ScannerTuning) GetBrightness() float64 {
	return getFloat(c.Brightness, stock.Brightness)
}

// GetRayAlphaBase returns the ray_alpha_base value or the default.
func (c *ScannerTuning) GetRayAlphaBase() float64 {
	return getFloat(c.RayAlphaBase, stock.RayAlphaBase)
}

// GetDotsPerPulse returns the dots_per_pulse value or the default.
func (c *ScannerTuning) GetDotsPerPulse() int {
	return getInt(c.DotsPerPulse, stock.DotsPerPulse)
}

// GetDotSpreadAngle returns the dot_spread_angle value or the default.
func (c *ScannerTuning) GetDotSpreadAngle() float64 {
	return getFloat(c.DotSpreadAngle, stock.DotSpreadAngle)
}

// GetMaxDistance returns the max_distance value or the default.
func (c *ScannerTuning) GetMaxDistance() float64 {
	return getFloat(c.MaxDistance, stock.MaxDistance)
}

// GetMaxPersistentDots returns the max_persistent_dots value or the default.
func (c *ScannerTuning) GetMaxPersistentDots() int {
	return getInt(c.MaxPersistentDots, stock.MaxPersistentDots)
}

// GetMinDotDistance returns the min_dot_distance value or the default.
func (c *ScannerTuning) GetMinDotDistance() float64 {
	return getFloat(c.MinDotDistance, stock.MinDotDistance)
}

// GetDedupMode returns the parsed dedup_mode or the default.
func (c *ScannerTuning) GetDedupMode() lidar.DedupMode {
	if c.DedupMode == nil {
		return stock.DedupMode
	}
	m, ok := lidar.ParseDedupMode(*c.DedupMode)
	if !ok {
		return stock.DedupMode
	}
	return m
}

// GetRayCount returns the ray_count value or the default.
func (c *ScannerTuning) GetRayCount() int {
	return getInt(c.RayCount, stock.RayCount)
}

// GetRaySpreadAngle returns the ray_spread_angle value or the default.
func (c *ScannerTuning) GetRaySpreadAngle() float64 {
	return getFloat(c.RaySpreadAngle, stock.RaySpreadAngle)
}

// GetRotationPerPulse returns the rotation_per_pulse value or the default.
func (c *ScannerTuning) GetRotationPerPulse() float64 {
	return getFloat(c.RotationPerPulse, stock.RotationPerPulse)
}

// GetFadeCurve returns the keyframe curve if set, else the named curve,
// else the default.
func (c *ScannerTuning) GetFadeCurve() lidar.FadeCurve {
	if len(c.FadeKeyframes) > 0 {
		if curve, err := lidar.KeyframeCurve(c.keyframes()...); err == nil {
			return curve
		}
	}
	if c.FadeCurve != nil {
		if curve, err := lidar.FadeCurveByName(*c.FadeCurve); err == nil {
			return curve
		}
	}
	return stock.FadeCurve
}

// GetFadeDuration parses and returns fade_duration.
func (c *ScannerTuning) GetFadeDuration() time.Duration {
	return getDuration(c.FadeDuration, stock.FadeDuration)
}

// GetRayPulseInterval parses and returns ray_pulse_interval.
func (c *ScannerTuning) GetRayPulseInterval() time.Duration {
	return getDuration(c.RayPulseInterval, stock.RayPulseInterval)
}

// GetWallCheckDistance returns the wall_check_distance value or the default.
func (c *ScannerTuning) GetWallCheckDistance() float64 {
	return getFloat(c.WallCheckDistance, stock.WallCheckDistance)
}

// GetHitLayers returns the mask for hit_layers, or the default when unset.
func (c *ScannerTuning) GetHitLayers() lidar.LayerMask {
	if len(c.HitLayers) == 0 {
		return stock.HitLayers
	}
	var m lidar.LayerMask
	for _, l := range c.HitLayers {
		if l >= 0 && l <= 31 {
			m |= lidar.Layer(l)
		}
	}
	return m
}
