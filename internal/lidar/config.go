package lidar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig wraps every configuration violation found by Validate.
var ErrInvalidConfig = errors.New("invalid scanner config")

// Config holds the scanner's tunable constants. Values are fixed for the
// life of a Scanner; ray count and buffer capacity size its arenas.
type Config struct {
	// Color cycle
	CycleSpeed   float64 // hue revolutions per second
	Saturation   float64 // 0..1
	Brightness   float64 // 0..1
	RayAlphaBase float64 // 0..255

	// Dots
	DotsPerPulse   int
	DotSpreadAngle float64 // degrees
	MaxDistance    float64 // metres
	DotScale       float64 // metres, render size

	// Dot buffer
	MaxPersistentDots int
	MinDotDistance    float64 // metres; 0 disables dedup
	DedupMode         DedupMode

	// Beams
	RayCount         int
	RaySpreadAngle   float64 // degrees
	RotationPerPulse float64 // degrees
	RayWidth         float64 // metres, render size
	ClipBeamsToHits  bool
	MuzzleOffset     float64 // metres along forward for beam origins

	// Timing
	FadeCurve         FadeCurve
	FadeDuration      time.Duration
	RayPulseInterval  time.Duration
	WallCheckDistance float64 // metres

	HitLayers LayerMask
}

// DefaultConfig returns the stock handheld scanner tuning.
func DefaultConfig() Config {
	return Config{
		CycleSpeed:   0.02,
		Saturation:   0.8,
		Brightness:   1.0,
		RayAlphaBase: 30,

		DotsPerPulse:   40,
		DotSpreadAngle: 25,
		MaxDistance:    50,
		DotScale:       0.005,

		MaxPersistentDots: 3000,
		MinDotDistance:    0.15,
		DedupMode:         DedupGrid,

		RayCount:         8,
		RaySpreadAngle:   10,
		RotationPerPulse: 15,
		RayWidth:         0.001,

		FadeCurve:         LinearFade,
		FadeDuration:      100 * time.Millisecond,
		RayPulseInterval:  100 * time.Millisecond,
		WallCheckDistance: 40,

		HitLayers: AllLayers,
	}
}

// Validate reports every out-of-range value, joined, each wrapping
// ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.MaxPersistentDots <= 0 {
		bad("max_persistent_dots must be positive, got %d", c.MaxPersistentDots)
	}
	if c.RayPulseInterval <= 0 {
		bad("ray_pulse_interval must be positive, got %v", c.RayPulseInterval)
	}
	if c.FadeDuration <= 0 {
		bad("fade_duration must be positive, got %v", c.FadeDuration)
	}
	if c.RayCount <= 0 {
		bad("ray_count must be positive, got %d", c.RayCount)
	}
	if c.DotsPerPulse <= 0 {
		bad("dots_per_pulse must be positive, got %d", c.DotsPerPulse)
	}
	if c.MaxDistance <= 0 {
		bad("max_distance must be positive, got %g", c.MaxDistance)
	}
	if c.WallCheckDistance <= 0 {
		bad("wall_check_distance must be positive, got %g", c.WallCheckDistance)
	}
	if c.MinDotDistance < 0 {
		bad("min_dot_distance must be non-negative, got %g", c.MinDotDistance)
	}
	if c.DotSpreadAngle < 0 || c.DotSpreadAngle > 180 {
		bad("dot_spread_angle must be in [0,180], got %g", c.DotSpreadAngle)
	}
	if c.RaySpreadAngle < 0 || c.RaySpreadAngle > 180 {
		bad("ray_spread_angle must be in [0,180], got %g", c.RaySpreadAngle)
	}
	if c.CycleSpeed < 0 {
		bad("cycle_speed must be non-negative, got %g", c.CycleSpeed)
	}
	if c.Saturation < 0 || c.Saturation > 1 {
		bad("saturation must be in [0,1], got %g", c.Saturation)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		bad("brightness must be in [0,1], got %g", c.Brightness)
	}
	if c.RayAlphaBase < 0 || c.RayAlphaBase > 255 {
		bad("ray_alpha_base must be in [0,255], got %g", c.RayAlphaBase)
	}
	if c.DotScale < 0 {
		bad("dot_scale must be non-negative, got %g", c.DotScale)
	}
	if c.RayWidth < 0 {
		bad("ray_width must be non-negative, got %g", c.RayWidth)
	}
	if c.MuzzleOffset < 0 {
		bad("muzzle_offset must be non-negative, got %g", c.MuzzleOffset)
	}
	if c.DedupMode != DedupGrid && c.DedupMode != DedupLinear {
		bad("unknown dedup mode %d", int(c.DedupMode))
	}
	if c.HitLayers == 0 {
		bad("hit_layers must select at least one layer")
	}

	return errors.Join(errs...)
}
