package lidar

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/banshee-data/lidarpaint/internal/timeutil"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoPoseSource is returned by NewScanner without a pose source.
	ErrNoPoseSource = errors.New("scanner has no pose source")
	// ErrNoRayCaster is returned by NewScanner without a ray caster.
	ErrNoRayCaster = errors.New("scanner has no ray caster")
)

// Option customises a Scanner at construction.
type Option func(*Scanner)

// WithClock sets the time source. The default is timeutil.RealClock.
func WithClock(c timeutil.Clock) Option {
	return func(s *Scanner) { s.clock = c }
}

// WithRand sets the random source used for dot sampling.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scanner) { s.rng = rng }
}

// WithSeed seeds a private random source for reproducible scans.
func WithSeed(seed int64) Option {
	return func(s *Scanner) { s.rng = rand.New(rand.NewSource(seed)) }
}

// TickResult summarises one frame.
type TickResult struct {
	Decision PulseDecision
	Pulsed   bool
	Accepted int // dots accepted this frame
	Rejected int // dots rejected by dedup this frame
	Missed   int // dot rays that hit nothing this frame
	Started  bool
	Stopped  bool
	Hue      float64
}

// Scanner is the frame-driven paint scanner. It is not safe for concurrent
// use: one goroutine calls Tick and reads outputs between ticks.
type Scanner struct {
	cfg    Config
	pose   PoseSource
	caster RayCaster
	clock  timeutil.Clock
	rng    *rand.Rand

	hue       *HueCycle
	scheduler *PulseScheduler
	dots      *DotBuffer
	fan       *RayFan

	current    Pose
	lastTick   time.Time
	enabled    bool
	active     bool
	closed     bool
	poseWarned bool

	frames      uint64
	probeMisses uint64
	raysCast    uint64
	raysMissed  uint64
}

// NewScanner validates cfg and its collaborators and allocates the dot
// buffer and beam slots. Any problem is reported here; a scanner that was
// not constructed cannot tick.
func NewScanner(cfg Config, pose PoseSource, caster RayCaster, opts ...Option) (*Scanner, error) {
	var errs []error
	if pose == nil {
		errs = append(errs, ErrNoPoseSource)
	}
	if caster == nil {
		errs = append(errs, ErrNoRayCaster)
	}
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		opsf("scanner rejected at startup: %v", err)
		return nil, fmt.Errorf("new scanner: %w", err)
	}
	if cfg.FadeCurve == nil {
		cfg.FadeCurve = LinearFade
	}

	s := &Scanner{
		cfg:       cfg,
		pose:      pose,
		caster:    caster,
		clock:     timeutil.RealClock{},
		hue:       NewHueCycle(cfg.CycleSpeed, cfg.Saturation, cfg.Brightness),
		scheduler: NewPulseScheduler(cfg.RayPulseInterval),
		dots:      NewDotBuffer(cfg.MaxPersistentDots, cfg.MinDotDistance, cfg.DedupMode),
		fan: NewRayFan(RayFanConfig{
			Count:            cfg.RayCount,
			SpreadDeg:        cfg.RaySpreadAngle,
			RotationPerPulse: cfg.RotationPerPulse,
			MaxDistance:      cfg.MaxDistance,
			FadeDuration:     cfg.FadeDuration,
			AlphaBase:        cfg.RayAlphaBase,
			Curve:            cfg.FadeCurve,
		}),
		current: IdentityPose(),
		enabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.clock.Now().UnixNano()))
	}

	diagf("scanner ready: capacity=%d min_dist=%.3f dedup=%s rays=%d interval=%v fade=%v",
		cfg.MaxPersistentDots, cfg.MinDotDistance, cfg.DedupMode, cfg.RayCount, cfg.RayPulseInterval, cfg.FadeDuration)
	return s, nil
}

// Config returns the scanner's configuration.
func (s *Scanner) Config() Config { return s.cfg }

// SetEnabled arms or disarms the scanner independently of the trigger.
func (s *Scanner) SetEnabled(on bool) { s.enabled = on }

// Enabled reports whether the scanner is armed.
func (s *Scanner) Enabled() bool { return s.enabled }

// Tick runs one frame: hue advance, scheduler check, optional sampling and
// pulse, then fade advance. Outputs read after Tick reflect this frame.
func (s *Scanner) Tick(scanning bool) TickResult {
	if s.closed {
		return TickResult{}
	}

	now := s.clock.Now()
	var dt float64
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick).Seconds()
		if dt < 0 {
			dt = 0
		}
	}
	s.lastTick = now
	s.frames++

	s.hue.Advance(dt)
	s.refreshPose()

	scanning = scanning && s.enabled
	res := TickResult{
		Started: scanning && !s.active,
		Stopped: !scanning && s.active,
	}
	s.active = scanning

	nearSurface := false
	if scanning {
		nearSurface = s.probe()
	}

	res.Decision = s.scheduler.Evaluate(now, scanning, nearSurface)
	switch res.Decision {
	case DecisionIdle:
		s.fan.DisableAll()
	case DecisionFire:
		res.Accepted, res.Rejected, res.Missed = s.addDots()
		s.pulse(now)
		res.Pulsed = true
	}

	if scanning {
		s.fan.AdvanceFades(now, s.hue.Color())
	}

	res.Hue = s.hue.Hue()
	s.logTick(dt, res)
	return res
}

// AddDots runs one sampling pass from the current pose and returns how many
// candidates were accepted, rejected as duplicates, and missed.
func (s *Scanner) AddDots() (accepted, rejected, missed int) {
	if s.closed {
		return 0, 0, 0
	}
	s.refreshPose()
	return s.addDots()
}

// Pulse fires the ray fan at the current time.
func (s *Scanner) Pulse() {
	if s.closed {
		return
	}
	s.refreshPose()
	now := s.clock.Now()
	s.pulse(now)
	s.fan.AdvanceFades(now, s.hue.Color())
}

func (s *Scanner) refreshPose() {
	s.current = s.pose.Pose()
	if !s.poseWarned {
		if err := ValidatePose(s.current); err != nil {
			s.poseWarned = true
			opsf("pose source returned a non-rigid pose: %v", err)
		}
	}
}

// probe casts the forward wall-check ray.
func (s *Scanner) probe() bool {
	_, ok := s.caster.Raycast(s.current.Position, r3.Unit(s.current.Forward), s.cfg.WallCheckDistance, s.cfg.HitLayers)
	if !ok {
		s.probeMisses++
	}
	return ok
}

func (s *Scanner) addDots() (accepted, rejected, missed int) {
	color := s.hue.Color()
	origin := s.current.Position
	for i := 0; i < s.cfg.DotsPerPulse; i++ {
		dir := r3.Unit(s.current.TransformDirection(RandomConeDirection(s.rng, s.cfg.DotSpreadAngle)))
		s.raysCast++
		hit, ok := s.caster.Raycast(origin, dir, s.cfg.MaxDistance, s.cfg.HitLayers)
		if !ok {
			s.raysMissed++
			missed++
			continue
		}
		if _, ok := s.dots.Insert(hit.Point, color); ok {
			accepted++
		} else {
			rejected++
		}
	}
	return accepted, rejected, missed
}

func (s *Scanner) pulse(now time.Time) {
	s.fan.Pulse(now)
	if !s.cfg.ClipBeamsToHits {
		return
	}
	origin := s.current.TransformPoint(s.muzzle())
	for i := 0; i < s.fan.Len(); i++ {
		dir := r3.Unit(s.current.TransformDirection(s.fan.Slot(i).Dir))
		if hit, ok := s.caster.Raycast(origin, dir, s.cfg.MaxDistance, s.cfg.HitLayers); ok {
			s.fan.ClipSlot(i, hit.Distance)
		}
	}
}

func (s *Scanner) muzzle() r3.Vec {
	return r3.Scale(s.cfg.MuzzleOffset, AxisForward)
}

// Dots appends every resident dot, oldest first, to dst.
func (s *Scanner) Dots(dst []DotView) []DotView {
	s.dots.Each(func(d DotSample) bool {
		dst = append(dst, DotView{Position: d.Position, Color: d.Color, Scale: s.cfg.DotScale})
		return true
	})
	return dst
}

// Samples appends every resident sample, oldest first, to dst.
func (s *Scanner) Samples(dst []DotSample) []DotSample {
	return s.dots.Samples(dst)
}

// DotCount returns the number of resident dots.
func (s *Scanner) DotCount() int { return s.dots.Len() }

// Beams appends one world-space view per fan slot to dst, using the pose
// from the most recent tick.
func (s *Scanner) Beams(dst []BeamView) []BeamView {
	return s.beams(dst, s.current)
}

// LocalBeams appends one scanner-space view per fan slot to dst.
func (s *Scanner) LocalBeams(dst []BeamView) []BeamView {
	return s.beams(dst, IdentityPose())
}

func (s *Scanner) beams(dst []BeamView, pose Pose) []BeamView {
	start := s.muzzle()
	for i := 0; i < s.fan.Len(); i++ {
		slot := s.fan.Slot(i)
		dst = append(dst, BeamView{
			Start:   pose.TransformPoint(start),
			End:     pose.TransformPoint(r3.Add(start, slot.End)),
			Color:   slot.Color,
			Width:   s.cfg.RayWidth,
			Enabled: slot.Enabled,
		})
	}
	return dst
}

// BeamSlots appends a copy of every fan slot to dst.
func (s *Scanner) BeamSlots(dst []BeamSlot) []BeamSlot {
	for i := 0; i < s.fan.Len(); i++ {
		dst = append(dst, s.fan.Slot(i))
	}
	return dst
}

// Rotation returns the fan's cumulative rotation in degrees.
func (s *Scanner) Rotation() float64 { return s.fan.Rotation() }

// Hue returns the current hue phase.
func (s *Scanner) Hue() float64 { return s.hue.Hue() }

// State returns the scheduler state after the last tick.
func (s *Scanner) State() PulseState { return s.scheduler.State() }

// Pose returns the pose used by the last tick.
func (s *Scanner) Pose() Pose { return s.current }

// Stats returns cumulative counters.
func (s *Scanner) Stats() Stats {
	accepted, rejected, evicted := s.dots.Counters()
	return Stats{
		Frames:       s.frames,
		Pulses:       s.fan.Pulses(),
		ProbeMisses:  s.probeMisses,
		RaysCast:     s.raysCast,
		RaysMissed:   s.raysMissed,
		DotsAccepted: accepted,
		DotsRejected: rejected,
		DotsEvicted:  evicted,
		Resident:     s.dots.Len(),
		Capacity:     s.dots.Cap(),
		Hue:          s.hue.Hue(),
		State:        s.scheduler.State(),
	}
}

// Clear empties the dot buffer.
func (s *Scanner) Clear() {
	diagf("clearing %d dots", s.dots.Len())
	s.dots.Reset()
}

// Close tears the scanner down: beams are hidden, dots dropped, and later
// calls to Tick, AddDots and Pulse do nothing.
func (s *Scanner) Close() {
	if s.closed {
		return
	}
	s.fan.DisableAll()
	s.dots.Reset()
	s.closed = true
	diagf("scanner closed after %d frames", s.frames)
}
