package lidar

import (
	"fmt"
	"sort"
	"strings"
)

// FadeCurve maps a beam's normalized age in [0,1] to an intensity in [0,1].
// Curves are expected to be monotonically non-increasing.
type FadeCurve func(t float64) float64

// LinearFade falls from 1 at t=0 to 0 at t=1.
func LinearFade(t float64) float64 { return 1 - t }

// EaseOutFade holds brightness early and drops quickly near the end.
func EaseOutFade(t float64) float64 { return 1 - t*t }

// EaseInFade drops quickly and tails off.
func EaseInFade(t float64) float64 { return (1 - t) * (1 - t) }

// SmoothFade is a smoothstep from 1 to 0.
func SmoothFade(t float64) float64 { return 1 - t*t*(3-2*t) }

var namedFades = map[string]FadeCurve{
	"linear":     LinearFade,
	"ease-out":   EaseOutFade,
	"ease-in":    EaseInFade,
	"smoothstep": SmoothFade,
}

// FadeCurveByName returns a built-in curve. The empty name selects linear.
func FadeCurveByName(name string) (FadeCurve, error) {
	if name == "" {
		return LinearFade, nil
	}
	if c, ok := namedFades[strings.ToLower(name)]; ok {
		return c, nil
	}
	names := make([]string, 0, len(namedFades))
	for n := range namedFades {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown fade curve %q (want one of %s)", name, strings.Join(names, ", "))
}

// Keyframe is one point of a KeyframeCurve.
type Keyframe struct {
	Time  float64
	Value float64
}

// KeyframeCurve builds a piecewise-linear curve through keys. Values before
// the first key or after the last are held constant. At least one key is
// required; keys are sorted by Time.
func KeyframeCurve(keys ...Keyframe) (FadeCurve, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("keyframe curve needs at least one key")
	}
	ks := append([]Keyframe(nil), keys...)
	sort.Slice(ks, func(i, j int) bool { return ks[i].Time < ks[j].Time })
	for i := 1; i < len(ks); i++ {
		if ks[i].Value > ks[i-1].Value {
			return nil, fmt.Errorf("keyframe curve must not increase: value %.3f at t=%.3f follows %.3f", ks[i].Value, ks[i].Time, ks[i-1].Value)
		}
	}

	return func(t float64) float64 {
		if t <= ks[0].Time {
			return ks[0].Value
		}
		last := ks[len(ks)-1]
		if t >= last.Time {
			return last.Value
		}
		i := sort.Search(len(ks), func(i int) bool { return ks[i].Time >= t })
		a, b := ks[i-1], ks[i]
		if b.Time == a.Time {
			return b.Value
		}
		f := (t - a.Time) / (b.Time - a.Time)
		return a.Value + f*(b.Value-a.Value)
	}, nil
}
