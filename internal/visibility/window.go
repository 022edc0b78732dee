package visibility

import (
	"errors"
	"math"
	"time"
)

// ErrInsufficientSamples is returned by TargetWindow for fewer than 3 samples.
var ErrInsufficientSamples = errors.New("insufficient samples for visibility window")

// Window is the rise-transit-set cycle of a target within a sweep.
type Window struct {
	Rise      time.Time `json:"rise,omitzero"`    // zero when already up at the start
	Transit   time.Time `json:"transit,omitzero"` // highest point
	Set       time.Time `json:"set,omitzero"`     // zero when still up at the end
	MaxAltDeg float64   `json:"max_alt_deg"`
	AlwaysUp  bool      `json:"always_up"`
	NeverUp   bool      `json:"never_up"`
}

// TargetWindow finds the 0° crossings and the culmination in a chronological
// sweep. Crossings are linearly interpolated between samples and the peak
// is refined with a parabola through its neighbours.
func TargetWindow(samples []Sample) (Window, error) {
	if len(samples) < 3 {
		return Window{}, ErrInsufficientSamples
	}

	minAlt, maxAlt := 90.0, -90.0
	maxIdx := 0
	for i, s := range samples {
		minAlt = math.Min(minAlt, s.AltDeg)
		if s.AltDeg > maxAlt {
			maxAlt = s.AltDeg
			maxIdx = i
		}
	}

	if maxAlt <= 0 {
		return Window{NeverUp: true, MaxAltDeg: maxAlt}, nil
	}

	var w Window
	w.Transit, w.MaxAltDeg = refinePeak(samples, maxIdx)
	if minAlt > 0 {
		w.AlwaysUp = true
		return w, nil
	}

	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if w.Rise.IsZero() && w.Set.IsZero() && prev.AltDeg <= 0 && cur.AltDeg > 0 {
			w.Rise = interpolateCrossing(prev.Time, cur.Time, prev.AltDeg, cur.AltDeg, 0)
		}
		if w.Set.IsZero() && prev.AltDeg > 0 && cur.AltDeg <= 0 {
			w.Set = interpolateCrossing(prev.Time, cur.Time, prev.AltDeg, cur.AltDeg, 0)
		}
	}
	return w, nil
}

// refinePeak fits y = at² + bt + c through the samples around idx.
func refinePeak(samples []Sample, idx int) (time.Time, float64) {
	peak := samples[idx]
	if idx == 0 || idx == len(samples)-1 {
		return peak.Time, peak.AltDeg
	}

	y0 := samples[idx-1].AltDeg
	y1 := peak.AltDeg
	y2 := samples[idx+1].AltDeg

	c := y1
	a := (y0+y2)/2 - c
	b := (y2 - y0) / 2

	// Only a downward opening parabola has a maximum.
	if a >= 0 {
		return peak.Time, peak.AltDeg
	}

	tMax := math.Max(-1, math.Min(1, -b/(2*a)))
	dt := peak.Time.Sub(samples[idx-1].Time)
	return peak.Time.Add(time.Duration(float64(dt) * tMax)), a*tMax*tMax + b*tMax + c
}

// interpolateCrossing finds the time when altitude crosses a threshold.
func interpolateCrossing(t1, t2 time.Time, alt1, alt2, threshold float64) time.Time {
	if math.Abs(alt2-alt1) < 0.0001 {
		return t1
	}

	fraction := (threshold - alt1) / (alt2 - alt1)
	fraction = math.Max(0, math.Min(1, fraction))

	return t1.Add(time.Duration(float64(t2.Sub(t1)) * fraction))
}
