package visibility

import (
	"fmt"
	"time"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/horizon"
)

// DefaultNightStep is the sample spacing of a night sweep.
const DefaultNightStep = 5 * time.Minute

// NightParams configures a single night sweep.
type NightParams struct {
	Target  astro.Equatorial
	Site    astro.Site
	Date    time.Time // any instant on the UTC calendar day of the evening
	Profile horizon.Profile

	// MeridianWindow is the total width of the meridian-flip blackout.
	// Zero disables it.
	MeridianWindow time.Duration

	// Step defaults to DefaultNightStep.
	Step time.Duration
}

// NightResult is the classified sweep between nautical dusk and dawn.
type NightResult struct {
	Samples []Sample `json:"samples"`

	Sunset   time.Time `json:"sunset"`  // sun at -12°, evening
	Sunrise  time.Time `json:"sunrise"` // sun at -12°, next morning
	Midnight time.Time `json:"midnight"`

	// MeridianIndex is the sample at which the target first crossed the
	// meridian, or -1.
	MeridianIndex int `json:"meridian_index"`

	MoonPhase       float64 `json:"moon_phase"`        // percent, at Midnight
	MoonDistanceDeg float64 `json:"moon_distance_deg"` // Moon to target, at Midnight
}

// Night sweeps the target across one night. The sweep is bounded by the
// Sun at -12° and aligned to Step. When the Sun never reaches -12° the
// error wraps astro.ErrAlwaysUp (or astro.ErrAlwaysDown for polar night).
func Night(p NightParams) (NightResult, error) {
	if err := validateSite(p.Site); err != nil {
		return NightResult{}, err
	}

	step := p.Step
	if step <= 0 {
		step = DefaultNightStep
	}

	rs, err := astro.SunRiseSet(astro.Midday(p.Date), p.Site, astro.NauticalTwilight)
	if err != nil {
		return NightResult{}, fmt.Errorf("night of %s: %w", p.Date.UTC().Format(time.DateOnly), err)
	}

	start := rs.Sunset.Truncate(step)
	end := rs.Sunrise.Truncate(step).Add(step)

	res := NightResult{
		Sunset:        rs.Sunset,
		Sunrise:       rs.Sunrise,
		Midnight:      rs.Night(),
		MeridianIndex: -1,
		Samples:       make([]Sample, 0, int(end.Sub(start)/step)+1),
	}

	prevAz := -1.0
	for t := start; !t.After(end); t = t.Add(step) {
		aa := astro.AltAzAt(t, p.Target, p.Site)

		if prevAz >= 0 && res.MeridianIndex < 0 && crossedMeridian(prevAz, aa.AzDeg) {
			res.MeridianIndex = len(res.Samples)
		}
		prevAz = aa.AzDeg

		res.Samples = append(res.Samples, Sample{
			Time:       t,
			State:      Classify(aa.AltDeg, aa.AzDeg, p.Profile),
			AltDeg:     aa.AltDeg,
			AzDeg:      aa.AzDeg,
			MoonAltDeg: moonAltitude(astro.MoonAltitude(t, p.Site)),
		})
	}

	applyBlackout(res.Samples, res.MeridianIndex, p.MeridianWindow, step)

	moon := astro.MoonPosition(res.Midnight)
	res.MoonPhase = astro.MoonPhase(res.Midnight)
	res.MoonDistanceDeg = astro.MoonDistance(p.Target.RADeg, p.Target.DecDeg, moon.RADeg, moon.DecDeg)

	return res, nil
}
