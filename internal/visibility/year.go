package visibility

import (
	"time"

	"github.com/litescript/ls-skyplan/internal/astro"
)

const (
	// YearDays is the span of an annual sweep; both ends are sampled.
	YearDays = 365

	// YearVisibleAltitude is the midnight altitude at which a target counts
	// as well placed in the annual view.
	YearVisibleAltitude = 30.0
)

// YearParams configures an annual sweep.
type YearParams struct {
	Target astro.Equatorial
	Site   astro.Site
	Date   time.Time // first day
}

// YearResult holds one sample per day at local midnight.
type YearResult struct {
	Samples []Sample `json:"samples"`
}

// Year samples the target at local midnight, the midpoint of the 0° sunset
// and the following sunrise, for YearDays+1 consecutive days. Days on which
// the Sun never crosses the horizon use solar midnight instead.
func Year(p YearParams) (YearResult, error) {
	if err := validateSite(p.Site); err != nil {
		return YearResult{}, err
	}

	midday := astro.Midday(p.Date)
	res := YearResult{Samples: make([]Sample, 0, YearDays+1)}

	for day := 0; day <= YearDays; day++ {
		d := midday.AddDate(0, 0, day)

		rs, err := astro.SunRiseSet(d, p.Site, astro.HorizonAltitude)
		midnight := rs.Night()
		if err != nil {
			midnight = rs.Transit.Add(12 * time.Hour)
		}

		alt := astro.NewAltAzContext(midnight, p.Site).Altitude(p.Target)
		state := Absent
		switch {
		case alt >= YearVisibleAltitude:
			state = Visible
		case alt > 0:
			state = Blocked
		}

		res.Samples = append(res.Samples, Sample{
			Time:       d,
			State:      state,
			AltDeg:     alt,
			MoonAltDeg: moonAltitude(astro.MoonAltitude(midnight, p.Site)),
		})
	}
	return res, nil
}
