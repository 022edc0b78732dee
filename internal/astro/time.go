package astro

import (
	"math"
	"time"
)

const (
	dayMs  = 86400000.0
	hourMs = 3600000.0

	// julianUnixEpoch is the Julian date of 1970-01-01T00:00Z.
	julianUnixEpoch = 2440587.5

	// j2000 is the Julian date of 2000-01-01T12:00Z.
	j2000 = 2451545.0

	// orbitalEpoch is 2000 Jan 0.0 UT, the zero point of the orbital elements.
	orbitalEpoch = 2451543.5
)

// julianDate returns the Julian date including the day fraction.
func julianDate(t time.Time) float64 {
	return julianUnixEpoch + float64(t.UnixMilli())/dayMs
}

// dayNumber is the day count used by the Sun and Moon orbital elements.
func dayNumber(t time.Time) float64 {
	return julianDate(t) - orbitalEpoch
}

// daysSinceJ2000 is the day count used by sidereal time.
func daysSinceJ2000(t time.Time) float64 {
	return julianDate(t) - j2000
}

// utcHours returns the UTC time of day in decimal hours.
func utcHours(t time.Time) float64 {
	ms := math.Mod(float64(t.UnixMilli()), dayMs)
	if ms < 0 {
		ms += dayMs
	}
	return ms / hourMs
}

// hoursToDuration converts decimal hours to a duration at millisecond resolution.
func hoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h*hourMs)) * time.Millisecond
}

// DayStart returns the start of the UTC day containing t.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Midday returns 12:00 UTC on the day containing t.
func Midday(t time.Time) time.Time {
	return DayStart(t).Add(12 * time.Hour)
}
