package astro

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Twilight thresholds for SunRiseSet, in degrees of solar altitude.
const (
	HorizonAltitude  = 0.0   // center of the solar disk on the horizon
	NauticalTwilight = -12.0 // "dome open" threshold for night sweeps
)

// Errors for rise/set calculations. Both wrap ErrGeometryDegenerate.
var (
	ErrGeometryDegenerate = errors.New("rise/set geometry degenerate")
	ErrAlwaysUp           = fmt.Errorf("%w: sun stays above threshold", ErrGeometryDegenerate)
	ErrAlwaysDown         = fmt.Errorf("%w: sun stays below threshold", ErrGeometryDegenerate)
)

// sunElements are the orbital elements of the Sun at a day number.
type sunElements struct {
	w   float64 // argument of perihelion
	e   float64 // eccentricity
	m   float64 // mean anomaly
	obl float64 // obliquity of the ecliptic
}

func sunElementsAt(d float64) sunElements {
	return sunElements{
		w:   normalizeAngle360(282.9404 + 4.70935e-5*d),
		e:   0.016709 - 1.151e-9*d,
		m:   normalizeAngle360(356.0470 + 0.9856002585*d),
		obl: normalizeAngle360(23.4393 - 3.563e-7*d),
	}
}

// SunPosition calculates the geocentric equatorial coordinates of the Sun
// from a simplified orbital model with secular eccentricity and obliquity.
// Accuracy is around one arcminute, enough for twilight and moon phase.
func SunPosition(t time.Time) Equatorial {
	return sunPositionAt(sunElementsAt(dayNumber(t)))
}

func sunPositionAt(el sunElements) Equatorial {
	// Eccentric anomaly, first order is enough for e ≈ 0.0167
	ecc := el.m + radToDeg(el.e*sind(el.m)*(1+el.e*cosd(el.m)))
	ecc = normalizeAngle360(ecc)

	x := cosd(ecc) - el.e
	y := sind(ecc) * math.Sqrt(1-el.e*el.e)

	r := math.Hypot(x, y)
	v := radToDeg(math.Atan2(y, x))
	lon := normalizeAngle360(v + el.w)

	ecl := Vec3{X: r * cosd(lon), Y: r * sind(lon)}
	return equatorialFromVec(eclipticToEquatorial(ecl, el.obl))
}

// RiseSet holds the result of SunRiseSet.
type RiseSet struct {
	Transit time.Time // local solar noon
	Sunset  time.Time
	Sunrise time.Time // the following morning
}

// Night returns the instant halfway between sunset and the next sunrise.
func (rs RiseSet) Night() time.Time {
	return rs.Sunset.Add(rs.Sunrise.Sub(rs.Sunset) / 2)
}

// SunRiseSet solves the hour angle at which the Sun crosses altDeg for the
// day of midday (12:00 UTC).
//
// The following morning's sunrise reuses this day's hour angle rather than
// being solved for the next day. Visibility sweeps are calibrated against
// this approximation.
//
// When the Sun never crosses altDeg the returned error wraps ErrAlwaysUp or
// ErrAlwaysDown and only Transit is set.
func SunRiseSet(midday time.Time, site Site, altDeg float64) (RiseSet, error) {
	el := sunElementsAt(dayNumber(midday))
	sun := sunPositionAt(el)

	gmst0 := normalizeAngle360(el.m + el.w + 180)
	utSun := math.Mod((sun.RADeg-gmst0-site.LonDeg)/15, 24)
	if utSun < 0 {
		utSun += 24
	}

	transit := midday.Add(-12 * time.Hour).Add(hoursToDuration(utSun))
	rs := RiseSet{Transit: transit}

	cosLHA := (sind(altDeg) - sind(site.LatDeg)*sind(sun.DecDeg)) /
		(cosd(site.LatDeg) * cosd(sun.DecDeg))
	switch {
	case math.IsNaN(cosLHA):
		return rs, ErrGeometryDegenerate
	case cosLHA > 1:
		return rs, ErrAlwaysDown
	case cosLHA < -1:
		return rs, ErrAlwaysUp
	}

	lha := hoursToDuration(radToDeg(math.Acos(cosLHA)) / 15)
	rs.Sunset = transit.Add(lha)
	rs.Sunrise = transit.Add(-lha).Add(24 * time.Hour)
	return rs, nil
}
