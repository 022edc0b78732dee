package astro

import (
	"math"
	"time"
)

const (
	// moonObliquity is the fixed obliquity used by the Moon model.
	moonObliquity = 23.4

	// moonDistanceEarthRadii is the mean Earth-Moon distance used for the
	// horizontal parallax correction.
	moonDistanceEarthRadii = 60.336

	keplerTolerance = 0.001 // degrees
	keplerMaxIter   = 100
)

// MoonPosition calculates the geocentric equatorial coordinates of the Moon
// from a simplified Keplerian orbit. Perturbations are ignored, so errors of
// a degree or more are expected.
func MoonPosition(t time.Time) Equatorial {
	d := dayNumber(t)

	n := normalizeAngle360(125.1228 - 0.0529538083*d) // longitude of ascending node
	w := normalizeAngle360(318.0634 + 0.1643573223*d) // argument of perigee
	m := normalizeAngle360(115.3654 + 13.0649929509*d)
	const (
		incl = 5.1454
		a    = 60.2666 // Earth radii
		e    = 0.054900
	)

	ecc := eccentricAnomaly(m, e)

	x := a * (cosd(ecc) - e)
	y := a * math.Sqrt(1-e*e) * sind(ecc)

	r := math.Hypot(x, y)
	v := normalizeAngle360(radToDeg(math.Atan2(y, x)))

	vw := v + w
	ecl := Vec3{
		X: r * (cosd(n)*cosd(vw) - sind(n)*sind(vw)*cosd(incl)),
		Y: r * (sind(n)*cosd(vw) + cosd(n)*sind(vw)*cosd(incl)),
		Z: r * sind(vw) * sind(incl),
	}

	return equatorialFromVec(eclipticToEquatorial(ecl, moonObliquity))
}

// eccentricAnomaly solves Kepler's equation M = E - e·sin(E) for E, all
// angles in degrees, by Newton iteration.
func eccentricAnomaly(m, e float64) float64 {
	ecc := m + radToDeg(e*sind(m)*(1+e*cosd(m)))
	for i := 0; i < keplerMaxIter; i++ {
		prev := ecc
		ecc = prev - (prev-radToDeg(e*sind(prev))-m)/(1-e*cosd(prev))
		if math.Abs(ecc-prev) <= keplerTolerance {
			break
		}
	}
	return ecc
}

// MoonTopocentric corrects a geocentric Moon altitude for horizontal
// parallax at a fixed mean distance.
func MoonTopocentric(altDeg float64) float64 {
	return altDeg - radToDeg(math.Asin(1/moonDistanceEarthRadii))*cosd(altDeg)
}

// MoonAltitude returns the topocentric altitude of the Moon at a site.
func MoonAltitude(t time.Time, site Site) float64 {
	return MoonTopocentric(AltAzAt(t, MoonPosition(t), site).AltDeg)
}

// MoonPhase approximates the illuminated percentage (0-100) of the Moon as
// the Sun-Moon elongation over 180°. It is a geometric proxy, not a
// photometric model.
func MoonPhase(t time.Time) float64 {
	sun := SunPosition(t)
	moon := MoonPosition(t)
	return MoonDistance(sun.RADeg, sun.DecDeg, moon.RADeg, moon.DecDeg) / 180 * 100
}
