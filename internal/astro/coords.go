// Package astro provides the low-precision ephemeris used for session planning:
// horizontal coordinates, Sun and Moon positions, twilight times and
// angular separations.
package astro

import (
	"math"
	"time"
)

// Equatorial is a J2000 sky position. RA is stored in degrees (0-360)
// even though user-facing text uses hours.
type Equatorial struct {
	RADeg  float64 `json:"ra_deg"`
	DecDeg float64 `json:"dec_deg"`
}

// RAHours returns the right ascension in hours.
func (e Equatorial) RAHours() float64 {
	return e.RADeg / 15
}

// AltAz is a site-relative position.
//   - Azimuth: 0° = North, 90° = East, 180° = South, 270° = West
//   - Altitude: 0° = horizon, 90° = zenith
type AltAz struct {
	AltDeg float64 `json:"alt_deg"`
	AzDeg  float64 `json:"az_deg"`
}

// Site represents a ground-based observer location.
type Site struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional name for the site
}

// AltAzAt converts an equatorial position to horizontal coordinates for a
// site and instant. No refraction, nutation or aberration is applied.
func AltAzAt(t time.Time, eq Equatorial, site Site) AltAz {
	lat := degToRad(site.LatDeg)
	dec := degToRad(eq.DecDeg)

	// Local hour angle
	lha := degToRad(localSiderealTime(t, site.LonDeg) - eq.RADeg)

	sinAlt := math.Sin(lat)*math.Sin(dec) + math.Cos(lat)*math.Cos(dec)*math.Cos(lha)
	alt := math.Asin(clampUnit(sinAlt))

	az := 0.0
	denom := math.Cos(alt) * math.Cos(lat)
	if math.Abs(denom) > 1e-12 {
		cosA := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / denom
		a := radToDeg(math.Acos(clampUnit(cosA)))

		// East of the meridian while the hour angle is negative.
		if math.Sin(lha) < 0 {
			az = a
		} else {
			az = 360 - a
		}
	}

	return AltAz{
		AltDeg: radToDeg(alt),
		AzDeg:  normalizeAngle360(az),
	}
}

// AltAzToEquatorial inverts AltAzAt for the same site and instant.
func AltAzToEquatorial(t time.Time, aa AltAz, site Site) Equatorial {
	lat := degToRad(site.LatDeg)
	alt := degToRad(aa.AltDeg)
	az := degToRad(aa.AzDeg)

	sinDec := math.Sin(alt)*math.Sin(lat) + math.Cos(alt)*math.Cos(lat)*math.Cos(az)
	dec := math.Asin(clampUnit(sinDec))

	sinH := -math.Sin(az) * math.Cos(alt)
	cosH := math.Sin(alt)*math.Cos(lat) - math.Cos(alt)*math.Sin(lat)*math.Cos(az)
	ha := radToDeg(math.Atan2(sinH, cosH))

	return Equatorial{
		RADeg:  normalizeAngle360(localSiderealTime(t, site.LonDeg) - ha),
		DecDeg: radToDeg(dec),
	}
}

// AltAzContext holds the time and site dependent terms of AltAzAt so that
// many objects can be evaluated at one instant.
type AltAzContext struct {
	lstDeg float64
	sinLat float64
	cosLat float64
}

// NewAltAzContext precomputes sidereal time and latitude terms.
func NewAltAzContext(t time.Time, site Site) AltAzContext {
	lat := degToRad(site.LatDeg)
	return AltAzContext{
		lstDeg: localSiderealTime(t, site.LonDeg),
		sinLat: math.Sin(lat),
		cosLat: math.Cos(lat),
	}
}

// LST returns the local sidereal time in degrees.
func (c AltAzContext) LST() float64 {
	return c.lstDeg
}

// Altitude returns the altitude in degrees of eq.
func (c AltAzContext) Altitude(eq Equatorial) float64 {
	lha := degToRad(c.lstDeg - eq.RADeg)
	dec := degToRad(eq.DecDeg)
	sinAlt := c.sinLat*math.Sin(dec) + c.cosLat*math.Cos(dec)*math.Cos(lha)
	return radToDeg(math.Asin(clampUnit(sinAlt)))
}

// localSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func localSiderealTime(t time.Time, lonDeg float64) float64 {
	lst := 100.4606184 + 0.9856473662862*daysSinceJ2000(t) + utcHours(t)*15 + lonDeg
	return normalizeAngle360(lst)
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func sind(deg float64) float64 { return math.Sin(degToRad(deg)) }
func cosd(deg float64) float64 { return math.Cos(degToRad(deg)) }

// clampUnit keeps asin/acos inputs inside [-1, 1] against rounding error.
func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return a
}
