package astro

import (
	"math"
)

// AngularSeparation calculates the great-circle distance between two sky
// positions using the haversine formula. All values in degrees; the result
// lies in [0, 180].
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	ra1Rad := degToRad(ra1)
	dec1Rad := degToRad(dec1)
	ra2Rad := degToRad(ra2)
	dec2Rad := degToRad(dec2)

	dRA := ra2Rad - ra1Rad
	dDec := dec2Rad - dec1Rad

	a := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(dec1Rad)*math.Cos(dec2Rad)*math.Sin(dRA/2)*math.Sin(dRA/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radToDeg(c)
}

// MoonDistance is the spherical law of cosines distance used for Moon
// avoidance. The cosine is clamped so that coincident points return 0
// instead of NaN.
func MoonDistance(ra1, dec1, ra2, dec2 float64) float64 {
	c := sind(dec1)*sind(dec2) + cosd(dec1)*cosd(dec2)*cosd(ra1-ra2)
	d := radToDeg(math.Acos(clampUnit(c)))
	if d > 180 {
		d = 360 - d
	}
	return d
}
