package astro

import (
	"math"
)

// Vec3 represents a 3D vector in any reference frame.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// eclipticToEquatorial rotates ecliptic XYZ about the X axis by the given
// obliquity in degrees.
func eclipticToEquatorial(ecl Vec3, obliquityDeg float64) Vec3 {
	cosE := cosd(obliquityDeg)
	sinE := sind(obliquityDeg)

	return Vec3{
		X: ecl.X,
		Y: ecl.Y*cosE - ecl.Z*sinE,
		Z: ecl.Y*sinE + ecl.Z*cosE,
	}
}

// equatorialFromVec converts a geocentric equatorial vector to RA/Dec.
func equatorialFromVec(v Vec3) Equatorial {
	ra := radToDeg(math.Atan2(v.Y, v.X))
	dec := radToDeg(math.Atan2(v.Z, math.Hypot(v.X, v.Y)))
	return Equatorial{
		RADeg:  normalizeAngle360(ra),
		DecDeg: dec,
	}
}
