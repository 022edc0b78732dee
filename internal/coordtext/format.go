package coordtext

import (
	"fmt"

	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-skyplan/internal/astro"
)

// FormatPanel renders the panel label used on mosaic overlays:
// "RA/DEC <ra hours> <dec degrees>" with five decimals.
func FormatPanel(c astro.Equatorial) string {
	return fmt.Sprintf("RA/DEC %.5f %.5f", c.RAHours(), c.DecDeg)
}

// FormatHMS renders c with hour/degree unit symbols for display.
func FormatHMS(c astro.Equatorial) string {
	ra := unit.RAFromDeg(c.RADeg)
	dec := unit.AngleFromDeg(c.DecDeg)
	return fmt.Sprintf("%.1s %.0s", sexa.FmtRA(ra), sexa.FmtAngle(dec))
}

// FormatCanonical renders c in the canonical "HH:MM:SS.ss DD:MM:SS.ss"
// text accepted by Parse.
func FormatCanonical(c astro.Equatorial) string {
	ra, _ := decimalToSexagesimal(fmt.Sprintf("%.10f", c.RAHours()), false)
	dec, _ := decimalToSexagesimal(fmt.Sprintf("%.10f", c.DecDeg), false)
	return ra + " " + dec
}

// ArcminToDeg converts a field of view in arcminutes to degrees.
func ArcminToDeg(arcmin float64) float64 {
	return arcmin * 60 / 3600
}
