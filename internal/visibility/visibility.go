// Package visibility classifies a target's altitude over a night or a year
// against a horizon profile and the meridian-flip blackout.
package visibility

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/horizon"
)

// ErrInvalidSite is returned for a latitude outside [-90, 90].
var ErrInvalidSite = errors.New("invalid site")

// State is the visibility of a target at one sample.
type State int

const (
	Absent    State = iota // below 0°, not drawn
	Blocked                // below the hard horizon or inside the meridian blackout
	SoftLimit              // between hard and soft horizon
	Visible
)

var stateNames = [...]string{"absent", "blocked", "soft_limit", "visible"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown visibility state %q", b)
}

// Sample is one classified point of a sweep.
type Sample struct {
	Time       time.Time `json:"time"`
	State      State     `json:"state"`
	AltDeg     float64   `json:"alt_deg"`
	AzDeg      float64   `json:"az_deg"`
	MoonAltDeg *float64  `json:"moon_alt_deg,omitempty"` // nil while the Moon is down
}

// Classify maps an altitude at an azimuth to a state. A target exactly on
// a limit is not above it.
func Classify(altDeg, azDeg float64, p horizon.Profile) State {
	if altDeg <= 0 {
		return Absent
	}
	soft, hard := p.Limits(azDeg)
	switch {
	case p.HasSoft() && altDeg > soft:
		return Visible
	case p.HasSoft() && altDeg > hard:
		return SoftLimit
	case !p.HasSoft() && altDeg > hard:
		return Visible
	default:
		return Blocked
	}
}

// crossedMeridian reports whether the azimuth passed 180° between two
// consecutive samples, in either direction.
func crossedMeridian(prevAz, az float64) bool {
	return (prevAz > 180 && az < 180) || (prevAz < 180 && az > 180)
}

// blackoutHalfWidth is the number of samples blocked on each side of the
// transit sample.
func blackoutHalfWidth(window, step time.Duration) int {
	if window <= 0 || step <= 0 {
		return 0
	}
	return int(math.Ceil(float64(window) / float64(2*step)))
}

// applyBlackout downgrades Visible and SoftLimit samples within the window
// around idx to Blocked. Absent samples are left alone.
func applyBlackout(samples []Sample, idx int, window, step time.Duration) {
	k := blackoutHalfWidth(window, step)
	if idx < 0 || k == 0 {
		return
	}
	lo := max(idx-k, 0)
	hi := min(idx+k, len(samples)-1)
	for i := lo; i <= hi; i++ {
		if samples[i].State == Visible || samples[i].State == SoftLimit {
			samples[i].State = Blocked
		}
	}
}

func moonAltitude(alt float64) *float64 {
	if alt < 0 {
		return nil
	}
	return &alt
}

func validateSite(s astro.Site) error {
	if math.IsNaN(s.LatDeg) || s.LatDeg < -90 || s.LatDeg > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidSite, s.LatDeg)
	}
	if math.IsNaN(s.LonDeg) || math.IsInf(s.LonDeg, 0) {
		return fmt.Errorf("%w: longitude %v", ErrInvalidSite, s.LonDeg)
	}
	return nil
}
