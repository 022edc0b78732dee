// Package horizon models the local obstruction profile as altitude limits
// per 5° azimuth bucket.
package horizon

import (
	"math"
)

const (
	// BucketDeg is the azimuth width of one table entry.
	BucketDeg = 5.0

	// TableSize covers 0-360° at BucketDeg plus one wrap entry.
	TableSize = 71
)

// Table is an altitude limit in degrees for each azimuth bucket.
type Table []float64

// Build fills raw limits to at least TableSize entries by repeating the last
// supplied value. Empty input is treated as a flat 0° horizon. The input
// slice is not modified.
func Build(raw []float64) Table {
	if len(raw) == 0 {
		raw = []float64{0}
	}
	n := len(raw)
	if n < TableSize {
		n = TableSize
	}

	t := make(Table, n)
	copy(t, raw)
	last := raw[len(raw)-1]
	for i := len(raw); i < n; i++ {
		t[i] = last
	}
	return t
}

// Lookup returns the limit for an azimuth in degrees.
func (t Table) Lookup(azDeg float64) float64 {
	if len(t) == 0 {
		return 0
	}
	return t[t.index(azDeg)]
}

func (t Table) index(azDeg float64) int {
	i := int(math.Round(azDeg/BucketDeg)) % len(t)
	if i < 0 {
		i += len(t)
	}
	return i
}

// Profile is a two tier horizon. The soft tier marks altitudes that are
// usable with caution; the hard tier is fully blocked.
type Profile struct {
	Hard Table
	Soft Table // nil when no soft horizon is configured
}

// NewProfile builds a profile from optional raw limits. A nil slice means
// "not supplied". When only a soft horizon is supplied it is promoted to
// the hard horizon and the soft tier is disabled.
func NewProfile(soft, hard []float64) Profile {
	if soft != nil && hard == nil {
		hard, soft = soft, nil
	}

	p := Profile{Hard: Build(hard)}
	if soft != nil {
		p.Soft = Build(soft)
	}
	return p
}

// HasSoft reports whether a soft horizon is configured.
func (p Profile) HasSoft() bool {
	return p.Soft != nil
}

// Limits returns the soft and hard limits at an azimuth. soft equals hard
// when no soft horizon is configured.
func (p Profile) Limits(azDeg float64) (soft, hard float64) {
	hard = p.Hard.Lookup(azDeg)
	if !p.HasSoft() {
		return hard, hard
	}
	return p.Soft.Lookup(azDeg), hard
}
