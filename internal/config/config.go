// Package config defines planner configuration, its defaults and validation.
//
// Values are layered defaults < YAML file < SKYPLAN_* environment variables
// by Load.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/horizon"
	"github.com/litescript/ls-skyplan/internal/mosaic"
	"github.com/litescript/ls-skyplan/internal/observability"
)

// MaxGridSize caps mosaic grids at 5×5 panels.
const MaxGridSize = 5

// DateLayout is the accepted observation date format.
const DateLayout = "2006-01-02"

// Config contains planner configuration.
type Config struct {
	// FOVX and FOVY are the camera field of view in degrees.
	FOVX float64 `koanf:"fov_x"`
	FOVY float64 `koanf:"fov_y"`

	// Telescope selects a built-in preset (T1, T2, T3, T4, C1) that
	// overrides FOVX/FOVY.
	Telescope string `koanf:"telescope"`

	LocationLat float64 `koanf:"location_lat"`
	LocationLng float64 `koanf:"location_lng"`

	// HorizonSoft and HorizonHard are altitude limits per 5° azimuth bucket.
	HorizonSoft []float64 `koanf:"horizon_soft"`
	HorizonHard []float64 `koanf:"horizon_hard"`

	// MeridianTransit is the meridian flip blackout in minutes; 0 disables.
	MeridianTransit int `koanf:"meridian_transit"`

	// Date is the observation date (YYYY-MM-DD); empty means today (UTC).
	Date string `koanf:"date"`

	// TimezoneOffset shifts displayed times by this many hours from UTC.
	TimezoneOffset float64 `koanf:"timezone_offset"`

	// GridSize is the default mosaic side length in panels.
	GridSize    int     `koanf:"grid_size"`
	GridOverlap float64 `koanf:"grid_overlap"`

	// CatalogFiles are JSON catalog tables used when the remote resolver
	// fails. The built-in bright star table is always searched last.
	CatalogFiles []string `koanf:"catalog_files"`

	Resolver ResolverConfig `koanf:"resolver"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	Tracing observability.TracingConfig `koanf:"tracing"`

	// ListenAddr is the HTTP server address, e.g. ":8080".
	ListenAddr string `koanf:"listen_addr"`
}

// ResolverConfig configures the remote name resolver.
type ResolverConfig struct {
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	Rate          float64       `koanf:"rate"` // requests per second, 0 disables throttling
	Burst         int           `koanf:"burst"`
	ProgressDelay time.Duration `koanf:"progress_delay"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		FOVX:            321.0 / 60,
		FOVY:            214.0 / 60,
		LocationLat:     37.4988,
		LocationLng:     -2.42178,
		MeridianTransit: 0,
		GridSize:        1,
		GridOverlap:     0.2,
		Resolver: ResolverConfig{
			URL:           "https://cdsweb.u-strasbg.fr/cgi-bin/nph-sesame/-oxp/SNV?",
			Timeout:       10 * time.Second,
			Rate:          2,
			Burst:         1,
			ProgressDelay: time.Second,
		},
		LogLevel:  "info",
		LogFormat: "text",
		Tracing: observability.TracingConfig{
			ServiceName: "ls-skyplan",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
		ListenAddr: ":8080",
	}
}

// Validate checks ranges and applies the telescope preset. Errors wrap
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Telescope != "" {
		t, err := mosaic.LookupTelescope(c.Telescope)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		c.FOVX, c.FOVY = t.FOV.X, t.FOV.Y
	}

	switch {
	case math.IsNaN(c.LocationLat) || c.LocationLat < -90 || c.LocationLat > 90:
		return fmt.Errorf("%w: location_lat %v outside [-90, 90]", ErrInvalidConfig, c.LocationLat)
	case math.IsNaN(c.LocationLng) || math.IsInf(c.LocationLng, 0):
		return fmt.Errorf("%w: location_lng %v is not a finite number", ErrInvalidConfig, c.LocationLng)
	case !(c.FOVX > 0) || !(c.FOVY > 0):
		return fmt.Errorf("%w: field of view must be positive, got %vx%v", ErrInvalidConfig, c.FOVX, c.FOVY)
	case c.GridOverlap < 0 || c.GridOverlap >= 1:
		return fmt.Errorf("%w: grid_overlap %v outside [0, 1)", ErrInvalidConfig, c.GridOverlap)
	case c.GridSize < 1 || c.GridSize > MaxGridSize:
		return fmt.Errorf("%w: grid_size %d outside [1, %d]", ErrInvalidConfig, c.GridSize, MaxGridSize)
	case c.MeridianTransit < 0:
		return fmt.Errorf("%w: meridian_transit %d is negative", ErrInvalidConfig, c.MeridianTransit)
	case c.TimezoneOffset < -14 || c.TimezoneOffset > 14:
		return fmt.Errorf("%w: timezone_offset %v outside [-14, 14]", ErrInvalidConfig, c.TimezoneOffset)
	case c.Resolver.Rate < 0:
		return fmt.Errorf("%w: resolver.rate %v is negative", ErrInvalidConfig, c.Resolver.Rate)
	}
	if c.Date != "" {
		if _, err := time.Parse(DateLayout, c.Date); err != nil {
			return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidConfig, c.Date)
		}
	}
	return nil
}

// ObservationDate returns the configured date, or the UTC day of now.
func (c *Config) ObservationDate(now time.Time) time.Time {
	if c.Date != "" {
		if d, err := time.Parse(DateLayout, c.Date); err == nil {
			return d
		}
	}
	return astro.DayStart(now)
}

// Site returns the observing site.
func (c *Config) Site() astro.Site {
	return astro.Site{LatDeg: c.LocationLat, LonDeg: c.LocationLng}
}

// HorizonProfile builds the soft/hard obstruction profile.
func (c *Config) HorizonProfile() horizon.Profile {
	return horizon.NewProfile(c.HorizonSoft, c.HorizonHard)
}

// MeridianWindow returns the meridian blackout duration.
func (c *Config) MeridianWindow() time.Duration {
	return time.Duration(c.MeridianTransit) * time.Minute
}

// FOV returns the camera field of view.
func (c *Config) FOV() mosaic.FOV {
	return mosaic.FOV{X: c.FOVX, Y: c.FOVY}
}

// DisplayZone is the fixed zone used when rendering times.
func (c *Config) DisplayZone() *time.Location {
	if c.TimezoneOffset == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+g", c.TimezoneOffset), int(c.TimezoneOffset*3600))
}
