// Package session ties configuration, target resolution, visibility and
// mosaic geometry together for one planner user.
//
// A Session owns the resolution memo. Independent sessions share nothing,
// so a server can keep one per client and a CLI invocation just one.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-skyplan/internal/catalog"
	"github.com/litescript/ls-skyplan/internal/config"
	"github.com/litescript/ls-skyplan/internal/coordtext"
	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/mosaic"
	"github.com/litescript/ls-skyplan/internal/observability"
	"github.com/litescript/ls-skyplan/internal/resolver"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

// ErrGridTooLarge is returned for mosaics beyond config.MaxGridSize panels a side.
var ErrGridTooLarge = errors.New("mosaic grid too large")

// DefaultMaxRecent bounds the recent-targets ring.
const DefaultMaxRecent = 20

// Session is safe for concurrent use.
type Session struct {
	id       string
	cfg      config.Config
	resolver *resolver.Resolver
	log      *logging.Logger
	metrics  *observability.Collector
	now      func() time.Time

	mu        sync.RWMutex
	memo      map[string]resolver.Target
	recent    []resolver.Target
	maxRecent int
	writeAt   int
	closed    bool
}

// Option configures a Session.
type Option func(*Session)

// WithResolver replaces the resolver built from configuration.
func WithResolver(r *resolver.Resolver) Option {
	return func(s *Session) { s.resolver = r }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithMetrics(c *observability.Collector) Option {
	return func(s *Session) { s.metrics = c }
}

// WithClock sets the clock used when no observation date is configured.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithMaxRecent sets the size of the recent-targets ring.
func WithMaxRecent(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxRecent = n
		}
	}
}

// New validates cfg and builds a session. Invalid configuration fails here
// with an error wrapping config.ErrInvalidConfig; nothing is deferred to
// the first request.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	c := *cfg
	c.HorizonSoft = slices.Clone(cfg.HorizonSoft)
	c.HorizonHard = slices.Clone(cfg.HorizonHard)
	c.CatalogFiles = slices.Clone(cfg.CatalogFiles)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       c,
		log:       logging.Discard(),
		now:       time.Now,
		memo:      make(map[string]resolver.Target),
		maxRecent: DefaultMaxRecent,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.resolver == nil {
		r, err := newResolver(&c, s.log, s.metrics)
		if err != nil {
			return nil, err
		}
		s.resolver = r
	}
	s.recent = make([]resolver.Target, 0, s.maxRecent)

	s.metrics.SessionOpened()
	s.log.Debug(context.Background(), "session opened", logging.String("session_id", s.id))
	return s, nil
}

func newResolver(cfg *config.Config, log *logging.Logger, m *observability.Collector) (*resolver.Resolver, error) {
	cats := make([]catalog.Catalog, 0, len(cfg.CatalogFiles)+1)
	for _, path := range cfg.CatalogFiles {
		loaded, err := catalog.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		cats = append(cats, loaded...)
	}
	cats = append(cats, catalog.BrightStars())

	return resolver.New(
		resolver.WithURL(cfg.Resolver.URL),
		resolver.WithTimeout(cfg.Resolver.Timeout),
		resolver.WithRateLimit(cfg.Resolver.Rate, cfg.Resolver.Burst),
		resolver.WithProgressDelay(cfg.Resolver.ProgressDelay),
		resolver.WithCatalogs(cats),
		resolver.WithMetrics(m),
		resolver.WithLogger(log),
	), nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns a copy of the validated configuration.
func (s *Session) Config() config.Config {
	c := s.cfg
	c.HorizonSoft = slices.Clone(s.cfg.HorizonSoft)
	c.HorizonHard = slices.Clone(s.cfg.HorizonHard)
	c.CatalogFiles = slices.Clone(s.cfg.CatalogFiles)
	return c
}

// Close releases the session. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.metrics.SessionClosed()
	s.log.Debug(context.Background(), "session closed", logging.String("session_id", s.id))
}

// Resolve turns text into a target. Successful results are memoized by the
// exact input text and returned without touching the network again.
func (s *Session) Resolve(ctx context.Context, text string, progress resolver.ProgressFunc) (resolver.Target, error) {
	s.mu.RLock()
	t, ok := s.memo[text]
	s.mu.RUnlock()
	if ok {
		s.metrics.ObserveResolve(observability.OutcomeCached)
		if progress != nil {
			progress(resolver.Event{Phase: resolver.PhaseResolved, Message: "Resolved (cached)"})
		}
		return t, nil
	}

	t, err := s.resolver.Resolve(ctx, text, progress)
	if err != nil {
		s.log.Info(ctx, "resolve failed",
			logging.String("session_id", s.id),
			logging.String("input", text),
			logging.Err(err))
		return resolver.Target{}, err
	}

	s.mu.Lock()
	s.memo[text] = t
	s.remember(t)
	s.mu.Unlock()
	return t, nil
}

// remember adds t to the recent ring. Callers hold mu.
func (s *Session) remember(t resolver.Target) {
	if len(s.recent) < s.maxRecent {
		s.recent = append(s.recent, t)
		return
	}
	s.recent[s.writeAt] = t
	s.writeAt = (s.writeAt + 1) % s.maxRecent
}

// Recent returns up to n recently resolved targets, oldest first.
func (s *Session) Recent(n int) []resolver.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]resolver.Target, 0, len(s.recent))
	if len(s.recent) < s.maxRecent {
		all = append(all, s.recent...)
	} else {
		for i := range s.maxRecent {
			all = append(all, s.recent[(s.writeAt+i)%s.maxRecent])
		}
	}
	if n <= 0 || len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Cached reports how many inputs are memoized.
func (s *Session) Cached() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memo)
}

// NightPlan is a resolved target's visibility over one night.
type NightPlan struct {
	Target resolver.Target        `json:"target"`
	Date   time.Time              `json:"date"`
	Night  visibility.NightResult `json:"night"`
	Window *visibility.Window     `json:"window,omitempty"`
}

// Night resolves text and sweeps it over the night of date. A zero date
// uses the configured observation date.
func (s *Session) Night(ctx context.Context, text string, date time.Time) (NightPlan, error) {
	t, err := s.Resolve(ctx, text, nil)
	if err != nil {
		return NightPlan{}, err
	}
	date = s.date(date)

	night, err := visibility.Night(visibility.NightParams{
		Target:         t.Position,
		Site:           s.cfg.Site(),
		Date:           date,
		Profile:        s.cfg.HorizonProfile(),
		MeridianWindow: s.cfg.MeridianWindow(),
	})
	if err != nil {
		return NightPlan{}, err
	}

	plan := NightPlan{Target: t, Date: date, Night: night}
	if w, err := visibility.TargetWindow(night.Samples); err == nil {
		plan.Window = &w
	}
	return plan, nil
}

// YearPlan is a resolved target's midnight altitude over a year.
type YearPlan struct {
	Target resolver.Target       `json:"target"`
	Start  time.Time             `json:"start"`
	Year   visibility.YearResult `json:"year"`
}

// Year resolves text and samples it at local midnight for a year from date.
func (s *Session) Year(ctx context.Context, text string, date time.Time) (YearPlan, error) {
	t, err := s.Resolve(ctx, text, nil)
	if err != nil {
		return YearPlan{}, err
	}
	date = s.date(date)

	year, err := visibility.Year(visibility.YearParams{
		Target: t.Position,
		Site:   s.cfg.Site(),
		Date:   date,
	})
	if err != nil {
		return YearPlan{}, err
	}
	return YearPlan{Target: t, Start: date, Year: year}, nil
}

func (s *Session) date(d time.Time) time.Time {
	if d.IsZero() {
		return s.cfg.ObservationDate(s.now())
	}
	return d
}

// MosaicPlan is a panel layout around a resolved target.
type MosaicPlan struct {
	Target  resolver.Target  `json:"target"`
	FOV     mosaic.FOV       `json:"fov"`
	Overlap float64          `json:"overlap"`
	Panels  [][]mosaic.Panel `json:"panels"`
}

// Mosaic lays out cols×rows panels centred on the resolved target. Zero
// sizes fall back to the configured grid size. Grids above
// config.MaxGridSize on either side are rejected.
func (s *Session) Mosaic(ctx context.Context, text string, cols, rows int) (MosaicPlan, error) {
	if cols == 0 {
		cols = s.cfg.GridSize
	}
	if rows == 0 {
		rows = s.cfg.GridSize
	}
	if cols > config.MaxGridSize || rows > config.MaxGridSize {
		return MosaicPlan{}, fmt.Errorf("%w: %dx%d exceeds %dx%d",
			ErrGridTooLarge, cols, rows, config.MaxGridSize, config.MaxGridSize)
	}

	t, err := s.Resolve(ctx, text, nil)
	if err != nil {
		return MosaicPlan{}, err
	}

	fov := s.cfg.FOV()
	panels, err := mosaic.Grid(t.Position, fov.X, fov.Y, cols, rows, s.cfg.GridOverlap)
	if err != nil {
		return MosaicPlan{}, err
	}
	return MosaicPlan{Target: t, FOV: fov, Overlap: s.cfg.GridOverlap, Panels: panels}, nil
}

// FOVBox returns the single camera footprint centred on the resolved target.
func (s *Session) FOVBox(ctx context.Context, text string) (mosaic.Panel, error) {
	t, err := s.Resolve(ctx, text, nil)
	if err != nil {
		return mosaic.Panel{}, err
	}
	fov := s.cfg.FOV()
	p := mosaic.SingleFOVBox(t.Position, fov.X, fov.Y)
	p.Name = t.Name
	return p, nil
}

// OffsetBox returns the footprint of a secondary field (an off-axis guider)
// placed beside the camera field of the resolved target.
func (s *Session) OffsetBox(ctx context.Context, text string, offset mosaic.FOV, side mosaic.Side, gap float64) (mosaic.Panel, error) {
	t, err := s.Resolve(ctx, text, nil)
	if err != nil {
		return mosaic.Panel{}, err
	}
	return mosaic.OffsetBox(t.Position, s.cfg.FOV(), offset, side, gap), nil
}

// ListPlan is a set of explicit field centres and marker points.
type ListPlan struct {
	Panels  []mosaic.Panel `json:"panels"`
	Markers []mosaic.Panel `json:"markers,omitempty"`
}

// List lays a camera box on every centre of a coordinate list. Text is
// either "c1, c2, marker c3" or a JSON target list document; JSON entries
// keep their names. Lists never touch the resolver.
func (s *Session) List(text string, limit int) (ListPlan, error) {
	fov := s.cfg.FOV()

	if coordtext.IsTargetListJSON(text) {
		targets, err := coordtext.ParseTargetList(text, limit)
		if err != nil {
			return ListPlan{}, err
		}
		plan := ListPlan{Panels: make([]mosaic.Panel, 0, len(targets))}
		for _, t := range targets {
			p := mosaic.SingleFOVBox(t.Coord, fov.X, fov.Y)
			p.Name = t.Name
			plan.Panels = append(plan.Panels, p)
		}
		return plan, nil
	}

	l, err := coordtext.ParseList(text)
	if err != nil {
		return ListPlan{}, err
	}
	centers := l.Centers
	if limit > 0 && len(centers) > limit {
		centers = centers[:limit]
	}
	plan := ListPlan{Panels: mosaic.FromCoordinateList(centers, fov)}
	for i, m := range l.Markers {
		p := mosaic.SingleFOVBox(m, 0, 0)
		p.Name = fmt.Sprintf("marker%d", i+1)
		plan.Markers = append(plan.Markers, p)
	}
	return plan, nil
}
