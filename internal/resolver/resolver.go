// Package resolver turns user supplied target text into J2000 coordinates,
// using literal coordinate parsing, a remote name resolver, and local catalog
// tables as fallback.
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/catalog"
	"github.com/litescript/ls-skyplan/internal/coordtext"
	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/observability"
)

const (
	// DefaultURL is the CDS Sesame resolver; the URL-escaped name is
	// appended.
	DefaultURL = "https://cdsweb.u-strasbg.fr/cgi-bin/nph-sesame/-oxp/SNV?"

	// DefaultTimeout for the remote request.
	DefaultTimeout = 10 * time.Second

	// DefaultProgressDelay is how long a lookup runs before the "still
	// resolving" notification fires.
	DefaultProgressDelay = time.Second

	// DefaultRate limits outbound lookups per second.
	DefaultRate = 2

	maxResponseBytes = 1 << 20
	userAgent        = "ls-skyplan/1.0 (observation planner)"
)

// Source identifies which strategy produced a Target.
type Source string

const (
	SourceCoordinates Source = "coordinates"
	SourceRemote      Source = "remote"
	SourceCatalog     Source = "catalog"
)

// Target is a resolved object.
type Target struct {
	Input       string           `json:"input"`
	Name        string           `json:"name"`
	Coordinates string           `json:"coordinates"` // canonical "HH:MM:SS DD:MM:SS"
	Position    astro.Equatorial `json:"position"`
	Source      Source           `json:"source"`
	Catalog     string           `json:"catalog,omitempty"`
	Info        string           `json:"info,omitempty"`
}

// Phase is a step of the resolution state machine:
// Idle → Resolving → {Resolved | FallingBack → {Resolved | Failed}}.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResolving
	PhaseFallingBack
	PhaseResolved
	PhaseFailed
)

var phaseNames = [...]string{"idle", "resolving", "falling_back", "resolved", "failed"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText encodes the phase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown resolver phase %q", b)
}

// Event is a progress notification.
type Event struct {
	Phase   Phase         `json:"phase"`
	Message string        `json:"message"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// ProgressFunc receives progress events. It may be called from a timer
// goroutine and must be safe for concurrent use.
type ProgressFunc func(Event)

// Resolver resolves target text. It holds no per-request state and is safe
// for concurrent use.
type Resolver struct {
	client        *http.Client
	url           string
	timeout       time.Duration
	userAgent     string
	progressDelay time.Duration
	catalogs      []catalog.Catalog
	limiter       *rate.Limiter
	metrics       *observability.Collector
	log           *logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithURL sets the remote resolver base URL.
func WithURL(u string) Option {
	return func(r *Resolver) {
		r.url = u
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		r.client = c
	}
}

// WithUserAgent overrides the request User-Agent.
func WithUserAgent(ua string) Option {
	return func(r *Resolver) {
		r.userAgent = ua
	}
}

// WithCatalogs sets the local fallback tables, searched in order.
func WithCatalogs(cats []catalog.Catalog) Option {
	return func(r *Resolver) {
		r.catalogs = cats
	}
}

// WithRateLimit throttles remote lookups. A limit <= 0 disables throttling.
func WithRateLimit(limit float64, burst int) Option {
	return func(r *Resolver) {
		if limit <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithProgressDelay sets when the "still resolving" event fires.
func WithProgressDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.progressDelay = d
	}
}

// WithMetrics records resolution outcomes and remote latency.
func WithMetrics(c *observability.Collector) Option {
	return func(r *Resolver) {
		r.metrics = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		url:           DefaultURL,
		timeout:       DefaultTimeout,
		userAgent:     userAgent,
		progressDelay: DefaultProgressDelay,
		limiter:       rate.NewLimiter(DefaultRate, 1),
		log:           logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: r.timeout}
	}
	return r
}

// Catalogs returns the local fallback tables.
func (r *Resolver) Catalogs() []catalog.Catalog {
	return r.catalogs
}

// Resolve resolves text to a Target. Coordinate text is parsed directly and
// its syntax errors are returned as is. Names get exactly one remote
// attempt; any remote failure falls back to the local catalogs. progress may
// be nil.
func (r *Resolver) Resolve(ctx context.Context, text string, progress ProgressFunc) (Target, error) {
	input := strings.TrimSpace(text)
	if coordtext.IsCoordinateText(input) {
		t, err := literalTarget(input)
		if err != nil {
			return Target{}, err
		}
		r.metrics.ObserveResolve(observability.OutcomeLiteral)
		return t, nil
	}

	start := time.Now()
	notify := func(p Phase, msg string) {
		if progress != nil {
			progress(Event{Phase: p, Message: msg, Elapsed: time.Since(start)})
		}
	}

	notify(PhaseResolving, "Resolving name")

	// The slow-lookup notice must not land after the lookup has finished.
	var (
		slowMu   sync.Mutex
		finished bool
	)
	timer := time.AfterFunc(r.progressDelay, func() {
		slowMu.Lock()
		defer slowMu.Unlock()
		if !finished {
			notify(PhaseResolving, "Resolving name...")
		}
	})
	coords, remoteErr := r.lookupRemote(ctx, input)
	timer.Stop()
	slowMu.Lock()
	finished = true
	slowMu.Unlock()

	if remoteErr == nil {
		t, err := remoteTarget(input, coords)
		if err == nil {
			r.metrics.ObserveResolve(observability.OutcomeRemote)
			notify(PhaseResolved, t.Coordinates)
			return t, nil
		}
		remoteErr = fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	r.log.Debug(ctx, "remote lookup failed, trying catalogs",
		logging.String("target", input), logging.Err(remoteErr))

	notify(PhaseFallingBack, "Searching local catalogs")
	t, localErr := r.lookupCatalogs(input)
	if localErr != nil {
		r.metrics.ObserveResolve(observability.OutcomeNotFound)
		err := &ResolveError{Input: input, Remote: remoteErr, Local: localErr}
		notify(PhaseFailed, err.Error())
		return Target{}, err
	}
	r.metrics.ObserveResolve(observability.OutcomeFallback)
	notify(PhaseResolved, t.Coordinates)
	return t, nil
}

func literalTarget(input string) (Target, error) {
	canon, err := coordtext.Canonicalize(input)
	if err != nil {
		return Target{}, err
	}
	eq, err := coordtext.Parse(canon)
	if err != nil {
		return Target{}, err
	}
	return Target{
		Input:       input,
		Name:        canon,
		Coordinates: canon,
		Position:    eq,
		Source:      SourceCoordinates,
	}, nil
}

func remoteTarget(input, coords string) (Target, error) {
	canon, err := coordtext.Canonicalize(coords)
	if err != nil {
		return Target{}, err
	}
	eq, err := coordtext.Parse(canon)
	if err != nil {
		return Target{}, err
	}
	return Target{
		Input:       input,
		Name:        input,
		Coordinates: canon,
		Position:    eq,
		Source:      SourceRemote,
	}, nil
}

// lookupRemote performs the single remote request and returns the raw
// coordinate text from the response.
func (r *Resolver) lookupRemote(ctx context.Context, name string) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "resolver.remote")
	defer span.End()
	span.SetAttributes(attribute.String("skyplan.target", name))

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limit")
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	body, status, err := r.fetch(ctx, name)
	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	coords, ok := parseSesame(body)
	if !ok {
		span.SetStatus(codes.Error, "no coordinates")
		return "", ErrUnparseable
	}
	span.SetAttributes(attribute.String("skyplan.coordinates", coords))
	return coords, nil
}

func (r *Resolver) fetch(ctx context.Context, name string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url+url.QueryEscape(name), nil)
	if err != nil {
		return "", 0, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/xml, text/xml, text/plain")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.metrics.ObserveRemote("error", time.Since(start))
		return "", 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	r.metrics.ObserveRemote(strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, fmt.Errorf("%w: unexpected status code: %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: read response body: %v", ErrTransport, err)
	}
	return string(body), resp.StatusCode, nil
}

func (r *Resolver) lookupCatalogs(input string) (Target, error) {
	if len(r.catalogs) == 0 {
		return Target{}, errNoCatalogs
	}
	cl := catalog.Classify(input)
	e, ok := catalog.Resolve(r.catalogs, cl)
	if !ok {
		return Target{}, fmt.Errorf("%w (%s lookup of %q)", errNoCatalogMatch, cl.Mode, cl.Name)
	}

	canon, err := coordtext.Canonicalize(e.Coordinates())
	if err != nil {
		return Target{}, fmt.Errorf("catalog entry %q: %w", e.Designator(), err)
	}
	eq, err := coordtext.Parse(canon)
	if err != nil {
		return Target{}, fmt.Errorf("catalog entry %q: %w", e.Designator(), err)
	}

	name := e.Designator()
	if dn := e.DisplayName(); dn != "" && dn != name {
		name += " (" + dn + ")"
	}
	return Target{
		Input:       input,
		Name:        name,
		Coordinates: canon,
		Position:    eq,
		Source:      SourceCatalog,
		Catalog:     cl.Family,
		Info:        e.Info(),
	}, nil
}
