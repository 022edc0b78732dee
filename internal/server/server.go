// Package server exposes planning sessions over HTTP/JSON and streams name
// resolution progress over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/config"
	"github.com/litescript/ls-skyplan/internal/coordtext"
	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/mosaic"
	"github.com/litescript/ls-skyplan/internal/observability"
	"github.com/litescript/ls-skyplan/internal/resolver"
	"github.com/litescript/ls-skyplan/internal/session"
	"github.com/litescript/ls-skyplan/internal/version"
)

const (
	// DefaultClientRate is the per-client request rate in requests per second.
	DefaultClientRate  = 10
	DefaultClientBurst = 20

	// RequestIDHeader carries the request ID in and out.
	RequestIDHeader = "X-Request-ID"

	// DefaultIdleTimeout is how long a client's session outlives its last
	// request.
	DefaultIdleTimeout = 30 * time.Minute

	shutdownTimeout = 5 * time.Second
)

// client is the per-address state: a limiter and a private session.
type client struct {
	limiter    *rate.Limiter
	session    *session.Session
	lastActive time.Time
}

// Server serves the planner API.
type Server struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *observability.Collector

	sessionOpts []session.Option
	rate        rate.Limit
	burst       int
	idle        time.Duration

	mu      sync.Mutex
	clients map[string]*client
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics enables /metrics and per-route request metrics.
func WithMetrics(c *observability.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithClientRateLimit sets the per-client request rate. A limit <= 0
// disables throttling.
func WithClientRateLimit(limit float64, burst int) Option {
	return func(s *Server) {
		if limit <= 0 {
			s.rate, s.burst = rate.Inf, 0
			return
		}
		s.rate, s.burst = rate.Limit(limit), max(burst, 1)
	}
}

// WithIdleTimeout sets how long an idle client's session is kept. A
// timeout <= 0 keeps sessions until the server stops.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idle = d }
}

// WithSessionOptions passes options to every client session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// New validates cfg and creates a Server.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		log:     logging.Discard(),
		rate:    DefaultClientRate,
		burst:   DefaultClientBurst,
		idle:    DefaultIdleTimeout,
		clients: make(map[string]*client),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /api/resolve", "resolve", s.handleResolve)
	s.route(mux, "GET /api/night", "night", s.handleNight)
	s.route(mux, "GET /api/year", "year", s.handleYear)
	s.route(mux, "GET /api/mosaic", "mosaic", s.handleMosaic)
	s.route(mux, "GET /ws/resolve", "ws_resolve", s.handleResolveStream)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

func (s *Server) route(mux *http.ServeMux, pattern, name string, h func(http.ResponseWriter, *http.Request, *client)) {
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(logging.WithRequestID(r.Context(), id))

		c, err := s.client(clientKey(r))
		if err != nil {
			s.log.Error(r.Context(), "create session", logging.Err(err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !c.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		h(w, r, c)
	})
	if s.metrics != nil {
		handler = s.metrics.Middleware(name, handler)
	}
	mux.Handle(pattern, handler)
}

// client returns the state for key, creating it on first use.
func (s *Server) client(key string) (*client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[key]; ok {
		c.lastActive = time.Now()
		return c, nil
	}
	opts := append([]session.Option{session.WithLogger(s.log), session.WithMetrics(s.metrics)}, s.sessionOpts...)
	sess, err := session.New(s.cfg, opts...)
	if err != nil {
		return nil, err
	}
	c := &client{limiter: rate.NewLimiter(s.rate, s.burst), session: sess, lastActive: time.Now()}
	s.clients[key] = c
	return c, nil
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// evictIdle closes and forgets clients idle since before now-idle.
func (s *Server) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, c := range s.clients {
		if now.Sub(c.lastActive) > s.idle {
			c.session.Close()
			delete(s.clients, key)
			n++
		}
	}
	return n
}

func (s *Server) cleanupClients(ctx context.Context) {
	ticker := time.NewTicker(min(s.idle/2, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.evictIdle(now); n > 0 {
				s.log.Debug(ctx, "evicted idle clients", logging.Int("count", n))
			}
		}
	}
}

// Close closes every client session.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, c := range s.clients {
		c.session.Close()
		delete(s.clients, key)
	}
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.idle > 0 {
		cleanupCtx, stop := context.WithCancel(ctx)
		defer stop()
		go s.cleanupClients(cleanupCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "listening", logging.String("addr", s.cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, c *client) {
	target, ok := requireTarget(w, r)
	if !ok {
		return
	}
	t, err := c.session.Resolve(r.Context(), target, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleNight(w http.ResponseWriter, r *http.Request, c *client) {
	target, ok := requireTarget(w, r)
	if !ok {
		return
	}
	date, err := parseDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	plan, err := c.session.Night(r.Context(), target, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request, c *client) {
	target, ok := requireTarget(w, r)
	if !ok {
		return
	}
	date, err := parseDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	plan, err := c.session.Year(r.Context(), target, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handleMosaic serves a grid around ?target=, or boxes for a coordinate
// ?list= when no target is given.
func (s *Server) handleMosaic(w http.ResponseWriter, r *http.Request, c *client) {
	q := r.URL.Query()
	if list := q.Get("list"); list != "" && q.Get("target") == "" {
		limit, err := intParam(q.Get("limit"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		plan, err := c.session.List(list, limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
		return
	}

	target, ok := requireTarget(w, r)
	if !ok {
		return
	}
	cols, err := intParam(q.Get("cols"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows, err := intParam(q.Get("rows"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	plan, err := c.session.Mosaic(r.Context(), target, cols, rows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// fail maps domain errors onto HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Warn(r.Context(), "request failed", logging.String("path", r.URL.Path), logging.Err(err))
	}
	writeError(w, code, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, coordtext.ErrCoordinateSyntax),
		errors.Is(err, session.ErrGridTooLarge),
		errors.Is(err, mosaic.ErrInvalidGrid):
		return http.StatusBadRequest
	case errors.Is(err, resolver.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, resolver.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, astro.ErrGeometryDegenerate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func requireTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing target parameter"))
		return "", false
	}
	return target, true
}

func parseDate(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(config.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", v)
	}
	return d, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
