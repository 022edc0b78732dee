package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/config"
	"github.com/litescript/ls-skyplan/internal/coordtext"
	"github.com/litescript/ls-skyplan/internal/observability"
	"github.com/litescript/ls-skyplan/internal/resolver"
	"github.com/litescript/ls-skyplan/internal/session"
)

const orion = "05 35 17.3 -05 23 28"

type fixture struct {
	api     *httptest.Server
	remote  *httptest.Server
	hits    *atomic.Int32
	metrics *observability.Collector
}

func newFixture(t *testing.T, remote http.HandlerFunc, opts ...Option) *fixture {
	t.Helper()
	var hits atomic.Int32
	if remote == nil {
		remote = func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<jpos>00:42:44.33 +41:16:07.5</jpos>"))
		}
	}
	rs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		remote(w, r)
	}))
	t.Cleanup(rs.Close)

	cfg := config.New()
	cfg.Date = "2025-06-09"
	cfg.Resolver.URL = rs.URL + "/?"
	cfg.Resolver.Rate = 0
	cfg.Resolver.ProgressDelay = 10 * time.Millisecond

	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	srv, err := New(cfg, append([]Option{WithMetrics(metrics)}, opts...)...)
	require.NoError(t, err)
	api := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		api.Close()
		srv.Close()
	})
	return &fixture{api: api, remote: rs, hits: &hits, metrics: metrics}
}

func (f *fixture) get(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(f.api.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func q(target string) string {
	return strings.ReplaceAll(target, " ", "+")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.GridOverlap = 1.5
	_, err := New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	var body map[string]string
	resp := f.get(t, "/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestResolve(t *testing.T) {
	f := newFixture(t, nil)

	var got resolver.Target
	resp := f.get(t, "/api/resolve?target=M31", &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, resolver.SourceRemote, got.Source)
	assert.Equal(t, "00:42:44.33 41:16:07.50", got.Coordinates)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	// Same client, same session: the memo answers.
	f.get(t, "/api/resolve?target=M31", &got)
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestResolve_RequestIDEchoed(t *testing.T) {
	f := newFixture(t, nil)
	req, err := http.NewRequest(http.MethodGet, f.api.URL+"/api/resolve?target="+q(orion), nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestResolve_Errors(t *testing.T) {
	notFound := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("!! no object"))
	}
	f := newFixture(t, notFound)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"missing target", "/api/resolve", http.StatusBadRequest},
		{"bad coordinates", "/api/resolve?target=" + q("12 00 00 +95 00 00"), http.StatusBadRequest},
		{"unknown name", "/api/resolve?target=Nowhere+Nebula", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body errorBody
			resp := f.get(t, tc.path, &body)
			assert.Equal(t, tc.code, resp.StatusCode)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestNight(t *testing.T) {
	f := newFixture(t, nil)

	var plan session.NightPlan
	resp := f.get(t, "/api/night?target="+q(orion)+"&date=2025-12-21", &plan)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC), plan.Date)
	assert.NotEmpty(t, plan.Night.Samples)

	resp = f.get(t, "/api/night?target="+q(orion)+"&date=21-12-2025", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestYear(t *testing.T) {
	f := newFixture(t, nil)
	var plan session.YearPlan
	resp := f.get(t, "/api/year?target="+q(orion), &plan)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, plan.Year.Samples, 366)
}

func TestMosaic(t *testing.T) {
	f := newFixture(t, nil)

	var plan session.MosaicPlan
	resp := f.get(t, "/api/mosaic?target="+q(orion)+"&cols=3&rows=3", &plan)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, plan.Panels, 3)
	assert.Equal(t, "B2", plan.Panels[1][1].Name)

	resp = f.get(t, "/api/mosaic?target="+q(orion)+"&cols=6&rows=1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.get(t, "/api/mosaic?target="+q(orion)+"&cols=x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var list session.ListPlan
	resp = f.get(t, "/api/mosaic?list="+q("05 35 17 -05 23 28, 05 41 00 -01 51 00"), &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list.Panels, 2)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, nil, WithClientRateLimit(0.001, 2))

	codes := make([]int, 0, 3)
	for range 3 {
		resp := f.get(t, "/api/resolve?target="+q(orion), nil)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.get(t, "/api/resolve?target="+q(orion), nil)

	resp, err := http.Get(f.api.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `skyplan_http_requests_total{code="200",route="resolve"} 1`)
	assert.Contains(t, string(body), `skyplan_resolutions_total{outcome="coordinates"} 1`)
	assert.Contains(t, string(body), "skyplan_sessions 1")
}

func dial(t *testing.T, f *fixture, target string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(f.api.URL, "http") + "/ws/resolve?target=" + q(target)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readAll(t *testing.T, conn *websocket.Conn) []StreamMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msgs []StreamMessage
	for {
		var m StreamMessage
		if err := conn.ReadJSON(&m); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				t.Fatalf("read: %v", err)
			}
			return msgs
		}
		msgs = append(msgs, m)
	}
}

func TestResolveStream(t *testing.T) {
	slow := func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte("<jpos>00:42:44.33 +41:16:07.5</jpos>"))
	}
	f := newFixture(t, slow)

	msgs := readAll(t, dial(t, f, "M31"))
	require.GreaterOrEqual(t, len(msgs), 3)

	assert.Equal(t, MessageProgress, msgs[0].Type)
	assert.Equal(t, resolver.PhaseResolving, msgs[0].Event.Phase)
	assert.Equal(t, "Resolving name...", msgs[1].Event.Message)

	last := msgs[len(msgs)-1]
	require.Equal(t, MessageResult, last.Type)
	assert.Equal(t, "00:42:44.33 41:16:07.50", last.Target.Coordinates)
}

func TestResolveStream_Error(t *testing.T) {
	f := newFixture(t, nil)
	msgs := readAll(t, dial(t, f, "12 00 00 +95 00 00"))
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageError, msgs[0].Type)
	assert.Equal(t, http.StatusBadRequest, msgs[0].Status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&coordtext.SyntaxError{Input: "x", Reason: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("grid: %w", session.ErrGridTooLarge), http.StatusBadRequest},
		{&resolver.ResolveError{Input: "x", Remote: resolver.ErrUnparseable}, http.StatusNotFound},
		{&resolver.ResolveError{Input: "x", Remote: fmt.Errorf("%w: dial", resolver.ErrTransport)}, http.StatusNotFound},
		{fmt.Errorf("%w: dial", resolver.ErrTransport), http.StatusBadGateway},
		{fmt.Errorf("night: %w", astro.ErrAlwaysUp), http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestEvictIdleClients(t *testing.T) {
	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	srv, err := New(config.New(), WithMetrics(metrics), WithIdleTimeout(time.Minute))
	require.NoError(t, err)
	h := srv.Handler()

	for _, addr := range []string{"10.0.0.1:5000", "10.0.0.2:5000", "10.0.0.3:5000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/resolve?target="+strings.ReplaceAll(orion, " ", "+"), nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Sessions))

	assert.Zero(t, srv.evictIdle(time.Now()))
	assert.Equal(t, 3, srv.evictIdle(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Sessions))
	assert.Empty(t, srv.clients)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.New()
	cfg.ListenAddr = "127.0.0.1:0"
	srv, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
