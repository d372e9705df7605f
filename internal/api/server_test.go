package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/concave-dev/otto/internal/docstore"
	"github.com/concave-dev/otto/internal/history"
	"github.com/concave-dev/otto/internal/intentpool"
	"github.com/concave-dev/otto/internal/intents"
	"github.com/concave-dev/otto/internal/netstate"
	"github.com/concave-dev/otto/internal/reconciler"
)

type stubModel string

func (m stubModel) Identity() string { return string(m) }

type stubSource struct{}

func (stubSource) ListSwitches(context.Context) ([]string, error) { return nil, nil }
func (stubSource) SwitchState(context.Context, string) (netstate.Record, error) {
	return nil, fmt.Errorf("not connected")
}

// testDeps wires real components over sqlite in a temp dir.
type testDeps struct {
	registry *netstate.Registry
	history  *history.Store
	config   *Config
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	dir := t.TempDir()

	topoDB, err := docstore.OpenSQLite(filepath.Join(dir, "topology.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = topoDB.Close() })
	coll, err := docstore.NewSQLiteCollection(topoDB, "switches")
	if err != nil {
		t.Fatalf("NewSQLiteCollection() error = %v", err)
	}
	registry := netstate.NewRegistry(coll)

	histDB, err := docstore.OpenSQLite(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	backend, err := history.NewSQLiteBackend(histDB)
	if err != nil {
		t.Fatalf("NewSQLiteBackend() error = %v", err)
	}
	store, err := history.Open(backend)
	if err != nil {
		t.Fatalf("history.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	factory := intentpool.ModelFactoryFunc(func(id string) (intentpool.Model, error) { return stubModel(id), nil })
	pool, err := intentpool.New(6, []string{"gpt-4o", "deepseek-chat"}, factory)
	if err != nil {
		t.Fatalf("intentpool.New() error = %v", err)
	}
	if err := pool.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}

	rec, err := reconciler.New(registry, stubSource{}, reconciler.Config{Interval: time.Hour, MaxConcurrentFetches: 1})
	if err != nil {
		t.Fatalf("reconciler.New() error = %v", err)
	}

	config := DefaultConfig()
	config.Registry = registry
	config.History = store
	config.Intents = intents.NewService(pool, nil, store, "gpt-4o")
	config.Pool = pool
	config.Reconciler = rec

	return &testDeps{registry: registry, history: store, config: config}
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var parsed map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, parsed
}

// TestNewServer tests NewServer creation
func TestNewServer(t *testing.T) {
	config := DefaultConfig()
	server := NewServer(config)

	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.config != config {
		t.Error("NewServer() did not keep the config")
	}
	if server.Addr() != "" {
		t.Errorf("Addr() before Start = %q, want empty", server.Addr())
	}
}

// TestServer_EndToEnd exercises the routes against real stores
func TestServer_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deps := newTestDeps(t)
	ctx := context.Background()

	if _, err := deps.registry.Put(ctx, netstate.NewRecord("1", map[string][]map[string]any{
		"0": {{"priority": 0, "actions": []any{"OUTPUT:CONTROLLER"}}},
	})); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	for _, who := range []string{"A", "A", "B"} {
		if _, err := deps.history.Save(ctx, "block h1", who, []string{"add_rule"}, time.Now(), history.WithModel("gpt-4o")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	h := NewServer(deps.config).Handler()

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{"GET", "/api/v1/health", "", http.StatusOK},
		{"GET", "/api/v1/switches", "", http.StatusOK},
		{"GET", "/api/v1/switches/1", "", http.StatusOK},
		{"GET", "/api/v1/switches/2", "", http.StatusNotFound},
		{"GET", "/api/v1/intents/latest?limit=2", "", http.StatusOK},
		{"GET", "/api/v1/intents/weekly", "", http.StatusOK},
		{"GET", "/api/v1/intents/top", "", http.StatusOK},
		{"GET", "/api/v1/intents/model-usage", "", http.StatusOK},
		{"POST", "/api/v1/intents", `{"intent":"block h1"}`, http.StatusNotImplemented},
		{"GET", "/api/v1/pool", "", http.StatusOK},
		{"GET", "/api/v1/reconciler", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			code, _ := do(t, h, tt.method, tt.path, tt.body)
			if code != tt.status {
				t.Errorf("status = %d, want %d", code, tt.status)
			}
		})
	}

	_, body := do(t, h, "GET", "/api/v1/intents/top", "")
	data, ok := body["data"].(map[string]any)
	if !ok || data["A"] != float64(2) || data["B"] != float64(1) {
		t.Errorf("top activity = %v, want A:2 B:1", body["data"])
	}

	_, body = do(t, h, "GET", "/api/v1/intents/latest?limit=2", "")
	if latest, _ := body["data"].(map[string]any); len(latest) > 2 {
		t.Errorf("latest activity returned %d entries, want at most 2", len(latest))
	}
}

// TestServer_Metrics tests that the Prometheus endpoint is served
func TestServer_Metrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewServer(newTestDeps(t).config).Handler()

	do(t, h, "GET", "/api/v1/health", "")

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "otto_http_requests_total") {
		t.Error("/metrics does not expose otto_http_requests_total")
	}
}

// TestServer_StartAndShutdown tests binding on an ephemeral port
func TestServer_StartAndShutdown(t *testing.T) {
	config := newTestDeps(t).config
	config.BindPort = 0

	server := NewServer(config)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + server.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

// TestServer_StartRejectsInvalidConfig tests that a mis-wired server never binds
func TestServer_StartRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing reconciler", func(c *Config) { c.Reconciler = nil }},
		{"missing intent service", func(c *Config) { c.Intents = nil }},
		{"empty declarer", func(c *Config) { c.DefaultDeclarer = "" }},
		{"port out of range", func(c *Config) { c.BindPort = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := newTestDeps(t).config
			config.BindPort = 0
			tt.mutate(config)

			server := NewServer(config)
			err := server.Start()
			if err == nil {
				_ = server.Shutdown(context.Background())
				t.Fatal("Start() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), "invalid API config") {
				t.Errorf("Start() error = %v, want invalid API config", err)
			}
			if server.Addr() != "" {
				t.Errorf("Addr() = %q, want empty after failed Start", server.Addr())
			}
		})
	}
}

// TestServer_StartWithListenerRejectsInvalidConfig tests validation on the
// caller-bound path
func TestServer_StartWithListenerRejectsInvalidConfig(t *testing.T) {
	config := newTestDeps(t).config
	config.Pool = nil

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer listener.Close()

	if err := NewServer(config).StartWithListener(listener); err == nil {
		t.Error("StartWithListener() error = nil, want validation error")
	}
}
