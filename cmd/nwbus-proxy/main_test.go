package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/northwest-bus-cache/internal/testutil"
	"github.com/Sternrassler/northwest-bus-cache/pkg/cache"
	"github.com/Sternrassler/northwest-bus-cache/pkg/logging"
	"github.com/Sternrassler/northwest-bus-cache/pkg/manifest"
	"github.com/Sternrassler/northwest-bus-cache/pkg/sw"
	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://northwestbus.test"

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig(env.Options{Environment: map[string]string{}})
		require.NoError(t, err)

		assert.Equal(t, "localhost:6379", cfg.RedisURL)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "northwest-bus", cfg.CachePrefix)
		assert.Equal(t, "1.0.0", cfg.CacheVersion)
		assert.Equal(t, logging.LevelInfo, cfg.LogLevel)
		assert.Equal(t, time.Duration(0), cfg.FetchTimeout)
		assert.Equal(t, 6, cfg.InstallConcurrency)
		assert.Equal(t, storageRedis, cfg.Storage)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := loadConfig(env.Options{Environment: map[string]string{
			"ORIGIN_URL":          testOrigin,
			"CACHE_VERSION":       "1.0.1",
			"LOG_LEVEL":           "DEBUG",
			"FETCH_TIMEOUT":       "5s",
			"INSTALL_CONCURRENCY": "2",
			"STORAGE":             "memory",
		}})
		require.NoError(t, err)

		assert.Equal(t, "1.0.1", cfg.CacheVersion)
		assert.Equal(t, logging.LevelDebug, cfg.LogLevel)
		assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
		assert.Equal(t, 2, cfg.InstallConcurrency)
		assert.Equal(t, storageMemory, cfg.Storage)
	})

	invalid := map[string]map[string]string{
		"unknown storage":     {"STORAGE": "disk"},
		"relative origin":     {"ORIGIN_URL": "/site"},
		"unknown log level":   {"LOG_LEVEL": "verbose"},
		"bad timeout":         {"FETCH_TIMEOUT": "soon"},
		"zero concurrency":    {"INSTALL_CONCURRENCY": "0"},
		"non-numeric workers": {"INSTALL_CONCURRENCY": "many"},
	}
	for name, environ := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(env.Options{Environment: environ})
			assert.Error(t, err)
		})
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = redisOptions("redis://cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	_, err = redisOptions("redis://cache.internal:6380/notadb")
	assert.Error(t, err)
}

// newTestServer returns a router over a registration whose first version
// is installed and active.
func newTestServer(t *testing.T, net *testutil.StubNetwork, entries ...string) (*httptest.Server, *sw.Registration, cache.Storage) {
	t.Helper()

	origin, err := url.Parse(testOrigin)
	require.NoError(t, err)

	storage := cache.NewMemoryStorage()
	reg := sw.NewRegistration(net)

	if entries != nil {
		cfg := sw.DefaultConfig("northwest-bus-v1.0.0", origin, storage, net)
		cfg.Manifest = manifest.Manifest{Entries: entries}
		c, err := sw.New(cfg)
		require.NoError(t, err)
		require.NoError(t, reg.Register(context.Background(), c))
	}

	srv := httptest.NewServer(newRouter(origin, reg, alwaysReady))
	t.Cleanup(srv.Close)
	return srv, reg, storage
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		readyHandler(alwaysReady)(w, httptest.NewRequest("GET", "/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())
	})

	t.Run("not_ready_storage_down", func(t *testing.T) {
		down := func(context.Context) error { return errors.New("connection refused") }

		w := httptest.NewRecorder()
		readyHandler(down)(w, httptest.NewRequest("GET", "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
}

func TestSiteHandler_ServesFromCache(t *testing.T) {
	net := testutil.NewStubNetwork()
	net.Set(testOrigin+"/style.css", testutil.StubResponse{StatusCode: 200, Body: "body{}"})
	srv, _, _ := newTestServer(t, net, "/style.css", "/images/Map (1).png")
	installCalls := net.TotalCalls()

	for _, path := range []string{"/style.css", "/images/Map%20(1).png"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, body)
	}
	assert.Equal(t, installCalls, net.TotalCalls(), "cached entries must not reach the network")
}

func TestSiteHandler_MissPassesThrough(t *testing.T) {
	net := testutil.NewStubNetwork()
	net.Set(testOrigin+"/booking?route=amman", testutil.StubResponse{StatusCode: http.StatusNotFound, Body: "no seats"})
	srv, _, _ := newTestServer(t, net, "/")

	resp, err := http.Get(srv.URL + "/booking?route=amman")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no seats", string(body))
	assert.Equal(t, 1, net.Calls(testOrigin+"/booking?route=amman"))
}

func TestSiteHandler_NetworkError(t *testing.T) {
	net := testutil.NewStubNetwork()
	net.Set(testOrigin+"/offline", testutil.StubResponse{Err: errors.New("network is unreachable")})
	srv, _, _ := newTestServer(t, net, "/")

	resp, err := http.Get(srv.URL + "/offline")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestSiteHandler_NoControllerUsesNetwork(t *testing.T) {
	net := testutil.NewStubNetwork()
	srv, _, _ := newTestServer(t, net)

	resp, err := http.Get(srv.URL + "/index.html")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, net.Calls(testOrigin+"/index.html"))
}

func TestMessageEndpoint(t *testing.T) {
	t.Run("no controller", func(t *testing.T) {
		srv, _, _ := newTestServer(t, testutil.NewStubNetwork())

		resp, err := http.Post(srv.URL+"/sw/message", "application/json", strings.NewReader(`{"type":"SKIP_WAITING"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("invalid payload", func(t *testing.T) {
		srv, _, _ := newTestServer(t, testutil.NewStubNetwork(), "/")

		resp, err := http.Post(srv.URL+"/sw/message", "application/json", strings.NewReader(`SKIP_WAITING`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ignored type", func(t *testing.T) {
		srv, _, _ := newTestServer(t, testutil.NewStubNetwork(), "/")

		resp, err := http.Post(srv.URL+"/sw/message", "application/json", strings.NewReader(`{"type":"PING"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		var out map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, out["handled"])
	})

	t.Run("skip waiting promotes waiting version", func(t *testing.T) {
		net := testutil.NewStubNetwork()
		srv, reg, storage := newTestServer(t, net, "/")

		client := reg.Acquire()
		defer client.Release(context.Background())

		origin, _ := url.Parse(testOrigin)
		cfg := sw.DefaultConfig("northwest-bus-v1.0.1", origin, storage, net)
		cfg.Manifest = manifest.Manifest{Entries: []string{"/"}}
		v2, err := sw.New(cfg)
		require.NoError(t, err)
		require.NoError(t, reg.Register(context.Background(), v2))
		require.Same(t, v2, reg.Waiting())

		resp, err := http.Post(srv.URL+"/sw/message", "application/json", strings.NewReader(`{"type":"SKIP_WAITING"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		var out map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.True(t, out["handled"])
		assert.Same(t, v2, reg.Active())

		names, err := storage.Keys(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"northwest-bus-v1.0.1"}, names)
	})

	t.Run("method not allowed", func(t *testing.T) {
		srv, _, _ := newTestServer(t, testutil.NewStubNetwork())

		resp, err := http.Get(srv.URL + "/sw/message")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, testutil.NewStubNetwork(), "/")

	resp, err := http.Get(srv.URL + "/sw/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"active":{"cache_name":"northwest-bus-v1.0.0","state":"activated"},"clients":0}`, string(raw))
}

func TestMetricsEndpoint(t *testing.T) {
	net := testutil.NewStubNetwork()
	srv, _, _ := newTestServer(t, net, "/")

	// Serve one request from cache so the lifecycle counters have samples
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	bodyStr := string(body)
	assert.Contains(t, bodyStr, "# HELP")
	assert.Contains(t, bodyStr, `nwbus_sw_fetches_total{source="cache"}`)
	assert.Contains(t, bodyStr, `nwbus_sw_installs_total{result="success"}`)
}

func TestOpenStorage_Memory(t *testing.T) {
	storage, ready, closeStorage, err := openStorage(context.Background(), config{Storage: storageMemory})
	require.NoError(t, err)
	defer closeStorage()

	assert.IsType(t, &cache.MemoryStorage{}, storage)
	assert.NoError(t, ready(context.Background()))
}
