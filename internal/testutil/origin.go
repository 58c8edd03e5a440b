// Package testutil provides testing utilities for the offline cache service.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// OriginResponse defines the behavior for a mock origin path.
type OriginResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockOrigin is a configurable mock website origin for testing.
// Unconfigured paths answer 200 with a body naming the path.
type MockOrigin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	counts   map[string]int

	// LastRequestHeader is the header of the most recent request
	LastRequestHeader http.Header
}

// NewMockOrigin starts a new mock origin server.
func NewMockOrigin() *MockOrigin {
	m := &MockOrigin{
		handlers: make(map[string]http.HandlerFunc),
		counts:   make(map[string]int),
	}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.counts[r.URL.Path]++
		m.LastRequestHeader = r.Header.Clone()
		handler, exists := m.handlers[r.URL.Path]
		m.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		m.defaultHandler(w, r)
	}))

	return m
}

// URL returns the mock server URL.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// BaseURL returns the mock server URL parsed.
func (m *MockOrigin) BaseURL() *url.URL {
	u, _ := url.Parse(m.server.URL)
	return u
}

// Close shuts down the mock server.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// Reset clears request counters.
func (m *MockOrigin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int)
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockOrigin) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockOrigin) SetResponse(path string, resp OriginResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// Fail makes path answer 500.
func (m *MockOrigin) Fail(path string) {
	m.SetResponse(path, OriginResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "origin failure",
	})
}

// RequestCount returns how many requests hit path.
func (m *MockOrigin) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[path]
}

// TotalRequests returns the number of requests across all paths.
func (m *MockOrigin) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int
	for _, n := range m.counts {
		total += n
	}
	return total
}

// Transport returns a RoundTripper that sends every request to the mock
// server regardless of its host, so cross-origin URLs can be served too.
func (m *MockOrigin) Transport() http.RoundTripper {
	base := m.BaseURL()
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		out := req.Clone(req.Context())
		out.URL.Scheme = base.Scheme
		out.URL.Host = base.Host
		out.Host = base.Host
		return http.DefaultTransport.RoundTrip(out)
	})
}

func (m *MockOrigin) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("asset " + r.URL.Path))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
