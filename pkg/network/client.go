// Package network provides the outbound HTTP boundary used to populate
// cache regions and to serve cache misses.
package network

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for network operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nwbus_network_requests_total",
		Help: "Total network requests by host and status",
	}, []string{"host", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nwbus_network_request_duration_seconds",
		Help:    "Network request duration in seconds by host",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"host"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nwbus_network_errors_total",
		Help: "Total network errors by class",
	}, []string{"class"})
)

// Fetcher performs a single network round-trip.
type Fetcher interface {
	Fetch(req *http.Request) (*http.Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(req *http.Request) (*http.Response, error)

// Fetch calls f(req).
func (f FetcherFunc) Fetch(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header sent when the request carries none.
	UserAgent string

	// Timeout for a whole round-trip. Zero means no timeout.
	Timeout time.Duration

	// Transport overrides the HTTP transport (nil uses http.DefaultTransport).
	Transport http.RoundTripper
}

// DefaultConfig returns the default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
	}
}

// Client is the HTTP implementation of Fetcher. It never retries and
// returns responses and errors exactly as the transport produced them.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new network client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "network").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// Fetch sends req and returns the transport's result unmodified.
// Non-2xx responses are not errors.
func (c *Client) Fetch(req *http.Request) (*http.Response, error) {
	if req == nil || req.URL == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	host := req.URL.Host
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(host).Observe(time.Since(startTime).Seconds())
	}()

	if req.Header == nil {
		req.Header = http.Header{}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Executing network request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := Classify(nil, err)
		errorsTotal.WithLabelValues(string(class)).Inc()
		requestsTotal.WithLabelValues(host, "network_error").Inc()
		c.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Network request failed")
		return nil, err
	}

	requestsTotal.WithLabelValues(host, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	if class := Classify(resp, nil); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Debug().
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Network request returned error status")
	}

	return resp, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
