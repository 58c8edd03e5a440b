package sw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Sternrassler/northwest-bus-cache/pkg/cache"
	"github.com/Sternrassler/northwest-bus-cache/pkg/manifest"
	"github.com/Sternrassler/northwest-bus-cache/pkg/network"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of manifest entries fetched in parallel.
const DefaultConcurrency = 6

// Config holds the controller configuration.
type Config struct {
	// CacheName is the version-stamped name of the region this controller owns.
	CacheName string

	// Manifest lists the resources stored on install.
	Manifest manifest.Manifest

	// Origin resolves relative manifest entries.
	Origin *url.URL

	// Storage holds the cache regions.
	Storage cache.Storage

	// Network serves install fetches and cache misses.
	Network network.Fetcher

	// Concurrency bounds parallel install fetches.
	Concurrency int

	// Logger receives lifecycle logs. The zero value uses the global logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration using the default manifest.
func DefaultConfig(cacheName string, origin *url.URL, storage cache.Storage, fetcher network.Fetcher) Config {
	return Config{
		CacheName:   cacheName,
		Manifest:    manifest.Default(),
		Origin:      origin,
		Storage:     storage,
		Network:     fetcher,
		Concurrency: DefaultConcurrency,
	}
}

// Controller drives one cache version through install, activate and fetch.
// Each lifecycle signal has its own handler so hosts and tests can invoke
// transitions directly.
type Controller struct {
	config Config
	logger zerolog.Logger

	mu          sync.Mutex
	state       State
	skipWaiting bool
}

// New creates a controller in StateParsed.
func New(cfg Config) (*Controller, error) {
	if cfg.CacheName == "" {
		return nil, fmt.Errorf("cache name is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Network == nil {
		return nil, fmt.Errorf("network fetcher is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	logger := log.With().Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	logger = logger.With().
		Str("component", "service-worker").
		Str("cache_name", cfg.CacheName).
		Logger()

	return &Controller{
		config: cfg,
		logger: logger,
		state:  StateParsed,
	}, nil
}

// CacheName returns the region name this controller owns.
func (c *Controller) CacheName() string {
	return c.config.CacheName
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SkipWaitingRequested reports whether a skip-waiting message was accepted.
func (c *Controller) SkipWaitingRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipWaiting
}

// transition moves from one of the allowed states to next.
func (c *Controller) transition(step string, next State, allowed ...State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range allowed {
		if c.state == s {
			c.state = next
			return nil
		}
	}
	return stateError(step, c.state)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// OnInstall opens the controller's region and stores every manifest entry.
// It is all-or-nothing: if any entry fails to fetch, nothing is written and
// the controller becomes redundant. Other regions are not touched.
func (c *Controller) OnInstall(ctx context.Context) error {
	if err := c.transition("install", StateInstalling, StateParsed); err != nil {
		return err
	}

	start := time.Now()
	err := c.install(ctx)
	installDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.setState(StateRedundant)
		installsTotal.WithLabelValues("failure").Inc()
		c.logger.Error().Err(err).Msg("Install failed")
		return err
	}

	c.setState(StateInstalled)
	installsTotal.WithLabelValues("success").Inc()
	c.logger.Info().
		Int("entries", c.config.Manifest.Len()).
		Dur("duration", time.Since(start)).
		Msg("Install complete")
	return nil
}

func (c *Controller) install(ctx context.Context) error {
	region, err := c.config.Storage.Open(ctx, c.config.CacheName)
	if err != nil {
		return &InstallError{CacheName: c.config.CacheName, Err: fmt.Errorf("open cache: %w", err)}
	}
	c.logger.Debug().Msg("Opened cache")

	entries, err := c.precache(ctx)
	if err != nil {
		return err
	}

	if err := region.PutAll(ctx, entries); err != nil {
		return &InstallError{CacheName: c.config.CacheName, Err: fmt.Errorf("store entries: %w", err)}
	}
	return nil
}

// OnActivate deletes every region whose name differs from the controller's.
// Deletions run independently; the first failure is returned, and the
// controller is activated regardless since the old version is already retired.
func (c *Controller) OnActivate(ctx context.Context) error {
	if err := c.transition("activate", StateActivating, StateInstalled); err != nil {
		return err
	}
	defer c.setState(StateActivated)

	names, err := c.config.Storage.Keys(ctx)
	if err != nil {
		activationsTotal.WithLabelValues("failure").Inc()
		c.logger.Error().Err(err).Msg("Listing caches failed")
		return fmt.Errorf("list caches: %w", err)
	}

	// Deletions are independent: one failure must not cancel the others.
	var g errgroup.Group
	for _, name := range names {
		if name == c.config.CacheName {
			continue
		}
		name := name // per-iteration copy (go1.21 loop semantics)
		g.Go(func() error {
			c.logger.Info().Str("stale_cache", name).Msg("Deleting old cache")
			if _, err := c.config.Storage.Delete(ctx, name); err != nil {
				return fmt.Errorf("delete cache %q: %w", name, err)
			}
			regionsDeletedTotal.Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		activationsTotal.WithLabelValues("failure").Inc()
		c.logger.Error().Err(err).Msg("Activation cleanup failed")
		return err
	}

	activationsTotal.WithLabelValues("success").Inc()
	c.logger.Info().Msg("Activated")
	return nil
}

// OnFetch answers req from any cache region, or from the network on a miss.
// Network results, including errors, are returned unmodified and never
// written back to the cache.
func (c *Controller) OnFetch(req *http.Request) (*http.Response, error) {
	key := cache.KeyForRequest(req)

	entry, err := c.config.Storage.Match(req.Context(), key)
	switch {
	case err == nil:
		fetchesTotal.WithLabelValues("cache").Inc()
		c.logger.Debug().
			Str("method", key.Method).
			Str("url", key.URL).
			Bool("cache_hit", true).
			Msg("Serving from cache")
		return cache.EntryToResponse(entry, req), nil
	case !errors.Is(err, cache.ErrCacheMiss):
		c.logger.Warn().Err(err).Str("url", key.URL).Msg("Cache lookup error")
	}

	fetchesTotal.WithLabelValues("network").Inc()
	c.logger.Debug().
		Str("method", key.Method).
		Str("url", key.URL).
		Bool("cache_hit", false).
		Msg("Forwarding to network")
	return c.config.Network.Fetch(req)
}

// OnMessage handles a control message. It reports whether the message was
// recognised; anything but SKIP_WAITING is ignored.
func (c *Controller) OnMessage(msg Message) bool {
	if msg.Type != MessageSkipWaiting {
		c.logger.Debug().Str("type", msg.Type).Msg("Ignoring message")
		return false
	}
	c.SkipWaiting()
	return true
}

// SkipWaiting asks the host to activate this controller without waiting for
// clients of the current one to release.
func (c *Controller) SkipWaiting() {
	c.mu.Lock()
	already := c.skipWaiting
	c.skipWaiting = true
	c.mu.Unlock()

	if !already {
		skipWaitingTotal.Inc()
		c.logger.Info().Msg("Skip waiting requested")
	}
}

// retire marks a replaced or discarded controller redundant.
func (c *Controller) retire() {
	c.setState(StateRedundant)
}
