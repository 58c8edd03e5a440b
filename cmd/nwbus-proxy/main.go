package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/northwest-bus-cache/pkg/cache"
	"github.com/Sternrassler/northwest-bus-cache/pkg/logging"
	"github.com/Sternrassler/northwest-bus-cache/pkg/manifest"
	"github.com/Sternrassler/northwest-bus-cache/pkg/network"
	"github.com/Sternrassler/northwest-bus-cache/pkg/sw"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	storageRedis  = "redis"
	storageMemory = "memory"
)

type config struct {
	RedisURL           string           `env:"REDIS_URL" envDefault:"localhost:6379"`
	Port               string           `env:"PORT" envDefault:"8080"`
	OriginURL          string           `env:"ORIGIN_URL" envDefault:"http://localhost:8000"`
	CachePrefix        string           `env:"CACHE_PREFIX" envDefault:"northwest-bus"`
	CacheVersion       string           `env:"CACHE_VERSION" envDefault:"1.0.0"`
	ManifestPath       string           `env:"MANIFEST_PATH"`
	UserAgent          string           `env:"USER_AGENT" envDefault:"nwbus-proxy/0.1.0"`
	LogLevel           logging.LogLevel `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty          bool             `env:"LOG_PRETTY" envDefault:"false"`
	FetchTimeout       time.Duration    `env:"FETCH_TIMEOUT" envDefault:"0s"`
	InstallConcurrency int              `env:"INSTALL_CONCURRENCY" envDefault:"6"`
	Storage            string           `env:"STORAGE" envDefault:"redis"`
}

// loadConfig reads the configuration from the environment described by opts.
func loadConfig(opts env.Options) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Storage {
	case storageRedis, storageMemory:
	default:
		return config{}, fmt.Errorf("STORAGE must be %q or %q (got %q)", storageRedis, storageMemory, cfg.Storage)
	}
	if _, err := cfg.origin(); err != nil {
		return config{}, err
	}
	if cfg.InstallConcurrency <= 0 {
		return config{}, fmt.Errorf("INSTALL_CONCURRENCY must be > 0 (got %d)", cfg.InstallConcurrency)
	}
	return cfg, nil
}

func (c config) origin() (*url.URL, error) {
	u, err := url.Parse(c.OriginURL)
	if err != nil {
		return nil, fmt.Errorf("ORIGIN_URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("ORIGIN_URL must be an absolute URL (got %q)", c.OriginURL)
	}
	return u, nil
}

func (c config) manifest() (manifest.Manifest, error) {
	if c.ManifestPath == "" {
		return manifest.Default(), nil
	}
	return manifest.Load(c.ManifestPath)
}

func main() {
	cfg, err := loadConfig(env.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("proxy")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg config) error {
	logger := logging.NewLogger("proxy")

	storage, ready, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	netCfg := network.DefaultConfig(cfg.UserAgent)
	netCfg.Timeout = cfg.FetchTimeout
	fetcher, err := network.New(netCfg)
	if err != nil {
		return fmt.Errorf("create network client: %w", err)
	}

	origin, err := cfg.origin()
	if err != nil {
		return err
	}
	m, err := cfg.manifest()
	if err != nil {
		return err
	}
	cacheName, err := sw.CacheName(cfg.CachePrefix, cfg.CacheVersion)
	if err != nil {
		return err
	}

	swCfg := sw.DefaultConfig(cacheName, origin, storage, fetcher)
	swCfg.Manifest = m
	swCfg.Concurrency = cfg.InstallConcurrency
	controller, err := sw.New(swCfg)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	reg := sw.NewRegistration(fetcher)

	// Site traffic passes straight through to the origin until the
	// first install completes.
	go func() {
		if err := reg.Register(ctx, controller); err != nil {
			logger.Error().Err(err).Str("cache_name", cacheName).Msg("Registration failed")
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(origin, reg, ready),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("origin", origin.String()).
			Str("cache_name", cacheName).
			Str("storage", cfg.Storage).
			Int("entries", m.Len()).
			Msg("Starting offline cache proxy")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStorage connects the configured cache backend and returns its
// readiness check and close function.
func openStorage(ctx context.Context, cfg config) (cache.Storage, readinessCheck, func() error, error) {
	if cfg.Storage == storageMemory {
		log.Warn().Msg("Using in-memory cache storage, cached regions are lost on restart")
		return cache.NewMemoryStorage(), alwaysReady, func() error { return nil }, nil
	}

	opts, err := redisOptions(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

	ping := func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	return cache.NewRedisStorage(redisClient), ping, redisClient.Close, nil
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(raw string) (*redis.Options, error) {
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: raw}, nil
}
