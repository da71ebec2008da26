package cli

import (
	"context"
	"fmt"
	"log/slog"

	"credsearch/internal/platform/config"
	"credsearch/internal/platform/postgres"
	"credsearch/internal/platform/redis"
	"credsearch/internal/search/cache"
	"credsearch/internal/search/metrics"
	"credsearch/internal/search/models"
	"credsearch/internal/search/normalize"
	"credsearch/internal/search/provider"
	"credsearch/internal/search/resolver"
	"credsearch/internal/search/session"
	"credsearch/internal/search/store"
	"credsearch/pkg/platform/circuit"
)

// Store is a local store that can also report its size.
type Store interface {
	resolver.LocalStore
	Count(ctx context.Context) (models.StoreCounts, error)
}

// App holds the wired search components for one process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Cache    *cache.Cache
	Store    Store
	Resolver *resolver.Service
	Sessions *session.Registry

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type buildOptions struct {
	store    Store
	provider resolver.ExternalProvider
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, bo buildOptions) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Metrics: m}
	if err := app.wire(ctx, bo); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, bo buildOptions) error {
	cfg := a.Config

	a.Store = bo.store
	if a.Store == nil {
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		a.Store = st
	}

	sink, err := a.openSink(ctx)
	if err != nil {
		return err
	}
	a.Cache = cache.New(cache.Config{Capacity: cfg.CacheCapacity, TTL: cfg.CacheTTL},
		cache.WithSink(sink),
		cache.WithLogger(a.Logger),
		cache.WithMetrics(a.Metrics),
	)

	resolverOpts := []resolver.Option{resolver.WithLogger(a.Logger), resolver.WithMetrics(a.Metrics)}
	ext := bo.provider
	if ext == nil && cfg.ProviderURL != "" {
		if ext, err = a.openProvider(); err != nil {
			return err
		}
	}
	if ext != nil {
		resolverOpts = append(resolverOpts, resolver.WithProvider(ext))
	}

	a.Resolver, err = resolver.New(normalize.New(normalize.WithLogger(a.Logger)), a.Cache, a.Store, resolverOpts...)
	if err != nil {
		return fmt.Errorf("build resolver: %w", err)
	}
	a.Sessions = session.New(session.WithLogger(a.Logger))
	return nil
}

func (a *App) limits() store.Limits {
	return store.Limits{Rows: a.Config.RowLimit, Prefix: a.Config.PrefixLimit, Gov: a.Config.GovLimit}
}

func (a *App) openStore(ctx context.Context) (Store, error) {
	cfg := a.Config
	if cfg.DatabaseURL == "" {
		a.Logger.WarnContext(ctx, "no database configured, using an empty in-memory store")
		return store.NewMemory(nil,
			store.WithMemoryLimits(a.limits()),
			store.WithMemoryLogger(a.Logger),
			store.WithMemoryMetrics(a.Metrics),
			store.WithMemoryTimeout(cfg.FanoutTimeout),
		), nil
	}

	if cfg.Migrate {
		if err := postgres.Migrate(cfg.DatabaseURL, a.Logger); err != nil {
			return nil, err
		}
	}
	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	pg, err := store.NewPostgres(pool, cfg.RecordsTable,
		store.WithLimits(a.limits()),
		store.WithTimeout(cfg.FanoutTimeout),
		store.WithLogger(a.Logger),
		store.WithMetrics(a.Metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("build postgres store: %w", err)
	}
	return pg, nil
}

func (a *App) openSink(ctx context.Context) (cache.Sink, error) {
	cfg := a.Config
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		client, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return cache.NewRedisSink(client.Client, cfg.RedisKey), nil
	default:
		return cache.NewFileSink(cfg.CachePath), nil
	}
}

func (a *App) openProvider() (resolver.ExternalProvider, error) {
	cfg := a.Config
	client, err := provider.NewClient(cfg.ProviderURL, provider.WithTimeout(cfg.ProviderTimeout))
	if err != nil {
		return nil, fmt.Errorf("build provider client: %w", err)
	}
	opts := []provider.RetryOption{
		provider.WithAttempts(cfg.ProviderAttempts),
		provider.WithDelay(cfg.ProviderDelay),
		provider.WithLogger(a.Logger),
		provider.WithMetrics(a.Metrics),
	}
	if cfg.ProviderBreakerThreshold > 0 {
		opts = append(opts, provider.WithBreaker(circuit.New("provider", circuit.WithFailureThreshold(cfg.ProviderBreakerThreshold))))
	}
	retrier, err := provider.NewRetrier(client, opts...)
	if err != nil {
		return nil, fmt.Errorf("build provider retrier: %w", err)
	}
	return retrier, nil
}
