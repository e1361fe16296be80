package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/charterbook/internal/adapters/driven/config/file"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/fixtures"
	promobserver "github.com/custodia-labs/charterbook/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/throttle"
	"github.com/custodia-labs/charterbook/internal/adapters/driving/cli"
	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
	"github.com/custodia-labs/charterbook/internal/core/services"
	"github.com/custodia-labs/charterbook/internal/logger"
)

// bootstrap wires the driven adapters selected by settings into the core
// services.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening configuration: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	if opts.ConfigOnly {
		return &cli.Services{Settings: settingsService}, nil, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, err
	}
	if opts.Backend != "" {
		settings.Store.Backend = domain.StoreBackend(opts.Backend)
	}
	if opts.Org != "" {
		settings.Store.Org = opts.Org
	}
	if !opts.Verbose {
		if err := logger.SetLevel(settings.Log.Level); err != nil {
			logger.Warn("%v", err)
		}
	}
	if settings.Store.DataDir == "" {
		settings.Store.DataDir = filepath.Join(filepath.Dir(configStore.Path()), "data")
	}

	store, err := openStore(ctx, settings.Store)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Using %s store for organisation %s", settings.Store.Backend, settings.Store.Org)

	store = throttle.Wrap(store, throttle.Config{
		RequestsPerSecond: settings.Store.RateLimit,
		Burst:             settings.Store.Burst,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer := promobserver.New(registry)

	schemas := services.MustDefaultRegistry()
	resolver := services.NewResolver(store, settings.Resolver, observer)
	enricher := services.NewEnricher(schemas, resolver, settings.Enrichment, observer)
	relations := services.NewRelationService(store, schemas, enricher, settings.Store.Org, settings.Enrichment.Concurrency, observer)

	svc := &cli.Services{
		Relations: relations,
		Documents: services.NewDocumentService(store, settings.Store.Org),
		CapTable:  services.NewCapTableService(relations, settings.CapTable),
		Seed:      services.NewSeedService(fixtures.NewLoader(), store, schemas, settings.Store.Org),
		Settings:  settingsService,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	release := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}
	return svc, release, nil
}

func openStore(ctx context.Context, cfg domain.StoreSettings) (driven.DocumentStore, error) {
	switch cfg.Backend {
	case domain.StoreBackendMemory:
		return memory.NewDocumentStore(), nil
	case domain.StoreBackendSQLite:
		return sqlite.NewStore(cfg.DataDir)
	case domain.StoreBackendRedis:
		return redis.NewStore(ctx, cfg.RedisAddr)
	case domain.StoreBackendPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidConfiguration, cfg.Backend)
	}
}
