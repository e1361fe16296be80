package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/charterbook/internal/core/domain"
	"github.com/custodia-labs/charterbook/internal/core/ports/driven"
	"github.com/custodia-labs/charterbook/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyStoreBackend     = "store.backend"
	keyStoreOrg         = "store.org"
	keyStoreDataDir     = "store.data_dir"
	keyStoreRedisAddr   = "store.redis_addr"
	keyStorePostgresDSN = "store.postgres_dsn" //nolint:gosec // G101: config key name, not a credential.
	keyStoreRateLimit   = "store.rate_limit"
	keyStoreBurst       = "store.burst"
	keyBatchWaitMS      = "resolver.batch_wait_ms"
	keyBatchCapacity    = "resolver.batch_capacity"
	keyPreferLatestSlot = "enrichment.prefer_latest_slot"
	keyConcurrency      = "enrichment.concurrency"
	keyOptionPool       = "captable.option_pool"
	keyAuthorizedShares = "captable.authorized_shares"
	keyServerAddr       = "server.addr"
	keyLogLevel         = "log.level"
)

var settingKeys = []string{
	keyStoreBackend, keyStoreOrg, keyStoreDataDir, keyStoreRedisAddr,
	keyStorePostgresDSN, keyStoreRateLimit, keyStoreBurst,
	keyBatchWaitMS, keyBatchCapacity,
	keyPreferLatestSlot, keyConcurrency,
	keyOptionPool, keyAuthorizedShares,
	keyServerAddr, keyLogLevel,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Store: domain.StoreSettings{
			Backend:     domain.StoreBackend(s.getString(keyStoreBackend, string(defaults.Store.Backend))),
			Org:         s.getString(keyStoreOrg, defaults.Store.Org),
			DataDir:     s.configStore.GetString(keyStoreDataDir),
			RedisAddr:   s.configStore.GetString(keyStoreRedisAddr),
			PostgresDSN: s.configStore.GetString(keyStorePostgresDSN),
			RateLimit:   s.getFloat(keyStoreRateLimit, defaults.Store.RateLimit),
			Burst:       s.getInt(keyStoreBurst, defaults.Store.Burst),
		},
		Resolver: domain.ResolverSettings{
			BatchWait:     time.Duration(s.getInt(keyBatchWaitMS, int(defaults.Resolver.BatchWait/time.Millisecond))) * time.Millisecond,
			BatchCapacity: s.getInt(keyBatchCapacity, defaults.Resolver.BatchCapacity),
		},
		Enrichment: domain.EnrichmentSettings{
			PreferLatestSlot: s.getBool(keyPreferLatestSlot, defaults.Enrichment.PreferLatestSlot),
			Concurrency:      s.getInt(keyConcurrency, defaults.Enrichment.Concurrency),
		},
		CapTable: domain.CapTableSettings{
			OptionPool:       s.getFloat(keyOptionPool, defaults.CapTable.OptionPool),
			AuthorizedShares: s.getFloat(keyAuthorizedShares, defaults.CapTable.AuthorizedShares),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
		Log: domain.LogSettings{
			Level: s.getString(keyLogLevel, defaults.Log.Level),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStoreOrg, settings.Store.Org},
		{keyStoreDataDir, settings.Store.DataDir},
		{keyStoreRedisAddr, settings.Store.RedisAddr},
		{keyStorePostgresDSN, settings.Store.PostgresDSN},
		{keyStoreRateLimit, settings.Store.RateLimit},
		{keyStoreBurst, settings.Store.Burst},
		{keyBatchWaitMS, int(settings.Resolver.BatchWait / time.Millisecond)},
		{keyBatchCapacity, settings.Resolver.BatchCapacity},
		{keyPreferLatestSlot, settings.Enrichment.PreferLatestSlot},
		{keyConcurrency, settings.Enrichment.Concurrency},
		{keyOptionPool, settings.CapTable.OptionPool},
		{keyAuthorizedShares, settings.CapTable.AuthorizedShares},
		{keyServerAddr, settings.Server.Addr},
		{keyLogLevel, settings.Log.Level},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value according to the type of key and stores it.
func (s *SettingsService) Set(key, value string) error {
	if !slices.Contains(settingKeys, key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch key {
	case keyStoreBurst, keyBatchWaitMS, keyBatchCapacity, keyConcurrency:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s expects a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case keyStoreRateLimit, keyOptionPool, keyAuthorizedShares:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s expects a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case keyPreferLatestSlot:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case keyStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidInput, value)
		}
		parsed = value
	default:
		parsed = strings.TrimSpace(value)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised configuration keys.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidConfiguration, settings.Store.Backend)
	}
	if settings.Store.Org == "" || strings.Contains(settings.Store.Org, "/") {
		return fmt.Errorf("%w: organisation id must be a single path segment", domain.ErrInvalidConfiguration)
	}
	switch settings.Store.Backend {
	case domain.StoreBackendRedis:
		if settings.Store.RedisAddr == "" {
			return fmt.Errorf("%w: %s is required for the redis backend", domain.ErrInvalidConfiguration, keyStoreRedisAddr)
		}
	case domain.StoreBackendPostgres:
		if settings.Store.PostgresDSN == "" {
			return fmt.Errorf("%w: %s is required for the postgres backend", domain.ErrInvalidConfiguration, keyStorePostgresDSN)
		}
	}
	if settings.Enrichment.Concurrency <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfiguration, keyConcurrency)
	}
	if settings.Resolver.BatchCapacity <= 0 {
		return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidConfiguration, keyBatchCapacity)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// getString returns a string config value or the default if not set.
func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt returns an int config value or the default if not set.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

// getFloat returns a float config value or the default if not set.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

// getBool returns a bool config value or the default if not set.
func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetBool(key)
	}
	return defaultVal
}
