package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/charterbook/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/charterbook/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("store.backend", "redis")
	_ = store.Set("store.redis_addr", "localhost:6379")
	_ = store.Set("resolver.batch_wait_ms", 5)
	_ = store.Set("enrichment.prefer_latest_slot", true)
	_ = store.Set("captable.option_pool", 1500000.0)

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.StoreBackendRedis, settings.Store.Backend)
	assert.Equal(t, "localhost:6379", settings.Store.RedisAddr)
	assert.Equal(t, 5*time.Millisecond, settings.Resolver.BatchWait)
	assert.True(t, settings.Enrichment.PreferLatestSlot)
	assert.Equal(t, 1500000.0, settings.CapTable.OptionPool)
	assert.Equal(t, "demo-org", settings.Store.Org)
}

func TestSettingsService_SaveAndGet(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	want := domain.DefaultAppSettings()
	want.Store.Backend = domain.StoreBackendPostgres
	want.Store.PostgresDSN = "postgres://localhost/charterbook"
	want.Store.RateLimit = 25
	want.Resolver.BatchCapacity = 50
	want.Enrichment.Concurrency = 2
	want.Server.Addr = ":9090"

	require.NoError(t, service.Save(&want))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{key: "store.burst", value: "20", want: 20},
		{key: "store.burst", value: "-1", wantErr: true},
		{key: "store.burst", value: "lots", wantErr: true},
		{key: "store.rate_limit", value: "2.5", want: 2.5},
		{key: "store.rate_limit", value: "fast", wantErr: true},
		{key: "enrichment.prefer_latest_slot", value: "true", want: true},
		{key: "enrichment.prefer_latest_slot", value: "maybe", wantErr: true},
		{key: "store.backend", value: "memory", want: "memory"},
		{key: "store.backend", value: "mongo", wantErr: true},
		{key: "store.org", value: "  acme  ", want: "acme"},
		{key: "no.such.key", value: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store)

			err := service.Set(tt.key, tt.value)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				_, ok := store.Get(tt.key)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			got, _ := store.Get(tt.key)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	keys := service.Keys()
	assert.Contains(t, keys, "store.backend")
	assert.Contains(t, keys, "captable.authorized_shares")

	keys[0] = "tampered"
	assert.Equal(t, "store.backend", service.Keys()[0])
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr bool
	}{
		{name: "defaults", values: nil},
		{name: "redis without address", values: map[string]any{"store.backend": "redis"}, wantErr: true},
		{name: "redis with address", values: map[string]any{"store.backend": "redis", "store.redis_addr": "localhost:6379"}},
		{name: "postgres without dsn", values: map[string]any{"store.backend": "postgres"}, wantErr: true},
		{name: "unknown backend", values: map[string]any{"store.backend": "mongo"}, wantErr: true},
		{name: "org with slash", values: map[string]any{"store.org": "a/b"}, wantErr: true},
		{name: "zero concurrency", values: map[string]any{"enrichment.concurrency": 0}, wantErr: true},
		{name: "zero batch capacity", values: map[string]any{"resolver.batch_capacity": 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			for k, v := range tt.values {
				_ = store.Set(k, v)
			}

			err := NewSettingsService(store).Validate()

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	assert.Equal(t, domain.DefaultAppSettings(), NewSettingsService(memory.NewConfigStore()).GetDefaults())
}
