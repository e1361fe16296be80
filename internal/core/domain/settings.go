package domain

import "time"

// StoreBackend selects the document store implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendMemory keeps records in process memory.
	StoreBackendMemory StoreBackend = "memory"

	// StoreBackendSQLite persists records in a local SQLite file.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendRedis keeps records in Redis hashes.
	StoreBackendRedis StoreBackend = "redis"

	// StoreBackendPostgres keeps records in a PostgreSQL jsonb table.
	StoreBackendPostgres StoreBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendRedis, StoreBackendPostgres:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendMemory:
		return "Memory (non-persistent)"
	case StoreBackendSQLite:
		return "SQLite (local file)"
	case StoreBackendRedis:
		return "Redis (shared)"
	case StoreBackendPostgres:
		return "PostgreSQL (shared)"
	default:
		return "Unknown"
	}
}

// StoreSettings configures the document store.
type StoreSettings struct {
	Backend StoreBackend

	// Org scopes every collection to org/<Org>/...
	Org string

	// DataDir holds the SQLite database.
	DataDir string

	RedisAddr   string
	PostgresDSN string

	// RateLimit caps store reads per second. Zero disables throttling.
	RateLimit float64

	// Burst is the read burst allowed above RateLimit.
	Burst int
}

// ResolverSettings tunes the per-pass batching loader.
type ResolverSettings struct {
	// BatchWait is how long the loader collects keys before fetching.
	BatchWait time.Duration

	// BatchCapacity caps the keys fetched in one multi-get.
	BatchCapacity int
}

// EnrichmentSettings tunes relation enrichment.
type EnrichmentSettings struct {
	// PreferLatestSlot fills role slots with the most recent matching
	// document instead of the first in reference order.
	PreferLatestSlot bool

	// Concurrency bounds how many relations of a list enrich at once.
	Concurrency int
}

// CapTableSettings holds the share counts the cap table cannot derive.
type CapTableSettings struct {
	OptionPool       float64
	AuthorizedShares float64
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// LogSettings configures logging.
type LogSettings struct {
	Level string
}

// AppSettings holds all user-configurable application settings.
type AppSettings struct {
	Store      StoreSettings
	Resolver   ResolverSettings
	Enrichment EnrichmentSettings
	CapTable   CapTableSettings
	Server     ServerSettings
	Log        LogSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
			Org:     "demo-org",
			Burst:   10,
		},
		Resolver: ResolverSettings{
			BatchWait:     2 * time.Millisecond,
			BatchCapacity: 100,
		},
		Enrichment: EnrichmentSettings{
			Concurrency: 8,
		},
		CapTable: CapTableSettings{
			OptionPool:       2_000_000,
			AuthorizedShares: 15_000_000,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
		Log: LogSettings{
			Level: "warn",
		},
	}
}
