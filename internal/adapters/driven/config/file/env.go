package file

import (
	"fmt"
	"strconv"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig lists the settings that can be overridden from the environment.
// Empty or zero values mean "not set".
type envConfig struct {
	Backend     string  `env:"CHARTERBOOK_STORE_BACKEND"`
	Org         string  `env:"CHARTERBOOK_ORG"`
	DataDir     string  `env:"CHARTERBOOK_DATA_DIR"`
	RedisAddr   string  `env:"CHARTERBOOK_REDIS_ADDR"`
	PostgresDSN string  `env:"CHARTERBOOK_POSTGRES_DSN"`
	RateLimit   float64 `env:"CHARTERBOOK_RATE_LIMIT"`
	Burst       int     `env:"CHARTERBOOK_BURST"`

	BatchWaitMS   int `env:"CHARTERBOOK_BATCH_WAIT_MS"`
	BatchCapacity int `env:"CHARTERBOOK_BATCH_CAPACITY"`

	PreferLatestSlot string `env:"CHARTERBOOK_PREFER_LATEST_SLOT"`
	Concurrency      int    `env:"CHARTERBOOK_CONCURRENCY"`

	OptionPool       float64 `env:"CHARTERBOOK_OPTION_POOL"`
	AuthorizedShares float64 `env:"CHARTERBOOK_AUTHORIZED_SHARES"`

	ServerAddr string `env:"CHARTERBOOK_SERVER_ADDR"`
	LogLevel   string `env:"CHARTERBOOK_LOG_LEVEL"`
}

// readEnv returns the overrides present in the environment keyed by setting.
func readEnv() (map[string]any, error) {
	var cfg envConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	out := make(map[string]any)
	setString := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	setNumber := func(key string, v float64) {
		if v != 0 {
			out[key] = v
		}
	}

	setString("store.backend", cfg.Backend)
	setString("store.org", cfg.Org)
	setString("store.data_dir", cfg.DataDir)
	setString("store.redis_addr", cfg.RedisAddr)
	setString("store.postgres_dsn", cfg.PostgresDSN)
	setNumber("store.rate_limit", cfg.RateLimit)
	setNumber("store.burst", float64(cfg.Burst))
	setNumber("resolver.batch_wait_ms", float64(cfg.BatchWaitMS))
	setNumber("resolver.batch_capacity", float64(cfg.BatchCapacity))
	setNumber("enrichment.concurrency", float64(cfg.Concurrency))
	setNumber("captable.option_pool", cfg.OptionPool)
	setNumber("captable.authorized_shares", cfg.AuthorizedShares)
	setString("server.addr", cfg.ServerAddr)
	setString("log.level", cfg.LogLevel)

	if cfg.PreferLatestSlot != "" {
		b, err := strconv.ParseBool(cfg.PreferLatestSlot)
		if err != nil {
			return nil, fmt.Errorf("CHARTERBOOK_PREFER_LATEST_SLOT: %w", err)
		}
		out["enrichment.prefer_latest_slot"] = b
	}

	return out, nil
}
