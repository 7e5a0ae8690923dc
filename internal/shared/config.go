package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	HTTPTimeout time.Duration

	StoreBackend   string // mysql|memory
	MySQLDSN       string
	MigrateOnStart bool

	CacheBackend    string // redis|memory
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	SearchCacheTTL  time.Duration
	CacheMaxEntries int

	ReservationMaxAttempts int

	CatalogBase  string
	CatalogKey   string
	CatalogRPS   int
	SeedWorkers  int
	SeedHotelIDs []int64
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		HTTPTimeout: time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,

		StoreBackend:   strings.ToLower(env("STORE_BACKEND", "mysql")),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/travel?parseTime=true&charset=utf8mb4&loc=UTC"),
		MigrateOnStart: envBool("MIGRATE_ON_START", true),

		CacheBackend:    strings.ToLower(env("CACHE_BACKEND", "redis")),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		SearchCacheTTL:  time.Duration(atoi("SEARCH_CACHE_TTL_SECONDS", 300)) * time.Second,
		CacheMaxEntries: atoi("CACHE_MAX_ENTRIES", 10000),

		ReservationMaxAttempts: atoi("RESERVATION_MAX_ATTEMPTS", 3),

		CatalogBase: env("CATALOG_BASE_URL", ""),
		CatalogKey:  env("CATALOG_API_KEY", ""),
		CatalogRPS:  atoi("CATALOG_RPS", 5),
		SeedWorkers: atoi("SEED_WORKERS", 8),
	}

	ids, err := ParseIDs(os.Getenv("SEED_HOTEL_IDS"))
	if err != nil {
		log.Warn().Err(err).Msg("SEED_HOTEL_IDS ignored")
	}
	c.SeedHotelIDs = ids
	return c
}

// ParseIDs reads a comma separated list of positive hotel ids.
func ParseIDs(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid hotel id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
