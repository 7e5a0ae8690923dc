package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"travel_booking/internal/adapters/catalog"
	server "travel_booking/internal/adapters/http_server"
	"travel_booking/internal/adapters/memcache"
	"travel_booking/internal/adapters/observability"
	redisad "travel_booking/internal/adapters/redis"
	"travel_booking/internal/app"
	"travel_booking/internal/clock"
	"travel_booking/internal/domain"
	"travel_booking/internal/shared"
	"travel_booking/internal/storage/memory"
	mysqlrepo "travel_booking/internal/storage/mysql"
)

type store interface {
	domain.InventoryStore
	domain.ReservationStore
	domain.HotelWriter
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve(cfg.MetricsAddr)

	st, closeStore := openStore(ctx, cfg)
	defer closeStore()

	cache, closeCache := openCache(ctx, cfg)
	defer closeCache()

	if cfg.StoreBackend == "memory" {
		seedMemory(ctx, cfg, st)
	}

	search := app.NewSearchService(st, cache, cfg.SearchCacheTTL)
	reservations := app.NewReservationCoordinator(st, st,
		app.WithMaxAttempts(cfg.ReservationMaxAttempts),
		app.WithObserver(observability.ReservationMetrics{}),
	)

	// http
	srv := server.New(cfg.HTTPTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Search: search, Reservations: reservations})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("store", cfg.StoreBackend).
		Str("cache", cfg.CacheBackend).
		Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(ctx context.Context, cfg shared.Config) (store, func()) {
	switch cfg.StoreBackend {
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.New(clock.NewSystem()), func() {}
	case "mysql":
	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown STORE_BACKEND")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	if cfg.MigrateOnStart {
		if err := mysqlrepo.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	return mysqlrepo.New(db), func() { _ = db.Close() }
}

func openCache(ctx context.Context, cfg shared.Config) (domain.Cache, func()) {
	switch cfg.CacheBackend {
	case "memory":
		return memcache.New(memcache.WithMaxEntries(cfg.CacheMaxEntries)), func() {}
	case "redis":
	default:
		log.Fatal().Str("backend", cfg.CacheBackend).Msg("unknown CACHE_BACKEND")
	}

	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	return c, func() { _ = c.Close() }
}

// seedMemory fills an in-memory store from the catalog when one is
// configured; otherwise the API starts empty.
func seedMemory(ctx context.Context, cfg shared.Config, w domain.HotelWriter) {
	if cfg.CatalogBase == "" || len(cfg.SeedHotelIDs) == 0 {
		return
	}
	client, err := catalog.New(cfg.CatalogBase, cfg.CatalogKey, cfg.CatalogRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog client")
	}
	res, err := app.NewSeedingService(client, w).SeedAll(ctx, cfg.SeedHotelIDs, cfg.SeedWorkers)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding interrupted")
	}
	log.Info().Int64("seeded", res.Seeded).Int64("failed", res.Failed).Msg("in-memory store seeded")
}
