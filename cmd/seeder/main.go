package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"travel_booking/internal/adapters/catalog"
	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/app"
	"travel_booking/internal/shared"
	mysqlrepo "travel_booking/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.CatalogBase).
		Int("workers", cfg.SeedWorkers).
		Int("hotels", len(cfg.SeedHotelIDs)).
		Msg("seeder starting")
	if len(cfg.SeedHotelIDs) == 0 {
		log.Fatal().Msg("SEED_HOTEL_IDS is empty")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	if cfg.MigrateOnStart {
		if err := mysqlrepo.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	repo := mysqlrepo.New(db)

	client, err := catalog.New(cfg.CatalogBase, cfg.CatalogKey, cfg.CatalogRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog client")
	}

	res, err := app.NewSeedingService(client, repo).SeedAll(ctx, cfg.SeedHotelIDs, cfg.SeedWorkers)
	if err != nil {
		log.Error().Err(err).Msg("seeding interrupted")
	}
	log.Info().
		Int64("seeded", res.Seeded).
		Int64("failed", res.Failed).
		Msg("seeding completed")
}
