package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"bus-tracker/internal/config"
	"bus-tracker/internal/db"
	"bus-tracker/internal/sim"
	"bus-tracker/internal/store"
	"bus-tracker/internal/transit"
)

func loadRegistry(cfg *config.Config) (*transit.Registry, error) {
	if cfg.RoutesFile == "" {
		return transit.DefaultRegistry(), nil
	}
	reg, err := transit.LoadRoutesYAML(cfg.RoutesFile)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	log.Info().Str("file", cfg.RoutesFile).Int("routes", reg.Len()).Msg("loaded route table")
	return reg, nil
}

// simOptions builds session options from cfg. Status timestamps are taken in
// the configured time zone.
func simOptions(cfg *config.Config) sim.Options {
	opts := sim.Options{
		PositionInterval: cfg.PositionInterval,
		StatusInterval:   cfg.StatusInterval,
		Seed:             cfg.RandomSeed,
	}
	if loc := cfg.Location; loc != nil {
		opts.Clock = func() time.Time { return time.Now().In(loc) }
	}
	return opts
}

// openStore builds the key-value backend selected by STORE_BACKEND. The
// returned func releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres, config.BackendSQLite:
		driver, dsn := db.DriverPostgres, cfg.DatabaseURL
		if cfg.StoreBackend == config.BackendSQLite {
			driver, dsn = db.DriverSQLite, cfg.SQLitePath
		}
		sqlDB, err := db.Open(driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		if err := db.Ping(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		if err := db.EnsureSchema(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		return store.NewSQL(sqlDB, cfg.StoreNamespace), func() { sqlDB.Close() }, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedis(client, cfg.StoreNamespace), func() { client.Close() }, nil
	}

	if cfg.StoreBackend != config.BackendMemory {
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	log.Warn().Msg("using in-memory store; favorites and driver sessions are lost on exit")
	return store.NewMemory(), func() {}, nil
}
