// Package storage opens the kv backend selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/taxdesk/internal/config"
	"github.com/MrJamesThe3rd/taxdesk/internal/database"
	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
	"github.com/MrJamesThe3rd/taxdesk/internal/kv/postgres"
	"github.com/MrJamesThe3rd/taxdesk/internal/kv/redis"
)

// Open returns the configured store and a function releasing its connections.
func Open(ctx context.Context, cfg *config.Config) (kv.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}

		store := postgres.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("preparing schema: %w", err)
		}

		slog.Info("using postgres storage", "host", cfg.DB.Host, "database", cfg.DB.Name)

		return store, func() { db.Close() }, nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("pinging redis: %w", err)
		}

		slog.Info("using redis storage", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)

		return redis.New(client, cfg.Redis.Prefix), func() { client.Close() }, nil

	case config.BackendMemory:
		slog.Warn("using in-memory storage, data is lost on exit")

		return kv.NewMemory(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
