package main

import (
	"context"
	"fmt"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/db"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/migrate"
	"github.com/angelmondragon/packfinderz-storefront/pkg/redis"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage/sqlstore"
)

// backend is the durable storage selected by STOREFRONT_STORAGE_BACKEND.
type backend struct {
	durable storage.Durable
	// purger is set for SQL backends, which need explicit record retention.
	purger *sqlstore.Store
	ready  map[string]controllers.Pinger
	close  func() error
}

func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	switch {
	case cfg.Storage.Backend == config.StorageBackendRedis:
		client, err := redis.New(ctx, cfg.Redis, cfg.Storage.RecordTTL, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		return &backend{
			durable: client,
			ready:   map[string]controllers.Pinger{"redis": client},
			close:   client.Close,
		}, nil

	case cfg.Storage.UsesSQL():
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		store := sqlstore.New(client.DB())
		return &backend{
			durable: store,
			purger:  store,
			ready:   map[string]controllers.Pinger{"database": client},
			close:   client.Close,
		}, nil
	}

	logg.Warn(ctx, "memory storage backend: collections are lost on restart")
	return &backend{
		durable: storage.NewMemory(),
		ready:   map[string]controllers.Pinger{},
		close:   func() error { return nil },
	}, nil
}
