package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/hutraz/internal/config"
	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/multierr"
)

const connectTimeout = 10 * time.Second

// Open connects the backend selected by cfg. The returned func releases its connections.
func Open(ctx context.Context, cfg *config.Config) (domain.StateStore, func() error, error) {
	store, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.CacheMB > 0 {
		logrus.WithField("size_mb", cfg.Store.CacheMB).Debug("store cache enabled")
		store = NewCachedStore(store, cfg.Store.CacheMB)
	}
	return store, closeFn, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (domain.StateStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Backend {
	case config.StoreMemory:
		logrus.Warn("⚠️ using in-memory store, nothing survives a restart")
		return NewMemoryStore(), noop, nil

	case config.StoreSQLite:
		store, err := OpenSQLiteStore(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		logrus.WithField("path", cfg.SQLite.Path).Info("✓ SQLite store opened")
		return store, store.Close, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, multierr.Append(fmt.Errorf("failed to connect to Redis: %w", err), client.Close())
		}
		logrus.Info("✓ Redis connected")
		return NewRedisStore(client, cfg.Redis.KeyPrefix), client.Close, nil

	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
		if cfg.Telemetry.Enabled {
			mongoOpts.SetMonitor(otelmongo.NewMonitor())
		}
		client, err := mongo.Connect(connectCtx, mongoOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			return nil, nil, multierr.Append(
				fmt.Errorf("failed to ping MongoDB: %w", err),
				client.Disconnect(context.Background()),
			)
		}
		logrus.Info("✓ MongoDB connected")
		closeFn := func() error { return client.Disconnect(context.Background()) }
		return NewMongoStore(client.Database(cfg.MongoDB.Database), cfg.MongoDB.Collection), closeFn, nil

	case config.StoreS3:
		store, err := NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		logrus.WithField("bucket", cfg.S3.Bucket).Info("✓ S3 store ready")
		return store, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
