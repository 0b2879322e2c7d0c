package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"alcyxob/fitness-content/internal/config"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository"
	"alcyxob/fitness-content/internal/repository/memory"
	"alcyxob/fitness-content/internal/repository/mongo"
	"alcyxob/fitness-content/internal/repository/postgres"
	"alcyxob/fitness-content/internal/service"
	"alcyxob/fitness-content/internal/storage"
)

// app holds everything built from the configuration.
type app struct {
	store    repository.Store
	registry *relation.Registry
	files    storage.FileStorage
	services *service.Services
	redis    *redis.Client
	logger   *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	locker, err := a.newLocker(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.registry = relation.NewRegistry(store, locker, relation.WithLogger(logger))

	if cfg.S3.BucketName == "" {
		logger.Warn("no s3 bucket configured, media is kept in memory")
		a.files = storage.NewMemoryStorage("http://" + cfg.Server.Address + "/media")
	} else if a.files, err = storage.NewS3Storage(ctx, cfg.S3, logger); err != nil {
		a.Close()
		return nil, err
	}

	a.services = service.New(service.Deps{
		Store:         store,
		Registry:      a.registry,
		Files:         a.files,
		JWTSecret:     cfg.JWT.Secret,
		JWTExpiration: cfg.JWT.Expiration,
		HomeTTL:       cfg.Cache.HomeTTL,
		Logger:        logger,
	})
	return a, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return nil, errors.Wrap(err, "connect mongo")
		}
		store := mongo.NewStore(client, cfg.Name)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		logger.Info("database connection established", "driver", cfg.Driver, "name", cfg.Name)
		return store, nil
	case config.DriverPostgres:
		db, err := postgres.NewPostgres(cfg.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres")
		}
		store := postgres.NewStore(db)
		if err := postgres.Migrate(db); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		logger.Info("database connection established", "driver", cfg.Driver)
		return store, nil
	case config.DriverMemory:
		logger.Warn("using the in-memory store, data is lost on exit")
		return memory.New(), nil
	}
	return nil, errors.Errorf("unknown database driver %q", cfg.Driver)
}

func (a *app) newLocker(ctx context.Context, cfg config.Config) (relation.Locker, error) {
	switch cfg.Lock.Driver {
	case "", "local":
		return relation.NewKeyedMutex(), nil
	case "redis":
		a.redis = relation.NewRedis(cfg.Redis)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		return relation.NewRedisLocker(a.redis, cfg.Lock.TTL, a.logger), nil
	}
	return nil, errors.Errorf("unknown lock driver %q", cfg.Lock.Driver)
}

func (a *app) Close() {
	ctx := context.Background()
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Error("failed to close store", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("failed to close redis", "error", err)
		}
	}
}
