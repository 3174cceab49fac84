// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/teamgather/internal/app/system/cache"
	"github.com/dalemusser/teamgather/internal/app/system/indexes"
	"github.com/dalemusser/teamgather/internal/app/system/timeouts"
	"github.com/dalemusser/teamgather/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	cacheRedis  = "redis"
	cacheMemory = "memory"
)

// ConnectDB connects MongoDB and the cache backend.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPool > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPool)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	backend, err := connectCache(ctx, appCfg, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		Cache:         cache.New(backend, logger),
		Txn:           txn.New(client, logger),
	}, nil
}

func connectCache(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (cache.Backend, error) {
	if appCfg.CacheBackend != cacheRedis {
		logger.Info("using in-process cache", zap.Duration("ttl", appCfg.CacheTTL))
		return cache.NewMemory(appCfg.CacheTTL), nil
	}
	rdb, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:        appCfg.RedisAddr,
		Password:    appCfg.RedisPassword,
		DB:          appCfg.RedisDB,
		TTL:         appCfg.CacheTTL,
		DialTimeout: timeouts.Ping(),
	})
	if err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
	return rdb, nil
}

// EnsureSchema creates the indexes the stores rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
