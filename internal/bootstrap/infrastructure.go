package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eleven-am/video-search/internal/cache"
	"github.com/eleven-am/video-search/internal/index"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const startupTimeout = 30 * time.Second

// ProvideRedisClient returns nil when no address is configured; the result
// cache then falls back to process memory.
func ProvideRedisClient(lc fx.Lifecycle, cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

func ProvideDatabase(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
}

func ProvideResultCache(cfg *Config, client *redis.Client) cache.Cache {
	if client == nil {
		return cache.NewLocal(cfg.CacheTTL)
	}
	return cache.NewRedis(client, "", cfg.CacheTTL)
}

// NewVectorIndex connects the backend named by INDEX_BACKEND. The caller owns
// the returned index and must Close it.
func NewVectorIndex(ctx context.Context, cfg *Config) (index.VectorIndex, error) {
	params := index.DefaultHNSWParams()

	switch cfg.IndexBackend {
	case index.BackendMemory:
		return index.NewMemory(index.MemoryConfig{
			Dimension:      cfg.VectorDimension,
			HNSW:           params,
			ExactThreshold: cfg.IndexExactThreshold,
		}), nil

	case index.BackendQdrant:
		client, err := qdrant.NewClient(&qdrant.Config{
			Host:   cfg.QdrantHost,
			Port:   cfg.QdrantPort,
			APIKey: cfg.QdrantAPIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create qdrant client: %w", err)
		}
		idx, err := index.NewQdrant(ctx, client, index.QdrantConfig{
			Collection: cfg.QdrantCollection,
			Dimension:  cfg.VectorDimension,
			HNSW:       params,
		})
		if err != nil {
			client.Close()
			return nil, err
		}
		return idx, nil

	case index.BackendPgvector:
		pool, err := pgxpool.New(ctx, cfg.PgvectorDSN)
		if err != nil {
			return nil, fmt.Errorf("connect pgvector: %w", err)
		}
		idx, err := index.NewPgvector(ctx, pool, index.PgvectorConfig{
			Dimension: cfg.VectorDimension,
			HNSW:      params,
		})
		if err != nil {
			pool.Close()
			return nil, err
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("unsupported index backend %q", cfg.IndexBackend)
	}
}

func ProvideVectorIndex(lc fx.Lifecycle, cfg *Config, logger *slog.Logger) (index.VectorIndex, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	idx, err := NewVectorIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return idx.Close()
		},
	})
	logger.Info("vector index ready", "backend", idx.Name(), "dimension", idx.Dimension())
	return idx, nil
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideRedisClient,
		ProvideDatabase,
		ProvideResultCache,
		ProvideVectorIndex,
	),
)
