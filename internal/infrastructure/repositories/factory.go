package repositories

import (
	"context"
	"fmt"
	"time"

	"vidshare/internal/core/ports"
	"vidshare/internal/infrastructure/repositories/memory"
	pgrepo "vidshare/internal/infrastructure/repositories/postgres"
	redisrepo "vidshare/internal/infrastructure/repositories/redis"
	"vidshare/pkg/config"
	"vidshare/pkg/distributed"
	"vidshare/pkg/retry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	seedLockKey  = "vidshare:lock:seed"
	seedLockTTL  = time.Minute
	seedLockWait = 30 * time.Second
	seedAdvisory = int64(0x76696473) // "vids"
)

// RepositoryFactory creates repositories for the configured storage driver.
type RepositoryFactory struct {
	driver      string
	redisClient *redis.Client
	pgPool      *pgxpool.Pool
	logger      *zap.SugaredLogger

	users  ports.UserRepository
	videos ports.VideoRepository
}

// NewRepositoryFactory connects to the configured backend, retrying with
// backoff up to storage.connect_attempts times. The last connection error is
// returned; there is no fallback to memory.
func NewRepositoryFactory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		driver: cfg.Storage.Driver,
		logger: logger,
	}

	backoff := retry.DefaultConfig()
	backoff.MaxAttempts = cfg.Storage.ConnectAttempts
	backoff.InitialDelay = cfg.Storage.ConnectBackoff
	onRetry := func(attempt int, err error, delay time.Duration) {
		logger.Warnw("storage connection failed, retrying",
			"driver", cfg.Storage.Driver,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}

	switch cfg.Storage.Driver {
	case config.DriverRedis:
		client, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*redis.Client, error) {
			return redisrepo.NewRedisClient(
				cfg.Redis.Address,
				cfg.Redis.Password,
				cfg.Redis.DB,
				cfg.Redis.PoolSize,
				logger,
			)
		}, onRetry)
		if err != nil {
			return nil, err
		}
		factory.redisClient = client
		factory.users = redisrepo.NewRedisUserRepository(client)
		factory.videos = redisrepo.NewRedisVideoRepository(client)
	case config.DriverPostgres:
		poolCfg := pgrepo.PoolConfig{
			DSN:             cfg.Postgres.DSN,
			MaxConnections:  cfg.Postgres.MaxConnections,
			MinConnections:  cfg.Postgres.MinConnections,
			MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
			MaxConnIdleTime: cfg.Postgres.MaxConnIdleTime,
		}
		pool, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*pgxpool.Pool, error) {
			return pgrepo.NewPool(ctx, poolCfg, logger)
		}, onRetry)
		if err != nil {
			return nil, err
		}
		factory.pgPool = pool
		factory.users = pgrepo.NewPostgresUserRepository(pool)
		factory.videos = pgrepo.NewPostgresVideoRepository(pool)
	case config.DriverMemory, "":
		factory.driver = config.DriverMemory
		factory.users = memory.NewMemoryUserRepository()
		factory.videos = memory.NewMemoryVideoRepository()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	logger.Infow("repositories ready", "driver", factory.driver)
	return factory, nil
}

// Driver reports the storage backend in use.
func (f *RepositoryFactory) Driver() string {
	return f.driver
}

func (f *RepositoryFactory) UserRepository() ports.UserRepository {
	return f.users
}

func (f *RepositoryFactory) VideoRepository() ports.VideoRepository {
	return f.videos
}

// Close releases backend connections
func (f *RepositoryFactory) Close() error {
	if f.pgPool != nil {
		f.pgPool.Close()
	}
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck pings the backend
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	switch {
	case f.redisClient != nil:
		return f.redisClient.Ping(ctx).Err()
	case f.pgPool != nil:
		return f.pgPool.Ping(ctx)
	default:
		return nil
	}
}

// WithSeedLock runs fn while holding a backend-wide lock so replicas that
// start together seed once. The memory driver has a single process and runs
// fn directly.
func (f *RepositoryFactory) WithSeedLock(ctx context.Context, fn func(ctx context.Context) error) error {
	switch {
	case f.redisClient != nil:
		return distributed.WithLock(ctx, f.redisClient, seedLockKey, seedLockTTL, seedLockWait, fn)
	case f.pgPool != nil:
		return pgrepo.WithAdvisoryLock(ctx, f.pgPool, seedAdvisory, fn)
	default:
		return fn(ctx)
	}
}
