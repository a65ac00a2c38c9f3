package repositories

import (
	"context"
	"testing"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newMemoryFactory(t *testing.T) *RepositoryFactory {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = config.DriverMemory
	factory, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })
	return factory
}

func TestNewRepositoryFactory_Memory(t *testing.T) {
	factory := newMemoryFactory(t)
	assert.Equal(t, config.DriverMemory, factory.Driver())
	assert.NotNil(t, factory.UserRepository())
	assert.NotNil(t, factory.VideoRepository())
	assert.NoError(t, factory.HealthCheck(context.Background()))
}

func TestNewRepositoryFactory_UnknownDriver(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = "mongo"
	_, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestWithSeedLock_Memory(t *testing.T) {
	factory := newMemoryFactory(t)
	ctx := context.Background()

	ran := false
	err := factory.WithSeedLock(ctx, func(ctx context.Context) error {
		ran = true
		return Seed(ctx, factory.UserRepository(), factory.VideoRepository(), cheapHash,
			SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "password123"}, nil)
	})
	require.NoError(t, err)
	assert.True(t, ran)

	_, err = factory.UserRepository().GetByEmail(ctx, "admin@example.com")
	assert.NoError(t, err)
}

func TestNewRepositoryFactory_RedisGivesUp(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = config.DriverRedis
	cfg.Redis.Address = "127.0.0.1:1"
	cfg.Storage.ConnectAttempts = 2
	cfg.Storage.ConnectBackoff = time.Millisecond

	_, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up after 2 attempts")
}

func TestNewRepositoryFactory_BadPostgresDSNIsNotRetried(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Driver = config.DriverPostgres
	cfg.Postgres.DSN = "postgres://%zz"
	cfg.Storage.ConnectAttempts = 3
	cfg.Storage.ConnectBackoff = time.Hour

	_, err := NewRepositoryFactory(context.Background(), cfg, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse postgres config")
}

func cheapHash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(digest), err
}

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory(t)
	users, videos := factory.UserRepository(), factory.VideoRepository()
	opts := SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "password123", SampleVideos: 5}

	require.NoError(t, Seed(ctx, users, videos, cheapHash, opts, nil))
	require.NoError(t, Seed(ctx, users, videos, cheapHash, opts, nil))

	admin, err := users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("password123")))

	list, err := videos.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "Tears of Steel", list[0].Title)
	assert.Equal(t, "Big Buck Bunny", list[4].Title)
	for _, v := range list {
		assert.Equal(t, admin.ID, v.UserID)
	}
}

func TestSeed_CapsSampleCount(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory(t)
	opts := SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "pw", SampleVideos: 50}

	require.NoError(t, Seed(ctx, factory.UserRepository(), factory.VideoRepository(), cheapHash, opts, nil))
	list, err := factory.VideoRepository().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(sampleVideos))
}

func TestSeed_KeepsExistingAdminPassword(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory(t)
	users := factory.UserRepository()

	digest, err := cheapHash("rotated")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, &domain.User{Email: "admin@example.com", PasswordHash: digest, Role: domain.RoleAdmin}))

	opts := SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "password123", SampleVideos: 0}
	require.NoError(t, Seed(ctx, users, factory.VideoRepository(), cheapHash, opts, nil))

	admin, err := users.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("rotated")))
}

func TestSeed_DeletedSamplesStayDeleted(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory(t)
	users, videos := factory.UserRepository(), factory.VideoRepository()
	opts := SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "password123", SampleVideos: 5}

	require.NoError(t, Seed(ctx, users, videos, cheapHash, opts, nil))
	list, err := videos.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for _, v := range list {
		require.NoError(t, videos.Delete(ctx, v.ID))
	}

	require.NoError(t, Seed(ctx, users, videos, cheapHash, opts, nil))
	list, err = videos.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

type racingUserRepository struct {
	ports.UserRepository
}

func (r racingUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (r racingUserRepository) Create(ctx context.Context, user *domain.User) error {
	return domain.ErrUserAlreadyExists
}

func TestSeed_AdminCreatedConcurrently(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory(t)
	opts := SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "password123", SampleVideos: 5}

	require.NoError(t, Seed(ctx, racingUserRepository{factory.UserRepository()}, factory.VideoRepository(), cheapHash, opts, nil))
	list, err := factory.VideoRepository().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
