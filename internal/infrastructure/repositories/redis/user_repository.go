package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	userSeqKey      = keyPrefix + "user:seq"
	userPrefix      = keyPrefix + "user:"
	userEmailPrefix = keyPrefix + "user:email:"
)

// userRecord carries the password hash, which domain.User hides from JSON.
type userRecord struct {
	ID           domain.UserID   `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"password_hash"`
	Role         domain.UserRole `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type RedisUserRepository struct {
	client *redis.Client
}

func NewRedisUserRepository(client *redis.Client) ports.UserRepository {
	return &RedisUserRepository{client: client}
}

func (r *RedisUserRepository) userKey(id domain.UserID) string {
	return userPrefix + strconv.FormatInt(int64(id), 10)
}

func (r *RedisUserRepository) emailKey(email string) string {
	return userEmailPrefix + email
}

func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	id, err := r.client.Incr(ctx, userSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate user id: %w", err)
	}

	// The email index is claimed first so concurrent creates cannot both win.
	claimed, err := r.client.SetNX(ctx, r.emailKey(user.Email), id, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to index user email: %w", err)
	}
	if !claimed {
		return domain.ErrUserAlreadyExists
	}

	user.ID = domain.UserID(id)
	data, err := json.Marshal(userRecord{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := r.client.Set(ctx, r.userKey(user.ID), data, 0).Err(); err != nil {
		r.client.Del(ctx, r.emailKey(user.Email))
		return fmt.Errorf("failed to set user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var record userRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return record.toDomain(), nil
}

func (r *RedisUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Int64()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user email: %w", err)
	}
	return r.GetByID(ctx, domain.UserID(id))
}
