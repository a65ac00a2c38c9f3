package postgres

import (
	"context"
	"errors"
	"fmt"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) ports.UserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (email, password_digest, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt.UTC(), user.UpdatedAt.UTC())

	var id int64
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = domain.UserID(id)
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.getOne(ctx, `
SELECT id, email, password_digest, role, created_at, updated_at
FROM users
WHERE id = $1
`, int64(id))
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `
SELECT id, email, password_digest, role, created_at, updated_at
FROM users
WHERE email = $1
`, email)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var (
		user domain.User
		id   int64
		role string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(&id, &user.Email, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.ID = domain.UserID(id)
	user.Role = domain.UserRole(role)
	return &user, nil
}
