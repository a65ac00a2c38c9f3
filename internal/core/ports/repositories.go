package ports

import (
	"context"

	"vidshare/internal/core/domain"
)

type UserRepository interface {
	// Create assigns the next ID to user and stores it. Emails are unique.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error)
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id domain.VideoID) error
	// List returns every video, newest first.
	List(ctx context.Context) ([]*domain.Video, error)
}
