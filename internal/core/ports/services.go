package ports

import (
	"context"
	"time"

	"vidshare/internal/core/domain"
)

type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	IssueCredential(userID domain.UserID) (string, error)
	VerifyCredential(token string) (domain.UserID, bool)
	ResolveIdentity(ctx context.Context, token string) (*domain.User, bool)
	RequireAdmin(user *domain.User) error
	TokenTTL() time.Duration
}

type VideoService interface {
	ListVideos(ctx context.Context) ([]*domain.Video, error)
	GetVideo(ctx context.Context, id domain.VideoID) (*domain.Video, error)
	CreateVideo(ctx context.Context, user *domain.User, input domain.VideoInput) (*domain.Video, error)
	UpdateVideo(ctx context.Context, user *domain.User, id domain.VideoID, patch domain.VideoPatch) (*domain.Video, error)
	DeleteVideo(ctx context.Context, user *domain.User, id domain.VideoID) error
}

type UploadService interface {
	CreateUploadGrant(ctx context.Context, user *domain.User, req domain.UploadRequest) (*domain.UploadGrant, error)
}

// ObjectPresigner issues presigned write URLs against the content store.
type ObjectPresigner interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	PublicURL(key string) string
}
