package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/pkg/tracing"
	"vidshare/pkg/validation"
)

type videoService struct {
	videoRepo ports.VideoRepository
	userRepo  ports.UserRepository
	auth      ports.AuthService
	now       func() time.Time
}

func NewVideoService(
	videoRepo ports.VideoRepository,
	userRepo ports.UserRepository,
	auth ports.AuthService,
) ports.VideoService {
	return &videoService{
		videoRepo: videoRepo,
		userRepo:  userRepo,
		auth:      auth,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *videoService) ListVideos(ctx context.Context) ([]*domain.Video, error) {
	ctx, span := tracing.TraceVideoOperation(ctx, "list", 0)
	defer span.End()

	videos, err := s.videoRepo.List(ctx)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	owners := make(map[domain.UserID]*domain.VideoOwner)
	for _, v := range videos {
		owner, seen := owners[v.UserID]
		if !seen {
			owner, err = s.lookupOwner(ctx, v.UserID)
			if err != nil {
				tracing.RecordError(ctx, err)
				return nil, err
			}
			owners[v.UserID] = owner
		}
		v.User = owner
	}
	return videos, nil
}

func (s *videoService) GetVideo(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	ctx, span := tracing.TraceVideoOperation(ctx, "get", int64(id))
	defer span.End()

	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if video.User, err = s.lookupOwner(ctx, video.UserID); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return video, nil
}

func (s *videoService) CreateVideo(ctx context.Context, user *domain.User, input domain.VideoInput) (*domain.Video, error) {
	if err := s.auth.RequireAdmin(user); err != nil {
		return nil, err
	}

	ctx, span := tracing.TraceVideoOperation(ctx, "create", 0)
	defer span.End()

	now := s.now()
	video := &domain.Video{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		VideoURL:     strings.TrimSpace(input.VideoURL),
		ThumbnailURL: strings.TrimSpace(input.ThumbnailURL),
		UserID:       user.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateVideo(video); err != nil {
		return nil, err
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to create video: %w", err)
	}
	tracing.AddSpanAttributes(ctx, tracing.VideoIDKey.Int64(int64(video.ID)))
	video.User = &domain.VideoOwner{ID: user.ID, Email: user.Email}
	return video, nil
}

func (s *videoService) UpdateVideo(ctx context.Context, user *domain.User, id domain.VideoID, patch domain.VideoPatch) (*domain.Video, error) {
	if err := s.auth.RequireAdmin(user); err != nil {
		return nil, err
	}

	ctx, span := tracing.TraceVideoOperation(ctx, "update", int64(id))
	defer span.End()

	video, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(video)
	video.Title = strings.TrimSpace(video.Title)
	video.VideoURL = strings.TrimSpace(video.VideoURL)
	video.ThumbnailURL = strings.TrimSpace(video.ThumbnailURL)
	if err := validateVideo(video); err != nil {
		return nil, err
	}
	video.UpdatedAt = s.now()

	if err := s.videoRepo.Update(ctx, video); err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to update video: %w", err)
	}
	if video.User, err = s.lookupOwner(ctx, video.UserID); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) DeleteVideo(ctx context.Context, user *domain.User, id domain.VideoID) error {
	if err := s.auth.RequireAdmin(user); err != nil {
		return err
	}

	ctx, span := tracing.TraceVideoOperation(ctx, "delete", int64(id))
	defer span.End()

	return s.videoRepo.Delete(ctx, id)
}

// lookupOwner returns a nil owner when the owning user has gone away. Other
// repository failures are returned.
func (s *videoService) lookupOwner(ctx context.Context, id domain.UserID) (*domain.VideoOwner, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load video owner %d: %w", id, err)
	}
	return &domain.VideoOwner{ID: user.ID, Email: user.Email}, nil
}

func validateVideo(v *domain.Video) error {
	verr := &domain.ValidationError{}
	required := []struct {
		field string
		value string
	}{
		{"title", v.Title},
		{"video_url", v.VideoURL},
		{"thumbnail_url", v.ThumbnailURL},
	}
	for _, r := range required {
		if validation.ValidateNonEmptyString(r.value, r.field) != nil {
			verr.Add(r.field, "can't be blank")
		}
	}
	return verr.OrNil()
}
