package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"

	"go.uber.org/zap"
)

// SeedOptions describes the bootstrap data.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	SampleVideos  int
}

// PasswordHasher turns a plaintext password into the stored digest.
type PasswordHasher func(password string) (string, error)

var sampleVideos = []domain.VideoInput{
	{
		Title:        "Big Buck Bunny",
		Description:  "A large rabbit deals with three bullying rodents.",
		VideoURL:     "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
		ThumbnailURL: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/BigBuckBunny.jpg",
	},
	{
		Title:        "Elephants Dream",
		Description:  "Two characters explore a surreal mechanical world.",
		VideoURL:     "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
		ThumbnailURL: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/ElephantsDream.jpg",
	},
	{
		Title:        "For Bigger Blazes",
		Description:  "A short promotional clip.",
		VideoURL:     "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
		ThumbnailURL: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/ForBiggerBlazes.jpg",
	},
	{
		Title:        "Sintel",
		Description:  "A lonely young woman searches for a baby dragon.",
		VideoURL:     "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/Sintel.mp4",
		ThumbnailURL: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/Sintel.jpg",
	},
	{
		Title:        "Tears of Steel",
		Description:  "Warriors and scientists gather to save the world.",
		VideoURL:     "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/TearsOfSteel.mp4",
		ThumbnailURL: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/images/TearsOfSteel.jpg",
	},
}

// Seed creates the bootstrap administrator and, only in the run that creates
// it, up to opts.SampleVideos sample entries. Once the administrator exists a
// rerun leaves both users and videos alone, so deleted samples stay deleted.
func Seed(
	ctx context.Context,
	users ports.UserRepository,
	videos ports.VideoRepository,
	hash PasswordHasher,
	opts SeedOptions,
	logger *zap.SugaredLogger,
) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	admin, err := users.GetByEmail(ctx, opts.AdminEmail)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
	case err != nil:
		return fmt.Errorf("lookup seed admin: %w", err)
	default:
		logger.Debugw("seed admin already present", "email", admin.Email)
		return nil
	}

	digest, err := hash(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	now := time.Now().UTC()
	admin = &domain.User{
		Email:        opts.AdminEmail,
		PasswordHash: digest,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			logger.Debugw("seed admin created concurrently", "email", opts.AdminEmail)
			return nil
		}
		return fmt.Errorf("create seed admin: %w", err)
	}
	logger.Infow("seeded admin user", "email", admin.Email, "user_id", admin.ID)

	n := opts.SampleVideos
	if n > len(sampleVideos) {
		n = len(sampleVideos)
	}
	base := time.Now().UTC()
	for i := 0; i < n; i++ {
		in := sampleVideos[i]
		// Stagger timestamps so newest-first listing mirrors seed order.
		created := base.Add(time.Duration(i-n) * time.Second)
		video := &domain.Video{
			Title:        in.Title,
			Description:  in.Description,
			VideoURL:     in.VideoURL,
			ThumbnailURL: in.ThumbnailURL,
			UserID:       admin.ID,
			CreatedAt:    created,
			UpdatedAt:    created,
		}
		if err := videos.Create(ctx, video); err != nil {
			return fmt.Errorf("create seed video %q: %w", in.Title, err)
		}
	}
	if n > 0 {
		logger.Infow("seeded sample videos", "count", n)
	}
	return nil
}
