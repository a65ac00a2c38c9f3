package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/pkg/tracing"
	"vidshare/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPresignExpiry is how long an upload grant stays usable.
const DefaultPresignExpiry = 5 * time.Minute

type uploadService struct {
	auth      ports.AuthService
	presigner ports.ObjectPresigner
	expiry    time.Duration
	newID     func() string
	logger    *zap.SugaredLogger
}

// NewUploadService builds the upload authorization component. presigner may be
// nil when object storage is not configured; every grant then fails with
// domain.ErrStorageNotConfigured.
func NewUploadService(
	auth ports.AuthService,
	presigner ports.ObjectPresigner,
	expiry time.Duration,
	logger *zap.SugaredLogger,
) ports.UploadService {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &uploadService{
		auth:      auth,
		presigner: presigner,
		expiry:    expiry,
		newID:     func() string { return uuid.New().String() },
		logger:    logger,
	}
}

func (s *uploadService) CreateUploadGrant(ctx context.Context, user *domain.User, req domain.UploadRequest) (*domain.UploadGrant, error) {
	if err := s.auth.RequireAdmin(user); err != nil {
		return nil, err
	}

	if req.FileType == "" {
		req.FileType = domain.FileTypeVideo
	}
	if !req.FileType.Valid() {
		return nil, domain.ErrInvalidFileType
	}

	filename := sanitizeFilename(req.Filename)
	contentType := strings.TrimSpace(req.ContentType)
	if filename == "" || contentType == "" {
		return nil, domain.ErrMissingUploadFields
	}
	if validation.ValidateFilename(filename) != nil || validation.ValidateContentType(contentType) != nil {
		return nil, domain.ErrMalformedUpload
	}

	if s.presigner == nil {
		return nil, domain.ErrStorageNotConfigured
	}

	ctx, span := tracing.TraceUploadGrant(ctx, string(req.FileType))
	defer span.End()

	key := BuildObjectKey(req.FileType, s.newID(), filename)
	span.SetAttributes(tracing.ObjectKey.String(key))

	uploadURL, err := s.presigner.PresignPut(ctx, key, contentType, s.expiry)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: put %s: %w", domain.ErrPresignFailed, key, err)
	}

	s.logger.Infow("upload grant issued",
		"user_id", user.ID,
		"key", key,
		"content_type", contentType,
		"expires_in", s.expiry,
	)

	return &domain.UploadGrant{
		Key:         key,
		ContentType: contentType,
		ExpiresIn:   s.expiry,
		UploadURL:   uploadURL,
		FileURL:     s.presigner.PublicURL(key),
	}, nil
}

// BuildObjectKey lays out "{videos|thumbnails}/{id}/{filename}". The id
// segment keeps identical filenames from overwriting each other.
func BuildObjectKey(fileType domain.FileType, id, filename string) string {
	return fileType.KeyPrefix() + "/" + id + "/" + filename
}

// sanitizeFilename keeps only the last path element so a client cannot steer
// the key outside its generated directory.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
