package postgres

import (
	"context"
	"fmt"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/pkg/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const videoColumns = `id, title, description, video_url, thumbnail_url, user_id, created_at, updated_at`

type PostgresVideoRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresVideoRepository(pool *pgxpool.Pool) ports.VideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

func scanVideo(row pgx.Row) (*domain.Video, error) {
	var (
		video  domain.Video
		id     int64
		userID int64
	)
	if err := row.Scan(&id, &video.Title, &video.Description, &video.VideoURL, &video.ThumbnailURL, &userID, &video.CreatedAt, &video.UpdatedAt); err != nil {
		return nil, err
	}
	video.ID = domain.VideoID(id)
	video.UserID = domain.UserID(userID)
	return &video, nil
}

func (r *PostgresVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "insert", "videos")
	defer span.End()
	defer tracing.MeasureDuration(ctx, time.Now(), "videos.insert")

	row := r.pool.QueryRow(ctx, `
INSERT INTO videos (title, description, video_url, thumbnail_url, user_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`, video.Title, video.Description, video.VideoURL, video.ThumbnailURL, int64(video.UserID), video.CreatedAt.UTC(), video.UpdatedAt.UTC())

	var id int64
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	video.ID = domain.VideoID(id)
	return nil
}

func (r *PostgresVideoRepository) GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	video, err := scanVideo(r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, int64(id)))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrVideoNotFound
		}
		return nil, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

func (r *PostgresVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "update", "videos")
	defer span.End()
	defer tracing.MeasureDuration(ctx, time.Now(), "videos.update")

	tag, err := r.pool.Exec(ctx, `
UPDATE videos
SET title = $2, description = $3, video_url = $4, thumbnail_url = $5, updated_at = $6
WHERE id = $1
`, int64(video.ID), video.Title, video.Description, video.VideoURL, video.ThumbnailURL, video.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *PostgresVideoRepository) Delete(ctx context.Context, id domain.VideoID) error {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "delete", "videos")
	defer span.End()
	defer tracing.MeasureDuration(ctx, time.Now(), "videos.delete")

	tag, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *PostgresVideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	ctx, span := tracing.TraceDatabaseOperation(ctx, "select", "videos")
	defer span.End()
	defer tracing.MeasureDuration(ctx, time.Now(), "videos.select")

	rows, err := r.pool.Query(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]*domain.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}
