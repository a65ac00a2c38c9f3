package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	videoSeqKey   = keyPrefix + "video:seq"
	videoPrefix   = keyPrefix + "video:"
	videoIndexKey = keyPrefix + "video:index"
)

type RedisVideoRepository struct {
	client *redis.Client
}

func NewRedisVideoRepository(client *redis.Client) ports.VideoRepository {
	return &RedisVideoRepository{client: client}
}

func (r *RedisVideoRepository) videoKey(id domain.VideoID) string {
	return videoPrefix + strconv.FormatInt(int64(id), 10)
}

func marshalVideo(video *domain.Video) ([]byte, error) {
	stored := *video
	stored.User = nil
	return json.Marshal(&stored)
}

func (r *RedisVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	id, err := r.client.Incr(ctx, videoSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate video id: %w", err)
	}
	video.ID = domain.VideoID(id)

	data, err := marshalVideo(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	member := strconv.FormatInt(id, 10)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.videoKey(video.ID), data, 0)
		pipe.ZAdd(ctx, videoIndexKey, redis.Z{Score: float64(video.CreatedAt.UnixMilli()), Member: member})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store video in Redis: %w", err)
	}
	return nil
}

func (r *RedisVideoRepository) GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	data, err := r.client.Get(ctx, r.videoKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video from Redis: %w", err)
	}

	var video domain.Video
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}
	return &video, nil
}

func (r *RedisVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	data, err := marshalVideo(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}

	// XX only overwrites an existing key.
	ok, err := r.client.SetXX(ctx, r.videoKey(video.ID), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to update video in Redis: %w", err)
	}
	if !ok {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *RedisVideoRepository) Delete(ctx context.Context, id domain.VideoID) error {
	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.videoKey(id))
		pipe.ZRem(ctx, videoIndexKey, strconv.FormatInt(int64(id), 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete video from Redis: %w", err)
	}
	if deleted.Val() == 0 {
		return domain.ErrVideoNotFound
	}
	return nil
}

func (r *RedisVideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	members, err := r.client.ZRevRange(ctx, videoIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read video index: %w", err)
	}
	if len(members) == 0 {
		return []*domain.Video{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = videoPrefix + m
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}

	videos := make([]*domain.Video, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry outlived its record
			continue
		}
		var video domain.Video
		if err := json.Unmarshal([]byte(raw), &video); err != nil {
			return nil, fmt.Errorf("failed to unmarshal video: %w", err)
		}
		videos = append(videos, &video)
	}

	// ZREVRANGE breaks score ties by member string, not numeric id.
	sort.SliceStable(videos, func(i, j int) bool {
		if !videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].CreatedAt.After(videos[j].CreatedAt)
		}
		return videos[i].ID > videos[j].ID
	})
	return videos, nil
}
