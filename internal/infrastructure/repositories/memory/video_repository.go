package memory

import (
	"context"
	"sort"
	"sync"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
)

type MemoryVideoRepository struct {
	videos map[domain.VideoID]*domain.Video
	nextID domain.VideoID
	mu     sync.RWMutex
}

func NewMemoryVideoRepository() ports.VideoRepository {
	return &MemoryVideoRepository{
		videos: make(map[domain.VideoID]*domain.Video),
	}
}

// clone drops the owner projection; owners are attached by the service.
func clone(v *domain.Video) *domain.Video {
	out := *v
	out.User = nil
	return &out
}

func (r *MemoryVideoRepository) Create(ctx context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	video.ID = r.nextID
	r.videos[video.ID] = clone(video)
	return nil
}

func (r *MemoryVideoRepository) GetByID(ctx context.Context, id domain.VideoID) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, exists := r.videos[id]
	if !exists {
		return nil, domain.ErrVideoNotFound
	}
	return clone(video), nil
}

func (r *MemoryVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.videos[video.ID]; !exists {
		return domain.ErrVideoNotFound
	}
	r.videos[video.ID] = clone(video)
	return nil
}

func (r *MemoryVideoRepository) Delete(ctx context.Context, id domain.VideoID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.videos[id]; !exists {
		return domain.ErrVideoNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *MemoryVideoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	r.mu.RLock()
	videos := make([]*domain.Video, 0, len(r.videos))
	for _, v := range r.videos {
		videos = append(videos, clone(v))
	}
	r.mu.RUnlock()

	sort.Slice(videos, func(i, j int) bool {
		if !videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].CreatedAt.After(videos[j].CreatedAt)
		}
		return videos[i].ID > videos[j].ID
	})
	return videos, nil
}
