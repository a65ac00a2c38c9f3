package domain

import "time"

type VideoID int64

// VideoOwner is the public projection of the user that created a video.
type VideoOwner struct {
	ID    UserID `json:"id"`
	Email string `json:"email"`
}

type Video struct {
	ID           VideoID     `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	VideoURL     string      `json:"video_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	UserID       UserID      `json:"user_id"`
	User         *VideoOwner `json:"user,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// VideoInput carries the writable fields of a video.
type VideoInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VideoPatch is a partial update; nil fields are left untouched.
type VideoPatch struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	VideoURL     *string `json:"video_url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// Apply copies every non-nil field of p onto v.
func (p VideoPatch) Apply(v *Video) {
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.VideoURL != nil {
		v.VideoURL = *p.VideoURL
	}
	if p.ThumbnailURL != nil {
		v.ThumbnailURL = *p.ThumbnailURL
	}
}
