package domain

import "time"

type FileType string

const (
	FileTypeVideo     FileType = "video"
	FileTypeThumbnail FileType = "thumbnail"
)

// KeyPrefix returns the object key directory for the file type.
func (t FileType) KeyPrefix() string {
	if t == FileTypeThumbnail {
		return "thumbnails"
	}
	return "videos"
}

func (t FileType) Valid() bool {
	return t == FileTypeVideo || t == FileTypeThumbnail
}

type UploadRequest struct {
	Filename    string
	ContentType string
	FileType    FileType
}

// UploadGrant is a short-lived write authorization for exactly one object key.
type UploadGrant struct {
	Key         string        `json:"key"`
	ContentType string        `json:"content_type"`
	ExpiresIn   time.Duration `json:"-"`
	UploadURL   string        `json:"upload_url"`
	FileURL     string        `json:"file_url"`
}
