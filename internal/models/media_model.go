package models

import "time"

type MediaItem struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Kind      string    `json:"kind"` // image, video
	MimeType  string    `json:"mime_type"`
	RemoteURL string    `json:"remote_url"`
	State     string    `json:"state"` // uploading, ready, failed
	Edited    bool      `json:"edited"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

const (
	MediaStateUploading = "uploading"
	MediaStateReady     = "ready"
	MediaStateFailed    = "failed"
)
