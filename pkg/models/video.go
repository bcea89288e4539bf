package models

import "time"

// PlaylistVideo represents a video belonging to a playlist.
// Duration is stored pre-formatted (H:MM:SS or M:SS) because downstream
// consumers treat it as a display string.
type PlaylistVideo struct {
	ID            string    `json:"id" db:"id"`
	PlaylistID    string    `json:"playlist_id" db:"playlist_id"`
	SourceVideoID string    `json:"source_video_id" db:"source_video_id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	ChannelTitle  string    `json:"channel_title" db:"channel_title"`
	Duration      string    `json:"duration" db:"duration"`
	ThumbnailURL  string    `json:"thumbnail_url" db:"thumbnail_url"`
	Position      int       `json:"position" db:"position"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
