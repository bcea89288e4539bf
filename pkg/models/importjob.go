package models

import "time"

// ImportJob tracks a single playlist-import attempt.
// Status moves from pending to exactly one of completed or failed.
type ImportJob struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"user_id" db:"user_id"`
	PlaylistID     *string    `json:"playlist_id,omitempty" db:"playlist_id"`
	SourceID       string     `json:"source_id" db:"source_id"`
	SourceURL      string     `json:"source_url" db:"source_url"`
	Status         string     `json:"status" db:"status"`
	VideosImported int        `json:"videos_imported" db:"videos_imported"`
	TotalVideos    int        `json:"total_videos" db:"total_videos"`
	Progress       *float64   `json:"progress,omitempty" db:"progress"`
	ErrorMsg       *string    `json:"error_msg,omitempty" db:"error_msg"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ImportJob status constants
const (
	ImportStatusPending   = "pending"
	ImportStatusCompleted = "completed"
	ImportStatusFailed    = "failed"
)

// ImportRequest is the queue message that asks a worker to run an import
type ImportRequest struct {
	JobID     string `json:"job_id"`
	UserID    string `json:"user_id"`
	SourceID  string `json:"source_id"`
	SourceURL string `json:"source_url"`
	MaxVideos int    `json:"max_videos"`
}
