package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Playlist represents a YouTube-sourced playlist owned by a user
type Playlist struct {
	ID                 string     `json:"id" db:"id"`
	UserID             string     `json:"user_id" db:"user_id"`
	Title              string     `json:"title" db:"title"`
	Description        string     `json:"description" db:"description"`
	AIDescription      *string    `json:"ai_description,omitempty" db:"ai_description"`
	SourceID           string     `json:"source_id" db:"source_id"`
	SourceURL          string     `json:"source_url" db:"source_url"`
	ChannelTitle       string     `json:"channel_title" db:"channel_title"`
	ThumbnailURL       string     `json:"thumbnail_url" db:"thumbnail_url"`
	VideoCount         int        `json:"video_count" db:"video_count"`
	Enhanced           bool       `json:"enhanced" db:"enhanced"`
	EnhancementStatus  string     `json:"enhancement_status" db:"enhancement_status"`
	EnhancementVersion int        `json:"enhancement_version" db:"enhancement_version"`
	EnhancedAt         *time.Time `json:"enhanced_at,omitempty" db:"enhanced_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Metadata holds additional JSON metadata
type Metadata map[string]interface{}

// Value implements driver.Valuer for database storage
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// EnhancementStatus values for the denormalized playlist field
const (
	PlaylistEnhancementNone      = "none"
	PlaylistEnhancementPending   = "pending"
	PlaylistEnhancementCompleted = "completed"
	PlaylistEnhancementFailed    = "failed"
)
