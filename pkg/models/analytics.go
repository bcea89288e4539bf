package models

import "time"

// Event is a best-effort analytics record for user-facing operations.
// Failure to write one never fails the operation it describes.
type Event struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	EventType  string    `json:"event_type" db:"event_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Properties Metadata  `json:"properties" db:"properties"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Analytics event types
const (
	EventPlaylistImported    = "playlist_imported"
	EventDescriptionEnhanced = "description_enhanced"
	EventEnhancementReverted = "enhancement_reverted"
	EventAnalysisGenerated   = "analysis_generated"
)
