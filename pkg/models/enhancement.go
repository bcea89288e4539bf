package models

import "time"

// EnhancementRecord tracks one AI enhancement attempt for a playlist.
// Exactly one completed transition writes back to the owning playlist;
// a failed record never touches it.
type EnhancementRecord struct {
	ID               string     `json:"id" db:"id"`
	PlaylistID       string     `json:"playlist_id" db:"playlist_id"`
	UserID           string     `json:"user_id" db:"user_id"`
	Type             string     `json:"type" db:"type"`
	OriginalContent  string     `json:"original_content" db:"original_content"`
	EnhancedContent  string     `json:"enhanced_content" db:"enhanced_content"`
	Model            string     `json:"model" db:"model"`
	PromptTokens     int        `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int        `json:"completion_tokens" db:"completion_tokens"`
	TokensUsed       int        `json:"tokens_used" db:"tokens_used"`
	Cost             float64    `json:"cost" db:"cost"`
	UserRating       *int       `json:"user_rating,omitempty" db:"user_rating"`
	Status           string     `json:"status" db:"status"`
	ErrorMsg         *string    `json:"error_msg,omitempty" db:"error_msg"`
	DurationMS       int64      `json:"duration_ms" db:"duration_ms"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Enhancement type constants
const (
	EnhancementTypeDescription    = "description"
	EnhancementTypeTitle          = "title"
	EnhancementTypeCategorization = "categorization"
)

// Enhancement status constants
const (
	EnhancementStatusPending    = "pending"
	EnhancementStatusProcessing = "processing"
	EnhancementStatusCompleted  = "completed"
	EnhancementStatusFailed     = "failed"
	EnhancementStatusReverted   = "reverted"
)

// EnhancementPreferences holds a user's AI enhancement settings,
// lazily created with defaults on first use
type EnhancementPreferences struct {
	UserID            string    `json:"user_id" db:"user_id"`
	Style             string    `json:"style" db:"style"`
	IncludeTopics     bool      `json:"include_topics" db:"include_topics"`
	IncludeVideoCount bool      `json:"include_video_count" db:"include_video_count"`
	PreferredModel    string    `json:"preferred_model" db:"preferred_model"`
	MaxLength         int       `json:"max_length" db:"max_length"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Enhancement style constants
const (
	StyleEngaging     = "engaging"
	StyleProfessional = "professional"
	StyleConcise      = "concise"
)

// EnhancementResult is returned to callers after a successful enhancement
type EnhancementResult struct {
	RecordID    string  `json:"record_id"`
	Description string  `json:"description"`
	Model       string  `json:"model"`
	TokensUsed  int     `json:"tokens_used"`
	Cost        float64 `json:"cost"`
	DurationMS  int64   `json:"duration_ms"`
}
