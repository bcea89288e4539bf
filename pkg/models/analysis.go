package models

import "time"

// ContentAnalysis is a cached analysis result for one (playlist, kind).
// One live row per kind; replaced whenever the cached copy expires.
type ContentAnalysis struct {
	ID         string    `json:"id" db:"id"`
	PlaylistID string    `json:"playlist_id" db:"playlist_id"`
	Kind       string    `json:"kind" db:"kind"`
	Payload    Metadata  `json:"payload" db:"payload"`
	Confidence float64   `json:"confidence" db:"confidence"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Analysis kind constants
const (
	AnalysisKindTopics     = "topics"
	AnalysisKindThemes     = "themes"
	AnalysisKindDifficulty = "difficulty"
	AnalysisKindKeywords   = "keywords"
)

// Difficulty levels
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// AnalysisResult wraps one kind's analysis with cache provenance
type AnalysisResult struct {
	Kind       string   `json:"kind"`
	Data       Metadata `json:"data"`
	Confidence float64  `json:"confidence"`
	Cached     bool     `json:"cached"`
}

// ComprehensiveAnalysis bundles all analysis kinds for a playlist,
// plus an optional AI-generated summary when the oracle is configured
type ComprehensiveAnalysis struct {
	PlaylistID string                     `json:"playlist_id"`
	Results    map[string]*AnalysisResult `json:"results"`
	AISummary  *string                    `json:"ai_summary,omitempty"`
}
