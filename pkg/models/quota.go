package models

import "time"

// QuotaRecord is the daily cost-unit ledger for one upstream API.
// One row per (api_name, day); units_used only ever increases.
type QuotaRecord struct {
	APIName      string    `json:"api_name" db:"api_name"`
	Day          string    `json:"day" db:"day"`
	UnitsUsed    int       `json:"units_used" db:"units_used"`
	RequestCount int       `json:"request_count" db:"request_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Upstream API names used as ledger keys
const (
	APIYouTube = "youtube"
	APIOpenAI  = "openai"
)
