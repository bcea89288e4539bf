package models

import "time"

// AIUsageRecord aggregates AI spend per (user, day, model).
// Counters are strictly additive; every completed enhancement increments
// exactly one row via an atomic upsert.
type AIUsageRecord struct {
	UserID        string    `json:"user_id" db:"user_id"`
	Day           string    `json:"day" db:"day"`
	Model         string    `json:"model" db:"model"`
	RequestsCount int       `json:"requests_count" db:"requests_count"`
	TokensUsed    int       `json:"tokens_used" db:"tokens_used"`
	Cost          float64   `json:"cost" db:"cost"`
	SuccessCount  int       `json:"success_count" db:"success_count"`
	ErrorCount    int       `json:"error_count" db:"error_count"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// UsageSummary aggregates a user's AI usage over a period
type UsageSummary struct {
	UserID        string          `json:"user_id"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	RequestsCount int             `json:"requests_count"`
	TokensUsed    int             `json:"tokens_used"`
	Cost          float64         `json:"cost"`
	ByModel       []AIUsageRecord `json:"by_model"`
}
