package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Enhancement records

const enhancementColumns = `id, playlist_id, user_id, type, original_content, enhanced_content,
	       model, prompt_tokens, completion_tokens, tokens_used, cost, user_rating,
	       status, error_msg, duration_ms, created_at, completed_at`

func scanEnhancement(row pgx.Row) (*models.EnhancementRecord, error) {
	var e models.EnhancementRecord
	err := row.Scan(
		&e.ID, &e.PlaylistID, &e.UserID, &e.Type, &e.OriginalContent, &e.EnhancedContent,
		&e.Model, &e.PromptTokens, &e.CompletionTokens, &e.TokensUsed, &e.Cost,
		&e.UserRating, &e.Status, &e.ErrorMsg, &e.DurationMS, &e.CreatedAt, &e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEnhancementRecord persists a new enhancement attempt.
// Created before the oracle call so a crash mid-call leaves a trace.
func (r *Repository) CreateEnhancementRecord(ctx context.Context, record *models.EnhancementRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query := `
		INSERT INTO enhancement_records (id, playlist_id, user_id, type, original_content, model, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.ID, record.PlaylistID, record.UserID, record.Type,
		record.OriginalContent, record.Model, record.Status,
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create enhancement record: %w", err)
	}

	return nil
}

// GetEnhancementRecord retrieves an enhancement record by ID
func (r *Repository) GetEnhancementRecord(ctx context.Context, id string) (*models.EnhancementRecord, error) {
	query := `SELECT ` + enhancementColumns + ` FROM enhancement_records WHERE id = $1`

	record, err := scanEnhancement(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.KindNotFound, "enhancement record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enhancement record: %w", err)
	}

	return record, nil
}

// ListEnhancementRecords retrieves a playlist's enhancement history, newest first
func (r *Repository) ListEnhancementRecords(ctx context.Context, playlistID string, limit int) ([]*models.EnhancementRecord, error) {
	query := `SELECT ` + enhancementColumns + `
		FROM enhancement_records
		WHERE playlist_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Pool.Query(ctx, query, playlistID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list enhancement records: %w", err)
	}
	defer rows.Close()

	var records []*models.EnhancementRecord
	for rows.Next() {
		record, err := scanEnhancement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enhancement record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// LatestCompletedEnhancement returns the most recent completed enhancement
// of a type for a playlist, or nil when none exists. Drives the cooldown check.
func (r *Repository) LatestCompletedEnhancement(ctx context.Context, playlistID, enhType string) (*models.EnhancementRecord, error) {
	query := `SELECT ` + enhancementColumns + `
		FROM enhancement_records
		WHERE playlist_id = $1 AND type = $2 AND status = $3
		ORDER BY completed_at DESC
		LIMIT 1`

	record, err := scanEnhancement(r.db.Pool.QueryRow(ctx, query, playlistID, enhType, models.EnhancementStatusCompleted))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest enhancement: %w", err)
	}

	return record, nil
}

// CompleteEnhancementRecord finalizes a record as completed with its
// output and cost metrics
func (r *Repository) CompleteEnhancementRecord(ctx context.Context, record *models.EnhancementRecord) error {
	query := `
		UPDATE enhancement_records
		SET enhanced_content = $2, model = $3, prompt_tokens = $4, completion_tokens = $5,
		    tokens_used = $6, cost = $7, status = $8, duration_ms = $9, completed_at = now()
		WHERE id = $1
		RETURNING completed_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.ID, record.EnhancedContent, record.Model, record.PromptTokens,
		record.CompletionTokens, record.TokensUsed, record.Cost,
		models.EnhancementStatusCompleted, record.DurationMS,
	).Scan(&record.CompletedAt)

	if err != nil {
		return fmt.Errorf("failed to complete enhancement record: %w", err)
	}
	record.Status = models.EnhancementStatusCompleted

	return nil
}

// FailEnhancementRecord finalizes a record as failed with the error message
func (r *Repository) FailEnhancementRecord(ctx context.Context, recordID, errorMsg string, durationMS int64) error {
	query := `
		UPDATE enhancement_records
		SET status = $2, error_msg = $3, duration_ms = $4, completed_at = now()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, recordID, models.EnhancementStatusFailed, errorMsg, durationMS)
	if err != nil {
		return fmt.Errorf("failed to fail enhancement record: %w", err)
	}

	return nil
}

// RateEnhancement stores a user's quality rating on a completed enhancement
func (r *Repository) RateEnhancement(ctx context.Context, recordID string, rating int) error {
	query := `
		UPDATE enhancement_records
		SET user_rating = $2
		WHERE id = $1 AND status = $3
	`

	tag, err := r.db.Pool.Exec(ctx, query, recordID, rating, models.EnhancementStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to rate enhancement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindNotFound, "completed enhancement not found")
	}

	return nil
}

// MarkEnhancementReverted marks a completed enhancement as reverted
func (r *Repository) MarkEnhancementReverted(ctx context.Context, recordID string) error {
	query := `
		UPDATE enhancement_records
		SET status = $2
		WHERE id = $1 AND status = $3
	`

	tag, err := r.db.Pool.Exec(ctx, query, recordID, models.EnhancementStatusReverted, models.EnhancementStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark enhancement reverted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindNotFound, "completed enhancement not found")
	}

	return nil
}

// Enhancement preferences

// GetOrCreatePreferences loads a user's enhancement preferences, lazily
// creating the defaults row on first use
func (r *Repository) GetOrCreatePreferences(ctx context.Context, userID string) (*models.EnhancementPreferences, error) {
	query := `
		INSERT INTO enhancement_preferences (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, style, include_topics, include_video_count, preferred_model,
		          max_length, created_at, updated_at
	`

	var prefs models.EnhancementPreferences
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&prefs.UserID, &prefs.Style, &prefs.IncludeTopics, &prefs.IncludeVideoCount,
		&prefs.PreferredModel, &prefs.MaxLength, &prefs.CreatedAt, &prefs.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return &prefs, nil
}

// UpdatePreferences saves a user's enhancement preferences
func (r *Repository) UpdatePreferences(ctx context.Context, prefs *models.EnhancementPreferences) error {
	query := `
		INSERT INTO enhancement_preferences (user_id, style, include_topics, include_video_count, preferred_model, max_length)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET style = EXCLUDED.style, include_topics = EXCLUDED.include_topics,
		    include_video_count = EXCLUDED.include_video_count,
		    preferred_model = EXCLUDED.preferred_model, max_length = EXCLUDED.max_length,
		    updated_at = now()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		prefs.UserID, prefs.Style, prefs.IncludeTopics, prefs.IncludeVideoCount,
		prefs.PreferredModel, prefs.MaxLength,
	)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	return nil
}

// AI usage accounting

// ApplyUsage increments the per-(user, day, model) usage counters by the
// given deltas. The upsert-with-increment is a single statement, so two
// enhancements completing together never lose an update.
func (r *Repository) ApplyUsage(ctx context.Context, userID, day, model string, tokens int, cost float64, success bool) error {
	successDelta, errorDelta := 1, 0
	if !success {
		successDelta, errorDelta = 0, 1
	}

	query := `
		INSERT INTO ai_usage (user_id, day, model, requests_count, tokens_used, cost, success_count, error_count)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $7)
		ON CONFLICT (user_id, day, model) DO UPDATE
		SET requests_count = ai_usage.requests_count + 1,
		    tokens_used = ai_usage.tokens_used + EXCLUDED.tokens_used,
		    cost = ai_usage.cost + EXCLUDED.cost,
		    success_count = ai_usage.success_count + EXCLUDED.success_count,
		    error_count = ai_usage.error_count + EXCLUDED.error_count,
		    updated_at = now()
	`

	_, err := r.db.Pool.Exec(ctx, query, userID, day, model, tokens, cost, successDelta, errorDelta)
	if err != nil {
		return fmt.Errorf("failed to apply usage: %w", err)
	}

	return nil
}

// GetUsageSummary aggregates a user's AI usage over an inclusive day range
func (r *Repository) GetUsageSummary(ctx context.Context, userID, from, to string) (*models.UsageSummary, error) {
	query := `
		SELECT user_id, day, model, requests_count, tokens_used, cost, success_count, error_count, updated_at
		FROM ai_usage
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day DESC, model ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage summary: %w", err)
	}
	defer rows.Close()

	summary := &models.UsageSummary{UserID: userID, From: from, To: to}
	for rows.Next() {
		var rec models.AIUsageRecord
		err := rows.Scan(
			&rec.UserID, &rec.Day, &rec.Model, &rec.RequestsCount, &rec.TokensUsed,
			&rec.Cost, &rec.SuccessCount, &rec.ErrorCount, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		summary.ByModel = append(summary.ByModel, rec)
		summary.RequestsCount += rec.RequestsCount
		summary.TokensUsed += rec.TokensUsed
		summary.Cost += rec.Cost
	}

	return summary, nil
}

// Content analyses

// GetLiveAnalysis returns the non-expired analysis row for (playlist, kind),
// or nil when absent or expired
func (r *Repository) GetLiveAnalysis(ctx context.Context, playlistID, kind string) (*models.ContentAnalysis, error) {
	query := `
		SELECT id, playlist_id, kind, payload, confidence, expires_at, created_at
		FROM content_analyses
		WHERE playlist_id = $1 AND kind = $2 AND expires_at > now()
	`

	var analysis models.ContentAnalysis
	err := r.db.Pool.QueryRow(ctx, query, playlistID, kind).Scan(
		&analysis.ID, &analysis.PlaylistID, &analysis.Kind, &analysis.Payload,
		&analysis.Confidence, &analysis.ExpiresAt, &analysis.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	return &analysis, nil
}

// UpsertAnalysis replaces the live analysis row for (playlist, kind)
func (r *Repository) UpsertAnalysis(ctx context.Context, analysis *models.ContentAnalysis, ttl time.Duration) error {
	if analysis.ID == "" {
		analysis.ID = uuid.New().String()
	}
	analysis.ExpiresAt = time.Now().Add(ttl)

	query := `
		INSERT INTO content_analyses (id, playlist_id, kind, payload, confidence, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (playlist_id, kind) DO UPDATE
		SET payload = EXCLUDED.payload, confidence = EXCLUDED.confidence,
		    expires_at = EXCLUDED.expires_at, created_at = now()
	`

	_, err := r.db.Pool.Exec(ctx, query,
		analysis.ID, analysis.PlaylistID, analysis.Kind, analysis.Payload,
		analysis.Confidence, analysis.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}

	return nil
}

// InvalidateAnalyses expires all cached analyses for a playlist
func (r *Repository) InvalidateAnalyses(ctx context.Context, playlistID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE content_analyses SET expires_at = now() WHERE playlist_id = $1`, playlistID)
	if err != nil {
		return fmt.Errorf("failed to invalidate analyses: %w", err)
	}

	return nil
}
