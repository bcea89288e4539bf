package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Import jobs

// CreateImportJob creates a new import job in pending state
func (r *Repository) CreateImportJob(ctx context.Context, job *models.ImportJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.ImportStatusPending
	}

	query := `
		INSERT INTO import_jobs (id, user_id, source_id, source_url, status, videos_imported, total_videos)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING started_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		job.ID, job.UserID, job.SourceID, job.SourceURL, job.Status,
		job.VideosImported, job.TotalVideos,
	).Scan(&job.StartedAt)

	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}

	return nil
}

// GetImportJob retrieves an import job by ID
func (r *Repository) GetImportJob(ctx context.Context, id string) (*models.ImportJob, error) {
	query := `
		SELECT id, user_id, playlist_id, source_id, source_url, status,
		       videos_imported, total_videos, progress, error_msg, started_at, completed_at
		FROM import_jobs
		WHERE id = $1
	`

	var job models.ImportJob
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.PlaylistID, &job.SourceID, &job.SourceURL,
		&job.Status, &job.VideosImported, &job.TotalVideos, &job.Progress,
		&job.ErrorMsg, &job.StartedAt, &job.CompletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.KindNotFound, "import job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}

	return &job, nil
}

// ListImportJobs retrieves a user's import jobs, newest first
func (r *Repository) ListImportJobs(ctx context.Context, userID string, limit int) ([]*models.ImportJob, error) {
	query := `
		SELECT id, user_id, playlist_id, source_id, source_url, status,
		       videos_imported, total_videos, progress, error_msg, started_at, completed_at
		FROM import_jobs
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ImportJob
	for rows.Next() {
		var job models.ImportJob
		err := rows.Scan(
			&job.ID, &job.UserID, &job.PlaylistID, &job.SourceID, &job.SourceURL,
			&job.Status, &job.VideosImported, &job.TotalVideos, &job.Progress,
			&job.ErrorMsg, &job.StartedAt, &job.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// UpdateImportProgress records incremental progress on a running job.
// Only a still-pending job accepts progress writes.
func (r *Repository) UpdateImportProgress(ctx context.Context, jobID string, imported, total int, progress float64) error {
	query := `
		UPDATE import_jobs
		SET videos_imported = $2, total_videos = $3, progress = $4
		WHERE id = $1 AND status = $5
	`

	_, err := r.db.Pool.Exec(ctx, query, jobID, imported, total, progress, models.ImportStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update import progress: %w", err)
	}

	return nil
}

// CompleteImportJob finalizes a job as completed. The status guard keeps
// the transition monotonic: a finalized job is never rewritten.
func (r *Repository) CompleteImportJob(ctx context.Context, jobID, playlistID string, imported, total int) error {
	query := `
		UPDATE import_jobs
		SET status = $2, playlist_id = $3, videos_imported = $4, total_videos = $5,
		    progress = 100, completed_at = now()
		WHERE id = $1 AND status = $6
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		jobID, models.ImportStatusCompleted, playlistID, imported, total,
		models.ImportStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to complete import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import job %s already finalized", jobID)
	}

	return nil
}

// FailImportJob finalizes a job as failed with an error message
func (r *Repository) FailImportJob(ctx context.Context, jobID, errorMsg string) error {
	query := `
		UPDATE import_jobs
		SET status = $2, error_msg = $3, completed_at = now()
		WHERE id = $1 AND status = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		jobID, models.ImportStatusFailed, errorMsg, models.ImportStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to fail import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import job %s already finalized", jobID)
	}

	return nil
}
