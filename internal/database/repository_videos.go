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

// Playlist videos

// UpsertVideo inserts a video or replaces the existing row for the same
// (playlist, source video) pair
func (r *Repository) UpsertVideo(ctx context.Context, video *models.PlaylistVideo) error {
	if video.ID == "" {
		video.ID = uuid.New().String()
	}

	query := `
		INSERT INTO playlist_videos (id, playlist_id, source_video_id, title, description,
		                             channel_title, duration, thumbnail_url, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (playlist_id, source_video_id) DO UPDATE
		SET title = EXCLUDED.title, description = EXCLUDED.description,
		    channel_title = EXCLUDED.channel_title, duration = EXCLUDED.duration,
		    thumbnail_url = EXCLUDED.thumbnail_url, position = EXCLUDED.position
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.ID, video.PlaylistID, video.SourceVideoID, video.Title, video.Description,
		video.ChannelTitle, video.Duration, video.ThumbnailURL, video.Position,
	).Scan(&video.ID, &video.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	return nil
}

// ListVideos retrieves a playlist's videos ordered by position
func (r *Repository) ListVideos(ctx context.Context, playlistID string, limit int) ([]*models.PlaylistVideo, error) {
	query := `
		SELECT id, playlist_id, source_video_id, title, description, channel_title,
		       duration, thumbnail_url, position, created_at
		FROM playlist_videos
		WHERE playlist_id = $1
		ORDER BY position ASC
	`
	args := []interface{}{playlistID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.PlaylistVideo
	for rows.Next() {
		var v models.PlaylistVideo
		err := rows.Scan(
			&v.ID, &v.PlaylistID, &v.SourceVideoID, &v.Title, &v.Description,
			&v.ChannelTitle, &v.Duration, &v.ThumbnailURL, &v.Position, &v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, &v)
	}

	return videos, nil
}

// RemoveVideo deletes one video and renumbers the suffix so positions
// stay contiguous. The playlist's video_count is recounted in the same
// transaction.
func (r *Repository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var removedPos int
	err = tx.QueryRow(ctx,
		`DELETE FROM playlist_videos WHERE id = $1 AND playlist_id = $2 RETURNING position`,
		videoID, playlistID,
	).Scan(&removedPos)
	if err == pgx.ErrNoRows {
		return apperrors.New(apperrors.KindNotFound, "video not found in playlist")
	}
	if err != nil {
		return fmt.Errorf("failed to remove video: %w", err)
	}

	// Close the gap left by the removed row
	_, err = tx.Exec(ctx,
		`UPDATE playlist_videos SET position = position - 1 WHERE playlist_id = $1 AND position > $2`,
		playlistID, removedPos,
	)
	if err != nil {
		return fmt.Errorf("failed to renumber positions: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE playlists
		 SET video_count = (SELECT count(*) FROM playlist_videos WHERE playlist_id = $1),
		     updated_at = now()
		 WHERE id = $1`,
		playlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to recount videos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReorderVideos applies a full permutation of video IDs as the new position
// order. The write is a single batch inside one transaction; a partial
// ordering is rejected.
func (r *Repository) ReorderVideos(ctx context.Context, playlistID string, orderedIDs []string) error {
	// A duplicate would satisfy the length check below while leaving
	// positions non-contiguous
	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return apperrors.Newf(apperrors.KindInvalidIdentifier, "duplicate video id %s in reorder", id)
		}
		seen[id] = struct{}{}
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM playlist_videos WHERE playlist_id = $1`, playlistID,
	).Scan(&total)
	if err != nil {
		return fmt.Errorf("failed to count videos: %w", err)
	}
	if total != len(orderedIDs) {
		return apperrors.Newf(apperrors.KindInvalidIdentifier,
			"reorder must include all %d videos, got %d", total, len(orderedIDs))
	}

	batch := &pgx.Batch{}
	for pos, id := range orderedIDs {
		batch.Queue(
			`UPDATE playlist_videos SET position = $1 WHERE id = $2 AND playlist_id = $3`,
			pos, id, playlistID,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range orderedIDs {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return fmt.Errorf("failed to update position: %w", err)
		}
		if tag.RowsAffected() == 0 {
			results.Close()
			return apperrors.New(apperrors.KindInvalidIdentifier, "reorder references a video not in this playlist")
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := r.touchPlaylist(ctx, tx, playlistID, time.Now()); err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
