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

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks database connectivity
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// Playlists

const playlistColumns = `id, user_id, title, description, ai_description, source_id, source_url,
	       channel_title, thumbnail_url, video_count, enhanced, enhancement_status,
	       enhancement_version, enhanced_at, created_at, updated_at`

func scanPlaylist(row pgx.Row) (*models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(
		&p.ID, &p.UserID, &p.Title, &p.Description, &p.AIDescription, &p.SourceID,
		&p.SourceURL, &p.ChannelTitle, &p.ThumbnailURL, &p.VideoCount, &p.Enhanced,
		&p.EnhancementStatus, &p.EnhancementVersion, &p.EnhancedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlaylist creates a new playlist record
func (r *Repository) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID == "" {
		playlist.ID = uuid.New().String()
	}
	if playlist.EnhancementStatus == "" {
		playlist.EnhancementStatus = models.PlaylistEnhancementNone
	}

	query := `
		INSERT INTO playlists (id, user_id, title, description, source_id, source_url,
		                       channel_title, thumbnail_url, video_count, enhancement_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		playlist.ID, playlist.UserID, playlist.Title, playlist.Description,
		playlist.SourceID, playlist.SourceURL, playlist.ChannelTitle,
		playlist.ThumbnailURL, playlist.VideoCount, playlist.EnhancementStatus,
	).Scan(&playlist.CreatedAt, &playlist.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	return nil
}

// GetPlaylist retrieves a playlist by ID
func (r *Repository) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = $1`

	playlist, err := scanPlaylist(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.KindNotFound, "playlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	return playlist, nil
}

// GetPlaylistForUser retrieves a playlist and verifies ownership
func (r *Repository) GetPlaylistForUser(ctx context.Context, id, userID string) (*models.Playlist, error) {
	playlist, err := r.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != userID {
		return nil, apperrors.New(apperrors.KindForbidden, "playlist belongs to another user")
	}
	return playlist, nil
}

// GetPlaylistBySource retrieves a user's playlist by its upstream source ID
func (r *Repository) GetPlaylistBySource(ctx context.Context, userID, sourceID string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE user_id = $1 AND source_id = $2`

	playlist, err := scanPlaylist(r.db.Pool.QueryRow(ctx, query, userID, sourceID))
	if err == pgx.ErrNoRows {
		return nil, apperrors.New(apperrors.KindNotFound, "playlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	return playlist, nil
}

// ListPlaylists retrieves a user's playlists with pagination
func (r *Repository) ListPlaylists(ctx context.Context, userID string, limit, offset int) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + `
		FROM playlists
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	return playlists, nil
}

// UpdatePlaylist updates a playlist's editable fields
func (r *Repository) UpdatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	query := `
		UPDATE playlists
		SET title = $2, description = $3, thumbnail_url = $4, updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		playlist.ID, playlist.Title, playlist.Description, playlist.ThumbnailURL,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	return nil
}

// ApplyEnhancement writes the denormalized enhancement fields onto a playlist.
// Called exactly once per completed enhancement.
func (r *Repository) ApplyEnhancement(ctx context.Context, playlistID, aiDescription string) error {
	query := `
		UPDATE playlists
		SET ai_description = $2, enhanced = true, enhancement_status = $3,
		    enhancement_version = enhancement_version + 1, enhanced_at = now(), updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, playlistID, aiDescription, models.PlaylistEnhancementCompleted)
	if err != nil {
		return fmt.Errorf("failed to apply enhancement: %w", err)
	}

	return nil
}

// RevertEnhancement clears the denormalized enhancement fields
func (r *Repository) RevertEnhancement(ctx context.Context, playlistID string) error {
	query := `
		UPDATE playlists
		SET ai_description = NULL, enhanced = false, enhancement_status = $2, updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, playlistID, models.PlaylistEnhancementNone)
	if err != nil {
		return fmt.Errorf("failed to revert enhancement: %w", err)
	}

	return nil
}

// RecountVideos refreshes the denormalized video_count from the live child rows.
// Recount-on-write avoids drift under concurrent inserts and removals.
func (r *Repository) RecountVideos(ctx context.Context, playlistID string) error {
	query := `
		UPDATE playlists
		SET video_count = (SELECT count(*) FROM playlist_videos WHERE playlist_id = $1),
		    updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, playlistID)
	if err != nil {
		return fmt.Errorf("failed to recount videos: %w", err)
	}

	return nil
}

// DeletePlaylist deletes a playlist; child videos, enhancement records and
// analyses go with it via FK cascade
func (r *Repository) DeletePlaylist(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindNotFound, "playlist not found")
	}

	return nil
}

// touch bumps updated_at; used by handlers after structural video changes
func (r *Repository) touchPlaylist(ctx context.Context, tx pgx.Tx, playlistID string, now time.Time) error {
	_, err := tx.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, now)
	return err
}
