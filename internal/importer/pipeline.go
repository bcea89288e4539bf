package importer

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/opentracing/opentracing-go"

	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
	"github.com/therealutkarshpriyadarshi/curator/internal/youtube"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

const (
	maxVideoDescription = 5000
	progressEvery       = 10
)

// Store is the persistence surface the pipeline drives
type Store interface {
	GetPlaylistBySource(ctx context.Context, userID, sourceID string) (*models.Playlist, error)
	CreatePlaylist(ctx context.Context, playlist *models.Playlist) error
	UpsertVideo(ctx context.Context, video *models.PlaylistVideo) error
	RecountVideos(ctx context.Context, playlistID string) error
	UpdateImportProgress(ctx context.Context, jobID string, imported, total int, progress float64) error
	CompleteImportJob(ctx context.Context, jobID, playlistID string, imported, total int) error
	FailImportJob(ctx context.Context, jobID, errorMsg string) error
	InsertEvent(ctx context.Context, event *models.Event) error
}

// Fetcher runs the composite upstream fetch
type Fetcher interface {
	ImportPlaylist(ctx context.Context, playlistID string, maxVideos int) (*youtube.ImportResult, error)
}

// Mirror copies remote thumbnails into object storage. Optional; mirroring
// is best-effort.
type Mirror interface {
	MirrorThumbnail(ctx context.Context, sourceURL, objectName string) (string, error)
}

// Pipeline executes playlist import jobs: composite fetch, per-video
// persistence, progress bookkeeping and job finalization. A job entered
// pending before any network I/O leaves in exactly one of completed or
// failed.
type Pipeline struct {
	store   Store
	fetcher Fetcher
	mirror  Mirror
	logger  *logging.Logger
}

// NewPipeline creates an import pipeline. mirror may be nil.
func NewPipeline(store Store, fetcher Fetcher, mirror Mirror, logger *logging.Logger) *Pipeline {
	return &Pipeline{store: store, fetcher: fetcher, mirror: mirror, logger: logger}
}

// Run executes one import job to finalization. The returned error reflects
// the job outcome; the job row itself is always finalized before return.
func (p *Pipeline) Run(ctx context.Context, req *models.ImportRequest) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "import_playlist")
	span.SetTag("job_id", req.JobID)
	span.SetTag("source_id", req.SourceID)
	defer span.Finish()

	start := time.Now()
	logger := p.logger.WithJobID(req.JobID).WithUserID(req.UserID)
	logger.LogImportEvent(req.JobID, "started", models.ImportStatusPending, 0, 0)

	result, err := p.fetcher.ImportPlaylist(ctx, req.SourceID, req.MaxVideos)
	if err != nil {
		// A composite fetch failure voids the whole job
		return p.fail(ctx, req.JobID, start, err)
	}

	playlist, err := p.resolvePlaylist(ctx, req, result)
	if err != nil {
		return p.fail(ctx, req.JobID, start, err)
	}

	total := result.TotalFound
	imported := 0
	for i, video := range result.Videos {
		if err := p.persistVideo(ctx, playlist.ID, video); err != nil {
			// One malformed video must not void the rest of the import
			logger.WithError(err).WithField("source_video_id", video.SourceVideoID).
				Warn("Failed to persist video, skipping")
			continue
		}
		imported++

		if (i+1)%progressEvery == 0 {
			progress := float64(imported) / float64(total) * 100
			if err := p.store.UpdateImportProgress(ctx, req.JobID, imported, total, progress); err != nil {
				logger.WithError(err).Warn("Failed to update import progress")
			}
		}
	}

	if err := p.store.RecountVideos(ctx, playlist.ID); err != nil {
		logger.WithError(err).Error("Failed to recount videos after import")
	}

	if err := p.store.CompleteImportJob(ctx, req.JobID, playlist.ID, imported, total); err != nil {
		return fmt.Errorf("failed to finalize import job: %w", err)
	}

	metrics.RecordImportCompleted(models.ImportStatusCompleted, time.Since(start).Seconds(), imported)
	logger.LogImportEvent(req.JobID, "finished", models.ImportStatusCompleted, imported, total)

	p.recordEvent(ctx, req.UserID, playlist.ID, imported, total)

	return nil
}

// resolvePlaylist reuses the user's existing playlist for this source or
// creates a new one from the fetched metadata
func (p *Pipeline) resolvePlaylist(ctx context.Context, req *models.ImportRequest, result *youtube.ImportResult) (*models.Playlist, error) {
	playlist, err := p.store.GetPlaylistBySource(ctx, req.UserID, result.Playlist.ID)
	if err == nil {
		return playlist, nil
	}
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		// A transient lookup failure must not fall through to a create
		// that would trip the (user_id, source_id) unique constraint
		return nil, fmt.Errorf("failed to resolve playlist: %w", err)
	}

	playlist = &models.Playlist{
		UserID:       req.UserID,
		Title:        result.Playlist.Title,
		Description:  truncate(result.Playlist.Description, maxVideoDescription),
		SourceID:     result.Playlist.ID,
		SourceURL:    req.SourceURL,
		ChannelTitle: result.Playlist.ChannelTitle,
		ThumbnailURL: p.mirrorThumbnail(ctx, result.Playlist.ID, result.Playlist.ThumbnailURL),
	}
	if err := p.store.CreatePlaylist(ctx, playlist); err != nil {
		return nil, err
	}

	return playlist, nil
}

func (p *Pipeline) persistVideo(ctx context.Context, playlistID string, video youtube.ImportedVideo) error {
	title := video.Title
	if title == "" {
		title = "Untitled"
	}
	duration := video.Duration
	if duration == "" {
		duration = "0:00"
	}

	return p.store.UpsertVideo(ctx, &models.PlaylistVideo{
		PlaylistID:    playlistID,
		SourceVideoID: video.SourceVideoID,
		Title:         title,
		Description:   truncate(video.Description, maxVideoDescription),
		ChannelTitle:  video.ChannelTitle,
		Duration:      duration,
		ThumbnailURL:  video.ThumbnailURL,
		Position:      video.Position,
	})
}

// mirrorThumbnail copies the playlist thumbnail into object storage when a
// mirror is configured. Failure falls back to the remote URL.
func (p *Pipeline) mirrorThumbnail(ctx context.Context, sourceID, thumbnailURL string) string {
	if p.mirror == nil || thumbnailURL == "" {
		return thumbnailURL
	}

	mirrored, err := p.mirror.MirrorThumbnail(ctx, thumbnailURL, "playlists/"+sourceID+".jpg")
	if err != nil {
		p.logger.WithError(err).Warn("Thumbnail mirroring failed, keeping remote URL")
		return thumbnailURL
	}

	return mirrored
}

func (p *Pipeline) fail(ctx context.Context, jobID string, start time.Time, cause error) error {
	if err := p.store.FailImportJob(ctx, jobID, cause.Error()); err != nil {
		p.logger.WithError(err).WithJobID(jobID).Error("Failed to finalize failed import job")
	}
	metrics.RecordImportCompleted(models.ImportStatusFailed, time.Since(start).Seconds(), 0)
	p.logger.WithJobID(jobID).WithError(cause).Error("Import failed")
	return cause
}

func (p *Pipeline) recordEvent(ctx context.Context, userID, playlistID string, imported, total int) {
	err := p.store.InsertEvent(ctx, &models.Event{
		UserID:    userID,
		EventType: models.EventPlaylistImported,
		EntityID:  playlistID,
		Properties: models.Metadata{
			"videos_imported": imported,
			"total_videos":    total,
		},
	})
	if err != nil {
		p.logger.WithError(err).Warn("Failed to record import event")
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary so multi-byte descriptions survive truncation
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
