package enhance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/opentracing/opentracing-go"

	"github.com/therealutkarshpriyadarshi/curator/internal/ai"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

const (
	contextVideos    = 20
	maxDescription   = 5000
	minDescription   = 10
	defaultMaxLength = 5000
)

// Store is the persistence surface the orchestrator drives
type Store interface {
	GetPlaylistForUser(ctx context.Context, id, userID string) (*models.Playlist, error)
	ListVideos(ctx context.Context, playlistID string, limit int) ([]*models.PlaylistVideo, error)
	LatestCompletedEnhancement(ctx context.Context, playlistID, enhType string) (*models.EnhancementRecord, error)
	CreateEnhancementRecord(ctx context.Context, record *models.EnhancementRecord) error
	CompleteEnhancementRecord(ctx context.Context, record *models.EnhancementRecord) error
	FailEnhancementRecord(ctx context.Context, recordID, errorMsg string, durationMS int64) error
	GetEnhancementRecord(ctx context.Context, id string) (*models.EnhancementRecord, error)
	ListEnhancementRecords(ctx context.Context, playlistID string, limit int) ([]*models.EnhancementRecord, error)
	RateEnhancement(ctx context.Context, recordID string, rating int) error
	MarkEnhancementReverted(ctx context.Context, recordID string) error
	GetOrCreatePreferences(ctx context.Context, userID string) (*models.EnhancementPreferences, error)
	UpdatePreferences(ctx context.Context, prefs *models.EnhancementPreferences) error
	ApplyEnhancement(ctx context.Context, playlistID, aiDescription string) error
	RevertEnhancement(ctx context.Context, playlistID string) error
	ApplyUsage(ctx context.Context, userID, day, model string, tokens int, cost float64, success bool) error
	GetUsageSummary(ctx context.Context, userID, from, to string) (*models.UsageSummary, error)
	InsertEvent(ctx context.Context, event *models.Event) error
}

// Oracle produces text completions with token usage and cost
type Oracle interface {
	Complete(ctx context.Context, req ai.Request) (*ai.Completion, error)
}

// Service orchestrates AI description enhancement: ownership and cooldown
// preconditions, prompt assembly from playlist context, sanitization of
// the oracle's output, and cost accounting.
type Service struct {
	store    Store
	oracle   Oracle
	cooldown time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewService creates an enhancement orchestrator
func NewService(store Store, oracle Oracle, cooldown time.Duration, logger *logging.Logger) *Service {
	return &Service{
		store:    store,
		oracle:   oracle,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}
}

// EnhanceDescription generates an improved description for a playlist the
// caller owns. A completed enhancement within the cooldown window rejects
// the call; a failed oracle call leaves the playlist untouched.
func (s *Service) EnhanceDescription(ctx context.Context, playlistID, userID string) (*models.EnhancementResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "enhance_description")
	span.SetTag("playlist_id", playlistID)
	defer span.Finish()

	playlist, err := s.store.GetPlaylistForUser(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}

	latest, err := s.store.LatestCompletedEnhancement(ctx, playlistID, models.EnhancementTypeDescription)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.CompletedAt != nil && s.now().Sub(*latest.CompletedAt) < s.cooldown {
		wait := s.cooldown - s.now().Sub(*latest.CompletedAt)
		return nil, apperrors.Newf(apperrors.KindTooManyRequests,
			"playlist was enhanced recently, retry in %s", wait.Round(time.Second))
	}

	videos, err := s.store.ListVideos(ctx, playlistID, contextVideos)
	if err != nil {
		return nil, err
	}

	prefs, err := s.store.GetOrCreatePreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Persisted before the oracle call so a crash mid-call leaves a trace
	record := &models.EnhancementRecord{
		PlaylistID:      playlistID,
		UserID:          userID,
		Type:            models.EnhancementTypeDescription,
		OriginalContent: playlist.Description,
		Model:           prefs.PreferredModel,
		Status:          models.EnhancementStatusProcessing,
	}
	if err := s.store.CreateEnhancementRecord(ctx, record); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistenceFailure, "failed to create enhancement record", err)
	}

	start := s.now()
	completion, err := s.oracle.Complete(ctx, ai.Request{
		Model:        prefs.PreferredModel,
		SystemPrompt: systemPrompt(prefs.Style),
		UserPrompt:   userPrompt(playlist, videos, prefs),
		Temperature:  0.7,
	})
	if err != nil {
		return nil, s.failRecord(ctx, record, userID, prefs.PreferredModel, 0, 0, start, err)
	}

	description := sanitize(completion.Text, prefs.MaxLength)
	if len(description) < minDescription {
		err := apperrors.Newf(apperrors.KindContentTooShort,
			"generated description is %d characters, need at least %d", len(description), minDescription)
		// The oracle call succeeded, so its spend is still accounted
		return nil, s.failRecord(ctx, record, userID, completion.Model,
			completion.TotalTokens, completion.Cost, start, err)
	}

	record.EnhancedContent = description
	record.Model = completion.Model
	record.PromptTokens = completion.PromptTokens
	record.CompletionTokens = completion.CompletionTokens
	record.TokensUsed = completion.TotalTokens
	record.Cost = completion.Cost
	record.DurationMS = s.now().Sub(start).Milliseconds()
	if err := s.store.CompleteEnhancementRecord(ctx, record); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistenceFailure, "failed to complete enhancement record", err)
	}

	if err := s.store.ApplyEnhancement(ctx, playlistID, description); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistenceFailure, "failed to apply enhancement", err)
	}

	s.applyUsage(ctx, userID, completion.Model, completion.TotalTokens, completion.Cost, true)
	metrics.RecordEnhancement(models.EnhancementTypeDescription, models.EnhancementStatusCompleted,
		completion.Model, completion.TotalTokens, completion.Cost, completion.Duration.Seconds())

	s.recordEvent(ctx, userID, playlistID, models.EventDescriptionEnhanced, models.Metadata{
		"record_id":   record.ID,
		"model":       completion.Model,
		"tokens_used": completion.TotalTokens,
	})

	return &models.EnhancementResult{
		RecordID:    record.ID,
		Description: description,
		Model:       completion.Model,
		TokensUsed:  completion.TotalTokens,
		Cost:        completion.Cost,
		DurationMS:  record.DurationMS,
	}, nil
}

// History returns a playlist's enhancement records, ownership-checked
func (s *Service) History(ctx context.Context, playlistID, userID string, limit int) ([]*models.EnhancementRecord, error) {
	if _, err := s.store.GetPlaylistForUser(ctx, playlistID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListEnhancementRecords(ctx, playlistID, limit)
}

// Rate stores the caller's quality rating on a completed enhancement
func (s *Service) Rate(ctx context.Context, recordID, userID string, rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.Newf(apperrors.KindInvalidIdentifier, "rating must be 1-5, got %d", rating)
	}

	record, err := s.store.GetEnhancementRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if record.UserID != userID {
		return apperrors.New(apperrors.KindForbidden, "enhancement belongs to another user")
	}

	return s.store.RateEnhancement(ctx, recordID, rating)
}

// Revert undoes a completed enhancement, restoring the playlist's original
// description fields
func (s *Service) Revert(ctx context.Context, recordID, userID string) error {
	record, err := s.store.GetEnhancementRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if record.UserID != userID {
		return apperrors.New(apperrors.KindForbidden, "enhancement belongs to another user")
	}

	if err := s.store.MarkEnhancementReverted(ctx, recordID); err != nil {
		return err
	}
	if err := s.store.RevertEnhancement(ctx, record.PlaylistID); err != nil {
		return apperrors.Wrap(apperrors.KindPersistenceFailure, "failed to revert playlist", err)
	}

	s.recordEvent(ctx, userID, record.PlaylistID, models.EventEnhancementReverted, models.Metadata{
		"record_id": recordID,
	})

	return nil
}

// Preferences returns the caller's enhancement preferences, creating the
// defaults row on first use
func (s *Service) Preferences(ctx context.Context, userID string) (*models.EnhancementPreferences, error) {
	return s.store.GetOrCreatePreferences(ctx, userID)
}

// UpdatePreferences validates and saves the caller's preferences
func (s *Service) UpdatePreferences(ctx context.Context, prefs *models.EnhancementPreferences) error {
	switch prefs.Style {
	case models.StyleEngaging, models.StyleProfessional, models.StyleConcise:
	default:
		return apperrors.Newf(apperrors.KindInvalidIdentifier, "unknown style %q", prefs.Style)
	}
	if prefs.MaxLength <= 0 || prefs.MaxLength > defaultMaxLength {
		prefs.MaxLength = defaultMaxLength
	}
	return s.store.UpdatePreferences(ctx, prefs)
}

// Usage aggregates the caller's AI spend over the trailing days window
func (s *Service) Usage(ctx context.Context, userID string, days int) (*models.UsageSummary, error) {
	if days <= 0 {
		days = 30
	}
	to := s.now().UTC()
	from := to.AddDate(0, 0, -(days - 1))
	return s.store.GetUsageSummary(ctx, userID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func (s *Service) failRecord(ctx context.Context, record *models.EnhancementRecord, userID, model string, tokens int, cost float64, start time.Time, cause error) error {
	durationMS := s.now().Sub(start).Milliseconds()
	if err := s.store.FailEnhancementRecord(ctx, record.ID, cause.Error(), durationMS); err != nil {
		s.logger.WithError(err).WithField("record_id", record.ID).Error("Failed to finalize failed enhancement")
	}

	s.applyUsage(ctx, userID, model, tokens, cost, false)
	metrics.RecordEnhancement(models.EnhancementTypeDescription, models.EnhancementStatusFailed, model, tokens, cost, 0)

	return cause
}

func (s *Service) applyUsage(ctx context.Context, userID, model string, tokens int, cost float64, success bool) {
	day := s.now().UTC().Format("2006-01-02")
	if err := s.store.ApplyUsage(ctx, userID, day, model, tokens, cost, success); err != nil {
		s.logger.WithError(err).WithUserID(userID).Error("Failed to record AI usage")
	}
}

func (s *Service) recordEvent(ctx context.Context, userID, playlistID, eventType string, props models.Metadata) {
	err := s.store.InsertEvent(ctx, &models.Event{
		UserID:     userID,
		EventType:  eventType,
		EntityID:   playlistID,
		Properties: props,
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to record enhancement event")
	}
}

// Prompt assembly

func systemPrompt(style string) string {
	base := "You write playlist descriptions for a video curation service. " +
		"Respond with the description text only, no markdown, no preamble."

	switch style {
	case models.StyleProfessional:
		return base + " Use a professional, informative tone."
	case models.StyleConcise:
		return base + " Keep it short, two or three sentences."
	default:
		return base + " Use an engaging, inviting tone."
	}
}

func userPrompt(playlist *models.Playlist, videos []*models.PlaylistVideo, prefs *models.EnhancementPreferences) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Playlist title: %s\n", playlist.Title)
	if playlist.Description != "" {
		fmt.Fprintf(&b, "Current description: %s\n", playlist.Description)
	}
	if prefs.IncludeVideoCount {
		fmt.Fprintf(&b, "Video count: %d\n", playlist.VideoCount)
	}
	if prefs.IncludeTopics && len(videos) > 0 {
		b.WriteString("Videos:\n")
		for _, v := range videos {
			fmt.Fprintf(&b, "- %s\n", v.Title)
		}
	}
	b.WriteString("\nWrite an improved description for this playlist.")

	return b.String()
}

// Sanitization

var (
	markdownHeading  = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	markdownEmphasis = regexp.MustCompile(`(\*\*|__|\*|_|` + "`" + `)`)
)

// sanitize strips markdown artifacts from the oracle's output and bounds
// its length, truncating with an ellipsis
func sanitize(text string, maxLength int) string {
	text = markdownHeading.ReplaceAllString(text, "")
	text = markdownEmphasis.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"`)
	text = strings.TrimSpace(text)

	if maxLength <= 0 || maxLength > maxDescription {
		maxLength = maxDescription
	}
	if len(text) > maxLength {
		// Cut on a rune boundary so multi-byte output survives truncation
		cut := maxLength - 3
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}

	return text
}
