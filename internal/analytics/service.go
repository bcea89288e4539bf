package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Store persists activity events
type Store interface {
	InsertEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context, userID string, limit int) ([]*models.Event, error)
}

// Service records and aggregates user activity. Recording is
// best-effort: callers never fail their primary operation over a lost
// event.
type Service struct {
	store  Store
	logger *logging.Logger
}

// NewService creates a new analytics service
func NewService(store Store, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// TrackEvent records an activity event
func (s *Service) TrackEvent(ctx context.Context, event *models.Event) error {
	// Generate ID if not set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	// Set timestamp if not set
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	return s.store.InsertEvent(ctx, event)
}

// Track is the fire-and-forget form of TrackEvent: failures are logged
// and swallowed
func (s *Service) Track(ctx context.Context, userID, eventType, entityID string, properties models.Metadata) {
	err := s.TrackEvent(ctx, &models.Event{
		UserID:     userID,
		EventType:  eventType,
		EntityID:   entityID,
		Properties: properties,
	})
	if err != nil {
		s.logger.WithError(err).WithUserID(userID).WithField("event_type", eventType).Warn("Failed to record activity event")
	}
}

// ActivityFeed returns a user's most recent events, newest first
func (s *Service) ActivityFeed(ctx context.Context, userID string, limit int) ([]*models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListEvents(ctx, userID, limit)
}

// ActivitySummary aggregates a slice of events
type ActivitySummary struct {
	TotalEvents       int            `json:"total_events"`
	ByType            map[string]int `json:"by_type"`
	PlaylistsImported int            `json:"playlists_imported"`
	Enhancements      int            `json:"enhancements"`
	Reverts           int            `json:"reverts"`
	RevertRate        float64        `json:"revert_rate"`
	FirstEvent        *time.Time     `json:"first_event,omitempty"`
	LastEvent         *time.Time     `json:"last_event,omitempty"`
}

// Summarize computes an activity summary from events. The revert rate
// is reverts over enhancements, the rough signal for whether AI output
// is landing well.
func (s *Service) Summarize(events []*models.Event) *ActivitySummary {
	summary := &ActivitySummary{
		ByType: make(map[string]int),
	}

	for _, event := range events {
		summary.TotalEvents++
		summary.ByType[event.EventType]++

		switch event.EventType {
		case models.EventPlaylistImported:
			summary.PlaylistsImported++
		case models.EventDescriptionEnhanced:
			summary.Enhancements++
		case models.EventEnhancementReverted:
			summary.Reverts++
		}

		ts := event.CreatedAt
		if summary.FirstEvent == nil || ts.Before(*summary.FirstEvent) {
			first := ts
			summary.FirstEvent = &first
		}
		if summary.LastEvent == nil || ts.After(*summary.LastEvent) {
			last := ts
			summary.LastEvent = &last
		}
	}

	if summary.Enhancements > 0 {
		summary.RevertRate = float64(summary.Reverts) / float64(summary.Enhancements) * 100
	}

	return summary
}
