package enhance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/curator/internal/ai"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

type usageKey struct {
	userID, day, model string
}

type fakeStore struct {
	mu sync.Mutex

	playlist    *models.Playlist
	videos      []*models.PlaylistVideo
	records     map[string]*models.EnhancementRecord
	nextID      int
	prefs       *models.EnhancementPreferences
	usage       map[usageKey]*models.AIUsageRecord
	events      []*models.Event
	appliedDesc string
	reverted    bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		playlist: &models.Playlist{
			ID:          "playlist-1",
			UserID:      "user-1",
			Title:       "Go Basics",
			Description: "old description",
			VideoCount:  3,
		},
		records: make(map[string]*models.EnhancementRecord),
		prefs: &models.EnhancementPreferences{
			UserID:         "user-1",
			Style:          models.StyleEngaging,
			IncludeTopics:  true,
			PreferredModel: "gpt-4o-mini",
			MaxLength:      5000,
		},
		usage: make(map[usageKey]*models.AIUsageRecord),
	}
}

func (s *fakeStore) GetPlaylistForUser(_ context.Context, id, userID string) (*models.Playlist, error) {
	if s.playlist == nil || s.playlist.ID != id {
		return nil, apperrors.New(apperrors.KindNotFound, "playlist not found")
	}
	if s.playlist.UserID != userID {
		return nil, apperrors.New(apperrors.KindForbidden, "playlist belongs to another user")
	}
	return s.playlist, nil
}

func (s *fakeStore) ListVideos(_ context.Context, _ string, limit int) ([]*models.PlaylistVideo, error) {
	if limit > 0 && len(s.videos) > limit {
		return s.videos[:limit], nil
	}
	return s.videos, nil
}

func (s *fakeStore) LatestCompletedEnhancement(_ context.Context, playlistID, enhType string) (*models.EnhancementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.EnhancementRecord
	for _, r := range s.records {
		if r.PlaylistID != playlistID || r.Type != enhType || r.Status != models.EnhancementStatusCompleted {
			continue
		}
		if latest == nil || r.CompletedAt.After(*latest.CompletedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (s *fakeStore) CreateEnhancementRecord(_ context.Context, record *models.EnhancementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	record.ID = fmt.Sprintf("record-%d", s.nextID)
	record.CreatedAt = time.Now()
	s.records[record.ID] = record
	return nil
}

func (s *fakeStore) CompleteEnhancementRecord(_ context.Context, record *models.EnhancementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	record.Status = models.EnhancementStatusCompleted
	record.CompletedAt = &now
	s.records[record.ID] = record
	return nil
}

func (s *fakeStore) FailEnhancementRecord(_ context.Context, recordID, errorMsg string, durationMS int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[recordID]; ok {
		r.Status = models.EnhancementStatusFailed
		r.ErrorMsg = &errorMsg
		r.DurationMS = durationMS
	}
	return nil
}

func (s *fakeStore) GetEnhancementRecord(_ context.Context, id string) (*models.EnhancementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return nil, apperrors.New(apperrors.KindNotFound, "enhancement record not found")
}

func (s *fakeStore) ListEnhancementRecords(_ context.Context, playlistID string, _ int) ([]*models.EnhancementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.EnhancementRecord
	for _, r := range s.records {
		if r.PlaylistID == playlistID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) RateEnhancement(_ context.Context, recordID string, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok || r.Status != models.EnhancementStatusCompleted {
		return apperrors.New(apperrors.KindNotFound, "completed enhancement not found")
	}
	r.UserRating = &rating
	return nil
}

func (s *fakeStore) MarkEnhancementReverted(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordID]
	if !ok || r.Status != models.EnhancementStatusCompleted {
		return apperrors.New(apperrors.KindNotFound, "completed enhancement not found")
	}
	r.Status = models.EnhancementStatusReverted
	return nil
}

func (s *fakeStore) GetOrCreatePreferences(_ context.Context, _ string) (*models.EnhancementPreferences, error) {
	return s.prefs, nil
}

func (s *fakeStore) UpdatePreferences(_ context.Context, prefs *models.EnhancementPreferences) error {
	s.prefs = prefs
	return nil
}

func (s *fakeStore) ApplyEnhancement(_ context.Context, _, aiDescription string) error {
	s.appliedDesc = aiDescription
	s.playlist.Enhanced = true
	return nil
}

func (s *fakeStore) RevertEnhancement(_ context.Context, _ string) error {
	s.reverted = true
	s.playlist.Enhanced = false
	return nil
}

func (s *fakeStore) ApplyUsage(_ context.Context, userID, day, model string, tokens int, cost float64, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := usageKey{userID, day, model}
	rec, ok := s.usage[key]
	if !ok {
		rec = &models.AIUsageRecord{UserID: userID, Day: day, Model: model}
		s.usage[key] = rec
	}
	rec.RequestsCount++
	rec.TokensUsed += tokens
	rec.Cost += cost
	if success {
		rec.SuccessCount++
	} else {
		rec.ErrorCount++
	}
	return nil
}

func (s *fakeStore) GetUsageSummary(_ context.Context, userID, from, to string) (*models.UsageSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := &models.UsageSummary{UserID: userID, From: from, To: to}
	for _, rec := range s.usage {
		summary.RequestsCount += rec.RequestsCount
		summary.TokensUsed += rec.TokensUsed
		summary.Cost += rec.Cost
		summary.ByModel = append(summary.ByModel, *rec)
	}
	return summary, nil
}

func (s *fakeStore) InsertEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type fakeOracle struct {
	completion *ai.Completion
	err        error
	calls      int
}

func (o *fakeOracle) Complete(_ context.Context, _ ai.Request) (*ai.Completion, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return o.completion, nil
}

func goodCompletion() *ai.Completion {
	return &ai.Completion{
		Text:             "A clear, welcoming walk through the language from first principles.",
		Model:            "gpt-4o-mini",
		PromptTokens:     200,
		CompletionTokens: 100,
		TotalTokens:      300,
		Cost:             0.00009,
		Duration:         2 * time.Second,
	}
}

func testService(t *testing.T, store Store, oracle Oracle) *Service {
	t.Helper()
	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)
	return NewService(store, oracle, time.Hour, logger)
}

func TestEnhanceDescriptionSuccess(t *testing.T) {
	store := newFakeStore()
	oracle := &fakeOracle{completion: goodCompletion()}
	svc := testService(t, store, oracle)

	result, err := svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "A clear, welcoming walk through the language from first principles.", result.Description)
	assert.Equal(t, 300, result.TokensUsed)
	assert.Equal(t, result.Description, store.appliedDesc)
	assert.True(t, store.playlist.Enhanced)

	record := store.records[result.RecordID]
	require.NotNil(t, record)
	assert.Equal(t, models.EnhancementStatusCompleted, record.Status)
	assert.Equal(t, "old description", record.OriginalContent)

	require.Len(t, store.events, 1)
	assert.Equal(t, models.EventDescriptionEnhanced, store.events[0].EventType)
}

func TestEnhanceDescriptionCooldown(t *testing.T) {
	store := newFakeStore()
	oracle := &fakeOracle{completion: goodCompletion()}
	svc := testService(t, store, oracle)

	_, err := svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.NoError(t, err)

	// Second call inside the window is rejected before the oracle
	_, err = svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTooManyRequests))
	assert.Equal(t, 1, oracle.calls)

	// After the window a third call goes through
	svc.now = func() time.Time { return time.Now().Add(61 * time.Minute) }
	_, err = svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.calls)
}

func TestEnhanceDescriptionOwnership(t *testing.T) {
	store := newFakeStore()
	svc := testService(t, store, &fakeOracle{})

	_, err := svc.EnhanceDescription(context.Background(), "playlist-1", "someone-else")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = svc.EnhanceDescription(context.Background(), "missing", "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestEnhanceDescriptionOracleFailure(t *testing.T) {
	store := newFakeStore()
	oracle := &fakeOracle{err: apperrors.New(apperrors.KindUpstreamFailure, "oracle down")}
	svc := testService(t, store, oracle)

	_, err := svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindUpstreamFailure))

	// The playlist is untouched; the record is finalized failed
	assert.Empty(t, store.appliedDesc)
	assert.False(t, store.playlist.Enhanced)
	require.Len(t, store.records, 1)
	for _, r := range store.records {
		assert.Equal(t, models.EnhancementStatusFailed, r.Status)
	}
}

func TestEnhanceDescriptionContentTooShort(t *testing.T) {
	store := newFakeStore()
	oracle := &fakeOracle{completion: &ai.Completion{
		Text:        "## ok",
		Model:       "gpt-4o-mini",
		TotalTokens: 120,
		Cost:        0.00004,
	}}
	svc := testService(t, store, oracle)

	_, err := svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindContentTooShort))
	assert.False(t, store.playlist.Enhanced)

	// The rejected completion still consumed tokens; the spend is kept
	summary, err := svc.Usage(context.Background(), "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 120, summary.TokensUsed)
	assert.InDelta(t, 0.00004, summary.Cost, 1e-9)
}

func TestEnhanceDescriptionUsageAccumulates(t *testing.T) {
	store := newFakeStore()
	oracle := &fakeOracle{completion: goodCompletion()}
	svc := testService(t, store, oracle)

	_, err := svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.NoError(t, err)

	summary, err := svc.Usage(context.Background(), "user-1", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RequestsCount)
	assert.Equal(t, 600, summary.TokensUsed, "token counts sum exactly across completions")
	assert.InDelta(t, 0.00018, summary.Cost, 1e-9)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"strips emphasis", "**Bold** and *italic* text", 5000, "Bold and italic text"},
		{"strips headings", "## Title\nBody text here", 5000, "Title\nBody text here"},
		{"strips quotes", `"Quoted description"`, 5000, "Quoted description"},
		{"truncates", strings.Repeat("a", 60), 50, strings.Repeat("a", 47) + "..."},
		{"truncates on rune boundary", strings.Repeat("é", 60), 50, strings.Repeat("é", 23) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitize(tt.input, tt.max)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestRateAndRevert(t *testing.T) {
	store := newFakeStore()
	oracle := &fakeOracle{completion: goodCompletion()}
	svc := testService(t, store, oracle)

	result, err := svc.EnhanceDescription(context.Background(), "playlist-1", "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Rate(context.Background(), result.RecordID, "user-1", 4))
	record := store.records[result.RecordID]
	require.NotNil(t, record.UserRating)
	assert.Equal(t, 4, *record.UserRating)

	err = svc.Rate(context.Background(), result.RecordID, "intruder", 1)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	require.NoError(t, svc.Revert(context.Background(), result.RecordID, "user-1"))
	assert.True(t, store.reverted)
	assert.Equal(t, models.EnhancementStatusReverted, record.Status)
}

func TestRateValidatesRange(t *testing.T) {
	svc := testService(t, newFakeStore(), &fakeOracle{})

	err := svc.Rate(context.Background(), "record-1", "user-1", 6)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidIdentifier))
}
