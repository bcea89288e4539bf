package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/youtube"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

type fakeStore struct {
	playlists map[string]*models.Playlist // keyed by source ID
	videos    []*models.PlaylistVideo
	events    []*models.Event
	lookupErr error

	completedJob  string
	failedJob     string
	failedMsg     string
	imported      int
	total         int
	progressCalls int
	recounted     bool

	upsertErrFor map[string]error // source video ID -> error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		playlists:    make(map[string]*models.Playlist),
		upsertErrFor: make(map[string]error),
	}
}

func (s *fakeStore) GetPlaylistBySource(_ context.Context, userID, sourceID string) (*models.Playlist, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if p, ok := s.playlists[sourceID]; ok && p.UserID == userID {
		return p, nil
	}
	return nil, apperrors.New(apperrors.KindNotFound, "playlist not found")
}

func (s *fakeStore) CreatePlaylist(_ context.Context, playlist *models.Playlist) error {
	playlist.ID = "playlist-" + playlist.SourceID
	s.playlists[playlist.SourceID] = playlist
	return nil
}

func (s *fakeStore) UpsertVideo(_ context.Context, video *models.PlaylistVideo) error {
	if err := s.upsertErrFor[video.SourceVideoID]; err != nil {
		return err
	}
	s.videos = append(s.videos, video)
	return nil
}

func (s *fakeStore) RecountVideos(_ context.Context, _ string) error {
	s.recounted = true
	return nil
}

func (s *fakeStore) UpdateImportProgress(_ context.Context, _ string, _, _ int, _ float64) error {
	s.progressCalls++
	return nil
}

func (s *fakeStore) CompleteImportJob(_ context.Context, jobID, _ string, imported, total int) error {
	s.completedJob = jobID
	s.imported = imported
	s.total = total
	return nil
}

func (s *fakeStore) FailImportJob(_ context.Context, jobID, errorMsg string) error {
	s.failedJob = jobID
	s.failedMsg = errorMsg
	return nil
}

func (s *fakeStore) InsertEvent(_ context.Context, event *models.Event) error {
	s.events = append(s.events, event)
	return nil
}

type fakeFetcher struct {
	result *youtube.ImportResult
	err    error
}

func (f *fakeFetcher) ImportPlaylist(_ context.Context, _ string, _ int) (*youtube.ImportResult, error) {
	return f.result, f.err
}

func importResult(videoCount int) *youtube.ImportResult {
	result := &youtube.ImportResult{
		Playlist: &youtube.PlaylistMeta{
			ID:           "PLabcdefghijklmnopqrstuvwxyz012345",
			Title:        "Go Course",
			ChannelTitle: "Go Channel",
		},
		TotalFound: videoCount,
	}
	for i := 0; i < videoCount; i++ {
		result.Videos = append(result.Videos, youtube.ImportedVideo{
			SourceVideoID: fmt.Sprintf("vid%08d", i),
			Title:         fmt.Sprintf("Lesson %d", i+1),
			Duration:      "5:09",
			Position:      i,
		})
	}
	return result
}

func testPipeline(t *testing.T, store Store, fetcher Fetcher) *Pipeline {
	t.Helper()
	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)
	return NewPipeline(store, fetcher, nil, logger)
}

func request() *models.ImportRequest {
	return &models.ImportRequest{
		JobID:    "job-1",
		UserID:   "user-1",
		SourceID: "PLabcdefghijklmnopqrstuvwxyz012345",
	}
}

func TestRunImportsAllVideos(t *testing.T) {
	store := newFakeStore()
	pipeline := testPipeline(t, store, &fakeFetcher{result: importResult(5)})

	err := pipeline.Run(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, "job-1", store.completedJob)
	assert.Equal(t, 5, store.imported)
	assert.Equal(t, 5, store.total)
	assert.Len(t, store.videos, 5)
	assert.True(t, store.recounted)
	assert.Empty(t, store.failedJob)

	require.Len(t, store.events, 1)
	assert.Equal(t, models.EventPlaylistImported, store.events[0].EventType)
}

func TestRunPartialFailureStillCompletes(t *testing.T) {
	store := newFakeStore()
	store.upsertErrFor["vid00000004"] = errors.New("malformed row")
	pipeline := testPipeline(t, store, &fakeFetcher{result: importResult(10)})

	err := pipeline.Run(context.Background(), request())
	require.NoError(t, err)

	// One bad video does not void the import
	assert.Equal(t, "job-1", store.completedJob)
	assert.Equal(t, 9, store.imported)
	assert.Equal(t, 10, store.total)
	assert.Empty(t, store.failedJob)
}

func TestRunCompositeFailureFailsJob(t *testing.T) {
	store := newFakeStore()
	cause := apperrors.New(apperrors.KindNotFound, "playlist not found")
	pipeline := testPipeline(t, store, &fakeFetcher{err: cause})

	err := pipeline.Run(context.Background(), request())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	assert.Equal(t, "job-1", store.failedJob)
	assert.Equal(t, "playlist not found", store.failedMsg)
	assert.Empty(t, store.completedJob)
	assert.Empty(t, store.videos)
}

func TestRunReusesExistingPlaylist(t *testing.T) {
	store := newFakeStore()
	store.playlists["PLabcdefghijklmnopqrstuvwxyz012345"] = &models.Playlist{
		ID:       "existing-playlist",
		UserID:   "user-1",
		SourceID: "PLabcdefghijklmnopqrstuvwxyz012345",
	}
	pipeline := testPipeline(t, store, &fakeFetcher{result: importResult(2)})

	err := pipeline.Run(context.Background(), request())
	require.NoError(t, err)

	require.Len(t, store.videos, 2)
	assert.Equal(t, "existing-playlist", store.videos[0].PlaylistID)
}

func TestRunReportsProgress(t *testing.T) {
	store := newFakeStore()
	pipeline := testPipeline(t, store, &fakeFetcher{result: importResult(25)})

	err := pipeline.Run(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 2, store.progressCalls, "progress is reported every 10 videos")
}

func TestRunLookupFailureFailsJob(t *testing.T) {
	store := newFakeStore()
	store.lookupErr = errors.New("connection reset")
	pipeline := testPipeline(t, store, &fakeFetcher{result: importResult(2)})

	err := pipeline.Run(context.Background(), request())
	require.Error(t, err)

	// A transient lookup error fails the job instead of creating a
	// playlist that may already exist
	assert.Equal(t, "job-1", store.failedJob)
	assert.Empty(t, store.completedJob)
	assert.Empty(t, store.playlists)
	assert.Empty(t, store.videos)
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("日", 2000)
	got := truncate(long, maxVideoDescription)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxVideoDescription)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "short", truncate("short", maxVideoDescription))
}

func TestRunFillsVideoDefaults(t *testing.T) {
	store := newFakeStore()
	result := importResult(1)
	result.Videos[0].Title = ""
	result.Videos[0].Duration = ""
	pipeline := testPipeline(t, store, &fakeFetcher{result: result})

	err := pipeline.Run(context.Background(), request())
	require.NoError(t, err)

	require.Len(t, store.videos, 1)
	assert.Equal(t, "Untitled", store.videos[0].Title)
	assert.Equal(t, "0:00", store.videos[0].Duration)
}
