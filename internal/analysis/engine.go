package analysis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/curator/internal/ai"
	"github.com/therealutkarshpriyadarshi/curator/internal/logging"
	"github.com/therealutkarshpriyadarshi/curator/internal/metrics"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Analyses live for a week before being recomputed
const analysisTTL = 7 * 24 * time.Hour

// Store persists analysis rows, one live row per (playlist, kind)
type Store interface {
	GetLiveAnalysis(ctx context.Context, playlistID, kind string) (*models.ContentAnalysis, error)
	UpsertAnalysis(ctx context.Context, analysis *models.ContentAnalysis, ttl time.Duration) error
	InvalidateAnalyses(ctx context.Context, playlistID string) error
}

// Oracle is the optional AI pass for comprehensive analyses
type Oracle interface {
	Configured() bool
	Complete(ctx context.Context, req ai.Request) (*ai.Completion, error)
}

// Engine derives topics, themes, difficulty and keywords from playlist
// text via deterministic keyword heuristics, cached per (playlist, kind).
// Analysis is best-effort enrichment: a broken heuristic degrades to a
// low-confidence default, never an error.
type Engine struct {
	store  Store
	oracle Oracle
	logger *logging.Logger
}

// NewEngine creates a content analysis engine. oracle may be nil.
func NewEngine(store Store, oracle Oracle, logger *logging.Logger) *Engine {
	return &Engine{store: store, oracle: oracle, logger: logger}
}

var allKinds = []string{
	models.AnalysisKindTopics,
	models.AnalysisKindThemes,
	models.AnalysisKindDifficulty,
	models.AnalysisKindKeywords,
}

// Analyze returns the cached analysis for (playlist, kind) or computes,
// persists and returns a fresh one with a 7-day expiry
func (e *Engine) Analyze(ctx context.Context, playlist *models.Playlist, kind string, videos []*models.PlaylistVideo) (*models.AnalysisResult, error) {
	cached, err := e.store.GetLiveAnalysis(ctx, playlist.ID, kind)
	if err != nil {
		e.logger.WithError(err).WithPlaylistID(playlist.ID).Warn("Analysis cache read failed")
	}
	if cached != nil {
		metrics.RecordAnalysis(kind, true)
		return &models.AnalysisResult{
			Kind:       kind,
			Data:       cached.Payload,
			Confidence: cached.Confidence,
			Cached:     true,
		}, nil
	}

	data, confidence := e.runHeuristic(kind, corpus(playlist, videos))

	analysis := &models.ContentAnalysis{
		PlaylistID: playlist.ID,
		Kind:       kind,
		Payload:    data,
		Confidence: confidence,
	}
	if err := e.store.UpsertAnalysis(ctx, analysis, analysisTTL); err != nil {
		// The result is still usable this request; only the cache is cold
		e.logger.WithError(err).WithPlaylistID(playlist.ID).Warn("Failed to persist analysis")
	}

	metrics.RecordAnalysis(kind, false)
	return &models.AnalysisResult{Kind: kind, Data: data, Confidence: confidence, Cached: false}, nil
}

// AnalyzeAll runs every analysis kind concurrently and, when an oracle is
// configured, attempts a richer AI summary whose failure is logged and
// ignored
func (e *Engine) AnalyzeAll(ctx context.Context, playlist *models.Playlist, videos []*models.PlaylistVideo) (*models.ComprehensiveAnalysis, error) {
	comprehensive := &models.ComprehensiveAnalysis{
		PlaylistID: playlist.ID,
		Results:    make(map[string]*models.AnalysisResult, len(allKinds)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, kind := range allKinds {
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			result, err := e.Analyze(ctx, playlist, kind, videos)
			if err != nil {
				e.logger.WithError(err).WithPlaylistID(playlist.ID).Warn("Analysis kind failed")
				return
			}
			mu.Lock()
			comprehensive.Results[kind] = result
			mu.Unlock()
		}(kind)
	}
	wg.Wait()

	if e.oracle != nil && e.oracle.Configured() {
		if summary := e.aiSummary(ctx, playlist, videos); summary != "" {
			comprehensive.AISummary = &summary
		}
	}

	return comprehensive, nil
}

// Invalidate expires all cached analyses for a playlist, forcing a
// recompute on next request. Called after imports change the content.
func (e *Engine) Invalidate(ctx context.Context, playlistID string) error {
	return e.store.InvalidateAnalyses(ctx, playlistID)
}

// runHeuristic dispatches to the kind's heuristic. An unknown kind or a
// panicking heuristic degrades to a low-confidence default.
func (e *Engine) runHeuristic(kind, text string) (data models.Metadata, confidence float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("kind", kind).WithField("panic", r).Error("Analysis heuristic panicked")
			data, confidence = defaultPayload(kind), 0.1
		}
	}()

	switch kind {
	case models.AnalysisKindTopics:
		return analyzeTopics(text)
	case models.AnalysisKindThemes:
		return analyzeThemes(text)
	case models.AnalysisKindDifficulty:
		return analyzeDifficulty(text)
	case models.AnalysisKindKeywords:
		return analyzeKeywords(text)
	default:
		return defaultPayload(kind), 0.1
	}
}

func defaultPayload(kind string) models.Metadata {
	switch kind {
	case models.AnalysisKindDifficulty:
		return models.Metadata{"difficulty": models.DifficultyIntermediate}
	default:
		return models.Metadata{kind: []string{}}
	}
}

func (e *Engine) aiSummary(ctx context.Context, playlist *models.Playlist, videos []*models.PlaylistVideo) string {
	var b strings.Builder
	b.WriteString("Playlist: " + playlist.Title + "\n")
	for i, v := range videos {
		if i >= 20 {
			break
		}
		b.WriteString("- " + v.Title + "\n")
	}
	b.WriteString("\nSummarize what this playlist teaches in two sentences.")

	completion, err := e.oracle.Complete(ctx, ai.Request{
		SystemPrompt: "You summarize video playlists. Respond with plain text only.",
		UserPrompt:   b.String(),
		MaxTokens:    150,
		Temperature:  0.3,
	})
	if err != nil {
		e.logger.WithError(err).WithPlaylistID(playlist.ID).Warn("AI analysis pass failed, using heuristics only")
		return ""
	}

	return strings.TrimSpace(completion.Text)
}

// corpus concatenates the lowercased playlist and video text the
// heuristics match against
func corpus(playlist *models.Playlist, videos []*models.PlaylistVideo) string {
	var b strings.Builder
	b.WriteString(playlist.Title)
	b.WriteString(" ")
	b.WriteString(playlist.Description)
	for _, v := range videos {
		b.WriteString(" ")
		b.WriteString(v.Title)
		b.WriteString(" ")
		b.WriteString(v.Description)
	}
	return strings.ToLower(b.String())
}
