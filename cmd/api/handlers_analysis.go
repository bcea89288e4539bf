package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/curator/internal/middleware"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Heuristics only need a representative sample, not the full listing
const analysisVideoSample = 100

var validAnalysisKinds = map[string]bool{
	models.AnalysisKindTopics:     true,
	models.AnalysisKindThemes:     true,
	models.AnalysisKindDifficulty: true,
	models.AnalysisKindKeywords:   true,
}

// Analysis handlers

func (api *API) analyzePlaylist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	kind := c.Param("kind")

	if !validAnalysisKinds[kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown analysis kind"})
		return
	}

	playlist, videos, err := api.loadAnalysisInput(c, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := api.analyzer.Analyze(c.Request.Context(), playlist, kind, videos)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (api *API) comprehensiveAnalysis(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	playlist, videos, err := api.loadAnalysisInput(c, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	comprehensive, err := api.analyzer.AnalyzeAll(c.Request.Context(), playlist, videos)
	if err != nil {
		respondError(c, err)
		return
	}

	api.analytics.Track(c.Request.Context(), userID, models.EventAnalysisGenerated, playlist.ID, nil)

	c.JSON(http.StatusOK, comprehensive)
}

func (api *API) loadAnalysisInput(c *gin.Context, userID string) (*models.Playlist, []*models.PlaylistVideo, error) {
	playlist, err := api.repo.GetPlaylistForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		return nil, nil, err
	}

	videos, err := api.repo.ListVideos(c.Request.Context(), playlist.ID, analysisVideoSample)
	if err != nil {
		return nil, nil, err
	}

	return playlist, videos, nil
}

// Activity and operational handlers

func (api *API) activityFeed(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := api.analytics.ActivityFeed(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":  events,
		"summary": api.analytics.Summarize(events),
	})
}

func (api *API) quotaStatus(c *gin.Context) {
	record, remaining, err := api.ledger.Usage(c.Request.Context(), models.APIYouTube)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_name":      record.APIName,
		"day":           record.Day,
		"units_used":    record.UnitsUsed,
		"request_count": record.RequestCount,
		"remaining":     remaining,
		"daily_budget":  api.ledger.Budget(),
	})
}

func (api *API) sweepCache(c *gin.Context) {
	swept, err := api.respCache.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"swept": swept})
}

func (api *API) queueDepth(c *gin.Context) {
	depth, err := api.queue.GetQueueDepth()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"queue_depth": depth})
}
