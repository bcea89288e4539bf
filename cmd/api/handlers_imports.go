package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/middleware"
	"github.com/therealutkarshpriyadarshi/curator/internal/youtube"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Finalized jobs stop changing; pending ones are polled, so a short TTL
// keeps reads cheap without serving stale progress for long
const importJobCacheTTL = 15 * time.Second

// Import handlers

func (api *API) createImport(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		URL       string `json:"url" binding:"required"`
		MaxVideos int    `json:"max_videos"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sourceID, err := youtube.ExtractPlaylistID(req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	job := &models.ImportJob{
		ID:        uuid.New().String(),
		UserID:    userID,
		SourceID:  sourceID,
		SourceURL: req.URL,
		Status:    models.ImportStatusPending,
	}

	if err := api.repo.CreateImportJob(c.Request.Context(), job); err != nil {
		respondError(c, err)
		return
	}

	err = api.queue.PublishImport(c.Request.Context(), &models.ImportRequest{
		JobID:     job.ID,
		UserID:    userID,
		SourceID:  sourceID,
		SourceURL: req.URL,
		MaxVideos: req.MaxVideos,
	})
	if err != nil {
		api.logger.WithError(err).WithJobID(job.ID).Error("Failed to publish import request")
		respondError(c, apperrors.Wrap(apperrors.KindPersistenceFailure, "failed to queue import", err))
		return
	}

	c.JSON(http.StatusAccepted, job)
}

func (api *API) getImport(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	jobID := c.Param("id")

	// Fast path for progress polling
	if cached, err := api.coord.GetImportJob(c.Request.Context(), jobID); err == nil && cached != nil {
		if cached.UserID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.JSON(http.StatusOK, cached)
		return
	}

	job, err := api.repo.GetImportJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	if job.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if err := api.coord.SetImportJob(c.Request.Context(), job, importJobCacheTTL); err != nil {
		api.logger.WithError(err).WithJobID(jobID).Warn("Failed to cache import job")
	}

	c.JSON(http.StatusOK, job)
}

func (api *API) listImports(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	jobs, err := api.repo.ListImportJobs(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imports": jobs})
}
