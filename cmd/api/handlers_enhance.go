package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/curator/internal/middleware"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
)

// Enhancement handlers

func (api *API) enhancePlaylist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	result, err := api.enhancer.EnhanceDescription(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (api *API) enhancementHistory(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := api.enhancer.History(c.Request.Context(), c.Param("id"), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enhancements": records})
}

func (api *API) rateEnhancement(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Rating int `json:"rating" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := api.enhancer.Rate(c.Request.Context(), c.Param("id"), userID, req.Rating); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating recorded"})
}

func (api *API) revertEnhancement(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := api.enhancer.Revert(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Enhancement reverted"})
}

func (api *API) getPreferences(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	prefs, err := api.enhancer.Preferences(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (api *API) updatePreferences(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Style             string `json:"style" binding:"required"`
		IncludeTopics     bool   `json:"include_topics"`
		IncludeVideoCount bool   `json:"include_video_count"`
		PreferredModel    string `json:"preferred_model"`
		MaxLength         int    `json:"max_length"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs := &models.EnhancementPreferences{
		UserID:            userID,
		Style:             req.Style,
		IncludeTopics:     req.IncludeTopics,
		IncludeVideoCount: req.IncludeVideoCount,
		PreferredModel:    req.PreferredModel,
		MaxLength:         req.MaxLength,
	}

	if err := api.enhancer.UpdatePreferences(c.Request.Context(), prefs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

func (api *API) usageSummary(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 || days > 365 {
		days = 30
	}

	summary, err := api.enhancer.Usage(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
