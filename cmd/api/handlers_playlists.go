package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
	"github.com/therealutkarshpriyadarshi/curator/internal/middleware"
)

// Structural mutations on one playlist are serialized with a short
// advisory lock so concurrent reorders cannot interleave position writes
const playlistLockTTL = 30 * time.Second

// Playlist handlers

func (api *API) listPlaylists(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	playlists, err := api.repo.ListPlaylists(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playlists": playlists,
		"limit":     limit,
		"offset":    offset,
	})
}

func (api *API) getPlaylist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	playlist, err := api.repo.GetPlaylistForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, playlist)
}

func (api *API) updatePlaylist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist, err := api.repo.GetPlaylistForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Title != nil {
		if *req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return
		}
		playlist.Title = *req.Title
	}
	if req.Description != nil {
		playlist.Description = *req.Description
	}

	if err := api.repo.UpdatePlaylist(c.Request.Context(), playlist); err != nil {
		respondError(c, err)
		return
	}

	// Edited text changes the analysis corpus
	if err := api.analyzer.Invalidate(c.Request.Context(), playlist.ID); err != nil {
		api.logger.WithError(err).WithPlaylistID(playlist.ID).Warn("Failed to invalidate analyses")
	}

	c.JSON(http.StatusOK, playlist)
}

func (api *API) deletePlaylist(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	playlistID := c.Param("id")

	if _, err := api.repo.GetPlaylistForUser(c.Request.Context(), playlistID, userID); err != nil {
		respondError(c, err)
		return
	}

	if err := api.repo.DeletePlaylist(c.Request.Context(), playlistID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist deleted", "playlist_id": playlistID})
}

// Playlist video handlers

func (api *API) listPlaylistVideos(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	playlistID := c.Param("id")

	if _, err := api.repo.GetPlaylistForUser(c.Request.Context(), playlistID, userID); err != nil {
		respondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	videos, err := api.repo.ListVideos(c.Request.Context(), playlistID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

func (api *API) removePlaylistVideo(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	playlistID := c.Param("id")
	videoID := c.Param("videoId")

	if _, err := api.repo.GetPlaylistForUser(c.Request.Context(), playlistID, userID); err != nil {
		respondError(c, err)
		return
	}

	unlock, err := api.lockPlaylist(c, playlistID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer unlock()

	if err := api.repo.RemoveVideo(c.Request.Context(), playlistID, videoID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Video removed", "video_id": videoID})
}

func (api *API) reorderPlaylistVideos(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	playlistID := c.Param("id")

	var req struct {
		VideoIDs []string `json:"video_ids" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := api.repo.GetPlaylistForUser(c.Request.Context(), playlistID, userID); err != nil {
		respondError(c, err)
		return
	}

	unlock, err := api.lockPlaylist(c, playlistID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer unlock()

	if err := api.repo.ReorderVideos(c.Request.Context(), playlistID, req.VideoIDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist reordered"})
}

// lockPlaylist takes the per-playlist mutation lock, returning the
// release func. Contention surfaces as too_many_requests rather than
// blocking the request.
func (api *API) lockPlaylist(c *gin.Context, playlistID string) (func(), error) {
	acquired, err := api.coord.AcquirePlaylistLock(c.Request.Context(), playlistID, playlistLockTTL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistenceFailure, "failed to lock playlist", err)
	}
	if !acquired {
		return nil, apperrors.New(apperrors.KindTooManyRequests, "another modification is in progress")
	}

	return func() {
		if err := api.coord.ReleasePlaylistLock(c.Request.Context(), playlistID); err != nil {
			api.logger.WithError(err).WithPlaylistID(playlistID).Warn("Failed to release playlist lock")
		}
	}, nil
}
