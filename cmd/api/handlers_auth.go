package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/curator/internal/cache"
	"github.com/therealutkarshpriyadarshi/curator/internal/middleware"
	"github.com/therealutkarshpriyadarshi/curator/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// Auth handlers

func (api *API) register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=8"`
		DisplayName string `json:"display_name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}

	if err := api.repo.CreateUser(c.Request.Context(), user); err != nil {
		api.logger.WithError(err).Warn("User registration failed")
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	})
}

func (api *API) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := api.repo.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is inactive"})
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, api.cfg.Auth.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// Server-side session record; lets logout invalidate before token expiry
	session := &cache.Session{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := api.coord.SetSession(c.Request.Context(), token, session, api.cfg.Auth.SessionTTL); err != nil {
		api.logger.WithError(err).WithUserID(user.ID).Warn("Failed to store session")
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"user_id":      user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
	})
}

func (api *API) logout(c *gin.Context) {
	token := bearerToken(c)
	if token != "" {
		if err := api.coord.DeleteSession(c.Request.Context(), token); err != nil {
			api.logger.WithError(err).Warn("Failed to delete session")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (api *API) currentUser(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := api.repo.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func bearerToken(c *gin.Context) string {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
