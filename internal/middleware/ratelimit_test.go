package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(2, 2) // 2 requests per second, burst of 2

	router := gin.New()
	router.Use(RateLimit(rl))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// First two requests should succeed
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Third request should be rate limited
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

type fakeCounter struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounter) IncrementRequestCount(_ context.Context, userID string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[userID]++
	return f.counts[userID], nil
}

func budgetRouter(counter RequestCounter, limit int64) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(AuthContextKey, "user-1")
	})
	router.Use(EnhancementBudget(counter, limit, time.Hour))
	router.POST("/enhance", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestEnhancementBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	counter := &fakeCounter{counts: make(map[string]int64)}
	router := budgetRouter(counter, 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/enhance", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/enhance", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestEnhancementBudgetCounterOutage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	counter := &fakeCounter{counts: make(map[string]int64), err: assert.AnError}
	router := budgetRouter(counter, 1)

	// Counter failures fail open
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/enhance", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
