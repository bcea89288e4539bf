package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/curator/internal/apperrors"
)

// errStatus maps domain error kinds to HTTP status codes
func errStatus(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidIdentifier:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindQuotaExceeded, apperrors.KindTooManyRequests:
		return http.StatusTooManyRequests
	case apperrors.KindContentTooShort:
		return http.StatusUnprocessableEntity
	case apperrors.KindUpstreamFailure:
		return http.StatusBadGateway
	case apperrors.KindPersistenceFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := errStatus(err)
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
