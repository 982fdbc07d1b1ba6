package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/prodline/internal/domain/pipeline"
)

// Status maps pipeline sentinel errors onto HTTP status codes.
func Status(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, pipeline.ErrInvalidTransition), errors.Is(err, pipeline.ErrInvariantViolation):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrConcurrencyConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error body with the mapped status.
func Respond(c *gin.Context, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}
	if code == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
