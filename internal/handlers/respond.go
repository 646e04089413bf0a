package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/apierr"
	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/services"
	"github.com/nerdworks/dealerai-backend/internal/settings"
	"github.com/nerdworks/dealerai-backend/internal/tasks"
)

// badRequest rejects a request before it reaches a service.
func badRequest(c *gin.Context, msg string) {
	writeError(c, apierr.New(http.StatusBadRequest, "invalid_request", errors.New(msg)))
}

// writeError maps domain errors onto HTTP statuses with a uniform body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var apiErr *apierr.Error
	var runFailed *services.RunFailedError
	var upstream *openai.UpstreamError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status != 0:
		status = apiErr.Status
	case errors.Is(err, tasks.ErrUnknownTask),
		errors.Is(err, tasks.ErrMissingVisionInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrThreadAssistantMismatch):
		status = http.StatusConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, settings.ErrMissingAPIKey):
		status = http.StatusServiceUnavailable
	case errors.Is(err, openai.ErrRunTimeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &runFailed), errors.As(err, &upstream),
		errors.Is(err, services.ErrEmptyAssistantResponse):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
