package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fid098/ICHack-26-Security-Game/internal/http/response"
	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
	"github.com/fid098/ICHack-26-Security-Game/internal/services"
)

type HealthHandler struct {
	speech  services.SpeechService
	metrics *observability.Metrics
}

func NewHealthHandler(speech services.SpeechService, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{speech: speech, metrics: metrics}
}

// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "ok"})
}

// GET /health/elevenlabs
func (h *HealthHandler) SpeechHealth(c *gin.Context) {
	ok, message := h.speech.Health(c.Request.Context())
	status := "ok"
	if !ok {
		status = "error"
	}
	response.RespondOK(c, gin.H{
		"service": "elevenlabs",
		"status":  status,
		"message": message,
	})
}

// GET /metrics
func (h *HealthHandler) Metrics(c *gin.Context) {
	response.RespondOK(c, h.metrics.Snapshot())
}
