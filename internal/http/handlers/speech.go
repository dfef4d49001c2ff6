package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fid098/ICHack-26-Security-Game/internal/http/response"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/apierr"
	"github.com/fid098/ICHack-26-Security-Game/internal/services"
)

type SpeechHandler struct {
	speech services.SpeechService
}

func NewSpeechHandler(speech services.SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

type ttsResponse struct {
	AudioURL string  `json:"audioUrl"`
	Duration float64 `json:"duration"`
}

// POST /tts
func (h *SpeechHandler) TextToSpeech(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.speech.Synthesize(c.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		if ae := apierr.From(err); ae != nil {
			response.RespondError(c, ae.Status, ae.Code, err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "tts_failed", err)
		return
	}

	response.RespondOK(c, ttsResponse{AudioURL: result.AudioURL, Duration: result.Duration})
}
