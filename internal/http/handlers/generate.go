package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fid098/ICHack-26-Security-Game/internal/game"
	"github.com/fid098/ICHack-26-Security-Game/internal/http/response"
	"github.com/fid098/ICHack-26-Security-Game/internal/platform/apierr"
	"github.com/fid098/ICHack-26-Security-Game/internal/services"
)

type GenerateHandler struct {
	generator services.GenerationService
}

func NewGenerateHandler(generator services.GenerationService) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

type generateRequest struct {
	Language        string `json:"language"`
	Difficulty      string `json:"difficulty"`
	ComplexityLevel string `json:"complexityLevel"`
	Count           int    `json:"count"`
}

type generateResponse struct {
	Tasks []game.GeneratedTask `json:"tasks"`
}

// POST /generate
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	difficulty, ok := game.ParseDifficulty(req.Difficulty)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_difficulty",
			fmt.Errorf("invalid difficulty: %s; must be EASY, MEDIUM, or HARD", req.Difficulty))
		return
	}
	if req.Count < 1 || req.Count > 10 {
		response.RespondError(c, http.StatusBadRequest, "invalid_count",
			fmt.Errorf("count must be between 1 and 10"))
		return
	}
	language := strings.ToLower(strings.TrimSpace(req.Language))
	if !game.ValidLanguage(language) {
		response.RespondError(c, http.StatusBadRequest, "invalid_language",
			fmt.Errorf("unsupported language: %s", req.Language))
		return
	}

	config := game.DifficultyConfigs[difficulty]
	complexity := req.ComplexityLevel
	if complexity == "" {
		complexity = game.ComplexityLevel(config.ComplexityTag)
	}

	tasks, err := h.generator.GenerateTasks(
		c.Request.Context(),
		language,
		strings.ToUpper(string(difficulty)),
		complexity,
		req.Count,
		config.VulnDensity,
	)
	if err != nil {
		respondGenerateError(c, err)
		return
	}

	response.RespondOK(c, generateResponse{Tasks: tasks})
}

func respondGenerateError(c *gin.Context, err error) {
	if ae := apierr.From(err); ae != nil {
		response.RespondError(c, ae.Status, ae.Code, err)
		return
	}

	var parseErr *game.ParseError
	var countErr *game.CountMismatchError
	if errors.As(err, &parseErr) || errors.As(err, &countErr) {
		response.RespondError(c, http.StatusBadRequest, "malformed_generator_response", err)
		return
	}

	response.RespondError(c, http.StatusInternalServerError, "generate_failed",
		fmt.Errorf("failed to generate code snippets, please try again"))
}
