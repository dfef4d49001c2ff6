package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fid098/ICHack-26-Security-Game/internal/game"
	"github.com/fid098/ICHack-26-Security-Game/internal/http/response"
	"github.com/fid098/ICHack-26-Security-Game/internal/services"
)

type SessionHandler struct {
	store *services.SessionStore
}

func NewSessionHandler(store *services.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

type createSessionRequest struct {
	Difficulty string `json:"difficulty"`
	TaskCount  int    `json:"task_count"`
}

type submitAnswersRequest struct {
	Answers []game.Answer `json:"answers"`
}

type taskListResponse struct {
	SessionID string            `json:"session_id"`
	Tasks     []game.PublicTask `json:"tasks"`
}

// POST /session
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	difficulty, ok := game.ParseDifficulty(req.Difficulty)
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_difficulty",
			fmt.Errorf("invalid difficulty: %s", req.Difficulty))
		return
	}
	if req.TaskCount < 1 || req.TaskCount > 10 {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_count",
			fmt.Errorf("task_count must be between 1 and 10"))
		return
	}

	info, err := h.store.Create(c.Request.Context(), difficulty, req.TaskCount)
	if err != nil {
		// Session creation is all-or-nothing; any pipeline failure means
		// the game content provider is effectively down.
		response.RespondError(c, http.StatusServiceUnavailable, "session_create_failed",
			fmt.Errorf("failed to create session: %w", err))
		return
	}

	response.RespondCreated(c, info)
}

// GET /session/:id/tasks
func (h *SessionHandler) ListTasks(c *gin.Context) {
	sessionID := c.Param("id")
	tasks, err := h.store.PublicTasks(sessionID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	response.RespondOK(c, taskListResponse{SessionID: sessionID, Tasks: tasks})
}

// POST /session/:id/submit
func (h *SessionHandler) SubmitAnswers(c *gin.Context) {
	var req submitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	for _, answer := range req.Answers {
		if answer.UserChoice != game.ChoiceSabotaged && answer.UserChoice != game.ChoiceClean {
			response.RespondError(c, http.StatusBadRequest, "invalid_choice",
				fmt.Errorf("user_choice must be %q or %q", game.ChoiceSabotaged, game.ChoiceClean))
			return
		}
	}

	tally, err := h.store.SubmitAnswers(c.Param("id"), req.Answers)
	if err != nil {
		if errors.Is(err, game.ErrSessionNotFound) {
			response.RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_answers", err)
		return
	}

	response.RespondOK(c, tally)
}

// POST /session/:id/finish
func (h *SessionHandler) Finish(c *gin.Context) {
	result, err := h.store.Finish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	response.RespondOK(c, result)
}

// GET /session/:id/results
func (h *SessionHandler) Results(c *gin.Context) {
	result, err := h.store.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	response.RespondOK(c, result)
}
