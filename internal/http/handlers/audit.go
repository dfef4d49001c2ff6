package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fid098/ICHack-26-Security-Game/internal/game"
	"github.com/fid098/ICHack-26-Security-Game/internal/http/response"
	"github.com/fid098/ICHack-26-Security-Game/internal/services"
)

type AuditHandler struct {
	auditor services.AuditService
}

func NewAuditHandler(auditor services.AuditService) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

type auditRequest struct {
	Tasks    []game.GeneratedTask `json:"tasks"`
	Language string               `json:"language"`
}

type auditResponse struct {
	Report *services.AuditReport `json:"report"`
}

// POST /audit
func (h *AuditHandler) Audit(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Tasks) == 0 {
		response.RespondError(c, http.StatusBadRequest, "empty_audit",
			fmt.Errorf("no tasks provided for audit"))
		return
	}

	report, err := h.auditor.Audit(c.Request.Context(), req.Tasks, req.Language)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "audit_failed", err)
		return
	}

	response.RespondOK(c, auditResponse{Report: report})
}
