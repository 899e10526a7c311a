package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/psychometrics"
	"github.com/psymetric/psymetric-backend/internal/response"
)

// AuditHandler exposes the psychometric audit to administrators.
type AuditHandler struct {
	analyzer *psychometrics.Analyzer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(analyzer *psychometrics.Analyzer) *AuditHandler {
	return &AuditHandler{analyzer: analyzer}
}

// RunAudit godoc
// POST /api/v1/admin/audit/run?hours=24
// Triggers a recompute over every item answered within the window.
func (h *AuditHandler) RunAudit(c *gin.Context) {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	summary, err := h.analyzer.RunAudit(c.Request.Context(), time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

// RecomputeItem godoc
// POST /api/v1/admin/audit/items/:id
func (h *AuditHandler) RecomputeItem(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	stats, err := h.analyzer.RecomputeItem(c.Request.Context(), questionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

// GetReliability godoc
// GET /api/v1/admin/audit/competencies/:id/reliability
func (h *AuditHandler) GetReliability(c *gin.Context) {
	competencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	alpha, err := h.analyzer.CompetencyReliability(c.Request.Context(), competencyID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"competency_id": competencyID,
		"reliability":   alpha,
	})
}
