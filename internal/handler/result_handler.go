package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/response"
	"github.com/psymetric/psymetric-backend/internal/service"
)

// ResultHandler handles result read endpoints.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// GetSessionResult godoc
// GET /api/v1/sessions/:id/result
// A PENDING result is returned with 202 so clients can poll.
func (h *ResultHandler) GetSessionResult(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.GetBySession(c.Request.Context(), sessionID)
	if err != nil {
		failFromError(c, err)
		return
	}

	status := http.StatusOK
	if result.Status == model.ResultStatusPending {
		status = http.StatusAccepted
	}
	response.Success(c, status, gin.H{"result": result})
}

// GetResult godoc
// GET /api/v1/admin/results/:id
func (h *ResultHandler) GetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.GetByID(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}
