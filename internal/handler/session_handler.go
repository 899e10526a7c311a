package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/response"
	"github.com/psymetric/psymetric-backend/internal/service"
	"github.com/psymetric/psymetric-backend/internal/validator"
)

// SessionHandler handles the public candidate session endpoints. Candidates
// are anonymous; the session id is the capability.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// StartSession godoc
// POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, warnings, err := h.sessionService.Start(c.Request.Context(), &req, nil)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"session":  session,
		"warnings": warnings,
	})
}

// GetState godoc
// GET /api/v1/sessions/:id/state
func (h *SessionHandler) GetState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.GetState(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// SubmitAnswer godoc
// POST /api/v1/sessions/:id/answers
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	answer, err := h.sessionService.SubmitAnswer(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"answer": answer})
}

// Navigate godoc
// POST /api/v1/sessions/:id/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Navigate(c.Request.Context(), id, req.Index)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// CompleteSession godoc
// POST /api/v1/sessions/:id/complete
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	h.finish(c, h.sessionService.Complete)
}

// AbandonSession godoc
// POST /api/v1/sessions/:id/abandon
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	h.finish(c, h.sessionService.Abandon)
}

// finish runs a terminal transition shared by complete and abandon.
func (h *SessionHandler) finish(c *gin.Context, transition func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if err := transition(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "session finalized, scoring queued"})
}
