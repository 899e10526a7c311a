package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/response"
	"github.com/psymetric/psymetric-backend/internal/service"
	"github.com/psymetric/psymetric-backend/internal/validator"
)

// TeamHandler handles team saturation profile endpoints.
type TeamHandler struct {
	teamService *service.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// upsertTeamRequest is the payload for writing a team profile.
type upsertTeamRequest struct {
	Name       string             `json:"name" binding:"required,min=2,max=120"`
	Saturation map[string]float64 `json:"competency_saturation" binding:"required"`
}

// GetTeam godoc
// GET /api/v1/admin/teams/:id
func (h *TeamHandler) GetTeam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	profile, err := h.teamService.GetTeamProfile(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if profile == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"team": profile})
}

// UpsertTeam godoc
// PUT /api/v1/admin/teams/:id
func (h *TeamHandler) UpsertTeam(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req upsertTeamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	saturation := make(map[uuid.UUID]float64, len(req.Saturation))
	for key, value := range req.Saturation {
		competencyID, err := uuid.Parse(key)
		if err != nil || value < 0 || value > 1 {
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)
			return
		}
		saturation[competencyID] = value
	}

	profile := &model.TeamProfile{
		TeamID:     id,
		Name:       req.Name,
		Saturation: saturation,
	}
	if err := h.teamService.UpsertTeamProfile(c.Request.Context(), profile); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"team": profile})
}
