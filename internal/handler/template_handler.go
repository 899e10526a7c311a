package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/response"
	"github.com/psymetric/psymetric-backend/internal/service"
	"github.com/psymetric/psymetric-backend/internal/validator"
)

// TemplateHandler handles test template endpoints.
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// ListTemplates godoc
// GET /api/v1/admin/templates?status=DRAFT
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var status *model.TemplateStatus
	if raw := c.Query("status"); raw != "" {
		s := model.TemplateStatus(raw)
		status = &s
	}

	templates, err := h.templateService.List(c.Request.Context(), status)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if templates == nil {
		templates = []model.TestTemplate{}
	}
	response.Success(c, http.StatusOK, gin.H{"templates": templates})
}

// GetTemplate godoc
// GET /api/v1/admin/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	template, err := h.templateService.GetByID(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"template": template})
}

// CreateTemplate godoc
// POST /api/v1/admin/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req model.CreateTemplateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"template": template})
}

// UpdateTemplate godoc
// PUT /api/v1/admin/templates/:id
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateTemplateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"template": template})
}

// PublishTemplate godoc
// POST /api/v1/admin/templates/:id/publish
func (h *TemplateHandler) PublishTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	report, err := h.templateService.Publish(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ArchiveTemplate godoc
// POST /api/v1/admin/templates/:id/archive
func (h *TemplateHandler) ArchiveTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.templateService.Archive(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "template archived"})
}

// NewVersion godoc
// POST /api/v1/admin/templates/:id/versions
func (h *TemplateHandler) NewVersion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	template, err := h.templateService.NewVersion(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"template": template})
}

// SimulateTemplate godoc
// GET /api/v1/admin/templates/:id/simulate?profile=STRONG&ability=70
func (h *TemplateHandler) SimulateTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	profile := c.DefaultQuery("profile", "AVERAGE")
	ability, err := strconv.Atoi(c.DefaultQuery("ability", "50"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	report, err := h.templateService.Simulate(c.Request.Context(), id, profile, ability)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}
