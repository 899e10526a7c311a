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

// CatalogHandler handles competency taxonomy endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCompetencies godoc
// GET /api/v1/admin/competencies
func (h *CatalogHandler) ListCompetencies(c *gin.Context) {
	competencies, err := h.catalogService.ListCompetencies(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if competencies == nil {
		competencies = []model.Competency{}
	}
	response.Success(c, http.StatusOK, gin.H{"competencies": competencies})
}

// CreateCompetency godoc
// POST /api/v1/admin/competencies
func (h *CatalogHandler) CreateCompetency(c *gin.Context) {
	var req model.CreateCompetencyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	competency, err := h.catalogService.CreateCompetency(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"competency": competency})
}

// ListIndicators godoc
// GET /api/v1/admin/competencies/:id/indicators
func (h *CatalogHandler) ListIndicators(c *gin.Context) {
	competencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	indicators, err := h.catalogService.ListIndicators(c.Request.Context(), competencyID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if indicators == nil {
		indicators = []model.BehavioralIndicator{}
	}
	response.Success(c, http.StatusOK, gin.H{"indicators": indicators})
}

// CreateIndicator godoc
// POST /api/v1/admin/competencies/:id/indicators
func (h *CatalogHandler) CreateIndicator(c *gin.Context) {
	competencyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateIndicatorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	indicator, err := h.catalogService.CreateIndicator(c.Request.Context(), competencyID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"indicator": indicator})
}

// ListQuestions godoc
// GET /api/v1/admin/indicators/:id/questions
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	indicatorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.catalogService.ListQuestions(c.Request.Context(), indicatorID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.AssessmentQuestion{}
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// CreateQuestion godoc
// POST /api/v1/admin/indicators/:id/questions
func (h *CatalogHandler) CreateQuestion(c *gin.Context) {
	indicatorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.catalogService.CreateQuestion(c.Request.Context(), indicatorID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}
