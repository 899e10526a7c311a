package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/repository"
	"github.com/psymetric/psymetric-backend/internal/response"
	"github.com/psymetric/psymetric-backend/internal/service"
)

// failFromError maps service and repository errors onto API error codes. Any
// unrecognized error is a 500.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrTemplateNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrResultNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)

	case errors.Is(err, service.ErrTemplateNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrTemplateNotDraft)
	case errors.Is(err, service.ErrTemplateNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrTemplateNotPublished)
	case errors.Is(err, model.ErrMissingBlueprint):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrMissingBlueprint)
	case errors.Is(err, service.ErrInvalidBlueprint):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidBlueprint)
	case errors.Is(err, service.ErrEmptyAssembly):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrEmptyAssembly)

	case errors.Is(err, service.ErrSessionTerminal):
		response.Fail(c, http.StatusConflict, response.ErrSessionTerminal)
	case errors.Is(err, service.ErrQuestionNotInSet):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotInSet)
	case errors.Is(err, service.ErrBackNotAllowed):
		response.Fail(c, http.StatusForbidden, response.ErrBackNotAllowed)
	case errors.Is(err, service.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)

	case errors.Is(err, service.ErrResultNotReady):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotReady)

	case errors.Is(err, service.ErrInvalidTaxonomy):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)

	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
