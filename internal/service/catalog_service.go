package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/repository"
)

// CatalogService handles competency taxonomy authoring.
type CatalogService struct {
	catalogRepo *repository.CatalogRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalogRepo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalogRepo: catalogRepo}
}

// ListCompetencies returns all active competencies.
func (s *CatalogService) ListCompetencies(ctx context.Context) ([]model.Competency, error) {
	return s.catalogRepo.ListActiveCompetencies(ctx)
}

// ListIndicators returns a competency's active indicators.
func (s *CatalogService) ListIndicators(ctx context.Context, competencyID uuid.UUID) ([]model.BehavioralIndicator, error) {
	return s.catalogRepo.ListActiveIndicators(ctx, competencyID)
}

// ListQuestions returns an indicator's active questions.
func (s *CatalogService) ListQuestions(ctx context.Context, indicatorID uuid.UUID) ([]model.AssessmentQuestion, error) {
	return s.catalogRepo.ListActiveQuestions(ctx, indicatorID)
}

// CreateCompetency creates a competency.
func (s *CatalogService) CreateCompetency(ctx context.Context, req *model.CreateCompetencyRequest) (*model.Competency, error) {
	c := &model.Competency{
		Name:        req.Name,
		Description: req.Description,
		TraitCode:   req.TraitCode,
	}
	if err := s.catalogRepo.CreateCompetency(ctx, c); err != nil {
		return nil, fmt.Errorf("create competency: %w", err)
	}
	return c, nil
}

// CreateIndicator adds an indicator to a competency. Role-specific indicators
// must name a role; universal ones must not.
func (s *CatalogService) CreateIndicator(ctx context.Context, competencyID uuid.UUID, req *model.CreateIndicatorRequest) (*model.BehavioralIndicator, error) {
	scope := model.ContextScope(req.Scope)
	if scope == model.ScopeRoleSpecific && req.RoleCode == nil {
		return nil, fmt.Errorf("%w: role-specific indicators require a role code", ErrInvalidTaxonomy)
	}
	if scope == model.ScopeUniversal && req.RoleCode != nil {
		return nil, fmt.Errorf("%w: universal indicators cannot carry a role code", ErrInvalidTaxonomy)
	}

	ind := &model.BehavioralIndicator{
		CompetencyID:  competencyID,
		Name:          req.Name,
		Weight:        req.Weight,
		Measurement:   model.MeasurementType(req.Measurement),
		Scope:         scope,
		RoleCode:      req.RoleCode,
		Observability: model.ObservabilityLevel(req.Observability),
	}
	if err := s.catalogRepo.CreateIndicator(ctx, ind); err != nil {
		return nil, fmt.Errorf("create indicator: %w", err)
	}
	return ind, nil
}

// CreateQuestion adds a question to an indicator, enforcing per-format shape:
// choices need at least two scorable options, likert and open text take none.
func (s *CatalogService) CreateQuestion(ctx context.Context, indicatorID uuid.UUID, req *model.CreateQuestionRequest) (*model.AssessmentQuestion, error) {
	qType := model.QuestionType(req.QuestionType)

	switch qType {
	case model.QuestionTypeSingleChoice:
		if len(req.Options) < 2 {
			return nil, fmt.Errorf("%w: single-choice questions require at least two options", ErrInvalidTaxonomy)
		}
		scorable := false
		for _, o := range req.Options {
			if o.Score > 0 {
				scorable = true
				break
			}
		}
		if !scorable {
			return nil, fmt.Errorf("%w: single-choice questions require at least one scorable option", ErrInvalidTaxonomy)
		}
	case model.QuestionTypeOpenText:
		if req.RubricMaxScore == nil {
			return nil, fmt.Errorf("%w: open-text questions require a rubric max score", ErrInvalidTaxonomy)
		}
	}

	q := &model.AssessmentQuestion{
		IndicatorID:      indicatorID,
		QuestionText:     req.QuestionText,
		QuestionType:     qType,
		Options:          req.Options,
		Difficulty:       model.Difficulty(req.Difficulty),
		RubricMaxScore:   req.RubricMaxScore,
		TimeLimitSeconds: req.TimeLimitSeconds,
	}
	if err := s.catalogRepo.CreateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}
