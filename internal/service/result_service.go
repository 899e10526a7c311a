package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
	"github.com/psymetric/psymetric-backend/internal/repository"
)

// ResultService exposes scored results. Scoring itself lives behind the
// queue; this service only reads.
type ResultService struct {
	resultRepo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// GetBySession returns the session's result. A session not yet scored yields
// ErrResultNotReady; a PENDING placeholder is returned as-is so callers can
// show a "scoring in progress" state.
func (s *ResultService) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.TestResult, error) {
	result, err := s.resultRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrResultNotReady
	}
	return result, nil
}

// GetByID fetches a result by id.
func (s *ResultService) GetByID(ctx context.Context, id uuid.UUID) (*model.TestResult, error) {
	return s.resultRepo.GetByID(ctx, id)
}
