package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// History exposes the completed-result counts needed for percentile ranking.
// Implemented by repository.ResultRepository.
type History interface {
	CountCompleted(ctx context.Context, templateID uuid.UUID) (int, error)
	CountCompletedBelow(ctx context.Context, templateID uuid.UUID, percentage float64) (int, error)
}

// defaultPercentile is returned when fewer than two historical results exist;
// a single-sample percentile is degenerate.
const defaultPercentile = 50

// PercentileCalculator ranks a score against historical completed results for
// the same template.
type PercentileCalculator struct {
	history History
}

// NewPercentileCalculator creates a PercentileCalculator.
func NewPercentileCalculator(history History) *PercentileCalculator {
	return &PercentileCalculator{history: history}
}

// Rank returns round(100 * below / (total - 1)) clamped to [0, 100], or 50
// when fewer than two historical results exist.
func (p *PercentileCalculator) Rank(ctx context.Context, templateID uuid.UUID, percentage float64) (int, error) {
	total, err := p.history.CountCompleted(ctx, templateID)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	if total < 2 {
		return defaultPercentile, nil
	}

	below, err := p.history.CountCompletedBelow(ctx, templateID, percentage)
	if err != nil {
		return 0, fmt.Errorf("count results below: %w", err)
	}

	rank := int(math.Round(100 * float64(below) / float64(total-1)))
	if rank < 0 {
		rank = 0
	}
	if rank > 100 {
		rank = 100
	}
	return rank, nil
}
