package psychometrics

import (
	"context"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// EligibilityChecker answers whether a question's validity status permits its
// use in new assemblies. Items without statistics yet are on implicit
// probation and remain selectable; only RETIRED items are excluded.
type EligibilityChecker struct {
	stats StatsStore
}

// NewEligibilityChecker creates an EligibilityChecker.
func NewEligibilityChecker(stats StatsStore) *EligibilityChecker {
	return &EligibilityChecker{stats: stats}
}

// IsEligibleForAssembly reports whether the question may be selected.
func (c *EligibilityChecker) IsEligibleForAssembly(ctx context.Context, questionID uuid.UUID) (bool, error) {
	stats, err := c.stats.Get(ctx, questionID)
	if err != nil {
		return false, err
	}
	if stats == nil {
		return true, nil
	}
	return stats.Validity != model.ValidityRetired, nil
}
