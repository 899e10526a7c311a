package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// JobFitStrategy weighs indicator contributions by their authored weight so
// role-critical behaviors dominate the competency percentage.
type JobFitStrategy struct {
	agg          *Aggregator
	catalog      Catalog
	minQuestions int
}

// NewJobFitStrategy creates the JOB_FIT scoring strategy.
func NewJobFitStrategy(agg *Aggregator, catalog Catalog, minQuestions int) *JobFitStrategy {
	return &JobFitStrategy{agg: agg, catalog: catalog, minQuestions: minQuestions}
}

func (s *JobFitStrategy) Goal() model.AssessmentGoal { return model.GoalJobFit }

// Calculate aggregates answers and replaces each competency's flat percentage
// with an indicator-weighted one.
func (s *JobFitStrategy) Calculate(ctx context.Context, in StrategyInput) (*ScoringResult, error) {
	agg, err := s.agg.Aggregate(ctx, in.Answers)
	if err != nil {
		return nil, fmt.Errorf("job-fit aggregation: %w", err)
	}

	if err := s.applyIndicatorWeights(ctx, agg); err != nil {
		return nil, fmt.Errorf("apply indicator weights: %w", err)
	}

	ApplyEvidenceSufficiency(agg.Scores, s.minQuestions)
	overall, pct := overallFromScores(agg.Scores)

	return &ScoringResult{
		OverallScore:      overall,
		OverallPercentage: pct,
		CompetencyScores:  agg.Scores,
		Indicators:        snapshotIndicators(agg),
		Decision:          evidenceConfidence(agg.Scores),
		Warnings:          agg.Warnings,
	}, nil
}

// applyIndicatorWeights recomputes each competency percentage as the
// weight-normalized mean of its indicator percentages.
func (s *JobFitStrategy) applyIndicatorWeights(ctx context.Context, agg *AggregationResult) error {
	if len(agg.Indicators) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(agg.Indicators))
	for id := range agg.Indicators {
		ids = append(ids, id)
	}
	indicators, err := s.catalog.IndicatorsByIDs(ctx, ids)
	if err != nil {
		return err
	}

	type weighted struct{ sum, weights float64 }
	perCompetency := make(map[uuid.UUID]*weighted)

	for id, ia := range agg.Indicators {
		ind, ok := indicators[id]
		if !ok || ia.TotalMax <= 0 {
			continue
		}
		w := ind.Weight
		if w <= 0 {
			w = 1
		}
		acc, ok := perCompetency[ia.CompetencyID]
		if !ok {
			acc = &weighted{}
			perCompetency[ia.CompetencyID] = acc
		}
		acc.sum += w * (ia.TotalScore / ia.TotalMax * 100)
		acc.weights += w
	}

	for i := range agg.Scores {
		if acc, ok := perCompetency[agg.Scores[i].CompetencyID]; ok && acc.weights > 0 {
			agg.Scores[i].Percentage = round2(clamp(acc.sum/acc.weights, 0, 100))
		}
	}
	return nil
}
