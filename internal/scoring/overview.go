package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// OverviewStrategy produces a broad profile: flat competency roll-up plus a
// Big Five projection from trait-coded competencies.
type OverviewStrategy struct {
	agg          *Aggregator
	catalog      Catalog
	minQuestions int
}

// NewOverviewStrategy creates the OVERVIEW scoring strategy.
func NewOverviewStrategy(agg *Aggregator, catalog Catalog, minQuestions int) *OverviewStrategy {
	return &OverviewStrategy{agg: agg, catalog: catalog, minQuestions: minQuestions}
}

func (s *OverviewStrategy) Goal() model.AssessmentGoal { return model.GoalOverview }

// Calculate aggregates answers, flags evidence sufficiency and rolls
// trait-coded competencies into a Big Five profile.
func (s *OverviewStrategy) Calculate(ctx context.Context, in StrategyInput) (*ScoringResult, error) {
	agg, err := s.agg.Aggregate(ctx, in.Answers)
	if err != nil {
		return nil, fmt.Errorf("overview aggregation: %w", err)
	}

	ApplyEvidenceSufficiency(agg.Scores, s.minQuestions)
	overall, pct := overallFromScores(agg.Scores)

	bigFive, err := s.buildBigFive(ctx, agg.Scores)
	if err != nil {
		// Profile roll-up is enrichment, not a scoring failure.
		agg.Warnings = append(agg.Warnings, fmt.Sprintf("big five roll-up skipped: %v", err))
	}

	return &ScoringResult{
		OverallScore:      overall,
		OverallPercentage: pct,
		CompetencyScores:  agg.Scores,
		Indicators:        snapshotIndicators(agg),
		BigFive:           bigFive,
		Decision:          evidenceConfidence(agg.Scores),
		Warnings:          agg.Warnings,
	}, nil
}

func (s *OverviewStrategy) buildBigFive(ctx context.Context, scores []model.CompetencyScore) (*model.BigFiveProfile, error) {
	ids := make([]uuid.UUID, 0, len(scores))
	for _, cs := range scores {
		ids = append(ids, cs.CompetencyID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	competencies, err := s.catalog.CompetenciesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, cs := range scores {
		comp, ok := competencies[cs.CompetencyID]
		if !ok || comp.TraitCode == nil {
			continue
		}
		sums[*comp.TraitCode] += cs.Percentage
		counts[*comp.TraitCode]++
	}
	if len(counts) == 0 {
		return nil, nil
	}

	avg := func(code string) float64 {
		if counts[code] == 0 {
			return 0
		}
		return round2(sums[code] / float64(counts[code]))
	}
	return &model.BigFiveProfile{
		Openness:          avg("O"),
		Conscientiousness: avg("C"),
		Extraversion:      avg("E"),
		Agreeableness:     avg("A"),
		Neuroticism:       avg("N"),
	}, nil
}
