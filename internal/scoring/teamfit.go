package scoring

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// TeamDirectory exposes team analytics to scoring and assembly. Implemented
// by service.TeamService.
type TeamDirectory interface {
	GetTeamProfile(ctx context.Context, teamID uuid.UUID) (*model.TeamProfile, error)
	UndersaturatedCompetencies(ctx context.Context, teamID uuid.UUID, threshold float64) ([]model.CompetencySaturation, error)
}

// TeamFitStrategy scores a candidate against a team's competency gaps:
// performance on undersaturated competencies counts for more.
type TeamFitStrategy struct {
	agg          *Aggregator
	teams        TeamDirectory
	minQuestions int
}

// NewTeamFitStrategy creates the TEAM_FIT scoring strategy.
func NewTeamFitStrategy(agg *Aggregator, teams TeamDirectory, minQuestions int) *TeamFitStrategy {
	return &TeamFitStrategy{agg: agg, teams: teams, minQuestions: minQuestions}
}

func (s *TeamFitStrategy) Goal() model.AssessmentGoal { return model.GoalTeamFit }

// Calculate aggregates answers and derives team-fit metrics from the team
// profile referenced by the template blueprint. A missing profile degrades to
// plain aggregation with a warning.
func (s *TeamFitStrategy) Calculate(ctx context.Context, in StrategyInput) (*ScoringResult, error) {
	agg, err := s.agg.Aggregate(ctx, in.Answers)
	if err != nil {
		return nil, fmt.Errorf("team-fit aggregation: %w", err)
	}

	ApplyEvidenceSufficiency(agg.Scores, s.minQuestions)
	overall, pct := overallFromScores(agg.Scores)

	res := &ScoringResult{
		OverallScore:      overall,
		OverallPercentage: pct,
		CompetencyScores:  agg.Scores,
		Indicators:        snapshotIndicators(agg),
		Decision:          evidenceConfidence(agg.Scores),
		Warnings:          agg.Warnings,
	}

	bp, err := model.DecodeBlueprint(in.Template.Goal, in.Template.Blueprint)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("team metrics skipped: %v", err))
		return res, nil
	}
	teamBP, ok := bp.(model.TeamFitBlueprint)
	if !ok {
		return nil, fmt.Errorf("blueprint type %T does not match TEAM_FIT goal", bp)
	}

	metrics, warn := s.buildTeamMetrics(ctx, teamBP, agg.Scores)
	if warn != "" {
		res.Warnings = append(res.Warnings, warn)
	}
	res.TeamFit = metrics
	return res, nil
}

// buildTeamMetrics computes, per undersaturated competency, the saturation
// lift the candidate would contribute: performance scaled by the remaining
// gap (1 - saturation).
func (s *TeamFitStrategy) buildTeamMetrics(
	ctx context.Context,
	bp model.TeamFitBlueprint,
	scores []model.CompetencyScore,
) (*model.TeamFitMetrics, string) {
	profile, err := s.teams.GetTeamProfile(ctx, bp.TeamID)
	if err != nil {
		return nil, fmt.Sprintf("team profile lookup failed: %v", err)
	}
	if profile == nil {
		return nil, fmt.Sprintf("team %s has no profile; team metrics unavailable", bp.TeamID)
	}

	threshold := bp.SaturationThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSaturationThreshold
	}

	metrics := &model.TeamFitMetrics{
		TeamID:         bp.TeamID,
		SaturationLift: make(map[string]float64),
	}

	var liftSum, bestLift float64
	for _, cs := range scores {
		sat, tracked := profile.Saturation[cs.CompetencyID]
		if !tracked || sat >= threshold {
			continue
		}
		lift := round2(cs.Percentage / 100 * (1 - sat))
		metrics.TargetedCompetencies++
		metrics.SaturationLift[cs.Name] = lift
		liftSum += lift
		if lift > bestLift {
			bestLift = lift
			metrics.StrongestContribution = cs.Name
		}
	}

	if metrics.TargetedCompetencies > 0 {
		metrics.GapCoverageScore = round2(liftSum / float64(metrics.TargetedCompetencies) * 100)
	}
	return metrics, ""
}

// defaultSaturationThreshold is used when a blueprint carries a threshold
// outside (0, 1].
const defaultSaturationThreshold = 0.3
