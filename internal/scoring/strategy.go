package scoring

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// StrategyInput carries everything a strategy needs for one scoring pass.
type StrategyInput struct {
	Session  *model.TestSession
	Template *model.TestTemplate
	Answers  []model.TestAnswer
}

// ScoringResult is a strategy's output before enrichment.
type ScoringResult struct {
	OverallScore      float64
	OverallPercentage float64
	CompetencyScores  []model.CompetencyScore
	Indicators        []IndicatorSnapshot
	BigFive           *model.BigFiveProfile
	TeamFit           *model.TeamFitMetrics
	Decision          *model.DecisionConfidence
	Warnings          []string
}

// IndicatorSnapshot is one indicator's aggregation as carried in the scoring
// audit event.
type IndicatorSnapshot struct {
	IndicatorID  uuid.UUID `json:"indicator_id"`
	CompetencyID uuid.UUID `json:"competency_id"`
	Weight       float64   `json:"weight"`
	Count        int       `json:"questions_answered"`
	TotalScore   float64   `json:"total_score"`
	TotalMax     float64   `json:"total_max"`
}

// snapshotIndicators flattens an aggregation's indicator map into a stable,
// id-ordered snapshot.
func snapshotIndicators(agg *AggregationResult) []IndicatorSnapshot {
	out := make([]IndicatorSnapshot, 0, len(agg.Indicators))
	for _, ia := range agg.Indicators {
		out = append(out, IndicatorSnapshot{
			IndicatorID:  ia.IndicatorID,
			CompetencyID: ia.CompetencyID,
			Weight:       ia.Weight,
			Count:        ia.Count,
			TotalScore:   round2(ia.TotalScore),
			TotalMax:     round2(ia.TotalMax),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].IndicatorID.String() < out[j].IndicatorID.String()
	})
	return out
}

// Strategy is a goal-specific scoring algorithm.
type Strategy interface {
	Goal() model.AssessmentGoal
	Calculate(ctx context.Context, in StrategyInput) (*ScoringResult, error)
}

// Registry maps each assessment goal to its strategy. Built once at startup
// so dispatch is a single lookup.
type Registry map[model.AssessmentGoal]Strategy

// NewRegistry builds a registry from the given strategies. A duplicate goal
// keeps the last registration.
func NewRegistry(strategies ...Strategy) Registry {
	r := make(Registry, len(strategies))
	for _, s := range strategies {
		r[s.Goal()] = s
	}
	return r
}

// overallFromScores computes the flat score/max roll-up across competencies.
func overallFromScores(scores []model.CompetencyScore) (score, pct float64) {
	var total, max float64
	for _, cs := range scores {
		total += cs.Score
		max += cs.MaxScore
	}
	if max > 0 {
		pct = clamp(total/max*100, 0, 100)
	}
	return round2(total), round2(pct)
}

// evidenceConfidence grades decision confidence from the share of
// competencies with sufficient evidence.
func evidenceConfidence(scores []model.CompetencyScore) *model.DecisionConfidence {
	if len(scores) == 0 {
		return &model.DecisionConfidence{
			Level:     "LOW",
			Rationale: "no competency evidence collected",
		}
	}
	sufficient := 0
	for _, cs := range scores {
		if !cs.InsufficientEvidence {
			sufficient++
		}
	}
	ratio := float64(sufficient) / float64(len(scores))
	switch {
	case ratio >= 0.8:
		return &model.DecisionConfidence{Level: "HIGH"}
	case ratio >= 0.5:
		return &model.DecisionConfidence{
			Level:     "MODERATE",
			Rationale: "some competencies measured with few questions",
		}
	default:
		return &model.DecisionConfidence{
			Level:     "LOW",
			Rationale: "most competencies measured with too few questions",
		}
	}
}
