package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Blueprint is the typed, goal-specific assembly configuration stored on a
// template. Each goal has exactly one concrete subtype.
type Blueprint interface {
	Goal() AssessmentGoal
}

// OverviewBlueprint covers every active competency with a fixed quota of
// universal-scope questions.
type OverviewBlueprint struct {
	QuestionsPerCompetency int `json:"questions_per_competency"`
}

func (OverviewBlueprint) Goal() AssessmentGoal { return GoalOverview }

// JobFitBlueprint targets indicators scoped to a specific role.
type JobFitBlueprint struct {
	RoleCode              string `json:"role_code"`
	QuestionsPerIndicator int    `json:"questions_per_indicator"`
}

func (JobFitBlueprint) Goal() AssessmentGoal { return GoalJobFit }

// TeamFitBlueprint targets a team's competency gaps. Saturation below the
// threshold marks a competency as undersaturated.
type TeamFitBlueprint struct {
	TeamID              uuid.UUID `json:"team_id"`
	SaturationThreshold float64   `json:"saturation_threshold"`
	BaseQuestions       int       `json:"base_questions_per_competency"`
}

func (TeamFitBlueprint) Goal() AssessmentGoal { return GoalTeamFit }

// ErrMissingBlueprint signals a template without a typed blueprint where one
// is required (publish, assembly).
var ErrMissingBlueprint = errors.New("template has no blueprint")

// DecodeBlueprint parses a template's raw blueprint into the concrete subtype
// for its goal. A nil or empty raw blueprint is a configuration error.
func DecodeBlueprint(goal AssessmentGoal, raw json.RawMessage) (Blueprint, error) {
	if len(raw) == 0 {
		return nil, ErrMissingBlueprint
	}

	switch goal {
	case GoalOverview:
		var bp OverviewBlueprint
		if err := json.Unmarshal(raw, &bp); err != nil {
			return nil, fmt.Errorf("decode overview blueprint: %w", err)
		}
		return bp, nil
	case GoalJobFit:
		var bp JobFitBlueprint
		if err := json.Unmarshal(raw, &bp); err != nil {
			return nil, fmt.Errorf("decode job-fit blueprint: %w", err)
		}
		return bp, nil
	case GoalTeamFit:
		var bp TeamFitBlueprint
		if err := json.Unmarshal(raw, &bp); err != nil {
			return nil, fmt.Errorf("decode team-fit blueprint: %w", err)
		}
		return bp, nil
	default:
		return nil, fmt.Errorf("unknown assessment goal %q", goal)
	}
}
