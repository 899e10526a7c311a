package assembly

import (
	"context"

	"github.com/google/uuid"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// Catalog exposes the active taxonomy to assemblers. Implemented by
// repository.CatalogRepository.
type Catalog interface {
	ListActiveCompetencies(ctx context.Context) ([]model.Competency, error)
	ListActiveIndicators(ctx context.Context, competencyID uuid.UUID) ([]model.BehavioralIndicator, error)
	ListActiveQuestions(ctx context.Context, indicatorID uuid.UUID) ([]model.AssessmentQuestion, error)
}

// Eligibility is the psychometric gate consumed during selection. Implemented
// by psychometrics.EligibilityChecker.
type Eligibility interface {
	IsEligibleForAssembly(ctx context.Context, questionID uuid.UUID) (bool, error)
}

// TeamDirectory exposes team analytics to the team-fit assembler.
type TeamDirectory interface {
	GetTeamProfile(ctx context.Context, teamID uuid.UUID) (*model.TeamProfile, error)
	UndersaturatedCompetencies(ctx context.Context, teamID uuid.UUID, threshold float64) ([]model.CompetencySaturation, error)
}

// Result is an ordered question selection plus any soft warnings raised while
// assembling. An empty selection with warnings is a valid degraded outcome;
// question order is final at this layer (option shuffling, if configured, is
// the template's concern upstream).
type Result struct {
	QuestionIDs []uuid.UUID `json:"question_ids"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// Assembler builds the ordered question list for one assessment goal. A
// blueprint of the wrong concrete subtype is a configuration error and fails
// fast; data-availability gaps degrade to warnings instead.
type Assembler interface {
	Goal() model.AssessmentGoal
	Assemble(ctx context.Context, template *model.TestTemplate) (*Result, error)
}

// Registry maps each goal to its assembler, resolved by a single lookup.
type Registry map[model.AssessmentGoal]Assembler

// NewRegistry builds an assembler registry.
func NewRegistry(assemblers ...Assembler) Registry {
	r := make(Registry, len(assemblers))
	for _, a := range assemblers {
		r[a.Goal()] = a
	}
	return r
}
