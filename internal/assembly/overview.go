package assembly

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// defaultOverviewQuota is the per-competency quota when the blueprint leaves
// it unset.
const defaultOverviewQuota = 3

// OverviewAssembler covers every active competency with a fixed quota of
// universal-scope questions.
type OverviewAssembler struct {
	catalog Catalog
	picker  *Picker
	log     zerolog.Logger
}

// NewOverviewAssembler creates the OVERVIEW assembler.
func NewOverviewAssembler(catalog Catalog, picker *Picker, log zerolog.Logger) *OverviewAssembler {
	return &OverviewAssembler{
		catalog: catalog,
		picker:  picker,
		log:     log.With().Str("component", "overview_assembler").Logger(),
	}
}

func (a *OverviewAssembler) Goal() model.AssessmentGoal { return model.GoalOverview }

// Assemble selects questions for all active competencies through their
// universal indicators, falling back to role-specific indicators for a
// competency that has no universal ones.
func (a *OverviewAssembler) Assemble(ctx context.Context, template *model.TestTemplate) (*Result, error) {
	bp, err := model.DecodeBlueprint(template.Goal, template.Blueprint)
	if err != nil {
		return nil, fmt.Errorf("overview assembly: %w", err)
	}
	ovBP, ok := bp.(model.OverviewBlueprint)
	if !ok {
		return nil, fmt.Errorf("blueprint type %T does not match OVERVIEW goal", bp)
	}

	quota := ovBP.QuestionsPerCompetency
	if quota <= 0 {
		quota = defaultOverviewQuota
	}

	competencies, err := a.catalog.ListActiveCompetencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competencies: %w", err)
	}

	res := &Result{}
	if len(competencies) == 0 {
		res.Warnings = append(res.Warnings, "no active competencies; nothing to assemble")
		return res, nil
	}

	used := make(map[uuid.UUID]bool)
	for _, comp := range competencies {
		indicators, err := a.catalog.ListActiveIndicators(ctx, comp.ID)
		if err != nil {
			return nil, fmt.Errorf("list indicators for %s: %w", comp.ID, err)
		}

		universal := indicators[:0:0]
		for _, ind := range indicators {
			if ind.Scope == model.ScopeUniversal {
				universal = append(universal, ind)
			}
		}
		if len(universal) == 0 {
			// Keep the competency covered even without universal indicators.
			universal = indicators
		}
		if len(universal) == 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("competency %q has no active indicators", comp.Name))
			continue
		}

		sort.SliceStable(universal, func(i, j int) bool {
			return universal[i].Weight > universal[j].Weight
		})

		var picked []uuid.UUID
		for i := 0; len(picked) < quota && i < len(universal); i++ {
			ids, err := a.picker.Pick(ctx, universal[i].ID, quota-len(picked), model.DifficultyIntermediate, used)
			if err != nil {
				return nil, err
			}
			picked = append(picked, ids...)
		}
		if len(picked) < quota {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("competency %q: wanted %d questions, found %d", comp.Name, quota, len(picked)))
		}
		res.QuestionIDs = append(res.QuestionIDs, picked...)
	}

	return res, nil
}
