package assembly

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// defaultJobFitQuota is the per-indicator quota when the blueprint leaves it
// unset.
const defaultJobFitQuota = 2

// JobFitAssembler targets indicators scoped to the blueprint's role, with a
// defensive fallback so an assembly never silently yields an empty session
// while any active question exists.
type JobFitAssembler struct {
	catalog Catalog
	picker  *Picker
	log     zerolog.Logger
}

// NewJobFitAssembler creates the JOB_FIT assembler.
func NewJobFitAssembler(catalog Catalog, picker *Picker, log zerolog.Logger) *JobFitAssembler {
	return &JobFitAssembler{
		catalog: catalog,
		picker:  picker,
		log:     log.With().Str("component", "jobfit_assembler").Logger(),
	}
}

func (a *JobFitAssembler) Goal() model.AssessmentGoal { return model.GoalJobFit }

// Assemble selects questions from role-scoped and universal indicators across
// all active competencies.
func (a *JobFitAssembler) Assemble(ctx context.Context, template *model.TestTemplate) (*Result, error) {
	bp, err := model.DecodeBlueprint(template.Goal, template.Blueprint)
	if err != nil {
		return nil, fmt.Errorf("job-fit assembly: %w", err)
	}
	jobBP, ok := bp.(model.JobFitBlueprint)
	if !ok {
		return nil, fmt.Errorf("blueprint type %T does not match JOB_FIT goal", bp)
	}

	quota := jobBP.QuestionsPerIndicator
	if quota <= 0 {
		quota = defaultJobFitQuota
	}

	competencies, err := a.catalog.ListActiveCompetencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competencies: %w", err)
	}

	res := &Result{}
	used := make(map[uuid.UUID]bool)

	for _, comp := range competencies {
		indicators, err := a.catalog.ListActiveIndicators(ctx, comp.ID)
		if err != nil {
			return nil, fmt.Errorf("list indicators for %s: %w", comp.ID, err)
		}

		matched := indicators[:0:0]
		for _, ind := range indicators {
			if indicatorMatchesRole(&ind, jobBP.RoleCode) {
				matched = append(matched, ind)
			}
		}
		if len(matched) == 0 {
			continue
		}

		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Weight > matched[j].Weight
		})

		for _, ind := range matched {
			ids, err := a.picker.Pick(ctx, ind.ID, quota, model.DifficultyIntermediate, used)
			if err != nil {
				return nil, err
			}
			res.QuestionIDs = append(res.QuestionIDs, ids...)
		}
	}

	if len(res.QuestionIDs) == 0 {
		// Strict role filter matched nothing usable. Fall back to any active
		// question so publishing flows see a warning, not an empty session.
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("no eligible questions for role %q; falling back to unscoped selection", jobBP.RoleCode))
		if err := a.fallbackAnyActive(ctx, competencies, quota, used, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (a *JobFitAssembler) fallbackAnyActive(
	ctx context.Context,
	competencies []model.Competency,
	quota int,
	used map[uuid.UUID]bool,
	res *Result,
) error {
	for _, comp := range competencies {
		indicators, err := a.catalog.ListActiveIndicators(ctx, comp.ID)
		if err != nil {
			return fmt.Errorf("list indicators for %s: %w", comp.ID, err)
		}
		for _, ind := range indicators {
			ids, err := a.picker.Pick(ctx, ind.ID, quota, model.DifficultyIntermediate, used)
			if err != nil {
				return err
			}
			res.QuestionIDs = append(res.QuestionIDs, ids...)
		}
	}
	return nil
}

func indicatorMatchesRole(ind *model.BehavioralIndicator, roleCode string) bool {
	if ind.Scope == model.ScopeUniversal {
		return true
	}
	return ind.RoleCode != nil && *ind.RoleCode == roleCode
}
