package assembly

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/model"
)

const (
	// defaultSaturationThreshold replaces blueprint thresholds outside (0, 1].
	defaultSaturationThreshold = 0.3

	// defaultBaseQuestions is the per-competency quota baseline the
	// saturation bands adjust around.
	defaultBaseQuestions = 4
)

// TeamFitAssembler targets a team's competency gaps: the deeper the gap, the
// more questions and the harder the target difficulty.
type TeamFitAssembler struct {
	catalog Catalog
	teams   TeamDirectory
	picker  *Picker
	log     zerolog.Logger
}

// NewTeamFitAssembler creates the TEAM_FIT assembler.
func NewTeamFitAssembler(catalog Catalog, teams TeamDirectory, picker *Picker, log zerolog.Logger) *TeamFitAssembler {
	return &TeamFitAssembler{
		catalog: catalog,
		teams:   teams,
		picker:  picker,
		log:     log.With().Str("component", "teamfit_assembler").Logger(),
	}
}

func (a *TeamFitAssembler) Goal() model.AssessmentGoal { return model.GoalTeamFit }

// Assemble builds the question list from the team's undersaturated
// competencies, most critical gap first.
func (a *TeamFitAssembler) Assemble(ctx context.Context, template *model.TestTemplate) (*Result, error) {
	bp, err := model.DecodeBlueprint(template.Goal, template.Blueprint)
	if err != nil {
		return nil, fmt.Errorf("team-fit assembly: %w", err)
	}
	teamBP, ok := bp.(model.TeamFitBlueprint)
	if !ok {
		return nil, fmt.Errorf("blueprint type %T does not match TEAM_FIT goal", bp)
	}

	threshold := teamBP.SaturationThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultSaturationThreshold
	}
	base := teamBP.BaseQuestions
	if base <= 0 {
		base = defaultBaseQuestions
	}

	res := &Result{}

	profile, err := a.teams.GetTeamProfile(ctx, teamBP.TeamID)
	if err != nil {
		return nil, fmt.Errorf("team profile: %w", err)
	}
	if profile == nil {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("team %s has no profile; nothing to assemble", teamBP.TeamID))
		return res, nil
	}

	targets, err := a.teams.UndersaturatedCompetencies(ctx, teamBP.TeamID, threshold)
	if err != nil {
		return nil, fmt.Errorf("undersaturated competencies: %w", err)
	}
	if len(targets) == 0 {
		// No gap below the threshold: cover the whole profile so assembly
		// still yields a usable session whenever profile data exists.
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("no competencies below saturation %.2f; covering full team profile", threshold))
		for id, sat := range profile.Saturation {
			targets = append(targets, model.CompetencySaturation{CompetencyID: id, Saturation: sat})
		}
	}

	// Lowest saturation first: the most critical gap is processed first and
	// gets first pick of the question inventory. Ties keep encounter order.
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Saturation < targets[j].Saturation
	})

	used := make(map[uuid.UUID]bool)
	for _, target := range targets {
		quota := quotaFor(target.Saturation, base)
		difficulty := difficultyFor(target.Saturation)

		picked, err := a.assembleCompetency(ctx, target.CompetencyID, quota, difficulty, used)
		if err != nil {
			return nil, err
		}
		if len(picked) < quota {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"competency %s: wanted %d questions, found %d", target.CompetencyID, quota, len(picked)))
		}
		res.QuestionIDs = append(res.QuestionIDs, picked...)
	}

	return res, nil
}

// assembleCompetency distributes the quota across the competency's active
// indicators, highest weight first.
func (a *TeamFitAssembler) assembleCompetency(
	ctx context.Context,
	competencyID uuid.UUID,
	quota int,
	difficulty model.Difficulty,
	used map[uuid.UUID]bool,
) ([]uuid.UUID, error) {
	indicators, err := a.catalog.ListActiveIndicators(ctx, competencyID)
	if err != nil {
		return nil, fmt.Errorf("list indicators for %s: %w", competencyID, err)
	}
	if len(indicators) == 0 {
		return nil, nil
	}

	sort.SliceStable(indicators, func(i, j int) bool {
		return indicators[i].Weight > indicators[j].Weight
	})

	// Even split; the remainder goes to the heaviest indicators.
	per := quota / len(indicators)
	extra := quota % len(indicators)

	var picked []uuid.UUID
	for i, ind := range indicators {
		want := per
		if i < extra {
			want++
		}
		ids, err := a.picker.Pick(ctx, ind.ID, want, difficulty, used)
		if err != nil {
			return nil, err
		}
		picked = append(picked, ids...)
	}

	// Backfill from the heaviest indicators when some ran short.
	for i := 0; len(picked) < quota && i < len(indicators); i++ {
		ids, err := a.picker.Pick(ctx, indicators[i].ID, quota-len(picked), difficulty, used)
		if err != nil {
			return nil, err
		}
		picked = append(picked, ids...)
	}

	return picked, nil
}

// quotaFor maps team saturation to a question quota: deeper gaps get more
// items.
func quotaFor(saturation float64, base int) int {
	switch {
	case saturation < 0.1:
		return base + 2
	case saturation < 0.3:
		return base
	case saturation < 0.5:
		return base - 1
	default:
		return base - 2
	}
}

// difficultyFor maps team saturation to a target difficulty: deeper gaps get
// harder, more discriminating items.
func difficultyFor(saturation float64) model.Difficulty {
	switch {
	case saturation < 0.1:
		return model.DifficultyAdvanced
	case saturation < 0.3:
		return model.DifficultyIntermediate
	default:
		return model.DifficultyFoundational
	}
}
