package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// stubTeams serves a fixed team profile.
type stubTeams struct {
	profile *model.TeamProfile
	targets []model.CompetencySaturation
}

func (s *stubTeams) GetTeamProfile(context.Context, uuid.UUID) (*model.TeamProfile, error) {
	return s.profile, nil
}

func (s *stubTeams) UndersaturatedCompetencies(_ context.Context, _ uuid.UUID, threshold float64) ([]model.CompetencySaturation, error) {
	var out []model.CompetencySaturation
	for _, t := range s.targets {
		if t.Saturation < threshold {
			out = append(out, t)
		}
	}
	return out, nil
}

func teamFitTemplate(t *testing.T, teamID uuid.UUID, threshold float64, base int) *model.TestTemplate {
	t.Helper()
	raw, err := json.Marshal(model.TeamFitBlueprint{
		TeamID:              teamID,
		SaturationThreshold: threshold,
		BaseQuestions:       base,
	})
	require.NoError(t, err)
	return &model.TestTemplate{
		ID:        uuid.New(),
		Goal:      model.GoalTeamFit,
		Blueprint: raw,
		Status:    model.TemplateStatusPublished,
	}
}

// buildInventory populates the catalog with one indicator per competency and
// questionCount questions at the given difficulty.
func buildInventory(cat *memoryCatalog, competencyID uuid.UUID, questionCount int, difficulty model.Difficulty) {
	ind := model.BehavioralIndicator{
		ID:           uuid.New(),
		CompetencyID: competencyID,
		Name:         fmt.Sprintf("indicator-%s", competencyID),
		Weight:       1,
		Active:       true,
	}
	cat.indicators[competencyID] = append(cat.indicators[competencyID], ind)
	for i := 0; i < questionCount; i++ {
		cat.questions[ind.ID] = append(cat.questions[ind.ID], model.AssessmentQuestion{
			ID:          uuid.New(),
			IndicatorID: ind.ID,
			Difficulty:  difficulty,
			Active:      true,
		})
	}
}

func TestQuotaBands(t *testing.T) {
	const base = 4
	assert.Equal(t, base+2, quotaFor(0.05, base))
	assert.Equal(t, base, quotaFor(0.15, base))
	assert.Equal(t, base-1, quotaFor(0.35, base))
	assert.Equal(t, base-2, quotaFor(0.75, base))
}

func TestDifficultyBands(t *testing.T) {
	assert.Equal(t, model.DifficultyAdvanced, difficultyFor(0.05))
	assert.Equal(t, model.DifficultyIntermediate, difficultyFor(0.15))
	assert.Equal(t, model.DifficultyFoundational, difficultyFor(0.35))
	assert.Equal(t, model.DifficultyFoundational, difficultyFor(0.9))
}

func TestTeamFitAssembleMissingProfile(t *testing.T) {
	cat := newMemoryCatalog()
	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewTeamFitAssembler(cat, &stubTeams{}, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), teamFitTemplate(t, uuid.New(), 0.3, 4))
	require.NoError(t, err)
	assert.Empty(t, res.QuestionIDs)
	assert.NotEmpty(t, res.Warnings)
}

func TestTeamFitAssembleTargetsDeepestGapFirst(t *testing.T) {
	cat := newMemoryCatalog()
	critical := uuid.New() // saturation 0.05 -> 6 questions, ADVANCED
	moderate := uuid.New() // saturation 0.2  -> 4 questions, INTERMEDIATE
	buildInventory(cat, critical, 10, model.DifficultyAdvanced)
	buildInventory(cat, moderate, 10, model.DifficultyIntermediate)

	teams := &stubTeams{
		profile: &model.TeamProfile{TeamID: uuid.New(), Saturation: map[uuid.UUID]float64{
			critical: 0.05, moderate: 0.2,
		}},
		targets: []model.CompetencySaturation{
			{CompetencyID: moderate, Saturation: 0.2},
			{CompetencyID: critical, Saturation: 0.05},
		},
	}

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewTeamFitAssembler(cat, teams, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), teamFitTemplate(t, teams.profile.TeamID, 0.3, 4))
	require.NoError(t, err)
	require.Len(t, res.QuestionIDs, 10)
	assert.Empty(t, res.Warnings)

	// The deepest gap is assembled first: the leading 6 questions belong to
	// the critical competency's inventory.
	criticalIDs := make(map[uuid.UUID]bool)
	for _, ind := range cat.indicators[critical] {
		for _, q := range cat.questions[ind.ID] {
			criticalIDs[q.ID] = true
		}
	}
	for i := 0; i < 6; i++ {
		assert.True(t, criticalIDs[res.QuestionIDs[i]], "question %d should target the critical gap", i)
	}
}

func TestTeamFitAssembleNoGapsCoversFullProfile(t *testing.T) {
	cat := newMemoryCatalog()
	comp := uuid.New()
	buildInventory(cat, comp, 5, model.DifficultyFoundational)

	teams := &stubTeams{
		profile: &model.TeamProfile{TeamID: uuid.New(), Saturation: map[uuid.UUID]float64{comp: 0.8}},
	}

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewTeamFitAssembler(cat, teams, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), teamFitTemplate(t, teams.profile.TeamID, 0.3, 4))
	require.NoError(t, err)
	// saturation 0.8 -> base-2 questions at FOUNDATIONAL difficulty.
	assert.Len(t, res.QuestionIDs, 2)
	assert.NotEmpty(t, res.Warnings)
}

func TestTeamFitAssembleShortInventoryWarns(t *testing.T) {
	cat := newMemoryCatalog()
	comp := uuid.New()
	buildInventory(cat, comp, 2, model.DifficultyAdvanced)

	teams := &stubTeams{
		profile: &model.TeamProfile{TeamID: uuid.New(), Saturation: map[uuid.UUID]float64{comp: 0.05}},
		targets: []model.CompetencySaturation{{CompetencyID: comp, Saturation: 0.05}},
	}

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewTeamFitAssembler(cat, teams, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), teamFitTemplate(t, teams.profile.TeamID, 0.3, 4))
	require.NoError(t, err)
	assert.Len(t, res.QuestionIDs, 2)
	assert.NotEmpty(t, res.Warnings)
}

func TestTeamFitAssembleRejectsWrongBlueprint(t *testing.T) {
	cat := newMemoryCatalog()
	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewTeamFitAssembler(cat, &stubTeams{}, picker, zerolog.Nop())

	_, err := asm.Assemble(context.Background(), &model.TestTemplate{
		ID:   uuid.New(),
		Goal: model.GoalTeamFit,
	})
	assert.ErrorIs(t, err, model.ErrMissingBlueprint)
}
