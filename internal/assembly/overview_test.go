package assembly

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

func overviewTemplate(t *testing.T, quota int) *model.TestTemplate {
	t.Helper()
	raw, err := json.Marshal(model.OverviewBlueprint{QuestionsPerCompetency: quota})
	require.NoError(t, err)
	return &model.TestTemplate{ID: uuid.New(), Goal: model.GoalOverview, Blueprint: raw}
}

func addCompetency(cat *memoryCatalog, name string) model.Competency {
	comp := model.Competency{ID: uuid.New(), Name: name, Active: true}
	cat.competencies = append(cat.competencies, comp)
	return comp
}

func addIndicator(cat *memoryCatalog, competencyID uuid.UUID, weight float64, scope model.ContextScope, roleCode *string) model.BehavioralIndicator {
	ind := model.BehavioralIndicator{
		ID:           uuid.New(),
		CompetencyID: competencyID,
		Weight:       weight,
		Scope:        scope,
		RoleCode:     roleCode,
		Active:       true,
	}
	cat.indicators[competencyID] = append(cat.indicators[competencyID], ind)
	return ind
}

func TestOverviewAssembleCoversEveryCompetency(t *testing.T) {
	cat := newMemoryCatalog()
	for _, name := range []string{"Collaboration", "Adaptability"} {
		comp := addCompetency(cat, name)
		ind := addIndicator(cat, comp.ID, 1, model.ScopeUniversal, nil)
		addQuestions(cat, ind.ID,
			model.DifficultyIntermediate,
			model.DifficultyIntermediate,
			model.DifficultyIntermediate,
			model.DifficultyIntermediate,
		)
	}

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewOverviewAssembler(cat, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), overviewTemplate(t, 3))
	require.NoError(t, err)
	assert.Len(t, res.QuestionIDs, 6)
	assert.Empty(t, res.Warnings)
}

func TestOverviewAssembleFallsBackToRoleIndicators(t *testing.T) {
	cat := newMemoryCatalog()
	comp := addCompetency(cat, "Leadership")
	role := "MANAGER"
	ind := addIndicator(cat, comp.ID, 1, model.ScopeRoleSpecific, &role)
	addQuestions(cat, ind.ID, model.DifficultyIntermediate, model.DifficultyIntermediate)

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewOverviewAssembler(cat, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), overviewTemplate(t, 2))
	require.NoError(t, err)
	assert.Len(t, res.QuestionIDs, 2)
}

func TestOverviewAssembleShortInventoryWarns(t *testing.T) {
	cat := newMemoryCatalog()
	comp := addCompetency(cat, "Collaboration")
	ind := addIndicator(cat, comp.ID, 1, model.ScopeUniversal, nil)
	addQuestions(cat, ind.ID, model.DifficultyIntermediate)

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewOverviewAssembler(cat, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), overviewTemplate(t, 3))
	require.NoError(t, err)
	assert.Len(t, res.QuestionIDs, 1)
	assert.NotEmpty(t, res.Warnings)
}

func TestOverviewAssembleEmptyTaxonomy(t *testing.T) {
	picker := NewPicker(newMemoryCatalog(), allEligible{}, zerolog.Nop())
	asm := NewOverviewAssembler(newMemoryCatalog(), picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), overviewTemplate(t, 3))
	require.NoError(t, err)
	assert.Empty(t, res.QuestionIDs)
	assert.NotEmpty(t, res.Warnings)
}

func TestOverviewAssembleMissingBlueprint(t *testing.T) {
	picker := NewPicker(newMemoryCatalog(), allEligible{}, zerolog.Nop())
	asm := NewOverviewAssembler(newMemoryCatalog(), picker, zerolog.Nop())

	_, err := asm.Assemble(context.Background(), &model.TestTemplate{Goal: model.GoalOverview})
	assert.ErrorIs(t, err, model.ErrMissingBlueprint)
}
