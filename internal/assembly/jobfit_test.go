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

func jobFitTemplate(t *testing.T, role string, quota int) *model.TestTemplate {
	t.Helper()
	raw, err := json.Marshal(model.JobFitBlueprint{RoleCode: role, QuestionsPerIndicator: quota})
	require.NoError(t, err)
	return &model.TestTemplate{ID: uuid.New(), Goal: model.GoalJobFit, Blueprint: raw}
}

func TestJobFitAssembleMatchesRoleAndUniversal(t *testing.T) {
	cat := newMemoryCatalog()
	comp := addCompetency(cat, "Communication")

	sre := "SRE"
	other := "SALES"
	roleInd := addIndicator(cat, comp.ID, 2, model.ScopeRoleSpecific, &sre)
	universalInd := addIndicator(cat, comp.ID, 1, model.ScopeUniversal, nil)
	otherInd := addIndicator(cat, comp.ID, 3, model.ScopeRoleSpecific, &other)

	roleIDs := addQuestions(cat, roleInd.ID, model.DifficultyIntermediate, model.DifficultyIntermediate)
	universalIDs := addQuestions(cat, universalInd.ID, model.DifficultyIntermediate, model.DifficultyIntermediate)
	otherIDs := addQuestions(cat, otherInd.ID, model.DifficultyIntermediate, model.DifficultyIntermediate)

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewJobFitAssembler(cat, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), jobFitTemplate(t, "SRE", 2))
	require.NoError(t, err)

	assert.ElementsMatch(t, append(roleIDs, universalIDs...), res.QuestionIDs)
	for _, id := range otherIDs {
		assert.NotContains(t, res.QuestionIDs, id)
	}
	assert.Empty(t, res.Warnings)
}

func TestJobFitAssembleHeaviestIndicatorFirst(t *testing.T) {
	cat := newMemoryCatalog()
	comp := addCompetency(cat, "Ownership")

	light := addIndicator(cat, comp.ID, 1, model.ScopeUniversal, nil)
	heavy := addIndicator(cat, comp.ID, 5, model.ScopeUniversal, nil)
	lightIDs := addQuestions(cat, light.ID, model.DifficultyIntermediate)
	heavyIDs := addQuestions(cat, heavy.ID, model.DifficultyIntermediate)

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewJobFitAssembler(cat, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), jobFitTemplate(t, "ANY", 1))
	require.NoError(t, err)
	require.Len(t, res.QuestionIDs, 2)
	assert.Equal(t, heavyIDs[0], res.QuestionIDs[0])
	assert.Equal(t, lightIDs[0], res.QuestionIDs[1])
}

func TestJobFitAssembleFallsBackWhenRoleMatchesNothing(t *testing.T) {
	cat := newMemoryCatalog()
	comp := addCompetency(cat, "Negotiation")
	sales := "SALES"
	ind := addIndicator(cat, comp.ID, 1, model.ScopeRoleSpecific, &sales)
	addQuestions(cat, ind.ID, model.DifficultyIntermediate, model.DifficultyIntermediate)

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	asm := NewJobFitAssembler(cat, picker, zerolog.Nop())

	res, err := asm.Assemble(context.Background(), jobFitTemplate(t, "SRE", 2))
	require.NoError(t, err)
	assert.Len(t, res.QuestionIDs, 2)
	assert.NotEmpty(t, res.Warnings)
}

func TestJobFitAssembleMissingBlueprint(t *testing.T) {
	picker := NewPicker(newMemoryCatalog(), allEligible{}, zerolog.Nop())
	asm := NewJobFitAssembler(newMemoryCatalog(), picker, zerolog.Nop())

	_, err := asm.Assemble(context.Background(), &model.TestTemplate{Goal: model.GoalJobFit})
	assert.ErrorIs(t, err, model.ErrMissingBlueprint)
}
