package assembly

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// memoryCatalog is the shared in-memory catalog for assembly tests.
type memoryCatalog struct {
	competencies []model.Competency
	indicators   map[uuid.UUID][]model.BehavioralIndicator // by competency
	questions    map[uuid.UUID][]model.AssessmentQuestion  // by indicator
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		indicators: map[uuid.UUID][]model.BehavioralIndicator{},
		questions:  map[uuid.UUID][]model.AssessmentQuestion{},
	}
}

func (m *memoryCatalog) ListActiveCompetencies(context.Context) ([]model.Competency, error) {
	return m.competencies, nil
}

func (m *memoryCatalog) ListActiveIndicators(_ context.Context, competencyID uuid.UUID) ([]model.BehavioralIndicator, error) {
	return m.indicators[competencyID], nil
}

func (m *memoryCatalog) ListActiveQuestions(_ context.Context, indicatorID uuid.UUID) ([]model.AssessmentQuestion, error) {
	return m.questions[indicatorID], nil
}

// allEligible admits every question.
type allEligible struct{}

func (allEligible) IsEligibleForAssembly(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}

// denyList excludes specific question ids.
type denyList map[uuid.UUID]bool

func (d denyList) IsEligibleForAssembly(_ context.Context, id uuid.UUID) (bool, error) {
	return !d[id], nil
}

func addQuestions(cat *memoryCatalog, indicatorID uuid.UUID, difficulties ...model.Difficulty) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(difficulties))
	for _, d := range difficulties {
		q := model.AssessmentQuestion{
			ID:          uuid.New(),
			IndicatorID: indicatorID,
			Difficulty:  d,
			Active:      true,
		}
		cat.questions[indicatorID] = append(cat.questions[indicatorID], q)
		ids = append(ids, q.ID)
	}
	return ids
}

func TestPickPrefersTargetDifficulty(t *testing.T) {
	cat := newMemoryCatalog()
	ind := uuid.New()
	ids := addQuestions(cat, ind,
		model.DifficultyFoundational,
		model.DifficultyAdvanced,
		model.DifficultyIntermediate,
		model.DifficultyAdvanced,
	)

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	picked, err := picker.Pick(context.Background(), ind, 2, model.DifficultyAdvanced, map[uuid.UUID]bool{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{ids[1], ids[3]}, picked)
}

func TestPickWidensWhenTargetBandRunsDry(t *testing.T) {
	cat := newMemoryCatalog()
	ind := uuid.New()
	addQuestions(cat, ind,
		model.DifficultyAdvanced,
		model.DifficultyFoundational,
		model.DifficultyIntermediate,
	)

	picker := NewPicker(cat, allEligible{}, zerolog.Nop())
	picked, err := picker.Pick(context.Background(), ind, 3, model.DifficultyAdvanced, map[uuid.UUID]bool{})
	require.NoError(t, err)
	assert.Len(t, picked, 3)
}

func TestPickSkipsUsedAndIneligible(t *testing.T) {
	cat := newMemoryCatalog()
	ind := uuid.New()
	ids := addQuestions(cat, ind,
		model.DifficultyIntermediate,
		model.DifficultyIntermediate,
		model.DifficultyIntermediate,
	)

	used := map[uuid.UUID]bool{ids[0]: true}
	picker := NewPicker(cat, denyList{ids[1]: true}, zerolog.Nop())

	picked, err := picker.Pick(context.Background(), ind, 3, model.DifficultyIntermediate, used)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2]}, picked)
	assert.True(t, used[ids[2]])
}

func TestPickZeroCount(t *testing.T) {
	picker := NewPicker(newMemoryCatalog(), allEligible{}, zerolog.Nop())
	picked, err := picker.Pick(context.Background(), uuid.New(), 0, model.DifficultyIntermediate, map[uuid.UUID]bool{})
	require.NoError(t, err)
	assert.Empty(t, picked)
}
