package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

// stubCatalog serves a fixed in-memory taxonomy.
type stubCatalog struct {
	questions    map[uuid.UUID]model.AssessmentQuestion
	indicators   map[uuid.UUID]model.BehavioralIndicator
	competencies map[uuid.UUID]model.Competency
}

func (s *stubCatalog) QuestionsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.AssessmentQuestion, error) {
	out := make(map[uuid.UUID]model.AssessmentQuestion)
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (s *stubCatalog) IndicatorsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.BehavioralIndicator, error) {
	out := make(map[uuid.UUID]model.BehavioralIndicator)
	for _, id := range ids {
		if ind, ok := s.indicators[id]; ok {
			out[id] = ind
		}
	}
	return out, nil
}

func (s *stubCatalog) CompetenciesByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Competency, error) {
	out := make(map[uuid.UUID]model.Competency)
	for _, id := range ids {
		if c, ok := s.competencies[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// fixture builds one competency with one indicator and n likert questions.
type fixture struct {
	catalog    *stubCatalog
	competency model.Competency
	indicator  model.BehavioralIndicator
	questions  []model.AssessmentQuestion
}

func newFixture(n int) *fixture {
	comp := model.Competency{ID: uuid.New(), Name: "Collaboration", Active: true}
	ind := model.BehavioralIndicator{ID: uuid.New(), CompetencyID: comp.ID, Name: "Shares context", Weight: 1, Active: true}

	f := &fixture{
		catalog: &stubCatalog{
			questions:    map[uuid.UUID]model.AssessmentQuestion{},
			indicators:   map[uuid.UUID]model.BehavioralIndicator{ind.ID: ind},
			competencies: map[uuid.UUID]model.Competency{comp.ID: comp},
		},
		competency: comp,
		indicator:  ind,
	}
	for i := 0; i < n; i++ {
		q := model.AssessmentQuestion{
			ID:           uuid.New(),
			IndicatorID:  ind.ID,
			QuestionType: model.QuestionTypeLikert,
			Active:       true,
		}
		f.catalog.questions[q.ID] = q
		f.questions = append(f.questions, q)
	}
	return f
}

func likertAnswer(questionID uuid.UUID, value int, at time.Time) model.TestAnswer {
	return model.TestAnswer{
		ID:          uuid.New(),
		QuestionID:  questionID,
		LikertValue: intPtr(value),
		AnsweredAt:  &at,
	}
}

func TestAggregateRollsUpToCompetency(t *testing.T) {
	f := newFixture(3)
	agg := NewAggregator(f.catalog, zerolog.Nop())

	now := time.Now()
	answers := []model.TestAnswer{
		likertAnswer(f.questions[0].ID, 5, now), // 4/4
		likertAnswer(f.questions[1].ID, 3, now), // 2/4
		likertAnswer(f.questions[2].ID, 1, now), // 0/4
	}

	res, err := agg.Aggregate(context.Background(), answers)
	require.NoError(t, err)
	require.Len(t, res.Scores, 1)

	cs := res.Scores[0]
	assert.Equal(t, f.competency.ID, cs.CompetencyID)
	assert.Equal(t, 6.0, cs.Score)
	assert.Equal(t, 12.0, cs.MaxScore)
	assert.Equal(t, 50.0, cs.Percentage)
	assert.Equal(t, 3, cs.QuestionsAnswered)
	assert.Empty(t, res.Warnings)
}

func TestAggregateExcludesSkippedAndUnanswered(t *testing.T) {
	f := newFixture(3)
	agg := NewAggregator(f.catalog, zerolog.Nop())

	now := time.Now()
	skipped := likertAnswer(f.questions[1].ID, 5, now)
	skipped.Skipped = true
	unanswered := model.TestAnswer{ID: uuid.New(), QuestionID: f.questions[2].ID, LikertValue: intPtr(5)}

	answers := []model.TestAnswer{
		likertAnswer(f.questions[0].ID, 5, now),
		skipped,
		unanswered,
	}

	res, err := agg.Aggregate(context.Background(), answers)
	require.NoError(t, err)
	require.Len(t, res.Scores, 1)
	assert.Equal(t, 1, res.Scores[0].QuestionsAnswered)
	assert.Equal(t, 4.0, res.Scores[0].Score)
}

func TestAggregateEmptyAnswerSet(t *testing.T) {
	f := newFixture(1)
	agg := NewAggregator(f.catalog, zerolog.Nop())

	res, err := agg.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Scores)
	assert.Empty(t, res.Indicators)
}

func TestAggregateUnknownQuestionBecomesWarning(t *testing.T) {
	f := newFixture(1)
	agg := NewAggregator(f.catalog, zerolog.Nop())

	now := time.Now()
	answers := []model.TestAnswer{
		likertAnswer(f.questions[0].ID, 5, now),
		likertAnswer(uuid.New(), 3, now), // not in the catalog
	}

	res, err := agg.Aggregate(context.Background(), answers)
	require.NoError(t, err)
	require.Len(t, res.Scores, 1)
	assert.Equal(t, 1, res.Scores[0].QuestionsAnswered)
	assert.NotEmpty(t, res.Warnings)
}

func TestApplyEvidenceSufficiency(t *testing.T) {
	scores := []model.CompetencyScore{
		{Name: "thin", QuestionsAnswered: 2},
		{Name: "solid", QuestionsAnswered: 5},
	}
	ApplyEvidenceSufficiency(scores, 5)

	assert.True(t, scores[0].InsufficientEvidence)
	assert.NotEmpty(t, scores[0].EvidenceNote)
	assert.False(t, scores[1].InsufficientEvidence)
	assert.Empty(t, scores[1].EvidenceNote)
}

func TestOverallFromScores(t *testing.T) {
	score, pct := overallFromScores([]model.CompetencyScore{
		{Score: 6, MaxScore: 12},
		{Score: 9, MaxScore: 12},
	})
	assert.Equal(t, 15.0, score)
	assert.Equal(t, 62.5, pct)

	score, pct = overallFromScores(nil)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0.0, pct)
}
