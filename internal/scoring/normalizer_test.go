package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psymetric/psymetric-backend/internal/model"
)

func strPtr(s string) *string       { return &s }
func intPtr(i int) *int             { return &i }
func floatPtr(f float64) *float64   { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func singleChoiceQuestion() model.AssessmentQuestion {
	return model.AssessmentQuestion{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeSingleChoice,
		Options: []model.AnswerOption{
			{Key: "a", Label: "Never", Score: 0},
			{Key: "b", Label: "Sometimes", Score: 2},
			{Key: "c", Label: "Always", Score: 4},
		},
	}
}

func TestNormalizeAnswerSingleChoice(t *testing.T) {
	q := singleChoiceQuestion()
	now := time.Now()

	a := model.TestAnswer{SelectedOption: strPtr("b"), AnsweredAt: &now}
	score, max, err := NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)
	assert.Equal(t, 4.0, max)

	a.SelectedOption = strPtr("z")
	_, _, err = NormalizeAnswer(&q, &a)
	assert.Error(t, err)

	a.SelectedOption = nil
	_, _, err = NormalizeAnswer(&q, &a)
	assert.Error(t, err)
}

func TestNormalizeAnswerSingleChoiceNoScorableOptions(t *testing.T) {
	q := model.AssessmentQuestion{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeSingleChoice,
		Options:      []model.AnswerOption{{Key: "a", Score: 0}, {Key: "b", Score: 0}},
	}
	a := model.TestAnswer{SelectedOption: strPtr("a")}
	_, _, err := NormalizeAnswer(&q, &a)
	assert.Error(t, err)
}

func TestNormalizeAnswerLikert(t *testing.T) {
	q := model.AssessmentQuestion{ID: uuid.New(), QuestionType: model.QuestionTypeLikert}

	// Default 5-point scale: value 1 -> 0 points, value 5 -> 4 points.
	a := model.TestAnswer{LikertValue: intPtr(1)}
	score, max, err := NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 4.0, max)

	a.LikertValue = intPtr(5)
	score, max, err = NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, 4.0, score)
	assert.Equal(t, 4.0, max)

	// Values beyond the scale clamp instead of erroring.
	a.LikertValue = intPtr(9)
	score, _, err = NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, 4.0, score)

	a.LikertValue = nil
	_, _, err = NormalizeAnswer(&q, &a)
	assert.Error(t, err)
}

func TestNormalizeAnswerLikertCustomScale(t *testing.T) {
	q := model.AssessmentQuestion{
		ID:           uuid.New(),
		QuestionType: model.QuestionTypeLikert,
		Options: []model.AnswerOption{
			{Key: "1"}, {Key: "2"}, {Key: "3"}, {Key: "4"}, {Key: "5"}, {Key: "6"}, {Key: "7"},
		},
	}
	a := model.TestAnswer{LikertValue: intPtr(7)}
	score, max, err := NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, 6.0, score)
	assert.Equal(t, 6.0, max)
}

func TestNormalizeAnswerOpenText(t *testing.T) {
	q := model.AssessmentQuestion{
		ID:             uuid.New(),
		QuestionType:   model.QuestionTypeOpenText,
		RubricMaxScore: floatPtr(10),
	}

	// Ungraded text answer contributes zero against the rubric max.
	a := model.TestAnswer{TextResponse: strPtr("some essay")}
	score, max, err := NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 10.0, max)

	a.Score = floatPtr(7.5)
	score, max, err = NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, 7.5, score)
	assert.Equal(t, 10.0, max)

	// Without an authored rubric the default maximum applies.
	q.RubricMaxScore = nil
	a.Score = floatPtr(99)
	score, max, err = NormalizeAnswer(&q, &a)
	require.NoError(t, err)
	assert.Equal(t, defaultRubricMax, max)
	assert.Equal(t, defaultRubricMax, score)
}

func TestNormalizeAnswerUnsupportedType(t *testing.T) {
	q := model.AssessmentQuestion{ID: uuid.New(), QuestionType: "ESSAY"}
	a := model.TestAnswer{}
	_, _, err := NormalizeAnswer(&q, &a)
	assert.Error(t, err)
}
